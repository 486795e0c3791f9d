package database

import (
	"pulse/internal/models"

	"gorm.io/gorm"
)

// Models returns every model registered for migration, leaf tables first.
func Models() []any {
	return []any{
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Like{},
		&models.Repost{},
		&models.Comment{},
		&models.PostInteraction{},
		&models.Hashtag{},
		&models.PostHashtag{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollVote{},
		&models.Notification{},
		&models.NotificationPreferences{},
	}
}

// Migrate runs GORM auto-migration for all registered models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
