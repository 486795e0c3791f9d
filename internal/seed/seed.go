package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"pulse/internal/database"
	"pulse/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers           int
	NumPosts           int
	ShouldClean        bool
	InitialLifeSeconds int
	ExtensionSeconds   int
	// PersonasPath points at a YAML persona fixture; empty uses the
	// built-in set.
	PersonasPath string
}

// Run populates the database with personas, random users, posts, follows
// and likes.
func Run(db *gorm.DB, opts Options) error {
	if opts.InitialLifeSeconds <= 0 {
		opts.InitialLifeSeconds = 300
	}
	if opts.ExtensionSeconds <= 0 {
		opts.ExtensionSeconds = 60
	}

	if opts.ShouldClean {
		if err := Clean(db); err != nil {
			return fmt.Errorf("cleaning database: %w", err)
		}
	}

	factory := NewFactory(db, opts)

	personas := DefaultPersonas()
	if opts.PersonasPath != "" {
		loaded, err := LoadPersonas(opts.PersonasPath)
		if err != nil {
			return err
		}
		personas = loaded
	}

	personaUsers, err := seedPersonas(factory, personas, opts)
	if err != nil {
		return err
	}
	log.Printf("Seeded %d personas", len(personaUsers))

	users := make([]*models.User, 0, opts.NumUsers)
	for _, u := range personaUsers {
		users = append(users, u)
	}
	for i := len(users); i < opts.NumUsers; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Seeded %d users", len(users))

	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[r.Intn(len(users))]
		posts = append(posts, factory.BuildPost(author, opts.InitialLifeSeconds))
	}
	if err := factory.CreatePostsBatch(posts); err != nil {
		return fmt.Errorf("creating posts: %w", err)
	}
	log.Printf("Seeded %d posts", len(posts))

	follows := 0
	for _, follower := range users {
		for i := 0; i < 3 && len(users) > 1; i++ {
			followee := users[r.Intn(len(users))]
			if followee.ID == follower.ID {
				continue
			}
			if err := factory.CreateFollow(follower.ID, followee.ID); err != nil {
				continue // duplicate edge
			}
			follows++
		}
	}
	log.Printf("Seeded %d follow edges", follows)

	likes := 0
	for _, post := range posts {
		for i := 0; i < r.Intn(4); i++ {
			user := users[r.Intn(len(users))]
			if err := factory.CreateLike(post, user.ID, opts.ExtensionSeconds); err != nil {
				continue // duplicate like
			}
			likes++
		}
	}
	log.Printf("Seeded %d likes", likes)

	return nil
}

func seedPersonas(factory *Factory, personas []Persona, opts Options) (map[string]*models.User, error) {
	byUsername := make(map[string]*models.User, len(personas))
	for _, p := range personas {
		persona := p
		user, err := factory.CreateUser(func(u *models.User) {
			u.Username = persona.Username
			u.Email = persona.Username + "@pulse.dev"
			u.DisplayName = persona.DisplayName
			u.Bio = persona.Bio
			u.IsPrivate = persona.IsPrivate
		})
		if err != nil {
			return nil, fmt.Errorf("creating persona %s: %w", p.Username, err)
		}
		byUsername[p.Username] = user
	}

	for _, p := range personas {
		follower := byUsername[p.Username]
		for _, followee := range p.Follows {
			target, ok := byUsername[followee]
			if !ok {
				continue
			}
			if err := factory.CreateFollow(follower.ID, target.ID); err != nil {
				return nil, fmt.Errorf("creating persona follow: %w", err)
			}
		}

		var posts []*models.Post
		for _, text := range p.Posts {
			body := text
			posts = append(posts, factory.BuildPost(follower, opts.InitialLifeSeconds, func(post *models.Post) {
				post.Text = body
				post.PostType = models.PostTypeText
				post.ContentURL = ""
			}))
		}
		if err := factory.CreatePostsBatch(posts); err != nil {
			return nil, fmt.Errorf("creating persona posts: %w", err)
		}
	}

	return byUsername, nil
}

// Clean truncates all seeded tables, children before parents.
func Clean(db *gorm.DB) error {
	all := database.Models()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(all[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
