package repository

import (
	"context"
	"errors"

	"pulse/internal/models"

	"gorm.io/gorm"
)

// PollRepository defines the interface for poll data operations
type PollRepository interface {
	Create(ctx context.Context, postID uint, question string, options []string) (*models.Poll, error)
	GetByPostID(ctx context.Context, postID uint) (*models.Poll, error)
	// Vote records the user's vote. A first vote increments the chosen
	// option; a changed vote moves the count from the old option to the new
	// one in a single transaction. Voting for the already-chosen option
	// returns a validation error.
	Vote(ctx context.Context, userID, pollID, optionID uint) error
}

// pollRepository implements PollRepository
type pollRepository struct {
	db *gorm.DB
}

// NewPollRepository creates a new poll repository
func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

func (r *pollRepository) Create(ctx context.Context, postID uint, question string, options []string) (*models.Poll, error) {
	poll := &models.Poll{PostID: postID, Question: question}
	for _, text := range options {
		poll.Options = append(poll.Options, models.PollOption{Text: text})
	}
	if err := r.db.WithContext(ctx).Create(poll).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return poll, nil
}

func (r *pollRepository) GetByPostID(ctx context.Context, postID uint) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.WithContext(ctx).
		Preload("Options").
		Where("post_id = ?", postID).
		First(&poll).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Poll", postID)
		}
		return nil, models.NewInternalError(err)
	}
	return &poll, nil
}

func (r *pollRepository) Vote(ctx context.Context, userID, pollID, optionID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.PollVote
		findErr := tx.Where("poll_id = ? AND user_id = ?", pollID, userID).First(&existing).Error

		switch {
		case findErr == nil:
			if existing.OptionID == optionID {
				return models.NewValidationError("Already voted for this option")
			}
			// Move the vote: decrement old option, increment new one.
			if err := tx.Model(&models.PollOption{}).
				Where("id = ? AND votes > 0", existing.OptionID).
				Update("votes", gorm.Expr("votes - 1")).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.PollOption{}).
				Where("id = ?", optionID).
				Update("votes", gorm.Expr("votes + 1")).Error; err != nil {
				return err
			}
			existing.OptionID = optionID
			return tx.Save(&existing).Error

		case errors.Is(findErr, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.PollVote{PollID: pollID, UserID: userID, OptionID: optionID}).Error; err != nil {
				return err
			}
			return tx.Model(&models.PollOption{}).
				Where("id = ?", optionID).
				Update("votes", gorm.Expr("votes + 1")).Error

		default:
			return findErr
		}
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return models.NewInternalError(err)
	}
	return nil
}
