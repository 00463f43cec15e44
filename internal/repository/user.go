package repository

import (
	"context"
	"errors"
	"strings"

	"campingrate/internal/models"
	"campingrate/internal/observability"

	"gorm.io/gorm"
)

// Messages reported when a registration races past the uniqueness checks.
const (
	UsernameTakenMessage = "Username already taken"
	EmailUsedMessage     = "Email already used"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByEmail returns nil, nil when no user has the (already normalised) email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByUsernameFold matches usernames case-insensitively and returns nil, nil on a miss.
	GetByUsernameFold(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsernameFold(ctx context.Context, username string) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(username) = ?", strings.ToLower(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", "users")()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if constraint, ok := isUniqueConstraintError(err); ok {
			if strings.Contains(constraint, "email") {
				return models.NewConflictError(EmailUsedMessage)
			}
			return models.NewConflictError(UsernameTakenMessage)
		}
		return models.NewInternalError(err)
	}
	return nil
}
