// Package service holds the business rules between HTTP handlers and repositories.
package service

import (
	"context"

	"campingrate/internal/auth"
	"campingrate/internal/models"
	"campingrate/internal/observability"
	"campingrate/internal/repository"
	"campingrate/internal/validation"
)

// InvalidCredentialsMessage is the single answer for unknown emails and wrong passwords.
const InvalidCredentialsMessage = "Invalid credentials"

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hashed string) bool
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

type AuthService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

func NewAuthService(users repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register checks the input field by field, stopping at the first failure, and
// only then hashes the password and stores the user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	existing, err := s.users.GetByUsernameFold(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError(repository.UsernameTakenMessage)
	}

	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	email := validation.NormalizeEmail(in.Email)
	existing, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError(repository.EmailUsedMessage)
	}

	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    email,
		Password: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	observability.AuthEvents.WithLabelValues("register").Inc()
	return user, nil
}

// Login returns the user and a fresh session token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(in.Email))
	if err != nil {
		return nil, "", err
	}
	if user == nil || !s.hasher.Verify(in.Password, user.Password) {
		observability.AuthEvents.WithLabelValues("login_failed").Inc()
		return nil, "", models.NewUnauthorizedError(InvalidCredentialsMessage)
	}

	token, err := s.tokens.Issue(auth.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	observability.AuthEvents.WithLabelValues("login").Inc()
	return user, token, nil
}
