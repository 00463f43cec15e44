package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"campingrate/internal/auth"
	"campingrate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(bcrypt.MinCost)
}

func newTestTokens() *tokenIssuerStub {
	return &tokenIssuerStub{issueFn: func(id auth.Identity) (string, error) {
		return "token-for-" + id.Username, nil
	}}
}

func TestAuthService_Register_ValidationOrder(t *testing.T) {
	t.Parallel()

	taken := noopUserRepo()
	taken.getByUsernameFoldFn = func(_ context.Context, username string) (*models.User, error) {
		if strings.EqualFold(username, "ranger") {
			return &models.User{ID: 1, Username: "Ranger"}, nil
		}
		return nil, nil
	}
	taken.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == "used@example.com" {
			return &models.User{ID: 2}, nil
		}
		return nil, nil
	}

	tests := []struct {
		name    string
		in      RegisterInput
		code    models.ErrorCode
		message string
	}{
		{"missing username", RegisterInput{Email: "", Password: ""}, models.CodeValidation, "Username is required"},
		{"long username", RegisterInput{Username: strings.Repeat("u", 15)}, models.CodeValidation, "Username can only have 14 characters"},
		{"taken username any case", RegisterInput{Username: "RANGER"}, models.CodeConflict, "Username already taken"},
		{"missing email", RegisterInput{Username: "hiker"}, models.CodeValidation, "Email is required"},
		{"long email", RegisterInput{Username: "hiker", Email: strings.Repeat("e", 250) + "@x.io"}, models.CodeValidation, "Email too big"},
		{"used email any case", RegisterInput{Username: "hiker", Email: "USED@example.com"}, models.CodeConflict, "Email already used"},
		{"missing password", RegisterInput{Username: "hiker", Email: "h@example.com"}, models.CodeValidation, "Password is required"},
		{"short password", RegisterInput{Username: "hiker", Email: "h@example.com", Password: "12345"}, models.CodeValidation, "Password should be at least 6 characters long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewAuthService(taken, newTestHasher(), newTestTokens())
			_, err := svc.Register(context.Background(), tt.in)
			appErr := assertAppError(t, err, tt.code)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestAuthService_Register_ShortPasswordNeverPersists(t *testing.T) {
	t.Parallel()

	created := 0
	repo := noopUserRepo()
	repo.createFn = func(_ context.Context, _ *models.User) error {
		created++
		return nil
	}

	svc := NewAuthService(repo, newTestHasher(), newTestTokens())
	_, err := svc.Register(context.Background(), RegisterInput{Username: "hiker", Email: "h@example.com", Password: "abc"})
	assertValidationError(t, err, "Password should be at least 6 characters long")
	assert.Zero(t, created)
}

func TestAuthService_Register_Success(t *testing.T) {
	t.Parallel()

	var stored *models.User
	repo := noopUserRepo()
	repo.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 9
		stored = u
		return nil
	}

	hasher := newTestHasher()
	svc := NewAuthService(repo, hasher, newTestTokens())
	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "Hiker",
		Email:    "  Hiker@Example.COM ",
		Password: "secret1",
	})
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, uint(9), user.ID)
	assert.Equal(t, "Hiker", user.Username)
	assert.Equal(t, "hiker@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.Password)
	assert.True(t, hasher.Verify("secret1", user.Password))
}

func TestAuthService_Register_RepositoryConflictPropagates(t *testing.T) {
	t.Parallel()

	repo := noopUserRepo()
	repo.createFn = func(_ context.Context, _ *models.User) error {
		return models.NewConflictError("Email already used")
	}

	svc := NewAuthService(repo, newTestHasher(), newTestTokens())
	_, err := svc.Register(context.Background(), RegisterInput{Username: "hiker", Email: "h@example.com", Password: "secret1"})
	assertAppError(t, err, models.CodeConflict)
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	hasher := newTestHasher()
	hashed, err := hasher.Hash("secret1")
	require.NoError(t, err)

	repo := noopUserRepo()
	repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == "hiker@example.com" {
			return &models.User{ID: 3, Username: "hiker", Email: email, Password: hashed}, nil
		}
		return nil, nil
	}

	var issued auth.Identity
	tokens := &tokenIssuerStub{issueFn: func(id auth.Identity) (string, error) {
		issued = id
		return "signed", nil
	}}
	svc := NewAuthService(repo, hasher, tokens)

	t.Run("success normalises email", func(t *testing.T) {
		user, token, err := svc.Login(context.Background(), LoginInput{Email: "HIKER@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "signed", token)
		assert.Equal(t, uint(3), user.ID)
		assert.Equal(t, auth.Identity{UserID: 3, Email: "hiker@example.com", Username: "hiker"}, issued)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, token, err := svc.Login(context.Background(), LoginInput{Email: "hiker@example.com", Password: "nope"})
		appErr := assertAppError(t, err, models.CodeUnauthorized)
		assert.Equal(t, InvalidCredentialsMessage, appErr.Message)
		assert.Empty(t, token)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "secret1"})
		appErr := assertAppError(t, err, models.CodeUnauthorized)
		assert.Equal(t, InvalidCredentialsMessage, appErr.Message)
	})
}

func TestAuthService_Login_IssueFailure(t *testing.T) {
	t.Parallel()

	hasher := newTestHasher()
	hashed, err := hasher.Hash("secret1")
	require.NoError(t, err)

	repo := noopUserRepo()
	repo.getByEmailFn = func(_ context.Context, _ string) (*models.User, error) {
		return &models.User{ID: 3, Password: hashed}, nil
	}
	tokens := &tokenIssuerStub{issueFn: func(auth.Identity) (string, error) { return "", errors.New("no key") }}

	_, _, err = NewAuthService(repo, hasher, tokens).Login(context.Background(), LoginInput{Email: "a@b.c", Password: "secret1"})
	assertAppError(t, err, models.CodeInternal)
}
