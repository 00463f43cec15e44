package service

import (
	"context"
	"errors"
	"testing"

	"campingrate/internal/auth"
	"campingrate/internal/geocode"
	"campingrate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAppError(t *testing.T, err error, code models.ErrorCode) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func assertValidationError(t *testing.T, err error, message string) {
	t.Helper()
	appErr := assertAppError(t, err, models.CodeValidation)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn           func(context.Context, uint) (*models.User, error)
	getByEmailFn        func(context.Context, string) (*models.User, error)
	getByUsernameFoldFn func(context.Context, string) (*models.User, error)
	createFn            func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsernameFold(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFoldFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:           func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:        func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFoldFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:            func(_ context.Context, _ *models.User) error { return nil },
	}
}

// campgroundRepoStub is a stub for repository.CampgroundRepository.
type campgroundRepoStub struct {
	createFn        func(context.Context, *models.Campground) error
	getByIDFn       func(context.Context, uint) (*models.Campground, error)
	listFn          func(context.Context) ([]models.Campground, error)
	listByAuthorFn  func(context.Context, uint) ([]models.Campground, error)
	deleteCascadeFn func(context.Context, uint) error
}

func (s *campgroundRepoStub) Create(ctx context.Context, c *models.Campground) error {
	return s.createFn(ctx, c)
}
func (s *campgroundRepoStub) GetByID(ctx context.Context, id uint) (*models.Campground, error) {
	return s.getByIDFn(ctx, id)
}
func (s *campgroundRepoStub) List(ctx context.Context) ([]models.Campground, error) {
	return s.listFn(ctx)
}
func (s *campgroundRepoStub) ListByAuthor(ctx context.Context, authorID uint) ([]models.Campground, error) {
	return s.listByAuthorFn(ctx, authorID)
}
func (s *campgroundRepoStub) DeleteCascade(ctx context.Context, id uint) error {
	return s.deleteCascadeFn(ctx, id)
}

func noopCampgroundRepo() *campgroundRepoStub {
	return &campgroundRepoStub{
		createFn:        func(_ context.Context, _ *models.Campground) error { return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.Campground, error) { return &models.Campground{ID: id}, nil },
		listFn:          func(_ context.Context) ([]models.Campground, error) { return nil, nil },
		listByAuthorFn:  func(_ context.Context, _ uint) ([]models.Campground, error) { return nil, nil },
		deleteCascadeFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// reviewRepoStub is a stub for repository.ReviewRepository.
type reviewRepoStub struct {
	createFn           func(context.Context, *models.Review) error
	listByCampgroundFn func(context.Context, uint) ([]models.Review, error)
	ratingsFn          func(context.Context, uint) ([]int, error)
}

func (s *reviewRepoStub) Create(ctx context.Context, r *models.Review) error {
	return s.createFn(ctx, r)
}
func (s *reviewRepoStub) ListByCampground(ctx context.Context, campgroundID uint) ([]models.Review, error) {
	return s.listByCampgroundFn(ctx, campgroundID)
}
func (s *reviewRepoStub) Ratings(ctx context.Context, campgroundID uint) ([]int, error) {
	return s.ratingsFn(ctx, campgroundID)
}

func noopReviewRepo() *reviewRepoStub {
	return &reviewRepoStub{
		createFn:           func(_ context.Context, _ *models.Review) error { return nil },
		listByCampgroundFn: func(_ context.Context, _ uint) ([]models.Review, error) { return nil, nil },
		ratingsFn:          func(_ context.Context, _ uint) ([]int, error) { return nil, nil },
	}
}

// geocoderStub is a stub for geocode.Geocoder.
type geocoderStub struct {
	calls     int
	forwardFn func(context.Context, string) (*geocode.Coordinates, error)
}

func (s *geocoderStub) Forward(ctx context.Context, address string) (*geocode.Coordinates, error) {
	s.calls++
	return s.forwardFn(ctx, address)
}

func fixedGeocoder() *geocoderStub {
	return &geocoderStub{forwardFn: func(_ context.Context, _ string) (*geocode.Coordinates, error) {
		return &geocode.Coordinates{Latitude: "37.7456", Longitude: "-119.5936"}, nil
	}}
}

// tokenIssuerStub is a stub for TokenIssuer.
type tokenIssuerStub struct {
	issueFn func(auth.Identity) (string, error)
}

func (s *tokenIssuerStub) Issue(id auth.Identity) (string, error) {
	return s.issueFn(id)
}
