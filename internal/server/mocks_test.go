package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"campingrate/internal/auth"
	"campingrate/internal/config"
	"campingrate/internal/featureflags"
	"campingrate/internal/geocode"
	"campingrate/internal/models"
	"campingrate/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsernameFold(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockCampgroundRepository is a mock of the CampgroundRepository interface
type MockCampgroundRepository struct {
	mock.Mock
}

func (m *MockCampgroundRepository) Create(ctx context.Context, campground *models.Campground) error {
	args := m.Called(ctx, campground)
	return args.Error(0)
}

func (m *MockCampgroundRepository) GetByID(ctx context.Context, id uint) (*models.Campground, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campground), args.Error(1)
}

func (m *MockCampgroundRepository) List(ctx context.Context) ([]models.Campground, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Campground), args.Error(1)
}

func (m *MockCampgroundRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Campground, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).([]models.Campground), args.Error(1)
}

func (m *MockCampgroundRepository) DeleteCascade(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReviewRepository is a mock of the ReviewRepository interface
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) ListByCampground(ctx context.Context, campgroundID uint) ([]models.Review, error) {
	args := m.Called(ctx, campgroundID)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockReviewRepository) Ratings(ctx context.Context, campgroundID uint) ([]int, error) {
	args := m.Called(ctx, campgroundID)
	return args.Get(0).([]int), args.Error(1)
}

// MockGeocoder is a mock of geocode.Geocoder
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Forward(ctx context.Context, address string) (*geocode.Coordinates, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geocode.Coordinates), args.Error(1)
}

type mockServer struct {
	*Server
	users       *MockUserRepository
	campgrounds *MockCampgroundRepository
	reviews     *MockReviewRepository
	geocoder    *MockGeocoder
	store       *storage.MemoryStore
}

func newMockServer(t *testing.T, cfg *config.Config) *mockServer {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.JWTSecret = testSecret
	cfg.Env = "test"

	ms := &mockServer{
		users:       new(MockUserRepository),
		campgrounds: new(MockCampgroundRepository),
		reviews:     new(MockReviewRepository),
		geocoder:    new(MockGeocoder),
		store:       storage.NewMemoryStore("http://images.test"),
	}
	ms.Server = &Server{
		config:         cfg,
		tokens:         auth.NewTokenManager(testSecret),
		images:         ms.store,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       ms.users,
		campgroundRepo: ms.campgrounds,
		reviewRepo:     ms.reviews,
	}
	ms.wireServices(ms.geocoder)
	return ms
}

// sessionCookie signs a token for the given user as the login handler would.
func (ms *mockServer) sessionCookie(t *testing.T, userID uint, username string) *http.Cookie {
	t.Helper()
	token, err := ms.tokens.Issue(auth.Identity{UserID: userID, Email: username + "@example.com", Username: username})
	require.NoError(t, err)
	return &http.Cookie{Name: "token", Value: token}
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func decodeList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	var body []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
