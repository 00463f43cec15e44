package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campingrate/internal/auth"
	"campingrate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func(*MockUserRepository)
		expectedStatus int
		expectedError  string
		expectCreate   bool
	}{
		{
			name: "Success",
			body: map[string]string{"username": "ranger", "email": "Ranger@Example.com", "password": "secret1"},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByUsernameFold", mock.Anything, "ranger").Return(nil, nil)
				m.On("GetByEmail", mock.Anything, "ranger@example.com").Return(nil, nil)
				m.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
					Run(func(args mock.Arguments) { args.Get(1).(*models.User).ID = 1 }).
					Return(nil)
			},
			expectedStatus: http.StatusCreated,
			expectCreate:   true,
		},
		{
			name: "Username Taken In Other Case",
			body: map[string]string{"username": "RANGER", "email": "new@example.com", "password": "secret1"},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByUsernameFold", mock.Anything, "RANGER").Return(&models.User{ID: 1, Username: "ranger"}, nil)
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "Username already taken",
		},
		{
			name: "Email Used",
			body: map[string]string{"username": "hiker", "email": "ranger@example.com", "password": "secret1"},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByUsernameFold", mock.Anything, "hiker").Return(nil, nil)
				m.On("GetByEmail", mock.Anything, "ranger@example.com").Return(&models.User{ID: 1}, nil)
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "Email already used",
		},
		{
			name: "Short Password",
			body: map[string]string{"username": "hiker", "email": "hiker@example.com", "password": "abc"},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByUsernameFold", mock.Anything, "hiker").Return(nil, nil)
				m.On("GetByEmail", mock.Anything, "hiker@example.com").Return(nil, nil)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Password should be at least 6 characters long",
		},
		{
			name:           "Missing Username",
			body:           map[string]string{"email": "hiker@example.com", "password": "secret1"},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Username is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := newMockServer(t, nil)
			tt.mockSetup(ms.users)

			resp := doRequest(t, ms.App(), http.MethodPost, "/api/register", tt.body)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			body := decodeMap(t, resp)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
			} else {
				assert.Equal(t, "ranger", body["username"])
				assert.Equal(t, "ranger@example.com", body["email"])
				assert.NotContains(t, body, "password")
			}

			if tt.expectCreate {
				ms.users.AssertCalled(t, "Create", mock.Anything, mock.Anything)
			} else {
				ms.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
			assert.Nil(t, findCookie(resp, "token"))
		})
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	ms := newMockServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ms.App().Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", decodeMap(t, resp)["error"])
}

func hashedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hashed, err := auth.NewPasswordHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	return &models.User{ID: 7, Username: "ranger", Email: "ranger@example.com", Password: hashed}
}

func TestLogin(t *testing.T) {
	t.Run("Success Sets Session Cookie", func(t *testing.T) {
		ms := newMockServer(t, nil)
		ms.users.On("GetByEmail", mock.Anything, "ranger@example.com").Return(hashedUser(t, "secret1"), nil)

		resp := doRequest(t, ms.App(), http.MethodPost, "/api/login",
			map[string]string{"email": "RANGER@example.com", "password": "secret1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeMap(t, resp)
		assert.Equal(t, "ranger", body["username"])
		assert.NotContains(t, body, "password")

		cookie := findCookie(resp, "token")
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.False(t, cookie.Secure)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		assert.Equal(t, 604800, cookie.MaxAge)

		claims, err := ms.tokens.Verify(cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, uint(7), claims.ID)
		assert.Equal(t, "ranger", claims.Username)
		assert.Equal(t, "ranger@example.com", claims.Email)
	})

	t.Run("Secure Cookie In Production", func(t *testing.T) {
		ms := newMockServer(t, nil)
		ms.config.Env = "production"
		ms.users.On("GetByEmail", mock.Anything, "ranger@example.com").Return(hashedUser(t, "secret1"), nil)

		resp := doRequest(t, ms.App(), http.MethodPost, "/api/login",
			map[string]string{"email": "ranger@example.com", "password": "secret1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		cookie := findCookie(resp, "token")
		require.NotNil(t, cookie)
		assert.True(t, cookie.Secure)
	})

	t.Run("Wrong Password Issues No Cookie", func(t *testing.T) {
		ms := newMockServer(t, nil)
		ms.users.On("GetByEmail", mock.Anything, "ranger@example.com").Return(hashedUser(t, "secret1"), nil)

		resp := doRequest(t, ms.App(), http.MethodPost, "/api/login",
			map[string]string{"email": "ranger@example.com", "password": "wrong-password"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Empty(t, resp.Header.Values("Set-Cookie"))

		body := decodeMap(t, resp)
		assert.Equal(t, "Invalid credentials", body["error"])
		assert.Equal(t, "UNAUTHORIZED", body["code"])
	})

	t.Run("Unknown Email", func(t *testing.T) {
		ms := newMockServer(t, nil)
		ms.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

		resp := doRequest(t, ms.App(), http.MethodPost, "/api/login",
			map[string]string{"email": "ghost@example.com", "password": "secret1"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Nil(t, findCookie(resp, "token"))
	})

	t.Run("Repository Failure", func(t *testing.T) {
		ms := newMockServer(t, nil)
		ms.users.On("GetByEmail", mock.Anything, "ranger@example.com").Return(nil, context.DeadlineExceeded)

		resp := doRequest(t, ms.App(), http.MethodPost, "/api/login",
			map[string]string{"email": "ranger@example.com", "password": "secret1"})
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestProfile(t *testing.T) {
	ms := newMockServer(t, nil)
	app := ms.App()

	readBody := func(resp *http.Response) string {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(bytes.TrimSpace(raw))
	}

	resp := doRequest(t, app, http.MethodGet, "/api/profile", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "null", readBody(resp))

	resp = doRequest(t, app, http.MethodGet, "/api/profile", nil, &http.Cookie{Name: "token", Value: "garbage"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "null", readBody(resp))

	resp = doRequest(t, app, http.MethodGet, "/api/profile", nil, ms.sessionCookie(t, 7, "ranger"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeMap(t, resp)
	assert.Equal(t, "ranger", body["username"])
	assert.Equal(t, "ranger@example.com", body["email"])
	assert.Equal(t, float64(7), body["id"])
}

func TestLogout(t *testing.T) {
	ms := newMockServer(t, nil)

	resp := doRequest(t, ms.App(), http.MethodPost, "/api/logout", nil, ms.sessionCookie(t, 7, "ranger"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logout successful", decodeMap(t, resp)["message"])

	cookie := findCookie(resp, "token")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Expires.Before(time.Now()))
}
