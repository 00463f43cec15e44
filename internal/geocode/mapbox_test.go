package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campingrate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapboxClient_Forward(t *testing.T) {
	var gotPath, gotToken, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotToken = r.URL.Query().Get("access_token")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"type":"Point","coordinates":[-119.593611,37.745611]}}]}`))
	}))
	defer srv.Close()

	client := NewMapboxClient(srv.URL+"/", "pk.test", time.Second)
	coords, err := client.Forward(context.Background(), "Yosemite Valley, CA")
	require.NoError(t, err)

	assert.Equal(t, "37.745611", coords.Latitude)
	assert.Equal(t, "-119.593611", coords.Longitude)
	assert.Equal(t, "/geocoding/v5/mapbox.places/Yosemite%20Valley%2C%20CA.json", gotPath)
	assert.Equal(t, "pk.test", gotToken)
	assert.Equal(t, "1", gotLimit)
}

func TestMapboxClient_Failures(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantUpstream bool
	}{
		{"No Features", http.StatusOK, `{"features":[]}`, false},
		{"Short Coordinates", http.StatusOK, `{"features":[{"geometry":{"coordinates":[1]}}]}`, false},
		{"Unauthorized", http.StatusUnauthorized, `{"message":"Not Authorized"}`, true},
		{"Malformed Body", http.StatusOK, `not json`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewMapboxClient(srv.URL, "pk.test", time.Second).Forward(context.Background(), "Nowhere")
			require.Error(t, err)

			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeExternalService, appErr.Code)
			assert.Equal(t, MissMessage, appErr.Message)
			assert.Equal(t, tt.wantUpstream, appErr.Upstream)
		})
	}
}

func TestMapboxClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewMapboxClient(srv.URL, "pk.test", 50*time.Millisecond).Forward(context.Background(), "Slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderError)
	assert.Less(t, time.Since(start), 5*time.Second)
}
