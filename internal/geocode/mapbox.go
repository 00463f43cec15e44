// Package geocode resolves free-text locations to coordinates through Mapbox forward geocoding.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campingrate/internal/models"
	"campingrate/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// MissMessage is reported when the provider has no match for an address.
const MissMessage = "Could not get coordinates for the provided address."

// ErrProviderError marks a transport or non-200 failure of the geocoding provider.
var ErrProviderError = errors.New("geocoding provider error")

// Coordinates are kept as the provider's decimal text so no precision is lost.
type Coordinates struct {
	Latitude  string
	Longitude string
}

// Geocoder resolves a free-text address.
type Geocoder interface {
	Forward(ctx context.Context, address string) (*Coordinates, error)
}

type forwardResponse struct {
	Features []struct {
		Geometry struct {
			// [longitude, latitude]
			Coordinates []json.Number `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// MapboxClient calls the Mapbox geocoding v5 places endpoint.
type MapboxClient struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewMapboxClient returns a client for baseURL (e.g. https://api.mapbox.com).
// timeout bounds each lookup; zero disables the per-call deadline.
func NewMapboxClient(baseURL, token string, timeout time.Duration) *MapboxClient {
	return &MapboxClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func (m *MapboxClient) WithHTTPClient(c *http.Client) *MapboxClient {
	m.httpClient = c
	return m
}

// Forward returns the coordinates of the first match for address.
// A miss yields an external-service AppError; a failing provider an upstream AppError.
func (m *MapboxClient) Forward(ctx context.Context, address string) (coords *Coordinates, err error) {
	start := time.Now()
	ctx, span := observability.StartClientSpan(ctx, "mapbox", "forward",
		attribute.Int("geocode.address_length", len(address)))
	outcome := "error"
	defer func() {
		observability.GeocodeLatency.Observe(time.Since(start).Seconds())
		observability.GeocodeRequests.WithLabelValues(outcome).Inc()
		observability.EndSpan(span, err)
	}()

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		m.baseURL,
		url.PathEscape(address),
		url.Values{"access_token": {m.token}, "limit": {"1"}}.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, models.NewUpstreamError(MissMessage, fmt.Errorf("%w: %v", ErrProviderError, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, models.NewUpstreamError(MissMessage, fmt.Errorf("%w: %v", ErrProviderError, err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewUpstreamError(MissMessage, fmt.Errorf("%w: status %d", ErrProviderError, resp.StatusCode))
	}

	var parsed forwardResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, models.NewUpstreamError(MissMessage, fmt.Errorf("%w: %v", ErrProviderError, err))
	}

	if len(parsed.Features) == 0 || len(parsed.Features[0].Geometry.Coordinates) < 2 {
		outcome = "miss"
		return nil, models.NewExternalServiceError(MissMessage, nil)
	}

	point := parsed.Features[0].Geometry.Coordinates
	outcome = "match"
	return &Coordinates{
		Latitude:  point[1].String(),
		Longitude: point[0].String(),
	}, nil
}
