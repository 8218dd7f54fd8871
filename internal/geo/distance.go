package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"backend/internal/fees"
)

// Client calls the external distance service. It satisfies
// fees.DistanceResolver.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type distanceResponse struct {
	Status         string  `json:"status"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// DistanceMeters asks the service for the distance between two free-text
// addresses. A missing route is reported as fees.ErrNoRoute so callers can
// fail open.
func (c *Client) DistanceMeters(ctx context.Context, origin, destination string) (float64, error) {
	if c.baseURL == "" {
		return 0, fmt.Errorf("distance service not configured")
	}

	query := url.Values{}
	query.Set("origin", origin)
	query.Set("destination", destination)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return 0, err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("distance service returned %d", res.StatusCode)
	}

	var body distanceResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, err
	}

	if body.Status == "NO_ROUTE" {
		return 0, fees.ErrNoRoute
	}
	if body.Status != "OK" {
		return 0, fmt.Errorf("distance service status %q", body.Status)
	}

	return body.DistanceMeters, nil
}
