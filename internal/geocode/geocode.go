// Package geocode wraps the adresse.data.gouv.fr open address API:
// forward search for autocomplete and reverse lookup for map taps.
// Both calls are stateless request/response; failures degrade to an
// empty result at the call site.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api-adresse.data.gouv.fr"

// ErrNoResult is returned by Reverse when no address covers the
// coordinates.
var ErrNoResult = errors.New("geocode: no result")

// Candidate is one ranked address suggestion.
type Candidate struct {
	Label    string  `json:"label"`
	City     string  `json:"city"`
	Postcode string  `json:"postcode"`
	Score    float64 `json:"score"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Client queries the address API.  The zero value is not usable; use
// New.
type Client struct {
	base string
	http *http.Client
}

// New returns a client against the public API.
func New() *Client {
	return NewWithBase(defaultBaseURL)
}

// NewWithBase returns a client against a specific base URL.  Tests
// point this at an httptest server.
func NewWithBase(base string) *Client {
	return &Client{base: base, http: &http.Client{Timeout: 10 * time.Second}}
}

// geoResponse is the subset of the API's GeoJSON answer we consume.
// Coordinates arrive lon-first.
type geoResponse struct {
	Features []struct {
		Properties struct {
			Label    string  `json:"label"`
			City     string  `json:"city"`
			Postcode string  `json:"postcode"`
			Score    float64 `json:"score"`
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Search returns up to five ranked candidates for a partial address.
// Queries shorter than three characters return nothing without a
// network round trip.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	if len(query) < 3 {
		return nil, nil
	}
	u := c.base + "/search/?q=" + url.QueryEscape(query) + "&limit=5"
	return c.fetch(ctx, u)
}

// Reverse returns the address covering the given coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (Candidate, error) {
	u := c.base + "/reverse/?lat=" + strconv.FormatFloat(lat, 'f', -1, 64) +
		"&lon=" + strconv.FormatFloat(lng, 'f', -1, 64)
	candidates, err := c.fetch(ctx, u)
	if err != nil {
		return Candidate{}, err
	}
	if len(candidates) == 0 {
		return Candidate{}, ErrNoResult
	}
	return candidates[0], nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: status %d", resp.StatusCode)
	}
	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geocode: decode failed: %w", err)
	}
	out := make([]Candidate, 0, len(body.Features))
	for _, f := range body.Features {
		cand := Candidate{
			Label:    f.Properties.Label,
			City:     f.Properties.City,
			Postcode: f.Properties.Postcode,
			Score:    f.Properties.Score,
		}
		if len(f.Geometry.Coordinates) == 2 {
			cand.Lng = f.Geometry.Coordinates[0]
			cand.Lat = f.Geometry.Coordinates[1]
		}
		out = append(out, cand)
	}
	return out, nil
}
