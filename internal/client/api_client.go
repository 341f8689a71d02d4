package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"localmarket/internal/geo"
	"localmarket/internal/models"
)

// NearbyParams are the tunables for a proximity search
type NearbyParams struct {
	RadiusMeters float64
	Category     string
	Limit        int
}

// NearbyBusiness is one proximity search hit as returned by the API
type NearbyBusiness struct {
	Location models.Location `json:"location"`
	Business models.Business `json:"business"`
	Distance float64         `json:"distance"`
	OpenNow  bool            `json:"open_now"`
}

// APIClient talks to the localmarket HTTP API
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates an API client for the given base URL
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SearchNearby calls GET /locations/nearby
func (c *APIClient) SearchNearby(ctx context.Context, center geo.Coordinates, params NearbyParams) ([]NearbyBusiness, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(center.Lat, 'f', -1, 64))
	values.Set("lng", strconv.FormatFloat(center.Lng, 'f', -1, 64))
	if params.RadiusMeters > 0 {
		values.Set("radius", strconv.FormatFloat(params.RadiusMeters, 'f', -1, 64))
	}
	if params.Category != "" {
		values.Set("category", params.Category)
	}
	if params.Limit > 0 {
		values.Set("limit", strconv.Itoa(params.Limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/locations/nearby?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nearby search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nearby search returned status %d", resp.StatusCode)
	}

	var body struct {
		Results []NearbyBusiness `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode nearby search response: %w", err)
	}
	return body.Results, nil
}

// GeocodeAddress calls POST /locations/geocode and returns the best match
// coordinates, or nil when the address does not resolve
func (c *APIClient) GeocodeAddress(ctx context.Context, address string) (*geo.Coordinates, error) {
	payload, err := json.Marshal(map[string]string{"address": address})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/locations/geocode", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode returned status %d", resp.StatusCode)
	}

	var body struct {
		Result struct {
			Coordinates geo.Coordinates `json:"coordinates"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	return &body.Result.Coordinates, nil
}
