// Package ridesapi is a small client for the ride-hailing Riders API,
// covering the upfront pricing request flow and the sandbox endpoints
// used to drive a ride through its lifecycle.
package ridesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SandboxURL is the base for the testing environment
const SandboxURL = "https://sandbox-api.uber.com/v1.2"

// ProductionURL is the live API base
const ProductionURL = "https://api.uber.com/v1.2"

// Client talks to the Riders API with an already authorized http client
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client. The http client is expected to add the
// OAuth bearer token (see golang.org/x/oauth2).
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = SandboxURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// BaseURL the client sends requests to
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method string, path string, payload interface{}) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "%s %s", method, path)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en_US")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrapf(err, "read %s %s", method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, data, parseError(resp.StatusCode, data)
	}

	return resp.StatusCode, data, nil
}

// CancelCurrentRide cancels whatever ride the rider currently has
func (c *Client) CancelCurrentRide(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/requests/current", nil)
	return err
}

// EstimateRide asks for an upfront fare and pickup/trip estimates
func (c *Client) EstimateRide(ctx context.Context, params RideParams) (*Estimate, error) {
	if params.ProductID == "" {
		return nil, errors.New("estimate: missing product id")
	}
	// an estimate never carries a fare id
	params.FareID = ""

	_, data, err := c.do(ctx, http.MethodPost, "/requests/estimate", params)
	if err != nil {
		return nil, err
	}

	var estimate Estimate
	if err := json.Unmarshal(data, &estimate); err != nil {
		return nil, errors.Wrap(err, "decode estimate")
	}
	estimate.Body = data
	return &estimate, nil
}

// RequestRide requests a ride; FareID must come from a prior estimate
// for upfront pricing products
func (c *Client) RequestRide(ctx context.Context, params RideParams) (*Ride, error) {
	if params.ProductID == "" {
		return nil, errors.New("request: missing product id")
	}

	_, data, err := c.do(ctx, http.MethodPost, "/requests", params)
	if err != nil {
		return nil, err
	}
	return decodeRide(data)
}

// GetRideDetails fetches the current state of a ride
func (c *Client) GetRideDetails(ctx context.Context, rideID string) (*Ride, error) {
	if rideID == "" {
		return nil, errors.New("ride details: missing ride id")
	}

	_, data, err := c.do(ctx, http.MethodGet, "/requests/"+url.PathEscape(rideID), nil)
	if err != nil {
		return nil, err
	}
	return decodeRide(data)
}

// UpdateSandboxRide forces a sandbox ride into a new status and returns
// the HTTP status code of the update
func (c *Client) UpdateSandboxRide(ctx context.Context, rideID string, status string) (int, error) {
	if rideID == "" {
		return 0, errors.New("sandbox update: missing ride id")
	}
	if !ValidStatus(status) {
		return 0, fmt.Errorf("sandbox update: unknown ride status %q", status)
	}

	code, _, err := c.do(ctx, http.MethodPut, "/sandbox/requests/"+url.PathEscape(rideID),
		map[string]string{"status": status})
	return code, err
}

// UpdateSandboxProduct sets the surge multiplier and driver availability
// of a sandbox product. A multiplier of 1 turns surge off.
func (c *Client) UpdateSandboxProduct(ctx context.Context, productID string, surgeMultiplier float64, driversAvailable bool) (int, error) {
	if productID == "" {
		return 0, errors.New("sandbox product: missing product id")
	}
	if surgeMultiplier < 1 {
		return 0, fmt.Errorf("sandbox product: surge multiplier %v is below 1", surgeMultiplier)
	}

	payload := struct {
		SurgeMultiplier  float64 `json:"surge_multiplier"`
		DriversAvailable bool    `json:"drivers_available"`
	}{surgeMultiplier, driversAvailable}

	code, _, err := c.do(ctx, http.MethodPut, "/sandbox/products/"+url.PathEscape(productID), payload)
	return code, err
}

// GetProducts lists the products available at a location
func (c *Client) GetProducts(ctx context.Context, latitude float64, longitude float64) ([]Product, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))

	_, data, err := c.do(ctx, http.MethodGet, "/products?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var list struct {
		Products []Product `json:"products"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return list.Products, nil
}

func decodeRide(data []byte) (*Ride, error) {
	var ride Ride
	if err := json.Unmarshal(data, &ride); err != nil {
		return nil, errors.Wrap(err, "decode ride")
	}
	ride.Body = data
	return &ride, nil
}
