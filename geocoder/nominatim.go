// Package geocoder turns postal addresses into coordinates with the
// OpenStreetMap Nominatim service and keeps the answers in a flat file.
package geocoder

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// DefaultURL of the public Nominatim instance
const DefaultURL = "https://nominatim.openstreetmap.org"

// Location is a geocoded address
type Location struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) String() string {
	return l.Address
}

// Geocoder looks up one address. A nil location with a nil error means
// the service does not know the address.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}

// Nominatim is a Geocoder backed by the Nominatim search API. The public
// instance allows one request per second, so every lookup waits delay
// before it goes out.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	clock     clockwork.Clock
	delay     time.Duration
}

// NewNominatim creates a geocoder. timeout bounds each request.
func NewNominatim(baseURL string, userAgent string, clock clockwork.Clock, delay time.Duration, timeout time.Duration) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		clock:     clock,
		delay:     delay,
	}
}

// Geocode implements Geocoder
func (n *Nominatim) Geocode(ctx context.Context, address string) (*Location, error) {
	// rate limit: the service bans clients that go faster than 1/s
	n.clock.Sleep(n.delay)

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequest(http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "geocode request")
	}
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "geocode %q", address)
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "geocode %q", address)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode %q: %s", address, resp.Status)
	}

	return parseSearch(data)
}

// parseSearch reads the first hit of a search result list
func parseSearch(data []byte) (*Location, error) {
	first, dataType, _, err := jsonparser.Get(data, "[0]")
	if err == jsonparser.KeyPathNotFoundError {
		// empty list, nothing found
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "parse geocode result")
	}
	if dataType != jsonparser.Object {
		return nil, fmt.Errorf("parse geocode result: unexpected %s", dataType)
	}

	var loc Location
	loc.Address, _ = jsonparser.GetString(first, "display_name")
	if loc.Latitude, err = coordinate(first, "lat"); err != nil {
		return nil, err
	}
	if loc.Longitude, err = coordinate(first, "lon"); err != nil {
		return nil, err
	}
	return &loc, nil
}

// nominatim sends coordinates as strings
func coordinate(data []byte, key string) (float64, error) {
	s, err := jsonparser.GetString(data, key)
	if err != nil {
		return 0, errors.Wrapf(err, "parse geocode %s", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse geocode %s", key)
	}
	return v, nil
}
