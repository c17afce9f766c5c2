package ridesapi

import (
	"fmt"
	"time"
)

// ride statuses the sandbox will accept
const (
	StatusProcessing         = "processing"
	StatusNoDriversAvailable = "no_drivers_available"
	StatusAccepted           = "accepted"
	StatusArriving           = "arriving"
	StatusInProgress         = "in_progress"
	StatusDriverCanceled     = "driver_canceled"
	StatusRiderCanceled      = "rider_canceled"
	StatusCompleted          = "completed"
)

var validStatuses = map[string]bool{
	StatusProcessing:         true,
	StatusNoDriversAvailable: true,
	StatusAccepted:           true,
	StatusArriving:           true,
	StatusInProgress:         true,
	StatusDriverCanceled:     true,
	StatusRiderCanceled:      true,
	StatusCompleted:          true,
}

// ValidStatus reports whether s is a ride status the sandbox understands
func ValidStatus(s string) bool {
	return validStatuses[s]
}

// RideParams describe a trip for estimates and requests
type RideParams struct {
	ProductID      string  `json:"product_id"`
	StartLatitude  float64 `json:"start_latitude"`
	StartLongitude float64 `json:"start_longitude"`
	EndLatitude    float64 `json:"end_latitude"`
	EndLongitude   float64 `json:"end_longitude"`
	SeatCount      int     `json:"seat_count,omitempty"`
	FareID         string  `json:"fare_id,omitempty"`
}

// Fare is an upfront price, locked until ExpiresAt
type Fare struct {
	FareID       string  `json:"fare_id"`
	Value        float64 `json:"value"`
	Display      string  `json:"display"`
	CurrencyCode string  `json:"currency_code"`
	ExpiresAt    int64   `json:"expires_at"`
}

// Expires returns the fare expiry as a time
func (f Fare) Expires() time.Time {
	return time.Unix(f.ExpiresAt, 0)
}

// Trip is the estimated trip length
type Trip struct {
	DistanceUnit     string  `json:"distance_unit"`
	DurationEstimate int     `json:"duration_estimate"` // seconds
	DistanceEstimate float64 `json:"distance_estimate"`
}

// Minutes of the estimated trip duration
func (t Trip) Minutes() int {
	return t.DurationEstimate / 60
}

// Estimate is the answer to an estimate request
type Estimate struct {
	Fare           *Fare `json:"fare"`
	Trip           *Trip `json:"trip"`
	PickupEstimate int   `json:"pickup_estimate"` // minutes

	// raw response, for printing
	Body []byte `json:"-"`
}

// FareID returns the fare id or an error if the estimate carried no fare
func (e *Estimate) FareID() (string, error) {
	if e == nil || e.Fare == nil || e.Fare.FareID == "" {
		return "", fmt.Errorf("estimate has no upfront fare")
	}
	return e.Fare.FareID, nil
}

// Driver is the driver assigned to a ride
type Driver struct {
	Name        string  `json:"name"`
	PhoneNumber string  `json:"phone_number"`
	Rating      float64 `json:"rating"`
	PictureURL  string  `json:"picture_url"`
}

// Vehicle is the car assigned to a ride
type Vehicle struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	LicensePlate string `json:"license_plate"`
}

// Position of a driver or pickup point
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Bearing   int     `json:"bearing"`
	ETA       int     `json:"eta"`
}

// Ride is a requested ride and its current state
type Ride struct {
	RequestID       string    `json:"request_id"`
	ProductID       string    `json:"product_id"`
	Status          string    `json:"status"`
	SurgeMultiplier float64   `json:"surge_multiplier"`
	Shared          bool      `json:"shared"`
	Driver          *Driver   `json:"driver"`
	Vehicle         *Vehicle  `json:"vehicle"`
	Location        *Position `json:"location"`
	Pickup          *Position `json:"pickup"`
	Destination     *Position `json:"destination"`

	Body []byte `json:"-"`
}

// Product is a ride product available at a location
type Product struct {
	ProductID    string `json:"product_id"`
	DisplayName  string `json:"display_name"`
	Description  string `json:"description"`
	Capacity     int    `json:"capacity"`
	UpfrontFare  bool   `json:"upfront_fare_enabled"`
	Shared       bool   `json:"shared"`
	CashEnabled  bool   `json:"cash_enabled"`
	ProductGroup string `json:"product_group"`
	ShortDesc    string `json:"short_description"`
	ImageURL     string `json:"image"`
}
