package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"dscheirer.com/ridebutton/geocoder"
	"dscheirer.com/ridebutton/ridesapi"
)

var (
	errNoStart  = errors.New("no valid start address")
	errNoEnd    = errors.New("no valid end address")
	errNoRideID = errors.New("ride request returned no ride id")
)

// rideResult is what happened to the last button press
type rideResult struct {
	RequestID     string    `json:"request_id,omitempty"`
	FareID        string    `json:"fare_id,omitempty"`
	Start         string    `json:"start,omitempty"`
	End           string    `json:"end,omitempty"`
	PickupMinutes int       `json:"pickup_minutes"`
	TripMinutes   int       `json:"trip_minutes"`
	Fare          string    `json:"fare,omitempty"`
	FareExpires   time.Time `json:"fare_expires"`
	Status        string    `json:"status,omitempty"`
	Error         string    `json:"error,omitempty"`
	Started       time.Time `json:"started"`
	Finished      time.Time `json:"finished"`
}

func (r rideResult) ok() bool {
	return r.Error == ""
}

// each step of the sandbox walk, with the header printed before it
var rideWalk = []struct {
	status string
	header string
}{
	{ridesapi.StatusAccepted, ""},
	{ridesapi.StatusInProgress, ""},
	{ridesapi.StatusCompleted, "Update ride status to completed."},
}

func (rt runtimeConfig) rideContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rt.settings.GetDuration(sRideTimeout))
}

func (rt runtimeConfig) rideParams(productID string, start *geocoder.Location, end *geocoder.Location) ridesapi.RideParams {
	return ridesapi.RideParams{
		ProductID:      productID,
		StartLatitude:  start.Latitude,
		StartLongitude: start.Longitude,
		EndLatitude:    end.Latitude,
		EndLongitude:   end.Longitude,
		SeatCount:      rt.settings.GetInt(sSeatCount),
	}
}

// onButton runs one whole ride: cancel whatever is going on, look up the
// addresses, request an upfront priced ride and walk it to completed
func onButton(rt runtimeConfig) rideResult {
	w := rt.out
	res := rideResult{Started: rt.clock.Now()}
	finish := func(err error) rideResult {
		if err != nil {
			res.Error = err.Error()
		}
		res.Finished = rt.clock.Now()
		return res
	}

	ctx, cancel := rt.rideContext()
	defer cancel()

	// ride request with upfront pricing flow
	if err := rt.rides.CancelCurrentRide(ctx); err != nil {
		if ce, ok := errors.Cause(err).(*ridesapi.ClientError); ok && ce.StatusCode == http.StatusNotFound {
			rt.logger.Printf("no current ride to cancel")
		} else {
			failPrint(w, err)
		}
	}

	start, end, err := resolveRoute(ctx, rt)
	if err != nil {
		return finish(err)
	}
	res.Start, res.End = start.String(), end.String()

	plainPrint(w, "Anfrage einer Fahrt...\nVon: %s\nNach: %s", start, end)
	est, ride, err := requestUFPRide(ctx, rt, start, end)
	if err != nil {
		return finish(err)
	}
	res.RequestID = ride.RequestID
	res.Status = ride.Status
	res.FareID = est.Fare.FareID
	res.Fare = est.Fare.Display
	res.FareExpires = est.Fare.Expires()
	res.PickupMinutes = est.PickupEstimate
	if est.Trip != nil {
		res.TripMinutes = est.Trip.Minutes()
	}

	playChime(rt, chimeRequested)
	showRide(rt, res)

	var walkErr error
	for _, step := range rideWalk {
		if step.header != "" {
			paragraphPrint(w, step.header)
		}
		if err := updateRide(ctx, rt, step.status, res.RequestID); err != nil && walkErr == nil {
			walkErr = err
		}

		paragraphPrint(w, "Updated ride details.")
		details, err := getRideDetails(ctx, rt, res.RequestID)
		if err != nil {
			if walkErr == nil {
				walkErr = err
			}
			continue
		}
		res.Status = details.Status
	}

	return finish(walkErr)
}

// resolveRoute geocodes the start and end addresses
func resolveRoute(ctx context.Context, rt runtimeConfig) (*geocoder.Location, *geocoder.Location, error) {
	w := rt.out
	plainPrint(w, "Frage Koordinaten ab...")

	start, err := rt.resolver.Resolve(ctx, rt.settings.GetString(sStartAddr))
	if err != nil {
		failPrint(w, err)
		return nil, nil, err
	}
	end, err := rt.resolver.Resolve(ctx, rt.settings.GetString(sEndAddr))
	if err != nil {
		failPrint(w, err)
		return nil, nil, err
	}

	if start == nil {
		plainPrint(w, "Bitte gültige Startadresse eingeben")
		return nil, nil, errNoStart
	}
	if end == nil {
		plainPrint(w, "Bitte gültige Endadresse eingeben")
		return nil, nil, errNoEnd
	}
	return start, end, nil
}

// requestUFPRide gets an upfront fare and requests a ride with it
func requestUFPRide(ctx context.Context, rt runtimeConfig, start *geocoder.Location, end *geocoder.Location) (*ridesapi.Estimate, *ridesapi.Ride, error) {
	w := rt.out
	params := rt.rideParams(rt.settings.GetString(sProductID), start, end)

	estimate, err := rt.rides.EstimateRide(ctx, params)
	if err != nil {
		failPrint(w, err)
		return nil, nil, err
	}
	params.FareID, err = estimate.FareID()
	if err != nil {
		failPrint(w, err)
		return nil, nil, err
	}

	ride, err := rt.rides.RequestRide(ctx, params)
	if err != nil {
		failPrint(w, err)
		return nil, nil, err
	}
	if ride.RequestID == "" {
		failPrint(w, errNoRideID)
		return nil, nil, errNoRideID
	}

	rt.logger.Printf("fare %s (%s) locked until %v", estimate.Fare.FareID, estimate.Fare.Display, estimate.Fare.Expires())
	responsePrint(w, estimate.Body)
	responsePrint(w, ride.Body)
	plainPrint(w, "Arrival in %d minutes", estimate.PickupEstimate)
	if estimate.Trip != nil {
		plainPrint(w, "Trip will take %d minutes", estimate.Trip.Minutes())
	}

	return estimate, ride, nil
}

func updateRide(ctx context.Context, rt runtimeConfig, status string, rideID string) error {
	code, err := rt.rides.UpdateSandboxRide(ctx, rideID, status)
	if err != nil {
		failPrint(rt.out, err)
		return err
	}
	successPrint(rt.out, fmt.Sprintf("%d New status: %s", code, status))
	return nil
}

func getRideDetails(ctx context.Context, rt runtimeConfig, rideID string) (*ridesapi.Ride, error) {
	ride, err := rt.rides.GetRideDetails(ctx, rideID)
	if err != nil {
		failPrint(rt.out, err)
		return nil, err
	}
	responsePrint(rt.out, ride.Body)
	return ride, nil
}

// estimateRide prints an estimate for productID over the configured route
func estimateRide(rt runtimeConfig, productID string) (*ridesapi.Estimate, error) {
	ctx, cancel := rt.rideContext()
	defer cancel()

	start, end, err := resolveRoute(ctx, rt)
	if err != nil {
		return nil, err
	}

	estimate, err := rt.rides.EstimateRide(ctx, rt.rideParams(productID, start, end))
	if err != nil {
		failPrint(rt.out, err)
		return nil, err
	}
	responsePrint(rt.out, estimate.Body)
	return estimate, nil
}

// listProducts prints the products available at the start address
func listProducts(rt runtimeConfig) ([]ridesapi.Product, error) {
	ctx, cancel := rt.rideContext()
	defer cancel()

	start, err := rt.resolver.Resolve(ctx, rt.settings.GetString(sStartAddr))
	if err != nil {
		failPrint(rt.out, err)
		return nil, err
	}
	if start == nil {
		failPrint(rt.out, errNoStart)
		return nil, errNoStart
	}

	products, err := rt.rides.GetProducts(ctx, start.Latitude, start.Longitude)
	if err != nil {
		failPrint(rt.out, err)
		return nil, err
	}
	for _, p := range products {
		plainPrint(rt.out, "%s  %-12s seats: %d  upfront: %v", p.ProductID, p.DisplayName, p.Capacity, p.UpfrontFare)
	}
	return products, nil
}

// setSurge changes the surge multiplier of a sandbox product
func setSurge(rt runtimeConfig, productID string, multiplier float64, available bool) error {
	ctx, cancel := rt.rideContext()
	defer cancel()

	code, err := rt.rides.UpdateSandboxProduct(ctx, productID, multiplier, available)
	if err != nil {
		failPrint(rt.out, err)
		return err
	}
	successPrint(rt.out, fmt.Sprintf("%d Surge multiplier: %v, drivers available: %v", code, multiplier, available))
	return nil
}

func showRide(rt runtimeConfig, res rideResult) {
	lines := []string{
		fmt.Sprintf("Arrival in %d minutes", res.PickupMinutes),
		fmt.Sprintf("Trip will take %d minutes", res.TripMinutes),
		fmt.Sprintf("Fare: %s", res.Fare),
	}
	if err := rt.popup.show(rt, "Ride requested", lines); err != nil {
		rt.logger.Printf("popup failed: %v", err)
	}
}

func startRideRequests(rt runtimeConfig) {
	rt.logger = &ThreadLogger{name: "Rides"}
	wg.Add(1)
	go func() {
		defer wg.Done()
		runRideRequests(rt)
	}()
}

// runRideRequests runs a ride for every press. There is only ever one
// ride; presses that come in while it runs are thrown away.
func runRideRequests(rt runtimeConfig) {
	defer func() {
		rt.logger.Println("exiting runRideRequests")
	}()

	comms := rt.comms
	for {
		select {
		case <-comms.quit:
			return
		case msg := <-comms.presses:
			rt.logger.Printf("ride requested by %s at %v", msg.source, msg.at)
			comms.riding.Store(true)
			sendLEDs(comms, ledRideBusy(rt.settings))

			res := onButton(rt)
			if res.ok() {
				rt.logger.Printf("ride %s finished: %s", res.RequestID, res.Status)
				sendLEDs(comms, ledRideDone(rt.settings))
				playChime(rt, chimeCompleted)
			} else {
				rt.logger.Printf("ride failed: %s", res.Error)
				sendLEDs(comms, ledRideFailed(rt.settings))
				playChime(rt, chimeFailed)
			}

			// drop whatever came in during the ride
			select {
			case dropped := <-comms.presses:
				rt.logger.Printf("discarding press from %s during the ride", dropped.source)
			default:
			}
			comms.riding.Store(false)
			comms.publishResult(res)
		}
	}
}
