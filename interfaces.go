package main

import (
	"context"

	"github.com/stianeikeland/go-rpio"

	"dscheirer.com/ridebutton/geocoder"
	"dscheirer.com/ridebutton/ridesapi"
)

type sounds interface {
	playIt(rt runtimeConfig, sfreqs []string, timing []string, stop chan bool, done chan bool)
	playMP3(rt runtimeConfig, fName string, loop bool, stop chan bool, done chan bool)
}

type buttons interface {
	readButtons(rt runtimeConfig) (map[string]rpio.State, error)
	setupButtons(pins map[string]buttonMap, rt runtimeConfig) error
	initButtons(settings configSettings) error
	closeButtons()
	getButtons() *map[string]button
}

type led interface {
	init()
	set(pin int, on bool)
	on(pin int)
	off(pin int)
}

// popup shows a message box and returns once it is dismissed
type popup interface {
	show(rt runtimeConfig, title string, lines []string) error
}

type configService interface {
	launch(handler *apiHandler, addr string)
	stop()
}

// rideService is the part of the rides API a button press needs
type rideService interface {
	CancelCurrentRide(ctx context.Context) error
	EstimateRide(ctx context.Context, params ridesapi.RideParams) (*ridesapi.Estimate, error)
	RequestRide(ctx context.Context, params ridesapi.RideParams) (*ridesapi.Ride, error)
	GetRideDetails(ctx context.Context, rideID string) (*ridesapi.Ride, error)
	UpdateSandboxRide(ctx context.Context, rideID string, status string) (int, error)
	UpdateSandboxProduct(ctx context.Context, productID string, surgeMultiplier float64, driversAvailable bool) (int, error)
	GetProducts(ctx context.Context, latitude float64, longitude float64) ([]ridesapi.Product, error)
}

type addressResolver interface {
	Resolve(ctx context.Context, address string) (*geocoder.Location, error)
	Forget(address string) error
}
