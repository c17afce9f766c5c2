// utility functions
package main

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// worker loop resolutions
const (
	dButtonSleep  = 10 * time.Millisecond
	dLEDSleep     = 10 * time.Millisecond
	dChimeLength  = 2 * time.Second
	dLEDDoneTime  = time.Minute
	dLEDErrorTime = 30 * time.Second
)

var wg sync.WaitGroup

// build features, filled in by init() of the optional parts
var features = []string{}

type pressMsg struct {
	source string
	at     time.Time
}

type commChannels struct {
	quit     chan struct{}
	quitOnce *sync.Once
	presses  chan pressMsg
	leds     chan ledEffect
	results  chan rideResult
	// set while a ride runs
	riding   *atomic.Bool
}

// shutdown tells every worker to exit, safe to call more than once
func (c commChannels) shutdown() {
	c.quitOnce.Do(func() {
		close(c.quit)
	})
}

// sendPress queues a press unless one is already waiting
func (c commChannels) sendPress(msg pressMsg) bool {
	select {
	case c.presses <- msg:
		return true
	default:
		return false
	}
}

// busy is true while a ride runs or a press waits for one
func (c commChannels) busy() bool {
	return c.riding.Load() || len(c.presses) > 0
}

// publishResult replaces whatever result nobody has picked up yet
func (c commChannels) publishResult(res rideResult) {
	for {
		select {
		case c.results <- res:
			return
		default:
		}
		select {
		case <-c.results:
		default:
		}
	}
}

type runtimeConfig struct {
	settings      configSettings
	comms         commChannels
	clock         clockwork.Clock
	logger        flogger
	buttons       buttons
	led           led
	rides         rideService
	resolver      addressResolver
	popup         popup
	sounds        sounds
	configService configService
	out           io.Writer
}

func initCommChannels() commChannels {
	return commChannels{
		quit:     make(chan struct{}),
		quitOnce: &sync.Once{},
		presses:  make(chan pressMsg, 1),
		leds:     make(chan ledEffect, 10),
		results:  make(chan rideResult, 1),
		riding:   &atomic.Bool{},
	}
}

// initRuntime sets up everything that doesn't need the network; the ride
// service and the resolver are added by the commands that use them
func initRuntime(settings configSettings) runtimeConfig {
	rt := runtimeConfig{
		settings: settings,
		comms:    initCommChannels(),
		clock:    clockwork.NewRealClock(),
		logger:   &ThreadLogger{name: "Main"},
		out:      os.Stdout,
	}

	switch settings.GetString(sButtons) {
	case btnModeRPIO:
		rt.buttons = &rpioButtons{}
	case btnModeKeys:
		rt.buttons = &keyButtons{}
	default:
		rt.buttons = &noButtons{}
	}

	if settings.GetBool(sLEDSimulated) {
		rt.led = &logLed{}
	} else {
		rt.led = &rpioLed{}
	}

	if settings.GetBool(sPopup) {
		rt.popup = &termboxPopup{owned: settings.GetString(sButtons) == btnModeKeys}
	} else {
		rt.popup = &logPopup{}
	}

	if settings.GetBool(sSounds) {
		rt.sounds = &realSounds{}
	} else {
		rt.sounds = &noSounds{}
	}

	if settings.GetString(sConfigSecret) != "" {
		rt.configService = &httpConfigService{}
	} else {
		rt.configService = &noConfigService{}
	}

	return rt
}
