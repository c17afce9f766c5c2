package main

import (
	"fmt"
)

// logLed keeps LED state in memory, for machines without GPIO
type logLed struct {
	leds       []bool
	audit      []string
	disableLog bool
	logger     flogger
}

func (ll *logLed) init() {
	ll.leds = make([]bool, 32)
	ll.audit = make([]string, 0)
	ll.logger = &ThreadLogger{name: "LEDs"}
}

func (ll *logLed) set(pinNum int, on bool) {
	if pinNum < 0 || pinNum >= len(ll.leds) {
		ll.logger.Printf("No LED %v", pinNum)
		return
	}
	ll.leds[pinNum] = on
	if !ll.disableLog {
		ll.logger.Printf("Set LED %v to %v", pinNum, on)
	}
	ll.audit = append(ll.audit, fmt.Sprintf("Set LED %v to %v", pinNum, on))
}

func (ll *logLed) on(pinNum int) {
	ll.set(pinNum, true)
}

func (ll *logLed) off(pinNum int) {
	ll.set(pinNum, false)
}
