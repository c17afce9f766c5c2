package main

import (
	"github.com/stianeikeland/go-rpio"
)

type rpioLed struct {
	logger flogger
	failed bool
}

func (rpi *rpioLed) init() {
	rpi.logger = &ThreadLogger{name: "GPIO LEDs"}
	if err := rpio.Open(); err != nil {
		// no LEDs is no reason to stop taking rides
		rpi.logger.Printf("LEDs disabled: %v", err)
		rpi.failed = true
	}
}

func (rpi *rpioLed) set(pinNum int, on bool) {
	if rpi.failed {
		return
	}
	pin := rpio.Pin(pinNum)
	pin.Output()
	if on {
		pin.High()
	} else {
		pin.Low()
	}
}

func (rpi *rpioLed) on(pin int) {
	rpi.set(pin, true)
}

func (rpi *rpioLed) off(pin int) {
	rpi.set(pin, false)
}
