package main

import (
	"time"

	"github.com/stianeikeland/go-rpio"
)

// check the press state, and return the press state
type pressState struct {
	pressed bool      // is it pressed?
	start   time.Time // when did this state start?
	count   int       // # of whole seconds since it started
	changed bool      // did the above data change at all?
}

type button struct {
	button buttonMap
	rpin   rpio.Pin
	state  pressState
}

const (
	btnDown = 0
	btnUp   = 1
)

// pinLevel is what the pin reads for a pressed/released button
func pinLevel(pressed bool, pullup bool) rpio.State {
	// pull-up buttons short to ground, pull-down buttons to +V
	if pressed == pullup {
		return rpio.Low
	}
	return rpio.High
}

func checkButtons(rt runtimeConfig) (map[string]button, error) {
	now := rt.clock.Now()

	btns := rt.buttons.getButtons()
	results, err := rt.buttons.readButtons(rt)
	if err != nil {
		return *btns, err
	}

	for k, v := range *btns {
		res, ok := results[k]
		if !ok {
			res = pinLevel(false, v.button.pullup)
		}

		btn := v
		btn.state.changed = false

		// interpret the high/low state into btnUp or btnDown
		// based on the pullup value
		var btnState int
		if v.button.pullup {
			// 0 is pressed, 1 is not
			if res == rpio.High {
				btnState = btnUp
			} else {
				btnState = btnDown
			}
		} else {
			// 1 is pressed, 0 is not
			if res == rpio.Low {
				btnState = btnUp
			} else {
				btnState = btnDown
			}
		}

		if btnState == btnDown {
			if btn.state.pressed {
				// still down, update the duration count
				btn.state.count = int(now.Sub(btn.state.start) / time.Second)
				if v.state.count != btn.state.count {
					btn.state.changed = true
				}
			} else {
				// just noticed it was pressed
				btn.state = pressState{pressed: true, start: now, count: 0, changed: true}
			}
		} else if btn.state.pressed {
			// just noticed the release
			// a button that stays released is not a state change
			btn.state = pressState{pressed: false, start: now, count: 0, changed: true}
		}
		if btn.state.changed {
			rt.logger.Printf("button changed state: %+v", btn.state)
		}
		(*btns)[k] = btn
	}

	return *btns, nil
}

func startWatchButtons(rt runtimeConfig) {
	rt.logger = &ThreadLogger{name: "Buttons"}
	wg.Add(1)
	go func() {
		defer wg.Done()
		runWatchButtons(rt)
	}()
}

// runWatchButtons polls the buttons and turns the rising edge of the main
// button into a press for the ride runner. Holding and releasing the
// button don't do anything.
func runWatchButtons(rt runtimeConfig) {
	defer func() {
		rt.logger.Println("exiting runWatchButtons")
	}()

	settings := rt.settings
	comms := rt.comms
	err := rt.buttons.initButtons(settings)
	if err != nil {
		rt.logger.Println(err.Error())
		comms.shutdown()
		return
	}

	// we now should defer the closeButtons call to when this function exists
	defer rt.buttons.closeButtons()

	pins := make(map[string]buttonMap)
	pins[sMainBtn] = settings.GetButtonMap(sMainBtn)

	err = rt.buttons.setupButtons(pins, rt)
	if err != nil {
		rt.logger.Println(err.Error())
		comms.shutdown()
		return
	}

	for {
		select {
		case <-comms.quit:
			rt.logger.Println("quit from runWatchButtons")
			return
		default:
		}

		newButtons, err := checkButtons(rt)
		if err != nil {
			// ctrl-c in keyboard mode, or the GPIO went away: we're done
			rt.logger.Printf("button read failed, shutting down: %v", err)
			comms.shutdown()
			return
		}

		for k, v := range newButtons {
			if !v.state.changed || !v.state.pressed || v.state.count != 0 {
				continue
			}
			switch k {
			case sMainBtn:
				if comms.sendPress(pressMsg{source: "button", at: v.state.start}) {
					rt.logger.Println("sending main button press")
				} else {
					rt.logger.Println("press ignored, a ride is already pending")
				}
			default:
				rt.logger.Printf("Unhandled button %s", k)
			}
		}

		rt.clock.Sleep(dButtonSleep)
	}
}
