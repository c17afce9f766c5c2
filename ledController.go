package main

import (
	"time"
)

const (
	modeOff = iota
	modeOn
	modeBlink10 // 10% off/sec
	modeBlink25 // 25% off/sec
	modeBlink50 // 50% cycle/sec
	modeBlink75 // 75% off/sec
	modeBlink90 // 90% off/sec
	modeUnset   // undetermined state
)

type ledEffect struct {
	pin        int
	mode       int
	duration   time.Duration
	force      bool      // ignore current state, just do it
	curMode    int       // rt setting, on or off
	lastUpdate time.Time // rt setting, last time we changed the state
	startTime  time.Time // rt setting, when we initiated
}

func ledMessage(pin int, mode int, duration time.Duration) ledEffect {
	return ledEffect{pin: pin, mode: mode, duration: duration, startTime: time.Time{}, force: false}
}

func ledMessageForce(pin int, mode int, duration time.Duration) ledEffect {
	return ledEffect{pin: pin, mode: mode, duration: duration, startTime: time.Time{}, force: true}
}

func ledOn(pin int) ledEffect {
	return ledMessage(pin, modeOn, 0)
}

func ledOff(pin int) ledEffect {
	return ledMessage(pin, modeOff, 0)
}

// ride states on the LEDs: slow blink while a ride runs, solid for a while
// when it completed, fast blink on the error LED when it failed
func ledRideBusy(s configSettings) []ledEffect {
	return []ledEffect{
		ledMessageForce(s.GetInt(sLEDBusy), modeBlink50, 0),
		ledOff(s.GetInt(sLEDErr)),
	}
}

func ledRideDone(s configSettings) []ledEffect {
	return []ledEffect{
		ledMessageForce(s.GetInt(sLEDBusy), modeOn, dLEDDoneTime),
		ledOff(s.GetInt(sLEDErr)),
	}
}

func ledRideFailed(s configSettings) []ledEffect {
	return []ledEffect{
		ledOff(s.GetInt(sLEDBusy)),
		ledMessageForce(s.GetInt(sLEDErr), modeBlink25, dLEDErrorTime),
	}
}

func sendLEDs(comms commChannels, effects []ledEffect) {
	for _, e := range effects {
		if e.pin <= 0 {
			// not wired
			continue
		}
		// nobody listening (one-shot commands) is fine
		select {
		case comms.leds <- e:
		default:
		}
	}
}

func diffLEDEffect(effect1 ledEffect, effect2 ledEffect) bool {
	return effect1.mode != effect2.mode || (effect1.duration != effect2.duration && effect1.duration > 0 && effect2.duration > 0) ||
		effect1.pin != effect2.pin || (effect1.startTime != effect2.startTime && effect1.duration > 0 && effect2.duration > 0)
}

func setLEDEffect(effect ledEffect) ledEffect {
	// clear the rt info
	effect.curMode = modeUnset
	effect.lastUpdate = time.Time{}
	effect.force = false // this is not part of the rt, just an indicator in the message
	return effect
}

func startLEDController(rt runtimeConfig) {
	rt.logger = &ThreadLogger{name: "LEDs"}
	wg.Add(1)
	go func() {
		defer wg.Done()
		runLEDController(rt)
	}()
}

func runLEDController(rt runtimeConfig) {
	defer func() {
		rt.logger.Printf("Exiting runLEDController")
	}()

	comms := rt.comms
	leds := make(map[int]ledEffect)

	rt.led.init()

	for {
		// read all incoming messages at once
		keepReading := true
		for keepReading {
			select {
			case <-comms.quit:
				rt.logger.Printf("Got a quit signal in runLEDController")
				// leave them dark
				for pin, v := range leds {
					if v.curMode == modeOn {
						rt.led.off(pin)
					}
				}
				return
			case msg := <-comms.leds:
				// find in leds, determine if we need to change the state
				if val, ok := leds[msg.pin]; ok {
					if msg.force || diffLEDEffect(val, msg) {
						rt.logger.Printf("Received led message: %+v", msg)
						leds[msg.pin] = setLEDEffect(msg)
					}
				} else if msg.mode != modeOff || msg.force {
					// it's new, "off" is assumed already unless forced
					rt.logger.Printf("Received led message: %+v", msg)
					leds[msg.pin] = setLEDEffect(msg)
				}
			default:
				keepReading = false
			}
		}

		// for anything that we're doing blink on, see if it's time to toggle
		// also anything that is modeUnset needs to be initiated
		now := rt.clock.Now()
		for i, v := range leds {
			// negative duration is "ignore"
			if v.duration < 0 {
				continue
			}

			if v.curMode == modeUnset {
				// transform broader categories of mode to on/off
				if v.mode == modeOff {
					rt.led.off(v.pin)
					v.curMode = modeOff
				} else {
					rt.led.on(v.pin)
					v.curMode = modeOn
				}
				v.lastUpdate = now
				v.startTime = v.lastUpdate
				if v.mode == modeOff {
					v.duration = -1
				}
				leds[i] = v
				continue
			}

			// duration expired means turn it off
			if v.duration > 0 && now.Sub(v.startTime) >= v.duration {
				if v.curMode != modeOff {
					rt.led.off(v.pin)
				}
				v.duration = -1
				v.curMode = modeOff
				v.lastUpdate = time.Time{}
				v.startTime = time.Time{}
				leds[i] = v
				continue
			}

			upTime := ledUpTime(v.mode)
			if upTime < 0 {
				continue
			}
			downTime := 1000 - upTime
			timeInState := now.Sub(v.lastUpdate)

			if v.curMode == modeOff {
				if timeInState >= downTime*time.Millisecond {
					rt.led.on(v.pin)
					v.curMode = modeOn
					v.lastUpdate = now
					leds[i] = v
				}
			} else if upTime < 1000 && timeInState >= upTime*time.Millisecond {
				rt.led.off(v.pin)
				v.curMode = modeOff
				v.lastUpdate = now
				leds[i] = v
			}
		}

		rt.clock.Sleep(dLEDSleep)
	}
}

// ledUpTime is the on time in ms of each second, -1 for nothing to do
func ledUpTime(mode int) time.Duration {
	switch mode {
	case modeBlink10:
		return 900
	case modeBlink25:
		return 750
	case modeBlink50:
		return 500
	case modeBlink75:
		return 250
	case modeBlink90:
		return 100
	case modeOn:
		return 1000
	default:
		return -1
	}
}
