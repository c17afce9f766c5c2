package main

import (
	"errors"
	"time"

	// keyboard for sim mode
	"github.com/nsf/termbox-go"
	"github.com/stianeikeland/go-rpio"
)

var errKeyboardExit = errors.New("Exit termbox loop")

// keyButtons simulates the buttons on the keyboard: the button's key
// toggles it between pressed and released
type keyButtons struct {
	buttons map[string]button
}

func (sb *keyButtons) getButtons() *map[string]button {
	return &sb.buttons
}

func (sb *keyButtons) setupButtons(pins map[string]buttonMap, rt runtimeConfig) error {
	sb.buttons = make(map[string]button)

	now := rt.clock.Now()

	for k, v := range pins {
		if v.key == "" {
			return errors.New("button " + k + " has no key")
		}
		var btn button
		btn.button = v
		btn.state = pressState{pressed: false, start: now, count: 0, changed: false}
		sb.buttons[k] = btn
	}
	return nil
}

func (sb *keyButtons) checkKeyboard(rt runtimeConfig) (map[string]rpio.State, error) {
	ret := make(map[string]rpio.State)

	// poll with quick timeout
	// no key means "no change"
	go func() {
		rt.clock.Sleep(100 * time.Millisecond)
		termbox.Interrupt()
	}()

	var ev termbox.Event
	waitForInterrupt := true
	for waitForInterrupt {
		evTemp := termbox.PollEvent()
		switch evTemp.Type {
		case termbox.EventKey:
			if evTemp.Key == termbox.KeyCtrlC {
				return ret, errKeyboardExit
			}
			ev = evTemp
		default:
			// the interrupt fired
			waitForInterrupt = false
		}
	}

	// the key flips the button, any other key leaves it alone
	for k, v := range sb.buttons {
		pressed := v.state.pressed
		if v.button.key[0] == byte(ev.Ch) {
			pressed = !pressed
		}
		ret[k] = pinLevel(pressed, v.button.pullup)
	}

	return ret, nil
}

func (sb *keyButtons) readButtons(rt runtimeConfig) (map[string]rpio.State, error) {
	// simulated mode we check it all at once or we wait a lot
	return sb.checkKeyboard(rt)
}

func (sb *keyButtons) initButtons(settings configSettings) error {
	err := termbox.Init()
	if err != nil {
		return err
	}

	termbox.SetInputMode(termbox.InputEsc)
	termbox.Flush()

	// close it later
	return nil
}

func (sb *keyButtons) closeButtons() {
	termbox.Close()
}
