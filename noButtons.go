package main

import (
	"sync"

	"github.com/stianeikeland/go-rpio"
)

// noButtons never sees a press unless somebody sets one, used with
// "buttons": "none" when presses only come from the status service
type noButtons struct {
	buttons map[string]button
	pins    map[string]buttonMap
	states  map[string]rpio.State
	mu      sync.Mutex
}

func (nb *noButtons) getButtons() *map[string]button {
	return &nb.buttons
}

func (nb *noButtons) readButtons(rt runtimeConfig) (map[string]rpio.State, error) {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	ret := make(map[string]rpio.State)
	for k, v := range nb.states {
		ret[k] = v
	}
	return ret, nil
}

func (nb *noButtons) setupButtons(pins map[string]buttonMap, rt runtimeConfig) error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	nb.buttons = make(map[string]button)
	nb.pins = pins
	nb.states = make(map[string]rpio.State)

	now := rt.clock.Now()
	for k, v := range pins {
		nb.buttons[k] = button{button: v, state: pressState{start: now}}
		nb.states[k] = pinLevel(false, v.pullup)
	}
	return nil
}

func (nb *noButtons) initButtons(settings configSettings) error {
	return nil
}

func (nb *noButtons) closeButtons() {
}

// press or release a button
func (nb *noButtons) press(name string, pressed bool) {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if bm, ok := nb.pins[name]; ok {
		nb.states[name] = pinLevel(pressed, bm.pullup)
	}
}

func (nb *noButtons) clear() {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	for k, bm := range nb.pins {
		nb.states[k] = pinLevel(false, bm.pullup)
	}
}
