package main

type chime struct {
	name   string
	freqs  []string
	timing []string
}

var (
	chimeRequested = chime{name: "requested", freqs: []string{"660", "880"}, timing: []string{"150ms", "100ms", "150ms", "600ms"}}
	chimeCompleted = chime{name: "completed", freqs: []string{"880"}, timing: []string{"400ms", "1600ms"}}
	chimeFailed    = chime{name: "failed", freqs: []string{"220", "233"}, timing: []string{"100ms", "100ms"}}
)

// playChime plays the configured MP3, or the tone pattern when there is
// none, for dChimeLength at most. It does not wait for the sound.
func playChime(rt runtimeConfig, c chime) {
	if rt.sounds == nil {
		return
	}
	stop := make(chan bool, 1)
	done := make(chan bool, 1)

	if f := rt.settings.GetString(sChimeFile); f != "" && c.name == chimeRequested.name {
		rt.sounds.playMP3(rt, f, false, stop, done)
	} else {
		rt.sounds.playIt(rt, c.freqs, c.timing, stop, done)
	}

	select {
	case <-done:
		// already over
		return
	default:
	}

	go func() {
		select {
		case <-done:
			return
		case <-rt.clock.After(dChimeLength):
		case <-rt.comms.quit:
		}
		stop <- true
		<-done
	}()
}
