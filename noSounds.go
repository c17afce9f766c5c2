package main

import (
	"sync"
)

// noSounds stays quiet and remembers what it was asked to play
type noSounds struct {
	mu         sync.Mutex
	playFreqs  []string
	playTiming []string
	mp3        string
	loopMp3    bool
	playItCnt  int
	playMP3Cnt int
}

func (ns *noSounds) playIt(rt runtimeConfig, sfreqs []string, timing []string, stop chan bool, done chan bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	rt.logger.Println("STUB: playIt")
	ns.playFreqs = sfreqs
	ns.playTiming = timing
	// pretend we did this
	ns.playItCnt++
	done <- true
}

func (ns *noSounds) playMP3(rt runtimeConfig, fName string, loop bool, stop chan bool, done chan bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	rt.logger.Println("STUB: playMP3 " + fName)
	ns.mp3 = fName
	ns.loopMp3 = loop
	// pretend we did this
	ns.playMP3Cnt++
	done <- true
}

func (ns *noSounds) counts() (int, int) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.playItCnt, ns.playMP3Cnt
}
