// +build !noaudio

package main

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/bobertlo/go-mpg123/mpg123"
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

func init() {
	features = append(features, "audio")
}

const sampleRate = 44100

type soundSegment struct {
	frequencies []float64
	duration    time.Duration
	level       float64
	rampDown    time.Duration
}

// this is runtime info for generating the waves
type wave struct {
	step, phase float64
}

// a single segment of sounds, volume, and step information
type playSegment struct {
	steps    int64   // total steps
	level    float64 // volume multiplier
	waves    []wave  // runtime info on the sound
	rampDown int64   // # of steps below which we fade the level
}

type playbackPattern struct {
	*portaudio.Stream
	segments         []playSegment
	curSegment       int
	segmentRemaining int64
}

type realSounds struct {
}

// playIt plays the frequencies in a repeating on/off pattern until stop.
// timing alternates on and off durations.
func (rs *realSounds) playIt(rt runtimeConfig, sfreqs []string, timing []string, stop chan bool, done chan bool) {
	freqs := make([]float64, 0, len(sfreqs))
	for i := range sfreqs {
		f, e := strconv.ParseFloat(sfreqs[i], 64)
		if e != nil {
			rt.logger.Printf("bad frequency %q", sfreqs[i])
			continue
		}
		freqs = append(freqs, f)
	}

	segs := make([]soundSegment, 0, len(timing))
	for i := range timing {
		d, e := time.ParseDuration(timing[i])
		if e != nil {
			rt.logger.Printf("bad timing %q", timing[i])
			continue
		}
		segs = append(segs, soundSegment{
			level:       float64((len(segs) + 1) % 2),
			duration:    d,
			frequencies: freqs,
			rampDown:    20 * time.Millisecond,
		})
	}

	go func() {
		defer func() {
			done <- true
		}()
		if err := playPattern(segs, stop); err != nil {
			rt.logger.Printf("playIt: %v", err)
		}
	}()
}

func playPattern(pattern []soundSegment, stop chan bool) error {
	if len(pattern) == 0 {
		return errors.New("empty sound pattern")
	}
	if err := portaudio.Initialize(); err != nil {
		return errors.Wrap(err, "portaudio init")
	}
	defer portaudio.Terminate()

	s, err := newPlaySegments(pattern)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Start(); err != nil {
		return errors.Wrap(err, "portaudio start")
	}

	// block on the stop
	<-stop
	return s.Stop()
}

func newPlaySegments(pattern []soundSegment) (*playbackPattern, error) {
	var pb playbackPattern
	pb.curSegment = -1

	pb.segments = make([]playSegment, len(pattern))
	for i := range pattern {
		pb.segments[i].waves = make([]wave, len(pattern[i].frequencies))
		pb.segments[i].level = pattern[i].level
		pb.segments[i].steps = int64(pattern[i].duration * time.Duration(sampleRate) / time.Second)
		pb.segments[i].rampDown = int64(pattern[i].rampDown * time.Duration(sampleRate) / time.Second)
		for w := range pattern[i].frequencies {
			pb.segments[i].waves[w].step = pattern[i].frequencies[w] / sampleRate
		}
	}

	var err error
	pb.Stream, err = portaudio.OpenDefaultStream(0, 2, sampleRate, 0, pb.processAudio)
	if err != nil {
		return nil, errors.Wrap(err, "portaudio open")
	}
	return &pb, nil
}

func (g *playbackPattern) segmentInit(seg *playSegment) {
	g.segmentRemaining = seg.steps
	for i := range seg.waves {
		seg.waves[i].phase = 0
	}
}

func (g *playbackPattern) processAudio(out [][]float32) {
	for i := range out[0] {
		// start the next segment?
		if g.segmentRemaining <= 0 {
			g.curSegment = (g.curSegment + 1) % len(g.segments)
			g.segmentInit(&g.segments[g.curSegment])
		}
		curSeg := &g.segments[g.curSegment]
		g.segmentRemaining--

		// ramp down from normal level to 0 near the end of the segment
		level := curSeg.level
		if curSeg.rampDown > 0 && g.segmentRemaining < curSeg.rampDown {
			level = level * float64(g.segmentRemaining) / float64(curSeg.rampDown)
		}
		var val float32
		for w := range curSeg.waves {
			val += float32(math.Sin(2*math.Pi*curSeg.waves[w].phase) * level)
			_, curSeg.waves[w].phase = math.Modf(curSeg.waves[w].phase + curSeg.waves[w].step)
		}

		// average out the signal (if any)
		if len(curSeg.waves) > 0 {
			val = val / float32(len(curSeg.waves))
		}

		out[0][i] = val // L
		out[1][i] = val // R
	}
}

func getDecoder(fname string) (*mpg123.Decoder, error) {
	decoder, err := mpg123.NewDecoder("")
	if err != nil {
		return nil, errors.Wrap(err, "mpg123")
	}

	if err = decoder.Open(fname); err != nil {
		decoder.Delete()
		return nil, errors.Wrapf(err, "open %s", fname)
	}

	// get audio format information
	rate, channels, _ := decoder.GetFormat()

	// make sure output format does not change
	decoder.FormatNone()
	decoder.Format(rate, channels, mpg123.ENC_SIGNED_16)

	return decoder, nil
}

// playMP3 decodes the file and plays it, again and again when loop is set,
// until it ends or stop
func (rs *realSounds) playMP3(rt runtimeConfig, fName string, loop bool, stop chan bool, done chan bool) {
	go func() {
		defer func() {
			done <- true
		}()
		for {
			stopped, err := playMP3Once(fName, stop)
			if err != nil {
				rt.logger.Printf("playMP3: %v", err)
				return
			}
			if stopped || !loop {
				return
			}
			rt.logger.Println("Replay")
		}
	}()
}

func playMP3Once(fName string, stop chan bool) (bool, error) {
	decoder, err := getDecoder(fName)
	if err != nil {
		return false, err
	}
	defer decoder.Delete()
	defer decoder.Close()

	rate, channels, _ := decoder.GetFormat()

	if err := portaudio.Initialize(); err != nil {
		return false, errors.Wrap(err, "portaudio init")
	}
	defer portaudio.Terminate()

	out := make([]int16, 8192)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(rate), len(out), &out)
	if err != nil {
		return false, errors.Wrap(err, "portaudio open")
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return false, errors.Wrap(err, "portaudio start")
	}
	defer stream.Stop()

	audio := make([]byte, 2*len(out))
	for {
		select {
		case <-stop:
			return true, nil
		default:
		}

		n, readErr := decoder.Read(audio)
		if n == 0 {
			// end of the file
			return false, nil
		}
		// a short read leaves a tail of the last chunk, zero it
		for i := n; i < len(audio); i++ {
			audio[i] = 0
		}
		if err := binary.Read(bytes.NewReader(audio), binary.LittleEndian, out); err != nil {
			return false, errors.Wrap(err, "decode samples")
		}
		if err := stream.Write(); err != nil {
			return false, errors.Wrap(err, "portaudio write")
		}
		if readErr != nil {
			return false, nil
		}
	}
}
