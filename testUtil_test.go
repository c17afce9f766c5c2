package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gotest.tools/assert"
)

var testSettings configSettings
var cfgFile = "./test/config.conf"

func TestMain(m *testing.M) {
	var err error
	testSettings, err = loadSettings(cfgFile)
	if err != nil {
		log.Fatal(err)
	}
	var testlog io.Closer
	testlog, err = setupLogging(testSettings, false)
	if err != nil {
		log.Fatal(err)
	}

	// run the tests
	code := m.Run()
	testlog.Close()

	os.Exit(code)
}

func logCaller(pc uintptr, file string, line int, ok bool) {
	if !ok {
		file = "?"
		line = 0
	}

	fn := runtime.FuncForPC(pc)
	var fnName string
	if fn == nil {
		fnName = "?()"
	} else {
		dotName := filepath.Ext(fn.Name())
		fnName = strings.TrimLeft(dotName, ".") + "()"
	}

	log.Printf("Starting %s (%s:%d)", fnName, filepath.Base(file), line)
}

func (s configSettings) clone() configSettings {
	c := make(map[string]interface{}, len(s.settings))
	for k, v := range s.settings {
		c[k] = v
	}
	return configSettings{settings: c}
}

func initTestRuntime(settings configSettings) runtimeConfig {
	return runtimeConfig{
		settings:      settings.clone(),
		comms:         initCommChannels(),
		clock:         clockwork.NewFakeClock(),
		logger:        &ThreadLogger{name: "Test"},
		buttons:       &noButtons{},
		led:           &logLed{},
		popup:         &logPopup{},
		sounds:        &noSounds{},
		configService: &noConfigService{},
		out:           &bytes.Buffer{},
	}
}

func testRuntime() (runtimeConfig, clockwork.FakeClock, commChannels) {
	// make rt for test, log the start of the test
	logCaller(runtime.Caller(1))
	rt := initTestRuntime(testSettings)
	return rt, rt.clock.(clockwork.FakeClock), rt.comms
}

// testBlockDuration lets a worker loop run for total, one sleep of step
// at a time, and returns with the worker asleep again
func testBlockDuration(clock clockwork.FakeClock, step time.Duration, total time.Duration) {
	for d := time.Duration(0); d < total; d += step {
		clock.BlockUntil(1)
		clock.Advance(step)
	}
	clock.BlockUntil(1)
}

func testQuit(rt runtimeConfig) {
	rt.comms.shutdown()
	// wake up anybody sleeping so they see it
	if fc, ok := rt.clock.(clockwork.FakeClock); ok {
		fc.Advance(time.Minute)
	}
}

func testOutput(rt runtimeConfig) string {
	return rt.out.(*bytes.Buffer).String()
}

func pressRead(t *testing.T, c chan pressMsg) pressMsg {
	select {
	case e := <-c:
		return e
	default:
		assert.Assert(t, false, "Nothing to read from press channel")
	}
	return pressMsg{}
}

func pressNoRead(t *testing.T, c chan pressMsg) {
	select {
	case e := <-c:
		assert.Assert(t, false, "Got an unexpected press from %s", e.source)
	default:
	}
}

func resultRead(t *testing.T, c chan rideResult) rideResult {
	select {
	case r := <-c:
		return r
	case <-time.After(10 * time.Second):
		assert.Assert(t, false, "No ride result")
	}
	return rideResult{}
}
