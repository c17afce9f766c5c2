package main

import (
	"fmt"
	"io/ioutil"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"

	"dscheirer.com/ridebutton/geocoder"
	"dscheirer.com/ridebutton/ridesapi"
)

// setting names
const (
	sStartAddr      = "startAddress"
	sEndAddr        = "endAddress"
	sProductID      = "productID"
	sSurgeProductID = "surgeProductID"
	sSeatCount      = "seatCount"
	sRidesURL       = "ridesURL"
	sGeocodeURL     = "geocodeURL"
	sUserAgent      = "userAgent"
	sGeocodeDelay   = "geocodeDelay"
	sGeocodeTimeout = "geocodeTimeout"
	sRideTimeout    = "rideTimeout"
	sCachePath      = "cachePath"
	sCacheSize      = "cacheSize"
	sSecrets        = "secretPath"
	sLogFile        = "logFile"
	sLogLevel       = "logLevel"
	sDebug          = "debug"
	sButtons        = "buttons"
	sMainBtn        = "mainButton"
	sLEDBusy        = "ledBusy"
	sLEDErr         = "ledError"
	sLEDSimulated   = "ledSimulated"
	sPopup          = "popup"
	sPopupTimeout   = "popupTimeout"
	sSounds         = "sounds"
	sChimeFile      = "chimeFile"
	sConfigAddr     = "configAddress"
	sConfigSecret   = "configSecret"
)

// button modes
const (
	btnModeRPIO = "rpio"
	btnModeKeys = "keys"
	btnModeNone = "none"
)

const defaultConfigFile = "/etc/default/ridebutton/ridebutton.conf"

// buttonMap says where a button lives: a GPIO pin (BCM numbering) for
// rpio mode, a key for keyboard mode
type buttonMap struct {
	pinNum int
	pullup bool
	key    string
}

// keep settings generic, type-convert on the fly
type configSettings struct {
	settings map[string]interface{}
}

func defaultSettings() configSettings {
	s := make(map[string]interface{})

	// setting the type here makes the conversion "automatic" later
	s[sStartAddr] = "Lichtenbergstraße 6, Garching bei München"
	s[sEndAddr] = "Moosacher Straße 86, München"
	s[sProductID] = "bcb6224a-f21e-4cde-8e08-53cf9c98164d"      // upfront pricing (pool)
	s[sSurgeProductID] = "d4abaae7-f4d6-4152-91cc-77523e8165a4" // black
	s[sSeatCount] = 2
	s[sRidesURL] = ridesapi.SandboxURL
	s[sGeocodeURL] = geocoder.DefaultURL
	s[sUserAgent] = "Uber-Button"
	s[sGeocodeDelay], _ = time.ParseDuration("1.1s")
	s[sGeocodeTimeout], _ = time.ParseDuration("60s")
	s[sRideTimeout], _ = time.ParseDuration("2m")
	s[sCachePath] = "/etc/default/ridebutton/uber-button-cache"
	s[sCacheSize] = geocoder.DefaultCacheSize
	s[sSecrets] = "/etc/default/ridebutton"
	s[sLogFile] = "/var/log/ridebutton.log"
	s[sLogLevel] = "info"
	s[sDebug] = false
	// board pin 10 is BCM 15, wired to +V so pull down
	s[sMainBtn] = buttonMap{pinNum: 15, pullup: false, key: "b"}
	s[sLEDBusy] = 23
	s[sLEDErr] = 24
	s[sPopup] = false
	s[sPopupTimeout], _ = time.ParseDuration("30s")
	s[sSounds] = true
	s[sChimeFile] = ""
	s[sConfigAddr] = ":8080"
	s[sConfigSecret] = ""

	// off the pi there is no GPIO, use the keyboard and log the LEDs
	onPi := runtime.GOARCH == "arm" || runtime.GOARCH == "arm64"
	if onPi {
		s[sButtons] = btnModeRPIO
	} else {
		s[sButtons] = btnModeKeys
	}
	s[sLEDSimulated] = !onPi

	return configSettings{settings: s}
}

func (s configSettings) settingsFromJSON(data []byte) error {
	tmp := defaultSettings()
	for k, initVal := range tmp.settings {
		// ignore missing fields
		raw, dataType, _, err := jsonparser.Get(data, k)
		if err == jsonparser.KeyPathNotFoundError {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "setting %s", k)
		}

		switch initVal.(type) {
		case int:
			var v int64
			v, err = jsonparser.ParseInt(raw)
			if err != nil && dataType == jsonparser.String {
				// allow "0x17" and friends
				v, err = strconv.ParseInt(string(raw), 0, 64)
			}
			if err == nil {
				s.settings[k] = int(v)
			}
		case bool:
			var b bool
			b, err = jsonparser.ParseBoolean(raw)
			if err != nil && dataType == jsonparser.String {
				b, err = strconv.ParseBool(strings.ToLower(string(raw)))
			}
			if err == nil {
				s.settings[k] = b
			}
		case time.Duration:
			var d time.Duration
			d, err = time.ParseDuration(string(raw))
			if err == nil {
				s.settings[k] = d
			}
		case string:
			if dataType != jsonparser.String {
				err = fmt.Errorf("expected a string, got %s", dataType)
				break
			}
			var v string
			v, err = jsonparser.ParseString(raw)
			if err == nil {
				s.settings[k] = v
			}
		case buttonMap:
			var bm buttonMap
			bm, err = buttonMapFromJSON(raw, initVal.(buttonMap))
			if err == nil {
				s.settings[k] = bm
			}
		default:
			err = fmt.Errorf("bad type: %T", initVal)
		}
		if err != nil {
			return errors.Wrapf(err, "setting %s", k)
		}
	}
	return nil
}

func buttonMapFromJSON(data []byte, bm buttonMap) (buttonMap, error) {
	if pin, err := jsonparser.GetInt(data, "pin"); err == nil {
		bm.pinNum = int(pin)
	} else if err != jsonparser.KeyPathNotFoundError {
		return bm, err
	}
	if pullup, err := jsonparser.GetBoolean(data, "pullup"); err == nil {
		bm.pullup = pullup
	} else if err != jsonparser.KeyPathNotFoundError {
		return bm, err
	}
	if key, err := jsonparser.GetString(data, "key"); err == nil {
		if len(key) != 1 {
			return bm, fmt.Errorf("button key must be a single character, got %q", key)
		}
		bm.key = key
	} else if err != jsonparser.KeyPathNotFoundError {
		return bm, err
	}
	return bm, nil
}

func loadSettings(configFile string) (configSettings, error) {
	s := defaultSettings()

	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		return s, errors.Wrapf(err, "could not load conf file '%s'", configFile)
	}

	if err := s.settingsFromJSON(data); err != nil {
		return s, errors.Wrapf(err, "bad conf file '%s'", configFile)
	}

	return s, nil
}

func (s configSettings) GetString(key string) string {
	switch v := s.settings[key].(type) {
	case string:
		return v
	default:
		return ""
	}
}

func (s configSettings) GetBool(key string) bool {
	switch v := s.settings[key].(type) {
	case bool:
		return v
	default:
		return false
	}
}

func (s configSettings) GetDuration(key string) time.Duration {
	switch v := s.settings[key].(type) {
	case time.Duration:
		return v
	default:
		return -1
	}
}

func (s configSettings) GetInt(key string) int {
	switch v := s.settings[key].(type) {
	case int:
		return v
	default:
		return 0
	}
}

func (s configSettings) GetButtonMap(key string) buttonMap {
	switch v := s.settings[key].(type) {
	case buttonMap:
		return v
	default:
		return buttonMap{}
	}
}

func (s configSettings) GetAllButtonNames() []string {
	names := []string{}
	for k, v := range s.settings {
		if _, ok := v.(buttonMap); ok {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func (s configSettings) Dump(logger flogger) {
	keys := make([]string, 0, len(s.settings))
	for k := range s.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == sConfigSecret {
			logger.Printf("%s : %T: ****", k, s.settings[k])
			continue
		}
		logger.Printf("%s : %T: %+v", k, s.settings[k], s.settings[k])
	}
}
