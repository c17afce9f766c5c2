package main

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
)

type configResponse struct {
	Response string      `json:"response"`
	Error    string      `json:"error,omitempty"`
	Busy     bool        `json:"busy"`
	LastRide *rideResult `json:"last_ride,omitempty"`
}

// apiHandler - settings for the thing that handles HTTP requests
type apiHandler struct {
	rt     runtimeConfig
	secret string
	user   string
	realm  string

	mu       sync.Mutex
	lastRide *rideResult
}

// newHandler - create a new API handler
func newHandler(rt runtimeConfig) *apiHandler {
	return &apiHandler{
		rt:     rt,
		secret: rt.settings.GetString(sConfigSecret),
		user:   "ridebutton",
		realm:  "ridebutton",
	}
}

// BasicAuth - provide a middleware to authenticate users
func (m *apiHandler) BasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(m.user)) != 1 || subtle.ConstantTimeCompare([]byte(pass), []byte(m.secret)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+m.realm+`"`)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorised.\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *apiHandler) setLastRide(res rideResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRide = &res
}

func (m *apiHandler) getStatus() configResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	cr := configResponse{Response: "OK", LastRide: m.lastRide}
	cr.Busy = m.rt.comms.busy()
	if m.lastRide != nil && !m.lastRide.ok() {
		cr.Error = m.lastRide.Error
	}
	return cr
}

func writeAnswer(w http.ResponseWriter, code int, cr configResponse) {
	output, _ := json.Marshal(cr)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(output)
}

func (m *apiHandler) apiStatus(w http.ResponseWriter, r *http.Request) {
	writeAnswer(w, http.StatusOK, m.getStatus())
}

func (m *apiHandler) apiPress(w http.ResponseWriter, r *http.Request) {
	// presses during a ride are dropped, so don't take one
	if m.rt.comms.riding.Load() || !m.rt.comms.sendPress(pressMsg{source: "http " + r.RemoteAddr, at: m.rt.clock.Now()}) {
		writeAnswer(w, http.StatusConflict, configResponse{Response: "BUSY", Error: "a ride request is already pending"})
		return
	}
	writeAnswer(w, http.StatusAccepted, configResponse{Response: "OK", Busy: true})
}

func (m *apiHandler) rootHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/api/status", http.StatusMovedPermanently)
}

func startConfigService(rt runtimeConfig) {
	rt.logger = &ThreadLogger{name: "ConfigService"}
	wg.Add(1)
	go func() {
		defer wg.Done()
		runConfigService(rt)
	}()
}

func runConfigService(rt runtimeConfig) {
	handler := newHandler(rt)

	rt.configService.launch(handler, rt.settings.GetString(sConfigAddr))

	rt.logger.Println("starting config service comms loop")
	comms := rt.comms

	// comms loop, listen for ride results
	for {
		select {
		case <-comms.quit:
			rt.logger.Printf("quit from config service")
			rt.configService.stop()
			return
		case res := <-comms.results:
			rt.logger.Printf("Got a ride result: %+v", res)
			handler.setLastRide(res)
		}
	}
}
