package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gotest.tools/assert"
)

func configRequest(t *testing.T, h http.Handler, method string, path string, secret string) (*httptest.ResponseRecorder, configResponse) {
	req := httptest.NewRequest(method, path, nil)
	if secret != "" {
		req.SetBasicAuth("ridebutton", secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var cr configResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &cr))
	}
	return rec, cr
}

func TestAPINeedsAuth(t *testing.T) {
	rt, _, _ := testRuntime()
	r := newRouter(newHandler(rt))

	rec, _ := configRequest(t, r, "GET", "/api/status", "")
	assert.Equal(t, rec.Code, http.StatusUnauthorized)
	assert.Equal(t, rec.Header().Get("WWW-Authenticate"), `Basic realm="ridebutton"`)

	rec, _ = configRequest(t, r, "GET", "/api/status", "wrong")
	assert.Equal(t, rec.Code, http.StatusUnauthorized)
}

func TestAPIStatus(t *testing.T) {
	rt, _, _ := testRuntime()
	handler := newHandler(rt)
	r := newRouter(handler)

	rec, cr := configRequest(t, r, "GET", "/api/status", "test-secret")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, cr.Response, "OK")
	assert.Assert(t, cr.LastRide == nil)

	handler.setLastRide(rideResult{RequestID: "r-1", Status: "completed"})
	_, cr = configRequest(t, r, "GET", "/api/status", "test-secret")
	assert.Equal(t, cr.LastRide.RequestID, "r-1")
	assert.Equal(t, cr.Error, "")

	handler.setLastRide(rideResult{Error: "no valid start address"})
	_, cr = configRequest(t, r, "GET", "/api/status", "test-secret")
	assert.Equal(t, cr.Response, "OK")
	assert.Equal(t, cr.Error, "no valid start address")
}

func TestAPIPress(t *testing.T) {
	rt, _, comms := testRuntime()
	r := newRouter(newHandler(rt))

	rec, cr := configRequest(t, r, "POST", "/api/press", "test-secret")
	assert.Equal(t, rec.Code, http.StatusAccepted)
	assert.Equal(t, cr.Response, "OK")

	// the first one is still waiting
	rec, cr = configRequest(t, r, "POST", "/api/press", "test-secret")
	assert.Equal(t, rec.Code, http.StatusConflict)
	assert.Equal(t, cr.Response, "BUSY")

	_, cr = configRequest(t, r, "GET", "/api/status", "test-secret")
	assert.Assert(t, cr.Busy)

	msg := pressRead(t, comms.presses)
	assert.Equal(t, msg.source[:4], "http")
	pressNoRead(t, comms.presses)

	// no GET on press
	rec, _ = configRequest(t, r, "GET", "/api/press", "test-secret")
	assert.Equal(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestAPIRootRedirect(t *testing.T) {
	rt, _, _ := testRuntime()
	r := newRouter(newHandler(rt))

	rec, _ := configRequest(t, r, "GET", "/", "test-secret")
	assert.Equal(t, rec.Code, http.StatusMovedPermanently)
	assert.Equal(t, rec.Header().Get("Location"), "/api/status")
}

func TestRunConfigService(t *testing.T) {
	rt, _, comms := testRuntime()
	svc := rt.configService.(*noConfigService)

	done := make(chan struct{})
	go func() {
		runConfigService(rt)
		close(done)
	}()

	comms.publishResult(rideResult{RequestID: "r-7", Status: "completed"})

	// the loop picks up the result
	deadline := time.Now().Add(5 * time.Second)
	for len(comms.results) > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	testQuit(rt)
	<-done

	assert.Equal(t, svc.addr, "127.0.0.1:0")
	assert.Assert(t, svc.stopped)
	status := svc.handler.getStatus()
	assert.Equal(t, status.LastRide.RequestID, "r-7")
}

func TestHTTPConfigService(t *testing.T) {
	rt, _, _ := testRuntime()
	svc := &httpConfigService{}

	svc.launch(newHandler(rt), "127.0.0.1:0")
	svc.stop()
	// stopping twice is harmless
	svc.stop()
}

func TestAPIPressDuringRide(t *testing.T) {
	rt, fake := rideTestRuntime(t)
	comms := rt.comms
	popup := &blockingPopup{shown: make(chan struct{}, 10), release: make(chan struct{})}
	rt.popup = popup
	r := newRouter(newHandler(rt))

	go runRideRequests(rt)

	rec, _ := configRequest(t, r, "POST", "/api/press", "test-secret")
	assert.Equal(t, rec.Code, http.StatusAccepted)
	select {
	case <-popup.shown:
	case <-time.After(10 * time.Second):
		t.Fatal("ride did not start")
	}

	// the press was taken, but the ride is still running
	assert.Equal(t, len(comms.presses), 0)
	_, cr := configRequest(t, r, "GET", "/api/status", "test-secret")
	assert.Assert(t, cr.Busy)

	rec, cr = configRequest(t, r, "POST", "/api/press", "test-secret")
	assert.Equal(t, rec.Code, http.StatusConflict)
	assert.Equal(t, cr.Response, "BUSY")

	close(popup.release)
	res := resultRead(t, comms.results)
	assert.Assert(t, res.ok(), res.Error)
	assert.Equal(t, fake.requested, 1)

	_, cr = configRequest(t, r, "GET", "/api/status", "test-secret")
	assert.Assert(t, !cr.Busy)
	rec, _ = configRequest(t, r, "POST", "/api/press", "test-secret")
	assert.Equal(t, rec.Code, http.StatusAccepted)
	res = resultRead(t, comms.results)
	assert.Assert(t, res.ok(), res.Error)
	assert.Equal(t, fake.requested, 2)

	testQuit(rt)
}
