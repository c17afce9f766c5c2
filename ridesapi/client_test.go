package ridesapi

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"gotest.tools/assert"
)

type recorded struct {
	method string
	path   string
	body   map[string]interface{}
}

func testServer(t *testing.T, routes func(r *mux.Router)) (*Client, *[]recorded) {
	calls := []recorded{}
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			rec := recorded{method: req.Method, path: req.URL.Path}
			data, _ := ioutil.ReadAll(req.Body)
			if len(data) > 0 {
				json.Unmarshal(data, &rec.body)
			}
			calls = append(calls, rec)
			next.ServeHTTP(w, req)
		})
	})
	routes(r.PathPrefix("/v1.2").Subrouter())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), srv.URL+"/v1.2/"), &calls
}

func writeJSON(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(body))
}

var params = RideParams{
	ProductID:      "bcb6224a",
	StartLatitude:  48.24896,
	StartLongitude: 11.65101,
	EndLatitude:    48.137154,
	EndLongitude:   11.576124,
	SeatCount:      2,
}

func TestEstimateRide(t *testing.T) {
	c, calls := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/requests/estimate", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, 200, `{"fare":{"fare_id":"f-1","value":12.5,"display":"€12.50","currency_code":"EUR","expires_at":1500000000},
				"trip":{"distance_unit":"km","duration_estimate":1260,"distance_estimate":17.2},"pickup_estimate":4}`)
		}).Methods("POST")
	})

	p := params
	p.FareID = "stale"
	est, err := c.EstimateRide(context.Background(), p)
	assert.NilError(t, err)
	assert.Equal(t, est.PickupEstimate, 4)
	assert.Equal(t, est.Trip.Minutes(), 21)
	assert.Equal(t, est.Fare.Display, "€12.50")
	id, err := est.FareID()
	assert.NilError(t, err)
	assert.Equal(t, id, "f-1")
	assert.Assert(t, len(est.Body) > 0)

	assert.Equal(t, len(*calls), 1)
	body := (*calls)[0].body
	assert.Equal(t, body["product_id"], "bcb6224a")
	assert.Equal(t, body["seat_count"], float64(2))
	_, hasFare := body["fare_id"]
	assert.Assert(t, !hasFare, "estimate must not send a fare id")
}

func TestEstimateWithoutFare(t *testing.T) {
	c, _ := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/requests/estimate", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, 200, `{"pickup_estimate":2}`)
		})
	})

	est, err := c.EstimateRide(context.Background(), params)
	assert.NilError(t, err)
	_, err = est.FareID()
	assert.Error(t, err, "estimate has no upfront fare")
}

func TestRequestRide(t *testing.T) {
	c, calls := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/requests", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, 202, `{"request_id":"r-42","product_id":"bcb6224a","status":"processing","surge_multiplier":1.0}`)
		}).Methods("POST")
	})

	p := params
	p.FareID = "f-1"
	ride, err := c.RequestRide(context.Background(), p)
	assert.NilError(t, err)
	assert.Equal(t, ride.RequestID, "r-42")
	assert.Equal(t, ride.Status, StatusProcessing)
	assert.Equal(t, (*calls)[0].body["fare_id"], "f-1")
}

func TestUpdateSandboxRide(t *testing.T) {
	c, calls := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/sandbox/requests/{id}", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(204)
		}).Methods("PUT")
	})

	code, err := c.UpdateSandboxRide(context.Background(), "r-42", StatusAccepted)
	assert.NilError(t, err)
	assert.Equal(t, code, 204)
	assert.Equal(t, (*calls)[0].path, "/v1.2/sandbox/requests/r-42")
	assert.Equal(t, (*calls)[0].body["status"], "accepted")
}

func TestUpdateSandboxRideValidation(t *testing.T) {
	c, calls := testServer(t, func(r *mux.Router) {})

	_, err := c.UpdateSandboxRide(context.Background(), "", StatusAccepted)
	assert.ErrorContains(t, err, "missing ride id")

	_, err = c.UpdateSandboxRide(context.Background(), "r-42", "teleported")
	assert.ErrorContains(t, err, "unknown ride status")

	// nothing should have been sent
	assert.Equal(t, len(*calls), 0)
}

func TestGetRideDetails(t *testing.T) {
	c, _ := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/requests/{id}", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, 200, `{"request_id":"`+mux.Vars(req)["id"]+`","status":"in_progress",
				"driver":{"name":"Bob","rating":4.9},"vehicle":{"make":"Toyota","model":"Prius","license_plate":"M-UB 123"}}`)
		}).Methods("GET")
	})

	ride, err := c.GetRideDetails(context.Background(), "r-42")
	assert.NilError(t, err)
	assert.Equal(t, ride.RequestID, "r-42")
	assert.Equal(t, ride.Status, StatusInProgress)
	assert.Equal(t, ride.Driver.Name, "Bob")
	assert.Equal(t, ride.Vehicle.Model, "Prius")
}

func TestCancelCurrentRide(t *testing.T) {
	c, calls := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/requests/current", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(204)
		}).Methods("DELETE")
	})

	assert.NilError(t, c.CancelCurrentRide(context.Background()))
	assert.Equal(t, (*calls)[0].method, "DELETE")
}

func TestClientError(t *testing.T) {
	c, _ := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/requests/current", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, 404, `{"message":"No current trip","code":"no_current_trip"}`)
		})
	})

	err := c.CancelCurrentRide(context.Background())
	ce, ok := errors.Cause(err).(*ClientError)
	assert.Assert(t, ok, "expected a ClientError, got %T", err)
	assert.Equal(t, ce.StatusCode, 404)
	assert.Equal(t, ce.Error(), "client error 404: No current trip")
	// the code next to the message is kept
	assert.Assert(t, ce.HasCode("no_current_trip"))
}

func TestServerError(t *testing.T) {
	c, _ := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/requests", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, 503, `{"errors":[{"status":503,"code":"service_unavailable","title":"Try again later"}]}`)
		})
	})

	_, err := c.RequestRide(context.Background(), params)
	se, ok := errors.Cause(err).(*ServerError)
	assert.Assert(t, ok, "expected a ServerError, got %T", err)
	assert.Equal(t, se.StatusCode, 503)
	assert.Equal(t, se.Errors[0].Code, "service_unavailable")
	assert.Equal(t, se.Error(), "server error 503: Try again later")
}

func TestSurgeError(t *testing.T) {
	c, _ := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/requests", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, 409, `{"meta":{"surge_confirmation":{"href":"https://api.uber.com/surge-confirmations/e100","surge_confirmation_id":"e100","multiplier":1.4}},
				"errors":[{"status":409,"code":"surge","title":"Surge pricing is currently in effect for this product."}]}`)
		})
	})

	_, err := c.RequestRide(context.Background(), params)
	se, ok := errors.Cause(err).(*SurgeError)
	assert.Assert(t, ok, "expected a SurgeError, got %T", err)
	assert.Equal(t, se.ConfirmationID, "e100")
	assert.Equal(t, se.Multiplier, 1.4)
	assert.Equal(t, se.Href, "https://api.uber.com/surge-confirmations/e100")
}

func TestSurgeErrorWithMessage(t *testing.T) {
	c, _ := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/requests", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, 409, `{"message":"Surge pricing is currently in effect for this product.","code":"surge",
				"meta":{"surge_confirmation":{"href":"https://api.uber.com/surge-confirmations/e200","surge_confirmation_id":"e200","multiplier":2.1}}}`)
		})
	})

	_, err := c.RequestRide(context.Background(), params)
	se, ok := errors.Cause(err).(*SurgeError)
	assert.Assert(t, ok, "expected a SurgeError, got %T", err)
	assert.Equal(t, se.ConfirmationID, "e200")
	assert.Equal(t, se.Message, "Surge pricing is currently in effect for this product.")
}

func TestUpdateSandboxProduct(t *testing.T) {
	c, calls := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/sandbox/products/{id}", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(204)
		}).Methods("PUT")
	})

	_, err := c.UpdateSandboxProduct(context.Background(), "d4abaae7", 0.5, true)
	assert.ErrorContains(t, err, "below 1")

	code, err := c.UpdateSandboxProduct(context.Background(), "d4abaae7", 2.0, true)
	assert.NilError(t, err)
	assert.Equal(t, code, 204)
	assert.Equal(t, (*calls)[0].body["surge_multiplier"], 2.0)
	assert.Equal(t, (*calls)[0].body["drivers_available"], true)
}

func TestGetProducts(t *testing.T) {
	var latitude string
	c, _ := testServer(t, func(r *mux.Router) {
		r.HandleFunc("/products", func(w http.ResponseWriter, req *http.Request) {
			latitude = req.URL.Query().Get("latitude")
			writeJSON(w, 200, `{"products":[{"product_id":"bcb6224a","display_name":"uberPOOL","upfront_fare_enabled":true,"shared":true}]}`)
		})
	})

	products, err := c.GetProducts(context.Background(), 48.24896, 11.65101)
	assert.NilError(t, err)
	assert.Equal(t, latitude, "48.24896")
	assert.Equal(t, len(products), 1)
	assert.Equal(t, products[0].DisplayName, "uberPOOL")
	assert.Assert(t, products[0].UpfrontFare)
}
