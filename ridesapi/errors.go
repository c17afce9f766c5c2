package ridesapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
)

// ErrorDetail is one entry of an API error body
type ErrorDetail struct {
	Status int
	Code   string
	Title  string
}

// ClientError is returned for 4xx responses
type ClientError struct {
	StatusCode int
	Message    string
	Errors     []ErrorDetail
	Body       []byte
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.StatusCode, e.describe())
}

func (e *ClientError) describe() string {
	if e.Message != "" {
		return e.Message
	}
	titles := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		if d.Title != "" {
			titles = append(titles, d.Title)
		} else {
			titles = append(titles, d.Code)
		}
	}
	if len(titles) == 0 {
		return http.StatusText(e.StatusCode)
	}
	return strings.Join(titles, "; ")
}

// HasCode reports whether any error detail carries the given code
func (e *ClientError) HasCode(code string) bool {
	for _, d := range e.Errors {
		if d.Code == code {
			return true
		}
	}
	return false
}

// ServerError is returned for 5xx responses
type ServerError struct {
	ClientError
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.describe())
}

// SurgeError means the product is surging and the rider has to confirm
// the multiplier at Href before a ride can be requested
type SurgeError struct {
	ClientError
	Href           string
	ConfirmationID string
	Multiplier     float64
}

func (e *SurgeError) Error() string {
	return fmt.Sprintf("surge %.1fx requires confirmation at %s", e.Multiplier, e.Href)
}

// parseError turns a non-2xx response body into a typed error
func parseError(status int, body []byte) error {
	ce := ClientError{StatusCode: status, Body: body}

	ce.Message, _ = jsonparser.GetString(body, "message")
	if code, err := jsonparser.GetString(body, "code"); err == nil {
		ce.Errors = append(ce.Errors, ErrorDetail{Status: status, Code: code})
	}

	jsonparser.ArrayEach(body, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if err != nil || dataType != jsonparser.Object {
			return
		}
		var d ErrorDetail
		if s, err := jsonparser.GetInt(value, "status"); err == nil {
			d.Status = int(s)
		}
		d.Code, _ = jsonparser.GetString(value, "code")
		d.Title, _ = jsonparser.GetString(value, "title")
		ce.Errors = append(ce.Errors, d)
	}, "errors")

	if status >= 500 {
		return &ServerError{ClientError: ce}
	}

	if status == http.StatusConflict && ce.HasCode("surge") {
		se := &SurgeError{ClientError: ce}
		se.Href, _ = jsonparser.GetString(body, "meta", "surge_confirmation", "href")
		se.ConfirmationID, _ = jsonparser.GetString(body, "meta", "surge_confirmation", "surge_confirmation_id")
		se.Multiplier, _ = jsonparser.GetFloat(body, "meta", "surge_confirmation", "multiplier")
		return se
	}

	return &ce
}
