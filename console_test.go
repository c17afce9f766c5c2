package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"gotest.tools/assert"
)

func TestConsolePrints(t *testing.T) {
	var buf bytes.Buffer

	successPrint(&buf, "204 New status: accepted")
	failPrint(&buf, errors.New("client error 404: No current trip"))
	paragraphPrint(&buf, "Updated ride details.")
	responsePrint(&buf, []byte(`{"request_id":"r-42"}`))

	out := buf.String()
	// not a terminal, so no escape codes
	assert.Assert(t, !strings.Contains(out, "\x1b["), out)
	assert.Assert(t, strings.Contains(out, "204 New status: accepted\n"))
	assert.Assert(t, strings.Contains(out, "client error 404: No current trip\n"))
	assert.Assert(t, strings.Contains(out, "\nUpdated ride details.\n\n"))
	assert.Assert(t, strings.Contains(out, `"request_id": "r-42"`))
}

func TestIndentJSON(t *testing.T) {
	assert.Equal(t, indentJSON([]byte(`{"a":{"b":1}}`)), "{\n    \"a\": {\n        \"b\": 1\n    }\n}")
	// anything else comes back as is
	assert.Equal(t, indentJSON([]byte("Unauthorised.\n")), "Unauthorised.")
}
