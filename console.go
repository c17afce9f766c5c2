package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// console output styles, the renderer drops the colors when w is not a
// terminal
type consoleStyles struct {
	success   lipgloss.Style
	fail      lipgloss.Style
	paragraph lipgloss.Style
	response  lipgloss.Style
}

func stylesFor(w io.Writer) consoleStyles {
	r := lipgloss.NewRenderer(w)
	return consoleStyles{
		success:   r.NewStyle().Foreground(lipgloss.Color("2")),
		fail:      r.NewStyle().Foreground(lipgloss.Color("1")),
		paragraph: r.NewStyle().Bold(true).Underline(true),
		response:  r.NewStyle().Foreground(lipgloss.Color("6")).PaddingLeft(2),
	}
}

func plainPrint(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}

func successPrint(w io.Writer, message string) {
	fmt.Fprintln(w, stylesFor(w).success.Render(message))
}

func failPrint(w io.Writer, err error) {
	fmt.Fprintln(w, stylesFor(w).fail.Render(err.Error()))
}

func paragraphPrint(w io.Writer, message string) {
	fmt.Fprintf(w, "\n%s\n\n", stylesFor(w).paragraph.Render(message))
}

// responsePrint pretty prints a JSON response body
func responsePrint(w io.Writer, body []byte) {
	fmt.Fprintln(w, stylesFor(w).response.Render(indentJSON(body)))
}

func indentJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "    "); err != nil {
		// not JSON, print what we got
		return strings.TrimSpace(string(body))
	}
	return buf.String()
}
