package main

import (
	"sync"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
)

// termboxPopup draws a box in the middle of the terminal and waits for a
// key or the popup timeout
type termboxPopup struct {
	// owned is set when the keyboard buttons already run termbox; they
	// eat the key events, so only the timeout closes the box
	owned bool
}

func (tp *termboxPopup) show(rt runtimeConfig, title string, lines []string) error {
	if !tp.owned {
		if err := termbox.Init(); err != nil {
			return err
		}
		defer termbox.Close()
	}

	drawBox(title, lines)
	defer func() {
		termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
		termbox.Flush()
	}()

	timeout := rt.clock.After(rt.settings.GetDuration(sPopupTimeout))
	if tp.owned {
		select {
		case <-timeout:
		case <-rt.comms.quit:
		}
		return nil
	}

	keys := make(chan struct{})
	go func() {
		defer close(keys)
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventKey || ev.Type == termbox.EventInterrupt || ev.Type == termbox.EventError {
				return
			}
		}
	}()

	select {
	case <-keys:
		return nil
	case <-timeout:
	case <-rt.comms.quit:
	}
	// wake up the poller so it can go away
	termbox.Interrupt()
	<-keys
	return nil
}

func drawBox(title string, lines []string) {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	tw, th := termbox.Size()

	width := runewidth.StringWidth(title)
	for _, l := range lines {
		if w := runewidth.StringWidth(l); w > width {
			width = w
		}
	}
	// border and one space of padding each side
	boxW := width + 4
	boxH := len(lines) + 4
	x0 := (tw - boxW) / 2
	y0 := (th - boxH) / 2
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}

	fg, bg := termbox.ColorWhite, termbox.ColorBlue
	for y := 0; y < boxH; y++ {
		for x := 0; x < boxW; x++ {
			ch := ' '
			switch {
			case (y == 0 || y == boxH-1) && (x == 0 || x == boxW-1):
				ch = '+'
			case y == 0 || y == boxH-1:
				ch = '-'
			case x == 0 || x == boxW-1:
				ch = '|'
			}
			termbox.SetCell(x0+x, y0+y, ch, fg, bg)
		}
	}

	printCentered(x0, y0+1, boxW, title, fg|termbox.AttrBold, bg)
	for i, l := range lines {
		printCentered(x0, y0+3+i, boxW, l, fg, bg)
	}
	termbox.Flush()
}

func printCentered(x0 int, y int, boxW int, s string, fg termbox.Attribute, bg termbox.Attribute) {
	x := x0 + (boxW-runewidth.StringWidth(s))/2
	for _, r := range s {
		termbox.SetCell(x, y, r, fg, bg)
		x += runewidth.RuneWidth(r)
	}
}

// logPopup logs instead of drawing, used when the popup is turned off
type logPopup struct {
	mu     sync.Mutex
	titles []string
	lines  [][]string
}

func (lp *logPopup) show(rt runtimeConfig, title string, lines []string) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	rt.logger.Printf("popup %q: %v", title, lines)
	lp.titles = append(lp.titles, title)
	lp.lines = append(lp.lines, lines)
	return nil
}
