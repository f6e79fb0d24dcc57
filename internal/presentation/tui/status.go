package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aretw0/grasp/pkg/wire"
	"github.com/muesli/termenv"
)

const (
	colorTopic   = "#a78bfa"
	colorSuccess = "#4ade80"
	colorFailure = "#f87171"
	colorUnknown = "#facc15"
)

// Printer writes status lines observed on the bus, colored by outcome.
type Printer struct {
	mu         sync.Mutex
	w          io.Writer
	profile    termenv.Profile
	timestamps bool
}

// NewPrinter detects the color profile of w (NO_COLOR is honoured).
func NewPrinter(w io.Writer) *Printer {
	return NewPrinterWithProfile(w, termenv.NewOutput(w).EnvColorProfile())
}

// NewPrinterWithProfile uses a fixed color profile; termenv.Ascii disables color.
func NewPrinterWithProfile(w io.Writer, p termenv.Profile) *Printer {
	return &Printer{w: w, profile: p}
}

// WithTimestamps prefixes every line with the local time.
func (p *Printer) WithTimestamps(on bool) *Printer {
	p.timestamps = on
	return p
}

// Status prints one payload received on topic. Lines that are not
// status lines are printed verbatim in a warning color.
func (p *Printer) Status(topic string, payload []byte) error {
	line := string(payload)
	color := colorUnknown
	if n, err := wire.ParseStatus(line); err == nil {
		color = colorSuccess
		if !n.Success {
			color = colorFailure
		}
	}

	prefix := ""
	if p.timestamps {
		prefix = time.Now().Format("15:04:05.000") + " "
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, "%s%s %s\n",
		prefix,
		p.profile.String(topic).Foreground(p.profile.Color(colorTopic)).Bold(),
		p.profile.String(line).Foreground(p.profile.Color(color)),
	)
	return err
}
