package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the grasp ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).EnvColorProfile()
	// Teal to green, like a status line going from pending to success.
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _ _ __ __ _ ___ _ __  ", "#22d3ee"},
		{"  / _` | '__/ _` / __| '_ \\ ", "#2dd4bf"},
		{" | (_| | | | (_| \\__ \\ |_) |", "#34d399"},
		{"  \\__, |_|  \\__,_|___/ .__/ ", "#4ade80"},
		{"  |___/              |_|    ", "#a3e635"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
