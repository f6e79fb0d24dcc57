package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/grasp/pkg/domain"
	"github.com/aretw0/grasp/pkg/ports"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Summary describes a starting node for the serve banner.
type Summary struct {
	Name      string
	Bus       string
	Topics    ports.Topics
	State     domain.HoldState
	Endpoints []string
}

// Markdown renders s as a markdown document.
func (s Summary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Name)
	fmt.Fprintf(&b, "Bus: **%s** · State: `%s`\n\n", s.Bus, s.State)

	b.WriteString("| Direction | Channel | Topic |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| in | pick | `%s` |\n", s.Topics.Pick)
	fmt.Fprintf(&b, "| in | handoff | `%s` |\n", s.Topics.Handoff)
	for _, ch := range domain.Channels() {
		fmt.Fprintf(&b, "| out | %s | `%s` |\n", ch, s.Topics.For(ch))
	}

	if len(s.Endpoints) > 0 {
		b.WriteString("\n")
		for _, e := range s.Endpoints {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	return b.String()
}
