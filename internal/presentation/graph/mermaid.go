package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/grasp/pkg/domain"
)

// Overlay contains live state data to visualize on the diagram.
type Overlay struct {
	Current domain.HoldState
}

// GenerateMermaid produces a Mermaid state diagram of the hold state machine.
// Each edge is labelled with the command and the channels it publishes on.
// With an overlay, the current state is highlighted and named.
func GenerateMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	sb.WriteString("    [*] --> Empty\n")

	edge := func(from, to string, kind domain.CommandKind, channels ...domain.Channel) {
		names := make([]string, len(channels))
		for i, ch := range channels {
			names[i] = string(ch)
		}
		fmt.Fprintf(&sb, "    %s --> %s : %s / %s\n", from, to, kind, strings.Join(names, ", "))
	}

	edge("Empty", "Holding", domain.KindPick, domain.ChannelFeedback, domain.ChannelObjectAcquired)
	edge("Holding", "Holding", domain.KindPick, domain.ChannelFeedback, domain.ChannelObjectAcquired)
	edge("Holding", "Empty", domain.KindHandoff, domain.ChannelFeedback, domain.ChannelHandoffComplete)
	fmt.Fprintf(&sb, "    Empty --> Empty : %s / %s (status_code %d)\n", domain.KindHandoff, domain.ChannelFeedback, domain.CodeNotHolding)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		current := "Empty"
		if overlay.Current.Holding {
			current = "Holding"
			fmt.Fprintf(&sb, "    note right of Holding : %s\n", sanitizeMermaidText(overlay.Current.Label))
		}
		fmt.Fprintf(&sb, "    class %s current\n", current)
	}

	return sb.String()
}

func sanitizeMermaidText(s string) string {
	r := strings.NewReplacer("\"", "'", ":", " ", ";", " ", "\n", " ", "%%", "%")
	return r.Replace(s)
}
