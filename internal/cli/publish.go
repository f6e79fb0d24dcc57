package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/grasp/pkg/domain"
	"github.com/aretw0/grasp/pkg/ports"
	"github.com/aretw0/grasp/pkg/wire"
)

// Publish sends cmd to the node's command topic. It does not wait for a reply;
// use Watch to see the resulting status lines.
// Pick labels are sanitized first, so a label the node would drop is never sent.
func Publish(ctx context.Context, bus ports.Publisher, topics ports.Topics, cmd domain.Command) error {
	if p, ok := cmd.(domain.Pick); ok {
		label, err := wire.SanitizeLabel(p.Label)
		if err != nil {
			return fmt.Errorf("invalid pick: %w", err)
		}
		cmd = domain.Pick{Label: label}
	}
	if err := domain.Validate(cmd); err != nil {
		return err
	}

	var (
		topic   string
		payload []byte
	)
	switch c := cmd.(type) {
	case domain.Pick:
		data, err := wire.EncodePick(c)
		if err != nil {
			return err
		}
		topic, payload = topics.Pick, data
	case domain.Handoff:
		topic, payload = topics.Handoff, wire.EncodeHandoff()
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnknownCommand, cmd)
	}

	if err := bus.Publish(ctx, topic, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", cmd.Kind(), err)
	}
	return nil
}

// PrintParsed parses a status line and writes it to w as indented JSON.
func PrintParsed(w io.Writer, line string) error {
	n, err := wire.ParseStatus(line)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Success bool   `json:"success"`
		Code    int    `json:"status_code"`
		Message string `json:"message"`
	}{n.Success, n.Code, n.Message})
}
