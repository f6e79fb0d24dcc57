package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/grasp/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ErrEmptyLabel is returned when a pick command carries no label.
var ErrEmptyLabel = domain.ErrEmptyLabel

// DecodePick reads a pick payload.
// A JSON object is decoded by field ("label"); anything else is taken as the label itself.
func DecodePick(payload []byte) (domain.Pick, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var raw map[string]any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return domain.Pick{}, fmt.Errorf("invalid pick payload: %w", err)
		}
		return DecodePickMap(raw)
	}

	label, err := SanitizeLabel(string(trimmed))
	if err != nil {
		return domain.Pick{}, err
	}
	return domain.Pick{Label: label}, nil
}

// DecodePickMap decodes a pick command from loosely typed input
// (JSON objects, YAML documents, MCP tool arguments).
func DecodePickMap(raw map[string]any) (domain.Pick, error) {
	var pick domain.Pick
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &pick,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return domain.Pick{}, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return domain.Pick{}, fmt.Errorf("invalid pick payload: %w", err)
	}
	label, err := SanitizeLabel(pick.Label)
	if err != nil {
		return domain.Pick{}, err
	}
	return domain.Pick{Label: label}, nil
}

// EncodePick renders a pick command as the JSON payload DecodePick accepts.
func EncodePick(p domain.Pick) ([]byte, error) {
	if p.Label == "" {
		return nil, ErrEmptyLabel
	}
	return json.Marshal(p)
}

// EncodeHandoff returns the handoff payload. Handoff carries no data.
func EncodeHandoff() []byte {
	return []byte{}
}
