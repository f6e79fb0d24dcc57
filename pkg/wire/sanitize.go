package wire

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxLabelSize bounds object labels, in bytes.
	DefaultMaxLabelSize = 256
	// EnvMaxLabelSize is the environment variable to override the default.
	EnvMaxLabelSize = "GRASP_MAX_LABEL_SIZE"
)

var (
	ErrLabelTooLarge = errors.New("label exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("label contains invalid UTF-8 sequences")
)

// SanitizeLabel enforces the size limit, validates UTF-8 and makes the label
// safe to embed in a single status line: line breaks and tabs become spaces,
// other control characters (ANSI escapes, NUL, BEL) are dropped.
func SanitizeLabel(label string) (string, error) {
	limit := maxLabelSize()
	if len(label) > limit {
		// Rejected rather than truncated so two different labels never collide.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrLabelTooLarge, len(label), limit)
	}

	if !utf8.ValidString(label) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range label {
		if unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if !clean {
		var b strings.Builder
		b.Grow(len(label))
		for _, r := range label {
			switch {
			case r == '\n' || r == '\r' || r == '\t':
				b.WriteRune(' ')
			case unicode.IsControl(r):
			default:
				b.WriteRune(r)
			}
		}
		label = b.String()
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyLabel
	}
	return label, nil
}

func maxLabelSize() int {
	if val := os.Getenv(EnvMaxLabelSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxLabelSize
}
