package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/grasp/pkg/domain"
)

// ErrMalformedStatus is returned when a status line does not follow the
// "success <bool>; status_code <int>; message: <text>" layout.
var ErrMalformedStatus = errors.New("malformed status line")

const (
	successKey = "success "
	codeKey    = "status_code "
	messageKey = "message:"
	separator  = "; "
)

// FormatStatus renders a notification as a status line.
func FormatStatus(n domain.Notification) string {
	return fmt.Sprintf("success %t; status_code %d; message: %s", n.Success, n.Code, n.Message)
}

// ParseStatus parses a status line. The returned notification has no Channel;
// callers that know the topic set it themselves.
// The message is the remainder of the line and may itself contain separators.
func ParseStatus(line string) (domain.Notification, error) {
	parts := strings.SplitN(strings.TrimRight(line, "\r\n"), separator, 3)
	if len(parts) != 3 {
		return domain.Notification{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedStatus, len(parts))
	}

	rawSuccess, ok := strings.CutPrefix(parts[0], successKey)
	if !ok {
		return domain.Notification{}, fmt.Errorf("%w: missing %q", ErrMalformedStatus, strings.TrimSpace(successKey))
	}
	success, err := strconv.ParseBool(strings.TrimSpace(rawSuccess))
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: success: %v", ErrMalformedStatus, err)
	}

	rawCode, ok := strings.CutPrefix(parts[1], codeKey)
	if !ok {
		return domain.Notification{}, fmt.Errorf("%w: missing %q", ErrMalformedStatus, strings.TrimSpace(codeKey))
	}
	code, err := strconv.Atoi(strings.TrimSpace(rawCode))
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: status_code: %v", ErrMalformedStatus, err)
	}

	message, ok := strings.CutPrefix(parts[2], messageKey)
	if !ok {
		return domain.Notification{}, fmt.Errorf("%w: missing %q", ErrMalformedStatus, messageKey)
	}

	return domain.Notification{
		Success: success,
		Code:    code,
		Message: strings.TrimPrefix(message, " "),
	}, nil
}
