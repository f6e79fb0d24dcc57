package domain

// Channel identifies one of the outbound notification streams.
type Channel string

const (
	// ChannelFeedback is the general-purpose status stream.
	ChannelFeedback Channel = "feedback"
	// ChannelObjectAcquired is the milestone stream for a completed pick.
	ChannelObjectAcquired Channel = "object_acquired"
	// ChannelHandoffComplete is the milestone stream for a completed handoff.
	ChannelHandoffComplete Channel = "handoff_complete"
)

// Channels lists every outbound channel in a stable order.
func Channels() []Channel {
	return []Channel{ChannelFeedback, ChannelObjectAcquired, ChannelHandoffComplete}
}

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelFeedback, ChannelObjectAcquired, ChannelHandoffComplete:
		return true
	}
	return false
}

// Status codes carried by notifications.
const (
	CodeOK         = 0
	CodeNotHolding = 1
)

// Notification is a typed status result emitted on a single channel.
type Notification struct {
	Channel Channel `json:"channel"`
	Success bool    `json:"success"`
	Code    int     `json:"status_code"`
	Message string  `json:"message"`
}

// Succeeded builds a code 0 notification.
func Succeeded(ch Channel, message string) Notification {
	return Notification{Channel: ch, Success: true, Code: CodeOK, Message: message}
}

// Failed builds a failure notification with the given code.
func Failed(ch Channel, code int, message string) Notification {
	return Notification{Channel: ch, Success: false, Code: code, Message: message}
}

// Result is the outcome of one command: the state after it was applied and the
// notifications it produced, in publish order.
type Result struct {
	Command       CommandKind    `json:"command"`
	State         HoldState      `json:"state"`
	Notifications []Notification `json:"notifications"`
}

// Succeeded reports whether every notification in the result succeeded.
func (r Result) Succeeded() bool {
	for _, n := range r.Notifications {
		if !n.Success {
			return false
		}
	}
	return true
}
