package domain

// CommandKind names a command type. It doubles as a metrics label.
type CommandKind string

const (
	KindPick    CommandKind = "pick"
	KindHandoff CommandKind = "handoff"
)

// Command is an inbound request for the manipulation node.
// The set is closed: only Pick and Handoff implement it.
type Command interface {
	Kind() CommandKind
	command()
}

// Pick asks the node to grasp the object identified by Label.
type Pick struct {
	Label string `json:"label" mapstructure:"label"`
}

// Kind implements Command.
func (Pick) Kind() CommandKind { return KindPick }
func (Pick) command()          {}

// Handoff asks the node to release the held object to another agent.
type Handoff struct{}

// Kind implements Command.
func (Handoff) Kind() CommandKind { return KindHandoff }
func (Handoff) command()          {}

// Validate checks the command payload before it reaches the state machine.
func Validate(cmd Command) error {
	if cmd == nil {
		return ErrUnknownCommand
	}
	if p, ok := cmd.(Pick); ok && p.Label == "" {
		return ErrEmptyLabel
	}
	return nil
}
