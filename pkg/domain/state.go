package domain

// HoldState represents the node's belief about the object in its gripper.
// Label is non-empty if and only if Holding is true; use Empty and Holding
// to build values so that the pairing is never broken.
type HoldState struct {
	Holding bool   `json:"holding"`
	Label   string `json:"label,omitempty"`
}

// Empty returns the initial state: nothing held.
func Empty() HoldState {
	return HoldState{}
}

// Holding returns the state of gripping the object identified by label.
func Holding(label string) HoldState {
	return HoldState{Holding: true, Label: label}
}

// IsEmpty reports whether nothing is held.
func (s HoldState) IsEmpty() bool {
	return !s.Holding
}

// String renders the state for logs ("empty" or "holding(apple)").
func (s HoldState) String() string {
	if !s.Holding {
		return "empty"
	}
	return "holding(" + s.Label + ")"
}
