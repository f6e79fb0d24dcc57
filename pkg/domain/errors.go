package domain

import "errors"

// ErrNotHolding is returned when a handoff is requested while nothing is held.
var ErrNotHolding = errors.New("no object to hand off")

// ErrUnknownCommand is returned when the machine receives a command outside the known set.
var ErrUnknownCommand = errors.New("unknown command")

// ErrNodeStopped is returned when a command is submitted to a node that is no longer running.
var ErrNodeStopped = errors.New("node stopped")

// ErrEmptyLabel is returned when a pick command carries no label.
var ErrEmptyLabel = errors.New("pick label is empty")
