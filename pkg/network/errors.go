package network

import "errors"

var (
	// ErrUnknownStop is returned by [Builder.AddLine] when a line references a
	// stop that is not in the stop table.
	ErrUnknownStop = errors.New("unknown stop")

	// ErrDuplicateStop is returned when two stop records share a stop ID.
	ErrDuplicateStop = errors.New("duplicate stop")

	// ErrUnnamedStop is returned by [StopIndex] when a stop node name does not
	// carry a stop ID.
	ErrUnnamedStop = errors.New("stop node name has no stop ID")

	// ErrEmptyLine is returned by [Builder.AddLine] for a line without stops.
	ErrEmptyLine = errors.New("line has no stops")

	// ErrDuplicateLine is returned by [Builder.AddLine] when a line ID was
	// already added.
	ErrDuplicateLine = errors.New("duplicate line")

	// ErrNegativeTime is returned for a negative travel or walking time.
	ErrNegativeTime = errors.New("negative time")

	// ErrDuplicateNodeID is reported when two nodes share an ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateArcID is reported when two arcs share an ID.
	ErrDuplicateArcID = errors.New("duplicate arc ID")

	// ErrDanglingArc is reported when an arc endpoint is not a node.
	ErrDanglingArc = errors.New("arc endpoint is not a node")

	// ErrInvariant is reported when the layered structure is inconsistent.
	ErrInvariant = errors.New("network invariant violated")
)
