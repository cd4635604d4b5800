package scene

import "errors"

// Mutation validation errors. Callers test with errors.Is. A rejected
// operation never mutates the scene.
var (
	// ErrInvalidRemoval rejects removal of a node with more than one
	// relationship in total.
	ErrInvalidRemoval = errors.New("node has too many relationships to remove")

	// ErrUnknownNode means the node is not (or no longer) in the arena.
	ErrUnknownNode = errors.New("node not in scene")

	// ErrSelfLink rejects linking a node to itself.
	ErrSelfLink = errors.New("cannot link node to itself")
)
