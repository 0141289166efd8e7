package format

import "errors"

// Formatting errors. All of them indicate a precondition or logic problem,
// nothing here is transient and nothing is retried.
var (
	// ErrInvalidAnchor indicates that anchor container is neither a live text
	// run nor an element of the tree, or offset is out of range.
	ErrInvalidAnchor = errors.New("invalid anchor")

	// ErrAmbiguousOverlap indicates that selection ends are inside two
	// different marks of the same kind.
	ErrAmbiguousOverlap = errors.New("selection ends are inside different marks")

	// ErrDetachedNode indicates an unwrap requested for a node which is not
	// attached to the tree (or is the root).
	ErrDetachedNode = errors.New("node is not attached")

	// ErrUnsupportedMark indicates mark identifier outside of configured set.
	ErrUnsupportedMark = errors.New("unsupported mark")
)
