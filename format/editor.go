package format

import "markfmt/doc"

// Editor is the collaborator owning the tree and the selection. Formatting
// relies on it for selection, boundary and word queries, sibling lookup,
// insertion and the ignore predicate and assumes its answers are correct.
type Editor interface {
	// Tree returns document the editor works on.
	Tree() *doc.Tree
	// Selection returns current selection.
	Selection() (doc.Range, error)
	// BoundaryAnchor returns anchor at the side of the node, either inside
	// of it or in its parent.
	BoundaryAnchor(n doc.NodeID, side doc.Side, rel doc.Relation) doc.Anchor
	// WordBoundaryAnchor returns anchor of the nearest word boundary at the
	// side of a.
	WordBoundaryAnchor(a doc.Anchor, side doc.Side) doc.Anchor
	// NeighborSibling returns sibling of the node at the side or doc.NoNode.
	NeighborSibling(n doc.NodeID, side doc.Side) doc.NodeID
	// InsertBefore places n right before ref.
	InsertBefore(n, ref doc.NodeID)
	// InsertAfter places n (or its copy when keepOriginal is set) right after
	// ref and returns the inserted node.
	InsertAfter(n, ref doc.NodeID, keepOriginal bool) doc.NodeID
	// ShouldIgnore reports nodes which are structurally present but
	// semantically inert.
	ShouldIgnore(n doc.NodeID) bool
}
