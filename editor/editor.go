// Package editor provides a reference implementation of the editing
// collaborator formatting relies on: it keeps the tree and the current
// selection and answers boundary, word and sibling queries.
package editor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"markfmt/doc"
)

// ErrNoSelection indicates that selection was never set or does not point
// into the tree anymore.
var ErrNoSelection = errors.New("no selection")

// RangeEditor is a single selection editor over a tree.
type RangeEditor struct {
	tree   *doc.Tree
	sel    doc.Range
	hasSel bool
	ignore map[string]struct{}
	log    *zap.Logger
}

// New creates editor over tree. Elements with ignoreTags (in addition to
// those flagged ignorable in the tree) are treated as semantically inert.
func New(tree *doc.Tree, log *zap.Logger, ignoreTags ...string) *RangeEditor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &RangeEditor{
		tree:   tree,
		ignore: make(map[string]struct{}, len(ignoreTags)),
		log:    log,
	}
	for _, tag := range ignoreTags {
		e.ignore[tag] = struct{}{}
	}
	return e
}

func (e *RangeEditor) Tree() *doc.Tree {
	return e.tree
}

// SetSelection replaces current selection.
func (e *RangeEditor) SetSelection(r doc.Range) error {
	for _, a := range []doc.Anchor{r.Start, r.End} {
		if !e.tree.ValidAnchor(a) {
			return fmt.Errorf("invalid selection anchor %s", a)
		}
	}
	e.sel, e.hasSel = r, true
	e.log.Debug("Selection changed", zap.Stringer("start", r.Start), zap.Stringer("end", r.End))
	return nil
}

// Collapse sets collapsed selection (cursor) at a.
func (e *RangeEditor) Collapse(a doc.Anchor) error {
	return e.SetSelection(doc.Range{Start: a, End: a})
}

func (e *RangeEditor) Selection() (doc.Range, error) {
	if !e.hasSel {
		return doc.Range{}, ErrNoSelection
	}
	if !e.tree.ValidAnchor(e.sel.Start) || !e.tree.ValidAnchor(e.sel.End) {
		return doc.Range{}, fmt.Errorf("%w: selection %s-%s is stale", ErrNoSelection, e.sel.Start, e.sel.End)
	}
	return e.sel, nil
}

// BoundaryAnchor returns anchor at the side of the node. Outside anchors
// are child positions in the parent, inside anchors descend through edge
// children to the deepest text run, stopping at ignorable elements.
func (e *RangeEditor) BoundaryAnchor(n doc.NodeID, side doc.Side, rel doc.Relation) doc.Anchor {
	t := e.tree
	if rel == doc.Outside {
		if p := t.Parent(n); p != doc.NoNode {
			i := t.Index(n)
			if side == doc.Right {
				i++
			}
			return doc.Anchor{Node: p, Offset: i}
		}
		// detached node or root has no outside
	}
	for {
		if t.IsText(n) {
			return edgeOf(t, n, side)
		}
		kid := t.FirstChild(n)
		if side == doc.Right {
			kid = t.LastChild(n)
		}
		if kid == doc.NoNode || (t.IsElement(kid) && e.ShouldIgnore(kid)) {
			return edgeOf(t, n, side)
		}
		n = kid
	}
}

func edgeOf(t *doc.Tree, n doc.NodeID, side doc.Side) doc.Anchor {
	if side == doc.Right {
		return doc.Anchor{Node: n, Offset: t.Len(n)}
	}
	return doc.Anchor{Node: n}
}

// WordBoundaryAnchor returns edge of the word under a. Anchors into
// elements are first moved into an adjacent text run, if there is none
// anchor is returned unchanged.
func (e *RangeEditor) WordBoundaryAnchor(a doc.Anchor, side doc.Side) doc.Anchor {
	t := e.tree
	if t.IsElement(a.Node) {
		switch {
		case t.IsText(t.ChildAt(a.Node, a.Offset)):
			a = doc.Anchor{Node: t.ChildAt(a.Node, a.Offset)}
		case t.IsText(t.ChildAt(a.Node, a.Offset-1)):
			kid := t.ChildAt(a.Node, a.Offset-1)
			a = doc.Anchor{Node: kid, Offset: t.Len(kid)}
		default:
			return a
		}
	}
	if !t.IsText(a.Node) {
		return a
	}
	w := wordAt(t.Text(a.Node), a.Offset)
	if side == doc.Right {
		return doc.Anchor{Node: a.Node, Offset: w.end}
	}
	return doc.Anchor{Node: a.Node, Offset: w.start}
}

func (e *RangeEditor) NeighborSibling(n doc.NodeID, side doc.Side) doc.NodeID {
	if side == doc.Right {
		return e.tree.NextSibling(n)
	}
	return e.tree.PrevSibling(n)
}

func (e *RangeEditor) InsertBefore(n, ref doc.NodeID) {
	e.tree.InsertBefore(n, ref)
}

// InsertAfter moves n right after ref, with keepOriginal a deep copy of n is
// inserted instead and n stays where it was.
func (e *RangeEditor) InsertAfter(n, ref doc.NodeID, keepOriginal bool) doc.NodeID {
	if keepOriginal {
		n = e.tree.CloneDeep(n)
	}
	e.tree.InsertAfter(n, ref)
	return n
}

// ShouldIgnore reports elements flagged ignorable in the tree or having one
// of configured ignorable tags.
func (e *RangeEditor) ShouldIgnore(n doc.NodeID) bool {
	t := e.tree
	if !t.IsElement(n) {
		return false
	}
	if t.Ignorable(n) {
		return true
	}
	_, ok := e.ignore[t.Tag(n)]
	return ok
}
