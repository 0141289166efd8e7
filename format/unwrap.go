package format

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"markfmt/doc"
)

// Unwrap removes mark element promoting its children to its place and
// normalizes the result. Returned anchors surround promoted content, count
// is -2 for a regular element and 0 for an ignorable one.
//
// Normalization joins same-tag marks with equal attributes meeting at either
// edge of the promoted content, be it halves of a previously split mark or
// marks which were adjacent in the input. Every joined mark adds another -2:
// unwrapping <b> in <i>a</i><b><i>b</i></b> yields <i>ab</i> with count -4.
func (f *Formatter) Unwrap(mark doc.NodeID) (doc.Result, error) {
	res, _, err := f.unwrap(mark)
	return res, err
}

// edge remembers one side of promoted content as it was before
// normalization, so anchor can be resolved afterwards.
type edge struct {
	node   doc.NodeID
	isText bool
	inner  doc.Anchor
}

func (f *Formatter) edgeOf(id doc.NodeID, side doc.Side) edge {
	return edge{
		node:   id,
		isText: f.tree.IsText(id),
		inner:  f.ed.BoundaryAnchor(id, side, doc.Inside),
	}
}

// resolve returns anchor at the side of the edge node in the normalized tree.
func (f *Formatter) resolve(e edge, side doc.Side, rel *doc.Relocations) doc.Anchor {
	if !e.isText && f.tree.Live(e.node) {
		return f.ed.BoundaryAnchor(e.node, side, doc.Outside)
	}
	// text runs and joined elements may have been merged into a neighbor,
	// follow the content
	a := rel.Resolve(e.inner)
	if !f.tree.ValidAnchor(a) {
		// element joined into a neighbor whose children merged afterwards
		a.Offset = min(a.Offset, f.tree.Len(a.Node))
	}
	return a
}

func (f *Formatter) unwrap(mark doc.NodeID) (doc.Result, *doc.Relocations, error) {
	t := f.tree
	if !t.IsElement(mark) {
		return doc.Result{}, nil, fmt.Errorf("%w: node %s is not an element", ErrInvalidAnchor, mark)
	}
	if mark == t.Root() || !t.Attached(mark) {
		return doc.Result{}, nil, fmt.Errorf("%w: node %s", ErrDetachedNode, mark)
	}

	var (
		tag    = t.Tag(mark)
		count  = -f.units(mark)
		parent = t.Parent(mark)
		at     = t.Index(mark)
		left   = f.ed.NeighborSibling(mark, doc.Left)
		right  = f.ed.NeighborSibling(mark, doc.Right)
		kids   = t.Children(mark)
	)

	// Mutate: promote children after the mark, last first so order is kept,
	// and drop the mark.
	promoted := make([]doc.NodeID, 0, len(kids))
	for i := len(kids) - 1; i >= 0; i-- {
		promoted = append(promoted, f.ed.InsertAfter(kids[i], mark, false))
	}
	slices.Reverse(promoted)
	t.Release(mark)

	var first, last edge
	if len(promoted) > 0 {
		first, last = f.edgeOf(promoted[0], doc.Left), f.edgeOf(promoted[len(promoted)-1], doc.Right)
	} else if t.IsText(left) {
		first = f.edgeOf(left, doc.Right)
	}

	// Normalize: rejoin mark halves at both seams, then merge text runs.
	rel := &doc.Relocations{}
	if len(promoted) > 0 {
		count += f.joinSeam(left, promoted[0], rel)
		tail := promoted[len(promoted)-1]
		if !t.Live(tail) {
			// the only promoted node went into the left neighbor
			tail = left
		}
		count += f.joinSeam(tail, right, rel)
	} else {
		count += f.joinSeam(left, right, rel)
	}
	candidates := make([]doc.NodeID, 0, len(promoted)+2)
	candidates = append(candidates, left)
	candidates = append(candidates, promoted...)
	candidates = append(candidates, right)
	survivors, merged := f.MergeAdjacentText(candidates)
	rel.Merge(merged)

	// Resolve: anchors are computed only now, against the final tree.
	var res doc.Result
	switch {
	case len(promoted) > 0:
		res.Start = f.resolve(first, doc.Left, rel)
		res.End = f.resolve(last, doc.Right, rel)
	case first.isText:
		// empty mark after a text run, collapse at the end of that run
		res.Start = rel.Resolve(first.inner)
		res.End = res.Start
	default:
		res.Start = doc.Anchor{Node: parent, Offset: min(at, t.ChildCount(parent))}
		res.End = res.Start
	}
	res.Count = count

	f.log.Debug("Mark removed",
		zap.String("tag", tag),
		zap.Stringer("node", mark),
		zap.Int("promoted", len(promoted)),
		zap.Int("survivors", len(survivors)),
		zap.Int("merged", rel.Len()),
		zap.Int("count", res.Count))
	return res, rel, nil
}
