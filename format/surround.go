package format

import (
	"fmt"

	"go.uber.org/zap"

	"markfmt/doc"
)

// boundary is a position between siblings: right before ref among children
// of parent, or after the last child when ref is doc.NoNode.
type boundary struct {
	parent doc.NodeID
	ref    doc.NodeID
}

// index returns child position of the boundary inside its parent.
func (f *Formatter) index(b boundary) int {
	if b.ref == doc.NoNode {
		return f.tree.ChildCount(b.parent)
	}
	return f.tree.Index(b.ref)
}

// boundaryOf turns anchor into a position between siblings, splitting text
// run when anchor points inside of it.
func (f *Formatter) boundaryOf(a doc.Anchor) boundary {
	t := f.tree
	if !t.IsText(a.Node) {
		return boundary{parent: a.Node, ref: t.ChildAt(a.Node, a.Offset)}
	}
	parent := t.Parent(a.Node)
	switch {
	case a.Offset == 0:
		return boundary{parent: parent, ref: a.Node}
	case a.Offset >= t.Len(a.Node):
		return boundary{parent: parent, ref: f.ed.NeighborSibling(a.Node, doc.Right)}
	}
	return boundary{parent: parent, ref: t.SplitText(a.Node, a.Offset)}
}

// lift moves boundary up until its parent is top. Elements partially covered
// by the range are split in two, so the covered part becomes a sibling
// under top. Returns count of added structure.
func (f *Formatter) lift(b boundary, top doc.NodeID, side doc.Side) (boundary, int) {
	t := f.tree
	count := 0
	for b.parent != top {
		p := b.parent
		gp := t.Parent(p)
		switch {
		case b.ref == t.FirstChild(p) && (side == doc.Right || b.ref != doc.NoNode):
			// nothing of p precedes the boundary
			b = boundary{parent: gp, ref: p}
		case b.ref == doc.NoNode:
			// nothing of p follows the boundary
			b = boundary{parent: gp, ref: f.ed.NeighborSibling(p, doc.Right)}
		default:
			tail := t.CloneShallow(p)
			t.InsertAfter(tail, p)
			for cur := b.ref; cur != doc.NoNode; {
				next := f.ed.NeighborSibling(cur, doc.Right)
				t.AppendChild(tail, cur)
				cur = next
			}
			count += f.units(p)
			b = boundary{parent: gp, ref: tail}
		}
	}
	return b, count
}

// surround wraps content between start and end into a new mark element and
// flattens marks of the same kind found inside of it. Returned anchors are
// the inner edges of the new mark.
func (f *Formatter) surround(tag string, start, end doc.Anchor) (doc.Result, error) {
	t := f.tree

	// Validate everything before the first mutation.
	for _, a := range []doc.Anchor{start, end} {
		if !t.ValidAnchor(a) {
			return doc.Result{}, fmt.Errorf("%w: %s", ErrInvalidAnchor, a)
		}
	}
	if t.Compare(start, end) > 0 {
		start, end = end, start
	}

	// End goes first: splitting text run at the start cannot move a
	// boundary which is expressed by reference to its right neighbor.
	endB := f.boundaryOf(end)
	startB := f.boundaryOf(start)

	top := t.CommonAncestor(startB.parent, endB.parent)
	endB, endSplits := f.lift(endB, top, doc.Right)
	startB, startSplits := f.lift(startB, top, doc.Left)

	kids := t.Children(top)
	from, to := f.index(startB), f.index(endB)
	to = max(to, from)

	mark := t.NewElement(tag)
	if from < len(kids) {
		f.ed.InsertBefore(mark, kids[from])
	} else {
		t.AppendChild(top, mark)
	}
	for _, kid := range kids[from:to] {
		t.AppendChild(mark, kid)
	}

	flattened, err := f.FlattenNested(mark, tag)
	if err != nil {
		return doc.Result{}, err
	}

	res := doc.Result{
		Start: f.ed.BoundaryAnchor(mark, doc.Left, doc.Inside),
		End:   f.ed.BoundaryAnchor(mark, doc.Right, doc.Inside),
		Count: f.units(mark) + startSplits + endSplits + flattened,
	}

	f.log.Debug("Mark created",
		zap.String("tag", tag),
		zap.Stringer("node", mark),
		zap.Int("covered", to-from),
		zap.Int("split_units", startSplits+endSplits),
		zap.Int("count", res.Count))
	return res, nil
}
