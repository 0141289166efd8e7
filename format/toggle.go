package format

import (
	"fmt"

	"go.uber.org/zap"

	"markfmt/doc"
)

// Toggle applies or removes mark tag over the selection. When sel is nil
// current selection of the editor is used.
//
// Collapsed selection inside a mark removes that mark, otherwise the word
// under the cursor gets marked. Range selection inside a single mark removes
// it, range with only one end inside a mark removes that mark and keeps the
// other end, range touching no mark gets surrounded by a new mark. Range with
// ends inside two different marks of the same kind is rejected.
func (f *Formatter) Toggle(tag string, sel *doc.Range) (doc.Result, error) {
	if !f.Supported(tag) {
		return doc.Result{}, fmt.Errorf("%w: %q", ErrUnsupportedMark, tag)
	}

	var (
		r   doc.Range
		err error
	)
	if sel != nil {
		r = *sel
	} else if r, err = f.ed.Selection(); err != nil {
		return doc.Result{}, fmt.Errorf("unable to get selection: %w", err)
	}

	t := f.tree
	for _, a := range []doc.Anchor{r.Start, r.End} {
		if !t.ValidAnchor(a) {
			return doc.Result{}, fmt.Errorf("%w: %s", ErrInvalidAnchor, a)
		}
	}
	if t.Compare(r.Start, r.End) > 0 {
		r.Start, r.End = r.End, r.Start
	}

	log := f.log.With(zap.String("tag", tag), zap.Stringer("start", r.Start), zap.Stringer("end", r.End))

	startMark := f.enclosingMark(r.Start.Node, tag)
	if r.Collapsed() {
		if startMark != doc.NoNode {
			log.Debug("Cursor inside mark, removing it", zap.Stringer("mark", startMark))
			return f.Unwrap(startMark)
		}
		left := f.ed.WordBoundaryAnchor(r.Start, doc.Left)
		right := f.ed.WordBoundaryAnchor(r.Start, doc.Right)
		log.Debug("Cursor outside of mark, marking word", zap.Stringer("left", left), zap.Stringer("right", right))
		return f.surround(tag, left, right)
	}

	endMark := f.enclosingMark(r.End.Node, tag)
	switch {
	case startMark != doc.NoNode && endMark != doc.NoNode:
		if startMark != endMark {
			return doc.Result{}, fmt.Errorf("%w: <%s> nodes %s and %s", ErrAmbiguousOverlap, tag, startMark, endMark)
		}
		log.Debug("Selection inside mark, removing it", zap.Stringer("mark", startMark))
		return f.Unwrap(startMark)

	case startMark != doc.NoNode:
		log.Debug("Selection starts inside mark, removing it", zap.Stringer("mark", startMark))
		endWasText := t.IsText(r.End.Node)
		res, rel, err := f.unwrap(startMark)
		if err != nil {
			return doc.Result{}, err
		}
		res.End = f.settle(r.End, endWasText, doc.Right, rel)
		return res, nil

	case endMark != doc.NoNode:
		log.Debug("Selection ends inside mark, removing it", zap.Stringer("mark", endMark))
		startWasText := t.IsText(r.Start.Node)
		res, rel, err := f.unwrap(endMark)
		if err != nil {
			return doc.Result{}, err
		}
		res.Start = f.settle(r.Start, startWasText, doc.Left, rel)
		return res, nil
	}

	log.Debug("Selection outside of marks, surrounding it")
	return f.surround(tag, r.Start, r.End)
}

// enclosingMark returns the nearest element with tag containing node,
// stopping below the root.
func (f *Formatter) enclosingMark(id doc.NodeID, tag string) doc.NodeID {
	t := f.tree
	for cur := id; cur != doc.NoNode && cur != t.Root(); cur = t.Parent(cur) {
		if t.IsElement(cur) && t.Tag(cur) == tag {
			return cur
		}
	}
	return doc.NoNode
}

// settle recomputes selection end which lies outside of a removed mark. Text
// run anchors are kept (following the run if it was merged into a
// neighbor), element anchors may be stale after the removal and are snapped
// to the outer edge of their container.
func (f *Formatter) settle(a doc.Anchor, wasText bool, side doc.Side, rel *doc.Relocations) doc.Anchor {
	t := f.tree
	a = rel.Resolve(a)
	if wasText {
		return a
	}
	if a.Node == t.Root() {
		if side == doc.Right {
			return doc.Anchor{Node: a.Node, Offset: t.ChildCount(a.Node)}
		}
		return doc.Anchor{Node: a.Node}
	}
	return f.ed.BoundaryAnchor(a.Node, side, doc.Outside)
}
