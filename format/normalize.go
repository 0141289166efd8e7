package format

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"markfmt/doc"
)

// MergeAdjacentText restores "no adjacent text runs" around nodes touched
// by a structural change. Every attached text run among candidates is merged
// with the text runs surrounding it: content moves into the earliest run of
// the sequence, later runs are released. Returned are the candidates which
// are still attached and relocations describing where merged content went.
func (f *Formatter) MergeAdjacentText(candidates []doc.NodeID) ([]doc.NodeID, *doc.Relocations) {
	t := f.tree
	rel := &doc.Relocations{}

	for _, id := range candidates {
		if !t.IsText(id) || !t.Attached(id) {
			continue
		}
		head := id
		for prev := f.ed.NeighborSibling(head, doc.Left); t.IsText(prev); prev = f.ed.NeighborSibling(head, doc.Left) {
			head = prev
		}
		for next := f.ed.NeighborSibling(head, doc.Right); t.IsText(next); next = f.ed.NeighborSibling(head, doc.Right) {
			rel.Record(next, head, t.Len(head))
			t.AppendText(head, t.Text(next))
			t.Release(next)
		}
	}

	return slices.DeleteFunc(slices.Clone(candidates), func(id doc.NodeID) bool {
		return !t.Attached(id)
	}), rel
}

// FlattenNested unwraps every element with tag found under mark, so mark
// does not contain marks of its own kind. Returns accumulated count, which is
// never positive.
func (f *Formatter) FlattenNested(mark doc.NodeID, tag string) (int, error) {
	t := f.tree
	if !t.IsElement(mark) {
		return 0, fmt.Errorf("%w: node %s is not an element", ErrInvalidAnchor, mark)
	}

	count := 0
	isTag := func(id doc.NodeID) bool {
		return t.IsElement(id) && t.Tag(id) == tag
	}
	// every pass removes one element, so this terminates
	for nested := t.FirstDescendant(mark, isTag); nested != doc.NoNode; nested = t.FirstDescendant(mark, isTag) {
		res, _, err := f.unwrap(nested)
		if err != nil {
			return count, fmt.Errorf("unable to flatten <%s>: %w", tag, err)
		}
		count += res.Count
	}
	if count != 0 {
		f.log.Debug("Nested marks flattened", zap.String("tag", tag), zap.Stringer("mark", mark), zap.Int("count", count))
	}
	return count, nil
}

// joinable reports whether two siblings are halves of the same mark, which
// happens when a mark was split to surround part of its content. Marks which
// were merely adjacent look the same and are joined as well.
func (f *Formatter) joinable(a, b doc.NodeID) bool {
	t := f.tree
	return t.IsElement(a) && t.IsElement(b) &&
		t.Tag(a) == t.Tag(b) && f.Supported(t.Tag(a)) &&
		t.Ignorable(a) == t.Ignorable(b) && t.SameAttrs(a, b) &&
		f.ed.NeighborSibling(a, doc.Right) == b
}

// joinSeam merges b into a while they are halves of the same mark, then
// descends into the new seam between their former edge children. Returns
// count of removed structure.
func (f *Formatter) joinSeam(a, b doc.NodeID, rel *doc.Relocations) int {
	t := f.tree
	count := 0
	for f.joinable(a, b) {
		aLast, bFirst := t.LastChild(a), t.FirstChild(b)
		rel.Record(b, a, t.ChildCount(a))
		for _, kid := range t.Children(b) {
			t.AppendChild(a, kid)
		}
		count -= f.units(b)
		t.Release(b)
		a, b = aLast, bFirst
	}
	if t.IsText(a) && t.IsText(b) {
		_, merged := f.MergeAdjacentText([]doc.NodeID{a, b})
		rel.Merge(merged)
	}
	return count
}
