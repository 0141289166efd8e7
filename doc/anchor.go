package doc

import "fmt"

// Side selects direction of a boundary query.
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Relation selects whether boundary is taken inside the node or in its
// parent, just outside of it.
type Relation uint8

const (
	Inside Relation = iota
	Outside
)

func (r Relation) String() string {
	if r == Inside {
		return "inside"
	}
	return "outside"
}

// Anchor is a position in the tree. For text runs Offset is a character
// index, for elements it is a child index where Offset == child count means
// "after the last child".
type Anchor struct {
	Node   NodeID
	Offset int
}

func (a Anchor) String() string {
	return fmt.Sprintf("%d:%d", a.Node, a.Offset)
}

// Range is an ordered pair of anchors.
type Range struct {
	Start Anchor
	End   Anchor
}

func (r Range) Collapsed() bool {
	return r.Start == r.End
}

// Result describes outcome of a formatting operation: anchors suitable to
// restore selection and signed change of structural units (two per
// non-ignorable element, open and close).
type Result struct {
	Start Anchor
	End   Anchor
	Count int
}

// Range returns result anchors as a selection.
func (r Result) Range() Range {
	return Range{Start: r.Start, End: r.End}
}

// ValidAnchor reports whether anchor points into a live attached node with
// an offset in range.
func (t *Tree) ValidAnchor(a Anchor) bool {
	if !t.Attached(a.Node) {
		return false
	}
	return a.Offset >= 0 && a.Offset <= t.Len(a.Node)
}

// Compare orders two valid anchors in document order returning -1, 0 or 1.
func (t *Tree) Compare(a, b Anchor) int {
	if a.Node == b.Node {
		return sign(a.Offset - b.Offset)
	}
	if t.Contains(a.Node, b.Node) {
		if a.Offset <= t.Index(t.childToward(a.Node, b.Node)) {
			return -1
		}
		return 1
	}
	if t.Contains(b.Node, a.Node) {
		if b.Offset <= t.Index(t.childToward(b.Node, a.Node)) {
			return 1
		}
		return -1
	}
	lca := t.CommonAncestor(a.Node, b.Node)
	return sign(t.Index(t.childToward(lca, a.Node)) - t.Index(t.childToward(lca, b.Node)))
}

// childToward returns the child of anc which contains id.
func (t *Tree) childToward(anc, id NodeID) NodeID {
	for cur := id; cur != NoNode; cur = t.Parent(cur) {
		if t.Parent(cur) == anc {
			return cur
		}
	}
	// this should never happen
	panic(fmt.Sprintf("doc: node %d is not under %d", id, anc))
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

type relocation struct {
	into  NodeID
	shift int
}

// Relocations remembers where content of merged nodes went, so anchors taken
// before a merge can be resolved after it. Zero value is ready to use,
// nil receiver resolves anchors unchanged.
type Relocations struct {
	moved map[NodeID]relocation
}

// Record notes that content of from (characters of a text run or children of
// an element) from now lives in into, starting at offset shift.
func (r *Relocations) Record(from, into NodeID, shift int) {
	if r.moved == nil {
		r.moved = make(map[NodeID]relocation)
	}
	r.moved[from] = relocation{into: into, shift: shift}
}

// Merge adds records of other to r.
func (r *Relocations) Merge(other *Relocations) {
	if other == nil {
		return
	}
	for from, rel := range other.moved {
		r.Record(from, rel.into, rel.shift)
	}
}

// Len returns number of recorded merges.
func (r *Relocations) Len() int {
	if r == nil {
		return 0
	}
	return len(r.moved)
}

// Resolve follows recorded merges for the anchor.
func (r *Relocations) Resolve(a Anchor) Anchor {
	if r == nil {
		return a
	}
	for range len(r.moved) + 1 {
		rel, ok := r.moved[a.Node]
		if !ok {
			break
		}
		a = Anchor{Node: rel.into, Offset: a.Offset + rel.shift}
	}
	return a
}
