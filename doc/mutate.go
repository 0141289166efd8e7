package doc

import (
	"fmt"
	"slices"
)

// Structural mutations. Misuse (unknown handles, inserting a node into its
// own subtree, inserting into a text run) is a programming error and panics,
// callers are expected to validate their input before mutating.

// InsertAt places n at position i among children of parent. If n is
// currently attached somewhere it is moved.
func (t *Tree) InsertAt(parent NodeID, i int, n NodeID) {
	p := t.mustGet(parent)
	if p.kind != KindElement {
		panic(fmt.Sprintf("doc: cannot insert into text run %d", parent))
	}
	t.mustGet(n)
	if n == t.root || t.Contains(n, parent) {
		panic(fmt.Sprintf("doc: cannot insert node %d into its own subtree", n))
	}
	if t.Parent(n) != NoNode {
		if t.Parent(n) == parent && t.Index(n) < i {
			i--
		}
		t.Detach(n)
	}
	p = t.mustGet(parent)
	if i < 0 || i > len(p.children) {
		panic(fmt.Sprintf("doc: child position %d out of range for node %d", i, parent))
	}
	p.children = slices.Insert(p.children, i, n)
	t.mustGet(n).parent = parent
}

// AppendChild places n after the last child of parent.
func (t *Tree) AppendChild(parent, n NodeID) {
	if t.Parent(n) == parent {
		t.Detach(n)
	}
	t.InsertAt(parent, t.ChildCount(parent), n)
}

// InsertBefore places n immediately before ref.
func (t *Tree) InsertBefore(n, ref NodeID) {
	if n == ref {
		return
	}
	parent := t.Parent(ref)
	if parent == NoNode {
		panic(fmt.Sprintf("doc: reference node %d is detached", ref))
	}
	if t.Parent(n) != NoNode {
		t.Detach(n)
	}
	t.InsertAt(parent, t.Index(ref), n)
}

// InsertAfter places n immediately after ref.
func (t *Tree) InsertAfter(n, ref NodeID) {
	if n == ref {
		return
	}
	parent := t.Parent(ref)
	if parent == NoNode {
		panic(fmt.Sprintf("doc: reference node %d is detached", ref))
	}
	if t.Parent(n) != NoNode {
		t.Detach(n)
	}
	t.InsertAt(parent, t.Index(ref)+1, n)
}

// Detach removes node from its parent, node and its subtree stay usable.
func (t *Tree) Detach(id NodeID) {
	n := t.mustGet(id)
	if n.parent == NoNode {
		return
	}
	p := t.mustGet(n.parent)
	p.children = slices.Delete(p.children, t.Index(id), t.Index(id)+1)
	n.parent = NoNode
}

// Release detaches node and destroys it together with its subtree. Any
// handle or anchor referring to released nodes becomes invalid.
func (t *Tree) Release(id NodeID) {
	if id == t.root {
		panic("doc: root cannot be released")
	}
	t.Detach(id)
	var subtree []NodeID
	t.walk(id, func(cur NodeID) { subtree = append(subtree, cur) })
	for _, cur := range subtree {
		n := &t.nodes[cur]
		n.released, n.children, n.text, n.attrs, n.parent = true, nil, nil, nil, NoNode
	}
}

// SplitText cuts text run at offset, the tail becomes a new text run placed
// right after the original one (when attached) and is returned.
func (t *Tree) SplitText(id NodeID, offset int) NodeID {
	n := t.mustGet(id)
	if n.kind != KindText {
		panic(fmt.Sprintf("doc: node %d is not a text run", id))
	}
	if offset < 0 || offset > len(n.text) {
		panic(fmt.Sprintf("doc: split offset %d out of range for node %d", offset, id))
	}
	tail := string(n.text[offset:])
	n.text = n.text[:offset:offset]
	nid := t.NewText(tail)
	if t.Parent(id) != NoNode {
		t.InsertAfter(nid, id)
	}
	return nid
}

// CloneShallow copies node without its children, the copy is detached.
func (t *Tree) CloneShallow(id NodeID) NodeID {
	n := t.mustGet(id)
	return t.alloc(node{
		kind:      n.kind,
		tag:       n.tag,
		attrs:     slices.Clone(n.attrs),
		text:      slices.Clone(n.text),
		ignorable: n.ignorable,
	})
}

// CloneDeep copies node together with its subtree, the copy is detached.
func (t *Tree) CloneDeep(id NodeID) NodeID {
	c := t.CloneShallow(id)
	for _, kid := range t.Children(id) {
		t.AppendChild(c, t.CloneDeep(kid))
	}
	return c
}
