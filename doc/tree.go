// Package doc defines the mutable rich text tree inline formatting operates
// on. Nodes live in an arena owned by the Tree and are addressed by stable
// NodeID handles, so positions can be expressed as (handle, offset) pairs
// without holding pointers into the structure.
//
// A Tree is not safe for concurrent use.
package doc

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// NodeID is a stable handle of a node inside its Tree.
type NodeID uint32

// NoNode is the zero handle, it never refers to a node.
const NoNode NodeID = 0

// Kind distinguishes the variants of a tree node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindText
	KindElement
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindElement:
		return "element"
	default:
		return "invalid"
	}
}

// Attr is an element attribute, Name keeps namespace prefix if any.
type Attr struct {
	Name  string
	Value string
}

type node struct {
	kind      Kind
	tag       string
	attrs     []Attr
	text      []rune
	ignorable bool
	released  bool
	parent    NodeID
	children  []NodeID
}

// Tree is an ordered rooted tree of text runs and elements.
type Tree struct {
	id    uuid.UUID
	nodes []node
	root  NodeID

	// document level tokens around the root element, kept for Document
	prolog []etree.Token
	epilog []etree.Token
}

// NewTree creates a tree with a single root element.
func NewTree(rootTag string) *Tree {
	t := &Tree{
		id:    uuid.New(),
		nodes: make([]node, 1, 32), // slot 0 is NoNode
	}
	t.root = t.alloc(node{kind: KindElement, tag: rootTag})
	return t
}

// ID returns identity of the tree, useful to tell trees apart in logs.
func (t *Tree) ID() uuid.UUID {
	return t.id
}

// Root returns root element of the tree.
func (t *Tree) Root() NodeID {
	return t.root
}

func (t *Tree) alloc(n node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// get returns node for the handle or nil when handle is unknown or released.
func (t *Tree) get(id NodeID) *node {
	if id == NoNode || int(id) >= len(t.nodes) {
		return nil
	}
	n := &t.nodes[id]
	if n.released {
		return nil
	}
	return n
}

func (t *Tree) mustGet(id NodeID) *node {
	n := t.get(id)
	if n == nil {
		panic(fmt.Sprintf("doc: unknown or released node %d", id))
	}
	return n
}

// Live reports whether handle refers to a node which has not been released.
func (t *Tree) Live(id NodeID) bool {
	return t.get(id) != nil
}

// NewText creates detached text run.
func (t *Tree) NewText(s string) NodeID {
	return t.alloc(node{kind: KindText, text: []rune(s)})
}

// NewElement creates detached element without children.
func (t *Tree) NewElement(tag string) NodeID {
	return t.alloc(node{kind: KindElement, tag: tag})
}

// Kind returns variant of the node, KindInvalid for unknown handles.
func (t *Tree) Kind(id NodeID) Kind {
	if n := t.get(id); n != nil {
		return n.kind
	}
	return KindInvalid
}

func (t *Tree) IsText(id NodeID) bool {
	return t.Kind(id) == KindText
}

func (t *Tree) IsElement(id NodeID) bool {
	return t.Kind(id) == KindElement
}

// Tag returns element tag, empty for text runs.
func (t *Tree) Tag(id NodeID) string {
	if n := t.get(id); n != nil {
		return n.tag
	}
	return ""
}

// Attrs returns a copy of element attributes in document order.
func (t *Tree) Attrs(id NodeID) []Attr {
	if n := t.get(id); n != nil && len(n.attrs) > 0 {
		return slices.Clone(n.attrs)
	}
	return nil
}

// SetAttr replaces value of the attribute or adds a new one after the
// existing attributes.
func (t *Tree) SetAttr(id NodeID, name, value string) {
	n := t.mustGet(id)
	if n.kind != KindElement {
		panic(fmt.Sprintf("doc: node %d is not an element", id))
	}
	if i := slices.IndexFunc(n.attrs, func(a Attr) bool { return a.Name == name }); i >= 0 {
		n.attrs[i].Value = value
		return
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
}

// SameAttrs reports whether both elements carry equal attributes in the same
// order.
func (t *Tree) SameAttrs(a, b NodeID) bool {
	na, nb := t.get(a), t.get(b)
	if na == nil || nb == nil {
		return false
	}
	return slices.Equal(na.attrs, nb.attrs)
}

// Ignorable reports whether element is structurally present but
// semantically inert (labels and similar wrappers).
func (t *Tree) Ignorable(id NodeID) bool {
	if n := t.get(id); n != nil {
		return n.kind == KindElement && n.ignorable
	}
	return false
}

func (t *Tree) SetIgnorable(id NodeID, ignorable bool) {
	n := t.mustGet(id)
	if n.kind != KindElement {
		panic(fmt.Sprintf("doc: node %d is not an element", id))
	}
	n.ignorable = ignorable
}

// Text returns content of the text run.
func (t *Tree) Text(id NodeID) string {
	if n := t.get(id); n != nil {
		return string(n.text)
	}
	return ""
}

func (t *Tree) SetText(id NodeID, s string) {
	n := t.mustGet(id)
	if n.kind != KindText {
		panic(fmt.Sprintf("doc: node %d is not a text run", id))
	}
	n.text = []rune(s)
}

// AppendText adds s to the end of the text run.
func (t *Tree) AppendText(id NodeID, s string) {
	n := t.mustGet(id)
	if n.kind != KindText {
		panic(fmt.Sprintf("doc: node %d is not a text run", id))
	}
	n.text = append(n.text, []rune(s)...)
}

// Len returns number of characters for text runs and number of children for
// elements. Valid anchor offsets into the node are 0..Len.
func (t *Tree) Len(id NodeID) int {
	n := t.get(id)
	if n == nil {
		return 0
	}
	if n.kind == KindText {
		return len(n.text)
	}
	return len(n.children)
}

func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.get(id); n != nil {
		return n.parent
	}
	return NoNode
}

// Children returns a copy of element's child list.
func (t *Tree) Children(id NodeID) []NodeID {
	n := t.get(id)
	if n == nil || len(n.children) == 0 {
		return nil
	}
	return append([]NodeID(nil), n.children...)
}

func (t *Tree) ChildCount(id NodeID) int {
	if n := t.get(id); n != nil {
		return len(n.children)
	}
	return 0
}

// ChildAt returns i-th child or NoNode when i is out of range.
func (t *Tree) ChildAt(id NodeID, i int) NodeID {
	n := t.get(id)
	if n == nil || i < 0 || i >= len(n.children) {
		return NoNode
	}
	return n.children[i]
}

func (t *Tree) FirstChild(id NodeID) NodeID {
	return t.ChildAt(id, 0)
}

func (t *Tree) LastChild(id NodeID) NodeID {
	return t.ChildAt(id, t.ChildCount(id)-1)
}

// Index returns position of the node among its siblings or -1 if detached.
func (t *Tree) Index(id NodeID) int {
	p := t.get(t.Parent(id))
	if p == nil {
		return -1
	}
	for i, c := range p.children {
		if c == id {
			return i
		}
	}
	// this should never happen
	panic(fmt.Sprintf("doc: node %d is not among children of its parent", id))
}

func (t *Tree) PrevSibling(id NodeID) NodeID {
	i := t.Index(id)
	if i <= 0 {
		return NoNode
	}
	return t.ChildAt(t.Parent(id), i-1)
}

func (t *Tree) NextSibling(id NodeID) NodeID {
	i := t.Index(id)
	if i < 0 {
		return NoNode
	}
	return t.ChildAt(t.Parent(id), i+1)
}

// Attached reports whether node is reachable from the root.
func (t *Tree) Attached(id NodeID) bool {
	for cur := id; t.Live(cur); cur = t.Parent(cur) {
		if cur == t.root {
			return true
		}
	}
	return false
}

// Depth returns number of ancestors of the node.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for cur := t.Parent(id); cur != NoNode; cur = t.Parent(cur) {
		d++
	}
	return d
}

// Contains reports whether anc is id or one of its ancestors.
func (t *Tree) Contains(anc, id NodeID) bool {
	for cur := id; cur != NoNode; cur = t.Parent(cur) {
		if cur == anc {
			return true
		}
	}
	return false
}

// CommonAncestor returns the deepest node containing both a and b (either
// may be the result itself) or NoNode if they belong to different subtrees.
func (t *Tree) CommonAncestor(a, b NodeID) NodeID {
	da, db := t.Depth(a), t.Depth(b)
	for ; da > db; da-- {
		a = t.Parent(a)
	}
	for ; db > da; db-- {
		b = t.Parent(b)
	}
	for a != b {
		a, b = t.Parent(a), t.Parent(b)
	}
	return a
}

// FirstDescendant returns the first node under id, in document order and
// excluding id itself, for which match returns true. The walk is iterative so
// pathological nesting cannot exhaust the stack.
func (t *Tree) FirstDescendant(id NodeID, match func(NodeID) bool) NodeID {
	stack := make([]NodeID, 0, 16)
	kids := t.mustGet(id).children
	for i := len(kids) - 1; i >= 0; i-- {
		stack = append(stack, kids[i])
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if match(cur) {
			return cur
		}
		kids := t.nodes[cur].children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return NoNode
}

// TextContent concatenates all text runs under the node.
func (t *Tree) TextContent(id NodeID) string {
	var buf strings.Builder
	t.walk(id, func(cur NodeID) {
		if n := &t.nodes[cur]; n.kind == KindText {
			buf.WriteString(string(n.text))
		}
	})
	return buf.String()
}

// walk visits id and its subtree in document order.
func (t *Tree) walk(id NodeID, visit func(NodeID)) {
	if t.get(id) == nil {
		return
	}
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(cur)
		kids := t.nodes[cur].children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

func (id NodeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
