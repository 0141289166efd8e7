package doc

import (
	"markfmt/utils/debug"
)

type treeWriter struct {
	*debug.TreeWriter
}

// String returns a readable dump of the tree with node handles, it exists
// solely for manual inspection during debugging.
func (t *Tree) String() string {
	if t == nil {
		return "<nil Tree>"
	}
	tw := treeWriter{debug.NewTreeWriter()}
	tw.Line(0, "Tree id=%s nodes=%d", t.id, len(t.nodes)-1)
	tw.node(t, 1, t.root)
	return tw.String()
}

// Dump returns readable dump of a subtree.
func (t *Tree) Dump(id NodeID) string {
	tw := treeWriter{debug.NewTreeWriter()}
	tw.node(t, 0, id)
	return tw.String()
}

func (tw treeWriter) node(t *Tree, depth int, id NodeID) {
	switch t.Kind(id) {
	case KindText:
		tw.TextBlock(depth, "Text["+id.String()+"]", t.Text(id))
	case KindElement:
		if t.Ignorable(id) {
			tw.Line(depth, "Element[%s] <%s> ignorable", id, t.Tag(id))
		} else {
			tw.Line(depth, "Element[%s] <%s>", id, t.Tag(id))
		}
		for _, a := range t.Attrs(id) {
			tw.Line(depth+1, "@%s=%q", a.Name, a.Value)
		}
		for _, kid := range t.Children(id) {
			tw.node(t, depth+1, kid)
		}
	default:
		tw.Line(depth, "Released[%s]", id)
	}
}
