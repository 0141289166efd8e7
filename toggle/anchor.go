package toggle

import (
	"fmt"
	"strconv"
	"strings"

	"markfmt/doc"
)

// Anchors are written on command line as "PATH:OFFSET". PATH is a dot
// separated list of child indexes leading from the root to the container,
// empty path is the root itself. "0.2:5" is offset 5 in the third child of
// the first child of the root.

func parseAnchor(t *doc.Tree, s string) (doc.Anchor, error) {
	path, off, ok := strings.Cut(s, ":")
	if !ok {
		return doc.Anchor{}, fmt.Errorf("anchor %q: expected PATH:OFFSET", s)
	}
	offset, err := strconv.Atoi(off)
	if err != nil {
		return doc.Anchor{}, fmt.Errorf("anchor %q: bad offset: %w", s, err)
	}

	node := t.Root()
	if path != "" {
		for step := range strings.SplitSeq(path, ".") {
			i, err := strconv.Atoi(step)
			if err != nil {
				return doc.Anchor{}, fmt.Errorf("anchor %q: bad path: %w", s, err)
			}
			next := t.ChildAt(node, i)
			if next == doc.NoNode {
				return doc.Anchor{}, fmt.Errorf("anchor %q: node %s has no child %d", s, node, i)
			}
			node = next
		}
	}

	a := doc.Anchor{Node: node, Offset: offset}
	if !t.ValidAnchor(a) {
		return doc.Anchor{}, fmt.Errorf("anchor %q: offset out of range 0..%d", s, t.Len(node))
	}
	return a, nil
}

func formatAnchor(t *doc.Tree, a doc.Anchor) string {
	var steps []string
	for cur := a.Node; cur != t.Root() && t.Parent(cur) != doc.NoNode; cur = t.Parent(cur) {
		steps = append(steps, strconv.Itoa(t.Index(cur)))
	}
	var b strings.Builder
	for i := len(steps) - 1; i >= 0; i-- {
		b.WriteString(steps[i])
		if i > 0 {
			b.WriteByte('.')
		}
	}
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(a.Offset))
	return b.String()
}
