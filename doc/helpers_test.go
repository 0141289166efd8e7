package doc

import "testing"

func mustParse(t *testing.T, s string, opts ...ParseOption) *Tree {
	t.Helper()

	tree, err := ParseFragment(s, opts...)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tree
}

// findText returns the first text run with exact content.
func findText(t *testing.T, tree *Tree, s string) NodeID {
	t.Helper()

	id := tree.FirstDescendant(tree.Root(), func(id NodeID) bool {
		return tree.IsText(id) && tree.Text(id) == s
	})
	if id == NoNode {
		t.Fatalf("no text run %q in %s", s, tree.InnerMarkup(tree.Root()))
	}
	return id
}

// findTag returns the first element with tag.
func findTag(t *testing.T, tree *Tree, tag string) NodeID {
	t.Helper()

	id := tree.FirstDescendant(tree.Root(), func(id NodeID) bool {
		return tree.IsElement(id) && tree.Tag(id) == tag
	})
	if id == NoNode {
		t.Fatalf("no element <%s> in %s", tag, tree.InnerMarkup(tree.Root()))
	}
	return id
}
