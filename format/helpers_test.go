package format

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"markfmt/doc"
	"markfmt/editor"
)

type fixture struct {
	tree *doc.Tree
	ed   *editor.RangeEditor
	f    *Formatter
}

func newFixture(t *testing.T, markup string, ignore ...string) *fixture {
	t.Helper()

	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	tree, err := doc.ParseFragment(markup, doc.WithIgnorable(ignore...))
	if err != nil {
		t.Fatalf("parse %q: %v", markup, err)
	}
	ed := editor.New(tree, log.Named("editor"))
	return &fixture{tree: tree, ed: ed, f: New(ed, log.Named("format"))}
}

func (fx *fixture) markup() string {
	return fx.tree.InnerMarkup(fx.tree.Root())
}

// text returns the first text run with exact content.
func (fx *fixture) text(t *testing.T, s string) doc.NodeID {
	t.Helper()

	id := fx.tree.FirstDescendant(fx.tree.Root(), func(id doc.NodeID) bool {
		return fx.tree.IsText(id) && fx.tree.Text(id) == s
	})
	if id == doc.NoNode {
		t.Fatalf("no text run %q in %s", s, fx.markup())
	}
	return id
}

// elem returns the first element with tag.
func (fx *fixture) elem(t *testing.T, tag string) doc.NodeID {
	t.Helper()

	id := fx.tree.FirstDescendant(fx.tree.Root(), func(id doc.NodeID) bool {
		return fx.tree.IsElement(id) && fx.tree.Tag(id) == tag
	})
	if id == doc.NoNode {
		t.Fatalf("no element <%s> in %s", tag, fx.markup())
	}
	return id
}

func (fx *fixture) at(t *testing.T, s string, offset int) doc.Anchor {
	t.Helper()
	return doc.Anchor{Node: fx.text(t, s), Offset: offset}
}

// toggle runs toggle over sel and verifies the tree is normalized and the
// returned anchors are usable.
func (fx *fixture) toggle(t *testing.T, tag string, sel doc.Range) doc.Result {
	t.Helper()

	res, err := fx.f.Toggle(tag, &sel)
	if err != nil {
		t.Fatalf("Toggle(%s) failed: %v", tag, err)
	}
	fx.verify(t, res)
	return res
}

func (fx *fixture) verify(t *testing.T, res doc.Result) {
	t.Helper()

	if err := fx.tree.Check(fx.f.Marks()...); err != nil {
		t.Fatalf("tree is not normalized: %v\n%s", err, fx.tree)
	}
	for _, a := range []doc.Anchor{res.Start, res.End} {
		if !fx.tree.ValidAnchor(a) {
			t.Fatalf("returned anchor %s is not valid\n%s", a, fx.tree)
		}
	}
	if fx.tree.Compare(res.Start, res.End) > 0 {
		t.Fatalf("returned anchors %s-%s are reversed", res.Start, res.End)
	}
}
