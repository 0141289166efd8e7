package format

import (
	"errors"
	"testing"

	"markfmt/doc"
	"markfmt/editor"
)

func TestToggle_Basics(t *testing.T) {
	t.Run("remove_mark_under_cursor", func(t *testing.T) {
		fx := newFixture(t, "<p>hello<b>world</b></p>")
		if err := fx.ed.Collapse(fx.at(t, "world", 2)); err != nil {
			t.Fatal(err)
		}

		res, err := fx.f.Toggle("b", nil)
		if err != nil {
			t.Fatalf("Toggle failed: %v", err)
		}
		fx.verify(t, res)
		if got := fx.markup(); got != "<p>helloworld</p>" {
			t.Fatalf("unexpected markup %q", got)
		}
		if res.Count != -2 {
			t.Fatalf("count = %d, expected -2", res.Count)
		}
		run := fx.text(t, "helloworld")
		if res.Start != (doc.Anchor{Node: run, Offset: 5}) || res.End != (doc.Anchor{Node: run, Offset: 10}) {
			t.Fatalf("anchors %s-%s must bound former mark content", res.Start, res.End)
		}
	})

	t.Run("flatten_nested_same_kind", func(t *testing.T) {
		fx := newFixture(t, "<p>hello<b>wo<b>rld</b></b></p>")

		count, err := fx.f.FlattenNested(fx.elem(t, "p"), "b")
		if err != nil {
			t.Fatalf("FlattenNested failed: %v", err)
		}
		if got := fx.markup(); got != "<p>helloworld</p>" {
			t.Fatalf("unexpected markup %q", got)
		}
		if count != -4 {
			t.Fatalf("count = %d, expected -4", count)
		}
		if err := fx.tree.Check("b"); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("unwrap_merges_into_single_run", func(t *testing.T) {
		fx := newFixture(t, "hello<b>wo</b>rld")
		res := fx.toggle(t, "b", doc.Range{Start: fx.at(t, "wo", 1), End: fx.at(t, "wo", 1)})

		root := fx.tree.Root()
		if fx.tree.ChildCount(root) != 1 || fx.tree.Text(fx.tree.FirstChild(root)) != "helloworld" {
			t.Fatalf("expected single text run, got %q", fx.markup())
		}
		if res.Count != -2 {
			t.Fatalf("count = %d, expected -2", res.Count)
		}
		run := fx.tree.FirstChild(root)
		if res.Start != (doc.Anchor{Node: run, Offset: 5}) || res.End != (doc.Anchor{Node: run, Offset: 7}) {
			t.Fatalf("anchors %s-%s must bound \"wo\"", res.Start, res.End)
		}
	})

	t.Run("mark_word_under_cursor", func(t *testing.T) {
		fx := newFixture(t, "<p>hello world</p>")
		res := fx.toggle(t, "b", doc.Range{Start: fx.at(t, "hello world", 8), End: fx.at(t, "hello world", 8)})

		if got := fx.markup(); got != "<p>hello <b>world</b></p>" {
			t.Fatalf("unexpected markup %q", got)
		}
		if res.Count != 2 {
			t.Fatalf("count = %d, expected 2", res.Count)
		}
		word := fx.text(t, "world")
		if res.Start != (doc.Anchor{Node: word, Offset: 0}) || res.End != (doc.Anchor{Node: word, Offset: 5}) {
			t.Fatalf("anchors %s-%s must bound \"world\"", res.Start, res.End)
		}
	})

	t.Run("end_outside_mark_snaps_to_container", func(t *testing.T) {
		fx := newFixture(t, "<p><b>hello</b> world</p>")
		p := fx.elem(t, "p")
		res := fx.toggle(t, "b", doc.Range{Start: fx.at(t, "hello", 2), End: doc.Anchor{Node: p, Offset: 2}})

		if got := fx.markup(); got != "<p>hello world</p>" {
			t.Fatalf("unexpected markup %q", got)
		}
		if res.Count != -2 {
			t.Fatalf("count = %d, expected -2", res.Count)
		}
		if want := (doc.Anchor{Node: fx.tree.Root(), Offset: 1}); res.End != want {
			t.Fatalf("end = %s, expected outside right of <p> %s", res.End, want)
		}
		if want := (doc.Anchor{Node: fx.text(t, "hello world"), Offset: 0}); res.Start != want {
			t.Fatalf("start = %s, expected %s", res.Start, want)
		}
	})
}

func TestToggle_Rules(t *testing.T) {
	t.Run("range_inside_single_mark", func(t *testing.T) {
		fx := newFixture(t, "a<b>bc</b>d")
		res := fx.toggle(t, "b", doc.Range{Start: fx.at(t, "bc", 0), End: fx.at(t, "bc", 2)})

		if got := fx.markup(); got != "abcd" {
			t.Fatalf("unexpected markup %q", got)
		}
		run := fx.text(t, "abcd")
		if res.Start != (doc.Anchor{Node: run, Offset: 1}) || res.End != (doc.Anchor{Node: run, Offset: 3}) || res.Count != -2 {
			t.Fatalf("unexpected result %+v", res)
		}
	})

	t.Run("ends_in_different_marks", func(t *testing.T) {
		fx := newFixture(t, "<b>a</b>x<b>c</b>")
		before := fx.markup()

		_, err := fx.f.Toggle("b", &doc.Range{Start: fx.at(t, "a", 0), End: fx.at(t, "c", 1)})
		if !errors.Is(err, ErrAmbiguousOverlap) {
			t.Fatalf("expected ErrAmbiguousOverlap, got %v", err)
		}
		if got := fx.markup(); got != before {
			t.Fatalf("tree changed to %q", got)
		}
	})

	t.Run("start_in_mark_text_end_follows_merge", func(t *testing.T) {
		fx := newFixture(t, "<b>hello</b> world")
		res := fx.toggle(t, "b", doc.Range{Start: fx.at(t, "hello", 1), End: fx.at(t, " world", 3)})

		run := fx.text(t, "hello world")
		if res.Start != (doc.Anchor{Node: run, Offset: 0}) || res.End != (doc.Anchor{Node: run, Offset: 8}) {
			t.Fatalf("anchors %s-%s, expected %s:0-%s:8", res.Start, res.End, run, run)
		}
		if res.Count != -2 {
			t.Fatalf("count = %d, expected -2", res.Count)
		}
	})

	t.Run("end_in_mark_start_snaps_to_container", func(t *testing.T) {
		fx := newFixture(t, "<p>hello <b>world</b></p>")
		p := fx.elem(t, "p")
		res := fx.toggle(t, "b", doc.Range{Start: doc.Anchor{Node: p, Offset: 0}, End: fx.at(t, "world", 3)})

		if got := fx.markup(); got != "<p>hello world</p>" {
			t.Fatalf("unexpected markup %q", got)
		}
		run := fx.text(t, "hello world")
		if res.Start != (doc.Anchor{Node: fx.tree.Root(), Offset: 0}) {
			t.Fatalf("start = %s, expected outside left of <p>", res.Start)
		}
		if res.End != (doc.Anchor{Node: run, Offset: 11}) {
			t.Fatalf("end = %s, expected %s:11", res.End, run)
		}
	})

	t.Run("root_endpoint_snaps_to_inner_edge", func(t *testing.T) {
		fx := newFixture(t, "x<b>hello</b>")
		root := fx.tree.Root()
		res := fx.toggle(t, "b", doc.Range{Start: doc.Anchor{Node: root, Offset: 0}, End: fx.at(t, "hello", 2)})

		if res.Start != (doc.Anchor{Node: root, Offset: 0}) {
			t.Fatalf("start = %s, expected root start", res.Start)
		}
		if got := fx.markup(); got != "xhello" {
			t.Fatalf("unexpected markup %q", got)
		}
	})

	t.Run("reversed_range", func(t *testing.T) {
		fx := newFixture(t, "hello world")
		res := fx.toggle(t, "i", doc.Range{Start: fx.at(t, "hello world", 5), End: fx.at(t, "hello world", 0)})

		if got := fx.markup(); got != "<i>hello</i> world" {
			t.Fatalf("unexpected markup %q", got)
		}
		if res.Count != 2 {
			t.Fatalf("count = %d, expected 2", res.Count)
		}
	})

	t.Run("other_marks_are_kept", func(t *testing.T) {
		fx := newFixture(t, "<i>hello</i> world")
		fx.toggle(t, "b", doc.Range{Start: fx.at(t, "hello", 0), End: fx.at(t, " world", 6)})

		if got := fx.markup(); got != "<b><i>hello</i> world</b>" {
			t.Fatalf("unexpected markup %q", got)
		}
	})
}

func TestToggle_Surround(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		start  func(*testing.T, *fixture) doc.Anchor
		end    func(*testing.T, *fixture) doc.Anchor
		want   string
		count  int
	}{
		{
			name:   "inside_single_run",
			markup: "<p>hello world</p>",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "hello world", 2) },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "hello world", 7) },
			want:   "<p>he<b>llo w</b>orld</p>",
			count:  2,
		},
		{
			name:   "absorbs_nested_mark",
			markup: "a<b>b</b>c",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "a", 0) },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "c", 1) },
			want:   "<b>abc</b>",
			count:  0,
		},
		{
			name:   "absorbs_deeply_nested_marks",
			markup: "x<i>a<b>b</b></i><b>c</b>y",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "x", 1) },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "y", 0) },
			want:   "x<b><i>ab</i>c</b>y",
			count:  -2,
		},
		{
			name:   "element_anchors",
			markup: "<p>ab</p><p>cd</p>",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return doc.Anchor{Node: fx.tree.Root(), Offset: 0} },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return doc.Anchor{Node: fx.tree.Root(), Offset: 2} },
			want:   "<b><p>ab</p><p>cd</p></b>",
			count:  2,
		},
		{
			name:   "across_paragraphs",
			markup: "<p>ab</p><p>cd</p>",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "ab", 1) },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "cd", 1) },
			want:   "<p>a</p><b><p>b</p><p>c</p></b><p>d</p>",
			count:  6,
		},
		{
			name:   "split_ignorable_is_free",
			markup: "<label>ab</label>cd",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "ab", 1) },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "cd", 1) },
			want:   "<label>a</label><b><label>b</label>c</b>d",
			count:  2,
		},
		{
			name:   "whole_element_content",
			markup: "<p><i>ab</i></p>",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "ab", 0) },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "ab", 2) },
			want:   "<p><i><b>ab</b></i></p>",
			count:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, tt.markup, "label")
			res := fx.toggle(t, "b", doc.Range{Start: tt.start(t, fx), End: tt.end(t, fx)})

			if got := fx.markup(); got != tt.want {
				t.Fatalf("markup = %q, expected %q", got, tt.want)
			}
			if res.Count != tt.count {
				t.Fatalf("count = %d, expected %d", res.Count, tt.count)
			}
		})
	}
}

func TestToggle_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		tag    string
		start  func(*testing.T, *fixture) doc.Anchor
		end    func(*testing.T, *fixture) doc.Anchor
		count  int
	}{
		{
			name:   "leading_word",
			markup: "hello world",
			tag:    "b",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "hello world", 0) },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "hello world", 5) },
			count:  2,
		},
		{
			name:   "middle_of_run",
			markup: "<p>hello world</p>",
			tag:    "u",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "hello world", 2) },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "hello world", 7) },
			count:  2,
		},
		{
			name:   "across_other_mark",
			markup: "<i>ab</i>cd",
			tag:    "b",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "ab", 1) },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "cd", 1) },
			count:  4,
		},
		{
			name:   "across_nested_marks",
			markup: "<p>x<s>a<i>bc</i></s>de</p>",
			tag:    "sup",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "bc", 1) },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "de", 1) },
			count:  6,
		},
		{
			name:   "whole_paragraph",
			markup: "<p>one</p><p>two</p>",
			tag:    "b",
			start:  func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "one", 0) },
			end:    func(t *testing.T, fx *fixture) doc.Anchor { return fx.at(t, "one", 3) },
			count:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, tt.markup)
			before := fx.markup()

			created := fx.toggle(t, tt.tag, doc.Range{Start: tt.start(t, fx), End: tt.end(t, fx)})
			if created.Count != tt.count {
				t.Fatalf("creation count = %d, expected %d (%s)", created.Count, tt.count, fx.markup())
			}
			removed := fx.toggle(t, tt.tag, created.Range())
			if got := fx.markup(); got != before {
				t.Fatalf("round trip produced %q, expected %q", got, before)
			}
			if removed.Count != -created.Count {
				t.Fatalf("removal count = %d, expected %d", removed.Count, -created.Count)
			}
		})
	}
}

func TestToggle_CollapsedOutsideWord(t *testing.T) {
	fx := newFixture(t, "hello  world")
	cursor := fx.at(t, "hello  world", 6)

	created := fx.toggle(t, "b", doc.Range{Start: cursor, End: cursor})
	if got := fx.markup(); got != "hello <b></b> world" {
		t.Fatalf("unexpected markup %q", got)
	}
	if !created.Range().Collapsed() || created.Count != 2 {
		t.Fatalf("expected collapsed result inside empty mark, got %+v", created)
	}

	removed := fx.toggle(t, "b", created.Range())
	if got := fx.markup(); got != "hello  world" {
		t.Fatalf("unexpected markup %q", got)
	}
	if want := fx.at(t, "hello  world", 6); removed.Start != want || removed.End != want {
		t.Fatalf("expected cursor at %s, got %s-%s", want, removed.Start, removed.End)
	}
	if removed.Count != -2 {
		t.Fatalf("count = %d, expected -2", removed.Count)
	}
}

func TestToggle_Errors(t *testing.T) {
	t.Run("unsupported_mark", func(t *testing.T) {
		fx := newFixture(t, "hello")
		_, err := fx.f.Toggle("h1", &doc.Range{Start: fx.at(t, "hello", 0), End: fx.at(t, "hello", 1)})
		if !errors.Is(err, ErrUnsupportedMark) {
			t.Fatalf("expected ErrUnsupportedMark, got %v", err)
		}
	})

	t.Run("invalid_anchor", func(t *testing.T) {
		fx := newFixture(t, "hello")
		_, err := fx.f.Toggle("b", &doc.Range{Start: fx.at(t, "hello", 0), End: fx.at(t, "hello", 6)})
		if !errors.Is(err, ErrInvalidAnchor) {
			t.Fatalf("expected ErrInvalidAnchor, got %v", err)
		}
		if got := fx.markup(); got != "hello" {
			t.Fatalf("tree changed to %q", got)
		}
	})

	t.Run("released_anchor", func(t *testing.T) {
		fx := newFixture(t, "a<b>c</b>")
		c := fx.at(t, "c", 0)
		fx.tree.Release(fx.elem(t, "b"))
		if _, err := fx.f.Toggle("i", &doc.Range{Start: c, End: c}); !errors.Is(err, ErrInvalidAnchor) {
			t.Fatalf("expected ErrInvalidAnchor, got %v", err)
		}
	})

	t.Run("no_selection", func(t *testing.T) {
		fx := newFixture(t, "hello")
		if _, err := fx.f.Toggle("b", nil); !errors.Is(err, editor.ErrNoSelection) {
			t.Fatalf("expected ErrNoSelection, got %v", err)
		}
	})
}

func TestFormatter_Marks(t *testing.T) {
	fx := newFixture(t, "x")
	for _, tag := range DefaultMarks {
		if !fx.f.Supported(tag) {
			t.Errorf("%s must be supported by default", tag)
		}
	}
	if fx.f.Supported("p") {
		t.Errorf("p must not be supported")
	}

	custom := New(fx.ed, nil, "em", "strong")
	if custom.Supported("b") || !custom.Supported("em") {
		t.Errorf("custom marks replace defaults, got %v", custom.Marks())
	}
	marks := custom.Marks()
	marks[0] = "b"
	if custom.Supported("b") {
		t.Errorf("Marks must return a copy")
	}
}
