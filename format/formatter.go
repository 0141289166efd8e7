// Package format toggles inline formatting marks over a selection of a rich
// text tree. It decides whether a mark has to be created or removed, rewrites
// the tree keeping it normalized (no adjacent text runs, no mark nested in a
// mark of the same kind) and reports anchors to restore selection together
// with signed count of structural changes.
//
// Formatter is synchronous and not reentrant, it must be used from the single
// goroutine owning the tree.
package format

import (
	"slices"

	"go.uber.org/zap"

	"markfmt/doc"
)

// DefaultMarks lists mark identifiers recognized when none are configured.
var DefaultMarks = []string{"b", "i", "u", "s", "sub", "sup"}

// Every non-ignorable element added to or removed from the tree changes
// structure by two units: its opening and its closing.
const elementUnits = 2

// Formatter applies and removes marks on the tree of its editor.
type Formatter struct {
	ed    Editor
	tree  *doc.Tree
	marks []string
	log   *zap.Logger
}

// New creates formatter recognizing given mark identifiers, DefaultMarks
// when none are given.
func New(ed Editor, log *zap.Logger, marks ...string) *Formatter {
	if len(marks) == 0 {
		marks = DefaultMarks
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Formatter{
		ed:    ed,
		tree:  ed.Tree(),
		marks: slices.Clone(marks),
		log:   log,
	}
}

// Supported reports whether tag is one of recognized mark identifiers.
func (f *Formatter) Supported(tag string) bool {
	return slices.Contains(f.marks, tag)
}

// Marks returns recognized mark identifiers.
func (f *Formatter) Marks() []string {
	return slices.Clone(f.marks)
}

// units returns structural weight of an element.
func (f *Formatter) units(id doc.NodeID) int {
	if f.ed.ShouldIgnore(id) {
		return 0
	}
	return elementUnits
}
