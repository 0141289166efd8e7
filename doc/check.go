package doc

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"
)

// Structural invariant violations reported by Check.
var (
	// ErrAdjacentText indicates two text runs are immediate siblings.
	ErrAdjacentText = errors.New("adjacent text runs")

	// ErrNestedMark indicates element is nested inside element with the same tag.
	ErrNestedMark = errors.New("mark nested inside itself")

	// ErrBrokenLink indicates parent and child disagree about their relation.
	ErrBrokenLink = errors.New("broken parent link")
)

// Check walks the attached part of the tree and reports every invariant
// violation it finds: adjacent text runs, elements with one of tags nested
// inside element with the same tag and inconsistent parent links.
func (t *Tree) Check(tags ...string) error {
	var err error

	type frame struct {
		id    NodeID
		marks []string // tags of ancestors which are listed in tags
	}
	stack := []frame{{id: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		marks := f.marks
		if tag := t.Tag(f.id); f.id != t.root && slices.Contains(tags, tag) {
			if slices.Contains(marks, tag) {
				err = multierr.Append(err, fmt.Errorf("%w: <%s> node %d", ErrNestedMark, tag, f.id))
			}
			marks = append(slices.Clip(marks), tag)
		}

		prevText := false
		kids := t.Children(f.id)
		for i, kid := range kids {
			if !t.Live(kid) || t.Parent(kid) != f.id {
				err = multierr.Append(err, fmt.Errorf("%w: node %d under %d", ErrBrokenLink, kid, f.id))
				prevText = false
				continue
			}
			isText := t.IsText(kid)
			if isText && prevText {
				err = multierr.Append(err, fmt.Errorf("%w: nodes %d and %d", ErrAdjacentText, kids[i-1], kid))
			}
			prevText = isText
		}
		for i := len(kids) - 1; i >= 0; i-- {
			if t.IsElement(kids[i]) && t.Parent(kids[i]) == f.id {
				stack = append(stack, frame{id: kids[i], marks: marks})
			}
		}
	}
	return err
}
