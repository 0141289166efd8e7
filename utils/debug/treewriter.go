// Package debug has helpers producing human readable dumps of internal
// structures, they exist solely for manual inspection and debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const defaultIndent = "  "

// TreeWriter accumulates indented lines describing a tree.
type TreeWriter struct {
	w      *strings.Builder
	indent string
}

func NewTreeWriter() *TreeWriter {
	return NewTreeWriterIndent(defaultIndent)
}

// NewTreeWriterIndent creates writer using indent for every depth level.
func NewTreeWriterIndent(indent string) *TreeWriter {
	return &TreeWriter{
		w:      &strings.Builder{},
		indent: indent,
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) pad(depth int) {
	for range depth {
		tw.w.WriteString(tw.indent)
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label with quoted value, so control characters and
// leading or trailing spaces of text runs stay visible.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.pad(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Lines writes multi-line text indenting every line.
func (tw TreeWriter) Lines(depth int, text string) {
	for line := range strings.Lines(text) {
		tw.pad(depth)
		tw.w.WriteString(strings.TrimSuffix(line, "\n"))
		tw.w.WriteByte('\n')
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
