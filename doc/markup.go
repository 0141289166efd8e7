package doc

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// Markup reading and writing. This is tooling around the tree (tests, command
// line), formatting itself never serializes anything.

// DefaultRootTag is used for the synthetic root of parsed fragments.
const DefaultRootTag = "div"

// ErrLossyMarkup is returned by lossless parsing when markup carries content
// the tree has no place for.
var ErrLossyMarkup = errors.New("markup content cannot be preserved")

type parseOptions struct {
	rootTag   string
	ignorable map[string]struct{}
	lossless  bool
}

// ParseOption adjusts markup parsing.
type ParseOption func(*parseOptions)

// WithIgnorable marks elements with given tags as ignorable.
func WithIgnorable(tags ...string) ParseOption {
	return func(o *parseOptions) {
		for _, tag := range tags {
			o.ignorable[tag] = struct{}{}
		}
	}
}

// WithRootTag sets tag of the synthetic root element created by
// ParseFragment.
func WithRootTag(tag string) ParseOption {
	return func(o *parseOptions) {
		o.rootTag = tag
	}
}

// WithLossless makes parsing fail when markup has comments, processing
// instructions or directives inside the root element. Such tokens are dropped
// otherwise. Tokens outside of the root are always kept.
func WithLossless() ParseOption {
	return func(o *parseOptions) {
		o.lossless = true
	}
}

func newParseOptions(opts []ParseOption) *parseOptions {
	o := &parseOptions{rootTag: DefaultRootTag, ignorable: make(map[string]struct{})}
	for _, setOpt := range opts {
		setOpt(o)
	}
	return o
}

// Parse reads an XML document, its root element becomes the root of the
// tree. Documents in legacy encodings are accepted when they carry an
// encoding declaration.
func Parse(r io.Reader, opts ...ParseOption) (*Tree, error) {
	o := newParseOptions(opts)

	d := etree.NewDocument()
	d.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
	}
	if _, err := d.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to read markup: %w", err)
	}
	root := d.Root()
	if root == nil {
		return nil, errors.New("markup has no root element")
	}

	t := NewTree(root.FullTag())
	t.setElement(t.Root(), root, o)
	if err := t.build(t.Root(), root, o); err != nil {
		return nil, err
	}

	seenRoot := false
	for _, token := range d.Child {
		switch {
		case token == root:
			seenRoot = true
		case seenRoot:
			t.epilog = append(t.epilog, token)
		default:
			t.prolog = append(t.prolog, token)
		}
	}
	return t, nil
}

// ParseFragment reads a markup fragment (text and elements without a single
// enclosing element) placing it under a synthetic root element.
func ParseFragment(s string, opts ...ParseOption) (*Tree, error) {
	o := newParseOptions(opts)
	wrapped := "<" + o.rootTag + ">" + s + "</" + o.rootTag + ">"
	return Parse(strings.NewReader(wrapped), opts...)
}

func (o *parseOptions) isIgnorable(tag string) bool {
	_, ok := o.ignorable[tag]
	return ok
}

func (t *Tree) setElement(id NodeID, el *etree.Element, o *parseOptions) {
	t.SetIgnorable(id, o.isIgnorable(el.FullTag()))
	for _, a := range el.Attr {
		t.SetAttr(id, a.FullKey(), a.Value)
	}
}

func (t *Tree) build(parent NodeID, el *etree.Element, o *parseOptions) error {
	// consecutive character data tokens (entities, CDATA sections) must
	// end up in a single text run
	last := NoNode
	for _, token := range el.Child {
		switch tok := token.(type) {
		case *etree.CharData:
			if tok.Data == "" {
				continue
			}
			if last != NoNode {
				t.AppendText(last, tok.Data)
				continue
			}
			last = t.NewText(tok.Data)
			t.AppendChild(parent, last)
		case *etree.Element:
			last = NoNode
			id := t.NewElement(tok.FullTag())
			t.setElement(id, tok, o)
			t.AppendChild(parent, id)
			if err := t.build(id, tok, o); err != nil {
				return err
			}
		case *etree.Comment:
			if o.lossless {
				return fmt.Errorf("%w: comment inside <%s>", ErrLossyMarkup, el.FullTag())
			}
		case *etree.ProcInst:
			if o.lossless {
				return fmt.Errorf("%w: processing instruction %q inside <%s>", ErrLossyMarkup, tok.Target, el.FullTag())
			}
		case *etree.Directive:
			if o.lossless {
				return fmt.Errorf("%w: directive inside <%s>", ErrLossyMarkup, el.FullTag())
			}
		}
	}
	return nil
}

// Markup renders the node and its subtree.
func (t *Tree) Markup(id NodeID) string {
	d := newWriteDocument()
	t.render(&d.Element, id)
	return writeString(d)
}

// Document renders the whole tree together with tokens found around the root
// element when it was parsed. Output is always UTF-8, XML declaration is
// rewritten accordingly.
func (t *Tree) Document() string {
	d := newWriteDocument()
	replay := func(tokens []etree.Token) {
		for _, token := range tokens {
			switch tok := token.(type) {
			case *etree.ProcInst:
				if tok.Target == "xml" {
					d.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
				} else {
					d.CreateProcInst(tok.Target, tok.Inst)
				}
			case *etree.Directive:
				d.CreateDirective(tok.Data)
			case *etree.Comment:
				d.CreateComment(tok.Data)
			case *etree.CharData:
				d.CreateText(tok.Data)
			}
		}
	}
	replay(t.prolog)
	t.render(&d.Element, t.root)
	replay(t.epilog)
	return writeString(d)
}

// InnerMarkup renders children of the node.
func (t *Tree) InnerMarkup(id NodeID) string {
	d := newWriteDocument()
	for _, kid := range t.Children(id) {
		t.render(&d.Element, kid)
	}
	return writeString(d)
}

func newWriteDocument() *etree.Document {
	d := etree.NewDocument()
	d.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalEndTags: true,
	}
	return d
}

func writeString(d *etree.Document) string {
	s, err := d.WriteToString()
	if err != nil {
		// writing into memory, this should never happen
		panic(fmt.Sprintf("doc: unable to render markup: %v", err))
	}
	return s
}

func (t *Tree) render(parent *etree.Element, id NodeID) {
	switch t.Kind(id) {
	case KindText:
		parent.CreateText(t.Text(id))
	case KindElement:
		el := parent.CreateElement(t.Tag(id))
		for _, a := range t.Attrs(id) {
			el.CreateAttr(a.Name, a.Value)
		}
		for _, kid := range t.Children(id) {
			t.render(el, kid)
		}
	}
}
