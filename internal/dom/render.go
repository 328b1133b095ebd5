package dom

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render serializes the attached part of the tree as HTML. Fragment trees
// render their top-level nodes one after another.
func (t *Tree) Render(w io.Writer) error {
	doc := t.export(t.root)
	if t.fragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(w, c); err != nil {
				return fmt.Errorf("%w: %w", ErrRender, err)
			}
		}
		return nil
	}
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

// Bytes renders the tree into a new byte slice.
func (t *Tree) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// export converts the subtree rooted at id into parser nodes for rendering.
func (t *Tree) export(id NodeID) *html.Node {
	nd := &t.nodes[id]
	out := &html.Node{}
	switch nd.kind {
	case DocumentNode:
		out.Type = html.DocumentNode
	case ElementNode:
		out.Type = html.ElementNode
		out.Namespace = parserNamespace(nd.name.Space)
		out.Data = nd.name.Local
		if out.Namespace == "" {
			out.DataAtom = atom.Lookup([]byte(nd.name.Local))
		}
	case TextNode:
		out.Type = html.TextNode
		out.Data = nd.data
	case CommentNode:
		out.Type = html.CommentNode
		out.Data = nd.data
	case DoctypeNode:
		out.Type = html.DoctypeNode
		out.Data = nd.data
	}
	if len(nd.attrs) > 0 {
		out.Attr = make([]html.Attribute, len(nd.attrs))
		for i, a := range nd.attrs {
			out.Attr[i] = html.Attribute{Namespace: a.Space, Key: a.Key, Val: a.Val}
		}
	}
	for _, c := range nd.children {
		if t.nodes[c].detached {
			continue
		}
		out.AppendChild(t.export(c))
	}
	return out
}
