package dom

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse builds a tree from a complete HTML document.
func Parse(r io.Reader) (*Tree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	t := New()
	t.importChildren(t.root, doc)
	return t, nil
}

// ParseFragment builds a tree from an HTML fragment parsed in <body> context.
// The tree renders back without an <html> wrapper.
func ParseFragment(r io.Reader) (*Tree, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	t := New()
	t.fragment = true
	for _, n := range nodes {
		t.importNode(t.root, n)
	}
	return t, nil
}

// ParseBytes parses data as a full document when it has a doctype or an
// html, head or body tag, and as a body fragment otherwise.
func ParseBytes(data []byte) (*Tree, error) {
	if IsFullDocument(data) {
		return Parse(bytes.NewReader(data))
	}
	return ParseFragment(bytes.NewReader(data))
}

// IsFullDocument reports whether data is a document rather than a snippet.
// The html, head and body tags are all optional, so any one of them (or a
// doctype) marks a document. Tags inside comments and raw text such as
// <script> do not count.
func IsFullDocument(data []byte) bool {
	z := html.NewTokenizer(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.DoctypeToken:
			return true
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Html, atom.Head, atom.Body:
				return true
			}
		}
	}
}

func (t *Tree) importChildren(parent NodeID, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.importNode(parent, c)
	}
}

func (t *Tree) importNode(parent NodeID, n *html.Node) {
	var nd node
	switch n.Type {
	case html.ElementNode:
		nd = node{kind: ElementNode, name: QualifiedName{Space: namespaceURI(n.Namespace), Local: n.Data}}
	case html.TextNode:
		nd = node{kind: TextNode, data: n.Data}
	case html.CommentNode:
		nd = node{kind: CommentNode, data: n.Data}
	case html.DoctypeNode:
		nd = node{kind: DoctypeNode, data: n.Data}
	default:
		// Raw and error nodes carry nothing worth keeping.
		return
	}
	if len(n.Attr) > 0 {
		nd.attrs = make([]Attribute, len(n.Attr))
		for i, a := range n.Attr {
			nd.attrs[i] = Attribute{Space: a.Namespace, Key: a.Key, Val: a.Val}
		}
	}
	nd.parent = parent
	id := t.alloc(nd)
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	t.importChildren(id, n)
}

// namespaceURI maps the parser's short namespace names to URIs.
func namespaceURI(short string) string {
	switch short {
	case "":
		return NamespaceHTML
	case "svg":
		return NamespaceSVG
	case "math":
		return NamespaceMathML
	default:
		return short
	}
}

// parserNamespace is the inverse of namespaceURI.
func parserNamespace(uri string) string {
	switch uri {
	case NamespaceHTML, "":
		return ""
	case NamespaceSVG:
		return "svg"
	case NamespaceMathML:
		return "math"
	default:
		return uri
	}
}
