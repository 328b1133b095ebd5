// Package dom holds the mutable HTML document tree that modifiers operate on.
//
// Nodes live in an arena owned by the Tree and are addressed by NodeID. Each node
// records its parent ID and an ordered list of child IDs, so structural mutation
// never creates reference cycles. Detaching a node removes its ID from the parent's
// child list and marks the whole subtree as detached; detached nodes stay in the
// arena but are unreachable from the root and are never rendered.
package dom

import "errors"

// NodeID addresses a node inside a Tree's arena.
type NodeID int

// InvalidNode is the parent of the root and of detached subtree roots.
const InvalidNode NodeID = -1

// NodeKind classifies arena nodes.
type NodeKind uint8

const (
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
)

func (k NodeKind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case DoctypeNode:
		return "doctype"
	default:
		return "unknown"
	}
}

// Namespace URIs for element names.
const (
	NamespaceHTML   = "http://www.w3.org/1999/xhtml"
	NamespaceSVG    = "http://www.w3.org/2000/svg"
	NamespaceMathML = "http://www.w3.org/1998/Math/MathML"
)

// QualifiedName is an element name paired with its namespace URI.
type QualifiedName struct {
	Space string
	Local string
}

// HTMLName returns the qualified name of an element in the HTML namespace.
func HTMLName(local string) QualifiedName {
	return QualifiedName{Space: NamespaceHTML, Local: local}
}

func (q QualifiedName) String() string {
	if q.Space == "" {
		return q.Local
	}
	return "{" + q.Space + "}" + q.Local
}

// Attribute is a single element attribute. Space is the attribute namespace
// prefix as produced by the HTML parser (e.g. "xlink"), usually empty.
type Attribute struct {
	Space string
	Key   string
	Val   string
}

// Sentinel errors for tree operations.
var (
	ErrParse       = errors.New("dom: parse failed")
	ErrRender      = errors.New("dom: render failed")
	ErrInvalidNode = errors.New("dom: invalid node")
)

type node struct {
	kind     NodeKind
	name     QualifiedName
	attrs    []Attribute
	data     string
	parent   NodeID
	children []NodeID
	detached bool
}

// Tree is an arena-backed HTML document. A Tree is not safe for concurrent
// mutation; each resolution owns its own tree.
type Tree struct {
	nodes    []node
	root     NodeID
	fragment bool
}

// New returns a tree that contains only an empty document root.
func New() *Tree {
	t := &Tree{}
	t.root = t.alloc(node{kind: DocumentNode, parent: InvalidNode})
	return t
}

func (t *Tree) alloc(n node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Root returns the document node.
func (t *Tree) Root() NodeID { return t.root }

// Fragment reports whether the tree was parsed as a body fragment and will
// be rendered without an <html> wrapper.
func (t *Tree) Fragment() bool { return t.fragment }

// Len returns the arena size, including detached nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Kind returns the node kind, or DocumentNode for an invalid ID.
func (t *Tree) Kind(id NodeID) NodeKind {
	if !t.valid(id) {
		return DocumentNode
	}
	return t.nodes[id].kind
}

// Name returns the qualified name of an element node.
func (t *Tree) Name(id NodeID) QualifiedName {
	if !t.valid(id) {
		return QualifiedName{}
	}
	return t.nodes[id].name
}

// Data returns the text of a text, comment or doctype node.
func (t *Tree) Data(id NodeID) string {
	if !t.valid(id) {
		return ""
	}
	return t.nodes[id].data
}

// Attrs returns a copy of the node's attributes.
func (t *Tree) Attrs(id NodeID) []Attribute {
	if !t.valid(id) {
		return nil
	}
	return append([]Attribute(nil), t.nodes[id].attrs...)
}

// Attr returns the value of the first non-namespaced attribute named key.
func (t *Tree) Attr(id NodeID, key string) (string, bool) {
	if !t.valid(id) {
		return "", false
	}
	for _, a := range t.nodes[id].attrs {
		if a.Space == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Parent returns the parent ID, or InvalidNode for the root and detached subtree roots.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.valid(id) {
		return InvalidNode
	}
	return t.nodes[id].parent
}

// Children returns a copy of the ordered child IDs.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	return append([]NodeID(nil), t.nodes[id].children...)
}

// Attached reports whether the node is reachable from the root.
func (t *Tree) Attached(id NodeID) bool {
	if !t.valid(id) || t.nodes[id].detached {
		return false
	}
	for cur := id; cur != t.root; cur = t.nodes[cur].parent {
		if cur == InvalidNode {
			return false
		}
	}
	return true
}

// IsElement reports whether id is an element with the given qualified name.
func (t *Tree) IsElement(id NodeID, name QualifiedName) bool {
	return t.valid(id) && t.nodes[id].kind == ElementNode && t.nodes[id].name == name
}

// HasAncestorIn reports whether any proper ancestor of id is in set.
func (t *Tree) HasAncestorIn(id NodeID, set map[NodeID]struct{}) bool {
	if !t.valid(id) {
		return false
	}
	for p := t.nodes[id].parent; p != InvalidNode; p = t.nodes[p].parent {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}

// Descendants returns the descendants of id in document order (depth-first,
// pre-order), excluding id itself. The returned slice is a snapshot: mutating
// the tree afterwards does not change it.
func (t *Tree) Descendants(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	var out []NodeID
	stack := make([]NodeID, 0, 16)
	kids := t.nodes[id].children
	for i := len(kids) - 1; i >= 0; i-- {
		stack = append(stack, kids[i])
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		kids := t.nodes[cur].children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

// FindElements returns every attached element named name, in document order.
func (t *Tree) FindElements(name QualifiedName) []NodeID {
	var out []NodeID
	for _, id := range t.Descendants(t.root) {
		if t.IsElement(id, name) {
			out = append(out, id)
		}
	}
	return out
}

// TextContent concatenates the text of all descendant text nodes in document order.
func (t *Tree) TextContent(id NodeID) string {
	if !t.valid(id) {
		return ""
	}
	if t.nodes[id].kind == TextNode {
		return t.nodes[id].data
	}
	var n int
	desc := t.Descendants(id)
	for _, d := range desc {
		if t.nodes[d].kind == TextNode {
			n += len(t.nodes[d].data)
		}
	}
	buf := make([]byte, 0, n)
	for _, d := range desc {
		if t.nodes[d].kind == TextNode {
			buf = append(buf, t.nodes[d].data...)
		}
	}
	return string(buf)
}

// Detach removes id and its subtree from the tree. The relative order of the
// parent's remaining children is preserved. Detaching the root, an invalid ID
// or an already detached node is a no-op.
func (t *Tree) Detach(id NodeID) {
	if !t.valid(id) || id == t.root || t.nodes[id].detached {
		return
	}
	if p := t.nodes[id].parent; p != InvalidNode {
		old := t.nodes[p].children
		kept := make([]NodeID, 0, len(old))
		for _, c := range old {
			if c != id {
				kept = append(kept, c)
			}
		}
		t.nodes[p].children = kept
	}
	t.nodes[id].parent = InvalidNode
	t.nodes[id].detached = true
	for _, d := range t.Descendants(id) {
		t.nodes[d].detached = true
	}
}

// NewElement allocates an unattached element node.
func (t *Tree) NewElement(name QualifiedName, attrs ...Attribute) NodeID {
	return t.alloc(node{
		kind:   ElementNode,
		name:   name,
		attrs:  append([]Attribute(nil), attrs...),
		parent: InvalidNode,
	})
}

// NewText allocates an unattached text node.
func (t *Tree) NewText(s string) NodeID {
	return t.alloc(node{kind: TextNode, data: s, parent: InvalidNode})
}

// AppendChild attaches a freshly allocated node as the last child of parent.
// The child must not have a parent and must not have been detached.
func (t *Tree) AppendChild(parent, child NodeID) error {
	if !t.valid(parent) || !t.valid(child) || parent == child {
		return ErrInvalidNode
	}
	c := &t.nodes[child]
	if c.parent != InvalidNode || c.detached || child == t.root {
		return ErrInvalidNode
	}
	switch t.nodes[parent].kind {
	case DocumentNode, ElementNode:
	default:
		return ErrInvalidNode
	}
	if t.nodes[parent].detached {
		return ErrInvalidNode
	}
	for p := parent; p != InvalidNode; p = t.nodes[p].parent {
		if p == child {
			return ErrInvalidNode
		}
	}
	c.parent = parent
	t.nodes[parent].children = append(t.nodes[parent].children, child)
	return nil
}
