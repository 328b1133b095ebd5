package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := ParseBytes([]byte(src))
	require.NoError(t, err)
	return tree
}

func render(t *testing.T, tree *Tree) string {
	t.Helper()
	b, err := tree.Bytes()
	require.NoError(t, err)
	return string(b)
}

func TestParse_RoundTrip(t *testing.T) {
	src := `<!DOCTYPE html><html><head><title>T</title></head><body><p class="a">Hi <b>there</b></p><!-- note --></body></html>`
	tree := mustParse(t, src)

	assert.False(t, tree.Fragment())
	assert.Equal(t, `<!DOCTYPE html><html><head><title>T</title></head><body><p class="a">Hi <b>there</b></p><!-- note --></body></html>`, render(t, tree))
}

func TestParseBytes_FragmentRendersWithoutWrapper(t *testing.T) {
	tree := mustParse(t, `<p>one</p><p>two</p>`)

	assert.True(t, tree.Fragment())
	assert.Equal(t, `<p>one</p><p>two</p>`, render(t, tree))
}

func TestIsFullDocument(t *testing.T) {
	cases := map[string]bool{
		"<!doctype html><p>x":                true,
		"  \n<HTML lang=en>":                 true,
		"\xEF\xBB\xBF<!DOCTYPE html>":        true,
		"<!-- generated --><html></html>":    true,
		"<p>fragment</p>":                    false,
		"":                                   false,
		"<!-- unterminated comment <html>":   false,
		"<nib:script>x</nib:script><html>":   true,
		`<body class="dark"><p>x</p></body>`: true,
		"<head><title>T</title></head>":      true,
		"<!-- lead --><BODY>":                true,
		"<header>nav</header><bodyguard>":    false,
		`<script>var s = "<body>";</script>`: false,
		"<textarea><html></textarea>":        false,
	}
	for src, want := range cases {
		assert.Equal(t, want, IsFullDocument([]byte(src)), src)
	}
}

func TestParseBytes_OptionalDocumentTagsKeepStructure(t *testing.T) {
	cases := map[string]string{
		`<body class="dark" onload="init()"><p>x</p></body>`:                                                  `<html><head></head><body class="dark" onload="init()"><p>x</p></body></html>`,
		`<head><title>T</title><link rel="stylesheet" href="a.css"></head><body class="dark"><p>x</p></body>`: `<html><head><title>T</title><link rel="stylesheet" href="a.css"/></head><body class="dark"><p>x</p></body></html>`,
	}
	for src, want := range cases {
		tree := mustParse(t, src)
		assert.False(t, tree.Fragment(), src)
		assert.Equal(t, want, render(t, tree))
	}
}

func TestParse_Namespaces(t *testing.T) {
	tree := mustParse(t, `<html><body><svg><circle r="1"></circle></svg><nib:script>x</nib:script></body></html>`)

	assert.Len(t, tree.FindElements(QualifiedName{Space: NamespaceSVG, Local: "circle"}), 1)
	assert.Len(t, tree.FindElements(HTMLName("nib:script")), 1)
	assert.Empty(t, tree.FindElements(HTMLName("circle")))
	assert.Contains(t, render(t, tree), `<svg><circle r="1"></circle></svg>`)
}

func TestDescendants_PreOrderSnapshot(t *testing.T) {
	tree := mustParse(t, `<div id="a"><span id="b">x</span></div><p id="c"></p>`)

	var ids []string
	desc := tree.Descendants(tree.Root())
	for _, id := range desc {
		if v, ok := tree.Attr(id, "id"); ok {
			ids = append(ids, v)
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	tree.Detach(desc[0])
	assert.Len(t, desc, 4, "snapshot must not change after mutation")
	assert.Len(t, tree.Descendants(tree.Root()), 1)
}

func TestDetach_PreservesSiblingOrder(t *testing.T) {
	tree := mustParse(t, `<i>A</i><em>M</em><b>B</b>`)
	root := tree.Root()
	kids := tree.Children(root)
	require.Len(t, kids, 3)

	tree.Detach(kids[1])

	assert.Equal(t, []NodeID{kids[0], kids[2]}, tree.Children(root))
	assert.False(t, tree.Attached(kids[1]))
	assert.Equal(t, InvalidNode, tree.Parent(kids[1]))
	assert.Equal(t, `<i>A</i><b>B</b>`, render(t, tree))
}

func TestDetach_SubtreeUnreachable(t *testing.T) {
	tree := mustParse(t, `<div><section><p>deep</p></section></div><span>keep</span>`)
	div := tree.FindElements(HTMLName("div"))[0]
	p := tree.FindElements(HTMLName("p"))[0]

	tree.Detach(div)

	assert.False(t, tree.Attached(p))
	assert.Empty(t, tree.FindElements(HTMLName("p")))
	for _, id := range tree.Descendants(tree.Root()) {
		assert.True(t, tree.Attached(id))
	}
	assert.Equal(t, `<span>keep</span>`, render(t, tree))
}

func TestDetach_NoOps(t *testing.T) {
	tree := mustParse(t, `<p>x</p>`)
	before := render(t, tree)

	tree.Detach(tree.Root())
	tree.Detach(InvalidNode)
	tree.Detach(NodeID(tree.Len() + 10))
	p := tree.FindElements(HTMLName("p"))[0]
	tree.Detach(p)
	tree.Detach(p)

	assert.NotEqual(t, before, render(t, tree))
	assert.Empty(t, render(t, tree))
}

func TestTextContent(t *testing.T) {
	tree := mustParse(t, `<div>a<b>b</b><!-- c --><i>d<u>e</u></i></div>`)
	div := tree.FindElements(HTMLName("div"))[0]

	assert.Equal(t, "abde", tree.TextContent(div))
}

func TestAppendChild(t *testing.T) {
	tree := mustParse(t, `<html><body><p>x</p></body></html>`)
	body := tree.FindElements(HTMLName("body"))[0]

	el := tree.NewElement(HTMLName("script"), Attribute{Key: "src", Val: "/lr.js"})
	require.NoError(t, tree.AppendChild(body, el))
	assert.True(t, strings.HasSuffix(render(t, tree), `<p>x</p><script src="/lr.js"></script></body></html>`))

	assert.ErrorIs(t, tree.AppendChild(body, el), ErrInvalidNode, "already attached")
	txt := tree.NewText("t")
	assert.ErrorIs(t, tree.AppendChild(txt, tree.NewText("u")), ErrInvalidNode, "text cannot have children")

	outer := tree.NewElement(HTMLName("div"))
	inner := tree.NewElement(HTMLName("span"))
	require.NoError(t, tree.AppendChild(outer, inner))
	assert.ErrorIs(t, tree.AppendChild(inner, outer), ErrInvalidNode, "cycle")
}
