package modifier

import (
	"net/url"

	"git.home.luguber.info/inful/reqaz/internal/dom"
)

// LiveReloadModifierName is the registry name of the live reload injector.
const LiveReloadModifierName = "livereload"

// DefaultLiveReloadScriptPath is where the server exposes the client script.
const DefaultLiveReloadScriptPath = "/_reqaz/livereload.js"

// LiveReloadModifier appends the live reload client script to <body>, or to
// the document root when there is no body (fragments).
type LiveReloadModifier struct {
	src string
}

// NewLiveReloadFactory returns a Factory injecting a script tag pointing at src.
func NewLiveReloadFactory(src string) Factory {
	if src == "" {
		src = DefaultLiveReloadScriptPath
	}
	return func(*url.URL) Modifier {
		return &LiveReloadModifier{src: src}
	}
}

func (m *LiveReloadModifier) Name() string { return LiveReloadModifierName }

func (m *LiveReloadModifier) Modify(tree *dom.Tree) (*dom.Tree, error) {
	scriptName := dom.HTMLName("script")
	for _, id := range tree.FindElements(scriptName) {
		if v, ok := tree.Attr(id, "src"); ok && v == m.src {
			return tree, nil
		}
	}

	parent := tree.Root()
	if bodies := tree.FindElements(dom.HTMLName("body")); len(bodies) > 0 {
		parent = bodies[0]
	}
	el := tree.NewElement(scriptName, dom.Attribute{Key: "src", Val: m.src})
	if err := tree.AppendChild(parent, el); err != nil {
		return nil, err
	}
	return tree, nil
}
