package modifier

import (
	"net/url"
	"sync"

	"git.home.luguber.info/inful/reqaz/internal/dom"
)

// ScriptModifierName is the registry name of the marker-stripping modifier.
const ScriptModifierName = "script"

// MarkerName is the reserved element content authors use to tag regions for
// removal. It never reaches rendered output.
var MarkerName = dom.HTMLName("nib:script")

// ScriptSink receives the text content of every removed marker.
type ScriptSink interface {
	CollectScript(page *url.URL, content string)
}

// ScriptModifier removes every top-level marker element, extracting its text
// content first. Nested markers go away with their outermost ancestor.
type ScriptModifier struct {
	page    *url.URL
	sink    ScriptSink
	scripts []string
}

// NewScriptModifier builds a modifier for page. sink may be nil.
func NewScriptModifier(page *url.URL, sink ScriptSink) *ScriptModifier {
	return &ScriptModifier{page: page, sink: sink}
}

// NewScriptFactory returns a Factory producing ScriptModifiers that report to sink.
func NewScriptFactory(sink ScriptSink) Factory {
	return func(page *url.URL) Modifier {
		return NewScriptModifier(page, sink)
	}
}

func (m *ScriptModifier) Name() string { return ScriptModifierName }

// Modify strips markers from tree in place.
func (m *ScriptModifier) Modify(tree *dom.Tree) (*dom.Tree, error) {
	m.scripts = m.scripts[:0]

	scheduled := map[dom.NodeID]struct{}{}
	var order []dom.NodeID
	for _, id := range tree.Descendants(tree.Root()) {
		if !tree.IsElement(id, MarkerName) {
			continue
		}
		if tree.HasAncestorIn(id, scheduled) {
			continue
		}
		scheduled[id] = struct{}{}
		order = append(order, id)
	}

	for _, id := range order {
		content := tree.TextContent(id)
		m.scripts = append(m.scripts, content)
		if m.sink != nil {
			m.sink.CollectScript(m.page, content)
		}
		tree.Detach(id)
	}
	return tree, nil
}

// Scripts returns the text extracted by the last Modify call, in document order.
func (m *ScriptModifier) Scripts() []string {
	return append([]string(nil), m.scripts...)
}

// Page returns the page URI the modifier was built for.
func (m *ScriptModifier) Page() *url.URL { return m.page }

// ExtractedScript is one marker's text content tagged with its page.
type ExtractedScript struct {
	Page    string
	Content string
}

// ScriptCollector is a ScriptSink safe for concurrent use.
type ScriptCollector struct {
	mu      sync.Mutex
	scripts []ExtractedScript
}

func (c *ScriptCollector) CollectScript(page *url.URL, content string) {
	p := ""
	if page != nil {
		p = page.String()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts = append(c.scripts, ExtractedScript{Page: p, Content: content})
}

// Scripts returns a copy of everything collected so far.
func (c *ScriptCollector) Scripts() []ExtractedScript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ExtractedScript(nil), c.scripts...)
}

// ForPage returns the contents collected for page, in collection order.
func (c *ScriptCollector) ForPage(page string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, s := range c.scripts {
		if s.Page == page {
			out = append(out, s.Content)
		}
	}
	return out
}
