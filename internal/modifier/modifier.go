// Package modifier defines the document modifier chain applied to HTML sources.
//
// A Modifier rewrites a dom.Tree. Modifiers are built per resolution from a
// Factory, receiving the page URI as construction-time configuration, and are
// composed into a Chain that runs them in order and stops at the first error.
package modifier

import (
	"errors"
	"fmt"
	"net/url"

	"git.home.luguber.info/inful/reqaz/internal/dom"
)

// ErrModifier matches every error returned by Chain.Apply.
var ErrModifier = errors.New("modifier failed")

// Modifier transforms a document tree. Implementations may mutate the tree in
// place and return it, or return a different tree.
type Modifier interface {
	Name() string
	Modify(tree *dom.Tree) (*dom.Tree, error)
}

// Factory builds a Modifier for a single page.
type Factory func(page *url.URL) Modifier

// Func adapts a plain function into a Modifier.
type Func struct {
	ModifierName string
	Fn           func(tree *dom.Tree) (*dom.Tree, error)
}

func (f Func) Name() string { return f.ModifierName }

func (f Func) Modify(tree *dom.Tree) (*dom.Tree, error) { return f.Fn(tree) }

// ChainError reports which step of a chain failed.
type ChainError struct {
	Step int
	Name string
	Err  error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("modifier %d (%s): %v", e.Step, e.Name, e.Err)
}

func (e *ChainError) Unwrap() []error { return []error{ErrModifier, e.Err} }

// Chain is an ordered list of modifiers.
type Chain []Modifier

// NewChain instantiates factories for one page, in order.
func NewChain(page *url.URL, factories ...Factory) Chain {
	chain := make(Chain, 0, len(factories))
	for _, f := range factories {
		if f == nil {
			continue
		}
		if m := f(page); m != nil {
			chain = append(chain, m)
		}
	}
	return chain
}

// Apply runs every modifier left to right. The first failure stops the chain
// and no partially modified tree is returned.
func (c Chain) Apply(tree *dom.Tree) (*dom.Tree, error) {
	cur := tree
	for i, m := range c {
		next, err := m.Modify(cur)
		if err != nil {
			return nil, &ChainError{Step: i, Name: m.Name(), Err: err}
		}
		if next == nil {
			return nil, &ChainError{Step: i, Name: m.Name(), Err: errors.New("returned nil tree")}
		}
		cur = next
	}
	return cur, nil
}

// Names lists the modifier names of the chain in order.
func (c Chain) Names() []string {
	out := make([]string, len(c))
	for i, m := range c {
		out[i] = m.Name()
	}
	return out
}
