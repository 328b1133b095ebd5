package modifier

import (
	"fmt"
	"sort"
	"sync"
)

// Options carries the shared dependencies handed to registered constructors.
type Options struct {
	Scripts        ScriptSink
	LiveReloadPath string
}

// Constructor turns shared options into a per-page Factory.
type Constructor func(opts Options) Factory

var (
	regMu sync.RWMutex
	reg   = map[string]Constructor{}
)

// Register adds a constructor under name. The first registration wins.
func Register(name string, c Constructor) {
	if name == "" || c == nil {
		return
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, ok := reg[name]; !ok {
		reg[name] = c
	}
}

// Lookup returns the constructor registered under name.
func Lookup(name string) (Constructor, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	c, ok := reg[name]
	return c, ok
}

// Registered returns all registered names, sorted.
func Registered() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(reg))
	for name := range reg {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build resolves names into factories, keeping the given order.
func Build(names []string, opts Options) ([]Factory, error) {
	factories := make([]Factory, 0, len(names))
	for _, name := range names {
		c, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown modifier %q (available: %v)", name, Registered())
		}
		factories = append(factories, c(opts))
	}
	return factories, nil
}

func init() {
	Register(ScriptModifierName, func(opts Options) Factory {
		return NewScriptFactory(opts.Scripts)
	})
	Register(LiveReloadModifierName, func(opts Options) Factory {
		return NewLiveReloadFactory(opts.LiveReloadPath)
	})
}
