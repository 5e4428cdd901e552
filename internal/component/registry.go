// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name>.  cmd/web builds
// every component with its dependencies, registers it, then asks the
// registry to run migrations and mount routes.  Mount order is by prefix
// length, longest first, so "/api/admin" is never shadowed by "/".

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// Migrations() may return nil if the component has no schema changes.
// Routes() is mounted under Prefix(); a component that serves pages and API
// endpoints under different roots returns "/" and routes both itself.
type Component interface {
	Name() string
	Prefix() string
	Routes() chi.Router
	Migrations() []string
}

// Registry holds components by name.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]Component
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[string]Component{}}
}

// Register adds c.  Registering two components with one name is a wiring
// bug and panics.
func (g *Registry) Register(c Component) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, dup := g.byID[c.Name()]; dup {
		panic(fmt.Sprintf("component: %q registered twice", c.Name()))
	}
	g.byID[c.Name()] = c
}

// All returns every registered component sorted by name.
func (g *Registry) All() []Component {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Component, 0, len(g.byID))
	for _, c := range g.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Migrations concatenates every component's DDL, in name order.
func (g *Registry) Migrations() []string {
	var stmts []string
	for _, c := range g.All() {
		stmts = append(stmts, c.Migrations()...)
	}
	return stmts
}

// Mount attaches every component's router to r.
func (g *Registry) Mount(r chi.Router) {
	cs := g.All()
	sort.SliceStable(cs, func(i, j int) bool { return len(cs[i].Prefix()) > len(cs[j].Prefix()) })
	for _, c := range cs {
		r.Mount(c.Prefix(), c.Routes())
	}
}
