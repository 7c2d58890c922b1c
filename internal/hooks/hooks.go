// Package hooks lets extensions attach handlers to named extension points
package hooks

import (
	"fmt"
	"log"
	"sync"

	"github.com/go-while/go-pugwiki/internal/models"
)

// SpecialStatsAddExtra is run by the statistics page to collect extension rows
const SpecialStatsAddExtra = "SpecialStatsAddExtra"

// Handler is a generic hook handler. Returning false stops the remaining
// handlers and tells the caller to skip its default follow-up.
type Handler func(args ...interface{}) (bool, error)

// StatsAddExtraHandler adds rows to extra. rc is the request context of the
// statistics page, passed through untyped to keep this package free of page types.
type StatsAddExtraHandler func(extra *models.ExtraStats, rc interface{}) (bool, error)

// Registry holds hook handlers by name
type Registry struct {
	mux      sync.RWMutex
	handlers map[string][]namedHandler
}

type namedHandler struct {
	owner string
	fn    Handler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]namedHandler)}
}

// Register appends a handler for hook name; owner is used in log messages
func (r *Registry) Register(name, owner string, h Handler) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.handlers[name] = append(r.handlers[name], namedHandler{owner: owner, fn: h})
	log.Printf("[HOOKS]: Registered handler '%s' for %s", owner, name)
}

// Count returns the number of handlers registered for name
func (r *Registry) Count(name string) int {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return len(r.handlers[name])
}

// Run calls the handlers of name in registration order.
// It returns false as soon as a handler returns false, and stops on the first error.
func (r *Registry) Run(name string, args ...interface{}) (bool, error) {
	r.mux.RLock()
	list := append([]namedHandler(nil), r.handlers[name]...)
	r.mux.RUnlock()

	for _, h := range list {
		ok, err := h.fn(args...)
		if err != nil {
			return false, fmt.Errorf("hook %s handler '%s' failed: %w", name, h.owner, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// OnSpecialStatsAddExtra registers a typed handler for SpecialStatsAddExtra
func (r *Registry) OnSpecialStatsAddExtra(owner string, h StatsAddExtraHandler) {
	r.Register(SpecialStatsAddExtra, owner, func(args ...interface{}) (bool, error) {
		if len(args) != 2 {
			return false, fmt.Errorf("expected 2 arguments, got %d", len(args))
		}
		extra, ok := args[0].(*models.ExtraStats)
		if !ok {
			return false, fmt.Errorf("unexpected argument type %T", args[0])
		}
		return h(extra, args[1])
	})
}

// RunSpecialStatsAddExtra runs SpecialStatsAddExtra with the page's extra stats and request context
func (r *Registry) RunSpecialStatsAddExtra(extra *models.ExtraStats, rc interface{}) (bool, error) {
	return r.Run(SpecialStatsAddExtra, extra, rc)
}
