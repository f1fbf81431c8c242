// Package rules decides which diagnostics are administratively disabled.
package rules

import (
	"maps"
	"slices"
	"sync"

	"github.com/huangsam/sprinthealth/internal/contract"
)

// Set is a fixed collection of disabled rule names.
type Set map[string]bool

var _ contract.RuleConfig = Set{} // Compile-time check

// NewSet disables every given name. Blank names are ignored.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		if name != "" {
			s[name] = true
		}
	}
	return s
}

// IsDisabled implements the RuleConfig interface.
func (s Set) IsDisabled(name string) bool {
	return s[name]
}

// Names returns the disabled names in ascending order.
func (s Set) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// Union combines rule configurations. A rule is disabled when any part disables it.
type Union []contract.RuleConfig

var _ contract.RuleConfig = Union{} // Compile-time check

// IsDisabled implements the RuleConfig interface.
func (u Union) IsDisabled(name string) bool {
	for _, rc := range u {
		if rc != nil && rc.IsDisabled(name) {
			return true
		}
	}
	return false
}

// Holder is a RuleConfig whose contents can be swapped while readers use it.
type Holder struct {
	mu  sync.RWMutex
	set Set
}

var _ contract.RuleConfig = &Holder{} // Compile-time check

// NewHolder starts with the given set.
func NewHolder(set Set) *Holder {
	return &Holder{set: set}
}

// IsDisabled implements the RuleConfig interface.
func (h *Holder) IsDisabled(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.set.IsDisabled(name)
}

// Replace swaps in a new set.
func (h *Holder) Replace(set Set) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.set = set
}

// Snapshot returns the current set.
func (h *Holder) Snapshot() Set {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return maps.Clone(h.set)
}
