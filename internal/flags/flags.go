// Package flags provides feature flags read from the config's flags map.
// Flags are read-only after initialization. Flags listed in Defaults take
// their default value unless the config overrides them; any other unknown
// flag reads as disabled.
package flags

import (
	"maps"

	"github.com/zjrosen/admingroup/internal/log"
)

const (
	// FlagBatchUIDShortcut resolves default keys (bblearn#<n>) straight to
	// group n instead of querying the code table.
	FlagBatchUIDShortcut = "batchuid-shortcut"

	// FlagChangeEvents publishes created/updated/deleted events after commits.
	FlagChangeEvents = "change-events"
)

// Defaults returns the value of every known flag when the config is silent.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagBatchUIDShortcut: true,
		FlagChangeEvents:     true,
	}
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map layered over Defaults.
func New(overrides map[string]bool) *Registry {
	flags := Defaults()
	maps.Copy(flags, overrides)
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Unknown flags and a nil registry read as disabled.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
