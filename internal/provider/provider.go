// Package provider holds named library-list providers. A provider is the
// programmatic alternative to a YAML config file: the batch driver resolves
// its config argument against this registry when no file matches.
package provider

import (
	"fmt"
	"sort"

	"github.com/hochfrequenz/autosynth/internal/config"
)

var registry = map[string]config.ProviderFunc{}

// Register adds a provider under name. Duplicate registration is a
// programming error and panics, like flag redefinition.
func Register(name string, fn config.ProviderFunc) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("provider %q registered twice", name))
	}
	registry[name] = fn
}

// Lookup resolves a provider name. It satisfies config.ProviderLookup.
func Lookup(name string) (config.ProviderFunc, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Names lists registered providers in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
