// Package target holds the language backends the generator can emit. Only
// Java is configured.
package target

import (
	"fmt"
	"sort"
	"strings"

	"rfcode/pkg/assemble"
)

// registry is read-only after package initialisation.
var registry = map[string]assemble.Target{
	"java": Java{},
}

// Lookup returns the backend for a language selector (case-insensitive).
func Lookup(name string) (assemble.Target, error) {
	t, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return t, nil
}

// Names lists the configured language selectors, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
