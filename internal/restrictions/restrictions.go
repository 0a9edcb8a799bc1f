// Package restrictions encodes the per-state regulatory rules that keep
// certain product types out of certain jurisdictions.
package restrictions

import "sort"

// restrictedStates maps product type to the states where it may not be sold.
var restrictedStates = map[string]map[string]struct{}{
	"gap": {"CA": {}, "NY": {}},
	"vsc": {"FL": {}},
}

// Restricted reports whether the product may not be sold in the state.
func Restricted(product, state string) bool {
	states, ok := restrictedStates[product]
	if !ok {
		return false
	}
	_, blocked := states[state]
	return blocked
}

// Partition splits requested products into available and restricted for the
// resolved state, preserving request order and dropping duplicates.
func Partition(products []string, state string) (available, restricted []string) {
	available = []string{}
	restricted = []string{}
	seen := map[string]struct{}{}
	for _, product := range products {
		if _, dup := seen[product]; dup {
			continue
		}
		seen[product] = struct{}{}
		if Restricted(product, state) {
			restricted = append(restricted, product)
			continue
		}
		available = append(available, product)
	}
	return available, restricted
}

// StatesFor lists the restricted states for a product, sorted for stable output.
func StatesFor(product string) []string {
	states, ok := restrictedStates[product]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(states))
	for state := range states {
		out = append(out, state)
	}
	sort.Strings(out)
	return out
}
