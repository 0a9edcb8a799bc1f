package providers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/coverlane-ai/coverlane-backend/internal/quotes"
)

// registryEntries is the static provider configuration. Priority orders the
// merge (lower merges first); markup is the multiplier applied to each raw
// retail price.
var registryEntries = []quotes.ProviderInfo{
	{
		ID:       "apex",
		Name:     "Apex Warranty Group",
		Products: []string{quotes.ProductVSC, quotes.ProductGAP},
		Markup:   decimal.NewFromFloat(1.15),
		Priority: 1,
	},
	{
		ID:       "shieldplus",
		Name:     "ShieldPlus Protection",
		Products: []string{quotes.ProductVSC, quotes.ProductTire, quotes.ProductDent},
		Markup:   decimal.NewFromFloat(1.2),
		Priority: 2,
	},
	{
		ID:       "meridian",
		Name:     "Meridian Coverage Co",
		Products: []string{quotes.ProductGAP, quotes.ProductTire, quotes.ProductDent},
		Markup:   decimal.NewFromFloat(1.1),
		Priority: 3,
	},
	{
		ID:       "summit",
		Name:     "Summit Auto Care",
		Products: []string{quotes.ProductVSC, quotes.ProductGAP, quotes.ProductTire, quotes.ProductDent},
		Markup:   decimal.NewFromFloat(1.25),
		Priority: 4,
	},
}

// Registry returns the configured provider sources.
func Registry() []quotes.Source {
	return RegistryAt(time.Now)
}

// RegistryAt builds the registry with a pinned clock for deterministic tests.
func RegistryAt(now func() time.Time) []quotes.Source {
	sources := make([]quotes.Source, 0, len(registryEntries))
	for _, entry := range registryEntries {
		sources = append(sources, NewSimulatedAt(entry, now))
	}
	return sources
}
