// Package catalog serves the static descriptors for the four protection
// products the aggregator can quote.
package catalog

import (
	"github.com/coverlane-ai/coverlane-backend/internal/quotes"
	"github.com/coverlane-ai/coverlane-backend/internal/restrictions"
)

type Product struct {
	Type             string   `json:"type"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	RestrictedStates []string `json:"restricted_states,omitempty"`
}

var descriptors = map[string]Product{
	quotes.ProductVSC: {
		Type:        quotes.ProductVSC,
		Name:        "Vehicle Service Contract",
		Description: "Mechanical breakdown protection covering major vehicle systems after the factory warranty ends.",
	},
	quotes.ProductGAP: {
		Type:        quotes.ProductGAP,
		Name:        "Guaranteed Asset Protection",
		Description: "Covers the difference between the insurance payout and the loan balance if the vehicle is totaled.",
	},
	quotes.ProductTire: {
		Type:        quotes.ProductTire,
		Name:        "Tire & Wheel Protection",
		Description: "Repair or replacement of tires and wheels damaged by road hazards.",
	},
	quotes.ProductDent: {
		Type:        quotes.ProductDent,
		Name:        "Dent & Ding Protection",
		Description: "Paintless dent repair for minor door dings and creases.",
	},
}

// Products returns the catalog in canonical product order.
func Products() []Product {
	out := make([]Product, 0, len(quotes.ProductOrder))
	for _, productType := range quotes.ProductOrder {
		descriptor := descriptors[productType]
		descriptor.RestrictedStates = restrictions.StatesFor(productType)
		out = append(out, descriptor)
	}
	return out
}
