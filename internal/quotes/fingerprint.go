package quotes

import (
	"strconv"
	"strings"
)

const fingerprintDelimiter = "|"

// Fingerprint derives the deterministic cache key for a quote lookup. The
// product list is joined in the order submitted: reordered product lists
// fingerprint differently and miss the cache (see DESIGN.md).
func Fingerprint(input QuoteInput) string {
	dealer := strings.TrimSpace(input.DealerID)
	if dealer == "" {
		dealer = DealerDirect
	}
	parts := []string{
		strings.ToUpper(strings.TrimSpace(input.VIN)),
		strings.TrimSpace(input.ZIP),
		strconv.Itoa(input.Mileage),
		strconv.FormatFloat(input.Price, 'f', -1, 64),
		strings.Join(input.Products, ","),
		dealer,
	}
	return strings.Join(parts, fingerprintDelimiter)
}
