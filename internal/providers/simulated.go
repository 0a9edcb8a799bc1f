// Package providers holds the static provider registry and the simulated
// quote generator each registry entry runs. The four providers share one
// generation capability configured per entry; a network-backed client would
// slot in behind the same quotes.Source interface.
package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coverlane-ai/coverlane-backend/internal/quotes"
)

// Simulated generates deterministic candidate quotes from vehicle and deal
// attributes. No randomness, no external state.
type Simulated struct {
	info quotes.ProviderInfo
	now  func() time.Time
}

func NewSimulated(info quotes.ProviderInfo) *Simulated {
	return &Simulated{info: info, now: time.Now}
}

// NewSimulatedAt pins the generator's clock so vehicle age is reproducible.
func NewSimulatedAt(info quotes.ProviderInfo, now func() time.Time) *Simulated {
	if now == nil {
		now = time.Now
	}
	return &Simulated{info: info, now: now}
}

func (s *Simulated) Info() quotes.ProviderInfo {
	return s.info
}

// Generate produces quotes for every requested product type the provider
// supports. Real transports fail with provider-unavailable errors; the
// simulation only honors cancellation.
func (s *Simulated) Generate(ctx context.Context, req quotes.QuoteRequest) ([]quotes.RawQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("provider %s: %w", s.info.ID, err)
	}

	var out []quotes.RawQuote
	for _, product := range req.Options.Products {
		if !s.info.Supports(product) {
			continue
		}
		switch product {
		case quotes.ProductVSC:
			out = append(out, s.vscQuotes(req.Vehicle)...)
		case quotes.ProductGAP:
			out = append(out, s.gapQuotes(req.Options.Price)...)
		case quotes.ProductTire:
			out = append(out, s.tireQuotes()...)
		case quotes.ProductDent:
			out = append(out, s.dentQuotes()...)
		}
	}
	return out, nil
}

const (
	vscMaxAge     = 12
	vscMaxMileage = 150000
)

type vscTier struct {
	name       string
	maxAge     int
	maxMileage int
	base       int64
	months     int
	miles      int
	deductible float64
	coverage   map[string]bool
}

var vscTiers = []vscTier{
	{
		name: "Premium", maxAge: 7, maxMileage: 85000, base: 800,
		months: 72, miles: 100000, deductible: 0,
		coverage: map[string]bool{"engine": true, "transmission": true, "electrical": true, "ac": true, "suspension": true},
	},
	{
		name: "Standard", maxAge: 10, maxMileage: 100000, base: 700,
		months: 60, miles: 75000, deductible: 100,
		coverage: map[string]bool{"engine": true, "transmission": true, "electrical": true, "ac": false, "suspension": false},
	},
	{
		name: "Basic", maxAge: 12, maxMileage: 120000, base: 500,
		months: 36, miles: 50000, deductible: 250,
		coverage: map[string]bool{"engine": true, "transmission": true, "electrical": false, "ac": false, "suspension": false},
	},
}

// vscQuotes prices service contracts off vehicle age and mileage. Tiers are
// checked independently: a young low-mileage vehicle qualifies for all three.
func (s *Simulated) vscQuotes(vehicle quotes.Vehicle) []quotes.RawQuote {
	age := s.now().Year() - vehicle.Year
	if age > vscMaxAge || vehicle.Mileage > vscMaxMileage {
		return nil
	}

	ageFactor := decimal.NewFromInt(1).Add(
		decimal.NewFromInt(int64(age)).Mul(decimal.NewFromFloat(0.1)))
	mileageFactor := decimal.NewFromInt(1).Add(
		decimal.NewFromInt(int64(vehicle.Mileage)).
			Div(decimal.NewFromInt(20000)).
			Mul(decimal.NewFromFloat(0.15)))

	var out []quotes.RawQuote
	for _, tier := range vscTiers {
		if age > tier.maxAge || vehicle.Mileage > tier.maxMileage {
			continue
		}
		retail := decimal.NewFromInt(tier.base).Mul(ageFactor).Mul(mileageFactor).Round(0)
		dealer := retail.Mul(decimal.NewFromFloat(0.6)).Round(0)
		miles := tier.miles
		out = append(out, quotes.RawQuote{
			ProductType:       quotes.ProductVSC,
			ProductID:         s.productID(quotes.ProductVSC, tier.name),
			Provider:          s.ref(),
			Name:              fmt.Sprintf("%s VSC", tier.name),
			Description:       fmt.Sprintf("%d-month / %d-mile vehicle service contract.", tier.months, tier.miles),
			Term:              quotes.Term{Months: tier.months, Miles: &miles},
			Deductible:        tier.deductible,
			RetailPrice:       retail.InexactFloat64(),
			DealerCost:        dealer.InexactFloat64(),
			Coverage:          tier.coverage,
			Exclusions:        []string{"pre-existing conditions", "routine maintenance", "commercial use"},
			SampleContractURL: s.contractURL(quotes.ProductVSC, tier.name),
		})
	}
	return out
}

// gapQuotes prices loan-gap coverage as a fraction of the vehicle price.
func (s *Simulated) gapQuotes(price float64) []quotes.RawQuote {
	if price <= 0 {
		return nil
	}
	base := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(0.02))

	tiers := []struct {
		name     string
		retail   decimal.Decimal
		dealer   decimal.Decimal
		coverage map[string]bool
	}{
		{
			name:     "Premium",
			retail:   base.Mul(decimal.NewFromFloat(1.2)).Round(0),
			dealer:   base.Mul(decimal.NewFromFloat(0.7)).Round(0),
			coverage: map[string]bool{"loan_balance": true, "deductible_reimbursement": true},
		},
		{
			name:     "Standard",
			retail:   base.Round(0),
			dealer:   base.Mul(decimal.NewFromFloat(0.6)).Round(0),
			coverage: map[string]bool{"loan_balance": true, "deductible_reimbursement": false},
		},
	}

	out := make([]quotes.RawQuote, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, quotes.RawQuote{
			ProductType:       quotes.ProductGAP,
			ProductID:         s.productID(quotes.ProductGAP, tier.name),
			Provider:          s.ref(),
			Name:              fmt.Sprintf("%s GAP", tier.name),
			Description:       "Guaranteed asset protection for the life of the loan.",
			Term:              quotes.Term{Months: 72, Miles: nil},
			Deductible:        0,
			RetailPrice:       tier.retail.InexactFloat64(),
			DealerCost:        tier.dealer.InexactFloat64(),
			Coverage:          tier.coverage,
			Exclusions:        []string{"lease buyouts", "balloon payments"},
			SampleContractURL: s.contractURL(quotes.ProductGAP, tier.name),
		})
	}
	return out
}

func (s *Simulated) tireQuotes() []quotes.RawQuote {
	tiers := []struct {
		name           string
		retail, dealer float64
		coverage       map[string]bool
	}{
		{name: "Premium", retail: 495, dealer: 295, coverage: map[string]bool{"tires": true, "wheels": true, "cosmetic_wheel_repair": true}},
		{name: "Basic", retail: 395, dealer: 235, coverage: map[string]bool{"tires": true, "wheels": true, "cosmetic_wheel_repair": false}},
	}
	out := make([]quotes.RawQuote, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, quotes.RawQuote{
			ProductType:       quotes.ProductTire,
			ProductID:         s.productID(quotes.ProductTire, tier.name),
			Provider:          s.ref(),
			Name:              fmt.Sprintf("%s Tire & Wheel", tier.name),
			Description:       "Road-hazard tire and wheel repair or replacement.",
			Term:              quotes.Term{Months: 36, Miles: nil},
			Deductible:        0,
			RetailPrice:       tier.retail,
			DealerCost:        tier.dealer,
			Coverage:          tier.coverage,
			Exclusions:        []string{"off-road damage", "racing", "vandalism"},
			SampleContractURL: s.contractURL(quotes.ProductTire, tier.name),
		})
	}
	return out
}

func (s *Simulated) dentQuotes() []quotes.RawQuote {
	return []quotes.RawQuote{{
		ProductType:       quotes.ProductDent,
		ProductID:         s.productID(quotes.ProductDent, "Standard"),
		Provider:          s.ref(),
		Name:              "Dent & Ding",
		Description:       "Paintless dent repair for minor dents and dings.",
		Term:              quotes.Term{Months: 36, Miles: nil},
		Deductible:        0,
		RetailPrice:       395,
		DealerCost:        235,
		Coverage:          map[string]bool{"paintless_repair": true, "hail_damage": false},
		Exclusions:        []string{"panel replacement", "paint work", "hail damage"},
		SampleContractURL: s.contractURL(quotes.ProductDent, "Standard"),
	}}
}

func (s *Simulated) ref() quotes.ProviderRef {
	return quotes.ProviderRef{ID: s.info.ID, Name: s.info.Name}
}

func (s *Simulated) productID(product, tier string) string {
	return fmt.Sprintf("%s-%s-%s", s.info.ID, product, toLowerASCII(tier))
}

func (s *Simulated) contractURL(product, tier string) string {
	return fmt.Sprintf("https://contracts.coverlane.com/%s/%s-%s.pdf", s.info.ID, product, toLowerASCII(tier))
}

func toLowerASCII(v string) string {
	out := []byte(v)
	for i, c := range out {
		if c >= 'A' && c <= 'Z' {
			out[i] = c + ('a' - 'A')
		}
	}
	return string(out)
}
