package providers

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coverlane-ai/coverlane-backend/internal/quotes"
)

func fixedNow() time.Time {
	return time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
}

func testProvider(products ...string) *Simulated {
	return NewSimulatedAt(quotes.ProviderInfo{
		ID:       "apex",
		Name:     "Apex Warranty Group",
		Products: products,
		Markup:   decimal.NewFromFloat(1.15),
		Priority: 1,
	}, fixedNow)
}

func requestFor(products []string, year, mileage int, price float64) quotes.QuoteRequest {
	return quotes.QuoteRequest{
		Vehicle: quotes.Vehicle{
			VIN:     "1HGCM8263NA004352",
			Year:    year,
			Make:    "Honda",
			Model:   "Accord",
			Trim:    "Sport",
			Mileage: mileage,
		},
		Customer: quotes.Customer{ZIP: "75201", State: "TX"},
		Dealer:   quotes.Dealer{ID: quotes.DealerDirect},
		Options:  quotes.Options{Price: price, Products: products},
	}
}

func TestGenerateVSCAllTiers(t *testing.T) {
	t.Parallel()

	provider := testProvider(quotes.ProductVSC)
	// Age 4, mileage 30000: ageFactor 1.4, mileageFactor 1.225.
	raw, err := provider.Generate(context.Background(), requestFor([]string{quotes.ProductVSC}, 2022, 30000, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(raw))
	}

	wantRetail := map[string]float64{
		"apex-vsc-premium":  1372,
		"apex-vsc-standard": 1201,
		"apex-vsc-basic":    858,
	}
	wantDealer := map[string]float64{
		"apex-vsc-premium":  823,
		"apex-vsc-standard": 721,
		"apex-vsc-basic":    515,
	}
	for _, q := range raw {
		if q.ProductType != quotes.ProductVSC {
			t.Fatalf("unexpected product type %q", q.ProductType)
		}
		if got, want := q.RetailPrice, wantRetail[q.ProductID]; got != want {
			t.Fatalf("%s: retail %.2f, want %.2f", q.ProductID, got, want)
		}
		if got, want := q.DealerCost, wantDealer[q.ProductID]; got != want {
			t.Fatalf("%s: dealer cost %.2f, want %.2f", q.ProductID, got, want)
		}
		if q.Term.Miles == nil {
			t.Fatalf("%s: vsc terms carry a mileage cap", q.ProductID)
		}
		if q.Provider.ID != "apex" || q.Provider.Name != "Apex Warranty Group" {
			t.Fatalf("unexpected provider ref: %+v", q.Provider)
		}
	}
}

func TestGenerateVSCTierCutoffs(t *testing.T) {
	t.Parallel()

	provider := testProvider(quotes.ProductVSC)
	cases := []struct {
		name    string
		year    int
		mileage int
		tiers   int
	}{
		{name: "too old", year: 2010, mileage: 30000, tiers: 0},
		{name: "too many miles", year: 2022, mileage: 200000, tiers: 0},
		{name: "age drops premium", year: 2018, mileage: 30000, tiers: 2},
		{name: "mileage drops premium", year: 2022, mileage: 90000, tiers: 2},
		{name: "only basic", year: 2022, mileage: 110000, tiers: 1},
	}
	for _, tc := range cases {
		raw, err := provider.Generate(context.Background(), requestFor([]string{quotes.ProductVSC}, tc.year, tc.mileage, 0))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if len(raw) != tc.tiers {
			t.Fatalf("%s: expected %d tiers, got %d", tc.name, tc.tiers, len(raw))
		}
	}
}

func TestGenerateGAPScalesWithPrice(t *testing.T) {
	t.Parallel()

	provider := testProvider(quotes.ProductGAP)
	raw, err := provider.Generate(context.Background(), requestFor([]string{quotes.ProductGAP}, 2022, 30000, 25000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected 2 gap tiers, got %d", len(raw))
	}

	// base = 25000 * 0.02 = 500
	wantRetail := map[string]float64{
		"apex-gap-premium":  600,
		"apex-gap-standard": 500,
	}
	for _, q := range raw {
		if got, want := q.RetailPrice, wantRetail[q.ProductID]; got != want {
			t.Fatalf("%s: retail %.2f, want %.2f", q.ProductID, got, want)
		}
		if q.Term.Months != 72 || q.Term.Miles != nil {
			t.Fatalf("%s: unexpected term %+v", q.ProductID, q.Term)
		}
	}
}

func TestGenerateGAPRequiresPrice(t *testing.T) {
	t.Parallel()

	provider := testProvider(quotes.ProductGAP)
	raw, err := provider.Generate(context.Background(), requestFor([]string{quotes.ProductGAP}, 2022, 30000, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("expected no gap quotes without a vehicle price, got %d", len(raw))
	}
}

func TestGenerateFixedPriceProducts(t *testing.T) {
	t.Parallel()

	provider := testProvider(quotes.ProductTire, quotes.ProductDent)
	raw, err := provider.Generate(context.Background(), requestFor([]string{quotes.ProductTire, quotes.ProductDent}, 2022, 30000, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("expected 2 tire tiers + 1 dent quote, got %d", len(raw))
	}

	wantRetail := map[string]float64{
		"apex-tire-premium":  495,
		"apex-tire-basic":    395,
		"apex-dent-standard": 395,
	}
	for _, q := range raw {
		if got, want := q.RetailPrice, wantRetail[q.ProductID]; got != want {
			t.Fatalf("%s: retail %.2f, want %.2f", q.ProductID, got, want)
		}
	}
}

func TestGenerateSkipsUnsupportedProducts(t *testing.T) {
	t.Parallel()

	provider := testProvider(quotes.ProductVSC)
	raw, err := provider.Generate(context.Background(), requestFor([]string{quotes.ProductVSC, quotes.ProductGAP, quotes.ProductTire}, 2022, 30000, 25000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, q := range raw {
		if q.ProductType != quotes.ProductVSC {
			t.Fatalf("provider generated unsupported product %q", q.ProductType)
		}
	}
}

func TestGenerateHonorsCancellation(t *testing.T) {
	t.Parallel()

	provider := testProvider(quotes.ProductVSC)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := provider.Generate(ctx, requestFor([]string{quotes.ProductVSC}, 2022, 30000, 0)); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}

func TestRegistryConfiguration(t *testing.T) {
	t.Parallel()

	sources := RegistryAt(fixedNow)
	if len(sources) != 4 {
		t.Fatalf("expected 4 providers, got %d", len(sources))
	}

	wantProducts := map[string]int{
		"apex":       2,
		"shieldplus": 3,
		"meridian":   3,
		"summit":     4,
	}
	seen := map[string]bool{}
	for _, src := range sources {
		info := src.Info()
		seen[info.ID] = true
		if want, ok := wantProducts[info.ID]; !ok || len(info.Products) != want {
			t.Fatalf("provider %s: unexpected product set %v", info.ID, info.Products)
		}
		if info.Markup.LessThanOrEqual(decimal.NewFromInt(1)) {
			t.Fatalf("provider %s: markup must exceed 1, got %s", info.ID, info.Markup)
		}
		if info.Priority <= 0 {
			t.Fatalf("provider %s: priority must be positive", info.ID)
		}
	}
	for id := range wantProducts {
		if !seen[id] {
			t.Fatalf("registry missing provider %s", id)
		}
	}
}
