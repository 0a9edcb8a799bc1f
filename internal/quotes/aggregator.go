package quotes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/coverlane-ai/coverlane-backend/pkg/logger"
	"github.com/coverlane-ai/coverlane-backend/pkg/metrics"
)

// Aggregator fans a normalized quote request out to every eligible provider,
// merges the surviving quotes into per-product buckets, applies markup, and
// tags notable entries. It never fails: provider errors degrade to empty
// result sets.
type Aggregator struct {
	sources []Source
	timeout time.Duration
	logg    *logger.Logger
	metrics *metrics.AggregatorMetrics
}

func NewAggregator(sources []Source, timeout time.Duration, logg *logger.Logger, m *metrics.AggregatorMetrics) *Aggregator {
	ordered := make([]Source, len(sources))
	copy(ordered, sources)
	// Priority fixes the merge order, which makes tie-breaks on equal prices
	// deterministic even though the calls themselves run in parallel.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Info().Priority < ordered[j].Info().Priority
	})
	return &Aggregator{
		sources: ordered,
		timeout: timeout,
		logg:    logg,
		metrics: m,
	}
}

// providerResult is the captured outcome of one provider call: either quotes
// or a failure reason, never a propagated panic or abort.
type providerResult struct {
	info   ProviderInfo
	quotes []RawQuote
	err    error
}

// Aggregate runs the full pipeline for products that survived the restriction
// filter (req.Options.Products). The restricted list only feeds envelope
// metadata.
func (a *Aggregator) Aggregate(ctx context.Context, req QuoteRequest, restricted []string) AggregatedResponse {
	start := time.Now()

	results := a.fanOut(ctx, req)
	buckets := a.merge(req, results)
	for i := range buckets {
		tagBucket(&buckets[i], req.Dealer.ID)
	}

	resp := AggregatedResponse{
		Buckets: buckets,
		Meta: Meta{
			VehicleEligibility: EligibilityEligible,
			CoverageDisclaimer: CoverageDisclaimer,
		},
	}
	if len(restricted) > 0 {
		resp.Meta.StateRestrictions = &StateRestrictions{
			RestrictedProducts: restricted,
			State:              req.Customer.State,
		}
	}

	a.metrics.ObserveAggregation("ok", time.Since(start))
	return resp
}

// fanOut invokes every eligible provider concurrently and waits for all calls
// to settle. A panicking or failing provider contributes an error result, not
// an aborted batch.
func (a *Aggregator) fanOut(ctx context.Context, req QuoteRequest) []providerResult {
	eligible := make([]Source, 0, len(a.sources))
	for _, src := range a.sources {
		if src.Info().SupportsAny(req.Options.Products) {
			eligible = append(eligible, src)
		}
	}

	results := make([]providerResult, len(eligible))
	var wg sync.WaitGroup
	for i, src := range eligible {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i] = a.callProvider(ctx, src, req)
		}(i, src)
	}
	wg.Wait()

	var failures error
	for _, res := range results {
		outcome := "ok"
		if res.err != nil {
			outcome = "error"
			failures = multierr.Append(failures, res.err)
		}
		a.metrics.IncProviderCall(res.info.ID, outcome)
	}
	if failures != nil && a.logg != nil {
		a.logg.Warn(a.logg.WithField(ctx, "errors", failures.Error()), "quotes.provider_failures")
	}

	return results
}

func (a *Aggregator) callProvider(ctx context.Context, src Source, req QuoteRequest) (res providerResult) {
	res.info = src.Info()
	defer func() {
		if rec := recover(); rec != nil {
			res.quotes = nil
			res.err = &providerPanicError{provider: res.info.ID, value: rec}
		}
	}()

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	res.quotes, res.err = src.Generate(callCtx, req)
	return res
}

// merge builds one bucket per available product type and appends every
// surviving raw quote with its marked-up price, preserving fan-out order.
func (a *Aggregator) merge(req QuoteRequest, results []providerResult) []Bucket {
	available := map[string]int{}
	buckets := make([]Bucket, 0, len(req.Options.Products))
	for _, product := range ProductOrder {
		if !containsProduct(req.Options.Products, product) {
			continue
		}
		available[product] = len(buckets)
		buckets = append(buckets, Bucket{Product: product, Quotes: []AggregatedQuote{}})
	}

	for _, res := range results {
		if res.err != nil {
			continue
		}
		for _, raw := range res.quotes {
			idx, ok := available[raw.ProductType]
			if !ok {
				continue
			}
			buckets[idx].Quotes = append(buckets[idx].Quotes, markUp(raw, res.info))
		}
	}

	for i := range buckets {
		sort.SliceStable(buckets[i].Quotes, func(a, b int) bool {
			return buckets[i].Quotes[a].Price < buckets[i].Quotes[b].Price
		})
	}

	return buckets
}

// markUp converts a raw provider quote into its display shape with
// price = round(retail_price × markup, 2).
func markUp(raw RawQuote, info ProviderInfo) AggregatedQuote {
	price := decimal.NewFromFloat(raw.RetailPrice).Mul(info.Markup).Round(2)
	return AggregatedQuote{
		ProductType:       raw.ProductType,
		ProductID:         raw.ProductID,
		Provider:          raw.Provider,
		Name:              raw.Name,
		Description:       raw.Description,
		Term:              raw.Term,
		Deductible:        raw.Deductible,
		Price:             price.InexactFloat64(),
		Coverage:          raw.Coverage,
		Exclusions:        raw.Exclusions,
		SampleContractURL: raw.SampleContractURL,
		Tags:              []string{},
	}
}

// tagBucket applies the ranking tags to a price-sorted bucket.
func tagBucket(bucket *Bucket, dealerID string) {
	n := len(bucket.Quotes)
	if n == 0 {
		return
	}

	bucket.Quotes[0].Tags = append(bucket.Quotes[0].Tags, TagBestValue)

	popular := 1
	if popular > n-1 {
		popular = n - 1
	}
	bucket.Quotes[popular].Tags = append(bucket.Quotes[popular].Tags, TagMostPopular)

	if dealerID != "" && dealerID != DealerDirect && n > 2 {
		bucket.Quotes[2].Tags = append(bucket.Quotes[2].Tags, TagDealerRecommended)
	}
}

func containsProduct(products []string, product string) bool {
	for _, p := range products {
		if p == product {
			return true
		}
	}
	return false
}

type providerPanicError struct {
	provider string
	value    any
}

func (e *providerPanicError) Error() string {
	return "provider " + e.provider + " panicked during quote generation"
}
