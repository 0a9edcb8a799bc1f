package quotes

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product type tokens accepted by the API.
const (
	ProductVSC  = "vsc"
	ProductGAP  = "gap"
	ProductTire = "tire"
	ProductDent = "dent"
)

// ProductOrder is the canonical bucket order in response envelopes.
var ProductOrder = []string{ProductVSC, ProductGAP, ProductTire, ProductDent}

// KnownProduct reports whether the token names a sellable product type.
func KnownProduct(product string) bool {
	for _, p := range ProductOrder {
		if p == product {
			return true
		}
	}
	return false
}

// DealerDirect is the sentinel dealer id for consumer-direct requests.
const DealerDirect = "direct"

const (
	EligibilityEligible   = "eligible"
	EligibilityIneligible = "ineligible"
)

// CoverageDisclaimer is returned verbatim on every envelope.
const CoverageDisclaimer = "Coverage availability, pricing, and terms vary by state and vehicle condition. Final terms are confirmed at contract signing."

const (
	TagBestValue         = "Best Value"
	TagMostPopular       = "Most Popular"
	TagDealerRecommended = "Dealer Recommended"
)

type Vehicle struct {
	VIN     string
	Year    int
	Make    string
	Model   string
	Trim    string
	Mileage int
}

type Customer struct {
	ZIP   string
	State string
}

type Dealer struct {
	ID   string
	Name string
}

type Options struct {
	Price    float64
	Products []string
}

// QuoteRequest is the normalized provider request. Options.Products carries
// only the products that survived the state-restriction filter.
type QuoteRequest struct {
	Vehicle  Vehicle
	Customer Customer
	Dealer   Dealer
	Options  Options
}

type Term struct {
	Months int  `json:"months"`
	Miles  *int `json:"miles"`
}

type ProviderRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawQuote is a provider's pre-markup candidate quote.
type RawQuote struct {
	ProductType       string
	ProductID         string
	Provider          ProviderRef
	Name              string
	Description       string
	Term              Term
	Deductible        float64
	RetailPrice       float64
	DealerCost        float64
	Coverage          map[string]bool
	Exclusions        []string
	SampleContractURL string
}

// AggregatedQuote is the customer-facing record after markup and tagging.
type AggregatedQuote struct {
	ProductType       string          `json:"product_type"`
	ProductID         string          `json:"product_id"`
	Provider          ProviderRef     `json:"provider"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Term              Term            `json:"term"`
	Deductible        float64         `json:"deductible"`
	Price             float64         `json:"price"`
	Coverage          map[string]bool `json:"coverage"`
	Exclusions        []string        `json:"exclusions"`
	SampleContractURL string          `json:"sample_contract_url"`
	Tags              []string        `json:"tags"`
}

// ProviderInfo is one static registry entry.
type ProviderInfo struct {
	ID       string
	Name     string
	Products []string
	Markup   decimal.Decimal
	Priority int
}

// Supports reports whether the provider is configured for the product type.
func (p ProviderInfo) Supports(product string) bool {
	for _, candidate := range p.Products {
		if candidate == product {
			return true
		}
	}
	return false
}

// SupportsAny reports whether the provider covers at least one requested product.
func (p ProviderInfo) SupportsAny(products []string) bool {
	for _, product := range products {
		if p.Supports(product) {
			return true
		}
	}
	return false
}

// Source is a configured quote provider. Generate returns zero or more raw
// quotes for the requested, provider-supported product types, or fails.
type Source interface {
	Info() ProviderInfo
	Generate(ctx context.Context, req QuoteRequest) ([]RawQuote, error)
}

type StateRestrictions struct {
	RestrictedProducts []string `json:"restricted_products"`
	State              string   `json:"state"`
}

type Meta struct {
	VehicleEligibility string
	CoverageDisclaimer string
	StateRestrictions  *StateRestrictions
}

// MarshalJSON keeps state_restrictions an empty object when nothing is restricted.
func (m Meta) MarshalJSON() ([]byte, error) {
	out := struct {
		VehicleEligibility string `json:"vehicle_eligibility"`
		CoverageDisclaimer string `json:"coverage_disclaimer"`
		StateRestrictions  any    `json:"state_restrictions"`
	}{
		VehicleEligibility: m.VehicleEligibility,
		CoverageDisclaimer: m.CoverageDisclaimer,
		StateRestrictions:  struct{}{},
	}
	if m.StateRestrictions != nil {
		out.StateRestrictions = m.StateRestrictions
	}
	return json.Marshal(out)
}

// Bucket holds one product type's ordered quotes.
type Bucket struct {
	Product string
	Quotes  []AggregatedQuote
}

// AggregatedResponse is the assembled envelope: one key per available product
// type plus "meta". Buckets keep canonical product order so serialization is
// deterministic.
type AggregatedResponse struct {
	Buckets []Bucket
	Meta    Meta
}

// BucketFor returns the bucket for the product type, or nil.
func (r AggregatedResponse) BucketFor(product string) *Bucket {
	for i := range r.Buckets {
		if r.Buckets[i].Product == product {
			return &r.Buckets[i]
		}
	}
	return nil
}

func (r AggregatedResponse) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for _, bucket := range r.Buckets {
		key, err := json.Marshal(bucket.Product)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		quotes := bucket.Quotes
		if quotes == nil {
			quotes = []AggregatedQuote{}
		}
		body, err := json.Marshal(quotes)
		if err != nil {
			return nil, err
		}
		buf.Write(body)
		buf.WriteByte(',')
	}
	buf.WriteString(`"meta":`)
	meta, err := json.Marshal(r.Meta)
	if err != nil {
		return nil, err
	}
	buf.Write(meta)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
