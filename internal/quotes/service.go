package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coverlane-ai/coverlane-backend/internal/restrictions"
	"github.com/coverlane-ai/coverlane-backend/internal/vehicles"
	pkgerrors "github.com/coverlane-ai/coverlane-backend/pkg/errors"
	"github.com/coverlane-ai/coverlane-backend/pkg/logger"
	"github.com/coverlane-ai/coverlane-backend/pkg/metrics"
)

// QuoteInput is the boundary-validated request payload.
type QuoteInput struct {
	VIN      string
	ZIP      string
	Mileage  int
	Price    float64
	Products []string
	DealerID string
}

// VehicleResolver is the vehicle/location lookup collaborator.
type VehicleResolver interface {
	DecodeVIN(vin string) (vehicles.Vehicle, error)
	StateForZIP(zip string) (string, error)
}

// Service runs the quote pipeline: resolve, restrict, aggregate, cache.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (json.RawMessage, error)
}

type service struct {
	aggregator *Aggregator
	resolver   VehicleResolver
	cache      Cache
	cacheTTL   time.Duration
	logg       *logger.Logger
	metrics    *metrics.AggregatorMetrics
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Aggregator *Aggregator
	Resolver   VehicleResolver
	Cache      Cache
	CacheTTL   time.Duration
	Logger     *logger.Logger
	Metrics    *metrics.AggregatorMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Aggregator == nil {
		return nil, fmt.Errorf("aggregator required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("vehicle resolver required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("cache required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 600 * time.Second
	}
	return &service{
		aggregator: params.Aggregator,
		resolver:   params.Resolver,
		cache:      params.Cache,
		cacheTTL:   ttl,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

func (s *service) Quote(ctx context.Context, input QuoteInput) (json.RawMessage, error) {
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	fingerprint := Fingerprint(input)
	if payload, ok := s.cache.Get(ctx, fingerprint); ok {
		s.metrics.IncCacheLookup("hit")
		if s.logg != nil {
			s.logg.Debug(s.logg.WithField(ctx, "fingerprint", fingerprint), "quotes.cache_hit")
		}
		return payload, nil
	}
	s.metrics.IncCacheLookup("miss")

	vehicle, err := s.resolver.DecodeVIN(input.VIN)
	if err != nil {
		return nil, mapLookupError(err)
	}
	state, err := s.resolver.StateForZIP(input.ZIP)
	if err != nil {
		return nil, mapLookupError(err)
	}

	available, restricted := restrictions.Partition(input.Products, state)
	if len(available) == 0 {
		// Nothing can be quoted in this state, so no provider is called and
		// nothing is cached.
		return marshalEnvelope(ineligibleEnvelope(state, restricted))
	}

	req := QuoteRequest{
		Vehicle: Vehicle{
			VIN:     vehicle.VIN,
			Year:    vehicle.Year,
			Make:    vehicle.Make,
			Model:   vehicle.Model,
			Trim:    vehicle.Trim,
			Mileage: input.Mileage,
		},
		Customer: Customer{ZIP: input.ZIP, State: state},
		Dealer:   Dealer{ID: dealerOrDirect(input.DealerID)},
		Options:  Options{Price: input.Price, Products: available},
	}

	envelope := s.aggregator.Aggregate(ctx, req, restricted)
	payload, err := marshalEnvelope(envelope)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, fingerprint, payload, s.cacheTTL)
	return payload, nil
}

func normalizeInput(input QuoteInput) QuoteInput {
	input.VIN = strings.ToUpper(strings.TrimSpace(input.VIN))
	input.ZIP = strings.TrimSpace(input.ZIP)
	input.DealerID = strings.TrimSpace(input.DealerID)
	products := make([]string, 0, len(input.Products))
	for _, product := range input.Products {
		products = append(products, strings.ToLower(strings.TrimSpace(product)))
	}
	input.Products = products
	return input
}

func validateInput(input QuoteInput) error {
	details := map[string]string{}
	if input.VIN == "" {
		details["vin"] = "is required"
	}
	if input.ZIP == "" {
		details["zip"] = "is required"
	}
	if input.Mileage < 0 {
		details["mileage"] = "must be non-negative"
	}
	if input.Price < 0 {
		details["price"] = "must be non-negative"
	}
	for _, product := range input.Products {
		if !KnownProduct(product) {
			details["products"] = fmt.Sprintf("unknown product type %q", product)
			break
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func dealerOrDirect(dealerID string) string {
	if dealerID == "" {
		return DealerDirect
	}
	return dealerID
}

func ineligibleEnvelope(state string, restricted []string) AggregatedResponse {
	meta := Meta{
		VehicleEligibility: EligibilityIneligible,
		CoverageDisclaimer: CoverageDisclaimer,
	}
	if len(restricted) > 0 {
		meta.StateRestrictions = &StateRestrictions{
			RestrictedProducts: restricted,
			State:              state,
		}
	}
	return AggregatedResponse{Meta: meta}
}

func marshalEnvelope(envelope AggregatedResponse) (json.RawMessage, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize envelope")
	}
	return payload, nil
}

func mapLookupError(err error) error {
	switch {
	case errors.Is(err, vehicles.ErrInvalidVIN):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vin").
			WithDetails(map[string]string{"vin": err.Error()})
	case errors.Is(err, vehicles.ErrUnknownMake):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "vin could not be decoded").
			WithDetails(map[string]string{"vin": err.Error()})
	case errors.Is(err, vehicles.ErrInvalidZIP), errors.Is(err, vehicles.ErrUnknownZIP):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid zip").
			WithDetails(map[string]string{"zip": err.Error()})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "vehicle lookup")
	}
}
