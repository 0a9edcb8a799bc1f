package quotes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coverlane-ai/coverlane-backend/api/middleware"
	"github.com/coverlane-ai/coverlane-backend/api/responses"
	"github.com/coverlane-ai/coverlane-backend/api/validators"
	"github.com/coverlane-ai/coverlane-backend/internal/catalog"
	quotesvc "github.com/coverlane-ai/coverlane-backend/internal/quotes"
	"github.com/coverlane-ai/coverlane-backend/internal/vehicles"
	pkgerrors "github.com/coverlane-ai/coverlane-backend/pkg/errors"
	"github.com/coverlane-ai/coverlane-backend/pkg/logger"
)

// Create handles POST /api/quotes: the aggregation pipeline behind one call.
func Create(svc quotesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var payload CreateQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Products == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
					WithDetails(map[string]string{"products": "is required"}))
			return
		}

		input := toQuoteInput(payload)
		if input.DealerID == "" {
			// An authenticated dealer integration quotes on its own behalf.
			input.DealerID = middleware.DealerIDFromContext(r.Context())
		}

		envelope, err := svc.Quote(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteRawJSON(w, http.StatusOK, envelope)
	}
}

// VehicleLookup handles GET /api/quotes/vehicle/{vin}.
func VehicleLookup(lookup *vehicles.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lookup == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle lookup unavailable"))
			return
		}

		vin := chi.URLParam(r, "vin")
		vehicle, err := lookup.DecodeVIN(vin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, mapVehicleError(err))
			return
		}

		responses.WriteSuccess(w, vehicle)
	}
}

// ProductCatalog handles GET /api/quotes/products.
func ProductCatalog(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, catalog.Products())
	}
}
