package quotes

import (
	"errors"

	quotesvc "github.com/coverlane-ai/coverlane-backend/internal/quotes"
	"github.com/coverlane-ai/coverlane-backend/internal/vehicles"
	pkgerrors "github.com/coverlane-ai/coverlane-backend/pkg/errors"
)

// CreateQuoteRequest is the POST /api/quotes payload. Products is validated by
// hand in the handler: a missing key is a 400, an empty list flows through so
// the pipeline can answer with an ineligible envelope.
type CreateQuoteRequest struct {
	VIN      string   `json:"vin" validate:"required,len=17"`
	ZIP      string   `json:"zip" validate:"required,len=5,numeric"`
	Mileage  int      `json:"mileage" validate:"min=0"`
	Price    float64  `json:"price" validate:"min=0"`
	Products []string `json:"products" validate:"omitempty,dive,oneof=vsc gap tire dent"`
	DealerID string   `json:"dealer_id,omitempty"`
}

func toQuoteInput(payload CreateQuoteRequest) quotesvc.QuoteInput {
	return quotesvc.QuoteInput{
		VIN:      payload.VIN,
		ZIP:      payload.ZIP,
		Mileage:  payload.Mileage,
		Price:    payload.Price,
		Products: payload.Products,
		DealerID: payload.DealerID,
	}
}

func mapVehicleError(err error) error {
	switch {
	case errors.Is(err, vehicles.ErrInvalidVIN):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vin").
			WithDetails(map[string]string{"vin": err.Error()})
	case errors.Is(err, vehicles.ErrUnknownMake):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "vehicle not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "vehicle lookup")
	}
}
