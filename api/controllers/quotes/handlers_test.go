package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/coverlane-ai/coverlane-backend/api/middleware"
	quotesvc "github.com/coverlane-ai/coverlane-backend/internal/quotes"
	"github.com/coverlane-ai/coverlane-backend/internal/vehicles"
	"github.com/coverlane-ai/coverlane-backend/pkg/config"
	pkgerrors "github.com/coverlane-ai/coverlane-backend/pkg/errors"
	"github.com/coverlane-ai/coverlane-backend/pkg/logger"
	"github.com/coverlane-ai/coverlane-backend/pkg/types"
)

type stubService struct {
	payload json.RawMessage
	err     error
	input   quotesvc.QuoteInput
	called  bool
}

func (s *stubService) Quote(_ context.Context, input quotesvc.QuoteInput) (json.RawMessage, error) {
	s.called = true
	s.input = input
	return s.payload, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func decodeErrorEnvelope(t *testing.T, body *bytes.Buffer) types.ErrorEnvelope {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("error envelope is not valid json: %v", err)
	}
	return envelope
}

func postQuote(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/quotes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"vin":"1HGCM8263NA004352","zip":"90210","mileage":45000,"price":28999,"products":["vsc","gap"]}`

func TestCreateReturnsEnvelopeVerbatim(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{"vsc":[],"meta":{"vehicle_eligibility":"eligible"}}`)
	svc := &stubService{payload: payload}
	rec := postQuote(Create(svc, testLogger()), validBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), payload) {
		t.Fatalf("body must be the service payload verbatim, got %s", rec.Body)
	}
	if svc.input.VIN != "1HGCM8263NA004352" || svc.input.ZIP != "90210" {
		t.Fatalf("unexpected service input: %+v", svc.input)
	}
	if len(svc.input.Products) != 2 {
		t.Fatalf("unexpected products: %v", svc.input.Products)
	}
}

func TestCreateMissingProductsKey(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	rec := postQuote(Create(svc, testLogger()),
		`{"vin":"1HGCM8263NA004352","zip":"90210","mileage":45000,"price":28999}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
	}
	if svc.called {
		t.Fatal("service must not run without a products key")
	}
	envelope := decodeErrorEnvelope(t, rec.Body)
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}

func TestCreateEmptyProductsListReachesService(t *testing.T) {
	t.Parallel()

	svc := &stubService{payload: json.RawMessage(`{"meta":{"vehicle_eligibility":"ineligible"}}`)}
	rec := postQuote(Create(svc, testLogger()),
		`{"vin":"1HGCM8263NA004352","zip":"90210","mileage":45000,"price":28999,"products":[]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if !svc.called {
		t.Fatal("an explicit empty product list flows through to the pipeline")
	}
	if svc.input.Products == nil || len(svc.input.Products) != 0 {
		t.Fatalf("expected an empty non-nil product list, got %#v", svc.input.Products)
	}
}

func TestCreateValidationFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"vin":`},
		{name: "unknown field", body: `{"vin":"1HGCM8263NA004352","zip":"90210","products":["vsc"],"color":"red"}`},
		{name: "short vin", body: `{"vin":"1HG","zip":"90210","products":["vsc"]}`},
		{name: "bad zip", body: `{"vin":"1HGCM8263NA004352","zip":"abcde","products":["vsc"]}`},
		{name: "unknown product", body: `{"vin":"1HGCM8263NA004352","zip":"90210","products":["warranty"]}`},
		{name: "negative mileage", body: `{"vin":"1HGCM8263NA004352","zip":"90210","mileage":-1,"products":["vsc"]}`},
	}
	for _, tc := range cases {
		svc := &stubService{}
		rec := postQuote(Create(svc, testLogger()), tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", tc.name, rec.Code, rec.Body)
		}
		if svc.called {
			t.Fatalf("%s: service must not run on invalid input", tc.name)
		}
	}
}

func TestCreatePropagatesServiceErrors(t *testing.T) {
	t.Parallel()

	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeValidation, "invalid vin")}
	rec := postQuote(Create(svc, testLogger()), validBody)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
	}
	envelope := decodeErrorEnvelope(t, rec.Body)
	if envelope.Error.Message != "invalid vin" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestCreateUsesAuthenticatedDealer(t *testing.T) {
	t.Parallel()

	cfg := config.AuthConfig{Enabled: true, Secret: "test-secret", Issuer: "coverlane"}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.DealerClaims{
		DealerID: "d-42",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "coverlane",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	svc := &stubService{payload: json.RawMessage(`{}`)}
	handler := middleware.Auth(cfg, testLogger())(Create(svc, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/quotes", strings.NewReader(validBody))
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if svc.input.DealerID != "d-42" {
		t.Fatalf("expected the token's dealer id, got %q", svc.input.DealerID)
	}
}

func TestCreateKeepsBodyDealerID(t *testing.T) {
	t.Parallel()

	svc := &stubService{payload: json.RawMessage(`{}`)}
	body := `{"vin":"1HGCM8263NA004352","zip":"90210","products":["vsc"],"dealer_id":"d-body"}`
	rec := postQuote(Create(svc, testLogger()), body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if svc.input.DealerID != "d-body" {
		t.Fatalf("expected the body dealer id, got %q", svc.input.DealerID)
	}
}

func vehicleRouter(handler http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/quotes/vehicle/{vin}", handler)
	return r
}

func TestVehicleLookupSuccess(t *testing.T) {
	t.Parallel()

	lookup := vehicles.NewLookupAt(func() time.Time {
		return time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	})
	router := vehicleRouter(VehicleLookup(lookup, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/vehicle/1HGCM8263NA004352", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var vehicle vehicles.Vehicle
	if err := json.NewDecoder(rec.Body).Decode(&vehicle); err != nil {
		t.Fatalf("body is not a vehicle: %v", err)
	}
	if vehicle.Make != "Honda" || vehicle.Year != 2022 {
		t.Fatalf("unexpected vehicle: %+v", vehicle)
	}
}

func TestVehicleLookupErrors(t *testing.T) {
	t.Parallel()

	lookup := vehicles.NewLookup()
	router := vehicleRouter(VehicleLookup(lookup, testLogger()))

	cases := []struct {
		name   string
		vin    string
		status int
	}{
		{name: "bad shape", vin: "123", status: http.StatusBadRequest},
		{name: "unknown make", vin: "ZZZCM8263NA004352", status: http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/quotes/vehicle/"+tc.vin, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.status, rec.Code, rec.Body)
		}
	}
}

func TestProductCatalog(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/products", nil)
	rec := httptest.NewRecorder()
	ProductCatalog(testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var products []struct {
		Type             string   `json:"type"`
		Name             string   `json:"name"`
		RestrictedStates []string `json:"restricted_states"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&products); err != nil {
		t.Fatalf("body is not a product list: %v", err)
	}
	if len(products) != 4 {
		t.Fatalf("expected 4 products, got %d", len(products))
	}
	if products[0].Type != "vsc" || products[1].Type != "gap" {
		t.Fatalf("unexpected catalog order: %+v", products)
	}
}
