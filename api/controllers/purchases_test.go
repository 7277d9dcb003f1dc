package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/angelmondragon/sweetshop-backend/api/middleware"
	purchasesvc "github.com/angelmondragon/sweetshop-backend/internal/purchases"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/angelmondragon/sweetshop-backend/pkg/pagination"
	"github.com/angelmondragon/sweetshop-backend/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "controllers-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

type fakePurchases struct {
	createErr error
	created   *models.Purchase
	gotUser   uuid.UUID
	gotSweet  uuid.UUID
	gotQty    int
}

func (f *fakePurchases) Create(ctx context.Context, userID, sweetID uuid.UUID, qty int) (*models.Purchase, error) {
	f.gotUser, f.gotSweet, f.gotQty = userID, sweetID, qty
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created == nil {
		f.created = &models.Purchase{ID: uuid.New(), UserID: userID, SweetID: sweetID, Quantity: qty}
	}
	return f.created, nil
}

func (f *fakePurchases) Cancel(ctx context.Context, purchaseID, requestingUserID uuid.UUID) (*models.Purchase, error) {
	return &models.Purchase{ID: purchaseID, Status: enums.PurchaseStatusCancelled}, nil
}

func (f *fakePurchases) UpdateStatus(ctx context.Context, purchaseID uuid.UUID, status enums.PurchaseStatus) (*models.Purchase, error) {
	return &models.Purchase{ID: purchaseID, Status: status}, nil
}

func (f *fakePurchases) Get(ctx context.Context, purchaseID, requesterID uuid.UUID, admin bool) (*models.Purchase, error) {
	return &models.Purchase{ID: purchaseID}, nil
}

func (f *fakePurchases) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*purchasesvc.ListResult, error) {
	return &purchasesvc.ListResult{}, nil
}

func (f *fakePurchases) ListAll(ctx context.Context, params pagination.Params) (*purchasesvc.ListResult, error) {
	return &purchasesvc.ListResult{}, nil
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(ctx)
}

func TestCreatePurchasePassesThrough(t *testing.T) {
	svc := &fakePurchases{}
	userID := uuid.New()
	sweetID := uuid.New()

	req := authedRequest("POST", "/purchases", `{"sweetId":"`+sweetID.String()+`","quantity":3}`, userID)
	rec := httptest.NewRecorder()
	CreatePurchase(svc, testLogger())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if svc.gotUser != userID || svc.gotSweet != sweetID || svc.gotQty != 3 {
		t.Fatalf("service received %v %v %d", svc.gotUser, svc.gotSweet, svc.gotQty)
	}
}

func TestCreatePurchaseRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing sweet", `{"quantity":3}`},
		{"zero quantity", `{"sweetId":"` + uuid.NewString() + `","quantity":0}`},
		{"over limit", `{"sweetId":"` + uuid.NewString() + `","quantity":101}`},
		{"not json", `{`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakePurchases{}
			req := authedRequest("POST", "/purchases", tc.body, uuid.New())
			rec := httptest.NewRecorder()
			CreatePurchase(svc, testLogger())(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if svc.gotQty != 0 {
				t.Fatal("service reached with invalid payload")
			}
		})
	}
}

func TestCreatePurchaseRequiresUserContext(t *testing.T) {
	req := httptest.NewRequest("POST", "/purchases", strings.NewReader(`{"sweetId":"`+uuid.NewString()+`","quantity":1}`))
	rec := httptest.NewRecorder()
	CreatePurchase(&fakePurchases{}, testLogger())(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreatePurchaseSurfacesOutOfStockEnvelope(t *testing.T) {
	svc := &fakePurchases{
		createErr: pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock: only 4 available").
			WithDetails(map[string]any{"available": 4}),
	}
	req := authedRequest("POST", "/purchases", `{"sweetId":"`+uuid.NewString()+`","quantity":9}`, uuid.New())
	rec := httptest.NewRecorder()
	CreatePurchase(svc, testLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var envelope types.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Success || !strings.Contains(envelope.Message, "4 available") {
		t.Fatalf("envelope = %+v", envelope)
	}
}

func TestCancelPurchaseParsesPathParam(t *testing.T) {
	purchaseID := uuid.New()
	r := chi.NewRouter()
	r.Put("/purchases/{purchaseId}/cancel", CancelPurchase(&fakePurchases{}, testLogger()))

	req := authedRequest("PUT", "/purchases/"+purchaseID.String()+"/cancel", "", uuid.New())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	req = authedRequest("PUT", "/purchases/not-a-uuid/cancel", "", uuid.New())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad id", rec.Code)
	}
}

func TestUpdatePurchaseStatusRejectsUnknownStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Put("/purchases/{purchaseId}/status", UpdatePurchaseStatus(&fakePurchases{}, testLogger()))

	req := authedRequest("PUT", "/purchases/"+uuid.NewString()+"/status", `{"status":"SHIPPED"}`, uuid.New())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
