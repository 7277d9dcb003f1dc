package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	inventorysvc "github.com/angelmondragon/sweetshop-backend/internal/inventory"
	purchasesvc "github.com/angelmondragon/sweetshop-backend/internal/purchases"
	sweetsvc "github.com/angelmondragon/sweetshop-backend/internal/sweets"
	"github.com/angelmondragon/sweetshop-backend/internal/users"
	pkgAuth "github.com/angelmondragon/sweetshop-backend/pkg/auth"
	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/pagination"
)

type stubUsers struct{}

func (stubUsers) Register(ctx context.Context, input users.RegisterInput) (*models.User, error) {
	return &models.User{ID: uuid.New(), Email: input.Email, Role: input.Role}, nil
}

func (stubUsers) Login(ctx context.Context, email, password string) (*users.LoginResult, error) {
	return &users.LoginResult{Token: "token", User: &models.User{ID: uuid.New(), Email: email}}, nil
}

type stubSweets struct{}

func (stubSweets) Create(ctx context.Context, input sweetsvc.CreateSweetInput) (*models.Sweet, error) {
	return &models.Sweet{ID: uuid.New(), Name: input.Name}, nil
}

func (stubSweets) Update(ctx context.Context, sweetID uuid.UUID, input sweetsvc.UpdateSweetInput) (*models.Sweet, error) {
	return &models.Sweet{ID: sweetID}, nil
}

func (stubSweets) Get(ctx context.Context, sweetID uuid.UUID) (*models.Sweet, error) {
	return &models.Sweet{ID: sweetID}, nil
}

func (stubSweets) List(ctx context.Context, filters sweetsvc.ListFilters, params pagination.Params) (*sweetsvc.ListResult, error) {
	return &sweetsvc.ListResult{}, nil
}

func (stubSweets) Delete(ctx context.Context, sweetID uuid.UUID) (sweetsvc.DeleteOutcome, error) {
	return sweetsvc.DeleteOutcomeHard, nil
}

type stubInventory struct{}

func (stubInventory) Restock(ctx context.Context, sweetID uuid.UUID, qty int, reason string) (*inventorysvc.RestockResult, error) {
	return &inventorysvc.RestockResult{}, nil
}

func (stubInventory) SetThresholds(ctx context.Context, sweetID uuid.UUID, input inventorysvc.ThresholdInput) (*models.Inventory, error) {
	return &models.Inventory{}, nil
}

func (stubInventory) Movements(ctx context.Context, filters inventorysvc.MovementFilters, params pagination.Params) (*inventorysvc.MovementPage, error) {
	return &inventorysvc.MovementPage{}, nil
}

func (stubInventory) LowStock(ctx context.Context) ([]inventorysvc.LowStockRow, error) {
	return nil, nil
}

func (stubInventory) Status(ctx context.Context) (*inventorysvc.Stats, error) {
	return &inventorysvc.Stats{}, nil
}

type stubPurchases struct{}

func (stubPurchases) Create(ctx context.Context, userID, sweetID uuid.UUID, qty int) (*models.Purchase, error) {
	return &models.Purchase{ID: uuid.New()}, nil
}

func (stubPurchases) Cancel(ctx context.Context, purchaseID, requestingUserID uuid.UUID) (*models.Purchase, error) {
	return &models.Purchase{ID: purchaseID}, nil
}

func (stubPurchases) UpdateStatus(ctx context.Context, purchaseID uuid.UUID, status enums.PurchaseStatus) (*models.Purchase, error) {
	return &models.Purchase{ID: purchaseID, Status: status}, nil
}

func (stubPurchases) Get(ctx context.Context, purchaseID, requesterID uuid.UUID, admin bool) (*models.Purchase, error) {
	return &models.Purchase{ID: purchaseID}, nil
}

func (stubPurchases) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*purchasesvc.ListResult, error) {
	return &purchasesvc.ListResult{}, nil
}

func (stubPurchases) ListAll(ctx context.Context, params pagination.Params) (*purchasesvc.ListResult, error) {
	return &purchasesvc.ListResult{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev, Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "sweetshop-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{
		ServiceName: "router-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
	return NewRouter(Deps{
		Config:    testConfig(),
		Logger:    logg,
		Users:     stubUsers{},
		Sweets:    stubSweets{},
		Inventory: stubInventory{},
		Purchases: stubPurchases{},
	})
}

func bearerFor(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "taster@example.com",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}
	return "Bearer " + token
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest("GET", "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRouterRequiresAuthentication(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest("GET", "/api/v1/sweets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRouterRoleGates(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		role   enums.UserRole
		want   int
	}{
		{"customer lists sweets", "GET", "/api/v1/sweets", "", enums.UserRoleCustomer, http.StatusOK},
		{"customer cannot create sweets", "POST", "/api/v1/sweets", `{"name":"Fudge","category":"candy","price":"2.50","initialQuantity":5}`, enums.UserRoleCustomer, http.StatusForbidden},
		{"admin creates sweets", "POST", "/api/v1/sweets", `{"name":"Fudge","category":"candy","price":"2.50","initialQuantity":5}`, enums.UserRoleAdmin, http.StatusCreated},
		{"customer cannot view inventory", "GET", "/api/v1/inventory", "", enums.UserRoleCustomer, http.StatusForbidden},
		{"admin views inventory", "GET", "/api/v1/inventory", "", enums.UserRoleAdmin, http.StatusOK},
		{"customer buys", "POST", "/api/v1/purchases", `{"sweetId":"` + uuid.NewString() + `","quantity":2}`, enums.UserRoleCustomer, http.StatusCreated},
		{"customer cannot list all purchases", "GET", "/api/v1/purchases/all", "", enums.UserRoleCustomer, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req := httptest.NewRequest(tc.method, tc.path, body)
			req.Header.Set("Authorization", bearerFor(t, tc.role))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestRouterAdminRegisterHiddenInProd(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.Disabled, Output: io.Discard})
	cfg := testConfig()
	cfg.App.Env = config.AppEnvProd
	router := NewRouter(Deps{
		Config:    cfg,
		Logger:    logg,
		Users:     stubUsers{},
		Sweets:    stubSweets{},
		Inventory: stubInventory{},
		Purchases: stubPurchases{},
	})

	req := httptest.NewRequest("POST", "/api/v1/auth/register-admin", strings.NewReader(`{"email":"a@b.co","password":"longenough","firstName":"A","lastName":"B"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want route absent in production", rec.Code)
	}
}
