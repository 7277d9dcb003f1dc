package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/sweetshop-backend/api/controllers"
	"github.com/angelmondragon/sweetshop-backend/api/middleware"
	inventorysvc "github.com/angelmondragon/sweetshop-backend/internal/inventory"
	purchasesvc "github.com/angelmondragon/sweetshop-backend/internal/purchases"
	sweetsvc "github.com/angelmondragon/sweetshop-backend/internal/sweets"
	"github.com/angelmondragon/sweetshop-backend/internal/users"
	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/angelmondragon/sweetshop-backend/pkg/metrics"
)

// Pinger is the dependency health surface the readiness probe checks.
type Pinger = controllers.Pinger

// Deps bundles everything the router wires together.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        Pinger
	Redis     Pinger
	Metrics   *metrics.HTTPMetrics
	Gatherer  prometheus.Gatherer
	Users     users.Service
	Sweets    sweetsvc.Service
	Inventory inventorysvc.Service
	Purchases purchasesvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(deps.Users, logg))
		r.Post("/login", controllers.AuthLogin(deps.Users, logg))
		if !cfg.App.IsProd() {
			r.Post("/register-admin", controllers.AdminAuthRegister(deps.Users, logg))
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/sweets", func(r chi.Router) {
			r.Get("/", controllers.ListSweets(deps.Sweets, logg))
			r.Get("/{sweetId}", controllers.GetSweet(deps.Sweets, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
				r.Post("/", controllers.CreateSweet(deps.Sweets, logg))
				r.Put("/{sweetId}", controllers.UpdateSweet(deps.Sweets, logg))
				r.Delete("/{sweetId}", controllers.DeleteSweet(deps.Sweets, logg))
			})
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Post("/", controllers.CreatePurchase(deps.Purchases, logg))
			r.Get("/", controllers.ListPurchases(deps.Purchases, logg))
			r.Get("/{purchaseId}", controllers.GetPurchase(deps.Purchases, logg))
			r.Put("/{purchaseId}/cancel", controllers.CancelPurchase(deps.Purchases, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
				r.Get("/all", controllers.ListAllPurchases(deps.Purchases, logg))
				r.Put("/{purchaseId}/status", controllers.UpdatePurchaseStatus(deps.Purchases, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Get("/", controllers.InventoryStatus(deps.Inventory, logg))
			r.Get("/movements", controllers.InventoryMovements(deps.Inventory, logg))
			r.Get("/low-stock", controllers.InventoryLowStock(deps.Inventory, logg))
			r.Post("/{sweetId}/restock", controllers.RestockSweet(deps.Inventory, logg))
			r.Put("/{sweetId}", controllers.SetThresholds(deps.Inventory, logg))
		})
	})

	return r
}
