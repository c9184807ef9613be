package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heritageheaven/storefront-backend/api/controllers"
	cartcontrollers "github.com/heritageheaven/storefront-backend/api/controllers/cart"
	checkoutcontrollers "github.com/heritageheaven/storefront-backend/api/controllers/checkout"
	ordercontrollers "github.com/heritageheaven/storefront-backend/api/controllers/orders"
	"github.com/heritageheaven/storefront-backend/api/middleware"
	"github.com/heritageheaven/storefront-backend/api/responses"
	"github.com/heritageheaven/storefront-backend/pkg/config"
	"github.com/heritageheaven/storefront-backend/pkg/enums"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
	"github.com/heritageheaven/storefront-backend/pkg/types"
)

// AttemptCounter backs the credential throttle; Redis in production.
type AttemptCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Services are the collaborators the HTTP layer dispatches to. Archive and Dispatcher
// may be nil when the matching feature flag is off.
type Services struct {
	Auth       controllers.AuthService
	Catalog    controllers.CatalogLister
	Carts      cartcontrollers.Carts
	Checkouts  checkoutcontrollers.Flows
	Dispatcher ordercontrollers.Dispatcher
	Archive    ordercontrollers.Archive
	Throttle   AttemptCounter
	Health     map[string]controllers.Pinger
	Gatherer   prometheus.Gatherer
	Requests   middleware.RequestObserver
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, svc.Requests),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	loginPolicy := middleware.NewThrottlePolicy(
		"login",
		cfg.Throttle.Window,
		cfg.Throttle.LoginIPLimit,
		cfg.Throttle.LoginIdentityLimit,
	)
	registerPolicy := middleware.NewThrottlePolicy(
		"register",
		cfg.Throttle.Window,
		cfg.Throttle.RegisterIPLimit,
		cfg.Throttle.RegisterEmailLimit,
	)

	fallbackCurrency, err := enums.ParseCurrency(cfg.Checkout.DefaultCurrency)
	if err != nil {
		fallbackCurrency = enums.CurrencyUSD
	}
	merchant := merchantFrom(cfg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, svc.Health))
	})

	if svc.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Currency(fallbackCurrency, logg))

		r.Post("/sessions", controllers.SessionCreate(cfg.Session, logg))
		r.Get("/catalog/{resource}", controllers.CatalogList(svc.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.Session, logg))

			r.Route("/auth", func(r chi.Router) {
				r.With(middleware.LoginThrottle(loginPolicy, svc.Throttle, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
				r.With(middleware.LoginThrottle(registerPolicy, svc.Throttle, logg)).Post("/register", controllers.AuthRegister(svc.Auth, logg))
				r.Post("/logout", controllers.AuthLogout(svc.Auth, logg))
				r.Get("/status", controllers.AuthStatus(svc.Auth, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.Fetch(svc.Carts, logg))
				r.Delete("/", cartcontrollers.Clear(svc.Carts, logg))
				r.Post("/items", cartcontrollers.AddItem(svc.Carts, logg))
				r.Patch("/items/{productId}", cartcontrollers.UpdateItem(svc.Carts, logg))
				r.Delete("/items/{productId}", cartcontrollers.RemoveItem(svc.Carts, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", checkoutcontrollers.State(svc.Checkouts, logg))
				r.Post("/", checkoutcontrollers.Begin(svc.Checkouts, logg))
				r.Post("/payment", checkoutcontrollers.ConfirmPayment(svc.Checkouts, logg))
				r.Post("/cancel", checkoutcontrollers.Cancel(svc.Checkouts, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/pending", ordercontrollers.Pending(svc.Dispatcher, logg))
				r.Get("/pending/invoice.pdf", ordercontrollers.PendingInvoicePDF(svc.Dispatcher, merchant, logg))
				if cfg.FeatureFlags.InvoiceEmails {
					r.Post("/pending/email", ordercontrollers.EmailPending(svc.Dispatcher, logg))
				}
				if cfg.FeatureFlags.OrderArchive && svc.Archive != nil {
					r.Get("/{invoiceNumber}/invoice.pdf", ordercontrollers.ArchivedInvoicePDF(svc.Archive, merchant, logg))
				}
			})
		})
	})

	return r
}

func merchantFrom(cfg *config.Config) types.MerchantProfile {
	return types.MerchantProfile{
		Name:    cfg.Merchant.Name,
		Address: cfg.Merchant.Address,
		Contact: cfg.Merchant.Contact,
	}
}
