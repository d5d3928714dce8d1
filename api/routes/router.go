package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/grocery-backend/api/controllers"
	"github.com/angelmondragon/grocery-backend/api/middleware"
	"github.com/angelmondragon/grocery-backend/internal/address"
	"github.com/angelmondragon/grocery-backend/internal/analytics"
	"github.com/angelmondragon/grocery-backend/internal/cart"
	"github.com/angelmondragon/grocery-backend/internal/delivery"
	"github.com/angelmondragon/grocery-backend/internal/discounts"
	"github.com/angelmondragon/grocery-backend/internal/orders"
	product "github.com/angelmondragon/grocery-backend/internal/products"
	"github.com/angelmondragon/grocery-backend/internal/shipping"
	"github.com/angelmondragon/grocery-backend/pkg/config"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/grocery-backend/pkg/redis"
)

// Cache is the redis surface the HTTP layer depends on.
type Cache interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Services groups the domain services exposed over HTTP.
type Services struct {
	Cart          cart.Service
	Discounts     discounts.Service
	DiscountAdmin discounts.AdminService
	Orders        orders.Service
	OrderAdmin    orders.AdminService
	Shipping      shipping.Service
	Products      product.Service
	ProductAdmin  product.AdminService
	Addresses     address.Service
	Delivery      delivery.Service
	DeliveryAdmin delivery.AdminService
	Analytics     analytics.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	cache Cache,
	svc Services,
	metrics http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    cache,
		}))
	})

	idempotent := middleware.Idempotency(cache, cfg.Checkout.IdempotencyTTL, logg)
	applyLimit := middleware.RateLimit(
		middleware.NewRateLimitPolicy("apply_discount", cfg.RateLimit.ApplyDiscountWindow, cfg.RateLimit.ApplyDiscountLimit),
		cache,
		logg,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductsList(svc.Products, logg))
		r.Get("/categories", controllers.CategoriesList(svc.Products, logg))
		r.Get("/shipping-rate", controllers.ShippingRate(svc.Shipping, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svc.Cart, logg))
				r.Delete("/", controllers.CartClear(svc.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svc.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(svc.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(svc.Cart, logg))
				r.With(applyLimit).Post("/apply-discount", controllers.CartApplyDiscount(svc.Cart, svc.Discounts, logg))
				r.Post("/remove-coupon", controllers.CartRemoveDiscount())
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(idempotent).Post("/", controllers.OrdersFinalize(svc.Orders, logg))
				r.Get("/", controllers.OrdersList(svc.Orders, logg))
				r.Get("/{orderId}", controllers.OrdersDetail(svc.Orders, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(svc.Addresses, logg))
				r.Post("/", controllers.AddressCreate(svc.Addresses, logg))
				r.Put("/{addressId}/default", controllers.AddressSetDefault(svc.Addresses, logg))
			})
		})

		r.Route("/delivery", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(enums.RoleDelivery, logg))

			r.Get("/orders", controllers.DeliveryOrdersList(svc.Delivery, logg))
			r.With(idempotent).Patch("/orders/{orderId}/status", controllers.DeliveryOrderUpdateStatus(svc.Delivery, logg))
			r.Get("/stats", controllers.DeliveryStats(svc.Delivery, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminCouponsList(svc.DiscountAdmin, logg))
				r.Post("/", controllers.AdminCouponsCreate(svc.DiscountAdmin, logg))
				r.Get("/{couponId}", controllers.AdminCouponsGet(svc.DiscountAdmin, logg))
				r.Put("/{couponId}", controllers.AdminCouponsUpdate(svc.DiscountAdmin, logg))
				r.Delete("/{couponId}", controllers.AdminCouponsDelete(svc.DiscountAdmin, logg))
			})
			r.Route("/offers", func(r chi.Router) {
				r.Get("/", controllers.AdminOffersList(svc.DiscountAdmin, logg))
				r.Post("/", controllers.AdminOffersCreate(svc.DiscountAdmin, logg))
				r.Get("/{offerId}", controllers.AdminOffersGet(svc.DiscountAdmin, logg))
				r.Put("/{offerId}", controllers.AdminOffersUpdate(svc.DiscountAdmin, logg))
				r.Delete("/{offerId}", controllers.AdminOffersDelete(svc.DiscountAdmin, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrdersList(svc.OrderAdmin, logg))
				r.Get("/stats", controllers.AdminOrdersStats(svc.OrderAdmin, logg))
				r.Get("/stats/daily", controllers.AdminOrdersDailyStats(svc.OrderAdmin, logg))
				r.Get("/export", controllers.AdminOrdersExport(svc.OrderAdmin, logg))
				r.Get("/{orderId}", controllers.AdminOrdersDetail(svc.OrderAdmin, logg))
				r.With(idempotent).Patch("/{orderId}/status", controllers.AdminOrdersUpdateStatus(svc.OrderAdmin, logg))
				r.With(idempotent).Patch("/{orderId}/assign", controllers.AdminOrdersAssign(svc.DeliveryAdmin, logg))
			})
			r.Route("/delivery-partners", func(r chi.Router) {
				r.Get("/", controllers.AdminDeliveryPartnersList(svc.DeliveryAdmin, logg))
				r.Post("/", controllers.AdminDeliveryPartnersCreate(svc.DeliveryAdmin, logg))
				r.Put("/{partnerId}", controllers.AdminDeliveryPartnersUpdate(svc.DeliveryAdmin, logg))
				r.Delete("/{partnerId}", controllers.AdminDeliveryPartnersDelete(svc.DeliveryAdmin, logg))
				r.Get("/{partnerId}/stats", controllers.AdminDeliveryPartnerStats(svc.DeliveryAdmin, logg))
			})
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminProductsList(svc.ProductAdmin, logg))
				r.Post("/", controllers.AdminProductsCreate(svc.ProductAdmin, logg))
				r.Get("/{productId}", controllers.AdminProductsGet(svc.ProductAdmin, logg))
				r.Put("/{productId}", controllers.AdminProductsUpdate(svc.ProductAdmin, logg))
				r.Patch("/{productId}/toggle-active", controllers.AdminProductsToggleActive(svc.ProductAdmin, logg))
				r.Delete("/{productId}", controllers.AdminProductsDelete(svc.ProductAdmin, logg))
			})
			r.Route("/categories", func(r chi.Router) {
				r.Post("/", controllers.AdminCategoriesCreate(svc.ProductAdmin, logg))
				r.Put("/{categoryId}", controllers.AdminCategoriesUpdate(svc.ProductAdmin, logg))
				r.Delete("/{categoryId}", controllers.AdminCategoriesDelete(svc.ProductAdmin, logg))
			})
			r.Route("/analytics", func(r chi.Router) {
				r.Get("/multi-period-stats", controllers.AdminAnalyticsMultiPeriod(svc.Analytics, logg))
				r.Get("/orders-summary", controllers.AdminAnalyticsOrdersSummary(svc.Analytics, logg))
				r.Get("/revenue-summary", controllers.AdminAnalyticsRevenueSummary(svc.Analytics, logg))
				r.Get("/dashboard-overview", controllers.AdminAnalyticsDashboard(svc.Analytics, logg))
				r.Get("/user-segments", controllers.AdminAnalyticsSegments(svc.Analytics, logg))
			})
			r.Put("/shipping-rate", controllers.AdminShippingRateUpdate(svc.Shipping, logg))
		})
	})

	return r
}
