package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/grocery-backend/api/routes"
	"github.com/angelmondragon/grocery-backend/internal/address"
	"github.com/angelmondragon/grocery-backend/internal/analytics"
	"github.com/angelmondragon/grocery-backend/internal/cart"
	"github.com/angelmondragon/grocery-backend/internal/delivery"
	"github.com/angelmondragon/grocery-backend/internal/discounts"
	"github.com/angelmondragon/grocery-backend/internal/orders"
	product "github.com/angelmondragon/grocery-backend/internal/products"
	"github.com/angelmondragon/grocery-backend/internal/shipping"
	"github.com/angelmondragon/grocery-backend/pkg/config"
	"github.com/angelmondragon/grocery-backend/pkg/db"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
	"github.com/angelmondragon/grocery-backend/pkg/metrics"
	"github.com/angelmondragon/grocery-backend/pkg/migrate"
	"github.com/angelmondragon/grocery-backend/pkg/outbox"
	"github.com/angelmondragon/grocery-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	closeAll := func() {
		if err := multierr.Combine(dbClient.Close(), redisClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing dependencies", err)
		}
	}

	services, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		closeAll()
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, services, promhttp.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	exitCode := 0
	select {
	case err := <-serverErr:
		if err != nil {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
			exitCode = 1
		}
		cancel()
	}

	closeAll()
	os.Exit(exitCode)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	conn := dbClient.DB()
	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	calc := discounts.NewCalculator(cfg.Checkout.MinorUnits, cfg.Checkout.TaxRate())

	cartRepo := cart.NewRepository(conn)
	productRepo := product.NewRepository(conn)
	discountRepo := discounts.NewRepository(conn)
	shippingRepo := shipping.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	addressRepo := address.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	var (
		out  routes.Services
		errs error
		err  error
	)
	out.Cart, err = cart.NewService(cartRepo, productRepo, logg)
	errs = multierr.Append(errs, err)
	out.Products, err = product.NewService(productRepo)
	errs = multierr.Append(errs, err)
	out.Shipping, err = shipping.NewService(shippingRepo, logg)
	errs = multierr.Append(errs, err)
	out.DiscountAdmin, err = discounts.NewAdminService(discountRepo, logg)
	errs = multierr.Append(errs, err)
	out.Discounts, err = discounts.NewService(discounts.ServiceParams{
		Store:      discountRepo,
		Calculator: calc,
		Metrics:    checkoutMetrics,
		Logger:     logg,
	})
	errs = multierr.Append(errs, err)
	out.Orders, err = orders.NewService(orders.ServiceParams{
		Repo:       ordersRepo,
		Carts:      cartRepo,
		Addresses:  addressRepo,
		Discounts:  discountRepo,
		Shipping:   shippingRepo,
		Outbox:     emitter,
		Tx:         dbClient,
		Calculator: calc,
		Currency:   cfg.Checkout.Currency,
		Metrics:    checkoutMetrics,
		Logger:     logg,
	})
	errs = multierr.Append(errs, err)
	out.OrderAdmin, err = orders.NewAdminService(orders.AdminParams{
		Repo:       ordersRepo,
		Tx:         dbClient,
		Outbox:     emitter,
		Logger:     logg,
		MinorUnits: cfg.Checkout.MinorUnits,
	})
	errs = multierr.Append(errs, err)
	out.ProductAdmin, err = product.NewAdminService(product.AdminParams{Repo: productRepo, Logger: logg})
	errs = multierr.Append(errs, err)
	out.Addresses, err = address.NewService(address.ServiceParams{Repo: addressRepo, Tx: dbClient, Logger: logg})
	errs = multierr.Append(errs, err)

	deliveryParams := delivery.Params{
		Repo:   delivery.NewRepository(conn),
		Tx:     dbClient,
		Outbox: emitter,
		Logger: logg,
	}
	out.Delivery, err = delivery.NewService(deliveryParams)
	errs = multierr.Append(errs, err)
	out.DeliveryAdmin, err = delivery.NewAdminService(deliveryParams)
	errs = multierr.Append(errs, err)
	out.Analytics, err = analytics.NewService(analytics.ServiceParams{
		Repo:       analytics.NewRepository(conn),
		MinorUnits: cfg.Checkout.MinorUnits,
	})
	errs = multierr.Append(errs, err)
	return out, errs
}
