package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"food-ordering-api/config"
	"food-ordering-api/geo"
	"food-ordering-api/handlers"
	"food-ordering-api/logging"
	"food-ordering-api/middleware"
	"food-ordering-api/payments"
	"food-ordering-api/routes"
	"food-ordering-api/services"
	"food-ordering-api/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	st, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return err
	}
	logger.Info("database ready", zap.String("driver", cfg.DBDriver))

	clock := services.Clock(time.Now)
	tokens := middleware.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	sandbox := payments.NewSandbox(cfg.PublicBaseURL)
	orders := services.NewOrderService(st, logger, clock, cfg.StockRetryBudget)

	h := &handlers.Handlers{
		Store:    st,
		Accounts: services.NewAccountService(st, tokens, geo.NewParser(), logger),
		Catalog:  services.NewCatalogService(st, logger, clock),
		Menu:     services.NewMenuService(st, logger, clock),
		Orders:   orders,
		Payments: services.NewPaymentService(st, orders, sandbox, logger, cfg.PaymentSuccessURL, cfg.PaymentCancelURL),
		Delivery: services.NewDeliveryService(st, logger, clock),
		Sandbox:  sandbox,
		Logger:   logger,
		Now:      clock,
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Food Ordering API",
			"docs":    "/api/state-machine",
			"health":  "/health",
			"roles":   []string{"customer", "driver", "admin"},
		})
	})
	routes.SetupRoutes(r, h, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return services.NewBacklogNotifier(st, logger, cfg.BacklogPollInterval, clock).Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
