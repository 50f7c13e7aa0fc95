package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/config"
	"storefront_backend/internal/database"
	"storefront_backend/internal/handlers"
	"storefront_backend/internal/mailer"
	"storefront_backend/internal/payments"
	"storefront_backend/internal/routes"
	"storefront_backend/internal/service"
	"storefront_backend/internal/store"
)

const stripeTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("invalid LOG_LEVEL %q, using info", cfg.LogLevel)
	}

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	if cfg.StripeSecretKey == "" {
		logger.Fatal("STRIPE_SECRET_KEY is required")
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("connect postgres")
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		logger.WithError(err).Fatal("migrate schema")
	}
	logger.Info("postgres connected")

	rdb, err := database.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.WithError(err).Fatal("connect redis")
	}
	defer rdb.Close()
	logger.Info("redis connected")

	provider := payments.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret, stripeTimeout)

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		logger.Info("confirmation mailer enabled")
	}

	st := store.NewPostgresStore(db, logger)

	cartService := service.NewCartService(st, logger)
	orderService := service.NewOrderService(st, logger)
	checkoutService := service.NewCheckoutService(st, provider, service.CheckoutConfig{
		Currency:   cfg.Currency,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
	}, logger)
	reconciler := service.NewReconcilerService(st, provider, service.NewRedisEventCache(rdb, logger), mail, logger)

	r := gin.Default()
	routes.Register(r, routes.Handlers{
		Cart:     handlers.NewCartHandler(cartService, logger),
		Orders:   handlers.NewOrderHandler(orderService, logger),
		Checkout: handlers.NewCheckoutHandler(checkoutService, logger),
		Webhook:  handlers.NewWebhookHandler(reconciler, logger),
		Products: handlers.NewProductHandler(st, logger),
	}, []byte(cfg.JWTSecret), rdb, cfg.FrontendOrigin)

	logger.Infof("server listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
