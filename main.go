package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"groceteria/checkout"
	"groceteria/config"
	"groceteria/controllers"
	"groceteria/database"
	"groceteria/middleware"
	"groceteria/payments"
	"groceteria/routes"
	"groceteria/utils"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	utils.JwtKey = []byte(cfg.JWTSecret)

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		logger.Fatal("mongodb connection failed", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongodb disconnect failed", zap.Error(err))
		}
	}()

	db := client.Database(cfg.MongoDB)
	if err := database.EnsureIndexes(context.Background(), db); err != nil {
		logger.Fatal("index creation failed", zap.Error(err))
	}

	carts := database.NewCartRepository(db)
	orders := database.NewOrderRepository(db)
	users := database.NewUserRepository(db)
	products := database.NewProductRepository(db)
	categories := database.NewCategoryRepository(db)
	reviews := database.NewReviewRepository(db)
	news := database.NewNewsRepository(db)
	paymentsRepo := database.NewPaymentRepository(db)
	counters := database.NewCounterRepository(db)

	emailService := utils.NewEmailService(cfg.PostmarkToken, cfg.EmailSender)

	stripeGateway := payments.NewStripeGateway(
		cfg.StripeSecretKey, cfg.StripeWebhookSecret,
		cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL,
	)
	paypalGateway, err := payments.NewPaypalGateway(cfg.PaypalClientID, cfg.PaypalSecret, cfg.PaypalLive)
	if err != nil {
		logger.Fatal("paypal client setup failed", zap.Error(err))
	}

	materializer := &checkout.Materializer{
		Carts:    carts,
		Orders:   orders,
		Users:    users,
		Counters: counters,
		Txn:      database.NewTxnRunner(client),
		Fees:     checkout.FeePolicy{FreeOver: cfg.FreeDeliveryOver, Fee: cfg.DeliveryFee},
		Logger:   logger,
	}

	router := mux.NewRouter()
	router.Use(middleware.NewRateLimiter(cfg.RateLimitPerMin).Middleware)

	routes.RegisterRoutes(router, routes.Controllers{
		Users:      controllers.NewUserController(users, emailService, logger),
		Products:   controllers.NewProductController(products, categories, logger),
		Categories: controllers.NewCategoryController(categories, logger),
		News:       controllers.NewNewsController(news, logger),
		Reviews:    controllers.NewReviewController(reviews, products, logger),
		Carts:      controllers.NewCartController(carts, products, logger),
		Orders: &controllers.OrderController{
			Orders:       orders,
			Carts:        carts,
			Users:        users,
			Payments:     paymentsRepo,
			Materializer: materializer,
			Stripe:       stripeGateway,
			Paypal:       paypalGateway,
			Email:        emailService,
			Logger:       logger,
		},
	})

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
