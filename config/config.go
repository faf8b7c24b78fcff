package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string

	JWTSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	PaypalClientID string
	PaypalSecret   string
	PaypalLive     bool

	PostmarkToken string
	EmailSender   string

	// Delivery fee policy: orders at or above FreeDeliveryOver ship free,
	// everything below pays DeliveryFee.
	FreeDeliveryOver float64
	DeliveryFee      float64

	RateLimitPerMin int
}

// Load reads configuration from a .env file (when present) and the process
// environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	return Config{
		Port:                getEnv("PORT", "8000"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:             getEnv("MONGO_DB", "groceteria"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
		CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/cart"),
		PaypalClientID:      os.Getenv("PAYPAL_CLIENT_ID"),
		PaypalSecret:        os.Getenv("PAYPAL_SECRET"),
		PaypalLive:          os.Getenv("PAYPAL_MODE") == "live",
		PostmarkToken:       os.Getenv("POSTMARK_API_TOKEN"),
		EmailSender:         getEnv("EMAIL_SENDER", "noreply@groceteria.app"),
		FreeDeliveryOver:    getEnvFloat("FREE_DELIVERY_OVER", 50),
		DeliveryFee:         getEnvFloat("DELIVERY_FEE", 5),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MIN", 300),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return n
}
