package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	StorePrefix string
	StoreName   string

	AdminEmail    string
	AdminPassword string

	BrevoAPIKey string
	EmailFrom   string

	// "lenient" allows any status to be set from any other status,
	// "strict" enforces the forward-only fulfillment flow.
	TransitionPolicy string

	ServiceFee  float64
	DeliveryFee float64
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:           os.Getenv("DB_HOST"),
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBName:           os.Getenv("DB_NAME"),
		DBPort:           os.Getenv("DB_PORT"),
		AppPort:          os.Getenv("APP_PORT"),
		AppEnv:           os.Getenv("APP_ENV"),
		StorePrefix:      getEnv("STORE_PREFIX", "GKS"),
		StoreName:        getEnv("STORE_NAME", "Gupta Kirana Store"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		BrevoAPIKey:      os.Getenv("BREVO_API_KEY"),
		EmailFrom:        getEnv("EMAIL_USER", "noreply@example.com"),
		TransitionPolicy: getEnv("ORDER_TRANSITION_POLICY", "lenient"),
		ServiceFee:       getEnvFloat("SERVICE_FEE", 5),
		DeliveryFee:      getEnvFloat("DELIVERY_FEE", 10),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
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
		return fallback
	}
	return f
}
