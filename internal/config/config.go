package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string
	Port     string
	SiteURL  string

	JWTSecret      string
	AccessTokenTTL time.Duration

	PaystackSecretKey string

	ResendAPIKey string
	FromEmail    string
	FromName     string
	AdminEmail   string

	AfricasTalkingAPIKey   string
	AfricasTalkingUsername string
	AfricasTalkingSenderID string

	FacebookPixelID     string
	FacebookAccessToken string
}

// Load reads .env (when present) and the process environment into a Config.
// Every credential is optional except at the point of use: a missing channel
// key disables that channel, a missing Paystack secret disables verification.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	return Config{
		MongoURI: getEnvOrDefault("MONGO_URI", ""),
		DBName:   getEnvOrDefault("DB_NAME", "solarnaija"),
		Port:     getEnvOrDefault("PORT", "8080"),
		SiteURL:  strings.TrimRight(getEnvOrDefault("SITE_URL", "https://www.solarnaija.store"), "/"),

		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 60, time.Minute),

		PaystackSecretKey: getEnvOrDefault("PAYSTACK_SECRET", ""),

		ResendAPIKey: getEnvOrDefault("RESEND_API_KEY", ""),
		FromEmail:    getEnvOrDefault("FROM_EMAIL", "orders@solarnaija.store"),
		FromName:     getEnvOrDefault("FROM_NAME", "SolarNaija"),
		AdminEmail:   getEnvOrDefault("ADMIN_EMAIL", "support@solarnaija.store"),

		AfricasTalkingAPIKey:   getEnvOrDefault("AFRICASTALKING_API_KEY", ""),
		AfricasTalkingUsername: getEnvOrDefault("AFRICASTALKING_USERNAME", "sandbox"),
		AfricasTalkingSenderID: getEnvOrDefault("AFRICASTALKING_FROM", "SolarNaija"),

		FacebookPixelID:     getEnvOrDefault("FB_PIXEL_ID", ""),
		FacebookAccessToken: getEnvOrDefault("FB_ACCESS_TOKEN", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
