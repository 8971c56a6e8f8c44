package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Env           string
	Port          string
	MongoURI      string
	DBName        string
	JWTSecret     string
	TokenExpiry   time.Duration
	ClientURL     string
	CookieSecure  bool
	LogLevel      string
	GracePeriod   time.Duration
	StoreTimeout  time.Duration
	PresenceSweep string
	SendQueue     int
}

// ErrMissingJWTSecret is returned when production runs without JWT_SECRET.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set when APP_ENV=production")

const devJWTSecret = "dev-secret"

// LoadConfig loads .env (if present) and then reads the process environment.
// Outside production a missing JWT_SECRET falls back to a development secret.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using process environment")
	}

	cfg := &Config{
		Env:           getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("DB_NAME", "household_rpg"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenExpiry:   getDuration("TOKEN_EXPIRY", 24*time.Hour),
		ClientURL:     getEnv("CLIENT_URL", "http://localhost:5173"),
		CookieSecure:  getBool("COOKIE_SECURE", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		GracePeriod:   getDuration("GRACE_PERIOD", 5*time.Second),
		StoreTimeout:  getDuration("STORE_TIMEOUT", 5*time.Second),
		PresenceSweep: getEnv("PRESENCE_SWEEP", "@every 1m"),
		SendQueue:     getInt("SEND_QUEUE", 64),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, ErrMissingJWTSecret
		}
		logrus.WithField("env", cfg.Env).Warn("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("Invalid duration, using default")
		return def
	}
	return d
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("Invalid integer, using default")
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
