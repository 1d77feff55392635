package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Gateway GatewayConfig
	Event   EventConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	Env            string
	PublicURL      string // used to build gateway return URLs
	CheckoutLimit  int    // checkout submissions per client per window
	CheckoutWindow time.Duration
	AllowedOrigins []string // CORS origins of a separately hosted front end
	ReturnURL      string   // front end page browsers land on after the payment page
}

type SessionConfig struct {
	Secret     string
	CookieName string
	IdleTTL    time.Duration
	Secure     bool
}

// GatewayConfig configures the remote pricing, credential and payment service
type GatewayConfig struct {
	BaseURL           string
	BasicAuthUser     string
	BasicAuthPassword string
	ChannelID         string
	ChannelCode       string
	Timeout           time.Duration
	SuccessURL        string
	FailureURL        string
	MaxParallel       int // concurrent country price fetches
}

type EventConfig struct {
	Slug  string
	Title string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	port := getEnv("PORT", "8080")
	host := getEnv("HOST", "localhost")
	publicURL := strings.TrimRight(getEnv("PUBLIC_URL", "http://"+host+":"+port), "/")

	config := &Config{
		Server: ServerConfig{
			Port:           port,
			Host:           host,
			Env:            getEnv("ENV", "development"),
			PublicURL:      publicURL,
			CheckoutLimit:  getEnvAsInt("CHECKOUT_RATE_LIMIT", 10),
			CheckoutWindow: getEnvAsDuration("CHECKOUT_RATE_WINDOW", time.Minute),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
			ReturnURL:      getEnv("STOREFRONT_RETURN_URL", ""),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", "your-secret-key-change-in-production"),
			CookieName: getEnv("SESSION_COOKIE", "storefront_session"),
			IdleTTL:    getEnvAsDuration("SESSION_IDLE_TTL", 2*time.Hour),
			Secure:     getEnvAsBool("SESSION_SECURE", false),
		},
		Gateway: GatewayConfig{
			BaseURL:           strings.TrimRight(getEnv("GATEWAY_BASE_URL", "https://dev.mypasspoint.com"), "/"),
			BasicAuthUser:     getEnv("GATEWAY_BASIC_AUTH_USER", ""),
			BasicAuthPassword: getEnv("GATEWAY_BASIC_AUTH_PASSWORD", ""),
			ChannelID:         getEnv("GATEWAY_CHANNEL_ID", "web"),
			ChannelCode:       getEnv("GATEWAY_CHANNEL_CODE", "storefront"),
			Timeout:           getEnvAsDuration("GATEWAY_TIMEOUT", 15*time.Second),
			SuccessURL:        getEnv("PAYMENT_SUCCESS_URL", publicURL+"/payment/success"),
			FailureURL:        getEnv("PAYMENT_FAILURE_URL", publicURL+"/payment/failure"),
			MaxParallel:       getEnvAsInt("GATEWAY_MAX_PARALLEL", 4),
		},
		Event: EventConfig{
			Slug:  getEnv("EVENT_SLUG", "abf"),
			Title: getEnv("EVENT_TITLE", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values the storefront cannot run without
func (c *Config) Validate() error {
	u, err := url.Parse(c.Gateway.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("config: GATEWAY_BASE_URL must be an absolute URL")
	}
	if c.Gateway.Timeout <= 0 {
		return errors.New("config: GATEWAY_TIMEOUT must be positive")
	}
	if strings.TrimSpace(c.Event.Slug) == "" {
		return errors.New("config: EVENT_SLUG is required")
	}
	if c.Server.Env == "production" && c.Session.Secret == "your-secret-key-change-in-production" {
		return errors.New("config: SESSION_SECRET must be set in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
