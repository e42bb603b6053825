package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tabcorp-labs/sheetgate/pkg/satoken"
	"github.com/tabcorp-labs/sheetgate/pkg/sheets"
)

// DefaultProviderValidateURL is the identity provider's token-validation
// endpoint. The provider responds with the token's login and user_id when it
// is live.
const DefaultProviderValidateURL = "https://id.twitch.tv/oauth2/validate"

// DefaultSpreadsheetScope is the OAuth2 scope requested for sheet access.
const DefaultSpreadsheetScope = "https://www.googleapis.com/auth/spreadsheets"

type Config struct {
	ServiceAccountEmail string // Required: service principal identity
	ServiceAccountKey   string // Required: service principal private key (PEM, literal \n allowed)
	Scopes              string // Optional: space-separated OAuth2 scopes (default: spreadsheets)
	TokenURL            string // Optional: OAuth2 token endpoint (default: Google's)
	SheetsBaseURL       string // Optional: spreadsheet API base path (default: Google's)

	SessionSecret       string        // Required: shared secret for roles tokens
	Issuer              string        // Optional: iss claim on roles tokens (default: sheetgate)
	RolesTokenTTL       time.Duration // Optional: roles token lifetime (default: 24h, 0 disables expiry)
	ProviderValidateURL string        // Optional: identity provider validation endpoint
	Admins              string        // Optional: comma-separated admin usernames
	Mods                string        // Optional: comma-separated moderator usernames

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		ServiceAccountEmail: os.Getenv("SHEETGATE_SA_EMAIL"),
		ServiceAccountKey:   os.Getenv("SHEETGATE_SA_PRIVATE_KEY"),
		Scopes:              getEnvOrDefault("SHEETGATE_SCOPES", DefaultSpreadsheetScope),
		TokenURL:            getEnvOrDefault("SHEETGATE_TOKEN_URL", satoken.DefaultTokenURL),
		SheetsBaseURL:       getEnvOrDefault("SHEETGATE_SHEETS_BASE_URL", sheets.DefaultBaseURL),

		SessionSecret:       os.Getenv("SHEETGATE_SESSION_SECRET"),
		Issuer:              getEnvOrDefault("SHEETGATE_ISSUER", "sheetgate"),
		RolesTokenTTL:       getEnvDurationOrDefault("SHEETGATE_ROLES_TOKEN_TTL", 24*time.Hour),
		ProviderValidateURL: getEnvOrDefault("SHEETGATE_PROVIDER_VALIDATE_URL", DefaultProviderValidateURL),
		Admins:              os.Getenv("SHEETGATE_ADMINS"),
		Mods:                os.Getenv("SHEETGATE_MODS"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// PrivateKeyPEM returns the service key with literal \n escape sequences
// un-escaped. Deployment environments often flatten the PEM onto one line.
func (c Config) PrivateKeyPEM() []byte {
	if c.ServiceAccountKey == "" {
		return nil
	}
	return []byte(strings.ReplaceAll(c.ServiceAccountKey, `\n`, "\n"))
}

// ScopeList splits the configured scopes on whitespace.
func (c Config) ScopeList() []string {
	return strings.Fields(c.Scopes)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
