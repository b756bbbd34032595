package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

type Config struct {
	APIPort  string
	LogLevel string

	LedgerBaseURL        string
	LedgerUser           string
	LedgerToken          string
	LedgerTimeoutSeconds int
	CatalogPageSize      int
	CatalogMaxPages      int

	AIProvider             string
	OpenAIBaseURL          string
	OpenAIAPIKey           string
	OpenAIModel            string
	GeminiBaseURL          string
	GeminiAPIKey           string
	GeminiModel            string
	ClassifyTimeoutSeconds int

	DefaultCategoryID    domain.AccountID
	ParentCategoryIDs    []domain.AccountID
	DefaultBankAccountID int64

	TaxonomyPath string

	APIRateLimitRPS   int
	APIRateLimitBurst int
	APIMaxInFlight    int
	MaxUploadBytes    int64
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		LedgerBaseURL:        mustEnv("LEDGER_BASE_URL", "https://api.alegra.com/api/v1"),
		LedgerUser:           mustEnv("LEDGER_USER", ""),
		LedgerToken:          mustEnv("LEDGER_TOKEN", ""),
		LedgerTimeoutSeconds: mustEnvInt("LEDGER_TIMEOUT_SECONDS", 15),
		CatalogPageSize:      mustEnvInt("CATALOG_PAGE_SIZE", 100),
		CatalogMaxPages:      mustEnvInt("CATALOG_MAX_PAGES", 10),

		AIProvider:             strings.ToLower(mustEnv("AI_PROVIDER", ProviderOpenAI)),
		OpenAIBaseURL:          mustEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:           mustEnv("OPENAI_API_KEY", ""),
		OpenAIModel:            mustEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiBaseURL:          mustEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiAPIKey:           mustEnv("GEMINI_API_KEY", ""),
		GeminiModel:            mustEnv("GEMINI_MODEL", "gemini-pro"),
		ClassifyTimeoutSeconds: mustEnvInt("CLASSIFY_TIMEOUT_SECONDS", 20),

		DefaultCategoryID:    domain.ParseAccountID(mustEnv("DEFAULT_CATEGORY_ID", "5077")),
		ParentCategoryIDs:    parseAccountIDs(mustEnv("PARENT_CATEGORY_IDS", "5066,5065")),
		DefaultBankAccountID: int64(mustEnvInt("DEFAULT_BANK_ACCOUNT_ID", 1)),

		TaxonomyPath: mustEnv("TAXONOMY_PATH", ""),

		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 0),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 0),
		MaxUploadBytes:    int64(mustEnvInt("MAX_UPLOAD_BYTES", 16<<20)),
	}
}

func parseAccountIDs(raw string) []domain.AccountID {
	parts := strings.Split(raw, ",")
	ids := make([]domain.AccountID, 0, len(parts))
	for _, p := range parts {
		if id := domain.ParseAccountID(p); !id.IsZero() {
			ids = append(ids, id)
		}
	}
	return ids
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
