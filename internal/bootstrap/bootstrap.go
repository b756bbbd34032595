package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/omarsolano/factura-bridge/internal/config"
	"github.com/omarsolano/factura-bridge/internal/core/ports"
	"github.com/omarsolano/factura-bridge/internal/core/usecase"
	"github.com/omarsolano/factura-bridge/internal/export"
	"github.com/omarsolano/factura-bridge/internal/infrastructure/extractor/headertext"
	"github.com/omarsolano/factura-bridge/internal/infrastructure/extractor/pdftext"
	"github.com/omarsolano/factura-bridge/internal/infrastructure/extractor/xmlinvoice"
	"github.com/omarsolano/factura-bridge/internal/infrastructure/ledger/alegra"
	"github.com/omarsolano/factura-bridge/internal/infrastructure/llm/gemini"
	"github.com/omarsolano/factura-bridge/internal/infrastructure/llm/openai"
	"github.com/omarsolano/factura-bridge/internal/infrastructure/resilience"
	"github.com/omarsolano/factura-bridge/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	ExtractUC *usecase.ExtractUploadUseCase
	ProcessUC *usecase.ProcessInvoiceUseCase
	SubmitUC  *usecase.SubmitBillUseCase
	Exporter  *export.Service

	MetricsMiddleware func(http.Handler) http.Handler
	MetricsHandler    http.Handler
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	taxonomy := config.DefaultTaxonomy()
	if cfg.TaxonomyPath != "" {
		loaded, err := config.LoadTaxonomy(cfg.TaxonomyPath)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		taxonomy = loaded
	}

	m := metrics.NewPipelineMetrics("factura-bridge")

	resolver := usecase.NewCategoryResolver(usecase.ResolverConfig{
		DefaultAccountID: cfg.DefaultCategoryID,
		ParentIDs:        cfg.ParentCategoryIDs,
		GroceryKeywords:  taxonomy.GroceryKeywords,
		GenericKeywords:  taxonomy.GenericKeywords,
		PayrollKeywords:  taxonomy.PayrollKeywords,
	})
	normalizer := usecase.NewNormalizer(resolver)

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	ledger := alegra.New(alegra.Config{
		BaseURL:              cfg.LedgerBaseURL,
		User:                 cfg.LedgerUser,
		Token:                cfg.LedgerToken,
		PageSize:             cfg.CatalogPageSize,
		MaxPages:             cfg.CatalogMaxPages,
		ParentIDs:            cfg.ParentCategoryIDs,
		DefaultBankAccountID: cfg.DefaultBankAccountID,
		Timeout:              time.Duration(cfg.LedgerTimeoutSeconds) * time.Second,
	}, executor, m, logger)

	classifier := newClassifier(cfg, logger)

	extractUC := usecase.NewExtractUploadUseCase(
		xmlinvoice.New(),
		pdftext.New(logger),
		headertext.New(taxonomy.KnownVendors),
		logger,
	)
	processUC := usecase.NewProcessInvoiceUseCase(
		ledger,
		classifier,
		resolver,
		normalizer,
		m,
		time.Duration(cfg.ClassifyTimeoutSeconds)*time.Second,
		logger,
	)
	submitUC := usecase.NewSubmitBillUseCase(processUC, ledger, logger)

	return &App{
		Config:            cfg,
		Logger:            logger,
		ExtractUC:         extractUC,
		ProcessUC:         processUC,
		SubmitUC:          submitUC,
		Exporter:          export.NewService(logger),
		MetricsMiddleware: middleware(m),
		MetricsHandler:    m.Handler(),
	}, nil
}

// newClassifier picks the AI provider from config. No provider or missing
// credentials means classification is skipped and PDF invoices fall back to a
// single synthetic line.
func newClassifier(cfg config.Config, logger *slog.Logger) ports.LineItemClassifier {
	timeout := time.Duration(cfg.ClassifyTimeoutSeconds) * time.Second

	switch cfg.AIProvider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("classifier_disabled", "reason", "missing OPENAI_API_KEY")
			return nil
		}
		return openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.DefaultCategoryID, timeout)
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			logger.Warn("classifier_disabled", "reason", "missing GEMINI_API_KEY")
			return nil
		}
		return gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.DefaultCategoryID, timeout)
	default:
		logger.Warn("classifier_disabled", "reason", "unknown provider "+cfg.AIProvider)
		return nil
	}
}

func middleware(m *metrics.PipelineMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.Middleware("factura-bridge", next)
	}
}
