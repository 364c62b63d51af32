package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"advice-agent/handler"
	"advice-agent/internal/config"
	"advice-agent/internal/integrations/gemini"
	"advice-agent/internal/integrations/openai"
	"advice-agent/internal/integrations/paramstore"
	"advice-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.Configured() && cfg.CredentialParameter() != "" {
		cfg.APIKey = resolveCredential(ctx, cfg, logger)
	}

	// ---- Clients ----
	var uc handler.AdviceUseCase
	if cfg.Configured() {
		gen, err := newGenerator(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to create generator", zap.String("provider", cfg.Provider), zap.Error(err))
		}
		svc, err := usecase.NewAdviceService(gen, cfg.Timeout, logger)
		if err != nil {
			logger.Fatal("failed to create advice service", zap.Error(err))
		}
		uc = svc
	} else {
		logger.Warn("no api credential configured; requests will be rejected", zap.String("provider", cfg.Provider))
	}

	// ---- Handler ----
	h, err := handler.NewHandler(uc, cfg, logger)
	if err != nil {
		logger.Fatal("failed to create handler", zap.Error(err))
	}

	if cfg.LocalAddr != "" {
		serveLocal(cfg, h, logger)
		return
	}
	lambda.Start(h.Handle)
}

func newGenerator(ctx context.Context, cfg config.Config) (usecase.Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewClient(cfg.APIKey, cfg.Model, openai.WithBaseURL(cfg.OpenAIBaseURL))
	default:
		return gemini.NewClient(ctx, cfg.APIKey, cfg.Model)
	}
}

// resolveCredential falls back to Parameter Store. Failures leave the
// credential empty so the handler answers with the not-configured response.
func resolveCredential(ctx context.Context, cfg config.Config, logger *zap.Logger) string {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS config", zap.Error(err))
		return ""
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		logger.Error("failed to create SSM client", zap.Error(err))
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	token, err := paramstore.ResolveToken(ctx, ssmClient, cfg.CredentialParameter())
	if err != nil {
		logger.Error("failed to resolve api credential", zap.String("parameter", cfg.CredentialParameter()), zap.Error(err))
		return ""
	}
	return token
}

func serveLocal(cfg config.Config, h *handler.Handler, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/api/get_advice", h)
	mux.Handle("/get_advice", h)

	srv := &http.Server{
		Addr:              cfg.LocalAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Timeout + 5*time.Second,
	}
	logger.Info("serving locally", zap.String("addr", cfg.LocalAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("local server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
