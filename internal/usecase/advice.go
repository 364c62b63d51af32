package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 25 * time.Second

// Generator is the external text-generation capability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type AdviceService struct {
	generator Generator
	timeout   time.Duration
	logger    *zap.Logger
}

type AdviceInput struct {
	Query string
}

type AdviceOutput struct {
	Advice string
}

func NewAdviceService(g Generator, timeout time.Duration, logger *zap.Logger) (*AdviceService, error) {
	if g == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdviceService{
		generator: g,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// Advise validates the query, sends the composed prompt upstream and returns
// the trimmed model text. Failures are always *Error.
func (s *AdviceService) Advise(ctx context.Context, in AdviceInput) (out AdviceOutput, err error) {
	if strings.TrimSpace(in.Query) == "" {
		return AdviceOutput{}, newError(ErrorInvalidInput, "empty_query", nil)
	}

	prompt := buildAdvicePrompt(in.Query)

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = newError(ErrorInternal, "generator_panic", fmt.Errorf("usecase: recovered: %v", r))
			out = AdviceOutput{}
		}
	}()

	start := time.Now()
	raw, genErr := s.generator.Generate(genCtx, prompt)
	elapsed := time.Since(start)
	if genErr != nil {
		if errors.Is(genErr, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return AdviceOutput{}, newError(ErrorTimeout, "generation_timeout", genErr)
		}
		return AdviceOutput{}, newError(ErrorUpstream, "generation_error", genErr)
	}

	advice := strings.TrimSpace(raw)
	if advice == "" {
		return AdviceOutput{}, newError(ErrorUpstream, "empty_generation", nil)
	}

	s.logger.Debug("advice generated",
		zap.Duration("elapsed", elapsed),
		zap.Int("prompt_len", len(prompt)),
		zap.Int("advice_len", len(advice)),
	)
	return AdviceOutput{Advice: advice}, nil
}
