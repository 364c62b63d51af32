package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"advice-agent/internal/config"
	"advice-agent/internal/domain"
	"advice-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// User-facing messages. Upstream error text is never returned.
const (
	msgNotConfigured   = "The advice service is not configured. Please try again later."
	msgInvalidRequest  = "Invalid request format."
	msgMissingQuery    = "Please provide a message."
	msgGenerationError = "I apologize, but I encountered an error. Please try again."
	msgTimeout         = "I'm sorry, the response took too long. Please try again."
)

type AdviceUseCase interface {
	Advise(ctx context.Context, in usecase.AdviceInput) (usecase.AdviceOutput, error)
}

type Handler struct {
	uc     AdviceUseCase
	cfg    config.Config
	logger *zap.Logger
	newID  func() string
}

// NewHandler builds the API Gateway handler. The use case may be nil only when
// cfg carries no credential, in which case every request gets the
// not-configured response.
func NewHandler(uc AdviceUseCase, cfg config.Config, logger *zap.Logger) (*Handler, error) {
	if cfg.Configured() && uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		uc:     uc,
		cfg:    cfg,
		logger: logger,
		newID:  uuid.NewString,
	}, nil
}

// Handle runs the gates in order: preflight, config, parse, validate, generate.
// It never returns a non-nil error to the Lambda runtime.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, _ error) {
	corrID := correlationID(event.Headers)
	if corrID == "" {
		corrID = h.newID()
	}
	log := h.logger.With(
		zap.String("correlation_id", corrID),
		zap.String("method", event.HTTPMethod),
		zap.String("path", event.Path),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panic", zap.Any("panic", r))
			resp = respond(http.StatusInternalServerError, corrID, errorBody(msgGenerationError))
		}
	}()

	if strings.EqualFold(event.HTTPMethod, http.MethodOptions) {
		return respond(http.StatusOK, corrID, ""), nil
	}

	if h.uc == nil || !h.cfg.Configured() {
		log.Error("api credential not configured", zap.String("provider", h.cfg.Provider))
		return respond(http.StatusInternalServerError, corrID, errorBody(msgNotConfigured)), nil
	}

	query, err := parseQuery(event)
	if err != nil {
		log.Warn("invalid request body", zap.Error(err))
		return respond(http.StatusBadRequest, corrID, errorBody(msgInvalidRequest)), nil
	}

	out, err := h.uc.Advise(ctx, usecase.AdviceInput{Query: query})
	if err != nil {
		status, msg := statusFor(err)
		logFailure(log, status, err)
		return respond(status, corrID, errorBody(msg)), nil
	}

	log.Info("advice served", zap.Int("advice_len", len(out.Advice)))
	return respond(http.StatusOK, corrID, successBody(out.Advice)), nil
}

// parseQuery requires a JSON object body. A missing or non-string query
// yields "" so validation reports it as absent.
func parseQuery(event events.APIGatewayProxyRequest) (string, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return "", fmt.Errorf("handler: decode base64 body: %w", err)
		}
		body = string(decoded)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return "", fmt.Errorf("handler: decode body: %w", err)
	}
	query, _ := payload["query"].(string)
	return query, nil
}

func statusFor(err error) (int, string) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, msgGenerationError
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, msgMissingQuery
	case usecase.ErrorNotConfigured:
		return http.StatusInternalServerError, msgNotConfigured
	case usecase.ErrorTimeout:
		return http.StatusInternalServerError, msgTimeout
	default:
		return http.StatusInternalServerError, msgGenerationError
	}
}

func logFailure(log *zap.Logger, status int, err error) {
	var ucErr *usecase.Error
	fields := []zap.Field{zap.Int("status", status), zap.Error(err)}
	if errors.As(err, &ucErr) {
		fields = append(fields, zap.String("code", string(ucErr.Code)), zap.String("reason", ucErr.Reason))
	}
	if status >= http.StatusInternalServerError {
		log.Error("advice request failed", fields...)
		return
	}
	log.Warn("advice request rejected", fields...)
}

// respond attaches the fixed header set to every response.
func respond(status int, corrID, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    responseHeaders(corrID),
		Body:       body,
	}
}

func responseHeaders(corrID string) map[string]string {
	h := map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
	}
	if corrID != "" {
		h[correlationHeader] = corrID
	}
	return h
}

func successBody(advice string) string {
	return marshalBody(domain.AdviceResponse{Success: true, Advice: advice})
}

func errorBody(msg string) string {
	return marshalBody(domain.AdviceResponse{Success: false, Advice: msg})
}

func marshalBody(v domain.AdviceResponse) string {
	b, err := json.Marshal(v)
	if err != nil {
		// AdviceResponse holds only a bool and a string.
		return `{"success":false,"advice":"` + msgGenerationError + `"}`
	}
	return string(b)
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
