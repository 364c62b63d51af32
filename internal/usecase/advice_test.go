package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	text      string
	err       error
	delay     time.Duration
	panicWith any
	prompt    string
	callCount int
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.callCount++
	g.prompt = prompt
	if g.panicWith != nil {
		panic(g.panicWith)
	}
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.text, g.err
}

func newTestService(t *testing.T, g Generator) *AdviceService {
	t.Helper()
	svc, err := NewAdviceService(g, time.Second, nil)
	require.NoError(t, err)
	return svc
}

func expectAdviceError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

func TestNewAdviceService_ValidatesDependencies(t *testing.T) {
	_, err := NewAdviceService(nil, time.Second, nil)
	require.Error(t, err)

	svc, err := NewAdviceService(&stubGenerator{}, 0, nil)
	require.NoError(t, err)
	require.Equal(t, defaultTimeout, svc.timeout)
	require.NotNil(t, svc.logger)
}

func TestAdvise_HappyPath_TrimsWhitespace(t *testing.T) {
	gen := &stubGenerator{text: " You are safe. "}
	svc := newTestService(t, gen)

	out, err := svc.Advise(context.Background(), AdviceInput{Query: "I feel anxious"})
	require.NoError(t, err)
	require.Equal(t, "You are safe.", out.Advice)
	require.Equal(t, 1, gen.callCount)
	require.Equal(t,
		"As a mental health assistant, provide a helpful response to: \"I feel anxious\"\nBe empathetic, supportive, and concise.",
		gen.prompt)
}

func TestAdvise_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		gen := &stubGenerator{text: "unused"}
		svc := newTestService(t, gen)
		_, err := svc.Advise(context.Background(), AdviceInput{Query: q})
		expectAdviceError(t, err, ErrorInvalidInput, "empty_query")
		require.Zero(t, gen.callCount)
	}
}

func TestAdvise_QueryIsInterpolatedVerbatim(t *testing.T) {
	gen := &stubGenerator{text: "ok"}
	svc := newTestService(t, gen)

	_, err := svc.Advise(context.Background(), AdviceInput{Query: `  say "hi" %d  `})
	require.NoError(t, err)
	require.Contains(t, gen.prompt, `"  say "hi" %d  "`)
}

func TestAdvise_UpstreamError(t *testing.T) {
	svc := newTestService(t, &stubGenerator{err: errors.New("provider exploded")})
	_, err := svc.Advise(context.Background(), AdviceInput{Query: "I feel anxious"})
	expectAdviceError(t, err, ErrorUpstream, "generation_error")
	require.ErrorContains(t, err, "provider exploded")
}

func TestAdvise_EmptyGeneration(t *testing.T) {
	svc := newTestService(t, &stubGenerator{text: "  \n "})
	_, err := svc.Advise(context.Background(), AdviceInput{Query: "I feel anxious"})
	expectAdviceError(t, err, ErrorUpstream, "empty_generation")
}

func TestAdvise_Timeout(t *testing.T) {
	svc, err := NewAdviceService(&stubGenerator{text: "late", delay: time.Second}, 20*time.Millisecond, nil)
	require.NoError(t, err)

	_, err = svc.Advise(context.Background(), AdviceInput{Query: "I feel anxious"})
	expectAdviceError(t, err, ErrorTimeout, "generation_timeout")
}

func TestAdvise_GeneratorPanic(t *testing.T) {
	svc := newTestService(t, &stubGenerator{panicWith: "boom"})
	_, err := svc.Advise(context.Background(), AdviceInput{Query: "I feel anxious"})
	expectAdviceError(t, err, ErrorInternal, "generator_panic")
}

func TestBuildAdvicePrompt(t *testing.T) {
	got := buildAdvicePrompt("hello")
	require.Equal(t, promptLead+`"hello"`+"\n"+promptTrail, got)
}

func TestError_Message(t *testing.T) {
	require.Equal(t, "usecase: INVALID_INPUT (empty_query)", newError(ErrorInvalidInput, "empty_query", nil).Error())
	require.Equal(t, "usecase: UPSTREAM_ERROR (generation_error): x", newError(ErrorUpstream, "generation_error", errors.New("x")).Error())

	var nilErr *Error
	require.Empty(t, nilErr.Error())
	require.NoError(t, nilErr.Unwrap())
}
