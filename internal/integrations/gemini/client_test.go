package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp      *genai.GenerateContentResponse
	err       error
	model     string
	contents  []*genai.Content
	config    *genai.GenerateContentConfig
	callCount int
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.callCount++
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: string(genai.RoleModel)}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content, FinishReason: genai.FinishReasonStop}},
	}
}

func TestNewClient_EmptyKey(t *testing.T) {
	_, err := NewClient(context.Background(), " ", "gemini-test")
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestNewWithModels(t *testing.T) {
	_, err := newWithModels(nil, "m")
	require.Error(t, err)

	c, err := newWithModels(&fakeModels{}, " ")
	require.NoError(t, err)
	require.Equal(t, defaultModel, c.model)
	require.Nil(t, c.config)

	c, err = newWithModels(&fakeModels{}, "gemini-custom", WithTemperature(0.4))
	require.NoError(t, err)
	require.Equal(t, "gemini-custom", c.model)
	require.NotNil(t, c.config)
	require.InDelta(t, 0.4, float64(*c.config.Temperature), 1e-6)
}

func TestGenerate_HappyPath(t *testing.T) {
	fm := &fakeModels{resp: textResponse(" You are ", "safe. ")}
	c, err := newWithModels(fm, "gemini-test")
	require.NoError(t, err)

	out, err := c.Generate(context.Background(), "prompt text")
	require.NoError(t, err)
	require.Equal(t, " You are safe. ", out)
	require.Equal(t, 1, fm.callCount)
	require.Equal(t, "gemini-test", fm.model)
	require.Len(t, fm.contents, 1)
	require.Equal(t, string(genai.RoleUser), fm.contents[0].Role)
	require.Equal(t, "prompt text", fm.contents[0].Parts[0].Text)
}

func TestGenerate_SkipsThoughtParts(t *testing.T) {
	resp := textResponse("answer")
	resp.Candidates[0].Content.Parts = append([]*genai.Part{{Text: "thinking...", Thought: true}}, resp.Candidates[0].Content.Parts...)
	c, err := newWithModels(&fakeModels{resp: resp}, "gemini-test")
	require.NoError(t, err)

	out, err := c.Generate(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, "answer", out)
}

func TestGenerate_Errors(t *testing.T) {
	cases := []struct {
		name string
		fm   *fakeModels
		want string
	}{
		{name: "sdk error", fm: &fakeModels{err: errors.New("permission denied")}, want: "permission denied"},
		{name: "nil response", fm: &fakeModels{}, want: "no candidates"},
		{name: "no candidates", fm: &fakeModels{resp: &genai.GenerateContentResponse{}}, want: "no candidates"},
		{
			name: "blocked prompt",
			fm: &fakeModels{resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			}},
			want: "prompt blocked",
		},
		{
			name: "no content",
			fm: &fakeModels{resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			}},
			want: "no content",
		},
		{name: "empty text", fm: &fakeModels{resp: textResponse("  ")}, want: "empty text"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := newWithModels(tc.fm, "gemini-test")
			require.NoError(t, err)
			_, err = c.Generate(context.Background(), "p")
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestGenerate_PropagatesContextError(t *testing.T) {
	c, err := newWithModels(&fakeModels{err: context.DeadlineExceeded}, "gemini-test")
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), "p")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
