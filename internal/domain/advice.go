package domain

// AdviceRequest is the inbound payload. Only Query is consumed.
type AdviceRequest struct {
	Query string `json:"query"`
}

// AdviceResponse is the payload returned on every non-preflight response.
// Advice holds either the model text or a fixed user-facing message.
type AdviceResponse struct {
	Success bool   `json:"success"`
	Advice  string `json:"advice"`
}

// ChatMessage is the provider-agnostic chat message shape used by the
// OpenAI-compatible integration.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
