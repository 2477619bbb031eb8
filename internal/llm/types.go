package llm

// MessageRole identifies the sender of a message in a conversation.
type MessageRole string

// MessageRole constants for conversation messages.
const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Modality names an output modality for a responses-API request.
type Modality string

// Modality constants for multimodal requests.
const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

// Message is a single message in a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// CompletionRequest is the input to CreateCompletion or CreateStream.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// ResponsesRequest is the input to CreateResponsesStream. The prompt is
// wrapped into the provider's structured input shape on the wire.
type ResponsesRequest struct {
	Model           string     `json:"model"`
	Prompt          string     `json:"prompt"`
	Modalities      []Modality `json:"modalities,omitempty"`
	MaxOutputTokens int        `json:"max_output_tokens,omitempty"`
}

// Choice is one generated alternative in a completion response.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage tracks token consumption for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the normalized result of a blocking completion.
// Treat it as immutable once constructed.
type CompletionResponse struct {
	ID      string   `json:"id"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Content returns the text of the first choice, or "" when none exists.
func (r CompletionResponse) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Model is one entry in a provider's model catalog.
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	ContextLength int    `json:"context_length,omitempty"`
}
