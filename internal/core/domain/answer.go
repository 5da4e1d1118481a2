package domain

// NoDocumentsMessage is returned by context assembly when nothing was retrieved.
const NoDocumentsMessage = "No relevant documents found."

// DefaultAnswerSystemPrompt instructs the model to answer from the documents only.
const DefaultAnswerSystemPrompt = `You are a helpful assistant that answers questions using the provided documents. ` +
	`Answer briefly and to the point, using only information from the documents.`

// DefaultAnswerUserPrompt wraps the context and the question, in that order.
const DefaultAnswerUserPrompt = `Using the following documents:

%s

Answer the question: %s

Requirements:
- Answer briefly, in no more than 2-3 sentences
- Use only information from the documents above
- If the documents do not contain the answer, say so
- Do not add extra explanations`

// AskOptions configures question answering.
type AskOptions struct {
	// TopK is the number of chunks to retrieve (0 uses the configured default).
	TopK int

	// Collection is the collection to search.
	Collection string
}

// Answer is a generated answer with the chunks it was grounded on.
type Answer struct {
	Question         string           `json:"question"`
	Text             string           `json:"answer"`
	Sources          []RetrievedChunk `json:"sources"`
	Model            string           `json:"model,omitempty"`
	PromptTokens     int              `json:"prompt_tokens"`
	CompletionTokens int              `json:"completion_tokens"`
	TotalTokens      int              `json:"total_tokens"`
}

// CompletionRequest is a single-turn prompt for the LLM collaborator.
type CompletionRequest struct {
	// System is the system instruction.
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens caps the completion (0 uses the service default).
	MaxTokens int

	// Temperature controls randomness (negative uses the service default).
	Temperature float64
}

// Completion is the LLM response with token usage.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
