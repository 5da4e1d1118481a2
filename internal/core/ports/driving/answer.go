package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// AnswerService answers questions from retrieved context.
type AnswerService interface {
	// Ask retrieves context for the question and asks the LLM to answer from it.
	Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error)
}
