package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure AnswerService implements the interfaces.
var (
	_ driving.AnswerService   = (*AnswerService)(nil)
	_ driven.PromptStoreAware = (*AnswerService)(nil)
)

// AnswerService answers questions from retrieved context.
type AnswerService struct {
	retrieval driving.RetrievalService
	prompts   driven.PromptStore

	mu  sync.RWMutex
	llm driven.LLMService
}

// NewAnswerService creates an answer service.
// llm may be nil, in which case Ask reports domain.ErrLLMUnavailable.
func NewAnswerService(retrieval driving.RetrievalService, llm driven.LLMService) *AnswerService {
	return &AnswerService{
		retrieval: retrieval,
		llm:       llm,
	}
}

// SetPromptStore sets the store for customisable answer prompts.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// SetLLM replaces the LLM client and closes the previous one.
// A nil llm disables answering.
func (s *AnswerService) SetLLM(llm driven.LLMService) {
	s.mu.Lock()
	old := s.llm
	s.llm = llm
	s.mu.Unlock()

	if old != nil && old != llm {
		if err := old.Close(); err != nil {
			logger.Warn("Closing previous LLM client: %v", err)
		}
	}
}

// Ask retrieves context for the question and asks the LLM to answer from it.
// When nothing is retrieved the LLM is not called.
func (s *AnswerService) Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	logger.Section("Ask")

	s.mu.RLock()
	llm := s.llm
	s.mu.RUnlock()
	if llm == nil {
		return nil, fmt.Errorf("%w: no LLM service configured", domain.ErrLLMUnavailable)
	}

	results, err := s.retrieval.Retrieve(ctx, question, opts.TopK, opts.Collection)
	if err != nil {
		return nil, err
	}

	answer := &domain.Answer{
		Question: strings.TrimSpace(question),
		Sources:  results,
	}
	if len(results) == 0 {
		logger.Debug("No chunks retrieved, skipping LLM call")
		answer.Text = domain.NoDocumentsMessage
		answer.Sources = []domain.RetrievedChunk{}
		return answer, nil
	}

	contextText := s.retrieval.AssembleContext(results)
	logger.Debug("Context: %d chars from %d chunks", len([]rune(contextText)), len(results))

	completion, err := llm.Complete(ctx, domain.CompletionRequest{
		System:      s.loadPrompt(driven.PromptAnswerSystem, domain.DefaultAnswerSystemPrompt, 0),
		Prompt:      fmt.Sprintf(s.loadPrompt(driven.PromptAnswerUser, domain.DefaultAnswerUserPrompt, 2), contextText, answer.Question),
		Temperature: -1,
	})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	answer.Text = completion.Text
	answer.Model = completion.Model
	answer.PromptTokens = completion.PromptTokens
	answer.CompletionTokens = completion.CompletionTokens
	answer.TotalTokens = completion.TotalTokens
	logger.Debug("Answer: %d tokens (%d prompt, %d completion)",
		completion.TotalTokens, completion.PromptTokens, completion.CompletionTokens)
	return answer, nil
}

// loadPrompt returns the stored prompt, or fallback when the store is
// missing, fails, or the template has the wrong number of %s placeholders.
func (s *AnswerService) loadPrompt(name, fallback string, placeholders int) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil {
		logger.Warn("Loading prompt %s: %v", name, err)
		return fallback
	}
	if strings.Count(prompt, "%s") != placeholders || strings.Count(prompt, "%") != placeholders {
		logger.Warn("Prompt %s must contain exactly %d %%s placeholders, using default", name, placeholders)
		return fallback
	}
	return prompt
}
