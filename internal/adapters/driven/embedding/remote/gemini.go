package remote

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// geminiBackend calls the Gemini batchEmbedContents API.
type geminiBackend struct {
	client *genai.Client
	model  string

	// err is the client construction failure, reported on first use.
	err error
}

func newGeminiBackend(cfg Config) *geminiBackend {
	b := &geminiBackend{model: cfg.Model}
	if cfg.APIKey == "" {
		b.err = errors.New("API key is not configured")
		return b
	}

	timeout := cfg.Timeout
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
			Timeout: &timeout,
		},
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		b.err = fmt.Errorf("create client: %w", err)
		return b
	}
	b.client = client
	return b
}

func (b *geminiBackend) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if b.err != nil {
		return nil, b.err
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	resp, err := b.client.Models.EmbedContent(ctx, b.model, contents, nil)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("nil embedding in response")
		}
		vectors = append(vectors, e.Values)
	}

	return vectors, nil
}

func (b *geminiBackend) close() {}
