// Package embeddings is the Embedding Service: a deterministic text→vector
// function backed by an external embedding model, fronted by a content-hash
// cache.
package embeddings

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jobmate/alertpipeline/internal/model"
)

const defaultModel = "gemini-embedding-001"

// Service embeds text into the model's fixed-dimensionality vector space,
// caching results by content hash in a bounded LRU so a repeated input does
// not hit the network while its entry is still cached.
type Service struct {
	client    *genai.Client
	modelName string
	cache     *lru
}

// New configures a Service against the Gemini embeddings API, with an
// in-process cache bounded to cacheSize entries.
func New(ctx context.Context, apiKey, modelName string, cacheSize int) (*Service, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("embedding api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai embedding client: %w", err)
	}

	if modelName = strings.TrimSpace(modelName); modelName == "" {
		modelName = defaultModel
	}
	if cacheSize <= 0 {
		cacheSize = 4096
	}

	return &Service{client: client, modelName: modelName, cache: newLRU(cacheSize)}, nil
}

// Close releases the underlying client.
func (s *Service) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Embed returns the vector for text, serving from cache when available.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds every text, preferring the batch endpoint for any input
// not already cached. Input order is preserved in the output.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		key := contentHash(t)
		if vec, ok := s.cache.get(key); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	fetched, err := s.embedUncached(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, idx := range missIdx {
		out[idx] = fetched[j]
		s.cache.put(contentHash(missTexts[j]), fetched[j])
	}
	return out, nil
}

func (s *Service) embedUncached(ctx context.Context, texts []string) ([][]float32, error) {
	em := s.client.EmbeddingModel(s.modelName)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini batch embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini batch embed: expected %d vectors, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if len(e.Values) != model.EmbeddingDim {
			return nil, fmt.Errorf("gemini batch embed: vector %d has dimension %d, want %d", i, len(e.Values), model.EmbeddingDim)
		}
		out[i] = e.Values
	}
	return out, nil
}

func contentHash(text string) [16]byte {
	return md5.Sum([]byte(text))
}
