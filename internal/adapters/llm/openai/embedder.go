package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/okian/resumatch/internal/domain/embedding"
)

// Embedder encodes text with the OpenAI embeddings endpoint.
type Embedder struct {
	client *openai.Client
	model  string
	dim    int
}

var _ embedding.Encoder = (*Embedder)(nil)

// NewEmbedder creates a remote encoder producing dim-dimensional vectors.
func NewEmbedder(cfg Config, dim int) (*Embedder, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Embedder{client: client, model: model, dim: dim}, nil
}

// Encode returns the embedding of text. Empty text yields an empty vector.
// Outages and rate limits wrap embedding.ErrUnavailable.
func (e *Embedder) Encode(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: openai.Int(int64(e.dim)),
	})
	if err != nil {
		if transient(err) {
			return nil, fmt.Errorf("%w: %w", embedding.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai returned no embedding")
	}
	return resp.Data[0].Embedding, nil
}

// Dimension returns the vector length.
func (e *Embedder) Dimension() int { return e.dim }

// Name returns the model identifier stored alongside role embeddings.
func (e *Embedder) Name() string { return "openai/" + e.model }
