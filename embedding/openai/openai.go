// Package openai implements the embedding.Provider interface on top of the
// official OpenAI Go SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/hupe1980/wander/embedding"
)

var (
	// ErrEmptyInput is returned when Embed is called with empty input.
	ErrEmptyInput = errors.New("openai: input text is empty")
	// ErrNoEmbeddingInResponse is returned when the API response contains no embedding data.
	ErrNoEmbeddingInResponse = errors.New("openai: no embedding in response")
	// ErrDimensionMismatch is returned when a response embedding length does not match the configured dimension.
	ErrDimensionMismatch = errors.New("openai: embedding dimension mismatch")
)

const defaultDimension = 1536

// Provider calls the OpenAI embeddings API via the official SDK.
type Provider struct {
	sdk        openaisdk.Client
	model      openaisdk.EmbeddingModel
	dimensions int
}

var _ embedding.Provider = (*Provider)(nil)

// ProviderOption configures the Provider.
type ProviderOption func(*Provider)

// WithDimensions sets the requested embedding dimension. Must match the
// dimension of any index the provider feeds.
func WithDimensions(dim int) ProviderOption {
	return func(p *Provider) {
		p.dimensions = dim
	}
}

// WithModel overrides the embedding model. Defaults to text-embedding-3-small.
func WithModel(model openaisdk.EmbeddingModel) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// New creates an OpenAI embedding provider using the official SDK.
func New(apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{
		sdk:        openaisdk.NewClient(option.WithAPIKey(apiKey)),
		model:      openaisdk.EmbeddingModelTextEmbedding3Small,
		dimensions: defaultDimension,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Embed returns the embedding vector for a single text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	resp, err := p.sdk.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(text),
		},
		Model:      p.model,
		Dimensions: param.NewOpt(int64(p.dimensions)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, ErrNoEmbeddingInResponse
	}

	return p.convert(resp.Data[0].Embedding)
}

// EmbedBatch embeds all texts in a single API call. The i-th result
// corresponds to texts[i]; the API reports an index per datum, so the
// response is reordered defensively before conversion.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyInput
		}
	}

	resp, err := p.sdk.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:      p.model,
		Dimensions: param.NewOpt(int64(p.dimensions)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: %d embeddings for %d texts", ErrNoEmbeddingInResponse, len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, datum := range resp.Data {
		if datum.Index < 0 || datum.Index >= int64(len(out)) {
			return nil, fmt.Errorf("openai embedding: response index %d out of range", datum.Index)
		}
		v, err := p.convert(datum.Embedding)
		if err != nil {
			return nil, err
		}
		out[datum.Index] = v
	}

	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (p *Provider) Dimensions() int { return p.dimensions }

func (p *Provider) convert(emb []float64) ([]float32, error) {
	if len(emb) != p.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb), p.dimensions)
	}

	out := make([]float32, len(emb))
	for i := range emb {
		out[i] = float32(emb[i])
	}

	return out, nil
}
