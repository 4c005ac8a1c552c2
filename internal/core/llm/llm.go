// Package llm wraps the external AI completion service used for lead
// scoring and embeddings. The service is a black box: prompt in,
// structured JSON out, may fail. Responses are parsed defensively and a
// failure never propagates beyond the candidate it belongs to.
package llm

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/jdylanwp/trendjack/internal/core/domain"
	"github.com/jdylanwp/trendjack/internal/platform/config"
)

// ScoreRequest carries one candidate post into the scoring prompt.
type ScoreRequest struct {
	Post         domain.RawPost
	Keyword      string
	OfferContext string
	NewsContext  string
	FuryEnabled  bool
}

// ScoreResponse is the validated result of one scoring call.
type ScoreResponse struct {
	IntentScore    int    `json:"intent_score"`
	PainPoint      string `json:"pain_point"`
	SuggestedReply string `json:"suggested_reply"`
	FuryScore      int    `json:"fury_score"`
	PainSummary    string `json:"pain_summary"`
	PrimaryTrigger string `json:"primary_trigger"`
	SampleQuote    string `json:"sample_quote"`
}

// Client is the AI service interface consumed by the pipelines.
type Client interface {
	ScoreLead(ctx context.Context, req ScoreRequest) (*ScoreResponse, error)
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// New returns the real client, or a deterministic mock when the API key
// is empty or "mock" so local runs never hit the paid service.
func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if cfg.LLMAPIKey == "" || cfg.LLMAPIKey == llmAPIKeyMock {
		return &mockClient{}
	}

	return NewOpenAI(cfg, logger)
}

type mockClient struct{}

func (c *mockClient) ScoreLead(_ context.Context, req ScoreRequest) (*ScoreResponse, error) {
	// Deterministic per post so repeated runs stay comparable.
	h := fnv.New32a()
	_, _ = h.Write([]byte(req.Post.ID))
	score := int(h.Sum32() % 101)

	return &ScoreResponse{
		IntentScore:    score,
		PainPoint:      "Mock pain point for " + req.Keyword,
		SuggestedReply: "Mock reply.",
		FuryScore:      score / 2,
	}, nil
}

func (c *mockClient) GetEmbedding(_ context.Context, _ string) ([]float32, error) {
	emb := make([]float32, mockEmbeddingDimensions)
	for i := range emb {
		emb[i] = 0.1
	}

	return emb, nil
}
