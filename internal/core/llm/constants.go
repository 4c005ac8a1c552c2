package llm

import "time"

const (
	llmAPIKeyMock           = "mock"
	mockEmbeddingDimensions = 1536

	rateLimiterBurst = 5

	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute

	maxScoreValue = 100
)
