// Package scorer grades candidate posts with the AI client. Calls run
// in small concurrent groups so one slow completion does not serialize
// the whole batch while still bounding parallel pressure on the API.
package scorer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jdylanwp/trendjack/internal/core/domain"
	"github.com/jdylanwp/trendjack/internal/core/llm"
	"github.com/jdylanwp/trendjack/internal/platform/observability"
)

// Task pairs a candidate with the post content to grade.
type Task struct {
	Candidate domain.Candidate
	Post      domain.RawPost
}

// Scored is one successfully graded candidate.
type Scored struct {
	Task  Task
	Score *llm.ScoreResponse
}

// Result summarizes one scoring batch. Failures carries one message per
// errored call so the run summary stands on its own.
type Result struct {
	Scored    []Scored
	CallsMade int
	Errors    int
	Failures  []string
	Truncated int
}

// Scorer runs AI grading over candidate batches.
type Scorer struct {
	llm         llm.Client
	groupSize   int
	callTimeout time.Duration
	furyEnabled bool
	logger      *zerolog.Logger
}

// New creates a scorer. groupSize bounds in-flight AI calls.
func New(client llm.Client, groupSize int, callTimeout time.Duration, furyEnabled bool, logger *zerolog.Logger) *Scorer {
	if groupSize < 1 {
		groupSize = 1
	}

	return &Scorer{
		llm:         client,
		groupSize:   groupSize,
		callTimeout: callTimeout,
		furyEnabled: furyEnabled,
		logger:      logger,
	}
}

// ScoreBatch grades up to maxCalls tasks for one subject. Tasks beyond
// the budget are dropped and counted as truncated; they will be retried
// on a later run because their candidate rows persist. A failed call is
// logged and skipped, never retried within the batch.
func (s *Scorer) ScoreBatch(ctx context.Context, keyword, offerContext, newsContext string, tasks []Task, maxCalls int) Result {
	var result Result

	if maxCalls < 0 {
		maxCalls = 0
	}

	if maxCalls < len(tasks) {
		result.Truncated = len(tasks) - maxCalls
		tasks = tasks[:maxCalls]
	}

	for start := 0; start < len(tasks); start += s.groupSize {
		end := start + s.groupSize
		if end > len(tasks) {
			end = len(tasks)
		}

		s.scoreGroup(ctx, keyword, offerContext, newsContext, tasks[start:end], &result)

		if ctx.Err() != nil {
			break
		}
	}

	return result
}

// scoreGroup runs one group concurrently and appends outcomes to result.
func (s *Scorer) scoreGroup(ctx context.Context, keyword, offerContext, newsContext string, group []Task, result *Result) {
	type outcome struct {
		score *llm.ScoreResponse
		err   error
	}

	outcomes := make([]outcome, len(group))

	var wg sync.WaitGroup

	for i, task := range group {
		wg.Add(1)

		go func(i int, task Task) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
			defer cancel()

			score, err := s.llm.ScoreLead(callCtx, llm.ScoreRequest{
				Post:         task.Post,
				Keyword:      keyword,
				OfferContext: offerContext,
				NewsContext:  newsContext,
				FuryEnabled:  s.furyEnabled,
			})
			outcomes[i] = outcome{score: score, err: err}
		}(i, task)
	}

	wg.Wait()

	for i, out := range outcomes {
		result.CallsMade++

		if out.err != nil {
			result.Errors++
			result.Failures = append(result.Failures,
				fmt.Sprintf("score post %s: %v", group[i].Post.ID, out.err))

			observability.AICallsTotal.WithLabelValues("error").Inc()
			s.logger.Warn().Err(out.err).
				Str("post_id", group[i].Post.ID).
				Msg("score lead")

			continue
		}

		observability.AICallsTotal.WithLabelValues("success").Inc()

		result.Scored = append(result.Scored, Scored{Task: group[i], Score: out.score})
	}
}
