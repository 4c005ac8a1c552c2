package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdylanwp/trendjack/internal/core/domain"
	coreerrors "github.com/jdylanwp/trendjack/internal/core/errors"
	"github.com/jdylanwp/trendjack/internal/core/llm"
	"github.com/jdylanwp/trendjack/internal/platform/config"
	"github.com/jdylanwp/trendjack/internal/process/scorer"
)

// fakeLeadStore is an in-memory leadStore tracking every mutation.
type fakeLeadStore struct {
	subjects      []domain.Subject
	posts         []domain.RawPost
	limits        domain.UserLimits
	existingLeads map[string]bool

	reservedAI    int
	releasedAI    int
	reservedLeads int
	releasedLeads int
	insertedLeads []domain.Lead
	marked        []string
}

func (f *fakeLeadStore) GetDueSubjects(_ context.Context, _ int) ([]domain.Subject, error) {
	return f.subjects, nil
}

func (f *fakeLeadStore) GetRecentPosts(_ context.Context, _ string, _ time.Time) ([]domain.RawPost, error) {
	return f.posts, nil
}

func (f *fakeLeadStore) GetPost(_ context.Context, postID string) (*domain.RawPost, error) {
	for _, p := range f.posts {
		if p.ID == postID {
			return &p, nil
		}
	}

	return nil, coreerrors.ErrNotFound
}

func (f *fakeLeadStore) GetOfferContext(_ context.Context, _ string) (string, error) {
	return "we sell tools", nil
}

func (f *fakeLeadStore) GetTrendingHeadlines(_ context.Context, _ int) ([]string, error) {
	return nil, nil
}

func (f *fakeLeadStore) GetUserLimits(_ context.Context, _ string, _ time.Time) (domain.UserLimits, error) {
	limits := f.limits
	limits.CurrentAIAnalyses += f.reservedAI

	return limits, nil
}

func (f *fakeLeadStore) TryReserveAIAnalyses(_ context.Context, _ string, n int, _ time.Time) error {
	if f.reservedAI+f.limits.CurrentAIAnalyses+n > f.limits.MaxAIAnalysesPerMonth {
		return coreerrors.ErrQuotaExhausted
	}

	f.reservedAI += n

	return nil
}

func (f *fakeLeadStore) ReleaseAIAnalyses(_ context.Context, _ string, n int, _ time.Time) error {
	f.releasedAI += n

	return nil
}

func (f *fakeLeadStore) TryReserveLead(_ context.Context, _ string, _ time.Time) error {
	if f.limits.CurrentLeads+f.reservedLeads >= f.limits.MaxLeadsPerMonth {
		return coreerrors.ErrQuotaExhausted
	}

	f.reservedLeads++

	return nil
}

func (f *fakeLeadStore) ReleaseLead(_ context.Context, _ string, _ time.Time) error {
	f.releasedLeads++

	return nil
}

func (f *fakeLeadStore) LeadExists(_ context.Context, _, postID string) (bool, error) {
	return f.existingLeads[postID], nil
}

func (f *fakeLeadStore) InsertLead(_ context.Context, lead domain.Lead) error {
	f.insertedLeads = append(f.insertedLeads, lead)

	return nil
}

func (f *fakeLeadStore) MarkProcessed(_ context.Context, subjectID string, _ time.Time) error {
	f.marked = append(f.marked, subjectID)

	return nil
}

// matchAllFilter turns every post into a candidate.
type matchAllFilter struct{}

func (matchAllFilter) Match(_ domain.RawPost) (bool, []string) {
	return true, []string{"contains_question"}
}

// passthroughDedup treats every candidate as fresh.
type passthroughDedup struct{}

func (passthroughDedup) InsertNew(_ context.Context, candidates []domain.Candidate) []domain.Candidate {
	return candidates
}

// fixedScorer returns a configured intent score for every task.
type fixedScorer struct {
	intent int
}

func (s fixedScorer) ScoreBatch(_ context.Context, _, _, _ string, tasks []scorer.Task, maxCalls int) scorer.Result {
	var result scorer.Result

	if maxCalls < len(tasks) {
		result.Truncated = len(tasks) - maxCalls
		tasks = tasks[:maxCalls]
	}

	for _, task := range tasks {
		result.CallsMade++
		result.Scored = append(result.Scored, scorer.Scored{
			Task:  task,
			Score: &llm.ScoreResponse{IntentScore: s.intent, PainPoint: "p"},
		})
	}

	return result
}

func testConfig() *config.Config {
	return &config.Config{
		SubjectBatchSize:  10,
		PostLookbackHours: 48,
		IntentThreshold:   75,
		NewsContextLimit:  3,
	}
}

func newTestPipeline(store *fakeLeadStore, sc leadScorer) *LeadPipeline {
	logger := zerolog.Nop()

	return NewLeadPipeline(store, matchAllFilter{}, nil, passthroughDedup{}, sc, testConfig(), &logger)
}

func TestLeadPipelineCreatesLeads(t *testing.T) {
	store := &fakeLeadStore{
		subjects: []domain.Subject{{ID: "sub-1", UserID: "u1", Keyword: "crm", Community: "sales"}},
		posts: []domain.RawPost{
			{ID: "p1", Title: "Which CRM?"},
			{ID: "p2", Title: "Need help picking a CRM?"},
		},
		limits: domain.UserLimits{MaxAIAnalysesPerMonth: 100, MaxLeadsPerMonth: 50},
	}

	p := newTestPipeline(store, fixedScorer{intent: 90})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Subjects, 1)
	log := summary.Subjects[0]

	assert.Equal(t, 2, log.Posts)
	assert.Equal(t, 2, log.Candidates)
	assert.Equal(t, 2, log.CallsMade)
	assert.Equal(t, 2, log.LeadsCreated)
	assert.Equal(t, 2, summary.TotalLeads())

	require.Len(t, store.insertedLeads, 2)
	assert.Equal(t, "u1", store.insertedLeads[0].UserID)
	assert.Equal(t, 90, store.insertedLeads[0].IntentScore)

	assert.Equal(t, []string{"sub-1"}, store.marked)
}

func TestLeadPipelineBelowThresholdNotPersisted(t *testing.T) {
	store := &fakeLeadStore{
		subjects: []domain.Subject{{ID: "sub-1", UserID: "u1", Keyword: "crm"}},
		posts:    []domain.RawPost{{ID: "p1", Title: "CRM?"}},
		limits:   domain.UserLimits{MaxAIAnalysesPerMonth: 100, MaxLeadsPerMonth: 50},
	}

	p := newTestPipeline(store, fixedScorer{intent: 74})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Subjects[0].CallsMade)
	assert.Zero(t, summary.Subjects[0].LeadsCreated)
	assert.Empty(t, store.insertedLeads)
}

func TestLeadPipelineSkipsWhenLeadQuotaExhausted(t *testing.T) {
	store := &fakeLeadStore{
		subjects: []domain.Subject{{ID: "sub-1", UserID: "u1", Keyword: "crm"}},
		posts:    []domain.RawPost{{ID: "p1", Title: "CRM?"}},
		limits:   domain.UserLimits{MaxAIAnalysesPerMonth: 100, CurrentLeads: 50, MaxLeadsPerMonth: 50},
	}

	p := newTestPipeline(store, fixedScorer{intent: 90})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	log := summary.Subjects[0]
	assert.Equal(t, "lead quota exhausted", log.Skipped)
	assert.Zero(t, log.CallsMade)

	// Candidates are still recorded for the exhausted user; only the
	// paid scoring step is skipped.
	assert.Equal(t, 1, log.Candidates)
	assert.Equal(t, 1, log.Fresh)

	// Skipped subjects still rotate to the back of the queue.
	assert.Equal(t, []string{"sub-1"}, store.marked)
}

// failingScorer errors every call, like an AI outage mid-batch.
type failingScorer struct{}

func (failingScorer) ScoreBatch(_ context.Context, _, _, _ string, tasks []scorer.Task, maxCalls int) scorer.Result {
	var result scorer.Result

	if maxCalls < len(tasks) {
		result.Truncated = len(tasks) - maxCalls
		tasks = tasks[:maxCalls]
	}

	for _, task := range tasks {
		result.CallsMade++
		result.Errors++
		result.Failures = append(result.Failures, "score post "+task.Post.ID+": model unavailable")
	}

	return result
}

func TestLeadPipelineReleasesQuotaForFailedCalls(t *testing.T) {
	store := &fakeLeadStore{
		subjects: []domain.Subject{{ID: "sub-1", UserID: "u1", Keyword: "crm"}},
		posts:    []domain.RawPost{{ID: "p1", Title: "a?"}, {ID: "p2", Title: "b?"}},
		limits:   domain.UserLimits{MaxAIAnalysesPerMonth: 100, MaxLeadsPerMonth: 50},
	}

	p := newTestPipeline(store, failingScorer{})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	log := summary.Subjects[0]
	assert.Equal(t, 2, log.CallsMade)
	assert.Equal(t, 2, log.CallErrors)
	assert.Zero(t, log.LeadsCreated)

	// Failed calls must not burn the monthly budget: every reserved
	// slot that produced no score goes back.
	assert.Equal(t, 2, store.reservedAI)
	assert.Equal(t, 2, store.releasedAI)

	// The summary alone explains what went wrong.
	require.Len(t, log.Errors, 2)
	assert.Contains(t, log.Errors[0], "p1")
	assert.Contains(t, log.Errors[1], "p2")
}

func TestLeadPipelineTruncatesToAIQuota(t *testing.T) {
	store := &fakeLeadStore{
		subjects: []domain.Subject{{ID: "sub-1", UserID: "u1", Keyword: "crm"}},
		posts: []domain.RawPost{
			{ID: "p1", Title: "a?"},
			{ID: "p2", Title: "b?"},
			{ID: "p3", Title: "c?"},
		},
		limits: domain.UserLimits{CurrentAIAnalyses: 98, MaxAIAnalysesPerMonth: 100, MaxLeadsPerMonth: 50},
	}

	p := newTestPipeline(store, fixedScorer{intent: 90})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	log := summary.Subjects[0]
	assert.Equal(t, 2, log.CallsMade)
	assert.Equal(t, 1, log.Truncated)
	assert.Equal(t, 2, store.reservedAI)
}

func TestLeadPipelineSkipsExistingLeads(t *testing.T) {
	store := &fakeLeadStore{
		subjects:      []domain.Subject{{ID: "sub-1", UserID: "u1", Keyword: "crm"}},
		posts:         []domain.RawPost{{ID: "p1", Title: "a?"}, {ID: "p2", Title: "b?"}},
		limits:        domain.UserLimits{MaxAIAnalysesPerMonth: 100, MaxLeadsPerMonth: 50},
		existingLeads: map[string]bool{"p1": true},
	}

	p := newTestPipeline(store, fixedScorer{intent: 90})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Subjects[0].LeadsCreated)
	require.Len(t, store.insertedLeads, 1)
	assert.Equal(t, "p2", store.insertedLeads[0].PostID)
}
