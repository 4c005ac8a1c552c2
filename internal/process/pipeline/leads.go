// Package pipeline contains the batch orchestrators: lead scoring,
// trend statistics, and entity dynamics. Each Run is one invocation
// over one batch; scheduling lives with the caller.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jdylanwp/trendjack/internal/core/domain"
	coreerrors "github.com/jdylanwp/trendjack/internal/core/errors"
	"github.com/jdylanwp/trendjack/internal/platform/config"
	"github.com/jdylanwp/trendjack/internal/platform/observability"
	"github.com/jdylanwp/trendjack/internal/process/scorer"
)

// leadStore is the storage surface the lead pipeline needs.
type leadStore interface {
	GetDueSubjects(ctx context.Context, limit int) ([]domain.Subject, error)
	GetRecentPosts(ctx context.Context, community string, since time.Time) ([]domain.RawPost, error)
	GetPost(ctx context.Context, postID string) (*domain.RawPost, error)
	GetOfferContext(ctx context.Context, userID string) (string, error)
	GetTrendingHeadlines(ctx context.Context, limit int) ([]string, error)
	GetUserLimits(ctx context.Context, userID string, now time.Time) (domain.UserLimits, error)
	TryReserveAIAnalyses(ctx context.Context, userID string, n int, now time.Time) error
	ReleaseAIAnalyses(ctx context.Context, userID string, n int, now time.Time) error
	TryReserveLead(ctx context.Context, userID string, now time.Time) error
	ReleaseLead(ctx context.Context, userID string, now time.Time) error
	LeadExists(ctx context.Context, userID, postID string) (bool, error)
	InsertLead(ctx context.Context, lead domain.Lead) error
	MarkProcessed(ctx context.Context, subjectID string, at time.Time) error
}

// candidateFilter matches posts against cheap intent signals.
type candidateFilter interface {
	Match(post domain.RawPost) (bool, []string)
}

// semanticMatcher proposes extra candidates by embedding similarity.
type semanticMatcher interface {
	FindCandidates(ctx context.Context, subject domain.Subject, seen map[string]bool) ([]domain.Candidate, error)
}

// candidateInserter persists candidates and filters out duplicates.
type candidateInserter interface {
	InsertNew(ctx context.Context, candidates []domain.Candidate) []domain.Candidate
}

// leadScorer grades tasks against the AI client within a call budget.
type leadScorer interface {
	ScoreBatch(ctx context.Context, keyword, offerContext, newsContext string, tasks []scorer.Task, maxCalls int) scorer.Result
}

// SubjectLog records what one subject's pass did. The run summary is
// reconstructable from these alone, so non-fatal failures are kept as
// messages, not just a count.
type SubjectLog struct {
	SubjectID    string
	Keyword      string
	Posts        int
	Candidates   int
	Fresh        int
	CallsMade    int
	CallErrors   int
	LeadsCreated int
	Truncated    int
	Skipped      string
	Errors       []string
	Err          error
}

// RunSummary describes one full lead-pipeline invocation.
type RunSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Subjects   []SubjectLog
}

// TotalLeads sums leads created across subjects.
func (r RunSummary) TotalLeads() int {
	var total int
	for _, s := range r.Subjects {
		total += s.LeadsCreated
	}

	return total
}

// LeadPipeline walks due subjects, filters fresh posts, grades
// candidates within quota, and persists qualifying leads.
type LeadPipeline struct {
	store    leadStore
	filter   candidateFilter
	semantic semanticMatcher
	dedup    candidateInserter
	scorer   leadScorer
	cfg      *config.Config
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewLeadPipeline wires a lead pipeline. semantic may be nil when
// semantic matching is disabled.
func NewLeadPipeline(
	store leadStore,
	filter candidateFilter,
	semantic semanticMatcher,
	dedup candidateInserter,
	sc leadScorer,
	cfg *config.Config,
	logger *zerolog.Logger,
) *LeadPipeline {
	return &LeadPipeline{
		store:    store,
		filter:   filter,
		semantic: semantic,
		dedup:    dedup,
		scorer:   sc,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run processes one round-robin batch of subjects. Only an unreachable
// subject list is fatal; per-subject failures are logged in the summary
// and the subject is still marked processed so it cannot wedge the
// rotation.
func (p *LeadPipeline) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{StartedAt: p.now()}
	defer func() {
		summary.FinishedAt = p.now()
		observability.RunDuration.WithLabelValues("leads").
			Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	}()

	subjects, err := p.store.GetDueSubjects(ctx, p.cfg.SubjectBatchSize)
	if err != nil {
		return summary, fmt.Errorf("get due subjects: %w", err)
	}

	newsContext := p.newsContext(ctx)

	for _, subject := range subjects {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		log := p.processSubject(ctx, subject, newsContext)
		summary.Subjects = append(summary.Subjects, log)

		observability.SubjectsProcessed.WithLabelValues("leads").Inc()

		p.logSubject(log)

		if err := p.store.MarkProcessed(ctx, subject.ID, p.now()); err != nil {
			p.logger.Error().Err(err).Str("subject_id", subject.ID).Msg("mark processed")
		}
	}

	p.logger.Info().
		Int("subjects", len(summary.Subjects)).
		Int("leads_created", summary.TotalLeads()).
		Dur("duration", p.now().Sub(summary.StartedAt)).
		Msg("lead pipeline run complete")

	return summary, nil
}

// processSubject runs the full filter-score-persist chain for one
// subject. Errors are captured in the log, not returned, so one bad
// subject cannot abort the batch.
func (p *LeadPipeline) processSubject(ctx context.Context, subject domain.Subject, newsContext string) SubjectLog {
	log := SubjectLog{SubjectID: subject.ID, Keyword: subject.Keyword}
	now := p.now()

	posts, err := p.store.GetRecentPosts(ctx, subject.Community, now.Add(-p.cfg.PostLookback()))
	if err != nil {
		log.Err = fmt.Errorf("get recent posts: %w", err)

		return log
	}

	log.Posts = len(posts)

	candidates, byPost := p.collectCandidates(ctx, subject, posts)
	log.Candidates = len(candidates)

	fresh := p.dedup.InsertNew(ctx, candidates)
	log.Fresh = len(fresh)

	if len(fresh) == 0 {
		return log
	}

	// Quota is checked after dedup: an exhausted user still accumulates
	// candidate rows, so nothing is lost while the budget is spent.
	limits, err := p.store.GetUserLimits(ctx, subject.UserID, now)
	if err != nil {
		log.Err = fmt.Errorf("get user limits: %w", err)

		return log
	}

	if limits.LeadsExhausted() {
		observability.QuotaDenials.WithLabelValues("leads").Inc()

		log.Skipped = "lead quota exhausted"

		return log
	}

	tasks := p.buildTasks(ctx, subject, fresh, byPost)

	reserved := p.reserveCalls(ctx, subject.UserID, len(tasks), limits, now)
	if reserved == 0 {
		observability.QuotaDenials.WithLabelValues("ai").Inc()

		log.Skipped = "ai quota exhausted"
		log.Truncated = len(tasks)

		return log
	}

	result := p.scorer.ScoreBatch(ctx, subject.Keyword, p.offerContext(ctx, subject.UserID), newsContext, tasks, reserved)
	log.CallsMade = result.CallsMade
	log.CallErrors = result.Errors
	log.Truncated = result.Truncated
	log.Errors = append(log.Errors, result.Failures...)

	// Only completed analyses stay billed: slots reserved for calls
	// never made (context cancel) or that failed are returned, so a
	// transient AI outage cannot eat the month's budget.
	if unused := reserved - result.CallsMade + result.Errors; unused > 0 {
		if err := p.store.ReleaseAIAnalyses(ctx, subject.UserID, unused, now); err != nil {
			p.logger.Error().Err(err).Str("user_id", subject.UserID).Msg("release ai analyses")
		}
	}

	created, persistErrs := p.persistLeads(ctx, subject, result.Scored, now)
	log.LeadsCreated = created
	log.Errors = append(log.Errors, persistErrs...)

	return log
}

// collectCandidates runs the phrase filter and, when configured, the
// semantic matcher. Returns candidates plus the posts they came from.
func (p *LeadPipeline) collectCandidates(ctx context.Context, subject domain.Subject, posts []domain.RawPost) ([]domain.Candidate, map[string]domain.RawPost) {
	byPost := make(map[string]domain.RawPost, len(posts))
	seen := make(map[string]bool, len(posts))

	var candidates []domain.Candidate

	for _, post := range posts {
		ok, reasons := p.filter.Match(post)
		if !ok {
			continue
		}

		byPost[post.ID] = post
		seen[post.ID] = true

		candidates = append(candidates, domain.Candidate{
			UserID:    subject.UserID,
			SubjectID: subject.ID,
			PostID:    post.ID,
			Reasons:   reasons,
		})
	}

	if p.semantic != nil {
		extra, err := p.semantic.FindCandidates(ctx, subject, seen)
		if err != nil {
			// Semantic matching is additive; its failure never blocks
			// the phrase-filtered candidates.
			p.logger.Warn().Err(err).Str("subject_id", subject.ID).Msg("semantic matching")
		} else {
			candidates = append(candidates, extra...)
		}
	}

	return candidates, byPost
}

// buildTasks pairs fresh candidates with their post content, fetching
// posts the filter pass did not load (semantic matches).
func (p *LeadPipeline) buildTasks(ctx context.Context, subject domain.Subject, fresh []domain.Candidate, byPost map[string]domain.RawPost) []scorer.Task {
	tasks := make([]scorer.Task, 0, len(fresh))

	for _, c := range fresh {
		post, ok := byPost[c.PostID]
		if !ok {
			loaded, err := p.store.GetPost(ctx, c.PostID)
			if err != nil {
				p.logger.Warn().Err(err).
					Str("subject_id", subject.ID).
					Str("post_id", c.PostID).
					Msg("load post for scoring")

				continue
			}

			post = *loaded
		}

		tasks = append(tasks, scorer.Task{Candidate: c, Post: post})
	}

	return tasks
}

// reserveCalls atomically claims up to wanted AI calls. On a lost race
// it retries once with the freshly observed remainder.
func (p *LeadPipeline) reserveCalls(ctx context.Context, userID string, wanted int, limits domain.UserLimits, now time.Time) int {
	n := wanted
	if remaining := limits.RemainingAIAnalyses(); n > remaining {
		n = remaining
	}

	if n == 0 {
		return 0
	}

	err := p.store.TryReserveAIAnalyses(ctx, userID, n, now)
	if err == nil {
		return n
	}

	if !errors.Is(err, coreerrors.ErrQuotaExhausted) {
		p.logger.Error().Err(err).Str("user_id", userID).Msg("reserve ai analyses")

		return 0
	}

	refreshed, lerr := p.store.GetUserLimits(ctx, userID, now)
	if lerr != nil {
		return 0
	}

	n = refreshed.RemainingAIAnalyses()
	if n > wanted {
		n = wanted
	}

	if n == 0 {
		return 0
	}

	if err := p.store.TryReserveAIAnalyses(ctx, userID, n, now); err != nil {
		return 0
	}

	return n
}

// persistLeads stores graded candidates that clear the intent threshold.
// Each lead claims a quota slot first; a duplicate or failed insert
// releases the slot. Failure messages come back for the subject log.
func (p *LeadPipeline) persistLeads(ctx context.Context, subject domain.Subject, scored []scorer.Scored, now time.Time) (int, []string) {
	var (
		created int
		errs    []string
	)

	for _, s := range scored {
		if s.Score.IntentScore < p.cfg.IntentThreshold {
			continue
		}

		exists, err := p.store.LeadExists(ctx, subject.UserID, s.Task.Post.ID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("check lead exists for post %s: %v", s.Task.Post.ID, err))
			p.logger.Error().Err(err).Str("post_id", s.Task.Post.ID).Msg("check lead exists")

			continue
		}

		if exists {
			continue
		}

		if err := p.store.TryReserveLead(ctx, subject.UserID, now); err != nil {
			if errors.Is(err, coreerrors.ErrQuotaExhausted) {
				observability.QuotaDenials.WithLabelValues("leads").Inc()
				p.logger.Info().Str("user_id", subject.UserID).Msg("lead quota reached mid-batch")

				return created, errs
			}

			errs = append(errs, fmt.Sprintf("reserve lead for post %s: %v", s.Task.Post.ID, err))
			p.logger.Error().Err(err).Str("user_id", subject.UserID).Msg("reserve lead")

			continue
		}

		lead := domain.Lead{
			UserID:         subject.UserID,
			SubjectID:      subject.ID,
			PostID:         s.Task.Post.ID,
			IntentScore:    s.Score.IntentScore,
			FuryScore:      s.Score.FuryScore,
			PainPoint:      s.Score.PainPoint,
			SuggestedReply: s.Score.SuggestedReply,
			PainSummary:    s.Score.PainSummary,
			PrimaryTrigger: s.Score.PrimaryTrigger,
			SampleQuote:    s.Score.SampleQuote,
		}

		if err := p.store.InsertLead(ctx, lead); err != nil {
			if releaseErr := p.store.ReleaseLead(ctx, subject.UserID, now); releaseErr != nil {
				p.logger.Error().Err(releaseErr).Str("user_id", subject.UserID).Msg("release lead")
			}

			if !errors.Is(err, coreerrors.ErrDuplicate) {
				errs = append(errs, fmt.Sprintf("insert lead for post %s: %v", s.Task.Post.ID, err))
				p.logger.Error().Err(err).Str("post_id", s.Task.Post.ID).Msg("insert lead")
			}

			continue
		}

		observability.LeadsCreated.Inc()

		created++
	}

	return created, errs
}

// newsContext renders trending keywords into a prompt fragment, empty
// when nothing is trending.
func (p *LeadPipeline) newsContext(ctx context.Context) string {
	headlines, err := p.store.GetTrendingHeadlines(ctx, p.cfg.NewsContextLimit)
	if err != nil {
		p.logger.Warn().Err(err).Msg("load trending headlines")

		return ""
	}

	if len(headlines) == 0 {
		return ""
	}

	return "Currently trending: " + strings.Join(headlines, "; ")
}

func (p *LeadPipeline) offerContext(ctx context.Context, userID string) string {
	offer, err := p.store.GetOfferContext(ctx, userID)
	if err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("load offer context")

		return ""
	}

	return offer
}

func (p *LeadPipeline) logSubject(log SubjectLog) {
	ev := p.logger.Info()
	if log.Err != nil {
		ev = p.logger.Error().Err(log.Err)
	}

	ev.Str("subject_id", log.SubjectID).
		Str("keyword", log.Keyword).
		Int("posts", log.Posts).
		Int("candidates", log.Candidates).
		Int("fresh", log.Fresh).
		Int("calls_made", log.CallsMade).
		Int("call_errors", log.CallErrors).
		Int("leads_created", log.LeadsCreated).
		Int("truncated", log.Truncated).
		Str("skipped", log.Skipped).
		Strs("errors", log.Errors).
		Msg("subject processed")
}
