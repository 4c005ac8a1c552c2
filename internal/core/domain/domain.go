package domain

import "time"

// Subject represents a tracked keyword monitored for a single user.
type Subject struct {
	ID              string
	UserID          string
	Keyword         string
	Community       string
	Enabled         bool
	LastProcessedAt *time.Time
}

// CountBucket is one hour-aligned mention count for a subject.
// At most one bucket exists per (subject, bucket start).
type CountBucket struct {
	SubjectID   string
	BucketStart time.Time
	Count       int
}

// TrendScore is an immutable snapshot of one trend analysis run.
type TrendScore struct {
	ID           string
	SubjectID    string
	WindowHours  int
	Mean         float64
	StdDev       float64
	ZScore       float64
	HeatScore    float64
	SnapScore    float64
	IsTrending   bool
	CalculatedAt time.Time
}

// RawPost is an externally sourced community post. Immutable once stored.
type RawPost struct {
	ID        string
	Community string
	Title     string
	Body      string
	Author    string
	Flair     string
	CreatedAt time.Time
}

// Candidate is a post that passed cheap filtering for a user's subject.
// Exactly one candidate may exist per (user, subject, post).
type Candidate struct {
	UserID    string
	SubjectID string
	PostID    string
	Reasons   []string
}

// Lead status values. The status is mutated later by user actions
// outside this engine; leads are always created as StatusNew.
const (
	LeadStatusNew       = "new"
	LeadStatusReviewed  = "reviewed"
	LeadStatusContacted = "contacted"
	LeadStatusIgnored   = "ignored"
)

// Lead is an AI-graded candidate that cleared the intent threshold.
type Lead struct {
	ID             string
	UserID         string
	SubjectID      string
	PostID         string
	IntentScore    int
	FuryScore      int
	PainPoint      string
	SuggestedReply string
	PainSummary    string
	PrimaryTrigger string
	SampleQuote    string
	Status         string
	CreatedAt      time.Time
}

// UserLimits holds the per-user monthly usage counters and plan ceilings.
type UserLimits struct {
	CurrentAIAnalyses     int
	MaxAIAnalysesPerMonth int
	CurrentLeads          int
	MaxLeadsPerMonth      int
}

// RemainingAIAnalyses returns how many AI calls the user may still make
// this month. Never negative.
func (l UserLimits) RemainingAIAnalyses() int {
	remaining := l.MaxAIAnalysesPerMonth - l.CurrentAIAnalyses
	if remaining < 0 {
		return 0
	}

	return remaining
}

// LeadsExhausted reports whether the user's monthly lead quota is spent.
func (l UserLimits) LeadsExhausted() bool {
	return l.CurrentLeads >= l.MaxLeadsPerMonth
}

// Entity represents a globally tracked entity analyzed for momentum.
type Entity struct {
	ID             string
	Name           string
	Volume24h      int
	Volume7d       int
	Volume30d      int
	ZScore         float64
	GrowthSlope    float64
	TrendStatus    string
	LastAnalyzedAt *time.Time
}

// EntityMention is one day of mention counts for an entity.
type EntityMention struct {
	EntityID string
	Date     time.Time
	Count    int
}
