package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubjectsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendjack_subjects_processed_total",
		Help: "The total number of subjects processed, by pipeline",
	}, []string{"pipeline"})

	CandidatesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trendjack_candidates_created_total",
		Help: "The total number of novel lead candidates created",
	})

	CandidatesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendjack_candidates_dropped_total",
		Help: "Total number of dropped candidates by reason",
	}, []string{"reason"})

	AICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendjack_ai_calls_total",
		Help: "The total number of AI scoring calls, by outcome",
	}, []string{"status"})

	AICallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trendjack_ai_call_duration_seconds",
		Help:    "Duration of AI scoring calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LeadsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trendjack_leads_created_total",
		Help: "The total number of leads persisted",
	})

	TrendScoresComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trendjack_trend_scores_total",
		Help: "The total number of trend score snapshots stored",
	})

	TrendingSubjects = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trendjack_trending_subjects",
		Help: "Number of subjects flagged as trending in the latest run",
	})

	PostsEmbedded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trendjack_posts_embedded_total",
		Help: "The total number of post embeddings stored",
	})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trendjack_run_duration_seconds",
		Help:    "Duration in seconds of one pipeline invocation",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"pipeline"})

	QuotaDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendjack_quota_denials_total",
		Help: "Total number of operations skipped because a usage quota was exhausted",
	}, []string{"kind"})
)
