// Package metrics exposes the Prometheus collectors for comment moderation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Accepted submissions by outcome (approved, pending_moderation).
var CommentsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comments_submitted_total",
	Help: "Total number of accepted comment submissions by outcome",
}, []string{"outcome"})

// Rejected submissions by reason (validation, not_found, internal).
var CommentsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comments_rejected_total",
	Help: "Total number of rejected comment submissions by reason",
}, []string{"reason"})

var SpamScore = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "comment_spam_score",
	Help:    "Distribution of spam scores assigned to submitted comments",
	Buckets: []float64{0, 1, 3, 5, 8, 13, 21, 34},
})

// Import rows by result (imported, quarantined, failed, skipped).
var ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comment_import_rows_total",
	Help: "Total number of rows processed by import jobs by result",
}, []string{"result"})

// Tree cache lookups by result (hit, miss, error).
var TreeCache = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comment_tree_cache_total",
	Help: "Total number of comment tree cache lookups by result",
}, []string{"result"})
