package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuotesTotal tracks priced quotes
	QuotesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_quotes_total",
			Help: "Total number of campaign cost quotes",
		},
	)

	// AuthorizationsTotal tracks payment authorizations by outcome
	AuthorizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_authorizations_total",
			Help: "Total number of payment authorizations created",
		},
		[]string{"outcome"},
	)

	// ConfirmationsTotal tracks payment confirmations by outcome
	ConfirmationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_confirmations_total",
			Help: "Total number of payment confirmation attempts",
		},
		[]string{"outcome"},
	)

	// CampaignsCommittedTotal tracks persisted campaigns
	CampaignsCommittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_campaigns_committed_total",
			Help: "Total number of paid campaigns persisted",
		},
	)

	// CommitRejectionsTotal tracks refused campaign commits by reason
	CommitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_commit_rejections_total",
			Help: "Total number of campaign commits refused",
		},
		[]string{"reason"},
	)

	// CampaignRecipients tracks the recipient count of committed campaigns
	CampaignRecipients = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkout_campaign_recipients",
			Help:    "Number of recipients per committed campaign",
			Buckets: prometheus.ExponentialBuckets(2, 2, 10),
		},
	)

	// HTTPRequestDuration tracks API latency by route and status
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_http_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeDeclined = "declined"
	OutcomeFailed   = "failed"
)
