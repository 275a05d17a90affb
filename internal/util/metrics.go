package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartAddsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stream_cart_adds_total",
		Help: "Total number of add-to-cart requests",
	}, []string{"result"})

	PaymentSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_sessions_total",
		Help: "Total number of payment sessions initiated",
	}, []string{"provider"})

	PaymentSessionsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_sessions_skipped_total",
		Help: "Sessions skipped because a pending session already existed",
	})

	TokenizeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "card_tokenize_latency_seconds",
		Help:    "Latency of hosted card tokenization calls",
		Buckets: prometheus.DefBuckets,
	})

	PurchasesCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_completed_total",
		Help: "Total number of completed purchases",
	}, []string{"provider"})

	PurchasesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_failed_total",
		Help: "Total number of failed purchases",
	}, []string{"reason"})

	EntitlementChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_checks_total",
		Help: "Total number of entitlement checks",
	}, []string{"result"})

	PlaybackTokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_tokens_issued_total",
		Help: "Total number of signed playback tokens issued",
	})

	RegionCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "region_cache_lookups_total",
		Help: "Region cache lookups by outcome",
	}, []string{"outcome"})

	EmailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Total number of transactional emails sent",
	}, []string{"kind"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
