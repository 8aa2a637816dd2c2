package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersTotal   *prometheus.CounterVec
	TransferDuration prometheus.Histogram
	TransferAmount   prometheus.Histogram
	TransferReplays  prometheus.Counter
	CreditRetries    prometheus.Counter

	// Account metrics
	AccountsOpened prometheus.Counter
	BalanceDeltas  *prometheus.CounterVec
	AccountsFrozen prometheus.Counter

	// Card metrics
	CardsIssued        prometheus.Counter
	CardStatusChanges  *prometheus.CounterVec
	CardAuthorizations *prometheus.CounterVec

	// Verification metrics
	VerificationUpdates *prometheus.CounterVec

	// Reconciliation metrics
	ReconciliationOpen     prometheus.Gauge
	ReconciliationResolved prometheus.Counter
	TransfersRecovered     *prometheus.CounterVec
	LedgerConsistent       prometheus.Gauge

	// Outbox metrics
	EventsPublished *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Transfer metrics
		TransfersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_transfers_total",
				Help: "Total number of transfers by final status",
			},
			[]string{"status"},
		),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobank_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobank_transfer_amount_minor_units",
			Help:    "Transfer amounts in minor units",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		}),
		TransferReplays: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_transfer_replays_total",
			Help: "Transfers answered from a previous request with the same idempotency key",
		}),
		CreditRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_credit_retries_total",
			Help: "Credit leg attempts that failed and were retried",
		}),

		// Account metrics
		AccountsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),
		BalanceDeltas: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_balance_deltas_total",
				Help: "Balance mutations by outcome",
			},
			[]string{"result"},
		),
		AccountsFrozen: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_accounts_frozen_total",
			Help: "Accounts frozen after a corrupted balance was detected",
		}),

		// Card metrics
		CardsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_cards_issued_total",
			Help: "Total number of cards issued",
		}),
		CardStatusChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_card_status_changes_total",
				Help: "Card status transitions by target status",
			},
			[]string{"status"},
		),
		CardAuthorizations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_card_authorizations_total",
				Help: "Card spend authorizations by result",
			},
			[]string{"result"},
		),

		// Verification metrics
		VerificationUpdates: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_verification_updates_total",
				Help: "Verification status changes by target status",
			},
			[]string{"status"},
		),

		// Reconciliation metrics
		ReconciliationOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gobank_reconciliation_open_items",
			Help: "Open items in the reconciliation queue",
		}),
		ReconciliationResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_reconciliation_resolved_total",
			Help: "Reconciliation items resolved",
		}),
		TransfersRecovered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_transfers_recovered_total",
				Help: "Stale pending transfers recovered by outcome",
			},
			[]string{"outcome"},
		),
		LedgerConsistent: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gobank_ledger_consistent",
			Help: "1 when the last consistency check passed, 0 otherwise",
		}),

		// Outbox metrics
		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_outbox_events_total",
				Help: "Outbox events processed by result",
			},
			[]string{"result"},
		),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobank_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
