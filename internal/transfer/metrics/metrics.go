package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the transfer module. Counters track
// protocol outcomes; histograms cover the write paths.
type Metrics struct {
	TransfersInitiated  prometheus.Counter
	TransfersVerified   prometheus.Counter
	TransfersDisputed   prometheus.Counter
	TransfersCompleted  prometheus.Counter
	TransfersCancelled  prometheus.Counter
	UpdateConflicts     prometheus.Counter
	PartialCompletions  prometheus.Counter
	InitiateDuration    prometheus.Histogram
	VerifyDuration      prometheus.Histogram
	HandoverDuration    prometheus.Histogram
}

// New creates a new Metrics instance with all transfer module metrics registered.
func New() *Metrics {
	return &Metrics{
		TransfersInitiated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fowlgate_transfers_initiated_total",
			Help: "Total number of transfer requests initiated",
		}),
		TransfersVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fowlgate_transfers_verified_total",
			Help: "Total number of transfers verified by buyers",
		}),
		TransfersDisputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fowlgate_transfers_disputed_total",
			Help: "Total number of transfers disputed during verification",
		}),
		TransfersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fowlgate_transfers_completed_total",
			Help: "Total number of transfers completed with ownership recorded",
		}),
		TransfersCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fowlgate_transfers_cancelled_total",
			Help: "Total number of transfers cancelled by sellers",
		}),
		UpdateConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fowlgate_transfer_update_conflicts_total",
			Help: "Total number of optimistic concurrency conflicts on transfer writes",
		}),
		PartialCompletions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fowlgate_transfer_partial_completions_total",
			Help: "Total number of completions where ownership was recorded but a follow-up step failed",
		}),
		InitiateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fowlgate_transfer_initiate_duration_seconds",
			Help:    "Duration of InitiateTransfer operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fowlgate_transfer_verify_duration_seconds",
			Help:    "Duration of VerifyTransfer operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		HandoverDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fowlgate_transfer_handover_duration_seconds",
			Help:    "Duration of ConfirmHandover operations including completion",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementInitiated records a successful transfer initiation.
func (m *Metrics) IncrementInitiated() { m.TransfersInitiated.Inc() }

// IncrementVerified records a verification that matched.
func (m *Metrics) IncrementVerified() { m.TransfersVerified.Inc() }

// IncrementDisputed records a verification that raised a dispute.
func (m *Metrics) IncrementDisputed() { m.TransfersDisputed.Inc() }

// IncrementCompleted records a completed transfer.
func (m *Metrics) IncrementCompleted() { m.TransfersCompleted.Inc() }

// IncrementCancelled records a cancelled transfer.
func (m *Metrics) IncrementCancelled() { m.TransfersCancelled.Inc() }

// IncrementUpdateConflict records a lost optimistic-concurrency race.
func (m *Metrics) IncrementUpdateConflict() { m.UpdateConflicts.Inc() }

// IncrementPartialCompletion records a completion that left follow-up
// work (registry update or transfer row) unfinished.
func (m *Metrics) IncrementPartialCompletion() { m.PartialCompletions.Inc() }

// ObserveInitiate records the duration of an InitiateTransfer operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveInitiate(start time.Time) {
	m.InitiateDuration.Observe(time.Since(start).Seconds())
}

// ObserveVerify records the duration of a VerifyTransfer operation.
func (m *Metrics) ObserveVerify(start time.Time) {
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}

// ObserveHandover records the duration of a ConfirmHandover operation.
func (m *Metrics) ObserveHandover(start time.Time) {
	m.HandoverDuration.Observe(time.Since(start).Seconds())
}
