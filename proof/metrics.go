package proof

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prover's lock-free atomic counters, plus a
// prometheus.Collector view over the same fields so they're also visible
// at /metrics, grounded on r3e-network-service_layer's use of
// prometheus/client_golang for exactly this kind of counter exposition.
type Metrics struct {
	batchesProved    uint64
	batchesFailed    uint64
	actionsProved    uint64
	lastBatchMillis  uint64
	totalProveMillis uint64
	queueDepth       uint64
	peakQueueDepth   uint64
}

// RecordProved updates counters after a successful ProveBatch.
func (m *Metrics) RecordProved(actionCount int, elapsedMillis int64) {
	atomic.AddUint64(&m.batchesProved, 1)
	atomic.AddUint64(&m.actionsProved, uint64(actionCount))
	atomic.StoreUint64(&m.lastBatchMillis, uint64(elapsedMillis))
	atomic.AddUint64(&m.totalProveMillis, uint64(elapsedMillis))
}

// RecordFailed updates counters after a failed ProveBatch.
func (m *Metrics) RecordFailed() {
	atomic.AddUint64(&m.batchesFailed, 1)
}

// SetQueueDepth records the proof worker's current queue depth, updating
// the peak if depth is a new high. Called by the bounded worker pool each
// time a batch is enqueued or dequeued.
func (m *Metrics) SetQueueDepth(depth int) {
	atomic.StoreUint64(&m.queueDepth, uint64(depth))
	for {
		peak := atomic.LoadUint64(&m.peakQueueDepth)
		if uint64(depth) <= peak {
			return
		}
		if atomic.CompareAndSwapUint64(&m.peakQueueDepth, peak, uint64(depth)) {
			return
		}
	}
}

// Snapshot is a consistent point-in-time view of every counter, for
// monitoring or a GetMetrics RPC response. Each field is read with its own
// atomic load; callers only need a consistent *view*, not a transaction
// across fields, so no surrounding lock is needed.
type Snapshot struct {
	BatchesProved    uint64
	BatchesFailed    uint64
	ActionsProved    uint64
	LastBatchMillis  uint64
	TotalProveMillis uint64
	QueueDepth       uint64
	PeakQueueDepth   uint64
}

// Snapshot returns the current value of every counter.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		BatchesProved:    atomic.LoadUint64(&m.batchesProved),
		BatchesFailed:    atomic.LoadUint64(&m.batchesFailed),
		ActionsProved:    atomic.LoadUint64(&m.actionsProved),
		LastBatchMillis:  atomic.LoadUint64(&m.lastBatchMillis),
		TotalProveMillis: atomic.LoadUint64(&m.totalProveMillis),
		QueueDepth:       atomic.LoadUint64(&m.queueDepth),
		PeakQueueDepth:   atomic.LoadUint64(&m.peakQueueDepth),
	}
}

var (
	batchesProvedDesc    = prometheus.NewDesc("dungeon_prover_batches_proved_total", "Proof batches successfully proved.", nil, nil)
	batchesFailedDesc    = prometheus.NewDesc("dungeon_prover_batches_failed_total", "Proof batches that failed to prove or verify.", nil, nil)
	actionsProvedDesc    = prometheus.NewDesc("dungeon_prover_actions_proved_total", "Actions covered by successfully proved batches.", nil, nil)
	lastBatchMsDesc      = prometheus.NewDesc("dungeon_prover_last_batch_duration_ms", "Wall-clock duration of the most recently proved batch.", nil, nil)
	totalProveMsDesc     = prometheus.NewDesc("dungeon_prover_total_duration_ms", "Cumulative wall-clock time spent proving.", nil, nil)
	queueDepthDesc       = prometheus.NewDesc("dungeon_prover_queue_depth", "Current number of batches waiting to be proved.", nil, nil)
	peakQueueDepthDesc   = prometheus.NewDesc("dungeon_prover_queue_depth_peak", "Highest observed proof queue depth.", nil, nil)
)

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- batchesProvedDesc
	ch <- batchesFailedDesc
	ch <- actionsProvedDesc
	ch <- lastBatchMsDesc
	ch <- totalProveMsDesc
	ch <- queueDepthDesc
	ch <- peakQueueDepthDesc
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	snap := m.Snapshot()
	ch <- prometheus.MustNewConstMetric(batchesProvedDesc, prometheus.CounterValue, float64(snap.BatchesProved))
	ch <- prometheus.MustNewConstMetric(batchesFailedDesc, prometheus.CounterValue, float64(snap.BatchesFailed))
	ch <- prometheus.MustNewConstMetric(actionsProvedDesc, prometheus.CounterValue, float64(snap.ActionsProved))
	ch <- prometheus.MustNewConstMetric(lastBatchMsDesc, prometheus.GaugeValue, float64(snap.LastBatchMillis))
	ch <- prometheus.MustNewConstMetric(totalProveMsDesc, prometheus.CounterValue, float64(snap.TotalProveMillis))
	ch <- prometheus.MustNewConstMetric(queueDepthDesc, prometheus.GaugeValue, float64(snap.QueueDepth))
	ch <- prometheus.MustNewConstMetric(peakQueueDepthDesc, prometheus.GaugeValue, float64(snap.PeakQueueDepth))
}
