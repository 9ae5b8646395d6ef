package proof

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Worker runs a bounded pool of proving goroutines in front of a Prover.
// Grounded on a single block-production goroutine-plus-channel shape,
// generalized from one block-production loop to proof_parallelism
// concurrent ProveBatch calls. If the queue is full, Enqueue reports back
// to the caller rather than blocking the simulation worker: proving is
// skipped for that batch and logged, rather than applying backpressure
// to gameplay.
type Worker struct {
	prover  *Prover
	metrics *Metrics

	queue chan Batch
	done  chan struct{}
	wg    sync.WaitGroup

	mu    sync.Mutex
	depth int

	// OnProved and OnFailed, if set, are called from the worker goroutine
	// after each ProveBatch call resolves. This is how the RPC layer's
	// journal index (rpc.Handler.RecordJournal) and the runtime event bus
	// (TopicProofReady/TopicProofFailed) learn about a batch's outcome
	// without Worker depending on either package.
	OnProved func(batch Batch, receipt Receipt, journal Journal)
	OnFailed func(batch Batch, err error)
}

// NewWorker starts parallelism proving goroutines pulling from a queue of
// capacity queueCapacity. Call Stop to drain and shut the pool down.
func NewWorker(prover *Prover, metrics *Metrics, parallelism, queueCapacity int) *Worker {
	if parallelism < 1 {
		parallelism = 1
	}
	if queueCapacity < 1 {
		queueCapacity = 1
	}
	w := &Worker{
		prover:  prover,
		metrics: metrics,
		queue:   make(chan Batch, queueCapacity),
		done:    make(chan struct{}),
	}
	for i := 0; i < parallelism; i++ {
		w.wg.Add(1)
		go w.loop()
	}
	return w
}

// Enqueue submits batch for proving. Returns false without blocking if the
// queue is already at capacity; the caller is expected to log and move on.
func (w *Worker) Enqueue(batch Batch) bool {
	select {
	case w.queue <- batch:
		w.adjustDepth(1)
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for every in-flight batch to finish.
func (w *Worker) Stop() {
	close(w.queue)
	w.wg.Wait()
	close(w.done)
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for batch := range w.queue {
		w.adjustDepth(-1)
		receipt, journal, err := w.prover.ProveBatch(batch)
		if err != nil {
			log.Error().Err(err).Uint64("batch_id", batch.ID).Msg("proof batch failed")
			if w.OnFailed != nil {
				w.OnFailed(batch, err)
			}
			continue
		}
		if w.OnProved != nil {
			w.OnProved(batch, receipt, journal)
		}
	}
}

func (w *Worker) adjustDepth(delta int) {
	w.mu.Lock()
	w.depth += delta
	depth := w.depth
	w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.SetQueueDepth(depth)
	}
}
