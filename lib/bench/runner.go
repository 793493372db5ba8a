package bench

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/tatp/lib/common"
	"github.com/ValentinKolb/tatp/lib/random"
	"github.com/ValentinKolb/tatp/lib/retry"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/ValentinKolb/tatp/lib/tatp/txn"
	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"
)

// DefaultSlowest is the number of slowest transactions kept for the report.
const DefaultSlowest = 10

// Result is the outcome of one transaction including all its attempts.
type Result struct {
	Kind     txn.Kind
	Success  bool
	Attempts int
	Latency  time.Duration
	Worker   int
	Txn      string // parameters, only kept for the report
}

// Runner runs the transaction mix on a pool of workers.
type Runner struct {
	client  skv.Client
	cfg     *common.RunConfig
	mix     *Mix
	metrics *Metrics
	slowest int
}

// NewRunner validates cfg and creates a runner. The results are recorded in
// m.
func NewRunner(client skv.Client, cfg *common.RunConfig, m *Metrics) (*Runner, error) {
	switch {
	case cfg.Duration <= 0 && cfg.TxnCount <= 0:
		return nil, errors.New("either a duration or a transaction count is required")
	case cfg.Workers < 1:
		return nil, errors.Newf("at least one worker required, got %d", cfg.Workers)
	case cfg.Subscribers < 1:
		return nil, errors.Newf("at least one subscriber required, got %d", cfg.Subscribers)
	case cfg.Rate < 0:
		return nil, errors.Newf("invalid rate %f", cfg.Rate)
	}

	mix, err := NewMix(cfg.Mix)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = NewMetrics()
	}

	return &Runner{
		client:  client,
		cfg:     cfg,
		mix:     mix,
		metrics: m,
		slowest: DefaultSlowest,
	}, nil
}

// Metrics returns the metrics the runner records to.
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// Run starts the workers and blocks until the duration is over, the
// transaction count is reached or ctx is done. Transactions interrupted by
// the end of the run are not counted.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Duration)
		defer cancel()
	}

	// remaining is only used if a transaction count is set
	var remaining *atomic.Int64
	if r.cfg.TxnCount > 0 {
		remaining = &atomic.Int64{}
		remaining.Store(int64(r.cfg.TxnCount))
	}

	var limiter *rate.Limiter
	if r.cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.Rate), r.cfg.Workers)
	}

	queue := newResultQueue()
	top := newSlowest(r.slowest)

	var collector conc.WaitGroup
	collector.Go(func() {
		for res := range queue.Recv() {
			r.metrics.Record(res)
			top.Add(res)
		}
	})

	log.Infof("Starting %d workers", r.cfg.Workers)
	start := time.Now()

	perWorker := make([]float64, r.cfg.Workers)
	var workers conc.WaitGroup
	for id := 0; id < r.cfg.Workers; id++ {
		id := id
		workers.Go(func() {
			perWorker[id] = float64(r.work(ctx, id, remaining, limiter, queue))
		})
	}
	workers.Wait()
	elapsed := time.Since(start)

	queue.Close()
	collector.Wait()

	report := newReport(r.metrics, r.mix.Kinds(), elapsed)
	report.Workers = NewStats(perWorker)
	report.Slowest = top.Sorted()
	log.Infof("Finished %d transactions in %s", report.Total, elapsed.Round(time.Millisecond))
	return report, nil
}

// work runs transactions until the run is over and returns how many
// transactions the worker completed.
func (r *Runner) work(ctx context.Context, id int, remaining *atomic.Int64, limiter *rate.Limiter, queue *resultQueue) int {
	rnd := random.New(r.cfg.Seed + uint64(id))
	maxSID := int32(r.cfg.Subscribers)

	done := 0
	for ctx.Err() == nil {
		if remaining != nil && remaining.Add(-1) < 0 {
			break
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}

		kind := r.mix.Pick(rnd)
		t, err := txn.New(kind, rnd, maxSID)
		if err != nil {
			log.Errorf("worker %d: %v", id, err)
			break
		}

		policy := retry.NewFixed(r.cfg.Retries)
		begin := time.Now()
		err = policy.Run(ctx, func(ctx context.Context) (bool, error) {
			return t.Run(ctx, r.client), nil
		})
		latency := time.Since(begin)

		if ctx.Err() != nil {
			// interrupted by the end of the run
			break
		}
		if err != nil {
			log.Debugf("worker %d: %s: %v", id, t, err)
		}

		queue.Push(&Result{
			Kind:     kind,
			Success:  err == nil,
			Attempts: policy.Attempts(),
			Latency:  latency,
			Worker:   id,
			Txn:      t.String(),
		})
		done++
	}
	return done
}
