package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/tatp/lib/tatp/txn"
	vmetrics "github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

// Percentiles reported for every transaction kind.
var Percentiles = []float64{0.5, 0.95, 0.99}

// Metrics aggregates the results of a run.
//
// Counters live in a VictoriaMetrics set so they can be exported in the
// Prometheus text format, latencies are recorded in go-metrics timers.
//
// Thread-safety: counters and timers are safe for concurrent use.
type Metrics struct {
	set      *vmetrics.Set
	registry gometrics.Registry
}

// NewMetrics creates an empty metrics set.
func NewMetrics() *Metrics {
	return &Metrics{
		set:      vmetrics.NewSet(),
		registry: gometrics.NewRegistry(),
	}
}

func txnCounterName(kind txn.Kind, success bool) string {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	return fmt.Sprintf(`tatp_txn_total{type=%q,outcome=%q}`, kind.String(), outcome)
}

func attemptCounterName(kind txn.Kind) string {
	return fmt.Sprintf(`tatp_txn_attempts_total{type=%q}`, kind.String())
}

func loadCounterName(table string) string {
	return fmt.Sprintf(`tatp_load_rows_total{table=%q}`, table)
}

// Record adds one finished transaction.
func (m *Metrics) Record(res *Result) {
	m.set.GetOrCreateCounter(txnCounterName(res.Kind, res.Success)).Inc()
	m.set.GetOrCreateCounter(attemptCounterName(res.Kind)).Add(res.Attempts)
	m.timer(res.Kind).Update(res.Latency)
}

// RecordLoad adds n loaded rows of a table.
func (m *Metrics) RecordLoad(table string, n int) {
	m.set.GetOrCreateCounter(loadCounterName(table)).Add(n)
}

func (m *Metrics) timer(kind txn.Kind) gometrics.Timer {
	return gometrics.GetOrRegisterTimer("latency."+kind.String(), m.registry)
}

// Count returns the number of successful or failed transactions of a kind.
func (m *Metrics) Count(kind txn.Kind, success bool) uint64 {
	return m.set.GetOrCreateCounter(txnCounterName(kind, success)).Get()
}

// Attempts returns the number of attempts made for a kind.
func (m *Metrics) Attempts(kind txn.Kind) uint64 {
	return m.set.GetOrCreateCounter(attemptCounterName(kind)).Get()
}

// Loaded returns the number of loaded rows of a table.
func (m *Metrics) Loaded(table string) uint64 {
	return m.set.GetOrCreateCounter(loadCounterName(table)).Get()
}

// Latency summarizes the latencies of a kind.
type Latency struct {
	Mean        time.Duration
	Max         time.Duration
	Percentiles []time.Duration // matching Percentiles
}

// Latency returns the latency summary of a kind.
func (m *Metrics) Latency(kind txn.Kind) Latency {
	snap := m.timer(kind).Snapshot()
	l := Latency{
		Mean:        time.Duration(snap.Mean()),
		Max:         time.Duration(snap.Max()),
		Percentiles: make([]time.Duration, len(Percentiles)),
	}
	for i, p := range snap.Percentiles(Percentiles) {
		l.Percentiles[i] = time.Duration(p)
	}
	return l
}

// WritePrometheus writes the run counters followed by the process wide
// metrics (including the counters of the local store) in the Prometheus
// text format.
func (m *Metrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
	vmetrics.WritePrometheus(w, false)
}
