package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/ValentinKolb/tatp/lib/common"
	"github.com/ValentinKolb/tatp/lib/tatp/txn"
	"github.com/cockroachdb/errors"
)

// KindReport holds the results of one transaction kind.
type KindReport struct {
	Kind     txn.Kind
	Success  uint64
	Failure  uint64
	Attempts uint64
	Latency  Latency
}

// Total returns the number of finished transactions of the kind.
func (k KindReport) Total() uint64 {
	return k.Success + k.Failure
}

// Report is the summary of a run.
type Report struct {
	Elapsed   time.Duration
	Total     uint64
	Succeeded uint64
	Failed    uint64
	Kinds     []KindReport
	Workers   Stats     // transactions per worker
	Slowest   []*Result // slowest first
}

func newReport(m *Metrics, kinds []txn.Kind, elapsed time.Duration) *Report {
	r := &Report{Elapsed: elapsed}
	for _, kind := range kinds {
		k := KindReport{
			Kind:     kind,
			Success:  m.Count(kind, true),
			Failure:  m.Count(kind, false),
			Attempts: m.Attempts(kind),
			Latency:  m.Latency(kind),
		}
		r.Kinds = append(r.Kinds, k)
		r.Succeeded += k.Success
		r.Failed += k.Failure
	}
	r.Total = r.Succeeded + r.Failed
	return r
}

// Throughput returns the finished transactions per second.
func (r *Report) Throughput() float64 {
	secs := math.Max(r.Elapsed.Seconds(), 1e-9)
	return float64(r.Total) / secs
}

// Print writes the report in a human readable form.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\nRESULTS\n")
	for _, k := range r.Kinds {
		if k.Total() == 0 {
			fmt.Fprintf(w, "%-24sskipped\n", k.Kind)
			continue
		}
		fmt.Fprintf(w, "%-24s%d ok / %d failed\tavg %s\tp50 %s\tp95 %s\tp99 %s\n",
			k.Kind, k.Success, k.Failure,
			k.Latency.Mean.Round(time.Microsecond),
			k.Latency.Percentiles[0].Round(time.Microsecond),
			k.Latency.Percentiles[1].Round(time.Microsecond),
			k.Latency.Percentiles[2].Round(time.Microsecond),
		)
	}

	fmt.Fprintf(w, "\n%-24s%d (%d ok / %d failed)\n", "total", r.Total, r.Succeeded, r.Failed)
	fmt.Fprintf(w, "%-24s%s\n", "elapsed", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "%-24s%.0f txn/sec\n", "throughput", r.Throughput())
	fmt.Fprintf(w, "%-24s%.2f (min %.0f, max %.0f)\n", "worker balance", r.Workers.Balance(), r.Workers.Min, r.Workers.Max)

	if len(r.Slowest) > 0 {
		fmt.Fprintf(w, "\nSLOWEST\n")
		for _, res := range r.Slowest {
			fmt.Fprintf(w, "%-24s%s\tattempts %d\tworker %d\t%s\n",
				res.Kind, res.Latency.Round(time.Microsecond), res.Attempts, res.Worker, res.Txn)
		}
	}
}

// WriteCSV writes one row per transaction kind and the run configuration to
// csvPath.
func (r *Report) WriteCSV(csvPath string, cfg *common.RunConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return errors.Wrap(err, "failed to create CSV file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{
		"Transaction", "Success", "Failure", "Attempts",
		"MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs",
		"ElapsedSec", "TxnPerSec",
		"Subscribers", "Workers", "Retries", "Rate", "Seed", "Mix", "Serializer",
	}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}

	for _, k := range r.Kinds {
		row := []string{
			k.Kind.String(),
			strconv.FormatUint(k.Success, 10),
			strconv.FormatUint(k.Failure, 10),
			strconv.FormatUint(k.Attempts, 10),
			strconv.FormatInt(k.Latency.Mean.Nanoseconds(), 10),
			strconv.FormatInt(k.Latency.Percentiles[0].Nanoseconds(), 10),
			strconv.FormatInt(k.Latency.Percentiles[1].Nanoseconds(), 10),
			strconv.FormatInt(k.Latency.Percentiles[2].Nanoseconds(), 10),
			strconv.FormatInt(k.Latency.Max.Nanoseconds(), 10),
			fmt.Sprintf("%.3f", r.Elapsed.Seconds()),
			fmt.Sprintf("%.0f", r.Throughput()),
			strconv.Itoa(cfg.Subscribers),
			strconv.Itoa(cfg.Workers),
			strconv.Itoa(cfg.Retries),
			fmt.Sprintf("%.1f", cfg.Rate),
			strconv.FormatUint(cfg.Seed, 10),
			cfg.MixString(),
			cfg.Serializer,
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write row for %s", k.Kind)
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to flush CSV")
}
