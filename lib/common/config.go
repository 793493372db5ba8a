package common

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Benchmark run configuration struct
// --------------------------------------------------------------------------

// RunConfig holds all parameters of a benchmark run.
type RunConfig struct {
	// Data set
	Subscribers     int // number of subscribers, ids are 1..Subscribers
	LoadBatchSize   int // subscribers written per load transaction
	LoadConcurrency int // parallel load transactions

	// Workload
	Workers  int
	Duration time.Duration // 0 = run until TxnCount is reached
	TxnCount int           // 0 = run until Duration is over
	Retries  int
	Mix      map[string]int // transaction name -> weight
	Rate     float64        // transactions per second over all workers, 0 = unlimited
	Seed     uint64         // offset for the per worker random contexts

	// Store
	Serializer string

	// Ledger verification
	Verify               bool
	Warehouses           int
	CustomersPerDistrict int
	OrdersPerDistrict    int
}

// DefaultMix is the read heavy TATP mix restricted to the implemented
// transaction types.
func DefaultMix() map[string]int {
	return map[string]int{
		"get-subscriber-data":    35,
		"get-new-destination":    10,
		"get-access-data":        35,
		"update-subscriber-data": 2,
	}
}

// ParseMix parses a comma separated list of name=weight pairs.
func ParseMix(s string) (map[string]int, error) {
	mix := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, errors.Newf("invalid mix entry %q (expected name=weight)", part)
		}
		weight, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil || weight < 0 {
			return nil, errors.Newf("invalid weight in mix entry %q", part)
		}
		mix[strings.TrimSpace(kv[0])] = weight
	}
	if len(mix) == 0 {
		return nil, errors.Newf("empty transaction mix")
	}
	return mix, nil
}

// MixString renders the mix sorted by name, the inverse of ParseMix.
func (c *RunConfig) MixString() string {
	names := make([]string, 0, len(c.Mix))
	for name := range c.Mix {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, c.Mix[name]))
	}
	return strings.Join(parts, ",")
}

// String returns a formatted string representation of the configuration
func (c *RunConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Data Set")
	addField("Subscribers", strconv.Itoa(c.Subscribers))
	addField("Load Batch Size", strconv.Itoa(c.LoadBatchSize))
	addField("Load Concurrency", strconv.Itoa(c.LoadConcurrency))

	addSection("Workload")
	addField("Workers", strconv.Itoa(c.Workers))
	if c.Duration > 0 {
		addField("Duration", c.Duration.String())
	}
	if c.TxnCount > 0 {
		addField("Transactions", strconv.Itoa(c.TxnCount))
	}
	addField("Retries", strconv.Itoa(c.Retries))
	addField("Mix", c.MixString())
	if c.Rate > 0 {
		addField("Rate", fmt.Sprintf("%.1f txn/sec", c.Rate))
	} else {
		addField("Rate", "unlimited")
	}
	addField("Seed", strconv.FormatUint(c.Seed, 10))

	addSection("Store")
	addField("Serializer", c.Serializer)

	if c.Verify {
		addSection("Ledger Verification")
		addField("Warehouses", strconv.Itoa(c.Warehouses))
		addField("Customers per District", strconv.Itoa(c.CustomersPerDistrict))
		addField("Orders per District", strconv.Itoa(c.OrdersPerDistrict))
	}

	return sb.String()
}
