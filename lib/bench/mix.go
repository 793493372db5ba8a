package bench

import (
	"strings"

	"github.com/ValentinKolb/tatp/lib/random"
	"github.com/ValentinKolb/tatp/lib/tatp/txn"
	"github.com/cockroachdb/errors"
)

// Mix picks transaction kinds with fixed weights.
type Mix struct {
	kinds      []txn.Kind
	cumulative []int
	total      int
}

// NewMix creates a mix from transaction names (see txn.Kind.String) and
// their weights. Kinds with weight 0 are never picked.
func NewMix(weights map[string]int) (*Mix, error) {
	byKind := make(map[txn.Kind]int, len(weights))
	for name, weight := range weights {
		kind, err := txn.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if weight < 0 {
			return nil, errors.Newf("negative weight %d for %s", weight, name)
		}
		byKind[kind] = weight
	}

	m := &Mix{}
	// iterate in kind order, the picks must not depend on map order
	for _, kind := range txn.Kinds {
		weight := byKind[kind]
		if weight == 0 {
			continue
		}
		m.total += weight
		m.kinds = append(m.kinds, kind)
		m.cumulative = append(m.cumulative, m.total)
	}
	if m.total == 0 {
		return nil, errors.New("transaction mix has no positive weight")
	}
	return m, nil
}

// Pick returns a kind with probability weight/total.
func (m *Mix) Pick(rnd *random.Context) txn.Kind {
	n := rnd.Intn(1, m.total)
	for i, c := range m.cumulative {
		if n <= c {
			return m.kinds[i]
		}
	}
	return m.kinds[len(m.kinds)-1]
}

// Kinds returns the kinds with a positive weight.
func (m *Mix) Kinds() []txn.Kind {
	return m.kinds
}
