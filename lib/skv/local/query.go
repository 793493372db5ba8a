package local

import (
	"sort"

	"github.com/ValentinKolb/tatp/lib/skv"
)

// scanRange returns the storage key range [start, end) covered by a query.
func (t *txn) scanRange(q *skv.Query) (start, end string, err error) {
	base := t.client.schemaPrefix(q.Schema)

	start = base
	if q.StartScanKey != nil {
		prefix, _, err := q.StartScanKey.EncodeKeyPrefix()
		if err != nil {
			return "", "", err
		}
		start += prefix
	}

	end = skv.PrefixEnd(base)
	if q.EndScanKey != nil {
		prefix, _, err := q.EndScanKey.EncodeKeyPrefix()
		if err != nil {
			return "", "", err
		}
		if prefix != "" {
			end = skv.PrefixEnd(base + prefix)
		}
	}
	return start, end, nil
}

// singlePartition returns the partition key if the query can only match
// records of one partition.
func singlePartition(q *skv.Query) (string, bool) {
	if q.StartScanKey == nil || q.EndScanKey == nil {
		return "", false
	}
	startPart, err := q.StartScanKey.EncodePartitionKey()
	if err != nil {
		return "", false
	}
	endPart, err := q.EndScanKey.EncodePartitionKey()
	if err != nil || startPart != endPart {
		return "", false
	}
	return startPart, true
}

// query runs a range scan. Committed records are merged with the buffered
// writes of the transaction, then filtered, ordered and limited.
//
// Single partition queries lock their partition before scanning. Queries
// spanning several partitions lock every partition they return a record
// from, records of partitions created after the scan are not protected.
func (t *txn) query(q *skv.Query) ([]*skv.Record, skv.Status) {
	if err := q.Filter.Validate(q.Schema); err != nil {
		return nil, skv.NewStatus(skv.CodeBadRequest, "%v", err)
	}
	if q.Limit == 0 {
		return []*skv.Record{}, skv.StatusOK
	}
	for _, key := range []*skv.Record{q.StartScanKey, q.EndScanKey} {
		if key != nil && key.Schema != q.Schema {
			return nil, skv.NewStatus(skv.CodeBadRequest, "scan key of %s used in query on %s", key.Schema.Name, q.Schema.Name)
		}
	}

	start, end, err := t.scanRange(q)
	if err != nil {
		return nil, skv.NewStatus(skv.CodeBadRequest, "%v", err)
	}
	if end != "" && end <= start {
		return []*skv.Record{}, skv.StatusOK
	}

	partition, single := singlePartition(q)
	if single {
		if status, ok := t.lock(q.Schema, partition); !ok {
			return nil, status
		}
	}

	// committed state
	committed := make(map[string][]byte)
	err = t.client.store.Scan(start, end, false, func(key string, value []byte) bool {
		committed[key] = value
		return true
	})
	if err != nil {
		return nil, skv.NewStatus(skv.CodeInternalError, "scan: %v", err)
	}

	records := make(map[string]*skv.Record, len(committed))
	for key, data := range committed {
		rec, err := t.client.codec.Decode(q.Schema, data)
		if err != nil {
			return nil, skv.NewStatus(skv.CodeInternalError, "decode %s: %v", q.Schema.Name, err)
		}
		records[key] = rec
	}

	// own writes
	for key, w := range t.writes {
		if key < start || (end != "" && key >= end) {
			continue
		}
		if w.erase {
			delete(records, key)
		} else {
			records[key] = w.rec.Clone()
		}
	}

	keys := make([]string, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if q.Reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}

	result := make([]*skv.Record, 0, len(keys))
	for _, key := range keys {
		rec := records[key]
		match, err := q.Filter.Eval(rec)
		if err != nil {
			return nil, skv.NewStatus(skv.CodeBadRequest, "filter: %v", err)
		}
		if !match {
			continue
		}
		if !single {
			partitionKey, err := rec.EncodePartitionKey()
			if err != nil {
				return nil, skv.NewStatus(skv.CodeInternalError, "%v", err)
			}
			if status, ok := t.lock(q.Schema, partitionKey); !ok {
				return nil, status
			}
		}
		result = append(result, rec)
		if q.Limit > 0 && len(result) >= q.Limit {
			break
		}
	}

	log.Debugf("txn %s query on %s returned %d records", t.id, q.Schema.Name, len(result))
	return result, skv.StatusOK
}
