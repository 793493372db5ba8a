package skv

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrWriteFailed is returned by WriteRow and PartialUpdateRow if the store
// did not accept the write.
var ErrWriteFailed = errors.New("write failed")

// Row is a typed entity that can be converted into a record.
type Row interface {
	ToRecord() *Record
}

// WriteRow writes a row and turns a non 2xx status into an error marked
// with ErrWriteFailed.
func WriteRow(ctx context.Context, txn Txn, row Row, erase bool) error {
	rec := row.ToRecord()
	res := txn.Write(ctx, rec, erase)
	if !res.Status.Is2xxOK() {
		return errors.Wrapf(ErrWriteFailed, "write %s: %s", rec.Schema.Name, res.Status)
	}
	return nil
}

// PartialUpdateRow updates the given fields of a row and turns a non 2xx
// status into an error marked with ErrWriteFailed.
func PartialUpdateRow(ctx context.Context, txn Txn, row Row, fields []int) error {
	rec := row.ToRecord()
	res := txn.PartialUpdate(ctx, rec, fields)
	if !res.Status.Is2xxOK() {
		return errors.Wrapf(ErrWriteFailed, "partial update %s: %s", rec.Schema.Name, res.Status)
	}
	return nil
}
