package skv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// Record is a positional set of field values of one schema. A nil value
// means the field is unset. Values have the Go type matching the field type:
// int16, int32, int64, string or *apd.Decimal.
type Record struct {
	Schema *Schema
	Values []any
}

// NewRecord creates a record with all fields unset.
func NewRecord(schema *Schema) *Record {
	return &Record{
		Schema: schema,
		Values: make([]any, len(schema.Fields)),
	}
}

// Set sets the value of field i and returns the record.
func (r *Record) Set(i int, v any) *Record {
	r.Values[i] = v
	return r
}

// Get returns the value of field i (nil if unset).
func (r *Record) Get(i int) any {
	if i < 0 || i >= len(r.Values) {
		return nil
	}
	return r.Values[i]
}

// GetByName returns the value of the named field (nil if unset or unknown).
func (r *Record) GetByName(name string) any {
	return r.Get(r.Schema.FieldIndex(name))
}

// Clone returns a shallow copy of the record. Decimal values are shared and
// must be treated as immutable.
func (r *Record) Clone() *Record {
	values := make([]any, len(r.Values))
	copy(values, r.Values)
	return &Record{Schema: r.Schema, Values: values}
}

// Validate checks that the record matches its schema.
func (r *Record) Validate() error {
	if r.Schema == nil {
		return errors.New("record without schema")
	}
	if len(r.Values) != len(r.Schema.Fields) {
		return errors.Newf("record of %s has %d values, schema has %d fields",
			r.Schema.Name, len(r.Values), len(r.Schema.Fields))
	}
	for i, v := range r.Values {
		if v == nil {
			continue
		}
		if err := checkType(r.Schema.Fields[i], v); err != nil {
			return errors.Wrapf(err, "schema %s", r.Schema.Name)
		}
	}
	return nil
}

func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.Schema.Name)
	sb.WriteString("{")
	for i, f := range r.Schema.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteString(": ")
		sb.WriteString(formatValue(r.Get(i)))
	}
	sb.WriteString("}")
	return sb.String()
}

func checkType(f SchemaField, v any) error {
	ok := false
	switch f.Type {
	case FieldInt16:
		_, ok = v.(int16)
	case FieldInt32:
		_, ok = v.(int32)
	case FieldInt64:
		_, ok = v.(int64)
	case FieldString:
		_, ok = v.(string)
	case FieldDecimal:
		var d *apd.Decimal
		d, ok = v.(*apd.Decimal)
		ok = ok && d != nil
	}
	if !ok {
		return errors.Newf("field %s expects %s, got %T", f.Name, f.Type, v)
	}
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "<unset>"
	case string:
		return strconv.Quote(x)
	case *apd.Decimal:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// --------------------------------------------------------------------------
// Key encoding
// --------------------------------------------------------------------------

// The key of a record is the concatenation of its encoded key fields.
// Integers are encoded as 16 hex digits of the value with the sign bit
// flipped, strings are escaped and terminated. The encoding preserves the
// order of the values and the encoding of a key prefix is a prefix of the
// encoding of the full key.
const (
	stringEscape     = "\x00\xff"
	stringTerminator = "\x00\x01"
)

func encodeField(sb *strings.Builder, f SchemaField, v any) error {
	if err := checkType(f, v); err != nil {
		return err
	}
	var n int64
	switch x := v.(type) {
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case string:
		sb.WriteString(strings.ReplaceAll(x, "\x00", stringEscape))
		sb.WriteString(stringTerminator)
		return nil
	default:
		return errors.Newf("field %s of type %s can not be encoded in a key", f.Name, f.Type)
	}
	fmt.Fprintf(sb, "%016x", uint64(n)^(1<<63))
	return nil
}

// EncodeKey encodes the full key (partition and range key fields) of the
// record. All key fields must be set.
func (r *Record) EncodeKey() (string, error) {
	var sb strings.Builder
	for _, idx := range r.Schema.KeyFields() {
		v := r.Get(idx)
		if v == nil {
			return "", errors.Newf("key field %s of %s is not set", r.Schema.Fields[idx].Name, r.Schema.Name)
		}
		if err := encodeField(&sb, r.Schema.Fields[idx], v); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// EncodePartitionKey encodes the partition key fields of the record. All
// partition key fields must be set.
func (r *Record) EncodePartitionKey() (string, error) {
	var sb strings.Builder
	for _, idx := range r.Schema.PartitionKeyFields {
		v := r.Get(idx)
		if v == nil {
			return "", errors.Newf("partition key field %s of %s is not set", r.Schema.Fields[idx].Name, r.Schema.Name)
		}
		if err := encodeField(&sb, r.Schema.Fields[idx], v); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// EncodeKeyPrefix encodes the leading key fields of the record up to the
// first unset key field. complete reports whether the whole partition key is
// part of the prefix.
func (r *Record) EncodeKeyPrefix() (prefix string, complete bool, err error) {
	var sb strings.Builder
	n := 0
	for _, idx := range r.Schema.KeyFields() {
		v := r.Get(idx)
		if v == nil {
			break
		}
		if err := encodeField(&sb, r.Schema.Fields[idx], v); err != nil {
			return "", false, err
		}
		n++
	}
	return sb.String(), n >= len(r.Schema.PartitionKeyFields), nil
}

// KeyRecord returns a copy of the record that only holds the key fields.
func (r *Record) KeyRecord() *Record {
	key := NewRecord(r.Schema)
	for _, idx := range r.Schema.KeyFields() {
		key.Values[idx] = r.Get(idx)
	}
	return key
}
