package codec

import (
	"strconv"

	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// wireRecord is the representation of a record used by the json and gob
// codecs. Every field is stored in its text form, Present marks the fields
// that are set (gob can not encode nil slice elements).
type wireRecord struct {
	Schema  string   `json:"schema"`
	Version uint32   `json:"version"`
	Fields  []string `json:"fields"`
	Present []bool   `json:"present"`
}

func toWire(rec *skv.Record) (*wireRecord, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	w := &wireRecord{
		Schema:  rec.Schema.Name,
		Version: rec.Schema.Version,
		Fields:  make([]string, len(rec.Values)),
		Present: make([]bool, len(rec.Values)),
	}
	for i, v := range rec.Values {
		if v == nil {
			continue
		}
		var s string
		switch x := v.(type) {
		case int16:
			s = strconv.FormatInt(int64(x), 10)
		case int32:
			s = strconv.FormatInt(int64(x), 10)
		case int64:
			s = strconv.FormatInt(x, 10)
		case string:
			s = x
		case *apd.Decimal:
			s = x.String()
		}
		w.Fields[i] = s
		w.Present[i] = true
	}
	return w, nil
}

func fromWire(schema *skv.Schema, w *wireRecord) (*skv.Record, error) {
	if err := checkHeader(schema, w.Schema, w.Version, len(w.Fields)); err != nil {
		return nil, err
	}
	if len(w.Present) != len(w.Fields) {
		return nil, errors.New("malformed record: presence flags do not match fields")
	}
	rec := skv.NewRecord(schema)
	for i, s := range w.Fields {
		if !w.Present[i] {
			continue
		}
		v, err := parseField(schema.Fields[i], s)
		if err != nil {
			return nil, err
		}
		rec.Values[i] = v
	}
	return rec, nil
}

func checkHeader(schema *skv.Schema, name string, version uint32, fields int) error {
	if name != schema.Name || version != schema.Version {
		return errors.Newf("record of %s v%d can not be decoded as %s v%d", name, version, schema.Name, schema.Version)
	}
	if fields != len(schema.Fields) {
		return errors.Newf("record has %d fields, schema %s has %d", fields, schema.Name, len(schema.Fields))
	}
	return nil
}

func parseField(f skv.SchemaField, s string) (any, error) {
	switch f.Type {
	case skv.FieldInt16:
		n, err := strconv.ParseInt(s, 10, 16)
		return int16(n), errors.Wrapf(err, "field %s", f.Name)
	case skv.FieldInt32:
		n, err := strconv.ParseInt(s, 10, 32)
		return int32(n), errors.Wrapf(err, "field %s", f.Name)
	case skv.FieldInt64:
		n, err := strconv.ParseInt(s, 10, 64)
		return n, errors.Wrapf(err, "field %s", f.Name)
	case skv.FieldString:
		return s, nil
	case skv.FieldDecimal:
		d, _, err := apd.NewFromString(s)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		return d, nil
	default:
		return nil, errors.Newf("field %s has unknown type", f.Name)
	}
}
