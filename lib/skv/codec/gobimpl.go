package codec

import (
	"bytes"
	"encoding/gob"

	"github.com/ValentinKolb/tatp/lib/skv"
)

// NewGOBCodec creates a new codec using Go's binary gob format
func NewGOBCodec() ICodec {
	return &gobCodecImpl{}
}

// gobCodecImpl implements the ICodec interface using gob encoding
type gobCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (g gobCodecImpl) Encode(rec *skv.Record) ([]byte, error) {
	w, err := toWire(rec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobCodecImpl) Decode(schema *skv.Schema, b []byte) (*skv.Record, error) {
	var w wireRecord
	dec := gob.NewDecoder(bytes.NewBuffer(b))
	if err := dec.Decode(&w); err != nil {
		return nil, err
	}
	return fromWire(schema, &w)
}
