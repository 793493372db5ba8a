package codec

import (
	"encoding/json"

	"github.com/ValentinKolb/tatp/lib/skv"
)

// NewJSONCodec creates a new codec using json encoding
func NewJSONCodec() ICodec {
	return &jsonCodecImpl{}
}

// jsonCodecImpl implements the ICodec interface using json encoding
type jsonCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (j jsonCodecImpl) Encode(rec *skv.Record) ([]byte, error) {
	w, err := toWire(rec)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (j jsonCodecImpl) Decode(schema *skv.Schema, b []byte) (*skv.Record, error) {
	var w wireRecord
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	return fromWire(schema, &w)
}
