package codec

import (
	"strings"

	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/cockroachdb/errors"
)

// ICodec is the interface for all record codecs
type ICodec interface {
	// Encode serializes a record into a byte array
	// It returns the serialized byte array and an error if any
	Encode(rec *skv.Record) ([]byte, error)
	// Decode deserializes a byte array into a record of the given schema
	// It returns an error if the data does not belong to the schema
	Decode(schema *skv.Schema, b []byte) (*skv.Record, error)
}

// Names lists the names accepted by New.
var Names = []string{"binary", "json", "gob"}

// New returns the codec with the given name.
func New(name string) (ICodec, error) {
	switch strings.ToLower(name) {
	case "binary":
		return NewBinaryCodec(), nil
	case "json":
		return NewJSONCodec(), nil
	case "gob":
		return NewGOBCodec(), nil
	default:
		return nil, errors.Newf("unknown serializer %q (must be one of %s)", name, strings.Join(Names, ", "))
	}
}
