package codec

import (
	"encoding/binary"

	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// NewBinaryCodec creates a new codec using a custom binary format
// optimized for speed and efficiency
func NewBinaryCodec() ICodec {
	return &binaryCodecImpl{}
}

// binaryCodecImpl implements ICodec using a custom binary format:
//
//	version   uint32
//	nameLen   uint16, name bytes
//	numFields uint16
//	presence  bitmap, one bit per field
//	values    of the present fields in field order
//
// Integers are stored big endian with their schema width, strings and
// decimals (text form) with a uint32 length prefix.
type binaryCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (b binaryCodecImpl) Encode(rec *skv.Record) ([]byte, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	// Decimals are converted once, their size is needed up front
	texts := make(map[int]string)
	for i, v := range rec.Values {
		if d, ok := v.(*apd.Decimal); ok {
			texts[i] = d.String()
		}
	}

	// Calculate total size needed
	result := make([]byte, b.sizeBytes(rec, texts))

	name := rec.Schema.Name
	numFields := len(rec.Values)

	binary.BigEndian.PutUint32(result[0:4], rec.Schema.Version)
	binary.BigEndian.PutUint16(result[4:6], uint16(len(name)))
	pos := 6
	copy(result[pos:pos+len(name)], name)
	pos += len(name)
	binary.BigEndian.PutUint16(result[pos:pos+2], uint16(numFields))
	pos += 2

	// Presence bitmap is filled while writing the values
	bitmap := result[pos : pos+bitmapLen(numFields)]
	pos += len(bitmap)

	for i, v := range rec.Values {
		if v == nil {
			continue
		}
		bitmap[i/8] |= 1 << (i % 8)

		switch x := v.(type) {
		case int16:
			binary.BigEndian.PutUint16(result[pos:pos+2], uint16(x))
			pos += 2
		case int32:
			binary.BigEndian.PutUint32(result[pos:pos+4], uint32(x))
			pos += 4
		case int64:
			binary.BigEndian.PutUint64(result[pos:pos+8], uint64(x))
			pos += 8
		case string:
			pos = putString(result, pos, x)
		case *apd.Decimal:
			pos = putString(result, pos, texts[i])
		}
	}

	return result, nil
}

func (b binaryCodecImpl) Decode(schema *skv.Schema, data []byte) (*skv.Record, error) {
	// Check minimum size (version + name length)
	if len(data) < 6 {
		return nil, errors.New("data too short for record header")
	}

	version := binary.BigEndian.Uint32(data[0:4])
	nameLen := int(binary.BigEndian.Uint16(data[4:6]))
	pos := 6
	if pos+nameLen+2 > len(data) {
		return nil, errors.New("data too short for schema name")
	}
	name := string(data[pos : pos+nameLen])
	pos += nameLen
	numFields := int(binary.BigEndian.Uint16(data[pos : pos+2]))
	pos += 2

	if err := checkHeader(schema, name, version, numFields); err != nil {
		return nil, err
	}

	if pos+bitmapLen(numFields) > len(data) {
		return nil, errors.New("data too short for presence bitmap")
	}
	bitmap := data[pos : pos+bitmapLen(numFields)]
	pos += len(bitmap)

	rec := skv.NewRecord(schema)
	for i, f := range schema.Fields {
		if bitmap[i/8]&(1<<(i%8)) == 0 {
			continue
		}

		switch f.Type {
		case skv.FieldInt16:
			if pos+2 > len(data) {
				return nil, errors.Newf("data too short for field %s", f.Name)
			}
			rec.Values[i] = int16(binary.BigEndian.Uint16(data[pos : pos+2]))
			pos += 2
		case skv.FieldInt32:
			if pos+4 > len(data) {
				return nil, errors.Newf("data too short for field %s", f.Name)
			}
			rec.Values[i] = int32(binary.BigEndian.Uint32(data[pos : pos+4]))
			pos += 4
		case skv.FieldInt64:
			if pos+8 > len(data) {
				return nil, errors.Newf("data too short for field %s", f.Name)
			}
			rec.Values[i] = int64(binary.BigEndian.Uint64(data[pos : pos+8]))
			pos += 8
		case skv.FieldString, skv.FieldDecimal:
			s, next, err := getString(data, pos)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s", f.Name)
			}
			pos = next
			if f.Type == skv.FieldString {
				rec.Values[i] = s
				continue
			}
			v, err := parseField(f, s)
			if err != nil {
				return nil, err
			}
			rec.Values[i] = v
		}
	}

	return rec, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binaryCodecImpl) sizeBytes(rec *skv.Record, texts map[int]string) int {
	// version + name length + name + field count + bitmap
	size := 4 + 2 + len(rec.Schema.Name) + 2 + bitmapLen(len(rec.Values))

	for i, v := range rec.Values {
		switch x := v.(type) {
		case int16:
			size += 2
		case int32:
			size += 4
		case int64:
			size += 8
		case string:
			size += 4 + len(x) // 4 bytes for length + string
		case *apd.Decimal:
			size += 4 + len(texts[i])
		}
	}
	return size
}

func bitmapLen(numFields int) int {
	return (numFields + 7) / 8
}

func putString(buf []byte, pos int, s string) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(s)))
	pos += 4
	copy(buf[pos:pos+len(s)], s)
	return pos + len(s)
}

func getString(data []byte, pos int) (string, int, error) {
	if pos+4 > len(data) {
		return "", pos, errors.New("data too short for string length")
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if pos+n > len(data) {
		return "", pos, errors.New("data too short for string data")
	}
	return string(data[pos : pos+n]), pos + n, nil
}
