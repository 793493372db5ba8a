package skv

import (
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = &Schema{
	Name:    "test",
	Version: 1,
	Fields: []SchemaField{
		{FieldInt32, "id"},
		{FieldInt16, "kind"},
		{FieldString, "name"},
		{FieldInt64, "count"},
		{FieldDecimal, "amount"},
	},
	PartitionKeyFields: []int{0},
	RangeKeyFields:     []int{1, 2},
}

func key(t *testing.T, id int32, kind int16, name string) string {
	t.Helper()
	k, err := NewRecord(testSchema).Set(0, id).Set(1, kind).Set(2, name).EncodeKey()
	require.NoError(t, err)
	return k
}

func TestStatusGroups(t *testing.T) {
	assert.True(t, StatusOK.Is2xxOK())
	assert.True(t, StatusCreated.Is2xxOK())
	assert.False(t, StatusNotFound.Is2xxOK())
	assert.True(t, StatusNotFound.IsNotFound())
	for _, code := range []int{CodeBadRequest, CodeTimeout, CodeConflict, CodeGone, CodeInternalError} {
		s := NewStatus(code, "failure %d", code)
		assert.False(t, s.Is2xxOK(), "code %d", code)
		assert.False(t, s.IsNotFound(), "code %d", code)
	}
	assert.Equal(t, "409 busy", NewStatus(CodeConflict, "busy").String())
}

func TestSchemaValidation(t *testing.T) {
	require.NoError(t, testSchema.Validate())

	bad := []*Schema{
		{Name: "", Fields: []SchemaField{{FieldInt32, "a"}}, PartitionKeyFields: []int{0}},
		{Name: "nofields", PartitionKeyFields: []int{0}},
		{Name: "nokey", Fields: []SchemaField{{FieldInt32, "a"}}},
		{Name: "dup", Fields: []SchemaField{{FieldInt32, "a"}, {FieldInt32, "a"}}, PartitionKeyFields: []int{0}},
		{Name: "range", Fields: []SchemaField{{FieldInt32, "a"}}, PartitionKeyFields: []int{3}},
		{Name: "deckey", Fields: []SchemaField{{FieldDecimal, "a"}}, PartitionKeyFields: []int{0}},
	}
	for _, s := range bad {
		assert.Error(t, s.Validate(), "schema %q should be invalid", s.Name)
	}

	_, err := NewCatalog("c", testSchema, testSchema)
	assert.Error(t, err, "duplicate schema names")

	c, err := NewCatalog("c", testSchema)
	require.NoError(t, err)
	got, ok := c.Get("test")
	assert.True(t, ok)
	assert.Same(t, testSchema, got)
	assert.True(t, c.Contains(testSchema))
	assert.False(t, c.Contains(&Schema{Name: "test"}))
}

// TestKeyOrder checks that the byte order of encoded keys matches the
// order of the key values.
func TestKeyOrder(t *testing.T) {
	type tuple struct {
		id   int32
		kind int16
		name string
	}
	tuples := []tuple{
		{math.MinInt32, 0, ""},
		{-5, 3, "b"},
		{-5, 3, "b\x00"},
		{-1, -1, "a"},
		{0, 0, ""},
		{0, 0, "a"},
		{0, 0, "ab"},
		{0, 1, ""},
		{1, math.MinInt16, "zzz"},
		{1, 2, "a"},
		{255, 0, ""},
		{256, 0, ""},
		{math.MaxInt32, math.MaxInt16, "z"},
	}

	keys := make([]string, len(tuples))
	for i, tp := range tuples {
		keys[i] = key(t, tp.id, tp.kind, tp.name)
	}
	assert.True(t, sort.StringsAreSorted(keys), "encoded keys are not sorted: %q", keys)
}

func TestKeyPrefix(t *testing.T) {
	full := key(t, 42, 3, "x")

	prefix, complete, err := NewRecord(testSchema).Set(0, int32(42)).Set(1, int16(3)).EncodeKeyPrefix()
	require.NoError(t, err)
	assert.True(t, complete)
	assert.True(t, strings.HasPrefix(full, prefix))

	// the prefix stops at the first unset key field
	prefix2, _, err := NewRecord(testSchema).Set(0, int32(42)).Set(2, "x").EncodeKeyPrefix()
	require.NoError(t, err)
	part, err := NewRecord(testSchema).Set(0, int32(42)).EncodePartitionKey()
	require.NoError(t, err)
	assert.Equal(t, part, prefix2)

	empty, complete, err := NewRecord(testSchema).EncodeKeyPrefix()
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Empty(t, empty)

	_, err = NewRecord(testSchema).Set(0, int32(1)).EncodeKey()
	assert.Error(t, err, "incomplete key")

	_, err = NewRecord(testSchema).Set(0, int64(1)).Set(1, int16(1)).Set(2, "").EncodeKey()
	assert.Error(t, err, "wrong key type")
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, "ab", PrefixEnd("aa"))
	assert.Equal(t, "b", PrefixEnd("a\xff"))
	assert.Equal(t, "", PrefixEnd("\xff\xff"))
	assert.Equal(t, "", PrefixEnd(""))
	assert.True(t, "aa\xfe\xff" < PrefixEnd("aa"))
}

func TestRecordValidate(t *testing.T) {
	rec := NewRecord(testSchema).Set(0, int32(1)).Set(4, apd.New(1050, -2))
	require.NoError(t, rec.Validate())
	assert.Contains(t, rec.String(), "amount: 10.50")

	rec.Set(3, "not a number")
	assert.Error(t, rec.Validate())

	short := &Record{Schema: testSchema, Values: []any{int32(1)}}
	assert.Error(t, short.Validate())
}

func TestExpressionEval(t *testing.T) {
	rec := NewRecord(testSchema).
		Set(0, int32(7)).
		Set(1, int16(0)).
		Set(2, "foo").
		Set(4, apd.New(1000, -2))

	cases := []struct {
		name string
		expr *Expression
		want bool
	}{
		{"nil matches", nil, true},
		{"eq across widths", Compare(OpEQ, Ref("id"), Lit(int64(7))), true},
		{"lte", Compare(OpLTE, Ref("kind"), Lit(int32(0))), true},
		{"gt false", Compare(OpGT, Ref("kind"), Lit(int32(0))), false},
		{"literal left", Compare(OpLT, Lit(int32(3)), Ref("id")), true},
		{"gte string", Compare(OpGTE, Ref("name"), Lit("fon")), true},
		{"decimal vs int", Compare(OpEQ, Ref("amount"), Lit(int32(10))), true},
		{"decimal vs decimal", Compare(OpLT, Ref("amount"), Lit(apd.New(1001, -2))), true},
		{"unset field", Compare(OpEQ, Ref("count"), Lit(int64(0))), false},
		{"and", And(Compare(OpLTE, Ref("kind"), Lit(int32(0))), Compare(OpGT, Ref("id"), Lit(int32(3)))), true},
		{"and short", And(Compare(OpGT, Ref("kind"), Lit(int32(0))), Compare(OpGT, Ref("id"), Lit(int32(3)))), false},
		{"or", Or(Compare(OpGT, Ref("kind"), Lit(int32(0))), Compare(OpGT, Ref("id"), Lit(int32(3)))), true},
		{"not", Not(Compare(OpEQ, Ref("name"), Lit("foo"))), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.expr.Eval(rec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("errors", func(t *testing.T) {
		_, err := Compare(OpEQ, Ref("name"), Lit(int32(1))).Eval(rec)
		assert.Error(t, err)
		_, err = Compare(OpEQ, Ref("nope"), Lit(int32(1))).Eval(rec)
		assert.Error(t, err)
		_, err = (&Expression{Op: OpNOT}).Eval(rec)
		assert.Error(t, err)
		assert.Error(t, Compare(OpEQ, Ref("nope"), Lit(1)).Validate(testSchema))
		assert.NoError(t, And(Compare(OpEQ, Ref("id"), Lit(1))).Validate(testSchema))
	})
}
