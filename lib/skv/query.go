package skv

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Query
// --------------------------------------------------------------------------

// Query describes a range scan over the records of one schema.
//
// StartScanKey and EndScanKey are key prefixes: only the leading key fields
// up to the first unset one are used. The scan covers all records whose key
// is >= the start prefix and that are below or start with the end prefix, so
// setting both to the same prefix selects exactly the records with that
// prefix. A nil or empty start key scans from the first record of the
// schema, a nil or empty end key scans to the last one.
type Query struct {
	Schema       *Schema
	StartScanKey *Record
	EndScanKey   *Record
	Reverse      bool
	Limit        int // maximum number of records, -1 = unlimited
	Filter       *Expression
}

// NewQuery creates an unlimited forward query over the whole schema.
func NewQuery(schema *Schema) *Query {
	return &Query{
		Schema:       schema,
		StartScanKey: NewRecord(schema),
		EndScanKey:   NewRecord(schema),
		Limit:        -1,
	}
}

// PrefixEnd returns the smallest string that is greater than all strings
// starting with prefix. An empty result means there is no upper bound.
func PrefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

// --------------------------------------------------------------------------
// Filter expressions
// --------------------------------------------------------------------------

// Operation is the operator of a filter expression.
type Operation uint8

const (
	OpEQ Operation = iota + 1
	OpLT
	OpLTE
	OpGT
	OpGTE
	OpAND
	OpOR
	OpNOT
)

func (o Operation) String() string {
	switch o {
	case OpEQ:
		return "EQ"
	case OpLT:
		return "LT"
	case OpLTE:
		return "LTE"
	case OpGT:
		return "GT"
	case OpGTE:
		return "GTE"
	case OpAND:
		return "AND"
	case OpOR:
		return "OR"
	case OpNOT:
		return "NOT"
	default:
		return "UNKNOWN"
	}
}

// Value is an operand of a comparison: either a reference to a field of the
// record under test or a literal.
type Value struct {
	FieldName string // set for field references
	Literal   any    // int16, int32, int64, string or *apd.Decimal
}

// Ref creates a field reference operand.
func Ref(fieldName string) Value {
	return Value{FieldName: fieldName}
}

// Lit creates a literal operand.
func Lit(v any) Value {
	return Value{Literal: v}
}

// IsReference reports whether the value references a field.
func (v Value) IsReference() bool {
	return v.FieldName != ""
}

// Expression is a node of a filter expression tree. Comparisons (EQ, LT,
// LTE, GT, GTE) use exactly two Values, AND and OR combine their Children,
// NOT negates its single child.
type Expression struct {
	Op       Operation
	Values   []Value
	Children []*Expression
}

// Compare creates a comparison expression.
func Compare(op Operation, left, right Value) *Expression {
	return &Expression{Op: op, Values: []Value{left, right}}
}

// And combines the given expressions with a logical and.
func And(children ...*Expression) *Expression {
	return &Expression{Op: OpAND, Children: children}
}

// Or combines the given expressions with a logical or.
func Or(children ...*Expression) *Expression {
	return &Expression{Op: OpOR, Children: children}
}

// Not negates the given expression.
func Not(child *Expression) *Expression {
	return &Expression{Op: OpNOT, Children: []*Expression{child}}
}

// Eval evaluates the expression against a record. A comparison with an
// unset field is false. A nil expression matches every record.
func (e *Expression) Eval(rec *Record) (bool, error) {
	if e == nil {
		return true, nil
	}
	switch e.Op {
	case OpAND:
		for _, c := range e.Children {
			ok, err := c.Eval(rec)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OpOR:
		for _, c := range e.Children {
			ok, err := c.Eval(rec)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case OpNOT:
		if len(e.Children) != 1 {
			return false, errors.Newf("NOT expects one child, got %d", len(e.Children))
		}
		ok, err := e.Children[0].Eval(rec)
		return !ok && err == nil, err
	case OpEQ, OpLT, OpLTE, OpGT, OpGTE:
		if len(e.Values) != 2 {
			return false, errors.Newf("%s expects two values, got %d", e.Op, len(e.Values))
		}
		left, err := resolve(e.Values[0], rec)
		if err != nil {
			return false, err
		}
		right, err := resolve(e.Values[1], rec)
		if err != nil {
			return false, err
		}
		if left == nil || right == nil {
			return false, nil
		}
		c, err := compareValues(left, right)
		if err != nil {
			return false, err
		}
		switch e.Op {
		case OpEQ:
			return c == 0, nil
		case OpLT:
			return c < 0, nil
		case OpLTE:
			return c <= 0, nil
		case OpGT:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	default:
		return false, errors.Newf("unknown operation %d", e.Op)
	}
}

// Validate checks that all field references exist in the schema.
func (e *Expression) Validate(schema *Schema) error {
	if e == nil {
		return nil
	}
	for _, v := range e.Values {
		if v.IsReference() && schema.FieldIndex(v.FieldName) < 0 {
			return errors.Newf("unknown field %s in filter on %s", v.FieldName, schema.Name)
		}
	}
	for _, c := range e.Children {
		if err := c.Validate(schema); err != nil {
			return err
		}
	}
	return nil
}

func resolve(v Value, rec *Record) (any, error) {
	if !v.IsReference() {
		return v.Literal, nil
	}
	idx := rec.Schema.FieldIndex(v.FieldName)
	if idx < 0 {
		return nil, errors.Newf("unknown field %s", v.FieldName)
	}
	return rec.Get(idx), nil
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	}
	return 0, false
}

// compareValues compares integers of any width with each other, strings
// with strings and decimals with decimals or integers.
func compareValues(a, b any) (int, error) {
	ai, aInt := asInt(a)
	bi, bInt := asInt(b)
	switch {
	case aInt && bInt:
		switch {
		case ai < bi:
			return -1, nil
		case ai > bi:
			return 1, nil
		}
		return 0, nil
	case aInt || bInt:
		ad, aDec := a.(*apd.Decimal)
		bd, bDec := b.(*apd.Decimal)
		if aDec {
			return ad.Cmp(apd.New(bi, 0)), nil
		}
		if bDec {
			return apd.New(ai, 0).Cmp(bd), nil
		}
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1, nil
			case as > bs:
				return 1, nil
			}
			return 0, nil
		}
	}
	if ad, ok := a.(*apd.Decimal); ok {
		if bd, ok := b.(*apd.Decimal); ok {
			return ad.Cmp(bd), nil
		}
	}
	return 0, errors.Newf("can not compare %T with %T", a, b)
}
