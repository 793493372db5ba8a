package skv

import (
	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Field types
// --------------------------------------------------------------------------

// FieldType is the type of a schema field.
type FieldType uint8

const (
	FieldInt16 FieldType = iota + 1
	FieldInt32
	FieldInt64
	FieldString
	FieldDecimal // *apd.Decimal
)

func (t FieldType) String() string {
	switch t {
	case FieldInt16:
		return "INT16"
	case FieldInt32:
		return "INT32"
	case FieldInt64:
		return "INT64"
	case FieldString:
		return "STRING"
	case FieldDecimal:
		return "DECIMAL"
	default:
		return "UNKNOWN"
	}
}

// SchemaField describes a single field of a schema.
type SchemaField struct {
	Type FieldType
	Name string
}

// --------------------------------------------------------------------------
// Schema
// --------------------------------------------------------------------------

// Schema describes the layout of the records of one table. The key of a
// record consists of the partition key fields followed by the range key
// fields, both given as indexes into Fields.
//
// Schemas are created once at startup and must not be modified afterwards,
// they are shared by reference between all goroutines.
type Schema struct {
	Name               string
	Version            uint32
	Fields             []SchemaField
	PartitionKeyFields []int
	RangeKeyFields     []int
}

// FieldIndex returns the index of the field with the given name or -1.
func (s *Schema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// KeyFields returns the partition key fields followed by the range key fields.
func (s *Schema) KeyFields() []int {
	keys := make([]int, 0, len(s.PartitionKeyFields)+len(s.RangeKeyFields))
	keys = append(keys, s.PartitionKeyFields...)
	return append(keys, s.RangeKeyFields...)
}

// Validate checks the structure of the schema.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return errors.New("schema without name")
	}
	if len(s.Fields) == 0 {
		return errors.Newf("schema %s has no fields", s.Name)
	}
	if len(s.PartitionKeyFields) == 0 {
		return errors.Newf("schema %s has no partition key", s.Name)
	}

	names := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" || names[f.Name] {
			return errors.Newf("schema %s: empty or duplicate field name %q", s.Name, f.Name)
		}
		if f.Type < FieldInt16 || f.Type > FieldDecimal {
			return errors.Newf("schema %s: field %s has unknown type", s.Name, f.Name)
		}
		names[f.Name] = true
	}

	used := make(map[int]bool)
	for _, idx := range s.KeyFields() {
		if idx < 0 || idx >= len(s.Fields) {
			return errors.Newf("schema %s: key field index %d out of range", s.Name, idx)
		}
		if used[idx] {
			return errors.Newf("schema %s: field %s used twice in key", s.Name, s.Fields[idx].Name)
		}
		if s.Fields[idx].Type == FieldDecimal {
			return errors.Newf("schema %s: decimal field %s can not be part of the key", s.Name, s.Fields[idx].Name)
		}
		used[idx] = true
	}
	return nil
}

// --------------------------------------------------------------------------
// Catalog
// --------------------------------------------------------------------------

// Catalog is the immutable set of schemas of one collection.
type Catalog struct {
	collection string
	schemas    map[string]*Schema
	order      []*Schema
}

// NewCatalog validates the given schemas and creates a catalog for them.
func NewCatalog(collection string, schemas ...*Schema) (*Catalog, error) {
	c := &Catalog{
		collection: collection,
		schemas:    make(map[string]*Schema, len(schemas)),
		order:      make([]*Schema, 0, len(schemas)),
	}
	for _, s := range schemas {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.schemas[s.Name]; exists {
			return nil, errors.Newf("schema %s registered twice in collection %s", s.Name, collection)
		}
		c.schemas[s.Name] = s
		c.order = append(c.order, s)
	}
	return c, nil
}

// MergeCatalogs creates a catalog containing the schemas of all given catalogs.
func MergeCatalogs(collection string, catalogs ...*Catalog) (*Catalog, error) {
	var schemas []*Schema
	for _, c := range catalogs {
		schemas = append(schemas, c.order...)
	}
	return NewCatalog(collection, schemas...)
}

// Collection returns the name of the collection.
func (c *Catalog) Collection() string {
	return c.collection
}

// Get returns the schema with the given name.
func (c *Catalog) Get(name string) (*Schema, bool) {
	s, ok := c.schemas[name]
	return s, ok
}

// Contains reports whether the given schema (by identity) belongs to the catalog.
func (c *Catalog) Contains(s *Schema) bool {
	if s == nil {
		return false
	}
	registered, ok := c.schemas[s.Name]
	return ok && registered == s
}

// Schemas returns all schemas in registration order.
func (c *Catalog) Schemas() []*Schema {
	out := make([]*Schema, len(c.order))
	copy(out, c.order)
	return out
}
