package features

import "slices"

// Vector is a feature vector bound to the schema it was built for.
type Vector struct {
	schema *Schema
	values []float64
}

// NewVector builds a vector from explicit values. Extra values are dropped
// and missing values are 0.
func NewVector(schema *Schema, values []float64) Vector {
	out := make([]float64, schema.Len())
	copy(out, values)
	return Vector{schema: schema, values: out}
}

// Schema returns the schema the vector was built for.
func (v Vector) Schema() *Schema { return v.schema }

// Len returns the number of values.
func (v Vector) Len() int { return len(v.values) }

// At returns the value at position i.
func (v Vector) At(i int) float64 {
	if i < 0 || i >= len(v.values) {
		return 0
	}
	return v.values[i]
}

// Values returns a copy of the values in schema order.
func (v Vector) Values() []float64 { return slices.Clone(v.values) }

// Get returns the value of a named field.
func (v Vector) Get(name string) (float64, bool) {
	i, ok := v.schema.Index(name)
	if !ok || i >= len(v.values) {
		return 0, false
	}
	return v.values[i], true
}

// Names returns the schema field names.
func (v Vector) Names() []string { return v.schema.Fields() }
