package features

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// UnknownExtensionCode is the value assigned to extensions absent from the
// schema's code table.
const UnknownExtensionCode = -1

// ErrInvalidSchema reports a malformed schema definition.
var ErrInvalidSchema = errors.New("invalid feature schema")

// Schema is the ordered field list and extension encoding a model was
// trained against.
type Schema struct {
	version        string
	fields         []string
	index          map[string]int
	extensionCodes map[string]float64
}

// NewSchema validates and builds a schema. Extension keys are normalized to
// lower case with a leading dot.
func NewSchema(version string, fields []string, extensionCodes map[string]float64) (*Schema, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidSchema)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidSchema)
	}
	index := make(map[string]int, len(fields))
	for i, name := range fields {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: field %d is empty", ErrInvalidSchema, i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, name)
		}
		index[name] = i
	}
	codes := make(map[string]float64, len(extensionCodes))
	for ext, code := range extensionCodes {
		key := normalizeExtension(ext)
		if key == "" {
			continue
		}
		codes[key] = code
	}
	return &Schema{
		version:        version,
		fields:         slices.Clone(fields),
		index:          index,
		extensionCodes: codes,
	}, nil
}

// DefaultSchema returns a schema covering every extractor feature with codes
// assigned to each known category extension in first-seen order.
func DefaultSchema(version string) *Schema {
	codes := make(map[string]float64)
	for _, p := range priors {
		for _, ext := range p.extensions {
			if _, ok := codes[ext]; !ok {
				codes[ext] = float64(len(codes))
			}
		}
	}
	schema, err := NewSchema(version, DefaultFields(), codes)
	if err != nil {
		panic(err)
	}
	return schema
}

// Version identifies the training contract.
func (s *Schema) Version() string {
	if s == nil {
		return ""
	}
	return s.version
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Fields returns a copy of the ordered field names.
func (s *Schema) Fields() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.fields)
}

// Index returns the position of a field.
func (s *Schema) Index(name string) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[name]
	return i, ok
}

// ExtensionCode returns the trained code for ext or UnknownExtensionCode.
func (s *Schema) ExtensionCode(ext string) float64 {
	if s == nil {
		return UnknownExtensionCode
	}
	if code, ok := s.extensionCodes[normalizeExtension(ext)]; ok {
		return code
	}
	return UnknownExtensionCode
}

// Compatible reports whether vectors built for other can be scored by s.
func (s *Schema) Compatible(other *Schema) bool {
	if s == nil || other == nil {
		return false
	}
	if s == other {
		return true
	}
	return s.version == other.version && slices.Equal(s.fields, other.fields)
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
