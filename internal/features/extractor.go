package features

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Size bucket upper bounds in bytes, inclusive.
var sizeBuckets = []int64{1024, 100_000, 10_000_000, 100_000_000}

// SizeBucket maps a byte count onto the ordinal size_category feature.
func SizeBucket(size int64) int {
	for i, limit := range sizeBuckets {
		if size <= limit {
			return i
		}
	}
	return len(sizeBuckets)
}

// SplitName returns the lower-cased stem and extension of a file name. A
// leading dot does not start an extension.
func SplitName(name string) (stem, ext string) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	ext = filepath.Ext(base)
	if ext == base {
		ext = ""
	}
	stem = strings.TrimSuffix(base, ext)
	return lower(stem), strings.ToLower(ext)
}

// lower maps runes to lower case without folding, so ß stays ß. Casers are
// not safe for concurrent use.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Extractor builds schema-conformant vectors.
type Extractor struct {
	schema *Schema
}

// NewExtractor returns an extractor bound to schema.
func NewExtractor(schema *Schema) (*Extractor, error) {
	if schema == nil || schema.Len() == 0 {
		return nil, errors.New("features: schema is required")
	}
	return &Extractor{schema: schema}, nil
}

// Schema returns the bound schema.
func (e *Extractor) Schema() *Schema { return e.schema }

// Extract computes the vector for a file name and byte size. It never fails:
// unseen extensions and degenerate names still produce a full vector.
func (e *Extractor) Extract(path string, size int64) Vector {
	if size < 0 {
		size = 0
	}
	raw := e.raw(path, size)
	values := make([]float64, e.schema.Len())
	for i, name := range e.schema.fields {
		values[i] = raw[name]
	}
	return Vector{schema: e.schema, values: values}
}

func (e *Extractor) raw(path string, size int64) map[string]float64 {
	stem, ext := SplitName(path)
	out := make(map[string]float64, 8+2*len(priors))

	out[FieldExtension] = e.schema.ExtensionCode(ext)
	out[FieldNameLength] = float64(len([]rune(stem)))
	out[FieldSizeBytes] = float64(size)
	out[FieldSizeCategory] = float64(SizeBucket(size))
	out[FieldHasNumbers] = boolValue(strings.IndexFunc(stem, unicode.IsDigit) >= 0)
	out[FieldHasUnderscore] = float64(strings.Count(stem, "_"))
	out[FieldHasDash] = float64(strings.Count(stem, "-"))
	out[FieldWordCount] = float64(WordCount(stem))

	for _, p := range priors {
		out[KeywordField(p.key)] = float64(KeywordHits(stem, p.keywords))
		matched := false
		if ext != "" {
			for _, candidate := range p.extensions {
				if candidate == ext {
					matched = true
					break
				}
			}
		}
		out[ExtensionMatchField(p.key)] = boolValue(matched)
	}
	return out
}

// WordCount counts whitespace-separated words after treating underscores and
// dashes as separators.
func WordCount(stem string) int {
	normalized := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return len(strings.Fields(normalized))
}

// KeywordHits counts the keywords that occur as substrings of text. Each
// keyword counts at most once.
func KeywordHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
