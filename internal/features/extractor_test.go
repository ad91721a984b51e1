package features

import (
	"errors"
	"testing"
)

func TestExtractProducesSchemaLengthVector(t *testing.T) {
	schema := DefaultSchema("v1")
	ex, err := NewExtractor(schema)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	cases := []struct {
		name string
		path string
		size int64
	}{
		{"regular", "/downloads/Calculus_Homework_Set-3.pdf", 52_000},
		{"unseen extension", "notes.xyz", 10},
		{"no extension", "README", 2048},
		{"dot file", ".bashrc", 4096},
		{"empty", "", 0},
		{"negative size", "clip.mp4", -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vec := ex.Extract(tc.path, tc.size)
			if vec.Len() != schema.Len() {
				t.Fatalf("vector length = %d, want %d", vec.Len(), schema.Len())
			}
			if vec.Schema() != schema {
				t.Fatal("vector not bound to extractor schema")
			}
		})
	}
}

func TestExtractFeatureValues(t *testing.T) {
	ex, err := NewExtractor(DefaultSchema("v1"))
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	vec := ex.Extract("/tmp/Calculus_Homework_Set-3.PDF", 52_000)

	want := []struct {
		name  string
		value float64
	}{
		{FieldNameLength, float64(len("calculus_homework_set-3"))},
		{FieldSizeBytes, 52_000},
		{FieldSizeCategory, 1},
		{FieldHasNumbers, 1},
		{FieldHasUnderscore, 2},
		{FieldHasDash, 1},
		{FieldWordCount, 4},
		{KeywordField("education"), 1},
		{ExtensionMatchField("education"), 1},
		{ExtensionMatchField("finance"), 1},
		{ExtensionMatchField("movies"), 0},
	}
	for _, w := range want {
		got, ok := vec.Get(w.name)
		if !ok {
			t.Fatalf("field %q missing", w.name)
		}
		if got != w.value {
			t.Fatalf("%s = %v, want %v", w.name, got, w.value)
		}
	}
	if code, _ := vec.Get(FieldExtension); code == UnknownExtensionCode {
		t.Fatal("expected .pdf to have a trained extension code")
	}
}

func TestExtractUnseenExtensionUsesSentinel(t *testing.T) {
	ex, _ := NewExtractor(DefaultSchema("v1"))
	vec := ex.Extract("mystery.qqq", 100)
	code, ok := vec.Get(FieldExtension)
	if !ok || code != UnknownExtensionCode {
		t.Fatalf("extension = %v (ok=%v), want %v", code, ok, UnknownExtensionCode)
	}
}

func TestExtractProjectsOntoSchema(t *testing.T) {
	schema, err := NewSchema("narrow", []string{FieldSizeCategory, "future_feature", FieldHasDash}, nil)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	ex, _ := NewExtractor(schema)
	vec := ex.Extract("big-file.bin", 200_000_000)
	got := vec.Values()
	want := []float64{4, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("values = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("values = %v, want %v", got, want)
		}
	}
}

func TestSizeBucketBoundaries(t *testing.T) {
	cases := map[int64]int{
		0:           0,
		1024:        0,
		1025:        1,
		100_000:     1,
		10_000_000:  2,
		100_000_000: 3,
		100_000_001: 4,
	}
	for size, want := range cases {
		if got := SizeBucket(size); got != want {
			t.Errorf("SizeBucket(%d) = %d, want %d", size, got, want)
		}
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in, stem, ext string
	}{
		{"/a/b/Report.PDF", "report", ".pdf"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{".bashrc", ".bashrc", ""},
		{"noext", "noext", ""},
		{"", "", ""},
		{"Straße.TXT", "straße", ".txt"},
	}
	for _, tc := range cases {
		stem, ext := SplitName(tc.in)
		if stem != tc.stem || ext != tc.ext {
			t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)", tc.in, stem, ext, tc.stem, tc.ext)
		}
	}
}

func TestExtractLowersWithoutFolding(t *testing.T) {
	ex, err := NewExtractor(DefaultSchema("v1"))
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	v := ex.Extract("/downloads/Straße.txt", 2048)
	got, ok := v.Get(FieldNameLength)
	if !ok {
		t.Fatal("name_length missing from vector")
	}
	if got != 6 {
		t.Fatalf("name_length = %v, want 6", got)
	}
}

func TestKeywordHitsCountsEachKeywordOnce(t *testing.T) {
	if got := KeywordHits("test_test_exam", []string{"test", "exam", "quiz"}); got != 2 {
		t.Fatalf("KeywordHits = %d, want 2", got)
	}
}

func TestNewSchemaRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name    string
		version string
		fields  []string
	}{
		{"no version", "", []string{"a"}},
		{"no fields", "v1", nil},
		{"blank field", "v1", []string{"a", " "}},
		{"duplicate", "v1", []string{"a", "a"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSchema(tc.version, tc.fields, nil)
			if !errors.Is(err, ErrInvalidSchema) {
				t.Fatalf("err = %v, want ErrInvalidSchema", err)
			}
		})
	}
}

func TestSchemaCompatible(t *testing.T) {
	a := DefaultSchema("v1")
	b := DefaultSchema("v1")
	c := DefaultSchema("v2")
	if !a.Compatible(b) {
		t.Fatal("equal schemas should be compatible")
	}
	if a.Compatible(c) {
		t.Fatal("different versions should not be compatible")
	}
	if a.Compatible(nil) {
		t.Fatal("nil schema should not be compatible")
	}
}

func TestExtensionCodeNormalizesKeys(t *testing.T) {
	schema, err := NewSchema("v1", []string{FieldExtension}, map[string]float64{"PDF": 7})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	if got := schema.ExtensionCode(".pdf"); got != 7 {
		t.Fatalf("ExtensionCode = %v, want 7", got)
	}
}
