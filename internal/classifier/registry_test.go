package classifier

import (
	"errors"
	"path/filepath"
	"testing"

	"sift/internal/features"
)

func TestOpenUnimplementedBackends(t *testing.T) {
	for _, name := range []string{"cnn", "naive-bayes", "NB"} {
		_, err := Open(name, "/does/not/matter.json")
		if !errors.Is(err, ErrNotImplemented) {
			t.Fatalf("Open(%q) err = %v, want ErrNotImplemented", name, err)
		}
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("svm", "model.json")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestOpenMissingModelIsNotReady(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.json"), t.TempDir()} {
		_, err := Open("rf", path)
		if !errors.Is(err, ErrNotReady) {
			t.Fatalf("Open(%q) err = %v, want ErrNotReady", path, err)
		}
	}
}

func TestBackendsListsBuiltins(t *testing.T) {
	got := map[string]Backend{}
	for _, b := range Backends() {
		got[b.Name] = b
	}
	if b, ok := got["random-forest"]; !ok || !b.Implemented {
		t.Fatalf("random-forest missing or unimplemented: %+v", got)
	}
	for _, name := range []string{"cnn", "naive-bayes"} {
		if b, ok := got[name]; !ok || b.Implemented {
			t.Fatalf("%s should be registered and unimplemented: %+v", name, got)
		}
	}
	if b, ok := Lookup("rf"); !ok || b.Name != "random-forest" {
		t.Fatalf("Lookup(rf) = %+v, %v", b, ok)
	}
}

type fixedClassifier struct{ scores Scores }

func (f fixedClassifier) Score(features.Vector) (Scores, error) { return f.scores.Clone(), nil }

func TestRegisterCustomBackend(t *testing.T) {
	schema := features.DefaultSchema("custom")
	Register("fixed-test", func(string) (*Model, error) {
		return &Model{Classifier: fixedClassifier{Scores{"Others": 1}}, Schema: schema}, nil
	}, "ft")
	path := filepath.Join(t.TempDir(), "fixed.bin")
	if err := WriteDocument(path, Document{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	model, err := Open("FT", path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if model.Backend != "fixed-test" || model.Path != path {
		t.Fatalf("model = %+v", model)
	}
	scores, err := model.Score(features.NewVector(schema, nil))
	if err != nil || scores["Others"] != 1 {
		t.Fatalf("Score = %v, %v", scores, err)
	}
}
