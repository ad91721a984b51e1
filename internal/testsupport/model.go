package testsupport

import (
	"testing"

	"sift/internal/classifier"
	"sift/internal/features"
)

// StubSchemaVersion is the schema version of StubForest.
const StubSchemaVersion = "stub-1"

// StubForest returns a single-tree forest keyed on the file extension:
//
//	video (.mp4, .mkv, ...)  Movies 0.81, Entertainment 0.12, Others 0.07
//	document (.pdf, ...)     Education 0.42, Finance 0.40, Others 0.18
//	archive (.zip, ...)      Games 0.70, Apps 0.30
//	anything else            Others 1.0
func StubForest() classifier.Document {
	fields := features.DefaultFields()
	index := func(name string) int {
		for i, f := range fields {
			if f == name {
				return i
			}
		}
		panic("unknown feature " + name)
	}
	dist := func(weights map[string]float64) []float64 {
		out := make([]float64, len(features.Categories))
		for i, c := range features.Categories {
			out[i] = weights[c]
		}
		return out
	}
	leaf := func(weights map[string]float64) classifier.Node {
		return classifier.Node{Left: classifier.LeafChild, Right: classifier.LeafChild, Value: dist(weights)}
	}
	split := func(feature string, left, right int) classifier.Node {
		return classifier.Node{Feature: index(feature), Threshold: 0.5, Left: left, Right: right}
	}

	return classifier.Document{
		Version: "stub",
		Classes: append([]string(nil), features.Categories...),
		Schema: classifier.SchemaDocument{
			Version:        StubSchemaVersion,
			Fields:         fields,
			ExtensionCodes: map[string]float64{".pdf": 0, ".mp4": 1, ".zip": 2, ".txt": 3},
		},
		Trees: []classifier.Tree{{Nodes: []classifier.Node{
			split(features.ExtensionMatchField("movies"), 1, 2),
			split(features.ExtensionMatchField("education"), 3, 4),
			leaf(map[string]float64{features.CategoryMovies: 0.81, features.CategoryEntertainment: 0.12, features.CategoryOthers: 0.07}),
			split(features.ExtensionMatchField("games"), 5, 6),
			leaf(map[string]float64{features.CategoryEducation: 0.42, features.CategoryFinance: 0.40, features.CategoryOthers: 0.18}),
			leaf(map[string]float64{features.CategoryOthers: 1}),
			leaf(map[string]float64{features.CategoryGames: 0.7, features.CategoryApps: 0.3}),
		}}},
	}
}

// WriteModel writes StubForest to path.
func WriteModel(t testing.TB, path string) {
	t.Helper()
	if err := classifier.WriteDocument(path, StubForest()); err != nil {
		t.Fatalf("write stub model: %v", err)
	}
}

// OpenModel loads the model configured at path with the random-forest backend.
func OpenModel(t testing.TB, path string) *classifier.Model {
	t.Helper()
	model, err := classifier.Open("random-forest", path)
	if err != nil {
		t.Fatalf("open stub model: %v", err)
	}
	return model
}
