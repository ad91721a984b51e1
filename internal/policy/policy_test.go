package policy

import (
	"errors"
	"math"
	"testing"

	"sift/internal/classifier"
	"sift/internal/features"
	"sift/internal/services"
)

const tolerance = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < tolerance }

func TestMergeSumsEducationAndFinance(t *testing.T) {
	raw := classifier.Scores{"Education": 0.3, "Finance": 0.25, "Movies": 0.45}
	merged := Merge(raw)
	if !approx(merged["Education"], 0.55) {
		t.Fatalf("merged education = %v, want 0.55", merged["Education"])
	}
	if _, ok := merged["Finance"]; ok {
		t.Fatal("finance should not survive the merge")
	}
	if merged["Movies"] != 0.45 {
		t.Fatalf("movies = %v, want unchanged", merged["Movies"])
	}
	if raw["Finance"] != 0.25 {
		t.Fatal("merge mutated its input")
	}
}

func TestDecideFinanceOverrideForTaxInvoice(t *testing.T) {
	p := New(DefaultThresholds())
	raw := classifier.Scores{"Education": 0.42, "Finance": 0.40, "Others": 0.18}
	res, err := p.Decide("/downloads/tax_invoice_2024.pdf", 50*1024, raw)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Category != features.CategoryFinance {
		t.Fatalf("category = %q, want Finance", res.Category)
	}
	if res.Folder != EducationFinanceFolder {
		t.Fatalf("folder = %q", res.Folder)
	}
	if res.Confidence < 0.7 {
		t.Fatalf("confidence = %v, want >= 0.7", res.Confidence)
	}
	if res.Override == nil || res.Override.Rule != RuleFinanceKeywords || res.Override.FinanceHits != 2 {
		t.Fatalf("override = %+v", res.Override)
	}
	if res.Override.Baseline != features.CategoryEducation {
		t.Fatalf("baseline = %q", res.Override.Baseline)
	}
	if !approx(res.Scores["Education"], 0.82) {
		t.Fatalf("merged scores = %v", res.Scores)
	}
}

func TestDecideMoviesBaselineUnmodified(t *testing.T) {
	p := New(DefaultThresholds())
	raw := classifier.Scores{"Movies": 0.81, "Entertainment": 0.12, "Others": 0.07}
	res, err := p.Decide("avengers_movie.mp4", 2*1024*1024, raw)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Category != "Movies" || res.Folder != "Movies" || res.Confidence != 0.81 || res.Overridden() {
		t.Fatalf("result = %+v", res)
	}
}

func TestDecideEducationKeywordOverride(t *testing.T) {
	p := New(DefaultThresholds())
	raw := classifier.Scores{"Finance": 0.45, "Education": 0.35, "Others": 0.2}
	res, err := p.Decide("chemistry_lab_report.pdf", 300_000, raw)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Category != features.CategoryEducation || res.Override.Rule != RuleEducationKeywords {
		t.Fatalf("result = %+v", res)
	}
	if !approx(res.Confidence, 0.7) {
		t.Fatalf("confidence = %v, want 0.7", res.Confidence)
	}
}

func TestDecideTinyDocumentTieBreak(t *testing.T) {
	p := New(DefaultThresholds())
	raw := classifier.Scores{"Finance": 0.41, "Education": 0.39, "Others": 0.2}

	res, err := p.Decide("scan_0001.pdf", 100_000, raw)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Override == nil || res.Override.Rule != RuleTinyEducation {
		t.Fatalf("override = %+v", res.Override)
	}
	if res.Category != features.CategoryEducation || !approx(res.Confidence, 0.6) {
		t.Fatalf("result = %+v", res)
	}

	// Above the tiny threshold the tie stands.
	res, err = p.Decide("scan_0001.pdf", 6*1024*1024, raw)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Overridden() || !approx(res.Confidence, 0.8) {
		t.Fatalf("result = %+v, want baseline", res)
	}
}

func TestOverrideConfinement(t *testing.T) {
	p := New(DefaultThresholds())
	cases := []struct {
		name   string
		source string
		size   int64
		raw    classifier.Scores
	}{
		{"not pdf", "tax_invoice.docx", 1000, classifier.Scores{"Education": 0.42, "Finance": 0.40, "Others": 0.18}},
		{"too large", "tax_invoice.pdf", 60 * 1024 * 1024, classifier.Scores{"Education": 0.42, "Finance": 0.40, "Others": 0.18}},
		{"wide gap", "tax_invoice.pdf", 1000, classifier.Scores{"Education": 0.75, "Finance": 0.2, "Others": 0.05}},
		{"other pair", "tax_invoice.pdf", 1000, classifier.Scores{"Career": 0.42, "Finance": 0.40, "Education": 0.18}},
		{"education absent", "tax_invoice.pdf", 1000, classifier.Scores{"Finance": 0.5, "Others": 0.5}},
		{"no keywords", "document.pdf", 6 * 1024 * 1024, classifier.Scores{"Education": 0.42, "Finance": 0.40, "Others": 0.18}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := p.Decide(tc.source, tc.size, tc.raw)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if res.Overridden() {
				t.Fatalf("override fired: %+v", res.Override)
			}
			category, confidence := top(Merge(tc.raw))
			if res.Category != category || !approx(res.Confidence, confidence) {
				t.Fatalf("result = %+v, want baseline %s %v", res, category, confidence)
			}
		})
	}
}

func TestRankTieBreaksCanonically(t *testing.T) {
	got := Rank(classifier.Scores{"Zeta": 0.2, "Others": 0.2, "Games": 0.2, "Alpha": 0.2, "Movies": 0.2})
	want := []string{"Movies", "Games", "Others", "Alpha", "Zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Rank = %v, want %v", got, want)
		}
	}
}

func TestDecideRejectsInvalidScores(t *testing.T) {
	p := New(DefaultThresholds())
	for name, raw := range map[string]classifier.Scores{
		"empty":    {},
		"negative": {"Movies": -0.1, "Others": 1.1},
		"nan":      {"Movies": math.NaN()},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Decide("x.mp4", 10, raw)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestConfidenceClamped(t *testing.T) {
	p := New(DefaultThresholds())
	raw := classifier.Scores{"Education": 0.55, "Finance": 0.45}
	res, err := p.Decide("lecture_notes.pdf", 1000, raw)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Confidence > 1 || res.Confidence < 0 {
		t.Fatalf("confidence = %v", res.Confidence)
	}
	if !approx(res.Confidence, 0.75) {
		t.Fatalf("confidence = %v, want 0.75", res.Confidence)
	}
}

func TestFolderFor(t *testing.T) {
	cases := map[string]string{
		"Education": EducationFinanceFolder,
		"Finance":   EducationFinanceFolder,
		"Movies":    "Movies",
		"Custom":    "Custom",
	}
	for in, want := range cases {
		if got := FolderFor(in); got != want {
			t.Errorf("FolderFor(%q) = %q, want %q", in, got, want)
		}
	}
}
