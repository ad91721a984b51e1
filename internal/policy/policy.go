package policy

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"sift/internal/classifier"
	"sift/internal/config"
	"sift/internal/features"
	"sift/internal/services"
)

// EducationFinanceFolder holds both merged categories on disk.
const EducationFinanceFolder = "Education and Finance"

const (
	overrideBoost    = 0.2
	overrideFloor    = 0.7
	tieBreakBoost    = 0.15
	tieBreakFloor    = 0.6
	overrideDocument = ".pdf"
)

// Override rule names.
const (
	RuleEducationKeywords = "education_keywords"
	RuleFinanceKeywords   = "finance_keywords"
	RuleTinyEducation     = "tiny_document_education"
)

var educationIndicators = []string{
	"assignment", "homework", "notes", "lecture", "class", "unit", "chapter", "lesson",
	"tutorial", "exercise", "quiz", "test", "exam", "study", "course", "syllabus", "lab",
	"report", "math", "science", "biology", "chemistry", "physics", "computer",
	"programming", "calculus", "algebra",
}

var financeIndicators = []string{
	"tax", "invoice", "bill", "receipt", "statement", "bank", "salary", "payroll",
	"budget", "expense", "income", "investment", "loan", "mortgage", "insurance", "audit",
}

// Thresholds parameterize the Education/Finance override.
type Thresholds struct {
	AmbiguityGap       float64
	SmallDocumentBytes int64
	TinyDocumentBytes  int64
	EducationFloor     float64
}

// DefaultThresholds mirrors the configuration defaults.
func DefaultThresholds() Thresholds {
	return FromConfig(config.Default().Policy)
}

// FromConfig converts the policy configuration section.
func FromConfig(p config.Policy) Thresholds {
	return Thresholds{
		AmbiguityGap:       p.AmbiguityGap,
		SmallDocumentBytes: p.SmallDocumentBytes,
		TinyDocumentBytes:  p.TinyDocumentBytes,
		EducationFloor:     p.EducationFloor,
	}
}

// Override records why the baseline pick was replaced.
type Override struct {
	Rule          string
	Baseline      string
	EducationHits int
	FinanceHits   int
	RawEducation  float64
	RawFinance    float64
}

// Result is an immutable placement decision.
type Result struct {
	Source     string
	Category   string
	Folder     string
	Confidence float64
	// Scores is the distribution after the Education/Finance merge.
	Scores   classifier.Scores
	Override *Override
}

// Overridden reports whether the keyword override fired.
func (r Result) Overridden() bool { return r.Override != nil }

// Policy applies merge, baseline selection and the keyword override.
type Policy struct {
	thresholds Thresholds
}

// New returns a policy with the supplied thresholds.
func New(t Thresholds) *Policy {
	return &Policy{thresholds: t}
}

// Thresholds returns the active thresholds.
func (p *Policy) Thresholds() Thresholds { return p.thresholds }

// Decide picks the category and folder for source.
func (p *Policy) Decide(source string, size int64, raw classifier.Scores) (Result, error) {
	if err := validate(raw); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "decide", "validate scores", source, err)
	}

	merged := Merge(raw)
	category, confidence := top(merged)
	result := Result{
		Source:     source,
		Category:   category,
		Folder:     FolderFor(category),
		Confidence: clamp(confidence),
		Scores:     merged,
	}

	if override := p.override(source, size, raw, category); override != nil {
		result.Category = categoryForRule(override.Rule)
		result.Folder = FolderFor(result.Category)
		result.Confidence = clamp(overrideConfidence(override))
		result.Override = override
	}
	return result, nil
}

func (p *Policy) override(source string, size int64, raw classifier.Scores, baseline string) *Override {
	stem, ext := features.SplitName(source)
	if ext != overrideDocument || size >= p.thresholds.SmallDocumentBytes {
		return nil
	}
	ranked := Rank(raw)
	if len(ranked) < 2 {
		return nil
	}
	first, second := ranked[0], ranked[1]
	pair := []string{first, second}
	if !slices.Contains(pair, features.CategoryEducation) || !slices.Contains(pair, features.CategoryFinance) {
		return nil
	}
	if raw[first]-raw[second] >= p.thresholds.AmbiguityGap {
		return nil
	}

	o := &Override{
		Baseline:      baseline,
		EducationHits: features.KeywordHits(stem, educationIndicators),
		FinanceHits:   features.KeywordHits(stem, financeIndicators),
		RawEducation:  raw[features.CategoryEducation],
		RawFinance:    raw[features.CategoryFinance],
	}
	switch {
	case o.EducationHits > o.FinanceHits:
		o.Rule = RuleEducationKeywords
	case o.FinanceHits > o.EducationHits:
		o.Rule = RuleFinanceKeywords
	case size < p.thresholds.TinyDocumentBytes && o.RawEducation > p.thresholds.EducationFloor:
		o.Rule = RuleTinyEducation
	default:
		return nil
	}
	return o
}

func categoryForRule(rule string) string {
	if rule == RuleFinanceKeywords {
		return features.CategoryFinance
	}
	return features.CategoryEducation
}

func overrideConfidence(o *Override) float64 {
	switch o.Rule {
	case RuleFinanceKeywords:
		return math.Max(o.RawFinance+overrideBoost, overrideFloor)
	case RuleTinyEducation:
		return math.Max(o.RawEducation+tieBreakBoost, tieBreakFloor)
	default:
		return math.Max(o.RawEducation+overrideBoost, overrideFloor)
	}
}

// Merge folds Finance into Education. Other categories pass through.
func Merge(raw classifier.Scores) classifier.Scores {
	merged := make(classifier.Scores, len(raw))
	for label, p := range raw {
		if label == features.CategoryFinance {
			label = features.CategoryEducation
		}
		merged[label] += p
	}
	return merged
}

// FolderFor maps a category to its folder name.
func FolderFor(category string) string {
	switch category {
	case features.CategoryEducation, features.CategoryFinance:
		return EducationFinanceFolder
	default:
		return category
	}
}

// Rank orders labels by descending probability. Ties follow the canonical
// category order, then label order for categories outside it.
func Rank(scores classifier.Scores) []string {
	labels := scores.Labels()
	slices.SortStableFunc(labels, func(a, b string) int {
		if c := cmp.Compare(scores[b], scores[a]); c != 0 {
			return c
		}
		if c := cmp.Compare(canonicalIndex(a), canonicalIndex(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return labels
}

func top(scores classifier.Scores) (string, float64) {
	ranked := Rank(scores)
	return ranked[0], scores[ranked[0]]
}

func canonicalIndex(label string) int {
	if i := slices.Index(features.Categories, label); i >= 0 {
		return i
	}
	return len(features.Categories)
}

func validate(raw classifier.Scores) error {
	if len(raw) == 0 {
		return errors.New("no category scores")
	}
	for label, p := range raw {
		if label == "" {
			return errors.New("empty category label")
		}
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return fmt.Errorf("invalid probability %v for %s", p, label)
		}
	}
	return nil
}

func clamp(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
