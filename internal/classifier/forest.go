package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"sift/internal/features"
)

// LeafChild marks the absent child of a leaf node.
const LeafChild = -1

// Document is the on-disk JSON form of a decision forest.
type Document struct {
	Version string         `json:"version"`
	Classes []string       `json:"classes"`
	Schema  SchemaDocument `json:"schema"`
	Trees   []Tree         `json:"trees"`
}

// SchemaDocument is the serialized feature contract.
type SchemaDocument struct {
	Version        string             `json:"version"`
	Fields         []string           `json:"fields"`
	ExtensionCodes map[string]float64 `json:"extension_codes"`
}

// Tree is a flat node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split when both children are set and a leaf when both are
// LeafChild. Leaf Value holds per-class weights in Classes order.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

func (n Node) leaf() bool { return n.Left == LeafChild && n.Right == LeafChild }

// Forest scores vectors by averaging normalized leaf distributions.
type Forest struct {
	classes []string
	schema  *features.Schema
	trees   [][]Node
}

// LoadForest reads a forest JSON file into a Model.
func LoadForest(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read model: %w", ErrNotReady, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode model: %w", ErrNotReady, err)
	}
	forest, err := NewForest(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return &Model{
		Classifier: forest,
		Version:    doc.Version,
		Classes:    slices.Clone(doc.Classes),
		Schema:     forest.schema,
	}, nil
}

// WriteDocument writes doc as indented JSON.
func WriteDocument(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// NewForest validates a document and builds the evaluator.
func NewForest(doc Document) (*Forest, error) {
	if len(doc.Classes) == 0 {
		return nil, errors.New("forest has no classes")
	}
	seen := make(map[string]struct{}, len(doc.Classes))
	for _, c := range doc.Classes {
		if c == "" {
			return nil, errors.New("forest has an empty class name")
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("forest has duplicate class %q", c)
		}
		seen[c] = struct{}{}
	}
	schema, err := features.NewSchema(doc.Schema.Version, doc.Schema.Fields, doc.Schema.ExtensionCodes)
	if err != nil {
		return nil, err
	}
	if len(doc.Trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	trees := make([][]Node, 0, len(doc.Trees))
	for ti, tree := range doc.Trees {
		if err := validateTree(tree.Nodes, schema.Len(), len(doc.Classes)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
		trees = append(trees, slices.Clone(tree.Nodes))
	}
	return &Forest{classes: slices.Clone(doc.Classes), schema: schema, trees: trees}, nil
}

// Children must come after their parent, which rules out cycles.
func validateTree(nodes []Node, fields, classes int) error {
	if len(nodes) == 0 {
		return errors.New("no nodes")
	}
	for i, n := range nodes {
		if n.leaf() {
			if len(n.Value) != classes {
				return fmt.Errorf("node %d: leaf has %d values, want %d", i, len(n.Value), classes)
			}
			for _, v := range n.Value {
				if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("node %d: invalid leaf weight %v", i, v)
				}
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= fields {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		if math.IsNaN(n.Threshold) {
			return fmt.Errorf("node %d: threshold is NaN", i)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(nodes) {
				return fmt.Errorf("node %d: child index %d out of range", i, child)
			}
		}
	}
	return nil
}

// Classes returns the class labels in model order.
func (f *Forest) Classes() []string { return slices.Clone(f.classes) }

// Schema returns the training contract.
func (f *Forest) Schema() *features.Schema { return f.schema }

// Score evaluates every tree and averages the leaf distributions.
func (f *Forest) Score(v features.Vector) (Scores, error) {
	if f == nil {
		return nil, ErrNotReady
	}
	if err := CheckVector(f.schema, v); err != nil {
		return nil, err
	}
	sum := make([]float64, len(f.classes))
	counted := 0
	for _, nodes := range f.trees {
		leaf := walk(nodes, v)
		total := 0.0
		for _, w := range leaf.Value {
			total += w
		}
		if total == 0 {
			continue
		}
		for i, w := range leaf.Value {
			sum[i] += w / total
		}
		counted++
	}
	scores := make(Scores, len(f.classes))
	if counted == 0 {
		uniform := 1 / float64(len(f.classes))
		for _, c := range f.classes {
			scores[c] = uniform
		}
		return scores, nil
	}
	for i, c := range f.classes {
		scores[c] = sum[i] / float64(counted)
	}
	return scores, nil
}

func walk(nodes []Node, v features.Vector) Node {
	i := 0
	for {
		n := nodes[i]
		if n.leaf() {
			return n
		}
		if v.At(n.Feature) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
