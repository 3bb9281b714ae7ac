package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/resistx/platform/pkg/ml/linear"
	"github.com/resistx/platform/pkg/ml/tree"
	"github.com/resistx/platform/pkg/schema"
)

const (
	TypeLogistic     = "logistic_regression"
	TypeRandomForest = "random_forest"
)

type Artifact struct {
	Model struct {
		Type          string         `json:"type"`
		Version       string         `json:"version"`
		SchemaVersion string         `json:"schema_version"`
		FeatureNames  []string       `json:"feature_names"`
		Threshold     float64        `json:"threshold"`
		Weights       linear.Weights `json:"weights"`
		Trees         []tree.Tree    `json:"trees"`
	} `json:"model"`
}

// Info describes the loaded model.
type Info struct {
	Type          string   `json:"type"`
	Version       string   `json:"version"`
	SchemaVersion string   `json:"schema_version"`
	FeatureNames  []string `json:"feature_names"`
}

type classifier func(sample []float64) (int, error)

// Predictor is built once from an artifact and never changes afterwards, so
// it is shared by concurrent handlers without locking.
type Predictor struct {
	info     Info
	classify classifier
}

// Load reads and checks the artifact at path.
func Load(path string) (*Predictor, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(content, &artifact); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	return New(artifact)
}

// New builds a predictor from an in-memory artifact.
func New(artifact Artifact) (*Predictor, error) {
	m := artifact.Model
	if m.SchemaVersion != "" && m.SchemaVersion != schema.Version {
		return nil, fmt.Errorf("artifact built for schema %s, service speaks %s", m.SchemaVersion, schema.Version)
	}
	if err := checkFeatureNames(m.FeatureNames); err != nil {
		return nil, err
	}

	p := &Predictor{info: Info{
		Type:          m.Type,
		Version:       m.Version,
		SchemaVersion: schema.Version,
		FeatureNames:  append([]string(nil), m.FeatureNames...),
	}}

	switch m.Type {
	case TypeLogistic:
		if err := m.Weights.Check(len(m.FeatureNames)); err != nil {
			return nil, err
		}
		// An omitted threshold decodes as 0 and means the default.
		threshold := m.Threshold
		if threshold == 0 {
			threshold = linear.DefaultThreshold
		}
		if math.IsNaN(threshold) || threshold <= 0 || threshold >= 1 {
			return nil, fmt.Errorf("logistic threshold %v outside (0, 1)", m.Threshold)
		}
		weights := linear.Weights{
			Bias:         m.Weights.Bias,
			Coefficients: append([]float64(nil), m.Weights.Coefficients...),
		}
		p.classify = func(sample []float64) (int, error) {
			return linear.Classify(weights, sample, threshold), nil
		}
	case TypeRandomForest:
		forest := tree.Forest{Trees: m.Trees}
		if err := forest.Check(len(m.FeatureNames)); err != nil {
			return nil, err
		}
		p.classify = forest.Predict
	case "":
		return nil, errors.New("artifact missing model type")
	default:
		return nil, fmt.Errorf("unsupported model type %q", m.Type)
	}
	return p, nil
}

// checkFeatureNames requires the artifact columns to be exactly the schema
// fields, in any order.
func checkFeatureNames(names []string) error {
	if len(names) == 0 {
		return errors.New("artifact missing feature names")
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := schema.Lookup(name); !ok {
			return fmt.Errorf("artifact feature %q is not in schema %s", name, schema.Version)
		}
		if seen[name] {
			return fmt.Errorf("artifact feature %q listed twice", name)
		}
		seen[name] = true
	}
	for _, name := range schema.FieldNames() {
		if !seen[name] {
			return fmt.Errorf("artifact missing feature %s", name)
		}
	}
	return nil
}

// Predict lays the record out in the artifact's column order and classifies it.
func (p *Predictor) Predict(record schema.FeatureRecord) (int, error) {
	sample, err := record.Vector(p.info.FeatureNames)
	if err != nil {
		return 0, err
	}
	label, err := p.classify(sample)
	if err != nil {
		return 0, err
	}
	if label != 0 && label != 1 {
		return 0, fmt.Errorf("model returned non-binary label %d", label)
	}
	return label, nil
}

func (p *Predictor) Info() Info {
	info := p.info
	info.FeatureNames = append([]string(nil), p.info.FeatureNames...)
	return info
}
