package predictor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/resistx/platform/pkg/ml/linear"
	"github.com/resistx/platform/pkg/ml/tree"
	"github.com/resistx/platform/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lowCD4Artifact predicts resistant exactly when HIV_CD4_Low is set.
func lowCD4Artifact(order []string) Artifact {
	var a Artifact
	a.Model.Type = TypeLogistic
	a.Model.Version = "test-1"
	a.Model.SchemaVersion = schema.Version
	a.Model.FeatureNames = order
	coeffs := make([]float64, len(order))
	for i, name := range order {
		if name == schema.FieldHIVCD4Low {
			coeffs[i] = 4
		}
	}
	a.Model.Weights = linear.Weights{Bias: -2, Coefficients: coeffs}
	return a
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func record(hiv, cd4 int) schema.FeatureRecord {
	return schema.FeatureRecord{
		CultureResult: 1, Age: 45, Gender: 1, HeartRate: 90, RespiratoryRate: 22, Weight: 65, Fever: 1,
		HIVStatus: hiv, CD4: cd4, HIVCD4Low: schema.DeriveHIVCD4Low(hiv, cd4),
	}
}

func writeArtifact(t *testing.T, a Artifact) string {
	t.Helper()
	data, err := json.Marshal(a)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadAndPredict(t *testing.T) {
	p, err := Load(writeArtifact(t, lowCD4Artifact(schema.FieldNames())))
	require.NoError(t, err)

	label, err := p.Predict(record(1, 150))
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	label, err = p.Predict(record(1, 250))
	require.NoError(t, err)
	assert.Equal(t, 0, label)

	info := p.Info()
	assert.Equal(t, TypeLogistic, info.Type)
	assert.Equal(t, "test-1", info.Version)
	assert.Len(t, info.FeatureNames, 13)
}

func TestColumnOrderComesFromArtifact(t *testing.T) {
	canonical, err := New(lowCD4Artifact(schema.FieldNames()))
	require.NoError(t, err)
	permuted, err := New(lowCD4Artifact(reversed(schema.FieldNames())))
	require.NoError(t, err)

	for _, rec := range []schema.FeatureRecord{record(0, 0), record(1, 150), record(1, 250)} {
		a, err := canonical.Predict(rec)
		require.NoError(t, err)
		b, err := permuted.Predict(rec)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestRandomForestArtifact(t *testing.T) {
	names := schema.FieldNames()
	lowIdx := len(names) - 1
	var a Artifact
	a.Model.Type = TypeRandomForest
	a.Model.FeatureNames = names
	a.Model.Trees = []tree.Tree{{Nodes: []tree.Node{
		{FeatureIdx: lowIdx, Threshold: 0.5, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, ClassLabel: 0},
		{IsLeaf: true, ClassLabel: 1},
	}}}

	p, err := New(a)
	require.NoError(t, err)
	label, err := p.Predict(record(1, 100))
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestNewRejectsBadArtifacts(t *testing.T) {
	names := schema.FieldNames()
	tests := []struct {
		name   string
		mutate func(*Artifact)
	}{
		{"missing type", func(a *Artifact) { a.Model.Type = "" }},
		{"unsupported type", func(a *Artifact) { a.Model.Type = "svm" }},
		{"schema mismatch", func(a *Artifact) { a.Model.SchemaVersion = "drtb-rif/v0" }},
		{"no features", func(a *Artifact) { a.Model.FeatureNames = nil }},
		{"missing feature", func(a *Artifact) {
			a.Model.FeatureNames = names[:12]
			a.Model.Weights.Coefficients = a.Model.Weights.Coefficients[:12]
		}},
		{"unknown feature", func(a *Artifact) {
			a.Model.FeatureNames = append(append([]string(nil), names[:12]...), "hiv_cd4_low")
		}},
		{"duplicate feature", func(a *Artifact) {
			a.Model.FeatureNames = append(append([]string(nil), names[:12]...), names[0])
		}},
		{"coefficient mismatch", func(a *Artifact) { a.Model.Weights.Coefficients = []float64{1} }},
		{"empty forest", func(a *Artifact) { a.Model.Type = TypeRandomForest }},
		{"threshold above one", func(a *Artifact) { a.Model.Threshold = 1.2 }},
		{"threshold of one", func(a *Artifact) { a.Model.Threshold = 1 }},
		{"negative threshold", func(a *Artifact) { a.Model.Threshold = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := lowCD4Artifact(schema.FieldNames())
			tt.mutate(&a)
			_, err := New(a)
			assert.Error(t, err)
		})
	}
}

func TestThresholdMovesDecisionBoundary(t *testing.T) {
	// bias -2 plus 4 gives sigmoid(2), about 0.88, for a low CD4 record.
	a := lowCD4Artifact(schema.FieldNames())
	a.Model.Threshold = 0.9
	strict, err := New(a)
	require.NoError(t, err)
	label, err := strict.Predict(record(1, 150))
	require.NoError(t, err)
	assert.Equal(t, 0, label)

	a.Model.Threshold = 0
	defaulted, err := New(a)
	require.NoError(t, err)
	label, err = defaulted.Predict(record(1, 150))
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestBundledArtifactLoads(t *testing.T) {
	p, err := Load(filepath.Join("..", "..", "..", "model", "drtb_model.json"))
	require.NoError(t, err)
	assert.Equal(t, schema.FieldNames(), p.Info().FeatureNames)

	_, err = p.Predict(record(1, 150))
	assert.NoError(t, err)
}
