package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/resistx/platform/pkg/common/models"
	"github.com/resistx/platform/pkg/encoder"
	"github.com/resistx/platform/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generated = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func labels(r Report) []string {
	out := make([]string, len(r.Details))
	for i, e := range r.Details {
		out[i] = e.Label
	}
	return out
}

func value(t *testing.T, r Report, label string) string {
	t.Helper()
	for _, e := range r.Details {
		if e.Label == label {
			return e.Value
		}
	}
	t.Fatalf("no entry %q", label)
	return ""
}

func TestBuildHIVNegative(t *testing.T) {
	obs := encoder.DefaultObservations()
	result, err := models.NewPredictionResult(0)
	require.NoError(t, err)

	r := Build(obs, result, generated)
	assert.Equal(t, "DR-TB Negative: Rifampicin Sensitive", r.Message)
	assert.NotContains(t, labels(r), "CD4 Count")
	assert.Equal(t, "60 kg", value(t, r, "Weight"))
	assert.Equal(t, "0", value(t, r, "HIV CD4 Low"))
	assert.Equal(t, "HIV CD4 Low", labels(r)[len(r.Details)-1])
}

func TestBuildHIVPositiveLowCD4(t *testing.T) {
	obs := encoder.DefaultObservations()
	obs.HIVStatus = schema.LabelPositive
	obs.CD4 = 150
	result, err := models.NewPredictionResult(1)
	require.NoError(t, err)

	r := Build(obs, result, generated)
	assert.Equal(t, "DR-TB Positive: Rifampicin Resistant", r.Message)
	assert.Equal(t, "150", value(t, r, "CD4 Count"))
	assert.Equal(t, "1", value(t, r, "HIV CD4 Low"))
	assert.Equal(t, []string{
		schema.FieldCultureResult, schema.FieldAFBMicroscopy, "Age", "Gender", "Heart Rate",
		"Respiratory Rate", "Weight", schema.FieldTBHistory, "Fever", "Weight Loss",
		"HIV Status", "CD4 Count", "HIV CD4 Low",
	}, labels(r))
}

func TestTextRenderer(t *testing.T) {
	result, _ := models.NewPredictionResult(1)
	var buf bytes.Buffer
	require.NoError(t, TextRenderer{}.Render(&buf, Build(encoder.DefaultObservations(), result, generated)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, Title+"\n"))
	assert.Contains(t, out, "Generated on: 2026-03-01 09:30:00")
	assert.Contains(t, out, "  DR-TB Positive: Rifampicin Resistant\n")
	assert.Contains(t, out, "  Weight: 60 kg\n")
}

func TestJSONRenderer(t *testing.T) {
	result, _ := models.NewPredictionResult(0)
	var buf bytes.Buffer
	require.NoError(t, JSONRenderer{}.Render(&buf, Build(encoder.DefaultObservations(), result, generated)))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, schema.Sensitive, decoded.Result)
	assert.True(t, generated.Equal(decoded.GeneratedAt))
	assert.Len(t, decoded.Details, 12)
}
