// Package report assembles the operator-facing summary of one prediction
// and renders it as text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/resistx/platform/pkg/common/models"
	"github.com/resistx/platform/pkg/encoder"
	"github.com/resistx/platform/pkg/schema"
)

const (
	Title      = "ResistX TB Report"
	TimeLayout = "2006-01-02 15:04:05"
)

// Entry is one labelled line of patient details.
type Entry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Report struct {
	Title       string         `json:"title"`
	GeneratedAt time.Time      `json:"generated_at"`
	Prediction  int            `json:"prediction"`
	Result      schema.Outcome `json:"result"`
	Message     string         `json:"message"`
	Details     []Entry        `json:"details"`
}

// Build lays out the details in the order the results page shows them. The
// CD4 count only appears for HIV-positive patients, and the low-CD4 flag is
// derived again from the raw selections.
func Build(obs encoder.Observations, result models.PredictionResult, generatedAt time.Time) Report {
	details := []Entry{
		{schema.FieldCultureResult, obs.CultureResult},
		{schema.FieldAFBMicroscopy, obs.AFBMicroscopy},
		{"Age", strconv.Itoa(obs.Age)},
		{"Gender", obs.Gender},
		{"Heart Rate", strconv.Itoa(obs.HeartRate)},
		{"Respiratory Rate", strconv.Itoa(obs.RespiratoryRate)},
		{"Weight", fmt.Sprintf("%d kg", obs.Weight)},
		{schema.FieldTBHistory, obs.TBHistory},
		{"Fever", obs.Fever},
		{"Weight Loss", obs.WeightLoss},
		{"HIV Status", obs.HIVStatus},
	}

	hiv, cd4 := 0, 0
	if obs.HIVPositive() {
		hiv, cd4 = 1, obs.CD4
		details = append(details, Entry{"CD4 Count", strconv.Itoa(obs.CD4)})
	}
	details = append(details, Entry{"HIV CD4 Low", strconv.Itoa(schema.DeriveHIVCD4Low(hiv, cd4))})

	return Report{
		Title:       Title,
		GeneratedAt: generatedAt,
		Prediction:  result.Prediction,
		Result:      result.Result,
		Message:     result.Result.Message(),
		Details:     details,
	}
}

type Renderer interface {
	Render(w io.Writer, r Report) error
}

type TextRenderer struct{}

func (TextRenderer) Render(w io.Writer, r Report) error {
	lines := []string{
		r.Title,
		"Generated on: " + r.GeneratedAt.Format(TimeLayout),
		"",
		"Prediction Result:",
		"  " + r.Message,
		"",
		"Patient Details:",
	}
	for _, e := range r.Details {
		lines = append(lines, fmt.Sprintf("  %s: %s", e.Label, e.Value))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

type JSONRenderer struct {
	Indent bool
}

func (j JSONRenderer) Render(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}
