package models

import (
	"fmt"

	"github.com/resistx/platform/pkg/schema"
)

// PredictionResult is the success body of the prediction endpoint.
type PredictionResult struct {
	Prediction int            `json:"prediction"`
	Result     schema.Outcome `json:"result"`
}

// NewPredictionResult derives the label from the prediction so the two can
// never disagree.
func NewPredictionResult(prediction int) (PredictionResult, error) {
	outcome, err := schema.OutcomeFor(prediction)
	if err != nil {
		return PredictionResult{}, err
	}
	return PredictionResult{Prediction: prediction, Result: outcome}, nil
}

// Check rejects a result whose prediction is not binary or whose label
// disagrees with it.
func (r PredictionResult) Check() error {
	if _, err := schema.OutcomeFor(r.Prediction); err != nil {
		return err
	}
	got, err := r.Result.Prediction()
	if err != nil {
		return err
	}
	if got != r.Prediction {
		return fmt.Errorf("result %q disagrees with prediction %d", string(r.Result), r.Prediction)
	}
	return nil
}

// ErrorResponse is the failure body of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

// SchemaResponse advertises the schema a service was built against.
type SchemaResponse struct {
	Version string         `json:"version"`
	Fields  []schema.Field `json:"fields"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	ModelVersion string `json:"model_version,omitempty"`
}
