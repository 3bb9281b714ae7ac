// Package serving answers prediction requests for feature records using a
// model loaded once at startup.
package serving

import (
	"context"
	"fmt"
	"net/http"

	"github.com/resistx/platform/pkg/common/models"
	"github.com/resistx/platform/pkg/faults"
	"github.com/resistx/platform/pkg/schema"
)

// Model scores one feature record. Implementations must be safe for
// concurrent use; the predictor package's Predictor is read-only after Load.
type Model interface {
	Predict(record schema.FeatureRecord) (int, error)
}

type Service struct {
	model Model
}

func NewService(model Model) *Service {
	return &Service{model: model}
}

// Predict validates record and scores it. Validation failures are
// validation faults; anything the model does wrong, including panicking, is
// a service fault.
func (s *Service) Predict(ctx context.Context, record schema.FeatureRecord) (result models.PredictionResult, err error) {
	if err := ctx.Err(); err != nil {
		return models.PredictionResult{}, faults.Service(http.StatusServiceUnavailable, "request cancelled", err)
	}
	if err := record.Validate(); err != nil {
		return models.PredictionResult{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = models.PredictionResult{}
			err = faults.Service(http.StatusInternalServerError, "inference failed", fmt.Errorf("panic: %v", r))
		}
	}()

	label, err := s.model.Predict(record)
	if err != nil {
		return models.PredictionResult{}, faults.Service(http.StatusInternalServerError, "inference failed", err)
	}
	result, err = models.NewPredictionResult(label)
	if err != nil {
		return models.PredictionResult{}, faults.Service(http.StatusInternalServerError, "inference failed", err)
	}
	return result, nil
}
