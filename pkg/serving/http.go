package serving

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/resistx/platform/pkg/common/logger"
	"github.com/resistx/platform/pkg/common/models"
	"github.com/resistx/platform/pkg/faults"
	"github.com/resistx/platform/pkg/gateway/middleware"
	"github.com/resistx/platform/pkg/observability/metrics"
	"github.com/resistx/platform/pkg/schema"
	"github.com/resistx/platform/pkg/serving/predictor"
)

type Handler struct {
	service *Service
	model   predictor.Info
}

func NewHandler(service *Service, model predictor.Info) *Handler {
	return &Handler{service: service, model: model}
}

// Register mounts the prediction routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/", h.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/predict", h.handlePredict).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/predict", h.handlePredict).Methods(http.MethodPost)
	api.HandleFunc("/schema", h.handleSchema).Methods(http.MethodGet)
	api.HandleFunc("/models", h.handleListModels).Methods(http.MethodGet)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("DR-TB Model API is running! Use POST /predict\n"))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthResponse{Status: "healthy", ModelVersion: h.model.Version})
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.SchemaResponse{Version: schema.Version, Fields: schema.Fields()})
}

func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, []predictor.Info{h.model})
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, faults.Service(http.StatusRequestEntityTooLarge, "request body too large", nil))
			return
		}
		h.fail(w, r, faults.Service(http.StatusBadRequest, "failed to read request body", err))
		return
	}

	record, err := schema.DecodeRecord(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.service.Predict(r.Context(), record)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	latency := time.Since(start)
	metrics.ObservePrediction(result.Result, latency)
	logger.Log.WithFields(map[string]interface{}{
		"request_id": r.Header.Get(middleware.RequestIDHeader),
		"latency_ms": latency.Milliseconds(),
	}).Debug("Prediction completed")

	respondJSON(w, http.StatusOK, result)
}

// fail writes the error body for err. Only the fault kind and field name are
// logged; record values stay out of the log.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var f *faults.Fault
	if !errors.As(err, &f) {
		f = faults.Service(http.StatusInternalServerError, "unexpected error", err)
	}
	status := statusFor(f)
	metrics.ObserveFault(f.Kind)

	entry := logger.Log.WithFields(map[string]interface{}{
		"request_id": r.Header.Get(middleware.RequestIDHeader),
		"kind":       f.Kind.String(),
		"field":      f.Field,
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.WithError(f.Err).Error("Prediction failed")
	} else {
		entry.Warn("Prediction rejected")
	}

	respondJSON(w, status, models.ErrorResponse{
		Error: f.Detail(),
		Kind:  f.Kind.String(),
		Field: f.Field,
	})
}

func statusFor(f *faults.Fault) int {
	if f.Status != 0 {
		return f.Status
	}
	switch f.Kind {
	case faults.KindValidation, faults.KindEncoding:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
