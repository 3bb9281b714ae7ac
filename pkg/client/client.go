// Package client performs the request/response exchange with the prediction
// service. Every failure comes back as a *faults.Fault.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/resistx/platform/pkg/common/models"
	"github.com/resistx/platform/pkg/faults"
	"github.com/resistx/platform/pkg/gateway/httpclient"
	"github.com/resistx/platform/pkg/schema"
)

const (
	predictPath = "/predict"
	schemaPath  = "/api/v1/schema"

	maxResponseBytes = 1 << 20
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the service at baseURL. A nil httpClient gets
// httpclient.New(timeout).
func New(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = httpclient.New(timeout)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Predict sends one record and returns the service's answer. There are no
// retries.
func (c *Client) Predict(ctx context.Context, record schema.FeatureRecord) (models.PredictionResult, error) {
	if err := record.Validate(); err != nil {
		var f *faults.Fault
		if errors.As(err, &f) {
			return models.PredictionResult{}, &faults.Fault{Kind: faults.KindEncoding, Field: f.Field, Message: f.Message, Err: err}
		}
		return models.PredictionResult{}, err
	}
	body, err := json.Marshal(record)
	if err != nil {
		return models.PredictionResult{}, faults.Transport("encode request", err)
	}

	status, data, err := c.do(ctx, http.MethodPost, predictPath, body)
	if err != nil {
		return models.PredictionResult{}, err
	}
	if status != http.StatusOK {
		return models.PredictionResult{}, serviceFault(status, data)
	}

	result, err := decodePrediction(data)
	if err != nil {
		return models.PredictionResult{}, faults.Transport("malformed prediction response", err)
	}
	return result, nil
}

// predictionBody tells an absent or null field apart from a zero value.
type predictionBody struct {
	Prediction *int    `json:"prediction"`
	Result     *string `json:"result"`
}

func decodePrediction(data []byte) (models.PredictionResult, error) {
	var body predictionBody
	if err := json.Unmarshal(data, &body); err != nil {
		return models.PredictionResult{}, err
	}
	if body.Prediction == nil {
		return models.PredictionResult{}, errors.New("missing prediction")
	}
	if body.Result == nil {
		return models.PredictionResult{}, errors.New("missing result")
	}
	result := models.PredictionResult{Prediction: *body.Prediction, Result: schema.Outcome(*body.Result)}
	if err := result.Check(); err != nil {
		return models.PredictionResult{}, err
	}
	return result, nil
}

// Schema fetches the schema the service advertises.
func (c *Client) Schema(ctx context.Context) (models.SchemaResponse, error) {
	status, data, err := c.do(ctx, http.MethodGet, schemaPath, nil)
	if err != nil {
		return models.SchemaResponse{}, err
	}
	if status != http.StatusOK {
		return models.SchemaResponse{}, serviceFault(status, data)
	}
	var resp models.SchemaResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.SchemaResponse{}, faults.Transport("malformed schema response", err)
	}
	return resp, nil
}

// CheckSchema fails with a validation fault when the service was built
// against a different schema version or field order than this client.
func (c *Client) CheckSchema(ctx context.Context) error {
	remote, err := c.Schema(ctx)
	if err != nil {
		return err
	}
	if remote.Version != schema.Version {
		return faults.Validation("", "server schema %q, client schema %q", remote.Version, schema.Version)
	}
	local := schema.FieldNames()
	if len(remote.Fields) != len(local) {
		return faults.Validation("", "server has %d fields, client has %d", len(remote.Fields), len(local))
	}
	for i, f := range remote.Fields {
		if f.Name != local[i] {
			return faults.Validation(local[i], "server field %d is %q", i, f.Name)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, faults.Transport(fmt.Sprintf("%s %s", method, path), err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		msg := fmt.Sprintf("%s %s", method, path)
		if httpclient.IsTimeout(err) {
			msg += " timed out"
		}
		return 0, nil, faults.Transport(msg, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, faults.Transport("read response", err)
	}
	return resp.StatusCode, data, nil
}

// serviceFault turns an error body into a fault. Bodies that are not the
// service's error shape still yield a service fault with the raw status.
func serviceFault(status int, data []byte) error {
	var body models.ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		return faults.Service(status, fmt.Sprintf("service returned %d", status), nil)
	}
	kind := faults.ParseKind(body.Kind)
	if kind != faults.KindValidation {
		kind = faults.KindService
	}
	msg := body.Error
	if body.Field != "" {
		msg = strings.TrimPrefix(msg, body.Field+": ")
	}
	return &faults.Fault{Kind: kind, Field: body.Field, Status: status, Message: msg}
}
