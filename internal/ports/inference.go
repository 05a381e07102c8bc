package ports

import (
	"context"
	"time"
)

// PredictionRequest carries the engineered readings sent to the external
// inference service. Ids are the logical ids, not persisted UUIDs, matching
// the service's contract.
type PredictionRequest struct {
	MachineID string             `json:"machine_id"`
	SensorID  string             `json:"sensor_id"`
	Timestamp time.Time          `json:"-"`
	Readings  map[string]float64 `json:"readings"`
}

// PredictionResult is the decoded inference response. Raw keeps the full
// response body for the prediction row's metadata column.
type PredictionResult struct {
	Label                string             `json:"prediction"`
	Status               string             `json:"status"`
	Score                float64            `json:"score"`
	Confidence           float64            `json:"confidence"`
	AnomalyType          string             `json:"anomaly_type"`
	ModelVersion         string             `json:"model_version"`
	RemainingUsefulLife  *float64           `json:"rul"`
	ResponseTimeMs       float64            `json:"response_time_ms"`
	ContributingFeatures map[string]float64 `json:"contributing_features"`
	Raw                  map[string]any     `json:"-"`
}

// Predictor issues a timed request/response call to the inference endpoint.
// Any error (timeout, transport, non-200) means no prediction; the caller
// logs and moves on.
type Predictor interface {
	Predict(ctx context.Context, req *PredictionRequest) (*PredictionResult, error)
}
