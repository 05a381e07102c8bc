package inference

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

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

// Config points at the external inference service.
type Config struct {
	URL            string        `yaml:"url"`
	Timeout        time.Duration `yaml:"timeout"`
	ScoreThreshold float64       `yaml:"score_threshold"`
}

func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.ScoreThreshold <= 0 {
		c.ScoreThreshold = 0.7
	}
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	return nil
}

// metricNames maps sensor-name substrings to the vocabulary the inference
// service matches thresholds against. Order matters: first hit wins.
var metricNames = []struct {
	substr string
	metric string
}{
	{"pressure", "pressure"},
	{"temp", "temperature"},
	{"vibration", "vibration"},
	{"vib", "vibration"},
	{"motor_current", "motor_current"},
	{"current", "motor_current"},
}

// MetricKey maps a sensor name to the inference service's metric
// vocabulary, defaulting to the generic "value" key.
func MetricKey(sensorName string) string {
	name := strings.ToLower(sensorName)
	for _, m := range metricNames {
		if strings.Contains(name, m.substr) {
			return m.metric
		}
	}
	return "value"
}

// Client calls the external scorer over HTTP with a hard timeout. Any
// failure means no prediction for this sample; the pipeline continues.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) Predict(ctx context.Context, req *ports.PredictionRequest) (*ports.PredictionResult, error) {
	body, err := json.Marshal(map[string]any{
		"machine_id": req.MachineID,
		"sensor_id":  req.SensorID,
		"timestamp":  req.Timestamp.UTC().Format(time.RFC3339),
		"readings":   req.Readings,
	})
	if err != nil {
		return nil, fmt.Errorf("encode predict request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("predict call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read predict response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predict returned status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var result ports.PredictionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	if result.Label == "" {
		result.Label = "normal"
	}
	if result.Status == "" {
		result.Status = "normal"
	}
	if result.ModelVersion == "" {
		result.ModelVersion = "unknown"
	}
	_ = json.Unmarshal(raw, &result.Raw)
	return &result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
