package ports

import "context"

// Alert describes a prediction that crossed the notification bar.
type Alert struct {
	MachineID  string
	SensorID   string
	Status     string
	Score      float64
	Confidence float64
}

// Notifier delivers alerts for warning/critical predictions. Failures are
// logged by the caller and never affect the pipeline.
type Notifier interface {
	SendAlert(ctx context.Context, a Alert) error
}
