package notify

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

func TestSMTPNotifierBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	n := NewSMTP(Config{
		Host: "mail.plant.local",
		From: "alerts@plant.local",
		To:   []string{"ops@plant.local"},
	})
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := n.SendAlert(context.Background(), ports.Alert{
		MachineID:  "extruder-01",
		SensorID:   "opcua_temperature",
		Status:     "critical",
		Score:      0.91,
		Confidence: 0.88,
	})
	if err != nil {
		t.Fatalf("send alert: %v", err)
	}

	if gotAddr != "mail.plant.local:587" {
		t.Fatalf("unexpected addr %q", gotAddr)
	}
	if gotFrom != "alerts@plant.local" || len(gotTo) != 1 {
		t.Fatalf("unexpected envelope: from=%q to=%v", gotFrom, gotTo)
	}
	body := string(gotMsg)
	if !strings.Contains(body, "Subject: [CRITICAL] Prediction alert for machine extruder-01") {
		t.Fatalf("subject missing from message:\n%s", body)
	}
	if !strings.Contains(body, "opcua_temperature") {
		t.Fatalf("sensor missing from message:\n%s", body)
	}
}

func TestSMTPNotifierHonorsCancelledContext(t *testing.T) {
	n := NewSMTP(Config{Host: "mail.plant.local", To: []string{"ops@plant.local"}})
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatalf("send must not be called with cancelled context")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.SendAlert(ctx, ports.Alert{}); err == nil {
		t.Fatalf("expected context error")
	}
}
