package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

// Config holds SMTP delivery settings. An empty host disables email and
// the runtime falls back to the no-op notifier.
type Config struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 587
	}
}

func (c *Config) Enabled() bool {
	return c.Host != "" && len(c.To) > 0
}

// SMTPNotifier sends prediction alerts by email.
type SMTPNotifier struct {
	cfg Config
	// send is swapped by tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg Config) *SMTPNotifier {
	cfg.ApplyDefaults()
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

func (n *SMTPNotifier) SendAlert(ctx context.Context, a ports.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("[%s] Prediction alert for machine %s", strings.ToUpper(a.Status), a.MachineID)
	body := fmt.Sprintf(
		"Machine:    %s\r\nSensor:     %s\r\nStatus:     %s\r\nScore:      %.2f\r\nConfidence: %.2f\r\n",
		a.MachineID, a.SensorID, a.Status, a.Score, a.Confidence,
	)
	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n\r\n%s",
		strings.Join(n.cfg.To, ", "), n.cfg.From, subject, body))

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	return n.send(addr, auth, n.cfg.From, n.cfg.To, msg)
}

// Noop is used when email delivery is not configured.
type Noop struct{}

func (Noop) SendAlert(context.Context, ports.Alert) error { return nil }

var (
	_ ports.Notifier = (*SMTPNotifier)(nil)
	_ ports.Notifier = Noop{}
)
