package mqtt

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/normalize"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

// DefaultTelemetryTopic is subscribed in addition to the configured topic
// list if not already present.
const DefaultTelemetryTopic = "sensors/+/telemetry"

// Config captures the runtime details required to hold an MQTT session.
type Config struct {
	BrokerURL      string        `yaml:"broker_url"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Topics         []string      `yaml:"topics"`
	QoS            byte          `yaml:"qos"`
	KeepAlive      time.Duration `yaml:"keep_alive"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

func (c *Config) ApplyDefaults() {
	if c.ClientID == "" {
		c.ClientID = fmt.Sprintf("pm-backend-%06d", rand.Intn(1_000_000))
	}
	if c.QoS == 0 {
		c.QoS = 1
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = 60 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 5 * time.Second
	}
	for _, t := range c.Topics {
		if t == DefaultTelemetryTopic {
			return
		}
	}
	c.Topics = append(c.Topics, DefaultTelemetryTopic)
}

func (c *Config) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker_url is required")
	}
	return nil
}

// State is the connection manager's lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// brokerClient is the narrow slice of the paho client the collector uses,
// so reconnect behavior is testable with a fake.
type brokerClient interface {
	Connect() error
	Subscribe(topic string, qos byte, handler pahomqtt.MessageHandler) error
	Disconnect(quiesceMs uint)
	IsConnected() bool
}

// Collector owns the broker session: connect, subscribe, and an unlimited
// fixed-delay reconnect loop. Its message callback only normalizes and
// enqueues; all blocking work happens in the worker.
type Collector struct {
	cfg  Config
	norm *normalize.Normalizer
	obs  ports.Observability

	// newClient is swapped by tests for a fake broker.
	newClient func() brokerClient

	mu     sync.Mutex
	state  State
	client brokerClient
	queue  ports.ReadingQueue

	lostCh  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

func NewCollector(cfg Config, norm *normalize.Normalizer, obs ports.Observability) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Collector{
		cfg:    cfg,
		norm:   norm,
		obs:    obs,
		lostCh: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	c.newClient = c.newPahoClient
	return c, nil
}

func (c *Collector) Start(out ports.ReadingQueue) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("mqtt collector already started")
	}
	c.started = true
	c.queue = out
	c.client = c.newClient()
	c.mu.Unlock()

	go c.run()
	return nil
}

func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	client := c.client
	c.mu.Unlock()

	close(c.stopCh)
	<-c.doneCh

	if client != nil && client.IsConnected() {
		client.Disconnect(250)
	}
	c.setState(Disconnected)
	return nil
}

// State reports the current connection state.
func (c *Collector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// run is the session loop: connect, subscribe, wait for a drop, then retry
// after a fixed delay. No backoff growth, no retry cap.
func (c *Collector) run() {
	defer close(c.doneCh)

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		c.setState(Connecting)
		if err := c.client.Connect(); err != nil {
			c.setState(Disconnected)
			c.obs.LogError("mqtt_connect_failed", err,
				ports.Field{Key: "broker", Value: c.cfg.BrokerURL})
			if !c.waitReconnect() {
				return
			}
			continue
		}

		if err := c.subscribeAll(); err != nil {
			c.obs.LogError("mqtt_subscribe_failed", err)
		}
		c.setState(Connected)
		c.obs.LogInfo("mqtt_connected",
			ports.Field{Key: "broker", Value: c.cfg.BrokerURL},
			ports.Field{Key: "topics", Value: len(c.cfg.Topics)})

		select {
		case <-c.stopCh:
			return
		case <-c.lostCh:
			c.setState(Disconnected)
			c.obs.IncCounter("pm_broker_reconnects_total", 1)
			if !c.waitReconnect() {
				return
			}
		}
	}
}

func (c *Collector) subscribeAll() error {
	var errs error
	for _, topic := range c.cfg.Topics {
		if err := c.client.Subscribe(topic, c.cfg.QoS, c.handleMessage); err != nil {
			errs = errors.Join(errs, fmt.Errorf("subscribe %q: %w", topic, err))
			continue
		}
		c.obs.LogInfo("mqtt_subscribed", ports.Field{Key: "topic", Value: topic})
	}
	return errs
}

// handleMessage runs on the broker callback goroutine: it must not block.
// Normalize, enqueue, done.
func (c *Collector) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	readings, err := c.norm.Normalize(msg.Topic(), msg.Payload())
	if err != nil {
		c.obs.RecordDrop(msg.Topic(), err)
		return
	}
	for _, r := range readings {
		if !c.queue.Enqueue(r) {
			c.obs.RecordDrop(msg.Topic(), fmt.Errorf("queue full, reading dropped"))
		}
	}
}

func (c *Collector) connectionLost(err error) {
	c.obs.LogError("mqtt_connection_lost", err)
	select {
	case c.lostCh <- struct{}{}:
	default:
	}
}

// waitReconnect sleeps the fixed reconnect delay; false means Stop was
// called meanwhile.
func (c *Collector) waitReconnect() bool {
	t := time.NewTimer(c.cfg.ReconnectDelay)
	defer t.Stop()
	select {
	case <-c.stopCh:
		return false
	case <-t.C:
		return true
	}
}

func (c *Collector) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Collector) newPahoClient() brokerClient {
	opts := pahomqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetKeepAlive(c.cfg.KeepAlive).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			c.connectionLost(err)
		})
	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}
	return &pahoClient{c: pahomqtt.NewClient(opts)}
}

// pahoClient adapts the paho token API to plain error returns.
type pahoClient struct {
	c pahomqtt.Client
}

func (p *pahoClient) Connect() error {
	t := p.c.Connect()
	t.Wait()
	return t.Error()
}

func (p *pahoClient) Subscribe(topic string, qos byte, handler pahomqtt.MessageHandler) error {
	t := p.c.Subscribe(topic, qos, handler)
	t.Wait()
	return t.Error()
}

func (p *pahoClient) Disconnect(quiesceMs uint) {
	p.c.Disconnect(quiesceMs)
}

func (p *pahoClient) IsConnected() bool {
	return p.c.IsConnected()
}

var _ ports.Collector = (*Collector)(nil)
