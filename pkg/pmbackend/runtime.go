package pmbackend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/archive"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/broadcast"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/inference"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/mqtt"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/notify"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/observability"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/queue"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/store"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/app/pipeline"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/decision"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/normalize"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/resolve"
)

// Option customizes the dependencies used by Runtime.
type Option func(*overrides)

type overrides struct {
	collector     Collector
	queue         ReadingQueue
	store         Store
	predictor     Predictor
	broadcaster   Broadcaster
	notifier      Notifier
	archive       SampleArchive
	observability Observability
}

// WithCollector injects a custom collector (other brokers, replayers, simulators).
func WithCollector(col Collector) Option {
	return func(o *overrides) {
		o.collector = col
	}
}

// WithQueue injects a custom reading queue implementation.
func WithQueue(q ReadingQueue) Option {
	return func(o *overrides) {
		o.queue = q
	}
}

// WithStore injects a custom persistent store so entities and samples can
// land in any database or API.
func WithStore(s Store) Option {
	return func(o *overrides) {
		o.store = s
	}
}

// WithPredictor overrides the HTTP inference client.
func WithPredictor(p Predictor) Option {
	return func(o *overrides) {
		o.predictor = p
	}
}

// WithBroadcaster replaces the built-in websocket hub.
func WithBroadcaster(b Broadcaster) Option {
	return func(o *overrides) {
		o.broadcaster = b
	}
}

// WithNotifier replaces the SMTP alert channel.
func WithNotifier(n Notifier) Option {
	return func(o *overrides) {
		o.notifier = n
	}
}

// WithArchive injects a custom cold-path sample archive (see
// NewCallbackArchive and NewChannelArchive for programmatic consumers).
func WithArchive(a SampleArchive) Option {
	return func(o *overrides) {
		o.archive = a
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) Option {
	return func(o *overrides) {
		o.observability = obs
	}
}

// Runtime wires the broker collector, bounded queue, single worker, and the
// optional archive, broadcast, and notification side paths. It exposes
// simple lifecycle hooks for embedding the backend inside any Go service.
type Runtime struct {
	cfg *Config
	obs ports.Observability

	collector   ports.Collector
	queue       ports.ReadingQueue
	store       ports.Store
	worker      *pipeline.Worker
	hub         *broadcast.Hub
	batcher     *archive.Batcher
	archiveDB   *sql.DB
	metricsSrv  *http.Server
	gaugeStopCh chan struct{}

	workerCancel context.CancelFunc
	workerDoneCh chan struct{}
}

// NewRuntime bootstraps the default adapters: MQTT collector, in-memory
// queue, GORM store, HTTP inference client, websocket hub, SMTP notifier,
// zap + Prometheus observability. Options override any of them.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var o overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	obs := o.observability
	if obs == nil {
		logger, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		obs = observability.New(logger)
	}

	q := o.queue
	if q == nil {
		q = queue.NewMemQueue(cfg.Queue.Capacity)
	}

	st := o.store
	if st == nil {
		db, err := store.Open(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		st, err = store.New(db)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
	}

	col := o.collector
	if col == nil {
		var err error
		col, err = mqtt.NewCollector(cfg.MQTT, normalize.New(), obs)
		if err != nil {
			return nil, err
		}
	}

	pred := o.predictor
	if pred == nil && cfg.Inference.URL != "" {
		var err error
		pred, err = inference.NewClient(cfg.Inference)
		if err != nil {
			return nil, err
		}
	}

	rt := &Runtime{
		cfg:       cfg,
		obs:       obs,
		collector: col,
		queue:     q,
		store:     st,
	}

	bc := o.broadcaster
	if bc == nil && cfg.Broadcast.Enabled {
		rt.hub = broadcast.NewHub(obs)
		bc = rt.hub
	}

	nt := o.notifier
	if nt == nil {
		if cfg.Notify.Enabled() {
			nt = notify.NewSMTP(cfg.Notify)
		} else {
			nt = notify.Noop{}
		}
	}

	arch := o.archive
	if arch == nil && cfg.Archive.Enabled {
		db, err := sql.Open("postgres", cfg.Archive.ConnString)
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		rt.archiveDB = db
		arch = archive.NewTimescaleArchive(db, cfg.Archive.Table)
	}
	var buffer pipeline.SampleBuffer
	if arch != nil {
		rt.batcher = archive.NewBatcher(arch, obs, cfg.Archive.BatchSize, cfg.Archive.FlushInterval)
		buffer = rt.batcher
	}

	rt.worker = pipeline.NewWorker(pipeline.Deps{
		Queue:       q,
		Resolver:    resolve.New(st, obs),
		Store:       st,
		Engine:      decision.New(cfg.Decision),
		Predictor:   pred,
		Broadcaster: bc,
		Notifier:    nt,
		Archive:     buffer,
		Obs:         obs,
	}, pipeline.Policy{
		IdleSleep:      cfg.Queue.IdleSleep,
		ScoreThreshold: cfg.Inference.ScoreThreshold,
	})

	return rt, nil
}

// Start launches the collector, the worker, and the metrics listener. It
// returns immediately; call Run to block on a context instead.
func (rt *Runtime) Start() error {
	if rt == nil {
		return fmt.Errorf("runtime is nil")
	}
	if err := rt.collector.Start(rt.queue); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	rt.workerCancel = cancel
	rt.workerDoneCh = make(chan struct{})
	go func() {
		rt.worker.Run(ctx)
		close(rt.workerDoneCh)
	}()

	rt.startMetrics()
	return nil
}

// Run starts the runtime and blocks until the provided context is
// cancelled, then attempts a graceful shutdown.
func (rt *Runtime) Run(ctx context.Context) error {
	if err := rt.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rt.Shutdown(shutdownCtx)
}

// Shutdown stops intake first, lets the worker finish its in-flight
// message, then closes the side paths. Messages still queued are dropped;
// every sample persisted before this point stays persisted.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if rt.collector != nil {
		if err := rt.collector.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	if rt.workerCancel != nil {
		rt.workerCancel()
		select {
		case <-rt.workerDoneCh:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("worker did not stop: %w", ctx.Err()))
		}
	}

	if rt.gaugeStopCh != nil {
		close(rt.gaugeStopCh)
	}
	if rt.metricsSrv != nil {
		if err := rt.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if rt.batcher != nil {
		if err := rt.batcher.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.hub != nil {
		rt.hub.Close()
	}
	if rt.archiveDB != nil {
		if err := rt.archiveDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (rt *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if rt.hub != nil {
		mux.HandleFunc("/ws", rt.hub.ServeWS)
	}

	rt.metricsSrv = &http.Server{
		Addr:    rt.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := rt.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	rt.gaugeStopCh = make(chan struct{})
	go rt.recordQueueGauge(rt.gaugeStopCh, time.Second)
}

func (rt *Runtime) recordQueueGauge(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rt.obs.SetGauge("pm_queue_length", float64(rt.queue.Len()))
		}
	}
}
