package container

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/config"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/infrastructure/alert"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/infrastructure/logger"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/internal/store"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/metrics"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/notify"
)

// Container wires the notifier together and owns component lifecycles.
type Container struct {
	cfgPath string
	cfg     *config.AppConfig

	logger *logger.Logger
	store  *store.Store
	alerts *alert.Manager

	pipeline       *notify.Pipeline
	sessionWatcher *config.SessionWatcher
	configWatcher  *config.Watcher

	metricsServer *http.Server

	lifecycle *LifecycleManager
}

// New loads configuration; Build then constructs the components.
func New(configPath string) (*Container, error) {
	cfg, err := config.LoadWithEnvOverrides(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	return &Container{
		cfgPath:   configPath,
		cfg:       &cfg,
		lifecycle: NewLifecycleManager(),
	}, nil
}

// Logger exposes the shared logger; valid after Build.
func (c *Container) Logger() *logger.Logger { return c.logger }

// Build constructs all components.
func (c *Container) Build() error {
	if err := c.buildInfrastructure(); err != nil {
		return fmt.Errorf("build infrastructure failed: %w", err)
	}

	if err := c.buildPipeline(); err != nil {
		return fmt.Errorf("build pipeline failed: %w", err)
	}

	c.registerLifecycleComponents()
	c.logger.Info("container built successfully")
	return nil
}

func (c *Container) buildInfrastructure() error {
	var err error
	c.logger, err = logger.New(c.cfg.Logger)
	if err != nil {
		return fmt.Errorf("create logger failed: %w", err)
	}

	c.alerts = alert.NewManager(c.buildAlertChannels(), c.cfg.Alerts.ThrottleInterval)

	// State transitions land in the structured log through the sink.
	c.store = store.New(func(event string, fields map[string]interface{}) {
		c.logger.LogConnection(event, fields)
	})

	c.logger.Info("infrastructure built")
	return nil
}

func (c *Container) buildAlertChannels() []alert.Channel {
	names := c.cfg.Alerts.Channels
	if len(names) == 0 {
		names = []string{"console"}
	}
	channels := make([]alert.Channel, 0, len(names))
	for _, name := range names {
		switch name {
		case "console":
			channels = append(channels, alert.NewConsoleChannel("console"))
		case "log":
			channels = append(channels, alert.NewLogChannel("log", os.Stdout))
		}
	}
	return channels
}

func (c *Container) buildPipeline() error {
	n := c.cfg.Notifications
	c.pipeline = notify.New(notify.Config{
		Endpoint:          n.Endpoint,
		TopicPrefix:       n.TopicPrefix,
		OrderDetailRoute:  n.OrderDetailRoute,
		ReconnectDelay:    n.ReconnectDelay(),
		HeartbeatIncoming: n.HeartbeatIncoming(),
		HeartbeatOutgoing: n.HeartbeatOutgoing(),
	}, c.store, c.alerts, &notify.LogNavigator{Log: c.logger.Logger}, c.logger.Logger, nil)

	watcher, err := config.NewSessionWatcher(c.cfg.Session.File, c.logger.Logger)
	if err != nil {
		return fmt.Errorf("create session watcher failed: %w", err)
	}
	c.sessionWatcher = watcher

	cfgWatcher, err := config.NewWatcher(c.cfgPath, 0, c.logger.Logger)
	if err != nil {
		return fmt.Errorf("create config watcher failed: %w", err)
	}
	c.configWatcher = cfgWatcher

	c.logger.Info("pipeline built")
	return nil
}

// applyHotReload takes over the settings that can change without a restart:
// log level and the connectivity-alert throttle window. Endpoint, topic and
// session-file changes still need a restart.
func (c *Container) applyHotReload(cfg config.AppConfig) {
	if err := c.logger.SetLevel(cfg.Logger.Level); err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "reload_log_level"})
	} else {
		c.logger.Info("log level applied: " + cfg.Logger.Level)
	}
	c.alerts.SetThrottleInterval(cfg.Alerts.ThrottleInterval)
}

func (c *Container) registerLifecycleComponents() {
	c.lifecycle.Register(&pipelineComponent{pipeline: c.pipeline})
	c.lifecycle.Register(&sessionWatcherComponent{
		watcher:  c.sessionWatcher,
		pipeline: c.pipeline,
	})
	c.lifecycle.Register(&configWatcherComponent{
		watcher: c.configWatcher,
		apply:   c.applyHotReload,
	})
	if c.cfg.Metrics.Addr != "" {
		c.lifecycle.Register(&httpServerComponent{
			name:    "metrics_server",
			handler: metrics.Handler(),
			addr:    c.cfg.Metrics.Addr,
			logger:  c.logger,
			server:  &c.metricsServer,
		})
	}
}

func (c *Container) Start(ctx context.Context) error {
	c.logger.Info("starting container...")

	if err := c.lifecycle.StartAll(ctx); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}

	c.logger.Info("container started")
	return nil
}

func (c *Container) Stop() error {
	c.logger.Info("stopping container...")

	err := c.lifecycle.StopAll()
	if err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "stop"})
	}

	if c.logger != nil {
		c.logger.Close()
	}

	return err
}

func (c *Container) HealthCheck() error {
	return c.lifecycle.CheckHealth()
}

// pipelineComponent adapts the notification pipeline to the Lifecycle shape.
// The pipeline itself is gate-driven: Start does nothing until a session-state
// update arrives, Stop is terminal.
type pipelineComponent struct {
	pipeline *notify.Pipeline
	started  bool
}

func (p *pipelineComponent) Start(ctx context.Context) error {
	p.started = true
	return nil
}

func (p *pipelineComponent) Stop() error {
	p.pipeline.Stop()
	p.started = false
	return nil
}

func (p *pipelineComponent) Health() error {
	if !p.started {
		return fmt.Errorf("pipeline not started")
	}
	return nil
}

// sessionWatcherComponent feeds auth-state changes into the pipeline gate.
type sessionWatcherComponent struct {
	watcher  *config.SessionWatcher
	pipeline *notify.Pipeline
	started  bool
}

func (s *sessionWatcherComponent) Start(ctx context.Context) error {
	if err := s.watcher.Start(ctx, s.pipeline.Apply); err != nil {
		return err
	}
	s.started = true
	return nil
}

func (s *sessionWatcherComponent) Stop() error {
	if !s.started {
		return nil
	}
	s.started = false
	return s.watcher.Stop()
}

func (s *sessionWatcherComponent) Health() error {
	if !s.started {
		return fmt.Errorf("session watcher not started")
	}
	return nil
}

// configWatcherComponent re-applies hot-reloadable settings when the config
// file changes.
type configWatcherComponent struct {
	watcher *config.Watcher
	apply   func(config.AppConfig)
	started bool
}

func (w *configWatcherComponent) Start(ctx context.Context) error {
	if err := w.watcher.Start(ctx, w.apply); err != nil {
		return err
	}
	w.started = true
	return nil
}

func (w *configWatcherComponent) Stop() error {
	if !w.started {
		return nil
	}
	w.started = false
	return w.watcher.Stop()
}

func (w *configWatcherComponent) Health() error {
	if !w.started {
		return fmt.Errorf("config watcher not started")
	}
	return nil
}
