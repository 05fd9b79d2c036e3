package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/gateway"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/infrastructure/alert"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/internal/store"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/metrics"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/order"
)

// Config fixes the pipeline's endpoints and transport policy. The durations
// default to the documented values and are not tunable per call.
type Config struct {
	Endpoint          string
	TopicPrefix       string
	OrderDetailRoute  string
	ReconnectDelay    time.Duration
	HeartbeatIncoming time.Duration
	HeartbeatOutgoing time.Duration
}

// Pipeline drives the whole notification flow. The session gate decides when
// a session exists; within a session, frames flow decode -> reconcile ->
// alert on the transport's read goroutine, strictly one message at a time.
type Pipeline struct {
	cfg    Config
	store  *store.Store
	alerts *alert.Manager
	nav    Navigator
	log    *zap.Logger
	dialer gateway.Dialer

	mu      sync.Mutex
	auth    AuthState
	session *session
	stopped bool
}

// session pairs one transport client with its topic subscription. Exactly one
// exists per gate-enabled lifetime.
type session struct {
	userID string
	client *gateway.Client
	sub    *Subscriber
}

// New builds an idle pipeline. dialer may be nil (production websocket); tests
// inject a fake. nav may be nil, which disables navigation side effects.
func New(cfg Config, st *store.Store, alerts *alert.Manager, nav Navigator, log *zap.Logger, dialer gateway.Dialer) *Pipeline {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.OrderDetailRoute == "" {
		cfg.OrderDetailRoute = DefaultOrderDetailRoute
	}
	if log == nil {
		log = zap.NewNop()
	}
	if dialer == nil {
		dialer = gateway.NewWebsocketDialer()
	}
	return &Pipeline{
		cfg:    cfg,
		store:  st,
		alerts: alerts,
		nav:    nav,
		log:    log,
		dialer: dialer,
	}
}

// Apply re-evaluates the session gate against a new auth state. A false->true
// transition creates the session; true->false tears it down. A change of user
// identity while connected counts as both: the old session dies, a fresh one
// starts bound to the new id.
func (p *Pipeline) Apply(a AuthState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.auth = a

	want := ShouldConnect(a)
	switch {
	case p.session != nil && (!want || p.session.userID != a.User.ID):
		p.stopSessionLocked()
		if want {
			p.startSessionLocked(a.User.ID)
		}
	case p.session == nil && want:
		p.startSessionLocked(a.User.ID)
	}
}

// Stop tears the pipeline down for good (owner unmount). Safe to call twice.
// When it returns, no further reconciliation or alert dispatch can occur.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	p.stopSessionLocked()
}

// Active reports whether a session currently exists.
func (p *Pipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil
}

func (p *Pipeline) startSessionLocked(userID string) {
	client := gateway.NewClient(gateway.Options{
		Endpoint:          p.cfg.Endpoint,
		ReconnectDelay:    p.cfg.ReconnectDelay,
		HeartbeatIncoming: p.cfg.HeartbeatIncoming,
		HeartbeatOutgoing: p.cfg.HeartbeatOutgoing,
		Dialer:            p.dialer,
		Logger:            p.log,
	}, gateway.Events{})

	sub := NewSubscriber(p.cfg.TopicPrefix, userID, client, p.handleMessage, p.log)

	// Events are wired after construction so the closures can capture the
	// subscriber; nothing fires before Activate.
	client.SetEvents(gateway.Events{
		OnConnect: func() {
			p.store.SetConnected(true)
			sub.HandleConnect()
		},
		OnStompError: func(frameMessage string) {
			p.store.SetError("STOMP error: " + frameMessage)
		},
		OnTransportError: func(err error) {
			p.store.SetError("WebSocket connection error")
		},
		OnDisconnect: func() {
			p.store.SetConnected(false)
			sub.HandleDisconnect()
		},
	})

	p.session = &session{userID: userID, client: client, sub: sub}
	metrics.SessionsStartedTotal.Inc()
	p.log.Info("notification session started", zap.String("userId", userID))
	client.Activate()
}

func (p *Pipeline) stopSessionLocked() {
	if p.session == nil {
		return
	}
	s := p.session
	p.session = nil
	s.client.Deactivate()
	p.store.SetConnected(false)
	p.log.Info("notification session stopped", zap.String("userId", s.userID))
}

// handleMessage is the per-frame callback: decode, reconcile, dispatch. Runs
// on the transport's read goroutine, never concurrently with itself.
func (p *Pipeline) handleMessage(body []byte) {
	o, err := Decode(body)
	if err != nil {
		metrics.DecodeFailuresTotal.Inc()
		p.store.SetError("Error processing notification")
		p.log.Warn("notification dropped", zap.Error(err))
		return
	}
	metrics.OrdersReceivedTotal.Inc()
	p.store.ReconcileOrder(o)
	p.dispatchAlert(o)
}

// dispatchAlert raises exactly one alert for a reconciled order, with the
// navigation action bound to that order's detail view.
func (p *Pipeline) dispatchAlert(o order.Order) {
	url := OrderDetailURL(p.cfg.OrderDetailRoute, o.ID)
	nav := p.nav
	navigate := func() {
		if nav != nil {
			nav.OpenOrder(o.ID, url)
		}
	}
	if err := p.alerts.SendOrderAlert(o, url, navigate); err != nil {
		p.log.Warn("alert dispatch failed", zap.String("orderId", o.ID), zap.Error(err))
		return
	}
	metrics.AlertsTotal.Inc()
	p.log.Info("order alert dispatched",
		zap.String("orderId", o.ID), zap.String("status", string(o.Status)))
}
