// Package gateway owns the duplex connection to the notification endpoint:
// STOMP framing over a websocket, a fixed reconnect policy, and heart-beats in
// both directions. Failures never reach callers as errors on the event path;
// they surface through the Events callbacks.
package gateway

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/metrics"
)

// Fixed transport policy. These mirror the documented behavior of the
// notification endpoint and are not tunable per call.
const (
	DefaultReconnectDelay    = 5000 * time.Millisecond
	DefaultHeartbeatIncoming = 4000 * time.Millisecond
	DefaultHeartbeatOutgoing = 4000 * time.Millisecond
)

// Events are the connector's lifecycle callbacks. All of them fire on the
// connector's own goroutine; none may be nil-checked by callers since the
// client guards that itself.
type Events struct {
	OnConnect        func()
	OnStompError     func(frameMessage string)
	OnTransportError func(err error)
	OnDisconnect     func()
}

// Options configures a Client. Zero durations fall back to the fixed policy.
type Options struct {
	Endpoint          string
	ReconnectDelay    time.Duration
	HeartbeatIncoming time.Duration
	HeartbeatOutgoing time.Duration
	Dialer            Dialer
	Logger            *zap.Logger
}

// Subscription is the opaque handle to one active topic subscription.
type Subscription struct {
	ID          string
	Destination string
	client      *Client
}

// Unsubscribe tears the subscription down. Safe to call after the transport
// already invalidated it.
func (s *Subscription) Unsubscribe() error {
	return s.client.unsubscribe(s.ID)
}

type subEntry struct {
	destination string
	handler     func(body []byte)
}

// Client maintains at most one live connection to the endpoint, reconnecting
// on its own fixed delay until Deactivate is called.
type Client struct {
	opts   Options
	events Events
	log    *zap.Logger

	mu          sync.Mutex
	writeMu     sync.Mutex
	state       ConnState
	conn        Conn
	subs        map[string]subEntry
	nextSubID   int
	deactivated bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewClient builds an inactive client. Activate starts it.
func NewClient(opts Options, events Events) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.HeartbeatIncoming <= 0 {
		opts.HeartbeatIncoming = DefaultHeartbeatIncoming
	}
	if opts.HeartbeatOutgoing <= 0 {
		opts.HeartbeatOutgoing = DefaultHeartbeatOutgoing
	}
	if opts.Dialer == nil {
		opts.Dialer = NewWebsocketDialer()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		opts:   opts,
		events: events,
		log:    log,
		state:  StateIdle,
		subs:   make(map[string]subEntry),
	}
}

// SetEvents replaces the callback set. Call before Activate; nothing fires on
// an idle client.
func (c *Client) SetEvents(events Events) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = events
}

// State returns the current lifecycle state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Activate starts the connection loop. Calling it while the client is already
// active, or after Deactivate, is a no-op.
func (c *Client) Activate() {
	c.mu.Lock()
	if c.state != StateIdle || c.deactivated {
		c.mu.Unlock()
		return
	}
	c.transitionLocked(StateConnecting)
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

// Deactivate is terminal: it stops the loop, closes the connection and waits
// until no further callbacks can fire. Safe to call in any state, including
// on a client that never connected, and safe to call twice.
func (c *Client) Deactivate() {
	c.mu.Lock()
	if c.state == StateDeactivated {
		c.mu.Unlock()
		return
	}
	c.deactivated = true
	c.transitionLocked(StateDeactivated)
	cancel := c.cancel
	conn := c.conn
	c.conn = nil
	c.subs = make(map[string]subEntry)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		// Best-effort polite shutdown; the broker may already be gone.
		_ = c.write(conn, NewDisconnectFrame().Marshal())
		_ = conn.Close()
	}
	c.wg.Wait()
	metrics.Connected.Set(0)
	c.log.Info("notification transport deactivated")
}

// Subscribe registers a handler for one destination. Only valid while
// connected; subscriptions do not survive a reconnect, callers re-subscribe
// from OnConnect.
func (c *Client) Subscribe(destination string, handler func(body []byte)) (*Subscription, error) {
	c.mu.Lock()
	if c.state != StateConnected || c.conn == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("subscribe %s: not connected", destination)
	}
	id := fmt.Sprintf("sub-%d", c.nextSubID)
	c.nextSubID++
	c.subs[id] = subEntry{destination: destination, handler: handler}
	conn := c.conn
	c.mu.Unlock()

	if err := c.write(conn, NewSubscribeFrame(id, destination).Marshal()); err != nil {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("subscribe %s: %w", destination, err)
	}
	c.log.Info("subscribed", zap.String("destination", destination), zap.String("id", id))
	return &Subscription{ID: id, Destination: destination, client: c}, nil
}

func (c *Client) unsubscribe(id string) error {
	c.mu.Lock()
	entry, ok := c.subs[id]
	if ok {
		delete(c.subs, id)
	}
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !ok || !connected || conn == nil {
		return nil
	}
	if err := c.write(conn, NewUnsubscribeFrame(id).Marshal()); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", entry.destination, err)
	}
	return nil
}

// run is the connect/reconnect loop. One iteration per connection attempt.
func (c *Client) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := c.opts.Dialer.Dial(ctx, c.opts.Endpoint)
		if err != nil {
			if c.isDeactivated() {
				return
			}
			metrics.TransportErrorsTotal.Inc()
			c.log.Warn("dial failed", zap.String("endpoint", c.opts.Endpoint), zap.Error(err))
			c.fire(func() {
				if c.events.OnTransportError != nil {
					c.events.OnTransportError(err)
				}
			})
			c.setState(StateReconnecting)
			if !c.sleepReconnect(ctx) {
				return
			}
			continue
		}

		c.mu.Lock()
		if c.deactivated {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.mu.Unlock()

		if err := c.write(conn, c.connectFrame().Marshal()); err != nil {
			c.dropConn(conn, err)
			if !c.sleepReconnect(ctx) {
				return
			}
			continue
		}

		beatStop := make(chan struct{})
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.beatLoop(ctx, conn, beatStop)
		}()

		c.readLoop(ctx, conn)
		close(beatStop)

		c.mu.Lock()
		wasConnected := c.state == StateConnected
		c.conn = nil
		// The transport invalidated every subscription with the connection.
		c.subs = make(map[string]subEntry)
		deactivated := c.deactivated
		if !deactivated {
			c.transitionLocked(StateReconnecting)
		}
		c.mu.Unlock()
		_ = conn.Close()

		if deactivated {
			return
		}
		metrics.Connected.Set(0)
		if wasConnected {
			c.log.Warn("notification transport disconnected, reconnecting",
				zap.Duration("delay", c.opts.ReconnectDelay))
			c.fire(func() {
				if c.events.OnDisconnect != nil {
					c.events.OnDisconnect()
				}
			})
		}
		if !c.sleepReconnect(ctx) {
			return
		}
	}
}

// readLoop consumes frames until the connection dies. The incoming heart-beat
// expectation doubles as the read deadline, with the usual 2x grace.
func (c *Client) readLoop(ctx context.Context, conn Conn) {
	grace := 2 * c.opts.HeartbeatIncoming
	_ = conn.SetReadDeadline(time.Now().Add(grace))
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			if !c.isDeactivated() && ctx.Err() == nil {
				metrics.TransportErrorsTotal.Inc()
				c.log.Warn("read failed", zap.Error(err))
				c.fire(func() {
					if c.events.OnTransportError != nil {
						c.events.OnTransportError(err)
					}
				})
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(grace))
		if IsHeartbeat(raw) {
			continue
		}
		frame, err := ParseFrame(raw)
		if err != nil {
			c.log.Warn("unparseable frame", zap.Error(err))
			continue
		}
		c.dispatch(frame)
	}
}

// dispatch routes one inbound frame. Runs on the read goroutine, so decode and
// downstream handling are strictly sequential per message.
func (c *Client) dispatch(frame *Frame) {
	switch frame.Command {
	case CmdConnected:
		c.setState(StateConnected)
		metrics.Connected.Set(1)
		metrics.ConnectsTotal.Inc()
		c.log.Info("notification transport connected",
			zap.String("version", frame.Header("version")))
		c.fire(func() {
			if c.events.OnConnect != nil {
				c.events.OnConnect()
			}
		})

	case CmdMessage:
		entry, ok := c.lookupSub(frame)
		if !ok {
			c.log.Warn("message for unknown subscription",
				zap.String("destination", frame.Header("destination")))
			return
		}
		metrics.MessagesTotal.Inc()
		c.fire(func() { entry.handler(frame.Body) })

	case CmdError:
		metrics.StompErrorsTotal.Inc()
		msg := frame.Header("message")
		if msg == "" {
			msg = "Unknown STOMP error"
		}
		c.log.Warn("broker error frame", zap.String("message", msg))
		c.fire(func() {
			if c.events.OnStompError != nil {
				c.events.OnStompError(msg)
			}
		})

	case CmdReceipt:
		// Nothing asks for receipts today.
	}
}

func (c *Client) lookupSub(frame *Frame) (subEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id := frame.Header("subscription"); id != "" {
		if entry, ok := c.subs[id]; ok {
			return entry, true
		}
	}
	dest := frame.Header("destination")
	for _, entry := range c.subs {
		if entry.destination == dest {
			return entry, true
		}
	}
	return subEntry{}, false
}

// beatLoop sends the outgoing heart-beat until the connection or client dies.
func (c *Client) beatLoop(ctx context.Context, conn Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.opts.HeartbeatOutgoing)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := c.write(conn, heartbeatFrame); err != nil {
				return
			}
		}
	}
}

func (c *Client) connectFrame() *Frame {
	host := c.opts.Endpoint
	if u, err := url.Parse(c.opts.Endpoint); err == nil && u.Host != "" {
		host = u.Host
	}
	return NewConnectFrame(host, c.opts.HeartbeatOutgoing, c.opts.HeartbeatIncoming)
}

// write serializes all writers on one connection.
func (c *Client) write(conn Conn, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(data)
}

func (c *Client) dropConn(conn Conn, err error) {
	metrics.TransportErrorsTotal.Inc()
	c.log.Warn("handshake failed", zap.Error(err))
	c.mu.Lock()
	c.conn = nil
	if !c.deactivated {
		c.transitionLocked(StateReconnecting)
	}
	c.mu.Unlock()
	_ = conn.Close()
	if !c.isDeactivated() {
		c.fire(func() {
			if c.events.OnTransportError != nil {
				c.events.OnTransportError(err)
			}
		})
	}
}

// sleepReconnect waits out the fixed delay; false means the client is done.
func (c *Client) sleepReconnect(ctx context.Context) bool {
	metrics.ReconnectsTotal.Inc()
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.opts.ReconnectDelay):
		return !c.isDeactivated()
	}
}

func (c *Client) isDeactivated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deactivated
}

// fire runs a callback unless the client was deactivated. Deactivate waits on
// the run goroutine, so once it returns no callback can still be in flight.
func (c *Client) fire(fn func()) {
	if c.isDeactivated() {
		return
	}
	fn()
}

func (c *Client) setState(to ConnState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deactivated {
		return
	}
	c.transitionLocked(to)
}

func (c *Client) transitionLocked(to ConnState) {
	if !validTransition(c.state, to) {
		c.log.Warn("illegal state transition",
			zap.String("from", c.state.String()), zap.String("to", to.String()))
		return
	}
	c.state = to
}
