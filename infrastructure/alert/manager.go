// Package alert is the user-facing alert surface of the notification client.
// Order alerts carry the order id, its status and a bound navigation action to
// the order-detail view; connectivity alerts are throttled so background retry
// noise never floods a channel.
package alert

import (
	"fmt"
	"sync"
	"time"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/order"
)

// Alert is one user-visible notification.
type Alert struct {
	Level     string // "INFO", "WARNING", "ERROR"
	Message   string
	Timestamp time.Time

	// Order fields, set only for order alerts.
	OrderID     string
	OrderStatus order.Status
	Route       string // order-detail URL for this order
	Navigate    func() // bound navigation action; invoking it opens the order

	Fields map[string]interface{}
}

// IsOrderAlert reports whether this alert was raised for an order event.
func (a Alert) IsOrderAlert() bool {
	return a.OrderID != ""
}

// Channel delivers alerts to one surface.
type Channel interface {
	Send(alert Alert) error
	Name() string
}

// Manager fans alerts out to its channels. Connectivity alerts pass through a
// throttler; order alerts never do. Every validated order notification must
// surface exactly once.
type Manager struct {
	channels []Channel
	throttle *Throttler
	mu       sync.RWMutex
}

// Throttler rate-limits repeated identical alerts.
type Throttler struct {
	lastSent map[string]time.Time
	interval time.Duration
	mu       sync.Mutex
}

// NewThrottler creates a throttler with the given minimum interval per key.
func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{
		lastSent: make(map[string]time.Time),
		interval: interval,
	}
}

// Allow reports whether the key may fire now, recording the send if so.
func (t *Throttler) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	lastTime, exists := t.lastSent[key]

	if !exists || now.Sub(lastTime) >= t.interval {
		t.lastSent[key] = now
		return true
	}

	return false
}

// Reset forgets one key.
func (t *Throttler) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastSent, key)
}

// Clear forgets all keys.
func (t *Throttler) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSent = make(map[string]time.Time)
}

// SetInterval changes the minimum interval. Applies to the next Allow call;
// keys already recorded keep their timestamps.
func (t *Throttler) SetInterval(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = interval
}

// NewManager creates an alert manager.
func NewManager(channels []Channel, throttleInterval time.Duration) *Manager {
	return &Manager{
		channels: channels,
		throttle: NewThrottler(throttleInterval),
	}
}

// SendAlert delivers one alert to all channels.
func (m *Manager) SendAlert(alert Alert) error {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}

	// Order alerts are exempt from throttling: one decoded notification,
	// one alert, always.
	if !alert.IsOrderAlert() {
		key := fmt.Sprintf("%s:%s", alert.Level, alert.Message)
		if !m.throttle.Allow(key) {
			return nil
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var lastErr error
	successCount := 0

	for _, ch := range m.channels {
		if err := ch.Send(alert); err != nil {
			lastErr = fmt.Errorf("channel %s failed: %w", ch.Name(), err)
		} else {
			successCount++
		}
	}

	if successCount == 0 && lastErr != nil {
		return lastErr
	}

	return nil
}

// SendOrderAlert raises the alert for one decoded order notification with its
// bound navigation action.
func (m *Manager) SendOrderAlert(o order.Order, route string, navigate func()) error {
	return m.SendAlert(Alert{
		Level:       "INFO",
		Message:     fmt.Sprintf("order %s is now %s", o.ID, o.Status),
		OrderID:     o.ID,
		OrderStatus: o.Status,
		Route:       route,
		Navigate:    navigate,
		Fields: map[string]interface{}{
			"buyerId": o.BuyerID,
			"date":    o.Date,
		},
	})
}

// SendInfo raises an INFO-level connectivity alert.
func (m *Manager) SendInfo(message string, fields map[string]interface{}) error {
	return m.SendAlert(Alert{
		Level:   "INFO",
		Message: message,
		Fields:  fields,
	})
}

// SendWarning raises a WARNING-level connectivity alert.
func (m *Manager) SendWarning(message string, fields map[string]interface{}) error {
	return m.SendAlert(Alert{
		Level:   "WARNING",
		Message: message,
		Fields:  fields,
	})
}

// SendError raises an ERROR-level connectivity alert.
func (m *Manager) SendError(message string, fields map[string]interface{}) error {
	return m.SendAlert(Alert{
		Level:   "ERROR",
		Message: message,
		Fields:  fields,
	})
}

// AddChannel registers an additional channel.
func (m *Manager) AddChannel(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, ch)
}

// RemoveChannel drops the named channel.
func (m *Manager) RemoveChannel(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filtered := make([]Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		if ch.Name() != name {
			filtered = append(filtered, ch)
		}
	}
	m.channels = filtered
}

// GetChannels lists channel names.
func (m *Manager) GetChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name())
	}
	return names
}

// SetThrottleInterval changes the connectivity-alert throttle window at
// runtime. Order alerts stay exempt regardless.
func (m *Manager) SetThrottleInterval(interval time.Duration) {
	m.throttle.SetInterval(interval)
}

// ResetThrottle clears the throttle state.
func (m *Manager) ResetThrottle() {
	m.throttle.Clear()
}
