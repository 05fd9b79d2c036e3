// Package store holds the client-visible notification state: the connection
// session and the single last-received-order slot. All mutation happens on the
// pipeline's event goroutine; everyone else reads snapshots.
package store

import (
	"sync"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/order"
)

// EventSink receives a copy of every state change for passive observers
// (status UIs, tests). May be nil.
type EventSink func(event string, fields map[string]interface{})

// Session is the read-only view of the connection state.
type Session struct {
	Connected bool
	LastError string
}

// Store is the single source of truth for live notification state.
type Store struct {
	mu        sync.RWMutex
	connected bool
	lastError string
	lastOrder *order.Order

	sink EventSink
}

// New creates an empty store. sink may be nil.
func New(sink EventSink) *Store {
	return &Store{sink: sink}
}

// SetConnected records the transport state. A successful (re)connect clears
// the last error.
func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	s.connected = connected
	if connected {
		s.lastError = ""
	}
	s.mu.Unlock()
	s.emit("connection_state", map[string]interface{}{"connected": connected})
}

// SetError records a human-readable failure without touching the connection
// flag; transport callers pair it with SetConnected as appropriate. Decode
// failures only ever call this.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
	s.emit("error_state", map[string]interface{}{"error": msg})
}

// ReconcileOrder overwrites the last-received-order slot. Single slot by
// design: only the most recent push matters for live-view reconciliation,
// history lives behind the REST API.
func (s *Store) ReconcileOrder(o order.Order) {
	s.mu.Lock()
	copied := o
	s.lastOrder = &copied
	s.mu.Unlock()
	s.emit("order_received", map[string]interface{}{
		"orderId": o.ID,
		"status":  string(o.Status),
	})
}

// LastOrder returns the most recently reconciled order, if any.
func (s *Store) LastOrder() (order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastOrder == nil {
		return order.Order{}, false
	}
	return *s.lastOrder, true
}

// Connected reports the current transport state.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// LastError returns the recorded failure, "" when healthy.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Snapshot returns the session view for connectivity-status UIs.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{Connected: s.connected, LastError: s.lastError}
}

func (s *Store) emit(event string, fields map[string]interface{}) {
	if s.sink != nil {
		s.sink(event, fields)
	}
}
