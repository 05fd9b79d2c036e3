package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/gateway"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/infrastructure/alert"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/internal/store"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/order"
)

// recordingNavigator captures OpenOrder calls.
type recordingNavigator struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNavigator) OpenOrder(orderID, url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, orderID+" "+url)
}

func (n *recordingNavigator) openedOrders() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

type fixture struct {
	pipeline *Pipeline
	store    *store.Store
	dialer   *gateway.FakeDialer
	channel  *alert.MockChannel
	nav      *recordingNavigator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ch := alert.NewMockChannel("test")
	mgr := alert.NewManager([]alert.Channel{ch}, time.Minute)
	st := store.New(nil)
	nav := &recordingNavigator{}
	dialer := gateway.NewFakeDialer()

	p := New(Config{
		Endpoint:       "ws://localhost/ws-notifications",
		ReconnectDelay: 20 * time.Millisecond,
	}, st, mgr, nav, nil, dialer)
	t.Cleanup(p.Stop)

	return &fixture{pipeline: p, store: st, dialer: dialer, channel: ch, nav: nav}
}

func (f *fixture) login(t *testing.T, userID string) {
	t.Helper()
	f.pipeline.Apply(AuthState{
		LoggedIn: true,
		User:     User{ID: userID, Username: userID, Role: RoleUser},
	})
	waitFor(t, "connected session", func() bool {
		return f.store.Connected() && f.dialer.LastConn() != nil && f.dialer.LastConn().Subscribed()
	})
}

func (f *fixture) deliverOrder(t *testing.T, o order.Order) {
	t.Helper()
	payload, err := json.Marshal(map[string]order.Order{"orderDTO": o})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	conn := f.dialer.LastConn()
	id, dest, ok := conn.LastSubscribe()
	if !ok {
		t.Fatal("no active subscription on the connection")
	}
	conn.DeliverMessage(id, dest, payload)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLoginActivatesAndSubscribes(t *testing.T) {
	f := newFixture(t)
	f.login(t, "u1")

	if !f.pipeline.Active() {
		t.Error("pipeline should hold an active session")
	}
	_, dest, ok := f.dialer.LastConn().LastSubscribe()
	if !ok || dest != "/topic/notify/u1" {
		t.Errorf("subscribed to %q, want /topic/notify/u1", dest)
	}
}

func TestGateRefusesNonUsers(t *testing.T) {
	f := newFixture(t)

	f.pipeline.Apply(AuthState{LoggedIn: true, User: User{ID: "a1", Role: RoleAdmin}})
	f.pipeline.Apply(AuthState{LoggedIn: false, User: User{ID: "u1", Role: RoleUser}})
	f.pipeline.Apply(AuthState{LoggedIn: true, User: User{Role: RoleUser}})

	time.Sleep(30 * time.Millisecond)
	if f.pipeline.Active() {
		t.Error("no session should exist for admin, logged-out, or id-less users")
	}
	if f.dialer.DialCount() != 0 {
		t.Errorf("dial count = %d, want 0", f.dialer.DialCount())
	}
}

func TestValidNotificationFlows(t *testing.T) {
	f := newFixture(t)
	f.login(t, "u1")

	f.deliverOrder(t, order.Order{ID: "o1", BuyerID: "u1", Status: order.StatusPending})
	waitFor(t, "alert", func() bool { return f.channel.Count() == 1 })

	got, ok := f.store.LastOrder()
	if !ok || got.ID != "o1" {
		t.Fatalf("last order = %+v (ok=%v), want o1", got, ok)
	}
	a := f.channel.GetAlerts()[0]
	if a.OrderID != "o1" || a.Route != "/orders/o1" {
		t.Errorf("alert = %+v", a)
	}
	a.Navigate()
	opened := f.nav.openedOrders()
	if len(opened) != 1 || opened[0] != "o1 /orders/o1" {
		t.Errorf("navigation calls = %v", opened)
	}
}

func TestMalformedFrameRecordsError(t *testing.T) {
	f := newFixture(t)
	f.login(t, "u1")

	conn := f.dialer.LastConn()
	id, dest, _ := conn.LastSubscribe()
	conn.DeliverMessage(id, dest, []byte("this is not json"))

	waitFor(t, "error state", func() bool { return f.store.LastError() != "" })
	if got := f.store.LastError(); got != "Error processing notification" {
		t.Errorf("lastError = %q", got)
	}
	if f.channel.Count() != 0 {
		t.Error("malformed frame must not raise an alert")
	}
	if _, ok := f.store.LastOrder(); ok {
		t.Error("malformed frame must not touch the order slot")
	}
	// Decode failures are data problems, not transport problems.
	if !f.store.Connected() {
		t.Error("connection state must survive a decode failure")
	}
}

func TestMissingOrderIDDropped(t *testing.T) {
	f := newFixture(t)
	f.login(t, "u1")

	conn := f.dialer.LastConn()
	id, dest, _ := conn.LastSubscribe()
	conn.DeliverMessage(id, dest, []byte(`{"orderDTO":{"status":"PENDING"}}`))

	waitFor(t, "error state", func() bool { return f.store.LastError() != "" })
	if f.channel.Count() != 0 {
		t.Error("order without an id must not raise an alert")
	}
}

func TestLogoutTearsDownSilently(t *testing.T) {
	f := newFixture(t)
	f.login(t, "u1")
	conn := f.dialer.LastConn()
	id, dest, _ := conn.LastSubscribe()

	f.pipeline.Apply(AuthState{LoggedIn: false})
	if f.pipeline.Active() {
		t.Fatal("logout must end the session")
	}
	if f.store.Connected() {
		t.Error("store should read disconnected after logout")
	}

	// A frame racing the teardown is discarded without side effects.
	conn.DeliverMessage(id, dest, []byte(`{"orderDTO":{"id":"o9","status":"PENDING"}}`))
	time.Sleep(30 * time.Millisecond)
	if f.channel.Count() != 0 {
		t.Error("no alert may fire after logout")
	}
	if _, ok := f.store.LastOrder(); ok {
		t.Error("no reconciliation may happen after logout")
	}
}

func TestReconnectResubscribes(t *testing.T) {
	f := newFixture(t)
	f.login(t, "u1")

	f.dialer.LastConn().Close()
	waitFor(t, "transport error recorded", func() bool {
		return f.store.LastError() == "WebSocket connection error"
	})
	waitFor(t, "fresh connection with fresh subscription", func() bool {
		return f.dialer.DialCount() == 2 && f.dialer.LastConn().Subscribed()
	})

	// Reconnection clears the error and the new subscription carries traffic.
	waitFor(t, "error cleared", func() bool { return f.store.LastError() == "" })
	f.deliverOrder(t, order.Order{ID: "o2", BuyerID: "u1", Status: order.StatusShipping})
	waitFor(t, "alert on new connection", func() bool { return f.channel.Count() == 1 })
}

func TestEveryOrderAlerts(t *testing.T) {
	f := newFixture(t)
	f.login(t, "u1")

	f.deliverOrder(t, order.Order{ID: "o1", BuyerID: "u1", Status: order.StatusPending})
	waitFor(t, "first alert", func() bool { return f.channel.Count() == 1 })
	f.deliverOrder(t, order.Order{ID: "o2", BuyerID: "u1", Status: order.StatusProcessing})
	waitFor(t, "second alert", func() bool { return f.channel.Count() == 2 })

	alerts := f.channel.GetAlerts()
	if alerts[0].OrderID != "o1" || alerts[1].OrderID != "o2" {
		t.Errorf("alert order ids = %s, %s", alerts[0].OrderID, alerts[1].OrderID)
	}
	got, _ := f.store.LastOrder()
	if got.ID != "o2" {
		t.Errorf("slot holds %s, want the latest order o2", got.ID)
	}
}

func TestIdentityChangeRestartsSession(t *testing.T) {
	f := newFixture(t)
	f.login(t, "u1")

	f.pipeline.Apply(AuthState{
		LoggedIn: true,
		User:     User{ID: "u2", Username: "u2", Role: RoleUser},
	})
	waitFor(t, "session for the new user", func() bool {
		conn := f.dialer.LastConn()
		if conn == nil || !conn.Subscribed() {
			return false
		}
		_, dest, ok := conn.LastSubscribe()
		return ok && dest == "/topic/notify/u2"
	})
	if f.dialer.DialCount() != 2 {
		t.Errorf("dial count = %d, want 2 (one per identity)", f.dialer.DialCount())
	}
}

func TestStopFreezesPipelineMidDelivery(t *testing.T) {
	// Teardown must be a hard cut even while the broker is mid-burst: once
	// Stop returns, the alert count and the order slot are frozen no matter
	// how many frames were still in flight.
	for iter := 0; iter < 10; iter++ {
		f := newFixture(t)
		f.login(t, "u1")

		conn := f.dialer.LastConn()
		id, dest, ok := conn.LastSubscribe()
		if !ok {
			t.Fatal("no active subscription")
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 50; i++ {
				body, _ := json.Marshal(map[string]order.Order{"orderDTO": {
					ID:     fmt.Sprintf("o%d", i),
					Status: order.StatusPending,
				}})
				conn.DeliverMessage(id, dest, body)
			}
		}()

		f.pipeline.Stop()
		alerts := f.channel.Count()
		slot, slotOK := f.store.LastOrder()

		<-done
		time.Sleep(20 * time.Millisecond)

		if got := f.channel.Count(); got != alerts {
			t.Fatalf("iter %d: %d alerts fired after Stop returned (had %d)", iter, got-alerts, alerts)
		}
		after, afterOK := f.store.LastOrder()
		if afterOK != slotOK || after.ID != slot.ID {
			t.Fatalf("iter %d: order slot moved after Stop: %q -> %q", iter, slot.ID, after.ID)
		}
	}
}

func TestStopIsTerminal(t *testing.T) {
	f := newFixture(t)
	f.login(t, "u1")

	f.pipeline.Stop()
	f.pipeline.Apply(AuthState{
		LoggedIn: true,
		User:     User{ID: "u1", Role: RoleUser},
	})
	time.Sleep(30 * time.Millisecond)
	if f.pipeline.Active() {
		t.Error("a stopped pipeline must ignore further gate input")
	}
}
