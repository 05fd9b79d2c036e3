package alert

import (
	"testing"
	"time"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/order"
)

func TestNewManager(t *testing.T) {
	ch := NewMockChannel("test")
	mgr := NewManager([]Channel{ch}, 5*time.Minute)

	if mgr == nil {
		t.Fatal("manager should not be nil")
	}

	channels := mgr.GetChannels()
	if len(channels) != 1 {
		t.Errorf("expected 1 channel, got %d", len(channels))
	}
	if channels[0] != "test" {
		t.Errorf("channel name = %s, want test", channels[0])
	}
}

func TestSendOrderAlert(t *testing.T) {
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, 5*time.Minute)

	navigated := false
	o := order.Order{ID: "o1", BuyerID: "u1", Date: "2024-01-01", Status: order.StatusPending}
	err := mgr.SendOrderAlert(o, "/orders/o1", func() { navigated = true })
	if err != nil {
		t.Fatalf("SendOrderAlert failed: %v", err)
	}

	if mock.Count() != 1 {
		t.Fatalf("expected 1 alert, got %d", mock.Count())
	}

	a := mock.GetAlerts()[0]
	if a.OrderID != "o1" {
		t.Errorf("order id = %s, want o1", a.OrderID)
	}
	if a.OrderStatus != order.StatusPending {
		t.Errorf("status = %s, want PENDING", a.OrderStatus)
	}
	if a.Route != "/orders/o1" {
		t.Errorf("route = %s, want /orders/o1", a.Route)
	}
	if a.Navigate == nil {
		t.Fatal("order alert should carry a navigation action")
	}
	a.Navigate()
	if !navigated {
		t.Error("navigation action was not bound")
	}
	if a.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestOrderAlertsNeverThrottled(t *testing.T) {
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, 5*time.Minute)

	o := order.Order{ID: "o1", Status: order.StatusPending}
	// Identical notifications redelivered back to back must each surface.
	for i := 0; i < 3; i++ {
		if err := mgr.SendOrderAlert(o, "/orders/o1", nil); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}

	if mock.Count() != 3 {
		t.Fatalf("expected 3 alerts, got %d", mock.Count())
	}
}

func TestConnectivityAlertsThrottled(t *testing.T) {
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, 5*time.Minute)

	_ = mgr.SendWarning("connection lost", nil)
	_ = mgr.SendWarning("connection lost", nil)

	if mock.Count() != 1 {
		t.Fatalf("expected retry noise to be throttled, got %d alerts", mock.Count())
	}

	// Different message is a different key.
	_ = mgr.SendError("broker rejected subscription", nil)
	if mock.Count() != 2 {
		t.Fatalf("expected 2 alerts, got %d", mock.Count())
	}
}

func TestThrottleExpiry(t *testing.T) {
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, 50*time.Millisecond)

	_ = mgr.SendWarning("connection lost", nil)
	time.Sleep(60 * time.Millisecond)
	_ = mgr.SendWarning("connection lost", nil)

	if mock.Count() != 2 {
		t.Fatalf("expected throttle to expire, got %d alerts", mock.Count())
	}
}

func TestSetThrottleInterval(t *testing.T) {
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, time.Hour)

	_ = mgr.SendWarning("connection lost", nil)
	_ = mgr.SendWarning("connection lost", nil)
	if mock.Count() != 1 {
		t.Fatalf("expected 1 alert under the hour window, got %d", mock.Count())
	}

	// Shrinking the window at runtime lets the next repeat through.
	mgr.SetThrottleInterval(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_ = mgr.SendWarning("connection lost", nil)
	if mock.Count() != 2 {
		t.Fatalf("expected the shrunk window to admit the repeat, got %d alerts", mock.Count())
	}
}

func TestAllChannelsFail(t *testing.T) {
	bad := NewMockChannel("bad")
	bad.SetShouldError(true)
	mgr := NewManager([]Channel{bad}, time.Minute)

	if err := mgr.SendOrderAlert(order.Order{ID: "o1", Status: order.StatusDone}, "", nil); err == nil {
		t.Fatal("expected error when every channel fails")
	}
}

func TestAddRemoveChannel(t *testing.T) {
	mgr := NewManager(nil, time.Minute)
	mgr.AddChannel(NewMockChannel("a"))
	mgr.AddChannel(NewMockChannel("b"))
	mgr.RemoveChannel("a")

	channels := mgr.GetChannels()
	if len(channels) != 1 || channels[0] != "b" {
		t.Fatalf("unexpected channels %v", channels)
	}
}
