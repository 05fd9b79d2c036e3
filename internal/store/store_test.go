package store

import (
	"testing"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/order"
)

func TestReconcileOrderOverwritesSlot(t *testing.T) {
	st := New(nil)

	if _, ok := st.LastOrder(); ok {
		t.Fatal("fresh store should hold no order")
	}

	st.ReconcileOrder(order.Order{ID: "o1", BuyerID: "u1", Status: order.StatusPending})
	st.ReconcileOrder(order.Order{ID: "o2", BuyerID: "u1", Status: order.StatusDone})

	got, ok := st.LastOrder()
	if !ok {
		t.Fatal("expected an order in the slot")
	}
	if got.ID != "o2" || got.Status != order.StatusDone {
		t.Fatalf("slot should hold the latest order, got %+v", got)
	}
}

func TestConnectClearsError(t *testing.T) {
	st := New(nil)

	st.SetError("WebSocket connection error")
	st.SetConnected(false)
	if st.LastError() == "" {
		t.Fatal("error should be recorded")
	}

	st.SetConnected(true)
	if !st.Connected() {
		t.Fatal("expected connected")
	}
	if st.LastError() != "" {
		t.Fatalf("reconnect should clear the error, got %q", st.LastError())
	}
}

func TestDecodeErrorKeepsConnectionState(t *testing.T) {
	st := New(nil)
	st.SetConnected(true)

	st.SetError("Error processing notification")

	if !st.Connected() {
		t.Fatal("decode errors must not alter the connection flag")
	}
	snap := st.Snapshot()
	if !snap.Connected || snap.LastError != "Error processing notification" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSinkReceivesEvents(t *testing.T) {
	var events []string
	st := New(func(event string, fields map[string]interface{}) {
		events = append(events, event)
	})

	st.SetConnected(true)
	st.ReconcileOrder(order.Order{ID: "o1", Status: order.StatusPending})
	st.SetError("boom")

	want := []string{"connection_state", "order_received", "error_state"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, events[i], want[i])
		}
	}
}
