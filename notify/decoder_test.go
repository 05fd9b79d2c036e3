package notify

import (
	"errors"
	"testing"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/order"
)

func TestDecodeValidNotification(t *testing.T) {
	body := []byte(`{"orderDTO":{"id":"o1","buyerId":"u1","date":"2024-01-01","status":"PENDING","items":[]}}`)

	o, err := Decode(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ID != "o1" || o.BuyerID != "u1" || o.Date != "2024-01-01" {
		t.Fatalf("unexpected order %+v", o)
	}
	if o.Status != order.StatusPending {
		t.Errorf("status = %s, want PENDING", o.Status)
	}
	if o.Items == nil || len(o.Items) != 0 {
		t.Errorf("items should be empty, got %v", o.Items)
	}
}

func TestDecodeItemsDefaulted(t *testing.T) {
	body := []byte(`{"orderDTO":{"id":"o1","buyerId":"u1","status":"DONE"}}`)

	o, err := Decode(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Items == nil {
		t.Fatal("absent items must decode to an empty sequence, not nil")
	}
}

func TestDecodeItemsPassThrough(t *testing.T) {
	body := []byte(`{"orderDTO":{"id":"o1","status":"SHIPPING","items":[{"productId":"p1","quantity":2}]}}`)

	o, err := Decode(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(o.Items))
	}
}

func TestDecodeUnknownStatusTolerated(t *testing.T) {
	body := []byte(`{"orderDTO":{"id":"o1","status":"REFUNDED"}}`)

	o, err := Decode(body)
	if err != nil {
		t.Fatalf("unknown status must not fail decode: %v", err)
	}
	if o.Status != order.Status("REFUNDED") {
		t.Errorf("status carried verbatim, got %s", o.Status)
	}
	if o.Status.Known() {
		t.Error("REFUNDED should not be a known status")
	}
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"not json", `not-json`, ErrMalformedPayload},
		{"empty body", ``, ErrMalformedPayload},
		{"no order payload", `{"something":"else"}`, ErrMissingOrder},
		{"null order", `{"orderDTO":null}`, ErrMissingOrder},
		{"missing id", `{"orderDTO":{"buyerId":"u1","status":"DONE"}}`, ErrMissingOrderID},
		{"missing status", `{"orderDTO":{"id":"o1","buyerId":"u1"}}`, ErrMissingStatus},
		{"truncated", `{"orderDTO":{"id":"o1","sta`, ErrMalformedPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			if err == nil {
				t.Fatal("expected a decode failure")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// Decode must terminate and return for arbitrary byte strings.
func TestDecodeTotalOverGarbage(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0x00, 0xff, 0xfe},
		[]byte(`[]`),
		[]byte(`"just a string"`),
		[]byte(`{"orderDTO":[]}`),
		[]byte(`{"orderDTO":{"id":123,"status":"DONE"}}`),
	}
	for _, in := range inputs {
		if _, err := Decode(in); err == nil {
			t.Errorf("expected failure for %q", in)
		}
	}
}
