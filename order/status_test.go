package order

import "testing"

func TestStatusKnown(t *testing.T) {
	tests := []struct {
		status Status
		known  bool
	}{
		{StatusPending, true},
		{StatusProcessing, true},
		{StatusShipping, true},
		{StatusDone, true},
		{StatusCancelled, true},
		{Status("REFUNDED"), false},
		{Status(""), false},
	}
	for _, tt := range tests {
		if got := tt.status.Known(); got != tt.known {
			t.Errorf("Known(%q) = %v, want %v", tt.status, got, tt.known)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusProcessing.Terminal() || StatusShipping.Terminal() {
		t.Error("active statuses must not be terminal")
	}
	if !StatusDone.Terminal() || !StatusCancelled.Terminal() {
		t.Error("DONE and CANCELLED must be terminal")
	}
}

func TestStatusDescriptionFallback(t *testing.T) {
	if desc := Status("WEIRD").Description(); desc != "unknown status" {
		t.Errorf("unexpected fallback description %q", desc)
	}
	if desc := StatusShipping.Description(); desc == "unknown status" {
		t.Error("known status should have a description")
	}
}
