package order

// Status is the order lifecycle state reported by the backend.
// The set below is closed on the server side, but an unrecognized value must
// not break parsing: it is carried verbatim and Known reports false so display
// layers can fall back.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipping   Status = "SHIPPING"
	StatusDone       Status = "DONE"
	StatusCancelled  Status = "CANCELLED"
)

// Known reports whether the status is one of the documented values.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipping, StatusDone, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the order can still change state.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusCancelled:
		return true
	default:
		return false
	}
}

// Description returns a human-readable label for alert surfaces.
func (s Status) Description() string {
	descriptions := map[Status]string{
		StatusPending:    "order placed, awaiting processing",
		StatusProcessing: "order is being processed",
		StatusShipping:   "order is on its way",
		StatusDone:       "order delivered",
		StatusCancelled:  "order cancelled",
	}
	if desc, ok := descriptions[s]; ok {
		return desc
	}
	return "unknown status"
}
