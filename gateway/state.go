package gateway

// ConnState is the connector lifecycle state.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateDeactivated
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateDeactivated:
		return "DEACTIVATED"
	default:
		return "UNKNOWN"
	}
}

type stateTransition struct {
	from ConnState
	to   ConnState
}

// legalTransitions enumerates the connector state machine. Deactivated is
// terminal and reachable from everywhere via Deactivate.
var legalTransitions = map[stateTransition]bool{
	{StateIdle, StateConnecting}:         true,
	{StateConnecting, StateConnected}:    true,
	{StateConnecting, StateReconnecting}: true,
	{StateConnected, StateReconnecting}:  true,
	{StateReconnecting, StateConnected}:  true,
	{StateReconnecting, StateConnecting}: true,

	{StateIdle, StateDeactivated}:         true,
	{StateConnecting, StateDeactivated}:   true,
	{StateConnected, StateDeactivated}:    true,
	{StateReconnecting, StateDeactivated}: true,
}

// validTransition reports whether from -> to is allowed. Same-state moves are
// allowed for idempotency.
func validTransition(from, to ConnState) bool {
	if from == to {
		return true
	}
	return legalTransitions[stateTransition{from: from, to: to}]
}
