// Package notify wires the order-notification pipeline: session gate,
// per-user topic subscription, payload decoding, state reconciliation and
// alert dispatch.
package notify

// User roles known to the platform.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the authenticated identity, as the auth module exposes it.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
}

// AuthState is the auth module's read-only session view.
type AuthState struct {
	LoggedIn bool `json:"loggedIn"`
	User     User `json:"user"`
}

// ShouldConnect is the session gate: a live connection exists exactly while a
// purchasing user with an id is logged in. Pure predicate, re-evaluated on
// every auth-state change.
func ShouldConnect(a AuthState) bool {
	return a.LoggedIn && a.User.Role == RoleUser && a.User.ID != ""
}
