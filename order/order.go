// Package order holds the storefront order entity as it arrives on the
// notification channel. The pipeline only keys off id and status; everything
// else is carried through for observers.
package order

import "encoding/json"

// Order is the domain entity pushed by the backend on an order event.
// Items stay opaque: each element is forwarded as raw JSON.
type Order struct {
	ID      string            `json:"id"`
	BuyerID string            `json:"buyerId"`
	Date    string            `json:"date"`
	Status  Status            `json:"status"`
	Items   []json.RawMessage `json:"items"`
}
