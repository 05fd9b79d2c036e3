package notify

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/order"
)

// Decode failure causes. A failed message is dropped whole; no partial order
// ever reaches the store.
var (
	ErrMalformedPayload = errors.New("malformed notification payload")
	ErrMissingOrder     = errors.New("notification has no order payload")
	ErrMissingOrderID   = errors.New("order payload has no id")
	ErrMissingStatus    = errors.New("order payload has no status")
)

// orderNotification is the frame body shape pushed by the backend.
type orderNotification struct {
	OrderDTO *orderDTO `json:"orderDTO"`
}

type orderDTO struct {
	ID      string            `json:"id"`
	BuyerID string            `json:"buyerId"`
	Date    string            `json:"date"`
	Status  string            `json:"status"`
	Items   []json.RawMessage `json:"items"`
}

// Decode parses one frame body into an Order. Total over arbitrary input: it
// returns either a valid order or an error, never panics. Status is strict on
// presence but tolerant of unknown values; items default to empty.
func Decode(body []byte) (order.Order, error) {
	var n orderNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return order.Order{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if n.OrderDTO == nil {
		return order.Order{}, ErrMissingOrder
	}
	dto := n.OrderDTO
	if dto.ID == "" {
		return order.Order{}, ErrMissingOrderID
	}
	if dto.Status == "" {
		return order.Order{}, ErrMissingStatus
	}
	items := dto.Items
	if items == nil {
		items = []json.RawMessage{}
	}
	return order.Order{
		ID:      dto.ID,
		BuyerID: dto.BuyerID,
		Date:    dto.Date,
		Status:  order.Status(dto.Status),
		Items:   items,
	}, nil
}
