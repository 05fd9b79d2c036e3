package notify

import (
	"strings"

	"go.uber.org/zap"
)

// DefaultOrderDetailRoute is the storefront's order-detail route template.
const DefaultOrderDetailRoute = "/orders/{orderId}"

// Navigator performs the order-detail navigation an alert's action is bound
// to. The storefront shell injects its router here; the daemon default just
// records the jump.
type Navigator interface {
	OpenOrder(orderID, url string)
}

// OrderDetailURL expands the route template for one order.
func OrderDetailURL(template, orderID string) string {
	if template == "" {
		template = DefaultOrderDetailRoute
	}
	return strings.Replace(template, "{orderId}", orderID, 1)
}

// LogNavigator logs navigation instead of performing it.
type LogNavigator struct {
	Log *zap.Logger
}

func (n *LogNavigator) OpenOrder(orderID, url string) {
	log := n.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("navigate to order detail", zap.String("orderId", orderID), zap.String("url", url))
}
