package notify

import (
	"sync"

	"go.uber.org/zap"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/gateway"
)

// DefaultTopicPrefix matches the broker's per-user naming convention.
const DefaultTopicPrefix = "/topic/notify"

// Subscriber owns the single per-user topic subscription of one session. It
// is purely reactive: subscribe on OnConnect, forget on OnDisconnect. The
// transport invalidates subscriptions with the connection, so a reconnect
// always means a fresh subscribe and at most one subscription is ever live.
type Subscriber struct {
	topicPrefix string
	userID      string
	client      *gateway.Client
	onMessage   func(body []byte)
	log         *zap.Logger

	mu  sync.Mutex
	sub *gateway.Subscription
}

// NewSubscriber binds a subscriber to one user id for the session's lifetime.
// A changed id requires a new session.
func NewSubscriber(topicPrefix, userID string, client *gateway.Client, onMessage func(body []byte), log *zap.Logger) *Subscriber {
	if topicPrefix == "" {
		topicPrefix = DefaultTopicPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Subscriber{
		topicPrefix: topicPrefix,
		userID:      userID,
		client:      client,
		onMessage:   onMessage,
		log:         log,
	}
}

// Topic derives the destination deterministically from the user id.
func (s *Subscriber) Topic() string {
	return s.topicPrefix + "/" + s.userID
}

// HandleConnect subscribes to the user topic. Fired by the connector on every
// established connection, including reconnects.
func (s *Subscriber) HandleConnect() {
	if s.userID == "" {
		// The gate should have prevented this session from existing.
		s.log.Warn("refusing to subscribe without a user id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		// Already subscribed on this connection.
		return
	}
	sub, err := s.client.Subscribe(s.Topic(), s.onMessage)
	if err != nil {
		s.log.Warn("subscribe failed", zap.String("topic", s.Topic()), zap.Error(err))
		return
	}
	s.sub = sub
}

// HandleDisconnect drops the handle; the transport already invalidated it.
func (s *Subscriber) HandleDisconnect() {
	s.mu.Lock()
	s.sub = nil
	s.mu.Unlock()
}

// Subscribed reports whether a subscription is live right now.
func (s *Subscriber) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil
}
