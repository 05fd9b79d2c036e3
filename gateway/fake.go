package gateway

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrFakeClosed is returned by fake connections after Close.
var ErrFakeClosed = errors.New("fake connection closed")

// FakeConn is an in-memory Conn for driving the connector in tests without a
// real socket.
type FakeConn struct {
	// AutoConnected makes the conn answer every CONNECT with CONNECTED,
	// which is what the broker does on a healthy handshake.
	AutoConnected bool

	inbox     chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	writes [][]byte
}

// NewFakeConn returns a conn that completes the handshake automatically.
func NewFakeConn() *FakeConn {
	return &FakeConn{
		AutoConnected: true,
		inbox:         make(chan []byte, 64),
		closed:        make(chan struct{}),
	}
}

func (c *FakeConn) ReadMessage() ([]byte, error) {
	select {
	case msg := <-c.inbox:
		return msg, nil
	case <-c.closed:
		return nil, ErrFakeClosed
	}
}

func (c *FakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return ErrFakeClosed
	default:
	}
	c.mu.Lock()
	c.writes = append(c.writes, append([]byte(nil), data...))
	auto := c.AutoConnected
	c.mu.Unlock()

	if auto && !IsHeartbeat(data) {
		if f, err := ParseFrame(data); err == nil && f.Command == CmdConnect {
			c.Deliver((&Frame{
				Command: CmdConnected,
				Headers: map[string]string{"version": "1.2"},
			}).Marshal())
		}
	}
	return nil
}

func (c *FakeConn) SetReadDeadline(time.Time) error { return nil }

func (c *FakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// Deliver pushes one raw frame into the read path.
func (c *FakeConn) Deliver(raw []byte) {
	select {
	case <-c.closed:
	case c.inbox <- raw:
	}
}

// DeliverMessage pushes a MESSAGE frame for a subscription.
func (c *FakeConn) DeliverMessage(subID, destination string, body []byte) {
	c.Deliver((&Frame{
		Command: CmdMessage,
		Headers: map[string]string{
			"subscription": subID,
			"destination":  destination,
		},
		Body: body,
	}).Marshal())
}

// DeliverError pushes a broker ERROR frame.
func (c *FakeConn) DeliverError(message string) {
	c.Deliver((&Frame{
		Command: CmdError,
		Headers: map[string]string{"message": message},
	}).Marshal())
}

// Writes returns a copy of everything written so far.
func (c *FakeConn) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

// Commands returns the parsed command of every written frame, heart-beats
// rendered as "HEARTBEAT".
func (c *FakeConn) Commands() []string {
	var cmds []string
	for _, raw := range c.Writes() {
		if IsHeartbeat(raw) {
			cmds = append(cmds, "HEARTBEAT")
			continue
		}
		if f, err := ParseFrame(raw); err == nil {
			cmds = append(cmds, f.Command)
		}
	}
	return cmds
}

// LastSubscribe returns id and destination of the most recent SUBSCRIBE.
func (c *FakeConn) LastSubscribe() (id, destination string, ok bool) {
	for _, raw := range c.Writes() {
		if IsHeartbeat(raw) {
			continue
		}
		f, err := ParseFrame(raw)
		if err != nil || f.Command != CmdSubscribe {
			continue
		}
		id, destination, ok = f.Header("id"), f.Header("destination"), true
	}
	return id, destination, ok
}

// Subscribed reports whether any SUBSCRIBE has been written.
func (c *FakeConn) Subscribed() bool {
	_, _, ok := c.LastSubscribe()
	return ok
}

// FakeDialer hands out FakeConns and remembers them.
type FakeDialer struct {
	mu    sync.Mutex
	conns []*FakeConn
	fail  bool
}

// NewFakeDialer returns a dialer whose conns auto-complete the handshake.
func NewFakeDialer() *FakeDialer {
	return &FakeDialer{}
}

func (d *FakeDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return nil, errors.New("dial refused")
	}
	c := NewFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

// SetFail makes subsequent dials fail.
func (d *FakeDialer) SetFail(fail bool) {
	d.mu.Lock()
	d.fail = fail
	d.mu.Unlock()
}

// DialCount returns how many connections were handed out.
func (d *FakeDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

// Conn returns the i-th connection, nil when absent.
func (d *FakeDialer) Conn(i int) *FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

// LastConn returns the most recent connection, nil before the first dial.
func (d *FakeDialer) LastConn() *FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}
