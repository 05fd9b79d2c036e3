package gateway

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// STOMP 1.2 commands used by the notification endpoint.
const (
	CmdConnect     = "CONNECT"
	CmdConnected   = "CONNECTED"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdMessage     = "MESSAGE"
	CmdError       = "ERROR"
	CmdDisconnect  = "DISCONNECT"
	CmdReceipt     = "RECEIPT"
)

// Frame is one STOMP frame: command, headers, body.
type Frame struct {
	Command string
	Headers map[string]string
	Body    []byte
}

// Header returns the named header or "".
func (f *Frame) Header(key string) string {
	if f.Headers == nil {
		return ""
	}
	return f.Headers[key]
}

// Marshal serializes the frame including the trailing NUL.
func (f *Frame) Marshal() []byte {
	var buf bytes.Buffer
	buf.WriteString(f.Command)
	buf.WriteByte('\n')
	for k, v := range f.Headers {
		buf.WriteString(escapeHeader(k))
		buf.WriteByte(':')
		buf.WriteString(escapeHeader(v))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.Write(f.Body)
	buf.WriteByte(0)
	return buf.Bytes()
}

// heartbeatFrame is the single-EOL frame both sides use as a beat.
var heartbeatFrame = []byte("\n")

// IsHeartbeat reports whether raw is a heart-beat rather than a frame.
func IsHeartbeat(raw []byte) bool {
	trimmed := bytes.Trim(raw, "\r\n")
	return len(trimmed) == 0
}

// ParseFrame decodes a single frame. Heart-beats are not frames; callers
// filter them with IsHeartbeat first.
func ParseFrame(raw []byte) (*Frame, error) {
	raw = bytes.TrimSuffix(raw, []byte{0})
	head, body, _ := bytes.Cut(raw, []byte("\n\n"))
	lines := strings.Split(strings.TrimRight(string(head), "\r\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("empty frame")
	}
	f := &Frame{
		Command: strings.TrimRight(lines[0], "\r"),
		Headers: make(map[string]string, len(lines)-1),
	}
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header %q", line)
		}
		// STOMP allows repeated headers; the first occurrence wins.
		key := unescapeHeader(k)
		if _, exists := f.Headers[key]; !exists {
			f.Headers[key] = unescapeHeader(v)
		}
	}
	if len(body) > 0 {
		f.Body = append([]byte(nil), body...)
	}
	return f, nil
}

// NewConnectFrame builds the CONNECT frame with heart-beat negotiation.
// outgoing/incoming follow the client view: cx = beats we send, cy = beats we
// expect from the broker.
func NewConnectFrame(host string, outgoing, incoming time.Duration) *Frame {
	return &Frame{
		Command: CmdConnect,
		Headers: map[string]string{
			"accept-version": "1.2,1.1,1.0",
			"host":           host,
			"heart-beat": strconv.FormatInt(outgoing.Milliseconds(), 10) + "," +
				strconv.FormatInt(incoming.Milliseconds(), 10),
		},
	}
}

// NewSubscribeFrame builds a SUBSCRIBE frame for one destination.
func NewSubscribeFrame(id, destination string) *Frame {
	return &Frame{
		Command: CmdSubscribe,
		Headers: map[string]string{
			"id":          id,
			"destination": destination,
			"ack":         "auto",
		},
	}
}

// NewUnsubscribeFrame builds the matching UNSUBSCRIBE frame.
func NewUnsubscribeFrame(id string) *Frame {
	return &Frame{
		Command: CmdUnsubscribe,
		Headers: map[string]string{"id": id},
	}
}

// NewDisconnectFrame builds the polite DISCONNECT frame.
func NewDisconnectFrame() *Frame {
	return &Frame{Command: CmdDisconnect, Headers: map[string]string{}}
}

var headerEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\r", `\r`,
	"\n", `\n`,
	":", `\c`,
)

var headerUnescaper = strings.NewReplacer(
	`\r`, "\r",
	`\n`, "\n",
	`\c`, ":",
	`\\`, `\`,
)

func escapeHeader(s string) string   { return headerEscaper.Replace(s) }
func unescapeHeader(s string) string { return headerUnescaper.Replace(s) }
