package alert

import (
	"fmt"
	"log"
	"os"
)

// LogChannel writes alerts to a standard logger.
type LogChannel struct {
	logger *log.Logger
	name   string
}

// NewLogChannel creates a log-backed channel. A nil output means stdout.
func NewLogChannel(name string, output *os.File) *LogChannel {
	if output == nil {
		output = os.Stdout
	}

	return &LogChannel{
		logger: log.New(output, "[ALERT] ", log.LstdFlags),
		name:   name,
	}
}

// Send writes the alert as one log line.
func (c *LogChannel) Send(alert Alert) error {
	msg := fmt.Sprintf("[%s] %s", alert.Level, alert.Message)

	if alert.IsOrderAlert() {
		msg += fmt.Sprintf(" | order=%s status=%s detail=%s",
			alert.OrderID, alert.OrderStatus, alert.Route)
	}
	if len(alert.Fields) > 0 {
		msg += " | Fields: "
		for k, v := range alert.Fields {
			msg += fmt.Sprintf("%s=%v ", k, v)
		}
	}

	c.logger.Println(msg)
	return nil
}

// Name returns the channel name.
func (c *LogChannel) Name() string {
	return c.name
}

// ConsoleChannel prints alerts with ANSI colors.
type ConsoleChannel struct {
	name string
}

// NewConsoleChannel creates a console channel.
func NewConsoleChannel(name string) *ConsoleChannel {
	return &ConsoleChannel{
		name: name,
	}
}

// Send prints the alert to stdout.
func (c *ConsoleChannel) Send(alert Alert) error {
	colorReset := "\033[0m"
	colorCode := ""

	switch alert.Level {
	case "INFO":
		colorCode = "\033[32m"
	case "WARNING":
		colorCode = "\033[33m"
	case "ERROR":
		colorCode = "\033[31m"
	default:
		colorCode = colorReset
	}

	msg := fmt.Sprintf("%s[%s]%s %s - %s",
		colorCode,
		alert.Level,
		colorReset,
		alert.Timestamp.Format("2006-01-02 15:04:05"),
		alert.Message,
	)

	if alert.IsOrderAlert() {
		msg += fmt.Sprintf(" | %s -> %s", alert.OrderID, alert.Route)
	}
	if len(alert.Fields) > 0 {
		msg += " | "
		for k, v := range alert.Fields {
			msg += fmt.Sprintf("%s=%v ", k, v)
		}
	}

	fmt.Println(msg)
	return nil
}

// Name returns the channel name.
func (c *ConsoleChannel) Name() string {
	return c.name
}

// MockChannel records alerts for tests.
type MockChannel struct {
	name      string
	alerts    []Alert
	shouldErr bool
}

// NewMockChannel creates a mock channel.
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{
		name:   name,
		alerts: make([]Alert, 0),
	}
}

// Send records the alert.
func (c *MockChannel) Send(alert Alert) error {
	if c.shouldErr {
		return fmt.Errorf("mock error")
	}
	c.alerts = append(c.alerts, alert)
	return nil
}

// Name returns the channel name.
func (c *MockChannel) Name() string {
	return c.name
}

// GetAlerts returns everything received so far.
func (c *MockChannel) GetAlerts() []Alert {
	return c.alerts
}

// SetShouldError makes Send fail.
func (c *MockChannel) SetShouldError(shouldErr bool) {
	c.shouldErr = shouldErr
}

// Clear resets the recording.
func (c *MockChannel) Clear() {
	c.alerts = make([]Alert, 0)
}

// Count returns the number of recorded alerts.
func (c *MockChannel) Count() int {
	return len(c.alerts)
}
