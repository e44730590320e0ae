package bulkedit

import (
	"sync"

	"github.com/rs/zerolog"
)

// Severity classifies a user-facing notification.
type Severity string

const (
	SeverityNormal      Severity = "normal"
	SeverityDestructive Severity = "destructive"
)

// Notification is a single user-facing message with a severity. Batch
// outcomes are always reported as one aggregate notification, never
// per-row.
type Notification struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Notifier is the injected toast channel the bulk-edit logic reports
// through. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(severity Severity, message string)
}

// LogNotifier writes notifications to a zerolog logger. Used when the
// session runs headless (migrations, smoke tests).
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier backed by the given logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(severity Severity, message string) {
	event := n.logger.Info()
	if severity == SeverityDestructive {
		event = n.logger.Error()
	}
	event.Str("severity", string(severity)).Msg(message)
}

// Collector buffers notifications until drained. The HTTP layer drains it
// on every state read so the browser can render toasts.
type Collector struct {
	mu      sync.Mutex
	pending []Notification
}

// NewCollector creates an empty notification collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Notify(severity Severity, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(c.pending, Notification{Severity: severity, Message: message})
}

// Drain returns all buffered notifications and clears the buffer.
func (c *Collector) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	drained := c.pending
	c.pending = nil
	return drained
}

// MultiNotifier fans a notification out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(severity Severity, message string) {
	for _, n := range m {
		n.Notify(severity, message)
	}
}
