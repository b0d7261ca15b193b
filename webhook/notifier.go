package webhook

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Severity tags a notification line
type Severity int

const (
	Info Severity = iota + 1
	Error
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Sink receives human-readable notification lines
type Sink interface {
	Write(severity Severity, line string)
}

// Notifier is told about every finished firing, exactly once per firing
type Notifier interface {
	Notify(ctx context.Context, outcome Outcome)
}

// LogNotifier writes one line per outcome to a Sink
type LogNotifier struct {
	Sink Sink
}

// NewLogNotifier creates a notifier writing to sink
func NewLogNotifier(sink Sink) *LogNotifier {
	return &LogNotifier{
		Sink: sink,
	}
}

// Notify formats the outcome and emits it with a severity matching its kind
func (n *LogNotifier) Notify(_ context.Context, outcome Outcome) {
	severity := Info
	if outcome.Kind.IsFailure() {
		severity = Error
	}
	n.Sink.Write(severity, FormatOutcome(outcome))
}

/* FormatOutcome renders the notification line for an outcome
 * Log scanners depend on "Webhook <METHOD> request to <URL> returned status <CODE>"
 */
func FormatOutcome(o Outcome) string {
	method, url := orNone(o.Method), orNone(o.URL)
	switch o.Kind {
	case Completed:
		return fmt.Sprintf("Webhook %s request to %s returned status %d", method, url, o.StatusCode)
	case ResolutionFailed:
		return fmt.Sprintf("Webhook %s request to %s could not be resolved: %v", method, url, o.Err)
	default:
		return fmt.Sprintf("Webhook %s request to %s failed: %v", method, url, o.Err)
	}
}

// orNone keeps every token of the line present when a field was never declared
func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

// ZerologSink maps severities onto a zerolog logger
type ZerologSink struct {
	Logger zerolog.Logger
}

// NewZerologSink creates a sink backed by logger
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{
		Logger: logger,
	}
}

// Write emits line at the zerolog level matching severity
func (s *ZerologSink) Write(severity Severity, line string) {
	switch severity {
	case Error:
		s.Logger.Error().Msg(line)
	default:
		s.Logger.Info().Msg(line)
	}
}
