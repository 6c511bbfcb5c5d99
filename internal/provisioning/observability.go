package provisioning

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"
)

// Observer defines the interface for structured observability during a provisioning run.
type Observer interface {
	// Printf logs a free-form message.
	Printf(format string, v ...interface{})

	// Event emits a structured event.
	Event(event Event)

	// WithFields returns a new Observer with additional context fields.
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Step      string            // Step type, empty for run-level events
	StepID    string            // Step instance id
	Message   string            // Human-readable message
	Err       error             // Set for failure events
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	EventStepStarted        EventType = "step.started"
	EventStepCompleted      EventType = "step.completed"
	EventStepFailed         EventType = "step.failed"
	EventStepRolledBack     EventType = "step.rolled_back"
	EventStepRollbackFailed EventType = "step.rollback_failed"

	EventRunStateChanged EventType = "run.state"
	EventRunSucceeded    EventType = "run.succeeded"
	EventRunFailed       EventType = "run.failed"
)

// LogrObserver implements Observer on top of a logr.Logger.
type LogrObserver struct {
	log logr.Logger
}

// NewLogrObserver creates an observer writing to log.
func NewLogrObserver(log logr.Logger) *LogrObserver {
	return &LogrObserver{log: log}
}

// Printf implements Observer.
func (o *LogrObserver) Printf(format string, v ...interface{}) {
	o.log.Info(fmt.Sprintf(format, v...))
}

// Event implements Observer.
func (o *LogrObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	kv := []interface{}{"event", string(event.Type)}
	if event.Step != "" {
		kv = append(kv, "step", event.Step)
	}
	if event.StepID != "" {
		kv = append(kv, "stepId", event.StepID)
	}
	kv = append(kv, fieldsToKV(event.Fields)...)

	if event.Err != nil {
		o.log.Error(event.Err, event.Message, kv...)
		return
	}
	o.log.Info(event.Message, kv...)
}

// WithFields implements Observer.
func (o *LogrObserver) WithFields(fields map[string]string) Observer {
	return &LogrObserver{log: o.log.WithValues(fieldsToKV(fields)...)}
}

// fieldsToKV flattens fields into logr key/value pairs in key order.
func fieldsToKV(fields map[string]string) []interface{} {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return kv
}

// Identified is the part of a Step the event helpers need.
type Identified interface {
	Type() string
	ID() string
}

// Helper functions for common events

// LogStepStarted logs a step start event.
func LogStepStarted(observer Observer, step Identified, mode Mode) {
	observer.Event(Event{
		Type:    EventStepStarted,
		Step:    step.Type(),
		StepID:  step.ID(),
		Message: "starting",
		Fields:  map[string]string{"mode": string(mode)},
	})
}

// LogStepCompleted logs a step completion event.
func LogStepCompleted(observer Observer, step Identified, result StepResult, duration time.Duration) {
	observer.Event(Event{
		Type:    EventStepCompleted,
		Step:    step.Type(),
		StepID:  step.ID(),
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
		Fields:  map[string]string{"result": result.String()},
	})
}

// LogStepFailed logs a step failure event.
func LogStepFailed(observer Observer, step Identified, err error) {
	observer.Event(Event{
		Type:    EventStepFailed,
		Step:    step.Type(),
		StepID:  step.ID(),
		Message: "failed",
		Err:     err,
	})
}

// LogStepRolledBack logs a successful compensation.
func LogStepRolledBack(observer Observer, step Identified) {
	observer.Event(Event{
		Type:    EventStepRolledBack,
		Step:    step.Type(),
		StepID:  step.ID(),
		Message: "rolled back",
	})
}

// LogStepRollbackFailed logs a failed compensation.
func LogStepRollbackFailed(observer Observer, step Identified, err error) {
	observer.Event(Event{
		Type:    EventStepRollbackFailed,
		Step:    step.Type(),
		StepID:  step.ID(),
		Message: "rollback failed",
		Err:     err,
	})
}
