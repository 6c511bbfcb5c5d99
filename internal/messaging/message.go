package messaging

import (
	"errors"
	"fmt"
)

// Action is the verb of a request.
type Action string

const (
	ActionQuery    Action = "Query"
	ActionGenerate Action = "Generate"
	ActionCreate   Action = "Create"
	ActionUpdate   Action = "Update"
	ActionDelete   Action = "Delete"
)

// Request is one typed message sent to a remote service.
type Request struct {
	Service string            `json:"service"`
	Action  Action            `json:"action"`
	Object  string            `json:"object"`
	Fields  map[string]string `json:"fields,omitempty"`
	// CorrelationID is assigned by the pool when empty.
	CorrelationID string `json:"correlationId,omitempty"`
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s/%s", r.Action, r.Service, r.Object)
}

// Object is one result returned by a remote service.
type Object map[string]string

// Get returns the value of key and whether it was present and non-empty.
func (o Object) Get(key string) (string, bool) {
	v, ok := o[key]
	return v, ok && v != ""
}

// Require returns the value of key or an error naming the missing field.
func (o Object) Require(key string) (string, error) {
	v, ok := o.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	return v, nil
}

// ErrMissingField is returned when a response object lacks a required field.
var ErrMissingField = errors.New("response field missing")

// Cardinality is the expected number of results of an exchange.
type Cardinality int

const (
	// Any accepts zero or more results.
	Any Cardinality = iota
	// ExactlyOne requires a single result.
	ExactlyOne
	// AtLeastOne requires one or more results.
	AtLeastOne
)

func (c Cardinality) String() string {
	switch c {
	case ExactlyOne:
		return "exactly one"
	case AtLeastOne:
		return "at least one"
	default:
		return "any"
	}
}

func (c Cardinality) accepts(n int) bool {
	switch c {
	case ExactlyOne:
		return n == 1
	case AtLeastOne:
		return n >= 1
	default:
		return true
	}
}

// QueryOutcome tags a QueryResult.
type QueryOutcome int

const (
	OutcomeOK QueryOutcome = iota
	OutcomeWrongCardinality
	OutcomeTransportError
)

func (o QueryOutcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeWrongCardinality:
		return "wrong cardinality"
	default:
		return "transport error"
	}
}

// CardinalityError reports a result count that does not match the expectation.
type CardinalityError struct {
	Request Request
	Want    Cardinality
	Got     int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("%s: expected %s result, got %d", e.Request, e.Want, e.Got)
}

// TransportError wraps a failed exchange, including timeouts.
type TransportError struct {
	Request Request
	Pool    string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s via pool %s: %v", e.Request, e.Pool, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// QueryResult is the tagged outcome of Pool.Query.
type QueryResult struct {
	outcome QueryOutcome
	objects []Object
	err     error
}

// Outcome returns the result tag.
func (r QueryResult) Outcome() QueryOutcome { return r.outcome }

// OK reports whether the exchange succeeded with the expected cardinality.
func (r QueryResult) OK() bool { return r.outcome == OutcomeOK }

// Objects returns the results. They are also returned on a cardinality mismatch.
func (r QueryResult) Objects() []Object { return r.objects }

// Count returns the number of results received.
func (r QueryResult) Count() int { return len(r.objects) }

// Err returns a *CardinalityError, a *TransportError or nil.
func (r QueryResult) Err() error { return r.err }

// One returns the single result of an OK ExactlyOne query, or the query error.
func (r QueryResult) One() (Object, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.objects) != 1 {
		return nil, &CardinalityError{Want: ExactlyOne, Got: len(r.objects)}
	}
	return r.objects[0], nil
}
