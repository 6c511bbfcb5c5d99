package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudprov/provisioner/internal/messaging"
)

// Handler answers one request to a fake service.
type Handler func(req messaging.Request) ([]messaging.Object, error)

// FakeProducer is a messaging.Producer driven by a Handler. It records every request.
type FakeProducer struct {
	mu       sync.Mutex
	handler  Handler
	requests []messaging.Request
	closed   bool
}

// NewFakeProducer creates a producer answering with h.
func NewFakeProducer(h Handler) *FakeProducer {
	return &FakeProducer{handler: h}
}

// Exchange implements messaging.Producer.
func (f *FakeProducer) Exchange(ctx context.Context, req messaging.Request) ([]messaging.Object, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	h := f.handler
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("no handler for %s", req)
	}
	return h(req)
}

// Close implements messaging.Producer.
func (f *FakeProducer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Requests returns the requests received so far.
func (f *FakeProducer) Requests() []messaging.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]messaging.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// Calls returns the number of requests received.
func (f *FakeProducer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// NewFakePool creates a single-producer pool named name answering with h.
func NewFakePool(t *testing.T, name string, h Handler) (*messaging.Pool, *FakeProducer) {
	t.Helper()
	prod := NewFakeProducer(h)
	pool, err := messaging.NewPool(name, 1, func() (messaging.Producer, error) { return prod, nil })
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	return pool, prod
}

// Route dispatches requests by "<Action> <Object>", e.g. "Query Person".
func Route(routes map[string]Handler) Handler {
	return func(req messaging.Request) ([]messaging.Object, error) {
		h, ok := routes[fmt.Sprintf("%s %s", req.Action, req.Object)]
		if !ok {
			return nil, fmt.Errorf("unexpected request %s", req)
		}
		return h(req)
	}
}

// Respond returns a handler that always answers with objs.
func Respond(objs ...messaging.Object) Handler {
	return func(messaging.Request) ([]messaging.Object, error) { return objs, nil }
}

// Fail returns a handler that always fails with err.
func Fail(err error) Handler {
	return func(messaging.Request) ([]messaging.Object, error) { return nil, err }
}
