package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"
)

// Producer is an exclusive request/response channel to a remote service.
type Producer interface {
	Exchange(ctx context.Context, req Request) ([]Object, error)
	Close() error
}

// Factory creates a new producer for a pool.
type Factory func() (Producer, error)

// ErrPoolClosed is returned when borrowing from a closed pool.
var ErrPoolClosed = errors.New("producer pool is closed")

// DefaultTimeout bounds an exchange when the caller passes no timeout.
const DefaultTimeout = 30 * time.Second

// Stats is a snapshot of pool usage.
type Stats struct {
	Size     int
	Idle     int
	Borrowed int64
	Released int64
}

// InUse returns the number of producers currently borrowed.
func (s Stats) InUse() int64 { return s.Borrowed - s.Released }

// Pool is a bounded set of exclusive producers. Producers are created lazily,
// up to the pool size, and reused after release.
type Pool struct {
	name    string
	size    int
	factory Factory
	sem     *semaphore.Weighted
	metrics *PoolMetrics

	mu     sync.Mutex
	idle   []Producer
	closed bool

	borrowed atomic.Int64
	released atomic.Int64
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolMetrics records borrow activity in m.
func WithPoolMetrics(m *PoolMetrics) PoolOption {
	return func(p *Pool) { p.metrics = m }
}

// NewPool creates a pool named name holding at most size producers.
func NewPool(name string, size int, factory Factory, opts ...PoolOption) (*Pool, error) {
	if name == "" {
		return nil, errors.New("pool name is required")
	}
	if size <= 0 {
		return nil, fmt.Errorf("pool %s: size must be positive, got %d", name, size)
	}
	if factory == nil {
		return nil, fmt.Errorf("pool %s: producer factory is required", name)
	}
	p := &Pool{
		name:    name,
		size:    size,
		factory: factory,
		sem:     semaphore.NewWeighted(int64(size)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Borrow blocks until a producer is available or ctx is done. The caller owns
// the producer exclusively and must hand it back with Release.
func (p *Pool) Borrow(ctx context.Context) (Producer, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("pool %s: waiting for producer: %w", p.name, err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return nil, fmt.Errorf("pool %s: %w", p.name, ErrPoolClosed)
	}
	var prod Producer
	if n := len(p.idle); n > 0 {
		prod = p.idle[n-1]
		p.idle = p.idle[:n-1]
	}
	p.mu.Unlock()

	if prod == nil {
		var err error
		prod, err = p.factory()
		if err != nil {
			p.sem.Release(1)
			return nil, fmt.Errorf("pool %s: creating producer: %w", p.name, err)
		}
	}

	p.borrowed.Add(1)
	p.metrics.borrowed(p.name)
	return prod, nil
}

// Release returns a borrowed producer to the pool.
func (p *Pool) Release(prod Producer) {
	if prod == nil {
		return
	}
	p.released.Add(1)
	p.metrics.released(p.name)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = prod.Close()
	} else {
		p.idle = append(p.idle, prod)
		p.mu.Unlock()
	}
	p.sem.Release(1)
}

// Query performs one exchange on a borrowed producer and validates the number
// of results against want. The producer is released on every path. A zero
// timeout means DefaultTimeout.
func (p *Pool) Query(ctx context.Context, req Request, timeout time.Duration, want Cardinality) QueryResult {
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prod, err := p.Borrow(ctx)
	if err != nil {
		return QueryResult{outcome: OutcomeTransportError, err: &TransportError{Request: req, Pool: p.name, Err: err}}
	}
	defer p.Release(prod)

	objects, err := prod.Exchange(ctx, req)
	if err != nil {
		return QueryResult{outcome: OutcomeTransportError, err: &TransportError{Request: req, Pool: p.name, Err: err}}
	}
	if !want.accepts(len(objects)) {
		return QueryResult{
			outcome: OutcomeWrongCardinality,
			objects: objects,
			err:     &CardinalityError{Request: req, Want: want, Got: len(objects)},
		}
	}
	return QueryResult{outcome: OutcomeOK, objects: objects}
}

// Stats returns a snapshot of pool usage.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	idle := len(p.idle)
	p.mu.Unlock()
	return Stats{
		Size:     p.size,
		Idle:     idle,
		Borrowed: p.borrowed.Load(),
		Released: p.released.Load(),
	}
}

// Close closes idle producers. Producers still borrowed are closed on release.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var result *multierror.Error
	for _, prod := range idle {
		if err := prod.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Pools is a registry of named pools.
type Pools map[string]*Pool

// Get returns the named pool or an error.
func (ps Pools) Get(name string) (*Pool, error) {
	p, ok := ps[name]
	if !ok || p == nil {
		return nil, fmt.Errorf("producer pool %q is not configured", name)
	}
	return p, nil
}

// Close closes every pool.
func (ps Pools) Close() error {
	var result *multierror.Error
	for _, p := range ps {
		if err := p.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
