package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProducer answers every exchange with fn.
type stubProducer struct {
	fn     func(ctx context.Context, req Request) ([]Object, error)
	closed atomic.Bool
}

func (s *stubProducer) Exchange(ctx context.Context, req Request) ([]Object, error) {
	return s.fn(ctx, req)
}

func (s *stubProducer) Close() error {
	s.closed.Store(true)
	return nil
}

func stubFactory(fn func(ctx context.Context, req Request) ([]Object, error), created *int32) Factory {
	return func() (Producer, error) {
		if created != nil {
			atomic.AddInt32(created, 1)
		}
		return &stubProducer{fn: fn}, nil
	}
}

func returning(objs ...Object) func(context.Context, Request) ([]Object, error) {
	return func(context.Context, Request) ([]Object, error) { return objs, nil }
}

var personQuery = Request{Service: "identity", Action: ActionQuery, Object: "Person", Fields: map[string]string{"userId": "jdoe"}}

func TestNewPool_Validation(t *testing.T) {
	t.Parallel()
	f := stubFactory(returning(), nil)

	_, err := NewPool("", 1, f)
	assert.Error(t, err)
	_, err = NewPool("p", 0, f)
	assert.Error(t, err)
	_, err = NewPool("p", 1, nil)
	assert.Error(t, err)

	p, err := NewPool("p", 2, f)
	require.NoError(t, err)
	assert.Equal(t, "p", p.Name())
	assert.Equal(t, 2, p.Stats().Size)
}

func TestPool_Query_Cardinality(t *testing.T) {
	t.Parallel()
	one := Object{"userId": "jdoe"}
	two := Object{"userId": "other"}

	tests := []struct {
		name    string
		objects []Object
		want    Cardinality
		outcome QueryOutcome
	}{
		{name: "exactly one ok", objects: []Object{one}, want: ExactlyOne, outcome: OutcomeOK},
		{name: "exactly one none", objects: nil, want: ExactlyOne, outcome: OutcomeWrongCardinality},
		{name: "exactly one many", objects: []Object{one, two}, want: ExactlyOne, outcome: OutcomeWrongCardinality},
		{name: "at least one many", objects: []Object{one, two}, want: AtLeastOne, outcome: OutcomeOK},
		{name: "at least one none", objects: nil, want: AtLeastOne, outcome: OutcomeWrongCardinality},
		{name: "any none", objects: nil, want: Any, outcome: OutcomeOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := NewPool("identity", 1, stubFactory(returning(tt.objects...), nil))
			require.NoError(t, err)

			res := p.Query(context.Background(), personQuery, time.Second, tt.want)

			assert.Equal(t, tt.outcome, res.Outcome())
			assert.Equal(t, len(tt.objects), res.Count())
			if tt.outcome == OutcomeOK {
				assert.True(t, res.OK())
				assert.NoError(t, res.Err())
			} else {
				var ce *CardinalityError
				require.ErrorAs(t, res.Err(), &ce)
				assert.Equal(t, tt.want, ce.Want)
				assert.Equal(t, len(tt.objects), ce.Got)
			}
			assert.Equal(t, int64(0), p.Stats().InUse(), "producer must be released")
		})
	}
}

func TestPool_Query_One(t *testing.T) {
	t.Parallel()
	p, err := NewPool("identity", 1, stubFactory(returning(Object{"authorizedAccountCreator": "true"}), nil))
	require.NoError(t, err)

	obj, err := p.Query(context.Background(), personQuery, 0, ExactlyOne).One()
	require.NoError(t, err)
	v, err := obj.Require("authorizedAccountCreator")
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	_, err = obj.Require("missing")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestPool_Query_TransportError(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection refused")
	p, err := NewPool("identity", 1, stubFactory(func(context.Context, Request) ([]Object, error) {
		return nil, boom
	}, nil))
	require.NoError(t, err)

	res := p.Query(context.Background(), personQuery, time.Second, ExactlyOne)

	assert.Equal(t, OutcomeTransportError, res.Outcome())
	var te *TransportError
	require.ErrorAs(t, res.Err(), &te)
	assert.Equal(t, "identity", te.Pool)
	assert.ErrorIs(t, res.Err(), boom)
	_, err = res.One()
	assert.ErrorIs(t, err, boom)

	stats := p.Stats()
	assert.Equal(t, stats.Borrowed, stats.Released, "borrow and release must balance on error paths")
	assert.Equal(t, 1, stats.Idle)
}

func TestPool_Query_Timeout(t *testing.T) {
	t.Parallel()
	p, err := NewPool("account", 1, stubFactory(func(ctx context.Context, _ Request) ([]Object, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil))
	require.NoError(t, err)

	start := time.Now()
	res := p.Query(context.Background(), Request{Service: "account", Action: ActionGenerate, Object: "Account"}, 20*time.Millisecond, ExactlyOne)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, OutcomeTransportError, res.Outcome())
	assert.ErrorIs(t, res.Err(), context.DeadlineExceeded)
	assert.Equal(t, int64(0), p.Stats().InUse())
}

func TestPool_Query_AssignsCorrelationID(t *testing.T) {
	t.Parallel()
	var seen string
	p, err := NewPool("identity", 1, stubFactory(func(_ context.Context, req Request) ([]Object, error) {
		seen = req.CorrelationID
		return nil, nil
	}, nil))
	require.NoError(t, err)

	p.Query(context.Background(), personQuery, time.Second, Any)
	assert.NotEmpty(t, seen)

	req := personQuery
	req.CorrelationID = "fixed"
	p.Query(context.Background(), req, time.Second, Any)
	assert.Equal(t, "fixed", seen)
}

func TestPool_Bounded(t *testing.T) {
	t.Parallel()
	const size = 2
	var created int32
	var active, peak int32
	release := make(chan struct{})

	p, err := NewPool("network", size, stubFactory(func(context.Context, Request) ([]Object, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&active, -1)
		return nil, nil
	}, &created))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Query(context.Background(), Request{Service: "network", Action: ActionQuery, Object: "VpcNetwork"}, 5*time.Second, Any)
		}()
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&active) == size }, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(size))
	assert.LessOrEqual(t, atomic.LoadInt32(&created), int32(size), "producers are reused")
	stats := p.Stats()
	assert.Equal(t, int64(6), stats.Borrowed)
	assert.Equal(t, int64(6), stats.Released)
}

func TestPool_BorrowWaitsForContext(t *testing.T) {
	t.Parallel()
	p, err := NewPool("p", 1, stubFactory(returning(), nil))
	require.NoError(t, err)

	prod, err := p.Borrow(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Borrow(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p.Release(prod)
	prod2, err := p.Borrow(context.Background())
	require.NoError(t, err)
	assert.Same(t, prod, prod2)
	p.Release(prod2)
}

func TestPool_FactoryError(t *testing.T) {
	t.Parallel()
	p, err := NewPool("p", 1, func() (Producer, error) { return nil, errors.New("dial failed") })
	require.NoError(t, err)

	res := p.Query(context.Background(), personQuery, time.Second, Any)
	assert.Equal(t, OutcomeTransportError, res.Outcome())
	assert.Contains(t, res.Err().Error(), "dial failed")

	// the permit was returned
	res = p.Query(context.Background(), personQuery, 50*time.Millisecond, Any)
	assert.Contains(t, res.Err().Error(), "dial failed")
}

func TestPool_Close(t *testing.T) {
	t.Parallel()
	p, err := NewPool("p", 2, stubFactory(returning(), nil))
	require.NoError(t, err)

	idle, err := p.Borrow(context.Background())
	require.NoError(t, err)
	busy, err := p.Borrow(context.Background())
	require.NoError(t, err)
	p.Release(idle)

	require.NoError(t, p.Close())
	assert.True(t, idle.(*stubProducer).closed.Load())
	assert.False(t, busy.(*stubProducer).closed.Load())

	p.Release(busy)
	assert.True(t, busy.(*stubProducer).closed.Load(), "borrowed producers close on release")

	_, err = p.Borrow(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
	require.NoError(t, p.Close())
}

func TestPools(t *testing.T) {
	t.Parallel()
	p, err := NewPool("identity", 1, stubFactory(returning(), nil))
	require.NoError(t, err)
	pools := Pools{"identity": p}

	got, err := pools.Get("identity")
	require.NoError(t, err)
	assert.Same(t, p, got)

	_, err = pools.Get("account")
	assert.Error(t, err)

	require.NoError(t, pools.Close())
}

func TestPoolMetrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := NewPoolMetrics(reg)
	p, err := NewPool("identity", 1, stubFactory(returning(Object{}), nil), WithPoolMetrics(m))
	require.NoError(t, err)

	p.Query(context.Background(), personQuery, time.Second, ExactlyOne)
	p.Query(context.Background(), personQuery, time.Second, ExactlyOne)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.borrows.WithLabelValues("identity")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inUse.WithLabelValues("identity")))

	var nilMetrics *PoolMetrics
	nilMetrics.borrowed("x")
	nilMetrics.released("x")
}
