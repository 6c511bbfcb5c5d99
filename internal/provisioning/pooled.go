package provisioning

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudprov/provisioner/internal/messaging"
)

// PoolBinding is the producer pool and per-call timeout a step resolved from
// its producerPool and requestTimeoutInterval settings.
type PoolBinding struct {
	Pool    *messaging.Pool
	Timeout time.Duration
}

// BindPool resolves the pool named by the producerPool setting. A missing
// setting or unknown pool is an initialization error.
func BindPool(pools messaging.Pools, settings Settings) (PoolBinding, error) {
	name, err := settings.Required(SettingProducerPool)
	if err != nil {
		return PoolBinding{}, err
	}
	pool, err := pools.Get(name)
	if err != nil {
		return PoolBinding{}, err
	}
	timeout, err := settings.Duration(SettingRequestTimeout, messaging.DefaultTimeout)
	if err != nil {
		return PoolBinding{}, err
	}
	return PoolBinding{Pool: pool, Timeout: timeout}, nil
}

// Query performs one bounded exchange on the bound pool.
func (b PoolBinding) Query(ctx context.Context, req messaging.Request, want messaging.Cardinality) messaging.QueryResult {
	return b.Pool.Query(ctx, req, b.Timeout, want)
}

// One performs an ExactlyOne exchange and returns the single result.
func (b PoolBinding) One(ctx context.Context, req messaging.Request) (messaging.Object, error) {
	obj, err := b.Query(ctx, req, messaging.ExactlyOne).One()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req, err)
	}
	return obj, nil
}
