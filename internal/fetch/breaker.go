package fetch

import (
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// breakerSet hands out a per-host circuit breaker, created lazily on
// first use and reused for the lifetime of the Fetcher. A repository
// that fails five times in a row trips its breaker and stops being
// retried until the backoff window elapses, so one dead host can't stall
// every other repository's download during a refresh.
type breakerSet struct {
	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

func newBreakerSet() *breakerSet {
	return &breakerSet{breakers: make(map[string]*circuit.Breaker)}
}

func (bs *breakerSet) get(host string) *circuit.Breaker {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if b, ok := bs.breakers[host]; ok {
		return b
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Second
	bo.MaxInterval = 2 * time.Minute

	b := circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    bo,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})
	bs.breakers[host] = b
	return b
}
