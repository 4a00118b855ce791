package taginfo

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/osmquery/overpass-gen/internal/overpass"
)

// CircuitBreakerConfig defines circuit breaker configuration for taginfo
type CircuitBreakerConfig struct {
	MaxRequests   uint32        // Max requests allowed in half-open state
	Interval      time.Duration // Window for counting failures
	Timeout       time.Duration // Duration circuit stays open before trying recovery
	ReadyToTrip   func(counts gobreaker.Counts) bool
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig provides sensible defaults for taginfo. The
// thresholds are forgiving because a tripped breaker only degrades tag
// grounding, it never blocks generation.
var DefaultCircuitBreakerConfig = CircuitBreakerConfig{
	MaxRequests: 1,
	Interval:    10 * time.Second,
	Timeout:     30 * time.Second,
	ReadyToTrip: func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && (counts.ConsecutiveFailures >= 5 || failureRatio >= 0.6)
	},
	OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
		fmt.Printf("Circuit breaker '%s' changed from %s to %s\n", name, from, to)
	},
}

// CircuitBreakerClient wraps a taginfo client with circuit breaker protection
type CircuitBreakerClient struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreakerClient creates a new circuit breaker wrapped taginfo client
func NewCircuitBreakerClient(client *Client, name string, config CircuitBreakerConfig) *CircuitBreakerClient {
	settings := gobreaker.Settings{
		Name:          name,
		MaxRequests:   config.MaxRequests,
		Interval:      config.Interval,
		Timeout:       config.Timeout,
		ReadyToTrip:   config.ReadyToTrip,
		OnStateChange: config.OnStateChange,
	}

	return &CircuitBreakerClient{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// ShowTag wraps the client's ShowTag with circuit breaker protection
func (cb *CircuitBreakerClient) ShowTag(ctx context.Context, key, value string) (bool, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return cb.client.ShowTag(ctx, key, value)
	})

	if err != nil {
		return false, fmt.Errorf("circuit breaker: %w", err)
	}

	return result.(bool), nil
}

// KeyValues wraps the client's KeyValues with circuit breaker protection
func (cb *CircuitBreakerClient) KeyValues(ctx context.Context, key string) ([]string, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return cb.client.KeyValues(ctx, key)
	})

	if err != nil {
		return nil, fmt.Errorf("circuit breaker: %w", err)
	}

	return result.([]string), nil
}

// LookupTag wraps the client's LookupTag with circuit breaker protection
func (cb *CircuitBreakerClient) LookupTag(ctx context.Context, key, value string) (overpass.TagLookupResult, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return cb.client.LookupTag(ctx, key, value)
	})

	if err != nil {
		return overpass.TagLookupResult{}, fmt.Errorf("circuit breaker: %w", err)
	}

	return result.(overpass.TagLookupResult), nil
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreakerClient) State() gobreaker.State {
	return cb.breaker.State()
}

// Counts returns the current failure counts
func (cb *CircuitBreakerClient) Counts() gobreaker.Counts {
	return cb.breaker.Counts()
}
