package taginfo

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/osmquery/overpass-gen/internal/dictionary"
	"github.com/osmquery/overpass-gen/internal/observability"
	"github.com/osmquery/overpass-gen/internal/overpass"
)

// Lookup is the subset of the taginfo client the warmer needs; both Client
// and CircuitBreakerClient satisfy it.
type Lookup interface {
	LookupTag(ctx context.Context, key, value string) (overpass.TagLookupResult, error)
}

// deprecatedTags maps known deprecated tags to their replacements. Taginfo
// reports usage, not status, so deprecation knowledge is curated here from
// the OSM wiki's deprecated-features list.
var deprecatedTags = map[string]overpass.Tag{
	"amenity=nursing_home":    {Key: "social_facility", Value: "nursing_home"},
	"amenity=ev_charging":     {Key: "amenity", Value: "charging_station"},
	"amenity=creche":          {Key: "amenity", Value: "kindergarten"},
	"shop=fishmonger":         {Key: "shop", Value: "seafood"},
	"shop=betting":            {Key: "shop", Value: "bookmaker"},
	"highway=incline":         {Key: "incline", Value: "up"},
	"amenity=public_bathroom": {Key: "amenity", Value: "toilets"},
}

// WarmerConfig holds configuration for the dictionary warmer
type WarmerConfig struct {
	Enabled  bool
	Interval time.Duration
	CacheTTL time.Duration
}

// Warmer pre-grounds every dictionary tag against taginfo on a schedule and
// answers lookups from its cache, so request-path lookups rarely leave the
// process. It implements the pipeline's tag lookup contract.
type Warmer struct {
	lookup   Lookup
	dict     *dictionary.Dictionary
	config   WarmerConfig
	logger   *observability.Logger
	stopChan chan struct{}
	ticker   *time.Ticker
	running  bool
	runMu    sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedResult
}

type cachedResult struct {
	result    overpass.TagLookupResult
	expiresAt time.Time
}

// NewWarmer creates a new dictionary warmer around the given lookup
func NewWarmer(lookup Lookup, dict *dictionary.Dictionary, config WarmerConfig) *Warmer {
	if config.Interval <= 0 {
		config.Interval = 6 * time.Hour
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 24 * time.Hour
	}

	return &Warmer{
		lookup: lookup,
		dict:   dict,
		config: config,
		logger: observability.NewLogger("taginfo-warmer"),
		cache:  make(map[string]cachedResult),
	}
}

// LookupTag answers from the deprecation table and warm cache first and
// falls through to the live API for anything unknown
func (w *Warmer) LookupTag(ctx context.Context, key, value string) (overpass.TagLookupResult, error) {
	id := key + "=" + value

	if replacement, ok := deprecatedTags[id]; ok {
		return overpass.TagLookupResult{
			Valid:        true,
			Deprecated:   true,
			Alternatives: []overpass.Tag{replacement},
		}, nil
	}

	w.mu.RLock()
	cached, ok := w.cache[id]
	w.mu.RUnlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.result, nil
	}

	result, err := w.lookup.LookupTag(ctx, key, value)
	if err != nil {
		return overpass.TagLookupResult{}, err
	}

	w.store(id, result)
	return result, nil
}

func (w *Warmer) store(id string, result overpass.TagLookupResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache[id] = cachedResult{
		result:    result,
		expiresAt: time.Now().Add(w.config.CacheTTL),
	}
}

// Start begins periodic warming of the dictionary tags
func (w *Warmer) Start(ctx context.Context) error {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if !w.config.Enabled {
		log.Println("Taginfo warming is disabled")
		return nil
	}
	if w.running {
		return fmt.Errorf("taginfo warmer already running")
	}

	go func() {
		if err := w.warm(ctx); err != nil {
			log.Printf("Initial taginfo warming error: %v", err)
		}
	}()

	// A fresh stop channel per run, so a warmer stopped once can be started
	// again.
	w.stopChan = make(chan struct{})
	w.ticker = time.NewTicker(w.config.Interval)
	w.running = true

	go w.warmLoop(ctx, w.stopChan)

	log.Printf("Taginfo warmer started with interval: %v", w.config.Interval)
	return nil
}

// Stop stops the warmer
func (w *Warmer) Stop() {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if !w.running {
		return
	}
	w.ticker.Stop()
	close(w.stopChan)
	w.running = false
}

func (w *Warmer) warmLoop(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-w.ticker.C:
			if err := w.warm(ctx); err != nil {
				log.Printf("Taginfo warming error: %v", err)
			}
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// warm grounds every dictionary tag and refreshes the cache. Individual
// lookup failures are counted but do not stop the sweep.
func (w *Warmer) warm(ctx context.Context) error {
	start := time.Now()
	tags := w.dict.AllTags()

	var failures int
	for _, tag := range tags {
		id := tag.Key + "=" + tag.Value
		if _, ok := deprecatedTags[id]; ok {
			continue
		}

		result, err := w.lookup.LookupTag(ctx, tag.Key, tag.Value)
		if err != nil {
			failures++
			continue
		}
		w.store(id, result)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	observability.RecordWarmerMetrics(time.Since(start), len(tags), failures)
	w.logger.Info(ctx, "Taginfo warming sweep complete", map[string]interface{}{
		"tags":        len(tags),
		"failures":    failures,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if failures == len(tags) && len(tags) > 0 {
		return fmt.Errorf("all %d tag lookups failed", len(tags))
	}
	return nil
}

// CacheSize returns the number of cached lookup results
func (w *Warmer) CacheSize() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.cache)
}
