// Package store is a process-wide cache of annotated sequences in front of
// a provider.
package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/KowalskiBio/Primerool/internal/gene"
)

// Fetcher builds annotated sequences, eg the Ensembl client.
type Fetcher interface {
	Fetch(ctx context.Context, q gene.Query) (*gene.AnnotatedSequence, error)
}

// Store caches the sequences of a Fetcher by query key. Concurrent misses
// on one key share a single fetch. Failed fetches aren't cached.
//
// Cached values are read-only so they are shared between requests as is.
type Store struct {
	source Fetcher
	size   int
	log    zerolog.Logger

	mu    sync.RWMutex
	items map[string]*gene.AnnotatedSequence
	order []string // keys, oldest first

	group singleflight.Group
}

// New creates a Store over source holding at most size sequences, 0 is
// unbounded. The oldest sequence is evicted first.
func New(source Fetcher, size int, log zerolog.Logger) *Store {
	return &Store{
		source: source,
		size:   size,
		log:    log.With().Str("component", "store").Logger(),
		items:  make(map[string]*gene.AnnotatedSequence),
	}
}

// Fetch returns the cached sequence for q, fetching it on a miss.
func (s *Store) Fetch(ctx context.Context, q gene.Query) (*gene.AnnotatedSequence, error) {
	key := q.Key()
	if a, ok := s.Get(key); ok {
		s.log.Debug().Str("key", key).Msg("cache hit")
		return a, nil
	}

	// the shared fetch outlives any one caller's cancellation
	ch := s.group.DoChan(key, func() (interface{}, error) {
		a, err := s.source.Fetch(context.WithoutCancel(ctx), q)
		if err != nil {
			return nil, err
		}
		s.put(key, a)
		return a, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		s.log.Debug().Str("key", key).Bool("shared", res.Shared).Msg("cache miss")
		return res.Val.(*gene.AnnotatedSequence), nil
	}
}

// Get returns a cached sequence without fetching.
func (s *Store) Get(key string) (*gene.AnnotatedSequence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.items[key]
	return a, ok
}

// Len is the number of cached sequences.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) put(key string, a *gene.AnnotatedSequence) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		s.items[key] = a
		return
	}
	if s.size > 0 && len(s.order) >= s.size {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
	s.items[key] = a
	s.order = append(s.order, key)
}
