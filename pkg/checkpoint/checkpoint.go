// Package checkpoint is the Redis-backed Checkpointer the coordinator
// saves its per-iteration load vector through, so a run interrupted
// partway can resume instead of restarting from iteration 1.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"

	"github.com/travigo/capacity-assignment/pkg/redis_client"
)

// snapshot is the JSON payload stored under one cache key: the
// iteration the load vector was smoothed through, plus the vector
// itself.
type snapshot struct {
	Iteration int       `json:"iteration"`
	Loads     []float64 `json:"loads"`
}

func (s *snapshot) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

func (s *snapshot) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

// Store implements assignment.Checkpointer on top of the shared Redis
// connection. One Store is scoped to a single run name, so concurrently
// running assignments against different networks or demand tables never
// collide on the same key.
type Store struct {
	runName string
	ttl     time.Duration
	cache   *cache.Cache[*snapshot]
}

// New builds a Store for runName. ttl of zero disables expiry on the
// checkpoint key.
func New(runName string, ttl time.Duration) *Store {
	opts := []store.Option{}
	if ttl > 0 {
		opts = append(opts, store.WithExpiration(ttl))
	}
	redisStore := redisstore.NewRedis(redis_client.Client, opts...)
	return &Store{
		runName: runName,
		ttl:     ttl,
		cache:   cache.New[*snapshot](redisStore),
	}
}

func (s *Store) key() string {
	return fmt.Sprintf("assignment_checkpoint:%s", s.runName)
}

// Save persists the load vector for iteration, overwriting any prior
// checkpoint for this run.
func (s *Store) Save(iteration int, loads []float64) error {
	copied := make([]float64, len(loads))
	copy(copied, loads)
	return s.cache.Set(context.Background(), s.key(), &snapshot{Iteration: iteration, Loads: copied})
}

// Load returns the most recently saved checkpoint for this run, if any.
// ok is false when no checkpoint exists yet, which the coordinator
// treats as "start from iteration 1" rather than an error. Existence is
// checked against the raw Redis connection first so a cache miss never
// has to be distinguished from a real store error by inspecting
// gocache's wrapped error value.
func (s *Store) Load() (int, []float64, bool, error) {
	ctx := context.Background()
	exists, err := redis_client.Client.Exists(ctx, s.key()).Result()
	if err != nil {
		return 0, nil, false, err
	}
	if exists == 0 {
		return 0, nil, false, nil
	}

	cached, err := s.cache.Get(ctx, s.key())
	if err != nil {
		return 0, nil, false, err
	}
	return cached.Iteration, cached.Loads, true, nil
}
