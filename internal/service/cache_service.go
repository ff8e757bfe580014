package service

import (
	"context"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/pkg/logger"
	"edu_admin_backend/pkg/monitoring"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const snapshotKeyPrefix = "dashboard:snapshot:"

// SnapshotStore is the cache backing store. Get returns (nil, nil) on a
// clean miss; an error means the backend is unreachable.
type SnapshotStore interface {
	Get(ctx context.Context, scope string) (*model.DashboardSnapshot, error)
	Set(ctx context.Context, scope string, snapshot *model.DashboardSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, scope string) error
}

// RedisSnapshotStore keeps snapshots as JSON values under a TTL.
type RedisSnapshotStore struct {
	Client *redis.Client
}

func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	return &RedisSnapshotStore{Client: client}
}

func (s *RedisSnapshotStore) Get(ctx context.Context, scope string) (*model.DashboardSnapshot, error) {
	raw, err := s.Client.Get(ctx, snapshotKeyPrefix+scope).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot model.DashboardSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		// A corrupt entry is a miss, not an outage.
		return nil, nil
	}
	return &snapshot, nil
}

func (s *RedisSnapshotStore) Set(ctx context.Context, scope string, snapshot *model.DashboardSnapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, snapshotKeyPrefix+scope, raw, ttl).Err()
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, scope string) error {
	return s.Client.Del(ctx, snapshotKeyPrefix+scope).Err()
}

// ComputeFunc produces a fresh snapshot for a scope (normally
// MetricsService.Snapshot).
type ComputeFunc func(ctx context.Context, scope string) (*model.DashboardSnapshot, error)

// SnapshotNotifier receives every successfully recomputed snapshot
// (normally the dashboard hub).
type SnapshotNotifier interface {
	Publish(scope string, snapshot model.DashboardSnapshot)
}

// CacheService memoizes snapshots per scope. Concurrent misses for one
// scope collapse into a single aggregation via singleflight; a backend
// outage fails open into direct computation.
type CacheService struct {
	store    SnapshotStore
	compute  ComputeFunc
	notifier SnapshotNotifier
	ttl      time.Duration

	group singleflight.Group

	// generation fences out computations started before the most recent
	// invalidation of their scope, so a get after invalidate can never be
	// served data older than the mutation.
	genMu       sync.Mutex
	generations map[string]uint64
}

func NewCacheService(store SnapshotStore, compute ComputeFunc, notifier SnapshotNotifier, ttl time.Duration) *CacheService {
	return &CacheService{
		store:       store,
		compute:     compute,
		notifier:    notifier,
		ttl:         ttl,
		generations: make(map[string]uint64),
	}
}

func (s *CacheService) generation(scope string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[scope]
}

func (s *CacheService) bumpGeneration(scope string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[scope]++
}

// Snapshot returns the cached snapshot for the scope, computing it at most
// once across concurrent callers when absent.
func (s *CacheService) Snapshot(ctx context.Context, scope string) (*model.DashboardSnapshot, error) {
	cached, err := s.store.Get(ctx, scope)
	if err != nil {
		// Fail open: the dashboard must not go down with the cache.
		monitoring.SnapshotCacheCounter.WithLabelValues("bypass").Inc()
		logger.Log.Warn("Snapshot cache unreachable, computing directly",
			zap.String("scope", scope), zap.Error(err))
		return s.compute(ctx, scope)
	}
	if cached != nil {
		monitoring.SnapshotCacheCounter.WithLabelValues("hit").Inc()
		return cached, nil
	}
	monitoring.SnapshotCacheCounter.WithLabelValues("miss").Inc()

	gen := s.generation(scope)
	v, err, _ := s.group.Do(scope, func() (interface{}, error) {
		snapshot, err := s.compute(ctx, scope)
		if err != nil {
			return nil, err
		}

		// Store and announce only if no invalidation raced the computation;
		// the caller still gets the freshly computed value either way.
		if s.generation(scope) == gen {
			if err := s.store.Set(ctx, scope, snapshot, s.ttl); err != nil {
				logger.Log.Warn("Failed to store snapshot",
					zap.String("scope", scope), zap.Error(err))
			}
			// An invalidation may have landed while Set was in flight. Its
			// Delete ran against the old entry (or none), so re-check and
			// undo the write rather than leave a pre-invalidation snapshot
			// cached for a full TTL.
			if s.generation(scope) != gen {
				if err := s.store.Delete(ctx, scope); err != nil {
					logger.Log.Warn("Failed to drop superseded snapshot",
						zap.String("scope", scope), zap.Error(err))
				}
			} else if s.notifier != nil {
				s.notifier.Publish(scope, *snapshot)
			}
		}
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.DashboardSnapshot), nil
}

// Invalidate drops the scope's entry immediately, regardless of TTL. Late
// calls joining an in-flight computation keep their result, but any get
// issued after Invalidate returns starts fresh.
func (s *CacheService) Invalidate(ctx context.Context, scope string) {
	s.bumpGeneration(scope)
	s.group.Forget(scope)
	if err := s.store.Delete(ctx, scope); err != nil {
		logger.Log.Warn("Failed to invalidate snapshot cache",
			zap.String("scope", scope), zap.Error(err))
	}
}

// Refresh invalidates and recomputes in the background so stream
// subscribers hear about the mutation without waiting for the next read.
func (s *CacheService) Refresh(scope string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	s.Invalidate(ctx, scope)
	go func() {
		defer cancel()
		if _, err := s.Snapshot(ctx, scope); err != nil {
			logger.Log.Error("Background snapshot refresh failed",
				zap.String("scope", scope), zap.Error(err))
		}
	}()
}
