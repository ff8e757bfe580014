package service

import (
	"context"
	"edu_admin_backend/internal/model"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// memoryStore is an in-process SnapshotStore for tests.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*model.DashboardSnapshot
	failing bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]*model.DashboardSnapshot)}
}

func (m *memoryStore) Get(ctx context.Context, scope string) (*model.DashboardSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errors.New("store down")
	}
	return m.entries[scope], nil
}

func (m *memoryStore) Set(ctx context.Context, scope string, snapshot *model.DashboardSnapshot, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("store down")
	}
	m.entries[scope] = snapshot
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, scope)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	scopes []string
}

func (r *recordingNotifier) Publish(scope string, snapshot model.DashboardSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes = append(r.scopes, scope)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scopes)
}

func countingCompute(calls *int64, block <-chan struct{}) ComputeFunc {
	return func(ctx context.Context, scope string) (*model.DashboardSnapshot, error) {
		n := atomic.AddInt64(calls, 1)
		if block != nil {
			<-block
		}
		return &model.DashboardSnapshot{
			Scope:        scope,
			TotalCourses: int(n),
			ComputedAt:   time.Now(),
		}, nil
	}
}

func TestSnapshotComputesOnceAcrossConcurrentCallers(t *testing.T) {
	var calls int64
	block := make(chan struct{})
	svc := NewCacheService(newMemoryStore(), countingCompute(&calls, block), nil, time.Minute)

	const n = 10
	var wg sync.WaitGroup
	results := make([]*model.DashboardSnapshot, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snapshot, err := svc.Snapshot(context.Background(), "1")
			if err != nil {
				t.Errorf("snapshot failed: %v", err)
				return
			}
			results[i] = snapshot
		}(i)
	}

	// Give the callers time to pile onto the in-flight computation.
	time.Sleep(50 * time.Millisecond)
	close(block)
	wg.Wait()

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("expected exactly 1 computation, got %d", got)
	}
	for i, snapshot := range results {
		if snapshot == nil || snapshot.Scope != "1" {
			t.Fatalf("caller %d got a bad snapshot: %+v", i, snapshot)
		}
	}
}

func TestSnapshotHitSkipsCompute(t *testing.T) {
	var calls int64
	svc := NewCacheService(newMemoryStore(), countingCompute(&calls, nil), nil, time.Minute)

	if _, err := svc.Snapshot(context.Background(), "1"); err != nil {
		t.Fatalf("first snapshot failed: %v", err)
	}
	if _, err := svc.Snapshot(context.Background(), "1"); err != nil {
		t.Fatalf("second snapshot failed: %v", err)
	}

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("expected 1 computation for a warm cache, got %d", got)
	}
}

func TestInvalidateForcesRecompute(t *testing.T) {
	var calls int64
	store := newMemoryStore()
	svc := NewCacheService(store, countingCompute(&calls, nil), nil, time.Minute)

	first, err := svc.Snapshot(context.Background(), "1")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	svc.Invalidate(context.Background(), "1")

	second, err := svc.Snapshot(context.Background(), "1")
	if err != nil {
		t.Fatalf("snapshot after invalidate failed: %v", err)
	}

	if atomic.LoadInt64(&calls) != 2 {
		t.Fatalf("expected a recompute after invalidate, got %d calls", calls)
	}
	if second.TotalCourses == first.TotalCourses {
		t.Fatal("get after invalidate returned the pre-invalidation snapshot")
	}
}

// blockingSetStore stalls the first Set so an invalidation can be
// interleaved between the snapshot computation and its cache write.
type blockingSetStore struct {
	*memoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSetStore) Set(ctx context.Context, scope string, snapshot *model.DashboardSnapshot, ttl time.Duration) error {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.memoryStore.Set(ctx, scope, snapshot, ttl)
}

func TestInvalidateDuringStoreWriteIsNotLost(t *testing.T) {
	var calls int64
	store := &blockingSetStore{
		memoryStore: newMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	notifier := &recordingNotifier{}
	svc := NewCacheService(store, countingCompute(&calls, nil), notifier, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := svc.Snapshot(context.Background(), "1"); err != nil {
			t.Errorf("snapshot failed: %v", err)
		}
	}()

	// The write is in flight; an invalidation now races it. Its Delete ran
	// against an empty store, so only the generation fence can keep the
	// superseded snapshot from being cached.
	<-store.entered
	svc.Invalidate(context.Background(), "1")
	close(store.release)
	<-done

	second, err := svc.Snapshot(context.Background(), "1")
	if err != nil {
		t.Fatalf("snapshot after invalidate failed: %v", err)
	}
	if second.TotalCourses != 2 {
		t.Fatalf("get after invalidate returned the pre-invalidation snapshot: %+v", second)
	}
	if atomic.LoadInt64(&calls) != 2 {
		t.Fatalf("expected a recompute after invalidate, got %d calls", calls)
	}
	// The superseded snapshot must not reach subscribers either.
	if notifier.count() != 1 {
		t.Fatalf("expected only the post-invalidation publish, got %d", notifier.count())
	}
}

func TestSnapshotFailsOpenWhenStoreDown(t *testing.T) {
	var calls int64
	store := newMemoryStore()
	store.failing = true
	svc := NewCacheService(store, countingCompute(&calls, nil), nil, time.Minute)

	snapshot, err := svc.Snapshot(context.Background(), model.ScopeGlobal)
	if err != nil {
		t.Fatalf("expected fail-open computation, got error: %v", err)
	}
	if snapshot == nil || snapshot.Scope != model.ScopeGlobal {
		t.Fatalf("bad snapshot from fail-open path: %+v", snapshot)
	}
	if atomic.LoadInt64(&calls) != 1 {
		t.Fatalf("expected direct computation, got %d calls", calls)
	}
}

func TestSnapshotPublishesOnRecompute(t *testing.T) {
	var calls int64
	notifier := &recordingNotifier{}
	svc := NewCacheService(newMemoryStore(), countingCompute(&calls, nil), notifier, time.Minute)

	if _, err := svc.Snapshot(context.Background(), "1"); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected 1 publish after a miss, got %d", notifier.count())
	}

	// A hit must not republish.
	if _, err := svc.Snapshot(context.Background(), "1"); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if notifier.count() != 1 {
		t.Fatalf("hit republished, got %d publishes", notifier.count())
	}
}

func TestComputeErrorPropagates(t *testing.T) {
	wantErr := errors.New("aggregation broken")
	compute := func(ctx context.Context, scope string) (*model.DashboardSnapshot, error) {
		return nil, wantErr
	}
	svc := NewCacheService(newMemoryStore(), compute, nil, time.Minute)

	if _, err := svc.Snapshot(context.Background(), "1"); !errors.Is(err, wantErr) {
		t.Fatalf("expected compute error, got %v", err)
	}
}
