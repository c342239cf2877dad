package messaging

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// fakeReader serves versioned snapshots so tests can tell deliveries apart.
type fakeReader struct {
	mu       sync.Mutex
	versions map[string]int
}

func newFakeReader() *fakeReader {
	return &fakeReader{versions: make(map[string]int)}
}

func (r *fakeReader) bump(collection, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions[collection+"/"+userID]++
}

func (r *fakeReader) ByCollection(_ context.Context, collection, userID string) (interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.versions[collection+"/"+userID], nil
}

func receiveSnapshot(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Updates():
		require.True(t, ok, "subscription channel closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestWatchDeliversInitialSnapshot(t *testing.T) {
	reader := newFakeReader()
	hub := NewLiveQueryHub(reader, nil)
	defer hub.CloseAll()

	sub, err := hub.Watch(context.Background(), "notes", "u1")
	require.NoError(t, err)

	snap := receiveSnapshot(t, sub)
	assert.Equal(t, "notes", snap.Collection)
	assert.Equal(t, "u1", snap.UserID)
	assert.Equal(t, 0, snap.Data)
}

func TestChangeNotificationTriggersFullReRead(t *testing.T) {
	reader := newFakeReader()
	hub := NewLiveQueryHub(reader, nil)
	defer hub.CloseAll()

	sub, err := hub.Watch(context.Background(), "tasks", "u1")
	require.NoError(t, err)
	receiveSnapshot(t, sub)

	reader.bump("tasks", "u1")
	require.NoError(t, hub.HandleChange(shared.NewCollectionChangedEvent("tasks", "u1")))

	snap := receiveSnapshot(t, sub)
	assert.Equal(t, 1, snap.Data, "subscriber must see the re-read state, not a diff")
}

func TestChangeForOtherUserIsNotDelivered(t *testing.T) {
	reader := newFakeReader()
	hub := NewLiveQueryHub(reader, nil)
	defer hub.CloseAll()

	sub, err := hub.Watch(context.Background(), "notes", "u1")
	require.NoError(t, err)
	receiveSnapshot(t, sub)

	require.NoError(t, hub.HandleChange(shared.NewCollectionChangedEvent("notes", "u2")))

	select {
	case snap := <-sub.Updates():
		t.Fatalf("unexpected delivery: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSecondWatchReplacesFirst(t *testing.T) {
	reader := newFakeReader()
	hub := NewLiveQueryHub(reader, nil)
	defer hub.CloseAll()

	first, err := hub.Watch(context.Background(), "notes", "u1")
	require.NoError(t, err)
	receiveSnapshot(t, first)

	second, err := hub.Watch(context.Background(), "notes", "u1")
	require.NoError(t, err)
	receiveSnapshot(t, second)

	// The first subscriber's channel must close.
	select {
	case _, ok := <-first.Updates():
		assert.False(t, ok, "first subscription should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("first subscription was not closed")
	}

	// Changes still reach the replacement.
	reader.bump("notes", "u1")
	require.NoError(t, hub.HandleChange(shared.NewCollectionChangedEvent("notes", "u1")))
	snap := receiveSnapshot(t, second)
	assert.Equal(t, 1, snap.Data)
}

func TestSlowConsumerSeesLatestSnapshotOnly(t *testing.T) {
	reader := newFakeReader()
	hub := NewLiveQueryHub(reader, nil)
	defer hub.CloseAll()

	sub, err := hub.Watch(context.Background(), "notes", "u1")
	require.NoError(t, err)
	receiveSnapshot(t, sub)

	// Three rapid changes with no consumption in between.
	for i := 0; i < 3; i++ {
		reader.bump("notes", "u1")
		require.NoError(t, hub.HandleChange(shared.NewCollectionChangedEvent("notes", "u1")))
	}

	snap := receiveSnapshot(t, sub)
	assert.Equal(t, 3, snap.Data, "stale intermediate snapshots must be coalesced away")
}

func TestContextCancelClosesSubscription(t *testing.T) {
	reader := newFakeReader()
	hub := NewLiveQueryHub(reader, nil)
	defer hub.CloseAll()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := hub.Watch(ctx, "notes", "u1")
	require.NoError(t, err)
	receiveSnapshot(t, sub)

	cancel()

	select {
	case _, ok := <-sub.Updates():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close on context cancel")
	}
}

func TestWatchRejectsUnknownCollection(t *testing.T) {
	hub := NewLiveQueryHub(newFakeReader(), nil)
	defer hub.CloseAll()

	_, err := hub.Watch(context.Background(), "unknown", "u1")
	assert.Error(t, err)

	_, err = hub.Watch(context.Background(), "notes", "")
	assert.Error(t, err)
}

// gatedReader lets a test hold a re-read in flight so teardown can be
// interleaved with an ongoing delivery.
type gatedReader struct {
	calls   int32
	entered chan struct{}
	release chan struct{}
}

func (r *gatedReader) ByCollection(_ context.Context, _, _ string) (interface{}, error) {
	if atomic.AddInt32(&r.calls, 1) == 1 {
		return "initial", nil
	}
	close(r.entered)
	<-r.release
	return "late", nil
}

func TestCloseDuringInFlightDeliveryDropsSnapshot(t *testing.T) {
	reader := &gatedReader{entered: make(chan struct{}), release: make(chan struct{})}
	hub := NewLiveQueryHub(reader, nil)
	defer hub.CloseAll()

	sub, err := hub.Watch(context.Background(), "notes", "u1")
	require.NoError(t, err)
	receiveSnapshot(t, sub)

	handled := make(chan error, 1)
	go func() {
		handled <- hub.HandleChange(shared.NewCollectionChangedEvent("notes", "u1"))
	}()

	// Close the subscriber while the re-read is still in flight, then let
	// the delivery proceed against the already-closed subscription.
	select {
	case <-reader.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("re-read never started")
	}
	sub.Close()
	close(reader.release)

	select {
	case err := <-handled:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("delivery did not finish")
	}

	_, ok := <-sub.Updates()
	assert.False(t, ok, "closed subscription must not receive the late snapshot")
}

func TestWatchDoesNotBlockUnderConcurrentChanges(t *testing.T) {
	reader := newFakeReader()
	hub := NewLiveQueryHub(reader, nil)
	defer hub.CloseAll()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = hub.HandleChange(shared.NewCollectionChangedEvent("notes", "u1"))
			}
		}
	}()

	type watchResult struct {
		sub *Subscription
		err error
	}
	for i := 0; i < 50; i++ {
		watched := make(chan watchResult, 1)
		go func() {
			sub, err := hub.Watch(context.Background(), "notes", "u1")
			watched <- watchResult{sub: sub, err: err}
		}()

		select {
		case res := <-watched:
			require.NoError(t, res.err)
			receiveSnapshot(t, res.sub)
			res.sub.Close()
		case <-time.After(2 * time.Second):
			t.Fatal("watch blocked while changes were being delivered")
		}
	}
	close(stop)
	wg.Wait()
}

func TestReplacementClosesPriorBeforeWatchReturns(t *testing.T) {
	reader := newFakeReader()
	hub := NewLiveQueryHub(reader, nil)
	defer hub.CloseAll()

	first, err := hub.Watch(context.Background(), "notes", "u1")
	require.NoError(t, err)
	receiveSnapshot(t, first)

	_, err = hub.Watch(context.Background(), "notes", "u1")
	require.NoError(t, err)

	// No waiting here: the prior feed is torn down before the
	// replacement attaches, so its channel is closed by now.
	select {
	case _, ok := <-first.Updates():
		assert.False(t, ok)
	default:
		t.Fatal("prior subscription still open after replacement attached")
	}
}

func TestHubOverInMemoryBus(t *testing.T) {
	reader := newFakeReader()
	hub := NewLiveQueryHub(reader, nil)
	defer hub.CloseAll()

	// Synchronous bus keeps delivery deterministic.
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
	defer bus.Close()
	require.NoError(t, hub.Register(bus))

	sub, err := hub.Watch(context.Background(), "grades", "u1")
	require.NoError(t, err)
	receiveSnapshot(t, sub)

	reader.bump("grades", "u1")
	require.NoError(t, bus.Publish(shared.NewCollectionChangedEvent("grades", "u1")))

	snap := receiveSnapshot(t, sub)
	assert.Equal(t, 1, snap.Data)
}
