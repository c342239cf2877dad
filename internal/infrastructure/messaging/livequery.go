package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIVE QUERY HUB
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotReader reads the full, display-ordered snapshot of one collection
// for one user. Implemented by the query layer.
type SnapshotReader interface {
	ByCollection(ctx context.Context, collection, userID string) (interface{}, error)
}

// Snapshot is one delivery to a live subscriber: the entire current state of
// a (collection, user) pair. Deliveries never carry diffs.
type Snapshot struct {
	Collection  string
	UserID      string
	Data        interface{}
	DeliveredAt time.Time
}

// subKey identifies a subscription slot: one live subscription exists per
// (collection, user) pair.
type subKey struct {
	collection string
	userID     string
}

// Subscription is a live feed of snapshots for one (collection, user) pair.
type Subscription struct {
	key       subKey
	hub       *LiveQueryHub
	closeOnce sync.Once
	done      chan struct{}

	// mu orders every send against the close of ch: deliver and detach
	// both take it, so a snapshot can never be pushed into a channel
	// that a concurrent Close has already closed.
	mu     sync.Mutex
	ch     chan Snapshot
	closed bool
}

// Updates returns the snapshot channel. The channel closes when the
// subscription is closed, replaced, or its context ends.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.ch
}

// Close detaches the subscription. Closing twice is safe.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.detach(s)
	})
}

// LiveQueryHub turns collection change notifications into full snapshot
// deliveries. Writers publish a CollectionChangedEvent carrying only the
// collection name and user; the hub re-reads the collection and pushes the
// complete ordered state to the subscriber. Delivery coalesces: a slow
// consumer sees the latest snapshot, never a backlog of stale ones.
type LiveQueryHub struct {
	reader SnapshotReader
	logger *slog.Logger

	mu   sync.Mutex
	subs map[subKey]*Subscription

	closed bool
	wg     sync.WaitGroup
}

// NewLiveQueryHub creates a hub over the given snapshot reader.
func NewLiveQueryHub(reader SnapshotReader, logger *slog.Logger) *LiveQueryHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveQueryHub{
		reader: reader,
		logger: logger.With("component", "livequery"),
		subs:   make(map[subKey]*Subscription),
	}
}

// Register attaches the hub to an event bus, subscribing it to every
// collection change event type.
func (h *LiveQueryHub) Register(bus shared.EventSubscriber) error {
	for _, eventType := range shared.CollectionEventTypes {
		if err := bus.Subscribe(eventType, h.HandleChange); err != nil {
			return err
		}
	}
	return nil
}

// Watch opens a live subscription for a (collection, user) pair and delivers
// the initial snapshot before returning. Opening a second subscription for
// the same pair closes the first: switching accounts tears down the old
// user's feed before the new one attaches. The subscription ends when ctx is
// done or Close is called.
func (h *LiveQueryHub) Watch(ctx context.Context, collection, userID string) (*Subscription, error) {
	if _, ok := shared.CollectionEventTypes[collection]; !ok {
		return nil, shared.NewDomainError("livequery", "Watch", shared.ErrInvalidInput, "unknown collection")
	}
	if userID == "" {
		return nil, shared.NewDomainError("livequery", "Watch", shared.ErrInvalidID, "user id is required")
	}

	initial, err := h.reader.ByCollection(ctx, collection, userID)
	if err != nil {
		return nil, err
	}

	key := subKey{collection: collection, userID: userID}
	sub := &Subscription{
		key:  key,
		ch:   make(chan Snapshot, 1),
		hub:  h,
		done: make(chan struct{}),
	}

	// Buffer the initial snapshot before the subscription becomes visible
	// to HandleChange. Nothing else holds sub yet, so this cannot block,
	// and any change delivered after registration coalesces over it.
	sub.deliver(Snapshot{
		Collection:  collection,
		UserID:      userID,
		Data:        initial,
		DeliveredAt: time.Now().UTC(),
	})

	for {
		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			return nil, ErrEventBusClosed
		}
		prior, occupied := h.subs[key]
		if !occupied {
			h.subs[key] = sub
			h.mu.Unlock()
			break
		}
		h.mu.Unlock()
		// Only one feed per pair: the old subscriber's channel is closed
		// before the replacement attaches.
		prior.Close()
	}

	// Tie the subscription to the caller's context.
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// HandleChange implements shared.EventHandler for collection change events.
// Unknown or malformed events are ignored; a re-read failure is logged and
// the subscriber keeps its previous snapshot.
func (h *LiveQueryHub) HandleChange(event shared.Event) error {
	collection, userID, ok := changeTarget(event)
	if !ok {
		return nil
	}

	key := subKey{collection: collection, userID: userID}

	h.mu.Lock()
	sub, exists := h.subs[key]
	h.mu.Unlock()
	if !exists {
		return nil
	}

	data, err := h.reader.ByCollection(context.Background(), collection, userID)
	if err != nil {
		h.logger.Error("snapshot re-read failed",
			"collection", collection,
			"user_id", userID,
			"error", err,
		)
		return err
	}

	sub.deliver(Snapshot{
		Collection:  collection,
		UserID:      userID,
		Data:        data,
		DeliveredAt: time.Now().UTC(),
	})
	return nil
}

// deliver pushes a snapshot with latest-wins coalescing: if the subscriber
// has not consumed the previous snapshot, it is replaced, not queued.
// A snapshot arriving after Close is silently dropped.
func (s *Subscription) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		// Channel full: drop the stale snapshot and retry. The mutex
		// excludes other senders, so the retry always lands.
		select {
		case <-s.ch:
		default:
		}
	}
}

// detach removes a subscription and closes its channel.
func (h *LiveQueryHub) detach(sub *Subscription) {
	h.mu.Lock()
	if current, ok := h.subs[sub.key]; ok && current == sub {
		delete(h.subs, sub.key)
	}
	h.mu.Unlock()

	sub.mu.Lock()
	sub.closed = true
	close(sub.ch)
	sub.mu.Unlock()
}

// CloseAll tears down every subscription, used during shutdown.
func (h *LiveQueryHub) CloseAll() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	h.wg.Wait()
}

// changeTarget extracts the (collection, user) pair from a change event,
// accepting both the typed local event and the payload-map form that
// arrives from other instances over Redis.
func changeTarget(event shared.Event) (collection, userID string, ok bool) {
	if changed, isTyped := event.(shared.CollectionChangedEvent); isTyped {
		return changed.Collection, changed.UserID, true
	}

	payload := event.Payload()
	if payload == nil {
		return "", "", false
	}
	collection, _ = payload["collection"].(string)
	userID, _ = payload["user_id"].(string)
	if collection == "" || userID == "" {
		return "", "", false
	}
	return collection, userID, true
}
