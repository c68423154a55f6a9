package store

import (
	"sync"
	"time"

	"github.com/jpalmerr/healthboard/internal/poller"
)

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore keeps only the latest snapshot: no history is retained.
// It also implements [poller.Sink], so a scheduler can publish into it
// directly.
//
// Subscribers receive updates via buffered channels (buffer size 100). Updates
// are sent non-blocking; if a subscriber's buffer is full, the update is dropped
// for that subscriber to prevent blocking the entire system.
type MemoryStore struct {
	mu          sync.RWMutex
	latest      Snapshot
	hasLatest   bool
	subscribers map[chan Snapshot]struct{}
	subMu       sync.RWMutex
}

var _ poller.Sink = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Publish stores the report as a snapshot. It implements [poller.Sink].
func (m *MemoryStore) Publish(r poller.Report) {
	m.Update(FromReport(r))
}

// Update stores a [Snapshot] and notifies all subscribers.
//
// A snapshot whose sequence is not newer than the stored one is dropped.
// LastChecked never moves backwards: a clock step is absorbed by nudging the
// new value one millisecond past the previous one.
func (m *MemoryStore) Update(snapshot Snapshot) bool {
	m.mu.Lock()
	if m.hasLatest {
		if snapshot.Sequence <= m.latest.Sequence {
			m.mu.Unlock()
			return false
		}
		if !snapshot.LastChecked.After(m.latest.LastChecked) {
			snapshot.LastChecked = m.latest.LastChecked.Add(time.Millisecond)
		}
	}
	m.latest = snapshot
	m.hasLatest = true
	m.mu.Unlock()

	m.notifySubscribers(snapshot)
	return true
}

// Latest returns the most recent snapshot.
//
// The endpoints slice is a copy; modifications do not affect the store.
func (m *MemoryStore) Latest() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.hasLatest {
		return Snapshot{}, false
	}
	snap := m.latest
	snap.Endpoints = append([]EndpointStatus(nil), m.latest.Endpoints...)
	return snap, true
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new updates are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 100)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (m *MemoryStore) SubscriberCount() int {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	return len(m.subscribers)
}

// notifySubscribers sends the snapshot to all active subscribers without
// blocking; a full buffer drops the message for that subscriber.
func (m *MemoryStore) notifySubscribers(snapshot Snapshot) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- snapshot:
		default:
			// subscriber is slow, drop the message
		}
	}
}
