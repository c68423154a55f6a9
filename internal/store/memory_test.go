package store

import (
	"sync"
	"testing"
	"time"
)

func snap(seq uint64, at time.Time) Snapshot {
	return Snapshot{
		Sequence:    seq,
		State:       "operational",
		LastChecked: at,
		Endpoints:   []EndpointStatus{{ID: "core", Name: "Core", Outcome: "healthy", Healthy: true}},
	}
}

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	if _, ok := store.Latest(); ok {
		t.Error("Latest() ok = true on empty store, want false")
	}
}

func TestMemoryStore_Update(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	if !store.Update(snap(1, now)) {
		t.Fatal("Update() = false, want true")
	}

	latest, ok := store.Latest()
	if !ok {
		t.Fatal("Latest() ok = false, want true")
	}
	if latest.Sequence != 1 {
		t.Errorf("Latest().Sequence = %v, want 1", latest.Sequence)
	}
	if len(latest.Endpoints) != 1 || latest.Endpoints[0].ID != "core" {
		t.Errorf("Latest().Endpoints = %+v, want one core entry", latest.Endpoints)
	}
}

func TestMemoryStore_UpdateReplaces(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	store.Update(snap(1, now))
	next := snap(2, now.Add(time.Second))
	next.State = "outage"
	store.Update(next)

	latest, _ := store.Latest()
	if latest.State != "outage" {
		t.Errorf("Latest().State = %v, want outage", latest.State)
	}
}

func TestMemoryStore_RejectsStaleSequence(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	store.Update(snap(5, now))

	if store.Update(snap(4, now.Add(time.Second))) {
		t.Error("Update() with older sequence = true, want false")
	}
	if store.Update(snap(5, now.Add(time.Second))) {
		t.Error("Update() with equal sequence = true, want false")
	}

	latest, _ := store.Latest()
	if latest.Sequence != 5 {
		t.Errorf("Latest().Sequence = %v, want 5", latest.Sequence)
	}
}

func TestMemoryStore_LastCheckedIsMonotonic(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	store.Update(snap(1, now))
	store.Update(snap(2, now.Add(-time.Minute))) // clock stepped back

	latest, _ := store.Latest()
	if !latest.LastChecked.After(now) {
		t.Errorf("Latest().LastChecked = %v, want after %v", latest.LastChecked, now)
	}
}

func TestMemoryStore_LatestReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	store.Update(snap(1, time.Now()))

	latest, _ := store.Latest()
	latest.Endpoints[0].Name = "mutated"

	again, _ := store.Latest()
	if again.Endpoints[0].Name != "Core" {
		t.Errorf("Latest().Endpoints[0].Name = %v, want Core", again.Endpoints[0].Name)
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() = nil")
	}

	go func() {
		store.Update(snap(1, time.Now()))
	}()

	select {
	case got := <-ch:
		if got.Sequence != 1 {
			t.Errorf("received Sequence = %v, want 1", got.Sequence)
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive update")
	}
}

func TestMemoryStore_MultipleSubscribers(t *testing.T) {
	store := NewMemoryStore()

	ch1 := store.Subscribe()
	ch2 := store.Subscribe()
	ch3 := store.Subscribe()

	go func() {
		store.Update(snap(1, time.Now()))
	}()

	received := 0
	timeout := time.After(1 * time.Second)

	for received < 3 {
		select {
		case <-ch1:
			received++
		case <-ch2:
			received++
		case <-ch3:
			received++
		case <-timeout:
			t.Fatalf("Only received %d/3 updates", received)
		}
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	store.Unsubscribe(ch)
	store.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Unsubscribe() channel should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}

	if n := store.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", n)
	}
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore()

	// never read
	_ = store.Subscribe()

	done := make(chan bool)
	go func() {
		now := time.Now()
		for i := 1; i <= 200; i++ {
			store.Update(snap(uint64(i), now.Add(time.Duration(i)*time.Millisecond)))
		}
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Update() blocked on slow subscriber")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	numGoroutines := 10
	numUpdates := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numUpdates; j++ {
				store.Update(snap(uint64(id*numUpdates+j+1), time.Now()))
			}
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numUpdates; j++ {
				_, _ = store.Latest()
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := store.Subscribe()
			time.Sleep(10 * time.Millisecond)
			store.Unsubscribe(ch)
		}()
	}

	wg.Wait()
}
