package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	PresenceSignedIn  = "signed-in"
	PresenceSignedOut = "signed-out"
)

// PresenceEvent announces a sign-in or sign-out.
type PresenceEvent struct {
	Kind      string
	User      User
	Timestamp time.Time
}

// PresenceDispatcher fans presence events out to subscribers. Slow
// subscribers miss events instead of blocking the publisher.
type PresenceDispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]chan PresenceEvent
	nextID      int64
	bufferSize  int
}

func NewPresenceDispatcher() *PresenceDispatcher {
	return &PresenceDispatcher{
		subscribers: make(map[int64]chan PresenceEvent),
		bufferSize:  16,
	}
}

// Subscribe registers a stream that lives until ctx is done or the returned
// cleanup runs.
func (d *PresenceDispatcher) Subscribe(ctx context.Context) (<-chan PresenceEvent, func()) {
	stream := make(chan PresenceEvent, d.bufferSize)
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subscribers[id] = stream
	d.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subscribers, id)
			d.mu.Unlock()
			close(stream)
		})
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return stream, cleanup
}

func (d *PresenceDispatcher) Publish(event PresenceEvent) {
	if event.Kind == "" {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, stream := range d.subscribers {
		select {
		case stream <- event:
		default:
		}
	}
}

// PresenceLabel renders the signed-in banner; signed out renders "".
func PresenceLabel(user User, signedIn bool) string {
	if !signedIn {
		return ""
	}
	return fmt.Sprintf(" %s signed in. ", user.Name)
}

// WatchPresence reports the gate's label now and then on every tick where it
// changed, until ctx is done.
func WatchPresence(ctx context.Context, gate *Gate, interval time.Duration, report func(label string)) {
	if interval <= 0 {
		interval = time.Second
	}
	last := PresenceLabel(gate.SignedInUser())
	report(last)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			label := PresenceLabel(gate.SignedInUser())
			if label != last {
				last = label
				report(label)
			}
		}
	}
}
