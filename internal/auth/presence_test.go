package auth

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPresenceDispatcherDeliversSignInAndOut(t *testing.T) {
	dispatcher := NewPresenceDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx)
	defer cleanup()

	gate := newTestGate(t, &testClock{now: time.Now()}, dispatcher)
	if _, err := gate.SignIn(context.Background(), "ada", "pw-Ada"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	gate.SignOut()

	for _, want := range []string{PresenceSignedIn, PresenceSignedOut} {
		select {
		case event := <-stream:
			if event.Kind != want || event.User.Name != "Ada" {
				t.Fatalf("expected %s for Ada, got %#v", want, event)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("expected %s event within deadline", want)
		}
	}
}

func TestPresenceDispatcherStopsAfterCleanup(t *testing.T) {
	dispatcher := NewPresenceDispatcher()
	stream, cleanup := dispatcher.Subscribe(context.Background())
	cleanup()
	cleanup()

	dispatcher.Publish(PresenceEvent{Kind: PresenceSignedIn})
	if _, open := <-stream; open {
		t.Fatalf("expected closed stream after cleanup")
	}
}

func TestPresenceLabel(t *testing.T) {
	if got := PresenceLabel(User{Name: "Ada"}, true); got != " Ada signed in. " {
		t.Fatalf("unexpected label %q", got)
	}
	if got := PresenceLabel(User{Name: "Ada"}, false); got != "" {
		t.Fatalf("signed out label should be empty, got %q", got)
	}
}

func TestWatchPresenceReportsChanges(t *testing.T) {
	gate := newTestGate(t, &testClock{now: time.Now()}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var labels []string
	changed := make(chan struct{}, 4)
	done := make(chan struct{})
	go func() {
		WatchPresence(ctx, gate, 5*time.Millisecond, func(label string) {
			mu.Lock()
			labels = append(labels, label)
			mu.Unlock()
			changed <- struct{}{}
		})
		close(done)
	}()

	<-changed
	if _, err := gate.SignIn(context.Background(), "ada", "pw-Ada"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("expected a label change after sign in")
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(labels) != 2 || labels[0] != "" || labels[1] != " Ada signed in. " {
		t.Fatalf("unexpected labels %q", labels)
	}
}
