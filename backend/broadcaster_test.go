package backend

import (
	"context"
	"testing"
	"time"

	"github.com/b0bbywan/go-odio-btmedia/events"
)

func TestBroadcaster_Subscribe_ReceivesAll(t *testing.T) {
	upstream := make(chan events.Event, 4)
	b := NewBroadcaster(context.Background(), upstream)

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	upstream <- events.Event{Type: events.TypeTrackChanged}
	upstream <- events.Event{Type: events.TypeVolumeUpdated}

	for _, want := range []string{events.TypeTrackChanged, events.TypeVolumeUpdated} {
		select {
		case got := <-ch:
			if got.Type != want {
				t.Errorf("got %s, want %s", got.Type, want)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timed out waiting for event %s", want)
		}
	}
}

func TestBroadcaster_SubscribeFunc_FiltersEvents(t *testing.T) {
	upstream := make(chan events.Event, 4)
	b := NewBroadcaster(context.Background(), upstream)

	ch := b.SubscribeFunc(events.FilterBackend([]string{"bluetooth"}))
	defer b.Unsubscribe(ch)

	upstream <- events.Event{Type: events.TypeVolumeUpdated}
	upstream <- events.Event{Type: events.TypePlaybackStatus, Data: "playing"}

	select {
	case got := <-ch:
		if got.Type != events.TypePlaybackStatus {
			t.Errorf("got %s, want %s", got.Type, events.TypePlaybackStatus)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for playback.status event")
	}

	select {
	case got := <-ch:
		t.Errorf("unexpected event %s delivered through filter", got.Type)
	case <-time.After(30 * time.Millisecond):
		// expected: nothing received
	}
}

func TestBroadcaster_UnsubscribeTwice(t *testing.T) {
	b := NewBroadcaster(context.Background(), make(chan events.Event))
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	b.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
}

func TestBroadcaster_FullClientDoesNotBlock(t *testing.T) {
	upstream := make(chan events.Event)
	b := NewBroadcaster(context.Background(), upstream)

	slow := b.Subscribe()
	defer b.Unsubscribe(slow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 40; i++ {
			upstream <- events.Event{Type: events.TypeTrackChanged}
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcaster blocked on a full subscriber")
	}
	if len(slow) != cap(slow) {
		t.Errorf("slow subscriber holds %d events, want %d", len(slow), cap(slow))
	}
}

func TestNewBroadcasterFromBackend_Empty_NoPanic(t *testing.T) {
	broadcaster := newBroadcasterFromBackend(context.Background(), &Backend{})
	ch := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(ch)

	select {
	case got := <-ch:
		t.Errorf("unexpected event %s from empty backend", got.Type)
	case <-time.After(20 * time.Millisecond):
		// expected
	}
}

func TestFanIn_MergesAndCloses(t *testing.T) {
	a := make(chan events.Event, 1)
	c := make(chan events.Event, 1)
	merged := fanIn(context.Background(), a, nil, c)

	a <- events.Event{Type: events.TypeTrackChanged}
	c <- events.Event{Type: events.TypeVolumeUpdated}
	close(a)
	close(c)

	seen := map[string]bool{}
	for e := range merged {
		seen[e.Type] = true
	}
	if !seen[events.TypeTrackChanged] || !seen[events.TypeVolumeUpdated] {
		t.Errorf("merged events = %v, want both sources", seen)
	}
}

func TestFanIn_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	merged := fanIn(ctx, make(chan events.Event))
	cancel()

	select {
	case _, ok := <-merged:
		if ok {
			t.Error("expected merged channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("fanIn did not stop on cancel")
	}
}
