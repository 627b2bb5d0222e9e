package bluetooth

import (
	"context"
	"testing"
	"time"

	"github.com/b0bbywan/go-odio-btmedia/config"
)

func TestNewDisabled(t *testing.T) {
	b, err := New(context.Background(), &config.BluetoothConfig{Enabled: false})
	if b != nil || err != nil {
		t.Errorf("New(disabled) = (%v, %v), want (nil, nil)", b, err)
	}
	if b, err := New(context.Background(), nil); b != nil || err != nil {
		t.Errorf("New(nil) = (%v, %v), want (nil, nil)", b, err)
	}
}

func TestBackendLifecycle(t *testing.T) {
	bus := newFakeBus(fullTree())
	b := newBackend(context.Background(), bus, &config.BluetoothConfig{
		Enabled:        true,
		Timeout:        time.Second,
		SettleAttempts: 1,
		SettleInitial:  time.Millisecond,
		SettleMax:      time.Millisecond,
		TrackAlbum:     true,
		TrackPadding:   true,
	})

	if err := b.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if got := b.NowPlaying().Track; got != "Song - Band     " {
		t.Errorf("Track = %q, want padded format", got)
	}
	if b.Events() == nil {
		t.Error("Events() should not be nil")
	}

	ctx := context.Background()
	if err := b.TogglePlayPause(ctx); err != nil {
		t.Errorf("TogglePlayPause() error: %v", err)
	}
	if err := b.HandleDisconnection(ctx); err != nil {
		t.Errorf("HandleDisconnection() error: %v", err)
	}
	if b.NowPlaying().Device.Connected {
		t.Error("device should be disconnected")
	}

	b.Close()
	if !bus.closed {
		t.Error("Close() should close the bus")
	}
	b.Close()
}

func TestCloseWithoutStart(t *testing.T) {
	bus := newFakeBus(nil)
	b := newBackend(context.Background(), bus, &config.BluetoothConfig{Enabled: true})
	b.Close()
	if !bus.closed {
		t.Error("Close() should close the bus")
	}
}
