package api

import (
	"context"
	"sync"

	"github.com/b0bbywan/go-odio-btmedia/backend/bluetooth"
)

type fakePlayer struct {
	mu    sync.Mutex
	calls []string
	err   error
	now   bluetooth.NowPlaying
}

func (f *fakePlayer) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakePlayer) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakePlayer) NowPlaying() bluetooth.NowPlaying { return f.now }

func (f *fakePlayer) HandleNewConnection(context.Context) error {
	return f.record("refresh")
}

func (f *fakePlayer) HandleDisconnection(context.Context) error {
	return f.record("reset")
}

func (f *fakePlayer) TogglePlayPause(context.Context) error {
	return f.record("play_pause")
}

func (f *fakePlayer) Play(context.Context) error {
	return f.record("play")
}

func (f *fakePlayer) Pause(context.Context) error {
	return f.record("pause")
}

func (f *fakePlayer) Next(context.Context) error {
	return f.record("next")
}

func (f *fakePlayer) Previous(context.Context) error {
	return f.record("previous")
}

type fakeVolume struct {
	level int
	err   error
}

func (f *fakeVolume) Name() string { return "fake" }

func (f *fakeVolume) Level() (int, error) { return f.level, f.err }

func (f *fakeVolume) Up() (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.level += 5
	return f.level, nil
}

func (f *fakeVolume) Down() (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.level -= 5
	return f.level, nil
}
