package bluetooth

import (
	"context"

	"github.com/b0bbywan/go-odio-btmedia/config"
	"github.com/b0bbywan/go-odio-btmedia/events"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

// BluetoothBackend binds to the connected media device over the system bus.
type BluetoothBackend struct {
	bus     Bus
	tracker *Tracker
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// New connects to the system bus. It returns nil when bluetooth is disabled.
func New(ctx context.Context, cfg *config.BluetoothConfig) (*BluetoothBackend, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	bus, err := ConnectSystemBus(cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return newBackend(ctx, bus, cfg), nil
}

func newBackend(ctx context.Context, bus Bus, cfg *config.BluetoothConfig) *BluetoothBackend {
	ctx, cancel := context.WithCancel(ctx)
	return &BluetoothBackend{
		bus: bus,
		tracker: NewTracker(bus, TrackerConfig{
			Adapter: cfg.Adapter,
			Settle: SettleConfig{
				Attempts: cfg.SettleAttempts,
				Initial:  cfg.SettleInitial,
				Max:      cfg.SettleMax,
			},
			Format: TrackFormat{
				Album:   cfg.TrackAlbum,
				Padding: cfg.TrackPadding,
			},
		}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *BluetoothBackend) Start() error {
	logger.Debug("[bluetooth] starting")
	b.started = true
	if err := b.tracker.Start(b.ctx); err != nil {
		return err
	}
	logger.Info("[bluetooth] backend started")
	return nil
}

func (b *BluetoothBackend) Close() {
	b.cancel()
	if b.started {
		<-b.tracker.stopped
	}
	if b.bus != nil {
		if err := b.bus.Close(); err != nil {
			logger.Error("[bluetooth] failed to close D-Bus connection: %v", err)
		}
		b.bus = nil
	}
}

func (b *BluetoothBackend) Events() <-chan events.Event {
	return b.tracker.Events()
}

func (b *BluetoothBackend) NowPlaying() NowPlaying {
	return b.tracker.NowPlaying()
}

func (b *BluetoothBackend) HandleNewConnection(ctx context.Context) error {
	return b.tracker.HandleNewConnection(ctx)
}

func (b *BluetoothBackend) HandleDisconnection(ctx context.Context) error {
	return b.tracker.HandleDisconnection(ctx)
}

func (b *BluetoothBackend) TogglePlayPause(ctx context.Context) error {
	return b.tracker.TogglePlayPause(ctx)
}

func (b *BluetoothBackend) Play(ctx context.Context) error {
	return b.tracker.Play(ctx)
}

func (b *BluetoothBackend) Pause(ctx context.Context) error {
	return b.tracker.Pause(ctx)
}

func (b *BluetoothBackend) Next(ctx context.Context) error {
	return b.tracker.Next(ctx)
}

func (b *BluetoothBackend) Previous(ctx context.Context) error {
	return b.tracker.Previous(ctx)
}
