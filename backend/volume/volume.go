package volume

//go:generate mockgen -destination=mocks/client_mock.go -package=mocks github.com/b0bbywan/go-odio-btmedia/backend/volume PulseClient

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/the-jonsey/pulseaudio"

	"github.com/b0bbywan/go-odio-btmedia/config"
	"github.com/b0bbywan/go-odio-btmedia/events"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

// PulseClient is the part of the pulseaudio client used for the master
// volume. Volumes are linear, 0 to 1.
type PulseClient interface {
	Volume() (float32, error)
	SetVolume(volume float32) error
	Close()
}

// Mixer reads and moves the system output volume, in percent.
type Mixer interface {
	Level() (int, error)
	Adjust(delta int) (int, error)
	Name() string
	Close()
}

type VolumeData struct {
	Level   int    `json:"level"`
	Backend string `json:"backend"`
}

type VolumeBackend struct {
	mixer   Mixer
	step    int
	ctx     context.Context
	cancel  context.CancelFunc
	eventsC chan events.Event

	mu   sync.Mutex
	last int

	updates <-chan struct{}
}

// New opens the configured mixer. A pulseaudio server that cannot be reached
// falls back to amixer.
func New(ctx context.Context, cfg *config.VolumeConfig) (*VolumeBackend, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	var mixer Mixer
	var updates <-chan struct{}
	if cfg.Backend == config.VolumeBackendPulse {
		address := fmt.Sprintf("%s/pulse/native", cfg.XDGRuntimeDir)
		c, err := pulseaudio.NewClient(address)
		if err != nil {
			logger.Warn("[volume] pulseaudio unavailable at %s, falling back to amixer: %v", address, err)
		} else {
			mixer = NewPulseMixer(c)
			if updates, err = c.Updates(); err != nil {
				logger.Warn("[volume] failed to subscribe to pulseaudio updates: %v", err)
				updates = nil
			}
		}
	}
	if mixer == nil {
		mixer = NewAmixer(cfg.Control)
	}

	return newBackend(ctx, mixer, cfg.Step, updates), nil
}

func newBackend(ctx context.Context, mixer Mixer, step int, updates <-chan struct{}) *VolumeBackend {
	ctx, cancel := context.WithCancel(ctx)
	return &VolumeBackend{
		mixer:   mixer,
		step:    step,
		ctx:     ctx,
		cancel:  cancel,
		eventsC: make(chan events.Event, 4),
		last:    -1,
		updates: updates,
	}
}

func (v *VolumeBackend) Start() error {
	level, err := v.mixer.Level()
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.last = level
	v.mu.Unlock()

	if v.updates != nil {
		go v.listen()
	}
	logger.Info("[volume] %s mixer started at %d%%", v.mixer.Name(), level)
	return nil
}

func (v *VolumeBackend) listen() {
	for {
		select {
		case <-v.ctx.Done():
			return
		case _, ok := <-v.updates:
			if !ok {
				return
			}
			level, err := v.mixer.Level()
			if err != nil {
				logger.Debug("[volume] failed to read volume after update: %v", err)
				continue
			}
			v.publish(level)
		}
	}
}

func (v *VolumeBackend) Name() string {
	return v.mixer.Name()
}

func (v *VolumeBackend) Level() (int, error) {
	return v.mixer.Level()
}

// Up raises the output volume by one step.
func (v *VolumeBackend) Up() (int, error) {
	return v.adjust(v.step)
}

// Down lowers the output volume by one step.
func (v *VolumeBackend) Down() (int, error) {
	return v.adjust(-v.step)
}

func (v *VolumeBackend) adjust(delta int) (int, error) {
	level, err := v.mixer.Adjust(delta)
	if err != nil {
		return 0, err
	}
	logger.Debug("[volume] adjusted by %+d to %d%%", delta, level)
	v.publish(level)
	return level, nil
}

// publish notifies only actual changes; pulseaudio echoes our own writes.
func (v *VolumeBackend) publish(level int) {
	v.mu.Lock()
	changed := level != v.last
	v.last = level
	v.mu.Unlock()
	if !changed {
		return
	}

	e := events.Event{Type: events.TypeVolumeUpdated, Data: VolumeData{Level: level, Backend: v.mixer.Name()}}
	select {
	case v.eventsC <- e:
	default:
		logger.Warn("[volume] event channel full, dropping %s event", e.Type)
	}
}

func (v *VolumeBackend) Events() <-chan events.Event {
	return v.eventsC
}

func (v *VolumeBackend) Close() {
	v.cancel()
	if v.mixer != nil {
		v.mixer.Close()
	}
}

// PulseMixer drives the default sink through the pulseaudio native protocol.
type PulseMixer struct {
	client PulseClient
}

func NewPulseMixer(client PulseClient) *PulseMixer {
	return &PulseMixer{client: client}
}

func (m *PulseMixer) Name() string {
	return config.VolumeBackendPulse
}

func (m *PulseMixer) Level() (int, error) {
	vol, err := m.client.Volume()
	if err != nil {
		return 0, &MixerError{Backend: m.Name(), Err: err}
	}
	return toPercent(vol), nil
}

func (m *PulseMixer) Adjust(delta int) (int, error) {
	cur, err := m.Level()
	if err != nil {
		return 0, err
	}
	level := clamp(cur + delta)
	if err := m.client.SetVolume(float32(level) / 100); err != nil {
		return 0, &MixerError{Backend: m.Name(), Err: err}
	}
	return level, nil
}

func (m *PulseMixer) Close() {
	m.client.Close()
}

func toPercent(vol float32) int {
	return clamp(int(math.Round(float64(vol) * 100)))
}

func clamp(level int) int {
	return max(0, min(100, level))
}
