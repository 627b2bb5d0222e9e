package bluetooth

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-btmedia/backend/internal/dbus"
	"github.com/b0bbywan/go-odio-btmedia/cache"
	"github.com/b0bbywan/go-odio-btmedia/events"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

const nowPlayingKey = "nowplaying"

var errObjectsPending = errors.New("media objects not yet exported")

// SettleConfig bounds the wait for a freshly connected device to export its
// player and transport.
type SettleConfig struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

type TrackerConfig struct {
	Adapter string
	Settle  SettleConfig
	Format  TrackFormat
}

type TrackChangedData struct {
	Track string `json:"track"`
}

type PlaybackStatusData struct {
	Status PlaybackStatus `json:"status"`
}

type trackerState struct {
	address  DeviceAddress
	paths    ResourcePaths
	handles  ResourceHandles
	playback PlaybackState
	bound    bool
	ignore   bool
}

type command struct {
	fn   func() error
	done chan error
}

// Tracker owns the binding between the bus and the connected media device.
// All state is confined to the goroutine running Run; callers go through
// the command queue.
type Tracker struct {
	bus        Bus
	locator    *Locator
	subs       *SubscriptionSet
	dispatcher *Dispatcher
	controller PlaybackController
	settle     SettleConfig

	state    trackerState
	commands chan command
	stopped  chan struct{}
	eventsC  chan events.Event
	snapshot *cache.Cache[NowPlaying]
}

func NewTracker(bus Bus, cfg TrackerConfig) *Tracker {
	t := &Tracker{
		bus:      bus,
		locator:  NewLocator(bus, cfg.Adapter),
		subs:     NewSubscriptionSet(bus),
		settle:   cfg.Settle,
		commands: make(chan command),
		stopped:  make(chan struct{}),
		eventsC:  make(chan events.Event, 32),
		snapshot: cache.New[NowPlaying](0),
	}
	t.dispatcher = NewDispatcher(cfg.Format, func() bool { return t.state.ignore }, t)
	t.snapshot.Set(nowPlayingKey, noDevice())
	return t
}

// Start performs the initial lookup, then serves bus signals and commands
// until ctx is cancelled.
func (t *Tracker) Start(ctx context.Context) error {
	if err := t.startup(); err != nil {
		close(t.stopped)
		return err
	}
	go t.Run(ctx)
	return nil
}

// Run is the event loop. Start calls it; tests may drive it directly.
func (t *Tracker) Run(ctx context.Context) {
	defer close(t.stopped)
	defer t.subs.CancelAll()

	signals := t.bus.Signals()
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				logger.Warn("[bluetooth] signal channel closed")
				signals = nil
				continue
			}
			t.subs.Dispatch(sig)
		case cmd := <-t.commands:
			cmd.done <- cmd.fn()
		}
	}
}

func (t *Tracker) Events() <-chan events.Event {
	return t.eventsC
}

func (t *Tracker) NowPlaying() NowPlaying {
	np, _ := t.snapshot.Get(nowPlayingKey)
	return np
}

// HandleNewConnection looks up the connected device and rebinds to it.
func (t *Tracker) HandleNewConnection(ctx context.Context) error {
	return t.submit(ctx, func() error { return t.connect("", true) })
}

// HandleDisconnection tears down the current binding. Calling it while
// already disconnected is a no-op apart from the republished placeholder.
func (t *Tracker) HandleDisconnection(ctx context.Context) error {
	return t.submit(ctx, func() error {
		t.disconnect()
		return nil
	})
}

func (t *Tracker) TogglePlayPause(ctx context.Context) error {
	return t.submit(ctx, func() error {
		return t.controller.TogglePlayPause(t.state.handles, t.state.playback)
	})
}

func (t *Tracker) Play(ctx context.Context) error {
	return t.submit(ctx, func() error { return t.controller.Play(t.state.handles) })
}

func (t *Tracker) Pause(ctx context.Context) error {
	return t.submit(ctx, func() error { return t.controller.Pause(t.state.handles) })
}

func (t *Tracker) Next(ctx context.Context) error {
	return t.submit(ctx, func() error { return t.controller.Next(t.state.handles) })
}

func (t *Tracker) Previous(ctx context.Context) error {
	return t.submit(ctx, func() error { return t.controller.Previous(t.state.handles) })
}

func (t *Tracker) submit(ctx context.Context, fn func() error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case t.commands <- cmd:
	case <-t.stopped:
		return ErrTrackerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) startup() error {
	if err := t.subs.Replace(deviceSubscription(t.onDeviceChanged)); err != nil {
		return err
	}
	if err := t.subs.Replace(objectsSubscription(t.onObjectsChanged)); err != nil {
		t.subs.CancelAll()
		return err
	}

	objs, err := t.locator.Snapshot()
	if err != nil {
		t.subs.CancelAll()
		return err
	}

	addr, devPath, ok := t.locator.ConnectedDevice(objs)
	if !ok {
		logger.Info("[bluetooth] no connected device")
		t.disconnect()
		t.state.ignore = false
		return nil
	}
	t.bind(addr, devPath, objs)
	return nil
}

// connect binds to the device at hint when it is connected, otherwise to the
// first connected device.
func (t *Tracker) connect(hint dbus.ObjectPath, settle bool) error {
	t.state.ignore = false

	objs, err := t.locator.Snapshot()
	if err != nil {
		logger.Error("[bluetooth] %v", err)
		return err
	}

	var addr DeviceAddress
	var devPath dbus.ObjectPath
	if hint != "" && t.locator.DeviceConnected(objs, hint) {
		addr, devPath = deviceAddress(hint, objs[hint][BLUETOOTH_DEVICE]), hint
	} else {
		var ok bool
		if addr, devPath, ok = t.locator.ConnectedDevice(objs); !ok {
			logger.Info("[bluetooth] no connected device found")
			t.unbind()
			t.publishNoDevice()
			return &ResourceUnavailableError{Kind: KindDevice}
		}
	}

	if settle {
		var present bool
		if objs, present = t.settleObjects(addr, devPath, objs); !present {
			logger.Info("[bluetooth] %s disconnected while settling", addr)
			t.unbind()
			t.publishNoDevice()
			return &ResourceUnavailableError{Kind: KindDevice, Path: devPath}
		}
	}

	t.bind(addr, devPath, objs)
	return nil
}

// settleObjects polls the object tree until the device exports both player
// and transport, the device goes away, or the attempts run out.
func (t *Tracker) settleObjects(addr DeviceAddress, devPath dbus.ObjectPath, objs ManagedObjects) (ManagedObjects, bool) {
	if t.locator.Resolve(objs, addr).complete() || t.settle.Attempts <= 0 {
		return objs, true
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.settle.Initial
	b.MaxInterval = t.settle.Max
	b.MaxElapsedTime = 0
	b.Reset()

	latest, present := objs, true
	op := func() error {
		snap, err := t.locator.Snapshot()
		if err != nil {
			return err
		}
		latest = snap
		if !t.locator.DeviceConnected(snap, devPath) {
			present = false
			return nil
		}
		if !t.locator.Resolve(snap, addr).complete() {
			return errObjectsPending
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithMaxRetries(b, uint64(t.settle.Attempts))); err != nil {
		logger.Debug("[bluetooth] settling %s ended: %v", addr, err)
	}
	return latest, present
}

func (t *Tracker) bind(addr DeviceAddress, devPath dbus.ObjectPath, objs ManagedObjects) {
	t.unbind()

	paths := t.locator.Resolve(objs, addr)
	if devPath != "" {
		paths.Device = devPath
	}
	t.state.address = addr
	t.state.paths = paths
	t.state.bound = true
	t.state.ignore = false
	t.state.handles = ResourceHandles{}
	if paths.Device != "" {
		t.state.handles.Device = t.bus.Object(paths.Device)
	}

	logger.Info("[bluetooth] bound to %s (player=%q transport=%q)", addr, paths.Player, paths.Transport)
	t.publishDevice()

	// transport first so the player's own status wins
	if paths.Transport != "" {
		t.bindTransport(paths.Transport)
	} else {
		logger.Warn("[bluetooth] %v", &ResourceUnavailableError{Kind: KindTransport})
	}
	if paths.Player != "" {
		t.bindPlayer(paths.Player)
	} else {
		logger.Warn("[bluetooth] %v", &ResourceUnavailableError{Kind: KindPlayer})
	}
}

func (t *Tracker) bindPlayer(p dbus.ObjectPath) {
	h, props, err := t.acquire(KindPlayer, p, BLUETOOTH_PLAYER)
	if err != nil {
		logger.Warn("[bluetooth] %v", err)
		return
	}
	if err := t.subs.Replace(propertiesSubscription(KindPlayer, p, BLUETOOTH_PLAYER, t.dispatcher.OnPlayerChanged)); err != nil {
		logger.Warn("[bluetooth] %v", err)
	}
	t.state.paths.Player = p
	t.state.handles.Player = h
	t.updateSnapshot(func(np *NowPlaying) { np.Paths = t.state.paths })

	t.dispatcher.initialTrack(props)
	t.dispatcher.initialPlayerStatus(props)
}

func (t *Tracker) bindTransport(p dbus.ObjectPath) {
	h, props, err := t.acquire(KindTransport, p, BLUETOOTH_TRANSPORT)
	if err != nil {
		logger.Warn("[bluetooth] %v", err)
		return
	}
	if err := t.subs.Replace(propertiesSubscription(KindTransport, p, BLUETOOTH_TRANSPORT, t.dispatcher.OnTransportChanged)); err != nil {
		logger.Warn("[bluetooth] %v", err)
	}
	t.state.paths.Transport = p
	t.state.handles.Transport = h
	t.updateSnapshot(func(np *NowPlaying) { np.Paths = t.state.paths })

	t.dispatcher.initialTransportStatus(props)
}

func (t *Tracker) acquire(kind ResourceKind, p dbus.ObjectPath, iface string) (Resource, map[string]dbus.Variant, error) {
	r := t.bus.Object(p)
	props, err := r.GetAll(iface)
	if err != nil {
		return nil, nil, &ResourceUnavailableError{Kind: kind, Path: p, Err: err}
	}
	logger.Debug("[bluetooth] %s %s properties: %v", kind, p, idbus.Keys(props))
	return r, props, nil
}

// unbind drops per-device subscriptions and handles. The device and objects
// listeners stay armed.
func (t *Tracker) unbind() {
	t.subs.Cancel(KindPlayer, KindTransport)
	t.state = trackerState{ignore: t.state.ignore}
}

func (t *Tracker) disconnect() {
	if t.state.bound {
		logger.Info("[bluetooth] %s disconnected", t.state.address)
	}
	t.state.ignore = true
	t.unbind()
	t.publishNoDevice()
}

func (t *Tracker) onDeviceChanged(sig *dbus.Signal) {
	changed, iface, err := idbus.FilterSignal(sig)
	if err != nil {
		logger.Warn("[bluetooth] %v", &MalformedPayloadError{Kind: KindDevice, Err: err})
		return
	}
	if iface != BLUETOOTH_DEVICE {
		return
	}
	connected, ok := idbus.MapBoolOK(changed, BT_PROP_CONNECTED)
	if !ok {
		return
	}

	if connected {
		logger.Info("[bluetooth] device %s connected", sig.Path)
		if err := t.connect(sig.Path, true); err != nil {
			logger.Debug("[bluetooth] connect after %s: %v", sig.Path, err)
		}
		return
	}

	if t.state.bound && sig.Path != t.state.paths.Device {
		logger.Debug("[bluetooth] ignoring disconnect of unbound device %s", sig.Path)
		return
	}
	wasBound := t.state.bound
	t.disconnect()
	if wasBound {
		t.adoptRemaining(sig.Path)
	}
}

// adoptRemaining binds to another device that is still connected after the
// bound one went away.
func (t *Tracker) adoptRemaining(gone dbus.ObjectPath) {
	objs, err := t.locator.Snapshot()
	if err != nil {
		logger.Debug("[bluetooth] %v", err)
		return
	}
	addr, devPath, ok := t.locator.ConnectedDeviceExcept(objs, gone)
	if !ok {
		return
	}
	logger.Info("[bluetooth] %s still connected, rebinding", addr)
	t.bind(addr, devPath, objs)
}

func (t *Tracker) onObjectsChanged(sig *dbus.Signal) {
	switch sig.Name {
	case idbus.SIGNAL_INTERFACES_ADDED:
		t.onInterfacesAdded(sig)
	case idbus.SIGNAL_INTERFACES_REMOVED:
		t.onInterfacesRemoved(sig)
	}
}

func (t *Tracker) onInterfacesAdded(sig *dbus.Signal) {
	p, ifaces, err := idbus.FilterInterfacesAdded(sig)
	if err != nil {
		logger.Warn("[bluetooth] %v", &MalformedPayloadError{Kind: KindObjects, Err: err})
		return
	}

	if !t.state.bound {
		if dev, ok := ifaces[BLUETOOTH_DEVICE]; ok && idbus.MapBool(dev, BT_PROP_CONNECTED) {
			logger.Info("[bluetooth] connected device %s appeared", p)
			if err := t.connect(p, true); err != nil {
				logger.Debug("[bluetooth] connect after %s appeared: %v", p, err)
			}
		}
		return
	}
	if !t.state.address.Matches(p) {
		return
	}
	if _, ok := ifaces[BLUETOOTH_TRANSPORT]; ok && t.state.handles.Transport == nil {
		logger.Info("[bluetooth] transport %s appeared", p)
		t.bindTransport(p)
	}
	if _, ok := ifaces[BLUETOOTH_PLAYER]; ok && t.state.handles.Player == nil {
		logger.Info("[bluetooth] player %s appeared", p)
		t.bindPlayer(p)
	}
}

func (t *Tracker) onInterfacesRemoved(sig *dbus.Signal) {
	p, ifaces, err := idbus.FilterInterfacesRemoved(sig)
	if err != nil {
		logger.Warn("[bluetooth] %v", &MalformedPayloadError{Kind: KindObjects, Err: err})
		return
	}
	if !t.state.bound {
		return
	}
	removed := false
	for _, iface := range ifaces {
		switch {
		case iface == BLUETOOTH_PLAYER && p == t.state.paths.Player:
			logger.Info("[bluetooth] player %s removed", p)
			t.subs.Cancel(KindPlayer)
			t.state.paths.Player = ""
			t.state.handles.Player = nil
			removed = true
		case iface == BLUETOOTH_TRANSPORT && p == t.state.paths.Transport:
			logger.Info("[bluetooth] transport %s removed", p)
			t.subs.Cancel(KindTransport)
			t.state.paths.Transport = ""
			t.state.handles.Transport = nil
			removed = true
		}
	}
	t.updateSnapshot(func(np *NowPlaying) { np.Paths = t.state.paths })
	if removed {
		t.rebindRemaining(p, ifaces)
	}
}

// rebindRemaining binds a replacement player or transport that BlueZ
// exported before removing the old one.
func (t *Tracker) rebindRemaining(removed dbus.ObjectPath, ifaces []string) {
	objs, err := t.locator.Snapshot()
	if err != nil {
		logger.Debug("[bluetooth] %v", err)
		return
	}
	paths := t.locator.Resolve(withoutInterfaces(objs, removed, ifaces), t.state.address)
	if t.state.handles.Transport == nil && paths.Transport != "" {
		logger.Info("[bluetooth] rebinding transport %s", paths.Transport)
		t.bindTransport(paths.Transport)
	}
	if t.state.handles.Player == nil && paths.Player != "" {
		logger.Info("[bluetooth] rebinding player %s", paths.Player)
		t.bindPlayer(paths.Player)
	}
}

// withoutInterfaces returns objs minus ifaces on p, leaving objs untouched.
// The snapshot may still list an object whose removal signal was just seen.
func withoutInterfaces(objs ManagedObjects, p dbus.ObjectPath, ifaces []string) ManagedObjects {
	current, ok := objs[p]
	if !ok {
		return objs
	}
	out := make(ManagedObjects, len(objs))
	for k, v := range objs {
		out[k] = v
	}
	kept := make(map[string]map[string]dbus.Variant, len(current))
	for iface, props := range current {
		if !slices.Contains(ifaces, iface) {
			kept[iface] = props
		}
	}
	out[p] = kept
	return out
}

func (t *Tracker) trackChanged(text string) {
	t.updateSnapshot(func(np *NowPlaying) {
		np.Track = text
		if np.Device.Connected && text != MSG_WAITING_FOR_INFO {
			np.Device.Message = ""
		}
	})
	t.notify(events.Event{Type: events.TypeTrackChanged, Data: TrackChangedData{Track: text}})
}

func (t *Tracker) playbackStatusChanged(status PlaybackStatus) {
	t.state.playback.Playing = status == StatusPlaying
	t.updateSnapshot(func(np *NowPlaying) { np.Status = status })
	t.notify(events.Event{Type: events.TypePlaybackStatus, Data: PlaybackStatusData{Status: status}})
}

// publishDevice announces the binding. Until a player reports a track the
// snapshot shows the waiting placeholder without a track event.
func (t *Tracker) publishDevice() {
	state := DeviceState{Connected: true, Address: t.state.address, Message: MSG_WAITING_FOR_INFO}
	t.snapshot.Set(nowPlayingKey, NowPlaying{Device: state, Track: MSG_WAITING_FOR_INFO, Paths: t.state.paths})
	t.notify(events.Event{Type: events.TypeDeviceState, Data: state})
}

func (t *Tracker) publishNoDevice() {
	np := noDevice()
	t.snapshot.Set(nowPlayingKey, np)
	t.notify(events.Event{Type: events.TypeDeviceState, Data: np.Device})
	t.notify(events.Event{Type: events.TypeTrackChanged, Data: TrackChangedData{Track: np.Track}})
}

func (t *Tracker) updateSnapshot(fn func(*NowPlaying)) {
	t.snapshot.Update(nowPlayingKey, func(np NowPlaying, _ bool) NowPlaying {
		fn(&np)
		return np
	})
}

func (t *Tracker) notify(e events.Event) {
	select {
	case t.eventsC <- e:
	default:
		logger.Warn("[bluetooth] event channel full, dropping %s event", e.Type)
	}
}

func noDevice() NowPlaying {
	return NowPlaying{
		Device: DeviceState{Message: MSG_NO_DEVICE},
		Track:  MSG_NO_DEVICE,
	}
}
