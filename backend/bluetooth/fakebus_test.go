package bluetooth

import (
	"errors"
	"sync"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-btmedia/backend/internal/dbus"
)

const (
	testAddr      = "44:35:83:3E:0E:0A"
	testDevice    = dbus.ObjectPath("/org/bluez/hci0/dev_44_35_83_3E_0E_0A")
	testPlayer    = dbus.ObjectPath("/org/bluez/hci0/dev_44_35_83_3E_0E_0A/player0")
	testTransport = dbus.ObjectPath("/org/bluez/hci0/dev_44_35_83_3E_0E_0A/fd0")
)

var errUnknownObject = errors.New("org.freedesktop.DBus.Error.UnknownObject")

// fakeBus serves a mutable object tree. Snapshots queued in next are
// returned, one per call, before falling back to objs.
type fakeBus struct {
	mu      sync.Mutex
	objs    ManagedObjects
	next    []ManagedObjects
	snapErr error
	addErr  error
	rules   map[string]int
	calls   []string
	callErr error
	signals chan *dbus.Signal
	closed  bool
}

func newFakeBus(objs ManagedObjects) *fakeBus {
	return &fakeBus{
		objs:    objs,
		rules:   make(map[string]int),
		signals: make(chan *dbus.Signal, 16),
	}
}

func (b *fakeBus) ManagedObjects() (ManagedObjects, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.snapErr != nil {
		return nil, b.snapErr
	}
	if len(b.next) > 0 {
		b.objs, b.next = b.next[0], b.next[1:]
	}
	return b.objs, nil
}

func (b *fakeBus) Object(p dbus.ObjectPath) Resource {
	return &fakeResource{bus: b, path: p}
}

func (b *fakeBus) AddMatch(rule string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.addErr != nil {
		return b.addErr
	}
	b.rules[rule]++
	return nil
}

func (b *fakeBus) RemoveMatch(rule string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rules[rule]--
	if b.rules[rule] <= 0 {
		delete(b.rules, rule)
	}
	return nil
}

func (b *fakeBus) Signals() <-chan *dbus.Signal {
	return b.signals
}

func (b *fakeBus) Close() error {
	b.closed = true
	return nil
}

func (b *fakeBus) setObjects(objs ManagedObjects) {
	b.mu.Lock()
	b.objs = objs
	b.mu.Unlock()
}

func (b *fakeBus) ruleCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.rules {
		n += c
	}
	return n
}

func (b *fakeBus) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

type fakeResource struct {
	bus  *fakeBus
	path dbus.ObjectPath
}

func (r *fakeResource) Path() dbus.ObjectPath { return r.path }

func (r *fakeResource) Get(iface, prop string) (dbus.Variant, error) {
	props, err := r.GetAll(iface)
	if err != nil {
		return dbus.Variant{}, err
	}
	v, ok := props[prop]
	if !ok {
		return dbus.Variant{}, errUnknownObject
	}
	return v, nil
}

func (r *fakeResource) GetAll(iface string) (map[string]dbus.Variant, error) {
	r.bus.mu.Lock()
	defer r.bus.mu.Unlock()
	props, ok := r.bus.objs[r.path][iface]
	if !ok || props == nil {
		return nil, errUnknownObject
	}
	return props, nil
}

func (r *fakeResource) Call(method string) error {
	r.bus.mu.Lock()
	defer r.bus.mu.Unlock()
	r.bus.calls = append(r.bus.calls, string(r.path)+" "+method)
	return r.bus.callErr
}

// --- object tree builders ---

type tree struct {
	objs ManagedObjects
}

func newTree() *tree {
	return &tree{objs: ManagedObjects{}}
}

func (t *tree) device(p dbus.ObjectPath, addr string, connected bool) *tree {
	props := map[string]dbus.Variant{
		BT_PROP_CONNECTED: dbus.MakeVariant(connected),
		BT_PROP_ADAPTER:   dbus.MakeVariant(dbus.ObjectPath("/org/bluez/hci0")),
	}
	if addr != "" {
		props[BT_PROP_ADDRESS] = dbus.MakeVariant(addr)
	}
	t.iface(p, BLUETOOTH_DEVICE, props)
	return t
}

func (t *tree) player(p dbus.ObjectPath, title, artist, status string) *tree {
	props := map[string]dbus.Variant{}
	if title != "" || artist != "" {
		props[PLAYER_PROP_TRACK] = trackVariant(title, artist, "")
	}
	if status != "" {
		props[PLAYER_PROP_STATUS] = dbus.MakeVariant(status)
	}
	t.iface(p, BLUETOOTH_PLAYER, props)
	return t
}

func (t *tree) transport(p dbus.ObjectPath, state string) *tree {
	t.iface(p, BLUETOOTH_TRANSPORT, map[string]dbus.Variant{
		TRANSPORT_PROP_STATE: dbus.MakeVariant(state),
	})
	return t
}

func (t *tree) iface(p dbus.ObjectPath, iface string, props map[string]dbus.Variant) {
	if t.objs[p] == nil {
		t.objs[p] = map[string]map[string]dbus.Variant{}
	}
	t.objs[p][iface] = props
}

func (t *tree) build() ManagedObjects {
	return t.objs
}

// --- signal builders ---

func trackVariant(title, artist, album string) dbus.Variant {
	fields := map[string]dbus.Variant{
		TRACK_TITLE:  dbus.MakeVariant(title),
		TRACK_ARTIST: dbus.MakeVariant(artist),
	}
	if album != "" {
		fields[TRACK_ALBUM] = dbus.MakeVariant(album)
	}
	return dbus.MakeVariant(fields)
}

func propertiesChanged(p dbus.ObjectPath, iface string, changed map[string]dbus.Variant) *dbus.Signal {
	return &dbus.Signal{
		Sender: ":1.5",
		Path:   p,
		Name:   idbus.SIGNAL_PROPERTIES_CHANGED,
		Body:   []interface{}{iface, changed, []string{}},
	}
}

func interfacesAdded(p dbus.ObjectPath, ifaces map[string]map[string]dbus.Variant) *dbus.Signal {
	return &dbus.Signal{
		Sender: ":1.5",
		Path:   ROOT_PATH,
		Name:   idbus.SIGNAL_INTERFACES_ADDED,
		Body:   []interface{}{p, ifaces},
	}
}

func interfacesRemoved(p dbus.ObjectPath, ifaces ...string) *dbus.Signal {
	return &dbus.Signal{
		Sender: ":1.5",
		Path:   ROOT_PATH,
		Name:   idbus.SIGNAL_INTERFACES_REMOVED,
		Body:   []interface{}{p, ifaces},
	}
}

// recorder is an emitter capturing dispatcher output.
type recorder struct {
	tracks   []string
	statuses []PlaybackStatus
}

func (r *recorder) trackChanged(text string) {
	r.tracks = append(r.tracks, text)
}

func (r *recorder) playbackStatusChanged(status PlaybackStatus) {
	r.statuses = append(r.statuses, status)
}
