package bluetooth

//go:generate mockgen -destination=mocks/resource_mock.go -package=mocks github.com/b0bbywan/go-odio-btmedia/backend/bluetooth Resource

import (
	"time"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-btmedia/backend/internal/dbus"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

// Resource is a proxy to a single BlueZ object.
type Resource interface {
	Path() dbus.ObjectPath
	Get(iface, prop string) (dbus.Variant, error)
	GetAll(iface string) (map[string]dbus.Variant, error)
	Call(method string) error
}

// Bus is the subset of the system bus the tracker needs.
type Bus interface {
	ManagedObjects() (ManagedObjects, error)
	Object(path dbus.ObjectPath) Resource
	AddMatch(rule string) error
	RemoveMatch(rule string) error
	Signals() <-chan *dbus.Signal
	Close() error
}

// SystemBus is a Bus backed by a godbus system bus connection.
type SystemBus struct {
	conn    *dbus.Conn
	timeout time.Duration
	signals chan *dbus.Signal
}

func ConnectSystemBus(timeout time.Duration) (*SystemBus, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, &BusUnavailableError{Err: err}
	}

	ch := make(chan *dbus.Signal, 32)
	conn.Signal(ch)

	return &SystemBus{
		conn:    conn,
		timeout: timeout,
		signals: ch,
	}, nil
}

func (b *SystemBus) ManagedObjects() (ManagedObjects, error) {
	objs, err := idbus.GetManagedObjects(b.conn.Object(BLUETOOTH_PREFIX, ROOT_PATH), b.timeout)
	if err != nil {
		return nil, &BusUnavailableError{Err: err}
	}
	return objs, nil
}

func (b *SystemBus) Object(path dbus.ObjectPath) Resource {
	return &busResource{
		obj:     b.conn.Object(BLUETOOTH_PREFIX, path),
		timeout: b.timeout,
	}
}

func (b *SystemBus) AddMatch(rule string) error {
	logger.Debug("[bluetooth] add match %s", rule)
	return idbus.AddMatchRule(b.conn, rule)
}

func (b *SystemBus) RemoveMatch(rule string) error {
	logger.Debug("[bluetooth] remove match %s", rule)
	return idbus.RemoveMatchRule(b.conn, rule)
}

func (b *SystemBus) Signals() <-chan *dbus.Signal {
	return b.signals
}

func (b *SystemBus) Close() error {
	if b.conn == nil {
		return nil
	}
	b.conn.RemoveSignal(b.signals)
	err := b.conn.Close()
	b.conn = nil
	return err
}

type busResource struct {
	obj     dbus.BusObject
	timeout time.Duration
}

func (r *busResource) Path() dbus.ObjectPath {
	return r.obj.Path()
}

func (r *busResource) Get(iface, prop string) (dbus.Variant, error) {
	return idbus.GetProperty(r.obj, r.timeout, iface, prop)
}

func (r *busResource) GetAll(iface string) (map[string]dbus.Variant, error) {
	return idbus.GetAllProperties(r.obj, r.timeout, iface)
}

func (r *busResource) Call(method string) error {
	return idbus.CallMethod(r.obj, r.timeout, method)
}
