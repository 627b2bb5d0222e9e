package bluetooth

import (
	"errors"
	"path"
	"slices"
	"strings"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-btmedia/backend/internal/dbus"
)

// Locator finds connected devices and their media resources in a BlueZ
// object tree. Lookups are pure functions over a snapshot; only Snapshot
// touches the bus.
type Locator struct {
	bus     Bus
	adapter string
}

// NewLocator returns a locator restricted to devices of adapter ("hci0"), or
// to every adapter when adapter is empty.
func NewLocator(bus Bus, adapter string) *Locator {
	return &Locator{bus: bus, adapter: adapter}
}

func (l *Locator) Snapshot() (ManagedObjects, error) {
	objs, err := l.bus.ManagedObjects()
	if err != nil {
		var busErr *BusUnavailableError
		if !errors.As(err, &busErr) {
			err = &BusUnavailableError{Err: err}
		}
		return nil, err
	}
	return objs, nil
}

// ConnectedDevice returns the first connected device in path order.
func (l *Locator) ConnectedDevice(objs ManagedObjects) (DeviceAddress, dbus.ObjectPath, bool) {
	return l.ConnectedDeviceExcept(objs, "")
}

// ConnectedDeviceExcept is ConnectedDevice skipping the device at skip.
func (l *Locator) ConnectedDeviceExcept(objs ManagedObjects, skip dbus.ObjectPath) (DeviceAddress, dbus.ObjectPath, bool) {
	for _, p := range sortedPaths(objs) {
		if p == skip {
			continue
		}
		props, ok := objs[p][BLUETOOTH_DEVICE]
		if !ok || !l.onAdapter(props) {
			continue
		}
		if idbus.MapBool(props, BT_PROP_CONNECTED) {
			return deviceAddress(p, props), p, true
		}
	}
	return "", "", false
}

// DeviceConnected reports whether the device at p is still connected.
func (l *Locator) DeviceConnected(objs ManagedObjects, p dbus.ObjectPath) bool {
	props, ok := objs[p][BLUETOOTH_DEVICE]
	return ok && l.onAdapter(props) && idbus.MapBool(props, BT_PROP_CONNECTED)
}

// Resolve looks up every media resource belonging to addr.
func (l *Locator) Resolve(objs ManagedObjects, addr DeviceAddress) ResourcePaths {
	return ResourcePaths{
		Device:    FindDevicePath(objs, addr),
		Player:    FindPlayerPath(objs, addr),
		Transport: FindTransportPath(objs, addr),
	}
}

func (l *Locator) onAdapter(props map[string]dbus.Variant) bool {
	if l.adapter == "" {
		return true
	}
	adapter, ok := props[BT_PROP_ADAPTER]
	if !ok {
		return true
	}
	p, ok := adapter.Value().(dbus.ObjectPath)
	return !ok || path.Base(string(p)) == l.adapter
}

// FindConnectedDeviceAddress returns the first connected device on any
// adapter.
func FindConnectedDeviceAddress(objs ManagedObjects) (DeviceAddress, dbus.ObjectPath, bool) {
	return (&Locator{}).ConnectedDevice(objs)
}

func FindDevicePath(objs ManagedObjects, addr DeviceAddress) dbus.ObjectPath {
	for _, p := range sortedPaths(objs) {
		props, ok := objs[p][BLUETOOTH_DEVICE]
		if !ok {
			continue
		}
		if a := idbus.MapString(props, BT_PROP_ADDRESS); a != "" && strings.EqualFold(a, string(addr)) {
			return p
		}
		if pathMatchesDevice(p, addr) {
			return p
		}
	}
	return ""
}

// FindPlayerPath returns the first MediaPlayer1 object under addr.
func FindPlayerPath(objs ManagedObjects, addr DeviceAddress) dbus.ObjectPath {
	return findInterface(objs, addr, BLUETOOTH_PLAYER)
}

// FindTransportPath returns the first MediaTransport1 object under addr.
func FindTransportPath(objs ManagedObjects, addr DeviceAddress) dbus.ObjectPath {
	return findInterface(objs, addr, BLUETOOTH_TRANSPORT)
}

func findInterface(objs ManagedObjects, addr DeviceAddress, iface string) dbus.ObjectPath {
	for _, p := range sortedPaths(objs) {
		if _, ok := objs[p][iface]; ok && addr.Matches(p) {
			return p
		}
	}
	return ""
}

// pathMatchesDevice matches the device object itself, not its children.
func pathMatchesDevice(p dbus.ObjectPath, addr DeviceAddress) bool {
	base := strings.ToLower(path.Base(string(p)))
	norm := addr.Normalized()
	return base == norm || base == "dev_"+norm
}

// deviceAddress prefers the Address property and falls back to the last path
// segment.
func deviceAddress(p dbus.ObjectPath, props map[string]dbus.Variant) DeviceAddress {
	if a := idbus.MapString(props, BT_PROP_ADDRESS); a != "" {
		return DeviceAddress(a)
	}
	return DeviceAddress(path.Base(string(p)))
}

func sortedPaths(objs ManagedObjects) []dbus.ObjectPath {
	paths := make([]dbus.ObjectPath, 0, len(objs))
	for p := range objs {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}
