package dbus

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

// DefaultTimeout is used when a caller passes a non-positive timeout.
var DefaultTimeout = 5 * time.Second

// ManagedObjects is the GetManagedObjects reply: path → interface → properties.
type ManagedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Call invokes method on obj, bounded by timeout.
func Call(obj dbus.BusObject, timeout time.Duration, method string, args ...interface{}) *dbus.Call {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	call := obj.CallWithContext(ctx, method, 0, args...)
	if call.Err != nil && errors.Is(call.Err, context.DeadlineExceeded) {
		call.Err = &TimeoutError{Method: method}
	}
	return call
}

// CallMethod calls a method and only reports the error.
func CallMethod(obj dbus.BusObject, timeout time.Duration, method string, args ...interface{}) error {
	return Call(obj, timeout, method, args...).Err
}

// GetProperty retrieves a single property from a D-Bus object.
func GetProperty(obj dbus.BusObject, timeout time.Duration, iface, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	call := Call(obj, timeout, PROP_GET, iface, prop)
	if call.Err != nil {
		return dbus.Variant{}, call.Err
	}
	if err := call.Store(&v); err != nil {
		return dbus.Variant{}, err
	}
	return v, nil
}

// GetAllProperties retrieves all properties of a D-Bus interface in a single call.
func GetAllProperties(obj dbus.BusObject, timeout time.Duration, iface string) (map[string]dbus.Variant, error) {
	var props map[string]dbus.Variant
	call := Call(obj, timeout, PROP_GET_ALL, iface)
	if call.Err != nil {
		return nil, call.Err
	}
	return props, call.Store(&props)
}

// GetManagedObjects fetches the ObjectManager snapshot rooted at obj.
func GetManagedObjects(obj dbus.BusObject, timeout time.Duration) (ManagedObjects, error) {
	var objs ManagedObjects
	call := Call(obj, timeout, MANAGED_OBJECTS)
	if call.Err != nil {
		return nil, call.Err
	}
	return objs, call.Store(&objs)
}

// AddMatchRule subscribes to a D-Bus signal via a match rule.
func AddMatchRule(conn *dbus.Conn, rule string) error {
	return conn.BusObject().Call(BUS_ADD_MATCH, 0, rule).Err
}

// RemoveMatchRule unsubscribes from a D-Bus signal match rule.
func RemoveMatchRule(conn *dbus.Conn, rule string) error {
	return conn.BusObject().Call(BUS_REMOVE_MATCH, 0, rule).Err
}

// PropertiesChangedRule builds a match rule for PropertiesChanged on one
// object path, restricted to iface when non-empty.
func PropertiesChangedRule(path dbus.ObjectPath, iface string) string {
	parts := []string{
		"type='signal'",
		"interface='" + DBUS_PROP_IFACE + "'",
		"member='" + MEMBER_PROPERTIES_CHANGED + "'",
		"path='" + string(path) + "'",
	}
	if iface != "" {
		parts = append(parts, "arg0='"+iface+"'")
	}
	return strings.Join(parts, ",")
}

// NamespacePropertiesChangedRule matches PropertiesChanged for iface on every
// object below namespace.
func NamespacePropertiesChangedRule(namespace, iface string) string {
	return strings.Join([]string{
		"type='signal'",
		"interface='" + DBUS_PROP_IFACE + "'",
		"member='" + MEMBER_PROPERTIES_CHANGED + "'",
		"path_namespace='" + namespace + "'",
		"arg0='" + iface + "'",
	}, ",")
}

// ObjectManagerRule matches every ObjectManager signal (InterfacesAdded and
// InterfacesRemoved) emitted by sender.
func ObjectManagerRule(sender string) string {
	return strings.Join([]string{
		"type='signal'",
		"sender='" + sender + "'",
		"interface='" + DBUS_OBJECT_MNGR + "'",
	}, ",")
}

// FilterSignal parses a PropertiesChanged D-Bus signal body.
// Returns changed properties map and interface name, or an error if malformed.
func FilterSignal(sig *dbus.Signal) (map[string]dbus.Variant, string, error) {
	if sig == nil {
		return nil, "", &SignalError{Reason: "channel closed"}
	}
	if len(sig.Body) < 2 {
		return nil, "", &SignalError{Reason: "body too short"}
	}
	iface, ok := sig.Body[0].(string)
	if !ok {
		return nil, "", &SignalError{Reason: "failed to parse interface name"}
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, "", &SignalError{Reason: "body[1] is not map[string]Variant"}
	}
	return changed, iface, nil
}

// FilterInterfacesAdded parses an InterfacesAdded signal body.
func FilterInterfacesAdded(sig *dbus.Signal) (dbus.ObjectPath, map[string]map[string]dbus.Variant, error) {
	if sig == nil {
		return "", nil, &SignalError{Reason: "channel closed"}
	}
	if len(sig.Body) < 2 {
		return "", nil, &SignalError{Reason: "body too short"}
	}
	path, ok := sig.Body[0].(dbus.ObjectPath)
	if !ok {
		return "", nil, &SignalError{Reason: "failed to parse object path"}
	}
	ifaces, ok := sig.Body[1].(map[string]map[string]dbus.Variant)
	if !ok {
		return "", nil, &SignalError{Reason: "body[1] is not map[string]map[string]Variant"}
	}
	return path, ifaces, nil
}

// FilterInterfacesRemoved parses an InterfacesRemoved signal body.
func FilterInterfacesRemoved(sig *dbus.Signal) (dbus.ObjectPath, []string, error) {
	if sig == nil {
		return "", nil, &SignalError{Reason: "channel closed"}
	}
	if len(sig.Body) < 2 {
		return "", nil, &SignalError{Reason: "body too short"}
	}
	path, ok := sig.Body[0].(dbus.ObjectPath)
	if !ok {
		return "", nil, &SignalError{Reason: "failed to parse object path"}
	}
	ifaces, ok := sig.Body[1].([]string)
	if !ok {
		return "", nil, &SignalError{Reason: "body[1] is not []string"}
	}
	return path, ifaces, nil
}

// --- Variant extraction helpers ---

// ExtractString extracts a string from a dbus.Variant.
func ExtractString(v dbus.Variant) (string, bool) {
	val, ok := v.Value().(string)
	return val, ok
}

// ExtractBool extracts a bool from a dbus.Variant.
func ExtractBool(v dbus.Variant) (bool, bool) {
	val, ok := v.Value().(bool)
	return val, ok
}

// ExtractVariantMap extracts a map[string]dbus.Variant from a dbus.Variant.
func ExtractVariantMap(v dbus.Variant) (map[string]dbus.Variant, bool) {
	val, ok := v.Value().(map[string]dbus.Variant)
	return val, ok
}

// --- Map helpers (props map[string]dbus.Variant) ---

// MapString extracts a string from a props map by key.
func MapString(props map[string]dbus.Variant, key string) string {
	s, _ := MapStringOK(props, key)
	return s
}

// MapStringOK extracts a string from a props map by key, with existence check.
func MapStringOK(props map[string]dbus.Variant, key string) (string, bool) {
	if v, ok := props[key]; ok {
		return ExtractString(v)
	}
	return "", false
}

// MapBool extracts a bool from a props map by key.
func MapBool(props map[string]dbus.Variant, key string) bool {
	b, _ := MapBoolOK(props, key)
	return b
}

// MapBoolOK extracts a bool from a props map by key, with existence check.
func MapBoolOK(props map[string]dbus.Variant, key string) (bool, bool) {
	if v, ok := props[key]; ok {
		return ExtractBool(v)
	}
	return false, false
}

// Keys returns the keys of a props map (useful for debug logging).
func Keys(props map[string]dbus.Variant) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	return keys
}
