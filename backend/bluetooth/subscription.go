package bluetooth

import (
	"strings"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-btmedia/backend/internal/dbus"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

type SignalFilter func(*dbus.Signal) bool
type SignalHandler func(*dbus.Signal)

// Subscription routes bus signals accepted by its filter to its handler
// until cancelled.
type Subscription struct {
	Kind ResourceKind
	Path dbus.ObjectPath

	rule    string
	filter  SignalFilter
	handler SignalHandler
	bus     Bus
	active  bool
}

func NewSubscription(kind ResourceKind, path dbus.ObjectPath, rule string, filter SignalFilter, handler SignalHandler) *Subscription {
	return &Subscription{
		Kind:    kind,
		Path:    path,
		rule:    rule,
		filter:  filter,
		handler: handler,
	}
}

// propertiesSubscription listens to PropertiesChanged on a single object.
func propertiesSubscription(kind ResourceKind, path dbus.ObjectPath, iface string, handler SignalHandler) *Subscription {
	return NewSubscription(kind, path,
		idbus.PropertiesChangedRule(path, iface),
		func(sig *dbus.Signal) bool {
			return sig.Name == idbus.SIGNAL_PROPERTIES_CHANGED && sig.Path == path
		},
		handler,
	)
}

// deviceSubscription listens to Device1 property changes on every object
// below the BlueZ root.
func deviceSubscription(handler SignalHandler) *Subscription {
	return NewSubscription(KindDevice, BLUEZ_PATH,
		idbus.NamespacePropertiesChangedRule(BLUEZ_PATH, BLUETOOTH_DEVICE),
		func(sig *dbus.Signal) bool {
			return sig.Name == idbus.SIGNAL_PROPERTIES_CHANGED &&
				strings.HasPrefix(string(sig.Path), BLUEZ_PATH+"/")
		},
		handler,
	)
}

// objectsSubscription listens to objects appearing and disappearing.
func objectsSubscription(handler SignalHandler) *Subscription {
	return NewSubscription(KindObjects, ROOT_PATH,
		idbus.ObjectManagerRule(BLUETOOTH_PREFIX),
		func(sig *dbus.Signal) bool {
			return sig.Name == idbus.SIGNAL_INTERFACES_ADDED ||
				sig.Name == idbus.SIGNAL_INTERFACES_REMOVED
		},
		handler,
	)
}

func (s *Subscription) Active() bool {
	return s != nil && s.active
}

// Cancel stops delivery and removes the match rule. Safe to call on a nil or
// already cancelled subscription.
func (s *Subscription) Cancel() {
	if !s.Active() {
		return
	}
	s.active = false
	if err := s.bus.RemoveMatch(s.rule); err != nil {
		logger.Warn("[bluetooth] failed to remove %s match on %s: %v", s.Kind, s.Path, err)
	}
	logger.Debug("[bluetooth] %s subscription on %s cancelled", s.Kind, s.Path)
}

func (s *Subscription) deliver(sig *dbus.Signal) bool {
	if !s.Active() || sig == nil || !s.filter(sig) {
		return false
	}
	s.handler(sig)
	return true
}

var subscriptionOrder = []ResourceKind{KindDevice, KindObjects, KindPlayer, KindTransport}

// SubscriptionSet holds at most one live subscription per resource kind.
type SubscriptionSet struct {
	bus  Bus
	subs map[ResourceKind]*Subscription
}

func NewSubscriptionSet(bus Bus) *SubscriptionSet {
	return &SubscriptionSet{
		bus:  bus,
		subs: make(map[ResourceKind]*Subscription),
	}
}

// Replace cancels any subscription of the same kind, then activates sub.
// On failure the kind is left unsubscribed.
func (s *SubscriptionSet) Replace(sub *Subscription) error {
	s.Cancel(sub.Kind)

	if err := s.bus.AddMatch(sub.rule); err != nil {
		return &ResourceUnavailableError{Kind: sub.Kind, Path: sub.Path, Err: err}
	}
	sub.bus = s.bus
	sub.active = true
	s.subs[sub.Kind] = sub
	logger.Debug("[bluetooth] %s subscription on %s active", sub.Kind, sub.Path)
	return nil
}

func (s *SubscriptionSet) Cancel(kinds ...ResourceKind) {
	for _, kind := range kinds {
		s.subs[kind].Cancel()
		delete(s.subs, kind)
	}
}

func (s *SubscriptionSet) CancelAll() {
	s.Cancel(subscriptionOrder...)
}

func (s *SubscriptionSet) Get(kind ResourceKind) *Subscription {
	return s.subs[kind]
}

func (s *SubscriptionSet) Len() int {
	return len(s.subs)
}

// Dispatch delivers sig to every matching subscription and returns how many
// handlers ran.
func (s *SubscriptionSet) Dispatch(sig *dbus.Signal) int {
	n := 0
	for _, kind := range subscriptionOrder {
		if sub, ok := s.subs[kind]; ok && sub.deliver(sig) {
			n++
		}
	}
	return n
}
