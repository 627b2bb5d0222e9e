package events

import "slices"

const (
	TypeServerInfo     = "server.info"
	TypeTrackChanged   = "track.changed"
	TypePlaybackStatus = "playback.status"
	TypeDeviceState    = "device.state"
	TypeVolumeUpdated  = "volume.updated"
)

// BackendTypes maps a backend name to the event types it emits.
var BackendTypes = map[string][]string{
	"bluetooth": {TypeTrackChanged, TypePlaybackStatus, TypeDeviceState},
	"volume":    {TypeVolumeUpdated},
}

type Event struct {
	Type string
	Data any
}

// FilterTypes returns a filter passing only the given types, or nil (pass-all)
// when types is empty.
func FilterTypes(types []string) func(Event) bool {
	if len(types) == 0 {
		return nil
	}
	return func(e Event) bool {
		return slices.Contains(types, e.Type)
	}
}

// FilterBackend returns a filter passing the event types of the named
// backends. Unknown names are ignored; nil means pass-all.
func FilterBackend(names []string) func(Event) bool {
	var types []string
	for _, name := range names {
		types = append(types, BackendTypes[name]...)
	}
	return FilterTypes(types)
}

// NewFilter combines include and exclude lists. An empty include list passes
// every type not excluded. Returns nil when both lists are empty.
func NewFilter(include, exclude []string) func(Event) bool {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	return func(e Event) bool {
		if slices.Contains(exclude, e.Type) {
			return false
		}
		return len(include) == 0 || slices.Contains(include, e.Type)
	}
}
