package bluetooth

import (
	"strings"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-btmedia/backend/internal/dbus"
)

// ManagedObjects is a BlueZ object tree snapshot.
type ManagedObjects = idbus.ManagedObjects

// DeviceAddress identifies a remote device, in whatever form BlueZ reported it
// ("44:35:83:3E:0E:0A" or the "dev_44_35_83_3E_0E_0A" path segment).
type DeviceAddress string

// Normalized returns the address in the form used inside BlueZ object paths,
// lowercased so matching ignores case.
func (a DeviceAddress) Normalized() string {
	return strings.ToLower(strings.ReplaceAll(string(a), ":", "_"))
}

// Matches reports whether path belongs to the device.
func (a DeviceAddress) Matches(path dbus.ObjectPath) bool {
	if a == "" {
		return false
	}
	return strings.Contains(strings.ToLower(string(path)), a.Normalized())
}

type ResourceKind string

const (
	KindDevice    ResourceKind = "device"
	KindPlayer    ResourceKind = "player"
	KindTransport ResourceKind = "transport"
	KindObjects   ResourceKind = "objects"
)

// ResourcePaths holds the object paths resolved for the bound device. An empty
// path means the resource was not found.
type ResourcePaths struct {
	Device    dbus.ObjectPath `json:"device,omitempty"`
	Player    dbus.ObjectPath `json:"player,omitempty"`
	Transport dbus.ObjectPath `json:"transport,omitempty"`
}

func (p ResourcePaths) complete() bool {
	return p.Player != "" && p.Transport != ""
}

// ResourceHandles are the bus proxies for the bound device. A nil handle means
// the resource is not available.
type ResourceHandles struct {
	Device    Resource
	Player    Resource
	Transport Resource
}

type PlaybackStatus string

const (
	StatusPlaying PlaybackStatus = "playing"
	StatusPaused  PlaybackStatus = "paused"
)

// PlaybackState is the locally tracked play/pause state used for toggling.
type PlaybackState struct {
	Playing bool
}

type TrackInfo struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
}

// Informative reports whether title or artist carries a real value.
func (t TrackInfo) Informative() bool {
	return informative(t.Title) || informative(t.Artist)
}

func informative(s string) bool {
	return s != "" && s != UNKNOWN
}

type DeviceState struct {
	Connected bool          `json:"connected"`
	Address   DeviceAddress `json:"address,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// NowPlaying is the presentation snapshot served to clients.
type NowPlaying struct {
	Device DeviceState    `json:"device"`
	Track  string         `json:"track"`
	Status PlaybackStatus `json:"status,omitempty"`
	Paths  ResourcePaths  `json:"paths"`
}
