package bluetooth

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-btmedia/backend/internal/dbus"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

// emitter receives presentation updates produced by the dispatcher.
type emitter interface {
	trackChanged(text string)
	playbackStatusChanged(status PlaybackStatus)
}

// TrackFormat controls how track metadata is rendered for display.
type TrackFormat struct {
	Album   bool
	Padding bool
}

func (f TrackFormat) Format(t TrackInfo) string {
	text := t.Title + " - " + t.Artist
	if f.Album && informative(t.Album) {
		text += " (" + t.Album + ")"
	}
	if f.Padding {
		text += TRACK_PADDING
	}
	return text
}

// Dispatcher turns player and transport property changes into presentation
// updates.
type Dispatcher struct {
	format TrackFormat
	ignore func() bool
	out    emitter
}

func NewDispatcher(format TrackFormat, ignore func() bool, out emitter) *Dispatcher {
	if ignore == nil {
		ignore = func() bool { return false }
	}
	return &Dispatcher{format: format, ignore: ignore, out: out}
}

// OnPlayerChanged handles PropertiesChanged on the bound MediaPlayer1.
func (d *Dispatcher) OnPlayerChanged(sig *dbus.Signal) {
	if d.ignore() {
		return
	}
	changed, iface, err := idbus.FilterSignal(sig)
	if err != nil {
		logger.Warn("[bluetooth] %v", &MalformedPayloadError{Kind: KindPlayer, Err: err})
		return
	}
	if iface != BLUETOOTH_PLAYER {
		return
	}
	logger.Debug("[bluetooth] player %s changed: %v", sig.Path, idbus.Keys(changed))

	if v, ok := changed[PLAYER_PROP_TRACK]; ok {
		track, err := parseTrack(v)
		switch {
		case err != nil:
			logger.Warn("[bluetooth] %v", &MalformedPayloadError{Kind: KindPlayer, Err: err})
		case track.Informative():
			d.out.trackChanged(d.format.Format(track))
		default:
			logger.Debug("[bluetooth] uninformative track update dropped")
		}
	}

	if s, ok := idbus.MapStringOK(changed, PLAYER_PROP_STATUS); ok {
		if status, ok := playerStatus(s); ok {
			d.out.playbackStatusChanged(status)
		}
	}
}

// OnTransportChanged handles PropertiesChanged on the bound MediaTransport1.
func (d *Dispatcher) OnTransportChanged(sig *dbus.Signal) {
	if d.ignore() {
		return
	}
	changed, iface, err := idbus.FilterSignal(sig)
	if err != nil {
		logger.Warn("[bluetooth] %v", &MalformedPayloadError{Kind: KindTransport, Err: err})
		return
	}
	if iface != BLUETOOTH_TRANSPORT {
		return
	}

	if s, ok := idbus.MapStringOK(changed, TRANSPORT_PROP_STATE); ok {
		if status, ok := transportStatus(s); ok {
			d.out.playbackStatusChanged(status)
		}
	}
}

// initialTrack renders the track cached on the player when binding. Without
// usable metadata the waiting placeholder is shown instead.
func (d *Dispatcher) initialTrack(props map[string]dbus.Variant) {
	text := MSG_WAITING_FOR_INFO
	if v, ok := props[PLAYER_PROP_TRACK]; ok {
		if track, err := parseTrack(v); err == nil && track.Informative() {
			text = d.format.Format(track)
		}
	}
	d.out.trackChanged(text)
}

func (d *Dispatcher) initialPlayerStatus(props map[string]dbus.Variant) {
	if status, ok := playerStatus(idbus.MapString(props, PLAYER_PROP_STATUS)); ok {
		d.out.playbackStatusChanged(status)
	}
}

func (d *Dispatcher) initialTransportStatus(props map[string]dbus.Variant) {
	if status, ok := transportStatus(idbus.MapString(props, TRANSPORT_PROP_STATE)); ok {
		d.out.playbackStatusChanged(status)
	}
}

func parseTrack(v dbus.Variant) (TrackInfo, error) {
	fields, ok := idbus.ExtractVariantMap(v)
	if !ok {
		return TrackInfo{}, fmt.Errorf("track is %s, want a{sv}", v.Signature())
	}
	return TrackInfo{
		Title:  stringOr(fields, TRACK_TITLE, UNKNOWN),
		Artist: stringOr(fields, TRACK_ARTIST, UNKNOWN),
		Album:  idbus.MapString(fields, TRACK_ALBUM),
	}, nil
}

func stringOr(fields map[string]dbus.Variant, key, def string) string {
	if s, ok := idbus.MapStringOK(fields, key); ok {
		return s
	}
	return def
}

// transportStatus maps MediaTransport1.State; "pending" and unknown values
// carry no playback information.
func transportStatus(state string) (PlaybackStatus, bool) {
	switch state {
	case TRANSPORT_STATE_ACTIVE:
		return StatusPlaying, true
	case TRANSPORT_STATE_IDLE:
		return StatusPaused, true
	}
	return "", false
}

func playerStatus(status string) (PlaybackStatus, bool) {
	switch PlaybackStatus(status) {
	case StatusPlaying, StatusPaused:
		return PlaybackStatus(status), true
	}
	return "", false
}
