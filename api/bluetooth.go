package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/b0bbywan/go-odio-btmedia/backend/bluetooth"
	"github.com/b0bbywan/go-odio-btmedia/backend/volume"
)

// Player is the subset of the bluetooth backend the HTTP layer drives.
type Player interface {
	NowPlaying() bluetooth.NowPlaying
	HandleNewConnection(ctx context.Context) error
	HandleDisconnection(ctx context.Context) error
	TogglePlayPause(ctx context.Context) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
}

// statusFor maps backend errors to HTTP status codes.
func statusFor(err error) int {
	var (
		noPlayer    *bluetooth.NoActivePlayerError
		unavailable *bluetooth.ResourceUnavailableError
		remote      *bluetooth.RemoteCallFailedError
		bus         *bluetooth.BusUnavailableError
		mixer       *volume.MixerError
	)

	switch {
	case errors.As(err, &noPlayer), errors.As(err, &unavailable):
		return http.StatusNotFound
	case errors.As(err, &remote), errors.As(err, &mixer):
		return http.StatusBadGateway
	case errors.As(err, &bus), errors.Is(err, bluetooth.ErrTrackerStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleBluetoothError writes 202 on success, the mapped status otherwise.
func handleBluetoothError(w http.ResponseWriter, err error) {
	if err == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	http.Error(w, err.Error(), statusFor(err))
}

// withBluetoothAction wraps a player or connection command into an
// http.HandlerFunc bound to the request context.
func withBluetoothAction(action func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handleBluetoothError(w, action(r.Context()))
	}
}

// playerActions maps command names, shared by the REST routes and the
// websocket channel, to player operations.
func playerActions(p Player) map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"play_pause": p.TogglePlayPause,
		"play":       p.Play,
		"pause":      p.Pause,
		"next":       p.Next,
		"previous":   p.Previous,
		"refresh":    p.HandleNewConnection,
		"reset":      p.HandleDisconnection,
	}
}
