package bluetooth

import (
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

// PlaybackController issues transport commands to the bound player. It never
// updates the playback state itself; the state follows the signals the
// player emits back.
type PlaybackController struct{}

// TogglePlayPause pauses when state reports playing and plays otherwise.
func (c PlaybackController) TogglePlayPause(h ResourceHandles, state PlaybackState) error {
	if state.Playing {
		return c.call(h, PLAYER_METHOD_PAUSE)
	}
	return c.call(h, PLAYER_METHOD_PLAY)
}

func (c PlaybackController) Play(h ResourceHandles) error {
	return c.call(h, PLAYER_METHOD_PLAY)
}

func (c PlaybackController) Pause(h ResourceHandles) error {
	return c.call(h, PLAYER_METHOD_PAUSE)
}

func (c PlaybackController) Next(h ResourceHandles) error {
	return c.call(h, PLAYER_METHOD_NEXT)
}

func (c PlaybackController) Previous(h ResourceHandles) error {
	return c.call(h, PLAYER_METHOD_PREVIOUS)
}

func (c PlaybackController) call(h ResourceHandles, method string) error {
	if h.Player == nil {
		return &NoActivePlayerError{}
	}
	logger.Debug("[bluetooth] %s on %s", method, h.Player.Path())
	if err := h.Player.Call(method); err != nil {
		return &RemoteCallFailedError{Method: method, Path: h.Player.Path(), Err: err}
	}
	return nil
}
