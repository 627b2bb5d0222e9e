package volume

import "fmt"

// MixerError wraps a failure from the underlying mixer.
type MixerError struct {
	Backend string
	Err     error
}

func (e *MixerError) Error() string {
	return fmt.Sprintf("volume: %s: %v", e.Backend, e.Err)
}

func (e *MixerError) Unwrap() error { return e.Err }
