package api

import (
	"net/http"

	"github.com/b0bbywan/go-odio-btmedia/backend/volume"
)

type Volume interface {
	Name() string
	Level() (int, error)
	Up() (int, error)
	Down() (int, error)
}

func volumeHandler(v Volume, fn func() (int, error)) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		level, err := fn()
		if err != nil {
			return nil, err
		}
		return volume.VolumeData{Level: level, Backend: v.Name()}, nil
	})
}
