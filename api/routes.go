package api

import (
	"net/http"

	"github.com/b0bbywan/go-odio-btmedia/backend"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

func (s *Server) registerServerRoutes(b *backend.Backend) {
	s.mux.HandleFunc(
		"GET /server",
		JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
			return b.GetServerDeviceInfo(r.Context())
		}),
	)

	if s.broadcaster == nil {
		return
	}

	var player Player
	if b.Bluetooth != nil {
		player = b.Bluetooth
	}

	if s.config.SSE {
		s.mux.HandleFunc("GET /events", sseHandler(s.broadcaster))
		logger.Info("[api] SSE route registered at /events")
	}

	if s.config.WebSocket {
		s.mux.HandleFunc("GET /ws", wsHandler(s.broadcaster, player, s.config.CORSOrigins))
		logger.Info("[api] websocket route registered at /ws")
	}
}

func (s *Server) registerBluetoothRoutes(p Player) {
	s.mux.HandleFunc(
		"GET /nowplaying",
		JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
			return p.NowPlaying(), nil
		}),
	)

	actions := playerActions(p)
	for _, name := range []string{"play_pause", "play", "pause", "next", "previous"} {
		s.mux.HandleFunc("POST /player/"+name, withBluetoothAction(actions[name]))
	}
	s.mux.HandleFunc("POST /connection/refresh", withBluetoothAction(actions["refresh"]))
	s.mux.HandleFunc("POST /connection/reset", withBluetoothAction(actions["reset"]))
}

func (s *Server) registerVolumeRoutes(v Volume) {
	s.mux.HandleFunc("GET /volume", volumeHandler(v, v.Level))
	s.mux.HandleFunc("POST /volume/up", volumeHandler(v, v.Up))
	s.mux.HandleFunc("POST /volume/down", volumeHandler(v, v.Down))
}
