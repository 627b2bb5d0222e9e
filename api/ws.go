package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/b0bbywan/go-odio-btmedia/backend"
	"github.com/b0bbywan/go-odio-btmedia/events"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

const (
	wsWriteWait   = 5 * time.Second
	wsPongWait    = 60 * time.Second
	wsPingPeriod  = wsPongWait * 9 / 10
	wsMaxMessage  = 1024
	typeCmdResult = "command.result"
)

type wsMessage struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type wsCommand struct {
	Action string `json:"action"`
}

type wsResult struct {
	Action string `json:"action"`
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

var errNoPlayer = errors.New("bluetooth backend disabled")

// newUpgrader accepts same-host pages and the configured CORS origins.
func newUpgrader(origins []string) *websocket.Upgrader {
	wildcard := slices.Contains(origins, "*")
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || wildcard || slices.Contains(origins, origin) {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// wsHandler streams events like /events and accepts {"action": "..."}
// commands, answered with a command.result message.
func wsHandler(b *backend.Broadcaster, p Player, origins []string) http.HandlerFunc {
	upgrader := newUpgrader(origins)
	var actions map[string]func(context.Context) error
	if p != nil {
		actions = playerActions(p)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("[ws] failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()

		session := uuid.NewString()
		ch := b.SubscribeFunc(filter)
		defer b.Unsubscribe(ch)
		logger.Debug("[ws] session %s opened from %s", session, r.RemoteAddr)
		defer logger.Debug("[ws] session %s closed", session)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		results := make(chan wsMessage, 8)
		go wsReadLoop(ctx, cancel, conn, actions, results)

		if err := wsWrite(conn, wsMessage{Type: events.TypeServerInfo, Session: session, Data: "connected"}); err != nil {
			return
		}

		ping := time.NewTicker(wsPingPeriod)
		defer ping.Stop()

		for {
			var err error
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
					time.Now().Add(wsWriteWait),
				)
				return
			case e, ok := <-ch:
				if !ok {
					return
				}
				err = wsWrite(conn, wsMessage{Type: e.Type, Data: e.Data})
			case m := <-results:
				err = wsWrite(conn, m)
			case <-ping.C:
				err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
			}
			if err != nil {
				logger.Debug("[ws] session %s write failed: %v", session, err)
				return
			}
		}
	}
}

func wsWrite(conn *websocket.Conn, m wsMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(m)
}

// wsReadLoop owns the read side of conn. It cancels the session when the
// client goes away.
func wsReadLoop(
	ctx context.Context,
	cancel context.CancelFunc,
	conn *websocket.Conn,
	actions map[string]func(context.Context) error,
	results chan<- wsMessage,
) {
	defer cancel()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("[ws] read failed: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		result := runCommand(ctx, actions, cmd.Action)
		select {
		case results <- wsMessage{Type: typeCmdResult, Data: result}:
		case <-ctx.Done():
			return
		}
	}
}

func runCommand(ctx context.Context, actions map[string]func(context.Context) error, name string) wsResult {
	res := wsResult{Action: name, Status: http.StatusAccepted}
	if actions == nil {
		res.Status, res.Error = http.StatusNotFound, errNoPlayer.Error()
		return res
	}
	action, ok := actions[name]
	if !ok {
		res.Status, res.Error = http.StatusBadRequest, "unknown action"
		return res
	}
	if err := action(ctx); err != nil {
		res.Status, res.Error = statusFor(err), err.Error()
	}
	return res
}
