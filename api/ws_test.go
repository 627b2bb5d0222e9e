package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/b0bbywan/go-odio-btmedia/backend"
	"github.com/b0bbywan/go-odio-btmedia/backend/bluetooth"
	"github.com/b0bbywan/go-odio-btmedia/events"
)

type wsReply struct {
	Type    string          `json:"type"`
	Session string          `json:"session"`
	Data    json.RawMessage `json:"data"`
}

func dialWS(t *testing.T, h http.HandlerFunc, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+query, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) wsReply {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	var m wsReply
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	return m
}

func TestWSHandler_StreamsEvents(t *testing.T) {
	upstream := make(chan events.Event, 4)
	b := backend.NewBroadcaster(context.Background(), upstream)
	conn := dialWS(t, wsHandler(b, nil, nil), "?types=track.changed")

	hello := readWS(t, conn)
	if hello.Type != events.TypeServerInfo || hello.Session == "" {
		t.Fatalf("greeting = %+v, want server.info with session", hello)
	}

	upstream <- events.Event{Type: events.TypeVolumeUpdated, Data: 10}
	upstream <- events.Event{Type: events.TypeTrackChanged, Data: "Song - Band"}

	got := readWS(t, conn)
	if got.Type != events.TypeTrackChanged {
		t.Fatalf("event type = %s, want %s", got.Type, events.TypeTrackChanged)
	}
	var track string
	if err := json.Unmarshal(got.Data, &track); err != nil || track != "Song - Band" {
		t.Errorf("track = %q (%v)", track, err)
	}
}

func TestWSHandler_Commands(t *testing.T) {
	p := &fakePlayer{}
	b := backend.NewBroadcaster(context.Background(), make(chan events.Event))
	conn := dialWS(t, wsHandler(b, p, nil), "")
	readWS(t, conn)

	tests := []struct {
		action string
		status int
	}{
		{"play_pause", http.StatusAccepted},
		{"next", http.StatusAccepted},
		{"eject", http.StatusBadRequest},
	}

	for _, tt := range tests {
		if err := conn.WriteJSON(wsCommand{Action: tt.action}); err != nil {
			t.Fatalf("WriteJSON() error: %v", err)
		}
		m := readWS(t, conn)
		if m.Type != typeCmdResult {
			t.Fatalf("reply type = %s, want %s", m.Type, typeCmdResult)
		}
		var res wsResult
		if err := json.Unmarshal(m.Data, &res); err != nil {
			t.Fatalf("failed to unmarshal result: %v", err)
		}
		if res.Action != tt.action || res.Status != tt.status {
			t.Errorf("result = %+v, want %s/%d", res, tt.action, tt.status)
		}
	}

	if got := p.called(); !slices.Equal(got, []string{"play_pause", "next"}) {
		t.Errorf("calls = %v", got)
	}
}

func TestWSHandler_CommandErrors(t *testing.T) {
	p := &fakePlayer{err: &bluetooth.NoActivePlayerError{}}
	b := backend.NewBroadcaster(context.Background(), make(chan events.Event))
	conn := dialWS(t, wsHandler(b, p, nil), "")
	readWS(t, conn)

	if err := conn.WriteJSON(wsCommand{Action: "play"}); err != nil {
		t.Fatal(err)
	}
	var res wsResult
	if err := json.Unmarshal(readWS(t, conn).Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Status != http.StatusNotFound || res.Error == "" {
		t.Errorf("result = %+v, want 404 with error", res)
	}
}

func TestRunCommand_NoPlayer(t *testing.T) {
	res := runCommand(context.Background(), nil, "play")
	if res.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", res.Status)
	}
}

func TestUpgraderCheckOrigin(t *testing.T) {
	u := newUpgrader([]string{"https://allowed.example.com"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://allowed.example.com", true},
		{"http://example.com", true}, // same host as the request
		{"https://evil.example.com", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := u.CheckOrigin(req); got != tt.want {
			t.Errorf("CheckOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
