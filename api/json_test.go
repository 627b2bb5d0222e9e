package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/b0bbywan/go-odio-btmedia/backend/bluetooth"
)

func TestJSONHandler(t *testing.T) {
	handler := JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		return map[string]string{"status": "ok"}, nil
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want 200", w.Code)
	}

	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", w.Header().Get("Content-Type"))
	}

	var result map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("status = %s, want ok", result["status"])
	}
}

func TestJSONHandlerError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{http.ErrServerClosed, http.StatusInternalServerError},
		{bluetooth.ErrTrackerStopped, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		handler := JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
			return nil, tt.err
		})
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/test", nil))

		if w.Code != tt.want {
			t.Errorf("%v: status code = %d, want %d", tt.err, w.Code, tt.want)
		}
	}
}

func BenchmarkJSONHandler(b *testing.B) {
	handler := JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		return map[string]string{"test": "data"}, nil
	})

	req := httptest.NewRequest("GET", "/test", nil)

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		handler(w, req)
	}
}
