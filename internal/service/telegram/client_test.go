package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendPostsMessage(t *testing.T) {
	var got sendMessageReq
	mux := http.NewServeMux()
	mux.HandleFunc("/bot123:abc/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if err := c.Send(context.Background(), "123:abc", "chat42", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.ChatID != "chat42" || got.Text != "hello" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.ParseMode != "Markdown" {
		t.Fatalf("expected Markdown parse mode, got %q", got.ParseMode)
	}
}

func TestSendAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 403, "description": "bot was blocked"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if err := c.Send(context.Background(), "123:abc", "chat42", "hello"); err == nil {
		t.Fatalf("expected error from api failure response")
	}
}

func TestSendMissingCredentials(t *testing.T) {
	c := New("", time.Second)
	if err := c.Send(context.Background(), "", "chat", "x"); err == nil {
		t.Fatalf("expected error without token")
	}
}
