package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-token", srv.URL, zerolog.Nop()), srv
}

func TestSendMessageReturnsMessageID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		if payload["text"] != "hello" {
			t.Errorf("text = %v", payload["text"])
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":77,"chat":{"id":5}}}`))
	}))

	id, err := client.SendMessage(context.Background(), 5, "hello")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if id != 77 {
		t.Fatalf("message ID = %d, want 77", id)
	}
}

func TestCallSurfacesAPIError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))

	_, err := client.SendMessage(context.Background(), 5, "hello")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v, want API description", err)
	}
}

func TestGetUpdatesParsesVoiceAndCallback(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":1,"message":{"message_id":10,"from":{"id":42},"chat":{"id":42},"voice":{"file_id":"vf","duration":33}}},
			{"update_id":2,"callback_query":{"id":"cb1","from":{"id":42},"data":"basic:abcdef0123456789","message":{"message_id":11,"chat":{"id":42}}}}
		]}`))
	}))

	updates, err := client.GetUpdates(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("GetUpdates returned error: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	if updates[0].Message == nil || updates[0].Message.Voice == nil || updates[0].Message.Voice.Duration != 33 {
		t.Fatalf("voice update parsed wrong: %+v", updates[0])
	}
	if updates[1].CallbackQuery == nil || updates[1].CallbackQuery.Data != "basic:abcdef0123456789" {
		t.Fatalf("callback update parsed wrong: %+v", updates[1])
	}
}

func TestDownloadFile(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getFile"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"file_id":"vf","file_path":"voice/file_1.ogg"}}`))
		case r.URL.Path == "/file/bottest-token/voice/file_1.ogg":
			_, _ = w.Write([]byte("ogg-bytes"))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	dest := filepath.Join(t.TempDir(), "voice.ogg")
	if err := client.DownloadFile(context.Background(), "vf", dest); err != nil {
		t.Fatalf("DownloadFile returned error: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != "ogg-bytes" {
		t.Fatalf("downloaded content = %q", data)
	}
}

func TestDownloadFileEmptyBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/getFile") {
			_, _ = w.Write([]byte(`{"ok":true,"result":{"file_id":"vf","file_path":"voice/file_1.ogg"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	dest := filepath.Join(t.TempDir(), "voice.ogg")
	if err := client.DownloadFile(context.Background(), "vf", dest); err == nil {
		t.Fatal("expected error for empty download")
	}
}
