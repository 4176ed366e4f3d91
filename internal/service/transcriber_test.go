package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voice.mp3")
	if err := os.WriteFile(path, []byte("fake-mp3-bytes"), 0o600); err != nil {
		t.Fatalf("writing audio: %v", err)
	}
	return path
}

func TestTranscribeSendsMultipartAndReturnsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("response_format"); got != "text" {
			t.Errorf("response_format = %q", got)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		_ = file.Close()
		_, _ = w.Write([]byte("hello from whisper\n"))
	}))
	defer srv.Close()

	tr := NewWhisperTranscriber("k", srv.URL, time.Second, zerolog.Nop())
	out, err := tr.Transcribe(context.Background(), writeTestAudio(t))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if out != "hello from whisper" {
		t.Fatalf("Transcribe = %q", out)
	}
}

func TestTranscribeErrorPaths(t *testing.T) {
	t.Run("http_error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad key", http.StatusUnauthorized)
		}))
		defer srv.Close()
		tr := NewWhisperTranscriber("k", srv.URL, time.Second, zerolog.Nop())
		if _, err := tr.Transcribe(context.Background(), writeTestAudio(t)); err == nil || !strings.Contains(err.Error(), "status 401") {
			t.Fatalf("err = %v, want status 401", err)
		}
	})

	t.Run("empty_transcript", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("   \n"))
		}))
		defer srv.Close()
		tr := NewWhisperTranscriber("k", srv.URL, time.Second, zerolog.Nop())
		if _, err := tr.Transcribe(context.Background(), writeTestAudio(t)); err == nil || !strings.Contains(err.Error(), "empty") {
			t.Fatalf("err = %v, want empty-result error", err)
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		tr := NewWhisperTranscriber("k", "http://127.0.0.1:0", time.Second, zerolog.Nop())
		if _, err := tr.Transcribe(context.Background(), "/nonexistent/voice.mp3"); err == nil {
			t.Fatal("expected error for missing audio file")
		}
	})
}
