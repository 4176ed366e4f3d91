package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultWhisperModel = "whisper-1"

// Transcriber converts an audio file into text via a speech-to-text provider.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type whisperTranscriber struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewWhisperTranscriber creates a Transcriber backed by OpenAI's audio
// transcription endpoint.
func NewWhisperTranscriber(apiKey, baseURL string, timeout time.Duration, logger zerolog.Logger) Transcriber {
	return &whisperTranscriber{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   defaultWhisperModel,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("service", "WhisperTranscriber").Logger(),
	}
}

func (t *whisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("opening audio file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("writing model field: %w", err)
	}
	if err := writer.WriteField("response_format", "text"); err != nil {
		return "", fmt.Errorf("writing response_format field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copying audio into request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing multipart body: %w", err)
	}

	url := t.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("creating transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling transcription API: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.logger.Error().Int("status_code", resp.StatusCode).Str("body", string(body)).Msg("Transcription API returned error")
		return "", fmt.Errorf("transcription API returned status %d", resp.StatusCode)
	}

	transcript := strings.TrimSpace(string(body))
	if transcript == "" {
		return "", fmt.Errorf("transcription returned empty result")
	}
	return transcript, nil
}
