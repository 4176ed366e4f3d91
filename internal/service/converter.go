package service

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Converter transcodes a downloaded voice file into a transcription-friendly
// format. The caller owns cleanup of both paths, including partial output
// left behind by a failed run.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string) error
}

type ffmpegConverter struct {
	bin    string
	logger zerolog.Logger
}

// NewFFmpegConverter returns a Converter that shells out to the given ffmpeg
// binary.
func NewFFmpegConverter(bin string, logger zerolog.Logger) Converter {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &ffmpegConverter{
		bin:    bin,
		logger: logger.With().Str("service", "FFmpegConverter").Logger(),
	}
}

// Convert transcodes OGG voice audio to MP3. Whisper handles MP3 more
// reliably than Telegram's OGG/Opus container.
func (c *ffmpegConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-i", inputPath,
		"-f", "mp3",
		"-acodec", "libmp3lame",
		"-ab", "192k",
		"-ar", "44100",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := lastLine(stderr.String())
		c.logger.Error().Err(err).Str("detail", detail).Msg("ffmpeg conversion failed")
		if detail != "" {
			return fmt.Errorf("ffmpeg conversion failed: %w: %s", err, detail)
		}
		return fmt.Errorf("ffmpeg conversion failed: %w", err)
	}
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
