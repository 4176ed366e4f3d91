package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"app/internal/jobcache"
	"app/internal/quota"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Ledger is the slice of the usage ledger the pipeline needs.
type Ledger interface {
	EnsureAccount(ctx context.Context, userID int64) bool
	GetDailyUsage(ctx context.Context, userID int64, day time.Time) int
	CommitUsage(ctx context.Context, userID int64, day time.Time, seconds int) error
}

// Converter transcodes a voice file; see service.Converter.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string) error
}

// Transcriber turns audio into text; see service.Transcriber.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Generator post-processes a transcript; see service.Generator.
type Generator interface {
	Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// Messenger is the messaging-platform surface the pipeline talks back
// through. Implemented by the bot transport layer.
type Messenger interface {
	// SendStatus posts a new status message and returns its message ID.
	SendStatus(ctx context.Context, chatID int64, text string) (int, error)
	// EditStatus replaces an earlier status message's text.
	EditStatus(ctx context.Context, chatID int64, messageID int, text string) error
	// SendResult delivers the final transcript or processed text.
	SendResult(ctx context.Context, chatID int64, messageID int, text string) error
	// OfferModes attaches the mode-selection keyboard for a staged job.
	OfferModes(ctx context.Context, chatID int64, messageID int, token string) error
	// Download fetches the platform file behind fileID into destPath.
	Download(ctx context.Context, fileID, destPath string) error
}

// VoiceSubmission is one inbound voice event.
type VoiceSubmission struct {
	UserID   int64
	ChatID   int64
	FileID   string
	Duration int
}

// Selection is one inbound mode-selection event for a staged job.
type Selection struct {
	ChatID    int64
	MessageID int
	Token     string
	Mode      Mode
}

// Options bundles the pipeline's tunables.
type Options struct {
	TempDir         string
	DownloadTimeout time.Duration
	ConvertTimeout  time.Duration
	ProviderTimeout time.Duration
}

// Pipeline drives a voice submission from admission through staging, and a
// later mode selection through transcription, generation, ledger commit and
// cache eviction.
type Pipeline struct {
	ledger      Ledger
	policy      quota.Policy
	cache       *jobcache.Cache
	converter   Converter
	transcriber Transcriber
	generator   Generator
	messenger   Messenger
	opts        Options
	logger      zerolog.Logger
	now         func() time.Time
}

// New wires up a Pipeline.
func New(
	ledger Ledger,
	policy quota.Policy,
	cache *jobcache.Cache,
	converter Converter,
	transcriber Transcriber,
	generator Generator,
	messenger Messenger,
	opts Options,
	logger zerolog.Logger,
) *Pipeline {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Pipeline{
		ledger:      ledger,
		policy:      policy,
		cache:       cache,
		converter:   converter,
		transcriber: transcriber,
		generator:   generator,
		messenger:   messenger,
		opts:        opts,
		logger:      logger.With().Str("service", "Pipeline").Logger(),
		now:         time.Now,
	}
}

// HandleVoice runs admission, download, conversion and staging for one voice
// submission. Denial and conversion failure are terminal; on success the job
// waits in the cache for a mode selection.
func (p *Pipeline) HandleVoice(ctx context.Context, sub VoiceSubmission) {
	isPro := p.ledger.EnsureAccount(ctx, sub.UserID)
	usage := p.ledger.GetDailyUsage(ctx, sub.UserID, p.now())
	dec := p.policy.Evaluate(isPro, usage, sub.Duration)
	if !dec.Admitted {
		p.logger.Info().Int64("user_id", sub.UserID).Int("duration", sub.Duration).Msg("Voice submission denied")
		p.notify(ctx, sub.ChatID, "⛔ "+dec.Reason)
		return
	}

	msgID, err := p.messenger.SendStatus(ctx, sub.ChatID, "🎤 Processing your voice message...")
	if err != nil {
		p.logger.Error().Err(err).Int64("chat_id", sub.ChatID).Msg("Failed to send status message")
		return
	}

	jobID := uuid.NewString()
	originalPath := filepath.Join(p.opts.TempDir, jobID+".ogg")
	convertedPath := filepath.Join(p.opts.TempDir, jobID+".mp3")

	// Until the job is staged, this handler owns the temp files.
	staged := false
	defer func() {
		if staged {
			return
		}
		for _, path := range []string{originalPath, convertedPath} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				p.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove temp artifact")
			}
		}
	}()

	if err := p.download(ctx, sub.FileID, originalPath); err != nil {
		p.logger.Error().Err(err).Int64("user_id", sub.UserID).Msg("Voice download failed")
		p.edit(ctx, sub.ChatID, msgID, "❌ Sorry, I couldn't fetch your voice message. Please try again.")
		return
	}
	if err := p.convert(ctx, originalPath, convertedPath); err != nil {
		p.logger.Error().Err(err).Int64("user_id", sub.UserID).Msg("Audio conversion failed")
		p.edit(ctx, sub.ChatID, msgID, "❌ Sorry, I couldn't process that audio format. Please try again.")
		return
	}

	token := p.cache.Stage(sub.UserID, sub.FileID, jobcache.Job{
		ChatID:        sub.ChatID,
		MessageID:     msgID,
		OriginalPath:  originalPath,
		ConvertedPath: convertedPath,
		Duration:      sub.Duration,
	})
	staged = true

	if err := p.messenger.OfferModes(ctx, sub.ChatID, msgID, token); err != nil {
		p.logger.Error().Err(err).Int64("chat_id", sub.ChatID).Msg("Failed to offer processing modes")
		p.cache.Evict(token)
	}
}

// HandleSelection resumes a staged job once the user picks a mode. The token
// is single-use: whatever branch terminates the job, the cache entry is
// evicted and its files released.
func (p *Pipeline) HandleSelection(ctx context.Context, sel Selection) {
	job, err := p.cache.Take(sel.Token)
	if errors.Is(err, jobcache.ErrNotFound) {
		p.edit(ctx, sel.ChatID, sel.MessageID, "⌛ This voice message has expired. Please send it again.")
		return
	}
	defer p.cache.Evict(sel.Token)

	if _, err := os.Stat(job.ConvertedPath); err != nil {
		p.logger.Error().Err(err).Str("token", sel.Token).Msg("Staged artifact missing from disk")
		p.edit(ctx, sel.ChatID, sel.MessageID, "❌ The audio file is no longer available. Please send it again.")
		return
	}

	p.edit(ctx, sel.ChatID, sel.MessageID, "🎤 Transcribing your voice message...")
	transcript, err := p.transcribe(ctx, job.ConvertedPath)
	if err != nil {
		p.logger.Error().Err(err).Int64("user_id", job.UserID).Msg("Transcription failed")
		p.edit(ctx, sel.ChatID, sel.MessageID, "❌ Sorry, transcription failed. You have not been charged. Please try again.")
		return
	}

	// Usage is the cost of the speech-to-text step: charge on transcription
	// success, whatever happens to generation afterwards.
	if err := p.ledger.CommitUsage(ctx, job.UserID, p.now(), job.Duration); err != nil {
		p.logger.Error().Err(err).Int64("user_id", job.UserID).Int("seconds", job.Duration).Msg("Failed to commit usage")
	}

	p.edit(ctx, sel.ChatID, sel.MessageID, "🤖 Structuring the text...")
	result, err := p.generate(ctx, sel.Mode, transcript)
	if err != nil {
		// Degraded success: the transcript is still useful on its own.
		p.logger.Warn().Err(err).Int64("user_id", job.UserID).Str("mode", sel.Mode.String()).Msg("Generation failed, returning raw transcript")
		result = transcript
	}

	if err := p.messenger.SendResult(ctx, sel.ChatID, sel.MessageID, result); err != nil {
		p.logger.Error().Err(err).Int64("chat_id", sel.ChatID).Msg("Failed to deliver result")
	}
}

func (p *Pipeline) download(ctx context.Context, fileID, destPath string) error {
	ctx, cancel := p.withTimeout(ctx, p.opts.DownloadTimeout)
	defer cancel()
	return p.messenger.Download(ctx, fileID, destPath)
}

func (p *Pipeline) convert(ctx context.Context, in, out string) error {
	ctx, cancel := p.withTimeout(ctx, p.opts.ConvertTimeout)
	defer cancel()
	return p.converter.Convert(ctx, in, out)
}

func (p *Pipeline) transcribe(ctx context.Context, path string) (string, error) {
	ctx, cancel := p.withTimeout(ctx, p.opts.ProviderTimeout)
	defer cancel()
	return p.transcriber.Transcribe(ctx, path)
}

func (p *Pipeline) generate(ctx context.Context, mode Mode, transcript string) (string, error) {
	ctx, cancel := p.withTimeout(ctx, p.opts.ProviderTimeout)
	defer cancel()
	return p.generator.Generate(ctx, mode.Model(), mode.SystemPrompt(), mode.Prompt(transcript))
}

func (p *Pipeline) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (p *Pipeline) notify(ctx context.Context, chatID int64, text string) {
	if _, err := p.messenger.SendStatus(ctx, chatID, text); err != nil {
		p.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (p *Pipeline) edit(ctx context.Context, chatID int64, messageID int, text string) {
	if err := p.messenger.EditStatus(ctx, chatID, messageID, text); err != nil {
		p.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit message")
	}
}
