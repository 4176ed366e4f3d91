package bot

import (
	"context"
	"strings"
	"time"

	"app/internal/model"
	"app/internal/pipeline"
	"app/internal/quota"
	"app/internal/telegram"

	"github.com/rs/zerolog"
)

// Ledger is the slice of the usage ledger the command handlers need.
type Ledger interface {
	EnsureAccount(ctx context.Context, userID int64) bool
	GetDailyUsage(ctx context.Context, userID int64, day time.Time) int
	TotalUsage(ctx context.Context, userID int64) int
	SetTier(ctx context.Context, userID int64, isPro bool) error
	OverallStats(ctx context.Context) model.OverallStats
	TopByUsage(ctx context.Context, limit int) []model.AccountUsage
	TodayAggregate(ctx context.Context, day time.Time) model.DailyAggregate
	UserDetail(ctx context.Context, userID int64, today time.Time) (model.UserDetail, bool)
	ExportAll(ctx context.Context) []model.ExportRow
}

// Dispatcher is the voice pipeline's inbound surface.
type Dispatcher interface {
	HandleVoice(ctx context.Context, sub pipeline.VoiceSubmission)
	HandleSelection(ctx context.Context, sel pipeline.Selection)
}

// Sender is the part of the Telegram client the command handlers reply
// through.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

// Bot routes inbound Telegram updates to the pipeline and the command
// handlers.
type Bot struct {
	sender     Sender
	dispatcher Dispatcher
	ledger     Ledger
	policy     quota.Policy
	adminID    int64
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates the update router.
func New(sender Sender, dispatcher Dispatcher, ledger Ledger, policy quota.Policy, adminID int64, logger zerolog.Logger) *Bot {
	return &Bot{
		sender:     sender,
		dispatcher: dispatcher,
		ledger:     ledger,
		policy:     policy,
		adminID:    adminID,
		logger:     logger.With().Str("service", "Bot").Logger(),
		now:        time.Now,
	}
}

// HandleUpdate processes one inbound update to completion.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.Voice != nil:
		b.handleVoice(ctx, u.Message)
	case u.Message != nil && strings.HasPrefix(u.Message.Text, "/"):
		b.handleCommand(ctx, u.Message)
	}
}

func (b *Bot) handleVoice(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	b.dispatcher.HandleVoice(ctx, pipeline.VoiceSubmission{
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		FileID:   msg.Voice.FileID,
		Duration: msg.Voice.Duration,
	})
}

func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if err := b.sender.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		b.logger.Warn().Err(err).Str("callback_id", cb.ID).Msg("Failed to answer callback query")
	}
	if cb.Message == nil {
		return
	}

	modeName, token, ok := strings.Cut(cb.Data, ":")
	if !ok {
		b.logger.Warn().Str("data", cb.Data).Msg("Malformed callback payload")
		return
	}
	mode, ok := pipeline.ParseMode(modeName)
	if !ok {
		b.logger.Warn().Str("data", cb.Data).Msg("Unknown processing mode in callback")
		return
	}

	b.dispatcher.HandleSelection(ctx, pipeline.Selection{
		ChatID:    cb.Message.Chat.ID,
		MessageID: cb.Message.MessageID,
		Token:     token,
		Mode:      mode,
	})
}

func (b *Bot) handleCommand(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	fields := strings.Fields(msg.Text)
	cmd := fields[0]
	// Commands may arrive as /cmd@botname in group chats.
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	args := fields[1:]

	switch cmd {
	case "/start":
		b.reply(ctx, msg.Chat.ID, startText)
	case "/help":
		b.reply(ctx, msg.Chat.ID, helpText)
	case "/usage":
		b.handleUsage(ctx, msg)
	case "/setpro", "/stats", "/top", "/today", "/user", "/export":
		if msg.From.ID != b.adminID {
			b.logger.Warn().Int64("user_id", msg.From.ID).Str("command", cmd).Msg("Unauthorized admin command")
			b.reply(ctx, msg.Chat.ID, "⛔ You are not authorized to use this command.")
			return
		}
		b.handleAdmin(ctx, msg.Chat.ID, cmd, args)
	}
}

func (b *Bot) handleUsage(ctx context.Context, msg *telegram.Message) {
	userID := msg.From.ID
	isPro := b.ledger.EnsureAccount(ctx, userID)
	today := b.ledger.GetDailyUsage(ctx, userID, b.now())
	total := b.ledger.TotalUsage(ctx, userID)
	b.reply(ctx, msg.Chat.ID, formatUsageSelfCheck(isPro, today, total, b.policy.BudgetSeconds))
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if _, err := b.sender.SendMessage(ctx, chatID, chunk); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
			return
		}
	}
}

const startText = "👋 Hello! I'm your voice-to-text bot. " +
	"Send me a voice message and I'll transcribe it, then let you choose how to process the text!"

const helpText = `🤖 How to use this bot:

1. Send me a voice message
2. Pick a processing mode: clean up, summarize, or translate
3. You'll receive the processed text back

Commands:
/usage - show your usage and remaining budget
/help - show this message`
