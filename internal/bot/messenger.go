package bot

import (
	"context"

	"app/internal/pipeline"
	"app/internal/telegram"
)

// maxMessageLen stays under Telegram's 4096-character message limit with a
// little headroom for prefixes.
const maxMessageLen = 4000

// messenger adapts the Telegram client to the pipeline's Messenger surface.
type messenger struct {
	client *telegram.Client
}

// NewMessenger wraps a Telegram client for use by the pipeline.
func NewMessenger(client *telegram.Client) pipeline.Messenger {
	return &messenger{client: client}
}

func (m *messenger) SendStatus(ctx context.Context, chatID int64, text string) (int, error) {
	return m.client.SendMessage(ctx, chatID, text)
}

func (m *messenger) EditStatus(ctx context.Context, chatID int64, messageID int, text string) error {
	return m.client.EditMessageText(ctx, chatID, messageID, text, nil)
}

func (m *messenger) SendResult(ctx context.Context, chatID int64, messageID int, text string) error {
	chunks := splitMessage("✅ Here's your text:\n\n"+text, maxMessageLen)
	if err := m.client.EditMessageText(ctx, chatID, messageID, chunks[0], nil); err != nil {
		return err
	}
	for _, chunk := range chunks[1:] {
		if _, err := m.client.SendMessage(ctx, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (m *messenger) OfferModes(ctx context.Context, chatID int64, messageID int, token string) error {
	var row []telegram.InlineKeyboardButton
	for _, mode := range pipeline.AllModes {
		row = append(row, telegram.InlineKeyboardButton{
			Text:         mode.Label(),
			CallbackData: mode.String() + ":" + token,
		})
	}
	keyboard := &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{row}}
	return m.client.EditMessageText(ctx, chatID, messageID, "🎧 Got it! How should I process your voice message?", keyboard)
}

func (m *messenger) Download(ctx context.Context, fileID, destPath string) error {
	return m.client.DownloadFile(ctx, fileID, destPath)
}
