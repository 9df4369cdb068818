package dispatch

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"immo-scouter/config"
	"immo-scouter/models"
)

// Telegram sends listing messages to a single chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram builds the notifier from TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHAT_ID.
func NewTelegram() (*Telegram, error) {
	token := config.GetEnvOrDefault("TELEGRAM_BOT_TOKEN", "")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}
	chatIDStr := config.GetEnvOrDefault("TELEGRAM_CHAT_ID", "")
	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", chatIDStr, err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Notify sends one listing message. When the listing carries an image
// URL the message goes out as a photo caption, otherwise as plain
// text.
func (t *Telegram) Notify(_ context.Context, l *models.Listing, message string) error {
	if l.ImageURL != nil {
		photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileURL(*l.ImageURL))
		photo.Caption = message
		photo.ParseMode = tgbotapi.ModeHTML
		if _, err := t.bot.Send(photo); err == nil {
			return nil
		}
		// Bad image URLs should not lose the notification.
	}
	msg := tgbotapi.NewMessage(t.chatID, message)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = false
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	return nil
}
