// internal/infra/telegram/client.go
package telegram

import (
	"errors"
	"fmt"

	"gopkg.in/telebot.v3"
)

// ErrNoOperatorChat is returned for notices addressed to chat 0.
var ErrNoOperatorChat = errors.New("operator chat not configured")

// sender is the part of *telebot.Bot the notifier uses.
type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter delivers operator notices. It implements the domain Client.
type TelebotAdapter struct {
	bot sender
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a plain-text notice. Link previews are off unless options
// say otherwise, since notices carry lookup links.
func (a *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if chatID == 0 {
		return ErrNoOperatorChat
	}
	if options == nil {
		options = &telebot.SendOptions{DisableWebPagePreview: true}
	}
	if _, err := a.bot.Send(telebot.ChatID(chatID), text, options); err != nil {
		return fmt.Errorf("notify chat %d: %w", chatID, err)
	}
	return nil
}
