package telegram

import "gopkg.in/telebot.v3"

// Client defines an interface for sending messages via a Telegram bot.
// The operator notifications of the registration flow go through it so the
// app layer does not depend on the bot instance.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
