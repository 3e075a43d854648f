package services

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier is best-effort: implementations log failures and never raise them
// past this boundary, since notification is not part of the success contract.
type Notifier interface {
	Notify(text string)
}

type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Telegram bot authorized as %s", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) Notify(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("Error enviando notificación: %v", err)
	}
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(text string) {
	log.Println("Notifier not configured, skipping notification")
}
