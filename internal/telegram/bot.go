package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Bot wraps the Telegram bot API
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logrus.Logger
	router *Router
}

// NewBot creates a new Telegram bot instance
func NewBot(token string, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:    api,
		logger: logger,
		router: NewRouter(logger),
	}, nil
}

// Start starts the bot with long polling
func (b *Bot) Start(ctx context.Context) error {
	// Delete webhook if exists and use polling
	_, err := b.api.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	if err := b.publishCommands(); err != nil {
		b.logger.WithError(err).Warn("Failed to publish command list")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(update)
		}
	}
}

// publishCommands registers the command menu shown by Telegram clients
func (b *Bot) publishCommands() error {
	commands := make([]tgbotapi.BotCommand, 0, len(b.router.order))
	for _, name := range b.router.order {
		commands = append(commands, tgbotapi.BotCommand{
			Command:     name,
			Description: b.router.descriptions[name],
		})
	}
	_, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...))
	return err
}

// handleUpdate processes incoming updates
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Panic in update handler: %v", r)
		}
	}()

	if update.Message != nil {
		b.router.HandleMessage(b.api, update.Message)
	}
}

// SendMessage sends a message to a chat
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := b.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Notify sends text to a chat and logs failures. It has the shape of the
// sweep notifier.
func (b *Bot) Notify(chatID int64, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		b.logger.WithField("chat_id", chatID).Errorf("Failed to deliver notification: %v", err)
	}
}

// RegisterCommand registers a command handler on the router
func (b *Bot) RegisterCommand(command, description string, handler CommandHandler) {
	b.router.RegisterCommand(command, description, handler)
}
