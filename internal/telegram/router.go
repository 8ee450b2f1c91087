package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Router handles message routing and command parsing
type Router struct {
	logger       *logrus.Logger
	handlers     map[string]CommandHandler
	descriptions map[string]string
	order        []string
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger) *Router {
	return &Router{
		logger:       logger,
		handlers:     make(map[string]CommandHandler),
		descriptions: make(map[string]string),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command, description string, handler CommandHandler) {
	if _, exists := r.handlers[command]; !exists {
		r.order = append(r.order, command)
	}
	r.handlers[command] = handler
	r.descriptions[command] = description
	r.logger.Debugf("Registered command: %s", command)
}

// Resolve splits a command message into its handler and arguments. The
// handler is nil for plain text and unknown commands.
func (r *Router) Resolve(message *tgbotapi.Message) (string, CommandHandler, []string) {
	if message.Text == "" || !message.IsCommand() {
		return "", nil, nil
	}
	command := message.Command()
	return command, r.handlers[command], strings.Fields(message.CommandArguments())
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	// Channel posts carry no sender
	if message.From == nil {
		return
	}

	r.logger.WithFields(logrus.Fields{
		"chat_id":    message.Chat.ID,
		"user_id":    message.From.ID,
		"username":   message.From.UserName,
		"message_id": message.MessageID,
	}).Debug("Received message")

	command, handler, args := r.Resolve(message)
	if command == "" {
		return
	}

	if handler == nil {
		r.logger.WithFields(logrus.Fields{
			"command": command,
			"chat_id": message.Chat.ID,
			"user_id": message.From.ID,
		}).Warn("Unknown command")

		unknownMsg := tgbotapi.NewMessage(message.Chat.ID, "❓ Unknown command. Use /help to see available commands.")
		bot.Send(unknownMsg)
		return
	}

	if err := handler.Handle(bot, message, args); err != nil {
		r.logger.WithFields(logrus.Fields{
			"command": command,
			"chat_id": message.Chat.ID,
			"user_id": message.From.ID,
			"error":   err,
		}).Error("Command handler failed")

		errorMsg := tgbotapi.NewMessage(message.Chat.ID, "❌ An error occurred while processing your command. Please try again.")
		bot.Send(errorMsg)
	}
}
