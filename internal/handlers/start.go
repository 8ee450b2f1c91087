package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/fastclub/internal/service"
)

// StartHandler handles the /start command. It binds the chat to a club.
type StartHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(svc *service.Service, logger *logrus.Logger) *StartHandler {
	return &StartHandler{svc: svc, logger: logger}
}

// Handle processes the /start command
func (h *StartHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	club, err := clubFor(ctx, h.svc, message)
	if err != nil {
		return err
	}

	welcomeText := fmt.Sprintf(`🎯 *Welcome to FastClub, %s!*

I keep track of your club's recurring meetings and membership fees.

• /meetings - Upcoming meetings
• /agenda - Meetings and events
• /myfees - Your open fees
• /help - All commands`, escape(club.Name))

	if err := reply(bot, message, welcomeText); err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"club_id": club.ID,
	}).Info("Sent start message")

	return nil
}
