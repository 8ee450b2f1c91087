package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	helpText := `📚 *FastClub Help*

*Meetings:*
• /meetings [months] - Upcoming meetings
• /agenda - Meetings and events merged

*Events:*
• /event <title> <YYYY-MM-DD> [HH:MM] - Add event
• /events - Show upcoming events
• /delevent <id> - Delete an event

*Fees:*
• /fees - Club fee overview
• /myfees - Your fees
• /paid <id> [method] - Mark a fee as paid
• /waive <id> [reason] - Waive a fee
• /genfees - Issue this year's annual fees`

	if err := reply(bot, message, helpText); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Info("Sent help message")

	return nil
}
