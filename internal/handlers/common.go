package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/fastclub/internal/fees"
	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
	"github.com/Kerhoff/fastclub/internal/service"
)

const commandTimeout = 15 * time.Second

// reply sends a Markdown message to the chat of message.
func reply(bot *tgbotapi.BotAPI, message *tgbotapi.Message, text string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// clubFor returns the club bound to the chat of message, creating it on
// first contact.
func clubFor(ctx context.Context, svc *service.Service, message *tgbotapi.Message) (*models.Club, error) {
	title := message.Chat.Title
	if title == "" && message.From != nil {
		title = message.From.FirstName + "'s club"
	}
	club, err := svc.EnsureClub(ctx, message.Chat.ID, title)
	if err != nil {
		return nil, fmt.Errorf("ensure club: %w", err)
	}
	return club, nil
}

// escape makes user-supplied text safe inside Markdown messages.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// parseID parses a "#12" or "12" style identifier.
func parseID(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
}

// explain turns an expected service error into a user-facing message. It
// returns "" for errors that should be reported as failures.
func explain(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "❌ Not found."
	case errors.Is(err, fees.ErrObligationClosed):
		return "ℹ️ That fee is already settled."
	case errors.Is(err, service.ErrInvalidInput):
		return "❌ " + escape(err.Error())
	}
	return ""
}
