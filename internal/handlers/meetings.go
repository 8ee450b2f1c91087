package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/fastclub/internal/calendar"
	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/service"
)

// formatMeetings renders occurrences grouped under their month, followed by
// the active rules they were projected from.
func formatMeetings(occurrences []models.MeetingOccurrence, rules []*models.MeetingRule) string {
	if len(occurrences) == 0 {
		return "📅 *No upcoming meetings.*\n\nAsk an admin to configure the meeting rules."
	}

	var sb strings.Builder
	sb.WriteString("📅 *Upcoming Meetings*\n")
	month := ""
	for _, occ := range occurrences {
		if m := occ.Date.Format("January 2006"); m != month {
			month = m
			sb.WriteString("\n*" + month + "*\n")
		}
		sb.WriteString(service.FormatOccurrence(occ.Date.Format("Mon 02"), occ))
	}

	schedule := false
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		if !schedule {
			sb.WriteString("\n*Schedule*\n")
			schedule = true
		}
		sb.WriteString(fmt.Sprintf("• %s: %s\n", rule.MeetingType.Label(), rule.Describe()))
	}
	return sb.String()
}

// formatAgenda renders meetings and events in one list.
func formatAgenda(items []models.AgendaItem) string {
	if len(items) == 0 {
		return "📅 *Nothing scheduled.*"
	}

	var sb strings.Builder
	sb.WriteString("🗓 *Agenda*\n\n")
	for _, item := range items {
		icon := "🤝"
		if item.Kind == "event" {
			icon = "🎉"
		}
		when := item.StartsAt.Format("Mon 02 Jan 15:04")
		if item.AllDay {
			when = item.StartsAt.Format("Mon 02 Jan") + " (all day)"
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s", icon, when, escape(item.Title)))
		if item.Location != "" {
			sb.WriteString(" @ " + escape(item.Location))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// ---------------------------------------------------------------------------
// MeetingsHandler – /meetings [months]
// ---------------------------------------------------------------------------

// MeetingsHandler lists the club's projected meetings.
type MeetingsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewMeetingsHandler creates a new MeetingsHandler.
func NewMeetingsHandler(svc *service.Service, logger *logrus.Logger) *MeetingsHandler {
	return &MeetingsHandler{svc: svc, logger: logger}
}

// Handle processes the /meetings command.
func (h *MeetingsHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	months := -1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 || n > calendar.MaxMonthsAhead {
			return reply(bot, message, fmt.Sprintf("❌ Months must be a number between 0 and %d.\nUsage: `/meetings 3`", calendar.MaxMonthsAhead))
		}
		months = n
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	club, err := clubFor(ctx, h.svc, message)
	if err != nil {
		return err
	}

	// "/meetings 0" shows the rest of the current month
	occurrences, err := h.svc.UpcomingMeetings(ctx, club.ID, months)
	if err != nil {
		return fmt.Errorf("upcoming meetings: %w", err)
	}

	rules, err := h.svc.ListMeetingRules(ctx, club.ID)
	if err != nil {
		return fmt.Errorf("meeting rules: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"count":   len(occurrences),
	}).Debug("Listed meetings")

	return reply(bot, message, formatMeetings(occurrences, rules))
}

// ---------------------------------------------------------------------------
// AgendaHandler – /agenda
// ---------------------------------------------------------------------------

// AgendaHandler shows meetings and events of the coming months.
type AgendaHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewAgendaHandler creates a new AgendaHandler.
func NewAgendaHandler(svc *service.Service, logger *logrus.Logger) *AgendaHandler {
	return &AgendaHandler{svc: svc, logger: logger}
}

// Handle processes the /agenda command.
func (h *AgendaHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	club, err := clubFor(ctx, h.svc, message)
	if err != nil {
		return err
	}

	items, err := h.svc.Agenda(ctx, club.ID, 2)
	if err != nil {
		return fmt.Errorf("agenda: %w", err)
	}
	return reply(bot, message, formatAgenda(items))
}
