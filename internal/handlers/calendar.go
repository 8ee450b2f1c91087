package handlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/fastclub/internal/calendar"
	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/service"
)

var (
	calDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	calTimeRegex = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

	errNoEventDate  = errors.New("no date")
	errNoEventTitle = errors.New("no title")
)

// parseEventArgs reads "<title...> <YYYY-MM-DD> [HH:MM]" from the end of
// args. Without a time the event lasts all day.
func parseEventArgs(args []string, loc *time.Location) (title string, start time.Time, allDay bool, err error) {
	var dateStr, timeStr string
	lastIdx := len(args) - 1

	if lastIdx >= 0 && calTimeRegex.MatchString(args[lastIdx]) {
		timeStr = args[lastIdx]
		lastIdx--
	}
	if lastIdx >= 0 && calDateRegex.MatchString(args[lastIdx]) {
		dateStr = args[lastIdx]
		lastIdx--
	}
	if dateStr == "" {
		return "", time.Time{}, false, errNoEventDate
	}
	if lastIdx < 0 {
		return "", time.Time{}, false, errNoEventTitle
	}
	title = strings.Join(args[:lastIdx+1], " ")

	if timeStr != "" {
		start, err = time.ParseInLocation("2006-01-02 15:04", dateStr+" "+timeStr, loc)
	} else {
		start, err = time.ParseInLocation("2006-01-02", dateStr, loc)
		allDay = true
	}
	return title, start, allDay, err
}

// currentEvents keeps events that have not finished yet: upcoming ones,
// running ones and all-day events of today.
func currentEvents(events []*models.CalendarEvent, now time.Time) []*models.CalendarEvent {
	return slices.DeleteFunc(events, func(e *models.CalendarEvent) bool {
		if e.AllDay {
			return !e.IsUpcoming(now) && !calendar.SameDay(e.StartTime.In(now.Location()), now)
		}
		return !e.IsUpcoming(now) && !e.IsOngoing(now)
	})
}

func formatEventDate(event *models.CalendarEvent) string {
	if event.AllDay {
		return event.StartTime.Format("Mon, 02 Jan 2006") + " (all day)"
	}
	return event.StartTime.Format("Mon, 02 Jan 2006 at 15:04")
}

// ---------------------------------------------------------------------------
// CalendarAddHandler – /event <title> <date> [time]
// ---------------------------------------------------------------------------

// CalendarAddHandler handles the /event command to create a club event.
type CalendarAddHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewCalendarAddHandler creates a new CalendarAddHandler.
func NewCalendarAddHandler(svc *service.Service, logger *logrus.Logger) *CalendarAddHandler {
	return &CalendarAddHandler{svc: svc, logger: logger}
}

// Handle processes the /event command.
func (h *CalendarAddHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	club, err := clubFor(ctx, h.svc, message)
	if err != nil {
		return err
	}

	title, startTime, allDay, err := parseEventArgs(args, club.Location())
	switch {
	case errors.Is(err, errNoEventDate):
		return reply(bot, message, "❌ Could not find a date in your command.\n"+
			"Please use the format `YYYY-MM-DD`.\n"+
			"Example: `/event Charity dinner 2025-01-15 19:00`")
	case errors.Is(err, errNoEventTitle):
		return reply(bot, message, "❌ Please provide an event title before the date.")
	case err != nil:
		return reply(bot, message, "❌ Invalid date/time format.\nDate: `YYYY-MM-DD`, Time: `HH:MM`")
	}

	creator := message.From.ID
	event, err := h.svc.CreateEvent(ctx, &models.CalendarEvent{
		ClubID:      club.ID,
		Title:       title,
		StartTime:   startTime,
		AllDay:      allDay,
		CreatedByID: &creator,
	})
	if err != nil {
		if msg := explain(err); msg != "" {
			return reply(bot, message, msg)
		}
		return fmt.Errorf("create event: %w", err)
	}

	text := fmt.Sprintf("📅 *Event created!*\n\n*#%d* %s\n📆 %s", event.ID, escape(title), formatEventDate(event))
	if err := reply(bot, message, text); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":  message.Chat.ID,
		"user_id":  message.From.ID,
		"event_id": event.ID,
	}).Info("Calendar event created")

	return nil
}

// ---------------------------------------------------------------------------
// CalendarListHandler – /events
// ---------------------------------------------------------------------------

// CalendarListHandler handles the /events command to list upcoming events.
type CalendarListHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewCalendarListHandler creates a new CalendarListHandler.
func NewCalendarListHandler(svc *service.Service, logger *logrus.Logger) *CalendarListHandler {
	return &CalendarListHandler{svc: svc, logger: logger}
}

// Handle processes the /events command.
func (h *CalendarListHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	club, err := clubFor(ctx, h.svc, message)
	if err != nil {
		return err
	}

	now := h.svc.Today(club)
	from := calendar.DateOf(now)
	events, err := h.svc.ListEvents(ctx, club.ID, &from, nil)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	events = currentEvents(events, now)

	if len(events) == 0 {
		return reply(bot, message, "📅 *No upcoming events!*\n\nAdd one with `/event <title> <date> [time]`")
	}

	var sb strings.Builder
	sb.WriteString("📅 *Upcoming Events*\n\n")

	for i, event := range events {
		if i == 20 {
			break
		}
		status := "📆"
		if event.IsOngoing(now) {
			status = "▶️"
		}

		sb.WriteString(fmt.Sprintf("%d. %s *#%d* %s\n   📆 %s", i+1, status, event.ID, escape(event.Title), formatEventDate(event)))
		if event.Location != "" {
			sb.WriteString(fmt.Sprintf("\n   📍 %s", escape(event.Location)))
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString(fmt.Sprintf("_%d upcoming events_", len(events)))
	return reply(bot, message, sb.String())
}

// ---------------------------------------------------------------------------
// CalendarDeleteHandler – /delevent <id>
// ---------------------------------------------------------------------------

// CalendarDeleteHandler handles the /delevent command. Only the creator of
// the event is allowed to delete it.
type CalendarDeleteHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewCalendarDeleteHandler creates a new CalendarDeleteHandler.
func NewCalendarDeleteHandler(svc *service.Service, logger *logrus.Logger) *CalendarDeleteHandler {
	return &CalendarDeleteHandler{svc: svc, logger: logger}
}

// Handle processes the /delevent command.
func (h *CalendarDeleteHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return reply(bot, message, "❌ Please provide an event ID.\nUsage: `/delevent 3`")
	}

	eventID, err := parseID(args[0])
	if err != nil {
		return reply(bot, message, "❌ Invalid ID. Please provide a numeric event ID.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	club, err := clubFor(ctx, h.svc, message)
	if err != nil {
		return err
	}

	event, err := h.svc.Calendar.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	if event == nil || event.ClubID != club.ID {
		return reply(bot, message, fmt.Sprintf("❌ Event *#%d* not found.", eventID))
	}
	if event.CreatedByID != nil && *event.CreatedByID != message.From.ID {
		return reply(bot, message, "❌ You can only delete events you created.")
	}

	if err := h.svc.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":  message.Chat.ID,
		"user_id":  message.From.ID,
		"event_id": event.ID,
	}).Info("Calendar event deleted")

	return reply(bot, message, fmt.Sprintf("🗑 Event *#%d* deleted: %s", event.ID, escape(event.Title)))
}
