package main

import (
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/fastclub/internal/handlers"
	"github.com/Kerhoff/fastclub/internal/service"
	"github.com/Kerhoff/fastclub/internal/telegram"
)

func registerCommands(bot *telegram.Bot, svc *service.Service, l *logrus.Logger) {
	bot.RegisterCommand("start", "Introduce the bot", handlers.NewStartHandler(svc, l))
	bot.RegisterCommand("help", "List available commands", handlers.NewHelpHandler(l))

	// Meetings
	bot.RegisterCommand("meetings", "Upcoming meetings", handlers.NewMeetingsHandler(svc, l))
	bot.RegisterCommand("agenda", "Meetings and events merged", handlers.NewAgendaHandler(svc, l))

	// Events
	bot.RegisterCommand("event", "Add an event", handlers.NewCalendarAddHandler(svc, l))
	bot.RegisterCommand("events", "Upcoming events", handlers.NewCalendarListHandler(svc, l))
	bot.RegisterCommand("delevent", "Delete an event", handlers.NewCalendarDeleteHandler(svc, l))

	// Fees
	bot.RegisterCommand("fees", "Club fee overview", handlers.NewFeesHandler(svc, l))
	bot.RegisterCommand("myfees", "Your fees", handlers.NewMyFeesHandler(svc, l))
	bot.RegisterCommand("paid", "Mark a fee as paid", handlers.NewPaidHandler(svc, l))
	bot.RegisterCommand("waive", "Waive a fee", handlers.NewWaiveHandler(svc, l))
	bot.RegisterCommand("genfees", "Issue this year's annual fees", handlers.NewGenerateFeesHandler(svc, l))
}
