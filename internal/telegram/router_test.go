package telegram

import (
	"io"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type nopHandler struct{}

func (nopHandler) Handle(*tgbotapi.BotAPI, *tgbotapi.Message, []string) error { return nil }

func command(text string) *tgbotapi.Message {
	end := len(text)
	for i, r := range text {
		if r == ' ' {
			end = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}},
	}
}

func TestRouter_Resolve(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	r := NewRouter(logger)
	r.RegisterCommand("meetings", "Upcoming meetings", nopHandler{})
	r.RegisterCommand("fees", "Fee overview", nopHandler{})
	r.RegisterCommand("meetings", "Upcoming club meetings", nopHandler{})

	assert.Equal(t, []string{"meetings", "fees"}, r.order)
	assert.Equal(t, "Upcoming club meetings", r.descriptions["meetings"])

	name, h, args := r.Resolve(command("/meetings@fastclub_bot 3"))
	assert.Equal(t, "meetings", name)
	assert.NotNil(t, h)
	assert.Equal(t, []string{"3"}, args)

	name, h, _ = r.Resolve(command("/nope"))
	assert.Equal(t, "nope", name)
	assert.Nil(t, h)

	name, h, _ = r.Resolve(&tgbotapi.Message{Text: "hello"})
	assert.Empty(t, name)
	assert.Nil(t, h)
}
