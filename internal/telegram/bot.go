package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shiftbot-backend/internal/models"
	"shiftbot-backend/internal/workflow"
)

// Handler consumes inbound worker events. Implemented by workflow.Engine.
type Handler interface {
	HandleEvent(ev workflow.Event)
}

// Bot is the Telegram transport: it long-polls for updates, maps them onto
// workflow events, and implements workflow.Transport for the outbound side.
type Bot struct {
	api *tgbotapi.BotAPI
}

func NewBot(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	log.Printf("🤖 Telegram bot authorized as @%s", api.Self.UserName)
	return &Bot{api: api}, nil
}

// Run long-polls until ctx is cancelled. Updates are dispatched sequentially;
// per-worker ordering is what the state machine depends on.
func (b *Bot) Run(ctx context.Context, handler Handler) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			handler.HandleEvent(toEvent(update.Message))
		}
	}
}

// toEvent strips the Telegram envelope down to what the state machine needs.
func toEvent(m *tgbotapi.Message) workflow.Event {
	ev := workflow.Event{
		WorkerID: m.From.ID,
		Text:     strings.TrimSpace(m.Text),
	}
	if m.IsCommand() {
		ev.Command = m.Command()
		ev.Text = ""
	}
	if m.Contact != nil {
		ev.Contact = m.Contact.PhoneNumber
	}
	if m.Location != nil {
		ev.Location = &models.Coordinates{
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
		}
	}
	return ev
}

// ------------------------------ workflow.Transport

func (b *Bot) SendText(workerID int64, text string) error {
	msg := tgbotapi.NewMessage(workerID, text)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) RemoveKeyboard(workerID int64, text string) error {
	msg := tgbotapi.NewMessage(workerID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendMenu(workerID int64, state models.MenuState) error {
	msg := tgbotapi.NewMessage(workerID, "Выберите действие:")
	msg.ReplyMarkup = menuKeyboard(state)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendChoices(workerID int64, text string, options []string) error {
	msg := tgbotapi.NewMessage(workerID, text)
	msg.ReplyMarkup = choicesKeyboard(options)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) RequestLocation(workerID int64, text string) error {
	msg := tgbotapi.NewMessage(workerID, text)
	msg.ReplyMarkup = locationKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) RequestContact(workerID int64, text string) error {
	msg := tgbotapi.NewMessage(workerID, text)
	msg.ReplyMarkup = contactKeyboard()
	_, err := b.api.Send(msg)
	return err
}
