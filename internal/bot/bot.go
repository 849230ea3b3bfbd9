// Package bot runs the Telegram front end: a button-driven entry flow,
// quick commands, free-text entry dictation, and an assistant mode, all
// backed by per-chat sessions in SQLite.
package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/kassaflow/kassa/internal/ai"
	"github.com/kassaflow/kassa/internal/auth"
	"github.com/kassaflow/kassa/internal/modules/entries"
	"github.com/kassaflow/kassa/internal/modules/reports"
)

// sender is the slice of the Telegram client the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps carries everything the bot needs besides the Telegram client.
// Parser and Chat may be nil when no AI provider is configured; the bot
// then falls back to the fixed parsing rules and disables assistant
// mode.
type Deps struct {
	Sessions  *SessionStore
	Entries   *entries.Service
	Reports   *reports.Service
	Whitelist *auth.Whitelist
	Parser    *ai.Parser
	Chat      *ai.Chat
	Location  *time.Location
}

type Bot struct {
	client    *tgbotapi.BotAPI
	api       sender
	sessions  *SessionStore
	entries   *entries.Service
	reports   *reports.Service
	whitelist *auth.Whitelist
	parser    *ai.Parser
	chat      *ai.Chat
	fallback  ai.FallbackParser
	location  *time.Location
	log       zerolog.Logger
	done      chan struct{}
}

func New(token string, deps Deps, log zerolog.Logger) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Bot{
		client:    client,
		api:       client,
		sessions:  deps.Sessions,
		entries:   deps.Entries,
		reports:   deps.Reports,
		whitelist: deps.Whitelist,
		parser:    deps.Parser,
		chat:      deps.Chat,
		location:  deps.Location,
		log:       log.With().Str("component", "bot").Logger(),
		done:      make(chan struct{}),
	}, nil
}

// Start begins long polling in a background goroutine.
func (b *Bot) Start() {
	b.log.Info().Str("username", b.client.Self.UserName).Msg("Bot started")

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.client.GetUpdatesChan(cfg)

	go b.loop(updates)
}

// Stop ends long polling and waits for the in-flight update to finish.
func (b *Bot) Stop() {
	b.client.StopReceivingUpdates()
	<-b.done
	b.log.Info().Msg("Bot stopped")
}

func (b *Bot) loop(updates tgbotapi.UpdatesChannel) {
	defer close(b.done)
	for update := range updates {
		b.handleUpdate(update)
	}
}

// handleUpdate dispatches one update. A panic in a handler is contained
// here so a bad update cannot take the polling loop down.
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()

	switch {
	case update.Message != nil:
		b.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	}
}

// SendDocument delivers a file to a chat. This is the delivery half of
// the nightly backup.
func (b *Bot) SendDocument(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Error().Err(err).Msg("Failed to send message")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, keyboard interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	b.send(msg)
}

func (b *Bot) sendTyping(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.log.Debug().Err(err).Msg("Failed to send chat action")
	}
}

func (b *Bot) saveSession(chatID int64, session *Session) {
	if err := b.sessions.Save(chatID, session); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to save session")
	}
}

func (b *Bot) clearSession(chatID int64) {
	if err := b.sessions.Clear(chatID); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to clear session")
	}
}
