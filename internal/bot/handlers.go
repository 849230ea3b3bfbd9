package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/kassaflow/kassa/internal/ai"
	"github.com/kassaflow/kassa/internal/modules/backup"
	"github.com/kassaflow/kassa/internal/modules/currencies"
	"github.com/kassaflow/kassa/internal/modules/entries"
)

const aiTimeout = 45 * time.Second

var greetingPattern = regexp.MustCompile(`(?i)^(hello|hi|hey|salom)\b`)

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if !b.whitelist.Allowed(userID) {
		b.log.Warn().Int64("telegram_id", userID).Msg("Rejected message from unlisted user")
		b.reply(chatID, "You are not allowed to use this bot.")
		return
	}

	session, err := b.sessions.Get(chatID)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to load session")
		session = &Session{}
	}

	if msg.IsCommand() {
		b.handleCommand(msg, session)
		return
	}

	text := strings.TrimSpace(msg.Text)

	switch text {
	case buttonCancel:
		b.clearSession(chatID)
		b.replyWithKeyboard(chatID, "Cancelled.", mainKeyboard())
		return
	case buttonNewEntry:
		b.saveSession(chatID, &Session{Step: stepAmount, Draft: &Draft{}})
		b.replyWithKeyboard(chatID, "Amount?", cancelKeyboard())
		return
	case buttonReports:
		b.sendDailySummary(chatID)
		return
	case buttonAssistant:
		if b.chat == nil {
			b.reply(chatID, "No AI provider is configured.")
			return
		}
		b.saveSession(chatID, &Session{Assistant: true})
		b.replyWithKeyboard(chatID, "Assistant mode. Ask about the books or dictate an entry. ❌ Cancel leaves.", cancelKeyboard())
		return
	case buttonExport:
		b.sendTodayExport(chatID)
		return
	}

	switch {
	case session.Step != "":
		b.advanceManualFlow(chatID, session, text)
	case session.AwaitingClient:
		b.finishClientQuestion(chatID, session, text)
	case session.Assistant:
		b.handleAssistantMessage(chatID, session, text)
	case greetingPattern.MatchString(text):
		b.replyWithKeyboard(chatID, greeting, mainKeyboard())
	default:
		b.handleFreeText(chatID, session, msg.From.ID, text)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message, session *Session) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		b.clearSession(chatID)
		b.replyWithKeyboard(chatID, greeting, mainKeyboard())

	case "q":
		b.handleQuickEntry(chatID, msg.From.ID, strings.TrimSpace(msg.CommandArguments()))

	case "delete":
		b.handleDeleteCommand(chatID, session, strings.TrimSpace(msg.CommandArguments()))

	case "export_today":
		b.sendTodayExport(chatID)

	default:
		b.reply(chatID, "Unknown command. /help lists what I understand.")
	}
}

// handleQuickEntry records an entry from one line using the fixed
// parsing rules, skipping the confirmation step.
func (b *Bot) handleQuickEntry(chatID, userID int64, args string) {
	parsed, err := b.fallback.Parse(args)
	if err != nil {
		b.reply(chatID, "Could not read that. Format: /q <client> <amount> <currency> [sotdim|oldim] [rate]")
		return
	}

	in, err := draftToNewEntry(draftFromParsed(parsed), userID)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to convert quick entry")
		b.reply(chatID, "Could not read that.")
		return
	}

	created, err := b.entries.Create(in)
	if err != nil {
		b.reply(chatID, "Failed to save: "+err.Error())
		return
	}
	b.replyWithKeyboard(chatID, "Recorded ✅\n"+renderEntry(created), mainKeyboard())
}

func (b *Bot) handleDeleteCommand(chatID int64, session *Session, args string) {
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil || id <= 0 {
		b.reply(chatID, "Usage: /delete <id>")
		return
	}

	entry, err := b.entries.Get(id)
	if err != nil {
		b.log.Error().Err(err).Int64("entry_id", id).Msg("Failed to load entry")
		b.reply(chatID, "Failed to look up the entry.")
		return
	}
	if entry == nil {
		b.reply(chatID, fmt.Sprintf("Entry #%d not found.", id))
		return
	}

	session.PendingDelete = id
	b.saveSession(chatID, session)

	out := tgbotapi.NewMessage(chatID, "Delete this entry?\n\n"+renderEntry(entry))
	out.ReplyMarkup = confirmKeyboard(callbackConfirmDelete, callbackCancelDelete)
	b.send(out)
}

func (b *Bot) advanceManualFlow(chatID int64, session *Session, text string) {
	switch session.Step {
	case stepAmount:
		amount, err := decimal.NewFromString(strings.ReplaceAll(text, ",", "."))
		if err != nil || !amount.IsPositive() {
			b.replyWithKeyboard(chatID, "Enter a positive number.", cancelKeyboard())
			return
		}
		session.Draft.Amount = amount.String()
		session.Step = stepCurrency
		b.saveSession(chatID, session)
		b.replyWithKeyboard(chatID, "Currency?", currencyKeyboard())

	case stepCurrency:
		code, ok := currencies.Normalize(text)
		if !ok {
			b.replyWithKeyboard(chatID, "Unknown currency. Pick one below.", currencyKeyboard())
			return
		}
		session.Draft.CurrencyCode = code
		session.Step = stepDirection
		b.saveSession(chatID, session)
		b.replyWithKeyboard(chatID, "Direction?", directionKeyboard())

	case stepDirection:
		var direction string
		switch text {
		case buttonInflow:
			direction = entries.DirectionInflow
		case buttonOutflow:
			direction = entries.DirectionOutflow
		default:
			b.replyWithKeyboard(chatID, "Choose 📥 Inflow or 📤 Outflow.", directionKeyboard())
			return
		}
		session.Draft.FlowDirection = direction
		session.Step = stepClient
		b.saveSession(chatID, session)
		b.replyWithKeyboard(chatID, "Client name?", cancelKeyboard())

	case stepClient:
		if text == "" {
			b.replyWithKeyboard(chatID, "Client name?", cancelKeyboard())
			return
		}
		session.Draft.ClientName = text
		session.Step = stepNote
		b.saveSession(chatID, session)
		b.replyWithKeyboard(chatID, `Note? Send "-" to skip.`, cancelKeyboard())

	case stepNote:
		if text != "-" && text != "" {
			session.Draft.Note = text
		}
		session.Step = ""
		b.askConfirmEntry(chatID, session)

	default:
		b.log.Warn().Str("step", session.Step).Msg("Unknown flow step, resetting session")
		b.clearSession(chatID)
		b.replyWithKeyboard(chatID, "Something went wrong, starting over.", mainKeyboard())
	}
}

// finishClientQuestion fills in the client a parsed entry was missing.
func (b *Bot) finishClientQuestion(chatID int64, session *Session, text string) {
	if session.Draft == nil {
		session.AwaitingClient = false
		b.saveSession(chatID, session)
		b.replyWithKeyboard(chatID, "Nothing pending.", mainKeyboard())
		return
	}
	if text == "" {
		b.replyWithKeyboard(chatID, "Who is the client?", cancelKeyboard())
		return
	}
	session.AwaitingClient = false
	session.Draft.ClientName = text
	b.askConfirmEntry(chatID, session)
}

// handleFreeText treats a plain message as a dictated entry: the model
// parses it when a provider is configured, the fixed rules otherwise.
func (b *Bot) handleFreeText(chatID int64, session *Session, userID int64, text string) {
	var parsed *ai.ParsedEntry
	var err error

	if b.parser != nil {
		ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
		defer cancel()
		b.sendTyping(chatID)
		parsed, err = b.parser.Parse(ctx, text)
		if err != nil {
			b.log.Warn().Err(err).Msg("Model parse failed, using fixed rules")
			parsed, err = b.fallback.Parse(text)
		}
	} else {
		parsed, err = b.fallback.Parse(text)
	}
	if err != nil {
		b.replyWithKeyboard(chatID, "I could not read an entry from that. Use ➕ New Entry, or write like: Aziz 100 usd oldim", mainKeyboard())
		return
	}

	session.Draft = draftFromParsed(parsed)
	if session.Draft.ClientName == "" {
		session.AwaitingClient = true
		b.saveSession(chatID, session)
		b.replyWithKeyboard(chatID, "Who is the client?", cancelKeyboard())
		return
	}
	b.askConfirmEntry(chatID, session)
}

func (b *Bot) handleAssistantMessage(chatID int64, session *Session, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
	defer cancel()

	b.sendTyping(chatID)
	action, err := b.chat.Respond(ctx, text)
	if err != nil {
		b.log.Warn().Err(err).Msg("Assistant request failed")
		b.reply(chatID, "The assistant is unavailable right now.")
		return
	}

	switch action.Action {
	case ai.ActionCreateEntry:
		session.Draft = draftFromParsed(action.Entry)
		if session.Draft.ClientName == "" {
			session.AwaitingClient = true
			b.saveSession(chatID, session)
			b.replyWithKeyboard(chatID, "Who is the client?", cancelKeyboard())
			return
		}
		b.askConfirmEntry(chatID, session)

	case ai.ActionDeleteEntry:
		entry, err := b.entries.Get(action.EntryID)
		if err != nil {
			b.log.Error().Err(err).Int64("entry_id", action.EntryID).Msg("Failed to load entry")
			b.reply(chatID, "Failed to look up the entry.")
			return
		}
		if entry == nil {
			b.reply(chatID, fmt.Sprintf("Entry #%d not found.", action.EntryID))
			return
		}
		session.PendingDelete = action.EntryID
		b.saveSession(chatID, session)
		out := tgbotapi.NewMessage(chatID, "Delete this entry?\n\n"+renderEntry(entry))
		out.ReplyMarkup = confirmKeyboard(callbackConfirmDelete, callbackCancelDelete)
		b.send(out)

	default:
		b.reply(chatID, action.Text)
	}
}

func (b *Bot) askConfirmEntry(chatID int64, session *Session) {
	b.saveSession(chatID, session)
	out := tgbotapi.NewMessage(chatID, "Save this entry?\n\n"+renderDraft(session.Draft))
	out.ReplyMarkup = confirmKeyboard(callbackConfirmEntry, callbackCancelEntry)
	b.send(out)
}

func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	// Ack first so the client stops the button spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.Debug().Err(err).Msg("Failed to ack callback")
	}
	if query.Message == nil || query.From == nil {
		return
	}
	chatID := query.Message.Chat.ID
	userID := query.From.ID

	if !b.whitelist.Allowed(userID) {
		b.log.Warn().Int64("telegram_id", userID).Msg("Rejected callback from unlisted user")
		return
	}

	session, err := b.sessions.Get(chatID)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to load session")
		session = &Session{}
	}

	switch query.Data {
	case callbackConfirmEntry:
		b.confirmEntry(chatID, userID, session)

	case callbackCancelEntry:
		session.Draft = nil
		session.AwaitingClient = false
		session.Step = ""
		b.saveSession(chatID, session)
		b.replyWithKeyboard(chatID, "Discarded.", mainKeyboard())

	case callbackConfirmDelete:
		b.confirmDelete(chatID, session)

	case callbackCancelDelete:
		session.PendingDelete = 0
		b.saveSession(chatID, session)
		b.replyWithKeyboard(chatID, "Kept.", mainKeyboard())

	default:
		b.log.Warn().Str("data", query.Data).Msg("Unknown callback data")
	}
}

func (b *Bot) confirmEntry(chatID, userID int64, session *Session) {
	if session.Draft == nil {
		b.replyWithKeyboard(chatID, "Nothing to confirm.", mainKeyboard())
		return
	}

	in, err := draftToNewEntry(session.Draft, userID)
	session.Draft = nil
	session.AwaitingClient = false
	b.saveSession(chatID, session)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to convert draft")
		b.replyWithKeyboard(chatID, "The draft was unreadable, please start over.", mainKeyboard())
		return
	}

	created, err := b.entries.Create(in)
	if err != nil {
		b.reply(chatID, "Failed to save: "+err.Error())
		return
	}
	b.replyWithKeyboard(chatID, "Saved ✅\n"+renderEntry(created), mainKeyboard())
}

func (b *Bot) confirmDelete(chatID int64, session *Session) {
	id := session.PendingDelete
	if id == 0 {
		b.replyWithKeyboard(chatID, "Nothing to delete.", mainKeyboard())
		return
	}
	session.PendingDelete = 0
	b.saveSession(chatID, session)

	deleted, err := b.entries.Delete(id)
	if err != nil {
		b.log.Error().Err(err).Int64("entry_id", id).Msg("Failed to delete entry")
		b.reply(chatID, "Failed to delete the entry.")
		return
	}
	if !deleted {
		b.replyWithKeyboard(chatID, fmt.Sprintf("Entry #%d was already gone.", id), mainKeyboard())
		return
	}
	b.replyWithKeyboard(chatID, fmt.Sprintf("Deleted entry #%d 🗑", id), mainKeyboard())
}

func (b *Bot) sendDailySummary(chatID int64) {
	today := time.Now().In(b.location)

	summary, err := b.reports.DailySummary(today)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to build daily summary")
		b.reply(chatID, "Failed to build the report.")
		return
	}
	daily, err := b.reports.Daily(today)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to build daily report")
		b.reply(chatID, "Failed to build the report.")
		return
	}

	b.replyWithKeyboard(chatID, renderDailySummary(summary, daily), mainKeyboard())
}

func (b *Bot) sendTodayExport(chatID int64) {
	today := time.Now().In(b.location)

	items, err := b.entries.ForDay(today)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to load entries for export")
		b.reply(chatID, "Export failed.")
		return
	}
	data, err := backup.EntriesCSV(items)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to build export CSV")
		b.reply(chatID, "Export failed.")
		return
	}

	day := today.Format("2006-01-02")
	name := fmt.Sprintf("entries_%s.csv", day)
	caption := fmt.Sprintf("Entries for %s (%d)", day, len(items))
	if err := b.SendDocument(chatID, name, data, caption); err != nil {
		b.log.Error().Err(err).Msg("Failed to send export")
	}
}
