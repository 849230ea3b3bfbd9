package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kassaflow/kassa/internal/modules/currencies"
)

// Reply keyboard button labels. Incoming messages are matched against
// these exact strings, so changing one invalidates keyboards already
// shown in old chats.
const (
	buttonNewEntry  = "➕ New Entry"
	buttonReports   = "📊 Reports"
	buttonAssistant = "🤖 AI Assistant"
	buttonExport    = "📤 Export CSV"
	buttonCancel    = "❌ Cancel"
	buttonInflow    = "📥 Inflow"
	buttonOutflow   = "📤 Outflow"
)

// Inline callback payloads.
const (
	callbackConfirmEntry  = "confirm_entry"
	callbackCancelEntry   = "cancel_entry"
	callbackConfirmDelete = "confirm_delete"
	callbackCancelDelete  = "cancel_delete"
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonNewEntry),
			tgbotapi.NewKeyboardButton(buttonReports),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonAssistant),
			tgbotapi.NewKeyboardButton(buttonExport),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonCancel)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func directionKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonInflow),
			tgbotapi.NewKeyboardButton(buttonOutflow),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonCancel)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func currencyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var row []tgbotapi.KeyboardButton
	for _, code := range currencies.Supported() {
		row = append(row, tgbotapi.NewKeyboardButton(code))
	}
	kb := tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonCancel)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func confirmKeyboard(confirmData, cancelData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", confirmData),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cancelData),
		),
	)
}
