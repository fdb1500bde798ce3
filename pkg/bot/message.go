package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/dialog"
)

// maxMessageRunes is the Telegram limit on message text.
const maxMessageRunes = 4096

// messages converts r into the Telegram messages to send. Long text is split
// and only the last part carries the keyboard.
func messages(chatID int64, r dialog.Reply) []tgbotapi.MessageConfig {
	parts := split(r.Text, maxMessageRunes)
	out := make([]tgbotapi.MessageConfig, 0, len(parts))
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 {
			msg.ReplyMarkup = markup(r.Options)
		}
		out = append(out, msg)
	}
	return out
}

// markup offers options as a one-time keyboard with one button per row.
// Without options any previous keyboard is removed.
func markup(options []string) any {
	if len(options) == 0 {
		return tgbotapi.NewRemoveKeyboard(true)
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, len(options))
	for _, o := range options {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(o)))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	return kb
}

// split cuts text into chunks of at most limit runes, preferring line breaks.
func split(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		if nl := lastNewline(runes[:limit]); nl > 0 {
			cut = nl + 1
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func lastNewline(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return -1
}
