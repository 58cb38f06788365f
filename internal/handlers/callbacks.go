package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"telegram-companion-bot/internal/models"
)

const (
	cbFlirt       = "cfg_flirt"
	cbProfanity   = "cfg_prof"
	cbStyle       = "cfg_style"
	cbMorning     = "cfg_morning"
	cbNight       = "cfg_night"
	cbMorningHour = "cfg_mh"
	cbNightHour   = "cfg_nh"
	cbReaction    = "cfg_react"
	cbBack        = "cfg_back"
)

func (h *Handler) handleSettings(chatID int64) {
	p, err := h.DB.GetPrefs(chatID)
	if err != nil || p == nil {
		h.send(chatID, "Память барахлит 🙈 Попробуй ещё раз.")
		return
	}
	text, kb := settingsPanel(p)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = kb
	if _, err := h.Bot.Send(msg); err != nil {
		h.Logger.Error("send settings failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (h *Handler) HandleCallback(cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	data := cq.Data

	// always answer callback
	_, _ = h.Bot.Request(tgbotapi.NewCallback(cq.ID, ""))

	p, err := h.DB.GetPrefs(chatID)
	if err != nil || p == nil {
		h.send(chatID, "Память барахлит 🙈 Попробуй ещё раз.")
		return
	}

	// hour / percent pickers carry their value after a colon
	key, val := data, ""
	if i := strings.IndexByte(data, ':'); i > 0 {
		key, val = data[:i], data[i+1:]
	}

	switch key {
	case cbFlirt:
		p.FlirtAuto = !p.FlirtAuto
	case cbProfanity:
		p.Profanity = nextProfanity(p.Profanity)
	case cbStyle:
		if p.AddressStyle == models.AddressRandom {
			p.AddressStyle = models.AddressFixed
		} else {
			p.AddressStyle = models.AddressRandom
		}
	case cbMorning:
		p.MorningOn = !p.MorningOn
	case cbNight:
		p.NightOn = !p.NightOn
	case cbMorningHour:
		if val == "" {
			h.editToHourPicker(chatID, cq.Message.MessageID, cbMorningHour, "Час утреннего сообщения")
			return
		}
		if hh, err := strconv.Atoi(val); err == nil && hh >= 0 && hh <= 23 {
			p.MorningHour = hh
		}
	case cbNightHour:
		if val == "" {
			h.editToHourPicker(chatID, cq.Message.MessageID, cbNightHour, "Час вечернего сообщения")
			return
		}
		if hh, err := strconv.Atoi(val); err == nil && hh >= 0 && hh <= 23 {
			p.NightHour = hh
		}
	case cbReaction:
		if val == "" {
			h.editToReactionPicker(chatID, cq.Message.MessageID)
			return
		}
		if pct, err := strconv.Atoi(val); err == nil && pct >= 0 && pct <= 100 {
			p.ReactionPct = pct
		}
	case cbBack:
		// just re-render the panel
	default:
		return
	}

	if err := h.DB.UpsertPrefs(p); err != nil {
		h.Logger.Error("prefs update failed", zap.Error(err), zap.Int64("chat_id", chatID))
		h.send(chatID, "Не получилось сохранить, попробуй ещё раз.")
		return
	}

	text, kb := settingsPanel(p)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, cq.Message.MessageID, text, kb)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := h.Bot.Send(edit); err != nil {
		h.Logger.Debug("settings edit failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func settingsPanel(p *models.Prefs) (string, tgbotapi.InlineKeyboardMarkup) {
	text := frame("Настройки", fmt.Sprintf(
		"Флирт: %s\nКрепкие словечки: %s\nОбращение: %s\nУтро: %s в %02d:00\nНочь: %s в %02d:00\nРеакции: %d%%",
		onOff(p.FlirtAuto), string(p.Profanity), styleLabel(p.AddressStyle),
		onOff(p.MorningOn), p.MorningHour, onOff(p.NightOn), p.NightHour, p.ReactionPct))

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Флирт "+onOff(p.FlirtAuto), cbFlirt),
			tgbotapi.NewInlineKeyboardButtonData("Словечки: "+string(p.Profanity), cbProfanity),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Обращение: "+styleLabel(p.AddressStyle), cbStyle),
			tgbotapi.NewInlineKeyboardButtonData("Реакции: "+strconv.Itoa(p.ReactionPct)+"%", cbReaction),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Утро "+onOff(p.MorningOn), cbMorning),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Час утра: %02d", p.MorningHour), cbMorningHour),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Ночь "+onOff(p.NightOn), cbNight),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Час ночи: %02d", p.NightHour), cbNightHour),
		),
	)
	return text, kb
}

func (h *Handler) editToHourPicker(chatID int64, messageID int, key, title string) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for start := 0; start < 24; start += 6 {
		var row []tgbotapi.InlineKeyboardButton
		for hh := start; hh < start+6; hh++ {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%02d", hh), fmt.Sprintf("%s:%d", key, hh)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("← назад", cbBack)))

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, title,
		tgbotapi.NewInlineKeyboardMarkup(rows...))
	if _, err := h.Bot.Send(edit); err != nil {
		h.Logger.Debug("hour picker edit failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (h *Handler) editToReactionPicker(chatID int64, messageID int) {
	var row []tgbotapi.InlineKeyboardButton
	for _, pct := range []int{0, 10, 30, 50, 100} {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			strconv.Itoa(pct)+"%", fmt.Sprintf("%s:%d", cbReaction, pct)))
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
		"Как часто реагировать на сообщения?",
		tgbotapi.NewInlineKeyboardMarkup(row,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("← назад", cbBack))))
	if _, err := h.Bot.Send(edit); err != nil {
		h.Logger.Debug("reaction picker edit failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func nextProfanity(p models.ProfanityLevel) models.ProfanityLevel {
	switch p {
	case models.ProfanityOff:
		return models.ProfanitySoft
	case models.ProfanitySoft:
		return models.ProfanitySpicy
	default:
		return models.ProfanityOff
	}
}

func onOff(b bool) string {
	if b {
		return "вкл"
	}
	return "выкл"
}

func styleLabel(s models.AddressStyle) string {
	if s == models.AddressRandom {
		return "вразнобой"
	}
	return "по имени"
}
