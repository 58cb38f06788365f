// Package handlers is the Telegram surface: command dispatch, inline
// keyboards and the glue between transport updates and the dialogue
// router / ritual scheduler.
package handlers

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"telegram-companion-bot/internal/dialogue"
	"telegram-companion-bot/internal/fx"
	"telegram-companion-bot/internal/session"
	"telegram-companion-bot/internal/storage"
	"telegram-companion-bot/internal/weather"
)

type Handler struct {
	Bot      *tgbotapi.BotAPI
	DB       *storage.DB
	Sessions *session.Tracker
	Router   *dialogue.Router
	Weather  *weather.Client
	FX       *fx.Client
	Logger   *zap.Logger
}

func New(bot *tgbotapi.BotAPI, db *storage.DB, sessions *session.Tracker,
	router *dialogue.Router, wtr *weather.Client, fxc *fx.Client, logger *zap.Logger) *Handler {
	h := &Handler{
		Bot:      bot,
		DB:       db,
		Sessions: sessions,
		Router:   router,
		Weather:  wtr,
		FX:       fxc,
		Logger:   logger,
	}
	router.Reactor = h
	return h
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		if upd.Message.IsCommand() {
			h.HandleCommand(ctx, upd.Message)
			return
		}
		h.HandleText(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		h.HandleCallback(upd.CallbackQuery)
	}
}

func (h *Handler) HandleText(ctx context.Context, msg *tgbotapi.Message) {
	reply := h.Router.Route(ctx, dialogue.Incoming{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	})
	if reply != "" {
		h.send(msg.Chat.ID, reply)
	}
}

// SendRitual implements scheduler.Sender.
func (h *Handler) SendRitual(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := h.Bot.Send(msg)
	return err
}

// React implements dialogue.Reactor through the raw setMessageReaction
// method; bot api v5 has no typed wrapper for it.
func (h *Handler) React(chatID int64, messageID int, emoji string) error {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero("message_id", messageID)
	params["reaction"] = fmt.Sprintf(`[{"type":"emoji","emoji":"%s"}]`, emoji)
	_, err := h.Bot.MakeRequest("setMessageReaction", params)
	return err
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.Bot.Send(msg); err != nil {
		h.Logger.Error("send failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

// frame wraps a reply in the bold-title style every panel uses.
func frame(title, body string) string {
	return "<b>" + title + "</b>\n" + body
}

// dayLabel renders "сегодня"/"завтра"/weekday for converted times.
func dayLabel(t time.Time) string {
	today := time.Now().In(t.Location())
	switch t.YearDay() - today.YearDay() {
	case 0:
		return "сегодня"
	case 1, -364, -365:
		return "завтра"
	default:
		return t.Format("Mon")
	}
}
