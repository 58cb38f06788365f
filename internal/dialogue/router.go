// Package dialogue routes free-text messages: a message either
// resolves the user's single pending prompt or becomes ordinary
// conversation for the language model.
package dialogue

import (
	"context"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"telegram-companion-bot/internal/llm"
	"telegram-companion-bot/internal/models"
	"telegram-companion-bot/internal/session"
	"telegram-companion-bot/internal/storage"
	"telegram-companion-bot/internal/texts"
)

const (
	// FallbackReply is returned when the language model is not
	// configured or fails; the conversation turn must never error out.
	FallbackReply = "Я сейчас не могу ответить умно, но я рядом 💙"

	replyStorageTrouble = "Что-то сломалось у меня в памяти 🙈 Попробуй ещё раз."
	replyMoodFormat     = "Нужно число 1–10, можно с заметкой. Пример: <code>8 выспалась</code>\nНачни заново с /mood"
	replyNoteSaved      = "Добавила заметку к сегодняшнему настроению 📝"
	replyNoteOrphan     = "Сегодня ещё нет оценки настроения — начни с /mood"
	replyAnswerSaved    = "Сохранила 💙"
)

// historyWindow is how many recent chat turns are fed back to the model.
const historyWindow = 8

var moodRx = regexp.MustCompile(`^\s*(-?\d+)(?:\s+([\s\S]*))?$`)

// Reactor is the optional reaction side channel of the transport.
// A nil Reactor means the capability is unavailable.
type Reactor interface {
	React(chatID int64, messageID int, emoji string) error
}

// Incoming is a free-text message already stripped of commands and
// button callbacks by the transport.
type Incoming struct {
	ChatID    int64
	MessageID int
	Text      string
}

type Router struct {
	DB       *storage.DB
	Sessions *session.Tracker
	LLM      *llm.Client
	Reactor  Reactor
	Logger   *zap.Logger

	DefaultLoc *time.Location

	// roll returns a number in [0,100); overridable in tests.
	roll func() int
}

func NewRouter(db *storage.DB, sessions *session.Tracker, gen *llm.Client, logger *zap.Logger) *Router {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.UTC
	}
	return &Router{
		DB:         db,
		Sessions:   sessions,
		LLM:        gen,
		Logger:     logger,
		DefaultLoc: loc,
		roll:       func() int { return rand.Intn(100) },
	}
}

// Route consumes at most one pending prompt and returns the reply text
// for delivery. An empty result means nothing should be sent.
func (r *Router) Route(ctx context.Context, in Incoming) string {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return ""
	}

	u, err := r.DB.EnsureUser(in.ChatID)
	if err != nil {
		r.Logger.Error("ensure user failed", zap.Error(err), zap.Int64("chat_id", in.ChatID))
		return replyStorageTrouble
	}

	if p, ok := r.Sessions.Take(in.ChatID); ok {
		switch p.Kind {
		case models.PromptMoodScore:
			return r.moodScore(u, text)
		case models.PromptMoodNote:
			return r.moodNote(u, text)
		case models.PromptQuestionAnswer:
			return r.questionAnswer(u, p, text)
		}
	}

	return r.smallTalk(ctx, u, in, text)
}

// --- pending prompt branches ------------------------------------------------

func (r *Router) moodScore(u *models.User, text string) string {
	m := moodRx.FindStringSubmatch(text)
	if m == nil {
		// prompt stays consumed: the user re-issues /mood
		return replyMoodFormat
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return replyMoodFormat
	}
	score := clampScore(n)
	note := strings.TrimSpace(m[2])

	day := r.today(u)
	if err := r.DB.UpsertMood(u.ChatID, day, score, note); err != nil {
		r.Logger.Error("mood upsert failed", zap.Error(err), zap.Int64("chat_id", u.ChatID))
		return replyStorageTrouble
	}

	if note != "" {
		return "Записала: " + strconv.Itoa(score) + "/10 — " + note
	}
	r.Sessions.Set(u.ChatID, models.PendingPrompt{Kind: models.PromptMoodNote})
	return "Записала: " + strconv.Itoa(score) + "/10. Хочешь — добавь заметку одним сообщением."
}

func (r *Router) moodNote(u *models.User, text string) string {
	ok, err := r.DB.SetMoodNote(u.ChatID, r.today(u), text)
	if err != nil {
		r.Logger.Error("mood note failed", zap.Error(err), zap.Int64("chat_id", u.ChatID))
		return replyStorageTrouble
	}
	if !ok {
		return replyNoteOrphan
	}
	return replyNoteSaved
}

func (r *Router) questionAnswer(u *models.User, p models.PendingPrompt, text string) string {
	err := r.DB.InsertAnswer(&models.QuestionAnswer{
		ChatID:   u.ChatID,
		Category: p.Category,
		Question: p.Question,
		Answer:   text,
	})
	if err != nil {
		r.Logger.Error("answer insert failed", zap.Error(err), zap.Int64("chat_id", u.ChatID))
		return replyStorageTrouble
	}
	return replyAnswerSaved
}

// --- ordinary conversation --------------------------------------------------

func (r *Router) smallTalk(ctx context.Context, u *models.User, in Incoming, text string) string {
	if err := r.DB.AppendChat(u.ChatID, models.RoleUser, text); err != nil {
		r.Logger.Error("chat log append failed", zap.Error(err), zap.Int64("chat_id", u.ChatID))
		return replyStorageTrouble
	}

	prefs, err := r.DB.GetPrefs(u.ChatID)
	if err != nil || prefs == nil {
		prefs = &models.Prefs{ChatID: u.ChatID}
	}

	reply := FallbackReply
	if r.LLM.Available() {
		history, herr := r.DB.RecentChat(u.ChatID, historyWindow)
		if herr != nil {
			r.Logger.Error("chat history read failed", zap.Error(herr), zap.Int64("chat_id", u.ChatID))
		}
		persona := llm.Persona{
			Petname:   texts.Address(u, prefs),
			Flirty:    prefs.FlirtAuto,
			Profanity: prefs.Profanity,
		}
		if generated, gerr := r.LLM.Generate(ctx, history, persona); gerr == nil && generated != "" {
			reply = generated
		} else if gerr != nil {
			r.Logger.Warn("llm unavailable, using fallback",
				zap.Error(gerr), zap.Int64("chat_id", u.ChatID))
		}
	}

	if err := r.DB.AppendChat(u.ChatID, models.RoleAssistant, reply); err != nil {
		r.Logger.Error("chat log append failed", zap.Error(err), zap.Int64("chat_id", u.ChatID))
	}

	r.maybeReact(in, prefs)
	return reply
}

// maybeReact fires the reaction side channel with the configured
// probability; its failure never affects the main reply.
func (r *Router) maybeReact(in Incoming, prefs *models.Prefs) {
	if r.Reactor == nil || prefs.ReactionPct <= 0 {
		return
	}
	if r.roll() >= prefs.ReactionPct {
		return
	}
	emoji, ok := classifyReaction(in.Text)
	if !ok {
		return
	}
	if err := r.Reactor.React(in.ChatID, in.MessageID, emoji); err != nil {
		r.Logger.Debug("reaction failed", zap.Error(err), zap.Int64("chat_id", in.ChatID))
	}
}

func (r *Router) today(u *models.User) string {
	return time.Now().In(u.Location(r.DefaultLoc)).Format("2006-01-02")
}

func clampScore(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
