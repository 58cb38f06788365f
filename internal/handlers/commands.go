package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"telegram-companion-bot/internal/models"
	"telegram-companion-bot/internal/texts"
)

var hhmmRx = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// zone aliases accepted by /when
var zoneAliases = map[string]string{
	"msk":  "Europe/Moscow",
	"ru":   "Europe/Moscow",
	"cn":   "Asia/Shanghai",
	"sh":   "Asia/Shanghai",
	"zibo": "Asia/Shanghai",
}

func (h *Handler) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	// a new command supersedes whatever free-text reply we were waiting for
	h.Sessions.Clear(chatID)

	if _, err := h.DB.EnsureUser(chatID); err != nil {
		h.Logger.Error("ensure user failed", zap.Error(err), zap.Int64("chat_id", chatID))
		h.send(chatID, "Память барахлит 🙈 Попробуй ещё раз.")
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		h.handleStart(chatID)
	case "menu":
		h.handleMenu(chatID)
	case "mood":
		h.handleMood(chatID)
	case "q":
		h.handleQuestion(chatID, args)
	case "q_history":
		h.handleQuestionHistory(chatID)
	case "when":
		h.handleWhen(chatID, args)
	case "weather":
		h.handleWeather(ctx, chatID)
	case "rates":
		h.handleRates(ctx, chatID, args)
	case "week":
		h.handleWeek(chatID)
	case "name":
		h.handleName(chatID, args)
	case "tz":
		h.handleTZ(chatID, args)
	case "settings":
		h.handleSettings(chatID)
	case "debug":
		h.handleDebug(chatID)
	case "ping":
		h.send(chatID, "pong")
	default:
		h.send(chatID, "Не знаю такой команды. Загляни в /menu 💙")
	}
}

func (h *Handler) handleStart(chatID int64) {
	h.send(chatID, frame("Привет!", `Я рядом 💙
/menu — панель дня
/mood — оценить настроение
/q — вопрос дня (light, deep, flirt, future)
/weather — погода в наших городах
/rates — курсы валют
/week — недельный дайджест
/settings — настройки`))
}

func (h *Handler) handleMenu(chatID int64) {
	prefs, err := h.DB.GetPrefs(chatID)
	if err != nil || prefs == nil {
		h.send(chatID, "Память барахлит 🙈 Попробуй ещё раз.")
		return
	}
	msk := time.Now().In(mustLoc("Europe/Moscow"))
	sha := time.Now().In(mustLoc("Asia/Shanghai"))
	h.send(chatID, fmt.Sprintf(
		"⏱ Москва: <b>%s</b>  •  Цзыбо/Шанхай: <b>%s</b>\n🏙 %s  •  Партнёр: %s",
		msk.Format("15:04"), sha.Format("15:04"), prefs.City, prefs.PartnerCity))
}

func (h *Handler) handleMood(chatID int64) {
	h.Sessions.Set(chatID, models.PendingPrompt{Kind: models.PromptMoodScore})
	h.send(chatID, "Пришли оценку настроения 1–10 и заметку. Пример: <code>7 много дел</code>")
}

func (h *Handler) handleQuestion(chatID int64, args string) {
	category := strings.ToLower(strings.TrimSpace(args))
	category, question := texts.PickQuestion(category)
	h.Sessions.Set(chatID, models.PendingPrompt{
		Kind:     models.PromptQuestionAnswer,
		Category: category,
		Question: question,
	})
	h.send(chatID, frame("Вопрос ("+category+")", question+"\n\nПришли один ответ — я его сохраню 💙"))
}

func (h *Handler) handleQuestionHistory(chatID int64) {
	answers, err := h.DB.RecentAnswers(chatID, 5)
	if err != nil {
		h.Logger.Error("answers read failed", zap.Error(err), zap.Int64("chat_id", chatID))
		h.send(chatID, "Память барахлит 🙈 Попробуй ещё раз.")
		return
	}
	if len(answers) == 0 {
		h.send(chatID, frame("Ответы", "Пока пусто. Используй /q"))
		return
	}
	var lines []string
	for _, a := range answers {
		lines = append(lines, fmt.Sprintf("• [%s] %s\n  ↳ %s",
			a.Category, truncate(oneline(a.Question), 120), truncate(oneline(a.Answer), 160)))
	}
	h.send(chatID, frame("Ответы (последние)", strings.Join(lines, "\n")))
}

func (h *Handler) handleWhen(chatID int64, args string) {
	if args == "" {
		h.send(chatID, "пример: /when 19:45 msk")
		return
	}
	hhmm, zone := args, "msk"
	if i := strings.IndexByte(args, ' '); i > 0 {
		hhmm, zone = args[:i], strings.TrimSpace(args[i+1:])
	}
	if !hhmmRx.MatchString(hhmm) {
		h.send(chatID, "время должно быть hh:mm")
		return
	}
	src, ok := zoneAliases[strings.ToLower(zone)]
	if !ok {
		src = "Europe/Moscow"
	}
	var hh, mm int
	fmt.Sscanf(hhmm, "%d:%d", &hh, &mm)

	loc := mustLoc(src)
	now := time.Now().In(loc)
	at := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, loc)
	msk := at.In(mustLoc("Europe/Moscow"))
	sha := at.In(mustLoc("Asia/Shanghai"))
	h.send(chatID, frame("Конвертер времени", fmt.Sprintf(
		"Москва: %s (%s), Цзыбо/Шанхай: %s (%s)",
		msk.Format("15:04"), dayLabel(msk), sha.Format("15:04"), dayLabel(sha))))
}

func (h *Handler) handleWeather(ctx context.Context, chatID int64) {
	if !h.Weather.Configured() {
		h.send(chatID, "Погода не настроена (OWM_API_KEY).")
		return
	}
	prefs, err := h.DB.GetPrefs(chatID)
	if err != nil || prefs == nil {
		h.send(chatID, "Память барахлит 🙈 Попробуй ещё раз.")
		return
	}
	a := h.Weather.CurrentLine(ctx, prefs.City, prefs.Units)
	b := h.Weather.CurrentLine(ctx, prefs.PartnerCity, prefs.Units)
	h.send(chatID, "Погода сейчас:\n"+a+"\n"+b)
}

func (h *Handler) handleRates(ctx context.Context, chatID int64, args string) {
	base := strings.ToUpper(strings.TrimSpace(args))
	if base == "" {
		base = "USD"
	}
	rates, err := h.FX.Rates(ctx, base)
	if err != nil {
		h.Logger.Warn("fx fetch failed", zap.Error(err), zap.String("base", base))
		h.send(chatID, "Курсы сейчас недоступны, попробуй позже.")
		return
	}
	var lines []string
	for _, cur := range []string{"RUB", "CNY", "EUR", "USD"} {
		if cur == base {
			continue
		}
		if rate, ok := rates[cur]; ok {
			lines = append(lines, fmt.Sprintf("1 %s = %.2f %s", base, rate, cur))
		}
	}
	if len(lines) == 0 {
		h.send(chatID, "Курсы сейчас недоступны, попробуй позже.")
		return
	}
	h.send(chatID, frame("Курсы валют", strings.Join(lines, "\n")))
}

func (h *Handler) handleWeek(chatID int64) {
	u, err := h.DB.GetUser(chatID)
	if err != nil || u == nil {
		h.send(chatID, "Память барахлит 🙈 Попробуй ещё раз.")
		return
	}
	loc := u.Location(mustLoc("Europe/Moscow"))
	since := time.Now().In(loc).AddDate(0, 0, -6).Format("2006-01-02")

	moods, err := h.DB.MoodsSince(chatID, since)
	if err != nil {
		h.Logger.Error("moods read failed", zap.Error(err), zap.Int64("chat_id", chatID))
		h.send(chatID, "Память барахлит 🙈 Попробуй ещё раз.")
		return
	}

	var body string
	if len(moods) > 0 {
		sum, best, worst := 0, moods[0].Score, moods[0].Score
		for _, m := range moods {
			sum += m.Score
			if m.Score > best {
				best = m.Score
			}
			if m.Score < worst {
				worst = m.Score
			}
		}
		body = fmt.Sprintf("Настроение за 7 дней: %d записей, ср. %.1f/10; лучш: %d; худш: %d.",
			len(moods), float64(sum)/float64(len(moods)), best, worst)
	} else {
		body = "Нет записей за неделю. Используй /mood"
	}

	weekAgo := time.Now().AddDate(0, 0, -7).Unix()
	if n, err := h.DB.CountAnswersSince(chatID, weekAgo); err == nil && n > 0 {
		body += fmt.Sprintf(" Ответов на вопросы: %d.", n)
	}
	h.send(chatID, frame("Недельный дайджест", body))
}

func (h *Handler) handleName(chatID int64, args string) {
	if args == "" {
		h.send(chatID, "пример: /name солнышко")
		return
	}
	if err := h.DB.SetPetname(chatID, args); err != nil {
		h.send(chatID, "Память барахлит 🙈 Попробуй ещё раз.")
		return
	}
	h.send(chatID, "Теперь зову тебя «"+args+"» 💙")
}

func (h *Handler) handleTZ(chatID int64, args string) {
	if args == "" {
		h.send(chatID, "пример: /tz Europe/Moscow")
		return
	}
	if _, err := time.LoadLocation(args); err != nil {
		h.send(chatID, "Не знаю такого пояса. Нужно имя вроде Europe/Moscow или Asia/Shanghai.")
		return
	}
	if err := h.DB.SetTZ(chatID, args); err != nil {
		h.send(chatID, "Память барахлит 🙈 Попробуй ещё раз.")
		return
	}
	h.send(chatID, "Часовой пояс обновлён: "+args)
}

func (h *Handler) handleDebug(chatID int64) {
	u, _ := h.DB.GetUser(chatID)
	p, _ := h.DB.GetPrefs(chatID)
	if u == nil || p == nil {
		h.send(chatID, "Профиль ещё не создан, начни с /start")
		return
	}
	h.send(chatID, frame("Профиль", fmt.Sprintf(
		"tz=%s, petname=%s\ncity=%s, partner=%s, units=%s\nутро=%02d:00 (%v), ночь=%02d:00 (%v), реакции=%d%%",
		u.TZ, u.Petname, p.City, p.PartnerCity, p.Units,
		p.MorningHour, p.MorningOn, p.NightHour, p.NightOn, p.ReactionPct)))
}

func mustLoc(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func oneline(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
