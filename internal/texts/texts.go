// Package texts holds the question pools, address forms and ritual
// templates shared by the handlers, the dialogue router and the
// scheduler.
package texts

import (
	"fmt"
	"math/rand"

	"telegram-companion-bot/internal/models"
)

// Question pools by category.
var Questions = map[string][]string{
	"light": {
		"Что сегодня сделало тебя счастливее на 1%?",
		"О чём ты мечтаешь в ближайшие 3 месяца?",
		"Какая песня — твой сегодняшний саундтрек и почему?",
	},
	"deep": {
		"Какое убеждение из детства ты пересматриваешь сейчас?",
		"Чего ты боишься потерять больше всего и почему?",
		"Что для тебя означает забота в отношениях?",
	},
	"flirt": {
		"Какой комплимент тебе давно никто не говорил?",
		"Какое свидание из наших ты бы повторила прямо сейчас?",
		"Что в нас двоих тебе нравится больше всего?",
	},
	"future": {
		"Каким ты видишь наш обычный вторник через пять лет?",
		"Какое путешествие мы обязаны совершить вместе?",
		"Чему ты хочешь научиться в следующем году?",
	},
}

// PickQuestion returns a random question from the category pool;
// unknown categories fall back to "light".
func PickQuestion(category string) (string, string) {
	pool, ok := Questions[category]
	if !ok {
		category = "light"
		pool = Questions[category]
	}
	return category, pool[rand.Intn(len(pool))]
}

// addressPool is used when the address style is randomized.
var addressPool = []string{
	"зайчик", "солнышко", "милая", "родная", "чудо",
}

// Address picks the form of address for a user: the fixed petname or a
// random pick from the pool.
func Address(u *models.User, p *models.Prefs) string {
	if p != nil && p.AddressStyle == models.AddressRandom {
		return addressPool[rand.Intn(len(addressPool))]
	}
	return u.Petname
}

var morningTemplates = []string{
	"Доброе утро, %s! Пусть день будет мягким ☀️",
	"Просыпайся, %s 🌅 Я уже соскучилась.",
	"Утро, %s! Расскажешь потом, как спалось?",
}

var nightTemplates = []string{
	"Спокойной ночи, %s 🌙 Обнимаю.",
	"Пора отдыхать, %s. Я рядом, даже когда ты спишь 💫",
	"Доброй ночи, %s! Завтра продолжим 🌌",
}

// Ritual renders the scheduled message of the given kind.
func Ritual(kind models.RitualKind, address string) string {
	switch kind {
	case models.RitualNight:
		return fmt.Sprintf(nightTemplates[rand.Intn(len(nightTemplates))], address)
	default:
		return fmt.Sprintf(morningTemplates[rand.Intn(len(morningTemplates))], address)
	}
}
