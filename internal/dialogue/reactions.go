package dialogue

import "strings"

// Telegram accepts a limited emoji set for reactions, so each keyword
// group maps onto one of the allowed emojis.
var reactionGroups = []struct {
	emoji    string
	keywords []string
}{
	{"❤️", []string{"спасибо", "благодарю", "спасибки", "thank"}},
	{"🎉", []string{"ура", "получилось", "сдала", "сдал", "победа", "праздн"}},
	{"🫂", []string{"грустно", "устала", "устал", "плохо", "тяжело", "плачу"}},
	{"😁", []string{"хаха", "ахах", "лол", "смешно", "ржу", "😂"}},
}

// classifyReaction matches the incoming text against the sentiment
// keyword groups. The first matching group wins.
func classifyReaction(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, g := range reactionGroups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.emoji, true
			}
		}
	}
	return "", false
}
