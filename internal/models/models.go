package models

import "time"

// User holds identity-level settings for a telegram user.
type User struct {
	ChatID    int64  `db:"chat_id"    json:"chat_id"`
	TZ        string `db:"tz"         json:"tz"`      // IANA zone name
	Petname   string `db:"petname"    json:"petname"` // how the bot addresses the user
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

// Location resolves the user's timezone, falling back to fallback
// when the stored name does not resolve.
func (u *User) Location(fallback *time.Location) *time.Location {
	loc, err := time.LoadLocation(u.TZ)
	if err != nil {
		return fallback
	}
	return loc
}

type ProfanityLevel string

const (
	ProfanityOff   ProfanityLevel = "off"
	ProfanitySoft  ProfanityLevel = "soft"
	ProfanitySpicy ProfanityLevel = "spicy"
)

type AddressStyle string

const (
	AddressFixed  AddressStyle = "fixed"  // always the stored petname
	AddressRandom AddressStyle = "random" // random pick from the address pool
)

// Prefs is the per-user preference row, one-to-one with User.
type Prefs struct {
	ChatID       int64          `db:"chat_id"`
	City         string         `db:"city"`
	PartnerCity  string         `db:"partner_city"`
	Units        string         `db:"units"` // metric / imperial
	FlirtAuto    bool           `db:"flirt_auto"`
	Profanity    ProfanityLevel `db:"profanity"`
	AddressStyle AddressStyle   `db:"address_style"`
	MorningOn    bool           `db:"morning_on"`
	MorningHour  int            `db:"morning_hour"`
	NightOn      bool           `db:"night_on"`
	NightHour    int            `db:"night_hour"`
	ReactionPct  int            `db:"reaction_pct"` // 0..100
}

// MoodEntry is the daily mood record, unique per (chat, day).
type MoodEntry struct {
	ChatID int64  `db:"chat_id"`
	Day    string `db:"day"` // YYYY-MM-DD in the user's timezone
	Score  int    `db:"score"`
	Note   string `db:"note"`
	TS     int64  `db:"ts"`
}

// QuestionAnswer is an append-only saved answer to a prompted question.
type QuestionAnswer struct {
	ID       int64  `db:"id"`
	ChatID   int64  `db:"chat_id"`
	Category string `db:"category"`
	Question string `db:"question"`
	Answer   string `db:"answer"`
	TS       int64  `db:"ts"`
}

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of the rolling conversation window.
type ChatMessage struct {
	ID      int64    `db:"id"`
	ChatID  int64    `db:"chat_id"`
	Role    ChatRole `db:"role"`
	Content string   `db:"content"`
	TS      int64    `db:"ts"`
}
