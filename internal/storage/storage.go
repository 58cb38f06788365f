package storage

import (
	"database/sql"
	"embed"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"telegram-companion-bot/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

type DB struct{ *sql.DB }

func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; serialize all connections
	db.SetMaxOpenConns(1)
	if err = migrate(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

// ---------- users -----------------------------------------------------------

// EnsureUser creates the user and prefs rows with defaults on first
// contact and returns the user. Existing rows are left untouched.
func (d *DB) EnsureUser(chatID int64) (*models.User, error) {
	if _, err := d.Exec(`INSERT OR IGNORE INTO users(chat_id, created_at) VALUES (?,?)`,
		chatID, time.Now().Unix()); err != nil {
		return nil, err
	}
	if _, err := d.Exec(`INSERT OR IGNORE INTO prefs(chat_id) VALUES (?)`, chatID); err != nil {
		return nil, err
	}
	return d.GetUser(chatID)
}

func (d *DB) GetUser(chatID int64) (*models.User, error) {
	var u models.User
	err := d.QueryRow(`
        SELECT chat_id, tz, petname, created_at
        FROM users WHERE chat_id=?`, chatID,
	).Scan(&u.ChatID, &u.TZ, &u.Petname, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &u, err
}

func (d *DB) ListUsers() ([]models.User, error) {
	rows, err := d.Query(`SELECT chat_id, tz, petname, created_at FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ChatID, &u.TZ, &u.Petname, &u.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (d *DB) SetTZ(chatID int64, tz string) error {
	_, err := d.Exec(`UPDATE users SET tz=? WHERE chat_id=?`, tz, chatID)
	return err
}

func (d *DB) SetPetname(chatID int64, petname string) error {
	_, err := d.Exec(`UPDATE users SET petname=? WHERE chat_id=?`, petname, chatID)
	return err
}

// ---------- prefs -----------------------------------------------------------

func (d *DB) GetPrefs(chatID int64) (*models.Prefs, error) {
	var p models.Prefs
	err := d.QueryRow(`
        SELECT chat_id, city, partner_city, units, flirt_auto, profanity,
               address_style, morning_on, morning_hour, night_on, night_hour,
               reaction_pct
        FROM prefs WHERE chat_id=?`, chatID,
	).Scan(&p.ChatID, &p.City, &p.PartnerCity, &p.Units, &p.FlirtAuto,
		&p.Profanity, &p.AddressStyle, &p.MorningOn, &p.MorningHour,
		&p.NightOn, &p.NightHour, &p.ReactionPct)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &p, err
}

func (d *DB) UpsertPrefs(p *models.Prefs) error {
	_, err := d.Exec(`
        INSERT INTO prefs (chat_id, city, partner_city, units, flirt_auto,
            profanity, address_style, morning_on, morning_hour, night_on,
            night_hour, reaction_pct)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(chat_id) DO UPDATE SET
            city=excluded.city,
            partner_city=excluded.partner_city,
            units=excluded.units,
            flirt_auto=excluded.flirt_auto,
            profanity=excluded.profanity,
            address_style=excluded.address_style,
            morning_on=excluded.morning_on,
            morning_hour=excluded.morning_hour,
            night_on=excluded.night_on,
            night_hour=excluded.night_hour,
            reaction_pct=excluded.reaction_pct
    `, p.ChatID, p.City, p.PartnerCity, p.Units, p.FlirtAuto, p.Profanity,
		p.AddressStyle, p.MorningOn, p.MorningHour, p.NightOn, p.NightHour,
		p.ReactionPct)
	return err
}

// ---------- moods -----------------------------------------------------------

// UpsertMood records the daily mood; a re-submission for the same day
// replaces the prior score and note.
func (d *DB) UpsertMood(chatID int64, day string, score int, note string) error {
	_, err := d.Exec(`
        INSERT INTO moods(chat_id, day, score, note, ts) VALUES (?,?,?,?,?)
        ON CONFLICT(chat_id, day) DO UPDATE SET
            score=excluded.score, note=excluded.note, ts=excluded.ts
    `, chatID, day, score, note, time.Now().Unix())
	return err
}

// SetMoodNote attaches a note to an existing entry. Returns false when
// there is no entry for that day.
func (d *DB) SetMoodNote(chatID int64, day, note string) (bool, error) {
	res, err := d.Exec(`UPDATE moods SET note=? WHERE chat_id=? AND day=?`,
		note, chatID, day)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (d *DB) GetMood(chatID int64, day string) (*models.MoodEntry, error) {
	var m models.MoodEntry
	err := d.QueryRow(`
        SELECT chat_id, day, score, note, ts FROM moods
        WHERE chat_id=? AND day=?`, chatID, day,
	).Scan(&m.ChatID, &m.Day, &m.Score, &m.Note, &m.TS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}

// MoodsSince returns scores for days >= since (YYYY-MM-DD), oldest first.
func (d *DB) MoodsSince(chatID int64, since string) ([]models.MoodEntry, error) {
	rows, err := d.Query(`
        SELECT chat_id, day, score, note, ts FROM moods
        WHERE chat_id=? AND day>=? ORDER BY day`, chatID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.MoodEntry
	for rows.Next() {
		var m models.MoodEntry
		if err := rows.Scan(&m.ChatID, &m.Day, &m.Score, &m.Note, &m.TS); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// ---------- question answers ------------------------------------------------

func (d *DB) InsertAnswer(a *models.QuestionAnswer) error {
	if a.TS == 0 {
		a.TS = time.Now().Unix()
	}
	res, err := d.Exec(`
        INSERT INTO qanswers(chat_id, category, question, answer, ts)
        VALUES (?,?,?,?,?)`,
		a.ChatID, a.Category, a.Question, a.Answer, a.TS)
	if err != nil {
		return err
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

func (d *DB) RecentAnswers(chatID int64, limit int) ([]models.QuestionAnswer, error) {
	rows, err := d.Query(`
        SELECT id, chat_id, category, question, answer, ts FROM qanswers
        WHERE chat_id=? ORDER BY id DESC LIMIT ?`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.QuestionAnswer
	for rows.Next() {
		var a models.QuestionAnswer
		if err := rows.Scan(&a.ID, &a.ChatID, &a.Category, &a.Question, &a.Answer, &a.TS); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (d *DB) CountAnswersSince(chatID int64, since int64) (int, error) {
	var n int
	err := d.QueryRow(`SELECT COUNT(*) FROM qanswers WHERE chat_id=? AND ts>=?`,
		chatID, since).Scan(&n)
	return n, err
}

// ---------- chat log --------------------------------------------------------

func (d *DB) AppendChat(chatID int64, role models.ChatRole, content string) error {
	_, err := d.Exec(`INSERT INTO chat_log(chat_id, role, content, ts) VALUES (?,?,?,?)`,
		chatID, role, content, time.Now().Unix())
	return err
}

// RecentChat returns the last limit turns in chronological order.
func (d *DB) RecentChat(chatID int64, limit int) ([]models.ChatMessage, error) {
	rows, err := d.Query(`
        SELECT id, chat_id, role, content, ts FROM (
            SELECT id, chat_id, role, content, ts FROM chat_log
            WHERE chat_id=? ORDER BY id DESC LIMIT ?
        ) ORDER BY id`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.TS); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// ---------- ritual ledger ---------------------------------------------------

// HasRitualSent reports whether the (chat, day, kind) slot is already used.
func (d *DB) HasRitualSent(chatID int64, day string, kind models.RitualKind) bool {
	var c int
	_ = d.QueryRow(`SELECT 1 FROM ritual_log WHERE chat_id=? AND day=? AND kind=?`,
		chatID, day, kind).Scan(&c)
	return c == 1
}

// MarkRitualSent records the delivery marker; inserting an existing key
// is a no-op.
func (d *DB) MarkRitualSent(chatID int64, day string, kind models.RitualKind) error {
	_, err := d.Exec(`
        INSERT OR IGNORE INTO ritual_log(chat_id, day, kind, sent_at)
        VALUES (?,?,?,?)`, chatID, day, kind, time.Now().Unix())
	return err
}
