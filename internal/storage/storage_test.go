package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-companion-bot/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEnsureUserCreatesDefaults(t *testing.T) {
	db := newTestDB(t)

	u, err := db.EnsureUser(42)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Europe/Moscow", u.TZ)
	assert.Equal(t, "зайчик", u.Petname)

	p, err := db.GetPrefs(42)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Moscow", p.City)
	assert.Equal(t, "Zibo", p.PartnerCity)
	assert.Equal(t, models.ProfanityOff, p.Profanity)
	assert.True(t, p.MorningOn)
	assert.True(t, p.NightOn)

	// second contact must not reset anything
	require.NoError(t, db.SetPetname(42, "солнышко"))
	u, err = db.EnsureUser(42)
	require.NoError(t, err)
	assert.Equal(t, "солнышко", u.Petname)
}

func TestMoodUpsertReplacesSameDay(t *testing.T) {
	db := newTestDB(t)
	_, err := db.EnsureUser(1)
	require.NoError(t, err)

	require.NoError(t, db.UpsertMood(1, "2025-03-10", 4, ""))
	require.NoError(t, db.UpsertMood(1, "2025-03-10", 9, "получше"))

	m, err := db.GetMood(1, "2025-03-10")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 9, m.Score)
	assert.Equal(t, "получше", m.Note)

	moods, err := db.MoodsSince(1, "2025-03-01")
	require.NoError(t, err)
	assert.Len(t, moods, 1, "same day must stay a single row")
}

func TestSetMoodNote(t *testing.T) {
	db := newTestDB(t)
	_, err := db.EnsureUser(1)
	require.NoError(t, err)

	ok, err := db.SetMoodNote(1, "2025-03-10", "заметка")
	require.NoError(t, err)
	assert.False(t, ok, "no entry for the day yet")

	require.NoError(t, db.UpsertMood(1, "2025-03-10", 7, ""))
	ok, err = db.SetMoodNote(1, "2025-03-10", "заметка")
	require.NoError(t, err)
	assert.True(t, ok)

	m, err := db.GetMood(1, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 7, m.Score)
	assert.Equal(t, "заметка", m.Note)
}

func TestRecentChatWindow(t *testing.T) {
	db := newTestDB(t)
	_, err := db.EnsureUser(5)
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		require.NoError(t, db.AppendChat(5, role, string(rune('a'+i))))
	}

	msgs, err := db.RecentChat(5, 8)
	require.NoError(t, err)
	require.Len(t, msgs, 8)
	// chronological order, ending with the newest turn
	assert.Equal(t, "e", msgs[0].Content)
	assert.Equal(t, "l", msgs[7].Content)
}

func TestRitualLedgerIdempotent(t *testing.T) {
	db := newTestDB(t)
	_, err := db.EnsureUser(9)
	require.NoError(t, err)

	assert.False(t, db.HasRitualSent(9, "2025-03-10", models.RitualMorning))

	require.NoError(t, db.MarkRitualSent(9, "2025-03-10", models.RitualMorning))
	require.NoError(t, db.MarkRitualSent(9, "2025-03-10", models.RitualMorning))

	assert.True(t, db.HasRitualSent(9, "2025-03-10", models.RitualMorning))
	assert.False(t, db.HasRitualSent(9, "2025-03-10", models.RitualNight))
	assert.False(t, db.HasRitualSent(9, "2025-03-11", models.RitualMorning))

	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM ritual_log WHERE chat_id=9`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestAnswersAppendOnly(t *testing.T) {
	db := newTestDB(t)
	_, err := db.EnsureUser(3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.InsertAnswer(&models.QuestionAnswer{
			ChatID: 3, Category: "light", Question: "Q?", Answer: "A",
		}))
	}

	answers, err := db.RecentAnswers(3, 5)
	require.NoError(t, err)
	assert.Len(t, answers, 3)

	n, err := db.CountAnswersSince(3, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
