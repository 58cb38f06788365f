package scheduler

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"telegram-companion-bot/internal/models"
	"telegram-companion-bot/internal/storage"
)

type fakeSender struct {
	sent []int64 // chat ids in send order
	fail bool
}

func (f *fakeSender) SendRitual(chatID int64, text string) error {
	f.sent = append(f.sent, chatID)
	if f.fail {
		return fmt.Errorf("chat unreachable")
	}
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *storage.DB, *fakeSender) {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sender := &fakeSender{}
	return New(db, sender, zap.NewNop()), db, sender
}

func addUser(t *testing.T, db *storage.DB, chatID int64, tz string, morningHour, nightHour int) {
	t.Helper()
	_, err := db.EnsureUser(chatID)
	require.NoError(t, err)
	require.NoError(t, db.SetTZ(chatID, tz))
	p, err := db.GetPrefs(chatID)
	require.NoError(t, err)
	p.MorningOn = morningHour >= 0
	if morningHour >= 0 {
		p.MorningHour = morningHour
	}
	p.NightOn = nightHour >= 0
	if nightHour >= 0 {
		p.NightHour = nightHour
	}
	require.NoError(t, db.UpsertPrefs(p))
}

func TestRitualSentAtMostOncePerDay(t *testing.T) {
	s, db, sender := newTestScheduler(t)
	addUser(t, db, 1, "UTC", 9, -1)

	due := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.tick(due)
	}

	assert.Len(t, sender.sent, 1, "exactly one send attempt for the day")
	assert.True(t, db.HasRitualSent(1, "2025-03-10", models.RitualMorning))
}

func TestRitualResendsOnNextDay(t *testing.T) {
	s, db, sender := newTestScheduler(t)
	addUser(t, db, 1, "UTC", 9, -1)

	s.tick(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	s.tick(time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC))

	assert.Len(t, sender.sent, 2)
	assert.True(t, db.HasRitualSent(1, "2025-03-10", models.RitualMorning))
	assert.True(t, db.HasRitualSent(1, "2025-03-11", models.RitualMorning))
}

func TestRitualFiresOnlyAtTopOfHour(t *testing.T) {
	s, db, sender := newTestScheduler(t)
	addUser(t, db, 1, "UTC", 9, -1)

	s.tick(time.Date(2025, 3, 10, 8, 59, 30, 0, time.UTC))
	s.tick(time.Date(2025, 3, 10, 9, 1, 0, 0, time.UTC))
	s.tick(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	assert.Empty(t, sender.sent)
	assert.False(t, db.HasRitualSent(1, "2025-03-10", models.RitualMorning))
}

func TestFailedSendStillBurnsTheSlot(t *testing.T) {
	s, db, sender := newTestScheduler(t)
	sender.fail = true
	addUser(t, db, 1, "UTC", 9, -1)

	due := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s.tick(due)
	s.tick(due)

	// one attempt per day even for an unreachable chat: no retry storm
	assert.Len(t, sender.sent, 1)
	assert.True(t, db.HasRitualSent(1, "2025-03-10", models.RitualMorning))
}

func TestRitualHonorsUserTimezone(t *testing.T) {
	s, db, sender := newTestScheduler(t)
	addUser(t, db, 1, "Asia/Shanghai", 9, -1)

	// 01:00 UTC == 09:00 in Shanghai
	s.tick(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	assert.Empty(t, sender.sent)

	s.tick(time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC))
	assert.Len(t, sender.sent, 1)
	assert.True(t, db.HasRitualSent(1, "2025-03-10", models.RitualMorning))
}

func TestBadTimezoneFallsBackAndScanContinues(t *testing.T) {
	s, db, sender := newTestScheduler(t)
	addUser(t, db, 1, "Mars/Olympus", 12, -1)
	addUser(t, db, 2, "UTC", 9, -1)

	// 09:00 UTC == 12:00 in the Moscow fallback used for the broken zone
	s.tick(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	assert.ElementsMatch(t, []int64{1, 2}, sender.sent)
}

func TestMorningAndNightAreIndependent(t *testing.T) {
	s, db, sender := newTestScheduler(t)
	addUser(t, db, 1, "UTC", 9, 22)

	s.tick(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	s.tick(time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC))

	assert.Len(t, sender.sent, 2)
	assert.True(t, db.HasRitualSent(1, "2025-03-10", models.RitualMorning))
	assert.True(t, db.HasRitualSent(1, "2025-03-10", models.RitualNight))
}

func TestDisabledRitualIsSkipped(t *testing.T) {
	s, db, sender := newTestScheduler(t)
	addUser(t, db, 1, "UTC", -1, -1)

	s.tick(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	s.tick(time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC))

	assert.Empty(t, sender.sent)
}
