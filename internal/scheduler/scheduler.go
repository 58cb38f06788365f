// Package scheduler owns the daily ritual dispatch loop: once a minute
// every known user is checked against their configured ritual hours,
// and the ritual_log ledger guarantees at most one send attempt per
// user per day per kind.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"telegram-companion-bot/internal/models"
	"telegram-companion-bot/internal/storage"
	"telegram-companion-bot/internal/texts"
)

// Sender is the transport capability the scheduler needs.
type Sender interface {
	SendRitual(chatID int64, text string) error
}

type Scheduler struct {
	db         *storage.DB
	sender     Sender
	logger     *zap.Logger
	defaultLoc *time.Location
}

func New(db *storage.DB, sender Sender, logger *zap.Logger) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.UTC
	}
	return &Scheduler{db: db, sender: sender, logger: logger, defaultLoc: loc}
}

// Start registers the one-minute job and shuts the scheduler down when
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) (gocron.Scheduler, error) {
	sch, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sch.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.tick(time.Now().UTC())
		}),
	)
	if err != nil {
		return nil, err
	}

	sch.Start()

	go func() {
		<-ctx.Done()
		if err := sch.Shutdown(); err != nil {
			s.logger.Warn("scheduler shutdown", zap.Error(err))
		}
	}()

	return sch, nil
}

// tick scans all users. Errors are isolated per user so one bad row or
// unreachable chat never aborts the rest of the scan.
func (s *Scheduler) tick(nowUTC time.Time) {
	users, err := s.db.ListUsers()
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return
	}
	for i := range users {
		s.tickUser(nowUTC, &users[i])
	}
}

func (s *Scheduler) tickUser(nowUTC time.Time, u *models.User) {
	prefs, err := s.db.GetPrefs(u.ChatID)
	if err != nil {
		s.logger.Error("read prefs failed", zap.Error(err), zap.Int64("chat_id", u.ChatID))
		return
	}
	if prefs == nil {
		return
	}

	loc, err := time.LoadLocation(u.TZ)
	if err != nil {
		s.logger.Warn("bad timezone, using default",
			zap.String("tz", u.TZ), zap.Int64("chat_id", u.ChatID))
		loc = s.defaultLoc
	}

	now := nowUTC.In(loc)
	// rituals fire at the top of the configured hour
	if now.Minute() != 0 {
		return
	}
	day := now.Format("2006-01-02")
	addr := texts.Address(u, prefs)

	if prefs.MorningOn && now.Hour() == prefs.MorningHour {
		s.deliver(u.ChatID, day, models.RitualMorning, addr)
	}
	if prefs.NightOn && now.Hour() == prefs.NightHour {
		s.deliver(u.ChatID, day, models.RitualNight, addr)
	}
}

// deliver sends one ritual message and burns the (chat, day, kind)
// slot afterwards whether or not the send succeeded, so an unreachable
// user is attempted at most once per day instead of every tick.
func (s *Scheduler) deliver(chatID int64, day string, kind models.RitualKind, addr string) {
	if s.db.HasRitualSent(chatID, day, kind) {
		return
	}

	if err := s.sender.SendRitual(chatID, texts.Ritual(kind, addr)); err != nil {
		s.logger.Warn("ritual send failed",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.String("kind", string(kind)))
	}

	if err := s.db.MarkRitualSent(chatID, day, kind); err != nil {
		s.logger.Error("ritual marker write failed",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.String("kind", string(kind)))
	}
}
