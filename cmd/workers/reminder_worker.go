package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// DeadlineNotifier is implemented by the notifications service.
type DeadlineNotifier interface {
	DeadlineApproaching(ctx context.Context, projectID uuid.UUID, sessionKey string, deadline time.Time)
}

// ReminderWorker nudges members about voting sessions that are about to
// close. It only reads session state; sessions expire lazily and are
// finalized by the API, never by this worker.
type ReminderWorker struct {
	db       *sqlx.DB
	notifier DeadlineNotifier
	logger   *zap.Logger
	window   time.Duration

	mu       sync.Mutex
	reminded map[uuid.UUID]struct{}
}

func NewReminderWorker(db *sqlx.DB, notifier DeadlineNotifier, logger *zap.Logger, window time.Duration) *ReminderWorker {
	if window == 0 {
		window = 24 * time.Hour
	}
	return &ReminderWorker{
		db:       db,
		notifier: notifier,
		logger:   logger,
		window:   window,
		reminded: make(map[uuid.UUID]struct{}),
	}
}

type closingSession struct {
	ID         uuid.UUID `db:"id"`
	ProjectID  uuid.UUID `db:"project_id"`
	SessionKey string    `db:"session_key"`
	Deadline   time.Time `db:"deadline"`
}

// Run sends one reminder per session whose deadline falls inside the
// window. Sessions already reminded in this process are skipped.
func (w *ReminderWorker) Run(ctx context.Context) {
	now := time.Now()
	var sessions []closingSession
	err := w.db.SelectContext(ctx, &sessions, `
		SELECT id, project_id, session_key, deadline
		FROM voting_sessions
		WHERE status = 'open'
		  AND deadline IS NOT NULL
		  AND deadline > $1
		  AND deadline <= $2`,
		now, now.Add(w.window))
	if err != nil {
		w.logger.Error("failed to query closing sessions", zap.Error(err))
		return
	}

	for _, session := range sessions {
		w.mu.Lock()
		_, seen := w.reminded[session.ID]
		if !seen {
			w.reminded[session.ID] = struct{}{}
		}
		w.mu.Unlock()
		if seen {
			continue
		}

		w.logger.Info("sending deadline reminder",
			zap.String("project_id", session.ProjectID.String()),
			zap.String("session_key", session.SessionKey),
			zap.Time("deadline", session.Deadline))
		w.notifier.DeadlineApproaching(ctx, session.ProjectID, session.SessionKey, session.Deadline)
	}
}
