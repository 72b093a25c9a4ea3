package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"backend-stagehunter/internal/db"
)

// Store keeps a record of viewing sessions in Postgres so summaries outlive
// the process that served them.
type Store struct {
	db db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{db: q}
}

func (s *Store) Start(ctx context.Context, sess Session) (time.Time, error) {
	var startedAt time.Time
	row := s.db.QueryRow(ctx, `
		INSERT INTO stagehunter.cursor_sessions (id, stage_id, resolution, started_at)
		VALUES ($1,$2,$3,$4)
		RETURNING started_at
	`, sess.ID, sess.StageID, sess.Resolution, sess.StartedAt)
	if err := row.Scan(&startedAt); err != nil {
		return time.Time{}, err
	}
	return startedAt, nil
}

func (s *Store) End(ctx context.Context, id string, transitions uint64, endedAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE stagehunter.cursor_sessions
		SET ended_at=$2, transitions=$3
		WHERE id=$1
	`, id, endedAt, int64(transitions))
	return err
}

func (s *Store) Summary(ctx context.Context, id string) (Summary, error) {
	var sum Summary
	var endedAt *time.Time
	var transitions int64
	row := s.db.QueryRow(ctx, `
		SELECT id, stage_id, started_at, ended_at, COALESCE(transitions,0)
		FROM stagehunter.cursor_sessions WHERE id=$1
	`, id)
	if err := row.Scan(&sum.SessionID, &sum.StageID, &sum.StartedAt, &endedAt, &transitions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Summary{}, ErrSessionNotFound
		}
		return Summary{}, err
	}
	sum.Transitions = uint64(transitions)

	end := time.Now()
	if endedAt != nil {
		sum.EndedAt = *endedAt
		end = *endedAt
	} else {
		sum.Active = true
	}
	sum.DurationSec = int64(end.Sub(sum.StartedAt).Seconds())
	return sum, nil
}
