// Package repository provides PostgreSQL persistence for gambling sessions.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/gambling-tax/internal/database"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
)

// pgDateFormat matches models.DateLayout in PostgreSQL to_date/to_char syntax.
const pgDateFormat = "MM-DD-YYYY"

const selectSessions = `
	SELECT id, to_char(session_date, 'MM-DD-YYYY'), location, state, game_type,
	       buy_in, cash_out, tax_withheld, withheld_amount, documentation_note, notes
	FROM gambling_sessions`

const insertSession = `
	INSERT INTO gambling_sessions (
		session_date, location, state, game_type, buy_in, cash_out,
		tax_withheld, withheld_amount, documentation_note, notes
	)
	VALUES (to_date($1, '` + pgDateFormat + `'), $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id`

// StoredSession is a session with its database ID.
type StoredSession struct {
	ID int64
	models.Session
}

// SessionRepository handles gambling session database operations.
type SessionRepository struct {
	db database.PGXDB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db database.PGXDB) *SessionRepository {
	return &SessionRepository{db: db}
}

func insertArgs(s *models.Session) []any {
	return []any{
		s.Date, s.Location, s.State, s.GameType, s.BuyIn, s.CashOut,
		s.TaxWithheld, s.WithheldAmount, s.DocumentationNote, s.Notes,
	}
}

// Create stores a session and returns its ID.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) (int64, error) {
	var id int64
	if err := r.db.QueryRow(ctx, insertSession, insertArgs(s)...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// CreateBatch stores sessions in a single round trip and returns how many
// were written.
func (r *SessionRepository) CreateBatch(ctx context.Context, sessions []models.Session) (int, error) {
	if len(sessions) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i := range sessions {
		batch.Queue(insertSession, insertArgs(&sessions[i])...)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range sessions {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("failed to create session %d: %w", i+1, err)
		}
	}
	return len(sessions), nil
}

// GetByID retrieves a session by ID.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*StoredSession, error) {
	rows, err := r.db.Query(ctx, selectSessions+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("failed to get session %d: %w", id, pgx.ErrNoRows)
	}
	return &sessions[0], nil
}

// List returns every session ordered by date, then insertion order.
func (r *SessionRepository) List(ctx context.Context) ([]StoredSession, error) {
	rows, err := r.db.Query(ctx, selectSessions+` ORDER BY session_date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// ListByYear returns the sessions dated in the given calendar year.
func (r *SessionRepository) ListByYear(ctx context.Context, year int) ([]StoredSession, error) {
	rows, err := r.db.Query(ctx, selectSessions+`
		WHERE session_date >= make_date($1, 1, 1) AND session_date < make_date($1 + 1, 1, 1)
		ORDER BY session_date, id
	`, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions for %d: %w", year, err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// Count returns the number of stored sessions.
func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM gambling_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// Delete removes a session by ID.
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM gambling_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteAll removes every session and returns the number deleted.
func (r *SessionRepository) DeleteAll(ctx context.Context) (int, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM gambling_sessions`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// Sessions strips database IDs.
func Sessions(stored []StoredSession) []models.Session {
	out := make([]models.Session, len(stored))
	for i := range stored {
		out[i] = stored[i].Session
	}
	return out
}

func scanSessions(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]StoredSession, error) {
	var sessions []StoredSession
	for rows.Next() {
		var s StoredSession
		if err := rows.Scan(
			&s.ID, &s.Date, &s.Location, &s.State, &s.GameType,
			&s.BuyIn, &s.CashOut, &s.TaxWithheld, &s.WithheldAmount,
			&s.DocumentationNote, &s.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}
