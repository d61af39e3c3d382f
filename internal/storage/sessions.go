package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"paytrack/internal/core"
)

// SessionStore keeps staged upload sessions in the shared database so that
// upload and confirm may land on different instances. Expired rows are never
// returned and are purged on every save.
type SessionStore struct {
	db    *sqlx.DB
	clock core.Clock
}

// NewSessionStore checks expiry against clock, which must be the clock that
// stamps ExpiresAt.
func NewSessionStore(db *sqlx.DB, clock core.Clock) *SessionStore {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &SessionStore{db: db, clock: clock}
}

// Save upserts the session. A session already past its deadline is rejected
// with core.ErrSessionExpired.
func (s *SessionStore) Save(ctx context.Context, sess core.UploadSession) error {
	if !sess.ExpiresAt.After(s.clock.Now()) {
		return fmt.Errorf("save upload session %s: %w", sess.ID, core.ErrSessionExpired)
	}
	payload, err := json.Marshal(sess.Rows)
	if err != nil {
		return fmt.Errorf("encode staged rows: %w", err)
	}

	return WithTx(ctx, s.db, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM upload_sessions WHERE expires_at <= ?`, s.clock.Now().UnixMilli()); err != nil {
			return fmt.Errorf("purge expired sessions: %w", err)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO upload_sessions (id, owner_id, rows_json, expires_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET rows_json = excluded.rows_json, expires_at = excluded.expires_at`,
			sess.ID, sess.OwnerID, string(payload), sess.ExpiresAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("save upload session: %w", err)
		}
		return nil
	})
}

// Take removes the session and returns it. Unknown, foreign and expired ids
// all yield core.ErrSessionExpired.
func (s *SessionStore) Take(ctx context.Context, ownerID, id string) (core.UploadSession, error) {
	var row struct {
		RowsJSON  string `db:"rows_json"`
		ExpiresAt int64  `db:"expires_at"`
	}
	err := s.db.GetContext(ctx, &row, `DELETE FROM upload_sessions WHERE id = ? AND owner_id = ?
		RETURNING rows_json, expires_at`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UploadSession{}, core.ErrSessionExpired
	}
	if err != nil {
		return core.UploadSession{}, fmt.Errorf("take upload session: %w", err)
	}

	expiresAt := time.UnixMilli(row.ExpiresAt)
	if !expiresAt.After(s.clock.Now()) {
		return core.UploadSession{}, core.ErrSessionExpired
	}

	sess := core.UploadSession{ID: id, OwnerID: ownerID, ExpiresAt: expiresAt}
	if err := json.Unmarshal([]byte(row.RowsJSON), &sess.Rows); err != nil {
		return core.UploadSession{}, fmt.Errorf("decode staged rows: %w", err)
	}
	return sess, nil
}
