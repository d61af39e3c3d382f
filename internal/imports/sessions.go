package imports

import (
	"context"
	"errors"
	"fmt"

	"paytrack/internal/cache"
	"paytrack/internal/core"
)

// SessionStore holds staged upload sessions until they are taken or expire.
// Take is single-use: a taken session is gone for every later caller.
type SessionStore interface {
	Save(ctx context.Context, sess core.UploadSession) error
	Take(ctx context.Context, ownerID, id string) (core.UploadSession, error)
}

// MemorySessions keeps sessions in process memory, each evicted by its own
// timer. Sessions do not survive a restart and are not shared between instances.
type MemorySessions struct {
	store *cache.ExpiringStore[sessionKey, core.UploadSession]
}

// NewMemorySessions checks deadlines against clock, which must be the clock
// that stamps ExpiresAt.
func NewMemorySessions(clock core.Clock) *MemorySessions {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &MemorySessions{store: cache.NewExpiringStore[sessionKey, core.UploadSession](clock.Now)}
}

func (m *MemorySessions) Save(_ context.Context, sess core.UploadSession) error {
	err := m.store.Put(sessionKey{owner: sess.OwnerID, id: sess.ID}, sess, sess.ExpiresAt)
	if errors.Is(err, cache.ErrExpired) {
		return fmt.Errorf("save session %s: %w", sess.ID, core.ErrSessionExpired)
	}
	return err
}

func (m *MemorySessions) Take(_ context.Context, ownerID, id string) (core.UploadSession, error) {
	sess, ok := m.store.Take(sessionKey{owner: ownerID, id: id})
	if !ok {
		return core.UploadSession{}, core.ErrSessionExpired
	}
	return sess, nil
}

func (m *MemorySessions) Len() int { return m.store.Len() }

// sessionKey scopes a session id to its owner, so a foreign id can never
// consume someone else's session.
type sessionKey struct {
	owner string
	id    string
}
