package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tfournier/catalyst/internal/models"
)

// fakeClock lets tests move session time forward deterministically.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestStore() (*SessionStore, *fakeClock) {
	clock := &fakeClock{current: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	store := NewSessionStore(DefaultSessionConfig())
	store.now = clock.now
	return store, clock
}

func TestSessionStore_CreateAndValidate(t *testing.T) {
	store, _ := newTestStore()

	session, err := store.Create(models.RoleMentor, 42)
	require.NoError(t, err)
	assert.Len(t, session.ID, 64) // 32 bytes hex encoded
	assert.Len(t, session.CSRFToken, 64)
	assert.NotEqual(t, session.ID, session.CSRFToken)

	got, err := store.Validate(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMentor, got.Role)
	assert.Equal(t, int64(42), got.UserID)
}

func TestSessionStore_IDsAreUnique(t *testing.T) {
	store, _ := newTestStore()

	first, err := store.Create(models.RoleAdmin, 1)
	require.NoError(t, err)
	second, err := store.Create(models.RoleAdmin, 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.CSRFToken, second.CSRFToken)
}

func TestSessionStore_ValidateUnknownID(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.Validate("never-issued")
	assert.True(t, errors.Is(err, models.ErrSessionExpired))
}

func TestSessionStore_IdleTimeout(t *testing.T) {
	store, clock := newTestStore()

	session, err := store.Create(models.RoleProject, 7)
	require.NoError(t, err)

	// 31 minutes of silence exceeds the 30 minute idle timeout
	clock.advance(31 * time.Minute)

	_, err = store.Validate(session.ID)
	assert.True(t, errors.Is(err, models.ErrSessionExpired))

	// fail-closed: the record is gone, not just rejected
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_AbsoluteLifetime(t *testing.T) {
	store, clock := newTestStore()

	session, err := store.Create(models.RoleAdmin, 1)
	require.NoError(t, err)

	// stay active the whole hour; absolute lifetime still wins
	id := session.ID
	for i := 0; i < 6; i++ {
		clock.advance(10 * time.Minute)
		touched, touchErr := store.Touch(id)
		require.NoError(t, touchErr)
		id = touched.ID
	}

	clock.advance(1 * time.Minute) // 61 minutes since creation

	_, err = store.Touch(id)
	assert.True(t, errors.Is(err, models.ErrSessionExpired))
}

func TestSessionStore_TouchRotatesAfterInterval(t *testing.T) {
	store, clock := newTestStore()

	session, err := store.Create(models.RoleMentor, 3)
	require.NoError(t, err)
	oldID := session.ID
	oldCSRF := session.CSRFToken

	clock.advance(6 * time.Minute) // past the 5 minute rotation interval

	rotated, err := store.Touch(oldID)
	require.NoError(t, err)
	assert.NotEqual(t, oldID, rotated.ID)
	assert.NotEqual(t, oldCSRF, rotated.CSRFToken)

	// the old id must be unusable the moment rotation completes
	_, err = store.Validate(oldID)
	assert.True(t, errors.Is(err, models.ErrSessionExpired))

	got, err := store.Validate(rotated.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.UserID)
}

func TestSessionStore_TouchWithinIntervalKeepsID(t *testing.T) {
	store, clock := newTestStore()

	session, err := store.Create(models.RoleMentor, 3)
	require.NoError(t, err)

	clock.advance(2 * time.Minute)

	touched, err := store.Touch(session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, touched.ID)
	assert.Equal(t, session.CSRFToken, touched.CSRFToken)
	assert.Equal(t, clock.current, touched.LastActivityAt)
}

func TestSessionStore_DestroyIsIdempotent(t *testing.T) {
	store, _ := newTestStore()

	session, err := store.Create(models.RoleAdmin, 1)
	require.NoError(t, err)

	store.Destroy(session.ID)
	store.Destroy(session.ID) // second call is a no-op

	_, err = store.Validate(session.ID)
	assert.True(t, errors.Is(err, models.ErrSessionExpired))
}

func TestSessionStore_SweepRemovesExpired(t *testing.T) {
	store, clock := newTestStore()

	stale, err := store.Create(models.RoleProject, 1)
	require.NoError(t, err)

	clock.advance(25 * time.Minute)

	fresh, err := store.Create(models.RoleProject, 2)
	require.NoError(t, err)

	clock.advance(10 * time.Minute) // stale is now idle 35m, fresh only 10m

	removed := store.Sweep()
	assert.Equal(t, 1, removed)

	_, err = store.Validate(stale.ID)
	assert.Error(t, err)
	_, err = store.Validate(fresh.ID)
	assert.NoError(t, err)
}

func TestSessionStore_ConcurrentTouchSingleSession(t *testing.T) {
	store, _ := newTestStore()

	session, err := store.Create(models.RoleMentor, 5)
	require.NoError(t, err)

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			_, touchErr := store.Touch(session.ID)
			done <- touchErr
		}()
	}

	for i := 0; i < 20; i++ {
		assert.NoError(t, <-done)
	}

	_, err = store.Validate(session.ID)
	assert.NoError(t, err)
}
