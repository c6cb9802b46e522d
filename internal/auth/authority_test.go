package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memEntry struct {
	subject string
	exp     time.Time
}

// memStore is an in-memory RevocationStore honoring entry TTLs.
type memStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

func newMemStore() *memStore { return &memStore{entries: map[string]memEntry{}} }

func (s *memStore) Set(_ context.Context, tokenID, subject string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tokenID] = memEntry{subject: subject, exp: time.Now().Add(ttl)}
	return nil
}

func (s *memStore) Get(_ context.Context, tokenID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tokenID]
	if !ok || time.Now().After(e.exp) {
		return "", ErrNoEntry
	}
	return e.subject, nil
}

func (s *memStore) Del(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[tokenID]; !ok {
		return false, nil
	}
	delete(s.entries, tokenID)
	return true, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type failingStore struct{}

func (failingStore) Set(context.Context, string, string, time.Duration) error {
	return errors.New("store down")
}
func (failingStore) Get(context.Context, string) (string, error) { return "", errors.New("store down") }
func (failingStore) Del(context.Context, string) (bool, error)   { return false, errors.New("store down") }

func newTestAuthority(store RevocationStore) *Authority {
	return NewAuthority("test-secret", 15*time.Minute, 30*24*time.Hour, store)
}

func TestIssueWritesRevocationEntry(t *testing.T) {
	store := newMemStore()
	a := newTestAuthority(store)

	pair, err := a.Issue(context.Background(), "user1", "u@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	claims, err := a.VerifyAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "user1", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)

	// Exactly one outstanding entry, keyed by the pair's jti.
	subject, err := store.Get(context.Background(), claims.TokenID)
	require.NoError(t, err)
	assert.Equal(t, "user1", subject)
	assert.Equal(t, 1, store.len())
}

func TestIssuePropagatesStoreFailure(t *testing.T) {
	a := newTestAuthority(failingStore{})
	_, err := a.Issue(context.Background(), "user1", "u@example.com")
	require.Error(t, err)
}

func TestRotateIsSingleUse(t *testing.T) {
	store := newMemStore()
	a := newTestAuthority(store)

	pair, err := a.Issue(context.Background(), "user1", "u@example.com")
	require.NoError(t, err)

	rotated, err := a.Rotate(context.Background(), pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, rotated.Refresh)

	// The old entry is replaced by exactly one new entry.
	oldClaims, err := a.VerifyAccess(pair.Access)
	require.NoError(t, err)
	_, err = store.Get(context.Background(), oldClaims.TokenID)
	assert.ErrorIs(t, err, ErrNoEntry)
	assert.Equal(t, 1, store.len())

	// Redeeming the same refresh token again fails with ErrRevoked.
	_, err = a.Rotate(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, ErrRevoked)

	// The rotated pair still works.
	newClaims, err := a.VerifyAccess(rotated.Access)
	require.NoError(t, err)
	assert.Equal(t, "user1", newClaims.Subject)
}

func TestRotateRejectsGarbage(t *testing.T) {
	a := newTestAuthority(newMemStore())
	_, err := a.Rotate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotateRejectsForeignSignature(t *testing.T) {
	store := newMemStore()
	other := NewAuthority("other-secret", 15*time.Minute, 30*24*time.Hour, store)
	pair, err := other.Issue(context.Background(), "user1", "u@example.com")
	require.NoError(t, err)

	a := newTestAuthority(store)
	_, err = a.Rotate(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccessExpired(t *testing.T) {
	store := newMemStore()
	a := NewAuthority("test-secret", -time.Second, 30*24*time.Hour, store)

	pair, err := a.Issue(context.Background(), "user1", "u@example.com")
	require.NoError(t, err)

	_, err = a.VerifyAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeIsIdempotent(t *testing.T) {
	store := newMemStore()
	a := newTestAuthority(store)

	pair, err := a.Issue(context.Background(), "user1", "u@example.com")
	require.NoError(t, err)

	a.Revoke(context.Background(), pair.Refresh)
	assert.Equal(t, 0, store.len())

	// Second revoke of the consumed token, and revoking garbage, are no-ops.
	a.Revoke(context.Background(), pair.Refresh)
	a.Revoke(context.Background(), "not-a-token")

	// A revoked token can no longer rotate.
	_, err = a.Rotate(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, ErrRevoked)
}
