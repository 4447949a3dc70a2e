package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type mockNumberStore struct {
	taken    map[string]bool
	checks   int
	checkErr error
}

func (m *mockNumberStore) RegistrationNumberExists(_ context.Context, number string) (bool, error) {
	m.checks++
	if m.checkErr != nil {
		return false, m.checkErr
	}
	return m.taken[number], nil
}

func TestGenerateCandidateFormat(t *testing.T) {
	s := NewRegistrationService(&mockNumberStore{}, nil)
	pattern := regexp.MustCompile(`^\d{8}$`)

	for i := 0; i < 100; i++ {
		candidate, err := s.GenerateCandidate()
		require.NoError(t, err)
		assert.True(t, pattern.MatchString(candidate), "candidate %q is not an 8-digit string", candidate)
	}
}

func TestAssignProducesUniqueNumbers(t *testing.T) {
	// Seed the store with existing numbers so assigns compete with prior
	// accounts, not just with each other.
	const seeded = 500
	store := &mockNumberStore{taken: make(map[string]bool, seeded)}
	for i := 0; i < seeded; i++ {
		store.taken[fmt.Sprintf("%08d", i)] = true
	}

	s := NewRegistrationService(store, nil)

	const count = 10000
	assigned := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		number, err := s.Assign(context.Background())
		require.NoError(t, err)
		require.False(t, store.taken[number], "number %q collides with an existing account", number)
		require.False(t, assigned[number], "number %q assigned twice", number)
		assigned[number] = true
		store.taken[number] = true
	}
	assert.Len(t, assigned, count)
}

func TestAssignRetriesOnCollision(t *testing.T) {
	// The first two candidates read as taken, the third is free.
	wrapped := &collidingStore{inner: &mockNumberStore{}, remaining: 2}
	s := NewRegistrationService(wrapped, nil)

	number, err := s.Assign(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, number)
	assert.Equal(t, 3, wrapped.calls)
}

type collidingStore struct {
	inner     *mockNumberStore
	remaining int
	calls     int
}

func (c *collidingStore) RegistrationNumberExists(ctx context.Context, number string) (bool, error) {
	c.calls++
	if c.remaining > 0 {
		c.remaining--
		return true, nil
	}
	return c.inner.RegistrationNumberExists(ctx, number)
}

func TestAssignKeepsRetryingThroughDeepCollisionRuns(t *testing.T) {
	// A long run of consecutive collisions must never surface as an error;
	// the loop only stops on a free number or a store failure.
	wrapped := &collidingStore{inner: &mockNumberStore{}, remaining: 250}
	s := NewRegistrationService(wrapped, nil)

	number, err := s.Assign(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^\d{8}$`, number)
	assert.Equal(t, 251, wrapped.calls)
}

func TestAssignPropagatesStoreErrors(t *testing.T) {
	store := &mockNumberStore{checkErr: errors.New("db down")}
	s := NewRegistrationService(store, nil)

	_, err := s.Assign(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, store.checks)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}
