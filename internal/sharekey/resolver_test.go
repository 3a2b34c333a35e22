package sharekey

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patientpathway/assessment-server/internal/domain"
)

type countingRepo struct {
	keys    map[string]string
	err     error
	lookups int
}

func (r *countingRepo) Lookup(_ context.Context, key string) (string, error) {
	r.lookups++
	if r.err != nil {
		return "", r.err
	}
	doctorID, ok := r.keys[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return doctorID, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestResolve_KnownKey(t *testing.T) {
	repo := &countingRepo{keys: map[string]string{"k1": "dr-singh"}}
	r := NewResolver(testLogger(), repo, nil)

	doctorID, ok := r.Resolve(context.Background(), "k1")

	require.True(t, ok)
	assert.Equal(t, "dr-singh", doctorID)
}

func TestResolve_UnknownKey(t *testing.T) {
	repo := &countingRepo{keys: map[string]string{}}
	r := NewResolver(testLogger(), repo, nil)

	doctorID, ok := r.Resolve(context.Background(), "expired")

	assert.False(t, ok)
	assert.Empty(t, doctorID)
}

func TestResolve_EmptyKeySkipsLookup(t *testing.T) {
	repo := &countingRepo{keys: map[string]string{}}
	r := NewResolver(testLogger(), repo, nil)

	_, ok := r.Resolve(context.Background(), "")

	assert.False(t, ok)
	assert.Zero(t, repo.lookups)
}

func TestResolve_MemoryCacheAbsorbsRepeats(t *testing.T) {
	repo := &countingRepo{keys: map[string]string{"k1": "dr-singh"}}
	r := NewResolver(testLogger(), repo, nil)

	for i := 0; i < 5; i++ {
		doctorID, ok := r.Resolve(context.Background(), "k1")
		require.True(t, ok)
		assert.Equal(t, "dr-singh", doctorID)
	}

	assert.Equal(t, 1, repo.lookups)
}

// A broken backing store must degrade to the default attribution, never
// to a failed conversation.
func TestResolve_RepositoryErrorReportsNotOK(t *testing.T) {
	repo := &countingRepo{err: errors.New("connection refused")}
	r := NewResolver(testLogger(), repo, nil)

	doctorID, ok := r.Resolve(context.Background(), "k1")

	assert.False(t, ok)
	assert.Empty(t, doctorID)
}

func TestStaticRepository_Lookup(t *testing.T) {
	repo := NewStaticRepository(map[string]string{"abc": "dr-cole"})

	doctorID, err := repo.Lookup(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "dr-cole", doctorID)

	_, err = repo.Lookup(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewStaticResolver_NilMap(t *testing.T) {
	r := NewStaticResolver(testLogger(), nil)

	_, ok := r.Resolve(context.Background(), "anything")
	assert.False(t, ok)
}
