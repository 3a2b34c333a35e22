package leadstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patientpathway/assessment-server/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "leadstore-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := NewSQLiteStore(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func sampleLead(idempotencyKey string) *domain.Lead {
	return &domain.Lead{
		ID:       uuid.New().String(),
		DoctorID: "dr-kaur",
		Name:     "Jamie Fox",
		Email:    "jamie@example.com",
		Phone:    "+1 555 0199",
		QuizType: domain.NOSE,
		Score:    16,
		Severity: domain.SeveritySevere,
		Answers: []domain.Answer{
			{QuestionID: "nose_q1", SelectedLabel: "4 - Severe Problem", Value: 4},
			{QuestionID: "nose_q2", SelectedLabel: "4 - Severe Problem", Value: 4},
		},
		LeadSource:     domain.SourceSharedLink,
		ShareKey:       "key-9",
		LeadStatus:     domain.StatusNew,
		IdempotencyKey: idempotencyKey,
		SubmittedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "leadstore-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)

	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	lead := sampleLead("conv-a")

	id, err := store.Create(ctx, lead)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, id)

	retrieved, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, lead.Name, retrieved.Name)
	assert.Equal(t, lead.QuizType, retrieved.QuizType)
	assert.Equal(t, lead.Severity, retrieved.Severity)
	assert.Equal(t, lead.LeadStatus, retrieved.LeadStatus)
	assert.Equal(t, lead.Answers, retrieved.Answers)
}

func TestSQLiteStore_CreateIdempotent(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	first := sampleLead("conv-b")
	firstID, err := store.Create(ctx, first)
	require.NoError(t, err)

	// Same idempotency key, different generated id.
	second := sampleLead("conv-b")
	secondID, err := store.Create(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, firstID, secondID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLiteStore_EmptyIdempotencyKeyNeverDedups(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	first := sampleLead("")
	firstID, err := store.Create(ctx, first)
	require.NoError(t, err)

	second := sampleLead("")
	secondID, err := store.Create(ctx, second)
	require.NoError(t, err)

	assert.NotEqual(t, firstID, secondID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	retrieved, err := store.GetByID(ctx, firstID)
	require.NoError(t, err)
	assert.Empty(t, retrieved.IdempotencyKey)
}

func TestSQLiteStore_GetByID_NotFound(t *testing.T) {
	store := createTestStore(t)

	lead, err := store.GetByID(context.Background(), uuid.New().String())

	assert.Nil(t, lead)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_ListByDoctor(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		lead := sampleLead(uuid.New().String())
		lead.SubmittedAt = lead.SubmittedAt.Add(time.Duration(i) * time.Minute)
		_, err := store.Create(ctx, lead)
		require.NoError(t, err)
	}
	other := sampleLead(uuid.New().String())
	other.DoctorID = "dr-else"
	_, err := store.Create(ctx, other)
	require.NoError(t, err)

	leads, err := store.ListByDoctor(ctx, "dr-kaur", 10, 0)
	require.NoError(t, err)
	require.Len(t, leads, 3)

	// Newest first.
	assert.True(t, leads[0].SubmittedAt.After(leads[2].SubmittedAt))

	page, err := store.ListByDoctor(ctx, "dr-kaur", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestSQLiteStore_UpdateStatus(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	lead := sampleLead("conv-c")
	id, err := store.Create(ctx, lead)
	require.NoError(t, err)

	err = store.UpdateStatus(ctx, id, domain.StatusContacted)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusContacted, retrieved.LeadStatus)

	err = store.UpdateStatus(ctx, uuid.New().String(), domain.StatusContacted)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_ExportImportJSON(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, sampleLead("conv-d"))
	require.NoError(t, err)
	_, err = store.Create(ctx, sampleLead("conv-e"))
	require.NoError(t, err)

	var buf bytes.Buffer
	err = store.ExportJSON(ctx, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "jamie@example.com")

	// Import into a fresh store.
	target := createTestStore(t)
	imported, skipped, err := target.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Zero(t, skipped)

	// Re-import skips everything.
	imported, skipped, err = target.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Zero(t, imported)
	assert.Equal(t, 2, skipped)
}
