package lead

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patientpathway/assessment-server/internal/domain"
)

type memStore struct {
	leads    []*domain.Lead
	creates  int
	failures int // fail the first N creates
	err      error
}

func (m *memStore) Create(_ context.Context, l *domain.Lead) (string, error) {
	m.creates++
	if m.creates <= m.failures {
		return "", errors.New("connection reset")
	}
	if m.err != nil {
		return "", m.err
	}
	m.leads = append(m.leads, l)
	return l.ID, nil
}

func (m *memStore) GetByID(_ context.Context, _ string) (*domain.Lead, error) {
	return nil, domain.ErrNotFound
}

func (m *memStore) ListByDoctor(_ context.Context, _ string, _, _ int) ([]*domain.Lead, error) {
	return nil, nil
}

type failNotifier struct {
	calls int
	err   error
}

func (n *failNotifier) Notify(_ context.Context, _ domain.LeadSummary) error {
	n.calls++
	return n.err
}

func testCoordinator(store domain.LeadStore, notifier domain.Notifier) *Coordinator {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewCoordinator(logger, store, notifier, 0)
}

func validParams() SubmitParams {
	return SubmitParams{
		Contact:  domain.Contact{Name: "Dana Wolfe", Email: "dana@example.com"},
		Result:   &domain.QuizResult{QuizID: domain.NOSE, Score: 12, Percentage: 60, Severity: domain.SeverityModerate},
		QuizType: domain.NOSE,
		Answers: []domain.Answer{
			{QuestionID: "nose_q1", SelectedLabel: "3 - Fairly Bad Problem", Value: 3},
		},
		Source:         domain.SourceWebsite,
		IdempotencyKey: "conv-1",
	}
}

func TestSubmit_CreatesLead(t *testing.T) {
	store := &memStore{}
	notifier := &failNotifier{}
	c := testCoordinator(store, notifier)

	leadID, err := c.Submit(context.Background(), validParams())

	require.NoError(t, err)
	assert.NotEmpty(t, leadID)
	require.Len(t, store.leads, 1)

	created := store.leads[0]
	assert.Equal(t, DefaultDoctorID, created.DoctorID)
	assert.Equal(t, domain.StatusNew, created.LeadStatus)
	assert.Equal(t, domain.SeverityModerate, created.Severity)
	assert.False(t, created.SubmittedAt.IsZero())
	assert.Equal(t, 1, notifier.calls)
}

func TestSubmit_ValidationNeverTouchesStore(t *testing.T) {
	store := &memStore{}
	c := testCoordinator(store, &failNotifier{})

	cases := []struct {
		name    string
		mutate  func(*SubmitParams)
		field   string
		message string
	}{
		{
			name:   "missing name",
			mutate: func(p *SubmitParams) { p.Contact.Name = "  " },
			field:  "name",
		},
		{
			name:    "missing email",
			mutate:  func(p *SubmitParams) { p.Contact.Email = "" },
			field:   "email",
			message: domain.MsgInvalidEmail,
		},
		{
			name:    "email without at sign",
			mutate:  func(p *SubmitParams) { p.Contact.Email = "dana.example.com" },
			field:   "email",
			message: domain.MsgInvalidEmail,
		},
		{
			name: "missing required phone",
			mutate: func(p *SubmitParams) {
				p.RequirePhone = true
				p.Contact.Phone = ""
			},
			field: "phone",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)

			leadID, err := c.Submit(context.Background(), params)

			assert.Empty(t, leadID)
			var validation *domain.ValidationError
			require.ErrorAs(t, err, &validation)
			require.NotEmpty(t, validation.Fields)
			assert.Equal(t, tc.field, validation.Fields[0].Field)
			if tc.message != "" {
				assert.Equal(t, tc.message, validation.Fields[0].Message)
			}
			assert.Empty(t, store.leads)
		})
	}
}

func TestSubmit_DuplicateKeyReturnsSameLead(t *testing.T) {
	store := &memStore{}
	notifier := &failNotifier{}
	c := testCoordinator(store, notifier)

	first, err := c.Submit(context.Background(), validParams())
	require.NoError(t, err)

	second, err := c.Submit(context.Background(), validParams())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, store.leads, 1)
	assert.Equal(t, 1, notifier.calls, "duplicate must not re-notify")
}

func TestSubmit_TransientStoreFailureRetriedInternally(t *testing.T) {
	store := &memStore{failures: 1}
	notifier := &failNotifier{}
	c := testCoordinator(store, notifier)

	leadID, err := c.Submit(context.Background(), validParams())

	require.NoError(t, err, "a single blip must be absorbed by the retry budget")
	assert.NotEmpty(t, leadID)
	assert.Equal(t, 2, store.creates)
	assert.Len(t, store.leads, 1)
	assert.Equal(t, 1, notifier.calls)
}

func TestSubmit_StoreFailureIsRetryable(t *testing.T) {
	store := &memStore{err: errors.New("connection refused")}
	notifier := &failNotifier{}
	c := testCoordinator(store, notifier)

	leadID, err := c.Submit(context.Background(), validParams())

	assert.Empty(t, leadID)
	var submission *domain.SubmissionError
	require.ErrorAs(t, err, &submission)
	assert.True(t, submission.Retryable)
	assert.Equal(t, domain.MsgSubmitFailed, submission.UserMessage())
	assert.Equal(t, 3, store.creates, "budget exhausted before surfacing the error")
	assert.Zero(t, notifier.calls, "no notification without a stored lead")

	// Retry under the same key succeeds once the store recovers.
	store.err = nil
	leadID, err = c.Submit(context.Background(), validParams())
	require.NoError(t, err)
	assert.NotEmpty(t, leadID)
	assert.Len(t, store.leads, 1)
}

func TestSubmit_IdempotencyMemoExpires(t *testing.T) {
	store := &memStore{}
	notifier := &failNotifier{}
	c := testCoordinator(store, notifier)

	_, err := c.Submit(context.Background(), validParams())
	require.NoError(t, err)

	// Age the memo entry past the retention window.
	c.mu.Lock()
	entry := c.submitted["conv-1"]
	entry.recordedAt = time.Now().Add(-2 * time.Hour)
	c.submitted["conv-1"] = entry
	c.mu.Unlock()

	// The stale entry no longer suppresses the create; the store's
	// unique key is what dedups submissions this old.
	_, err = c.Submit(context.Background(), validParams())
	require.NoError(t, err)
	assert.Equal(t, 2, store.creates)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.submitted, 1)
}

func TestSubmit_NotifyFailureDoesNotFailSubmission(t *testing.T) {
	store := &memStore{}
	notifier := &failNotifier{err: errors.New("webhook down")}
	c := testCoordinator(store, notifier)

	leadID, err := c.Submit(context.Background(), validParams())

	require.NoError(t, err)
	assert.NotEmpty(t, leadID)
	assert.Len(t, store.leads, 1)
	assert.Equal(t, 1, notifier.calls)
}

func TestSubmit_ExplicitDoctorID(t *testing.T) {
	store := &memStore{}
	c := testCoordinator(store, &failNotifier{})

	params := validParams()
	params.DoctorID = "dr-ahmed"
	params.ShareKey = "key-77"
	params.Source = domain.SourceSharedLink

	_, err := c.Submit(context.Background(), params)
	require.NoError(t, err)

	created := store.leads[0]
	assert.Equal(t, "dr-ahmed", created.DoctorID)
	assert.Equal(t, "key-77", created.ShareKey)
	assert.Equal(t, domain.SourceSharedLink, created.LeadSource)
}
