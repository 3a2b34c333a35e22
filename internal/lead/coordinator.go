// Package lead coordinates validated, idempotent lead submission.
package lead

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/domain"
)

// DefaultDoctorID is the platform bucket used when neither a share key
// nor an explicit doctor id resolves. Assessments must stay completable
// even when attribution fails.
const DefaultDoctorID = "demo"

const (
	// createAttempts bounds how many times a failing store create is
	// retried before the error surfaces to the conversation.
	createAttempts = 3
	retryBackoff   = 200 * time.Millisecond

	// submittedRetention bounds how long a completed submission stays in
	// the in-process idempotency memo. Matches the conversation idle TTL;
	// the store's unique key still dedups anything older.
	submittedRetention = time.Hour
)

// SubmitParams carries everything needed to persist one completed
// assessment.
type SubmitParams struct {
	Contact        domain.Contact
	Result         *domain.QuizResult
	QuizType       domain.QuizID
	Answers        []domain.Answer
	DoctorID       string
	ShareKey       string
	Source         domain.LeadSource
	RequirePhone   bool
	IdempotencyKey string
}

// Coordinator validates contact capture and performs one logical store
// create (with a bounded retry budget) and one best-effort notify per
// submission.
type Coordinator struct {
	logger    *logrus.Logger
	store     domain.LeadStore
	notifier  domain.Notifier
	timeout   time.Duration
	retention time.Duration

	mu        sync.Mutex
	submitted map[string]submittedLead
}

type submittedLead struct {
	leadID     string
	recordedAt time.Time
}

// NewCoordinator creates a submission coordinator. timeout bounds each
// suspending call (store create, notify) so a stalled dependency cannot
// hang a conversation indefinitely.
func NewCoordinator(logger *logrus.Logger, store domain.LeadStore, notifier domain.Notifier, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Coordinator{
		logger:    logger,
		store:     store,
		notifier:  notifier,
		timeout:   timeout,
		retention: submittedRetention,
		submitted: make(map[string]submittedLead),
	}
}

// Submit validates the contact fields, persists the lead, and notifies
// the owning clinician. A failing store create is retried up to
// createAttempts times before a retryable SubmissionError surfaces;
// notification failure is logged and swallowed. Repeated submission
// under the same idempotency key returns the original lead id without a
// second create.
func (c *Coordinator) Submit(ctx context.Context, params SubmitParams) (string, error) {
	if err := validateContact(params.Contact, params.RequirePhone); err != nil {
		return "", err
	}

	if params.IdempotencyKey != "" {
		if leadID, done := c.lookupSubmitted(params.IdempotencyKey); done {
			c.logger.WithFields(logrus.Fields{
				"idempotency_key": params.IdempotencyKey,
				"lead_id":         leadID,
			}).Info("Duplicate submission suppressed")
			return leadID, nil
		}
	}

	lead := &domain.Lead{
		ID:             uuid.New().String(),
		DoctorID:       resolveDoctorID(params.DoctorID),
		Name:           strings.TrimSpace(params.Contact.Name),
		Email:          strings.TrimSpace(params.Contact.Email),
		Phone:          strings.TrimSpace(params.Contact.Phone),
		QuizType:       params.QuizType,
		Score:          params.Result.Score,
		Severity:       params.Result.Severity,
		Answers:        params.Answers,
		LeadSource:     params.Source,
		ShareKey:       params.ShareKey,
		LeadStatus:     domain.StatusNew,
		IdempotencyKey: params.IdempotencyKey,
		SubmittedAt:    time.Now().UTC(),
	}

	leadID, err := c.createWithRetry(ctx, lead)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"quiz_type": params.QuizType,
			"doctor_id": lead.DoctorID,
			"error":     err,
		}).Error("Failed to create lead")
		return "", &domain.SubmissionError{Retryable: true, Err: err}
	}

	if params.IdempotencyKey != "" {
		c.recordSubmitted(params.IdempotencyKey, leadID)
	}

	c.logger.WithFields(logrus.Fields{
		"lead_id":   leadID,
		"quiz_type": params.QuizType,
		"doctor_id": lead.DoctorID,
		"source":    lead.LeadSource,
		"severity":  lead.Severity,
	}).Info("Lead created")

	c.notify(ctx, domain.LeadSummary{
		LeadID:   leadID,
		LeadName: lead.Name,
		QuizType: lead.QuizType,
		Score:    lead.Score,
		Severity: lead.Severity,
		DoctorID: lead.DoctorID,
	})

	return leadID, nil
}

// createWithRetry performs the store create under the per-call timeout,
// absorbing transient failures up to the retry budget.
func (c *Coordinator) createWithRetry(ctx context.Context, lead *domain.Lead) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		createCtx, cancel := context.WithTimeout(ctx, c.timeout)
		leadID, err := c.store.Create(createCtx, lead)
		cancel()
		if err == nil {
			return leadID, nil
		}
		lastErr = err

		if attempt == createAttempts || ctx.Err() != nil {
			break
		}

		c.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err,
		}).Warn("Lead create failed, retrying")

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("creating lead: %w", ctx.Err())
		case <-time.After(retryBackoff):
		}
	}
	return "", fmt.Errorf("creating lead: %w", lastErr)
}

// lookupSubmitted checks the idempotency memo, evicting expired entries
// on the way.
func (c *Coordinator) lookupSubmitted(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneSubmittedLocked(time.Now())
	entry, ok := c.submitted[key]
	return entry.leadID, ok
}

func (c *Coordinator) recordSubmitted(key, leadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted[key] = submittedLead{leadID: leadID, recordedAt: time.Now()}
}

func (c *Coordinator) pruneSubmittedLocked(now time.Time) {
	cutoff := now.Add(-c.retention)
	for key, entry := range c.submitted {
		if entry.recordedAt.Before(cutoff) {
			delete(c.submitted, key)
		}
	}
}

// notify delivers the clinician notification best-effort. The lead
// exists even if no notification fired.
func (c *Coordinator) notify(ctx context.Context, summary domain.LeadSummary) {
	notifyCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.notifier.Notify(notifyCtx, summary); err != nil {
		c.logger.WithFields(logrus.Fields{
			"lead_id":   summary.LeadID,
			"doctor_id": summary.DoctorID,
			"error":     err,
		}).Warn("Lead notification failed")
	}
}

// resolveDoctorID falls back to the platform default bucket.
func resolveDoctorID(doctorID string) string {
	if strings.TrimSpace(doctorID) == "" {
		return DefaultDoctorID
	}
	return doctorID
}

// validateContact enforces the contact-capture rules. Phone is optional
// on conversational surfaces and mandatory on the card wizard; the
// surface passes that policy in rather than the coordinator hard-coding
// it.
func validateContact(contact domain.Contact, requirePhone bool) error {
	var fields []domain.FieldError

	if strings.TrimSpace(contact.Name) == "" {
		fields = append(fields, domain.FieldError{Field: "name", Message: "Please enter your name."})
	}

	email := strings.TrimSpace(contact.Email)
	if email == "" || !strings.Contains(email, "@") {
		fields = append(fields, domain.FieldError{Field: "email", Message: domain.MsgInvalidEmail})
	}

	if requirePhone && strings.TrimSpace(contact.Phone) == "" {
		fields = append(fields, domain.FieldError{Field: "phone", Message: "Please enter your phone number."})
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
