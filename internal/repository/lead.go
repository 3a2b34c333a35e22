// Package repository provides PostgreSQL persistence for leads and
// share keys.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/domain"
)

// LeadRepository handles lead persistence.
type LeadRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewLeadRepository creates a new lead repository.
func NewLeadRepository(db *pgxpool.Pool, logger *logrus.Logger) *LeadRepository {
	return &LeadRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a new lead. The idempotency key carries a unique
// index; a conflicting insert returns the already-stored lead id so a
// duplicate submission never produces a second row. An empty key is
// stored as NULL, which never conflicts, so keyless leads always insert.
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) (string, error) {
	answers, err := json.Marshal(lead.Answers)
	if err != nil {
		return "", fmt.Errorf("encoding answers: %w", err)
	}

	query := `
		INSERT INTO leads (
			id, doctor_id, name, email, phone, quiz_type, score, severity,
			answers, lead_source, share_key, lead_status, idempotency_key, submitted_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), $14
		)
		ON CONFLICT (idempotency_key) DO UPDATE SET idempotency_key = EXCLUDED.idempotency_key
		RETURNING id`

	var id string
	err = r.db.QueryRow(ctx, query,
		lead.ID,
		lead.DoctorID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.QuizType,
		lead.Score,
		lead.Severity,
		answers,
		lead.LeadSource,
		lead.ShareKey,
		lead.LeadStatus,
		lead.IdempotencyKey,
		lead.SubmittedAt,
	).Scan(&id)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"lead_id":   lead.ID,
			"quiz_type": lead.QuizType,
			"error":     err,
		}).Error("Failed to create lead")
		return "", fmt.Errorf("creating lead: %w", err)
	}

	if id != lead.ID {
		r.log.WithFields(logrus.Fields{
			"lead_id":         id,
			"idempotency_key": lead.IdempotencyKey,
		}).Info("Duplicate lead insert resolved to existing row")
		return id, nil
	}

	r.log.WithFields(logrus.Fields{
		"lead_id":   id,
		"quiz_type": lead.QuizType,
		"doctor_id": lead.DoctorID,
	}).Info("Lead created successfully")

	return id, nil
}

// GetByID retrieves a lead by its id.
func (r *LeadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	query := `
		SELECT id, doctor_id, name, email, phone, quiz_type, score, severity,
			   answers, lead_source, share_key, lead_status, COALESCE(idempotency_key, ''), submitted_at
		FROM leads
		WHERE id = $1`

	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("lead not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"lead_id": id,
			"error":   err,
		}).Error("Failed to get lead by ID")
		return nil, fmt.Errorf("getting lead by ID: %w", err)
	}

	return lead, nil
}

// ListByDoctor retrieves a clinician's leads, newest first, with
// pagination.
func (r *LeadRepository) ListByDoctor(ctx context.Context, doctorID string, limit, offset int) ([]*domain.Lead, error) {
	query := `
		SELECT id, doctor_id, name, email, phone, quiz_type, score, severity,
			   answers, lead_source, share_key, lead_status, COALESCE(idempotency_key, ''), submitted_at
		FROM leads
		WHERE doctor_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, doctorID, limit, offset)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"doctor_id": doctorID,
			"error":     err,
		}).Error("Failed to list leads by doctor")
		return nil, fmt.Errorf("listing leads by doctor: %w", err)
	}
	defer rows.Close()

	var leads []*domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"doctor_id": doctorID,
				"error":     err,
			}).Error("Failed to scan lead row")
			return nil, fmt.Errorf("scanning lead row: %w", err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lead rows: %w", err)
	}

	return leads, nil
}

// UpdateStatus moves a lead through the clinician workflow.
func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) error {
	query := `UPDATE leads SET lead_status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"lead_id": id,
			"status":  status,
			"error":   err,
		}).Error("Failed to update lead status")
		return fmt.Errorf("updating lead status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("lead not found: %w", domain.ErrNotFound)
	}

	r.log.WithFields(logrus.Fields{
		"lead_id": id,
		"status":  status,
	}).Info("Lead status updated")

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var lead domain.Lead
	var answers []byte
	var submittedAt time.Time

	err := row.Scan(
		&lead.ID,
		&lead.DoctorID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.QuizType,
		&lead.Score,
		&lead.Severity,
		&answers,
		&lead.LeadSource,
		&lead.ShareKey,
		&lead.LeadStatus,
		&lead.IdempotencyKey,
		&submittedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &lead.Answers); err != nil {
			return nil, fmt.Errorf("decoding answers: %w", err)
		}
	}
	lead.SubmittedAt = submittedAt

	return &lead, nil
}
