// Package leadstore provides the embedded SQLite lead store used by the
// lite server, which runs without PostgreSQL.
package leadstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/patientpathway/assessment-server/internal/domain"
)

// SQLiteStore implements domain.LeadStore on an embedded SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite lead store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		doctor_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT DEFAULT '',
		quiz_type TEXT NOT NULL,
		score INTEGER NOT NULL,
		severity TEXT NOT NULL,
		answers TEXT NOT NULL DEFAULT '[]',
		lead_source TEXT NOT NULL DEFAULT 'website',
		share_key TEXT DEFAULT '',
		lead_status TEXT NOT NULL DEFAULT 'NEW',
		idempotency_key TEXT,
		submitted_at DATETIME NOT NULL,
		UNIQUE(idempotency_key)
	);

	CREATE INDEX IF NOT EXISTS idx_leads_doctor_id ON leads(doctor_id);
	CREATE INDEX IF NOT EXISTS idx_leads_submitted_at ON leads(submitted_at);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(s scanner) (*domain.Lead, error) {
	lead := &domain.Lead{}
	var answers string
	var quizType, severity, source, status string
	var idempotencyKey sql.NullString

	err := s.Scan(
		&lead.ID, &lead.DoctorID, &lead.Name, &lead.Email, &lead.Phone,
		&quizType, &lead.Score, &severity, &answers,
		&source, &lead.ShareKey, &status, &idempotencyKey, &lead.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.QuizType = domain.QuizID(quizType)
	lead.Severity = domain.Severity(severity)
	lead.LeadSource = domain.LeadSource(source)
	lead.LeadStatus = domain.LeadStatus(status)
	lead.IdempotencyKey = idempotencyKey.String

	if err := json.Unmarshal([]byte(answers), &lead.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}

	return lead, nil
}

// Create inserts a new lead. A second create under the same idempotency
// key returns the already-stored lead id without inserting. An empty
// key disables dedup for that lead; it is stored as NULL so the unique
// constraint never collides two keyless rows.
func (s *SQLiteStore) Create(ctx context.Context, lead *domain.Lead) (string, error) {
	if lead.IdempotencyKey != "" {
		var existingID string
		err := s.db.QueryRowContext(ctx,
			"SELECT id FROM leads WHERE idempotency_key = ?",
			lead.IdempotencyKey,
		).Scan(&existingID)

		if err == nil {
			return existingID, nil
		}
		if err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to check existing: %w", err)
		}
	}

	answers, err := json.Marshal(lead.Answers)
	if err != nil {
		return "", fmt.Errorf("failed to encode answers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leads (
			id, doctor_id, name, email, phone, quiz_type, score, severity,
			answers, lead_source, share_key, lead_status, idempotency_key, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		lead.ID,
		lead.DoctorID,
		lead.Name,
		lead.Email,
		lead.Phone,
		string(lead.QuizType),
		lead.Score,
		string(lead.Severity),
		string(answers),
		string(lead.LeadSource),
		lead.ShareKey,
		string(lead.LeadStatus),
		nullableKey(lead.IdempotencyKey),
		lead.SubmittedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert: %w", err)
	}

	return lead.ID, nil
}

func nullableKey(key string) any {
	if key == "" {
		return nil
	}
	return key
}

// GetByID retrieves a lead by its id.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, doctor_id, name, email, phone, quiz_type, score, severity,
			answers, lead_source, share_key, lead_status, idempotency_key, submitted_at
		FROM leads
		WHERE id = ?
	`, id)

	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lead not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return lead, nil
}

// ListByDoctor returns a clinician's leads, newest first, with
// pagination.
func (s *SQLiteStore) ListByDoctor(ctx context.Context, doctorID string, limit, offset int) ([]*domain.Lead, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, doctor_id, name, email, phone, quiz_type, score, severity,
			answers, lead_source, share_key, lead_status, idempotency_key, submitted_at
		FROM leads
		WHERE doctor_id = ?
		ORDER BY submitted_at DESC
		LIMIT ? OFFSET ?
	`, doctorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, lead)
	}
	return result, rows.Err()
}

// UpdateStatus moves a lead through the clinician workflow.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE leads SET lead_status = ? WHERE id = ?",
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lead not found: %w", domain.ErrNotFound)
	}
	return nil
}

// Count returns the total number of stored leads.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads").Scan(&count)
	return count, err
}

// LeadExport is the JSON envelope for export and import.
type LeadExport struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Count      int            `json:"count"`
	Leads      []*domain.Lead `json:"leads"`
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// ExportJSON exports all leads to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, doctor_id, name, email, phone, quiz_type, score, severity,
			answers, lead_source, share_key, lead_status, idempotency_key, submitted_at
		FROM leads
		ORDER BY submitted_at DESC
		LIMIT ?
	`, maxExportLimit)
	if err != nil {
		return fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var all []*domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		all = append(all, lead)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate rows: %w", err)
	}

	export := &LeadExport{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Leads:      all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON imports leads from a JSON reader. Leads whose idempotency
// key is already present are skipped.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export LeadExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, lead := range export.Leads {
		if lead.IdempotencyKey != "" {
			var existingID string
			err := s.db.QueryRowContext(ctx,
				"SELECT id FROM leads WHERE idempotency_key = ?",
				lead.IdempotencyKey,
			).Scan(&existingID)

			if err == nil {
				skipped++
				continue
			}
			if err != sql.ErrNoRows {
				return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
			}
		}

		if _, err := s.Create(ctx, lead); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
