package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/domain"
)

// ShareKeyRepository resolves share keys from the database.
type ShareKeyRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewShareKeyRepository creates a new share key repository.
func NewShareKeyRepository(db *pgxpool.Pool, logger *logrus.Logger) *ShareKeyRepository {
	return &ShareKeyRepository{
		db:  db,
		log: logger,
	}
}

// Lookup returns the clinician id owning a share key. Revoked keys are
// treated the same as unknown keys.
func (r *ShareKeyRepository) Lookup(ctx context.Context, shareKey string) (string, error) {
	query := `
		SELECT doctor_id
		FROM share_keys
		WHERE share_key = $1 AND revoked_at IS NULL`

	var doctorID string
	err := r.db.QueryRow(ctx, query, shareKey).Scan(&doctorID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("share key not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"share_key": shareKey,
			"error":     err,
		}).Error("Failed to look up share key")
		return "", fmt.Errorf("looking up share key: %w", err)
	}

	return doctorID, nil
}
