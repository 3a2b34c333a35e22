// Package catalog holds the static registry of assessment definitions.
// Definitions are constructed once at startup and never mutated, so the
// catalog is safe to share across all concurrent conversations.
package catalog

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/domain"
)

// Catalog is the process-wide quiz registry.
type Catalog struct {
	logger  *logrus.Logger
	quizzes map[domain.QuizID]*domain.QuizDefinition
	order   []domain.QuizID
}

// New builds the catalog from the authored definitions.
func New(logger *logrus.Logger) *Catalog {
	c := &Catalog{
		logger:  logger,
		quizzes: make(map[domain.QuizID]*domain.QuizDefinition),
	}

	for _, def := range definitions() {
		c.quizzes[def.ID] = def
		c.order = append(c.order, def.ID)
	}

	logger.WithField("quiz_count", len(c.quizzes)).Info("Quiz catalog initialized")

	return c
}

// Get returns the definition for a quiz id. Lookup is case-normalized
// because ids arrive upper- and lower-cased from routing; separators are
// ignored so "snot-22" and "SNOT22" resolve to the same instrument.
func (c *Catalog) Get(quizID string) (*domain.QuizDefinition, error) {
	def, ok := c.quizzes[normalizeID(quizID)]
	if !ok {
		return nil, &domain.QuizNotFoundError{QuizID: quizID}
	}
	return def, nil
}

// List returns all definitions in authored order.
func (c *Catalog) List() []*domain.QuizDefinition {
	defs := make([]*domain.QuizDefinition, 0, len(c.order))
	for _, id := range c.order {
		defs = append(defs, c.quizzes[id])
	}
	return defs
}

// normalizeID maps routing input onto a catalog key.
func normalizeID(quizID string) domain.QuizID {
	normalized := strings.ToUpper(strings.TrimSpace(quizID))
	normalized = strings.NewReplacer("-", "", "_", "", " ", "").Replace(normalized)
	return domain.QuizID(normalized)
}
