package sharekey

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/domain"
)

// StaticRepository serves share key mappings from a fixed map. Used by
// the lite server and by tests; it satisfies the same Repository
// contract as the database-backed repository.
type StaticRepository struct {
	keys map[string]string
}

// NewStaticRepository creates a repository over the given key map.
func NewStaticRepository(keys map[string]string) *StaticRepository {
	if keys == nil {
		keys = make(map[string]string)
	}
	return &StaticRepository{keys: keys}
}

// Lookup returns the clinician id for a share key.
func (s *StaticRepository) Lookup(_ context.Context, shareKey string) (string, error) {
	doctorID, ok := s.keys[shareKey]
	if !ok {
		return "", domain.ErrNotFound
	}
	return doctorID, nil
}

// NewStaticResolver is a convenience for the lite server: a resolver
// over a fixed key map with no Redis tier.
func NewStaticResolver(logger *logrus.Logger, keys map[string]string) *Resolver {
	return NewResolver(logger, NewStaticRepository(keys), nil)
}
