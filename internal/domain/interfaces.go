package domain

import (
	"context"
)

// QuizCatalog is the read-only registry of quiz definitions. Lookup is
// case-normalized; unknown ids surface a QuizNotFoundError, never a
// substituted default.
type QuizCatalog interface {
	Get(quizID string) (*QuizDefinition, error)
	List() []*QuizDefinition
}

// Scorer computes a reproducible result for a completed answer list.
// Pure over its inputs and the catalog's static threshold tables.
type Scorer interface {
	Score(quizID string, answers []Answer) (*QuizResult, error)
}

// LeadStore persists leads. The engine's discipline toward it is
// create-only; status transitions belong to the clinician workflow.
// Create must honor the lead's idempotency key: a second create with the
// same key returns the existing lead id without inserting.
type LeadStore interface {
	Create(ctx context.Context, lead *Lead) (string, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	ListByDoctor(ctx context.Context, doctorID string, limit, offset int) ([]*Lead, error)
}

// Notifier delivers a lead summary to the owning clinician. Failures are
// logged by the caller and never propagated as submission failure.
type Notifier interface {
	Notify(ctx context.Context, summary LeadSummary) error
}

// ShareKeyResolver maps an opaque share token to the owning clinician.
// Resolution never fails the conversation: an unresolved key reports
// ok=false and the caller falls back to an explicit doctor id or the
// platform default bucket.
type ShareKeyResolver interface {
	Resolve(ctx context.Context, shareKey string) (doctorID string, ok bool)
}
