package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/domain"
	"github.com/patientpathway/assessment-server/internal/lead"
)

// Manager owns the live conversation registry. Conversations are keyed
// by server-issued uuid and evicted after an idle period so abandoned
// sessions do not accumulate.
type Manager struct {
	logger      *logrus.Logger
	catalog     domain.QuizCatalog
	scorer      domain.Scorer
	coordinator *lead.Coordinator
	resolver    domain.ShareKeyResolver
	idleTTL     time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	conv     *Conversation
	lastSeen time.Time
}

// NewManager creates the conversation registry. idleTTL bounds how long
// an untouched conversation survives; zero selects the one hour default.
func NewManager(logger *logrus.Logger, catalog domain.QuizCatalog, scorer domain.Scorer, coordinator *lead.Coordinator, resolver domain.ShareKeyResolver, idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	return &Manager{
		logger:      logger,
		catalog:     catalog,
		scorer:      scorer,
		coordinator: coordinator,
		resolver:    resolver,
		idleTTL:     idleTTL,
		sessions:    make(map[string]*session),
	}
}

// Start creates a conversation for the given quiz. The share key is
// resolved up front; resolution failure silently falls back to the
// explicit doctor id carried in opts, and the coordinator applies the
// platform default bucket if that is empty too.
func (m *Manager) Start(ctx context.Context, quizID string, opts Options) (*Conversation, error) {
	quiz, err := m.catalog.Get(quizID)
	if err != nil {
		return nil, err
	}

	doctorID := opts.DoctorID
	if opts.ShareKey != "" {
		if resolved, ok := m.resolver.Resolve(ctx, opts.ShareKey); ok {
			doctorID = resolved
		}
	}

	if opts.Source == "" {
		opts.Source = domain.SourceWebsite
	}

	id := uuid.New().String()
	conv := newConversation(id, m.logger, quiz, m.scorer, m.coordinator, opts, doctorID)

	m.mu.Lock()
	m.sessions[id] = &session{conv: conv, lastSeen: time.Now()}
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"conversation_id": id,
		"quiz_id":         quiz.ID,
		"source":          opts.Source,
		"doctor_id":       doctorID,
	}).Info("Conversation started")

	return conv, nil
}

// Get returns a live conversation by id, refreshing its idle clock.
func (m *Manager) Get(id string) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sess.lastSeen = time.Now()
	return sess.conv, nil
}

// Count returns the number of live conversations.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartCleanup evicts idle conversations on an interval until the
// context is cancelled.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.evictIdle()
			}
		}
	}()
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, sess := range m.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		m.logger.WithFields(logrus.Fields{
			"evicted":   evicted,
			"remaining": len(m.sessions),
		}).Info("Evicted idle conversations")
	}
}
