package bot

import (
	"context"
	"io"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patientpathway/assessment-server/internal/catalog"
	"github.com/patientpathway/assessment-server/internal/conversation"
	"github.com/patientpathway/assessment-server/internal/domain"
	"github.com/patientpathway/assessment-server/internal/lead"
	"github.com/patientpathway/assessment-server/internal/notify"
	"github.com/patientpathway/assessment-server/internal/scoring"
	"github.com/patientpathway/assessment-server/internal/sharekey"
)

type fakeTelegram struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegram) Request(_ tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (f *fakeTelegram) StopReceivingUpdates() {}

type recordingStore struct {
	mu    sync.Mutex
	leads []*domain.Lead
}

func (r *recordingStore) Create(_ context.Context, l *domain.Lead) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.leads {
		if existing.IdempotencyKey == l.IdempotencyKey {
			return existing.ID, nil
		}
	}
	r.leads = append(r.leads, l)
	return l.ID, nil
}

func (r *recordingStore) GetByID(_ context.Context, _ string) (*domain.Lead, error) {
	return nil, domain.ErrNotFound
}

func (r *recordingStore) ListByDoctor(_ context.Context, _ string, _, _ int) ([]*domain.Lead, error) {
	return nil, nil
}

func newTestBot(t *testing.T) (*Bot, *recordingStore) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	quizzes := catalog.New(logger)
	scorer := scoring.NewEngine(logger, quizzes)
	store := &recordingStore{}
	coordinator := lead.NewCoordinator(logger, store, notify.NewLogNotifier(logger), 0)
	resolver := sharekey.NewStaticResolver(logger, nil)
	manager := conversation.NewManager(logger, quizzes, scorer, coordinator, resolver, 0)

	return &Bot{
		api:      &fakeTelegram{},
		username: "testbot",
		logger:   logger,
		manager:  manager,
		catalog:  quizzes,
		sessions: make(map[int64]*chatSession),
	}, store
}

func TestBot_FullAssessmentFlow(t *testing.T) {
	b, store := newTestBot(t)
	ctx := context.Background()
	chatID := int64(42)

	b.startAssessment(ctx, chatID, "NOSE")

	b.mu.Lock()
	sess, ok := b.sessions[chatID]
	b.mu.Unlock()
	require.True(t, ok)
	require.Equal(t, conversation.PromptGreeting, sess.conv.CurrentPrompt().Kind)

	// Accept the greeting, then answer every question at max severity.
	b.handleOption(chatID, "0")
	for i := 0; i < 5; i++ {
		require.Equal(t, conversation.StateQuiz, sess.conv.State())
		b.handleOption(chatID, "4")
	}

	require.Equal(t, conversation.StateContactCapture, sess.conv.State())
	assert.Equal(t, stageName, sess.stage)

	b.handleContactInput(ctx, chatID, sess, "Jordan Reyes")
	b.handleContactInput(ctx, chatID, sess, "jordan@example.com")
	b.handleContactInput(ctx, chatID, sess, "/skip")

	require.Len(t, store.leads, 1)
	stored := store.leads[0]
	assert.Equal(t, domain.NOSE, stored.QuizType)
	assert.Equal(t, domain.SourceWebsite, stored.LeadSource, "chat assessments are direct traffic, not shared links")
	assert.Equal(t, lead.DefaultDoctorID, stored.DoctorID)
	assert.Empty(t, stored.Phone)

	// Submission closes out the chat session.
	b.mu.Lock()
	_, stillLive := b.sessions[chatID]
	b.mu.Unlock()
	assert.False(t, stillLive)
}

func TestBot_OptionIndexOutOfRange(t *testing.T) {
	b, store := newTestBot(t)
	chatID := int64(7)

	b.startAssessment(context.Background(), chatID, "TNSS")

	b.mu.Lock()
	sess := b.sessions[chatID]
	b.mu.Unlock()

	b.handleOption(chatID, "9")
	assert.Equal(t, conversation.StateGreeting, sess.conv.State())

	b.handleOption(chatID, "not-a-number")
	assert.Equal(t, conversation.StateGreeting, sess.conv.State())
	assert.Empty(t, store.leads)
}

func TestBot_UnknownQuizKeepsNoSession(t *testing.T) {
	b, _ := newTestBot(t)
	chatID := int64(9)

	b.startAssessment(context.Background(), chatID, "PHQ9")

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Empty(t, b.sessions)
}
