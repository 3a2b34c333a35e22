package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patientpathway/assessment-server/internal/catalog"
	"github.com/patientpathway/assessment-server/internal/config"
	"github.com/patientpathway/assessment-server/internal/conversation"
	"github.com/patientpathway/assessment-server/internal/domain"
	"github.com/patientpathway/assessment-server/internal/lead"
	"github.com/patientpathway/assessment-server/internal/notify"
	"github.com/patientpathway/assessment-server/internal/scoring"
	"github.com/patientpathway/assessment-server/internal/sharekey"
)

type memStore struct {
	mu    sync.Mutex
	leads []*domain.Lead
}

func (m *memStore) Create(_ context.Context, l *domain.Lead) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.leads {
		if existing.IdempotencyKey == l.IdempotencyKey {
			return existing.ID, nil
		}
	}
	m.leads = append(m.leads, l)
	return l.ID, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) ListByDoctor(_ context.Context, doctorID string, limit, offset int) ([]*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Lead
	for _, l := range m.leads {
		if l.DoctorID == doctorID {
			out = append(out, l)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	quizzes := catalog.New(logger)
	scorer := scoring.NewEngine(logger, quizzes)
	store := &memStore{}
	coordinator := lead.NewCoordinator(logger, store, notify.NewLogNotifier(logger), 0)
	resolver := sharekey.NewStaticResolver(logger, map[string]string{"share-1": "dr-novak"})
	manager := conversation.NewManager(logger, quizzes, scorer, coordinator, resolver, 0)

	return NewServer(logger, config.ServerConfig{}, manager, quizzes, store), store
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestListQuizzes(t *testing.T) {
	server, _ := newTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/quizzes", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["quizzes"], 7)
}

func TestStartConversation_UnknownQuiz(t *testing.T) {
	server, _ := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/v1/conversations", map[string]any{
		"quiz_id": "PHQ9",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.MsgQuizUnavailable, decodeBody(t, w)["error"])
}

func TestGetPrompt_UnknownConversation(t *testing.T) {
	server, _ := newTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/conversations/missing/prompt", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFullAssessmentOverHTTP(t *testing.T) {
	server, store := newTestServer(t)

	// Start a NOSE assessment attributed through a share key.
	w := doJSON(t, server, http.MethodPost, "/api/v1/conversations", map[string]any{
		"quiz_id":   "NOSE",
		"share_key": "share-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	convID, ok := body["conversation_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, convID)

	answersPath := fmt.Sprintf("/api/v1/conversations/%s/answers", convID)

	// Accept the greeting.
	w = doJSON(t, server, http.MethodPost, answersPath, map[string]any{"answer": "Start assessment"})
	require.Equal(t, http.StatusOK, w.Code)

	// An answer that matches no option is rejected and the question is
	// re-served.
	w = doJSON(t, server, http.MethodPost, answersPath, map[string]any{"answer": "kind of bad"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, domain.MsgInvalidAnswer, decodeBody(t, w)["error"])

	// Answer every question at maximum severity.
	for i := 0; i < 5; i++ {
		w = doJSON(t, server, http.MethodPost, answersPath, map[string]any{"answer": "4 - Severe Problem"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	body = decodeBody(t, w)
	assert.Equal(t, string(conversation.StateContactCapture), body["state"])

	// Invalid email re-prompts without storing anything.
	contactPath := fmt.Sprintf("/api/v1/conversations/%s/contact", convID)
	w = doJSON(t, server, http.MethodPost, contactPath, map[string]any{
		"name":  "Jordan Reyes",
		"email": "nope",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, store.leads)

	// Valid contact completes the assessment.
	w = doJSON(t, server, http.MethodPost, contactPath, map[string]any{
		"name":  "Jordan Reyes",
		"email": "jordan@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decodeBody(t, w)
	assert.Equal(t, string(conversation.StateResults), body["state"])
	leadID, ok := body["lead_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, leadID)

	prompt := body["prompt"].(map[string]any)
	result := prompt["result"].(map[string]any)
	assert.Equal(t, float64(20), result["score"])
	assert.Equal(t, "severe", result["severity"])

	// The lead is retrievable and attributed to the share key owner.
	w = doJSON(t, server, http.MethodGet, "/api/v1/leads/"+leadID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	leadBody := decodeBody(t, w)
	assert.Equal(t, "NOSE", leadBody["quiz_type"])
	assert.Equal(t, "NEW", leadBody["lead_status"])
	assert.Equal(t, "dr-novak", leadBody["doctor_id"])

	w = doJSON(t, server, http.MethodGet, "/api/v1/doctors/dr-novak/leads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	// Finish closes the conversation.
	w = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%s/finish", convID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(conversation.StateTerminal), decodeBody(t, w)["state"])
}

func TestDoctorLeads_EmptyList(t *testing.T) {
	server, _ := newTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/doctors/dr-nobody/leads", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["count"])
}
