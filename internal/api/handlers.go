package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/conversation"
	"github.com/patientpathway/assessment-server/internal/domain"
)

// startConversationRequest begins an assessment.
type startConversationRequest struct {
	QuizID       string `json:"quiz_id" binding:"required"`
	ShareKey     string `json:"share_key"`
	DoctorID     string `json:"doctor_id"`
	Source       string `json:"source"`
	RequirePhone bool   `json:"require_phone"`
}

// answerRequest submits one answer label.
type answerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// contactRequest submits the contact capture form.
type contactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// quizSummary is the catalog listing shape; question bodies are fetched
// through a conversation, not the listing.
type quizSummary struct {
	ID            domain.QuizID `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	QuestionCount int           `json:"question_count"`
}

// handleListQuizzes returns the available assessments.
func (s *Server) handleListQuizzes(c *gin.Context) {
	defs := s.catalog.List()
	out := make([]quizSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, quizSummary{
			ID:            def.ID,
			Title:         def.Title,
			Description:   def.Description,
			QuestionCount: len(def.Questions),
		})
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": out})
}

// handleStartConversation creates a conversation and returns its id
// with the greeting prompt.
func (s *Server) handleStartConversation(c *gin.Context) {
	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quiz_id is required"})
		return
	}

	opts := conversation.Options{
		ShareKey:     req.ShareKey,
		DoctorID:     req.DoctorID,
		RequirePhone: req.RequirePhone,
		Source:       domain.LeadSource(req.Source),
	}
	if req.ShareKey != "" && req.Source == "" {
		opts.Source = domain.SourceSharedLink
	}

	conv, err := s.manager.Start(c.Request.Context(), req.QuizID, opts)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"conversation_id": conv.ID(),
		"quiz_id":         conv.QuizID(),
		"prompt":          conv.CurrentPrompt(),
	})
}

// handleGetPrompt returns the current prompt for a conversation.
func (s *Server) handleGetPrompt(c *gin.Context) {
	conv, err := s.manager.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":  conv.State(),
		"prompt": conv.CurrentPrompt(),
	})
}

// handleSubmitAnswer records an answer and returns the next prompt. An
// invalid answer re-serves the same prompt with the field message.
func (s *Server) handleSubmitAnswer(c *gin.Context) {
	conv, err := s.manager.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "answer is required"})
		return
	}

	prompt, err := conv.SubmitAnswer(req.Answer)
	if err != nil {
		var invalid *domain.InvalidAnswerError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  invalid.UserMessage(),
				"prompt": prompt,
			})
			return
		}
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":  conv.State(),
		"prompt": prompt,
	})
}

// handleSubmitContact completes the assessment: validates contact
// fields, scores, and submits the lead.
func (s *Server) handleSubmitContact(c *gin.Context) {
	conv, err := s.manager.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contact payload"})
		return
	}

	prompt, err := conv.SubmitContact(c.Request.Context(), domain.Contact{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":   conv.State(),
		"lead_id": conv.LeadID(),
		"prompt":  prompt,
	})
}

// handleFinish closes a results-stage conversation.
func (s *Server) handleFinish(c *gin.Context) {
	conv, err := s.manager.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	prompt := conv.Finish()
	c.JSON(http.StatusOK, gin.H{
		"state":  conv.State(),
		"prompt": prompt,
	})
}

// handleGetLead returns a stored lead.
func (s *Server) handleGetLead(c *gin.Context) {
	lead, err := s.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// handleListDoctorLeads returns a clinician's leads with pagination.
func (s *Server) handleListDoctorLeads(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	leads, err := s.store.ListByDoctor(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if leads == nil {
		leads = []*domain.Lead{}
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads, "count": len(leads)})
}

// respondError maps domain errors onto HTTP responses. Patients only
// ever see the canned messages.
func (s *Server) respondError(c *gin.Context, err error) {
	var quizNotFound *domain.QuizNotFoundError
	var invalid *domain.InvalidAnswerError
	var validation *domain.ValidationError
	var submission *domain.SubmissionError

	switch {
	case errors.As(err, &quizNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": quizNotFound.UserMessage()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": invalid.UserMessage()})
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  validation.UserMessage(),
			"fields": validation.Fields,
		})
	case errors.As(err, &submission):
		status := http.StatusServiceUnavailable
		if !submission.Retryable {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": submission.UserMessage(), "retryable": submission.Retryable})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	default:
		s.logger.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err,
		}).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
	}
}
