package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/conversation"
	"github.com/patientpathway/assessment-server/internal/domain"
)

// The widget runs on arbitrary clinic origins, same as the REST CORS
// policy.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsInbound is a client frame. Type selects which fields apply.
type wsInbound struct {
	Type   string `json:"type"` // answer, contact, finish
	Answer string `json:"answer,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

// wsOutbound is a server frame.
type wsOutbound struct {
	State  conversation.State  `json:"state"`
	Prompt conversation.Prompt `json:"prompt"`
	LeadID string              `json:"lead_id,omitempty"`
	Error  string              `json:"error,omitempty"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// handleWebsocket runs one conversation over a websocket. The server
// pushes the current prompt after every client frame; recoverable
// errors ride alongside the re-served prompt instead of closing the
// socket.
func (s *Server) handleWebsocket(c *gin.Context) {
	conv, err := s.manager.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithField("error", err).Warn("Websocket upgrade failed")
		return
	}
	defer ws.Close()

	s.logger.WithFields(logrus.Fields{
		"conversation_id": conv.ID(),
		"quiz_id":         conv.QuizID(),
	}).Info("Websocket session opened")

	// Serve the current prompt immediately so reconnects resume where
	// the patient left off.
	if err := ws.WriteJSON(wsOutbound{State: conv.State(), Prompt: conv.CurrentPrompt()}); err != nil {
		return
	}

	for {
		var in wsInbound
		if err := ws.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WithField("error", err).Debug("Websocket read failed")
			}
			return
		}

		out := s.dispatchFrame(c, conv, in)
		if err := ws.WriteJSON(out); err != nil {
			return
		}

		if out.State == conversation.StateTerminal {
			return
		}
	}
}

func (s *Server) dispatchFrame(c *gin.Context, conv *conversation.Conversation, in wsInbound) wsOutbound {
	switch in.Type {
	case "answer":
		prompt, err := conv.SubmitAnswer(in.Answer)
		out := wsOutbound{State: conv.State(), Prompt: prompt}
		var invalid *domain.InvalidAnswerError
		if errors.As(err, &invalid) {
			out.Error = invalid.UserMessage()
		}
		return out

	case "contact":
		prompt, err := conv.SubmitContact(c.Request.Context(), domain.Contact{
			Name:  in.Name,
			Email: in.Email,
			Phone: in.Phone,
		})
		out := wsOutbound{State: conv.State(), Prompt: prompt, LeadID: conv.LeadID()}
		var validation *domain.ValidationError
		var submission *domain.SubmissionError
		switch {
		case errors.As(err, &validation):
			out.Error = validation.UserMessage()
			out.Fields = validation.Fields
		case errors.As(err, &submission):
			out.Error = submission.UserMessage()
		case err != nil:
			out.Error = domain.MsgSubmitFailed
		}
		return out

	case "finish":
		prompt := conv.Finish()
		return wsOutbound{State: conv.State(), Prompt: prompt}

	default:
		return wsOutbound{
			State:  conv.State(),
			Prompt: conv.CurrentPrompt(),
			Error:  "Unknown message type.",
		}
	}
}
