// Package conversation drives a patient through one assessment as a
// linear state machine: greeting, the quiz questions in order, contact
// capture, results, terminal. Each conversation serializes its own
// mutations; the surfaces (HTTP, websocket, Telegram) only ever call
// CurrentPrompt, SubmitAnswer, SubmitContact, and Finish.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/domain"
	"github.com/patientpathway/assessment-server/internal/lead"
)

// State is the conversation phase.
type State string

const (
	StateGreeting       State = "greeting"
	StateQuiz           State = "quiz"
	StateContactCapture State = "contact_capture"
	StateResults        State = "results"
	StateTerminal       State = "terminal"
)

// PromptKind tells the surface how to render the current prompt.
type PromptKind string

const (
	PromptGreeting PromptKind = "greeting"
	PromptQuestion PromptKind = "question"
	PromptContact  PromptKind = "contact"
	PromptResult   PromptKind = "result"
	PromptDone     PromptKind = "done"
)

// Greeting option labels. The greeting is answered through SubmitAnswer
// like any other prompt so surfaces need no special start control.
const (
	greetingAccept  = "Start assessment"
	greetingDecline = "Not now"
)

// Prompt is what the patient should see next.
type Prompt struct {
	Kind         PromptKind         `json:"kind"`
	Text         string             `json:"text"`
	Options      []string           `json:"options,omitempty"`
	QuestionID   string             `json:"question_id,omitempty"`
	Progress     string             `json:"progress,omitempty"`
	RequirePhone bool               `json:"require_phone,omitempty"`
	Result       *domain.QuizResult `json:"result,omitempty"`
}

// Options configures one conversation at start time.
type Options struct {
	ShareKey     string
	DoctorID     string
	RequirePhone bool
	Source       domain.LeadSource
}

// Conversation is one patient's in-flight assessment.
type Conversation struct {
	id          string
	logger      *logrus.Logger
	quiz        *domain.QuizDefinition
	scorer      domain.Scorer
	coordinator *lead.Coordinator
	opts        Options
	doctorID    string

	mu            sync.Mutex
	state         State
	questionIndex int
	answers       []domain.Answer
	result        *domain.QuizResult
	leadID        string
	submitted     bool
}

func newConversation(id string, logger *logrus.Logger, quiz *domain.QuizDefinition, scorer domain.Scorer, coordinator *lead.Coordinator, opts Options, doctorID string) *Conversation {
	return &Conversation{
		id:          id,
		logger:      logger,
		quiz:        quiz,
		scorer:      scorer,
		coordinator: coordinator,
		opts:        opts,
		doctorID:    doctorID,
		state:       StateGreeting,
		answers:     make([]domain.Answer, 0, len(quiz.Questions)),
	}
}

// ID returns the conversation id.
func (c *Conversation) ID() string {
	return c.id
}

// QuizID returns the instrument this conversation runs.
func (c *Conversation) QuizID() domain.QuizID {
	return c.quiz.ID
}

// State returns the current phase.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LeadID returns the created lead id once submission succeeded.
func (c *Conversation) LeadID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leadID
}

// CurrentPrompt returns what the patient should see now. Read-only and
// repeatable; re-asking after an invalid answer is just calling this
// again.
func (c *Conversation) CurrentPrompt() Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.promptLocked()
}

func (c *Conversation) promptLocked() Prompt {
	switch c.state {
	case StateGreeting:
		return Prompt{
			Kind:    PromptGreeting,
			Text:    fmt.Sprintf("Welcome to the %s. It takes about %d quick questions. Ready to begin?", c.quiz.Title, len(c.quiz.Questions)),
			Options: []string{greetingAccept, greetingDecline},
		}
	case StateQuiz:
		question := c.quiz.Questions[c.questionIndex]
		return Prompt{
			Kind:       PromptQuestion,
			Text:       question.Text,
			Options:    question.OptionLabels(),
			QuestionID: question.ID,
			Progress:   fmt.Sprintf("%d/%d", c.questionIndex+1, len(c.quiz.Questions)),
		}
	case StateContactCapture:
		return Prompt{
			Kind:         PromptContact,
			Text:         "Almost done. Please share your contact details so we can send your results.",
			RequirePhone: c.opts.RequirePhone,
		}
	case StateResults:
		return Prompt{
			Kind:   PromptResult,
			Text:   c.result.Interpretation,
			Result: c.result,
		}
	default:
		return Prompt{
			Kind: PromptDone,
			Text: "Thank you for your time. You can start a new assessment any time.",
		}
	}
}

// SubmitAnswer records the answer to the current prompt. In the
// greeting it accepts or declines the assessment; during the quiz it
// must match one of the current question's option labels exactly. An
// invalid answer returns InvalidAnswerError and leaves the question
// index unchanged.
func (c *Conversation) SubmitAnswer(label string) (Prompt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateGreeting:
		return c.answerGreetingLocked(label)
	case StateQuiz:
		return c.answerQuestionLocked(label)
	default:
		return c.promptLocked(), &domain.InvalidAnswerError{QuestionID: "", Input: label}
	}
}

func (c *Conversation) answerGreetingLocked(label string) (Prompt, error) {
	switch strings.TrimSpace(label) {
	case greetingAccept:
		c.state = StateQuiz
		c.logger.WithFields(logrus.Fields{
			"conversation_id": c.id,
			"quiz_id":         c.quiz.ID,
		}).Info("Assessment started")
	case greetingDecline:
		c.state = StateTerminal
		c.logger.WithFields(logrus.Fields{
			"conversation_id": c.id,
			"quiz_id":         c.quiz.ID,
		}).Info("Assessment declined")
	default:
		return c.promptLocked(), &domain.InvalidAnswerError{QuestionID: "", Input: label}
	}
	return c.promptLocked(), nil
}

func (c *Conversation) answerQuestionLocked(label string) (Prompt, error) {
	question := c.quiz.Questions[c.questionIndex]

	opt, ok := question.OptionByLabel(strings.TrimSpace(label))
	if !ok {
		c.logger.WithFields(logrus.Fields{
			"conversation_id": c.id,
			"question_id":     question.ID,
			"input":           label,
		}).Warn("Invalid answer, re-asking question")
		return c.promptLocked(), &domain.InvalidAnswerError{QuestionID: question.ID, Input: label}
	}

	c.answers = append(c.answers, domain.Answer{
		QuestionID:    question.ID,
		SelectedLabel: opt.Label,
		Value:         opt.Value,
	})

	if c.questionIndex+1 < len(c.quiz.Questions) {
		c.questionIndex++
	} else {
		c.state = StateContactCapture
		c.logger.WithFields(logrus.Fields{
			"conversation_id": c.id,
			"quiz_id":         c.quiz.ID,
			"answer_count":    len(c.answers),
		}).Info("Assessment completed, capturing contact")
	}

	return c.promptLocked(), nil
}

// SubmitContact scores the completed assessment and submits the lead.
// Validation and submission failures leave the conversation in contact
// capture with all answers intact so the patient can retry. A repeated
// call after success returns the cached result without resubmitting.
func (c *Conversation) SubmitContact(ctx context.Context, contact domain.Contact) (Prompt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitted {
		return c.promptLocked(), nil
	}
	if c.state != StateContactCapture {
		return c.promptLocked(), &domain.SubmissionError{
			Retryable: false,
			Err:       fmt.Errorf("conversation %s is in state %s, not contact capture", c.id, c.state),
		}
	}

	if c.result == nil {
		result, err := c.scorer.Score(string(c.quiz.ID), c.answers)
		if err != nil {
			return c.promptLocked(), err
		}
		c.result = result
	}

	leadID, err := c.coordinator.Submit(ctx, lead.SubmitParams{
		Contact:        contact,
		Result:         c.result,
		QuizType:       c.quiz.ID,
		Answers:        c.answers,
		DoctorID:       c.doctorID,
		ShareKey:       c.opts.ShareKey,
		Source:         c.opts.Source,
		RequirePhone:   c.opts.RequirePhone,
		IdempotencyKey: c.id,
	})
	if err != nil {
		return c.promptLocked(), err
	}

	c.leadID = leadID
	c.submitted = true
	c.state = StateResults

	c.logger.WithFields(logrus.Fields{
		"conversation_id": c.id,
		"lead_id":         leadID,
		"severity":        c.result.Severity,
	}).Info("Conversation reached results")

	return c.promptLocked(), nil
}

// Finish moves a results-stage conversation to terminal.
func (c *Conversation) Finish() Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateResults {
		c.state = StateTerminal
	}
	return c.promptLocked()
}
