package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel wrapped by lookups that found no row.
var ErrNotFound = errors.New("not found")

// Canned user-visible messages. Patients never see raw error text; every
// recoverable error kind maps to one of these.
const (
	MsgQuizUnavailable = "This assessment is currently unavailable."
	MsgInvalidAnswer   = "Please select one of the options shown."
	MsgInvalidEmail    = "Please check your email address."
	MsgSubmitFailed    = "We couldn't save your results. Please try again."
)

// QuizNotFoundError indicates an unknown quiz id. Fatal to conversation
// start; the surface shows a generic unavailable state.
type QuizNotFoundError struct {
	QuizID string `json:"quiz_id"`
}

func (e *QuizNotFoundError) Error() string {
	return fmt.Sprintf("quiz not found: %s", e.QuizID)
}

// UserMessage returns the patient-facing message for this error.
func (e *QuizNotFoundError) UserMessage() string {
	return MsgQuizUnavailable
}

// InvalidAnswerError indicates input that matches none of the current
// question's option labels. Recoverable; the same question is re-asked.
type InvalidAnswerError struct {
	QuestionID string `json:"question_id"`
	Input      string `json:"input"`
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("invalid answer for question %s: %q", e.QuestionID, e.Input)
}

// UserMessage returns the patient-facing message for this error.
func (e *InvalidAnswerError) UserMessage() string {
	return MsgInvalidAnswer
}

// FieldError names one offending contact field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports invalid contact fields. Recoverable; the
// contact form is re-prompted with field-scoped messages. The store is
// never called while validation fails.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation error"
	}
	return fmt.Sprintf("validation error for field %q: %s", e.Fields[0].Field, e.Fields[0].Message)
}

// UserMessage returns the patient-facing message for the first failing field.
func (e *ValidationError) UserMessage() string {
	if len(e.Fields) > 0 {
		return e.Fields[0].Message
	}
	return MsgSubmitFailed
}

// SubmissionError indicates a failed lead submission. Recoverable via
// retry; the quiz answers are preserved and the conversation stays in
// contact capture.
type SubmissionError struct {
	Retryable bool
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("lead submission failed (retryable=%t): %v", e.Retryable, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// UserMessage returns the patient-facing message for this error.
func (e *SubmissionError) UserMessage() string {
	return MsgSubmitFailed
}

// NotificationError indicates a failed clinician notification. Never
// shown to the patient and never rolls back persistence; logged only.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed: %v", e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
