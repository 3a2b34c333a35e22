package domain

import (
	"time"
)

// Core Enums and Types

// QuizID identifies a clinically validated assessment instrument.
type QuizID string

const (
	SNOT22   QuizID = "SNOT22"
	NOSE     QuizID = "NOSE"
	HHIA     QuizID = "HHIA"
	EPWORTH  QuizID = "EPWORTH"
	DHI      QuizID = "DHI"
	STOPBANG QuizID = "STOPBANG"
	TNSS     QuizID = "TNSS"
)

// String returns the string representation of the quiz id.
func (q QuizID) String() string {
	return string(q)
}

// Severity represents the severity band derived from a quiz score.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// String returns the string representation of the severity band.
func (s Severity) String() string {
	return string(s)
}

// LeadSource identifies which presentation surface produced a lead.
type LeadSource string

const (
	SourceWebsite    LeadSource = "website"
	SourceSharedLink LeadSource = "shared_link"
	SourceCardPage   LeadSource = "card_page"
	SourceEmbed      LeadSource = "embed"
)

// LeadStatus tracks the clinician-facing lifecycle of a lead.
// The engine only ever creates leads in StatusNew; later transitions
// belong to the clinician workflow.
type LeadStatus string

const (
	StatusNew       LeadStatus = "NEW"
	StatusContacted LeadStatus = "CONTACTED"
	StatusCompleted LeadStatus = "COMPLETED"
)

// Answer records one selected option, in question order. Immutable once
// recorded; the ordered list is consumed exactly once by the scorer.
type Answer struct {
	QuestionID    string `json:"question_id"`
	SelectedLabel string `json:"selected_label"`
	Value         int    `json:"value"`
}

// QuizResult is the computed outcome of a completed assessment.
type QuizResult struct {
	QuizID         QuizID   `json:"quiz_id"`
	Score          int      `json:"score"`
	Percentage     int      `json:"percentage"`
	Severity       Severity `json:"severity"`
	Interpretation string   `json:"interpretation"`
	Summary        string   `json:"summary"`
}

// Contact holds the captured patient contact fields.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Lead represents one completed, submitted assessment.
type Lead struct {
	ID             string     `json:"id"`
	DoctorID       string     `json:"doctor_id,omitempty"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	QuizType       QuizID     `json:"quiz_type"`
	Score          int        `json:"score"`
	Severity       Severity   `json:"severity"`
	Answers        []Answer   `json:"answers"`
	LeadSource     LeadSource `json:"lead_source"`
	ShareKey       string     `json:"share_key,omitempty"`
	LeadStatus     LeadStatus `json:"lead_status"`
	IdempotencyKey string     `json:"idempotency_key"`
	SubmittedAt    time.Time  `json:"submitted_at"`
}

// LeadSummary is the structured payload handed to the Notifier.
type LeadSummary struct {
	LeadID   string   `json:"lead_id"`
	LeadName string   `json:"lead_name"`
	QuizType QuizID   `json:"quiz_type"`
	Score    int      `json:"score"`
	Severity Severity `json:"severity"`
	DoctorID string   `json:"doctor_id,omitempty"`
}
