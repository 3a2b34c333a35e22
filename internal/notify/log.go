package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/domain"
)

// LogNotifier writes lead summaries to the structured log. Used by the
// lite server and anywhere no webhook endpoint is configured.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the summary. It never fails.
func (n *LogNotifier) Notify(_ context.Context, summary domain.LeadSummary) error {
	n.logger.WithFields(logrus.Fields{
		"lead_id":   summary.LeadID,
		"lead_name": summary.LeadName,
		"quiz_type": summary.QuizType,
		"score":     summary.Score,
		"severity":  summary.Severity,
		"doctor_id": summary.DoctorID,
	}).Info("New lead")
	return nil
}
