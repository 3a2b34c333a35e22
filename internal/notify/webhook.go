// Package notify delivers lead notifications to clinicians.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/patientpathway/assessment-server/internal/domain"
)

// WebhookConfig configures the webhook notifier.
type WebhookConfig struct {
	URL              string
	Timeout          time.Duration
	MaxRequests      uint32
	Interval         time.Duration
	BreakerTimeout   time.Duration
	FailureThreshold uint32
}

// WebhookNotifier posts lead summaries to a clinician-facing webhook.
// Deliveries run behind a circuit breaker so a dead endpoint cannot
// stall the submission path once it starts failing consistently.
type WebhookNotifier struct {
	logger  *logrus.Logger
	client  *http.Client
	url     string
	breaker *gobreaker.CircuitBreaker
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(logger *logrus.Logger, config WebhookConfig) *WebhookNotifier {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Interval == 0 {
		config.Interval = 10 * time.Second
	}
	if config.BreakerTimeout == 0 {
		config.BreakerTimeout = 30 * time.Second
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}

	cbSettings := gobreaker.Settings{
		Name:        "LeadWebhook",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from,
				"to_state":        to,
			}).Warn("Circuit breaker state changed")
		},
	}

	return &WebhookNotifier{
		logger:  logger,
		client:  &http.Client{Timeout: config.Timeout},
		url:     config.URL,
		breaker: gobreaker.NewCircuitBreaker(cbSettings),
	}
}

// Notify posts the lead summary as JSON. Any failure is wrapped in a
// NotificationError; the caller decides whether that matters (it never
// fails a submission).
func (n *WebhookNotifier) Notify(ctx context.Context, summary domain.LeadSummary) error {
	operation := func() (interface{}, error) {
		return nil, n.post(ctx, summary)
	}

	if _, err := n.breaker.Execute(operation); err != nil {
		return &domain.NotificationError{Err: err}
	}

	n.logger.WithFields(logrus.Fields{
		"lead_id":   summary.LeadID,
		"doctor_id": summary.DoctorID,
		"severity":  summary.Severity,
	}).Info("Lead notification delivered")

	return nil
}

func (n *WebhookNotifier) post(ctx context.Context, summary domain.LeadSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
