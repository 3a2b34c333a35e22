// Package scoring computes quiz results. Scoring is a pure function of
// the quiz id, the ordered answer list, and the static rule tables; each
// instrument keeps its own clinically defined rule rather than sharing a
// generalized curve.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/domain"
)

// Band maps a percentage range onto a severity with its canned verdict.
// Threshold is the inclusive lower bound; bands are authored highest
// first and the last band carries threshold 0.
type Band struct {
	Threshold      int
	Severity       domain.Severity
	Interpretation string
	Summary        string
}

// PointSumRule scores an instrument by summing selected option weights.
// When PerQuestionMax is set the attainable maximum is derived from the
// answered question count; otherwise the definition's MaxScore is used.
type PointSumRule struct {
	PerQuestionMax int
	Bands          []Band
}

// CountRule scores an instrument by counting answers that match (used by
// STOP-Bang, which counts "Yes" responses instead of summing weights).
type CountRule struct {
	Match string
	Bands []Band
}

// Engine scores completed assessments against the catalog.
type Engine struct {
	logger  *logrus.Logger
	catalog domain.QuizCatalog
	rules   map[domain.QuizID]interface{}
}

// NewEngine creates a scoring engine with the built-in rule tables.
func NewEngine(logger *logrus.Logger, catalog domain.QuizCatalog) *Engine {
	return &Engine{
		logger:  logger,
		catalog: catalog,
		rules:   ruleTable(),
	}
}

// Score computes the result for a completed answer list. Answers must be
// in question order; all current instruments score positionally against
// the catalog's question list.
func (e *Engine) Score(quizID string, answers []domain.Answer) (*domain.QuizResult, error) {
	def, err := e.catalog.Get(quizID)
	if err != nil {
		return nil, err
	}

	var result *domain.QuizResult
	switch rule := e.rules[def.ID].(type) {
	case PointSumRule:
		result = e.scorePointSum(def, rule, answers)
	case CountRule:
		result = e.scoreCount(def, rule, answers)
	default:
		// Unreached while the rule table covers the catalog; the
		// catalog tests pin that invariant.
		return nil, &domain.QuizNotFoundError{QuizID: quizID}
	}

	e.logger.WithFields(logrus.Fields{
		"quiz_id":    def.ID,
		"score":      result.Score,
		"percentage": result.Percentage,
		"severity":   result.Severity,
	}).Info("Assessment scored")

	return result, nil
}

// scorePointSum sums option weights and bands the resulting percentage.
func (e *Engine) scorePointSum(def *domain.QuizDefinition, rule PointSumRule, answers []domain.Answer) *domain.QuizResult {
	score := 0
	for _, answer := range answers {
		score += e.answerWeight(def, answer)
	}

	maxPossible := def.MaxScore
	if rule.PerQuestionMax > 0 {
		maxPossible = len(answers) * rule.PerQuestionMax
	}

	percentage := percentOf(score, maxPossible)
	band := classify(rule.Bands, percentage)

	return &domain.QuizResult{
		QuizID:         def.ID,
		Score:          score,
		Percentage:     percentage,
		Severity:       band.Severity,
		Interpretation: band.Interpretation,
		Summary:        band.Summary,
	}
}

// scoreCount counts matching answers against the full question count.
func (e *Engine) scoreCount(def *domain.QuizDefinition, rule CountRule, answers []domain.Answer) *domain.QuizResult {
	count := 0
	for _, answer := range answers {
		if strings.Contains(strings.ToLower(answer.SelectedLabel), strings.ToLower(rule.Match)) {
			count++
		}
	}

	percentage := percentOf(count, len(def.Questions))
	band := classify(rule.Bands, percentage)

	return &domain.QuizResult{
		QuizID:         def.ID,
		Score:          count,
		Percentage:     percentage,
		Severity:       band.Severity,
		Interpretation: band.Interpretation,
		Summary:        band.Summary,
	}
}

// answerWeight resolves the point weight of one answer. It prefers the
// structural option value, falls back to the weight embedded in the
// label, and treats an unparseable label as 0. The zero fallback is a
// deliberate leniency: one malformed answer must not void a completed
// assessment.
func (e *Engine) answerWeight(def *domain.QuizDefinition, answer domain.Answer) int {
	for i := range def.Questions {
		question := &def.Questions[i]
		if question.ID != answer.QuestionID {
			continue
		}
		if opt, ok := question.OptionByLabel(answer.SelectedLabel); ok {
			return opt.Value
		}
	}

	weight, ok := parseLabelWeight(answer.SelectedLabel)
	if !ok {
		e.logger.WithFields(logrus.Fields{
			"quiz_id":     def.ID,
			"question_id": answer.QuestionID,
			"label":       answer.SelectedLabel,
		}).Warn("Answer label has no parseable weight, scoring as 0")
		return 0
	}
	return weight
}

// parseLabelWeight extracts the leading numeric weight from an option
// label such as "2 - Moderate Problem".
func parseLabelWeight(label string) (int, bool) {
	trimmed := strings.TrimSpace(label)
	end := 0
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	weight, err := strconv.Atoi(trimmed[:end])
	if err != nil {
		return 0, false
	}
	return weight, true
}

// percentOf rounds score/max to a whole percentage.
func percentOf(score, max int) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(max) * 100))
}

// classify picks the first band whose inclusive lower bound the
// percentage reaches. Bands are ordered highest threshold first.
func classify(bands []Band, percentage int) Band {
	for _, band := range bands {
		if percentage >= band.Threshold {
			return band
		}
	}
	return bands[len(bands)-1]
}
