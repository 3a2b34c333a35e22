package domain

// Option is one selectable answer for a question. Options are authored
// low-to-high severity by convention; Value is the point weight.
type Option struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Question is one item of an assessment instrument.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// QuizDefinition is an immutable assessment instrument. MaxScore is
// authored alongside the questions rather than derived at runtime,
// because some instruments (STOP-Bang) count answers instead of summing
// option weights.
type QuizDefinition struct {
	ID          QuizID     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	MaxScore    int        `json:"max_score"`
	Questions   []Question `json:"questions"`
}

// OptionByLabel returns the option whose label matches exactly, if any.
func (q *Question) OptionByLabel(label string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Label == label {
			return opt, true
		}
	}
	return Option{}, false
}

// OptionLabels returns the option labels in authored order.
func (q *Question) OptionLabels() []string {
	labels := make([]string, len(q.Options))
	for i, opt := range q.Options {
		labels[i] = opt.Label
	}
	return labels
}
