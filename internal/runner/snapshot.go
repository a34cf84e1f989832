package runner

// Snapshot is a read-only view of the runner for rendering.
type Snapshot struct {
	Status        Status   `json:"status"`
	Index         int      `json:"index"`
	Total         int      `json:"total"`
	Prompt        string   `json:"prompt,omitempty"`
	Options       []string `json:"options,omitempty"`
	Selected      *int     `json:"selected,omitempty"`
	Correct       *bool    `json:"correct,omitempty"`
	CorrectOption string   `json:"correct_option,omitempty"`
	Remaining     int      `json:"remaining_seconds"`
	Expired       bool     `json:"expired"`
	Score         int      `json:"score"`
	CanAdvance    bool     `json:"can_advance"`
}

// Snapshot captures the current question state. The correct option is only
// revealed once the question is answered or expired.
func (r *Runner) Snapshot() Snapshot {
	s := Snapshot{
		Status:    r.status,
		Index:     r.index,
		Total:     len(r.questions),
		Remaining: r.remaining,
		Score:     r.score,
	}
	if r.status != StatusActive {
		return s
	}

	q := r.questions[r.index]
	s.Prompt = q.Prompt
	s.Options = append([]string(nil), q.Options...)
	s.Expired = !r.answered && r.remaining <= 0
	if r.answered {
		selected, correct := r.selected, r.correct
		s.Selected = &selected
		s.Correct = &correct
	}
	if r.answered || s.Expired {
		s.CorrectOption = q.CorrectOption
	}
	s.CanAdvance = r.answered || s.Expired
	return s
}
