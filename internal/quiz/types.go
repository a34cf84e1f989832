package quiz

import "strings"

// Level bounds for difficulty selection.
const (
	MinLevel = 1
	MaxLevel = 5
)

// OptionsPerQuestion is the number of choices every generated question carries.
const OptionsPerQuestion = 4

// Question is a single multiple-choice item as received from a question provider.
// It is never mutated after receipt.
type Question struct {
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctAnswer"`
}

// CorrectIndex returns the position of the first option equal to CorrectOption,
// or -1 when no option matches.
func (q Question) CorrectIndex() int {
	for i, opt := range q.Options {
		if opt == q.CorrectOption {
			return i
		}
	}
	return -1
}

// Config is the validated quiz setup. Created by the setup validator and
// immutable once the quiz starts.
type Config struct {
	Topic              string `json:"topic"`
	Level              int    `json:"level"`
	SecondsPerQuestion int    `json:"seconds_per_question"`
	QuestionCount      int    `json:"question_count"`
}

// Result is produced once, when the last question of a quiz is resolved.
type Result struct {
	PlayerName   string `json:"player_name"`
	Topic        string `json:"topic"`
	Level        int    `json:"level"`
	CorrectCount int    `json:"correct_count"`
	TotalCount   int    `json:"total_count"`
}

// LevelDescription maps a level to the audience wording used when asking for questions.
func LevelDescription(level int) string {
	switch level {
	case 1:
		return "beginner (junior school)"
	case 2:
		return "intermediate (high school)"
	case 3:
		return "expert (scientist)"
	case 4:
		return "master (professor)"
	case 5:
		return "genius (Nobel laureate)"
	default:
		return "intermediate"
	}
}

// NormalizeTopic folds a topic into a stable key for caches and leaderboards.
func NormalizeTopic(topic string) string {
	return strings.Join(strings.Fields(strings.ToLower(topic)), "-")
}
