package external

import (
	"fmt"
	"html"
	"math/rand"
	"strings"

	"github.com/gokatarajesh/brainwave/internal/quiz"
)

// UnsupportedTopicError is returned for topics a trivia API has no category for.
type UnsupportedTopicError struct {
	Source string
	Topic  string
}

func (e UnsupportedTopicError) Error() string {
	return fmt.Sprintf("%s has no category for topic %q", e.Source, e.Topic)
}

// difficultyFor folds the five quiz levels onto the three trivia difficulties.
func difficultyFor(level int) string {
	switch {
	case level <= 1:
		return "easy"
	case level <= 3:
		return "medium"
	default:
		return "hard"
	}
}

func lookupCategory[V any](m map[string]V, topic string) (V, bool) {
	v, ok := m[strings.ToLower(strings.TrimSpace(topic))]
	return v, ok
}

func shuffleOptions(options []string) {
	rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
}

// toQuestion builds a question from a correct answer and its distractors.
func toQuestion(prompt, correct string, incorrect []string, shuffle func([]string)) quiz.Question {
	options := make([]string, 0, len(incorrect)+1)
	options = append(options, html.UnescapeString(correct))
	for _, o := range incorrect {
		options = append(options, html.UnescapeString(o))
	}
	if shuffle != nil {
		shuffle(options)
	}
	return quiz.Question{
		Prompt:        html.UnescapeString(prompt),
		Options:       options,
		CorrectOption: html.UnescapeString(correct),
	}
}
