package setup

import (
	"fmt"
	"strings"

	"github.com/gokatarajesh/brainwave/internal/quiz"
)

// Draft is the raw setup form as submitted by a player.
type Draft struct {
	Category           string `json:"category"`
	CustomTopic        string `json:"custom_topic,omitempty"`
	Level              int    `json:"level"`
	SecondsPerQuestion int    `json:"seconds_per_question"`
	QuestionCount      int    `json:"question_count"`
}

// RejectionError explains why a draft cannot start a quiz.
type RejectionError struct {
	Field  string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validator resolves drafts into quiz configs against a catalogue.
type Validator struct {
	catalog Catalog
}

// NewValidator builds a validator for the given catalogue.
func NewValidator(catalog Catalog) *Validator {
	if catalog.CustomCategory == "" {
		catalog.CustomCategory = CustomCategory
	}
	return &Validator{catalog: catalog}
}

// Catalog returns the options the validator accepts.
func (v *Validator) Catalog() Catalog {
	return v.catalog
}

// CanStart reports whether the start action should be enabled for the draft.
func (v *Validator) CanStart(d Draft) bool {
	_, err := v.Validate(d)
	return err == nil
}

// Validate resolves the topic and normalizes numeric fields. It only rejects
// drafts without a usable topic; numbers are clamped, never rejected.
func (v *Validator) Validate(d Draft) (quiz.Config, error) {
	topic, err := v.resolveTopic(d)
	if err != nil {
		return quiz.Config{}, err
	}

	level := d.Level
	switch {
	case level == 0:
		level = v.catalog.DefaultLevel
	case level < quiz.MinLevel:
		level = quiz.MinLevel
	case level > quiz.MaxLevel:
		level = quiz.MaxLevel
	}

	return quiz.Config{
		Topic:              topic,
		Level:              level,
		SecondsPerQuestion: v.catalog.Seconds.Clamp(d.SecondsPerQuestion),
		QuestionCount:      v.catalog.Questions.Clamp(d.QuestionCount),
	}, nil
}

func (v *Validator) resolveTopic(d Draft) (string, error) {
	category := strings.TrimSpace(d.Category)
	if category == "" {
		return "", &RejectionError{Field: "category", Reason: "choose a category"}
	}

	if strings.EqualFold(category, v.catalog.CustomCategory) {
		custom := strings.TrimSpace(d.CustomTopic)
		if custom == "" {
			return "", &RejectionError{Field: "custom_topic", Reason: "enter a custom category"}
		}
		return custom, nil
	}

	for _, known := range v.catalog.Categories {
		if strings.EqualFold(known, category) {
			return known, nil
		}
	}
	return "", &RejectionError{Field: "category", Reason: fmt.Sprintf("unknown category %q", category)}
}
