package setup

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gokatarajesh/brainwave/internal/quiz"
)

// CustomCategory is the sentinel category that makes the custom topic text the effective topic.
const CustomCategory = "Custom"

// Range is a discrete numeric option set: Min, Min+Step, ..., Max.
type Range struct {
	Min     int `yaml:"min" json:"min"`
	Max     int `yaml:"max" json:"max"`
	Step    int `yaml:"step" json:"step"`
	Default int `yaml:"default" json:"default"`
}

// LevelOption labels a difficulty level.
type LevelOption struct {
	Value int    `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Catalog lists everything a player may choose on the setup screen.
type Catalog struct {
	Categories     []string      `yaml:"categories" json:"categories"`
	CustomCategory string        `yaml:"-" json:"custom_category"`
	Levels         []LevelOption `yaml:"levels" json:"levels"`
	DefaultLevel   int           `yaml:"default_level" json:"default_level"`
	Seconds        Range         `yaml:"seconds_per_question" json:"seconds_per_question"`
	Questions      Range         `yaml:"question_count" json:"question_count"`
}

// DefaultCatalog returns the stock categories and bounds.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories:     []string{"Tech", "Science", "History", "Geography", "Entertainment"},
		CustomCategory: CustomCategory,
		Levels: []LevelOption{
			{Value: 1, Label: "Beginner"},
			{Value: 2, Label: "Intermediate"},
			{Value: 3, Label: "Expert"},
			{Value: 4, Label: "Master"},
			{Value: 5, Label: "Genius"},
		},
		DefaultLevel: quiz.MinLevel,
		Seconds:      Range{Min: 5, Max: 60, Step: 5, Default: 15},
		Questions:    Range{Min: 5, Max: 20, Step: 5, Default: 5},
	}
}

// LoadCatalog reads a YAML catalogue and fills anything it leaves out from DefaultCatalog.
func LoadCatalog(path string) (Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cat, fmt.Errorf("read catalog: %w", err)
	}

	var file Catalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cat, fmt.Errorf("parse catalog: %w", err)
	}

	if len(file.Categories) > 0 {
		cat.Categories = file.Categories
	}
	if len(file.Levels) > 0 {
		cat.Levels = file.Levels
	}
	if file.DefaultLevel != 0 {
		cat.DefaultLevel = file.DefaultLevel
	}
	if file.Seconds.Step > 0 {
		cat.Seconds = file.Seconds
	}
	if file.Questions.Step > 0 {
		cat.Questions = file.Questions
	}

	if err := cat.check(); err != nil {
		return DefaultCatalog(), err
	}
	return cat, nil
}

func (c Catalog) check() error {
	for name, r := range map[string]Range{"seconds_per_question": c.Seconds, "question_count": c.Questions} {
		if r.Min <= 0 || r.Max < r.Min || r.Step <= 0 {
			return fmt.Errorf("catalog %s: invalid range %d-%d step %d", name, r.Min, r.Max, r.Step)
		}
	}
	if c.DefaultLevel < quiz.MinLevel || c.DefaultLevel > quiz.MaxLevel {
		return fmt.Errorf("catalog default_level %d outside %d-%d", c.DefaultLevel, quiz.MinLevel, quiz.MaxLevel)
	}
	return nil
}

// Clamp maps a requested value onto the range. Zero selects the default;
// anything else is bounded to [Min, Max] and snapped to the nearest step.
func (r Range) Clamp(value int) int {
	if value == 0 && r.Default != 0 {
		value = r.Default
	}
	if value <= r.Min {
		return r.Min
	}
	if value >= r.Max {
		return r.Max
	}
	snapped := r.Min + ((value-r.Min)+r.Step/2)/r.Step*r.Step
	if snapped > r.Max {
		return r.Max
	}
	return snapped
}

// Values enumerates the discrete options of the range.
func (r Range) Values() []int {
	var out []int
	for v := r.Min; v <= r.Max; v += r.Step {
		out = append(out, v)
	}
	return out
}
