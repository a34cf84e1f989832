package session

import (
	"errors"

	"github.com/gokatarajesh/brainwave/internal/quiz"
	"github.com/gokatarajesh/brainwave/internal/runner"
	"github.com/gokatarajesh/brainwave/internal/scoring"
	"github.com/gokatarajesh/brainwave/internal/setup"
)

var (
	// ErrActionUnavailable is returned for actions the current state does not offer.
	ErrActionUnavailable = errors.New("action unavailable in current state")
	ErrSessionClosed     = errors.New("session closed")
	ErrSessionNotFound   = errors.New("session not found")
)

// State names the four screens of a session.
type State string

const (
	StateOnboarding State = "onboarding"
	StateSetup      State = "setup"
	StateRunning    State = "running"
	StateResults    State = "results"
)

// Phase of the running state.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseActive  Phase = "active"
	PhaseEmpty   Phase = "empty"
)

// View is the render model for exactly one state.
type View interface {
	State() State
}

type OnboardingView struct{}

type SetupView struct {
	PlayerName string      `json:"player_name"`
	Defaults   setup.Draft `json:"defaults"`
	Error      string      `json:"error,omitempty"`
}

type RunningView struct {
	PlayerName string           `json:"player_name"`
	Config     quiz.Config      `json:"config"`
	Phase      Phase            `json:"phase"`
	Question   *runner.Snapshot `json:"question,omitempty"`
}

type ResultsView struct {
	Result  quiz.Result     `json:"result"`
	Summary scoring.Summary `json:"summary"`
}

func (OnboardingView) State() State { return StateOnboarding }
func (SetupView) State() State      { return StateSetup }
func (RunningView) State() State    { return StateRunning }
func (ResultsView) State() State    { return StateResults }

// Update is published after every applied change. Seq increases per session,
// so listeners can drop updates that arrive out of order.
type Update struct {
	Seq  uint64
	View View
}

// Action is a player input accepted by Dispatch.
type Action interface {
	action()
}

type SubmitName struct{ Name string }
type StartQuiz struct{ Draft setup.Draft }
type SelectAnswer struct{ Index int }
type NextQuestion struct{}
type Restart struct{}

func (SubmitName) action()   {}
func (StartQuiz) action()    {}
func (SelectAnswer) action() {}
func (NextQuestion) action() {}
func (Restart) action()      {}

// internal events share the reducer with player actions.
type questionsLoaded struct {
	seq       uint64
	questions []quiz.Question
	err       error
}

type timerTicked struct {
	tick runner.Tick
}
