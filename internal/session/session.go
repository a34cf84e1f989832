package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/brainwave/internal/metrics"
	"github.com/gokatarajesh/brainwave/internal/question"
	"github.com/gokatarajesh/brainwave/internal/quiz"
	"github.com/gokatarajesh/brainwave/internal/runner"
	"github.com/gokatarajesh/brainwave/internal/scoring"
	"github.com/gokatarajesh/brainwave/internal/setup"
)

const defaultGenerationTimeout = 30 * time.Second

// Recorder stores finished quizzes.
type Recorder interface {
	Record(ctx context.Context, result quiz.Result, summary scoring.Summary) error
}

// Prefetcher warms the question cache for a request.
type Prefetcher interface {
	Request(req question.Request) bool
}

// Options holds a session's collaborators. Provider and Validator are required.
type Options struct {
	Provider          question.Provider
	Validator         *setup.Validator
	Scorer            *scoring.Engine
	Scheduler         runner.Scheduler
	Recorder          Recorder
	Prefetcher        Prefetcher
	GenerationTimeout time.Duration
	RecordTimeout     time.Duration
	Logger            zerolog.Logger
	Now               func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Scorer == nil {
		o.Scorer = scoring.NewEngine(scoring.DefaultScoringConfig())
	}
	if o.Validator == nil {
		o.Validator = setup.NewValidator(setup.DefaultCatalog())
	}
	if o.Scheduler == nil {
		o.Scheduler = runner.TickerScheduler{}
	}
	if o.GenerationTimeout <= 0 {
		o.GenerationTimeout = defaultGenerationTimeout
	}
	if o.RecordTimeout <= 0 {
		o.RecordTimeout = 5 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Session is one player's quiz flow: Onboarding -> Setup -> Running -> Results.
// Player actions, timer ticks and provider completions are all applied under
// one mutex through apply.
type Session struct {
	id     uuid.UUID
	opts   Options
	logger zerolog.Logger

	mu         sync.Mutex
	state      State
	playerName string
	draft      setup.Draft
	config     quiz.Config
	setupErr   string
	phase      Phase
	runner     *runner.Runner
	result     quiz.Result
	summary    scoring.Summary

	loadSeq    uint64
	cancelLoad context.CancelFunc

	seq        uint64
	listener   func(Update)
	lastActive time.Time
	closed     bool
}

// New creates a session in the onboarding state.
func New(id uuid.UUID, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		id:         id,
		opts:       opts,
		logger:     opts.Logger.With().Str("component", "session").Str("session_id", id.String()).Logger(),
		state:      StateOnboarding,
		lastActive: opts.Now(),
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// Listen sets the function that receives updates; nil detaches. Updates are
// delivered outside the session lock.
func (s *Session) Listen(fn func(Update)) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

// Current returns the latest update without changing anything.
func (s *Session) Current() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Update{Seq: s.seq, View: s.viewLocked()}
}

// LastActive reports when the player last dispatched an action.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Dispatch applies a player action. Blank names are silently ignored; actions
// the current state does not offer return ErrActionUnavailable.
func (s *Session) Dispatch(ctx context.Context, a Action) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.lastActive = s.opts.Now()
	changed, err := s.apply(ctx, a)
	s.publishLocked(changed)
	return err
}

// Close cancels pending work. Further actions return ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopLoadLocked()
	if s.runner != nil {
		s.runner.Cancel()
	}
	s.listener = nil
}

// deliver routes internal events through the same reducer as player actions.
func (s *Session) deliver(ev any) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	changed, err := s.apply(context.Background(), ev)
	if err != nil {
		s.logger.Warn().Err(err).Msg("internal event rejected")
	}
	s.publishLocked(changed)
}

// publishLocked releases the lock and notifies the listener when something changed.
func (s *Session) publishLocked(changed bool) {
	if !changed {
		s.mu.Unlock()
		return
	}
	s.seq++
	update := Update{Seq: s.seq, View: s.viewLocked()}
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(update)
	}
}

// apply is the single reducer. It reports whether the view changed.
func (s *Session) apply(ctx context.Context, ev any) (bool, error) {
	switch ev := ev.(type) {
	case SubmitName:
		return s.submitName(ev)
	case StartQuiz:
		return s.startQuiz(ctx, ev)
	case SelectAnswer:
		return s.selectAnswer(ev)
	case NextQuestion:
		return s.nextQuestion()
	case Restart:
		return s.restart()
	case questionsLoaded:
		return s.questionsLoaded(ev), nil
	case timerTicked:
		return s.timerTicked(ev), nil
	default:
		return false, fmt.Errorf("unknown event %T", ev)
	}
}

func (s *Session) submitName(a SubmitName) (bool, error) {
	if s.state != StateOnboarding {
		return false, ErrActionUnavailable
	}
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return false, nil
	}
	s.playerName = name
	s.state = StateSetup
	return true, nil
}

func (s *Session) startQuiz(ctx context.Context, a StartQuiz) (bool, error) {
	if s.state != StateSetup {
		return false, ErrActionUnavailable
	}
	cfg, err := s.opts.Validator.Validate(a.Draft)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrActionUnavailable, err)
	}

	s.draft = a.Draft
	s.config = cfg
	s.setupErr = ""
	s.state = StateRunning
	s.phase = PhaseLoading

	s.stopLoadLocked()
	s.loadSeq++
	seq := s.loadSeq
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.GenerationTimeout)
	s.cancelLoad = cancel
	req := question.RequestFor(cfg)

	go func() {
		defer cancel()
		questions, err := s.opts.Provider.Generate(loadCtx, req)
		s.deliver(questionsLoaded{seq: seq, questions: questions, err: err})
	}()

	s.logger.Info().Str("topic", cfg.Topic).Int("level", cfg.Level).Int("count", cfg.QuestionCount).Msg("quiz requested")
	return true, nil
}

func (s *Session) questionsLoaded(ev questionsLoaded) bool {
	if s.state != StateRunning || s.phase != PhaseLoading || ev.seq != s.loadSeq {
		s.logger.Debug().Uint64("seq", ev.seq).Msg("discarding stale question batch")
		return false
	}
	s.cancelLoad = nil

	if ev.err != nil {
		genErr := quiz.AsGenerationError(ev.err)
		s.logger.Warn().Err(ev.err).Str("kind", string(genErr.Kind)).Msg("question generation failed")
		s.state = StateSetup
		s.setupErr = genErr.Message
		return true
	}

	s.runner = runner.New(ev.questions, s.config.SecondsPerQuestion, runner.Options{
		Scheduler: s.opts.Scheduler,
		OnTick:    func(t runner.Tick) { s.deliver(timerTicked{tick: t}) },
	})
	out := s.runner.Start()
	if s.runner.Status() == runner.StatusEmpty {
		s.phase = PhaseEmpty
		return true
	}
	s.phase = PhaseActive
	s.handleOutcome(out)
	return true
}

func (s *Session) timerTicked(ev timerTicked) bool {
	if s.state != StateRunning || s.phase != PhaseActive || s.runner == nil {
		return false
	}
	out, applied := s.runner.Tick(ev.tick)
	if !applied {
		return false
	}
	s.handleOutcome(out)
	return true
}

func (s *Session) selectAnswer(a SelectAnswer) (bool, error) {
	if s.state != StateRunning || s.phase != PhaseActive {
		return false, ErrActionUnavailable
	}
	accepted, err := s.runner.Select(a.Index)
	if err != nil {
		return false, err
	}
	return accepted, nil
}

func (s *Session) nextQuestion() (bool, error) {
	if s.state != StateRunning || s.phase != PhaseActive {
		return false, ErrActionUnavailable
	}
	out, err := s.runner.Advance()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrActionUnavailable, err)
	}
	s.handleOutcome(out)
	return true, nil
}

func (s *Session) restart() (bool, error) {
	if s.state != StateResults && s.state != StateRunning {
		return false, ErrActionUnavailable
	}
	s.stopLoadLocked()
	if s.runner != nil {
		s.runner.Cancel()
		s.runner = nil
	}
	s.result = quiz.Result{}
	s.summary = scoring.Summary{}
	s.setupErr = ""
	s.state = StateSetup
	return true, nil
}

func (s *Session) handleOutcome(out runner.Outcome) {
	if !out.Completed {
		return
	}
	s.runner = nil

	summary, err := s.opts.Scorer.Summarize(out.Correct, out.Total)
	if err != nil {
		s.logger.Error().Err(err).Int("correct", out.Correct).Int("total", out.Total).Msg("cannot score quiz")
		s.state = StateSetup
		s.setupErr = quiz.NewGenerationError(quiz.FailureEmpty, err).Message
		return
	}

	s.result = quiz.Result{
		PlayerName:   s.playerName,
		Topic:        s.config.Topic,
		Level:        s.config.Level,
		CorrectCount: out.Correct,
		TotalCount:   out.Total,
	}
	s.summary = summary
	s.state = StateResults
	metrics.QuizCompleted(summary.Grade)
	s.logger.Info().Int("correct", out.Correct).Int("total", out.Total).Str("grade", summary.Grade).Msg("quiz completed")

	s.afterCompletion(s.result, summary, question.RequestFor(s.config))
}

func (s *Session) afterCompletion(result quiz.Result, summary scoring.Summary, next question.Request) {
	if s.opts.Recorder != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.opts.RecordTimeout)
			defer cancel()
			if err := s.opts.Recorder.Record(ctx, result, summary); err != nil {
				s.logger.Warn().Err(err).Msg("failed to record result")
			}
		}()
	}
	if s.opts.Prefetcher != nil {
		s.opts.Prefetcher.Request(next)
	}
}

func (s *Session) stopLoadLocked() {
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
	s.loadSeq++
}

func (s *Session) viewLocked() View {
	switch s.state {
	case StateSetup:
		return SetupView{PlayerName: s.playerName, Defaults: s.draft, Error: s.setupErr}
	case StateRunning:
		v := RunningView{PlayerName: s.playerName, Config: s.config, Phase: s.phase}
		if s.phase == PhaseActive && s.runner != nil {
			snap := s.runner.Snapshot()
			v.Question = &snap
		}
		return v
	case StateResults:
		return ResultsView{Result: s.result, Summary: s.summary}
	default:
		return OnboardingView{}
	}
}
