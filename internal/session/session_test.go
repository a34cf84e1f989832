package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/brainwave/internal/question"
	"github.com/gokatarajesh/brainwave/internal/quiz"
	"github.com/gokatarajesh/brainwave/internal/runner"
	"github.com/gokatarajesh/brainwave/internal/scoring"
	"github.com/gokatarajesh/brainwave/internal/setup"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, result quiz.Result, summary scoring.Summary) error {
	args := m.Called(result, summary)
	return args.Error(0)
}

type prefetchLog struct {
	mu   sync.Mutex
	reqs []question.Request
}

func (p *prefetchLog) Request(req question.Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
	return true
}

func (p *prefetchLog) Requests() []question.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]question.Request(nil), p.reqs...)
}

func fiveQuestions() []quiz.Question {
	qs := make([]quiz.Question, 5)
	for i := range qs {
		qs[i] = quiz.Question{
			Prompt:        fmt.Sprintf("Q%d", i+1),
			Options:       []string{"w", "x", "y", "z"},
			CorrectOption: "x",
		}
	}
	return qs
}

func staticProvider(qs []quiz.Question, err error) question.Provider {
	return question.ProviderFunc(func(ctx context.Context, req question.Request) ([]quiz.Question, error) {
		return qs, err
	})
}

var scienceDraft = setup.Draft{Category: "Science", Level: 2, SecondsPerQuestion: 15, QuestionCount: 5}

func newTestSession(t *testing.T, provider question.Provider, extra func(*Options)) (*Session, *runner.ManualScheduler) {
	t.Helper()
	sched := runner.NewManualScheduler()
	opts := Options{
		Provider:  provider,
		Scheduler: sched,
		Logger:    zerolog.New(io.Discard),
	}
	if extra != nil {
		extra(&opts)
	}
	s := New(uuid.New(), opts)
	t.Cleanup(s.Close)
	return s, sched
}

func toSetup(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Dispatch(context.Background(), SubmitName{Name: "  Ada "}))
	require.Equal(t, StateSetup, s.Current().View.State())
}

func waitForView(t *testing.T, s *Session, match func(View) bool) View {
	t.Helper()
	require.Eventually(t, func() bool { return match(s.Current().View) }, time.Second, 2*time.Millisecond)
	return s.Current().View
}

func activeQuestion(v View) bool {
	rv, ok := v.(RunningView)
	return ok && rv.Phase == PhaseActive
}

func TestBlankNameIsNoOp(t *testing.T) {
	s, _ := newTestSession(t, staticProvider(nil, nil), nil)

	before := s.Current()
	require.NoError(t, s.Dispatch(context.Background(), SubmitName{Name: "   "}))
	after := s.Current()

	assert.Equal(t, StateOnboarding, after.View.State())
	assert.Equal(t, before.Seq, after.Seq)

	toSetup(t, s)
	assert.Equal(t, "Ada", s.Current().View.(SetupView).PlayerName)
}

func TestCustomTopicWithoutTextIsRejected(t *testing.T) {
	s, _ := newTestSession(t, staticProvider(fiveQuestions(), nil), nil)
	toSetup(t, s)

	err := s.Dispatch(context.Background(), StartQuiz{Draft: setup.Draft{Category: setup.CustomCategory}})
	require.ErrorIs(t, err, ErrActionUnavailable)
	var rej *setup.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "custom_topic", rej.Field)
	assert.Equal(t, StateSetup, s.Current().View.State())
}

func TestScenarioThreeOfFive(t *testing.T) {
	rec := &mockRecorder{}
	recorded := make(chan struct{}, 1)
	rec.On("Record", mock.MatchedBy(func(r quiz.Result) bool {
		return r.PlayerName == "Ada" && r.CorrectCount == 3 && r.TotalCount == 5
	}), mock.Anything).Return(nil).Run(func(mock.Arguments) { recorded <- struct{}{} }).Once()
	prefetch := &prefetchLog{}

	s, sched := newTestSession(t, staticProvider(fiveQuestions(), nil), func(o *Options) {
		o.Recorder = rec
		o.Prefetcher = prefetch
	})
	ctx := context.Background()
	toSetup(t, s)

	require.NoError(t, s.Dispatch(ctx, StartQuiz{Draft: scienceDraft}))
	v := waitForView(t, s, activeQuestion).(RunningView)
	assert.Equal(t, 15, v.Question.Remaining)
	assert.Equal(t, "Science", v.Config.Topic)

	// Q1 correct
	require.NoError(t, s.Dispatch(ctx, SelectAnswer{Index: 1}))
	require.NoError(t, s.Dispatch(ctx, NextQuestion{}))

	// Q2 runs out
	assert.ErrorIs(t, s.Dispatch(ctx, NextQuestion{}), ErrActionUnavailable)
	sched.Advance(15)
	v = s.Current().View.(RunningView)
	assert.Equal(t, 2, v.Question.Index)
	assert.Equal(t, 15, v.Question.Remaining)
	assert.Nil(t, v.Question.Selected)

	// Q3 wrong, Q4 and Q5 correct
	for _, pick := range []int{3, 1, 1} {
		require.NoError(t, s.Dispatch(ctx, SelectAnswer{Index: pick}))
		require.NoError(t, s.Dispatch(ctx, NextQuestion{}))
	}

	res, ok := s.Current().View.(ResultsView)
	require.True(t, ok)
	assert.Equal(t, 3, res.Result.CorrectCount)
	assert.Equal(t, 5, res.Result.TotalCount)
	assert.Equal(t, 60, res.Summary.Percentage)
	assert.Equal(t, scoring.GradeD, res.Summary.Grade)
	assert.True(t, res.Summary.Celebrate)
	assert.Equal(t, 0, sched.Active())

	select {
	case <-recorded:
	case <-time.After(time.Second):
		t.Fatal("result was not recorded")
	}
	rec.AssertExpectations(t)
	assert.Equal(t, []question.Request{{Topic: "Science", Level: 2, Count: 5}}, prefetch.Requests())
}

func TestProviderFailureReturnsToSetup(t *testing.T) {
	rec := &mockRecorder{}
	s, _ := newTestSession(t, staticProvider(nil, errors.New("dial tcp: connection refused")), func(o *Options) {
		o.Recorder = rec
	})
	toSetup(t, s)

	require.NoError(t, s.Dispatch(context.Background(), StartQuiz{Draft: scienceDraft}))
	v := waitForView(t, s, func(v View) bool { return v.State() == StateSetup }).(SetupView)

	assert.NotEmpty(t, v.Error)
	assert.Equal(t, "Ada", v.PlayerName)
	assert.Equal(t, scienceDraft, v.Defaults)
	rec.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestRestartDiscardsInFlightBatch(t *testing.T) {
	release := make(chan struct{})
	cancelled := make(chan struct{})
	provider := question.ProviderFunc(func(ctx context.Context, req question.Request) ([]quiz.Question, error) {
		select {
		case <-ctx.Done():
			close(cancelled)
		case <-release:
		}
		return fiveQuestions(), nil
	})
	s, _ := newTestSession(t, provider, nil)
	ctx := context.Background()
	toSetup(t, s)

	require.NoError(t, s.Dispatch(ctx, StartQuiz{Draft: scienceDraft}))
	assert.Equal(t, PhaseLoading, s.Current().View.(RunningView).Phase)
	assert.ErrorIs(t, s.Dispatch(ctx, SelectAnswer{Index: 0}), ErrActionUnavailable)

	require.NoError(t, s.Dispatch(ctx, Restart{}))
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight request was not cancelled")
	}

	seq := s.Current().Seq
	time.Sleep(10 * time.Millisecond)
	after := s.Current()
	assert.Equal(t, StateSetup, after.View.State())
	assert.Equal(t, seq, after.Seq, "stale batch must not produce an update")
	assert.Empty(t, after.View.(SetupView).Error)
}

func TestEmptyBatchNeedsManualRestart(t *testing.T) {
	s, sched := newTestSession(t, staticProvider([]quiz.Question{}, nil), nil)
	ctx := context.Background()
	toSetup(t, s)

	require.NoError(t, s.Dispatch(ctx, StartQuiz{Draft: scienceDraft}))
	waitForView(t, s, func(v View) bool {
		rv, ok := v.(RunningView)
		return ok && rv.Phase == PhaseEmpty
	})
	assert.Equal(t, 0, sched.Active())
	assert.ErrorIs(t, s.Dispatch(ctx, NextQuestion{}), ErrActionUnavailable)

	require.NoError(t, s.Dispatch(ctx, Restart{}))
	assert.Equal(t, scienceDraft, s.Current().View.(SetupView).Defaults)
}

func TestRestartFromResultsKeepsDraft(t *testing.T) {
	one := fiveQuestions()[:1]
	s, _ := newTestSession(t, staticProvider(one, nil), nil)
	ctx := context.Background()
	toSetup(t, s)

	assert.ErrorIs(t, s.Dispatch(ctx, Restart{}), ErrActionUnavailable)

	require.NoError(t, s.Dispatch(ctx, StartQuiz{Draft: scienceDraft}))
	waitForView(t, s, activeQuestion)
	require.NoError(t, s.Dispatch(ctx, SelectAnswer{Index: 0}))
	require.NoError(t, s.Dispatch(ctx, NextQuestion{}))

	res := s.Current().View.(ResultsView)
	assert.Equal(t, 1, res.Result.TotalCount)
	assert.Equal(t, scoring.GradeF, res.Summary.Grade)

	require.NoError(t, s.Dispatch(ctx, Restart{}))
	v := s.Current().View.(SetupView)
	assert.Equal(t, scienceDraft, v.Defaults)
	assert.Equal(t, "Ada", v.PlayerName)
}

func TestActionsOutsideTheirState(t *testing.T) {
	s, _ := newTestSession(t, staticProvider(fiveQuestions(), nil), nil)
	ctx := context.Background()

	assert.ErrorIs(t, s.Dispatch(ctx, StartQuiz{Draft: scienceDraft}), ErrActionUnavailable)
	assert.ErrorIs(t, s.Dispatch(ctx, SelectAnswer{Index: 0}), ErrActionUnavailable)
	assert.ErrorIs(t, s.Dispatch(ctx, NextQuestion{}), ErrActionUnavailable)
	assert.ErrorIs(t, s.Dispatch(ctx, Restart{}), ErrActionUnavailable)

	toSetup(t, s)
	assert.ErrorIs(t, s.Dispatch(ctx, SubmitName{Name: "Bob"}), ErrActionUnavailable)
}

func TestInvalidOptionIsReported(t *testing.T) {
	s, _ := newTestSession(t, staticProvider(fiveQuestions(), nil), nil)
	ctx := context.Background()
	toSetup(t, s)
	require.NoError(t, s.Dispatch(ctx, StartQuiz{Draft: scienceDraft}))
	waitForView(t, s, activeQuestion)

	assert.ErrorIs(t, s.Dispatch(ctx, SelectAnswer{Index: 7}), runner.ErrInvalidOption)
}

func TestNonPositiveDurationCompletesImmediately(t *testing.T) {
	s, sched := newTestSession(t, staticProvider(fiveQuestions(), nil), func(o *Options) {
		o.Validator = setup.NewValidator(setup.Catalog{
			Categories:   []string{"Science"},
			DefaultLevel: 1,
			Seconds:      setup.Range{Min: 0, Max: 0, Step: 1},
			Questions:    setup.Range{Min: 5, Max: 5, Step: 5},
		})
	})
	toSetup(t, s)

	require.NoError(t, s.Dispatch(context.Background(), StartQuiz{Draft: scienceDraft}))
	v := waitForView(t, s, func(v View) bool { return v.State() == StateResults }).(ResultsView)
	assert.Equal(t, 0, v.Result.CorrectCount)
	assert.Equal(t, 5, v.Result.TotalCount)
	assert.Equal(t, 0, sched.Active())
}

func TestListenerSeesOrderedUpdates(t *testing.T) {
	s, _ := newTestSession(t, staticProvider(fiveQuestions(), nil), nil)

	var mu sync.Mutex
	var seqs []uint64
	var states []State
	s.Listen(func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		seqs = append(seqs, u.Seq)
		states = append(states, u.View.State())
	})

	toSetup(t, s)
	require.NoError(t, s.Dispatch(context.Background(), StartQuiz{Draft: scienceDraft}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seqs) == 3
	}, time.Second, 2*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
	assert.Equal(t, []State{StateSetup, StateRunning, StateRunning}, states)
}

func TestClosedSessionRejectsActions(t *testing.T) {
	s, _ := newTestSession(t, staticProvider(nil, nil), nil)
	s.Close()
	assert.ErrorIs(t, s.Dispatch(context.Background(), SubmitName{Name: "Ada"}), ErrSessionClosed)
}
