package runner

import (
	"errors"
	"time"

	"github.com/gokatarajesh/brainwave/internal/quiz"
)

var (
	ErrInvalidOption      = errors.New("option index out of range")
	ErrAdvanceUnavailable = errors.New("advance requires an answer or an expired timer")
	ErrNotActive          = errors.New("runner is not active")
)

// Status of a runner.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusActive    Status = "active"
	StatusEmpty     Status = "empty"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Tick identifies one countdown step of one question. Ticks from a cancelled
// countdown carry an old Seq and are ignored.
type Tick struct {
	Question int
	Seq      uint64
}

// Outcome reports what a runner call did to the quiz.
type Outcome struct {
	Advanced  bool
	Completed bool
	Correct   int
	Total     int
}

// Options configures a Runner.
type Options struct {
	Scheduler Scheduler
	// OnTick receives countdown ticks from the scheduler goroutine. The owner is
	// expected to serialize them with its other calls and hand them back to Tick.
	// When nil, ticks are applied directly.
	OnTick func(Tick)
}

// Runner drives one quiz attempt over a fixed question list. It is not safe for
// concurrent use.
type Runner struct {
	questions []quiz.Question
	seconds   int
	scheduler Scheduler
	onTick    func(Tick)

	status    Status
	index     int
	remaining int
	selected  int
	answered  bool
	correct   bool
	score     int

	seq  uint64
	task Task
}

// New builds an idle runner. The question slice is copied.
func New(questions []quiz.Question, secondsPerQuestion int, opts Options) *Runner {
	r := &Runner{
		questions: append([]quiz.Question(nil), questions...),
		seconds:   secondsPerQuestion,
		scheduler: opts.Scheduler,
		onTick:    opts.OnTick,
		status:    StatusIdle,
		selected:  -1,
	}
	if r.scheduler == nil {
		r.scheduler = TickerScheduler{}
	}
	if r.onTick == nil {
		r.onTick = func(t Tick) { r.Tick(t) }
	}
	return r
}

// Start enters the first question. An empty list leaves the runner in StatusEmpty
// without a countdown.
func (r *Runner) Start() Outcome {
	if r.status != StatusIdle {
		return Outcome{}
	}
	if len(r.questions) == 0 {
		r.status = StatusEmpty
		return Outcome{}
	}
	r.status = StatusActive
	return r.enter(0)
}

// Tick applies one elapsed second and reports whether it changed anything.
// Stale ticks and ticks for answered questions are ignored.
func (r *Runner) Tick(t Tick) (Outcome, bool) {
	if r.status != StatusActive || t.Seq != r.seq || t.Question != r.index {
		return Outcome{}, false
	}
	if r.answered || r.remaining <= 0 {
		return Outcome{}, false
	}
	r.remaining--
	if r.remaining > 0 {
		return Outcome{}, true
	}
	r.stopTask()
	return r.enter(r.index + 1), true
}

// Select records the first answer for the current question. Later selections,
// and selections after the timer ran out, are ignored and reported as not accepted.
func (r *Runner) Select(option int) (bool, error) {
	if r.status != StatusActive {
		return false, ErrNotActive
	}
	q := r.questions[r.index]
	if option < 0 || option >= len(q.Options) {
		return false, ErrInvalidOption
	}
	if r.answered || r.remaining <= 0 {
		return false, nil
	}

	r.answered = true
	r.selected = option
	r.correct = option == q.CorrectIndex()
	if r.correct {
		r.score++
	}
	r.stopTask()
	return true, nil
}

// Advance moves past an answered or expired question, completing the quiz after the last one.
func (r *Runner) Advance() (Outcome, error) {
	if r.status != StatusActive {
		return Outcome{}, ErrNotActive
	}
	if !r.answered && r.remaining > 0 {
		return Outcome{}, ErrAdvanceUnavailable
	}
	r.stopTask()
	return r.enter(r.index + 1), nil
}

// Cancel stops the countdown for good. Safe to call in any status.
func (r *Runner) Cancel() {
	r.stopTask()
	if r.status == StatusActive || r.status == StatusIdle {
		r.status = StatusCancelled
	}
}

// Status returns the current runner status.
func (r *Runner) Status() Status {
	return r.status
}

// enter resets per-question state for index i. Questions with no time budget
// expire on entry and are skipped without a selection.
func (r *Runner) enter(i int) Outcome {
	for ; i < len(r.questions); i++ {
		r.index = i
		r.selected = -1
		r.answered = false
		r.correct = false
		if r.seconds > 0 {
			r.remaining = r.seconds
			r.startTask()
			return Outcome{Advanced: true}
		}
		r.remaining = 0
	}
	return r.complete()
}

func (r *Runner) complete() Outcome {
	r.stopTask()
	r.status = StatusCompleted
	r.index = len(r.questions) - 1
	return Outcome{Advanced: true, Completed: true, Correct: r.score, Total: len(r.questions)}
}

func (r *Runner) startTask() {
	r.seq++
	tick := Tick{Question: r.index, Seq: r.seq}
	sink := r.onTick
	r.task = r.scheduler.Every(time.Second, func() { sink(tick) })
}

func (r *Runner) stopTask() {
	if r.task != nil {
		r.task.Stop()
		r.task = nil
	}
	r.seq++
}
