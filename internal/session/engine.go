// Package session implements the typing session engine: word progression,
// character-level correctness, timing and derived metrics.
//
// The engine is not safe for concurrent use. Callers serialize Configure, Start,
// SubmitInput, Tick, End and Reset, typically from a single UI event loop.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/keymaster/internal/generator"
	"github.com/verte-zerg/keymaster/internal/model"
	"github.com/verte-zerg/keymaster/internal/stats"
	"github.com/verte-zerg/keymaster/internal/wordlist"
)

// Engine is a single typing session state machine.
type Engine struct {
	lists wordlist.Lists
	gen   *generator.Generator
	now   func() time.Time
	log   zerolog.Logger

	difficulty model.Difficulty
	mode       model.Mode
	timeLimit  int
	words      []string

	state       model.State
	id          string
	startTime   time.Time
	currentWord string
	userInput   string
	tags        []model.Tag

	correctChars   int
	totalChars     int
	completedWords int

	elapsed   time.Duration
	remaining int
	wpm       int
	accuracy  int
	timeline  []model.Sample
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now as the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithGenerator sets the word picker, e.g. a seeded one.
func WithGenerator(gen *generator.Generator) Option {
	return func(e *Engine) { e.gen = gen }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New returns an idle engine configured for medium difficulty, timed mode and a
// 60 second limit.
func New(lists wordlist.Lists, opts ...Option) *Engine {
	e := &Engine{
		lists:      lists,
		gen:        generator.New(),
		now:        time.Now,
		log:        zerolog.Nop(),
		difficulty: model.DifficultyMedium,
		mode:       model.ModeTimed,
		timeLimit:  model.DefaultTimeLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.words = lists.Words(e.difficulty)
	e.Reset()
	return e
}

// Configure selects difficulty, mode and time limit. It is only accepted while idle.
// In freestyle mode a zero time limit keeps the current one.
func (e *Engine) Configure(difficulty model.Difficulty, mode model.Mode, timeLimitSeconds int) error {
	if e.state != model.StateIdle {
		return fmt.Errorf("%w: cannot configure while %s", ErrInvalidConfiguration, e.state)
	}
	if !difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfiguration, difficulty)
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfiguration, mode)
	}
	if mode == model.ModeFreestyle && timeLimitSeconds == 0 {
		timeLimitSeconds = e.timeLimit
	}
	if timeLimitSeconds < model.MinTimeLimit || timeLimitSeconds > model.MaxTimeLimit {
		return fmt.Errorf("%w: time limit %ds outside [%d, %d]",
			ErrInvalidConfiguration, timeLimitSeconds, model.MinTimeLimit, model.MaxTimeLimit)
	}
	words := e.lists.Words(difficulty)
	if len(words) == 0 {
		return fmt.Errorf("%w: no words for difficulty %s", ErrInvalidConfiguration, difficulty)
	}

	e.difficulty = difficulty
	e.mode = mode
	e.timeLimit = timeLimitSeconds
	e.words = words
	e.remaining = timeLimitSeconds
	return nil
}

// Start begins a session from idle: counters are zeroed, the clock starts and the
// first word is drawn.
func (e *Engine) Start() error {
	if e.state != model.StateIdle {
		return fmt.Errorf("%w: start while %s", ErrInvalidOperation, e.state)
	}
	if len(e.words) == 0 {
		return fmt.Errorf("%w: no words for difficulty %s", ErrInvalidConfiguration, e.difficulty)
	}
	e.clearCounters()
	e.state = model.StateRunning
	e.id = uuid.NewString()
	e.startTime = e.now()
	e.nextWord()
	e.log.Debug().
		Str("session", e.id).
		Str("difficulty", string(e.difficulty)).
		Str("mode", string(e.mode)).
		Int("time_limit", e.timeLimit).
		Msg("session started")
	return nil
}

// SubmitInput replaces the typed text for the current word and re-scores it from the
// first rune. Every compared position counts toward the total again, so editing a
// word re-counts its prefix. An exact match completes the word.
func (e *Engine) SubmitInput(text string) error {
	if e.state != model.StateRunning {
		return fmt.Errorf("%w: submit while %s", ErrInvalidOperation, e.state)
	}
	e.userInput = text

	target := []rune(e.currentWord)
	typed := []rune(text)
	n := min(len(typed), len(target))
	tags := make([]model.Tag, len(target))
	for i := range target {
		switch {
		case i >= n:
			tags[i] = model.TagPending
		case typed[i] == target[i]:
			tags[i] = model.TagMatch
			e.correctChars++
			e.totalChars++
		default:
			tags[i] = model.TagMismatch
			e.totalChars++
		}
	}
	e.tags = tags

	elapsed := e.sinceStart(e.now())
	e.updateMetrics(elapsed)

	if text == e.currentWord {
		e.completedWords++
		e.timeline = append(e.timeline, model.Sample{Elapsed: elapsed, WPM: e.wpm})
		e.log.Debug().
			Str("session", e.id).
			Str("word", e.currentWord).
			Int("completed", e.completedWords).
			Msg("word completed")
		e.nextWord()
	}
	return nil
}

// Tick advances the countdown of a timed session to now. The session ends once the
// remaining time reaches zero.
func (e *Engine) Tick(now time.Time) error {
	if e.state != model.StateRunning {
		return fmt.Errorf("%w: tick while %s", ErrInvalidOperation, e.state)
	}
	if e.mode != model.ModeTimed {
		return fmt.Errorf("%w: tick in %s mode", ErrInvalidOperation, e.mode)
	}
	e.updateMetrics(e.sinceStart(now))
	e.updateRemaining()
	if e.remaining == 0 {
		e.finish("time limit reached")
	}
	return nil
}

// End stops a running session regardless of the timer. It is a no-op otherwise.
func (e *Engine) End() error {
	if e.state != model.StateRunning {
		return nil
	}
	e.updateMetrics(e.sinceStart(e.now()))
	if e.mode == model.ModeTimed {
		e.updateRemaining()
	}
	e.finish("ended by caller")
	return nil
}

// Reset returns to idle from any state. The configuration is kept.
func (e *Engine) Reset() {
	if e.state == model.StateRunning {
		e.log.Debug().Str("session", e.id).Msg("session aborted")
	}
	e.clearCounters()
	e.state = model.StateIdle
	e.id = ""
	e.startTime = time.Time{}
}

// Snapshot returns the current state. It does not modify the engine.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		State:            e.state,
		SessionID:        e.id,
		Difficulty:       e.difficulty,
		Mode:             e.mode,
		TimeLimitSeconds: e.timeLimit,
		CurrentWord:      e.currentWord,
		UserInput:        e.userInput,
		Tags:             append([]model.Tag(nil), e.tags...),
		WPM:              e.wpm,
		AccuracyPercent:  e.accuracy,
		CompletedWords:   e.completedWords,
		CorrectChars:     e.correctChars,
		TotalChars:       e.totalChars,
		Elapsed:          e.elapsed,
		Timeline:         append([]model.Sample(nil), e.timeline...),
	}
	if e.mode == model.ModeTimed {
		remaining := e.remaining
		s.RemainingSeconds = &remaining
	}
	return s
}

func (e *Engine) clearCounters() {
	e.currentWord = ""
	e.userInput = ""
	e.tags = nil
	e.correctChars = 0
	e.totalChars = 0
	e.completedWords = 0
	e.elapsed = 0
	e.remaining = e.timeLimit
	e.wpm = 0
	e.accuracy = 0
	e.timeline = nil
}

func (e *Engine) nextWord() {
	e.currentWord = e.gen.Pick(e.words)
	e.userInput = ""
	e.tags = make([]model.Tag, len([]rune(e.currentWord)))
	for i := range e.tags {
		e.tags[i] = model.TagPending
	}
}

func (e *Engine) sinceStart(now time.Time) time.Duration {
	return max(0, now.Sub(e.startTime))
}

func (e *Engine) updateMetrics(elapsed time.Duration) {
	e.elapsed = elapsed
	e.wpm = stats.WPM(e.correctChars, elapsed)
	e.accuracy = stats.Accuracy(e.correctChars, e.totalChars)
}

// updateRemaining derives the countdown from the elapsed time in whole seconds.
func (e *Engine) updateRemaining() {
	e.remaining = max(0, e.timeLimit-int(e.elapsed/time.Second))
}

func (e *Engine) finish(reason string) {
	e.state = model.StateEnded
	e.log.Debug().
		Str("session", e.id).
		Str("reason", reason).
		Int("wpm", e.wpm).
		Int("accuracy", e.accuracy).
		Int("words", e.completedWords).
		Msg("session ended")
}
