package session

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/keymaster/internal/generator"
	"github.com/verte-zerg/keymaster/internal/model"
	"github.com/verte-zerg/keymaster/internal/wordlist"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T, lists wordlist.Lists) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	e := New(lists, WithClock(clock.Now), WithGenerator(generator.NewSeeded(1)))
	return e, clock
}

func singleWordLists(word string) wordlist.Lists {
	return wordlist.Lists{
		model.DifficultyEasy:   {word},
		model.DifficultyMedium: {word},
		model.DifficultyHard:   {word},
	}
}

func mustStart(t *testing.T, e *Engine, d model.Difficulty, mode model.Mode, limit int) {
	t.Helper()
	if err := e.Configure(d, mode, limit); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func mustSubmit(t *testing.T, e *Engine, text string) Snapshot {
	t.Helper()
	if err := e.SubmitInput(text); err != nil {
		t.Fatalf("submit %q: %v", text, err)
	}
	return e.Snapshot()
}

func TestNewEngineIsIdle(t *testing.T) {
	e, _ := newTestEngine(t, singleWordLists("cat"))
	s := e.Snapshot()
	if s.State != model.StateIdle {
		t.Fatalf("expected idle, got %s", s.State)
	}
	if s.Difficulty != model.DifficultyMedium || s.Mode != model.ModeTimed || s.TimeLimitSeconds != 60 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if s.RemainingSeconds == nil || *s.RemainingSeconds != 60 {
		t.Fatalf("expected 60s remaining while idle, got %v", s.RemainingSeconds)
	}
	if s.CurrentWord != "" || s.SessionID != "" {
		t.Fatalf("idle session must not have a word or id: %+v", s)
	}
}

func TestStartPicksWordAndResetsCounters(t *testing.T) {
	e, _ := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeTimed, 60)
	s := e.Snapshot()
	if s.State != model.StateRunning {
		t.Fatalf("expected running, got %s", s.State)
	}
	if s.CurrentWord != "cat" {
		t.Fatalf("expected cat, got %q", s.CurrentWord)
	}
	if s.SessionID == "" {
		t.Fatalf("expected a session id")
	}
	want := []model.Tag{model.TagPending, model.TagPending, model.TagPending}
	if !reflect.DeepEqual(s.Tags, want) {
		t.Fatalf("expected all-pending tags, got %v", s.Tags)
	}
	if s.CorrectChars != 0 || s.TotalChars != 0 || s.CompletedWords != 0 {
		t.Fatalf("expected zero counters: %+v", s)
	}
}

func TestStartRequiresIdle(t *testing.T) {
	e, _ := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeFreestyle, 0)
	if err := e.Start(); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
	if err := e.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := e.Start(); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation after end, got %v", err)
	}
}

func TestOperationsRequireRunning(t *testing.T) {
	e, clock := newTestEngine(t, singleWordLists("cat"))
	if err := e.SubmitInput("c"); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation for submit while idle, got %v", err)
	}
	if err := e.Tick(clock.Now()); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation for tick while idle, got %v", err)
	}
	if err := e.End(); err != nil {
		t.Fatalf("end while idle should be a no-op, got %v", err)
	}
	if s := e.Snapshot(); s.State != model.StateIdle || s.TotalChars != 0 {
		t.Fatalf("refused calls must not change state: %+v", s)
	}
}

func TestConfigureWhileRunningIsRejected(t *testing.T) {
	e, _ := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeTimed, 60)
	err := e.Configure(model.DifficultyHard, model.ModeFreestyle, 120)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	s := e.Snapshot()
	if s.Difficulty != model.DifficultyEasy || s.Mode != model.ModeTimed || s.TimeLimitSeconds != 60 {
		t.Fatalf("configuration changed by rejected call: %+v", s)
	}
}

func TestConfigureValidation(t *testing.T) {
	cases := []struct {
		name  string
		d     model.Difficulty
		mode  model.Mode
		limit int
		ok    bool
	}{
		{"timed lower bound", model.DifficultyEasy, model.ModeTimed, 30, true},
		{"timed upper bound", model.DifficultyHard, model.ModeTimed, 300, true},
		{"timed too short", model.DifficultyEasy, model.ModeTimed, 29, false},
		{"timed too long", model.DifficultyEasy, model.ModeTimed, 301, false},
		{"freestyle keeps limit", model.DifficultyMedium, model.ModeFreestyle, 0, true},
		{"freestyle bad limit", model.DifficultyMedium, model.ModeFreestyle, 10, false},
		{"unknown difficulty", model.Difficulty("extreme"), model.ModeTimed, 60, false},
		{"unknown mode", model.DifficultyEasy, model.Mode("relay"), 60, false},
	}
	for _, tc := range cases {
		e, _ := newTestEngine(t, singleWordLists("cat"))
		err := e.Configure(tc.d, tc.mode, tc.limit)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("%s: expected ErrInvalidConfiguration, got %v", tc.name, err)
		}
	}
}

func TestConfigureRejectsEmptyList(t *testing.T) {
	e, _ := newTestEngine(t, wordlist.Lists{model.DifficultyEasy: {"cat"}})
	if err := e.Configure(model.DifficultyHard, model.ModeTimed, 60); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if err := e.Start(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected start to fail with empty default list, got %v", err)
	}
}

func TestSubmitInputReplayAccounting(t *testing.T) {
	e, clock := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeTimed, 60)
	clock.Advance(time.Second)

	s := mustSubmit(t, e, "c")
	if s.CorrectChars != 1 || s.TotalChars != 1 || s.AccuracyPercent != 100 {
		t.Fatalf("after c: %+v", s)
	}
	if s.UserInput != "c" {
		t.Fatalf("expected input c, got %q", s.UserInput)
	}

	// The whole prefix is compared again.
	s = mustSubmit(t, e, "ca")
	if s.CorrectChars != 3 || s.TotalChars != 3 {
		t.Fatalf("after ca: correct=%d total=%d", s.CorrectChars, s.TotalChars)
	}

	s = mustSubmit(t, e, "cat")
	if s.CompletedWords != 1 {
		t.Fatalf("expected 1 completed word, got %d", s.CompletedWords)
	}
	if s.UserInput != "" {
		t.Fatalf("expected input cleared, got %q", s.UserInput)
	}
	if s.CurrentWord != "cat" {
		t.Fatalf("expected next word from list, got %q", s.CurrentWord)
	}
	if s.CorrectChars != 6 || s.TotalChars != 6 {
		t.Fatalf("after cat: correct=%d total=%d", s.CorrectChars, s.TotalChars)
	}
	if len(s.Timeline) != 1 {
		t.Fatalf("expected one timeline sample, got %d", len(s.Timeline))
	}
}

func TestSubmitInputTags(t *testing.T) {
	e, _ := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeFreestyle, 0)

	s := mustSubmit(t, e, "cx")
	want := []model.Tag{model.TagMatch, model.TagMismatch, model.TagPending}
	if !reflect.DeepEqual(s.Tags, want) {
		t.Fatalf("expected %v, got %v", want, s.Tags)
	}
	if s.CorrectChars != 1 || s.TotalChars != 2 || s.AccuracyPercent != 50 {
		t.Fatalf("unexpected counters: %+v", s)
	}

	// Extra runes past the word are not compared.
	s = mustSubmit(t, e, "cats")
	want = []model.Tag{model.TagMatch, model.TagMatch, model.TagMatch}
	if !reflect.DeepEqual(s.Tags, want) {
		t.Fatalf("expected %v, got %v", want, s.Tags)
	}
	if s.TotalChars != 5 || s.CompletedWords != 0 {
		t.Fatalf("unexpected counters: %+v", s)
	}

	s = mustSubmit(t, e, "")
	if s.TotalChars != 5 {
		t.Fatalf("empty input must not compare anything: %+v", s)
	}
}

func TestSubmitInputComparesRunes(t *testing.T) {
	e, _ := newTestEngine(t, singleWordLists("café"))
	mustStart(t, e, model.DifficultyEasy, model.ModeFreestyle, 0)
	s := mustSubmit(t, e, "cafe")
	want := []model.Tag{model.TagMatch, model.TagMatch, model.TagMatch, model.TagMismatch}
	if !reflect.DeepEqual(s.Tags, want) {
		t.Fatalf("expected %v, got %v", want, s.Tags)
	}
	s = mustSubmit(t, e, "café")
	if s.CompletedWords != 1 {
		t.Fatalf("expected completion, got %+v", s)
	}
}

func TestCorrectNeverExceedsTotal(t *testing.T) {
	e, clock := newTestEngine(t, wordlist.Lists{
		model.DifficultyMedium: {"keyboard", "typing", "speed"},
	})
	mustStart(t, e, model.DifficultyMedium, model.ModeTimed, 60)
	inputs := []string{"k", "ke", "kx", "key", "keyb", "x", "", "typing", "speed", "spe", "sped", "keyboard"}
	for i := 0; i < 50; i++ {
		clock.Advance(100 * time.Millisecond)
		s := mustSubmit(t, e, inputs[i%len(inputs)])
		if s.CorrectChars > s.TotalChars {
			t.Fatalf("correct %d exceeds total %d", s.CorrectChars, s.TotalChars)
		}
		if s.WPM < 0 || s.AccuracyPercent < 0 || s.AccuracyPercent > 100 {
			t.Fatalf("metrics out of range: %+v", s)
		}
		if s.CurrentWord == "" {
			t.Fatalf("running session must have a word")
		}
	}
}

func TestCompletionDrawsFromSameList(t *testing.T) {
	hard := []string{"algorithm", "quasar", "paradigm"}
	e, _ := newTestEngine(t, wordlist.Lists{
		model.DifficultyEasy: {"cat"},
		model.DifficultyHard: hard,
	})
	mustStart(t, e, model.DifficultyHard, model.ModeFreestyle, 0)
	for i := 0; i < 20; i++ {
		before := e.Snapshot()
		s := mustSubmit(t, e, before.CurrentWord)
		if s.CompletedWords != before.CompletedWords+1 {
			t.Fatalf("expected completed words to grow by one")
		}
		found := false
		for _, w := range hard {
			if w == s.CurrentWord {
				found = true
			}
		}
		if !found {
			t.Fatalf("word %q not from hard list", s.CurrentWord)
		}
	}
}

func TestTickCountdown(t *testing.T) {
	e, clock := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeTimed, 30)

	clock.Advance(10 * time.Second)
	if err := e.Tick(clock.Now()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	s := e.Snapshot()
	if *s.RemainingSeconds != 20 || s.State != model.StateRunning {
		t.Fatalf("after 10s: remaining=%d state=%s", *s.RemainingSeconds, s.State)
	}

	clock.Advance(19*time.Second + 900*time.Millisecond)
	if err := e.Tick(clock.Now()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	s = e.Snapshot()
	if *s.RemainingSeconds != 1 || s.State != model.StateRunning {
		t.Fatalf("before limit: remaining=%d state=%s", *s.RemainingSeconds, s.State)
	}

	clock.Advance(100 * time.Millisecond)
	if err := e.Tick(clock.Now()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	s = e.Snapshot()
	if *s.RemainingSeconds != 0 || s.State != model.StateEnded {
		t.Fatalf("at limit: remaining=%d state=%s", *s.RemainingSeconds, s.State)
	}

	if err := e.Tick(clock.Now().Add(time.Second)); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected tick after end to be refused, got %v", err)
	}
}

func TestTickNeverGoesNegative(t *testing.T) {
	e, clock := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeTimed, 30)
	clock.Advance(45 * time.Second)
	if err := e.Tick(clock.Now()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	s := e.Snapshot()
	if *s.RemainingSeconds != 0 {
		t.Fatalf("expected 0 remaining, got %d", *s.RemainingSeconds)
	}
	if s.State != model.StateEnded {
		t.Fatalf("expected ended, got %s", s.State)
	}
}

func TestTickRejectedInFreestyle(t *testing.T) {
	e, clock := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeFreestyle, 0)
	if err := e.Tick(clock.Now()); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
	if s := e.Snapshot(); s.RemainingSeconds != nil {
		t.Fatalf("freestyle must not expose remaining time")
	}
}

func TestWPMFromTick(t *testing.T) {
	e, clock := newTestEngine(t, singleWordLists("abcde"))
	mustStart(t, e, model.DifficultyEasy, model.ModeTimed, 60)
	for i := 0; i < 10; i++ {
		mustSubmit(t, e, "abcde")
	}
	s := e.Snapshot()
	if s.CorrectChars != 50 {
		t.Fatalf("expected 50 correct chars, got %d", s.CorrectChars)
	}
	if s.WPM != 0 {
		t.Fatalf("expected 0 wpm at zero elapsed, got %d", s.WPM)
	}
	clock.Advance(30 * time.Second)
	if err := e.Tick(clock.Now()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if s = e.Snapshot(); s.WPM != 20 {
		t.Fatalf("expected 20 wpm, got %d", s.WPM)
	}
}

func TestEndFreezesCounters(t *testing.T) {
	e, clock := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeFreestyle, 0)
	clock.Advance(6 * time.Second)
	mustSubmit(t, e, "cat")
	if err := e.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	frozen := e.Snapshot()
	if frozen.State != model.StateEnded {
		t.Fatalf("expected ended, got %s", frozen.State)
	}
	if frozen.WPM != 6 {
		t.Fatalf("expected 6 wpm, got %d", frozen.WPM)
	}
	clock.Advance(time.Minute)
	if err := e.SubmitInput("c"); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected submit after end to be refused, got %v", err)
	}
	if err := e.End(); err != nil {
		t.Fatalf("second end: %v", err)
	}
	if after := e.Snapshot(); !reflect.DeepEqual(frozen, after) {
		t.Fatalf("snapshot changed after end:\n%+v\n%+v", frozen, after)
	}
}

func TestEndTimedSessionFreezesCountdown(t *testing.T) {
	e, clock := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeTimed, 30)
	clock.Advance(5 * time.Second)
	if err := e.Tick(clock.Now()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	clock.Advance(15 * time.Second)
	if err := e.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	s := e.Snapshot()
	if s.State != model.StateEnded {
		t.Fatalf("expected ended, got %s", s.State)
	}
	if s.Elapsed != 20*time.Second {
		t.Fatalf("expected 20s elapsed, got %s", s.Elapsed)
	}
	if s.RemainingSeconds == nil || *s.RemainingSeconds != 10 {
		t.Fatalf("expected 10s remaining, got %v", s.RemainingSeconds)
	}
}

func TestResetMatchesFreshSession(t *testing.T) {
	prepare := map[string]func(t *testing.T, e *Engine, clock *fakeClock){
		"idle": func(*testing.T, *Engine, *fakeClock) {},
		"running": func(t *testing.T, e *Engine, clock *fakeClock) {
			if err := e.Start(); err != nil {
				t.Fatalf("start: %v", err)
			}
			clock.Advance(3 * time.Second)
			mustSubmit(t, e, "ca")
		},
		"ended": func(t *testing.T, e *Engine, clock *fakeClock) {
			if err := e.Start(); err != nil {
				t.Fatalf("start: %v", err)
			}
			mustSubmit(t, e, "cat")
			clock.Advance(time.Minute)
			if err := e.Tick(clock.Now()); err != nil {
				t.Fatalf("tick: %v", err)
			}
		},
	}
	for name, setup := range prepare {
		e, clock := newTestEngine(t, singleWordLists("cat"))
		if err := e.Configure(model.DifficultyHard, model.ModeTimed, 45); err != nil {
			t.Fatalf("%s: configure: %v", name, err)
		}
		setup(t, e, clock)
		e.Reset()

		fresh, _ := newTestEngine(t, singleWordLists("cat"))
		if err := fresh.Configure(model.DifficultyHard, model.ModeTimed, 45); err != nil {
			t.Fatalf("%s: configure fresh: %v", name, err)
		}
		if got, want := e.Snapshot(), fresh.Snapshot(); !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: reset snapshot differs:\n got %+v\nwant %+v", name, got, want)
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	e, _ := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeTimed, 60)
	s := e.Snapshot()
	s.Tags[0] = model.TagMatch
	*s.RemainingSeconds = 1
	again := e.Snapshot()
	if again.Tags[0] != model.TagPending || *again.RemainingSeconds != 60 {
		t.Fatalf("snapshot mutation leaked into engine: %+v", again)
	}
}

func TestAccuracyZeroBeforeInput(t *testing.T) {
	e, clock := newTestEngine(t, singleWordLists("cat"))
	mustStart(t, e, model.DifficultyEasy, model.ModeTimed, 60)
	clock.Advance(2 * time.Second)
	if err := e.Tick(clock.Now()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	s := e.Snapshot()
	if s.AccuracyPercent != 0 || s.WPM != 0 {
		t.Fatalf("expected zero metrics, got wpm=%d acc=%d", s.WPM, s.AccuracyPercent)
	}
}

func TestSnapshotResult(t *testing.T) {
	e, clock := newTestEngine(t, singleWordLists("abcde"))
	mustStart(t, e, model.DifficultyEasy, model.ModeTimed, 30)
	mustSubmit(t, e, "abcde")
	clock.Advance(30 * time.Second)
	if err := e.Tick(clock.Now()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	r := e.Snapshot().Result()
	if r.WPM != 2 || r.Accuracy != 100 || r.Words != 1 || r.TimeLimit != 30 || r.Mode != model.ModeTimed {
		t.Fatalf("unexpected result: %+v", r)
	}
}
