package session

import (
	"time"

	"github.com/verte-zerg/keymaster/internal/model"
	"github.com/verte-zerg/keymaster/internal/stats"
)

// Snapshot is a read-only view of an engine. Its slices are copies owned by the caller.
type Snapshot struct {
	State            model.State
	SessionID        string
	Difficulty       model.Difficulty
	Mode             model.Mode
	TimeLimitSeconds int
	CurrentWord      string
	UserInput        string
	Tags             []model.Tag
	WPM              int
	AccuracyPercent  int
	// RemainingSeconds is nil in freestyle mode.
	RemainingSeconds *int
	CompletedWords   int
	CorrectChars     int
	TotalChars       int
	Elapsed          time.Duration
	Timeline         []model.Sample
}

// Result converts the snapshot into a final score.
func (s Snapshot) Result() stats.Result {
	return stats.Result{
		WPM:       s.WPM,
		Accuracy:  s.AccuracyPercent,
		Words:     s.CompletedWords,
		Mode:      s.Mode,
		TimeLimit: s.TimeLimitSeconds,
	}
}
