// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty selects the word list a session draws from.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every difficulty in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Next cycles to the following difficulty, wrapping after hard.
func (d Difficulty) Next() Difficulty {
	for i, candidate := range Difficulties {
		if candidate == d {
			return Difficulties[(i+1)%len(Difficulties)]
		}
	}
	return DifficultyEasy
}

// ParseDifficulty parses a case-insensitive difficulty name.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q (expected easy, medium or hard)", s)
	}
	return d, nil
}

// Mode selects whether a session is bounded by a time limit.
type Mode string

const (
	ModeTimed     Mode = "timed"
	ModeFreestyle Mode = "freestyle"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeTimed || m == ModeFreestyle
}

// ParseMode parses a case-insensitive mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q (expected timed or freestyle)", s)
	}
	return m, nil
}

// Time limit bounds for timed sessions, in seconds.
const (
	MinTimeLimit     = 30
	MaxTimeLimit     = 300
	DefaultTimeLimit = 60
)

// State is the lifecycle position of a typing session.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateEnded   State = "ended"
)

// Tag marks how a single rune of the current word was typed.
type Tag string

const (
	TagMatch    Tag = "match"
	TagMismatch Tag = "mismatch"
	TagPending  Tag = "pending"
)

// Config defines practice settings.
type Config struct {
	Difficulty Difficulty
	Mode       Mode
	TimeLimit  int
	Seed       int64
}

// Sample is one point of a session's WPM timeline.
type Sample struct {
	Elapsed time.Duration
	WPM     int
}

// CustomWord is a user-supplied word stored in the word bank.
type CustomWord struct {
	Difficulty Difficulty
	Word       string
	AddedAt    time.Time
}
