// Package stats contains metric calculations and result rendering.
package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/keymaster/internal/model"
)

const sparkChars = " .:-=+*#%@"

// charsPerWord is the conventional word length used by WPM.
const charsPerWord = 5

// WPM returns floor((correct / 5) / minutes) for the elapsed time, or 0 when no time
// has elapsed. The division is done on integer milliseconds so whole-number results
// are exact.
func WPM(correct int, elapsed time.Duration) int {
	ms := elapsed.Milliseconds()
	if ms <= 0 || correct <= 0 {
		return 0
	}
	return int(int64(correct) * 60000 / charsPerWord / ms)
}

// Accuracy returns floor(correct * 100 / total), or 0 when nothing was compared.
func Accuracy(correct, total int) int {
	if total <= 0 || correct <= 0 {
		return 0
	}
	return correct * 100 / total
}

// Result is the final score of a session.
type Result struct {
	WPM       int
	Accuracy  int
	Words     int
	Mode      model.Mode
	TimeLimit int
}

// Summary renders the end-of-session report.
func Summary(r Result) string {
	s := fmt.Sprintf("WPM: %d\nAccuracy: %d%%\nWords: %d", r.WPM, r.Accuracy, r.Words)
	if r.Mode == model.ModeTimed {
		s += fmt.Sprintf("\nTime: %d seconds", r.TimeLimit)
	}
	return s
}

// TimelineValues extracts the WPM values of a timeline for plotting.
func TimelineValues(samples []model.Sample) []float64 {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = float64(s.WPM)
	}
	return values
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[clamp(idx, 0, len(sparkChars)-1)])
	}
	return b.String()
}

func minMax(values []float64) (float64, float64) {
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
