package tui

import (
	"strings"

	"github.com/verte-zerg/keymaster/internal/model"
)

// buildStyledRunes renders each rune of the target word with the style of its tag.
// The rune at cursorIndex is underlined; pass -1 for no cursor.
func buildStyledRunes(target []rune, tags []model.Tag, cursorIndex int) []string {
	out := make([]string, 0, len(target))
	for i, r := range target {
		style := pendingStyle
		if i < len(tags) {
			switch tags[i] {
			case model.TagMatch:
				style = correctStyle
			case model.TagMismatch:
				style = incorrectStyle
			}
		}
		if i == cursorIndex {
			style = style.Underline(true)
		}
		out = append(out, style.Render(string(r)))
	}
	return out
}

func renderWord(word, input string, tags []model.Tag) string {
	target := []rune(word)
	cursorIndex := len([]rune(input))
	if cursorIndex >= len(target) {
		cursorIndex = -1
	}
	return strings.Join(buildStyledRunes(target, tags, cursorIndex), "")
}
