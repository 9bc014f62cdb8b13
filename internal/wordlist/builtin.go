package wordlist

import (
	"embed"
	"fmt"
	"strings"

	"github.com/verte-zerg/keymaster/internal/model"
)

//go:embed words/*.txt
var builtinFS embed.FS

// Lists maps each difficulty to its candidate words.
type Lists map[model.Difficulty][]string

// Builtin returns the embedded word lists. Each call returns fresh slices.
func Builtin() (Lists, error) {
	lists := Lists{}
	for _, d := range model.Difficulties {
		path := "words/" + string(d) + ".txt"
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read builtin %s words: %w", d, err)
		}
		words, err := ReadWords(strings.NewReader(string(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to parse builtin %s words: %w", d, err)
		}
		lists[d] = words
	}
	return lists, nil
}

// Words returns a copy of the list bound to d.
func (l Lists) Words(d model.Difficulty) []string {
	words := l[d]
	out := make([]string, len(words))
	copy(out, words)
	return out
}

// Merge returns a new Lists with extra appended to each difficulty, skipping words the
// list already contains.
func (l Lists) Merge(extra Lists) Lists {
	out := make(Lists, len(l))
	for d, words := range l {
		out[d] = append([]string(nil), words...)
	}
	for d, words := range extra {
		seen := make(map[string]struct{}, len(out[d]))
		for _, w := range out[d] {
			seen[w] = struct{}{}
		}
		for _, w := range words {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out[d] = append(out[d], w)
		}
	}
	return out
}
