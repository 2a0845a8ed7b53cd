package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// maxHints caps the number of suggestions attached to a diagnostic.
const maxHints = 3

// Suggest returns "did you mean" hints for name drawn from candidates,
// best match first.
func Suggest(name string, candidates []string) []string {
	if name == "" || len(candidates) == 0 {
		return nil
	}
	lower := make([]string, len(candidates))
	for i, c := range candidates {
		lower[i] = strings.ToLower(c)
	}
	matches := fuzzy.Find(strings.ToLower(name), lower)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	var hints []string
	for _, m := range matches {
		if candidates[m.Index] == name {
			continue
		}
		hints = append(hints, fmt.Sprintf("did you mean '%s'?", candidates[m.Index]))
		if len(hints) == maxHints {
			break
		}
	}
	return hints
}

func suggest(name string, candidates []string) []string {
	return Suggest(name, candidates)
}
