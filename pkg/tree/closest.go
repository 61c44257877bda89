package tree

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// closestLiteral returns the root literal (name or alias) nearest to token by edit
// distance, or "" when nothing is close enough to be a plausible typo.
func closestLiteral(root *Node, token string) string {
	set := root.snapshot()
	if set.literals.Len() == 0 || token == "" {
		return ""
	}
	dmp := diffmatchpatch.New()
	needle := strings.ToLower(token)
	limit := len(needle)/2 + 1

	best, bestDistance := "", limit+1
	for pair := set.literals.Oldest(); pair != nil; pair = pair.Next() {
		distance := dmp.DiffLevenshtein(dmp.DiffMain(needle, strings.ToLower(pair.Key), false))
		if distance < bestDistance {
			best, bestDistance = pair.Value.component.name, distance
		}
	}
	return best
}
