// Package classifier guesses the default category of a free-text option label. The result is
// advisory and is only computed when an option is created.
package classifier

import (
	"regexp"
	"strings"

	"github.com/matchpoll/backend/internal/entity"
)

type rule struct {
	pattern  *regexp.Regexp
	category string
}

// Rules are evaluated in order, the first match wins.
var rules = []rule{
	{regexp.MustCompile(`\b(win|wins|winner|victory|draw)\b`), entity.CategoryMatchResult},
	{regexp.MustCompile(`\b(over|under)\b`), entity.CategoryGoalsThreshold},
	{regexp.MustCompile(`\bboth teams (to )?score\b`), entity.CategoryBothTeamsScore},
	{regexp.MustCompile(`\d+\s*[-:]\s*\d+`), entity.CategoryMatchScore},
	{regexp.MustCompile(`\bscores? first\b`), entity.CategoryFirstToScore},
}

func DefaultCategoryFor(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	for _, r := range rules {
		if r.pattern.MatchString(normalized) {
			return r.category
		}
	}

	return entity.CategoryOther
}
