package dblp

import (
	"fmt"
	"regexp"

	"github.com/confcloud/confcloud/internal/domain"
)

// defaultPatterns flags listing entries that are not research papers:
// proceedings front matter, workshop and tutorial announcements, invited
// talks. Patterns run in order against the normalized title and stop at
// the first match. All are case-insensitive.
var defaultPatterns = []string{
	`^proceedings of`,
	`^[a-z]+ ?'\d{2}`,
	`virtual event.*,`,
	`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d`,
	`workshop on`,
	`workshop:`,
	`workshop\.`,
	`international workshop`,
	`\bworkshop$`,
	`^tutorial`,
	`tutorial:`,
	`tutorial on`,
	`a tutorial`,
	`hands-on tutorial`,
	`tutorial$`,
	`^day `,
	` day:`,
	`special day`,
	`panel discussion`,
	`invited talk`,
	`keynote`,
}

// TitleFilter decides whether a listing entry is a research paper based
// on its title. The pattern list is ordered and extensible: venue
// configuration can append site-specific patterns after the defaults.
type TitleFilter struct {
	patterns []*regexp.Regexp
}

// NewTitleFilter compiles the default pattern list plus any extras.
// Extra patterns run after the defaults, in the order given.
func NewTitleFilter(extra ...string) (*TitleFilter, error) {
	raw := make([]string, 0, len(defaultPatterns)+len(extra))
	raw = append(raw, defaultPatterns...)
	raw = append(raw, extra...)

	patterns := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid title pattern %q: %v", domain.ErrConfiguration, p, err)
		}
		patterns = append(patterns, re)
	}
	return &TitleFilter{patterns: patterns}, nil
}

// IsResearchPaper reports whether a title looks like an actual paper
// rather than front matter or an event announcement.
func (f *TitleFilter) IsResearchPaper(title string) bool {
	normalized := domain.NormalizeTitle(title)
	if normalized == "" {
		return false
	}
	for _, re := range f.patterns {
		if re.MatchString(normalized) {
			return false
		}
	}
	return true
}
