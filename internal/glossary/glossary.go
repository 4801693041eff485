package glossary

import (
	"regexp"
	"sort"
	"strings"
)

// Wildcard marks an entry that applies to every language pair
const Wildcard = "*"

// Entry maps a spoken term to the text it should become.
type Entry struct {
	ID          string `json:"id"`
	Term        string `json:"term"`
	Replacement string `json:"translation"`
	SourceLang  string `json:"sourceLang"`
	TargetLang  string `json:"targetLang"`
}

// IsWildcard reports whether the entry applies to all pairs
func (e Entry) IsWildcard() bool {
	return e.SourceLang == Wildcard && e.TargetLang == Wildcard
}

// Matches reports whether the entry applies to the given pair
func (e Entry) Matches(source, target string) bool {
	if e.IsWildcard() {
		return true
	}
	return e.SourceLang == source && e.TargetLang == target
}

// Lookup returns the entries scoped to exactly (source, target) plus the
// wildcard entries, preserving input order.
func Lookup(entries []Entry, source, target string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Matches(source, target) {
			out = append(out, e)
		}
	}
	return out
}

// Apply replaces every case-insensitive whole-word occurrence of each term.
// Longer terms are applied first; ties keep their original order. Each entry
// runs once over the current text, so Apply always terminates.
func Apply(text string, entries []Entry) string {
	if len(entries) == 0 || text == "" {
		return text
	}

	sorted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Term) == "" {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Term) > len(sorted[j].Term)
	})

	result := text
	for _, e := range sorted {
		re, err := termPattern(e.Term)
		if err != nil {
			continue
		}
		result = re.ReplaceAllLiteralString(result, e.Replacement)
	}
	return result
}

func termPattern(term string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
}
