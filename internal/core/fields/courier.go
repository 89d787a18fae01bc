package fields

import (
	"regexp"
)

// Courier matches the first name of a closed whitelist that appears anywhere in the block,
// ignoring case. The whitelist spelling is returned, not the text as found.
func Courier(names ...string) Matcher {
	res := make([]*regexp.Regexp, len(names))
	for i, n := range names {
		res[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(n) + `\b`)
	}
	return func(text string) (string, bool) {
		for i, re := range res {
			if re.MatchString(text) {
				return names[i], true
			}
		}
		return "", false
	}
}
