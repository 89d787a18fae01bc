package fields

import (
	"regexp"
	"time"
)

var reDotDate = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)

// NormalizeDate rewrites dd.mm.yyyy as dd/mm/yyyy. Every other convention is ambiguous and
// is returned as is, and so is a dotted token that is not a real calendar date.
func NormalizeDate(raw string) string {
	if !reDotDate.MatchString(raw) {
		return raw
	}
	t, err := time.Parse("02.01.2006", raw)
	if err != nil {
		return raw
	}
	return t.Format("02/01/2006")
}

// Date captures a date token with the first matching pattern and normalizes it.
func Date(res ...*regexp.Regexp) Matcher {
	return Map(Captures(res...), NormalizeDate)
}
