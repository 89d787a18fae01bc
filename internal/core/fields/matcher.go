// Package fields holds the single-field extractors shared by the platform drivers.
//
// Every extractor works on the text of one block and reports absence as ("", false),
// never as an error. A field is usually described by an ordered list of candidate
// matchers; the first candidate that produces a non-empty value wins.
package fields

import (
	"regexp"
	"strings"
)

// Matcher looks for a single field value in a block of text.
type Matcher func(text string) (string, bool)

// First tries each matcher in order and returns the first non-empty value.
func First(text string, matchers ...Matcher) (string, bool) {
	return firstOf[string](text, matchers)
}

// Value is First without the found flag; missing fields become "".
func Value(text string, matchers ...Matcher) string {
	v, _ := firstOf[string](text, matchers)
	return v
}

// Chain folds an ordered candidate list into a single matcher.
func Chain(matchers ...Matcher) Matcher {
	return func(text string) (string, bool) {
		return firstOf[string](text, matchers)
	}
}

func firstOf[T any, M ~func(string) (T, bool)](text string, matchers []M) (T, bool) {
	for _, m := range matchers {
		if v, ok := m(text); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Capture returns the trimmed first submatch of the leftmost match of re.
func Capture(re *regexp.Regexp) Matcher {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			return "", false
		}
		v := strings.TrimSpace(m[1])
		return v, v != ""
	}
}

// Captures is Capture applied to each pattern in priority order.
func Captures(res ...*regexp.Regexp) Matcher {
	ms := make([]Matcher, len(res))
	for i, re := range res {
		ms[i] = Capture(re)
	}
	return Chain(ms...)
}

// Validated accepts the value produced by m only if valid approves it.
func Validated(m Matcher, valid func(string) bool) Matcher {
	return func(text string) (string, bool) {
		v, ok := m(text)
		if !ok || !valid(v) {
			return "", false
		}
		return v, true
	}
}

// AnyValid scans every match of re in text order and returns the first submatch valid approves.
func AnyValid(re *regexp.Regexp, valid func(string) bool) Matcher {
	return func(text string) (string, bool) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			if v := strings.TrimSpace(m[1]); v != "" && valid(v) {
				return v, true
			}
		}
		return "", false
	}
}

// Map post-processes a found value. An empty result counts as not found.
func Map(m Matcher, fn func(string) string) Matcher {
	return func(text string) (string, bool) {
		v, ok := m(text)
		if !ok {
			return "", false
		}
		v = fn(v)
		return v, v != ""
	}
}

// Const always yields v. Used for fields a platform fixes, such as its own courier.
func Const(v string) Matcher {
	return func(string) (string, bool) { return v, v != "" }
}

// Fold collapses line breaks and runs of whitespace into single spaces.
func Fold(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
