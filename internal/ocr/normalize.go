package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reNBSP       = regexp.MustCompile("[\u00a0\u2007\u202f]")
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans renderer output for one page. Line breaks, single blank lines and runs
// of spaces inside a line are kept since the extractors rely on them.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reNBSP.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.Trim(s, "\n")
}

// SplitPages cuts form-feed separated text into pages. The empty page after a trailing
// form feed is dropped.
func SplitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	for i := range pages {
		pages[i] = Normalize(pages[i])
	}
	return pages
}
