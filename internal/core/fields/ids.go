package fields

import (
	"regexp"
	"strings"
)

// Known tracking number shapes, e.g. VL0081530070753, SF1556751037FPL, M00831998289,
// 1490810673698592.
var awbShapes = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2}\d{10,15}$`),
	regexp.MustCompile(`^[A-Z]{2}\d{10,13}[A-Z]{2,3}$`),
	regexp.MustCompile(`^[A-Z]\d{10,15}$`),
	regexp.MustCompile(`^\d{13,16}$`),
}

// Label-free forms of the same shapes, tried in this order.
var awbStandalone = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b([A-Z]{2}\d{10,15})\b`),
	regexp.MustCompile(`(?i)\b([A-Z]{2}\d{10,13}[A-Z]{2,3})\b`),
	regexp.MustCompile(`(?i)\b([A-Z]\d{10,15})\b`),
	regexp.MustCompile(`\b(\d{13,16})\b`),
}

// ValidAWB reports whether code looks like an air waybill / tracking number.
func ValidAWB(code string) bool {
	code = strings.ToUpper(strings.ReplaceAll(code, " ", ""))
	if len(code) < 10 || len(code) > 16 {
		return false
	}
	for _, re := range awbShapes {
		if re.MatchString(code) {
			return true
		}
	}
	return false
}

// LabeledAWB builds the validated candidates for one label expression, one per known shape.
// label is a regexp fragment such as `AWB\s*(?:No\.?|Number)?`.
func LabeledAWB(label string) []Matcher {
	shapes := []string{
		`[A-Z]{2}\d{10,15}`,
		`[A-Z]{2}\d{10,13}[A-Z]{2,3}`,
		`[A-Z]\d{10,15}`,
		`\d{13,16}`,
	}
	out := make([]Matcher, 0, len(shapes))
	for _, s := range shapes {
		re := regexp.MustCompile(`(?i)` + label + `\s*[:\-]?\s*(` + s + `)\b`)
		out = append(out, Validated(Capture(re), ValidAWB))
	}
	return out
}

// StandaloneAWB searches without a label. Every match of every shape is validated and the
// first one that passes wins.
func StandaloneAWB() Matcher {
	ms := make([]Matcher, len(awbStandalone))
	for i, re := range awbStandalone {
		ms[i] = AnyValid(re, ValidAWB)
	}
	return Chain(ms...)
}
