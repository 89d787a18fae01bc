package fields

import (
	"regexp"
	"strings"
)

const addressSep = ", "

var (
	rePincode  = regexp.MustCompile(`\b(\d{6})\b`)
	reSepRun   = regexp.MustCompile(`\s*,(?:\s*,)+\s*`)
	reBlankRun = regexp.MustCompile(`[ \t]{2,}`)
	reLooseSep = regexp.MustCompile(`[ \t]+,`)
)

// Address is a captured address region: the recipient line and the lines below it.
type Address struct {
	Name  string
	Lines []string
}

// Raw joins the lines below the recipient.
func (a Address) Raw() string {
	return strings.Join(a.Lines, addressSep)
}

// Full joins the recipient and the remaining lines.
func (a Address) Full() string {
	if a.Name == "" {
		return a.Raw()
	}
	return strings.Join(append([]string{a.Name}, a.Lines...), addressSep)
}

// AddressSplit is an address with its postal code pulled out.
type AddressSplit struct {
	Address string
	Pincode string
}

// SplitPincode extracts the first six-digit token of raw as the postal code and removes it
// from the address. Without such a token the address is returned whole.
func SplitPincode(raw string) AddressSplit {
	loc := rePincode.FindStringSubmatchIndex(raw)
	if loc == nil {
		return AddressSplit{Address: raw}
	}
	pin := raw[loc[2]:loc[3]]
	rest := raw[:loc[0]] + raw[loc[1]:]
	rest = reSepRun.ReplaceAllString(rest, addressSep)
	rest = reBlankRun.ReplaceAllString(rest, " ")
	rest = reLooseSep.ReplaceAllString(rest, ",")
	rest = strings.Trim(rest, " ,-\n")
	return AddressSplit{Address: rest, Pincode: pin}
}

// AddressMatcher finds an address region in a block.
type AddressMatcher func(text string) (Address, bool)

// AddressFrom captures the address region with re. The non-empty trimmed lines of every
// submatch, in order, make up the address; the first of them is the recipient name.
func AddressFrom(re *regexp.Regexp) AddressMatcher {
	return func(text string) (Address, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return Address{}, false
		}
		var lines []string
		for _, group := range m[1:] {
			for _, l := range strings.Split(group, "\n") {
				if l = strings.TrimSpace(l); l != "" {
					lines = append(lines, l)
				}
			}
		}
		if len(lines) == 0 {
			return Address{}, false
		}
		return Address{Name: lines[0], Lines: lines[1:]}, true
	}
}

// FirstAddress returns the address found by the first matcher that finds one.
func FirstAddress(text string, matchers ...AddressMatcher) (Address, bool) {
	return firstOf[Address](text, matchers)
}
