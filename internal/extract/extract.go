// Package extract scans free text for embedded contact identifiers.
package extract

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Loose phone shapes: optional country code, groups of 2-5 digits joined
	// by space, hyphen or dot. A minimum digit count filters out short
	// numeric runs that are not phone numbers.
	phoneRe = regexp.MustCompile(`\+?\(?\d{1,4}\)?(?:[ .\-]?\d{2,5}){2,4}`)

	// Mentions use the handle character set. The leading group rejects the
	// domain part of email addresses (RE2 has no lookbehind).
	mentionRe = regexp.MustCompile(`(?:^|[^A-Za-z0-9_.@])@([A-Za-z0-9_.]+)`)
)

const minPhoneDigits = 7

// Contacts holds the identifiers found in a text, each list in first-to-last
// order of appearance. Duplicates are kept to mirror literal occurrence.
type Contacts struct {
	Emails   []string
	Phones   []string
	Mentions []string
}

// Scan extracts emails, phone numbers and @mentions from text. Empty input
// yields empty lists. The lists are never nil so they serialize as [] rather
// than null. The scan is pure: no network, no state.
func Scan(text string) Contacts {
	c := Contacts{
		Emails:   []string{},
		Phones:   []string{},
		Mentions: []string{},
	}
	if text == "" {
		return c
	}

	c.Emails = append(c.Emails, emailRe.FindAllString(text, -1)...)

	for _, m := range phoneRe.FindAllString(text, -1) {
		if digitCount(m) >= minPhoneDigits {
			c.Phones = append(c.Phones, strings.TrimSpace(m))
		}
	}

	for _, m := range mentionRe.FindAllStringSubmatch(text, -1) {
		c.Mentions = append(c.Mentions, m[1])
	}

	return c
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
