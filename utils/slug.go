package utils

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugBaseLength bounds the title-derived part of a slug, in runes.
const MaxSlugBaseLength = 200

var slugLower = cases.Lower(language.Und)

// Slugify folds a title to Arabic letters, ASCII letters and digits joined by
// single hyphens. The result carries no uniqueness suffix.
func Slugify(title string) string {
	folded := slugLower.String(norm.NFC.String(strings.TrimSpace(title)))

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	runes := 0
	for _, r := range folded {
		if runes >= MaxSlugBaseLength {
			break
		}
		switch {
		case isSlugRune(r):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
				runes++
			}
			pendingHyphen = false
			b.WriteRune(r)
			runes++
		case unicode.IsSpace(r) || r == '-':
			pendingHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func isSlugRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 0x0600 && r <= 0x06FF:
		// Arabic block minus punctuation (comma, semicolon, question mark, full stop).
		return r != 0x060C && r != 0x061B && r != 0x061F && r != 0x06D4
	}
	return false
}

// SlugWithSuffix appends a millisecond timestamp disambiguator to the folded title.
func SlugWithSuffix(title string, now time.Time) string {
	base := Slugify(title)
	suffix := strconv.FormatInt(now.UnixMilli(), 10)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
