package utils // text helpers shared by the place and tag repositories

import (
	"regexp"
	"strings"
)

// lineBreak is the marker stored in the database in place of newlines for
// free-text columns (specials, notes). Edit views reverse the transform so
// admins always see plain newline-delimited text.
const lineBreak = "<br>"

// tagValueRe matches valid tag slugs: lowercase letters, digits and hyphens.
var tagValueRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// NormalizePhone strips every non-digit character from s and returns the
// result only when exactly 10 digits remain. Anything else (too short,
// too long, empty) normalizes to nil so the column is stored as NULL.
func NormalizePhone(s string) *string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 10 {
		return nil
	}
	return &digits
}

// EncodeLineBreaks converts newlines (both \r\n and bare \n) into the
// storage marker. Applied on create and update before writing free text.
func EncodeLineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", lineBreak)
}

// DecodeLineBreaks reverses EncodeLineBreaks for edit-form loads.
func DecodeLineBreaks(s string) string {
	return strings.ReplaceAll(s, lineBreak, "\n")
}

// ValidTagValue reports whether v is an acceptable tag slug.
func ValidTagValue(v string) bool {
	return v != "" && tagValueRe.MatchString(v)
}
