// Package normalize canonicalises user-typed names and codes before they are
// compared or stored.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DisplayName trims a name and collapses internal runs of whitespace to one
// space, keeping the original letter case.
//
//	"  Iron   Wolves " -> "Iron Wolves"
func DisplayName(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// NameKey returns the comparison key for a player name. Names that differ only
// in case or Unicode composition share a key.
//
//	"Falcon", "FALCON", "falcon " -> "falcon"
func NameKey(s string) string {
	return cases.Fold().String(DisplayName(s))
}

// InviteCode canonicalises a code as a person might type it: surrounding
// spaces, inner spaces and dashes are dropped and letters are upper-cased.
//
//	" wzxk-7qmp " -> "WZXK7QMP"
func InviteCode(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
}
