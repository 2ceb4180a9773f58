// Package resolve canonicalizes company names and parses the free-text
// fields of directory source rows.
package resolve

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// legalSuffixes lists company-form tokens stripped during name
// normalization, in match order. Each carries its leading space so a bare
// token ("AB") is never stripped.
var legalSuffixes = []string{
	" ab",
	" aktiebolag",
	" ltd",
	" limited",
	" inc",
	" gmbh",
	" technology",
	" technologies",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeName produces the key used to detect duplicate companies:
//  1. Lower-casing (Swedish rules) and trimming
//  2. Removing the first legal suffix in list order the name ends with
//  3. Collapsing whitespace runs into single spaces
//
// Only one suffix is removed, so "X Technologies AB" becomes
// "x technologies".
func NormalizeName(name string) string {
	name = strings.TrimSpace(cases.Lower(language.Swedish).String(name))
	if name == "" {
		return ""
	}

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	name = whitespaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
