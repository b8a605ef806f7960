package snyk

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitRanges splits the text of an affected-versions cell into range clauses.
//
// A clause ends at a comma that is outside of any interval bracket and is
// followed by whitespace, so "[,1.4.1), [2,2.0.3)" yields two clauses while
// "[2,2.0.3)" and ">=3 <3.5.30 || >=4 <4.4.8" stay whole. Clauses are only
// trimmed; their notation is kept as written.
func SplitRanges(text string) ([]string, error) {
	var (
		clauses []string
		depth   int
		start   int
	)
	for i, r := range text {
		switch r {
		case '[', '(':
			depth++
		case ']', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth != 0 {
				continue
			}
			next, _ := utf8.DecodeRuneInString(text[i+1:])
			if !unicode.IsSpace(next) {
				continue
			}
			clauses = appendClause(clauses, text[start:i])
			start = i + 1
		}
	}
	clauses = appendClause(clauses, text[start:])

	if len(clauses) == 0 {
		return nil, missingField("vulnerable_versions")
	}
	return clauses, nil
}

func appendClause(clauses []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		clauses = append(clauses, s)
	}
	return clauses
}

// splitOptionalRanges is SplitRanges for cells that may legitimately be blank.
func splitOptionalRanges(text string, present bool) []string {
	if !present {
		return nil
	}
	clauses, err := SplitRanges(text)
	if err != nil {
		return nil
	}
	return clauses
}
