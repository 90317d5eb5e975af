package usecases

import (
	"regexp"
	"strconv"
	"strings"
)

// prizeTokenPattern matches a bare dollar amount, e.g. "$500". Go's RE2
// engine has no lookahead, so "precedes a closing bracket" is checked
// separately in parsePrizes rather than folded into the pattern.
var prizeTokenPattern = regexp.MustCompile(`\$[0-9]+`)

// parsePrizes extracts the ordered prize vector from a raw ticket title,
// e.g. "[$500][$250] Fix the thing" (spec.md §4.1). Only amounts that appear
// before the title's last "]" count — a dollar figure mentioned in the body
// text after the bracketed prefix isn't a prize. An empty result means "not
// a paid ticket" — the caller drops the event silently rather than treating
// it as an error.
func parsePrizes(title string) []int {
	lastBracket := strings.LastIndex(title, "]")
	if lastBracket < 0 {
		return nil
	}
	locs := prizeTokenPattern.FindAllStringIndex(title, -1)
	if len(locs) == 0 {
		return nil
	}
	prizes := make([]int, 0, len(locs))
	for _, loc := range locs {
		if loc[0] >= lastBracket {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(title[loc[0]:loc[1]], "$"))
		if err != nil {
			continue
		}
		prizes = append(prizes, n)
	}
	return prizes
}

// stripBracketPrefix removes a single leading "[...]" segment from title,
// the bracketed prize/bid annotation the ticket author wrote (spec.md §4.1).
var bracketPrefixPattern = regexp.MustCompile(`^\s*\[[^\]]*\]\s*`)

func stripBracketPrefix(title string) string {
	return bracketPrefixPattern.ReplaceAllString(title, "")
}
