package usecases

import (
	"fmt"
	"strings"
	"time"
)

// copilotPaymentChallengeName builds "Copilot payment for <title> <date>"
// (spec.md §4.4). The date is rendered in Go's default long form
// ("Apr 3, 2024") and then patched to read "rd," when the day is 3 and
// "th," otherwise, approximating the reference implementation's ordinal
// suffix quirk (open question 1, SPEC_FULL.md §9) rather than implementing
// a full 1st/2nd/3rd/4th ordinal rule.
func copilotPaymentChallengeName(projectTitle string, now time.Time) string {
	return fmt.Sprintf("Copilot payment for %s %s", projectTitle, formatChallengeDate(now))
}

func formatChallengeDate(now time.Time) string {
	suffix := "th"
	if now.Day() == 3 {
		suffix = "rd"
	}
	month, day := now.Format("Jan"), now.Format("2")
	return strings.Join([]string{month, day + suffix + ",", now.Format("2006")}, " ")
}
