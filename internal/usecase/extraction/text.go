package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	wordTokenRe  = regexp.MustCompile(`[a-z0-9]+`)
)

// normalizeForMatching lower-cases, strips accents and collapses whitespace
func normalizeForMatching(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	var sb strings.Builder
	for _, r := range norm.NFD.String(lowered) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return whitespaceRe.ReplaceAllString(sb.String(), " ")
}

var spanishNumbers = map[string]int{
	"un": 1, "una": 1, "uno": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5,
	"seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10, "once": 11, "doce": 12,
}

var englishNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseSpanishInteger(token string) (int, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(token))
	if isDigits(cleaned) {
		n, err := strconv.Atoi(cleaned)
		return n, err == nil
	}
	n, ok := spanishNumbers[cleaned]
	return n, ok
}

// date helpers operate on midnight UTC values

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func addMonths(base time.Time, months int) time.Time {
	index := int(base.Month()) - 1 + months
	year := base.Year() + floorDiv(index, 12)
	month := time.Month(floorMod(index, 12) + 1)
	day := base.Day()
	if dim := daysInMonth(year, month); day > dim {
		day = dim
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func addYears(base time.Time, years int) time.Time {
	year := base.Year() + years
	day := base.Day()
	if dim := daysInMonth(year, base.Month()); day > dim {
		day = dim
	}
	return time.Date(year, base.Month(), day, 0, 0, 0, 0, time.UTC)
}

// nextWeekday returns the next date falling on weekday; with strictFuture the
// reference day itself is skipped.
func nextWeekday(ref time.Time, weekday time.Weekday, strictFuture bool) time.Time {
	ahead := int(weekday) - int(ref.Weekday())
	if ahead < 0 || (strictFuture && ahead == 0) {
		ahead += 7
	}
	return ref.AddDate(0, 0, ahead)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func parseISODate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
