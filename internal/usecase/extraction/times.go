package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

const timeLead = `\b(?:a las|a la|para las|para la|desde las|desde la|at)?\s*`

var (
	noonRe       = regexp.MustCompile(`\bmediodia\b`)
	midnightRe   = regexp.MustCompile(`\bmedianoche\b`)
	periodTimeRe = regexp.MustCompile(timeLead + `([a-z0-9]+)(?::([0-5]\d))?\s*(?:de la|del)?\s*(manana|tarde|noche|morning|afternoon|evening)\b`)
	amPmTimeRe   = regexp.MustCompile(timeLead + `([a-z0-9]+)(?::([0-5]\d))?\s*(am|pm)\b`)
	clockTimeRe  = regexp.MustCompile(timeLead + `([01]?\d|2[0-3]):([0-5]\d)\b`)
	plainHourRe  = regexp.MustCompile(`\b(?:a las|a la|para las|para la|desde las|desde la|at)\s+([a-z0-9]+)\b`)
)

// clock is a time of day
type clock struct {
	Hour   int
	Minute int
}

func parseTimeFromText(text string) (clock, bool) {
	normalized := normalizeForMatching(text)
	if noonRe.MatchString(normalized) {
		return clock{12, 0}, true
	}
	if midnightRe.MatchString(normalized) {
		return clock{0, 0}, true
	}

	for _, m := range periodTimeRe.FindAllStringSubmatch(normalized, -1) {
		if c, ok := buildClock(m[1], m[2], "", m[3]); ok {
			return c, true
		}
	}
	for _, m := range amPmTimeRe.FindAllStringSubmatch(normalized, -1) {
		if c, ok := buildClock(m[1], m[2], m[3], ""); ok {
			return c, true
		}
	}
	if m := clockTimeRe.FindStringSubmatch(normalized); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return clock{h, mm}, true
	}
	if m := plainHourRe.FindStringSubmatch(normalized); m != nil {
		return buildClock(m[1], "", "", "")
	}
	return clock{}, false
}

func buildClock(hourToken, minuteToken, meridiem, period string) (clock, bool) {
	hour, ok := parseHourToken(hourToken)
	if !ok {
		return clock{}, false
	}
	minute := 0
	if minuteToken != "" {
		minute, _ = strconv.Atoi(minuteToken)
	}
	if minute < 0 || minute > 59 {
		return clock{}, false
	}

	switch {
	case meridiem != "":
		if hour > 12 {
			return clock{}, false
		}
		if meridiem == "am" && hour == 12 {
			hour = 0
		} else if meridiem == "pm" && hour != 12 {
			hour += 12
		}
	case period != "":
		switch period {
		case "tarde", "noche", "afternoon", "evening":
			if hour >= 1 && hour <= 11 {
				hour += 12
			}
		case "manana", "morning":
			if hour == 12 {
				hour = 0
			}
		}
	}

	if hour < 0 || hour > 23 {
		return clock{}, false
	}
	return clock{hour, minute}, true
}

func parseHourToken(token string) (int, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(token))
	if isDigits(cleaned) {
		n, err := strconv.Atoi(cleaned)
		return n, err == nil
	}
	if n, ok := parseSpanishInteger(cleaned); ok {
		return n, true
	}
	n, ok := englishNumbers[cleaned]
	return n, ok
}
