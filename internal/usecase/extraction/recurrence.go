package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	recurrenceWeekdaysRe = regexp.MustCompile(`\b(?:cada|todos\s+los|todas\s+las)\s+(lunes|martes|miercoles|jueves|viernes|sabado|domingo)\b`)
	recurrenceIntervalRe = regexp.MustCompile(`\bcada\s+([a-z0-9]+)\s+(dia|dias|semana|semanas|mes|meses|ano|anos)\b`)
	weeklyRe             = regexp.MustCompile(`\b(cada semana|semanal|semanalmente)\b`)
	biweeklyRe           = regexp.MustCompile(`\b(quincenal|cada dos semanas)\b`)
	monthStartRe         = regexp.MustCompile(`\b(?:al|a)?\s*(?:inicio|principio|principios)\s+de\s+cada\s+mes\b`)
	monthlyRe            = regexp.MustCompile(`\b(cada mes|mensual|mensualmente)\b`)
	yearlyRe             = regexp.MustCompile(`\b(cada ano|anual|anualmente|yearly)\b`)
	dailyRe              = regexp.MustCompile(`\b(cada dia|todos los dias|diario|diariamente)\b`)
	weekdaySplitRe       = regexp.MustCompile(`[,\s]+`)
)

var validFrequencies = map[string]bool{"DAILY": true, "WEEKLY": true, "MONTHLY": true, "YEARLY": true}

var frequencyWords = map[string]string{
	"daily": "DAILY", "diario": "DAILY", "diaria": "DAILY",
	"weekly": "WEEKLY", "semanal": "WEEKLY",
	"monthly": "MONTHLY", "mensual": "MONTHLY",
	"yearly": "YEARLY", "anual": "YEARLY",
}

var weekdayWords = map[string]string{
	"lunes": "MO", "monday": "MO", "martes": "TU", "tuesday": "TU",
	"miercoles": "WE", "wednesday": "WE", "jueves": "TH", "thursday": "TH",
	"viernes": "FR", "friday": "FR", "sabado": "SA", "saturday": "SA",
	"domingo": "SU", "sunday": "SU",
}

var rruleWeekdays = map[string]time.Weekday{
	"MO": time.Monday, "TU": time.Tuesday, "WE": time.Wednesday, "TH": time.Thursday,
	"FR": time.Friday, "SA": time.Saturday, "SU": time.Sunday,
}

var weekdayCodes = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// normalizeRecurrence accepts an RRULE string (with or without prefix), a
// free-text description, or a map of frequency/interval/days/day_of_month.
func normalizeRecurrence(value interface{}) string {
	switch v := value.(type) {
	case map[string]interface{}:
		if rrule, ok := v["rrule"].(string); ok {
			return normalizeRecurrence(rrule)
		}
		freq := frequencyToken(firstPresent(v, "frequency", "freq", "pattern"))
		if freq == "" {
			return ""
		}
		interval, ok := positiveInteger(v["interval"])
		if !ok {
			interval = 1
		}
		parts := []string{"FREQ=" + freq, fmt.Sprintf("INTERVAL=%d", interval)}
		if days := weekdayCollection(firstPresent(v, "days_of_week", "days", "byday")); len(days) > 0 {
			parts = append(parts, "BYDAY="+strings.Join(days, ","))
		}
		if mday, ok := positiveInteger(firstPresent(v, "day_of_month", "dayOfMonth", "bymonthday")); ok && mday >= 1 && mday <= 31 {
			parts = append(parts, fmt.Sprintf("BYMONTHDAY=%d", mday))
		}
		return strings.Join(parts, ";")
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return ""
		}
		if strings.HasPrefix(strings.ToUpper(text), "RRULE:") {
			text = text[len("RRULE:"):]
		}
		if strings.Contains(strings.ToUpper(text), "FREQ=") {
			return sanitizeRRule(text)
		}
		return parseRecurrenceFromText(text, "")
	}
	return ""
}

// firstPresent mirrors a chain of `a or b or c` lookups
func firstPresent(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	case bool:
		return t
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	}
	return true
}

func frequencyToken(value interface{}) string {
	text := optionalText(value)
	if text == "" {
		return ""
	}
	normalized := normalizeForMatching(text)
	if f, ok := frequencyWords[normalized]; ok {
		return f
	}
	if upper := strings.ToUpper(normalized); validFrequencies[upper] {
		return upper
	}
	return ""
}

func positiveInteger(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		if v == float64(int(v)) && v > 0 {
			return int(v), true
		}
		return 0, false
	case int:
		return v, v > 0
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return 0, false
		}
		if isDigits(text) {
			n, err := strconv.Atoi(text)
			return n, err == nil && n > 0
		}
		return parseSpanishInteger(text)
	}
	return 0, false
}

func weekdayCollection(value interface{}) []string {
	var raw []string
	switch v := value.(type) {
	case string:
		raw = weekdaySplitRe.Split(v, -1)
	case []interface{}:
		for _, item := range v {
			if item == nil {
				continue
			}
			raw = append(raw, weekdaySplitRe.Split(fmt.Sprint(item), -1)...)
		}
	default:
		return nil
	}

	var out []string
	seen := map[string]bool{}
	for _, tok := range raw {
		if tok == "" {
			continue
		}
		code := weekdayToken(tok)
		if code != "" && !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}

func weekdayToken(value string) string {
	normalized := normalizeForMatching(value)
	if _, ok := rruleWeekdays[strings.ToUpper(normalized)]; ok {
		return strings.ToUpper(normalized)
	}
	return weekdayWords[normalized]
}

// sanitizeRRule upper-cases KEY=VALUE pairs and requires a known FREQ
func sanitizeRRule(raw string) string {
	var parts []string
	for _, part := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.ToUpper(strings.TrimSpace(value))
		if key == "" || value == "" {
			continue
		}
		parts = append(parts, key+"="+value)
	}
	if len(parts) == 0 {
		return ""
	}
	joined := strings.Join(parts, ";")
	if !validFrequencies[rruleTokens(joined)["FREQ"]] {
		return ""
	}
	return joined
}

func rruleTokens(rule string) map[string]string {
	tokens := map[string]string{}
	for _, part := range strings.Split(rule, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.ToUpper(strings.TrimSpace(value))
		if key != "" && value != "" {
			tokens[key] = value
		}
	}
	return tokens
}

func parseRecurrenceFromText(text, dueDate string) string {
	normalized := normalizeForMatching(text)
	weekdayFromDue, dayFromDue := "", 0
	if d, ok := parseISODate(dueDate); ok {
		weekdayFromDue = weekdayCodes[d.Weekday()]
		dayFromDue = d.Day()
	}
	byDay := ""
	if weekdayFromDue != "" {
		byDay = ";BYDAY=" + weekdayFromDue
	}
	byMonthDay := ""
	if dayFromDue > 0 {
		byMonthDay = fmt.Sprintf(";BYMONTHDAY=%d", dayFromDue)
	}

	if matches := recurrenceWeekdaysRe.FindAllStringSubmatch(normalized, -1); len(matches) > 0 {
		var codes []string
		for _, m := range matches {
			if code := weekdayToken(m[1]); code != "" {
				codes = append(codes, code)
			}
		}
		if len(codes) > 0 {
			return "FREQ=WEEKLY;INTERVAL=1;BYDAY=" + strings.Join(codes, ",")
		}
	}

	if m := recurrenceIntervalRe.FindStringSubmatch(normalized); m != nil {
		amount, ok := parseSpanishInteger(m[1])
		if !ok {
			amount = 1
		}
		switch m[2] {
		case "dia", "dias":
			return fmt.Sprintf("FREQ=DAILY;INTERVAL=%d", amount)
		case "semana", "semanas":
			return fmt.Sprintf("FREQ=WEEKLY;INTERVAL=%d%s", amount, byDay)
		case "mes", "meses":
			return fmt.Sprintf("FREQ=MONTHLY;INTERVAL=%d%s", amount, byMonthDay)
		}
		return fmt.Sprintf("FREQ=YEARLY;INTERVAL=%d", amount)
	}

	switch {
	case weeklyRe.MatchString(normalized):
		return "FREQ=WEEKLY;INTERVAL=1" + byDay
	case biweeklyRe.MatchString(normalized):
		return "FREQ=WEEKLY;INTERVAL=2" + byDay
	case monthStartRe.MatchString(normalized):
		return "FREQ=MONTHLY;INTERVAL=1;BYMONTHDAY=1"
	case monthlyRe.MatchString(normalized):
		return "FREQ=MONTHLY;INTERVAL=1" + byMonthDay
	case yearlyRe.MatchString(normalized):
		return "FREQ=YEARLY;INTERVAL=1"
	case dailyRe.MatchString(normalized):
		return "FREQ=DAILY;INTERVAL=1"
	}
	return ""
}

// dueDateFromRecurrence returns the first occurrence on or after ref
func dueDateFromRecurrence(rule string, ref time.Time) time.Time {
	tokens := rruleTokens(rule)
	switch tokens["FREQ"] {
	case "WEEKLY":
		byDay := tokens["BYDAY"]
		if byDay == "" {
			return ref
		}
		var best time.Time
		for _, code := range strings.Split(byDay, ",") {
			wd, ok := rruleWeekdays[strings.TrimSpace(code)]
			if !ok {
				continue
			}
			candidate := nextWeekday(ref, wd, false)
			if best.IsZero() || candidate.Before(best) {
				best = candidate
			}
		}
		if best.IsZero() {
			return ref
		}
		return best
	case "MONTHLY":
		day, ok := positiveInteger(tokens["BYMONTHDAY"])
		if !ok {
			return ref
		}
		thisDay := day
		if dim := daysInMonth(ref.Year(), ref.Month()); thisDay > dim {
			thisDay = dim
		}
		thisMonth := time.Date(ref.Year(), ref.Month(), thisDay, 0, 0, 0, 0, time.UTC)
		if !thisMonth.Before(ref) {
			return thisMonth
		}
		next := addMonths(ref, 1)
		nextDay := day
		if dim := daysInMonth(next.Year(), next.Month()); nextDay > dim {
			nextDay = dim
		}
		return time.Date(next.Year(), next.Month(), nextDay, 0, 0, 0, 0, time.UTC)
	}
	return ref
}
