package extraction

import (
	"regexp"
	"strconv"
	"time"
)

var (
	morningPhraseRe = regexp.MustCompile(`\b(?:de|por)\s+la\s+manana\b`)
	compactRelRe    = regexp.MustCompile(`^([a-z0-9]+)\s+(dia|dias|semana|semanas|mes|meses|ano|anos)$`)
	withinRelRe     = regexp.MustCompile(`\bdentro de\s+([a-z0-9]+)\s+(dia|dias|semana|semanas|mes|meses|ano|anos)\b`)
	inRelRe         = regexp.MustCompile(`\ben\s+([a-z0-9]+)\s+(dia|dias|semana|semanas|mes|meses|ano|anos)\b`)
	nextWeekRe      = regexp.MustCompile(`\b(proxima semana|proximo semana|semana que viene)\b`)
	nextMonthRe     = regexp.MustCompile(`\b(proximo mes|proxima mes|mes que viene)\b`)
	nextYearRe      = regexp.MustCompile(`\b(proximo ano|proxima ano|ano que viene)\b`)
	weekdayRefRe    = regexp.MustCompile(`\b(?:el|este|esta|proximo|proxima|todos los|todas las|cada)\s+(lunes|martes|miercoles|jueves|viernes|sabado|domingo)\b`)
	absoluteDateRe  = regexp.MustCompile(`\b(?:el\s+)?(\d{1,2})\s+de\s+(este mes|mes actual|enero|febrero|marzo|abril|abrir|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)(?:\s+de\s+(\d{4}))?\b`)
)

var directDateTokens = []struct {
	re    *regexp.Regexp
	token string
	delta int
}{
	{regexp.MustCompile(`\bpasado manana\b`), "pasado manana", 2},
	{regexp.MustCompile(`\bmanana\b`), "manana", 1},
	{regexp.MustCompile(`\bhoy\b`), "hoy", 0},
	{regexp.MustCompile(`\bayer\b`), "ayer", -1},
	{regexp.MustCompile(`\banteayer\b`), "anteayer", -2},
}

var spanishWeekdays = map[string]time.Weekday{
	"lunes": time.Monday, "martes": time.Tuesday, "miercoles": time.Wednesday, "jueves": time.Thursday,
	"viernes": time.Friday, "sabado": time.Saturday, "domingo": time.Sunday,
}

var spanishMonths = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March, "abril": time.April,
	"abrir": time.April, "mayo": time.May, "junio": time.June, "julio": time.July, "agosto": time.August,
	"septiembre": time.September, "setiembre": time.September, "octubre": time.October,
	"noviembre": time.November, "diciembre": time.December,
}

// ResolveRelativeDate resolves an absolute ("23 de febrero", "25 de este mes")
// or relative ("mañana", "dentro de 2 semanas", "el viernes") date expression
// against ref. Month and year arithmetic clamps to the target month's length.
func ResolveRelativeDate(text string, ref time.Time) (time.Time, bool) {
	ref = dateOnly(ref)
	normalized := normalizeForMatching(text)
	if d, ok := parseAbsoluteDate(normalized, ref); ok {
		return d, true
	}
	return parseRelativeDate(normalized, ref)
}

func parseRelativeDate(normalized string, ref time.Time) (time.Time, bool) {
	for _, tok := range directDateTokens {
		if tok.token == "manana" && morningPhraseRe.MatchString(normalized) {
			continue
		}
		if tok.re.MatchString(normalized) {
			return ref.AddDate(0, 0, tok.delta), true
		}
	}

	if m := compactRelRe.FindStringSubmatch(normalized); m != nil {
		if amount, ok := parseSpanishInteger(m[1]); ok {
			return applyRelativeAmount(ref, amount, m[2]), true
		}
	}

	for _, re := range []*regexp.Regexp{withinRelRe, inRelRe} {
		m := re.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		amount, ok := parseSpanishInteger(m[1])
		if !ok {
			continue
		}
		return applyRelativeAmount(ref, amount, m[2]), true
	}

	switch {
	case nextWeekRe.MatchString(normalized):
		return ref.AddDate(0, 0, 7), true
	case nextMonthRe.MatchString(normalized):
		return addMonths(ref, 1), true
	case nextYearRe.MatchString(normalized):
		return addYears(ref, 1), true
	}

	if m := weekdayRefRe.FindStringSubmatch(normalized); m != nil {
		return nextWeekday(ref, spanishWeekdays[m[1]], true), true
	}
	return time.Time{}, false
}

func parseAbsoluteDate(normalized string, ref time.Time) (time.Time, bool) {
	m := absoluteDateRe.FindStringSubmatch(normalized)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])

	month := ref.Month()
	if m[2] != "este mes" && m[2] != "mes actual" {
		month = spanishMonths[m[2]]
	}
	year := ref.Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}

	if day < 1 || day > daysInMonth(year, month) {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

func applyRelativeAmount(ref time.Time, amount int, unit string) time.Time {
	switch unit {
	case "dia", "dias":
		return ref.AddDate(0, 0, amount)
	case "semana", "semanas":
		return ref.AddDate(0, 0, 7*amount)
	case "mes", "meses":
		return addMonths(ref, amount)
	}
	return addYears(ref, amount)
}
