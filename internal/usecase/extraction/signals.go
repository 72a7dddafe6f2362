package extraction

import (
	"regexp"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

var (
	googleMeetRe = regexp.MustCompile(`\b(google\s+meet|meet\.google|meet de google)\b`)
	teamsRe      = regexp.MustCompile(`\b(microsoft\s+teams|ms\s+teams|teams)\b`)
	autoRe       = regexp.MustCompile(`\bauto\b`)

	meetingKeywordRe = regexp.MustCompile(`\b(reunion|meeting|llamada|call|sesion|session|kickoff|demo)\b`)
	meetingRecapRe   = regexp.MustCompile(`\b(resumen|minuta|notas|acuerdos|recordatorio|follow up|follow-up|seguimiento)\s+de\s+(la\s+)?(reunion|meeting)\b`)
	scheduleMeetRe   = regexp.MustCompile(`\b(agendar|agenda|programar|programa|coordinar|coordina|calendarizar|organizar|planificar|schedule|book|set up|hacer|realizar|tener)\s+(una\s+)?(reunion|meeting|llamada|call|sesion|session)\b`)
	obligedMeetRe    = regexp.MustCompile(`\b(hay que|tenemos que|tengo que|necesito|necesitamos|debe|deben|deberiamos)\b.{0,80}\b(reunion|meeting|llamada|call|sesion|session)\b`)
	scheduleVerbRe   = regexp.MustCompile(`\b(agendar|agenda|programar|programa|coordinar|coordina|calendarizar|organizar|planificar|schedule|book|set up)\b`)

	ianaTokenRe = regexp.MustCompile(`\b[A-Za-z]+(?:/[A-Za-z0-9_\-+]+)+\b`)

	trivialTitleRe = regexp.MustCompile(`^(ok|okay|si|claro|gracias|perfecto|entendido|listo|de acuerdo)$`)
	obligationRes  = []*regexp.Regexp{
		regexp.MustCompile(`\b(tenemos que|tengo que|tienes que|debo|debes|debe|deberiamos|hay que)\b`),
		regexp.MustCompile(`\b(pendiente|recordar|recordatorio|follow up|follow-up|to do|todo)\b`),
	}
)

var timezoneAliases = []struct {
	re   *regexp.Regexp
	zone string
}{
	{regexp.MustCompile(`\b(?:utc|gmt)\b`), "UTC"},
	{regexp.MustCompile(`\b(?:est|edt|eastern(?:\s+time)?|hora\s+del\s+este|horario\s+del\s+este)\b`), "America/New_York"},
	{regexp.MustCompile(`\b(?:cst|cdt|central(?:\s+time)?|hora\s+central|horario\s+central)\b`), "America/Chicago"},
	{regexp.MustCompile(`\b(?:mst|mdt|mountain(?:\s+time)?|hora\s+de\s+la\s+montana)\b`), "America/Denver"},
	{regexp.MustCompile(`\b(?:pst|pdt|pacific(?:\s+time)?|hora\s+del\s+pacifico|horario\s+del\s+pacifico)\b`), "America/Los_Angeles"},
	{regexp.MustCompile(`\b(?:mexico|cdmx|ciudad\s+de\s+mexico)\b`), "America/Mexico_City"},
	{regexp.MustCompile(`\b(?:colombia|bogota)\b`), "America/Bogota"},
	{regexp.MustCompile(`\b(?:peru|lima)\b`), "America/Lima"},
	{regexp.MustCompile(`\b(?:argentina|buenos\s+aires)\b`), "America/Argentina/Buenos_Aires"},
	{regexp.MustCompile(`\b(?:chile|santiago)\b`), "America/Santiago"},
	{regexp.MustCompile(`\b(?:espana|madrid|cet|cest)\b`), "Europe/Madrid"},
	{regexp.MustCompile(`\b(?:london|united\s+kingdom|uk|bst)\b`), "Europe/London"},
}

var actionTokens = toSet(
	"enviar", "enviamos", "enviarle", "preparar", "prepara", "revisar", "revisa", "crear", "crea",
	"actualizar", "actualiza", "compartir", "comparte", "coordinar", "coordina", "agendar", "agenda",
	"programar", "programa", "documentar", "documenta", "definir", "define", "confirmar", "confirma",
	"validar", "valida", "investigar", "investiga", "resolver", "resuelve", "entregar", "entrega",
	"completar", "completa", "terminar", "termina", "redactar", "redacta", "llamar", "llama",
	"contactar", "contacta", "escribir", "escribe", "subir", "sube", "priorizar", "prioriza",
	"send", "prepare", "review", "create", "update", "share", "schedule", "call", "deliver",
	"finish", "complete",
)

var dateOnlyTokens = toSet(
	"hoy", "manana", "ayer", "pasado", "semana", "semanas", "mes", "meses", "ano", "anos", "este",
	"actual", "enero", "febrero", "marzo", "abril", "abrir", "mayo", "junio", "julio", "agosto",
	"septiembre", "setiembre", "octubre", "noviembre", "diciembre",
)

func toSet(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

func normalizePlatform(value interface{}) string {
	text := optionalText(value)
	if text == "" {
		return ""
	}
	normalized := normalizeForMatching(text)
	switch {
	case googleMeetRe.MatchString(normalized):
		return entities.PlatformGoogleMeet
	case teamsRe.MatchString(normalized):
		return entities.PlatformMicrosoftTeams
	case autoRe.MatchString(normalized):
		return entities.PlatformAuto
	}
	return ""
}

func looksLikeScheduledMeetingRequest(title, details, sourceSentence string) bool {
	normalizedTitle := normalizeForMatching(title)
	if normalizedTitle == "" || !meetingKeywordRe.MatchString(normalizedTitle) {
		return false
	}
	if meetingRecapRe.MatchString(normalizedTitle) {
		return false
	}

	combined := normalizeForMatching(joinNonEmpty(title, details, sourceSentence))
	if meetingRecapRe.MatchString(combined) {
		return false
	}
	if scheduleMeetRe.MatchString(combined) || obligedMeetRe.MatchString(combined) {
		return true
	}
	return scheduleVerbRe.MatchString(combined)
}

// extractTimezone returns an IANA zone named in text, or one matched by alias
func extractTimezone(text string) string {
	for _, token := range ianaTokenRe.FindAllString(text, -1) {
		if _, err := time.LoadLocation(token); err == nil {
			return token
		}
	}
	normalized := normalizeForMatching(text)
	for _, alias := range timezoneAliases {
		if alias.re.MatchString(normalized) {
			return alias.zone
		}
	}
	return ""
}

func looksLikeActionItem(item *entities.ActionItem) bool {
	normalizedTitle := normalizeForMatching(item.Title)
	if isTriviallyNonAction(normalizedTitle) {
		return false
	}
	if containsActionMarker(normalizeForMatching(joinNonEmpty(item.Title, item.Details, item.SourceSentence))) {
		return true
	}

	hasAssignment := item.AssigneeEmail != "" || item.AssigneeName != ""
	hasDate := item.DueDate != "" || item.ScheduledStart != ""
	return (hasAssignment || hasDate) && isNonGenericTitle(normalizedTitle)
}

func containsActionMarker(normalized string) bool {
	for _, re := range obligationRes {
		if re.MatchString(normalized) {
			return true
		}
	}
	for _, tok := range wordTokenRe.FindAllString(normalized, -1) {
		if actionTokens[tok] {
			return true
		}
	}
	return false
}

func isTriviallyNonAction(normalizedTitle string) bool {
	if normalizedTitle == "" || trivialTitleRe.MatchString(normalizedTitle) {
		return true
	}
	tokens := wordTokenRe.FindAllString(normalizedTitle, -1)
	if len(tokens) == 0 {
		return true
	}
	return len(tokens) == 1 && isDigits(tokens[0])
}

func isNonGenericTitle(normalizedTitle string) bool {
	tokens := wordTokenRe.FindAllString(normalizedTitle, -1)
	if len(tokens) < 2 {
		return false
	}
	for _, tok := range tokens {
		if !isDigits(tok) && !dateOnlyTokens[tok] {
			return true
		}
	}
	return false
}

func joinNonEmpty(values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
