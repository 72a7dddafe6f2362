package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

const defaultEventDuration = 60

var (
	platformKeys  = []string{"online_meeting_platform", "video_meeting_platform", "video_platform", "meeting_platform", "conference_platform"}
	timezoneKeys  = []string{"event_timezone", "timezone", "time_zone", "tz", "meeting_timezone", "calendar_timezone"}
	startKeys     = []string{"scheduled_start", "start_datetime", "start_at", "event_start", "meeting_start", "due_datetime", "calendar_start", "starts_at"}
	endKeys       = []string{"scheduled_end", "end_datetime", "end_at", "event_end", "meeting_end", "calendar_end", "ends_at"}
	timeKeys      = []string{"due_time", "time", "start_time", "meeting_time", "hora", "hour"}
	durationKeys  = []string{"duration_minutes", "meeting_duration_minutes", "duration"}
	contextKeys   = []string{"source_sentence", "details", "title"}
	truthyStrings = toSet("true", "1", "si", "yes", "on")

	durationHoursRe   = regexp.MustCompile(`\b(\d+)\s*(?:h|hora|horas)\b`)
	durationMinutesRe = regexp.MustCompile(`\b(\d+)\s*(?:m|min|minuto|minutos)\b`)
)

// Normalize turns one model-produced candidate into an ActionItem.
// It returns false when the candidate has no title or does not read as a task.
func Normalize(raw map[string]interface{}, ref time.Time) (entities.ActionItem, bool) {
	ref = dateOnly(ref)
	title := optionalText(raw["title"])
	if title == "" {
		return entities.ActionItem{}, false
	}
	item := entities.ActionItem{
		Title:          title,
		AssigneeEmail:  entities.NormalizeEmail(optionalText(raw["assignee_email"])),
		AssigneeName:   optionalText(raw["assignee_name"]),
		Details:        optionalText(raw["details"]),
		SourceSentence: optionalText(raw["source_sentence"]),
	}

	item.DueDate = normalizeDueDate(raw["due_date"], ref)
	if item.DueDate == "" {
		item.DueDate = dueDateFromContext(raw, ref)
	}

	for _, key := range []string{"recurrence_rule", "rrule", "recurrence"} {
		if item.RecurrenceRule = normalizeRecurrence(raw[key]); item.RecurrenceRule != "" {
			break
		}
	}
	if item.RecurrenceRule == "" {
		for _, key := range contextKeys {
			if text := optionalText(raw[key]); text != "" {
				if item.RecurrenceRule = parseRecurrenceFromText(text, item.DueDate); item.RecurrenceRule != "" {
					break
				}
			}
		}
	}
	if item.DueDate == "" && item.RecurrenceRule != "" {
		item.DueDate = formatDate(dueDateFromRecurrence(item.RecurrenceRule, ref))
	}

	item.OnlineMeetingPlatform = resolvePlatform(raw, item)
	item.EventTimezone = resolveTimezone(raw)

	start, hasStart := scheduledStart(raw, item.DueDate, ref)
	if item.DueDate == "" && hasStart {
		item.DueDate = formatDate(start.t)
	}
	if item.DueDate != "" && !hasStart {
		due, _ := parseISODate(item.DueDate)
		if c, ok := timeFromContext(raw); ok {
			start, hasStart = localDateTime{t: atClock(due, c)}, true
		} else if item.RecurrenceRule != "" || item.OnlineMeetingPlatform != "" {
			start, hasStart = localDateTime{t: atClock(due, clock{9, 0})}, true
		}
	}
	if hasStart {
		item.ScheduledStart = start.String()
		if end, ok := scheduledEnd(raw, start); ok {
			item.ScheduledEnd = end.String()
		}
	} else if end, ok := explicitEnd(raw, time.Time{}); ok {
		item.ScheduledEnd = end.String()
	}

	if !looksLikeActionItem(&item) {
		return entities.ActionItem{}, false
	}
	return item, true
}

func optionalText(value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func normalizeDueDate(value interface{}, ref time.Time) string {
	text := optionalText(value)
	if text == "" {
		return ""
	}
	if d, ok := parseISODate(text); ok {
		return formatDate(d)
	}
	if d, ok := ResolveRelativeDate(text, ref); ok {
		return formatDate(d)
	}
	return ""
}

func dueDateFromContext(raw map[string]interface{}, ref time.Time) string {
	for _, key := range contextKeys {
		text := optionalText(raw[key])
		if text == "" {
			continue
		}
		if d, ok := ResolveRelativeDate(text, ref); ok {
			return formatDate(d)
		}
	}
	return ""
}

func resolvePlatform(raw map[string]interface{}, item entities.ActionItem) string {
	for _, key := range platformKeys {
		if p := normalizePlatform(raw[key]); p != "" {
			return p
		}
	}
	switch v := raw["requires_online_meeting"].(type) {
	case bool:
		if v {
			return entities.PlatformAuto
		}
	case string:
		if truthyStrings[strings.ToLower(strings.TrimSpace(v))] {
			return entities.PlatformAuto
		}
	}
	for _, key := range contextKeys {
		if p := normalizePlatform(raw[key]); p != "" {
			return p
		}
	}
	if looksLikeScheduledMeetingRequest(item.Title, item.Details, item.SourceSentence) {
		return entities.PlatformAuto
	}
	return ""
}

func resolveTimezone(raw map[string]interface{}) string {
	for _, key := range timezoneKeys {
		if text := optionalText(raw[key]); text != "" {
			if tz := extractTimezone(text); tz != "" {
				return tz
			}
		}
	}
	for _, key := range contextKeys {
		if text := optionalText(raw[key]); text != "" {
			if tz := extractTimezone(text); tz != "" {
				return tz
			}
		}
	}
	return ""
}

// localDateTime is a wall-clock datetime; zoned ones keep their offset
type localDateTime struct {
	t     time.Time
	zoned bool
}

func (l localDateTime) String() string {
	if l.zoned {
		return l.t.Format(time.RFC3339)
	}
	return l.t.Format("2006-01-02T15:04:05")
}

func (l localDateTime) add(d time.Duration) localDateTime {
	return localDateTime{t: l.t.Add(d), zoned: l.zoned}
}

func atClock(day time.Time, c clock) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, time.UTC)
}

var (
	datetimeLayouts = []string{
		"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02T15:04",
		"2006-01-02 15:04:05", "2006-01-02 15:04", "2006/01/02 15:04",
		"02/01/2006 15:04", "02-01-2006 15:04",
	}
	dateLayouts = []string{"2006-01-02", "2006/01/02", "02/01/2006", "02-01-2006"}
)

// parseDateTimeValue reads ISO or common datetime strings; a bare date means 09:00.
// Free text falls back to the date and time grammars.
func parseDateTimeValue(value interface{}, ref time.Time) (localDateTime, bool) {
	text := optionalText(value)
	if text == "" {
		return localDateTime{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, strings.Replace(text, " ", "T", 1)); err == nil {
		return localDateTime{t: t, zoned: true}, true
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return localDateTime{t: t}, true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return localDateTime{t: atClock(t, clock{9, 0})}, true
		}
	}

	if ref.IsZero() {
		ref = dateOnly(time.Now().UTC())
	}
	day, okDay := ResolveRelativeDate(text, ref)
	c, okClock := parseTimeFromText(text)
	if okDay && okClock {
		return localDateTime{t: atClock(day, c)}, true
	}
	return localDateTime{}, false
}

func scheduledStart(raw map[string]interface{}, dueDate string, ref time.Time) (localDateTime, bool) {
	for _, key := range startKeys {
		if dt, ok := parseDateTimeValue(raw[key], ref); ok {
			return dt, true
		}
	}
	if due, ok := parseISODate(dueDate); ok {
		if c, ok := timeFromPayload(raw); ok {
			return localDateTime{t: atClock(due, c)}, true
		}
	}
	for _, key := range contextKeys {
		text := optionalText(raw[key])
		if text == "" {
			continue
		}
		day, okDay := ResolveRelativeDate(text, ref)
		c, okClock := parseTimeFromText(text)
		if okDay && okClock {
			return localDateTime{t: atClock(day, c)}, true
		}
	}
	return localDateTime{}, false
}

func explicitEnd(raw map[string]interface{}, ref time.Time) (localDateTime, bool) {
	for _, key := range endKeys {
		if dt, ok := parseDateTimeValue(raw[key], ref); ok {
			return dt, true
		}
	}
	return localDateTime{}, false
}

func scheduledEnd(raw map[string]interface{}, start localDateTime) (localDateTime, bool) {
	if end, ok := explicitEnd(raw, dateOnly(start.t)); ok {
		return end, true
	}
	minutes, ok := durationMinutes(raw)
	if !ok {
		minutes = defaultEventDuration
	}
	return start.add(time.Duration(minutes) * time.Minute), true
}

func durationMinutes(raw map[string]interface{}) (int, bool) {
	for _, key := range durationKeys {
		switch v := raw[key].(type) {
		case float64:
			if v == float64(int(v)) && v > 0 && v <= 1440 {
				return int(v), true
			}
		case string:
			normalized := normalizeForMatching(v)
			if normalized == "" {
				continue
			}
			if isDigits(normalized) {
				if n, err := strconv.Atoi(normalized); err == nil && n > 0 && n <= 1440 {
					return n, true
				}
			}
			hours := durationHoursRe.FindStringSubmatch(normalized)
			mins := durationMinutesRe.FindStringSubmatch(normalized)
			if hours == nil && mins == nil {
				continue
			}
			total := 0
			if hours != nil {
				h, _ := strconv.Atoi(hours[1])
				total += h * 60
			}
			if mins != nil {
				m, _ := strconv.Atoi(mins[1])
				total += m
			}
			if total > 0 && total <= 1440 {
				return total, true
			}
		}
	}
	return 0, false
}

func timeFromPayload(raw map[string]interface{}) (clock, bool) {
	for _, key := range timeKeys {
		switch v := raw[key].(type) {
		case float64:
			if h := int(v); h >= 0 && h <= 23 {
				return clock{h, 0}, true
			}
		case string:
			if c, ok := parseTimeFromText(v); ok {
				return c, true
			}
		}
	}
	return clock{}, false
}

func timeFromContext(raw map[string]interface{}) (clock, bool) {
	for _, key := range contextKeys {
		if text := optionalText(raw[key]); text != "" {
			if c, ok := parseTimeFromText(text); ok {
				return c, true
			}
		}
	}
	return clock{}, false
}
