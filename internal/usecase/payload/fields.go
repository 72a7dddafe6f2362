package payload

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// Converter turns a raw JSON value into a field value
type Converter func(value interface{}) (string, bool)

// FieldRule is one candidate location of a logical field
type FieldRule struct {
	Path    string
	Convert Converter
}

// Field is an ordered rule list; the first rule producing a value wins
type Field []FieldRule

// Extract evaluates the rules against payload
func (f Field) Extract(payload map[string]interface{}) string {
	for _, rule := range f {
		value, ok := LookupPath(payload, rule.Path)
		if !ok {
			continue
		}
		if out, ok := rule.Convert(value); ok {
			return out
		}
	}
	return ""
}

func textRules(paths ...string) Field {
	f := make(Field, 0, len(paths))
	for _, p := range paths {
		f = append(f, FieldRule{Path: p, Convert: convertText})
	}
	return f
}

// Field tables shared by all providers
var (
	PlatformField        = textRules("meeting.platform", "meeting.meeting_platform", "meeting.source", "platform", "source")
	MeetingURLField      = textRules("meeting.url", "meeting.join_url", "meeting.link", "join_url", "url")
	MeetingIDField       = textRules("meeting.id", "meeting.meeting_id", "meeting.external_id", "meetingId", "meeting_id")
	ClientReferenceField = textRules("clientReferenceId", "client_reference_id")
	TranscriptIDField    = textRules("transcript.id", "transcript.transcript_id", "transcriptId", "transcript_id")
	EventTypeField       = textRules("event", "event_type", "eventType", "type")
	TranscriptTextField  = textRules(
		"transcript.text", "transcript.content", "transcript.full_text", "transcript",
		"summary.transcript", "summary.text", "data.transcript", "data.transcript.text",
		"meeting.transcript", "sentences", "paragraphs",
	)
	RecordMeetingURLField = textRules("meeting_url", "meeting_platform_url", "raw_payload.meeting_link")
)

// LookupPath walks a dotted path through nested objects
func LookupPath(payload map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = payload
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func convertText(value interface{}) (string, bool) {
	text := ToText(value)
	return text, text != ""
}

// ToText flattens a JSON value into text: strings are trimmed, lists are
// joined by newline and objects yield their text/content/transcript/value.
func ToText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if text := ToText(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]interface{}:
		for _, key := range []string{"text", "content", "transcript", "value"} {
			if text := ToText(v[key]); text != "" {
				return text
			}
		}
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(value)
}

// ToFloat reads a number or numeric string; booleans are rejected
func ToFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		cleaned := strings.TrimSpace(v)
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		return f, err == nil
	}
	return 0, false
}

// ToInt reads an integral number or numeric string; booleans are rejected
func ToInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case string:
		cleaned := strings.TrimSpace(v)
		if cleaned == "" {
			return 0, false
		}
		n, err := strconv.Atoi(cleaned)
		return n, err == nil
	}
	return 0, false
}

// ExtractSentences reads the sentence list of a fetched provider transcript
func ExtractSentences(transcript map[string]interface{}) []entities.Sentence {
	raw, ok := transcript["sentences"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]entities.Sentence, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		text, ok := m["text"].(string)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		s := entities.Sentence{
			Text:        strings.TrimSpace(text),
			SpeakerName: ToText(m["speaker_name"]),
			SpeakerID:   ToText(m["speaker_id"]),
		}
		if n, ok := ToInt(m["index"]); ok {
			s.Index = &n
		}
		if f, ok := ToFloat(m["start_time"]); ok {
			s.StartTime = &f
		}
		if f, ok := ToFloat(m["end_time"]); ok {
			s.EndTime = &f
		}
		out = append(out, s)
	}
	return out
}

// InferPlatformFromURL recognizes Google Meet and Teams join links
func InferPlatformFromURL(meetingURL string) string {
	lowered := strings.ToLower(meetingURL)
	switch {
	case strings.Contains(lowered, "meet.google.com"):
		return entities.PlatformGoogleMeet
	case strings.Contains(lowered, "teams.microsoft.com"), strings.Contains(lowered, "teams.live.com"):
		return entities.PlatformMicrosoftTeams
	}
	return ""
}

// IsGoogleMeet reports whether the platform or url points at Google Meet
func IsGoogleMeet(platform, meetingURL string) bool {
	for _, value := range []string{platform, meetingURL} {
		lowered := strings.ToLower(value)
		if lowered == "" {
			continue
		}
		if strings.Contains(lowered, "meet.google.com") {
			return true
		}
		if strings.Contains(lowered, "google") && strings.Contains(lowered, "meet") {
			return true
		}
	}
	return false
}
