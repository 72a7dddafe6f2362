package participants

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

var payloadParticipantPaths = [][]string{
	{"participant_emails"},
	{"participants"},
	{"attendees"},
	{"meeting", "participants"},
	{"meeting", "attendees"},
	{"meeting_attendees"},
}

// Directory maps known accounts to display names.
// repositories.UserRepository satisfies it.
type Directory interface {
	FindByEmails(ctx context.Context, emails []string) ([]*entities.User, error)
}

// Resolver builds the canonical participant list of a meeting
type Resolver struct {
	directory Directory
	logger    *zap.Logger
}

// NewResolver creates a resolver. directory may be nil.
func NewResolver(directory Directory, logger *zap.Logger) *Resolver {
	return &Resolver{directory: directory, logger: logger}
}

// Resolve merges participants from the fetched provider transcript, the raw
// payload and the sentence speakers. It returns the participants in discovery
// order and the sorted set of their emails.
func (r *Resolver) Resolve(ctx context.Context, fetched, payload map[string]interface{}, sentences []entities.Sentence) ([]entities.Participant, []string) {
	list := &participantList{}
	for _, p := range fromTranscript(fetched) {
		list.add(p)
	}
	for _, p := range fromPayload(payload) {
		list.add(p)
	}

	names := r.directoryNames(ctx, list.emails())
	for _, speaker := range speakers(sentences) {
		if list.mergeSpeaker(speaker, names) {
			continue
		}
		list.items = append(list.items, speaker)
	}
	return list.items, list.emails()
}

// directoryNames maps lower-cased display names to the resolved email owning them
func (r *Resolver) directoryNames(ctx context.Context, emails []string) map[string]string {
	if r.directory == nil || len(emails) == 0 {
		return nil
	}
	users, err := r.directory.FindByEmails(ctx, emails)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("participant directory lookup failed", zap.Error(err))
		}
		return nil
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		name := strings.ToLower(strings.TrimSpace(u.FullName))
		email := entities.NormalizeEmail(u.Email)
		if name == "" || email == "" {
			continue
		}
		names[name] = email
	}
	return names
}

// SanitizeEmails lower-cases, validates, dedups and sorts addresses
func SanitizeEmails(emails []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(emails))
	for _, raw := range emails {
		email := entities.NormalizeEmail(raw)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	sort.Strings(out)
	return out
}

type participantList struct {
	items []entities.Participant
}

func (l *participantList) add(p entities.Participant) {
	if p.Key() == "" {
		return
	}
	if i := l.find(p); i >= 0 {
		l.items[i].Merge(p)
		return
	}
	l.items = append(l.items, p)
}

// find locates an entry sharing the highest-priority identity of p
func (l *participantList) find(p entities.Participant) int {
	if p.Email != "" {
		for i, existing := range l.items {
			if existing.Email == p.Email {
				return i
			}
		}
	}
	if p.ExternalID != "" {
		for i, existing := range l.items {
			if existing.ExternalID == p.ExternalID && compatibleEmail(existing, p) {
				return i
			}
		}
	}
	if p.Name != "" {
		for i, existing := range l.items {
			if strings.EqualFold(existing.Name, p.Name) && compatibleEmail(existing, p) {
				return i
			}
		}
	}
	return -1
}

func compatibleEmail(a, b entities.Participant) bool {
	return a.Email == "" || b.Email == "" || a.Email == b.Email
}

// mergeSpeaker folds a sentence speaker into an existing entry by external
// id, then name, then directory display name
func (l *participantList) mergeSpeaker(speaker entities.Participant, names map[string]string) bool {
	if speaker.ExternalID != "" {
		for i := range l.items {
			if l.items[i].ExternalID == speaker.ExternalID {
				l.items[i].Merge(speaker)
				return true
			}
		}
	}
	if speaker.Name != "" {
		for i := range l.items {
			if strings.EqualFold(l.items[i].Name, speaker.Name) {
				l.items[i].Merge(speaker)
				return true
			}
		}
		if email, ok := names[strings.ToLower(speaker.Name)]; ok {
			for i := range l.items {
				if l.items[i].Email == email {
					l.items[i].Merge(speaker)
					return true
				}
			}
		}
	}
	return false
}

func (l *participantList) emails() []string {
	emails := make([]string, 0, len(l.items))
	for _, p := range l.items {
		if p.Email != "" {
			emails = append(emails, p.Email)
		}
	}
	return SanitizeEmails(emails)
}

func fromTranscript(t map[string]interface{}) []entities.Participant {
	if t == nil {
		return nil
	}
	var out []entities.Participant
	if email := emailOf(t["organizer_email"]); email != "" {
		out = append(out, entities.Participant{Email: email, Role: "organizer"})
	}
	if email := emailOf(t["host_email"]); email != "" {
		out = append(out, entities.Participant{Email: email, Role: "host"})
	}
	if user, ok := t["user"].(map[string]interface{}); ok {
		if p := fromValue(user); p.Key() != "" {
			out = append(out, p)
		}
	}
	for _, key := range []string{"participants", "fireflies_users", "meeting_attendees"} {
		values, ok := t[key].([]interface{})
		if !ok {
			continue
		}
		for _, v := range values {
			if p := fromValue(v); p.Key() != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func fromPayload(payload map[string]interface{}) []entities.Participant {
	var out []entities.Participant
	for _, path := range payloadParticipantPaths {
		values, ok := lookup(payload, path).([]interface{})
		if !ok {
			continue
		}
		for _, v := range values {
			// bare strings in payload lists are emails only
			if s, isString := v.(string); isString {
				if email := entities.NormalizeEmail(s); email != "" {
					out = append(out, entities.Participant{Email: email})
				}
				continue
			}
			if p := fromValue(v); p.Key() != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func fromValue(v interface{}) entities.Participant {
	switch t := v.(type) {
	case string:
		if email := entities.NormalizeEmail(t); email != "" {
			return entities.Participant{Email: email}
		}
		return entities.Participant{Name: strings.TrimSpace(t)}
	case map[string]interface{}:
		p := entities.Participant{
			Email:      emailOf(t["email"]),
			Name:       firstText(t, "name", "displayName", "display_name"),
			ExternalID: firstText(t, "id", "user_id", "external_id"),
			Role:       firstText(t, "role"),
		}
		return p
	}
	return entities.Participant{}
}

func speakers(sentences []entities.Sentence) []entities.Participant {
	seen := map[string]bool{}
	var out []entities.Participant
	for _, s := range sentences {
		name := strings.TrimSpace(s.SpeakerName)
		id := strings.TrimSpace(s.SpeakerID)
		if name == "" && id == "" {
			continue
		}
		key := strings.ToLower(name) + "|" + id
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, entities.Participant{Name: name, ExternalID: id, Role: "speaker"})
	}
	return out
}

func lookup(m map[string]interface{}, path []string) interface{} {
	var current interface{} = m
	for _, segment := range path {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = obj[segment]
	}
	return current
}

func emailOf(v interface{}) string {
	s, _ := v.(string)
	return entities.NormalizeEmail(s)
}

func firstText(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
