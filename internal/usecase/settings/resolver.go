package settings

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

// scoreKeys are the overrides that make a participant's settings preferable
var scoreKeys = []string{
	"NOTION_API_TOKEN",
	"NOTION_TASKS_DATABASE_ID",
	"GOOGLE_CALENDAR_API_TOKEN",
	"GOOGLE_CALENDAR_REFRESH_TOKEN",
	"OUTLOOK_CALENDAR_API_TOKEN",
	"TRANSCRIPTION_AUTOSYNC_ENABLED",
}

// Selection is the settings chosen for a direct sync together with their owner
type Selection struct {
	UserID   string
	Settings config.IntegrationSettings
}

// Resolver overlays stored per-user overrides onto the base integration settings
type Resolver struct {
	base        config.IntegrationSettings
	users       repositories.UserRepository
	values      repositories.UserSettingsRepository
	forceUserID string
	logger      *zap.Logger
}

// NewResolver creates a settings resolver. users and values may be nil, in
// which case every resolution returns base.
func NewResolver(
	base config.IntegrationSettings,
	users repositories.UserRepository,
	values repositories.UserSettingsRepository,
	forceUserID string,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		base:        base,
		users:       users,
		values:      values,
		forceUserID: strings.TrimSpace(forceUserID),
		logger:      logger,
	}
}

// Base returns the project-wide settings
func (r *Resolver) Base() config.IntegrationSettings {
	return r.base
}

// Resolve returns the effective settings of one user
func (r *Resolver) Resolve(ctx context.Context, userID string) (config.IntegrationSettings, error) {
	values, err := r.load(ctx, userID)
	if err != nil {
		return r.base, err
	}
	return Merge(r.base, values), nil
}

// ResolveForParticipants picks the settings of a direct sync: the forced user,
// else the scoped user, else the participant with the highest score, else base.
func (r *Resolver) ResolveForParticipants(ctx context.Context, emails []string, scopedUserID string) Selection {
	for _, id := range []string{r.forceUserID, strings.TrimSpace(scopedUserID)} {
		if id == "" {
			continue
		}
		s, err := r.Resolve(ctx, id)
		if err != nil {
			r.warn("failed to resolve user settings", id, err)
			return Selection{Settings: r.base}
		}
		return Selection{UserID: id, Settings: s}
	}

	if r.users == nil || r.values == nil || len(emails) == 0 {
		return Selection{Settings: r.base}
	}
	users, err := r.users.FindByEmails(ctx, emails)
	if err != nil {
		r.warn("failed to look up participant accounts", "", err)
		return Selection{Settings: r.base}
	}

	best := Selection{Settings: r.base}
	bestScore := 0
	seen := map[uuid.UUID]bool{}
	for _, u := range orderByEmails(users, emails) {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		values, err := r.values.GetValues(ctx, u.ID)
		if err != nil {
			r.warn("failed to load participant settings", u.ID.String(), err)
			continue
		}
		if score := Score(values); score > bestScore {
			bestScore = score
			best = Selection{UserID: u.ID.String(), Settings: Merge(r.base, values)}
		}
	}
	return best
}

// StoreTokens persists freshly issued credentials for a user
func (r *Resolver) StoreTokens(ctx context.Context, userID string, values map[string]string) error {
	if r.values == nil {
		return nil
	}
	id, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	return r.values.SetValues(ctx, id, values)
}

func (r *Resolver) load(ctx context.Context, userID string) (map[string]string, error) {
	if r.values == nil {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	values, err := r.values.GetValues(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user settings: %w", err)
	}
	return values, nil
}

func (r *Resolver) warn(msg, userID string, err error) {
	if r.logger != nil {
		r.logger.Warn(msg, zap.String("user_id", userID), zap.Error(err))
	}
}

// Score counts the configured score keys among values
func Score(values map[string]string) int {
	score := 0
	for _, k := range scoreKeys {
		if strings.TrimSpace(values[k]) != "" {
			score++
		}
	}
	return score
}

// Merge overlays values onto base. Unknown keys, global keys and values that
// do not coerce to the field type are ignored.
func Merge(base config.IntegrationSettings, values map[string]string) config.IntegrationSettings {
	out := base
	target := reflect.ValueOf(&out).Elem()
	for key, raw := range values {
		field, ok := schema[strings.ToUpper(strings.TrimSpace(key))]
		if !ok || field.global {
			continue
		}
		v, ok := field.coerce(raw)
		if !ok {
			continue
		}
		target.Field(field.index).Set(reflect.ValueOf(v))
	}
	return out
}

// Coerce converts a raw override to the declared type of key. It reports false
// for unknown or global keys and for values that do not parse.
func Coerce(key, raw string) (interface{}, bool) {
	field, ok := schema[strings.ToUpper(strings.TrimSpace(key))]
	if !ok || field.global {
		return nil, false
	}
	return field.coerce(raw)
}

type fieldSpec struct {
	index  int
	kind   reflect.Kind
	global bool
}

var schema = buildSchema()

func buildSchema() map[string]fieldSpec {
	t := reflect.TypeOf(config.IntegrationSettings{})
	out := make(map[string]fieldSpec, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("envconfig")
		if key == "" {
			continue
		}
		out[key] = fieldSpec{
			index:  i,
			kind:   f.Type.Kind(),
			global: f.Tag.Get("scope") == "global",
		}
	}
	return out
}

func (f fieldSpec) coerce(raw string) (interface{}, bool) {
	trimmed := strings.TrimSpace(raw)
	switch f.kind {
	case reflect.Slice:
		var items []string
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				items = append(items, p)
			}
		}
		return items, true
	case reflect.Bool:
		switch strings.ToLower(trimmed) {
		case "1", "true", "yes", "on":
			return true, true
		case "0", "false", "no", "off":
			return false, true
		}
		return nil, false
	case reflect.Int:
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, false
		}
		return n, true
	case reflect.Float64:
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case reflect.String:
		if trimmed == "" {
			return nil, false
		}
		return trimmed, true
	}
	return nil, false
}

// orderByEmails returns users in the order their emails appear in emails
func orderByEmails(users []*entities.User, emails []string) []*entities.User {
	byEmail := make(map[string]*entities.User, len(users))
	for _, u := range users {
		byEmail[entities.NormalizeEmail(u.Email)] = u
	}
	out := make([]*entities.User, 0, len(users))
	for _, e := range emails {
		if u, ok := byEmail[entities.NormalizeEmail(e)]; ok {
			out = append(out, u)
			delete(byEmail, entities.NormalizeEmail(e))
		}
	}
	return out
}
