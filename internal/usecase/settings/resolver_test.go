package settings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

type fakeUsers struct {
	users []*entities.User
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByEmails(_ context.Context, emails []string) ([]*entities.User, error) {
	var out []*entities.User
	for _, u := range f.users {
		for _, e := range emails {
			if u.Email == e {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type fakeValues struct {
	values map[uuid.UUID]map[string]string
}

func (f *fakeValues) GetValues(_ context.Context, userID uuid.UUID) (map[string]string, error) {
	return f.values[userID], nil
}

func (f *fakeValues) SetValues(_ context.Context, userID uuid.UUID, values map[string]string) error {
	if f.values[userID] == nil {
		f.values[userID] = map[string]string{}
	}
	for k, v := range values {
		f.values[userID][k] = v
	}
	return nil
}

func baseSettings() config.IntegrationSettings {
	return config.IntegrationSettings{
		AutosyncEnabled:  true,
		GeminiAPIKey:     "project-key",
		NotionAPIVersion: "2022-06-28",
		MaxActionItems:   25,
		ExtraAttendees:   []string{"ops@x.com"},
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		key  string
		raw  string
		want interface{}
		ok   bool
	}{
		{"TRANSCRIPTION_AUTOSYNC_ENABLED", "off", false, true},
		{"TRANSCRIPTION_AUTOSYNC_ENABLED", " YES ", true, true},
		{"TRANSCRIPTION_AUTOSYNC_ENABLED", "maybe", nil, false},
		{"MAX_ACTION_ITEMS", "10", 10, true},
		{"MAX_ACTION_ITEMS", "ten", nil, false},
		{"NOTION_API_TIMEOUT_SECONDS", "2.5", 2.5, true},
		{"EXTRA_CALENDAR_ATTENDEES", "a@x.com, ,b@x.com", []string{"a@x.com", "b@x.com"}, true},
		{"notion_api_token", " secret ", "secret", true},
		{"NOTION_API_TOKEN", "   ", nil, false},
		{"GEMINI_API_KEY", "user-key", nil, false},
		{"UNKNOWN_SETTING", "x", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.raw, func(t *testing.T) {
			got, ok := Coerce(tt.key, tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMerge_KeepsGlobalKeyAndIgnoresBadValues(t *testing.T) {
	merged := Merge(baseSettings(), map[string]string{
		"GEMINI_API_KEY":           "user-key",
		"NOTION_API_TOKEN":         "tok",
		"NOTION_TASKS_DATABASE_ID": "db",
		"MAX_ACTION_ITEMS":         "lots",
		"EXTRA_CALENDAR_ATTENDEES": "x@x.com",
	})
	assert.Equal(t, "project-key", merged.GeminiAPIKey)
	assert.True(t, merged.NotionConfigured())
	assert.Equal(t, 25, merged.MaxActionItems)
	assert.Equal(t, []string{"x@x.com"}, merged.ExtraAttendees)
	assert.Equal(t, "2022-06-28", merged.NotionAPIVersion)
}

func TestResolveForParticipants(t *testing.T) {
	low := &entities.User{ID: uuid.New(), Email: "low@x.com"}
	high := &entities.User{ID: uuid.New(), Email: "high@x.com"}
	forced := &entities.User{ID: uuid.New(), Email: "force@x.com"}
	users := &fakeUsers{users: []*entities.User{low, high, forced}}
	values := &fakeValues{values: map[uuid.UUID]map[string]string{
		low.ID:    {"NOTION_API_TOKEN": "low"},
		high.ID:   {"NOTION_API_TOKEN": "high", "NOTION_TASKS_DATABASE_ID": "db", "TRANSCRIPTION_AUTOSYNC_ENABLED": "true"},
		forced.ID: {"NOTION_API_TOKEN": "forced"},
	}}
	emails := []string{"low@x.com", "high@x.com"}

	t.Run("best score", func(t *testing.T) {
		sel := NewResolver(baseSettings(), users, values, "", nil).ResolveForParticipants(context.Background(), emails, "")
		assert.Equal(t, high.ID.String(), sel.UserID)
		assert.Equal(t, "high", sel.Settings.NotionAPIToken)
	})

	t.Run("scoped user wins over score", func(t *testing.T) {
		sel := NewResolver(baseSettings(), users, values, "", nil).ResolveForParticipants(context.Background(), emails, low.ID.String())
		assert.Equal(t, low.ID.String(), sel.UserID)
		assert.Equal(t, "low", sel.Settings.NotionAPIToken)
	})

	t.Run("forced user wins over scope", func(t *testing.T) {
		sel := NewResolver(baseSettings(), users, values, forced.ID.String(), nil).ResolveForParticipants(context.Background(), emails, low.ID.String())
		assert.Equal(t, forced.ID.String(), sel.UserID)
		assert.Equal(t, "forced", sel.Settings.NotionAPIToken)
	})

	t.Run("no scored participant keeps base", func(t *testing.T) {
		sel := NewResolver(baseSettings(), users, values, "", nil).ResolveForParticipants(context.Background(), []string{"nobody@x.com"}, "")
		assert.Empty(t, sel.UserID)
		assert.Equal(t, baseSettings(), sel.Settings)
	})
}

func TestStoreTokens(t *testing.T) {
	id := uuid.New()
	values := &fakeValues{values: map[uuid.UUID]map[string]string{}}
	r := NewResolver(baseSettings(), nil, values, "", nil)

	require.NoError(t, r.StoreTokens(context.Background(), id.String(), map[string]string{"GOOGLE_CALENDAR_API_TOKEN": "fresh"}))
	s, err := r.Resolve(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, "fresh", s.GoogleCalendarAPIToken)

	assert.Error(t, r.StoreTokens(context.Background(), "not-a-uuid", nil))
}
