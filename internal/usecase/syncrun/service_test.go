package syncrun

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/usecase/extraction"
	"github.com/johnquangdev/meeting-sync/internal/usecase/publish"
	"github.com/johnquangdev/meeting-sync/internal/usecase/routing"
	"github.com/johnquangdev/meeting-sync/internal/usecase/settings"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

type fakeRouter struct {
	route routing.Routing
	err   error
}

func (f fakeRouter) Route(context.Context, []string, string) (routing.Routing, error) {
	return f.route, f.err
}

type fakeSettings struct {
	byUser map[string]config.IntegrationSettings
	direct settings.Selection
}

func (f fakeSettings) Resolve(_ context.Context, userID string) (config.IntegrationSettings, error) {
	return f.byUser[userID], nil
}

func (f fakeSettings) ResolveForParticipants(context.Context, []string, string) settings.Selection {
	return f.direct
}

type fakeExtractor struct {
	mu    sync.Mutex
	items []entities.ActionItem
	err   error
	calls int
}

func (f *fakeExtractor) CanGenerate() bool { return true }

func (f *fakeExtractor) Extract(context.Context, extraction.Input, extraction.Options) ([]entities.ActionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.items, f.err
}

type fakeTasks struct {
	failTitles map[string]bool
}

func (f fakeTasks) CreateTask(_ context.Context, item entities.ActionItem, _ string) (string, error) {
	if f.failTitles[item.Title] {
		return "", errors.New("Notion API HTTP 400")
	}
	return "page-" + item.Title, nil
}

type calendarLog struct {
	mu    sync.Mutex
	calls []string
}

type fakeCalendar struct {
	userID string
	log    *calendarLog
	err    error
}

func (f fakeCalendar) CreateEvent(_ context.Context, item entities.ActionItem, _ string, _ []string) (publish.EventDetails, error) {
	f.log.mu.Lock()
	defer f.log.mu.Unlock()
	f.log.calls = append(f.log.calls, f.userID+":"+item.Title)
	if f.err != nil {
		return publish.EventDetails{}, f.err
	}
	n := len(f.log.calls)
	return publish.EventDetails{
		EventID:  fmt.Sprintf("evt-%s-%d", f.userID, n),
		JoinLink: fmt.Sprintf("https://meet.google.com/%s-%d", f.userID, n),
	}, nil
}

type factory struct {
	log        *calendarLog
	failTitles map[string]map[string]bool
	eventErr   map[string]error
}

func (f factory) ForUser(userID string, st config.IntegrationSettings) publish.Clients {
	c := publish.Clients{
		Tasks:  map[entities.Channel]publish.TaskClient{},
		Events: map[entities.Channel]publish.EventClient{},
	}
	if st.NotionConfigured() {
		c.Tasks[entities.ChannelNotion] = fakeTasks{failTitles: f.failTitles[userID]}
	}
	if st.GoogleCalendarConfigured() {
		c.Events[entities.ChannelGoogleCalendar] = fakeCalendar{userID: userID, log: f.log, err: f.eventErr[userID]}
	}
	return c
}

func configured() config.IntegrationSettings {
	return config.IntegrationSettings{
		AutosyncEnabled:        true,
		GeminiAPIKey:           "key",
		NotionAPIToken:         "tok",
		NotionTasksDatabaseID:  "db",
		GoogleCalendarAPIToken: "g",
	}
}

type harness struct {
	svc       *Service
	log       *calendarLog
	extractor *fakeExtractor
}

func newHarness(route routing.Routing, st fakeSettings, items []entities.ActionItem, f factory) harness {
	if f.log == nil {
		f.log = &calendarLog{}
	}
	ex := &fakeExtractor{items: items}
	pub := publish.NewPublisher(f, time.Second, nil)
	return harness{
		svc:       NewService(fakeRouter{route: route}, st, ex, pub, 4, nil),
		log:       f.log,
		extractor: ex,
	}
}

func teamRoute(ids ...string) routing.Routing {
	return routing.Routing{RecipientIDs: ids, TeamIDs: []string{"team-1"}, Mode: entities.RoutingModeTeam}
}

func twoConfigured() fakeSettings {
	return fakeSettings{byUser: map[string]config.IntegrationSettings{"a": configured(), "b": configured()}}
}

var googleMeeting = entities.ActionItem{
	Title:                 "Daily",
	DueDate:               "2026-02-20",
	ScheduledStart:        "2026-02-20T09:00:00",
	ScheduledEnd:          "2026-02-20T10:00:00",
	OnlineMeetingPlatform: entities.PlatformGoogleMeet,
}

func userRun(t *testing.T, run entities.SyncRun, userID string) entities.UserRun {
	t.Helper()
	for _, u := range run.Users {
		if u.UserID == userID {
			return u
		}
	}
	t.Fatalf("no run for user %s", userID)
	return entities.UserRun{}
}

func TestRun_OwnerCreatesSharedMeetingOnce(t *testing.T) {
	h := newHarness(teamRoute("a", "b"), twoConfigured(), []entities.ActionItem{googleMeeting}, factory{})

	out := h.svc.Run(context.Background(), Request{MeetingID: "m1", ScopedUserID: "a", TranscriptText: "hola"})

	require.Len(t, h.log.calls, 1)
	assert.Equal(t, "a:Daily", h.log.calls[0])
	assert.Equal(t, 1, h.extractor.calls)

	a := userRun(t, out, "a")
	b := userRun(t, out, "b")
	aCell := a.Items[0].Cell(entities.ChannelGoogleCalendar)
	bCell := b.Items[0].Cell(entities.ChannelGoogleCalendar)
	assert.Equal(t, entities.StatusCreated, aCell.Status)
	assert.Equal(t, entities.StatusSharedFromTeamEvent, bCell.Status)
	assert.Equal(t, aCell.Link, bCell.Link)
	assert.Equal(t, aCell.ExternalID, bCell.ExternalID)
	assert.Equal(t, []entities.Channel{entities.ChannelGoogleCalendar}, a.OwnedChannels)

	assert.Equal(t, entities.StatusCompleted, out.Status)
	assert.Equal(t, entities.RoutingModeTeam, out.RoutingMode)
	assert.Equal(t, []string{"team-1"}, out.MatchedTeamIDs)
}

func TestRun_PlainReminderIsNotShared(t *testing.T) {
	reminder := entities.ActionItem{Title: "Enviar informe", DueDate: "2026-02-20"}
	h := newHarness(teamRoute("a", "b"), twoConfigured(), []entities.ActionItem{reminder}, factory{})

	out := h.svc.Run(context.Background(), Request{MeetingID: "m1", TranscriptText: "hola"})

	assert.Len(t, h.log.calls, 2)
	a := userRun(t, out, "a").Items[0].Cell(entities.ChannelGoogleCalendar)
	b := userRun(t, out, "b").Items[0].Cell(entities.ChannelGoogleCalendar)
	assert.Equal(t, entities.StatusCreated, a.Status)
	assert.Equal(t, entities.StatusCreated, b.Status)
	assert.NotEqual(t, a.ExternalID, b.ExternalID)
}

func TestRun_OwnerFailureMarksOthers(t *testing.T) {
	f := factory{eventErr: map[string]error{"a": errors.New("Google Calendar API HTTP 503")}}
	h := newHarness(teamRoute("a", "b"), twoConfigured(), []entities.ActionItem{googleMeeting}, f)

	out := h.svc.Run(context.Background(), Request{MeetingID: "m1", ScopedUserID: "a", TranscriptText: "hola"})

	require.Len(t, h.log.calls, 1)
	bCell := userRun(t, out, "b").Items[0].Cell(entities.ChannelGoogleCalendar)
	assert.Equal(t, entities.StatusOwnerFailed, bCell.Status)
	assert.Equal(t, "Google Calendar API HTTP 503", bCell.Error)
	assert.Empty(t, bCell.ExternalID)
}

func TestRun_PartialFailureRollsUpToCompletedWithErrors(t *testing.T) {
	items := []entities.ActionItem{{Title: "uno"}, {Title: "dos"}}
	f := factory{failTitles: map[string]map[string]bool{"a": {"dos": true}}}
	h := newHarness(teamRoute("a", "b"), twoConfigured(), items, f)

	out := h.svc.Run(context.Background(), Request{MeetingID: "m1", TranscriptText: "hola"})

	assert.Equal(t, entities.StatusCompletedWithErrors, userRun(t, out, "a").Status)
	assert.Equal(t, entities.StatusCompleted, userRun(t, out, "b").Status)
	assert.Equal(t, entities.StatusCompletedWithErrors, out.Status)
	assert.Equal(t, 3, out.CreatedCount)
	assert.Equal(t, 2, out.ExtractedCount)
}

func TestRun_AllFailedIsFailure(t *testing.T) {
	items := []entities.ActionItem{{Title: "uno"}}
	f := factory{failTitles: map[string]map[string]bool{"a": {"uno": true}, "b": {"uno": true}}}
	h := newHarness(teamRoute("a", "b"), twoConfigured(), items, f)

	out := h.svc.Run(context.Background(), Request{MeetingID: "m1", TranscriptText: "hola"})
	assert.Equal(t, entities.StatusFailedMultiUserSync, out.Status)
	assert.True(t, out.Status.IsFailure())
}

func TestRun_DisabledRecipientIsSkipped(t *testing.T) {
	st := twoConfigured()
	disabled := configured()
	disabled.AutosyncEnabled = false
	st.byUser["b"] = disabled
	h := newHarness(teamRoute("a", "b"), st, []entities.ActionItem{googleMeeting}, factory{})

	out := h.svc.Run(context.Background(), Request{MeetingID: "m1", TranscriptText: "hola"})

	b := userRun(t, out, "b")
	assert.Equal(t, entities.StatusSkippedDisabledByUser, b.Status)
	assert.Equal(t, entities.StatusNotRequiredDisabledUser, b.Channels[entities.ChannelGoogleCalendar].Status)
	assert.Equal(t, entities.StatusCompleted, out.Status)
	// a single eligible recipient owns nothing and creates its own event
	assert.Len(t, h.log.calls, 1)
	assert.Empty(t, userRun(t, out, "a").OwnedChannels)
}

func TestRun_DirectFallback(t *testing.T) {
	st := fakeSettings{direct: settings.Selection{UserID: "solo", Settings: configured()}}
	h := newHarness(routing.Routing{Mode: entities.RoutingModeDirect}, st, []entities.ActionItem{{Title: "uno"}}, factory{})

	out := h.svc.Run(context.Background(), Request{MeetingID: "m1", TranscriptText: "hola"})

	assert.Equal(t, entities.RoutingModeDirect, out.RoutingMode)
	require.Len(t, out.Users, 1)
	assert.Equal(t, "solo", out.Users[0].UserID)
	assert.Equal(t, entities.StatusCompleted, out.Status)
	assert.Equal(t, 1, out.CreatedCount)
}

func TestRun_TeamsWithoutRecipients(t *testing.T) {
	h := newHarness(routing.Routing{TeamIDs: []string{"team-1"}, Mode: entities.RoutingModeTeam}, twoConfigured(), nil, factory{})

	out := h.svc.Run(context.Background(), Request{MeetingID: "m1", TranscriptText: "hola"})

	assert.Equal(t, entities.StatusSkippedNoRecipients, out.Status)
	assert.Zero(t, h.extractor.calls)
}

func TestRun_Preconditions(t *testing.T) {
	noNotes := configured()
	noNotes.NotionAPIToken = ""
	noModel := configured()
	noModel.GeminiAPIKey = ""
	testNoNotes := noNotes
	testNoNotes.TestModeEnabled = true

	tests := []struct {
		name     string
		settings config.IntegrationSettings
		text     string
		want     entities.Status
		wantErr  string
	}{
		{"no transcript", configured(), "  ", entities.StatusSkippedNoTranscript, ""},
		{"missing notes output", noNotes, "hola", entities.StatusSkippedMissingConfiguration, "GEMINI_API_KEY and at least one notes output are required (Notion or Monday)."},
		{"missing model key", noModel, "hola", entities.StatusSkippedMissingConfiguration, "GEMINI_API_KEY and at least one notes output are required (Notion or Monday)."},
		{"test mode without outputs", testNoNotes, "hola", entities.StatusSkippedMissingConfiguration, "Enable at least one notes output: NOTION_API_TOKEN + NOTION_TASKS_DATABASE_ID, or MONDAY_API_TOKEN + MONDAY_BOARD_ID + MONDAY_GROUP_ID."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := fakeSettings{direct: settings.Selection{Settings: tt.settings}}
			h := newHarness(routing.Routing{Mode: entities.RoutingModeDirect}, st, []entities.ActionItem{{Title: "uno"}}, factory{})

			out := h.svc.Run(context.Background(), Request{MeetingID: "m1", TranscriptText: tt.text})
			assert.Equal(t, tt.want, out.Status)
			assert.Equal(t, tt.wantErr, out.Error)
			assert.Zero(t, h.extractor.calls)
		})
	}
}

func TestRun_ExtractionFailure(t *testing.T) {
	st := fakeSettings{direct: settings.Selection{Settings: configured()}}
	h := newHarness(routing.Routing{Mode: entities.RoutingModeDirect}, st, nil, factory{})
	h.extractor.err = errors.New("Gemini API HTTP 400")

	out := h.svc.Run(context.Background(), Request{MeetingID: "m1", TranscriptText: "hola"})
	assert.Equal(t, entities.StatusFailedAnalysis, out.Status)
	assert.Equal(t, "Gemini API HTTP 400", out.Error)
	assert.Equal(t, entities.StatusNotRequiredNoActionItems, out.Channels[entities.ChannelNotion].Status)
}

func TestRun_NoItems(t *testing.T) {
	st := fakeSettings{direct: settings.Selection{Settings: configured()}}
	h := newHarness(routing.Routing{Mode: entities.RoutingModeDirect}, st, nil, factory{})

	out := h.svc.Run(context.Background(), Request{MeetingID: "m1", TranscriptText: "hola"})
	assert.Equal(t, entities.StatusSkippedNoActionItems, out.Status)
	assert.Len(t, h.log.calls, 0)
}

func TestRun_RoutingErrorFallsBackToDirect(t *testing.T) {
	st := fakeSettings{direct: settings.Selection{UserID: "solo", Settings: configured()}}
	svc := NewService(fakeRouter{err: errors.New("db down")}, st, &fakeExtractor{items: []entities.ActionItem{{Title: "uno"}}},
		publish.NewPublisher(factory{log: &calendarLog{}}, time.Second, nil), 2, nil)

	out := svc.Run(context.Background(), Request{MeetingID: "m1", TranscriptText: "hola"})
	assert.Equal(t, entities.RoutingModeDirect, out.RoutingMode)
	assert.Equal(t, entities.StatusCompleted, out.Status)
}
