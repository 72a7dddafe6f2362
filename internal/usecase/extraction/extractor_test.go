package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	ucerrors "github.com/johnquangdev/meeting-sync/internal/usecase/errors"
)

type fakeGenerator struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, _ string, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func fixedClock() time.Time {
	return time.Date(2026, time.February, 13, 15, 4, 5, 0, time.UTC)
}

func newTestExtractor(t *testing.T, gen Generator) *Extractor {
	t.Helper()
	e, err := NewExtractor(gen, nil)
	require.NoError(t, err)
	return e.WithClock(fixedClock)
}

func TestNormalize_RelativeDueDate(t *testing.T) {
	item, ok := Normalize(map[string]interface{}{
		"title":          "Enviar propuesta a cliente",
		"assignee_email": "ANA@Example.com ",
		"due_date":       "mañana",
	}, fixedClock())
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", item.AssigneeEmail)
	assert.Equal(t, "2026-02-14", item.DueDate)
	assert.Empty(t, item.ScheduledStart)
	assert.Empty(t, item.OnlineMeetingPlatform)
}

func TestNormalize_DueDateFromContext(t *testing.T) {
	item, ok := Normalize(map[string]interface{}{
		"title":           "Preparar informe",
		"source_sentence": "Lo necesito para el 23 de febrero",
	}, fixedClock())
	require.True(t, ok)
	assert.Equal(t, "2026-02-23", item.DueDate)
}

func TestNormalize_ScheduledMeeting(t *testing.T) {
	item, ok := Normalize(map[string]interface{}{
		"title":   "Agendar reunion de seguimiento con el equipo",
		"details": "Por Google Meet el viernes a las 3 de la tarde",
	}, fixedClock())
	require.True(t, ok)
	assert.Equal(t, "2026-02-20", item.DueDate)
	assert.Equal(t, entities.PlatformGoogleMeet, item.OnlineMeetingPlatform)
	assert.Equal(t, "2026-02-20T15:00:00", item.ScheduledStart)
	assert.Equal(t, "2026-02-20T16:00:00", item.ScheduledEnd)
	assert.True(t, item.IsExplicitOnlineMeeting())
}

func TestNormalize_RecurringWithTimezone(t *testing.T) {
	item, ok := Normalize(map[string]interface{}{
		"title":          "Revisar métricas",
		"details":        "todos los jueves a las 10:00",
		"event_timezone": "EST",
	}, fixedClock())
	require.True(t, ok)
	assert.Equal(t, "2026-02-19", item.DueDate)
	assert.Equal(t, "FREQ=WEEKLY;INTERVAL=1;BYDAY=TH", item.RecurrenceRule)
	assert.Equal(t, "America/New_York", item.EventTimezone)
	assert.Equal(t, "2026-02-19T10:00:00", item.ScheduledStart)
	assert.Equal(t, "2026-02-19T11:00:00", item.ScheduledEnd)
}

func TestNormalize_ExplicitStartAndDuration(t *testing.T) {
	item, ok := Normalize(map[string]interface{}{
		"title":            "Llamar al proveedor",
		"scheduled_start":  "2026-03-02T08:30:00",
		"duration_minutes": "1h 30m",
	}, fixedClock())
	require.True(t, ok)
	assert.Equal(t, "2026-03-02", item.DueDate)
	assert.Equal(t, "2026-03-02T08:30:00", item.ScheduledStart)
	assert.Equal(t, "2026-03-02T10:00:00", item.ScheduledEnd)
}

func TestNormalize_RejectsNonActions(t *testing.T) {
	for _, raw := range []map[string]interface{}{
		{"title": ""},
		{"title": "ok"},
		{"title": "Resumen de la reunion"},
		{"due_date": "2026-02-20"},
	} {
		_, ok := Normalize(raw, fixedClock())
		assert.False(t, ok, raw)
	}
}

func TestExtract_ParsesFencedReply(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n" + `{"action_items":[
		{"title":"Enviar propuesta","due_date":"2026-02-20"},
		{"title":"   "},
		"not an object",
		{"title":"Revisar contrato","assignee_name":"Luis"}
	]}` + "\n```"}
	e := newTestExtractor(t, gen)

	items, err := e.Extract(context.Background(), Input{
		MeetingID:         "m-1",
		TranscriptText:    "hola",
		ParticipantEmails: []string{"a@x.com"},
	}, Options{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Enviar propuesta", items[0].Title)
	assert.Equal(t, "Revisar contrato", items[1].Title)
	assert.Equal(t, 1, gen.calls)
	assert.Contains(t, gen.prompts[0], "fecha_actual: 2026-02-13")
	assert.Contains(t, gen.prompts[0], "mes_actual: 02")
	assert.Contains(t, gen.prompts[0], "meeting_id: m-1")
	assert.Contains(t, gen.prompts[0], `participant_emails: ["a@x.com"]`)
}

func TestExtract_InvalidReply(t *testing.T) {
	e := newTestExtractor(t, &fakeGenerator{reply: "no json at all"})
	_, err := e.Extract(context.Background(), Input{TranscriptText: "x"}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ucerrors.ErrInvalidModelReply))
}

func TestExtract_EnvelopeWithoutListYieldsNothing(t *testing.T) {
	e := newTestExtractor(t, &fakeGenerator{reply: `{"action_items":"none"}`})
	items, err := e.Extract(context.Background(), Input{TranscriptText: "x"}, Options{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestExtract_GeneratorError(t *testing.T) {
	e := newTestExtractor(t, &fakeGenerator{err: errors.New("Gemini API HTTP 500: boom")})
	_, err := e.Extract(context.Background(), Input{TranscriptText: "x"}, Options{})
	require.EqualError(t, err, "Gemini API HTTP 500: boom")
}

func TestExtract_MissingGenerator(t *testing.T) {
	e := newTestExtractor(t, nil)
	_, err := e.Extract(context.Background(), Input{TranscriptText: "x"}, Options{})
	assert.ErrorIs(t, err, ucerrors.ErrMissingModelKey)
}

func TestExtract_TestMode(t *testing.T) {
	gen := &fakeGenerator{}
	e := newTestExtractor(t, gen)

	items, err := e.Extract(context.Background(), Input{
		MeetingID:         "m-9",
		TranscriptText:    "linea uno\nlinea dos",
		Sentences:         []entities.Sentence{{Text: "  "}, {Text: "Hola equipo"}},
		ParticipantEmails: []string{"lead@x.com", "b@x.com"},
	}, Options{TestMode: true, TestDueDate: "2026-03-01"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0, gen.calls)
	assert.Equal(t, "[TEST] Revisar acuerdos - m-9", items[0].Title)
	assert.Equal(t, "lead@x.com", items[0].AssigneeEmail)
	assert.Equal(t, "Hola equipo", items[0].SourceSentence)
	assert.Equal(t, "Tarea sintetica para validar sync a Notion. Contexto: linea uno linea dos", items[0].Details)
	assert.Equal(t, "2026-03-01", items[0].DueDate)
}

func TestBuildTestItems_TruncatesSummary(t *testing.T) {
	items := BuildTestItems(Input{TranscriptText: strings.Repeat("a", 300)})
	require.Len(t, items, 1)
	assert.Equal(t, "[TEST] Revisar acuerdos - sin-meeting-id", items[0].Title)
	assert.True(t, strings.HasSuffix(items[0].Details, strings.Repeat("a", 237)+"..."))
}

func TestExtract_MaxItems(t *testing.T) {
	gen := &fakeGenerator{reply: `{"action_items":[{"title":"Enviar uno"},{"title":"Enviar dos"},{"title":"Enviar tres"}]}`}
	items, err := newTestExtractor(t, gen).Extract(context.Background(), Input{TranscriptText: "x"}, Options{MaxItems: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
