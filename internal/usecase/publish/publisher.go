package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/usecase/participants"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

// Messages recorded when a channel has no credentials
var MissingConfiguration = map[entities.Channel]string{
	entities.ChannelNotion:          "NOTION_API_TOKEN or NOTION_TASKS_DATABASE_ID is missing.",
	entities.ChannelMonday:          "MONDAY_API_TOKEN, MONDAY_BOARD_ID or MONDAY_GROUP_ID is missing.",
	entities.ChannelGoogleCalendar:  "GOOGLE_CALENDAR_API_TOKEN is missing.",
	entities.ChannelOutlookCalendar: "OUTLOOK_CALENDAR_API_TOKEN is missing.",
}

var missingEventID = map[entities.Channel]string{
	entities.ChannelGoogleCalendar:  "Google Calendar create event response missing id.",
	entities.ChannelOutlookCalendar: "Outlook Calendar create event response missing id.",
}

const noNotesCreated = "No action item could be created in configured note outputs."

// TaskClient creates one task per action item in a task tracker
type TaskClient interface {
	CreateTask(ctx context.Context, item entities.ActionItem, meetingID string) (string, error)
}

// EventDetails identifies a created calendar event
type EventDetails struct {
	EventID  string
	JoinLink string
	HTMLLink string
}

// EventClient creates one calendar event per action item
type EventClient interface {
	CreateEvent(ctx context.Context, item entities.ActionItem, meetingID string, attendees []string) (EventDetails, error)
}

// Clients are the channel clients available to one user. A missing entry
// means the channel is not configured.
type Clients struct {
	Tasks  map[entities.Channel]TaskClient
	Events map[entities.Channel]EventClient
}

// Configured lists the channels that have a client, in publish order
func (c Clients) Configured() []entities.Channel {
	var out []entities.Channel
	for _, ch := range entities.TaskChannels {
		if c.Tasks[ch] != nil {
			out = append(out, ch)
		}
	}
	for _, ch := range entities.CalendarChannels {
		if c.Events[ch] != nil {
			out = append(out, ch)
		}
	}
	return out
}

// ClientFactory builds the channel clients of a user from resolved settings
type ClientFactory interface {
	ForUser(userID string, settings config.IntegrationSettings) Clients
}

// UserJob is the publish work of one recipient
type UserJob struct {
	UserID    string
	MeetingID string
	Settings  config.IntegrationSettings
	Items     []entities.ActionItem
	Attendees []string
	// SkipMeetingEvents marks calendar channels owned by another recipient
	SkipMeetingEvents map[entities.Channel]bool
}

// Publisher writes action items to every configured channel of a user
type Publisher struct {
	factory ClientFactory
	timeout time.Duration
	logger  *zap.Logger
}

// NewPublisher creates a publisher. timeout bounds every single channel call.
func NewPublisher(factory ClientFactory, timeout time.Duration, logger *zap.Logger) *Publisher {
	return &Publisher{factory: factory, timeout: timeout, logger: logger}
}

// PublishForUser creates the tasks and events of one user. Failures are
// recorded on their cell and never stop the remaining items or channels.
func (p *Publisher) PublishForUser(ctx context.Context, job UserJob) entities.UserRun {
	clients := p.factory.ForUser(job.UserID, job.Settings)
	attendees := participants.SanitizeEmails(append(append([]string{}, job.Attendees...), job.Settings.ExtraAttendees...))

	run := entities.UserRun{
		UserID:         job.UserID,
		ExtractedCount: len(job.Items),
		Configured:     clients.Configured(),
		Items:          make([]entities.ItemOutcome, 0, len(job.Items)),
	}
	for i, item := range job.Items {
		outcome := p.publishItem(ctx, clients, job, i, item, attendees)
		if outcome.Status == entities.StatusCreated {
			run.CreatedCount++
		}
		run.Items = append(run.Items, outcome)
	}
	run.SyncedAt = time.Now().UTC()
	return run
}

func (p *Publisher) publishItem(ctx context.Context, clients Clients, job UserJob, index int, item entities.ActionItem, attendees []string) entities.ItemOutcome {
	outcome := entities.ItemOutcome{ActionItem: item, Index: index}
	for _, ch := range entities.CalendarChannels {
		outcome.SetCell(ch, &entities.ChannelOutcome{Status: entities.StatusNotRequiredNoDueDate})
	}

	var notesErrors []string
	notesCreated := false
	for _, ch := range entities.TaskChannels {
		client := clients.Tasks[ch]
		if client == nil {
			outcome.SetCell(ch, &entities.ChannelOutcome{
				Status: entities.StatusSkippedMissingConfiguration,
				Error:  MissingConfiguration[ch],
			})
			continue
		}
		id, err := p.createTask(ctx, client, item, job.MeetingID)
		if err != nil {
			p.logFailure(job, ch, index, err)
			outcome.SetCell(ch, &entities.ChannelOutcome{Status: entities.StatusFailed, Error: err.Error()})
			notesErrors = append(notesErrors, err.Error())
			continue
		}
		outcome.SetCell(ch, &entities.ChannelOutcome{Status: entities.StatusCreated, ExternalID: id})
		notesCreated = true
	}

	if !notesCreated {
		outcome.Status = entities.StatusFailed
		outcome.Error = noNotesCreated
		if len(notesErrors) > 0 {
			if len(notesErrors) > 3 {
				notesErrors = notesErrors[:3]
			}
			outcome.Error = strings.Join(notesErrors, "; ")
		}
		return outcome
	}
	outcome.Status = entities.StatusCreated

	if !item.HasCalendarSchedule() {
		return outcome
	}
	meeting := item.IsExplicitOnlineMeeting()
	var eventAttendees []string
	if meeting {
		eventAttendees = attendees
	}
	for _, ch := range entities.CalendarChannels {
		if meeting && job.SkipMeetingEvents[ch] {
			outcome.SetCell(ch, &entities.ChannelOutcome{Status: entities.StatusSkippedSharedTeamEvent})
			continue
		}
		client := clients.Events[ch]
		if client == nil {
			outcome.SetCell(ch, &entities.ChannelOutcome{
				Status: entities.StatusSkippedMissingConfiguration,
				Error:  MissingConfiguration[ch],
			})
			continue
		}
		outcome.SetCell(ch, p.createEvent(ctx, client, job, ch, index, item, eventAttendees))
	}
	return outcome
}

func (p *Publisher) createEvent(ctx context.Context, client EventClient, job UserJob, ch entities.Channel, index int, item entities.ActionItem, attendees []string) *entities.ChannelOutcome {
	details, err := p.callEvent(ctx, client, item, job.MeetingID, attendees)
	if err == nil && strings.TrimSpace(details.EventID) == "" {
		err = errors.New(missingEventID[ch])
	}
	if err != nil {
		p.logFailure(job, ch, index, err)
		return &entities.ChannelOutcome{Status: entities.StatusFailed, Error: err.Error()}
	}

	out := &entities.ChannelOutcome{
		Status:     entities.StatusCreated,
		ExternalID: strings.TrimSpace(details.EventID),
		Link:       strings.TrimSpace(details.JoinLink),
	}
	switch {
	case ch == entities.ChannelGoogleCalendar && item.RequiresMeetLink() && out.Link == "":
		out.Status = entities.StatusFailedMissingMeetLink
		out.Error = "Google Calendar event was created without Google Meet link."
	case ch == entities.ChannelOutlookCalendar && item.RequiresTeamsLink() && out.Link == "":
		out.Status = entities.StatusFailedMissingTeamsLink
		out.Error = "Outlook Calendar event was created without Microsoft Teams link."
	}
	return out
}

func (p *Publisher) createTask(ctx context.Context, client TaskClient, item entities.ActionItem, meetingID string) (id string, err error) {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	defer recoverCall(&err)
	id, err = client.CreateTask(callCtx, item, meetingID)
	if err == nil && strings.TrimSpace(id) == "" {
		err = errors.New("task tracker returned an empty id")
	}
	return strings.TrimSpace(id), err
}

func (p *Publisher) callEvent(ctx context.Context, client EventClient, item entities.ActionItem, meetingID string, attendees []string) (details EventDetails, err error) {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	defer recoverCall(&err)
	return client.CreateEvent(callCtx, item, meetingID, attendees)
}

func (p *Publisher) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// recoverCall turns a panicking client into a failed cell
func recoverCall(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("channel client panicked: %v", r)
	}
}

func (p *Publisher) logFailure(job UserJob, ch entities.Channel, index int, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Warn("channel publish failed",
		zap.String("user_id", job.UserID),
		zap.String("meeting_id", job.MeetingID),
		zap.String("channel", string(ch)),
		zap.Int("item_index", index),
		zap.Error(err),
	)
}
