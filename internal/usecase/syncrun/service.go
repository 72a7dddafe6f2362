package syncrun

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/usecase/aggregate"
	"github.com/johnquangdev/meeting-sync/internal/usecase/coordinator"
	"github.com/johnquangdev/meeting-sync/internal/usecase/extraction"
	"github.com/johnquangdev/meeting-sync/internal/usecase/publish"
	"github.com/johnquangdev/meeting-sync/internal/usecase/routing"
	"github.com/johnquangdev/meeting-sync/internal/usecase/settings"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

// RecipientRouter resolves which accounts receive a meeting
type RecipientRouter interface {
	Route(ctx context.Context, emails []string, leadID string) (routing.Routing, error)
}

// SettingsSource resolves per-user integration settings
type SettingsSource interface {
	Resolve(ctx context.Context, userID string) (config.IntegrationSettings, error)
	ResolveForParticipants(ctx context.Context, emails []string, scopedUserID string) settings.Selection
}

// Extractor turns a transcript into action items
type Extractor interface {
	CanGenerate() bool
	Extract(ctx context.Context, in extraction.Input, opts extraction.Options) ([]entities.ActionItem, error)
}

// Publisher writes the items of one recipient
type Publisher interface {
	PublishForUser(ctx context.Context, job publish.UserJob) entities.UserRun
}

// Request is the normalized content of one delivery
type Request struct {
	MeetingID         string
	ScopedUserID      string
	TranscriptText    string
	Sentences         []entities.Sentence
	ParticipantEmails []string
}

// Service runs the action item sync of one delivery
type Service struct {
	router      RecipientRouter
	settings    SettingsSource
	extractor   Extractor
	publisher   Publisher
	concurrency int
	logger      *zap.Logger
}

// NewService creates a sync service. concurrency bounds parallel recipients.
func NewService(router RecipientRouter, settings SettingsSource, extractor Extractor, publisher Publisher, concurrency int, logger *zap.Logger) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		router:      router,
		settings:    settings,
		extractor:   extractor,
		publisher:   publisher,
		concurrency: concurrency,
		logger:      logger,
	}
}

// recipient is one account flowing through the phases of a run
type recipient struct {
	userID   string
	settings config.IntegrationSettings
	run      *entities.UserRun
}

// Run routes, extracts, publishes and aggregates. It never fails: every
// problem ends up in the returned run.
func (s *Service) Run(ctx context.Context, req Request) entities.SyncRun {
	route := s.route(ctx, req)
	if route.NoRecipients() {
		s.info("matched teams have no active recipients", req, zap.Strings("team_ids", route.TeamIDs))
		return aggregate.Rollup(nil, route.Mode, route.TeamIDs)
	}

	recipients := s.recipients(ctx, req, route)

	// Phase 1: preconditions, a single extraction and owner election
	eligible := s.checkPreconditions(recipients, req)
	var items []entities.ActionItem
	if len(eligible) > 0 {
		var err error
		items, err = s.extract(ctx, req, eligible[0].settings)
		switch {
		case err != nil:
			for _, r := range eligible {
				*r.run = aggregate.SkipRun(r.userID, entities.StatusFailedAnalysis, err.Error())
			}
			eligible = nil
		case len(items) == 0:
			for _, r := range eligible {
				*r.run = aggregate.SkipRun(r.userID, entities.StatusSkippedNoActionItems, "")
			}
			eligible = nil
		}
	}

	candidates := make([]coordinator.Candidate, 0, len(eligible))
	for _, r := range eligible {
		candidates = append(candidates, coordinator.Candidate{UserID: r.userID, Settings: r.settings})
	}
	owners := coordinator.ElectOwners(candidates)
	if len(owners) > 0 {
		s.info("elected shared meeting event owners", req, zap.Any("owners", owners))
	}

	// Phase 2: publish every eligible recipient concurrently
	s.publishAll(ctx, req, eligible, items, owners)

	// Phase 3: share owner events, then summarize
	published := make([]*entities.UserRun, 0, len(eligible))
	for _, r := range eligible {
		if r.run.Status == entities.StatusFailedUnexpected {
			continue
		}
		published = append(published, r.run)
	}
	coordinator.Propagate(published, owners)
	for _, run := range published {
		aggregate.SummarizeUser(run)
	}

	runs := make([]entities.UserRun, 0, len(recipients))
	for _, r := range recipients {
		runs = append(runs, *r.run)
	}
	out := aggregate.Rollup(runs, route.Mode, route.TeamIDs)
	s.info("action item sync finished", req,
		zap.String("status", string(out.Status)),
		zap.Int("recipients", len(runs)),
		zap.Int("created", out.CreatedCount),
	)
	return out
}

func (s *Service) route(ctx context.Context, req Request) routing.Routing {
	if s.router == nil {
		return routing.Routing{Mode: entities.RoutingModeDirect}
	}
	route, err := s.router.Route(ctx, req.ParticipantEmails, req.ScopedUserID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("recipient routing failed, falling back to direct sync",
				zap.String("meeting_id", req.MeetingID),
				zap.Error(err),
			)
		}
		return routing.Routing{Mode: entities.RoutingModeDirect}
	}
	return route
}

func (s *Service) recipients(ctx context.Context, req Request, route routing.Routing) []*recipient {
	if route.Direct() {
		sel := s.settings.ResolveForParticipants(ctx, req.ParticipantEmails, req.ScopedUserID)
		return []*recipient{{userID: sel.UserID, settings: sel.Settings, run: &entities.UserRun{UserID: sel.UserID}}}
	}

	ordered := coordinator.OrderRecipients(route.RecipientIDs, req.ScopedUserID)
	out := make([]*recipient, 0, len(ordered))
	for _, id := range ordered {
		st, err := s.settings.Resolve(ctx, id)
		if err != nil && s.logger != nil {
			s.logger.Warn("failed to resolve recipient settings, using base",
				zap.String("user_id", id),
				zap.Error(err),
			)
		}
		out = append(out, &recipient{userID: id, settings: st, run: &entities.UserRun{UserID: id}})
	}
	return out
}

// checkPreconditions fills skip runs and returns the recipients that go on
func (s *Service) checkPreconditions(recipients []*recipient, req Request) []*recipient {
	hasTranscript := strings.TrimSpace(req.TranscriptText) != ""
	var eligible []*recipient
	for _, r := range recipients {
		st := r.settings
		switch {
		case !st.AutosyncEnabled:
			*r.run = aggregate.SkipRun(r.userID, entities.StatusSkippedDisabledByUser, aggregate.MsgDisabledByUser)
		case !hasTranscript:
			*r.run = aggregate.SkipRun(r.userID, entities.StatusSkippedNoTranscript, "")
		case st.TestModeEnabled && !st.HasNotesOutput():
			*r.run = aggregate.SkipRun(r.userID, entities.StatusSkippedMissingConfiguration, aggregate.MsgTestModeNoOutput)
		case !st.TestModeEnabled && (!s.canGenerate(st) || !st.HasNotesOutput()):
			*r.run = aggregate.SkipRun(r.userID, entities.StatusSkippedMissingConfiguration, aggregate.MsgMissingModel)
		default:
			eligible = append(eligible, r)
		}
	}
	return eligible
}

func (s *Service) canGenerate(st config.IntegrationSettings) bool {
	return s.extractor != nil && s.extractor.CanGenerate() && strings.TrimSpace(st.GeminiAPIKey) != ""
}

func (s *Service) extract(ctx context.Context, req Request, st config.IntegrationSettings) (items []entities.ActionItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action item extraction panicked: %v", r)
		}
	}()
	items, err = s.extractor.Extract(ctx, extraction.Input{
		MeetingID:         req.MeetingID,
		TranscriptText:    req.TranscriptText,
		Sentences:         req.Sentences,
		ParticipantEmails: req.ParticipantEmails,
	}, extraction.Options{
		TestMode:    st.TestModeEnabled,
		TestDueDate: st.TestDueDate,
		MaxItems:    st.MaxActionItems,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("action item extraction failed", zap.String("meeting_id", req.MeetingID), zap.Error(err))
	}
	return items, err
}

func (s *Service) publishAll(ctx context.Context, req Request, eligible []*recipient, items []entities.ActionItem, owners coordinator.Owners) {
	if len(eligible) == 0 {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, r := range eligible {
		r := r
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					if s.logger != nil {
						s.logger.Error("recipient sync panicked",
							zap.String("meeting_id", req.MeetingID),
							zap.String("user_id", r.userID),
							zap.Any("panic", rec),
						)
					}
					*r.run = entities.UserRun{
						UserID:         r.userID,
						Status:         entities.StatusFailedUnexpected,
						Error:          fmt.Sprint(rec),
						ExtractedCount: len(items),
					}
				}
			}()
			*r.run = s.publisher.PublishForUser(gctx, publish.UserJob{
				UserID:            r.userID,
				MeetingID:         req.MeetingID,
				Settings:          r.settings,
				Items:             cloneItems(items),
				Attendees:         req.ParticipantEmails,
				SkipMeetingEvents: coordinator.SkipFlags(owners, r.userID),
			})
			return nil
		})
	}
	// workers never return errors; failures live in each run
	_ = g.Wait()
}

func cloneItems(items []entities.ActionItem) []entities.ActionItem {
	return append([]entities.ActionItem(nil), items...)
}

func (s *Service) info(msg string, req Request, fields ...zap.Field) {
	if s.logger == nil {
		return
	}
	s.logger.Info(msg, append([]zap.Field{zap.String("meeting_id", req.MeetingID)}, fields...)...)
}
