package coordinator

import (
	"strings"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

const (
	msgOwnerNoEvent  = "Shared team meeting event was not created by the owner."
	msgOwnerNoMatch  = "No matching team meeting event found in the owner's run."
	msgOwnerNoResult = "Owner run produced no result for this channel."
)

// Candidate is a recipient with its resolved settings
type Candidate struct {
	UserID   string
	Settings config.IntegrationSettings
}

// Owners maps each calendar channel to the user allowed to create meeting events on it
type Owners map[entities.Channel]string

// OrderRecipients puts leadID first, keeping the rest in list order
func OrderRecipients(ids []string, leadID string) []string {
	lead := strings.TrimSpace(leadID)
	out := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if id == lead && lead != "" {
			out = append(out, id)
			seen[id] = true
			break
		}
	}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ElectOwners selects, per calendar channel, the first ordered candidate that
// can create events there. Nothing is elected for fewer than two candidates.
func ElectOwners(ordered []Candidate) Owners {
	owners := Owners{}
	if len(ordered) < 2 {
		return owners
	}
	for _, ch := range entities.CalendarChannels {
		for _, c := range ordered {
			if canOwn(c.Settings, ch) {
				owners[ch] = c.UserID
				break
			}
		}
	}
	return owners
}

func canOwn(s config.IntegrationSettings, ch entities.Channel) bool {
	if !s.AutosyncEnabled || !s.HasNotesOutput() {
		return false
	}
	switch ch {
	case entities.ChannelGoogleCalendar:
		return s.GoogleCalendarConfigured()
	case entities.ChannelOutlookCalendar:
		return s.OutlookCalendarConfigured()
	}
	return false
}

// SkipFlags returns the channels on which userID must not create meeting events
func SkipFlags(owners Owners, userID string) map[entities.Channel]bool {
	flags := map[entities.Channel]bool{}
	for ch, owner := range owners {
		if owner != userID {
			flags[ch] = true
		}
	}
	return flags
}

// MatchKey identifies the same meeting across independently published runs
func MatchKey(item entities.ActionItem) string {
	parts := []string{
		item.DueDate,
		item.ScheduledStart,
		item.ScheduledEnd,
		item.EventTimezone,
		strings.ToUpper(item.RecurrenceRule),
		item.OnlineMeetingPlatform,
	}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "|")
}

// Propagate copies each owner's meeting events into the cells other recipients
// skipped. Cells whose owner produced nothing become owner_failed.
func Propagate(runs []*entities.UserRun, owners Owners) {
	byUser := make(map[string]*entities.UserRun, len(runs))
	for _, r := range runs {
		byUser[r.UserID] = r
	}

	for _, ch := range entities.CalendarChannels {
		ownerID, ok := owners[ch]
		if !ok {
			continue
		}
		owner := byUser[ownerID]
		if owner != nil {
			owner.OwnedChannels = append(owner.OwnedChannels, ch)
		}
		for _, r := range runs {
			if r.UserID == ownerID {
				continue
			}
			for i := range r.Items {
				cell := r.Items[i].Cell(ch)
				if cell == nil || cell.Status != entities.StatusSkippedSharedTeamEvent {
					continue
				}
				r.Items[i].SetCell(ch, shareFrom(owner, ch, i, r.Items[i].ActionItem))
			}
		}
	}
}

func shareFrom(owner *entities.UserRun, ch entities.Channel, index int, item entities.ActionItem) *entities.ChannelOutcome {
	if owner == nil || len(owner.Items) == 0 {
		errText := msgOwnerNoResult
		if owner != nil && owner.Error != "" {
			errText = owner.Error
		}
		return &entities.ChannelOutcome{Status: entities.StatusOwnerFailed, Error: errText}
	}
	if index >= len(owner.Items) || MatchKey(owner.Items[index].ActionItem) != MatchKey(item) {
		return &entities.ChannelOutcome{Status: entities.StatusOwnerFailed, Error: msgOwnerNoMatch}
	}

	ownerItem := owner.Items[index]
	ownerCell := ownerItem.Cell(ch)
	if ownerCell == nil || ownerCell.Status != entities.StatusCreated {
		errText := msgOwnerNoEvent
		switch {
		case ownerCell != nil && ownerCell.Error != "":
			errText = ownerCell.Error
		case ownerItem.Error != "":
			errText = ownerItem.Error
		}
		return &entities.ChannelOutcome{Status: entities.StatusOwnerFailed, Error: errText}
	}
	return &entities.ChannelOutcome{
		Status:     entities.StatusSharedFromTeamEvent,
		ExternalID: ownerCell.ExternalID,
		Link:       ownerCell.Link,
	}
}
