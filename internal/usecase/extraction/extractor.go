package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	ucerrors "github.com/johnquangdev/meeting-sync/internal/usecase/errors"
	"github.com/johnquangdev/meeting-sync/pkg/ai"
)

const envelopeSchemaURL = "mem://action-items-envelope.json"

// envelopeSchema is the contract for model replies. Items are loosely typed
// here; Normalize decides what survives.
const envelopeSchema = `{
  "type": "object",
  "properties": {
    "action_items": {
      "type": "array",
      "items": {"type": ["object", "string", "number", "boolean", "null", "array"]}
    }
  }
}`

const testSummaryLimit = 240

// Generator produces JSON text from a prompt
type Generator interface {
	GenerateJSON(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// Input is everything the model sees about one meeting
type Input struct {
	MeetingID         string
	TranscriptText    string
	Sentences         []entities.Sentence
	ParticipantEmails []string
}

// Options tune a single extraction
type Options struct {
	TestMode    bool
	TestDueDate string
	MaxItems    int
}

// Extractor turns transcripts into action items
type Extractor struct {
	generator Generator
	schema    *jsonschema.Schema
	now       func() time.Time
	logger    *zap.Logger
}

// NewExtractor creates an extractor. generator may be nil when only test mode is used.
func NewExtractor(generator Generator, logger *zap.Logger) (*Extractor, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(envelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse envelope schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(envelopeSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add envelope schema: %w", err)
	}
	schema, err := compiler.Compile(envelopeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile envelope schema: %w", err)
	}
	return &Extractor{
		generator: generator,
		schema:    schema,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}, nil
}

// WithClock overrides the reference date source
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// CanGenerate reports whether a model is available
func (e *Extractor) CanGenerate() bool {
	if e.generator == nil {
		return false
	}
	if g, ok := e.generator.(*ai.GeminiClient); ok {
		return g.Configured()
	}
	return true
}

// Extract returns the normalized action items of a meeting.
// The test due date fills items that came back without one.
func (e *Extractor) Extract(ctx context.Context, in Input, opts Options) ([]entities.ActionItem, error) {
	var items []entities.ActionItem
	if opts.TestMode {
		items = BuildTestItems(in)
	} else {
		if !e.CanGenerate() {
			return nil, ucerrors.ErrMissingModelKey
		}
		ref := dateOnly(e.now())
		text, err := e.generator.GenerateJSON(ctx, SystemInstruction, BuildPrompt(in, ref))
		if err != nil {
			return nil, err
		}
		items, err = e.parseReply(text, ref)
		if err != nil {
			return nil, err
		}
	}

	if opts.MaxItems > 0 && len(items) > opts.MaxItems {
		if e.logger != nil {
			e.logger.Info("truncating extracted action items",
				zap.String("meeting_id", in.MeetingID),
				zap.Int("extracted", len(items)),
				zap.Int("max", opts.MaxItems),
			)
		}
		items = items[:opts.MaxItems]
	}
	return applyTestDueDate(items, opts.TestDueDate), nil
}

func (e *Extractor) parseReply(text string, ref time.Time) ([]entities.ActionItem, error) {
	envelope, ok := ai.ExtractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: Gemini output is not valid JSON", ucerrors.ErrInvalidModelReply)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(envelope), &parsed); err != nil {
		return nil, fmt.Errorf("%w: Gemini output could not be parsed as JSON", ucerrors.ErrInvalidModelReply)
	}

	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(envelope))
	if err == nil {
		err = e.schema.Validate(inst)
	}
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("model reply does not match action item envelope", zap.Error(err))
		}
		return nil, nil
	}

	rawItems, _ := parsed["action_items"].([]interface{})
	items := make([]entities.ActionItem, 0, len(rawItems))
	for _, raw := range rawItems {
		candidate, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if item, ok := Normalize(candidate, ref); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// BuildTestItems returns the synthetic item used to validate outputs without a model
func BuildTestItems(in Input) []entities.ActionItem {
	assignee := ""
	if len(in.ParticipantEmails) > 0 {
		assignee = in.ParticipantEmails[0]
	}
	source := ""
	for _, s := range in.Sentences {
		if cleaned := strings.TrimSpace(s.Text); cleaned != "" {
			source = cleaned
			break
		}
	}
	meetingID := strings.TrimSpace(in.MeetingID)
	if meetingID == "" {
		meetingID = "sin-meeting-id"
	}
	summary := strings.ReplaceAll(strings.TrimSpace(in.TranscriptText), "\n", " ")
	if runes := []rune(summary); len(runes) > testSummaryLimit {
		summary = string(runes[:testSummaryLimit-3]) + "..."
	}

	return []entities.ActionItem{{
		Title:          "[TEST] Revisar acuerdos - " + meetingID,
		AssigneeEmail:  assignee,
		Details:        "Tarea sintetica para validar sync a Notion. Contexto: " + summary,
		SourceSentence: source,
	}}
}

func applyTestDueDate(items []entities.ActionItem, raw string) []entities.ActionItem {
	d, ok := parseISODate(raw)
	if !ok {
		return items
	}
	for i := range items {
		if items[i].DueDate == "" {
			items[i].DueDate = formatDate(d)
		}
	}
	return items
}
