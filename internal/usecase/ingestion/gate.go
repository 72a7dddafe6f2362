package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/cache"
)

const cacheKeyPrefix = "ingestion:"

// KeyFields are the identifiers a delivery may carry
type KeyFields struct {
	Provider          string
	MeetingID         string
	TranscriptID      string
	ClientReferenceID string
	EventType         string
}

// ComputeKey returns the idempotency key of a delivery.
// With at least three of (provider, meeting id, transcript or client reference id,
// event type) the key is a hash of those; otherwise it hashes the canonical payload.
func ComputeKey(fields KeyFields, raw map[string]interface{}) string {
	reference := fields.TranscriptID
	if strings.TrimSpace(reference) == "" {
		reference = fields.ClientReferenceID
	}
	parts := []string{
		normalizePart(fields.Provider),
		normalizePart(fields.MeetingID),
		normalizePart(reference),
		normalizePart(fields.EventType),
	}

	present := 0
	for _, p := range parts {
		if p != "" {
			present++
		}
	}
	if present >= 3 {
		sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
		return "composite:" + hex.EncodeToString(sum[:])
	}

	// encoding/json sorts map keys, so reordered payloads hash the same
	canonical, err := json.Marshal(raw)
	if err != nil {
		canonical = []byte(fmt.Sprintf("%v", raw))
	}
	sum := sha256.Sum256(canonical)
	return "content:" + hex.EncodeToString(sum[:])
}

func normalizePart(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Gate short-circuits duplicate deliveries
type Gate struct {
	repo   repositories.TranscriptionRepository
	cache  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewGate creates an ingestion gate. store may be nil.
func NewGate(repo repositories.TranscriptionRepository, store cache.Store, ttl time.Duration, logger *zap.Logger) *Gate {
	return &Gate{repo: repo, cache: store, ttl: ttl, logger: logger}
}

// Lookup returns the record already stored for key, or nil
func (g *Gate) Lookup(ctx context.Context, key string) (*entities.TranscriptionRecord, error) {
	if g.cache != nil {
		id, ok, err := g.cache.Get(ctx, cacheKeyPrefix+key)
		if err != nil && g.logger != nil {
			g.logger.Warn("ingestion cache lookup failed", zap.String("ingestion_key", key), zap.Error(err))
		}
		if ok {
			if recordID, perr := uuid.Parse(id); perr == nil {
				record, err := g.repo.GetByID(ctx, recordID)
				if err != nil {
					return nil, err
				}
				if record != nil {
					return record, nil
				}
			}
			// stale or malformed entry
			g.forget(ctx, key)
		}
	}

	record, err := g.repo.GetByIngestionKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if record != nil {
		g.remember(ctx, record)
	}
	return record, nil
}

// Commit stores record. When another delivery already claimed the key the
// winner's record is returned with duplicate set.
func (g *Gate) Commit(ctx context.Context, record *entities.TranscriptionRecord) (*entities.TranscriptionRecord, bool, error) {
	err := g.repo.Create(ctx, record)
	if err == nil {
		g.remember(ctx, record)
		return record, false, nil
	}
	if !errors.Is(err, entities.ErrDuplicateIngestionKey) {
		return nil, false, err
	}

	winner, err := g.repo.GetByIngestionKey(ctx, record.IngestionKey)
	if err != nil {
		return nil, true, err
	}
	if winner == nil {
		return nil, true, fmt.Errorf("ingestion key %s reported duplicate but no record found", record.IngestionKey)
	}
	if g.logger != nil {
		g.logger.Info("concurrent duplicate delivery resolved to stored record",
			zap.String("ingestion_key", record.IngestionKey),
			zap.String("record_id", winner.ID.String()),
		)
	}
	g.remember(ctx, winner)
	return winner, true, nil
}

func (g *Gate) forget(ctx context.Context, key string) {
	if err := g.cache.Delete(ctx, cacheKeyPrefix+key); err != nil && g.logger != nil {
		g.logger.Warn("ingestion cache evict failed", zap.String("ingestion_key", key), zap.Error(err))
	}
}

func (g *Gate) remember(ctx context.Context, record *entities.TranscriptionRecord) {
	if g.cache == nil || record.ID == uuid.Nil {
		return
	}
	if err := g.cache.Set(ctx, cacheKeyPrefix+record.IngestionKey, record.ID.String(), g.ttl); err != nil && g.logger != nil {
		g.logger.Warn("ingestion cache write failed", zap.String("ingestion_key", record.IngestionKey), zap.Error(err))
	}
}
