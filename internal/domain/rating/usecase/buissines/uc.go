// Package buissines contains business logic for the rating domain
package buissines

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Conte777/newsdigest/config"
	"github.com/Conte777/newsdigest/internal/domain/rating/catalog"
	"github.com/Conte777/newsdigest/internal/domain/rating/deps"
	"github.com/Conte777/newsdigest/internal/domain/rating/dto"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	ratingerrors "github.com/Conte777/newsdigest/internal/domain/rating/errors"
	"github.com/Conte777/newsdigest/internal/domain/rating/selection"
	"github.com/Conte777/newsdigest/internal/domain/rating/store"
	"github.com/Conte777/newsdigest/internal/infrastructure/metrics"
)

// Defaults for read operations
const (
	DefaultTopLimit    = 10
	ReportTopItems     = 5
	PersistenceTimeout = 10 * time.Second
)

// UseCase contains business logic for rating operations
type UseCase struct {
	store     *store.Store
	engine    *selection.Engine
	repo      deps.SnapshotRepository
	publisher deps.EventPublisher
	sender    deps.TelegramSender
	clock     clockwork.Clock
	ratingCfg *config.RatingConfig
	digestCfg *config.DigestConfig
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	saveMu sync.Mutex
	dirty  atomic.Bool
}

// NewUseCase creates a new UseCase instance
// Note: sender is not passed here to break cyclic dependency
// Use SetSender after creating TelegramHandlers
func NewUseCase(
	st *store.Store,
	engine *selection.Engine,
	repo deps.SnapshotRepository,
	publisher deps.EventPublisher,
	clock clockwork.Clock,
	ratingCfg *config.RatingConfig,
	digestCfg *config.DigestConfig,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		store:     st,
		engine:    engine,
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		ratingCfg: ratingCfg,
		digestCfg: digestCfg,
		metrics:   metrics.GetDefaultMetrics(),
		logger:    logger,
	}
}

// SetSender sets the TelegramSender after construction
// This is called by fx.Invoke to resolve cyclic dependency
func (uc *UseCase) SetSender(sender deps.TelegramSender) {
	uc.sender = sender
}

// Bootstrap restores the last snapshot, or seeds the catalog on first start
func (uc *UseCase) Bootstrap(ctx context.Context) error {
	snap, err := uc.repo.Load(ctx)
	switch {
	case err == nil:
		if err := uc.restore(snap); err != nil {
			return fmt.Errorf("failed to restore snapshot: %w", err)
		}
		uc.logger.Info().
			Int("sources", len(snap.Sources)).
			Int("experts", len(snap.Experts)).
			Int("messages", len(snap.Messages)).
			Msg("Rating snapshot restored")

	case errors.Is(err, ratingerrors.ErrSnapshotNotFound):
		cat, err := catalog.Load(uc.ratingCfg.CatalogPath)
		if err != nil {
			return err
		}
		created, err := cat.Seed(uc.store)
		if err != nil {
			return err
		}
		uc.logger.Info().Int("created", created).Msg("No snapshot found, catalog seeded")
		if err := uc.Persist(ctx); err != nil {
			return err
		}

	default:
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	uc.updateGauges()
	return nil
}

// HandleReaction applies a reaction to the source of the message and, when
// expert rating is enabled, to its expert as an independent update
func (uc *UseCase) HandleReaction(ctx context.Context, event *dto.ReactionEvent) (*dto.ReactionOutcome, error) {
	if event.MessageID == "" {
		return nil, ratingerrors.ErrEmptyMessageID
	}

	targets := []entities.Kind{entities.KindSource}
	if uc.ratingCfg.RateExperts {
		targets = append(targets, entities.KindExpert)
	}

	outcome := &dto.ReactionOutcome{Applied: []entities.ReactionResult{}}
	for _, target := range targets {
		res, reason := uc.store.RecordReaction(event.MessageID, event.Emoji, event.UserID, target)
		if res == nil {
			// an expert-less message is expected when rating both targets
			if !(target == entities.KindExpert && reason == entities.SkipNoTarget) {
				outcome.Skipped = append(outcome.Skipped, reason)
				uc.metrics.RecordReactionSkipped(string(reason))
			}
			uc.logger.Debug().
				Str("message_id", event.MessageID).
				Str("kind", string(target)).
				Int64("user_id", event.UserID).
				Str("emoji", event.Emoji).
				Str("skip_reason", string(reason)).
				Msg("Reaction skipped")
			continue
		}

		outcome.Applied = append(outcome.Applied, *res)
		uc.metrics.RecordReactionApplied(string(res.Kind), string(res.NewStatus))
		uc.logger.Info().
			Str("message_id", event.MessageID).
			Str("item_id", res.ItemID).
			Str("kind", string(res.Kind)).
			Str("emoji", event.Emoji).
			Int("points", res.Points).
			Float64("average_score", res.NewAverageScore).
			Str("status", string(res.NewStatus)).
			Msg("Reaction applied")

		uc.publishRatingUpdated(ctx, event.Emoji, res)
		if res.StatusChanged() {
			uc.notifyStatusChange(ctx, res)
		}
	}

	if len(outcome.Applied) > 0 {
		uc.persistAfterMutation(ctx)
	}
	return outcome, nil
}

// RegisterItem registers a source or expert. It reports whether the item is new.
func (uc *UseCase) RegisterItem(ctx context.Context, req *dto.RegisterItemRequest) (bool, error) {
	kind, ok := entities.ParseKind(req.Kind)
	if !ok {
		return false, ratingerrors.ErrInvalidKind
	}

	created, err := uc.store.RegisterItem(kind, req.ID, req.Category, req.Reference)
	if err != nil {
		return false, err
	}

	if created {
		uc.logger.Info().
			Str("kind", string(kind)).
			Str("item_id", req.ID).
			Str("category", req.Category).
			Msg("Rated item registered")
		uc.persistAfterMutation(ctx)
	}
	return created, nil
}

// RegisterMessage tracks a sent digest message
func (uc *UseCase) RegisterMessage(ctx context.Context, req *dto.RegisterMessageRequest) error {
	if err := uc.store.RegisterMessage(req.MessageID, req.ChatID, req.SourceID, req.ExpertID); err != nil {
		return err
	}

	uc.logger.Debug().
		Str("message_id", req.MessageID).
		Str("source_id", req.SourceID).
		Str("expert_id", req.ExpertID).
		Msg("Message registered")
	uc.persistAfterMutation(ctx)
	return nil
}

// Select picks items from the candidate pool
func (uc *UseCase) Select(ctx context.Context, req *dto.SelectionRequest) (*entities.Selection, error) {
	kind, ok := entities.ParseKind(req.Kind)
	if !ok {
		return nil, ratingerrors.ErrInvalidKind
	}
	sel, err := uc.selectItems(kind, req.CandidatePool, req.TargetCount, uc.ratioOf(req.ExplorationRatio))
	if err != nil {
		return nil, err
	}

	uc.persistAfterMutation(ctx)
	return &sel, nil
}

func (uc *UseCase) ratioOf(r *float64) float64 {
	if r == nil {
		return uc.engine.DefaultRatio()
	}
	return *r
}

func (uc *UseCase) selectItems(kind entities.Kind, pool []string, target int, ratio float64) (entities.Selection, error) {
	start := time.Now()
	sel, err := uc.engine.Select(kind, pool, target, ratio)
	if err != nil {
		return sel, err
	}

	uc.metrics.RecordSelection(string(kind), len(sel.Exploitation), len(sel.Exploration), time.Since(start).Seconds())
	uc.logger.Debug().
		Str("kind", string(kind)).
		Int("target", target).
		Strs("exploitation", sel.Exploitation).
		Strs("exploration", sel.Exploration).
		Int("total_available", sel.Stats.TotalAvailable).
		Msg("Items selected")
	return sel, nil
}

// PlanDigest selects sources per category and pairs each with an expert of the same category
func (uc *UseCase) PlanDigest(ctx context.Context, req *dto.DigestPlanRequest) (*dto.DigestPlan, error) {
	perCategory := uc.digestCfg.PerCategory
	if req != nil && len(req.PerCategory) > 0 {
		perCategory = req.PerCategory
	}
	ratio := uc.engine.DefaultRatio()

	plan := &dto.DigestPlan{
		ID:          uuid.NewString(),
		Categories:  []dto.CategoryPlan{},
		GeneratedAt: uc.clock.Now(),
	}

	for _, category := range uc.planCategories(perCategory) {
		count, ok := perCategory[category]
		if !ok {
			count = uc.digestCfg.DefaultCount
		}
		if count <= 0 {
			continue
		}

		sources := uc.store.Items(entities.KindSource, category)
		sourceSel, err := uc.selectItems(entities.KindSource, itemIDs(sources), count, ratio)
		if err != nil {
			return nil, err
		}

		experts := uc.store.Items(entities.KindExpert, category)
		expertSel, err := uc.selectItems(entities.KindExpert, itemIDs(experts), len(sourceSel.Selected), ratio)
		if err != nil {
			return nil, err
		}

		cp := dto.CategoryPlan{Category: category, Entries: []dto.DigestEntry{}, Stats: sourceSel.Stats}
		for i, sourceID := range sourceSel.Selected {
			entry := dto.DigestEntry{
				Category:        category,
				SourceID:        sourceID,
				SourceReference: referenceOf(sources, sourceID),
				Exploration:     slices.Contains(sourceSel.Exploration, sourceID),
			}
			if len(expertSel.Selected) > 0 {
				entry.ExpertID = expertSel.Selected[i%len(expertSel.Selected)]
				entry.ExpertReference = referenceOf(experts, entry.ExpertID)
			}
			cp.Entries = append(cp.Entries, entry)
		}
		plan.Categories = append(plan.Categories, cp)
	}

	if err := uc.publisher.PublishDigestPlanned(ctx, plan); err != nil {
		uc.logger.Warn().Err(err).Str("plan_id", plan.ID).Msg("Failed to publish digest plan")
	}
	uc.persistAfterMutation(ctx)

	uc.logger.Info().
		Str("plan_id", plan.ID).
		Int("categories", len(plan.Categories)).
		Msg("Digest planned")
	return plan, nil
}

// planCategories returns configured categories first, then request-only ones
func (uc *UseCase) planCategories(perCategory map[string]int) []string {
	out := slices.Clone(uc.digestCfg.Categories)
	var extra []string
	for c := range perCategory {
		if !slices.Contains(out, c) {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

func itemIDs(items []entities.RatedItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func referenceOf(items []entities.RatedItem, id string) string {
	for _, it := range items {
		if it.ID == id {
			return it.Reference
		}
	}
	return ""
}

// Top returns the best rated items of a kind
func (uc *UseCase) Top(_ context.Context, req *dto.TopRequest) ([]entities.RatedItem, error) {
	kind, ok := entities.ParseKind(req.Kind)
	if !ok {
		return nil, ratingerrors.ErrInvalidKind
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	return uc.store.GetTopItems(kind, req.Category, limit), nil
}

// Report builds the rating overview
func (uc *UseCase) Report(_ context.Context) *entities.Report {
	return &entities.Report{
		GeneratedAt:      uc.clock.Now(),
		Sources:          uc.store.Summary(entities.KindSource, ReportTopItems),
		Experts:          uc.store.Summary(entities.KindExpert, ReportTopItems),
		ActiveMessages:   uc.store.MessageCount(),
		ExplorationRatio: uc.engine.DefaultRatio(),
		PrivilegedUserID: uc.ratingCfg.PrivilegedUserID,
	}
}

// CleanupExpired removes tracked messages past the retention horizon
func (uc *UseCase) CleanupExpired(ctx context.Context) (int, error) {
	removed := uc.store.CleanupExpired(uc.ratingCfg.MessageRetentionDays, uc.clock.Now())
	uc.metrics.RecordMessagesExpired(removed)

	if removed > 0 {
		uc.logger.Info().Int("removed", removed).Msg("Expired tracked messages removed")
		if err := uc.Persist(ctx); err != nil {
			return removed, err
		}
	}
	uc.updateGauges()
	return removed, nil
}

// ExportSnapshot returns the full rating state as JSON
func (uc *UseCase) ExportSnapshot(_ context.Context) ([]byte, error) {
	return uc.store.ExportSnapshot()
}

// ImportSnapshot replaces the rating state and persists it.
// Invalid data leaves the current state untouched.
func (uc *UseCase) ImportSnapshot(ctx context.Context, data []byte) error {
	snap, err := store.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	if err := uc.restore(snap); err != nil {
		return err
	}

	uc.logger.Info().Int("messages", uc.store.MessageCount()).Msg("Rating snapshot imported")
	uc.persistAfterMutation(ctx)
	return nil
}

// restore replaces the state with snap. The running rating config always
// wins over the snapshot config section, so a mismatch is only reported.
func (uc *UseCase) restore(snap *entities.Snapshot) error {
	if err := uc.store.Restore(snap); err != nil {
		return err
	}
	if snap.Config.IsZero() {
		return nil
	}
	if drift := uc.store.Config().Drift(snap.Config); len(drift) > 0 {
		uc.logger.Warn().
			Strs("fields", drift).
			Int64("snapshot_privileged_user_id", snap.Config.PrivilegedUserID).
			Msg("Snapshot config differs from running config, keeping running config")
	}
	return nil
}

// Persist saves the current snapshot
func (uc *UseCase) Persist(ctx context.Context) error {
	uc.saveMu.Lock()
	defer uc.saveMu.Unlock()

	start := time.Now()
	err := uc.repo.Save(ctx, uc.store.Snapshot())
	uc.metrics.RecordSnapshotSave(err, time.Since(start).Seconds())
	if err != nil {
		uc.dirty.Store(true)
		return fmt.Errorf("%w: %v", ratingerrors.ErrPersistence, err)
	}

	uc.dirty.Store(false)
	return nil
}

// Flush saves the snapshot if a previous save failed
func (uc *UseCase) Flush(ctx context.Context) error {
	if !uc.dirty.Load() {
		return nil
	}
	return uc.Persist(ctx)
}

// Dirty reports whether unsaved changes exist
func (uc *UseCase) Dirty() bool {
	return uc.dirty.Load()
}

func (uc *UseCase) persistAfterMutation(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PersistenceTimeout)
	defer cancel()

	if err := uc.Persist(ctx); err != nil {
		uc.logger.Warn().Err(err).Msg("Snapshot save failed, will retry on next flush")
	}
	uc.updateGauges()
}

func (uc *UseCase) publishRatingUpdated(ctx context.Context, emoji string, res *entities.ReactionResult) {
	event := &dto.RatingUpdatedEvent{
		EventID:        uuid.NewString(),
		ItemID:         res.ItemID,
		Kind:           string(res.Kind),
		Emoji:          emoji,
		Points:         res.Points,
		AverageScore:   roundScore(res.NewAverageScore),
		Status:         string(res.NewStatus),
		PreviousStatus: string(res.PreviousStatus),
		ReactionCount:  res.ReactionCount,
		UpdatedAt:      uc.clock.Now().UTC().Format(time.RFC3339),
	}

	if err := uc.publisher.PublishRatingUpdated(ctx, event); err != nil {
		uc.logger.Warn().Err(err).Str("item_id", res.ItemID).Msg("Failed to publish rating update")
	}
}

func (uc *UseCase) notifyStatusChange(ctx context.Context, res *entities.ReactionResult) {
	if uc.sender == nil {
		return
	}

	text := fmt.Sprintf("%s %s: %s → %s (avg %.1f, %d reactions)",
		res.NewStatus.Icon(), res.ItemID, res.PreviousStatus, res.NewStatus, res.NewAverageScore, res.ReactionCount)
	if err := uc.sender.SendMessage(ctx, uc.ratingCfg.PrivilegedUserID, text); err != nil {
		uc.logger.Warn().Err(err).Str("item_id", res.ItemID).Msg("Failed to send status notification")
	}
}

func (uc *UseCase) updateGauges() {
	for _, kind := range entities.Kinds {
		r := uc.store.Summary(kind, 0)
		uc.metrics.UpdateRatedItems(string(kind), r.Proven, r.Candidates, r.Rejected)
	}
	uc.metrics.UpdateTrackedMessages(uc.store.MessageCount())
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
