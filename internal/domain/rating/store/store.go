// Package store implements the in-memory rating store for sources and experts
package store

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	ratingerrors "github.com/Conte777/newsdigest/internal/domain/rating/errors"
)

// DefaultRetentionDays is the tracked message horizon
const DefaultRetentionDays = 30

// Store owns rated items and tracked messages.
// Mutations take the write lock, reads take the read lock.
type Store struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	cfg      entities.RatingConfig
	items    map[entities.Kind]map[string]*entities.RatedItem
	messages map[string]*entities.TrackedMessage
	nextSeq  uint64
}

// New creates a Store. Empty reaction points fall back to the canonical map.
func New(cfg entities.RatingConfig, clock clockwork.Clock) *Store {
	if len(cfg.ReactionPoints) == 0 {
		cfg.ReactionPoints = entities.DefaultReactionPoints()
	} else {
		cfg.ReactionPoints = cfg.ReactionPoints.Clone()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Store{
		clock: clock,
		cfg:   cfg,
	}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.items = map[entities.Kind]map[string]*entities.RatedItem{
		entities.KindSource: make(map[string]*entities.RatedItem),
		entities.KindExpert: make(map[string]*entities.RatedItem),
	}
	s.messages = make(map[string]*entities.TrackedMessage)
	s.nextSeq = 1
}

// Config returns a copy of the rating config
func (s *Store) Config() entities.RatingConfig {
	return entities.RatingConfig{
		PrivilegedUserID: s.cfg.PrivilegedUserID,
		ReactionPoints:   s.cfg.ReactionPoints.Clone(),
	}
}

// RegisterItem creates the item if absent. It reports whether a new item was created.
func (s *Store) RegisterItem(kind entities.Kind, id, category, reference string) (bool, error) {
	if !kind.Valid() {
		return false, ratingerrors.ErrInvalidKind
	}
	if id == "" {
		return false, ratingerrors.ErrEmptyItemID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[kind][id]; ok {
		return false, nil
	}

	s.items[kind][id] = &entities.RatedItem{
		Kind:         kind,
		ID:           id,
		Category:     category,
		Reference:    reference,
		Seq:          s.nextSeq,
		Status:       entities.StatusCandidate,
		RegisteredAt: s.clock.Now(),
	}
	s.nextSeq++
	return true, nil
}

// RegisterMessage tracks a sent message. Re-registering a message id replaces it.
func (s *Store) RegisterMessage(messageID, chatID, sourceID, expertID string) error {
	if messageID == "" {
		return ratingerrors.ErrEmptyMessageID
	}
	if sourceID == "" {
		return ratingerrors.ErrEmptyItemID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[entities.KindSource][sourceID]; !ok {
		return &ratingerrors.UnknownItemError{Kind: entities.KindSource, ID: sourceID}
	}
	if expertID != "" {
		if _, ok := s.items[entities.KindExpert][expertID]; !ok {
			return &ratingerrors.UnknownItemError{Kind: entities.KindExpert, ID: expertID}
		}
	}

	s.messages[messageID] = &entities.TrackedMessage{
		MessageID:    messageID,
		ChatID:       chatID,
		SourceItemID: sourceID,
		ExpertItemID: expertID,
		RegisteredAt: s.clock.Now(),
	}
	return nil
}

// RecordReaction applies a reaction to the target item of a tracked message.
// A nil result comes with the reason nothing changed.
func (s *Store) RecordReaction(messageID, emoji string, userID int64, target entities.Kind) (*entities.ReactionResult, entities.SkipReason) {
	if userID != s.cfg.PrivilegedUserID {
		return nil, entities.SkipNotPrivileged
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[messageID]
	if !ok {
		return nil, entities.SkipUnknownMessage
	}

	points, ok := s.cfg.ReactionPoints.Points(emoji)
	if !ok {
		return nil, entities.SkipUnrecognizedEmoji
	}

	itemID, ok := msg.ItemFor(target)
	if !ok {
		return nil, entities.SkipNoTarget
	}

	item, ok := s.items[target][itemID]
	if !ok {
		return nil, entities.SkipUnknownItem
	}

	previous := item.Status
	now := s.clock.Now()
	item.ScoreSum += int64(points)
	item.ReactionCount++
	item.LastReactionAt = &now
	item.Status = entities.Recompute(item.ReactionCount, item.AverageScore())

	item.Reactions = append(item.Reactions, entities.ReactionRecord{Emoji: emoji, Points: points, At: now})
	if n := len(item.Reactions); n > entities.MaxReactionHistory {
		item.Reactions = append([]entities.ReactionRecord(nil), item.Reactions[n-entities.MaxReactionHistory:]...)
	}

	return &entities.ReactionResult{
		ItemID:          item.ID,
		Kind:            item.Kind,
		Points:          points,
		NewAverageScore: item.AverageScore(),
		PreviousStatus:  previous,
		NewStatus:       item.Status,
		ReactionCount:   item.ReactionCount,
	}, entities.SkipNone
}

// GetItem returns a copy of the item
func (s *Store) GetItem(kind entities.Kind, id string) (entities.RatedItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[kind][id]
	if !ok {
		return entities.RatedItem{}, false
	}
	return item.Clone(), true
}

// GetMessage returns a copy of the tracked message
func (s *Store) GetMessage(messageID string) (entities.TrackedMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[messageID]
	if !ok {
		return entities.TrackedMessage{}, false
	}
	return *msg, true
}

// MessageCount returns the number of tracked messages
func (s *Store) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Items returns copies of all items of kind in registration order,
// optionally filtered by category
func (s *Store) Items(kind entities.Kind, category string) []entities.RatedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.RatedItem, 0, len(s.items[kind]))
	for _, item := range s.items[kind] {
		if category != "" && item.Category != category {
			continue
		}
		out = append(out, item.Clone())
	}
	slices.SortFunc(out, bySeq)
	return out
}

// Lookup returns copies of the registered items among ids.
// Unknown and duplicate ids are dropped.
func (s *Store) Lookup(kind entities.Kind, ids []string) []entities.RatedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	out := make([]entities.RatedItem, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if item, ok := s.items[kind][id]; ok {
			out = append(out, item.Clone())
		}
	}
	return out
}

// GetTopItems returns observed items sorted by average score descending,
// ties broken by registration order. limit <= 0 means no limit.
func (s *Store) GetTopItems(kind entities.Kind, category string, limit int) []entities.RatedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.RatedItem, 0)
	for _, item := range s.items[kind] {
		if !item.Observed() {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		out = append(out, item.Clone())
	}

	slices.SortFunc(out, func(a, b entities.RatedItem) int {
		if c := cmp.Compare(b.AverageScore(), a.AverageScore()); c != 0 {
			return c
		}
		return bySeq(a, b)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MarkSelected bumps the selection counters of the given items
func (s *Store) MarkSelected(kind entities.Kind, ids []string) {
	if len(ids) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for _, id := range ids {
		item, ok := s.items[kind][id]
		if !ok {
			continue
		}
		item.TimesSelected++
		t := now
		item.LastSelectedAt = &t
	}
}

// CleanupExpired deletes tracked messages older than maxAgeDays and returns
// how many were removed. Rated items are never touched.
func (s *Store) CleanupExpired(maxAgeDays int, now time.Time) int {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultRetentionDays
	}
	cutoff := now.Add(-time.Duration(maxAgeDays) * 24 * time.Hour)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, msg := range s.messages {
		if msg.RegisteredAt.Before(cutoff) {
			delete(s.messages, id)
			removed++
		}
	}
	return removed
}

// Summary aggregates the items of kind with the topN best observed ones.
// topN <= 0 skips the top list.
func (s *Store) Summary(kind entities.Kind, topN int) entities.KindReport {
	s.mu.RLock()
	report := entities.KindReport{Total: len(s.items[kind]), Top: []entities.RatedItem{}}
	for _, item := range s.items[kind] {
		switch item.Status {
		case entities.StatusProven:
			report.Proven++
		case entities.StatusRejected:
			report.Rejected++
		default:
			report.Candidates++
		}
	}
	s.mu.RUnlock()

	if topN > 0 {
		report.Top = s.GetTopItems(kind, "", topN)
	}
	return report
}

// Snapshot returns a deep copy of the full state
func (s *Store) Snapshot() *entities.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &entities.Snapshot{
		Sources:  make(map[string]entities.RatedItem, len(s.items[entities.KindSource])),
		Experts:  make(map[string]entities.RatedItem, len(s.items[entities.KindExpert])),
		Messages: make(map[string]entities.TrackedMessage, len(s.messages)),
		Config:   s.Config(),
	}
	for id, item := range s.items[entities.KindSource] {
		snap.Sources[id] = item.Clone()
	}
	for id, item := range s.items[entities.KindExpert] {
		snap.Experts[id] = item.Clone()
	}
	for id, msg := range s.messages {
		snap.Messages[id] = *msg
	}
	return snap
}

// ExportSnapshot serializes the full state to JSON
func (s *Store) ExportSnapshot() ([]byte, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot document without touching the state
func DecodeSnapshot(data []byte) (*entities.Snapshot, error) {
	var snap entities.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &ratingerrors.InvalidSnapshotError{Reason: "malformed json", Err: err}
	}
	return &snap, nil
}

// ImportSnapshot decodes JSON and replaces the state wholesale
func (s *Store) ImportSnapshot(data []byte) error {
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	return s.Restore(snap)
}

// Restore validates snap and replaces the state wholesale. The injected
// rating config is kept; the snapshot config section is informational.
func (s *Store) Restore(snap *entities.Snapshot) error {
	if snap == nil {
		return &ratingerrors.InvalidSnapshotError{Reason: "empty snapshot"}
	}

	items := map[entities.Kind]map[string]*entities.RatedItem{
		entities.KindSource: make(map[string]*entities.RatedItem, len(snap.Sources)),
		entities.KindExpert: make(map[string]*entities.RatedItem, len(snap.Experts)),
	}
	var maxSeq uint64

	load := func(kind entities.Kind, in map[string]entities.RatedItem) error {
		for key, item := range in {
			if err := validateItem(kind, key, &item); err != nil {
				return err
			}
			c := item.Clone()
			c.Status = entities.Recompute(c.ReactionCount, c.AverageScore())
			items[kind][key] = &c
			maxSeq = max(maxSeq, c.Seq)
		}
		return nil
	}
	if err := load(entities.KindSource, snap.Sources); err != nil {
		return err
	}
	if err := load(entities.KindExpert, snap.Experts); err != nil {
		return err
	}

	messages := make(map[string]*entities.TrackedMessage, len(snap.Messages))
	for key, msg := range snap.Messages {
		if key == "" || msg.MessageID != key {
			return &ratingerrors.InvalidSnapshotError{Reason: fmt.Sprintf("message key %q does not match id %q", key, msg.MessageID)}
		}
		if _, ok := items[entities.KindSource][msg.SourceItemID]; !ok {
			return &ratingerrors.InvalidSnapshotError{
				Reason: fmt.Sprintf("message %q", key),
				Err:    &ratingerrors.UnknownItemError{Kind: entities.KindSource, ID: msg.SourceItemID},
			}
		}
		if msg.ExpertItemID != "" {
			if _, ok := items[entities.KindExpert][msg.ExpertItemID]; !ok {
				return &ratingerrors.InvalidSnapshotError{
					Reason: fmt.Sprintf("message %q", key),
					Err:    &ratingerrors.UnknownItemError{Kind: entities.KindExpert, ID: msg.ExpertItemID},
				}
			}
		}
		m := msg
		messages[key] = &m
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = items
	s.messages = messages
	s.nextSeq = maxSeq + 1
	return nil
}

func validateItem(kind entities.Kind, key string, item *entities.RatedItem) error {
	switch {
	case key == "" || item.ID != key:
		return &ratingerrors.InvalidSnapshotError{Reason: fmt.Sprintf("%s key %q does not match id %q", kind, key, item.ID)}
	case item.Kind != kind:
		return &ratingerrors.InvalidSnapshotError{Reason: fmt.Sprintf("%s %q has kind %q", kind, key, item.Kind)}
	case item.ReactionCount < 0:
		return &ratingerrors.InvalidSnapshotError{Reason: fmt.Sprintf("%s %q has negative reaction count", kind, key)}
	case item.ReactionCount == 0 && item.ScoreSum != 0:
		return &ratingerrors.InvalidSnapshotError{Reason: fmt.Sprintf("%s %q has score without reactions", kind, key)}
	}
	return nil
}

func bySeq(a, b entities.RatedItem) int {
	if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
