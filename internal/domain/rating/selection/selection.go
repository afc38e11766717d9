// Package selection splits a digest pick into exploitation and exploration buckets
package selection

import (
	"cmp"
	"math"
	"slices"

	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	ratingerrors "github.com/Conte777/newsdigest/internal/domain/rating/errors"
)

// DefaultExplorationRatio is the share of a pick reserved for exploration
const DefaultExplorationRatio = 0.30

// ItemStore is the view of the rating store the engine needs
type ItemStore interface {
	Lookup(kind entities.Kind, ids []string) []entities.RatedItem
	MarkSelected(kind entities.Kind, ids []string)
}

// Engine selects items for a digest from a rating store
type Engine struct {
	store        ItemStore
	defaultRatio float64
}

// NewEngine creates an Engine. An invalid default ratio falls back to DefaultExplorationRatio.
func NewEngine(store ItemStore, defaultRatio float64) *Engine {
	if math.IsNaN(defaultRatio) || defaultRatio < 0 || defaultRatio > 1 {
		defaultRatio = DefaultExplorationRatio
	}
	return &Engine{store: store, defaultRatio: defaultRatio}
}

// DefaultRatio returns the ratio used when a request does not carry one
func (e *Engine) DefaultRatio() float64 {
	return e.defaultRatio
}

// Select picks up to targetCount items of kind from pool and records the
// selection on the picked items. Unregistered pool ids are ignored.
func (e *Engine) Select(kind entities.Kind, pool []string, targetCount int, explorationRatio float64) (entities.Selection, error) {
	if !kind.Valid() {
		return entities.Selection{}, ratingerrors.ErrInvalidKind
	}
	if math.IsNaN(explorationRatio) {
		explorationRatio = e.defaultRatio
	}

	sel := Split(e.store.Lookup(kind, pool), targetCount, explorationRatio)
	e.store.MarkSelected(kind, sel.Selected)
	return sel, nil
}

// ClampRatio limits r to [0,1]
func ClampRatio(r float64) float64 {
	return math.Min(1, math.Max(0, r))
}

// Split partitions items into exploitation and exploration buckets.
// Rejected items are never selected and buckets are never backfilled.
func Split(items []entities.RatedItem, targetCount int, explorationRatio float64) entities.Selection {
	sel := entities.Selection{
		Selected:     []string{},
		Exploitation: []string{},
		Exploration:  []string{},
	}

	active := make([]entities.RatedItem, 0, len(items))
	for _, item := range items {
		if item.Status == entities.StatusRejected {
			sel.Stats.Rejected++
			continue
		}
		active = append(active, item)
	}
	sel.Stats.TotalAvailable = len(active)

	if targetCount <= 0 || len(active) == 0 {
		return sel
	}

	explorationCount := int(math.Floor(float64(targetCount) * ClampRatio(explorationRatio)))
	exploitationCount := targetCount - explorationCount

	slices.SortFunc(active, byExploitation)
	n := min(exploitationCount, len(active))
	for _, item := range active[:n] {
		sel.Exploitation = append(sel.Exploitation, item.ID)
	}

	rest := active[n:]
	slices.SortFunc(rest, byExploration)
	for _, item := range rest[:min(explorationCount, len(rest))] {
		sel.Exploration = append(sel.Exploration, item.ID)
	}

	sel.Selected = append(append(sel.Selected, sel.Exploitation...), sel.Exploration...)
	sel.Stats.ExploitationCount = len(sel.Exploitation)
	sel.Stats.ExplorationCount = len(sel.Exploration)
	return sel
}

// byExploitation orders by average score descending, unobserved items last
func byExploitation(a, b entities.RatedItem) int {
	switch {
	case a.Observed() && !b.Observed():
		return -1
	case !a.Observed() && b.Observed():
		return 1
	}
	if c := cmp.Compare(b.AverageScore(), a.AverageScore()); c != 0 {
		return c
	}
	return byRegistration(a, b)
}

// byExploration orders by reaction count ascending
func byExploration(a, b entities.RatedItem) int {
	if c := cmp.Compare(a.ReactionCount, b.ReactionCount); c != 0 {
		return c
	}
	return byRegistration(a, b)
}

func byRegistration(a, b entities.RatedItem) int {
	if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
