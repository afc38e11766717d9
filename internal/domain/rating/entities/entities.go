// Package entities contains domain entities of the rating domain
package entities

import (
	"maps"
	"time"
)

// Kind discriminates the two families of rated items
type Kind string

const (
	KindSource Kind = "source"
	KindExpert Kind = "expert"
)

// Kinds lists every kind in a stable order
var Kinds = []Kind{KindSource, KindExpert}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	return k == KindSource || k == KindExpert
}

// ParseKind converts user input into a Kind
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	return k, k.Valid()
}

// Status is the reputation state of a rated item
type Status string

const (
	StatusCandidate Status = "candidate"
	StatusProven    Status = "proven"
	StatusRejected  Status = "rejected"
)

// Icon returns the emoji shown next to the status in bot messages
func (s Status) Icon() string {
	switch s {
	case StatusProven:
		return "✅"
	case StatusRejected:
		return "❌"
	default:
		return "🔍"
	}
}

// Status thresholds
const (
	MinReactionsForStatus = 3
	ProvenThreshold       = 7.0
	RejectedThreshold     = -2.0

	// MaxReactionHistory bounds the per-item reaction log
	MaxReactionHistory = 50
)

// Recompute derives the status from the reaction count and average score.
// It is the only place a status is decided.
func Recompute(reactionCount int, averageScore float64) Status {
	if reactionCount < MinReactionsForStatus {
		return StatusCandidate
	}
	switch {
	case averageScore >= ProvenThreshold:
		return StatusProven
	case averageScore <= RejectedThreshold:
		return StatusRejected
	default:
		return StatusCandidate
	}
}

// ReactionRecord is one applied reaction in an item's history
type ReactionRecord struct {
	Emoji  string    `json:"emoji"`
	Points int       `json:"points"`
	At     time.Time `json:"at"`
}

// RatedItem is a news source or an expert tracked for reputation
type RatedItem struct {
	Kind      Kind   `json:"kind"`
	ID        string `json:"id"`
	Category  string `json:"category"`
	Reference string `json:"reference,omitempty"` // URL for sources, handle for experts
	// Seq is the registration order used to break ranking ties
	Seq            uint64           `json:"seq"`
	ReactionCount  int              `json:"reactionCount"`
	ScoreSum       int64            `json:"scoreSum"`
	Status         Status           `json:"status"`
	LastReactionAt *time.Time       `json:"lastReactionAt,omitempty"`
	TimesSelected  int              `json:"timesSelected"`
	LastSelectedAt *time.Time       `json:"lastSelectedAt,omitempty"`
	RegisteredAt   time.Time        `json:"registeredAt"`
	Reactions      []ReactionRecord `json:"reactions,omitempty"`
}

// AverageScore returns ScoreSum / ReactionCount, or 0 when unobserved
func (i *RatedItem) AverageScore() float64 {
	if i.ReactionCount == 0 {
		return 0
	}
	return float64(i.ScoreSum) / float64(i.ReactionCount)
}

// Observed reports whether the item has at least one reaction
func (i *RatedItem) Observed() bool {
	return i.ReactionCount > 0
}

// Clone returns a deep copy safe to hand out of the store
func (i *RatedItem) Clone() RatedItem {
	c := *i
	if i.LastReactionAt != nil {
		t := *i.LastReactionAt
		c.LastReactionAt = &t
	}
	if i.LastSelectedAt != nil {
		t := *i.LastSelectedAt
		c.LastSelectedAt = &t
	}
	if i.Reactions != nil {
		c.Reactions = append([]ReactionRecord(nil), i.Reactions...)
	}
	return c
}

// TrackedMessage links a sent digest message to the items it rates
type TrackedMessage struct {
	MessageID    string    `json:"messageId"`
	ChatID       string    `json:"chatId"`
	SourceItemID string    `json:"sourceItemId"`
	ExpertItemID string    `json:"expertItemId,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// ItemFor returns the item id the message rates for the given kind
func (m *TrackedMessage) ItemFor(kind Kind) (string, bool) {
	switch kind {
	case KindSource:
		return m.SourceItemID, m.SourceItemID != ""
	case KindExpert:
		return m.ExpertItemID, m.ExpertItemID != ""
	}
	return "", false
}

// ReactionPoints maps recognized emojis to signed point values
type ReactionPoints map[string]int

// DefaultReactionPoints returns the canonical emoji scoring
func DefaultReactionPoints() ReactionPoints {
	return ReactionPoints{
		"🔥": 10,
		"👍": 5,
		"👎": -3,
		"💩": -5,
	}
}

// Points returns the value of an emoji and whether it is recognized
func (p ReactionPoints) Points(emoji string) (int, bool) {
	v, ok := p[emoji]
	return v, ok
}

// Clone copies the map
func (p ReactionPoints) Clone() ReactionPoints {
	out := make(ReactionPoints, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// RatingConfig is injected into the store at construction
type RatingConfig struct {
	PrivilegedUserID int64          `json:"privilegedUserId"`
	ReactionPoints   ReactionPoints `json:"reactionPointMap"`
}

// IsZero reports whether no field is set, as in a snapshot without a config section
func (c RatingConfig) IsZero() bool {
	return c.PrivilegedUserID == 0 && len(c.ReactionPoints) == 0
}

// Drift returns the json names of the fields where other differs from c
func (c RatingConfig) Drift(other RatingConfig) []string {
	var fields []string
	if c.PrivilegedUserID != other.PrivilegedUserID {
		fields = append(fields, "privilegedUserId")
	}
	if !maps.Equal(c.ReactionPoints, other.ReactionPoints) {
		fields = append(fields, "reactionPointMap")
	}
	return fields
}

// SkipReason explains why a reaction did not change any rating
type SkipReason string

const (
	SkipNone              SkipReason = ""
	SkipNotPrivileged     SkipReason = "not_privileged_user"
	SkipUnknownMessage    SkipReason = "unknown_message"
	SkipUnrecognizedEmoji SkipReason = "unrecognized_emoji"
	SkipNoTarget          SkipReason = "no_target_item"
	SkipUnknownItem       SkipReason = "unknown_item"
)

// ReactionResult is the post-update state of a rated item
type ReactionResult struct {
	ItemID          string  `json:"itemId"`
	Kind            Kind    `json:"kind"`
	Points          int     `json:"points"`
	NewAverageScore float64 `json:"newAverageScore"`
	PreviousStatus  Status  `json:"previousStatus"`
	NewStatus       Status  `json:"newStatus"`
	ReactionCount   int     `json:"reactionCount"`
}

// StatusChanged reports whether the reaction moved the item to another status
func (r *ReactionResult) StatusChanged() bool {
	return r.PreviousStatus != r.NewStatus
}

// Snapshot is the full persisted state of the rating store
type Snapshot struct {
	Sources  map[string]RatedItem      `json:"sources"`
	Experts  map[string]RatedItem      `json:"experts"`
	Messages map[string]TrackedMessage `json:"messages"`
	Config   RatingConfig              `json:"config"`
}

// Selection is the outcome of one exploit/explore pick
type Selection struct {
	Selected     []string       `json:"selected"`
	Exploitation []string       `json:"exploitation"`
	Exploration  []string       `json:"exploration"`
	Stats        SelectionStats `json:"stats"`
}

// SelectionStats summarizes the candidate pool of a selection
type SelectionStats struct {
	TotalAvailable    int `json:"totalAvailable"`
	Rejected          int `json:"rejected"`
	ExploitationCount int `json:"exploitationCount"`
	ExplorationCount  int `json:"explorationCount"`
}

// KindReport aggregates the items of one kind
type KindReport struct {
	Total      int         `json:"total"`
	Proven     int         `json:"proven"`
	Candidates int         `json:"candidates"`
	Rejected   int         `json:"rejected"`
	Top        []RatedItem `json:"top"`
}

// Report is the system overview shown to the privileged user
type Report struct {
	GeneratedAt      time.Time  `json:"generatedAt"`
	Sources          KindReport `json:"sources"`
	Experts          KindReport `json:"experts"`
	ActiveMessages   int        `json:"activeMessages"`
	ExplorationRatio float64    `json:"explorationRatio"`
	PrivilegedUserID int64      `json:"privilegedUserId"`
}
