package telegram

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/newsdigest/internal/domain/rating/dto"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
)

func TestParseTopArgs(t *testing.T) {
	tests := []struct {
		text     string
		kind     entities.Kind
		category string
	}{
		{"/top", entities.KindSource, ""},
		{"/top expert", entities.KindExpert, ""},
		{"/top experts AI", entities.KindExpert, "AI"},
		{"/top Robotics", entities.KindSource, "Robotics"},
		{"/top source eVTOL", entities.KindSource, "eVTOL"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			kind, category := ParseTopArgs(tt.text)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.category, category)
		})
	}
}

func TestFormatReport(t *testing.T) {
	report := &entities.Report{
		GeneratedAt: time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC),
		Sources: entities.KindReport{
			Total: 2, Proven: 1, Candidates: 1,
			Top: []entities.RatedItem{{
				Kind: entities.KindSource, ID: "Alpha", Category: "AI",
				ReactionCount: 3, ScoreSum: 30, Status: entities.StatusProven,
			}},
		},
		ActiveMessages:   4,
		ExplorationRatio: 0.3,
	}

	text := FormatReport(report)

	assert.Contains(t, text, "Sources: 2 total, ✅ 1 proven")
	assert.Contains(t, text, "1. ✅ Alpha [AI] avg 10.0 (3 reactions)")
	assert.Contains(t, text, "No rated items yet")
	assert.Contains(t, text, "Tracked messages: 4")
	assert.Contains(t, text, "Exploration: 30%")
}

func TestFormatTop_Empty(t *testing.T) {
	assert.Equal(t, "🏆 Top experts in AI\n\nNo rated items yet", FormatTop(entities.KindExpert, "AI", nil))
}

func TestFormatDigest(t *testing.T) {
	plan := &dto.DigestPlan{Categories: []dto.CategoryPlan{{
		Category: "AI",
		Entries: []dto.DigestEntry{
			{SourceID: "OpenAI Blog", ExpertID: "Andrej Karpathy"},
			{SourceID: "New Source", Exploration: true},
		},
		Stats: entities.SelectionStats{ExploitationCount: 1, ExplorationCount: 1},
	}}}

	text := FormatDigest(plan)

	assert.Contains(t, text, "📂 AI (1 exploit, 1 explore, 0 rejected)")
	assert.Contains(t, text, "🎯 OpenAI Blog + Andrej Karpathy")
	assert.Contains(t, text, "🧪 New Source")
	assert.Contains(t, FormatDigest(&dto.DigestPlan{}), "Nothing to plan")
}

func TestFormatHelp_HidesPrivilegedCommands(t *testing.T) {
	assert.Contains(t, FormatHelp(true), "/digest")
	assert.NotContains(t, FormatHelp(false), "/digest")
	assert.Contains(t, FormatHelp(false), "/help")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short"))

	line := strings.Repeat("a", 100)
	text := strings.TrimSuffix(strings.Repeat(line+"\n", 100), "\n")
	parts := splitMessage(text)
	require.Len(t, parts, 3)
	bodies := make([]string, len(parts))
	for i, p := range parts {
		assert.LessOrEqual(t, len(p), MaxMessageLength)
		header, body, ok := strings.Cut(p, "\n")
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("(%d/3)", i+1), header)
		bodies[i] = body
	}
	assert.Equal(t, text, strings.Join(bodies, "\n"))

	long := strings.Repeat("word ", 2000)
	for _, p := range splitMessage(long) {
		assert.LessOrEqual(t, len(p), MaxMessageLength)
	}
}

func TestSplitMessage_HeaderFitsFullPart(t *testing.T) {
	text := strings.Repeat("b", MaxMessageLength) + "\n" + strings.Repeat("c", MaxMessageLength-1)

	parts := splitMessage(text)
	require.Greater(t, len(parts), 2)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), MaxMessageLength)
		assert.True(t, strings.HasPrefix(p, "("))
	}
}
