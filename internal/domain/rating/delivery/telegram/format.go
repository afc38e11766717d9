package telegram

import (
	"fmt"
	"strings"

	"github.com/Conte777/newsdigest/internal/domain/rating/consts"
	"github.com/Conte777/newsdigest/internal/domain/rating/dto"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
)

// FormatHelp renders the command list
func FormatHelp(privileged bool) string {
	var b strings.Builder
	b.WriteString("🤖 Digest rating bot\n\nReact to digest posts with 🔥 👍 👎 💩 to rate sources and experts.\n\nCommands:\n")
	for _, c := range consts.AllCommands {
		if c.Privileged && !privileged {
			continue
		}
		fmt.Fprintf(&b, "/%s - %s\n", c.Name, c.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatReport renders the rating report for both kinds
func FormatReport(r *entities.Report) string {
	var b strings.Builder
	b.WriteString("📊 Rating report\n")

	writeKind(&b, "Sources", r.Sources)
	writeKind(&b, "Experts", r.Experts)

	fmt.Fprintf(&b, "\n📨 Tracked messages: %d\n", r.ActiveMessages)
	fmt.Fprintf(&b, "🎲 Exploration: %.0f%%\n", r.ExplorationRatio*100)
	fmt.Fprintf(&b, "🕐 %s", r.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	return b.String()
}

func writeKind(b *strings.Builder, title string, k entities.KindReport) {
	fmt.Fprintf(b, "\n%s: %d total, ✅ %d proven, 🔍 %d candidates, ❌ %d rejected\n",
		title, k.Total, k.Proven, k.Candidates, k.Rejected)
	if len(k.Top) == 0 {
		b.WriteString("No rated items yet\n")
		return
	}
	for i, item := range k.Top {
		fmt.Fprintf(b, "%d. %s\n", i+1, itemLine(item))
	}
}

func itemLine(item entities.RatedItem) string {
	return fmt.Sprintf("%s %s [%s] avg %.1f (%d reactions)",
		item.Status.Icon(), item.ID, item.Category, item.AverageScore(), item.ReactionCount)
}

// FormatTop renders a top list
func FormatTop(kind entities.Kind, category string, items []entities.RatedItem) string {
	title := fmt.Sprintf("🏆 Top %ss", kind)
	if category != "" {
		title += " in " + category
	}
	if len(items) == 0 {
		return title + "\n\nNo rated items yet"
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, itemLine(item))
	}
	return b.String()
}

// FormatDigest renders a digest plan
func FormatDigest(plan *dto.DigestPlan) string {
	if len(plan.Categories) == 0 {
		return "📰 Nothing to plan: no categories with sources"
	}

	var b strings.Builder
	b.WriteString("📰 Next digest plan")
	for _, cp := range plan.Categories {
		fmt.Fprintf(&b, "\n\n📂 %s (%d exploit, %d explore, %d rejected)",
			cp.Category, cp.Stats.ExploitationCount, cp.Stats.ExplorationCount, cp.Stats.Rejected)
		if len(cp.Entries) == 0 {
			b.WriteString("\nno eligible sources")
			continue
		}
		for _, e := range cp.Entries {
			mark := "🎯"
			if e.Exploration {
				mark = "🧪"
			}
			line := fmt.Sprintf("\n%s %s", mark, e.SourceID)
			if e.ExpertID != "" {
				line += " + " + e.ExpertID
			}
			b.WriteString(line)
		}
	}
	return b.String()
}

// ParseTopArgs parses "/top [kind] [category]"; an unknown first word is a category
func ParseTopArgs(text string) (entities.Kind, string) {
	fields := strings.Fields(text)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		fields = fields[1:]
	}

	kind := entities.KindSource
	if len(fields) > 0 {
		if k, ok := entities.ParseKind(strings.TrimSuffix(strings.ToLower(fields[0]), "s")); ok {
			kind = k
			fields = fields[1:]
		}
	}
	return kind, strings.Join(fields, " ")
}
