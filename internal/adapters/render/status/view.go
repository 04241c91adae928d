package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/chatdrive/internal/domain"
)

type RenderOptions struct {
	Now time.Time
}

// View is everything the status screen shows: the last run summary plus the
// live pool shape.
type View struct {
	Summary   *domain.RunSummary
	PoolSize  int
	Tokens    []domain.Credential
	ActiveIdx int
	Identity  *domain.Identity
}

func renderView(view View, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("chatdrive status"),
		s.header.Render(fmt.Sprintf("credentials: %d", view.PoolSize)),
	}

	if len(view.Tokens) > 0 {
		lines = append(lines, s.section.Render(renderPool(view, s)))
	}

	if view.Identity != nil {
		lines = append(lines, s.section.Render(renderIdentity(*view.Identity, s)))
	}

	if view.Summary == nil {
		lines = append(lines, s.section.Render(s.empty.Render("No run recorded yet.")))
	} else {
		lines = append(lines, s.section.Render(renderSummary(*view.Summary, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPool(view View, s styles) string {
	parts := make([]string, 0, len(view.Tokens))
	for i, token := range view.Tokens {
		marker := " "
		if i == view.ActiveIdx {
			marker = "*"
		}
		parts = append(parts, s.value.Render(fmt.Sprintf("%s %2d  %s", marker, i, token.Masked())))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderIdentity(identity domain.Identity, s styles) string {
	label := identity.Email
	if label == "" {
		label = identity.ID
	}
	return keyValue(s, "account", label)
}

func renderSummary(summary domain.RunSummary, opts RenderOptions, s styles) string {
	parts := []string{
		keyValue(s, "last run", formatRelative(summary.LastRunAt, opts.Now)),
		keyValue(s, "model", orNA(summary.Model)),
		keyValue(s, "delivered", fmt.Sprintf("%d", summary.MessagesDelivered)),
		keyValue(s, "points used", fmt.Sprintf("%d", summary.PointsConsumed)),
	}

	if summary.MessagesFailed > 0 {
		parts = append(parts, s.warning.Render(fmt.Sprintf("failed: %d", summary.MessagesFailed)))
	}
	if !summary.LastPrunedAt.IsZero() {
		parts = append(parts, keyValue(s, "last prune", formatRelative(summary.LastPrunedAt, opts.Now)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func keyValue(s styles, key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render(key+": "), s.value.Render(value))
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "n/a"
	}
	return value
}

func formatRelative(at, now time.Time) string {
	if at.IsZero() {
		return "never"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return at.Format("2006-01-02")
	}
}
