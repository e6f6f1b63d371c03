package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abdidvp/patchgate/internal/domain"
)

// ── warm palette ──
var (
	accent    = lipgloss.Color("#D97706") // amber
	fg        = lipgloss.Color("#E8E6E3") // warm light gray
	dim       = lipgloss.Color("#6B7280") // muted gray
	faint     = lipgloss.Color("#3F3F46") // very dim
	success   = lipgloss.Color("#22C55E") // green
	danger    = lipgloss.Color("#EF4444") // red
	warning   = lipgloss.Color("#F59E0B") // amber-yellow
	info      = lipgloss.Color("#8B949E") // soft blue-gray
	skipColor = lipgloss.Color("#4B5563") // dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	skipStyle     = lipgloss.NewStyle().Foreground(skipColor)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	infoTagStyle  = lipgloss.NewStyle().Foreground(info)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	hintStyle     = lipgloss.NewStyle().Foreground(dim).Italic(true)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderReport formats a run report for terminal output. Diffs are shown
// when the report carries them.
func RenderReport(rep domain.Report) string {
	var b strings.Builder
	s := rep.Summary

	// ── Header ──
	title := headerStyle.Render("patchgate")
	subtitle := dimStyle.Render("Remediation Run")
	if s.DryRun {
		subtitle = dimStyle.Render("Remediation Run (dry run)")
	}
	counts := fmt.Sprintf("%s  %s  %s  %s",
		passStyle.Render(fmt.Sprintf("%d applied", s.Applied)),
		failStyle.Render(fmt.Sprintf("%d rejected", s.Rejected)),
		errorTagStyle.Render(fmt.Sprintf("%d errors", s.Errors)),
		skipStyle.Render(fmt.Sprintf("%d skipped", s.Skipped)),
	)
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + counts))
	b.WriteString("\n\n")

	// ── Applied ──
	if len(rep.Fixes) > 0 {
		renderSection(&b, "Applied", len(rep.Fixes))
		for _, f := range rep.Fixes {
			renderFix(&b, f)
		}
	}

	// ── Rejected ──
	if len(rep.Rejected) > 0 {
		renderSection(&b, "Rejected", len(rep.Rejected))
		for _, r := range rep.Rejected {
			fmt.Fprintf(&b, "    %s %s  %s\n", failStyle.Render("●"), fileStyle.Render(shortenPath(r.File)), dimStyle.Render(r.Module))
			for _, v := range r.Reasons {
				fmt.Fprintf(&b, "         %s %s\n", errorTagStyle.Render(v.Rule), dimStyle.Render(v.Message))
			}
		}
	}

	// ── Errors ──
	if len(rep.Errors) > 0 {
		renderSection(&b, "Errors", len(rep.Errors))
		for _, e := range rep.Errors {
			who := e.ModuleID
			if who == "" {
				who = "engine"
			}
			fmt.Fprintf(&b, "    %s %s %s  %s\n", errorTagStyle.Render(e.Phase), titleStyle.Render(who), dimStyle.Render(e.IssueID), dimStyle.Render(e.Message))
		}
	}

	// ── Skipped ──
	if len(rep.Skipped) > 0 {
		renderSection(&b, "Skipped", len(rep.Skipped))
		for _, sk := range rep.Skipped {
			fmt.Fprintf(&b, "    %s %s  %s\n", skipStyle.Render("○"), skipStyle.Render(padRight(sk.IssueID, 16)), skipStyle.Render(string(sk.Type)+": "+sk.Reason))
		}
	}

	b.WriteString("\n  " + separatorLine + "\n")
	switch {
	case s.Applied == 0 && !s.Partial:
		b.WriteString("  " + dimStyle.Render("Nothing to change.") + "\n")
	case s.DryRun:
		b.WriteString("  " + hintStyle.Render("Dry run: no files were written. Re-run without --dry-run to apply.") + "\n")
	default:
		fmt.Fprintf(&b, "  %s\n", passStyle.Render(fmt.Sprintf("%d file(s) changed.", s.FilesChanged)))
	}
	if s.ManualReview > 0 {
		fmt.Fprintf(&b, "  %s\n", warnStyle.Render(fmt.Sprintf("%d fix(es) need manual review.", s.ManualReview)))
	}
	b.WriteString("\n")
	return b.String()
}

func renderSection(b *strings.Builder, title string, n int) {
	fmt.Fprintf(b, "  %s %s\n", titleStyle.Render(title), dimStyle.Render(fmt.Sprintf("(%d)", n)))
}

func renderFix(b *strings.Builder, f domain.FixReport) {
	icon := passStyle.Render("●")
	if f.ManualReview {
		icon = warnStyle.Render("●")
	}
	fmt.Fprintf(b, "    %s %s  %s %s\n", icon, fileStyle.Render(shortenPath(f.File)), dimStyle.Render(f.Module), confidenceTag(f.Confidence))
	fmt.Fprintf(b, "         %s\n", f.Description)
	if len(f.ResolvedIssues) > 1 {
		fmt.Fprintf(b, "         %s\n", faintStyle.Render("resolves "+strings.Join(f.ResolvedIssues, ", ")))
	}
	for _, w := range f.Warnings {
		fmt.Fprintf(b, "         %s %s\n", warnTagStyle.Render("warn"), dimStyle.Render(w))
	}
	if f.Recheck {
		fmt.Fprintf(b, "         %s\n", infoTagStyle.Render("re-run the scanner to confirm this fix"))
	}
	if f.Diff != "" {
		b.WriteString(renderDiff(f.Diff))
	}
}

func confidenceTag(c float64) string {
	style := passStyle
	switch {
	case c < domain.DefaultMinConfidence:
		style = failStyle
	case c < domain.DefaultWarnConfidence:
		style = warnStyle
	}
	return style.Render(fmt.Sprintf("%.2f", c))
}

func renderDiff(diff string) string {
	var b strings.Builder
	for _, l := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			l = faintStyle.Render(l)
		case strings.HasPrefix(l, "+"):
			l = passStyle.Render(l)
		case strings.HasPrefix(l, "-"):
			l = failStyle.Render(l)
		case strings.HasPrefix(l, "@@"):
			l = infoTagStyle.Render(l)
		default:
			l = dimStyle.Render(l)
		}
		b.WriteString("           " + l + "\n")
	}
	return b.String()
}

// RenderModules lists fix modules with the issue types they handle.
func RenderModules(modules []domain.FixModule, disabled func(id string) bool) string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("Fix Modules") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")
	for _, m := range modules {
		var types []string
		for _, t := range m.IssueTypes() {
			types = append(types, string(t))
		}
		icon, name := passStyle.Render("●"), titleStyle.Render(padRight(m.ID(), 16))
		if disabled != nil && disabled(m.ID()) {
			icon, name = skipStyle.Render("○"), skipStyle.Render(padRight(m.ID(), 16))
		}
		fmt.Fprintf(&b, "  %s %s %s  %s\n", icon, name, dimStyle.Render(padRight(string(m.Confidence()), 7)), faintStyle.Render(strings.Join(types, ", ")))
	}
	return b.String()
}

// RenderHistory formats run history for terminal output.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No run history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Run History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for _, e := range entries {
		hash := e.CommitHash
		if len(hash) > 7 {
			hash = hash[:7]
		}
		if hash == "" {
			hash = "·······"
		}
		ts := e.Timestamp
		if len(ts) > 10 {
			ts = ts[:10]
		}

		line := fmt.Sprintf("  %s  %s  %s  %s",
			dimStyle.Render(ts),
			faintStyle.Render(hash),
			passStyle.Render(fmt.Sprintf("%d applied", e.Applied)),
			dimStyle.Render(fmt.Sprintf("%d rejected  %d skipped", e.Rejected, e.Skipped)),
		)
		if e.Errors > 0 {
			line += "  " + failStyle.Render(fmt.Sprintf("%d errors", e.Errors))
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func shortenPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 3 {
		return strings.Join(parts[len(parts)-3:], "/")
	}
	return path
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
