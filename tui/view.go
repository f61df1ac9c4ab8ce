package tui

import (
	"fmt"
	"strings"

	"finshorts/types"
)

const maxListed = 15

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("finshorts pipeline"))
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(ErrorStyle.Render("Error: " + m.Err.Error()))
		b.WriteString("\n\n")
	}
	if m.Snapshot == nil {
		b.WriteString(InfoStyle.Render("loading work items..."))
		return b.String()
	}
	snap := m.Snapshot

	b.WriteString(m.stateLine())
	b.WriteString("\n\n")
	b.WriteString(BoxStyle.Render(stageCounts(snap)))
	b.WriteString("\n\n")

	if len(snap.Items) == 0 {
		b.WriteString(InfoStyle.Render("no active work items"))
		b.WriteString("\n")
	}
	for i, item := range snap.Items {
		if i == maxListed {
			b.WriteString(InfoStyle.Render(fmt.Sprintf("  ... %d more", len(snap.Items)-maxListed)))
			b.WriteString("\n")
			break
		}
		line := fmt.Sprintf("%-12s %s", item.Stage, truncate(item.Title, 60))
		if item.LastError != "" {
			line += ErrorStyle.Render(fmt.Sprintf("  (%d failed: %s)", item.Attempts, truncate(item.LastError, 50)))
		}
		if i == m.Cursor {
			b.WriteString(SelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.Cursor < len(snap.Items) {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render(detail(snap.Items[m.Cursor])))
		b.WriteString("\n")
	}

	if len(snap.Status.Logs) > 0 || len(m.Notices) > 0 {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("Recent activity:"))
		b.WriteString("\n")
		logs := snap.Status.Logs
		if len(logs) > maxNotices {
			logs = logs[len(logs)-maxNotices:]
		}
		for _, l := range logs {
			b.WriteString(InfoStyle.Render(fmt.Sprintf("  %s %s", l.Timestamp.Format("15:04:05"), l.Message)))
			b.WriteString("\n")
		}
		for _, n := range m.Notices {
			b.WriteString(InfoStyle.Render("  " + n))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.running() {
		b.WriteString(InfoStyle.Render(textFooterRunning))
	} else {
		b.WriteString(InfoStyle.Render(textFooter))
	}
	return b.String()
}

func (m Model) stateLine() string {
	st := m.Snapshot.Status
	switch {
	case st.Running:
		return StatusStyle.Render(fmt.Sprintf("Running (%s): %s", st.RunID, st.State))
	case st.Error != "":
		return ErrorStyle.Render("Last run failed: " + st.Error)
	case st.Last != nil:
		l := st.Last
		return HighlightStyle.Render(fmt.Sprintf("Last run: %d published, %d advanced, %d failed, %d rejected",
			l.Published, l.Advanced, l.Failed, l.Rejected))
	default:
		return HighlightStyle.Render("Idle")
	}
}

func stageCounts(snap *Snapshot) string {
	var parts []string
	for _, s := range types.Stages[:len(types.Stages)-1] {
		parts = append(parts, fmt.Sprintf("%s %d", s, snap.Counts[s]))
	}
	parts = append(parts, fmt.Sprintf("archived %d", snap.Archived), fmt.Sprintf("rejected %d", snap.Rejected))
	return strings.Join(parts, " | ")
}

func detail(item *types.WorkItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n  source %s, created %s", item.ID, item.Source, item.CreatedAt.Format("2006-01-02 15:04"))
	if item.URL != "" {
		fmt.Fprintf(&b, "\n  %s", item.URL)
	}
	if len(item.Keywords) > 0 {
		fmt.Fprintf(&b, "\n  keywords: %s", strings.Join(item.Keywords, ", "))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
