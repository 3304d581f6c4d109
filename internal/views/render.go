package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/remindd/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	highStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

const dueLayout = "Mon Jan 2 15:04"

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

// TaskMarkdown describes a task as a markdown document; the description is
// included verbatim so it may carry its own markdown.
func TaskMarkdown(task model.Task, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", task.Title)
	fmt.Fprintf(&b, "- **ID:** %d\n", task.ID)
	fmt.Fprintf(&b, "- **Priority:** %s\n", task.Priority)
	fmt.Fprintf(&b, "- **Due:** %s\n", DueLabel(task, now))
	status := "open"
	if task.Completed {
		status = "completed"
	}
	fmt.Fprintf(&b, "- **Status:** %s\n", status)
	if desc := strings.TrimSpace(task.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}
	return b.String()
}

func RenderTask(task model.Task, now time.Time) string {
	return RenderMarkdown(TaskMarkdown(task, now))
}

// DueLabel formats the due date with a relative hint, e.g.
// "Mon Mar 2 09:00 (in 20m)".
func DueLabel(task model.Task, now time.Time) string {
	if !task.HasDueDate() {
		return "none"
	}
	local := task.DueDate.Local().Format(dueLayout)
	delta := task.DueDate.Sub(now).Truncate(time.Minute)
	switch {
	case delta > 0:
		return fmt.Sprintf("%s (in %s)", local, shortDuration(delta))
	case delta < 0:
		return fmt.Sprintf("%s (%s overdue)", local, shortDuration(-delta))
	default:
		return local + " (now)"
	}
}

// RenderTaskList renders one line per task for terminal listings.
func RenderTaskList(tasks []model.Task, now time.Time) string {
	if len(tasks) == 0 {
		return footerStyle.Render("no tasks")
	}
	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, headerStyle.Render(fmt.Sprintf("%-6s %-4s %-32s %s", "ID", "PRI", "TITLE", "DUE")))
	for _, task := range tasks {
		pri := task.Priority.String()
		if len(pri) > 4 {
			pri = pri[:4]
		}
		line := fmt.Sprintf("%-6d %-4s %-32s %s", task.ID, pri, truncate(task.Title, 32), DueLabel(task, now))
		switch {
		case task.Completed:
			line = doneStyle.Render(line)
		case task.Priority == model.PriorityHigh:
			line = highStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func shortDuration(d time.Duration) string {
	d = d.Truncate(time.Minute)
	if d >= 24*time.Hour {
		return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
	}
	if d >= time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
