package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/remindd/internal/model"
)

const alarmBlinkInterval = 500 * time.Millisecond

// DismissFunc stops the alarm for a task and reports whether one was
// sounding.
type DismissFunc func(ctx context.Context, taskID int64) (bool, error)

type AlarmTickMsg struct {
	At time.Time
}

type alarmDismissedMsg struct {
	Dismissed bool
	Err       error
}

type alarmKeyMap struct {
	Dismiss key.Binding
	Close   key.Binding
}

func (k alarmKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Dismiss, k.Close}
}

func (k alarmKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultAlarmKeys() alarmKeyMap {
	return alarmKeyMap{
		Dismiss: key.NewBinding(key.WithKeys("d", "enter", " "), key.WithHelp("d/enter", "dismiss alarm")),
		Close:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "close, keep ringing")),
	}
}

// AlarmModel is the full-screen view raised for a due task. Closing it
// leaves the alarm sounding; only the dismiss key stops it.
type AlarmModel struct {
	Task      model.Task
	Now       time.Time
	Width     int
	Height    int
	Blink     bool
	Dismissed bool
	Status    string
	IsError   bool

	dismiss DismissFunc
	keys    alarmKeyMap
	help    help.Model
}

func NewAlarmModel(task model.Task, now time.Time, dismiss DismissFunc) AlarmModel {
	return AlarmModel{
		Task:    task,
		Now:     now,
		dismiss: dismiss,
		keys:    defaultAlarmKeys(),
		help:    help.New(),
	}
}

func (m AlarmModel) Init() tea.Cmd {
	return alarmTickCmd()
}

func (m AlarmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case AlarmTickMsg:
		if m.Dismissed {
			return m, nil
		}
		m.Blink = !m.Blink
		m.Now = msg.At
		return m, alarmTickCmd()
	case alarmDismissedMsg:
		if msg.Err != nil {
			m.Status = fmt.Sprintf("dismiss failed: %v", msg.Err)
			m.IsError = true
			return m, nil
		}
		m.Dismissed = true
		m.IsError = false
		if msg.Dismissed {
			m.Status = "alarm dismissed"
		} else {
			m.Status = "no alarm was sounding"
		}
		return m, tea.Quit
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Dismiss):
			if m.dismiss == nil {
				m.Status = "dismiss unavailable"
				m.IsError = true
				return m, nil
			}
			m.Status = "dismissing..."
			m.IsError = false
			return m, dismissCmd(m.dismiss, m.Task.ID)
		case key.Matches(msg, m.keys.Close):
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m AlarmModel) View() string {
	banner := lipgloss.NewStyle().Bold(true).Padding(0, 2)
	if m.Blink {
		banner = banner.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("9"))
	} else {
		banner = banner.Foreground(lipgloss.Color("9"))
	}

	lines := []string{
		banner.Render("TASK DUE"),
		"",
		headerStyle.Render(m.Task.Title),
		"Due: " + DueLabel(m.Task, m.Now),
	}
	if desc := RenderMarkdown(m.Task.Description); desc != "" {
		lines = append(lines, "", desc)
	}
	if m.Status != "" {
		status := statusStyle.Render(m.Status)
		if m.IsError {
			status = errorStyle.Render(m.Status)
		}
		lines = append(lines, "", status)
	}
	lines = append(lines, "", footerStyle.Render(m.help.View(m.keys)))

	body := panelStyle.BorderForeground(lipgloss.Color("9")).Render(strings.Join(lines, "\n"))
	if m.Width > 0 && m.Height > 0 {
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, body)
	}
	return body
}

func alarmTickCmd() tea.Cmd {
	return tea.Tick(alarmBlinkInterval, func(t time.Time) tea.Msg { return AlarmTickMsg{At: t} })
}

func dismissCmd(dismiss DismissFunc, taskID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ok, err := dismiss(ctx, taskID)
		return alarmDismissedMsg{Dismissed: ok, Err: err}
	}
}
