package views

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/remindd/internal/model"
)

var viewNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func TestAlarmModelDismissFlow(t *testing.T) {
	var got int64
	m := NewAlarmModel(model.Task{ID: 12, Title: "Take meds", DueDate: viewNow}, viewNow,
		func(_ context.Context, id int64) (bool, error) {
			got = id
			return true, nil
		})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if cmd == nil {
		t.Fatalf("expected dismiss command")
	}
	msg := cmd()
	if got != 12 {
		t.Fatalf("dismiss called with %d, want 12", got)
	}

	updated, cmd = updated.(AlarmModel).Update(msg)
	next := updated.(AlarmModel)
	if !next.Dismissed || next.Status != "alarm dismissed" {
		t.Fatalf("unexpected state after dismiss: %+v", next)
	}
	if cmd == nil {
		t.Fatalf("expected quit after dismiss")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestAlarmModelDismissErrorKeepsView(t *testing.T) {
	m := NewAlarmModel(model.Task{ID: 3, Title: "x", DueDate: viewNow}, viewNow,
		func(context.Context, int64) (bool, error) { return false, errors.New("daemon down") })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	updated, cmd := m.Update(cmd())
	next := updated.(AlarmModel)
	if next.Dismissed || !next.IsError || !strings.Contains(next.Status, "daemon down") {
		t.Fatalf("unexpected state: %+v", next)
	}
	if cmd != nil {
		t.Fatalf("view should stay open after a failed dismiss")
	}
}

func TestAlarmModelCloseDoesNotDismiss(t *testing.T) {
	called := false
	m := NewAlarmModel(model.Task{ID: 3, Title: "x"}, viewNow,
		func(context.Context, int64) (bool, error) { called = true; return true, nil })
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if called {
		t.Fatalf("closing the view must not dismiss the alarm")
	}
}

func TestAlarmModelTickBlinksUntilDismissed(t *testing.T) {
	m := NewAlarmModel(model.Task{ID: 1, Title: "x", DueDate: viewNow}, viewNow, nil)
	updated, cmd := m.Update(AlarmTickMsg{At: viewNow.Add(time.Minute)})
	next := updated.(AlarmModel)
	if !next.Blink || cmd == nil {
		t.Fatalf("tick should toggle blink and re-arm")
	}
	if !next.Now.Equal(viewNow.Add(time.Minute)) {
		t.Fatalf("tick should advance now")
	}
	next.Dismissed = true
	_, cmd = next.Update(AlarmTickMsg{At: viewNow})
	if cmd != nil {
		t.Fatalf("no ticks after dismissal")
	}
}

func TestAlarmModelViewContent(t *testing.T) {
	m := NewAlarmModel(model.Task{ID: 1, Title: "Pay rent", DueDate: viewNow.Add(-5 * time.Minute)}, viewNow, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	out := updated.(AlarmModel).View()
	for _, want := range []string{"TASK DUE", "Pay rent", "5m overdue", "dismiss"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestDueLabel(t *testing.T) {
	cases := []struct {
		task model.Task
		want string
	}{
		{model.Task{}, "none"},
		{model.Task{DueDate: viewNow.Add(20 * time.Minute)}, "(in 20m)"},
		{model.Task{DueDate: viewNow.Add(26 * time.Hour)}, "(in 1d2h)"},
		{model.Task{DueDate: viewNow.Add(-90 * time.Minute)}, "(1h30m overdue)"},
		{model.Task{DueDate: viewNow}, "(now)"},
	}
	for _, tc := range cases {
		if got := DueLabel(tc.task, viewNow); !strings.Contains(got, tc.want) {
			t.Fatalf("DueLabel = %q, want it to contain %q", got, tc.want)
		}
	}
}

func TestTaskMarkdownAndList(t *testing.T) {
	task := model.Task{ID: 4, Title: "Write report", Description: "- section one", Priority: model.PriorityHigh, DueDate: viewNow}
	md := TaskMarkdown(task, viewNow)
	for _, want := range []string{"# Write report", "**Priority:** High", "- section one", "**Status:** open"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if RenderTask(task, viewNow) == "" {
		t.Fatalf("rendered task should not be empty")
	}

	list := RenderTaskList([]model.Task{task, {ID: 5, Title: "Done thing", Priority: model.PriorityLow, Completed: true}}, viewNow)
	if !strings.Contains(list, "Write report") || !strings.Contains(list, "Done thing") {
		t.Fatalf("list missing tasks:\n%s", list)
	}
	if !strings.Contains(RenderTaskList(nil, viewNow), "no tasks") {
		t.Fatalf("empty list should say so")
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if RenderMarkdown("   ") != "" {
		t.Fatalf("blank markdown should render empty")
	}
}
