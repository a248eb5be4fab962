package views

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/storage"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/view"
)

func newTestStore(t *testing.T, variant models.Variant) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), storage.NewMemory(), store.Options{Variant: variant})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func newTestView(t *testing.T, s *store.Store) *TaskListView {
	t.Helper()
	v := NewTaskListView(s)
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	refresh(v)
	return v
}

// refresh runs the reload command synchronously
func refresh(v *TaskListView) {
	v.Update(v.reload()())
}

var namedKeys = map[string]tea.KeyType{
	"enter":     tea.KeyEnter,
	"esc":       tea.KeyEscape,
	"tab":       tea.KeyTab,
	"ctrl+s":    tea.KeyCtrlS,
	"backspace": tea.KeyBackspace,
	"up":        tea.KeyUp,
	"down":      tea.KeyDown,
	"left":      tea.KeyLeft,
	"right":     tea.KeyRight,
}

func keyMsg(k string) tea.KeyMsg {
	if kt, ok := namedKeys[k]; ok {
		return tea.KeyMsg{Type: kt}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends each key and refreshes the list afterwards
func press(v *TaskListView, keys ...string) {
	for _, k := range keys {
		v.Update(keyMsg(k))
	}
	refresh(v)
}

func mustCreate(t *testing.T, s *store.Store, in store.NewTask) models.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return task
}

func TestTaskList_CreateThroughForm(t *testing.T) {
	s := newTestStore(t, models.VariantTags)
	v := newTestView(t, s)

	press(v, "n", "Write tests", "tab", "covers the views", "tab", "right", "tab", "2025-06-01", "ctrl+s")

	if v.editing {
		t.Fatal("form still open after save")
	}
	tasks := s.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Write tests" || got.Description != "covers the views" || got.Priority != models.PriorityHigh {
		t.Errorf("task = %+v", got)
	}
	if got.DueDate == nil || got.DueDate.String() != "2025-06-01" {
		t.Errorf("dueDate = %v", got.DueDate)
	}
	if len(v.tasks) != 1 || v.stats.Total != 1 {
		t.Errorf("list not refreshed: %d tasks, stats %+v", len(v.tasks), v.stats)
	}
}

func TestTaskList_InvalidFormStaysOpen(t *testing.T) {
	s := newTestStore(t, models.VariantTags)
	v := newTestView(t, s)

	press(v, "n", "ctrl+s")
	if !v.editing {
		t.Fatal("blank title closed the form")
	}
	if v.current == nil || v.current.kind != NoticeWarning || !strings.Contains(v.current.text, "title") {
		t.Errorf("notice = %+v", v.current)
	}

	press(v, "Title", "tab", "tab", "tab", "tomorrow", "ctrl+s")
	if !v.editing || v.editFocusIdx != fieldDue {
		t.Errorf("bad due date: editing=%v focus=%d", v.editing, v.editFocusIdx)
	}
	if len(s.Tasks()) != 0 {
		t.Error("rejected form created a task")
	}

	press(v, "esc")
	if v.editing {
		t.Error("esc did not cancel the form")
	}
}

func TestTaskList_EditForm(t *testing.T) {
	s := newTestStore(t, models.VariantCategories)
	task := mustCreate(t, s, store.NewTask{Title: "Run", Category: models.CategoryHealth})
	v := newTestView(t, s)

	// priority field, then category field
	press(v, "e", "tab", "tab", "left", "tab", "tab", "right", "tab", " ", "ctrl+s")

	got, err := s.Task(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Priority != models.PriorityLow || got.Category != models.CategoryHome || !got.Completed {
		t.Errorf("after edit = %+v", got)
	}
}

func TestTaskList_ToggleAndDelete(t *testing.T) {
	s := newTestStore(t, models.VariantTags)
	task := mustCreate(t, s, store.NewTask{Title: "Buy milk"})
	v := newTestView(t, s)

	press(v, "x")
	if got, _ := s.Task(task.ID); !got.Completed {
		t.Fatal("toggle did not complete the task")
	}
	if v.stats.Completed != 1 {
		t.Errorf("stats not refreshed: %+v", v.stats)
	}

	press(v, "d", "n")
	if len(s.Tasks()) != 1 {
		t.Fatal("declined delete removed the task")
	}

	press(v, "d")
	if !v.confirmingDelete || !strings.Contains(v.View(), "Buy milk") {
		t.Fatal("delete confirmation not shown")
	}
	press(v, "y")
	if len(s.Tasks()) != 0 || len(v.tasks) != 0 {
		t.Error("task still present after confirmed delete")
	}
}

func TestTaskList_AssignTags(t *testing.T) {
	s := newTestStore(t, models.VariantTags)
	ctx := context.Background()
	work, err := s.CreateTag(ctx, "Work", "")
	if err != nil {
		t.Fatal(err)
	}
	task := mustCreate(t, s, store.NewTask{Title: "Email"})
	v := newTestView(t, s)

	press(v, "t", "wor")
	if len(v.suggestions.Tags) != 1 || v.suggestions.Tags[0].ID != work.ID {
		t.Fatalf("suggestions = %+v", v.suggestions)
	}
	press(v, "enter")

	press(v, "Errands")
	if v.suggestions.Create != "Errands" {
		t.Fatalf("create suggestion = %q", v.suggestions.Create)
	}
	press(v, "enter")

	got, _ := s.Task(task.ID)
	if len(got.Tags) != 2 || got.Tags[0] != work.ID {
		t.Fatalf("tags = %v", got.Tags)
	}
	if _, err := s.TagByName("errands"); err != nil {
		t.Errorf("tag not created: %v", err)
	}

	// backspace on an empty query detaches the last tag
	press(v, "backspace", "esc")
	got, _ = s.Task(task.ID)
	if len(got.Tags) != 1 || got.Tags[0] != work.ID {
		t.Errorf("tags after detach = %v", got.Tags)
	}
	if v.assigningTags {
		t.Error("esc did not close the popup")
	}
}

func TestTaskList_FilterSortSearch(t *testing.T) {
	s := newTestStore(t, models.VariantTags)
	mustCreate(t, s, store.NewTask{Title: "beta", Priority: models.PriorityLow})
	mustCreate(t, s, store.NewTask{Title: "alpha", Priority: models.PriorityUrgent})
	v := newTestView(t, s)

	press(v, "f", "down", "down", "down", "enter")
	if v.opts.Filter != view.FilterHigh || len(v.tasks) != 1 || v.tasks[0].Title != "alpha" {
		t.Fatalf("filter = %q, tasks = %v", v.opts.Filter, v.tasks)
	}

	press(v, "f", "up", "up", "up", "enter")
	if v.opts.Filter != view.FilterAll {
		t.Fatalf("filter = %q", v.opts.Filter)
	}

	press(v, "s", "s")
	if v.opts.Sort != view.SortTitle || v.tasks[0].Title != "alpha" {
		t.Errorf("sort = %q, first = %q", v.opts.Sort, v.tasks[0].Title)
	}
	press(v, "o")
	if v.tasks[0].Title != "beta" {
		t.Errorf("descending first = %q", v.tasks[0].Title)
	}

	press(v, "/", "bet", "enter")
	if len(v.tasks) != 1 || v.tasks[0].Title != "beta" {
		t.Errorf("search = %v", v.tasks)
	}
	press(v, "esc")
	if len(v.tasks) != 2 {
		t.Errorf("esc did not clear search: %d tasks", len(v.tasks))
	}
}

func TestTaskList_CategoryCycle(t *testing.T) {
	s := newTestStore(t, models.VariantCategories)
	mustCreate(t, s, store.NewTask{Title: "Report", Category: models.CategoryWork})
	mustCreate(t, s, store.NewTask{Title: "Dishes", Category: models.CategoryHome})
	v := newTestView(t, s)

	press(v, "c")
	if v.opts.Category != models.CategoryWork || len(v.tasks) != 1 || v.tasks[0].Title != "Report" {
		t.Errorf("category = %q, tasks = %v", v.opts.Category, v.tasks)
	}
	for range models.Categories {
		press(v, "c")
	}
	if v.opts.Category != "" || len(v.tasks) != 2 {
		t.Errorf("cycle did not wrap to every category: %q", v.opts.Category)
	}
	if v.stats.Categories["home"] != 1 {
		t.Errorf("stats = %+v", v.stats)
	}
}

func TestTagManager(t *testing.T) {
	s := newTestStore(t, models.VariantTags)
	ctx := context.Background()
	used, _ := s.CreateTag(ctx, "Used", "")
	mustCreate(t, s, store.NewTask{Title: "Tagged", Tags: []int64{used.ID}})

	v := NewTagManagerView(s)
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	v.Update(v.loadTags())

	for _, k := range []string{"n", "Spare", "tab", "#00ff00", "ctrl+s"} {
		v.Update(keyMsg(k))
	}
	v.Update(v.loadTags())
	spare, err := s.TagByName("spare")
	if err != nil || spare.Color != "#00ff00" {
		t.Fatalf("created tag = %+v, %v", spare, err)
	}
	if len(v.list.Items()) != 2 {
		t.Fatalf("list has %d items", len(v.list.Items()))
	}

	// the unused tag is second and goes without asking
	v.Update(keyMsg("down"))
	v.Update(keyMsg("d"))
	v.Update(v.loadTags())
	if _, err := s.Tag(spare.ID); err == nil {
		t.Fatal("unused tag not deleted")
	}

	v.Update(keyMsg("d"))
	if !v.confirmingDelete || v.deleteTargetUses != 1 {
		t.Fatalf("used tag: confirming=%v uses=%d", v.confirmingDelete, v.deleteTargetUses)
	}
	v.Update(keyMsg("y"))
	if tags, _ := s.Tags(); len(tags) != 0 {
		t.Errorf("tags left: %v", tags)
	}
	if task := s.Tasks()[0]; len(task.Tags) != 0 {
		t.Errorf("task still tagged: %v", task.Tags)
	}

	_, cmd := v.Update(keyMsg("esc"))
	if _, ok := cmd().(BackToTasks); !ok {
		t.Error("esc did not go back to tasks")
	}
}
