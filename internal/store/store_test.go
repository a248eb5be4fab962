package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/storage"
)

// clock advances one second on every reading
type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

// flakyBackend fails every Put while fail is set
type flakyBackend struct {
	*storage.Memory
	fail bool
	puts int
}

func (f *flakyBackend) Put(ctx context.Context, entries ...storage.Entry) error {
	f.puts++
	if f.fail {
		return errors.New("quota exceeded")
	}
	return f.Memory.Put(ctx, entries...)
}

func newTestStore(t *testing.T, variant models.Variant) (*Store, *storage.Memory) {
	t.Helper()
	backend := storage.NewMemory()
	s, err := Open(context.Background(), backend, Options{Variant: variant, Now: newClock().now})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, backend
}

func mustCreateTag(t *testing.T, s *Store, name string) models.Tag {
	t.Helper()
	tag, err := s.CreateTag(context.Background(), name, "")
	if err != nil {
		t.Fatalf("CreateTag(%q): %v", name, err)
	}
	return tag
}

func mustCreateTask(t *testing.T, s *Store, in NewTask) models.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateTask(%q): %v", in.Title, err)
	}
	return task
}

func TestCreateTask(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)

	seen := map[int64]bool{}
	for _, title := range []string{"one", "two", "three", "four"} {
		task := mustCreateTask(t, s, NewTask{Title: "  " + title + "  "})
		if seen[task.ID] {
			t.Fatalf("duplicate id %d", task.ID)
		}
		seen[task.ID] = true
		if !task.CreatedAt.Equal(task.UpdatedAt) {
			t.Errorf("createdAt %v != updatedAt %v", task.CreatedAt, task.UpdatedAt)
		}
		if task.Title != title {
			t.Errorf("Title = %q, want trimmed %q", task.Title, title)
		}
		if task.Priority != models.PriorityMedium {
			t.Errorf("Priority = %q, want medium", task.Priority)
		}
		if task.Completed {
			t.Error("new task is completed")
		}
	}
	if got := len(s.Tasks()); got != 4 {
		t.Errorf("len(Tasks) = %d, want 4", got)
	}
}

func TestCreateTask_SameMillisecond(t *testing.T) {
	fixed := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s, err := Open(context.Background(), storage.NewMemory(), Options{Now: func() time.Time { return fixed }})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	a := mustCreateTask(t, s, NewTask{Title: "a"})
	b := mustCreateTask(t, s, NewTask{Title: "b"})
	if b.ID != a.ID+1 {
		t.Errorf("second id = %d, want %d", b.ID, a.ID+1)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	s, backend := newTestStore(t, models.VariantTags)
	tag := mustCreateTag(t, s, "Work")
	before, _ := backend.Get(context.Background(), KeyTasks)

	tests := []struct {
		name  string
		in    NewTask
		field string
	}{
		{"empty title", NewTask{Title: ""}, "title"},
		{"whitespace title", NewTask{Title: " \t\n "}, "title"},
		{"long title", NewTask{Title: strings.Repeat("x", MaxTitleLength+1)}, "title"},
		{"long description", NewTask{Title: "ok", Description: strings.Repeat("x", MaxDescriptionLength+1)}, "description"},
		{"bad priority", NewTask{Title: "ok", Priority: "critical"}, "priority"},
		{"unknown tag", NewTask{Title: "ok", Tags: []int64{tag.ID, 999}}, "tags"},
		{"category on tags store", NewTask{Title: "ok", Category: models.CategoryWork}, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateTask(context.Background(), tt.in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("err = %v, want field %q", err, tt.field)
			}
		})
	}

	if got := len(s.Tasks()); got != 0 {
		t.Errorf("store holds %d tasks after rejected creates", got)
	}
	after, _ := backend.Get(context.Background(), KeyTasks)
	if string(before) != string(after) {
		t.Errorf("stored tasks changed: %s -> %s", before, after)
	}
}

func TestCreateTask_DedupesTags(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)
	a := mustCreateTag(t, s, "a")
	b := mustCreateTag(t, s, "b")

	task := mustCreateTask(t, s, NewTask{Title: "t", Tags: []int64{b.ID, a.ID, b.ID}})
	want := []int64{b.ID, a.ID}
	if !reflect.DeepEqual(task.Tags, want) {
		t.Errorf("Tags = %v, want %v", task.Tags, want)
	}
}

func TestUpdateTask(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)
	due := civil.Date{Year: 2025, Month: 4, Day: 1}
	orig := mustCreateTask(t, s, NewTask{Title: "draft", Description: "keep me", DueDate: &due})

	got, err := s.UpdateTask(context.Background(), orig.ID, TaskPatch{
		Title:    Ptr("final"),
		Priority: Ptr(models.PriorityUrgent),
	})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got.Title != "final" || got.Priority != models.PriorityUrgent {
		t.Errorf("patched fields not applied: %+v", got)
	}
	if got.Description != "keep me" || got.DueDate == nil || *got.DueDate != due {
		t.Errorf("unpatched fields changed: %+v", got)
	}
	if !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Error("createdAt changed on update")
	}
	if !got.UpdatedAt.After(orig.UpdatedAt) {
		t.Errorf("updatedAt %v not after %v", got.UpdatedAt, orig.UpdatedAt)
	}

	got, err = s.UpdateTask(context.Background(), orig.ID, TaskPatch{ClearDueDate: true})
	if err != nil {
		t.Fatalf("UpdateTask clear due: %v", err)
	}
	if got.DueDate != nil {
		t.Errorf("DueDate = %v, want nil", got.DueDate)
	}
}

func TestUpdateTask_RejectsWithoutPartialWrite(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)
	orig := mustCreateTask(t, s, NewTask{Title: "keep"})

	_, err := s.UpdateTask(context.Background(), orig.ID, TaskPatch{
		Description: Ptr("new description"),
		Title:       Ptr("   "),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	got, _ := s.Task(orig.ID)
	if !reflect.DeepEqual(got, orig) {
		t.Errorf("task changed by rejected update:\n got %+v\nwant %+v", got, orig)
	}
}

func TestUnknownID(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)
	ctx := context.Background()

	if _, err := s.UpdateTask(ctx, 42, TaskPatch{Title: Ptr("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTask: err = %v, want ErrNotFound", err)
	}
	if _, err := s.ToggleComplete(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleComplete: err = %v, want ErrNotFound", err)
	}

	asked := false
	confirm := func(string) bool { asked = true; return true }
	if err := s.DeleteTask(ctx, 42, confirm); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteTask: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTag(ctx, 42, confirm); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteTag: err = %v, want ErrNotFound", err)
	}
	if asked {
		t.Error("confirmer consulted for an unknown id")
	}
}

func TestToggleComplete_IsItsOwnInverse(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)
	task := mustCreateTask(t, s, NewTask{Title: "flip"})

	once, err := s.ToggleComplete(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	twice, err := s.ToggleComplete(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}

	if !once.Completed {
		t.Error("first toggle did not complete the task")
	}
	if twice.Completed != task.Completed {
		t.Errorf("Completed = %v after two toggles, want %v", twice.Completed, task.Completed)
	}
	if !once.UpdatedAt.After(task.UpdatedAt) || !twice.UpdatedAt.After(once.UpdatedAt) {
		t.Errorf("updatedAt did not advance: %v, %v, %v", task.UpdatedAt, once.UpdatedAt, twice.UpdatedAt)
	}
}

func TestDeleteTask(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)
	ctx := context.Background()
	keep := mustCreateTask(t, s, NewTask{Title: "keep"})
	drop := mustCreateTask(t, s, NewTask{Title: "drop"})

	if err := s.DeleteTask(ctx, drop.ID, nil); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("nil confirmer: err = %v, want ErrNotConfirmed", err)
	}
	var prompt string
	decline := func(p string) bool { prompt = p; return false }
	if err := s.DeleteTask(ctx, drop.ID, decline); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("declined: err = %v, want ErrNotConfirmed", err)
	}
	if !strings.Contains(prompt, "drop") {
		t.Errorf("prompt %q does not name the task", prompt)
	}
	if got := len(s.Tasks()); got != 2 {
		t.Fatalf("declined delete removed a task: %d left", got)
	}

	if err := s.DeleteTask(ctx, drop.ID, AlwaysConfirm); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != keep.ID {
		t.Errorf("Tasks = %+v, want only %q", tasks, keep.Title)
	}
}

func TestCreateTag(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "  Work ")
	if tag.Name != "Work" || tag.Color != DefaultTagColor {
		t.Errorf("tag = %+v", tag)
	}

	tests := []struct {
		name, tag, color string
	}{
		{"empty", "  ", ""},
		{"duplicate", "work", ""},
		{"duplicate upper", "WORK", ""},
		{"bad color", "Home", "red"},
		{"short color", "Home", "#fff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CreateTag(ctx, tt.tag, tt.color); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}

	tags, _ := s.Tags()
	if len(tags) != 1 {
		t.Errorf("len(Tags) = %d, want 1", len(tags))
	}
}

func TestDeleteTag_Cascade(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)
	ctx := context.Background()
	a := mustCreateTag(t, s, "A")
	b := mustCreateTag(t, s, "B")
	both := mustCreateTask(t, s, NewTask{Title: "T", Tags: []int64{a.ID, b.ID}})
	onlyA := mustCreateTask(t, s, NewTask{Title: "U", Tags: []int64{a.ID}})
	onlyB := mustCreateTask(t, s, NewTask{Title: "V", Tags: []int64{b.ID}})

	if err := s.DeleteTag(ctx, a.ID, func(string) bool { return false }); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("declined: err = %v, want ErrNotConfirmed", err)
	}
	if got, _ := s.Task(both.ID); len(got.Tags) != 2 {
		t.Fatalf("declined delete changed tags: %v", got.Tags)
	}

	if err := s.DeleteTag(ctx, a.ID, AlwaysConfirm); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	got, _ := s.Task(both.ID)
	if !reflect.DeepEqual(got.Tags, []int64{b.ID}) {
		t.Errorf("T.tags = %v, want [%d]", got.Tags, b.ID)
	}
	if !got.UpdatedAt.After(both.UpdatedAt) {
		t.Error("updatedAt not re-stamped on detached task")
	}
	if got, _ := s.Task(onlyA.ID); len(got.Tags) != 0 {
		t.Errorf("U.tags = %v, want empty", got.Tags)
	}
	if got, _ := s.Task(onlyB.ID); !reflect.DeepEqual(got, onlyB) {
		t.Errorf("untouched task changed: %+v", got)
	}
	if _, err := s.Tag(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted tag still present: %v", err)
	}
}

func TestDeleteTag_UnusedSkipsConfirm(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)
	tag := mustCreateTag(t, s, "lonely")

	if err := s.DeleteTag(context.Background(), tag.ID, nil); err != nil {
		t.Fatalf("DeleteTag unused tag: %v", err)
	}
}

func TestSuggest(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)
	prog := mustCreateTag(t, s, "Programming")
	mustCreateTag(t, s, "Progress")
	mustCreateTag(t, s, "Shopping")

	tests := []struct {
		name    string
		query   string
		exclude []int64
		want    []string
		create  string
	}{
		{"blank", "  ", nil, nil, ""},
		{"prefix any case", "PROG", nil, []string{"Programming", "Progress"}, ""},
		{"substring", "ping", nil, []string{"Shopping"}, ""},
		{"excluded", "prog", []int64{prog.ID}, []string{"Progress"}, ""},
		{"no match", " Gardening ", nil, nil, "Gardening"},
		{"only match attached", "programming", []int64{prog.ID}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Suggest(tt.query, tt.exclude)
			if err != nil {
				t.Fatalf("Suggest: %v", err)
			}
			var names []string
			for _, tag := range got.Tags {
				names = append(names, tag.Name)
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("names = %v, want %v", names, tt.want)
			}
			if got.Create != tt.create {
				t.Errorf("Create = %q, want %q", got.Create, tt.create)
			}
		})
	}
}

func TestCategoriesVariant(t *testing.T) {
	s, _ := newTestStore(t, models.VariantCategories)
	ctx := context.Background()

	task := mustCreateTask(t, s, NewTask{Title: "gym"})
	if task.Category != models.CategoryOther || task.Tags != nil {
		t.Errorf("default classification = %q %v, want other and no tags", task.Category, task.Tags)
	}

	task, err := s.UpdateTask(ctx, task.ID, TaskPatch{Category: Ptr(models.CategoryHealth)})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if task.Category != models.CategoryHealth {
		t.Errorf("Category = %q, want health", task.Category)
	}

	if _, err := s.CreateTask(ctx, NewTask{Title: "x", Category: "hobby"}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown category: err = %v, want ErrValidation", err)
	}
	if _, err := s.CreateTask(ctx, NewTask{Title: "x", Tags: []int64{1}}); !errors.Is(err, ErrValidation) {
		t.Errorf("tags on categories store: err = %v, want ErrValidation", err)
	}
	if _, err := s.CreateTag(ctx, "Work", ""); !errors.Is(err, ErrUnsupported) {
		t.Errorf("CreateTag: err = %v, want ErrUnsupported", err)
	}
	if _, err := s.Suggest("w", nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Suggest: err = %v, want ErrUnsupported", err)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, variant := range []models.Variant{models.VariantTags, models.VariantCategories} {
		t.Run(string(variant), func(t *testing.T) {
			ctx := context.Background()
			backend := storage.NewMemory()
			s, err := Open(ctx, backend, Options{Variant: variant, Seed: true, Now: newClock().now})
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			due := civil.Date{Year: 2025, Month: 12, Day: 24}
			in := NewTask{Title: "Wrap presents", Description: "all of them", Priority: models.PriorityHigh, DueDate: &due}
			if variant == models.VariantTags {
				in.Tags = []int64{mustCreateTag(t, s, "Holiday").ID}
			} else {
				in.Category = models.CategoryHome
			}
			task := mustCreateTask(t, s, in)
			if _, err := s.ToggleComplete(ctx, task.ID); err != nil {
				t.Fatalf("ToggleComplete: %v", err)
			}

			reopened, err := Open(ctx, backend, Options{Variant: variant, Seed: true})
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			if !reflect.DeepEqual(reopened.Tasks(), s.Tasks()) {
				t.Errorf("tasks differ after reload:\n got %+v\nwant %+v", reopened.Tasks(), s.Tasks())
			}
			if variant == models.VariantTags {
				got, _ := reopened.Tags()
				want, _ := s.Tags()
				if !reflect.DeepEqual(got, want) {
					t.Errorf("tags differ after reload:\n got %+v\nwant %+v", got, want)
				}
			}
		})
	}
}

func TestOpen_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()

	s, err := Open(ctx, backend, Options{Seed: true, Now: newClock().now})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	tasks := s.Tasks()
	if len(tasks) != 3 {
		t.Fatalf("seeded %d tasks, want 3", len(tasks))
	}
	tags, _ := s.Tags()
	if len(tags) != 4 {
		t.Fatalf("seeded %d tags, want 4", len(tags))
	}

	for _, task := range tasks {
		if err := s.DeleteTask(ctx, task.ID, AlwaysConfirm); err != nil {
			t.Fatalf("DeleteTask: %v", err)
		}
	}

	again, err := Open(ctx, backend, Options{Seed: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := len(again.Tasks()); got != 0 {
		t.Errorf("reopened store has %d tasks, want 0 (no reseed)", got)
	}
}

func TestOpen_SeedDisabled(t *testing.T) {
	s, backend := newTestStore(t, models.VariantTags)
	if len(s.Tasks()) != 0 {
		t.Errorf("unseeded store has tasks")
	}
	data, err := backend.Get(context.Background(), KeyTasks)
	if err != nil {
		t.Fatalf("empty collection not written: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("stored tasks = %s, want []", data)
	}
}

func TestOpen_Corrupt(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	backend.Put(ctx, storage.Entry{Key: KeyTasks, Value: []byte(`[{"id":1,`)})

	_, err := Open(ctx, backend, Options{Seed: true})
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestPersistFailure(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{Memory: storage.NewMemory()}
	s, err := Open(ctx, backend, Options{Now: newClock().now})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	backend.fail = true
	task, err := s.CreateTask(ctx, NewTask{Title: "unsaved"})
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("err = %v, want ErrPersist", err)
	}
	if _, err := s.Task(task.ID); err != nil {
		t.Errorf("mutation lost from memory: %v", err)
	}
	if !s.Dirty() {
		t.Error("store not marked dirty")
	}

	backend.fail = false
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if s.Dirty() {
		t.Error("store still dirty after Flush")
	}

	reopened, err := Open(ctx, backend, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := reopened.Task(task.ID); err != nil {
		t.Errorf("flushed task missing after reload: %v", err)
	}
}

func TestDarkTheme(t *testing.T) {
	s, _ := newTestStore(t, models.VariantTags)
	ctx := context.Background()

	dark, err := s.DarkTheme(ctx)
	if err != nil || dark {
		t.Fatalf("DarkTheme = %v, %v; want false, nil", dark, err)
	}
	if err := s.SetDarkTheme(ctx, true); err != nil {
		t.Fatalf("SetDarkTheme: %v", err)
	}
	if dark, _ := s.DarkTheme(ctx); !dark {
		t.Error("DarkTheme = false after SetDarkTheme(true)")
	}
}
