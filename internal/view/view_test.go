package view

import (
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/tgienger/todo/internal/models"
)

var now = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func day(offset int) *civil.Date {
	d := civil.DateOf(now).AddDays(offset)
	return &d
}

func titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestSort_Priority(t *testing.T) {
	tasks := []models.Task{
		{Title: "low", Priority: models.PriorityLow},
		{Title: "high", Priority: models.PriorityHigh},
		{Title: "medium", Priority: models.PriorityMedium},
		{Title: "urgent", Priority: models.PriorityUrgent},
		{Title: "high 2", Priority: models.PriorityHigh},
	}

	asc := Apply(tasks, nil, Options{Sort: SortPriority, Ascending: true}, now)
	want := []string{"urgent", "high", "high 2", "medium", "low"}
	if got := titles(asc); !reflect.DeepEqual(got, want) {
		t.Errorf("ascending = %v, want %v", got, want)
	}

	desc := Apply(tasks, nil, Options{Sort: SortPriority, Ascending: false}, now)
	want = []string{"low", "medium", "high", "high 2", "urgent"}
	if got := titles(desc); !reflect.DeepEqual(got, want) {
		t.Errorf("descending = %v, want %v", got, want)
	}

	if tasks[0].Title != "low" {
		t.Error("Apply reordered its input")
	}
}

func TestSort_DueDateUndatedLast(t *testing.T) {
	tasks := []models.Task{
		{Title: "none 1"},
		{Title: "in 5", DueDate: day(5)},
		{Title: "none 2"},
		{Title: "yesterday", DueDate: day(-1)},
		{Title: "today", DueDate: day(0)},
	}

	got := titles(Apply(tasks, nil, Options{Sort: SortDueDate, Ascending: true}, now))
	want := []string{"yesterday", "today", "in 5", "none 1", "none 2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSort_Title(t *testing.T) {
	tasks := []models.Task{{Title: "banana"}, {Title: "Cherry"}, {Title: "apple"}, {Title: "Banana"}}

	got := titles(Apply(tasks, nil, Options{Sort: SortTitle, Ascending: true}, now))
	want := []string{"apple", "banana", "Banana", "Cherry"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSort_Created(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{Title: "middle", CreatedAt: base.Add(time.Hour)},
		{Title: "newest", CreatedAt: base.Add(2 * time.Hour)},
		{Title: "oldest", CreatedAt: base},
	}

	asc := DefaultAscending(models.VariantCategories, SortCreated)
	if asc {
		t.Fatal("categories variant should default created to descending")
	}
	got := titles(Apply(tasks, nil, Options{Sort: SortCreated, Ascending: asc}, now))
	want := []string{"newest", "middle", "oldest"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if !DefaultAscending(models.VariantTags, SortCreated) || !DefaultAscending(models.VariantCategories, SortTitle) {
		t.Error("other keys should default to ascending")
	}
}

func TestFilters(t *testing.T) {
	tasks := []models.Task{
		{Title: "overdue", DueDate: day(-2), Priority: models.PriorityLow},
		{Title: "done late", DueDate: day(-2), Completed: true, Priority: models.PriorityUrgent},
		{Title: "due today", DueDate: day(0), Priority: models.PriorityHigh},
		{Title: "later", DueDate: day(3), Priority: models.PriorityMedium},
		{Title: "someday", Priority: models.PriorityMedium},
	}

	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"overdue", "done late", "due today", "later", "someday"}},
		{FilterToday, []string{"due today"}},
		{FilterOverdue, []string{"overdue", "due today"}},
		{FilterHigh, []string{"done late", "due today"}},
		{FilterCompleted, []string{"done late"}},
		{FilterPending, []string{"overdue", "due today", "later", "someday"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			// created sort keeps input order since every createdAt is zero
			got := titles(Apply(tasks, nil, Options{Filter: tt.filter, Sort: SortCreated, Ascending: true}, now))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverdue_BuyMilk(t *testing.T) {
	milk := models.Task{Title: "Buy milk", Priority: models.PriorityLow, DueDate: day(-1)}
	opts := Options{Filter: FilterOverdue, Sort: SortDueDate, Ascending: true}

	if got := titles(Apply([]models.Task{milk}, nil, opts, now)); !reflect.DeepEqual(got, []string{"Buy milk"}) {
		t.Errorf("overdue before completion = %v", got)
	}

	milk.Completed = true
	if got := Apply([]models.Task{milk}, nil, opts, now); len(got) != 0 {
		t.Errorf("completed task still overdue: %v", titles(got))
	}
}

func TestSearch(t *testing.T) {
	tags := []models.Tag{{ID: 1, Name: "Shopping"}, {ID: 2, Name: "Work"}}
	tasks := []models.Task{
		{Title: "Buy MILK"},
		{Title: "Report", Description: "milk the quarterly numbers"},
		{Title: "Groceries", Tags: []int64{1}},
		{Title: "Email", Tags: []int64{2}},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Buy MILK", "Report", "Groceries", "Email"}},
		{"milk", []string{"Buy MILK", "Report"}},
		{"  SHOP ", []string{"Groceries"}},
		{"nothing", []string{}},
	}
	for _, tt := range tests {
		got := titles(Apply(tasks, tags, Options{Query: tt.query, Sort: SortCreated, Ascending: true}, now))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("query %q: got %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestCategoryFilter(t *testing.T) {
	tasks := []models.Task{
		{Title: "gym", Category: models.CategoryHealth},
		{Title: "essay", Category: models.CategoryStudy, Completed: true},
		{Title: "run", Category: models.CategoryHealth, Completed: true},
	}

	opts := Options{Category: models.CategoryHealth, Filter: FilterCompleted, Sort: SortCreated, Ascending: true}
	if got := titles(Apply(tasks, nil, opts, now)); !reflect.DeepEqual(got, []string{"run"}) {
		t.Errorf("got %v, want [run]", got)
	}
}

func TestParse(t *testing.T) {
	if k, err := ParseSortKey("dateAdded"); err != nil || k != SortCreated {
		t.Errorf("ParseSortKey(dateAdded) = %q, %v", k, err)
	}
	if k, err := ParseSortKey(""); err != nil || k != SortDueDate {
		t.Errorf("ParseSortKey(\"\") = %q, %v", k, err)
	}
	if _, err := ParseSortKey("size"); err == nil {
		t.Error("ParseSortKey accepted an unknown key")
	}
	if f, err := ParseFilter("Overdue"); err != nil || f != FilterOverdue {
		t.Errorf("ParseFilter(Overdue) = %q, %v", f, err)
	}
	if _, err := ParseFilter("soon"); err == nil {
		t.Error("ParseFilter accepted an unknown filter")
	}
}

func TestCompute(t *testing.T) {
	tasks := []models.Task{
		{Title: "a", DueDate: day(-1), Category: models.CategoryWork},
		{Title: "b", DueDate: day(-1), Completed: true, Category: models.CategoryWork},
		{Title: "c", DueDate: day(1), Category: models.CategoryHome},
		{Title: "d", Completed: true, Category: models.CategoryOther},
	}

	got := Compute(tasks, models.VariantTags, now)
	want := Stats{Total: 4, Completed: 2, Pending: 2, Overdue: 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags variant = %+v, want %+v", got, want)
	}

	got = Compute(tasks, models.VariantCategories, now)
	if got.Overdue != 0 {
		t.Errorf("categories variant counted overdue: %d", got.Overdue)
	}
	wantCats := map[string]int{
		"all": 4, "work": 2, "personal": 0, "study": 0, "health": 0, "home": 1, "other": 1,
	}
	if !reflect.DeepEqual(got.Categories, wantCats) {
		t.Errorf("Categories = %v, want %v", got.Categories, wantCats)
	}
}
