package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestPriorityRank(t *testing.T) {
	order := []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}
	for i, p := range order {
		if p.Rank() != i {
			t.Errorf("%s.Rank() = %d, want %d", p, p.Rank(), i)
		}
	}
	if Priority("critical").Valid() {
		t.Error("unknown priority reported valid")
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(" HIGH ")
	if err != nil || p != PriorityHigh {
		t.Errorf("ParsePriority = %q, %v", p, err)
	}
	if _, err := ParsePriority("soon"); err == nil {
		t.Error("ParsePriority accepted an unknown name")
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(strings.ToUpper(string(c)))
		if err != nil || got != c {
			t.Errorf("ParseCategory(%q) = %q, %v", c, got, err)
		}
	}
	if _, err := ParseCategory("hobby"); err == nil {
		t.Error("ParseCategory accepted an unknown name")
	}
}

func TestIsOverdue(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, loc)
	yesterday := civil.DateOf(now).AddDays(-1)
	tomorrow := civil.DateOf(now).AddDays(1)
	today := civil.DateOf(now)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no due date", Task{}, false},
		{"yesterday", Task{DueDate: &yesterday}, true},
		{"yesterday completed", Task{DueDate: &yesterday, Completed: true}, false},
		{"tomorrow", Task{DueDate: &tomorrow}, false},
		{"today after midnight", Task{DueDate: &today}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDueOn(t *testing.T) {
	now := time.Date(2025, 3, 10, 23, 30, 0, 0, time.Local)
	today := civil.DateOf(now)
	tomorrow := today.AddDays(1)

	if !(Task{DueDate: &today}).IsDueOn(now) {
		t.Error("task due today not reported due")
	}
	if (Task{DueDate: &tomorrow}).IsDueOn(now) {
		t.Error("task due tomorrow reported due today")
	}
	if (Task{}).IsDueOn(now) {
		t.Error("undated task reported due today")
	}
}

func TestTaskJSON(t *testing.T) {
	due := civil.Date{Year: 2025, Month: 1, Day: 7}
	task := Task{ID: 1, Title: "x", Priority: PriorityLow, DueDate: &due, Tags: []int64{2}}

	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"dueDate":"2025-01-07"`) {
		t.Errorf("dueDate not encoded as a calendar date: %s", data)
	}

	data, _ = json.Marshal(Task{ID: 2, Title: "y"})
	if !strings.Contains(string(data), `"dueDate":null`) {
		t.Errorf("absent dueDate not encoded as null: %s", data)
	}
}

func TestClone(t *testing.T) {
	due := civil.Date{Year: 2025, Month: 1, Day: 7}
	orig := Task{Tags: []int64{1, 2}, DueDate: &due}

	c := orig.Clone()
	c.Tags[0] = 9
	c.DueDate.Day = 8

	if orig.Tags[0] != 1 || orig.DueDate.Day != 7 {
		t.Error("Clone shares memory with the original")
	}
}
