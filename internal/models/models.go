package models

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Variant selects how tasks are classified
type Variant string

const (
	VariantTags       Variant = "tags"       // free-form tag sets
	VariantCategories Variant = "categories" // one fixed category per task
)

func (v Variant) Valid() bool {
	return v == VariantTags || v == VariantCategories
}

// Priority is the urgency of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from least to most urgent
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Rank orders priorities for sorting: urgent(0) < high(1) < medium(2) < low(3)
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

func (p Priority) Valid() bool {
	return p.Rank() < 4
}

// ParsePriority parses a priority name, case-insensitively
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// Category is the fixed classification used by the categories variant
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryStudy    Category = "study"
	CategoryHealth   Category = "health"
	CategoryHome     Category = "home"
	CategoryOther    Category = "other"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryWork, CategoryPersonal, CategoryStudy,
	CategoryHealth, CategoryHome, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory parses a category name, case-insensitively
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Tag represents a user-defined label that can be applied to tasks
type Tag struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Color     string    `json:"color" yaml:"color"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// Task represents a single to-do item
type Task struct {
	ID          int64       `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Priority    Priority    `json:"priority" yaml:"priority"`
	DueDate     *civil.Date `json:"dueDate" yaml:"dueDate"`
	Tags        []int64     `json:"tags,omitempty" yaml:"tags,omitempty"`         // tags variant
	Category    Category    `json:"category,omitempty" yaml:"category,omitempty"` // categories variant
	Completed   bool        `json:"completed" yaml:"completed"`
	CreatedAt   time.Time   `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt" yaml:"updatedAt"`
}

// HasTag reports whether the task carries the tag
func (t Task) HasTag(id int64) bool {
	for _, tagID := range t.Tags {
		if tagID == id {
			return true
		}
	}
	return false
}

// DueAt returns the instant the due date starts in loc
func (t Task) DueAt(loc *time.Location) (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	return t.DueDate.In(loc), true
}

// IsOverdue reports whether an open task's due date began before now
func (t Task) IsOverdue(now time.Time) bool {
	if t.Completed {
		return false
	}
	due, ok := t.DueAt(now.Location())
	return ok && due.Before(now)
}

// IsDueOn reports whether the task is due on the calendar day of now
func (t Task) IsDueOn(now time.Time) bool {
	return t.DueDate != nil && *t.DueDate == civil.DateOf(now)
}

// Clone returns a copy that shares no slices or pointers with t
func (t Task) Clone() Task {
	c := t
	if t.Tags != nil {
		c.Tags = append([]int64{}, t.Tags...)
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return c
}
