package store

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/tgienger/todo/internal/models"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dueIn(today civil.Date, days int) *civil.Date {
	d := today.AddDays(days)
	return &d
}

// demoTasks is the first-run demo data, with due dates relative to today
func demoTasks(variant models.Variant, today civil.Date) []models.Task {
	tasks := []models.Task{
		{
			ID:          1,
			Title:       "Learn Go generics",
			Description: "Review type parameters and constraints",
			Priority:    models.PriorityHigh,
			DueDate:     dueIn(today, 3),
			Tags:        []int64{1, 3},
			Category:    models.CategoryStudy,
			CreatedAt:   mustTime("2024-01-15T10:00:00Z"),
			UpdatedAt:   mustTime("2024-01-15T10:00:00Z"),
		},
		{
			ID:          2,
			Title:       "Write report",
			Description: "Prepare the weekly project report",
			Priority:    models.PriorityUrgent,
			DueDate:     dueIn(today, 0),
			Tags:        []int64{2},
			Category:    models.CategoryWork,
			CreatedAt:   mustTime("2024-01-14T14:30:00Z"),
			UpdatedAt:   mustTime("2024-01-14T14:30:00Z"),
		},
		{
			ID:          3,
			Title:       "Buy groceries",
			Description: "Milk, bread, eggs, fruit",
			Priority:    models.PriorityMedium,
			DueDate:     dueIn(today, 2),
			Tags:        []int64{4},
			Category:    models.CategoryHome,
			Completed:   true,
			CreatedAt:   mustTime("2024-01-13T09:15:00Z"),
			UpdatedAt:   mustTime("2024-01-14T16:20:00Z"),
		},
	}

	for i := range tasks {
		if variant == models.VariantTags {
			tasks[i].Category = ""
		} else {
			tasks[i].Tags = nil
		}
	}
	return tasks
}

// demoTags is the first-run tag set referenced by demoTasks
func demoTags() []models.Tag {
	created := mustTime("2024-01-10T10:00:00Z")
	return []models.Tag{
		{ID: 1, Name: "Programming", Color: "#4361ee", CreatedAt: created},
		{ID: 2, Name: "Work", Color: "#f72585", CreatedAt: created},
		{ID: 3, Name: "Learning", Color: "#4cc9f0", CreatedAt: created},
		{ID: 4, Name: "Shopping", Color: "#4CAF50", CreatedAt: created},
	}
}
