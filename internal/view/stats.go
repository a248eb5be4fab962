package view

import (
	"time"

	"github.com/tgienger/todo/internal/models"
)

// Stats are the counters over the whole, unfiltered collection
type Stats struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
	Pending   int `json:"pending" yaml:"pending"`
	// Overdue is counted for the tags variant
	Overdue int `json:"overdue,omitempty" yaml:"overdue,omitempty"`
	// Categories holds one count per category plus "all", for the
	// categories variant
	Categories map[string]int `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// CategoryAll is the Categories key for the total count
const CategoryAll = "all"

func Compute(tasks []models.Task, variant models.Variant, now time.Time) Stats {
	var s Stats
	if variant == models.VariantCategories {
		s.Categories = make(map[string]int, len(models.Categories)+1)
		for _, c := range models.Categories {
			s.Categories[string(c)] = 0
		}
		s.Categories[CategoryAll] = len(tasks)
	}

	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
		switch variant {
		case models.VariantTags:
			if t.IsOverdue(now) {
				s.Overdue++
			}
		case models.VariantCategories:
			if t.Category.Valid() {
				s.Categories[string(t.Category)]++
			}
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}
