package store

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/tgienger/todo/internal/models"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// NewTask holds the fields of a task to create
type NewTask struct {
	Title       string
	Description string
	Priority    models.Priority // empty means medium
	DueDate     *civil.Date
	Tags        []int64         // tags variant
	Category    models.Category // categories variant; empty means other
}

// TaskPatch names the mutable fields of a task. Nil fields are left alone.
type TaskPatch struct {
	Title        *string
	Description  *string
	Priority     *models.Priority
	DueDate      *civil.Date
	ClearDueDate bool
	Tags         *[]int64
	Category     *models.Category
	Completed    *bool
}

// Ptr returns a pointer to v, for building patches
func Ptr[T any](v T) *T {
	return &v
}

// Empty reports whether the patch changes nothing
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.Tags == nil &&
		p.Category == nil && p.Completed == nil
}

// Tasks returns a copy of every task in creation order
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Task returns a copy of the task with id
func (s *Store) Task(id int64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return s.tasks[i].Clone(), nil
}

func (s *Store) taskIndex(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// CreateTask validates and appends a new open task
func (s *Store) CreateTask(ctx context.Context, in NewTask) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title, err := validateTitle(in.Title)
	if err != nil {
		return models.Task{}, err
	}
	desc, err := validateDescription(in.Description)
	if err != nil {
		return models.Task{}, err
	}
	priority, err := validatePriority(in.Priority)
	if err != nil {
		return models.Task{}, err
	}
	tags, err := s.validateTags(in.Tags)
	if err != nil {
		return models.Task{}, err
	}
	category, err := s.validateCategory(in.Category)
	if err != nil {
		return models.Task{}, err
	}

	now := s.stamp()
	task := models.Task{
		ID:          s.nextID(),
		Title:       title,
		Description: desc,
		Priority:    priority,
		Tags:        tags,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.DueDate != nil {
		d := *in.DueDate
		task.DueDate = &d
	}

	s.tasks = append(s.tasks, task)
	s.logger.Debug("task created", "id", task.ID, "title", task.Title)

	return task.Clone(), s.persist(ctx, true, false)
}

// UpdateTask applies the set fields of patch. Every field is validated
// before any is written.
func (s *Store) UpdateTask(ctx context.Context, id int64, patch TaskPatch) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	next := s.tasks[i].Clone()

	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return models.Task{}, err
		}
		next.Title = title
	}
	if patch.Description != nil {
		desc, err := validateDescription(*patch.Description)
		if err != nil {
			return models.Task{}, err
		}
		next.Description = desc
	}
	if patch.Priority != nil {
		priority, err := validatePriority(*patch.Priority)
		if err != nil {
			return models.Task{}, err
		}
		next.Priority = priority
	}
	if patch.ClearDueDate {
		next.DueDate = nil
	} else if patch.DueDate != nil {
		d := *patch.DueDate
		next.DueDate = &d
	}
	if patch.Tags != nil {
		tags, err := s.validateTags(*patch.Tags)
		if err != nil {
			return models.Task{}, err
		}
		next.Tags = tags
	}
	if patch.Category != nil {
		if *patch.Category == "" {
			return models.Task{}, invalid("category", "must not be empty")
		}
		category, err := s.validateCategory(*patch.Category)
		if err != nil {
			return models.Task{}, err
		}
		next.Category = category
	}
	if patch.Completed != nil {
		next.Completed = *patch.Completed
	}

	next.UpdatedAt = s.stamp()
	s.tasks[i] = next
	s.logger.Debug("task updated", "id", id)

	return next.Clone(), s.persist(ctx, true, false)
}

// ToggleComplete flips the completed flag of the task
func (s *Store) ToggleComplete(ctx context.Context, id int64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}

	s.tasks[i].Completed = !s.tasks[i].Completed
	s.tasks[i].UpdatedAt = s.stamp()
	s.logger.Debug("task toggled", "id", id, "completed", s.tasks[i].Completed)

	return s.tasks[i].Clone(), s.persist(ctx, true, false)
}

// DeleteTask removes the task once confirm approves
func (s *Store) DeleteTask(ctx context.Context, id int64, confirm Confirm) error {
	task, err := s.Task(id)
	if err != nil {
		return err
	}
	if !ask(confirm, fmt.Sprintf("Delete task %q?", task.Title)) {
		return fmt.Errorf("delete task %d: %w", id, ErrNotConfirmed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.logger.Debug("task deleted", "id", id)

	return s.persist(ctx, true, false)
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title", "must not be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", invalid("title", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}
	return title, nil
}

func validateDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return "", invalid("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength))
	}
	return desc, nil
}

func validatePriority(p models.Priority) (models.Priority, error) {
	if p == "" {
		return models.PriorityMedium, nil
	}
	if !p.Valid() {
		return "", invalid("priority", fmt.Sprintf("unknown priority %q", p))
	}
	return p, nil
}

// validateTags drops duplicates, keeping first occurrences, and requires
// every id to name an existing tag
func (s *Store) validateTags(ids []int64) ([]int64, error) {
	if s.variant != models.VariantTags {
		if len(ids) > 0 {
			return nil, invalid("tags", "tags are not used with categories")
		}
		return nil, nil
	}

	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if s.tagIndex(id) < 0 {
			return nil, invalid("tags", fmt.Sprintf("unknown tag %d", id))
		}
		dup := false
		for _, seen := range out {
			if seen == id {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Store) validateCategory(c models.Category) (models.Category, error) {
	if s.variant != models.VariantCategories {
		if c != "" {
			return "", invalid("category", "categories are not used with tags")
		}
		return "", nil
	}
	if c == "" {
		return models.CategoryOther, nil
	}
	if !c.Valid() {
		return "", invalid("category", fmt.Sprintf("unknown category %q", c))
	}
	return c, nil
}
