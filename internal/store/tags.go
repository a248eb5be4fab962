package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tgienger/todo/internal/fold"
	"github.com/tgienger/todo/internal/models"
)

// DefaultTagColor is used when a tag is created without a color
const DefaultTagColor = "#4361ee"

const MaxTagNameLength = 50

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Suggestions is the result of a tag search while editing a task
type Suggestions struct {
	Tags []models.Tag `json:"tags"`
	// Create holds the trimmed query when no tag matched it
	Create string `json:"create,omitempty"`
}

func (s *Store) tagsOnly() error {
	if s.variant != models.VariantTags {
		return ErrUnsupported
	}
	return nil
}

func (s *Store) tagIndex(id int64) int {
	for i := range s.tags {
		if s.tags[i].ID == id {
			return i
		}
	}
	return -1
}

// Tags returns a copy of every tag in creation order
func (s *Store) Tags() ([]models.Tag, error) {
	if err := s.tagsOnly(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Tag{}, s.tags...), nil
}

// Tag returns the tag with id
func (s *Store) Tag(id int64) (models.Tag, error) {
	if err := s.tagsOnly(); err != nil {
		return models.Tag{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.tagIndex(id)
	if i < 0 {
		return models.Tag{}, fmt.Errorf("tag %d: %w", id, ErrNotFound)
	}
	return s.tags[i], nil
}

// TagByName finds a tag by name, ignoring case
func (s *Store) TagByName(name string) (models.Tag, error) {
	if err := s.tagsOnly(); err != nil {
		return models.Tag{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	for _, t := range s.tags {
		if fold.Equal(t.Name, name) {
			return t, nil
		}
	}
	return models.Tag{}, fmt.Errorf("tag %q: %w", name, ErrNotFound)
}

// CreateTag adds a tag. Names are unique ignoring case.
func (s *Store) CreateTag(ctx context.Context, name, color string) (models.Tag, error) {
	if err := s.tagsOnly(); err != nil {
		return models.Tag{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Tag{}, invalid("name", "must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxTagNameLength {
		return models.Tag{}, invalid("name", fmt.Sprintf("must be at most %d characters", MaxTagNameLength))
	}
	for _, t := range s.tags {
		if fold.Equal(t.Name, name) {
			return models.Tag{}, invalid("name", fmt.Sprintf("tag %q already exists", t.Name))
		}
	}

	color = strings.TrimSpace(color)
	if color == "" {
		color = DefaultTagColor
	}
	if !colorPattern.MatchString(color) {
		return models.Tag{}, invalid("color", fmt.Sprintf("%q is not a #rrggbb color", color))
	}

	tag := models.Tag{
		ID:        s.nextID(),
		Name:      name,
		Color:     color,
		CreatedAt: s.stamp(),
	}
	s.tags = append(s.tags, tag)
	s.logger.Debug("tag created", "id", tag.ID, "name", tag.Name)

	return tag, s.persist(ctx, false, true)
}

// DeleteTag removes the tag and detaches it from every task. The confirmer
// is only consulted when some task still uses the tag.
func (s *Store) DeleteTag(ctx context.Context, id int64, confirm Confirm) error {
	if err := s.tagsOnly(); err != nil {
		return err
	}

	tag, err := s.Tag(id)
	if err != nil {
		return err
	}
	if used := s.tagUsage(id); used > 0 {
		prompt := fmt.Sprintf("Tag %q is used by %d task(s). Delete it anyway?", tag.Name, used)
		if !ask(confirm, prompt) {
			return fmt.Errorf("delete tag %d: %w", id, ErrNotConfirmed)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.tagIndex(id)
	if i < 0 {
		return fmt.Errorf("tag %d: %w", id, ErrNotFound)
	}

	now := s.stamp()
	detached := 0
	for j := range s.tasks {
		t := &s.tasks[j]
		if !t.HasTag(id) {
			continue
		}
		kept := make([]int64, 0, len(t.Tags)-1)
		for _, tagID := range t.Tags {
			if tagID != id {
				kept = append(kept, tagID)
			}
		}
		t.Tags = kept
		t.UpdatedAt = now
		detached++
	}
	s.tags = append(s.tags[:i], s.tags[i+1:]...)
	s.logger.Debug("tag deleted", "id", id, "tasks", detached)

	return s.persist(ctx, detached > 0, true)
}

// tagUsage counts the tasks carrying the tag
func (s *Store) tagUsage(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.tasks {
		if t.HasTag(id) {
			n++
		}
	}
	return n
}

// TagUsage returns how many tasks carry each tag
func (s *Store) TagUsage() map[int64]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	usage := make(map[int64]int, len(s.tags))
	for _, t := range s.tasks {
		for _, id := range t.Tags {
			usage[id]++
		}
	}
	return usage
}

// Suggest lists tags whose name contains query, ignoring case, skipping
// the ids in exclude. A blank query suggests nothing.
func (s *Store) Suggest(query string, exclude []int64) (Suggestions, error) {
	if err := s.tagsOnly(); err != nil {
		return Suggestions{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query = strings.TrimSpace(query)
	out := Suggestions{Tags: []models.Tag{}}
	if query == "" {
		return out, nil
	}

	exact := false
	for _, t := range s.tags {
		if !fold.Contains(t.Name, query) {
			continue
		}
		if fold.Equal(t.Name, query) {
			exact = true
		}
		excluded := false
		for _, id := range exclude {
			if id == t.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			out.Tags = append(out.Tags, t)
		}
	}
	if len(out.Tags) == 0 && !exact {
		out.Create = query
	}
	return out, nil
}
