// Package store owns the task and tag collections. Every mutation runs to
// completion under one lock and writes the affected collections back to the
// storage backend as whole JSON arrays.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/log"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/storage"
)

// Keys the store reads and writes
const (
	KeyTasks     = "tasks"
	KeyTags      = "tags"
	KeyDarkTheme = "darkTheme"
)

// Confirm asks the user to approve a destructive operation
type Confirm func(prompt string) bool

// AlwaysConfirm approves every prompt. Use it once the caller has already
// asked the user.
func AlwaysConfirm(string) bool { return true }

// Options configures Open
type Options struct {
	Variant models.Variant
	Seed    bool // seed demo data into absent keys
	Logger  *log.Logger
	Now     func() time.Time
}

// Store is the process-wide task and tag collection
type Store struct {
	mu      sync.Mutex
	backend storage.Backend
	variant models.Variant
	logger  *log.Logger
	now     func() time.Time

	tasks  []models.Task
	tags   []models.Tag
	lastID int64

	// collections changed in memory but not yet written
	dirtyTasks bool
	dirtyTags  bool
}

// Open loads the collections from backend, seeding absent keys when
// opts.Seed is set. Stored data that is not valid JSON fails with ErrCorrupt.
func Open(ctx context.Context, backend storage.Backend, opts Options) (*Store, error) {
	if opts.Variant == "" {
		opts.Variant = models.VariantTags
	}
	if !opts.Variant.Valid() {
		return nil, fmt.Errorf("unknown variant %q", opts.Variant)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		backend: backend,
		variant: opts.Variant,
		logger:  opts.Logger,
		now:     opts.Now,
		tasks:   []models.Task{},
		tags:    []models.Tag{},
	}

	seedTasks, err := load(ctx, backend, KeyTasks, &s.tasks)
	if err != nil {
		return nil, err
	}
	seedTags := false
	if s.variant == models.VariantTags {
		if seedTags, err = load(ctx, backend, KeyTags, &s.tags); err != nil {
			return nil, err
		}
	}

	if opts.Seed {
		today := civil.DateOf(s.now())
		if seedTasks {
			s.tasks = demoTasks(s.variant, today)
		}
		if seedTags {
			s.tags = demoTags()
		}
	}

	if s.tasks == nil {
		s.tasks = []models.Task{}
	}
	if s.tags == nil {
		s.tags = []models.Tag{}
	}
	for i := range s.tasks {
		s.normalize(&s.tasks[i])
		s.lastID = max(s.lastID, s.tasks[i].ID)
	}
	for _, t := range s.tags {
		s.lastID = max(s.lastID, t.ID)
	}

	// Absent keys are written once, seeded or empty, so a later start
	// never seeds again.
	if seedTasks || seedTags {
		s.logger.Info("initializing storage", "variant", s.variant, "seed", opts.Seed, "tasks", len(s.tasks), "tags", len(s.tags))
		if err := s.persist(ctx, seedTasks, seedTags); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// load decodes key into dst. It reports true when the key is absent.
func load(ctx context.Context, backend storage.Backend, key string, dst any) (bool, error) {
	data, err := backend.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrCorrupt, key, err)
	}
	return false, nil
}

// normalize makes a loaded task match the store's variant
func (s *Store) normalize(t *models.Task) {
	if !t.Priority.Valid() {
		t.Priority = models.PriorityMedium
	}
	switch s.variant {
	case models.VariantTags:
		t.Category = ""
		if t.Tags == nil {
			t.Tags = []int64{}
		}
	case models.VariantCategories:
		t.Tags = nil
		if !t.Category.Valid() {
			t.Category = models.CategoryOther
		}
	}
}

// stamp returns the current time as stored on records
func (s *Store) stamp() time.Time {
	return s.now().UTC()
}

// nextID returns a millisecond timestamp id, bumped past the last issued id
// when the clock has not moved on
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// persist writes the named collections, plus any left dirty by an earlier
// failure, in one backend write
func (s *Store) persist(ctx context.Context, tasks, tags bool) error {
	s.dirtyTasks = s.dirtyTasks || tasks
	s.dirtyTags = s.dirtyTags || tags

	var entries []storage.Entry
	if s.dirtyTasks {
		data, err := json.Marshal(s.tasks)
		if err != nil {
			return fmt.Errorf("%w: encode tasks: %w", ErrPersist, err)
		}
		entries = append(entries, storage.Entry{Key: KeyTasks, Value: data})
	}
	if s.dirtyTags {
		data, err := json.Marshal(s.tags)
		if err != nil {
			return fmt.Errorf("%w: encode tags: %w", ErrPersist, err)
		}
		entries = append(entries, storage.Entry{Key: KeyTags, Value: data})
	}
	if len(entries) == 0 {
		return nil
	}

	if err := s.backend.Put(ctx, entries...); err != nil {
		s.logger.Error("persist failed; keeping changes in memory", "err", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.dirtyTasks, s.dirtyTags = false, false
	return nil
}

// Flush writes any collection left unsaved by a failed persist
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, false, false)
}

// Dirty reports whether in-memory changes are waiting to be written
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyTasks || s.dirtyTags
}

func (s *Store) Variant() models.Variant { return s.variant }

// Now returns the store's clock reading
func (s *Store) Now() time.Time { return s.now() }

// DarkTheme returns the saved theme preference. An unset preference is light.
func (s *Store) DarkTheme(ctx context.Context) (bool, error) {
	data, err := s.backend.Get(ctx, KeyDarkTheme)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(data) == "true", nil
}

// SetDarkTheme saves the theme preference
func (s *Store) SetDarkTheme(ctx context.Context, dark bool) error {
	value := "false"
	if dark {
		value = "true"
	}
	if err := s.backend.Put(ctx, storage.Entry{Key: KeyDarkTheme, Value: []byte(value)}); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// ask runs confirm, treating a missing confirmer as a refusal
func ask(confirm Confirm, prompt string) bool {
	return confirm != nil && confirm(prompt)
}
