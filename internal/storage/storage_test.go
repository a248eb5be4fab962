package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo-test.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backendContract exercises the behavior every Backend must share.
func backendContract(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if _, err := b.Get(ctx, "tasks"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty backend: err = %v, want ErrNotFound", err)
	}

	if err := b.Put(ctx, Entry{Key: "tasks", Value: []byte(`[]`)}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := b.Get(ctx, "tasks")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("Get = %q, want %q", got, "[]")
	}

	err = b.Put(ctx,
		Entry{Key: "tasks", Value: []byte(`[{"id":1}]`)},
		Entry{Key: "tags", Value: []byte(`[{"id":2}]`)},
	)
	if err != nil {
		t.Fatalf("Put multiple: %v", err)
	}
	for key, want := range map[string]string{"tasks": `[{"id":1}]`, "tags": `[{"id":2}]`} {
		got, err := b.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get %s: %v", key, err)
		}
		if string(got) != want {
			t.Errorf("Get %s = %q, want %q", key, got, want)
		}
	}

	if err := b.Put(ctx); err != nil {
		t.Errorf("Put with no entries: %v", err)
	}
}

func TestMemory(t *testing.T) {
	backendContract(t, NewMemory())
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put(ctx, Entry{Key: "k", Value: []byte("abc")})

	v, _ := m.Get(ctx, "k")
	v[0] = 'x'

	again, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value changed through returned slice: %q", again)
	}
}

func TestMemory_PutHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewMemory().Put(ctx, Entry{Key: "k", Value: []byte("v")}); err == nil {
		t.Error("Put with canceled context succeeded, want error")
	}
}

func TestSQLite(t *testing.T) {
	backendContract(t, newTestSQLite(t))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Put(ctx, Entry{Key: "darkTheme", Value: []byte("true")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "darkTheme")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "true" {
		t.Errorf("Get = %q, want %q", got, "true")
	}
}

func TestDefaultPath_UsesXDGDataHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath: %v", err)
	}
	if want := filepath.Join(dir, "todo", "todo.db"); path != want {
		t.Errorf("DefaultPath = %q, want %q", path, want)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	if _, err := Open(Options{Kind: "bbolt"}); err == nil {
		t.Error("Open with unknown kind succeeded, want error")
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("TODO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TODO_TEST_REDIS_ADDR not set")
	}

	r, err := OpenRedis(addr, "todo-test-"+t.Name())
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		for _, k := range []string{"tasks", "tags"} {
			r.client.Do(ctx, r.client.B().Del().Key(r.key(k)).Build())
		}
		r.Close()
	})

	backendContract(t, r)
}

func TestRedis_KeysShareHashTag(t *testing.T) {
	r := &Redis{prefix: "todo"}
	if got := r.key("tasks"); got != "{todo}:tasks" {
		t.Errorf("key = %q, want %q", got, "{todo}:tasks")
	}
}
