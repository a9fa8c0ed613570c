package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/inkwell/inkwell-server/internal/domain"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s.SetClock(func() time.Time { return baseTime.Add(time.Hour) })
	t.Cleanup(func() { s.Close() })
	return s
}

// recordingNotifier collects NovelChanged calls.
type recordingNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingNotifier) NovelChanged(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *recordingNotifier) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func makeTestUser(id, email string) *domain.User {
	u := &domain.User{
		Email:        email,
		PasswordHash: "$argon2id$fake",
		DisplayName:  "User " + id,
	}
	u.ID = id
	u.InitTimestamps(baseTime)
	return u
}

func makeTestNovel(id, authorID string, at time.Time, genres ...string) *domain.Novel {
	n := &domain.Novel{
		Title:       "Novel " + id,
		Description: "About " + id,
		AuthorID:    authorID,
		Genres:      genres,
		Tags:        []string{},
		Status:      domain.NovelStatusOngoing,
	}
	n.ID = id
	n.InitTimestamps(at)
	if n.Genres == nil {
		n.Genres = []string{}
	}
	return n
}

func mustCreateUser(t *testing.T, s *Store, id string) *domain.User {
	t.Helper()
	u := makeTestUser(id, id+"@example.com")
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", id, err)
	}
	return u
}

func mustCreateNovel(t *testing.T, s *Store, n *domain.Novel) {
	t.Helper()
	if err := s.CreateNovel(context.Background(), n); err != nil {
		t.Fatalf("CreateNovel(%s): %v", n.ID, err)
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	tables := []string{
		"users", "novels", "novel_genres", "novel_tags", "chapters",
		"library_entries", "ratings", "comments", "sync_state",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Schema is idempotent.
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	s2.Close()
}

func TestFormatTime_LexicalOrderMatchesTimeOrder(t *testing.T) {
	a := formatTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b := formatTime(time.Date(2026, 1, 1, 0, 0, 0, 500, time.UTC))
	c := formatTime(time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC))
	if !(a < b && b < c) {
		t.Errorf("expected %q < %q < %q", a, b, c)
	}

	parsed, err := parseTime(b)
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if !parsed.Equal(time.Date(2026, 1, 1, 0, 0, 0, 500, time.UTC)) {
		t.Errorf("round trip mismatch: %v", parsed)
	}
}

func TestSyncCursor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetSyncCursor(ctx, "search")
	if err != nil {
		t.Fatalf("GetSyncCursor: %v", err)
	}
	if ok {
		t.Fatal("expected no cursor before first write")
	}

	want := baseTime.Add(42 * time.Second)
	if err := s.SetSyncCursor(ctx, "search", want); err != nil {
		t.Fatalf("SetSyncCursor: %v", err)
	}
	if err := s.SetSyncCursor(ctx, "search", want.Add(time.Minute)); err != nil {
		t.Fatalf("SetSyncCursor overwrite: %v", err)
	}

	got, ok, err := s.GetSyncCursor(ctx, "search")
	if err != nil {
		t.Fatalf("GetSyncCursor: %v", err)
	}
	if !ok || !got.Equal(want.Add(time.Minute)) {
		t.Errorf("cursor: got %v (ok=%v), want %v", got, ok, want.Add(time.Minute))
	}
}
