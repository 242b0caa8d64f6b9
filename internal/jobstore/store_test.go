package jobstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "jobs.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return s
}

func TestStore_InsertAndGet(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	rec := Record{
		ID:          "job-1",
		Name:        "wordcount",
		Parallelism: 4,
		State:       StatePending,
		SubmittedAt: time.Now().Truncate(time.Millisecond),
	}
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	got, err := s.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != rec.Name || got.Parallelism != rec.Parallelism || got.State != rec.State {
		t.Errorf("Get() = %+v, want %+v", got, rec)
	}
	if !got.SubmittedAt.Equal(rec.SubmittedAt) {
		t.Errorf("SubmittedAt = %v, want %v", got.SubmittedAt, rec.SubmittedAt)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get() error = %v, want ErrJobNotFound", err)
	}
}

func TestStore_UpdateState(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, Record{ID: "job-1", Name: "n", Parallelism: 1, State: StatePending, SubmittedAt: time.Now()}); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	if err := s.UpdateState(ctx, "job-1", StateRunning); err != nil {
		t.Fatalf("UpdateState() error: %v", err)
	}
	got, err := s.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.State != StateRunning {
		t.Errorf("state = %s, want %s", got.State, StateRunning)
	}

	if err := s.UpdateState(ctx, "missing", StateFailed); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("UpdateState(missing) error = %v, want ErrJobNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Truncate(time.Millisecond)
	for i, id := range []string{"a", "b", "c"} {
		err := s.Insert(ctx, Record{
			ID: id, Name: "job-" + id, Parallelism: 1,
			State:       StatePending,
			SubmittedAt: base.Add(time.Duration(i) * time.Millisecond),
		})
		if err != nil {
			t.Fatalf("Insert(%s) error: %v", id, err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(got))
	}
	for i, id := range []string{"a", "b", "c"} {
		if got[i].ID != id {
			t.Errorf("List()[%d].ID = %s, want %s (submission order)", i, got[i].ID, id)
		}
	}
}
