package history

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"a.pdf", "b.mp4", "c.zip"} {
		_, err := store.Append(ctx, Entry{
			RecordedAt:  base.Add(time.Duration(i) * time.Minute),
			SourceName:  name,
			SourcePath:  "/downloads/" + name,
			Folder:      "Folder",
			Destination: "/downloads/Folder/" + name,
			Category:    "Others",
			Confidence:  0.5,
			RunID:       "run-1",
		})
		if err != nil {
			t.Fatalf("Append %s: %v", name, err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].SourceName != "c.zip" || entries[1].SourceName != "b.mp4" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].OutcomeID == "" || entries[0].ID == 0 {
		t.Fatalf("ids not assigned: %+v", entries[0])
	}
	if !entries[0].RecordedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("recorded_at = %v", entries[0].RecordedAt)
	}

	run, err := store.ListRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListRun: %v", err)
	}
	if len(run) != 3 || run[0].SourceName != "a.pdf" {
		t.Fatalf("run entries = %+v", run)
	}
}

func TestAppendIsIdempotentPerOutcome(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	entry := Entry{
		OutcomeID:    "outcome-1",
		SourceName:   "tax.pdf",
		Destination:  "/d/Education and Finance/tax.pdf",
		Folder:       "Education and Finance",
		Category:     "Finance",
		Confidence:   0.7,
		OverrideRule: "finance_keywords",
	}
	first, err := store.Append(ctx, entry)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	second, err := store.Append(ctx, entry)
	if err != nil {
		t.Fatalf("Append again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %d vs %d", first.ID, second.ID)
	}
	if second.OverrideRule != "finance_keywords" {
		t.Fatalf("override = %q", second.OverrideRule)
	}
	n, err := store.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

func TestAppendRejectsIncompleteEntries(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Append(context.Background(), Entry{SourceName: "x"}); err == nil {
		t.Fatal("expected error for missing destination")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Append(ctx, Entry{SourceName: "a", Destination: "/x/a"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	n, err := store.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

func TestConcurrentAppendsAllRecorded(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	const writers = 64
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("file_%02d.mp4", i)
			_, err := store.Append(ctx, Entry{
				SourceName:  name,
				SourcePath:  "/downloads/" + name,
				Folder:      "Movies",
				Destination: "/downloads/Movies/" + name,
				Category:    "Movies",
				Confidence:  0.8,
				RunID:       "run-concurrent",
			})
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Append: %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != writers {
		t.Fatalf("count = %d, want %d", n, writers)
	}
}

func TestSecondHandleWaitsForWriter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open first: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })
	second, err := Open(path)
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	var wg sync.WaitGroup
	for i, store := range []*Store{first, second, first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("doc_%d.pdf", i)
			if _, err := store.Append(ctx, Entry{SourceName: name, SourcePath: "/d/" + name, Folder: "Education and Finance", Destination: "/d/x/" + name, Category: "Education"}); err != nil {
				t.Errorf("Append %s: %v", name, err)
			}
		}()
	}
	wg.Wait()

	n, err := second.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 4 {
		t.Fatalf("count = %d, want 4", n)
	}
}
