package folders

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"sift/internal/logging"
	"sift/internal/services"
)

func newTestResolver(t *testing.T, existing ...string) (*Resolver, string) {
	t.Helper()
	root := t.TempDir()
	for _, name := range existing {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
	}
	r, err := NewResolver(root, logging.NewNop())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r, root
}

func TestNewResolverSkipsHiddenAndFiles(t *testing.T) {
	r, root := newTestResolver(t, "Movies", ".cache", "Apps")
	if err := os.WriteFile(filepath.Join(root, "loose.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "Apps" || names[1] != "Movies" {
		t.Fatalf("names = %v", names)
	}
}

func TestNewResolverMissingRoot(t *testing.T) {
	_, err := NewResolver(filepath.Join(t.TempDir(), "absent"), nil)
	if !errors.Is(err, services.ErrFolder) {
		t.Fatalf("err = %v, want ErrFolder", err)
	}
}

func TestResolveMatchOrder(t *testing.T) {
	r, root := newTestResolver(t, "Movies", "games", "Education")
	cases := []struct {
		request string
		folder  string
		match   Match
	}{
		{"Movies", "Movies", MatchExact},
		{"Games", "games", MatchCaseInsensitive},
		{"Education and Finance", "Education", MatchSubstring},
		{"Career", "Career", MatchCreated},
	}
	for _, tc := range cases {
		res := r.Resolve(tc.request)
		if res.Folder != tc.folder || res.Match != tc.match || res.Warning != nil {
			t.Fatalf("Resolve(%q) = %+v, want folder %q match %q", tc.request, res, tc.folder, tc.match)
		}
		if res.Dir != filepath.Join(root, tc.folder) {
			t.Fatalf("dir = %q", res.Dir)
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r, root := newTestResolver(t)
	first := r.Resolve("Entertainment")
	second := r.Resolve("Entertainment")
	if first.Dir != second.Dir {
		t.Fatalf("dirs differ: %q vs %q", first.Dir, second.Dir)
	}
	if first.Match != MatchCreated || second.Match != MatchExact {
		t.Fatalf("matches = %q, %q", first.Match, second.Match)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one directory, got %d", len(entries))
	}
}

func TestResolveSubstringTieBreak(t *testing.T) {
	r, _ := newTestResolver(t, "Edu", "Education Stuff", "Finance")
	res := r.Resolve("Education")
	// "Education Stuff" contains the full request (overlap 9); "Edu" only 3.
	if res.Folder != "Education Stuff" {
		t.Fatalf("folder = %q", res.Folder)
	}

	r, _ = newTestResolver(t, "Old Apps", "New Apps")
	if res := r.Resolve("Apps"); res.Folder != "New Apps" {
		t.Fatalf("folder = %q, want lexicographic winner", res.Folder)
	}
}

func TestResolveRecreatesStaleEntry(t *testing.T) {
	r, root := newTestResolver(t, "Movies")
	if err := os.Remove(filepath.Join(root, "Movies")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	res := r.Resolve("Movies")
	if res.Match != MatchExact {
		t.Fatalf("match = %q", res.Match)
	}
	if info, err := os.Stat(res.Dir); err != nil || !info.IsDir() {
		t.Fatalf("directory not recreated: %v", err)
	}
}

func TestResolveFallsBackToRoot(t *testing.T) {
	r, root := newTestResolver(t)
	for _, name := range []string{"", " ", "..", "a/b"} {
		res := r.Resolve(name)
		if res.Match != MatchFallback || res.Dir != root {
			t.Fatalf("Resolve(%q) = %+v", name, res)
		}
		if !errors.Is(res.Warning, services.ErrFolder) {
			t.Fatalf("warning = %v, want ErrFolder", res.Warning)
		}
	}

	// A regular file blocks directory creation.
	if err := os.WriteFile(filepath.Join(root, "Games"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	res := r.Resolve("Games")
	if res.Match != MatchFallback || res.Warning == nil {
		t.Fatalf("Resolve(Games) = %+v, want fallback", res)
	}
	if len(r.Names()) != 0 {
		t.Fatalf("failed creation should not be indexed: %v", r.Names())
	}
}

func TestResolveConcurrentCreatesOnce(t *testing.T) {
	r, root := newTestResolver(t)
	const workers = 16
	results := make([]Resolution, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve("Apps")
		}(i)
	}
	wg.Wait()

	created := 0
	for _, res := range results {
		if res.Dir != filepath.Join(root, "Apps") {
			t.Fatalf("dir = %q", res.Dir)
		}
		if res.Match == MatchCreated {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}
	if names := r.Names(); len(names) != 1 {
		t.Fatalf("names = %v", names)
	}
}

func TestPreviewDoesNotCreate(t *testing.T) {
	r, root := newTestResolver(t, "Education")
	if res := r.Preview("Education and Finance"); res.Folder != "Education" || res.Match != MatchSubstring {
		t.Fatalf("Preview = %+v", res)
	}
	res := r.Preview("Games")
	if res.Match != MatchNew || res.Dir != filepath.Join(root, "Games") {
		t.Fatalf("Preview = %+v", res)
	}
	if _, err := os.Stat(res.Dir); !os.IsNotExist(err) {
		t.Fatalf("preview created %s: %v", res.Dir, err)
	}
	if len(r.Names()) != 1 {
		t.Fatalf("names = %v", r.Names())
	}
}
