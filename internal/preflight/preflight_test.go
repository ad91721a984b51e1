package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sift/internal/testsupport"
)

func TestRunAllPassesWithStubModel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	results := RunAll(cfg)
	if len(results) != 3 {
		t.Fatalf("results = %+v", results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("failed = %+v", failed)
	}
	if !strings.Contains(results[2].Detail, testsupport.StubSchemaVersion) {
		t.Fatalf("model detail = %q", results[2].Detail)
	}
}

func TestRunAllReportsMissingModelAndRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutModel())
	if err := os.Remove(cfg.Paths.RootDir); err != nil {
		t.Fatal(err)
	}
	failed := Failed(RunAll(cfg))
	names := make([]string, 0, len(failed))
	for _, r := range failed {
		names = append(names, r.Name)
	}
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "Organization root") || !strings.Contains(joined, "Classifier model") {
		t.Fatalf("failed checks = %v", names)
	}
}

func TestCheckModelBackends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	testsupport.WriteModel(t, path)

	cases := []struct {
		backend string
		passed  bool
		detail  string
	}{
		{"rf", true, "random-forest"},
		{"cnn", false, "not implemented"},
		{"svm", false, "unknown backend"},
	}
	for _, tc := range cases {
		r := CheckModel(tc.backend, path)
		if r.Passed != tc.passed || !strings.Contains(r.Detail, tc.detail) {
			t.Fatalf("CheckModel(%q) = %+v", tc.backend, r)
		}
	}
}

func TestCheckDirectoryAccessRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	testsupport.WriteFile(t, path, 1)
	if r := CheckDirectoryAccess("x", path); r.Passed || !strings.Contains(r.Detail, "not a directory") {
		t.Fatalf("result = %+v", r)
	}
}
