package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	t.Setenv("JOB_SCREENER_TEST_KEY", " from-env ")

	tests := []struct {
		name    string
		src     Source
		expect  string
		wantErr string
	}{
		{
			name:   "file takes precedence",
			src:    Source{Name: "gemini api key", File: keyFile, Value: "inline", Env: "JOB_SCREENER_TEST_KEY"},
			expect: "from-file",
		},
		{
			name:   "inline value before env",
			src:    Source{Value: " inline ", Env: "JOB_SCREENER_TEST_KEY"},
			expect: "inline",
		},
		{
			name:   "env fallback",
			src:    Source{Env: "JOB_SCREENER_TEST_KEY"},
			expect: "from-env",
		},
		{
			name:    "empty file",
			src:     Source{Name: "news api key", File: emptyFile},
			wantErr: "is empty",
		},
		{
			name:    "missing file",
			src:     Source{File: filepath.Join(dir, "missing")},
			wantErr: "reading secret from file",
		},
		{
			name:    "unset env",
			src:     Source{Name: "adzuna api key", Env: "JOB_SCREENER_UNSET_KEY"},
			wantErr: "set JOB_SCREENER_UNSET_KEY",
		},
		{
			name:    "nothing configured",
			src:     Source{},
			wantErr: "secret is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
