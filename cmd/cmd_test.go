package cmd

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/mangacat/internal/cache"
	"github.com/lehigh-university-libraries/mangacat/internal/lookup"
	"github.com/lehigh-university-libraries/mangacat/internal/models"
	"github.com/spf13/cobra"
)

func TestLookupRequests(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		entries []string
		want      []models.SeriesRequest
		parseErrs int
		wantErr   bool
	}{
		{
			name: "positional",
			args: []string{"One Piece", "1-3"},
			want: []models.SeriesRequest{{Series: "One Piece", Volumes: []int{1, 2, 3}}},
		},
		{
			name:    "positional then entries",
			args:    []string{"One Piece", "2"},
			entries: []string{"Naruto=1,3"},
			want: []models.SeriesRequest{
				{Series: "One Piece", Volumes: []int{2}},
				{Series: "Naruto", Volumes: []int{1, 3}},
			},
		},
		{
			name:      "bad entry keeps the good ones",
			entries:   []string{"Naruto=1-3", "Bleach=1-a", "Berserk"},
			want:      []models.SeriesRequest{{Series: "Naruto", Volumes: []int{1, 2, 3}}},
			parseErrs: 2,
		},
		{
			name:      "bad positional keeps entries",
			args:      []string{"One Piece", "x"},
			entries:   []string{"Naruto=2"},
			want:      []models.SeriesRequest{{Series: "Naruto", Volumes: []int{2}}},
			parseErrs: 1,
		},
		{name: "series without volumes", args: []string{"One Piece"}, wantErr: true},
		{name: "nothing", wantErr: true},
		{name: "only bad entries", entries: []string{"Naruto"}, parseErrs: 1, wantErr: true},
		{name: "bad volumes", args: []string{"One Piece", "x"}, parseErrs: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, parseErrs, err := lookupRequests(tt.args, tt.entries)
			if (err != nil) != tt.wantErr {
				t.Fatalf("lookupRequests() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(parseErrs) != tt.parseErrs {
				t.Errorf("got %d parse errors, want %d: %v", len(parseErrs), tt.parseErrs, parseErrs)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d requests, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Series != tt.want[i].Series || !slices.Equal(got[i].Volumes, tt.want[i].Volumes) {
					t.Errorf("request %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSettingsOverrideEnvironment(t *testing.T) {
	t.Setenv("CATALOGING_PROVIDER", "openai")
	t.Setenv("MANGACAT_CONCURRENCY", "8")
	t.Setenv("MANGACAT_RETRIES", "5")

	var s settings
	cmd := &cobra.Command{Use: "test"}
	s.register(cmd)
	if err := cmd.ParseFlags([]string{"--provider", "ollama", "--concurrency", "2", "--min-interval", "0s"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := s.load(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "ollama" || cfg.Model != "mistral-small3.2:24b" {
		t.Errorf("provider = %q model = %q", cfg.Provider, cfg.Model)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Concurrency)
	}
	if cfg.Retries != 5 {
		t.Errorf("Retries = %d, want the environment value 5", cfg.Retries)
	}
	if cfg.MinInterval != 0 {
		t.Errorf("MinInterval = %v, want 0", cfg.MinInterval)
	}
	if cfg.Timeout != 120*time.Second {
		t.Errorf("Timeout = %v, want default", cfg.Timeout)
	}
}

func TestSettingsRejectInvalidFlags(t *testing.T) {
	var s settings
	cmd := &cobra.Command{Use: "test"}
	s.register(cmd)
	if err := cmd.ParseFlags([]string{"--concurrency", "0"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.load(cmd); err == nil {
		t.Error("expected zero concurrency to be rejected")
	}
}

func TestCacheClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	db, err := cache.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := t.Context()
	for _, v := range []int{1, 2} {
		entry := cache.Entry{
			Fingerprint: lookup.Fingerprint(lookup.BuildPrompt("One Piece", v)),
			Volume:      v,
			Payload:     "{}",
			Success:     v == 1,
		}
		if err := db.Put(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	run := func(args ...string) string {
		t.Helper()
		root := NewRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(append([]string{"cache"}, args...))
		if err := root.ExecuteContext(ctx); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	if out := run("clear", "--cache", path, "--failed"); !strings.Contains(out, "Removed 1 cached failures") {
		t.Errorf("clear --failed output = %q", out)
	}
	if out := run("clear", "--cache", path, "--series", "One Piece", "--volumes", "1-2"); !strings.Contains(out, "Removed 1 of 2") {
		t.Errorf("clear --series output = %q", out)
	}
	if out := run("stats", "--cache", path, "--yaml"); !strings.Contains(out, "cached_entries: 0") {
		t.Errorf("stats output = %q", out)
	}
}
