package lookup

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/mangacat/internal/cache"
	"github.com/lehigh-university-libraries/mangacat/internal/providers"
	"golang.org/x/sync/errgroup"
)

const onePiece = `{"series_name":"One Piece","volume_number":1,"book_title":"One Piece (Volume 1)","authors":"Oda, Eiichiro","msrp_cost":9.99,"copyright_year":"2003"}`

// scripted returns the queued replies in order, repeating the last one
type scripted struct {
	mu      sync.Mutex
	replies []reply
	calls   int
	prompts []string
}

type reply struct {
	text string
	err  error
}

func (s *scripted) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, config.Prompt)
	i := s.calls
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	s.calls++
	return s.replies[i].text, s.replies[i].err
}

func (s *scripted) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// brokenStore fails every read and write
type brokenStore struct{ puts int }

func (b *brokenStore) Get(ctx context.Context, fingerprint string, volume int) (cache.Entry, bool, error) {
	return cache.Entry{}, false, errors.New("disk unavailable")
}

func (b *brokenStore) Put(ctx context.Context, entry cache.Entry) error {
	b.puts++
	return errors.New("disk unavailable")
}

func openCache(t *testing.T) *cache.DB {
	t.Helper()
	db, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestLookupCachesSuccess(t *testing.T) {
	db := openCache(t)
	provider := &scripted{replies: []reply{{text: "```json\n" + onePiece + "\n```"}}}
	o := New(db, provider, "deepseek-chat", WithSleep(noSleep))
	ctx := context.Background()

	payload, ok := o.Lookup(ctx, "One Piece", 1)
	if !ok {
		t.Fatal("expected lookup to succeed")
	}
	if payload["book_title"] != "One Piece (Volume 1)" {
		t.Errorf("unexpected payload %v", payload)
	}

	again, ok := o.Lookup(ctx, "One Piece", 1)
	if !ok || again["book_title"] != payload["book_title"] {
		t.Fatalf("expected cached payload, got %v ok=%v", again, ok)
	}
	if provider.callCount() != 1 {
		t.Errorf("provider called %d times, want 1", provider.callCount())
	}

	entry, hit, err := db.Get(ctx, Fingerprint(BuildPrompt("One Piece", 1)), 1)
	if err != nil || !hit {
		t.Fatalf("expected stored entry, hit=%v err=%v", hit, err)
	}
	if entry.Payload != onePiece || !entry.Success || entry.Series != "One Piece" {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestLookupRetriesTransientFailures(t *testing.T) {
	tests := []struct {
		name      string
		replies   []reply
		attempts  int
		wantOK    bool
		wantCalls int
	}{
		{
			name:      "succeeds after timeouts",
			replies:   []reply{{err: context.DeadlineExceeded}, {err: &providers.StatusError{StatusCode: http.StatusTooManyRequests}}, {text: onePiece}},
			attempts:  3,
			wantOK:    true,
			wantCalls: 3,
		},
		{
			name:      "exhausts retries",
			replies:   []reply{{err: context.DeadlineExceeded}},
			attempts:  3,
			wantOK:    false,
			wantCalls: 3,
		},
		{
			name:      "rejection is final",
			replies:   []reply{{err: &providers.StatusError{StatusCode: http.StatusBadRequest}}},
			attempts:  3,
			wantOK:    false,
			wantCalls: 1,
		},
		{
			name:      "unparseable answer is final",
			replies:   []reply{{text: "I could not find that volume."}},
			attempts:  3,
			wantOK:    false,
			wantCalls: 1,
		},
		{
			name:      "zero attempts still calls once",
			replies:   []reply{{text: onePiece}},
			attempts:  0,
			wantOK:    true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openCache(t)
			provider := &scripted{replies: tt.replies}
			var delays []time.Duration
			sleep := func(ctx context.Context, d time.Duration) error {
				delays = append(delays, d)
				return nil
			}
			o := New(db, provider, "m",
				WithRetryPolicy(RetryPolicy{Attempts: tt.attempts, Delay: 5 * time.Second}),
				WithSleep(sleep))

			_, ok := o.Lookup(context.Background(), "One Piece", 1)
			if ok != tt.wantOK {
				t.Errorf("Lookup() ok = %v, want %v", ok, tt.wantOK)
			}
			if provider.callCount() != tt.wantCalls {
				t.Errorf("provider called %d times, want %d", provider.callCount(), tt.wantCalls)
			}
			if len(delays) != tt.wantCalls-1 {
				t.Errorf("slept %d times, want %d", len(delays), tt.wantCalls-1)
			}
			for _, d := range delays {
				if d != 5*time.Second {
					t.Errorf("backoff delay = %v, want 5s", d)
				}
			}

			stats, err := db.Stats(context.Background(), 0)
			if err != nil {
				t.Fatalf("Stats() error = %v", err)
			}
			if stats.TotalCalls != 1 {
				t.Errorf("recorded %d attempts, want exactly 1 terminal outcome", stats.TotalCalls)
			}
		})
	}
}

func TestConcurrentLookupsShareGateAndCache(t *testing.T) {
	db := openCache(t)
	provider := &scripted{replies: []reply{{text: onePiece}}}
	gate := providers.NewGate(provider, 2*time.Millisecond, time.Second)
	o := New(db, gate, "deepseek-chat", WithSleep(noSleep))
	ctx := context.Background()

	// every volume is requested twice at once; both callers may reach the
	// provider and the second write simply replaces the first
	const volumes = 4
	results := make([]bool, volumes*2)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(volumes)
	for i := range results {
		g.Go(func() error {
			_, ok := o.Lookup(gctx, "One Piece", i%volumes+1)
			results[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	for i, ok := range results {
		if !ok {
			t.Errorf("lookup %d failed", i)
		}
	}
	calls := provider.callCount()
	if calls < volumes || calls > volumes*2 {
		t.Errorf("provider called %d times, want between %d and %d", calls, volumes, volumes*2)
	}

	stats, err := db.Stats(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if stats.CachedEntries != volumes {
		t.Errorf("cached entries = %d, want %d", stats.CachedEntries, volumes)
	}
	if stats.TotalCalls != calls {
		t.Errorf("audit log has %d calls, provider saw %d", stats.TotalCalls, calls)
	}

	for v := 1; v <= volumes; v++ {
		if _, ok := o.Lookup(ctx, "One Piece", v); !ok {
			t.Errorf("volume %d missing from cache", v)
		}
	}
	if provider.callCount() != calls {
		t.Errorf("cached volumes reached the provider again: %d calls", provider.callCount())
	}
}

func TestLookupFailureIsCached(t *testing.T) {
	db := openCache(t)
	provider := &scripted{replies: []reply{{err: &providers.StatusError{StatusCode: http.StatusNotFound, Body: "unknown"}}, {text: onePiece}}}
	o := New(db, provider, "m", WithSleep(noSleep))
	ctx := context.Background()

	if _, ok := o.Lookup(ctx, "Nonexistent", 4); ok {
		t.Fatal("expected first lookup to fail")
	}
	if _, ok := o.Lookup(ctx, "Nonexistent", 4); ok {
		t.Fatal("expected cached failure")
	}
	if provider.callCount() != 1 {
		t.Errorf("provider called %d times, want 1", provider.callCount())
	}

	entry, _, _ := db.Get(ctx, Fingerprint(BuildPrompt("Nonexistent", 4)), 4)
	if entry.Success || !strings.Contains(entry.Payload, "404") {
		t.Errorf("expected failed entry carrying the error text, got %+v", entry)
	}

	// clearing the slot allows a retry
	if _, err := db.Delete(ctx, entry.Fingerprint, 4); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := o.Lookup(ctx, "Nonexistent", 4); !ok {
		t.Error("expected lookup to succeed after clearing the failure")
	}
}

func TestLookupSurvivesBrokenCache(t *testing.T) {
	store := &brokenStore{}
	provider := &scripted{replies: []reply{{text: onePiece}}}
	o := New(store, provider, "m", WithSleep(noSleep))

	payload, ok := o.Lookup(context.Background(), "One Piece", 1)
	if !ok || payload["series_name"] != "One Piece" {
		t.Fatalf("expected payload despite cache failure, got %v ok=%v", payload, ok)
	}
	if store.puts != 1 {
		t.Errorf("expected one attempted write, got %d", store.puts)
	}
}

func TestLookupRefetchesCorruptEntry(t *testing.T) {
	db := openCache(t)
	ctx := context.Background()
	fp := Fingerprint(BuildPrompt("One Piece", 1))
	if err := db.Put(ctx, cache.Entry{Fingerprint: fp, Volume: 1, Payload: "{not json", Success: true}); err != nil {
		t.Fatal(err)
	}

	provider := &scripted{replies: []reply{{text: onePiece}}}
	o := New(db, provider, "m", WithSleep(noSleep))
	if _, ok := o.Lookup(ctx, "One Piece", 1); !ok {
		t.Fatal("expected fresh lookup to succeed")
	}
	if provider.callCount() != 1 {
		t.Errorf("provider called %d times, want 1", provider.callCount())
	}
}

func TestLookupCanceled(t *testing.T) {
	db := openCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	provider := &scripted{replies: []reply{{err: context.Canceled}}}
	cancel()

	o := New(db, provider, "m", WithSleep(noSleep))
	if _, ok := o.Lookup(ctx, "One Piece", 1); ok {
		t.Fatal("expected canceled lookup to fail")
	}

	_, hit, err := db.Get(context.Background(), Fingerprint(BuildPrompt("One Piece", 1)), 1)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("a canceled lookup should not be cached as a failure")
	}
}

func TestFingerprintFollowsPrompt(t *testing.T) {
	a := Fingerprint(BuildPrompt("One Piece", 1))
	if a != Fingerprint(BuildPrompt("One Piece", 1)) {
		t.Error("fingerprint is not deterministic")
	}
	if a == Fingerprint(BuildPrompt("One Piece", 2)) {
		t.Error("different volumes share a fingerprint")
	}
	if a == Fingerprint(BuildPrompt("Naruto", 1)) {
		t.Error("different series share a fingerprint")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64", len(a))
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		reply    reply
		expected []string
	}{
		{
			name:     "original already suggested",
			input:    "Naruto",
			reply:    reply{text: `["Naruto", "Boruto: Naruto Next Generations"]`},
			expected: []string{"Naruto", "Boruto: Naruto Next Generations"},
		},
		{
			name:     "misspelling is kept first",
			input:    "Narutoo",
			reply:    reply{text: "Here you go:\n```json\n[\"Naruto\"]\n```"},
			expected: []string{"Narutoo", "Naruto"},
		},
		{
			name:     "contained case-insensitively",
			input:    "tokyo ghoul",
			reply:    reply{text: `["Tokyo Ghoul", "Tokyo Ghoul:re"]`},
			expected: []string{"Tokyo Ghoul", "Tokyo Ghoul:re"},
		},
		{
			name:     "provider error",
			input:    "Bleach",
			reply:    reply{err: errors.New("boom")},
			expected: []string{"Bleach"},
		},
		{
			name:     "not a list",
			input:    "Bleach",
			reply:    reply{text: "Bleach is a manga by Tite Kubo."},
			expected: []string{"Bleach"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(openCache(t), &scripted{replies: []reply{tt.reply}}, "m")
			got := o.Suggest(context.Background(), tt.input)
			if strings.Join(got, "|") != strings.Join(tt.expected, "|") {
				t.Errorf("Suggest(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
