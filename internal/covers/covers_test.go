package covers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/api/books/v1"
	"google.golang.org/api/option"
)

func TestGoogleBooksCoverURL(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "largest link wins",
			body:     `{"totalItems":1,"items":[{"volumeInfo":{"imageLinks":{"thumbnail":"http://books.google.com/t","medium":"http://books.google.com/m"}}}]}`,
			expected: "https://books.google.com/m",
		},
		{
			name:     "only small thumbnail",
			body:     `{"totalItems":1,"items":[{"volumeInfo":{"imageLinks":{"smallThumbnail":"https://books.google.com/s"}}}]}`,
			expected: "https://books.google.com/s",
		},
		{
			name:     "no images",
			body:     `{"totalItems":1,"items":[{"volumeInfo":{"title":"One Piece"}}]}`,
			expected: "",
		},
		{
			name:     "no items",
			body:     `{"totalItems":0}`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var query string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasSuffix(r.URL.Path, "/volumes") {
					t.Errorf("unexpected path %q", r.URL.Path)
				}
				query = r.URL.Query().Get("q")
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			g, err := NewGoogleBooks(context.Background(), "", option.WithEndpoint(server.URL+"/"))
			if err != nil {
				t.Fatalf("NewGoogleBooks() error = %v", err)
			}

			got, err := g.CoverURL(context.Background(), "978-1-56931-901-7")
			if err != nil {
				t.Fatalf("CoverURL() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("CoverURL() = %q, want %q", got, tt.expected)
			}
			if query != "isbn:9781569319017" {
				t.Errorf("query = %q", query)
			}
		})
	}
}

func TestGoogleBooksRejectsBadISBN(t *testing.T) {
	g, err := NewGoogleBooks(context.Background(), "", option.WithEndpoint("http://127.0.0.1:1/"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.CoverURL(context.Background(), "not-an-isbn"); err == nil {
		t.Error("expected error for malformed ISBN")
	}
}

func TestLargestImage(t *testing.T) {
	if got := largestImage(nil); got != "" {
		t.Errorf("largestImage(nil) = %q", got)
	}
	links := &books.VolumeVolumeInfoImageLinks{ExtraLarge: "https://x/xl", Large: "https://x/l"}
	if got := largestImage(links); got != "https://x/xl" {
		t.Errorf("largestImage() = %q", got)
	}
}

func TestOpenLibraryCoverURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("default") != "false" {
			t.Errorf("expected default=false, got %q", r.URL.RawQuery)
		}
		if strings.Contains(r.URL.Path, "9781569319017") {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	o := NewOpenLibrary()
	o.BaseURL = server.URL

	got, err := o.CoverURL(context.Background(), "9781569319017")
	if err != nil {
		t.Fatalf("CoverURL() error = %v", err)
	}
	if got != server.URL+"/b/isbn/9781569319017-L.jpg" {
		t.Errorf("CoverURL() = %q", got)
	}

	got, err = o.CoverURL(context.Background(), "9780000000002")
	if err != nil || got != "" {
		t.Errorf("expected no cover, got %q err=%v", got, err)
	}
}

type stubFinder struct {
	url string
	err error
}

func (s stubFinder) CoverURL(ctx context.Context, isbn string) (string, error) {
	return s.url, s.err
}

func TestChain(t *testing.T) {
	boom := errors.New("boom")

	got, err := Chain{stubFinder{err: boom}, stubFinder{}, stubFinder{url: "u"}}.CoverURL(context.Background(), "x")
	if err != nil || got != "u" {
		t.Errorf("Chain = %q, %v", got, err)
	}

	got, err = Chain{stubFinder{err: boom}, stubFinder{}}.CoverURL(context.Background(), "x")
	if !errors.Is(err, boom) || got != "" {
		t.Errorf("Chain = %q, %v; want boom", got, err)
	}

	got, err = Chain{stubFinder{}}.CoverURL(context.Background(), "x")
	if err != nil || got != "" {
		t.Errorf("Chain = %q, %v; want empty", got, err)
	}
}

func TestDownload(t *testing.T) {
	image := make([]byte, 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/big.jpg":
			_, _ = w.Write(image)
		case "/tiny.jpg":
			_, _ = w.Write([]byte("gif"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "images")
	path, err := Download(context.Background(), server.Client(), server.URL+"/big.jpg", dir, "978-1-56931-901-7")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if filepath.Base(path) != "9781569319017.jpg" {
		t.Errorf("path = %q", path)
	}
	if info, err := os.Stat(path); err != nil || info.Size() != int64(len(image)) {
		t.Errorf("stat = %v, %v", info, err)
	}

	for _, p := range []string{"/tiny.jpg", "/missing.jpg"} {
		if _, err := Download(context.Background(), server.Client(), server.URL+p, dir, "1"); err == nil {
			t.Errorf("expected error for %s", p)
		}
	}
}
