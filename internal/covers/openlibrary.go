package covers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const openLibraryCovers = "https://covers.openlibrary.org"

// OpenLibrary finds covers through the Open Library Covers API
type OpenLibrary struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewOpenLibrary returns an Open Library finder
func NewOpenLibrary() *OpenLibrary {
	return &OpenLibrary{
		BaseURL: openLibraryCovers,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CoverURL checks that a large cover exists for isbn and returns its URL
func (o *OpenLibrary) CoverURL(ctx context.Context, isbn string) (string, error) {
	isbn = CleanISBN(isbn)
	if err := validISBN(isbn); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/b/isbn/%s-L.jpg", strings.TrimRight(o.BaseURL, "/"), isbn)
	// default=false turns the placeholder image into a 404
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url+"?default=false", nil)
	if err != nil {
		return "", err
	}

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch cover: %w", err)
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return url, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("cover API returned status %d", resp.StatusCode)
	}
}

// Download saves the image at url into dir as <isbn>.jpg and returns the path
func Download(ctx context.Context, client *http.Client, url, dir, isbn string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}
	// placeholders are tiny
	if len(imageData) < 1000 {
		return "", fmt.Errorf("image too small (likely placeholder), size: %d bytes", len(imageData))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}
	path := filepath.Join(dir, CleanISBN(isbn)+".jpg")
	if err := os.WriteFile(path, imageData, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return path, nil
}
