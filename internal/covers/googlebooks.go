package covers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/books/v1"
	"google.golang.org/api/option"
)

// GoogleBooks finds covers through the Google Books volumes API
type GoogleBooks struct {
	service *books.Service
	limiter *rate.Limiter
}

// NewGoogleBooks returns a Google Books finder. An empty apiKey uses the
// keyless quota.
func NewGoogleBooks(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GoogleBooks, error) {
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}

	service, err := books.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create books service: %w", err)
	}

	return &GoogleBooks{
		service: service,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}, nil
}

// CoverURL returns the largest image link of the first volume matching isbn
func (g *GoogleBooks) CoverURL(ctx context.Context, isbn string) (string, error) {
	isbn = CleanISBN(isbn)
	if err := validISBN(isbn); err != nil {
		return "", err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := g.service.Volumes.List("isbn:" + isbn).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("google books lookup for %s: %w", isbn, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].VolumeInfo == nil {
		return "", nil
	}

	return largestImage(resp.Items[0].VolumeInfo.ImageLinks), nil
}

func largestImage(links *books.VolumeVolumeInfoImageLinks) string {
	if links == nil {
		return ""
	}
	for _, url := range []string{
		links.ExtraLarge,
		links.Large,
		links.Medium,
		links.Small,
		links.Thumbnail,
		links.SmallThumbnail,
	} {
		if url != "" {
			return strings.Replace(url, "http://", "https://", 1)
		}
	}
	return ""
}
