package paste

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Errors returned by title enrichment.
var (
	ErrNoTitle       = errors.New("page has no title")
	ErrBadStatusCode = errors.New("unexpected response status")
)

// maxTitleBody bounds how much of a remote page is scanned for a title.
const maxTitleBody = 512 * 1024

// TitleFetcher retrieves the <title> of a remote page for URL enrichment.
type TitleFetcher struct {
	client  *http.Client
	maxBody int64
	logger  zerolog.Logger
}

// FetcherOption configures a TitleFetcher.
type FetcherOption func(*TitleFetcher)

// WithHTTPClient sets the HTTP client used for fetches.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *TitleFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithFetcherLogger sets the fetcher logger.
func WithFetcherLogger(logger zerolog.Logger) FetcherOption {
	return func(f *TitleFetcher) {
		f.logger = logger
	}
}

// NewTitleFetcher creates a fetcher with a conservatively short client
// timeout; the classifier's per-producer context bounds it further.
func NewTitleFetcher(opts ...FetcherOption) *TitleFetcher {
	f := &TitleFetcher{
		client:  &http.Client{Timeout: 5 * time.Second},
		maxBody: maxTitleBody,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Title fetches the page at url and extracts its <title> text.
func (f *TitleFetcher) Title(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d: %w", url, resp.StatusCode, ErrBadStatusCode)
	}

	title, err := extractTitle(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", url, err)
	}

	f.logger.Debug().Str("url", url).Str("title", title).Msg("title enrichment succeeded")
	return title, nil
}

// extractTitle streams tokens until the first <title> element's text.
func extractTitle(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	inTitle := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", ErrNoTitle
		case html.StartTagToken:
			name, _ := z.TagName()
			inTitle = string(name) == "title"
		case html.TextToken:
			if inTitle {
				title := strings.TrimSpace(string(z.Text()))
				if title != "" {
					return title, nil
				}
			}
		case html.EndTagToken:
			if inTitle {
				// Empty <title></title>.
				return "", ErrNoTitle
			}
		}
	}
}
