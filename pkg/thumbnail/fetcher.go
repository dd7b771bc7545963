package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"time"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/utils"
)

// ErrDownload is returned when a guarded thumbnail could not be downloaded.
var ErrDownload = errors.New("thumbnail download failed")

const (
	// DefaultMaxBytes caps the size of a downloaded thumbnail.
	DefaultMaxBytes int64 = 10 << 20

	defaultTimeout = 30 * time.Second
	maxRedirects   = 3
)

var allowedMediaTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Image is a downloaded thumbnail.
type Image struct {
	PatternID int64
	MediaType string
	Data      []byte
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// Client is the HTTP client used for downloads. A client with a 30s timeout
	// is used when nil. Its CheckRedirect is replaced so redirects are guarded.
	Client *http.Client

	// MaxBytes caps the response body size. Defaults to DefaultMaxBytes.
	MaxBytes int64
}

// Fetcher downloads thumbnails after validating them with a Guard.
type Fetcher struct {
	guard    *Guard
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a Fetcher that validates every URL with guard.
func NewFetcher(guard *Guard, c FetcherConfig) *Fetcher {
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	maxBytes := c.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Fetcher{
		guard:    guard,
		client:   client,
		maxBytes: maxBytes,
	}
}

// Fetch validates rawURL as the thumbnail of patternID and downloads it.
// Guard failures wrap ErrRejected; transport, status, type and size failures
// wrap ErrDownload.
func (f *Fetcher) Fetch(ctx context.Context, patternID int64, rawURL string) (*Image, error) {
	u, err := f.guard.Check(rawURL, patternID)
	if err != nil {
		return nil, err
	}

	client := *f.client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: too many redirects", ErrRejected)
		}
		return f.guard.CheckURL(req.URL, patternID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrDownload, err)
	}
	req.Header.Set("Accept", "image/*")
	req.Header.Set("User-Agent", utils.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, ErrRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: pattern %d: %v", ErrDownload, patternID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: pattern %d: status %d", ErrDownload, patternID, resp.StatusCode)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !slices.Contains(allowedMediaTypes, mediaType) {
		return nil, fmt.Errorf("%w: pattern %d: unsupported content type %q", ErrDownload, patternID, resp.Header.Get("Content-Type"))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %d: reading body: %v", ErrDownload, patternID, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: pattern %d: image exceeds %d bytes", ErrDownload, patternID, f.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: pattern %d: empty image", ErrDownload, patternID)
	}

	return &Image{
		PatternID: patternID,
		MediaType: mediaType,
		Data:      data,
	}, nil
}
