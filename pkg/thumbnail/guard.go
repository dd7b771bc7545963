// Package thumbnail downloads stored pattern preview images.
//
// Thumbnail references are URLs read from the pattern table and must not be
// trusted: every URL, including each redirect hop, is checked by a Guard
// against an allow-list of storage hosts and the expected object path for the
// pattern before any request is made.
package thumbnail

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"
)

// ErrRejected is returned when a thumbnail URL fails the guard.
var ErrRejected = errors.New("thumbnail url rejected")

// DefaultPathPrefix is the public object path of the thumbnails bucket.
const DefaultPathPrefix = "/storage/v1/object/public/thumbnails/"

var allowedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// GuardConfig configures a Guard.
type GuardConfig struct {
	// AllowedHosts lists the storage hosts thumbnails may be served from, as
	// "host" or "host:port". Matching is case-insensitive.
	AllowedHosts []string

	// PathPrefix is the required path prefix of every thumbnail object.
	// Defaults to DefaultPathPrefix.
	PathPrefix string

	// AllowInsecure permits http:// URLs. Only meant for local development.
	AllowInsecure bool
}

// Guard validates thumbnail URLs before they are fetched.
type Guard struct {
	hosts         []string
	pathPrefix    string
	allowInsecure bool
}

// NewGuard creates a Guard. At least one allowed host is required.
func NewGuard(c GuardConfig) (*Guard, error) {
	if len(c.AllowedHosts) == 0 {
		return nil, errors.New("at least one allowed thumbnail host is required")
	}

	hosts := make([]string, 0, len(c.AllowedHosts))
	for _, h := range c.AllowedHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		return nil, errors.New("at least one allowed thumbnail host is required")
	}

	prefix := c.PathPrefix
	if prefix == "" {
		prefix = DefaultPathPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Guard{
		hosts:         hosts,
		pathPrefix:    prefix,
		allowInsecure: c.AllowInsecure,
	}, nil
}

// Check parses rawURL and validates it as the thumbnail of patternID.
func (g *Guard) Check(rawURL string, patternID int64) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if err := g.CheckURL(u, patternID); err != nil {
		return nil, err
	}
	return u, nil
}

// CheckURL validates an already parsed URL as the thumbnail of patternID.
func (g *Guard) CheckURL(u *url.URL, patternID int64) error {
	switch {
	case u.Scheme == "https":
	case u.Scheme == "http" && g.allowInsecure:
	default:
		return fmt.Errorf("%w: scheme %q not allowed", ErrRejected, u.Scheme)
	}

	if u.User != nil {
		return fmt.Errorf("%w: credentials in url", ErrRejected)
	}

	host := strings.ToLower(u.Host)
	if host == "" || !slices.Contains(g.hosts, host) {
		return fmt.Errorf("%w: host %q not allowed", ErrRejected, u.Host)
	}

	p := u.EscapedPath()
	if p != u.Path || path.Clean(p) != p {
		return fmt.Errorf("%w: path %q is not canonical", ErrRejected, p)
	}
	if !strings.HasPrefix(p, g.pathPrefix) {
		return fmt.Errorf("%w: path %q outside thumbnail storage", ErrRejected, p)
	}

	name := strings.TrimPrefix(p, g.pathPrefix)
	ext := strings.ToLower(path.Ext(name))
	if !slices.Contains(allowedExtensions, ext) {
		return fmt.Errorf("%w: extension %q not allowed", ErrRejected, ext)
	}
	if strings.TrimSuffix(name, path.Ext(name)) != strconv.FormatInt(patternID, 10) {
		return fmt.Errorf("%w: object %q does not belong to pattern %d", ErrRejected, name, patternID)
	}

	return nil
}
