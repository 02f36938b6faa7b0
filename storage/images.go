package storage

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"bds-scraper/utils"
)

// publicImagePrefix is the path prefix stored in the database; the web layer
// serves the images directory under it.
const publicImagePrefix = "/images/events"

const slugMaxLen = 50

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// ImageStore downloads event posters into a local directory.
type ImageStore struct {
	dir    string
	client *http.Client
	logger *utils.Logger
	now    func() time.Time
}

// NewImageStore creates the images directory if needed and returns a store
// whose downloads are bounded by timeout.
func NewImageStore(dir string, timeout time.Duration, logger *utils.Logger) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("images: create dir %q: %w", dir, err)
	}
	return &ImageStore{
		dir:    dir,
		client: &http.Client{Timeout: timeout},
		logger: logger,
		now:    time.Now,
	}, nil
}

// Download fetches imageURL and writes it under the images directory with a
// collision-resistant name derived from the event name. It returns the
// storage-relative path, or "" on any failure; a missing poster is never
// fatal to an import.
func (s *ImageStore) Download(imageURL, eventName string) string {
	filename := s.filename(imageURL, eventName)

	resp, err := s.client.Get(imageURL)
	if err != nil {
		s.logger.Warn("[images] Download failed for %q: %v", eventName, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("[images] Download failed for %q: status %d", eventName, resp.StatusCode)
		return ""
	}

	filePath := filepath.Join(s.dir, filename)
	f, err := os.Create(filePath)
	if err != nil {
		s.logger.Warn("[images] Could not create %s: %v", filePath, err)
		return ""
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(filePath)
		s.logger.Warn("[images] Write failed for %s: %v", filePath, err)
		return ""
	}
	if err := f.Close(); err != nil {
		s.logger.Warn("[images] Close failed for %s: %v", filePath, err)
		return ""
	}

	s.logger.Debug("[images] Stored %s", filename)
	return path.Join(publicImagePrefix, filename)
}

// filename builds "<slug>-<timestamp><ext>". The timestamp keeps repeated
// imports of the same event from clobbering each other.
func (s *ImageStore) filename(imageURL, eventName string) string {
	ext := ".jpg"
	if u, err := url.Parse(imageURL); err == nil {
		if e := path.Ext(u.Path); e != "" {
			ext = e
		}
	}
	return fmt.Sprintf("%s-%d%s", slugify(eventName), s.now().UnixMilli(), ext)
}

// slugify lowercases the name, strips diacritics and collapses anything
// non-alphanumeric into single hyphens, capped at slugMaxLen.
func slugify(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if ascii, _, err := transform.String(t, lower); err == nil {
		lower = ascii
	}

	slug := nonSlugChars.ReplaceAllString(lower, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > slugMaxLen {
		slug = strings.Trim(slug[:slugMaxLen], "-")
	}
	if slug == "" {
		slug = "evenement"
	}
	return slug
}
