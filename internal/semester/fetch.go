package semester

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "regcal/internal/log"
)

// Source identifies a semester or theme document.
type Source struct {
	// ID is an internal identifier (e.g. "spring26", "theme").
	ID string
	// URL is either an http(s) endpoint or a local file path.
	URL string
}

// cacheEntry holds HTTP cache metadata for a single document URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher retrieves JSON documents with HTTP caching (ETag /
// Last-Modified) and a disk-backed body cache, falling back to the
// cached body when the network is unavailable. Local paths bypass the
// cache entirely.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a document Fetcher. cacheDir is the base directory
// for per-URL cache subdirectories, e.g. "./cache/doc-cache".
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		// Relative fallback so development runs without special permissions.
		cacheDir = "./cache/doc-cache"
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
	}
}

// Fetch returns the raw document body for src.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]byte, error) {
	if src.URL == "" {
		return nil, errors.New("source URL is empty")
	}

	if !strings.Contains(src.URL, "://") {
		// Local file source.
		return os.ReadFile(src.URL)
	}

	cachePath, err := f.cachePathForURL(src.URL)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return nil, err
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := f.loadCacheBody(cachePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Info("document fetch start", "id", src.ID, "url", src.URL)

	resp, err := f.client.Do(req)
	if err != nil {
		// Network error; if we have a cached body, fall back to it.
		if len(cachedBody) > 0 {
			appLog.Error("document fetch network error, using cached body", err, "id", src.ID)
			return cachedBody, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}

		newMeta := cacheEntry{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := f.saveCache(cachePath, newMeta, body); err != nil {
			// Log but still return the freshly fetched body.
			appLog.Error("document cache save failed", err, "id", src.ID)
		}

		appLog.Info("document fetch success", "id", src.ID, "status", resp.StatusCode)
		return body, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("document not modified; using cache", "id", src.ID)
		return cachedBody, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("document fetch non-OK, using cached body", errors.New(resp.Status), "id", src.ID, "status", resp.StatusCode)
			return cachedBody, nil
		}
		return nil, errors.New(resp.Status)
	}
}

func (f *Fetcher) cachePathForURL(url string) (string, error) {
	if url == "" {
		return "", errors.New("empty url")
	}
	sum := sha256.Sum256([]byte(url))
	dir := hex.EncodeToString(sum[:8])
	return filepath.Join(f.cacheDir, dir), nil
}

func (f *Fetcher) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *Fetcher) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body.json"))
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.json"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}
