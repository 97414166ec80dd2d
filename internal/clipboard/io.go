package clipboard

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mindmorass/infinity-clipboard/internal/host"
	"github.com/mindmorass/infinity-clipboard/internal/logger"
)

const (
	// MaxFetchSize bounds images pulled in by CopyImage and DownloadImage
	MaxFetchSize = 50 * 1024 * 1024
)

var (
	ErrInvalidDataURI = errors.New("invalid data URI")
	ErrFetchTooLarge  = errors.New("image exceeds maximum fetch size")
	ErrNoWriter       = errors.New("no clipboard writer configured")
)

// TextWriter puts text on a clipboard
type TextWriter interface {
	WriteText(text string) error
}

// ImageWriter puts binary image data tagged with its MIME type on a clipboard
type ImageWriter interface {
	WriteImage(mimeType string, data []byte) error
}

// Copier copies entries out to the clipboard or to disk
type Copier struct {
	Text       TextWriter
	Fallback   TextWriter
	Image      ImageWriter
	Fetcher    *Fetcher
	Downloader host.Downloader
}

// CopyText writes text through the primary writer and retries once through
// the fallback writer if that fails.
func (c *Copier) CopyText(text string) error {
	if c.Text == nil && c.Fallback == nil {
		return ErrNoWriter
	}

	var primaryErr error
	if c.Text != nil {
		if primaryErr = c.Text.WriteText(text); primaryErr == nil {
			return nil
		}
		logger.Debug().Err(primaryErr).Msg("primary clipboard write failed, using fallback")
	}

	if c.Fallback == nil {
		return primaryErr
	}
	if err := c.Fallback.WriteText(text); err != nil {
		return fmt.Errorf("fallback copy failed: %w", err)
	}
	return nil
}

// CopyImage fetches imageSrc and writes it to the clipboard. Failures are
// returned as-is; there is no fallback.
func (c *Copier) CopyImage(ctx context.Context, imageSrc string) error {
	if c.Image == nil {
		return ErrNoWriter
	}

	data, mimeType, err := c.fetcher().Fetch(ctx, imageSrc)
	if err != nil {
		return err
	}
	return c.Image.WriteImage(mimeType, data)
}

// DownloadImage saves imageSrc as clipboard-image-<epoch-ms>.png and returns
// the path written.
func (c *Copier) DownloadImage(ctx context.Context, imageSrc string) (string, error) {
	if c.Downloader == nil {
		return "", errors.New("no downloader configured")
	}

	data, _, err := c.fetcher().Fetch(ctx, imageSrc)
	if err != nil {
		return "", err
	}
	return c.Downloader.Save(ctx, ImageFileName(now()), data)
}

func (c *Copier) fetcher() *Fetcher {
	if c.Fetcher == nil {
		return NewFetcher()
	}
	return c.Fetcher
}

// ImageFileName returns the download name for an image saved at t
func ImageFileName(t time.Time) string {
	return fmt.Sprintf("clipboard-image-%d.png", t.UnixMilli())
}

// Fetcher resolves an image source (data URI, http(s) URL or local path)
// into bytes and a MIME type.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a fetcher with a bounded HTTP client
func NewFetcher() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewFetcherWithClient creates a fetcher using the given HTTP client
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{httpClient: client}
}

// Fetch returns the bytes behind src and their MIME type
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return DecodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return f.fetchHTTP(ctx, src)
	case strings.HasPrefix(src, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return nil, "", fmt.Errorf("parse file URL: %w", err)
		}
		return readLocal(u.Path)
	default:
		return readLocal(src)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, src string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > MaxFetchSize {
		return nil, "", ErrFetchTooLarge
	}

	mimeType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	} else {
		mimeType = detectMimeType(data)
	}
	return data, mimeType, nil
}

func readLocal(path string) ([]byte, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if info.Size() > MaxFetchSize {
		return nil, "", ErrFetchTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, detectMimeType(data), nil
}

func detectMimeType(data []byte) string {
	mt, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}

// DecodeDataURI splits a data URI into its payload and MIME type
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta = m
		isBase64 = true
	}

	mimeType := meta
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
		return data, mimeType, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return []byte(decoded), mimeType, nil
}
