package release

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressHook is called during download with bytes downloaded and total bytes.
type ProgressHook func(downloaded, total int64)

// Downloader downloads release assets.
type Downloader struct {
	client       *http.Client
	maxRetries   int
	progressHook ProgressHook
}

// NewDownloader creates a new Downloader.
func NewDownloader() *Downloader {
	return &Downloader{
		client:     &http.Client{},
		maxRetries: 3,
	}
}

// SetProgressHook sets the progress callback.
func (d *Downloader) SetProgressHook(hook ProgressHook) {
	d.progressHook = hook
}

// Download fetches url into dst. The body is streamed to dst.part and renamed
// into place, so a failed download never leaves a partial dst behind.
func (d *Downloader) Download(ctx context.Context, url, dst string) error {
	var lastErr error
	for attempt := 0; attempt < d.maxRetries; attempt++ {
		lastErr = d.downloadAttempt(ctx, url, dst)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return lastErr
}

func (d *Downloader) downloadAttempt(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "muxup")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	part := dst + ".part"
	f, err := os.OpenFile(part, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	var body io.Reader = resp.Body
	if d.progressHook != nil {
		body = &progressReader{r: resp.Body, total: resp.ContentLength, hook: d.progressHook}
		d.progressHook(0, resp.ContentLength)
	}

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(part)
		return fmt.Errorf("download interrupted: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	return nil
}

type progressReader struct {
	r          io.Reader
	downloaded int64
	total      int64
	hook       ProgressHook
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.downloaded += int64(n)
		p.hook(p.downloaded, p.total)
	}
	return n, err
}

// FileSHA256 returns the hex SHA-256 digest of a file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
