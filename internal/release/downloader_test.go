package release

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestNewDownloader(t *testing.T) {
	downloader := NewDownloader()

	if downloader.client == nil {
		t.Error("HTTP client should not be nil")
	}
	if downloader.maxRetries != 3 {
		t.Errorf("maxRetries = %d, want 3", downloader.maxRetries)
	}
}

func TestDownloaderDownload_Success(t *testing.T) {
	testContent := []byte("test appimage content")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(testContent)
	}))
	defer server.Close()

	dstPath := filepath.Join(t.TempDir(), "nested", "tmux.appimage")

	var lastDownloaded int64
	downloader := NewDownloader()
	downloader.SetProgressHook(func(downloaded, total int64) {
		lastDownloaded = downloaded
	})

	if err := downloader.Download(context.Background(), server.URL, dstPath); err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	content, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("Failed to read downloaded file: %v", err)
	}
	if string(content) != string(testContent) {
		t.Errorf("Downloaded content = %q, want %q", content, testContent)
	}
	if lastDownloaded != int64(len(testContent)) {
		t.Errorf("progress = %d, want %d", lastDownloaded, len(testContent))
	}
	if _, err := os.Stat(dstPath + ".part"); !os.IsNotExist(err) {
		t.Error("partial file should not remain")
	}
}

func TestDownloaderDownload_HTTPError(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dstPath := filepath.Join(t.TempDir(), "tmux.appimage")

	err := NewDownloader().Download(context.Background(), server.URL, dstPath)
	if err == nil {
		t.Fatal("Download() expected error for 404")
	}
	if requests != 3 {
		t.Errorf("requests = %d, want 3 attempts", requests)
	}
	if _, err := os.Stat(dstPath); !os.IsNotExist(err) {
		t.Error("File should not exist after failed download")
	}
}

func TestDownloaderDownload_RetrySucceeds(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	dstPath := filepath.Join(t.TempDir(), "tmux.appimage")
	if err := NewDownloader().Download(context.Background(), server.URL, dstPath); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2", requests)
	}
}

func TestDownloaderDownload_ReplacesExisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("new"))
	}))
	defer server.Close()

	dstPath := filepath.Join(t.TempDir(), "tmux.appimage")
	if err := os.WriteFile(dstPath, []byte("old"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := NewDownloader().Download(context.Background(), server.URL, dstPath); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	content, _ := os.ReadFile(dstPath)
	if string(content) != "new" {
		t.Errorf("content = %q, want new", content)
	}
}

func TestFileSHA256(t *testing.T) {
	content := []byte("test content for checksum")
	path := filepath.Join(t.TempDir(), "test-file")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FileSHA256(path)
	if err != nil {
		t.Fatalf("FileSHA256() error = %v", err)
	}

	sum := sha256.Sum256(content)
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("FileSHA256() = %s, want %s", got, want)
	}

	if _, err := FileSHA256(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("FileSHA256() expected error for missing file")
	}
}
