// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opdl/playlistd/internal/services"
)

// MockLister is a test double for [services.Lister]. Listings are keyed by
// playlist URL; unknown URLs return Err (or a default error when Err is nil).
type MockLister struct {
	mu       sync.Mutex
	Listings map[string]*services.RemoteListing
	Err      error
	calls    int
}

func (m *MockLister) ListEntries(ctx context.Context, playlistURL string) (*services.RemoteListing, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	listing, ok := m.Listings[playlistURL]
	if !ok {
		return nil, errors.New("no listing configured for " + playlistURL)
	}
	return listing, nil
}

// Calls returns how many times ListEntries has been invoked.
func (m *MockLister) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockFetcher is a test double for [services.Fetcher]. Each fetch records
// the remote ID and returns "<remoteID>.mp3" unless the ID appears in Fail.
type MockFetcher struct {
	mu      sync.Mutex
	Fail    map[string]error
	Fetched []string
}

func (m *MockFetcher) Fetch(ctx context.Context, remoteID string, opts services.FetchOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.Fail[remoteID]; ok {
		return "", err
	}
	m.Fetched = append(m.Fetched, remoteID)
	return remoteID + ".mp3", nil
}

// FetchedIDs returns the remote IDs fetched so far, in order.
func (m *MockFetcher) FetchedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Fetched...)
}

func MustWriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
