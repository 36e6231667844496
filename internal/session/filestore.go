package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// record is the on-disk shape of a session. The timestamp travels as an
// ISO-8601 string; missing fields decode to zero values rather than erroring.
type record struct {
	LoggedIn       bool   `json:"logged_in"`
	Username       string `json:"username"`
	Brand          string `json:"brand"`
	Role           string `json:"role"`
	LoginTimestamp string `json:"login_timestamp"`
	ClientIP       string `json:"client_ip"`
}

// FileStore persists a single session record to a well-known file. The file
// is shared across restarts and, when several instances run against the same
// working directory, across processes; there is no locking, so the last
// writer wins.
type FileStore struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewFileStore constructs a FileStore at path. A non-positive ttl falls back
// to DefaultTTL.
func NewFileStore(path string, ttl time.Duration) *FileStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FileStore{path: path, ttl: ttl, now: time.Now}
}

// WithNow overrides the store clock for testing.
func (fs *FileStore) WithNow(fn func() time.Time) {
	if fn != nil {
		fs.now = fn
	}
}

// Path returns the durable record location.
func (fs *FileStore) Path() string {
	return fs.path
}

// TTL exposes the configured session lifetime.
func (fs *FileStore) TTL() time.Duration {
	return fs.ttl
}

// Save serialises the session to the durable file, overwriting any prior
// content and creating the parent directory when absent.
func (fs *FileStore) Save(sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session: nil session")
	}
	if dir := filepath.Dir(fs.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("session: create dir: %w", err)
		}
	}
	rec := record{
		LoggedIn:       sess.LoggedIn,
		Username:       sess.Username,
		Brand:          sess.Brand,
		Role:           sess.Role,
		LoginTimestamp: sess.LoginAt.Format(time.RFC3339Nano),
		ClientIP:       sess.ClientIP,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}

	// The record is as sensitive as a session cookie, so keep it
	// owner-readable only.
	f, err := os.OpenFile(fs.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("session: open: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("session: close: %w", err)
	}
	return nil
}

// Load reads and parses the durable record. A missing file yields (nil, nil).
// A record older than the TTL is deleted on the spot and also yields
// (nil, nil); there is no background sweep, this lazy cleanup is the only
// one.
func (fs *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: read: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("session: parse: %w", err)
	}

	var loginAt time.Time
	if rec.LoginTimestamp != "" {
		loginAt, err = time.Parse(time.RFC3339Nano, rec.LoginTimestamp)
		if err != nil {
			if loginAt, err = time.Parse(time.RFC3339, rec.LoginTimestamp); err != nil {
				return nil, fmt.Errorf("session: parse timestamp: %w", err)
			}
		}
	}

	sess := &Session{
		LoggedIn: rec.LoggedIn,
		Username: rec.Username,
		Brand:    rec.Brand,
		Role:     rec.Role,
		LoginAt:  loginAt,
		ClientIP: rec.ClientIP,
	}
	if !sess.Valid(fs.now(), fs.ttl) {
		if err := fs.Clear(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return sess, nil
}

// Clear deletes the durable record. A missing file is not an error, so
// calling Clear twice in a row is the same as calling it once.
func (fs *FileStore) Clear() error {
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: remove: %w", err)
	}
	return nil
}
