// Package audit writes the security event trail: one JSON object per line,
// one log file per server port so side-by-side instances do not interleave.
package audit

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Security event types emitted by the dashboard.
const (
	EventLoginSuccess     = "LOGIN_SUCCESS"
	EventLoginFailed      = "LOGIN_FAILED"
	EventLogout           = "LOGOUT"
	EventDataAccess       = "DATA_ACCESS"
	EventPermissionChange = "PERMISSION_CHANGE"
	EventForceLogoutAll   = "FORCE_LOGOUT_ALL"
	EventLogCleanup       = "LOG_CLEANUP"
)

// Event is one audit trail entry.
type Event struct {
	ID        string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	EventType string         `json:"event_type"`
	User      string         `json:"user"`
	IPAddress string         `json:"ip_address"`
	Details   map[string]any `json:"details"`
	SessionID string         `json:"session_id"`
}

// Recorder appends events to a JSONL file under dir. Recording failures are
// logged and returned but callers treat them as non-fatal; a broken audit
// log must never break a page render.
type Recorder struct {
	mu     sync.Mutex
	dir    string
	port   string
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates the log directory and returns a Recorder. port scopes
// the file name for multi-instance deployments and may be empty.
func NewRecorder(dir, port string, logger *slog.Logger) (*Recorder, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audit: create dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{dir: dir, port: port, logger: logger, now: time.Now}, nil
}

// WithNow overrides the recorder clock for testing.
func (r *Recorder) WithNow(fn func() time.Time) {
	if fn != nil {
		r.now = fn
	}
}

// FilePath returns the active log file location.
func (r *Recorder) FilePath() string {
	if r.port == "" {
		return filepath.Join(r.dir, "security_events.log")
	}
	return filepath.Join(r.dir, fmt.Sprintf("security_events_port_%s.log", r.port))
}

// Record appends one event, filling timestamp, event ID and session ID.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if event.EventType == "" {
		return fmt.Errorf("audit: event type required")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now()
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.IPAddress == "" {
		event.IPAddress = "unknown"
	}
	if event.SessionID == "" {
		event.SessionID = sessionID(event.User, event.IPAddress, event.Timestamp)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: marshal: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.FilePath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.logger.Warn("audit append failed", slog.Any("error", err))
		return fmt.Errorf("audit: open: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		r.logger.Warn("audit write failed", slog.Any("error", err))
		return fmt.Errorf("audit: write: %w", err)
	}
	return nil
}

// LoginAttempt records a LOGIN_SUCCESS or LOGIN_FAILED event.
func (r *Recorder) LoginAttempt(ctx context.Context, username string, success bool, ip string) {
	eventType := EventLoginFailed
	if success {
		eventType = EventLoginSuccess
	}
	_ = r.Record(ctx, Event{
		EventType: eventType,
		User:      username,
		IPAddress: ip,
		Details: map[string]any{
			"username":     username,
			"success":      success,
			"login_method": "dashboard_form",
		},
	})
}

// Logout records a LOGOUT event.
func (r *Recorder) Logout(ctx context.Context, username, ip string) {
	_ = r.Record(ctx, Event{
		EventType: EventLogout,
		User:      username,
		IPAddress: ip,
		Details:   map[string]any{"username": username},
	})
}

// DataAccess records a report query for compliance review.
func (r *Recorder) DataAccess(ctx context.Context, user, dataType string, recordCount int, ip string, queryInfo map[string]any) {
	if queryInfo == nil {
		queryInfo = map[string]any{}
	}
	_ = r.Record(ctx, Event{
		EventType: EventDataAccess,
		User:      user,
		IPAddress: ip,
		Details: map[string]any{
			"data_type":    dataType,
			"record_count": recordCount,
			"query_info":   queryInfo,
		},
	})
}

// PermissionChange records an admin role change.
func (r *Recorder) PermissionChange(ctx context.Context, adminUser, targetUser, oldRole, newRole, ip string) {
	_ = r.Record(ctx, Event{
		EventType: EventPermissionChange,
		User:      adminUser,
		IPAddress: ip,
		Details: map[string]any{
			"target_user":   targetUser,
			"old_role":      oldRole,
			"new_role":      newRole,
			"changed_by":    adminUser,
			"change_reason": "admin_action",
		},
	})
}

// SystemEvent records an operational event attributed to the given user.
func (r *Recorder) SystemEvent(ctx context.Context, eventType, user string, details map[string]any) {
	if user == "" {
		user = "system"
	}
	_ = r.Record(ctx, Event{
		EventType: eventType,
		User:      user,
		IPAddress: "localhost",
		Details:   details,
	})
}

// Recent returns up to n of the newest events, oldest first. Lines that do
// not parse are skipped.
func (r *Recorder) Recent(n int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.FilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("audit: open: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan: %w", err)
	}
	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}

// Summary aggregates the most recent events for the admin dashboard.
type Summary struct {
	TotalEvents  int
	RecentLogins int
	FailedLogins int
	DataAccesses int
	UniqueUsers  int
}

// Summarize builds a Summary over the last 100 events.
func (r *Recorder) Summarize() (Summary, error) {
	events, err := r.Recent(100)
	if err != nil {
		return Summary{}, err
	}
	users := make(map[string]struct{})
	var s Summary
	s.TotalEvents = len(events)
	for _, event := range events {
		switch event.EventType {
		case EventLoginSuccess:
			s.RecentLogins++
		case EventLoginFailed:
			s.RecentLogins++
			s.FailedLogins++
		case EventDataAccess:
			s.DataAccesses++
		}
		if event.User != "" {
			users[event.User] = struct{}{}
		}
	}
	s.UniqueUsers = len(users)
	return s, nil
}

// sessionID derives a short tracking identifier from user, address and day.
// It identifies a browsing session in the trail; it is not a secret.
func sessionID(user, ip string, at time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%s_%s", user, ip, at.Format("20060102"))))
	return hex.EncodeToString(sum[:])[:8]
}
