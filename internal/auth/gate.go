package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/creds"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/session"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/shared"
)

// CredentialStore is the slice of the credential store the gate needs.
type CredentialStore interface {
	Lookup(ctx context.Context, username string) (*creds.Credential, error)
}

// AuditRecorder receives security events at the gate's transition points.
type AuditRecorder interface {
	LoginAttempt(ctx context.Context, username string, success bool, ip string)
	Logout(ctx context.Context, username, ip string)
}

// Gate is the authentication state machine: anonymous until Login succeeds,
// back to anonymous on Logout or expiry. The current session is threaded
// through request contexts, never held in package state.
type Gate struct {
	creds  CredentialStore
	store  *session.FileStore
	audit  AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

// NewGate constructs a Gate.
func NewGate(credStore CredentialStore, store *session.FileStore, audit AuditRecorder, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{creds: credStore, store: store, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the gate clock for testing.
func (g *Gate) WithNow(fn func() time.Time) {
	if fn != nil {
		g.now = fn
	}
}

// Login validates credentials and, on success, creates and persists a new
// session. Unknown usernames and wrong passwords both return
// shared.ErrInvalidCredentials so the response does not reveal which field
// was wrong. When the durable record cannot be written the session is still
// returned together with shared.ErrSessionNotPersisted; the caller stays
// logged in for this interaction and shows a warning.
func (g *Gate) Login(ctx context.Context, username, password, clientIP string) (*session.Session, error) {
	cred, err := g.creds.Lookup(ctx, username)
	if err != nil {
		g.audit.LoginAttempt(ctx, username, false, clientIP)
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		g.audit.LoginAttempt(ctx, username, false, clientIP)
		return nil, shared.ErrInvalidCredentials
	}

	sess := &session.Session{
		LoggedIn: true,
		Username: cred.Username,
		Brand:    cred.Brand,
		Role:     cred.Role,
		LoginAt:  g.now(),
		ClientIP: clientIP,
	}
	g.audit.LoginAttempt(ctx, username, true, clientIP)

	if err := g.store.Save(sess); err != nil {
		g.logger.Warn("session save failed", slog.String("user", username), slog.Any("error", err))
		return sess, shared.ErrSessionNotPersisted
	}
	return sess, nil
}

// Logout clears the durable record and emits a LOGOUT event. The in-memory
// copy dies with the request context.
func (g *Gate) Logout(ctx context.Context, sess *session.Session) error {
	username, ip := "", ""
	if sess != nil {
		username, ip = sess.Username, sess.ClientIP
	}
	g.audit.Logout(ctx, username, ip)
	if err := g.store.Clear(); err != nil {
		g.logger.Warn("session clear failed", slog.Any("error", err))
		return err
	}
	return nil
}

// Status restores the session from the durable record without re-running
// credential checks: the file is trusted the way a session cookie would be.
// Expired records are cleared lazily by the store. A nil session with nil
// error means anonymous.
func (g *Gate) Status(ctx context.Context) (*session.Session, error) {
	sess, err := g.store.Load()
	if err != nil {
		// Treated as "no session"; the caller degrades to the login page
		// with a warning rather than crashing the render.
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if !sess.Valid(g.now(), g.store.TTL()) {
		if err := g.store.Clear(); err != nil {
			g.logger.Warn("clear expired session", slog.Any("error", err))
		}
		return nil, nil
	}
	return sess, nil
}

// CheckSession applies the expiry rule to an in-memory session, clearing the
// durable copy when it lapsed mid-interaction.
func (g *Gate) CheckSession(ctx context.Context, sess *session.Session) (*session.Session, error) {
	if sess == nil {
		return g.Status(ctx)
	}
	if !sess.Valid(g.now(), g.store.TTL()) {
		if err := g.store.Clear(); err != nil {
			g.logger.Warn("clear expired session", slog.Any("error", err))
		}
		return nil, nil
	}
	return sess, nil
}

// IsPersistenceError reports whether err is the non-fatal "session not
// remembered" condition.
func IsPersistenceError(err error) bool {
	return errors.Is(err, shared.ErrSessionNotPersisted)
}
