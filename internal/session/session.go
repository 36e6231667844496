package session

import "time"

// DefaultTTL is how long a login stays valid before the user is sent back
// to the login page.
const DefaultTTL = 24 * time.Hour

// Session is the login record for one authenticated user. It lives in the
// request context while handling a request and in the durable file between
// restarts.
type Session struct {
	LoggedIn bool
	Username string
	Brand    string
	Role     string
	LoginAt  time.Time
	ClientIP string
}

// Valid reports whether the session counts as authenticated at the given
// instant: it must be marked logged in and younger than ttl.
func (s *Session) Valid(now time.Time, ttl time.Duration) bool {
	if s == nil || !s.LoggedIn {
		return false
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return now.Sub(s.LoginAt) < ttl
}
