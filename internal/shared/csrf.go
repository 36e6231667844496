package shared

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/session"
)

// CSRFFormField is the form field name carrying the CSRF token.
const CSRFFormField = "csrf_token"

// CSRFManager issues and verifies CSRF tokens bound to a session. Tokens
// are derived from the session identity rather than stored, so they survive
// process restarts together with the session file. A fresh login changes the
// login timestamp and therefore rotates the token.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// Token derives the CSRF token for the session.
func (m *CSRFManager) Token(sess *session.Session) string {
	if sess == nil || !sess.LoggedIn {
		return ""
	}
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(sess.Username))
	_, _ = mac.Write([]byte{'|'})
	_, _ = mac.Write([]byte(strconv.FormatInt(sess.LoginAt.UnixNano(), 10)))
	_, _ = mac.Write([]byte{'|'})
	_, _ = mac.Write([]byte(sess.ClientIP))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyToken compares the supplied token with the session's derived token.
func (m *CSRFManager) VerifyToken(sess *session.Session, token string) error {
	expected := m.Token(sess)
	if expected == "" {
		return ErrCSRFTokenMissing
	}
	if token == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}
