package app_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/app"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/auth"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/creds"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/session"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/shared"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/view"
	_ "github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/testing"
)

// recordingHandler collects log records so tests can assert on them.
type recordingHandler struct {
	mu       sync.Mutex
	messages []string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, r.Message)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(message string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.messages {
		if m == message {
			n++
		}
	}
	return n
}

type noopAudit struct{}

func (noopAudit) LoginAttempt(ctx context.Context, username string, success bool, ip string) {}
func (noopAudit) Logout(ctx context.Context, username, ip string)                            {}

func newSessionRouter(t *testing.T, logs *recordingHandler) (*chi.Mux, *session.FileStore) {
	t.Helper()
	credStore, err := creds.NewSeededStore(creds.DemoSeeds("brand_a_pass", "brand_b_pass", "admin_pass")...)
	if err != nil {
		t.Fatalf("seed credentials: %v", err)
	}
	fileStore := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), session.DefaultTTL)
	logger := slog.New(logs)
	gate := auth.NewGate(credStore, fileStore, noopAudit{}, logger)

	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	csrf := shared.NewCSRFManager("csrfsecret")
	authHandler := auth.NewHandler(logger, gate, templates, csrf, nil)

	router := chi.NewRouter()
	router.Use(app.MiddlewareStack(app.MiddlewareConfig{
		Logger:      logger,
		Gate:        gate,
		CSRFManager: csrf,
	})...)
	router.Route("/auth", authHandler.MountRoutes)
	return router, fileStore
}

func corruptSessionFile(t *testing.T, fileStore *session.FileStore) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(fileStore.Path()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(fileStore.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoginPageWarnsWhenSessionLoadFails(t *testing.T) {
	logs := &recordingHandler{}
	router, fileStore := newSessionRouter(t, logs)
	corruptSessionFile(t, fileStore)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusOK)
	}
	if !strings.Contains(res.Body.String(), "could not be restored") {
		t.Fatal("load failure not surfaced as a warning banner")
	}
}

func TestSessionLoadedOncePerRequest(t *testing.T) {
	logs := &recordingHandler{}
	router, fileStore := newSessionRouter(t, logs)
	corruptSessionFile(t, fileStore)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	if got := logs.count("restore session"); got != 1 {
		t.Fatalf("expected 1 restore warning per request, got %d", got)
	}
}

func TestIntactSessionStillRestoredThroughStack(t *testing.T) {
	logs := &recordingHandler{}
	router, fileStore := newSessionRouter(t, logs)

	sess := &session.Session{LoggedIn: true, Username: "brand_a_user", Brand: "BRAND_A", Role: "user", LoginAt: time.Now()}
	if err := fileStore.Save(sess); err != nil {
		t.Fatalf("save session: %v", err)
	}

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	// An authenticated user asking for the login page is sent home.
	if res.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusSeeOther)
	}
	if loc := res.Header().Get("Location"); loc != "/" {
		t.Fatalf("redirect location = %q", loc)
	}
	if got := logs.count("restore session"); got != 0 {
		t.Fatalf("intact record logged %d restore warnings", got)
	}
}
