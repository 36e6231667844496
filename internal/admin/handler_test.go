package admin_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/admin"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/audit"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/creds"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/reports"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/scope"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/session"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/shared"
	_ "github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/testing"
)

type fixture struct {
	router    *chi.Mux
	handler   *admin.Handler
	creds     *creds.StaticStore
	store     *session.FileStore
	recorder  *audit.Recorder
	registry  *reports.Registry
	csrf      *shared.CSRFManager
	adminSess *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	credStore, err := creds.NewSeededStore(creds.DemoSeeds("brand_a_pass", "brand_b_pass", "admin_pass")...)
	if err != nil {
		t.Fatalf("seed credentials: %v", err)
	}
	dir := t.TempDir()
	store := session.NewFileStore(filepath.Join(dir, "session.json"), session.DefaultTTL)
	recorder, err := audit.NewRecorder(filepath.Join(dir, "logs"), "8501", nil)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	registry := reports.NewRegistry()
	csrf := shared.NewCSRFManager("csrfsecret")
	handler := admin.NewHandler(nil, credStore, store, recorder, registry, csrf, 30*24*time.Hour)

	router := chi.NewRouter()
	router.Route("/admin", handler.MountRoutes)

	adminSess := &session.Session{
		LoggedIn: true,
		Username: "admin",
		Brand:    scope.BrandA,
		Role:     creds.RoleAdmin,
		LoginAt:  time.Now(),
		ClientIP: "203.0.113.9",
	}
	return &fixture{
		router:    router,
		handler:   handler,
		creds:     credStore,
		store:     store,
		recorder:  recorder,
		registry:  registry,
		csrf:      csrf,
		adminSess: adminSess,
	}
}

func (f *fixture) post(t *testing.T, target string, form url.Values, sess *session.Session) *httptest.ResponseRecorder {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if sess != nil && !form.Has(shared.CSRFFormField) {
		form.Set(shared.CSRFFormField, f.csrf.Token(sess))
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sess != nil {
		req = req.WithContext(session.ContextWith(req.Context(), sess))
	}
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func lastEvent(t *testing.T, recorder *audit.Recorder) audit.Event {
	t.Helper()
	events, err := recorder.Recent(1)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("audit log empty")
	}
	return events[0]
}

func TestChangeRoleUpdatesAndAudits(t *testing.T) {
	f := newFixture(t)

	form := url.Values{"username": {"brand_b_user"}, "role": {creds.RoleAdmin}}
	res := f.post(t, "/admin/role", form, f.adminSess)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusSeeOther)
	}

	cred, err := f.creds.Lookup(context.Background(), "brand_b_user")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if cred.Role != creds.RoleAdmin {
		t.Fatalf("role = %q after change", cred.Role)
	}

	event := lastEvent(t, f.recorder)
	if event.EventType != audit.EventPermissionChange {
		t.Fatalf("event type = %q", event.EventType)
	}
	if event.Details["target_user"] != "brand_b_user" {
		t.Fatalf("event details = %v", event.Details)
	}
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)

	form := url.Values{"username": {"brand_b_user"}, "role": {"superuser"}}
	res := f.post(t, "/admin/role", form, f.adminSess)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusBadRequest)
	}
}

func TestActionsRequireAdminRole(t *testing.T) {
	f := newFixture(t)
	userSess := &session.Session{
		LoggedIn: true,
		Username: "brand_a_user",
		Brand:    scope.BrandA,
		Role:     creds.RoleUser,
		LoginAt:  time.Now(),
	}

	for _, target := range []string{"/admin/role", "/admin/force-logout", "/admin/cleanup-logs"} {
		res := f.post(t, target, nil, userSess)
		if res.Code != http.StatusForbidden {
			t.Fatalf("%s status = %d, want %d", target, res.Code, http.StatusForbidden)
		}
	}
}

func TestActionsRejectForgedCSRF(t *testing.T) {
	f := newFixture(t)

	form := url.Values{shared.CSRFFormField: {"forged"}, "username": {"brand_b_user"}, "role": {creds.RoleAdmin}}
	res := f.post(t, "/admin/role", form, f.adminSess)
	if res.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusForbidden)
	}
	cred, _ := f.creds.Lookup(context.Background(), "brand_b_user")
	if cred.Role != creds.RoleUser {
		t.Fatalf("forged request changed role to %q", cred.Role)
	}
}

func TestForceLogoutClearsEverything(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Save(f.adminSess); err != nil {
		t.Fatalf("save session: %v", err)
	}
	f.registry.Register(&reports.Page{Slug: "sales-by-category", Name: "Sales"})
	f.registry.Select("brand_a_user", "sales-by-category")

	res := f.post(t, "/admin/force-logout", nil, f.adminSess)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusSeeOther)
	}
	if sess, _ := f.store.Load(); sess != nil {
		t.Fatalf("session survived force logout: %+v", sess)
	}
	if got := f.registry.Current("brand_a_user"); got != reports.HomePage {
		t.Fatalf("page pointer survived force logout: %q", got)
	}
	if event := lastEvent(t, f.recorder); event.EventType != audit.EventForceLogoutAll {
		t.Fatalf("event type = %q", event.EventType)
	}
}

func TestCleanupLogsPrunesAndAudits(t *testing.T) {
	f := newFixture(t)
	old := time.Now().Add(-40 * 24 * time.Hour)
	f.recorder.WithNow(func() time.Time { return old })
	f.recorder.LoginAttempt(context.Background(), "brand_a_user", true, "203.0.113.1")
	f.recorder.WithNow(time.Now)

	res := f.post(t, "/admin/cleanup-logs", nil, f.adminSess)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusSeeOther)
	}

	event := lastEvent(t, f.recorder)
	if event.EventType != audit.EventLogCleanup {
		t.Fatalf("event type = %q", event.EventType)
	}
	if removed, ok := event.Details["removed_entries"].(float64); !ok || removed < 1 {
		t.Fatalf("removed_entries = %v", event.Details["removed_entries"])
	}
}
