package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/audit"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/creds"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/netutil"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/reports"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/scope"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/session"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/shared"
)

// eventPageSize bounds the log viewer table.
const eventPageSize = 20

// AuditLog is the slice of the audit recorder the console needs.
type AuditLog interface {
	PermissionChange(ctx context.Context, adminUser, targetUser, oldRole, newRole, ip string)
	SystemEvent(ctx context.Context, eventType, user string, details map[string]any)
	Recent(n int) ([]audit.Event, error)
	Summarize() (audit.Summary, error)
	PruneOlderThan(ctx context.Context, retention time.Duration) (int, error)
}

// Handler serves the admin console page and its management actions.
type Handler struct {
	logger    *slog.Logger
	creds     creds.Store
	store     *session.FileStore
	auditLog  AuditLog
	registry  *reports.Registry
	csrf      *shared.CSRFManager
	retention time.Duration
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, credStore creds.Store, store *session.FileStore, auditLog AuditLog, registry *reports.Registry, csrf *shared.CSRFManager, retention time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Handler{
		logger:    logger,
		creds:     credStore,
		store:     store,
		auditLog:  auditLog,
		registry:  registry,
		csrf:      csrf,
		retention: retention,
	}
}

// MountRoutes registers the management actions. The console page itself is
// served through the report registry so it shows up in the sidebar.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/role", h.changeRole)
	r.Post("/force-logout", h.forceLogout)
	r.Post("/cleanup-logs", h.cleanupLogs)
}

type viewData struct {
	Users             []creds.Credential
	EventTypes        []string
	SelectedEventType string
	Events            []audit.Event
	LoginAt           time.Time
	ClientIP          string
	UserCount         int
	BrandCount        int
	AdminCount        int
	Summary           audit.Summary
}

// Page returns the console as a registry page, visible to admins only.
func (h *Handler) Page() *reports.Page {
	return &reports.Page{
		Slug:        "admin",
		Name:        "Admin Page",
		Description: "Security management and system monitoring",
		AdminOnly:   true,
		BuildView:   h.buildView,
	}
}

func (h *Handler) buildView(ctx context.Context, req reports.Request) (string, any, error) {
	users := h.creds.List(ctx)

	selected := req.Params["event_type"]
	events, err := h.auditLog.Recent(200)
	if err != nil {
		h.logger.Warn("read audit log", slog.Any("error", err))
	}
	// Newest first in the viewer.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	if selected != "" {
		filtered := events[:0]
		for _, event := range events {
			if event.EventType == selected {
				filtered = append(filtered, event)
			}
		}
		events = filtered
	}
	if len(events) > eventPageSize {
		events = events[:eventPageSize]
	}

	summary, err := h.auditLog.Summarize()
	if err != nil {
		h.logger.Warn("summarize audit log", slog.Any("error", err))
	}

	brands := make(map[string]struct{})
	admins := 0
	for _, user := range users {
		brands[user.Brand] = struct{}{}
		if user.Role == creds.RoleAdmin {
			admins++
		}
	}

	data := viewData{
		Users: users,
		EventTypes: []string{
			audit.EventLoginSuccess,
			audit.EventLoginFailed,
			audit.EventLogout,
			audit.EventDataAccess,
			audit.EventPermissionChange,
			audit.EventForceLogoutAll,
			audit.EventLogCleanup,
		},
		SelectedEventType: selected,
		Events:            events,
		ClientIP:          req.ClientIP,
		UserCount:         len(users),
		BrandCount:        len(brands),
		AdminCount:        admins,
		Summary:           summary,
	}
	if sess, err := h.store.Load(); err == nil && sess != nil {
		data.LoginAt = sess.LoginAt
	}
	return "pages/admin.html", data, nil
}

// requireAdmin loads the session and checks role and CSRF token. It writes
// the response itself on failure and returns nil.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) *session.Session {
	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return nil
	}
	if !scope.Resolve(sess).IsAdmin() {
		http.Error(w, shared.ErrAccessDenied.Error(), http.StatusForbidden)
		return nil
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return nil
	}
	if err := h.csrf.VerifyToken(sess, r.PostFormValue(shared.CSRFFormField)); err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return nil
	}
	return sess
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	sess := h.requireAdmin(w, r)
	if sess == nil {
		return
	}
	target := r.PostFormValue("username")
	role := r.PostFormValue("role")

	oldRole, err := h.creds.SetRole(r.Context(), target, role)
	if err != nil {
		h.logger.Warn("role change", slog.String("target", target), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	h.auditLog.PermissionChange(r.Context(), sess.Username, target, oldRole, role, netutil.FromRequest(r))
	http.Redirect(w, r, "/pages/admin", http.StatusSeeOther)
}

func (h *Handler) forceLogout(w http.ResponseWriter, r *http.Request) {
	sess := h.requireAdmin(w, r)
	if sess == nil {
		return
	}
	h.auditLog.SystemEvent(r.Context(), audit.EventForceLogoutAll, sess.Username, map[string]any{
		"initiated_by": sess.Username,
	})
	if err := h.store.Clear(); err != nil {
		h.logger.Warn("force logout", slog.Any("error", err))
	}
	h.registry.Reset()
	// The admin's own session goes too.
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *Handler) cleanupLogs(w http.ResponseWriter, r *http.Request) {
	sess := h.requireAdmin(w, r)
	if sess == nil {
		return
	}
	removed, err := h.auditLog.PruneOlderThan(r.Context(), h.retention)
	if err != nil {
		h.logger.Warn("log cleanup", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.auditLog.SystemEvent(r.Context(), audit.EventLogCleanup, sess.Username, map[string]any{
		"removed_entries": removed,
		"retention_days":  int(h.retention.Hours() / 24),
	})
	http.Redirect(w, r, "/pages/admin", http.StatusSeeOther)
}
