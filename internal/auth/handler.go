package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/netutil"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/scope"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/session"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/shared"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/view"
)

// warningNotSaved flags a login whose durable record could not be written.
const warningNotSaved = "session_not_saved"

// SessionForgetter drops per-session state held outside the session file,
// such as the current report page pointer.
type SessionForgetter interface {
	Forget(sessionKey string)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	gate      *Gate
	templates *view.Engine
	csrf      *shared.CSRFManager
	forgetter SessionForgetter
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, gate *Gate, templates *view.Engine, csrf *shared.CSRFManager, forgetter SessionForgetter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		gate:      gate,
		templates: templates,
		csrf:      csrf,
		forgetter: forgetter,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Username string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	warning := ""
	switch {
	case r.URL.Query().Get("warning") == warningNotSaved:
		warning = "Signed in, but the session could not be saved. You may need to sign in again."
	case session.RestoreFailed(r.Context()):
		warning = "Your previous session could not be restored. Please sign in again."
	}
	h.renderLogin(w, r, loginPageData{}, warning, "", http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	// Validation failures reuse the credential error so the response never
	// reveals which field was wrong.
	if err := h.validator.Struct(form); err != nil {
		h.renderLogin(w, r, loginPageData{Username: form.Username}, "", shared.ErrInvalidCredentials.Error(), http.StatusBadRequest)
		return
	}

	clientIP := netutil.FromRequest(r)
	_, err := h.gate.Login(r.Context(), form.Username, form.Password, clientIP)
	switch {
	case err == nil:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case IsPersistenceError(err):
		// Login itself succeeded. Without a durable record the next request
		// starts anonymous, so surface that on the login page.
		http.Redirect(w, r, "/auth/login?warning="+warningNotSaved, http.StatusSeeOther)
	default:
		h.renderLogin(w, r, loginPageData{Username: form.Username}, "", shared.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.csrf.VerifyToken(sess, r.PostFormValue(shared.CSRFFormField)); err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	if err := h.gate.Logout(r.Context(), sess); err != nil {
		h.logger.Warn("logout", slog.String("user", sess.Username), slog.Any("error", err))
	}
	if h.forgetter != nil {
		h.forgetter.Forget(sess.Username)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, data loginPageData, warning, errMsg string, status int) {
	viewData := view.TemplateData{
		Title:       "Sign In",
		CurrentPath: r.URL.Path,
		Brand:       scope.TextsFor(scope.DefaultBrand),
		Warning:     warning,
		Error:       errMsg,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
