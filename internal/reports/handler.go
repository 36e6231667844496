package reports

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/netutil"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/scope"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/session"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/shared"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/view"
)

// Handler serves report pages.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, registry *Registry, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, registry: registry, templates: templates, csrf: csrf}
}

// MountRoutes registers report routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showHome)
	r.Get("/pages/{slug}", h.showPage)
}

func (h *Handler) showHome(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/pages/"+h.registry.Current(sess.Username), http.StatusSeeOther)
}

func (h *Handler) showPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	sc := scope.Resolve(sess)

	slug := chi.URLParam(r, "slug")
	page, ok := h.registry.Lookup(slug)
	if !ok {
		// Unknown page names leave the current selection untouched.
		http.Redirect(w, r, "/pages/"+h.registry.Current(sess.Username), http.StatusSeeOther)
		return
	}
	if page.AdminOnly && !sc.IsAdmin() {
		h.logger.Warn("admin page denied", slog.String("user", sess.Username), slog.String("page", slug))
		http.Error(w, shared.ErrAccessDenied.Error(), http.StatusForbidden)
		return
	}
	h.registry.Select(sess.Username, slug)

	params := make(map[string]string)
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			params[key] = vals[0]
		}
	}
	req := Request{
		Scope:    sc,
		Username: sess.Username,
		ClientIP: netutil.FromRequest(r),
		Params:   params,
	}

	templateName := "pages/report.html"
	var pageData any
	if page.BuildView != nil {
		name, data, err := page.BuildView(r.Context(), req)
		if err != nil {
			h.renderError(w, r, sess, sc, page, err)
			return
		}
		templateName, pageData = name, data
	} else {
		data, err := page.Build(r.Context(), req)
		if err != nil {
			h.renderError(w, r, sess, sc, page, err)
			return
		}
		pageData = data
	}

	viewData := h.templateData(r, sess, sc, page.Name)
	viewData.Data = pageData
	if err := h.templates.Render(w, templateName, viewData); err != nil {
		h.logger.Error("render page", slog.String("page", slug), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError keeps the user on a page shell with the failure surfaced
// instead of a bare 500, matching how report failures are shown inline.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, sess *session.Session, sc scope.Scope, page *Page, err error) {
	h.logger.Error("build page", slog.String("page", page.Slug), slog.Any("error", err))
	status := http.StatusInternalServerError
	if errors.Is(err, shared.ErrAccessDenied) {
		status = http.StatusForbidden
	}
	viewData := h.templateData(r, sess, sc, page.Name)
	viewData.Error = "An error occurred while loading data. Please try again later."
	viewData.Data = PageData{Heading: page.Name, Description: page.Description, Details: page.Details}
	w.WriteHeader(status)
	if rerr := h.templates.Render(w, "pages/report.html", viewData); rerr != nil {
		h.logger.Error("render error page", slog.Any("error", rerr))
	}
}

func (h *Handler) templateData(r *http.Request, sess *session.Session, sc scope.Scope, title string) view.TemplateData {
	nav := make([]view.NavPage, 0)
	current := h.registry.Current(sess.Username)
	for _, p := range h.registry.Visible(sc) {
		nav = append(nav, view.NavPage{
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
			Current:     p.Slug == current,
		})
	}
	return view.TemplateData{
		Title:       title,
		CSRFToken:   h.csrf.Token(sess),
		CurrentPath: r.URL.Path,
		Username:    sess.Username,
		Role:        sc.Role,
		Brand:       sc.Texts(),
		Nav:         nav,
	}
}
