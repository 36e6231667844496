package reports

import (
	"context"
	"html/template"
	"sync"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/scope"
)

// HomePage is the slug selected on first load.
const HomePage = "user-segment-mau"

// PageData is the material a report template renders.
type PageData struct {
	Heading     string
	Description string
	Details     []string
	Notice      string
	Columns     []string
	Rows        [][]string
	Chart       template.HTML
}

// Request carries everything a page needs to build its data.
type Request struct {
	Scope    scope.Scope
	Username string
	ClientIP string
	Params   map[string]string
}

// Builder assembles page data for one request.
type Builder func(ctx context.Context, req Request) (PageData, error)

// Page is one report module known to the router.
type Page struct {
	Slug        string
	Name        string
	Description string
	Details     []string
	AdminOnly   bool
	Build       Builder

	// BuildView, when set, takes precedence over Build and supplies the
	// template name and data for pages that render their own layout.
	BuildView func(ctx context.Context, req Request) (string, any, error)
}

// Registry holds the known pages and the per-session current-page pointer.
// The pointer is keyed by username so concurrent users never share it.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	pages   map[string]*Page
	current map[string]string
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		pages:   make(map[string]*Page),
		current: make(map[string]string),
	}
}

// Register adds a page. Registration order is the sidebar order.
func (r *Registry) Register(p *Page) {
	if p == nil || p.Slug == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pages[p.Slug]; !ok {
		r.order = append(r.order, p.Slug)
	}
	r.pages[p.Slug] = p
}

// Select moves the session's current-page pointer. It is idempotent and
// silently ignores unknown page names; the valid set is closed and known at
// startup, so bad input is not worth crashing over.
func (r *Registry) Select(sessionKey, slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pages[slug]; !ok {
		return
	}
	r.current[sessionKey] = slug
}

// Current returns the session's current page, defaulting to the home page.
func (r *Registry) Current(sessionKey string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if slug, ok := r.current[sessionKey]; ok {
		return slug
	}
	return HomePage
}

// Reset drops every session pointer, used when all sessions are forced out.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = make(map[string]string)
}

// Forget drops the session's pointer, used on logout.
func (r *Registry) Forget(sessionKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.current, sessionKey)
}

// Lookup finds a page by slug.
func (r *Registry) Lookup(slug string) (*Page, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pages[slug]
	return p, ok
}

// Visible lists the pages available to the given scope in sidebar order;
// admin-only pages are hidden from non-admin roles.
func (r *Registry) Visible(sc scope.Scope) []*Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Page, 0, len(r.order))
	for _, slug := range r.order {
		p := r.pages[slug]
		if p.AdminOnly && !sc.IsAdmin() {
			continue
		}
		out = append(out, p)
	}
	return out
}
