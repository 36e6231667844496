package reports_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/reports"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/scope"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/session"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/shared"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/view"
	_ "github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/testing"
)

func newReportsRouter(t *testing.T) (*chi.Mux, *reports.Registry) {
	t.Helper()
	registry := reports.NewRegistry()
	registry.Register(&reports.Page{
		Slug: reports.HomePage,
		Name: "User Segment and MAU",
		Build: func(ctx context.Context, req reports.Request) (reports.PageData, error) {
			return reports.PageData{Heading: "home"}, nil
		},
	})
	registry.Register(&reports.Page{
		Slug: "sales-by-category",
		Name: "Sales by Category",
		Build: func(ctx context.Context, req reports.Request) (reports.PageData, error) {
			return reports.PageData{Heading: "sales"}, nil
		},
	})
	registry.Register(&reports.Page{
		Slug:      "admin",
		Name:      "Admin Console",
		AdminOnly: true,
		Build: func(ctx context.Context, req reports.Request) (reports.PageData, error) {
			return reports.PageData{Heading: "admin"}, nil
		},
	})

	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	handler := reports.NewHandler(nil, registry, templates, shared.NewCSRFManager("csrfsecret"))
	router := chi.NewRouter()
	handler.MountRoutes(router)
	return router, registry
}

func requestAs(method, target, username, brand, role string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	sess := &session.Session{
		LoggedIn: true,
		Username: username,
		Brand:    brand,
		Role:     role,
		LoginAt:  time.Now(),
		ClientIP: "203.0.113.7",
	}
	return req.WithContext(session.ContextWith(req.Context(), sess))
}

func TestAdminPageRejectsUserRole(t *testing.T) {
	router, _ := newReportsRouter(t)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, requestAs(http.MethodGet, "/pages/admin", "brand_a_user", scope.BrandA, "user"))
	if res.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusForbidden)
	}
}

func TestAdminPageServesAdminRole(t *testing.T) {
	router, _ := newReportsRouter(t)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, requestAs(http.MethodGet, "/pages/admin", "admin", scope.BrandA, "admin"))
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusOK)
	}
}

func TestUnknownPageKeepsCurrentSelection(t *testing.T) {
	router, registry := newReportsRouter(t)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, requestAs(http.MethodGet, "/pages/sales-by-category", "brand_a_user", scope.BrandA, "user"))
	if res.Code != http.StatusOK {
		t.Fatalf("select page: status = %d", res.Code)
	}

	res = httptest.NewRecorder()
	router.ServeHTTP(res, requestAs(http.MethodGet, "/pages/no-such-page", "brand_a_user", scope.BrandA, "user"))
	if res.Code != http.StatusSeeOther {
		t.Fatalf("unknown page: status = %d, want %d", res.Code, http.StatusSeeOther)
	}
	if loc := res.Header().Get("Location"); loc != "/pages/sales-by-category" {
		t.Fatalf("redirect location = %q", loc)
	}
	if got := registry.Current("brand_a_user"); got != "sales-by-category" {
		t.Fatalf("pointer moved to %q", got)
	}
}

func TestHomeRedirectsToCurrentPage(t *testing.T) {
	router, registry := newReportsRouter(t)
	registry.Select("brand_b_user", "sales-by-category")

	res := httptest.NewRecorder()
	router.ServeHTTP(res, requestAs(http.MethodGet, "/", "brand_b_user", scope.BrandB, "user"))
	if res.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusSeeOther)
	}
	if loc := res.Header().Get("Location"); loc != "/pages/sales-by-category" {
		t.Fatalf("redirect location = %q", loc)
	}
}

func TestAnonymousRedirectsToLogin(t *testing.T) {
	router, _ := newReportsRouter(t)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/pages/"+reports.HomePage, nil))
	if res.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusSeeOther)
	}
	if loc := res.Header().Get("Location"); loc != "/auth/login" {
		t.Fatalf("redirect location = %q", loc)
	}
}
