package view_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/scope"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/view"
	_ "github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/testing"
)

func baseData() view.TemplateData {
	return view.TemplateData{
		Title:       "Sales by Category",
		CSRFToken:   "token123",
		CurrentPath: "/pages/sales-by-category",
		Username:    "brand_a_user",
		Role:        "user",
		Brand:       scope.TextsFor(scope.BrandA),
		Nav: []view.NavPage{
			{Slug: "user-segment-mau", Name: "User Segment and MAU"},
			{Slug: "sales-by-category", Name: "Sales by Category", Current: true},
		},
	}
}

func TestRenderLoginPage(t *testing.T) {
	engine, err := view.NewEngine()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	data := baseData()
	data.Error = "incorrect username or password"
	data.Data = struct{ Username string }{Username: "brand_a_user"}

	res := httptest.NewRecorder()
	if err := engine.Render(res, "pages/login.html", data); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := res.Body.String()
	if !strings.Contains(body, "incorrect username or password") {
		t.Fatal("error banner missing")
	}
	if !strings.Contains(body, `value="brand_a_user"`) {
		t.Fatal("username not repopulated")
	}
	if got := res.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("content type = %q", got)
	}
}

func TestRenderReportPage(t *testing.T) {
	engine, err := view.NewEngine()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	data := baseData()
	data.Data = struct {
		Heading     string
		Description string
		Details     []string
		Notice      string
		Chart       any
		Columns     []string
		Rows        [][]string
	}{
		Heading: "Coffee Brand A Sales by Category",
		Columns: []string{"CATEGORY", "TOTAL_SALES"},
		Rows:    [][]string{{"Coffee", "12000"}},
	}

	res := httptest.NewRecorder()
	if err := engine.Render(res, "pages/report.html", data); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := res.Body.String()
	for _, want := range []string{"Coffee Brand A Sales by Category", "TOTAL_SALES", "12000", "brand_a_user"} {
		if !strings.Contains(body, want) {
			t.Fatalf("rendered page missing %q", want)
		}
	}
	// Sidebar marks the current page.
	if !strings.Contains(body, `class="page-link current"`) {
		t.Fatal("current page marker missing")
	}
}

func TestRenderEscapesRowValues(t *testing.T) {
	engine, err := view.NewEngine()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	data := baseData()
	data.Data = struct {
		Heading     string
		Description string
		Details     []string
		Notice      string
		Chart       any
		Columns     []string
		Rows        [][]string
	}{
		Heading: "Report",
		Columns: []string{"CATEGORY"},
		Rows:    [][]string{{"<script>alert(1)</script>"}},
	}

	res := httptest.NewRecorder()
	if err := engine.Render(res, "pages/report.html", data); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(res.Body.String(), "<script>alert(1)</script>") {
		t.Fatal("row value rendered unescaped")
	}
}
