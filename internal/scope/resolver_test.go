package scope

import (
	"testing"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/session"
)

func TestResolveKnownBrands(t *testing.T) {
	got := Resolve(&session.Session{Brand: BrandA, Role: "user"})
	if got.Schema != "ANALYSIS_BRAND_A" {
		t.Fatalf("brand A schema: got %s", got.Schema)
	}
	got = Resolve(&session.Session{Brand: BrandB, Role: "user"})
	if got.Schema != "ANALYSIS_BRAND_B" {
		t.Fatalf("brand B schema: got %s", got.Schema)
	}
	if got.Role != "user" {
		t.Fatalf("role not carried: %+v", got)
	}
}

func TestResolveIsTotal(t *testing.T) {
	cases := []struct {
		name string
		sess *session.Session
	}{
		{"nil session", nil},
		{"empty brand", &session.Session{Brand: ""}},
		{"unknown brand", &session.Session{Brand: "BRAND_Z"}},
		{"garbage brand", &session.Session{Brand: "'; DROP TABLE--"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.sess)
			if got.Schema != "ANALYSIS_BRAND_A" {
				t.Fatalf("expected default schema, got %s", got.Schema)
			}
			if got.Brand != DefaultBrand {
				t.Fatalf("expected default brand, got %s", got.Brand)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	if !(Scope{Role: "admin"}).IsAdmin() {
		t.Fatalf("admin role should unlock admin page")
	}
	if (Scope{Role: "user"}).IsAdmin() {
		t.Fatalf("user role must not unlock admin page")
	}
}

func TestValidateBrandAccess(t *testing.T) {
	if !ValidateBrandAccess(BrandA, BrandB, "admin") {
		t.Fatalf("admin should access every brand")
	}
	if ValidateBrandAccess(BrandA, BrandB, "user") {
		t.Fatalf("user must not cross brands")
	}
	if !ValidateBrandAccess(BrandB, BrandB, "user") {
		t.Fatalf("user should access own brand")
	}
}

func TestTablePrefixFallback(t *testing.T) {
	if got := TablePrefix("BRAND_Z"); got != "DT_BRAND_A" {
		t.Fatalf("unknown brand prefix: got %s", got)
	}
	if got := (Scope{Brand: BrandB}).TablePrefix(); got != "DT_BRAND_B" {
		t.Fatalf("brand B prefix: got %s", got)
	}
}
