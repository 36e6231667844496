package scope

import "github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/session"

// Scope is the resolved (brand, schema, role) triple that parameterises
// every downstream report query.
type Scope struct {
	Brand  string
	Schema string
	Role   string
}

// Resolve derives the access scope for a session. It is total: nil sessions
// and unknown brands resolve to the default brand's schema instead of
// failing.
func Resolve(sess *session.Session) Scope {
	if sess == nil {
		return Scope{Brand: DefaultBrand, Schema: Schema(DefaultBrand)}
	}
	brand := sess.Brand
	if _, ok := brandSchemas[brand]; !ok {
		brand = DefaultBrand
	}
	return Scope{
		Brand:  brand,
		Schema: Schema(sess.Brand),
		Role:   sess.Role,
	}
}

// IsAdmin reports whether the scope unlocks the administrative page.
func (s Scope) IsAdmin() bool {
	return s.Role == "admin"
}

// TablePrefix returns the dynamic-table prefix for the scoped brand.
func (s Scope) TablePrefix() string {
	return TablePrefix(s.Brand)
}

// Texts returns the display texts for the scoped brand.
func (s Scope) Texts() Texts {
	return TextsFor(s.Brand)
}
