package scope

// Brand identifiers. Each brand selects which warehouse schema its queries
// run against; the database and table structure is the same for both.
const (
	BrandA = "BRAND_A"
	BrandB = "BRAND_B"

	// DefaultBrand is the fallback for unknown or absent brand values.
	DefaultBrand = BrandA
)

var brandSchemas = map[string]string{
	BrandA: "ANALYSIS_BRAND_A",
	BrandB: "ANALYSIS_BRAND_B",
}

var tablePrefixes = map[string]string{
	BrandA: "DT_BRAND_A",
	BrandB: "DT_BRAND_B",
}

// Texts carries brand display configuration for templates.
type Texts struct {
	Title          string
	Short          string
	AppName        string
	Description    string
	ColorPrimary   string
	ColorSecondary string
}

var brandTexts = map[string]Texts{
	BrandA: {
		Title:          "Coffee Brand A",
		Short:          "Brand A",
		AppName:        "Order App A",
		Description:    "Premium coffee chain with focus on quality and customer experience",
		ColorPrimary:   "#B8865B",
		ColorSecondary: "#D9B48C",
	},
	BrandB: {
		Title:          "Coffee Brand B",
		Short:          "Brand B",
		AppName:        "Order App B",
		Description:    "Trendy coffee brand targeting young professionals",
		ColorPrimary:   "#8B4513",
		ColorSecondary: "#CD853F",
	},
}

// Schema maps a brand to its warehouse schema, falling back to the default
// brand's schema for anything unknown.
func Schema(brand string) string {
	if schema, ok := brandSchemas[brand]; ok {
		return schema
	}
	return brandSchemas[DefaultBrand]
}

// TablePrefix maps a brand to its dynamic-table prefix.
func TablePrefix(brand string) string {
	if prefix, ok := tablePrefixes[brand]; ok {
		return prefix
	}
	return tablePrefixes[DefaultBrand]
}

// TextsFor returns brand display texts, defaulting like Schema does.
func TextsFor(brand string) Texts {
	if texts, ok := brandTexts[brand]; ok {
		return texts
	}
	return brandTexts[DefaultBrand]
}

// Brands lists the known brand keys in stable order.
func Brands() []string {
	return []string{BrandA, BrandB}
}

// ValidateBrandAccess reports whether a user assigned to userBrand may read
// requested brand data. Admins see every brand; everyone else only their own.
func ValidateBrandAccess(userBrand, requested, role string) bool {
	if role == "admin" {
		return true
	}
	return userBrand == requested
}
