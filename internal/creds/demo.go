package creds

import "github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/scope"

// DemoSeeds returns the portfolio demonstration accounts. Passwords come
// from configuration so deployments can override the published defaults.
func DemoSeeds(brandAPassword, brandBPassword, adminPassword string) []SeedUser {
	return []SeedUser{
		{
			Username:    "brand_a_user",
			Password:    brandAPassword,
			Brand:       scope.BrandA,
			Role:        RoleUser,
			Description: "Brand A analyst user",
		},
		{
			Username:    "brand_b_user",
			Password:    brandBPassword,
			Brand:       scope.BrandB,
			Role:        RoleUser,
			Description: "Brand B analyst user",
		},
		{
			Username:    "admin",
			Password:    adminPassword,
			Brand:       scope.BrandA,
			Role:        RoleAdmin,
			Description: "System administrator with full access",
		},
	}
}
