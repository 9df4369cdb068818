package config

// DefaultProfiles returns the built-in buyer profiles. Each is a weight
// vector over scoring criteria summing to 1.0; Validate enforces the sum
// for these and for any profiles loaded from a config file.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		"default": {
			Name: "Default Profile",
			Weights: map[string]float64{
				"price_per_m2":             0.20,
				"hwb_value":                0.05,
				"year_built":               0.15,
				"ubahn_walk_minutes":       0.15,
				"school_walk_minutes":      0.05,
				"rooms":                    0.05,
				"balcony_terrace":          0.10,
				"floor_level":              0.05,
				"potential_growth_rating":  0.10,
				"renovation_needed_rating": 0.05,
				"area_m2":                  0.05,
			},
		},
		"growing_family": {
			Name: "Growing Family",
			Weights: map[string]float64{
				"school_walk_minutes":      0.20,
				"rooms":                    0.20,
				"area_m2":                  0.15,
				"balcony_terrace":          0.10,
				"price_per_m2":             0.10,
				"ubahn_walk_minutes":       0.10,
				"renovation_needed_rating": 0.05,
				"hwb_value":                0.05,
				"year_built":               0.05,
			},
		},
		"urban_professional": {
			Name: "Urban Professional",
			Weights: map[string]float64{
				"ubahn_walk_minutes":       0.25,
				"balcony_terrace":          0.15,
				"year_built":               0.15,
				"price_per_m2":             0.15,
				"renovation_needed_rating": 0.10,
				"potential_growth_rating":  0.10,
				"floor_level":              0.05,
				"school_walk_minutes":      0.05,
			},
		},
		"eco_conscious": {
			Name: "Eco-Conscious Buyer",
			Weights: map[string]float64{
				"hwb_value":                0.25,
				"year_built":               0.20,
				"ubahn_walk_minutes":       0.15,
				"price_per_m2":             0.15,
				"balcony_terrace":          0.10,
				"renovation_needed_rating": 0.05,
				"potential_growth_rating":  0.05,
				"floor_level":              0.05,
			},
		},
		"diy_renovator": {
			Name: "DIY Renovator / Flipper",
			Weights: map[string]float64{
				"price_per_m2":             0.30,
				"potential_growth_rating":  0.25,
				"renovation_needed_rating": 0.20,
				"area_m2":                  0.10,
				"ubahn_walk_minutes":       0.10,
				"year_built":               0.05,
			},
		},
		"retiree": {
			Name: "Retiree / Downsizer",
			Weights: map[string]float64{
				"floor_level":              0.25,
				"renovation_needed_rating": 0.20,
				"balcony_terrace":          0.15,
				"ubahn_walk_minutes":       0.15,
				"price_per_m2":             0.10,
				"hwb_value":                0.05,
				"area_m2":                  0.05,
				"year_built":               0.05,
			},
		},
		"budget_buyer": {
			Name: "First-Time Buyer on Strict Budget",
			Weights: map[string]float64{
				"price_per_m2":             0.50,
				"ubahn_walk_minutes":       0.20,
				"hwb_value":                0.10,
				"renovation_needed_rating": 0.10,
				"area_m2":                  0.05,
				"rooms":                    0.05,
			},
		},
	}
}
