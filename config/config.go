package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"immo-scouter/models"
)

// SourceConfig describes one portal to crawl.
type SourceConfig struct {
	Tag       models.Source `yaml:"tag"`
	StartURLs []string      `yaml:"start_urls"`
	// RenderJS selects the headless-browser fetch strategy for portals
	// that assemble listings client-side.
	RenderJS bool `yaml:"render_js"`
	MaxPages int  `yaml:"max_pages"`
}

// Criteria holds the acceptance ranges. A listing with a present field
// outside its range is rejected; a missing field never rejects.
type Criteria struct {
	PriceMin      *float64 `yaml:"price_min"`
	PriceMax      *float64 `yaml:"price_max"`
	PricePerM2Max *float64 `yaml:"price_per_m2_max"`
	AreaM2Min     *float64 `yaml:"area_m2_min"`
	AreaM2Max     *float64 `yaml:"area_m2_max"`
	RoomsMin      *float64 `yaml:"rooms_min"`
	RoomsMax      *float64 `yaml:"rooms_max"`
	YearBuiltMin  *int     `yaml:"year_built_min"`
	Districts     []string `yaml:"districts"` // allow-list; empty = all
}

// Plausibility holds the sanity bounds that keep garbage out of the
// ranking pool, independent of the acceptance criteria.
type Plausibility struct {
	MinPricePerM2   float64 `yaml:"min_price_per_m2"`
	MaxPricePerM2   float64 `yaml:"max_price_per_m2"`
	MinPriceTotal   float64 `yaml:"min_price_total"`
	MinAreaM2       float64 `yaml:"min_area_m2"`
	MaxMonthlyTotal float64 `yaml:"max_monthly_total"`
}

// Mortgage holds the financing assumptions for the estimated monthly rate.
type Mortgage struct {
	DownPaymentFraction float64 `yaml:"down_payment_fraction"`
	AnnualRatePercent   float64 `yaml:"annual_rate_percent"`
	TermYears           int     `yaml:"term_years"`
}

// Range maps a raw attribute value onto a 0-100 desirability score.
type Range struct {
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Direction string  `yaml:"direction"` // "lower_is_better" or "higher_is_better"
}

// Profile is a named weight vector over scoring criteria. Weights must
// sum to 1.0 within 1e-3; Load rejects anything else before a single
// page is fetched.
type Profile struct {
	Name    string             `yaml:"name"`
	Weights map[string]float64 `yaml:"weights"`
}

// Dispatch configures selection & suppression.
type Dispatch struct {
	Limit        int      `yaml:"limit"`
	PoolFactor   int      `yaml:"pool_factor"` // candidate pool = Limit * PoolFactor
	MinScore     float64  `yaml:"min_score"`
	CooldownDays int      `yaml:"cooldown_days"`
	MinRooms     float64  `yaml:"min_rooms"`
	ExcludedBez  []string `yaml:"excluded_districts"`
}

// Fetch configures the politeness and retry contract.
type Fetch struct {
	DelaySeconds         int `yaml:"delay_seconds"`
	MaxRetries           int `yaml:"max_retries"`
	RetryDelaySeconds    int `yaml:"retry_delay_seconds"`
	RenderTimeoutSeconds int `yaml:"render_timeout_seconds"`
}

// Config is the process-wide configuration consumed at startup.
type Config struct {
	Sources      []SourceConfig     `yaml:"sources"`
	Criteria     Criteria           `yaml:"criteria"`
	Plausibility Plausibility       `yaml:"plausibility"`
	Mortgage     Mortgage           `yaml:"mortgage"`
	Ranges       map[string]Range   `yaml:"normalization_ranges"`
	Profiles     map[string]Profile `yaml:"buyer_profiles"`
	Dispatch     Dispatch           `yaml:"dispatch"`
	Fetch        Fetch              `yaml:"fetch"`

	SpreadsheetURL string `yaml:"spreadsheet_url"`
}

// Load reads and validates configuration from a YAML file. Malformed
// weight profiles or normalization ranges are startup errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants that must hold before any acquisition
// begins: weight sums, range directions, source tags.
func (c *Config) Validate() error {
	for name, p := range c.Profiles {
		var sum float64
		for criterion, w := range p.Weights {
			if w < 0 {
				return fmt.Errorf("profile %q: negative weight for %q", name, criterion)
			}
			if _, ok := c.Ranges[criterion]; !ok {
				return fmt.Errorf("profile %q: weight for unknown criterion %q", name, criterion)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-3 {
			return fmt.Errorf("profile %q: weights sum to %.4f, must sum to 1.0", name, sum)
		}
	}

	for criterion, r := range c.Ranges {
		if r.Direction != "lower_is_better" && r.Direction != "higher_is_better" {
			return fmt.Errorf("range %q: unknown direction %q", criterion, r.Direction)
		}
		if r.Max <= r.Min {
			return fmt.Errorf("range %q: max (%.2f) must exceed min (%.2f)", criterion, r.Max, r.Min)
		}
	}

	for _, s := range c.Sources {
		if !s.Tag.Valid() {
			return fmt.Errorf("unknown source tag %q", s.Tag)
		}
		if len(s.StartURLs) == 0 {
			return fmt.Errorf("source %q: no start URLs", s.Tag)
		}
	}

	if c.Dispatch.Limit <= 0 {
		return fmt.Errorf("dispatch limit must be positive, got %d", c.Dispatch.Limit)
	}
	if c.Mortgage.DownPaymentFraction < 0 || c.Mortgage.DownPaymentFraction >= 1 {
		return fmt.Errorf("down payment fraction must be in [0,1), got %.2f", c.Mortgage.DownPaymentFraction)
	}
	return nil
}

// Profile returns the named buyer profile, or an error listing the
// available ones.
func (c *Config) Profile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		names := make([]string, 0, len(c.Profiles))
		for n := range c.Profiles {
			names = append(names, n)
		}
		return Profile{}, fmt.Errorf("profile %q not found, available: %v", name, names)
	}
	return p, nil
}

// CooldownWindow returns the suppression window as a duration.
func (c *Config) CooldownWindow() time.Duration {
	return time.Duration(c.Dispatch.CooldownDays) * 24 * time.Hour
}

// Default returns the built-in configuration mirroring the Vienna
// market assumptions. A config file overrides any part of it.
func Default() *Config {
	return &Config{
		Plausibility: Plausibility{
			MinPricePerM2:   1000,
			MaxPricePerM2:   25000,
			MinPriceTotal:   50000,
			MinAreaM2:       20,
			MaxMonthlyTotal: 2000,
		},
		Mortgage: Mortgage{
			DownPaymentFraction: 0.20,
			AnnualRatePercent:   3.5,
			TermYears:           35,
		},
		Ranges: map[string]Range{
			"price_per_m2":             {Min: 3500, Max: 8000, Direction: "lower_is_better"},
			"hwb_value":                {Min: 20, Max: 150, Direction: "lower_is_better"},
			"year_built":               {Min: 1900, Max: 2025, Direction: "higher_is_better"},
			"ubahn_walk_minutes":       {Min: 2, Max: 15, Direction: "lower_is_better"},
			"school_walk_minutes":      {Min: 3, Max: 20, Direction: "lower_is_better"},
			"rooms":                    {Min: 1, Max: 5, Direction: "higher_is_better"},
			"area_m2":                  {Min: 70, Max: 150, Direction: "higher_is_better"},
			"balcony_terrace":          {Min: 0, Max: 1, Direction: "higher_is_better"},
			"floor_level":              {Min: 0, Max: 5, Direction: "higher_is_better"},
			"potential_growth_rating":  {Min: 1, Max: 5, Direction: "higher_is_better"},
			"renovation_needed_rating": {Min: 1, Max: 5, Direction: "lower_is_better"},
		},
		Profiles: DefaultProfiles(),
		Dispatch: Dispatch{
			Limit:        5,
			PoolFactor:   3,
			MinScore:     40,
			CooldownDays: 7,
		},
		Fetch: Fetch{
			DelaySeconds:         4,
			MaxRetries:           3,
			RetryDelaySeconds:    5,
			RenderTimeoutSeconds: 20,
		},
	}
}

// GetEnvOrDefault reads an environment variable with a fallback.
func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
