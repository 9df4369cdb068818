package models

import "time"

// Source identifies the portal a listing was extracted from.
// Extraction rules are keyed by this tag.
type Source string

const (
	SourceWillhaben   Source = "willhaben"
	SourceImmoKurier  Source = "immo_kurier"
	SourceDerStandard Source = "derstandard"
)

// Valid reports whether s is a known source tag.
func (s Source) Valid() bool {
	switch s {
	case SourceWillhaben, SourceImmoKurier, SourceDerStandard:
		return true
	}
	return false
}

// Listing represents a single apartment advertisement. The URL is the
// canonical identity: two fetches of the same URL resolve to one record.
// All scraped attributes are optional; a nil pointer means the extractor
// found nothing usable for that field.
type Listing struct {
	URL    string
	Source Source

	Title     *string
	Bezirk    *string // Vienna district code, e.g. "1050"
	Address   *string
	Condition *string
	Heating   *string

	PriceTotal *float64
	AreaM2     *float64
	Rooms      *float64
	YearBuilt  *int
	FloorLevel *int

	PricePerM2     *float64 // always PriceTotal/AreaM2 rounded to 2 decimals, never entered independently
	EnergyClass    *string
	HWBValue       *float64 // heating demand in kWh/m²/year
	Betriebskosten *float64 // monthly running costs

	UBahnWalkMinutes  *int
	SchoolWalkMinutes *int
	BalconyTerrace    *bool

	// Financing estimates computed by the normalizer.
	MonthlyRate      *float64
	TotalMonthlyCost *float64

	SpecialFeatures []string

	// Derived 1-5 ratings, computed, never scraped.
	PotentialGrowthRating  *int
	RenovationNeededRating *int

	// Cached score for the profile active at write time. Advisory only;
	// ranking always recomputes from current attributes.
	Score *float64

	ImageURL *string
	ImageRef *string // reference returned by the image storage collaborator

	ProcessedAt time.Time
	SentAt      *time.Time
}

// HasPrice reports whether a numeric total price was extracted.
// Listings without one ("price on request") never reach the ranking pool.
func (l *Listing) HasPrice() bool {
	return l.PriceTotal != nil && *l.PriceTotal > 0
}

// Ptr returns a pointer to v. Shorthand for building optional fields.
func Ptr[T any](v T) *T { return &v }
