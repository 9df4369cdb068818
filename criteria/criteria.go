// Package criteria decides which listings enter the pool. Acceptance
// checks the buyer's hard requirements; plausibility rejects records
// whose numbers cannot describe a real Vienna property. A field that
// was not extracted never fails acceptance, only values that are
// present and out of range do.
package criteria

import (
	"fmt"
	"log/slog"

	"immo-scouter/config"
	"immo-scouter/models"
)

// Accepts reports whether l meets the configured hard criteria. The
// second return names the first failed criterion for logging.
func Accepts(l *models.Listing, c config.Criteria) (bool, string) {
	if c.PriceMin != nil && l.PriceTotal != nil && *l.PriceTotal < *c.PriceMin {
		return false, fmt.Sprintf("price %.0f below min %.0f", *l.PriceTotal, *c.PriceMin)
	}
	if c.PriceMax != nil && l.PriceTotal != nil && *l.PriceTotal > *c.PriceMax {
		return false, fmt.Sprintf("price %.0f above max %.0f", *l.PriceTotal, *c.PriceMax)
	}
	if c.PricePerM2Max != nil && l.PricePerM2 != nil && *l.PricePerM2 > *c.PricePerM2Max {
		return false, fmt.Sprintf("price per m2 %.0f above max %.0f", *l.PricePerM2, *c.PricePerM2Max)
	}
	if c.AreaM2Min != nil && l.AreaM2 != nil && *l.AreaM2 < *c.AreaM2Min {
		return false, fmt.Sprintf("area %.1f below min %.1f", *l.AreaM2, *c.AreaM2Min)
	}
	if c.AreaM2Max != nil && l.AreaM2 != nil && *l.AreaM2 > *c.AreaM2Max {
		return false, fmt.Sprintf("area %.1f above max %.1f", *l.AreaM2, *c.AreaM2Max)
	}
	if c.RoomsMin != nil && l.Rooms != nil && *l.Rooms < *c.RoomsMin {
		return false, fmt.Sprintf("rooms %.1f below min %.1f", *l.Rooms, *c.RoomsMin)
	}
	if c.RoomsMax != nil && l.Rooms != nil && *l.Rooms > *c.RoomsMax {
		return false, fmt.Sprintf("rooms %.1f above max %.1f", *l.Rooms, *c.RoomsMax)
	}
	if c.YearBuiltMin != nil && l.YearBuilt != nil && *l.YearBuilt < *c.YearBuiltMin {
		return false, fmt.Sprintf("year built %d below min %d", *l.YearBuilt, *c.YearBuiltMin)
	}
	if len(c.Districts) > 0 && l.Bezirk != nil && !contains(c.Districts, *l.Bezirk) {
		return false, fmt.Sprintf("district %s not in allow-list", *l.Bezirk)
	}
	return true, ""
}

// Plausible reports whether the listing's numbers pass the sanity
// bounds. Listings without both price and area cannot be validated and
// are rejected; they carry nothing worth ranking.
func Plausible(l *models.Listing, p config.Plausibility) (bool, string) {
	if l.PriceTotal == nil || l.AreaM2 == nil || *l.AreaM2 <= 0 {
		return false, "missing price or area"
	}
	perM2 := *l.PriceTotal / *l.AreaM2
	if perM2 < p.MinPricePerM2 {
		return false, fmt.Sprintf("%.0f/m2 below plausible floor %.0f", perM2, p.MinPricePerM2)
	}
	if perM2 > p.MaxPricePerM2 {
		return false, fmt.Sprintf("%.0f/m2 above plausible ceiling %.0f", perM2, p.MaxPricePerM2)
	}
	if *l.PriceTotal < p.MinPriceTotal {
		return false, fmt.Sprintf("total price %.0f below plausible floor %.0f", *l.PriceTotal, p.MinPriceTotal)
	}
	if *l.AreaM2 < p.MinAreaM2 {
		return false, fmt.Sprintf("area %.1f below plausible floor %.1f", *l.AreaM2, p.MinAreaM2)
	}
	if p.MaxMonthlyTotal > 0 && l.TotalMonthlyCost != nil && *l.TotalMonthlyCost > p.MaxMonthlyTotal {
		return false, fmt.Sprintf("monthly cost %.0f above cap %.0f", *l.TotalMonthlyCost, p.MaxMonthlyTotal)
	}
	return true, ""
}

// Filter applies plausibility and acceptance in order and returns the
// surviving listings. Rejections are logged at debug level with the
// reason.
func Filter(listings []*models.Listing, c config.Criteria, p config.Plausibility) []*models.Listing {
	var kept []*models.Listing
	for _, l := range listings {
		if ok, reason := Plausible(l, p); !ok {
			slog.Debug("rejected implausible listing", "url", l.URL, "reason", reason)
			continue
		}
		if ok, reason := Accepts(l, c); !ok {
			slog.Debug("rejected by criteria", "url", l.URL, "reason", reason)
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
