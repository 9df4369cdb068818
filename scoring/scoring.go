// Package scoring ranks listings 0 to 100 against a buyer profile.
// Each criterion value is normalized into [0,100] over its configured
// range and the profile's weights combine them. A criterion the
// listing has no value for contributes 0 while its weight stays in the
// sum, so incomplete records rank below complete ones with the same
// values.
package scoring

import (
	"math"

	"immo-scouter/config"
	"immo-scouter/models"
)

// CriterionScore is one criterion's share of the total for reporting.
type CriterionScore struct {
	Value      *float64
	Normalized float64
	Weight     float64
	Weighted   float64
}

// Breakdown maps criterion name to its contribution.
type Breakdown map[string]CriterionScore

// Normalize caps v into r and maps it linearly onto [0,100], flipped
// for lower_is_better ranges.
func Normalize(v float64, r config.Range) float64 {
	if r.Max == r.Min {
		return 0
	}
	if r.Direction == "lower_is_better" {
		switch {
		case v <= r.Min:
			return 100
		case v >= r.Max:
			return 0
		default:
			return 100 * (r.Max - v) / (r.Max - r.Min)
		}
	}
	switch {
	case v >= r.Max:
		return 100
	case v <= r.Min:
		return 0
	default:
		return 100 * (v - r.Min) / (r.Max - r.Min)
	}
}

// Score computes the weighted total for l under profile p. It is pure:
// same listing, ranges and profile always produce the same score.
func Score(l *models.Listing, ranges map[string]config.Range, p config.Profile) (float64, Breakdown) {
	breakdown := make(Breakdown, len(p.Weights))
	var total float64
	for criterion, weight := range p.Weights {
		r, ok := ranges[criterion]
		if !ok {
			breakdown[criterion] = CriterionScore{Weight: weight}
			continue
		}
		v, present := criterionValue(l, criterion)
		if !present {
			breakdown[criterion] = CriterionScore{Weight: weight}
			continue
		}
		normalized := Normalize(v, r)
		breakdown[criterion] = CriterionScore{
			Value:      &v,
			Normalized: math.Round(normalized*100) / 100,
			Weight:     weight,
			Weighted:   math.Round(normalized*weight*100) / 100,
		}
		total += normalized * weight
	}
	return math.Round(total*10) / 10, breakdown
}

// criterionValue looks up the raw listing value behind a criterion
// name. Booleans count as 0 or 1.
func criterionValue(l *models.Listing, criterion string) (float64, bool) {
	switch criterion {
	case "price_per_m2":
		return deref(l.PricePerM2)
	case "hwb_value":
		return deref(l.HWBValue)
	case "year_built":
		if l.YearBuilt == nil {
			return 0, false
		}
		return float64(*l.YearBuilt), true
	case "ubahn_walk_minutes":
		if l.UBahnWalkMinutes == nil {
			return 0, false
		}
		return float64(*l.UBahnWalkMinutes), true
	case "school_walk_minutes":
		if l.SchoolWalkMinutes == nil {
			return 0, false
		}
		return float64(*l.SchoolWalkMinutes), true
	case "rooms":
		return deref(l.Rooms)
	case "area_m2":
		return deref(l.AreaM2)
	case "balcony_terrace":
		if l.BalconyTerrace == nil {
			return 0, false
		}
		if *l.BalconyTerrace {
			return 1, true
		}
		return 0, true
	case "floor_level":
		if l.FloorLevel == nil {
			return 0, false
		}
		return float64(*l.FloorLevel), true
	case "potential_growth_rating":
		if l.PotentialGrowthRating == nil {
			return 0, false
		}
		return float64(*l.PotentialGrowthRating), true
	case "renovation_needed_rating":
		if l.RenovationNeededRating == nil {
			return 0, false
		}
		return float64(*l.RenovationNeededRating), true
	}
	return 0, false
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
