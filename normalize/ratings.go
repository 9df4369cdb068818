package normalize

import (
	"strings"

	"immo-scouter/models"
)

var premiumDistricts = map[string]bool{
	"1010": true, "1020": true, "1030": true, "1040": true, "1050": true,
	"1060": true, "1070": true, "1080": true, "1090": true,
}

// PotentialGrowthRating grades appreciation potential 1 (low) to 5
// (high) from construction year, district, energy efficiency,
// condition and transit proximity.
func PotentialGrowthRating(l *models.Listing) int {
	var score float64

	if l.YearBuilt != nil {
		switch y := *l.YearBuilt; {
		case y >= 2020:
			score += 2
		case y >= 2010:
			score += 1.5
		case y >= 2000:
			score += 1
		case y >= 1990:
			score += 0.5
		}
	}

	if l.Bezirk != nil {
		if premiumDistricts[*l.Bezirk] {
			score += 1
		} else if IsViennaDistrict(*l.Bezirk) {
			score += 0.5
		}
	}

	switch {
	case l.EnergyClass != nil:
		switch *l.EnergyClass {
		case "A++", "A+", "A":
			score += 1
		case "B", "B+":
			score += 0.7
		case "C", "C+":
			score += 0.4
		case "D", "D+":
			score += 0.2
		}
	case l.HWBValue != nil:
		switch hwb := *l.HWBValue; {
		case hwb <= 25:
			score += 1
		case hwb <= 50:
			score += 0.7
		case hwb <= 100:
			score += 0.4
		case hwb <= 150:
			score += 0.2
		}
	}

	if l.Condition != nil {
		cond := strings.ToLower(*l.Condition)
		switch {
		case strings.Contains(cond, "erstbezug") || strings.Contains(cond, "neu"):
			score += 0.5
		case strings.Contains(cond, "gut"):
			score += 0.3
		case strings.Contains(cond, "renoviert") || strings.Contains(cond, "saniert"):
			score += 0.2
		}
	}

	if l.UBahnWalkMinutes != nil {
		switch m := *l.UBahnWalkMinutes; {
		case m <= 5:
			score += 0.5
		case m <= 10:
			score += 0.3
		case m <= 15:
			score += 0.1
		}
	}

	switch {
	case score >= 4.5:
		return 5
	case score >= 3.5:
		return 4
	case score >= 2.5:
		return 3
	case score >= 1.5:
		return 2
	default:
		return 1
	}
}

// RenovationNeededRating grades renovation pressure 1 (none) to 5
// (major) from age, energy efficiency, stated condition and heating
// system.
func RenovationNeededRating(l *models.Listing) int {
	var score float64

	if l.YearBuilt != nil {
		switch y := *l.YearBuilt; {
		case y < 1960:
			score += 2
		case y < 1980:
			score += 1.5
		case y < 1990:
			score += 1
		case y < 2000:
			score += 0.5
		}
	}

	switch {
	case l.EnergyClass != nil:
		switch *l.EnergyClass {
		case "G", "F":
			score += 1.5
		case "E", "D":
			score += 1
		case "C", "C+":
			score += 0.5
		}
	case l.HWBValue != nil:
		switch hwb := *l.HWBValue; {
		case hwb > 150:
			score += 1.5
		case hwb > 100:
			score += 1
		case hwb > 50:
			score += 0.5
		}
	}

	if l.Condition != nil {
		cond := strings.ToLower(*l.Condition)
		switch {
		case strings.Contains(cond, "sanierungsbedürftig") || strings.Contains(cond, "renovierungsbedürftig"):
			score += 1
		case strings.Contains(cond, "schlecht") || strings.Contains(cond, "mangelhaft"):
			score += 0.8
		case strings.Contains(cond, "altbau") && !strings.Contains(cond, "renoviert"):
			score += 0.7
		}
	}

	if l.Heating != nil {
		heating := strings.ToLower(*l.Heating)
		switch {
		case strings.Contains(heating, "kohle") || strings.Contains(heating, "öl"):
			score += 0.5
		case strings.Contains(heating, "gas") && !strings.Contains(heating, "kondens"):
			score += 0.3
		}
	}

	switch {
	case score >= 4:
		return 5
	case score >= 3:
		return 4
	case score >= 2:
		return 3
	case score >= 1:
		return 2
	default:
		return 1
	}
}
