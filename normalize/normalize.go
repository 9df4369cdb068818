// Package normalize derives the computed fields of a listing from its
// extracted raw fields. Everything here is pure; missing inputs leave
// the corresponding outputs unset instead of guessing.
package normalize

import (
	"math"
	"strings"

	"immo-scouter/config"
	"immo-scouter/models"
)

// Apply fills in every derivable field of l in place. Fields that were
// extracted from the page are never overwritten.
func Apply(l *models.Listing, mortgage config.Mortgage) {
	if l.PricePerM2 == nil {
		if v, ok := pricePerM2(l); ok {
			l.PricePerM2 = &v
		}
	}
	if l.MonthlyRate == nil && l.PriceTotal != nil {
		v := MonthlyPayment(Loan(*l.PriceTotal, mortgage.DownPaymentFraction), mortgage.AnnualRatePercent, mortgage.TermYears)
		l.MonthlyRate = &v
	}
	if l.Betriebskosten == nil && l.AreaM2 != nil {
		v := EstimateBetriebskosten(*l.AreaM2)
		l.Betriebskosten = &v
	}
	if l.TotalMonthlyCost == nil {
		if v, ok := totalMonthlyCost(l); ok {
			l.TotalMonthlyCost = &v
		}
	}
	if l.EnergyClass == nil && l.HWBValue != nil {
		v := EnergyClassFromHWB(*l.HWBValue)
		l.EnergyClass = &v
	}
	if l.Bezirk != nil {
		if l.UBahnWalkMinutes == nil {
			v := UBahnWalkMinutes(*l.Bezirk)
			l.UBahnWalkMinutes = &v
		}
		if l.SchoolWalkMinutes == nil {
			v := SchoolWalkMinutes(*l.Bezirk)
			l.SchoolWalkMinutes = &v
		}
	}
	if l.BalconyTerrace == nil {
		v := HasBalconyTerrace(l)
		l.BalconyTerrace = &v
	}
	if l.FloorLevel == nil {
		if v, ok := floorLevelFromTitle(l); ok {
			l.FloorLevel = &v
		}
	}
	if l.PotentialGrowthRating == nil {
		v := PotentialGrowthRating(l)
		l.PotentialGrowthRating = &v
	}
	if l.RenovationNeededRating == nil {
		v := RenovationNeededRating(l)
		l.RenovationNeededRating = &v
	}
}

func pricePerM2(l *models.Listing) (float64, bool) {
	if l.PriceTotal == nil || l.AreaM2 == nil || *l.AreaM2 <= 0 {
		return 0, false
	}
	return math.Round(*l.PriceTotal / *l.AreaM2*100) / 100, true
}

// Loan is the financed amount after the down payment.
func Loan(price, downPaymentFraction float64) float64 {
	return price * (1 - downPaymentFraction)
}

// MonthlyPayment is the standard amortizing payment
// L*(r*(1+r)^n)/((1+r)^n - 1) with monthly rate r and n payments.
// A zero interest rate degenerates to straight division.
func MonthlyPayment(loan, annualRatePercent float64, termYears int) float64 {
	if loan <= 0 || termYears <= 0 {
		return 0
	}
	n := float64(termYears * 12)
	r := annualRatePercent / 100 / 12
	if r == 0 {
		return math.Round(loan/n*100) / 100
	}
	growth := math.Pow(1+r, n)
	payment := loan * (r * growth) / (growth - 1)
	return math.Round(payment*100) / 100
}

// Austrian standard operating-cost rates per m², excl. VAT.
const (
	heizkostenRate = 1.22
	reparaturRate  = 1.29
	otherCostRate  = 2.21
	vatRate        = 0.0911
)

// EstimateBetriebskosten estimates monthly operating costs incl. VAT
// from living area when the listing does not state them.
func EstimateBetriebskosten(areaM2 float64) float64 {
	if areaM2 <= 0 {
		return 0
	}
	subtotal := areaM2 * (heizkostenRate + reparaturRate + otherCostRate)
	return math.Round(subtotal*(1+vatRate)*100) / 100
}

func totalMonthlyCost(l *models.Listing) (float64, bool) {
	if l.MonthlyRate == nil && l.Betriebskosten == nil {
		return 0, false
	}
	var total float64
	if l.MonthlyRate != nil {
		total += *l.MonthlyRate
	}
	if l.Betriebskosten != nil {
		total += *l.Betriebskosten
	}
	return math.Round(total*100) / 100, true
}

// EnergyClassFromHWB maps a heating demand figure (kWh/m²a) to the
// Austrian energy certificate class.
func EnergyClassFromHWB(hwb float64) string {
	switch {
	case hwb <= 10:
		return "A++"
	case hwb <= 15:
		return "A+"
	case hwb <= 25:
		return "A"
	case hwb <= 50:
		return "B"
	case hwb <= 100:
		return "C"
	case hwb <= 150:
		return "D"
	case hwb <= 200:
		return "E"
	case hwb <= 250:
		return "F"
	default:
		return "G"
	}
}

// HasBalconyTerrace reports whether the title or the collected feature
// notes mention outdoor space.
func HasBalconyTerrace(l *models.Listing) bool {
	keywords := []string{"balkon", "terrasse", "loggia"}
	for _, f := range l.SpecialFeatures {
		lower := strings.ToLower(f)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	if l.Title != nil {
		lower := strings.ToLower(*l.Title)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

var floorMarkers = []struct {
	marker string
	level  int
}{
	{"erdgeschoss", 0},
	{"parterre", 0},
	{"1. stock", 1}, {"1. og", 1},
	{"2. stock", 2}, {"2. og", 2},
	{"3. stock", 3}, {"3. og", 3},
	{"4. stock", 4}, {"4. og", 4},
	{"5. stock", 5}, {"5. og", 5},
}

func floorLevelFromTitle(l *models.Listing) (int, bool) {
	if l.Title == nil {
		return 0, false
	}
	lower := strings.ToLower(*l.Title)
	for _, fm := range floorMarkers {
		if strings.Contains(lower, fm.marker) {
			return fm.level, true
		}
	}
	return 0, false
}
