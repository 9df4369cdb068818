package normalize

import (
	"math"
	"testing"

	"immo-scouter/config"
	"immo-scouter/models"
)

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name  string
		loan  float64
		rate  float64
		years int
		want  float64
	}{
		// Cross-checked against a standard annuity calculator.
		{"typical loan", 240000, 3.5, 35, 991.90},
		{"zero interest", 240000, 0, 35, 571.43},
		{"zero loan", 0, 3.5, 35, 0},
		{"zero term", 240000, 3.5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyPayment(tt.loan, tt.rate, tt.years)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("MonthlyPayment(%v, %v, %v) = %v; want %v", tt.loan, tt.rate, tt.years, got, tt.want)
			}
		})
	}
}

func TestMonthlyPaymentMonotonicInRate(t *testing.T) {
	prev := MonthlyPayment(300000, 0, 30)
	for _, rate := range []float64{1, 2, 3.5, 5, 7} {
		got := MonthlyPayment(300000, rate, 30)
		if got <= prev {
			t.Fatalf("payment at %v%% = %v, not above %v", rate, got, prev)
		}
		prev = got
	}
}

func TestLoan(t *testing.T) {
	if got := Loan(300000, 0.20); got != 240000 {
		t.Errorf("Loan = %v; want 240000", got)
	}
}

func TestEstimateBetriebskosten(t *testing.T) {
	// 80 m² at the standard rates: 80*4.72*1.0911
	got := EstimateBetriebskosten(80)
	want := math.Round(80*4.72*1.0911*100) / 100
	if got != want {
		t.Errorf("EstimateBetriebskosten(80) = %v; want %v", got, want)
	}
	if got := EstimateBetriebskosten(0); got != 0 {
		t.Errorf("EstimateBetriebskosten(0) = %v; want 0", got)
	}
}

func TestEnergyClassFromHWB(t *testing.T) {
	tests := []struct {
		hwb  float64
		want string
	}{
		{8, "A++"}, {12, "A+"}, {20, "A"}, {40, "B"},
		{95, "C"}, {140, "D"}, {180, "E"}, {230, "F"}, {300, "G"},
	}
	for _, tt := range tests {
		if got := EnergyClassFromHWB(tt.hwb); got != tt.want {
			t.Errorf("EnergyClassFromHWB(%v) = %q; want %q", tt.hwb, got, tt.want)
		}
	}
}

func TestApplyDerivesFields(t *testing.T) {
	l := &models.Listing{
		URL:        "https://example.at/1",
		Source:     models.SourceWillhaben,
		Title:      models.Ptr("Wohnung mit Balkon, 3. Stock"),
		Bezirk:     models.Ptr("1050"),
		PriceTotal: models.Ptr(300000.0),
		AreaM2:     models.Ptr(75.0),
		HWBValue:   models.Ptr(95.0),
	}
	Apply(l, config.Mortgage{DownPaymentFraction: 0.20, AnnualRatePercent: 3.5, TermYears: 35})

	if l.PricePerM2 == nil || *l.PricePerM2 != 4000 {
		t.Errorf("pricePerM2 = %v; want 4000", l.PricePerM2)
	}
	if l.MonthlyRate == nil || *l.MonthlyRate <= 0 {
		t.Errorf("monthlyRate = %v; want positive", l.MonthlyRate)
	}
	if l.Betriebskosten == nil || *l.Betriebskosten <= 0 {
		t.Errorf("betriebskosten = %v; want positive", l.Betriebskosten)
	}
	if l.TotalMonthlyCost == nil || *l.TotalMonthlyCost != *l.MonthlyRate+*l.Betriebskosten {
		t.Errorf("totalMonthlyCost = %v", l.TotalMonthlyCost)
	}
	if l.EnergyClass == nil || *l.EnergyClass != "C" {
		t.Errorf("energyClass = %v; want C", l.EnergyClass)
	}
	if l.UBahnWalkMinutes == nil || *l.UBahnWalkMinutes != 5 {
		t.Errorf("ubahnWalkMinutes = %v; want 5", l.UBahnWalkMinutes)
	}
	if l.SchoolWalkMinutes == nil || *l.SchoolWalkMinutes != 6 {
		t.Errorf("schoolWalkMinutes = %v; want 6", l.SchoolWalkMinutes)
	}
	if l.BalconyTerrace == nil || !*l.BalconyTerrace {
		t.Errorf("balconyTerrace = %v; want true", l.BalconyTerrace)
	}
	if l.FloorLevel == nil || *l.FloorLevel != 3 {
		t.Errorf("floorLevel = %v; want 3", l.FloorLevel)
	}
	if l.PotentialGrowthRating == nil || *l.PotentialGrowthRating < 1 || *l.PotentialGrowthRating > 5 {
		t.Errorf("potentialGrowthRating = %v", l.PotentialGrowthRating)
	}
	if l.RenovationNeededRating == nil || *l.RenovationNeededRating < 1 || *l.RenovationNeededRating > 5 {
		t.Errorf("renovationNeededRating = %v", l.RenovationNeededRating)
	}
}

func TestApplyKeepsExtractedValues(t *testing.T) {
	l := &models.Listing{
		URL:            "https://example.at/2",
		Source:         models.SourceWillhaben,
		PriceTotal:     models.Ptr(300000.0),
		AreaM2:         models.Ptr(75.0),
		Betriebskosten: models.Ptr(210.0),
	}
	Apply(l, config.Mortgage{DownPaymentFraction: 0.20, AnnualRatePercent: 3.5, TermYears: 35})
	if *l.Betriebskosten != 210 {
		t.Errorf("extracted Betriebskosten overwritten: %v", *l.Betriebskosten)
	}
}

func TestApplyMissingInputsLeaveFieldsUnset(t *testing.T) {
	l := &models.Listing{URL: "https://example.at/3", Source: models.SourceWillhaben}
	Apply(l, config.Mortgage{DownPaymentFraction: 0.20, AnnualRatePercent: 3.5, TermYears: 35})
	if l.PricePerM2 != nil {
		t.Errorf("pricePerM2 = %v; want nil without price and area", *l.PricePerM2)
	}
	if l.MonthlyRate != nil {
		t.Errorf("monthlyRate = %v; want nil without price", *l.MonthlyRate)
	}
	if l.UBahnWalkMinutes != nil {
		t.Errorf("ubahnWalkMinutes = %v; want nil without district", *l.UBahnWalkMinutes)
	}
	if l.FloorLevel != nil {
		t.Errorf("floorLevel = %v; want nil without title", *l.FloorLevel)
	}
}

func TestPotentialGrowthRatingBuckets(t *testing.T) {
	newPremium := &models.Listing{
		YearBuilt:        models.Ptr(2022),
		Bezirk:           models.Ptr("1010"),
		EnergyClass:      models.Ptr("A"),
		Condition:        models.Ptr("Erstbezug"),
		UBahnWalkMinutes: models.Ptr(3),
	}
	if got := PotentialGrowthRating(newPremium); got != 5 {
		t.Errorf("new premium listing = %d; want 5", got)
	}

	oldOuter := &models.Listing{
		YearBuilt:   models.Ptr(1950),
		EnergyClass: models.Ptr("F"),
	}
	if got := PotentialGrowthRating(oldOuter); got != 1 {
		t.Errorf("old unrenovated listing = %d; want 1", got)
	}

	empty := &models.Listing{}
	if got := PotentialGrowthRating(empty); got != 1 {
		t.Errorf("empty listing = %d; want 1", got)
	}
}

func TestRenovationNeededRatingBuckets(t *testing.T) {
	rundown := &models.Listing{
		YearBuilt:   models.Ptr(1950),
		EnergyClass: models.Ptr("G"),
		Condition:   models.Ptr("sanierungsbedürftig"),
		Heating:     models.Ptr("Ölheizung"),
	}
	if got := RenovationNeededRating(rundown); got != 5 {
		t.Errorf("rundown listing = %d; want 5", got)
	}

	fresh := &models.Listing{
		YearBuilt:   models.Ptr(2023),
		EnergyClass: models.Ptr("A"),
		Condition:   models.Ptr("Erstbezug"),
		Heating:     models.Ptr("Fernwärme"),
	}
	if got := RenovationNeededRating(fresh); got != 1 {
		t.Errorf("fresh listing = %d; want 1", got)
	}
}

func TestDistrictHelpers(t *testing.T) {
	if !IsViennaDistrict("1010") || IsViennaDistrict("8010") {
		t.Error("IsViennaDistrict misclassifies")
	}
	if got := DistrictName("1050"); got != "Margareten" {
		t.Errorf("DistrictName(1050) = %q", got)
	}
	if got := DistrictName("9999"); got != "9999" {
		t.Errorf("DistrictName(9999) = %q", got)
	}
	if got := UBahnWalkMinutes("1110"); got != 10 {
		t.Errorf("UBahnWalkMinutes default = %d; want 10", got)
	}
}
