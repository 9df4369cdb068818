package scoring

import (
	"math"
	"testing"

	"immo-scouter/config"
	"immo-scouter/models"
)

func TestNormalize(t *testing.T) {
	lower := config.Range{Min: 3500, Max: 8000, Direction: "lower_is_better"}
	higher := config.Range{Min: 70, Max: 150, Direction: "higher_is_better"}

	tests := []struct {
		name string
		v    float64
		r    config.Range
		want float64
	}{
		{"lower at min", 3500, lower, 100},
		{"lower below min", 2000, lower, 100},
		{"lower at max", 8000, lower, 0},
		{"lower above max", 12000, lower, 0},
		{"lower midpoint", 5750, lower, 50},
		{"higher at max", 150, higher, 100},
		{"higher at min", 70, higher, 0},
		{"higher midpoint", 110, higher, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.v, tt.r); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Normalize(%v) = %v; want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestNormalizeDegenerateRange(t *testing.T) {
	if got := Normalize(5, config.Range{Min: 3, Max: 3}); got != 0 {
		t.Errorf("degenerate range = %v; want 0", got)
	}
}

func TestScoreTwoCriteria(t *testing.T) {
	// Two equally weighted criteria normalizing to 80 and 60 must give
	// exactly 70.
	ranges := map[string]config.Range{
		"area_m2": {Min: 0, Max: 100, Direction: "higher_is_better"},
		"rooms":   {Min: 0, Max: 5, Direction: "higher_is_better"},
	}
	p := config.Profile{Name: "test", Weights: map[string]float64{
		"area_m2": 0.5,
		"rooms":   0.5,
	}}
	l := &models.Listing{
		AreaM2: models.Ptr(80.0), // -> 80
		Rooms:  models.Ptr(3.0),  // -> 60
	}
	got, breakdown := Score(l, ranges, p)
	if got != 70.0 {
		t.Fatalf("score = %v; want 70.0", got)
	}
	if breakdown["area_m2"].Normalized != 80 || breakdown["rooms"].Normalized != 60 {
		t.Errorf("breakdown = %+v", breakdown)
	}
}

func TestScoreMissingValueContributesZero(t *testing.T) {
	ranges := map[string]config.Range{
		"area_m2": {Min: 0, Max: 100, Direction: "higher_is_better"},
		"rooms":   {Min: 0, Max: 5, Direction: "higher_is_better"},
	}
	p := config.Profile{Name: "test", Weights: map[string]float64{
		"area_m2": 0.5,
		"rooms":   0.5,
	}}
	// Rooms missing: its weight stays in the sum, so the total halves
	// instead of renormalizing over area alone.
	l := &models.Listing{AreaM2: models.Ptr(80.0)}
	got, breakdown := Score(l, ranges, p)
	if got != 40.0 {
		t.Fatalf("score = %v; want 40.0", got)
	}
	if breakdown["rooms"].Value != nil || breakdown["rooms"].Weighted != 0 {
		t.Errorf("missing criterion breakdown = %+v", breakdown["rooms"])
	}
}

func TestScoreAllMissingIsZero(t *testing.T) {
	cfg := config.Default()
	p, err := cfg.Profile("default")
	if err != nil {
		t.Fatal(err)
	}
	got, _ := Score(&models.Listing{}, cfg.Ranges, p)
	if got != 0 {
		t.Errorf("score of empty listing = %v; want 0", got)
	}
}

func TestScoreBoundsAndDeterminism(t *testing.T) {
	cfg := config.Default()
	p, err := cfg.Profile("default")
	if err != nil {
		t.Fatal(err)
	}
	ideal := &models.Listing{
		PricePerM2:             models.Ptr(3000.0),
		HWBValue:               models.Ptr(15.0),
		YearBuilt:              models.Ptr(2025),
		UBahnWalkMinutes:       models.Ptr(2),
		SchoolWalkMinutes:      models.Ptr(3),
		Rooms:                  models.Ptr(5.0),
		AreaM2:                 models.Ptr(150.0),
		BalconyTerrace:         models.Ptr(true),
		FloorLevel:             models.Ptr(5),
		PotentialGrowthRating:  models.Ptr(5),
		RenovationNeededRating: models.Ptr(1),
	}
	first, _ := Score(ideal, cfg.Ranges, p)
	if first != 100.0 {
		t.Errorf("ideal listing = %v; want 100.0", first)
	}
	for i := 0; i < 10; i++ {
		if again, _ := Score(ideal, cfg.Ranges, p); again != first {
			t.Fatalf("score not deterministic: %v then %v", first, again)
		}
	}
}

func TestScoreBooleanCriterion(t *testing.T) {
	ranges := map[string]config.Range{
		"balcony_terrace": {Min: 0, Max: 1, Direction: "higher_is_better"},
	}
	p := config.Profile{Name: "test", Weights: map[string]float64{"balcony_terrace": 1.0}}

	withBalcony, _ := Score(&models.Listing{BalconyTerrace: models.Ptr(true)}, ranges, p)
	if withBalcony != 100.0 {
		t.Errorf("with balcony = %v; want 100", withBalcony)
	}
	without, _ := Score(&models.Listing{BalconyTerrace: models.Ptr(false)}, ranges, p)
	if without != 0.0 {
		t.Errorf("without balcony = %v; want 0", without)
	}
}
