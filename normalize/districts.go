package normalize

// Fallback walking times per Vienna district, used when no
// address-level geocoding result is available.
var ubahnWalkTimes = map[string]int{
	"1010": 3, "1020": 5, "1030": 6, "1040": 4, "1050": 5,
	"1060": 4, "1070": 3, "1080": 4, "1090": 5, "1100": 8,
	"1120": 6, "1130": 10, "1140": 8, "1150": 6, "1160": 7,
	"1190": 12, "1210": 10, "1220": 15, "1230": 12,
}

var schoolWalkTimes = map[string]int{
	"1010": 5, "1020": 6, "1030": 7, "1040": 5, "1050": 6,
	"1060": 5, "1070": 4, "1080": 5, "1090": 6, "1100": 8,
	"1120": 7, "1130": 10, "1140": 8, "1150": 7, "1160": 8,
	"1190": 12, "1210": 10, "1220": 12, "1230": 10,
}

var districtNames = map[string]string{
	"1010": "Innere Stadt", "1020": "Leopoldstadt", "1030": "Landstraße",
	"1040": "Wieden", "1050": "Margareten", "1060": "Mariahilf",
	"1070": "Neubau", "1080": "Josefstadt", "1090": "Alsergrund",
	"1100": "Favoriten", "1110": "Simmering", "1120": "Meidling",
	"1130": "Hietzing", "1140": "Penzing", "1150": "Rudolfsheim-Fünfhaus",
	"1160": "Ottakring", "1170": "Hernals", "1180": "Währing",
	"1190": "Döbling", "1200": "Brigittenau", "1210": "Floridsdorf",
	"1220": "Donaustadt", "1230": "Liesing",
}

// UBahnWalkMinutes returns the district-level walk time to the nearest
// U-Bahn station, with a conservative default for unknown districts.
func UBahnWalkMinutes(bezirk string) int {
	if m, ok := ubahnWalkTimes[bezirk]; ok {
		return m
	}
	return 10
}

// SchoolWalkMinutes returns the district-level walk time to the
// nearest school.
func SchoolWalkMinutes(bezirk string) int {
	if m, ok := schoolWalkTimes[bezirk]; ok {
		return m
	}
	return 8
}

// IsViennaDistrict reports whether code names one of the 23 Vienna
// districts.
func IsViennaDistrict(code string) bool {
	_, ok := districtNames[code]
	return ok
}

// DistrictName returns the human-readable district name, or the code
// itself when unknown.
func DistrictName(code string) string {
	if name, ok := districtNames[code]; ok {
		return name
	}
	return code
}
