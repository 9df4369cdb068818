package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Plausibility bounds for numeric field extraction. A regex match
// outside its bound is treated as "not found", never as an error:
// accepting it would poison the record with a false positive.
const (
	minPlausibleArea  = 20.0
	maxPlausibleArea  = 500.0
	minPlausiblePrice = 1000.0
	maxPlausiblePrice = 100_000_000.0
	minPlausibleRooms = 1.0
	maxPlausibleRooms = 20.0
	minPlausibleYear  = 1800
	minPlausibleHWB   = 1.0
	maxPlausibleHWB   = 500.0
)

var (
	wsRe = regexp.MustCompile(`\s+`)

	euroRe     = regexp.MustCompile(`€\s*([\d.]+(?:,\d+)?)`)
	areaRe     = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*m²`)
	roomsRe    = regexp.MustCompile(`(\d+(?:[.,]\d)?)\s*Zimmer`)
	yearRe     = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)
	hwbRe      = regexp.MustCompile(`HWB[^\d]{0,20}(\d+(?:[.,]\d+)?)`)
	bezirkRes  = []*regexp.Regexp{
		regexp.MustCompile(`\b(1\d{2}0)\s+Wien\b`),
		regexp.MustCompile(`\bWien\s+(1\d{2}0)\b`),
		regexp.MustCompile(`\b(1\d{2}0)\s*,\s*Wien\b`),
	}
	energyClassRe    = regexp.MustCompile(`(?i)Energieklasse[:\s]*([A-G]\+{0,2})\b`)
	betriebskostenRe = regexp.MustCompile(`Betriebskosten[^\d€\n]{0,15}€?\s*([\d.]+(?:,\d+)?)`)
)

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}

// parseEuroAmount converts Austrian-format amounts ("298.000" or
// "4.350,50") to a float. Thousands separators are dots, the decimal
// separator a comma.
func parseEuroAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseDecimal converts "85,5" or "85.5" to a float.
func parseDecimal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// euroAmountFrom scans text for the first plausible euro amount.
func euroAmountFrom(text string) (float64, bool) {
	for _, m := range euroRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseEuroAmount(m[1]); ok && v >= minPlausiblePrice && v <= maxPlausiblePrice {
			return v, true
		}
	}
	return 0, false
}

// areaFrom scans text for the first plausible m² figure.
func areaFrom(text string) (float64, bool) {
	for _, m := range areaRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseDecimal(m[1]); ok && v >= minPlausibleArea && v <= maxPlausibleArea {
			return v, true
		}
	}
	return 0, false
}

// roomsFrom scans text for a plausible room count.
func roomsFrom(text string) (float64, bool) {
	for _, m := range roomsRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseDecimal(m[1]); ok && v >= minPlausibleRooms && v <= maxPlausibleRooms {
			return v, true
		}
	}
	return 0, false
}

// yearFrom scans text near construction keywords for a plausible year.
// Out-of-range years (futures beyond next year, pre-1800) are skipped.
func yearFrom(text string) (int, bool) {
	maxYear := time.Now().Year() + 1
	for _, kw := range []string{"Baujahr", "Errichtung", "Bauzeit", "erbaut"} {
		idx := strings.Index(text, kw)
		if idx < 0 {
			continue
		}
		window := text[idx:min(idx+60, len(text))]
		if m := yearRe.FindStringSubmatch(window); m != nil {
			y, _ := strconv.Atoi(m[1])
			if y >= minPlausibleYear && y <= maxYear {
				return y, true
			}
		}
	}
	return 0, false
}

// hwbFrom scans text for a plausible HWB energy figure.
func hwbFrom(text string) (float64, bool) {
	for _, m := range hwbRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseDecimal(m[1]); ok && v >= minPlausibleHWB && v <= maxPlausibleHWB {
			return v, true
		}
	}
	return 0, false
}

// bezirkFrom extracts a Vienna district code ("1010".."1230").
func bezirkFrom(text string) (string, bool) {
	for _, re := range bezirkRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// energyClassFrom extracts an energy efficiency class label.
// betriebskostenFrom extracts the monthly running-cost figure.
func betriebskostenFrom(text string) (float64, bool) {
	if m := betriebskostenRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseEuroAmount(m[1]); ok && v > 0 && v < 10_000 {
			return v, true
		}
	}
	return 0, false
}

// labeledValue pulls the value following a "Label: value" pair out of
// flattened page text. German portal pages render attribute tables this
// way once tags are stripped.
func labeledValue(text, label string) string {
	re := regexp.MustCompile(regexp.QuoteMeta(label) + `[:\s]\s*([^\n€]{1,60})`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v := normalizeWhitespace(m[1])
	// Cut at the next label-looking token to keep the value short.
	if idx := strings.Index(v, ":"); idx > 0 {
		fields := strings.Fields(v[:idx])
		if len(fields) > 1 {
			v = strings.Join(fields[:len(fields)-1], " ")
		}
	}
	return strings.TrimSpace(v)
}

func energyClassFrom(text string) (string, bool) {
	if m := energyClassRe.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1]), true
	}
	return "", false
}

// firstText returns the trimmed text of the first selector that
// matches with non-empty content. Selector priority is the contract:
// earlier entries are more trusted.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if s := strings.TrimSpace(doc.Find(sel).First().Text()); s != "" {
			return normalizeWhitespace(s)
		}
	}
	return ""
}

// firstAttr returns the named attribute of the first selector match.
func firstAttr(doc *goquery.Document, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// collectText joins the text of every node matching any selector,
// separated by newlines so label/value pairs stay on their own lines.
func collectText(p *Page, selectors ...string) string {
	var b strings.Builder
	for _, sel := range selectors {
		p.Doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if t := normalizeWhitespace(s.Text()); t != "" {
				b.WriteString(t)
				b.WriteByte('\n')
			}
		})
	}
	return b.String()
}

// absoluteURL resolves href against a site base.
func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
}

// featureKeywords are the free-text notes worth keeping on a record.
var featureKeywords = []string{
	"balkon", "terrasse", "loggia", "garten", "lift", "garage",
	"vermietet", "befristet", "sanierungsbedürftig", "erstbezug",
	"dachgeschoss", "altbau", "neubau",
}

// specialFeaturesFrom collects matched feature keywords from text.
func specialFeaturesFrom(text string) []string {
	lower := strings.ToLower(text)
	var features []string
	for _, kw := range featureKeywords {
		if strings.Contains(lower, kw) {
			features = append(features, kw)
		}
	}
	return features
}
