package extractor

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"immo-scouter/models"
)

const derStandardBase = "https://immobilien.derstandard.at"

// collectionMinIDs is the number of distinct /detail/ IDs a page must
// link before it counts as a project collection rather than a single
// unit with related-listing teasers.
const collectionMinIDs = 8

// DerStandard extracts listings from immobilien.derstandard.at. Project
// pages bundle many units; those are expanded into their child detail
// URLs instead of being extracted as one listing.
type DerStandard struct{}

func (d *DerStandard) Source() models.Source { return models.SourceDerStandard }

func (d *DerStandard) ListingURLs(p *Page) []string {
	seen := make(map[string]bool)
	var urls []string
	p.Doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, "/detail/") &&
			!strings.Contains(href, "/immobiliendetail/") &&
			!strings.Contains(href, "/projektdetail/") {
			return
		}
		u := absoluteURL(derStandardBase, href)
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	})
	return urls
}

func (d *DerStandard) CollectionURLs(p *Page) ([]string, bool) {
	if !d.isCollection(p) {
		return nil, false
	}
	seen := make(map[string]bool)
	var urls []string
	p.Doc.Find("a[href*='/detail/']").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u := absoluteURL(derStandardBase, href)
		if u != p.URL && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	})
	return urls, true
}

func (d *DerStandard) isCollection(p *Page) bool {
	for _, sel := range []string{".sc-project-overview", ".sc-multiple-properties"} {
		if p.Doc.Find(sel).Length() > 0 {
			return true
		}
	}
	if len(d.detailIDs(p)) >= collectionMinIDs {
		return true
	}
	lower := strings.ToLower(p.Text)
	for _, marker := range []string{"mehrere objekte verfügbar", "projekt mit mehreren wohnungen", "neubauprojekt"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (d *DerStandard) detailIDs(p *Page) map[string]bool {
	ids := make(map[string]bool)
	p.Doc.Find("a[href*='/detail/']").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		_, rest, ok := strings.Cut(href, "/detail/")
		if !ok {
			return
		}
		id, _, _ := strings.Cut(rest, "/")
		id, _, _ = strings.Cut(id, "?")
		if id != "" && isDigits(id) {
			ids[id] = true
		}
	})
	return ids
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func (d *DerStandard) Extract(p *Page) (*models.Listing, error) {
	l := &models.Listing{
		URL:         p.URL,
		Source:      models.SourceDerStandard,
		ProcessedAt: time.Now(),
	}

	if t := firstText(p.Doc, "h1", ".sc-detail-title"); t != "" {
		l.Title = &t
	}

	priceText := firstText(p.Doc, "[class*='price']", "[class*='kaufpreis']", ".sc-price")
	if v, ok := euroAmountFrom(priceText); ok {
		l.PriceTotal = &v
	} else if v, ok := euroAmountFrom(p.Text); ok {
		l.PriceTotal = &v
	}

	if v, ok := areaFrom(firstText(p.Doc, "[class*='area']", "[class*='flaeche']")); ok {
		l.AreaM2 = &v
	} else if v, ok := areaFrom(p.Text); ok {
		l.AreaM2 = &v
	}

	if v, ok := roomsFrom(firstText(p.Doc, "[class*='rooms']", "[class*='zimmer']")); ok {
		l.Rooms = &v
	} else if v, ok := roomsFrom(p.Text); ok {
		l.Rooms = &v
	}

	addr := firstText(p.Doc, "[class*='address']", "[class*='location']")
	if addr != "" {
		l.Address = &addr
	}
	if b, ok := bezirkFrom(addr); ok {
		l.Bezirk = &b
	} else if b, ok := bezirkFrom(p.Text); ok {
		l.Bezirk = &b
	}

	if y, ok := yearFrom(p.Text); ok {
		l.YearBuilt = &y
	}
	if c := labeledValue(p.Text, "Zustand"); c != "" {
		l.Condition = &c
	}
	if h := labeledValue(p.Text, "Heizung"); h != "" {
		l.Heating = &h
	}
	if v, ok := hwbFrom(p.Text); ok {
		l.HWBValue = &v
	}
	if ec, ok := energyClassFrom(p.Text); ok {
		l.EnergyClass = &ec
	}
	if v, ok := betriebskostenFrom(p.Text); ok {
		l.Betriebskosten = &v
	}
	if img := firstAttr(p.Doc, "src", "[class*='gallery'] img", "picture img", "img[alt*='Immobilie']"); img != "" {
		l.ImageURL = &img
	}
	l.SpecialFeatures = specialFeaturesFrom(p.Text)

	if l.Title == nil && l.PriceTotal == nil && l.AreaM2 == nil {
		return nil, ErrUnparseable
	}
	return l, nil
}
