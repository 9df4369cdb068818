package extractor

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"immo-scouter/models"
)

const immoKurierBase = "https://immo.kurier.at"

// ImmoKurier extracts listings from immo.kurier.at. The site is server
// rendered, so selectors plus the regex cascade cover everything.
type ImmoKurier struct{}

func (k *ImmoKurier) Source() models.Source { return models.SourceImmoKurier }

func (k *ImmoKurier) ListingURLs(p *Page) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, sel := range []string{
		"a[href*='/immobilien/']",
		".ci-search-result__link[href*='/immobilien/']",
		"a[data-href*='/immobilien/']",
	} {
		p.Doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				href, ok = s.Attr("data-href")
			}
			if !ok || !strings.Contains(href, "/immobilien/") {
				return
			}
			// Search and category pages also live under /immobilien/.
			if strings.Contains(href, "/suche") || strings.HasSuffix(strings.TrimRight(href, "/"), "/immobilien") {
				return
			}
			u := absoluteURL(immoKurierBase, href)
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		})
	}
	return urls
}

func (k *ImmoKurier) CollectionURLs(p *Page) ([]string, bool) { return nil, false }

func (k *ImmoKurier) Extract(p *Page) (*models.Listing, error) {
	l := &models.Listing{
		URL:         p.URL,
		Source:      models.SourceImmoKurier,
		ProcessedAt: time.Now(),
	}

	if t := firstText(p.Doc, "h1", ".property-title", ".expose-title", "[data-testid*='title']"); t != "" {
		l.Title = &t
	}

	priceText := firstText(p.Doc,
		".eps-item-price", ".property-price", ".expose-price",
		"[data-testid*='price']", ".price", ".price-value", ".kaufpreis")
	// "Preis auf Anfrage" placeholders carry no amount.
	if !strings.Contains(strings.ToLower(priceText), "anfrage") {
		if v, ok := euroAmountFrom(priceText); ok {
			l.PriceTotal = &v
		}
	}
	if l.PriceTotal == nil {
		if v, ok := euroAmountFrom(p.Text); ok {
			l.PriceTotal = &v
		}
	}

	areaText := firstText(p.Doc,
		".eps-item-area", ".property-area", ".expose-area",
		"[data-testid*='area']", ".wohnflaeche", ".flaeche")
	if v, ok := areaFrom(areaText); ok {
		l.AreaM2 = &v
	} else if v, ok := areaFrom(p.Text); ok {
		l.AreaM2 = &v
	}

	roomsText := firstText(p.Doc,
		".eps-item-rooms", ".property-rooms", ".expose-rooms",
		"[data-testid*='rooms']", ".zimmer")
	if v, ok := roomsFrom(roomsText); ok {
		l.Rooms = &v
	} else if v, ok := roomsFrom(p.Text); ok {
		l.Rooms = &v
	}

	addr := firstText(p.Doc,
		".property-address", ".expose-address", ".address",
		"[data-testid*='address']", ".location")
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
	if img := firstAttr(p.Doc, "src", ".expose-gallery img", ".property-image img", "picture img"); img != "" {
		l.ImageURL = &img
	}
	l.SpecialFeatures = specialFeaturesFrom(p.Text)

	if l.Title == nil && l.PriceTotal == nil && l.AreaM2 == nil {
		return nil, ErrUnparseable
	}
	return l, nil
}
