package extractor

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"immo-scouter/models"
)

const willhabenBase = "https://www.willhaben.at"

// Willhaben extracts listings from willhaben.at detail pages. The page
// embeds a __NEXT_DATA__ JSON blob which is the most trusted field
// source; CSS selectors and the plain-text regex cascade are fallbacks,
// in that order.
type Willhaben struct{}

func (w *Willhaben) Source() models.Source { return models.SourceWillhaben }

func (w *Willhaben) ListingURLs(p *Page) []string {
	seen := make(map[string]bool)
	var urls []string
	p.Doc.Find("a[href*='/iad/immobilien/d/']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		u := absoluteURL(willhabenBase, href)
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	})
	return urls
}

// Willhaben detail pages advertise single units; project collections
// live on a separate vertical we do not crawl.
func (w *Willhaben) CollectionURLs(p *Page) ([]string, bool) { return nil, false }

func (w *Willhaben) Extract(p *Page) (*models.Listing, error) {
	l := &models.Listing{
		URL:         p.URL,
		Source:      models.SourceWillhaben,
		ProcessedAt: time.Now(),
	}

	attrs := parseNextData(p)
	w.applyStructured(l, attrs)

	if l.Title == nil {
		if t := firstText(p.Doc, "h1[data-testid='ad-detail-header'] span", "h1"); t != "" {
			l.Title = &t
		}
	}

	if l.PriceTotal == nil {
		priceText := firstText(p.Doc,
			"[data-testid='contact-box-price-box']",
			"[data-testid*='price']",
			".price-box", ".price-value")
		if v, ok := euroAmountFrom(priceText); ok {
			l.PriceTotal = &v
		} else if v, ok := euroAmountFrom(p.Text); ok {
			l.PriceTotal = &v
		}
	}

	attrText := collectText(p, "[data-testid*='attribute']", ".teaser-attribute", ".attribute-item")
	if l.AreaM2 == nil {
		if v, ok := areaFrom(attrText); ok {
			l.AreaM2 = &v
		} else if v, ok := areaFrom(p.Text); ok {
			l.AreaM2 = &v
		}
	}
	if l.Rooms == nil {
		if v, ok := roomsFrom(attrText); ok {
			l.Rooms = &v
		} else if v, ok := roomsFrom(p.Text); ok {
			l.Rooms = &v
		}
	}
	if l.YearBuilt == nil {
		if y, ok := yearFrom(p.Text); ok {
			l.YearBuilt = &y
		}
	}

	if b, ok := bezirkFrom(p.Text); ok {
		l.Bezirk = &b
	}
	if l.Address == nil {
		if a := firstText(p.Doc, "[data-testid='object-location-address']", ".address-line"); a != "" {
			l.Address = &a
		}
	}
	if c := labeledValue(p.Text, "Zustand"); c != "" {
		l.Condition = &c
	}
	if l.Heating == nil {
		if h := labeledValue(p.Text, "Heizung"); h != "" {
			l.Heating = &h
		}
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
	if img := firstAttr(p.Doc, "src", "[data-testid='ad-detail-image'] img", "picture img", "img[itemprop='image']"); img != "" {
		l.ImageURL = &img
	}
	l.SpecialFeatures = specialFeaturesFrom(p.Text)

	if l.Title == nil && l.PriceTotal == nil && l.AreaM2 == nil {
		return nil, ErrUnparseable
	}
	return l, nil
}

// nextData mirrors the slice of the __NEXT_DATA__ payload we read.
type nextData struct {
	Props struct {
		PageProps struct {
			AdvertDetails struct {
				Attributes struct {
					Attribute []nextAttr `json:"attribute"`
				} `json:"attributes"`
			} `json:"advertDetails"`
		} `json:"pageProps"`
	} `json:"props"`
}

type nextAttr struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

func parseNextData(p *Page) []nextAttr {
	raw := p.Doc.Find("script#__NEXT_DATA__").First().Text()
	if raw == "" {
		return nil
	}
	var nd nextData
	if err := json.Unmarshal([]byte(raw), &nd); err != nil {
		return nil
	}
	return nd.Props.PageProps.AdvertDetails.Attributes.Attribute
}

var heatingTypeRe = regexp.MustCompile(`Heizungsart:\s*([^<\n]+)`)

func (w *Willhaben) applyStructured(l *models.Listing, attrs []nextAttr) {
	maxYear := time.Now().Year() + 1
	for _, attr := range attrs {
		if len(attr.Values) == 0 {
			continue
		}
		value := attr.Values[0]

		switch {
		case attr.Name == "LOCATION/ADDRESS_2":
			v := normalizeWhitespace(value)
			l.Address = &v
		case attr.Name == "HEADING":
			v := normalizeWhitespace(value)
			l.Title = &v
		case attr.Name == "PRICE":
			if v, ok := parseEuroAmount(value); ok && v >= minPlausiblePrice && v <= maxPlausiblePrice {
				l.PriceTotal = &v
			}
		case attr.Name == "ESTATE_SIZE/LIVING_AREA":
			if v, ok := parseDecimal(value); ok && v >= minPlausibleArea && v <= maxPlausibleArea {
				l.AreaM2 = &v
			}
		case attr.Name == "NUMBER_OF_ROOMS":
			if v, ok := parseDecimal(value); ok && v >= minPlausibleRooms && v <= maxPlausibleRooms {
				l.Rooms = &v
			}
		case strings.Contains(heatLower(attr.Name, value), "heizungsart:"):
			if m := heatingTypeRe.FindStringSubmatch(value); m != nil {
				v := strings.TrimSpace(m[1])
				l.Heating = &v
			}
		case containsYearKeyword(attr.Name, value):
			if m := yearRe.FindStringSubmatch(value); m != nil {
				y, _ := strconv.Atoi(m[1])
				if y >= minPlausibleYear && y <= maxYear {
					l.YearBuilt = &y
				}
			}
		}
	}
}

func heatLower(name, value string) string {
	return strings.ToLower(name + " " + value)
}

func containsYearKeyword(name, value string) bool {
	s := strings.ToLower(name + " " + value)
	return strings.Contains(s, "baujahr") || strings.Contains(s, "bautyp") || strings.Contains(s, "bauzeit")
}
