package extractor

import (
	"errors"
	"fmt"

	"immo-scouter/models"
)

// ErrUnparseable reports that a whole page could not be understood.
// It is fatal for that one URL only; field-level misses never raise.
var ErrUnparseable = errors.New("page structure not recognized")

// Extractor turns pages from one source into Listings. Implementations
// populate as many fields as the markup allows and leave the rest nil.
type Extractor interface {
	Source() models.Source

	// ListingURLs returns the individual listing URLs found on a
	// search/index page, absolute and deduplicated.
	ListingURLs(p *Page) []string

	// CollectionURLs detects project/collection pages that bundle
	// several units. When p is a collection it returns the child
	// listing URLs and true; such a page must never be stored as a
	// Listing itself.
	CollectionURLs(p *Page) ([]string, bool)

	// Extract parses one listing detail page. It returns ErrUnparseable
	// only when nothing on the page is recognizable.
	Extract(p *Page) (*models.Listing, error)
}

var registry = map[models.Source]Extractor{
	models.SourceWillhaben:   &Willhaben{},
	models.SourceImmoKurier:  &ImmoKurier{},
	models.SourceDerStandard: &DerStandard{},
}

// ForSource returns the extractor registered for the given tag.
func ForSource(tag models.Source) (Extractor, error) {
	e, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("no extractor registered for source %q", tag)
	}
	return e, nil
}
