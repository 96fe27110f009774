package extract

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"dealerscout/internal/models"
)

// ContainerSelector lists the tags probed for listings, at any depth.
const ContainerSelector = "div, li, section"

// Listing is one accepted candidate block.
type Listing struct {
	Make     string
	Model    string
	Year     int
	Price    int
	Mileage  int
	ImageURL *string
	Text     string
}

// Car converts the listing into a record sourced from dealerURL.
func (l Listing) Car(dealerURL string) *models.Car {
	price, mileage := l.Price, l.Mileage
	return &models.Car{
		Make:     l.Make,
		Model:    l.Model,
		Year:     l.Year,
		Price:    &price,
		Mileage:  &mileage,
		Location: dealerURL,
		ImageURL: l.ImageURL,
	}
}

// ParseListings parses an HTML body and returns its listing candidates.
func ParseListings(r io.Reader) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return FindListings(doc), nil
}

// FindListings walks every container in document order and keeps those whose
// text yields a year, a price and a mileage. Nested containers are evaluated
// on their own, so a listing wrapped in several containers appears once per
// wrapper.
func FindListings(doc *goquery.Document) []Listing {
	var listings []Listing
	doc.Find(ContainerSelector).Each(func(_ int, s *goquery.Selection) {
		if listing, ok := candidate(s); ok {
			listings = append(listings, listing)
		}
	})
	return listings
}

func candidate(s *goquery.Selection) (Listing, bool) {
	text := VisibleText(s)
	if text == "" {
		return Listing{}, false
	}
	fields := ExtractFields(text)
	if !fields.Complete() {
		return Listing{}, false
	}

	carMake, carModel := makeAndModel(text)
	return Listing{
		Make:     carMake,
		Model:    carModel,
		Year:     *fields.Year,
		Price:    *fields.Price,
		Mileage:  *fields.Mileage,
		ImageURL: imageURL(s),
		Text:     text,
	}, true
}

// makeAndModel takes the second and third whitespace tokens. Listing text
// usually opens with the model year, so "2020 Toyota Camry ..." yields
// Toyota and Camry.
func makeAndModel(text string) (string, string) {
	tokens := strings.Fields(text)
	carMake, carModel := models.UnknownToken, models.UnknownToken
	if len(tokens) > 1 {
		carMake = tokens[1]
	}
	if len(tokens) > 2 {
		carModel = tokens[2]
	}
	return carMake, carModel
}

func imageURL(s *goquery.Selection) *string {
	src, ok := s.Find("img").First().Attr("src")
	if !ok {
		return nil
	}
	return models.StringPtr(strings.TrimSpace(src))
}

// VisibleText joins the trimmed text nodes under s with single spaces,
// skipping script, style, noscript and template content.
func VisibleText(s *goquery.Selection) string {
	var parts []string
	for _, n := range s.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func collectText(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
