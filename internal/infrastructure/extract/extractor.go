package extract

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopsmart/backend/internal/domain"
)

const (
	maxReviews     = 5
	minReviewRunes = 21
)

// site holds the selectors for one storefront
type site struct {
	name        string
	title       string
	price       string
	description string
	rating      string
	reviewCount string
}

var sites = []site{
	{
		name:        "amazon",
		title:       "#productTitle",
		price:       ".a-price-whole",
		description: "#feature-bullets",
		rating:      ".a-icon-star span",
		reviewCount: "#acrCustomerReviewText",
	},
	{
		name:        "flipkart",
		title:       ".VU-ZEz, h1",
		price:       "._30jeq3",
		description: "._4gvKMe",
		rating:      "._3LWZlK",
		reviewCount: "._2_R_DZ span",
	},
}

// review selectors are tried in order; the first that matches anything wins
var reviewSelectors = []string{
	`[data-hook="review"]`,
	".t-ZTKy, ._6K-7Co",
}

// Extractor reads product data out of storefront HTML
type Extractor struct{}

// NewExtractor creates a new product page extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses html served from pageURL
func (e *Extractor) Extract(pageURL, html string) (*domain.ProductData, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: invalid url %q", domain.ErrInvalidRequest, pageURL)
	}

	s, ok := detectSite(u.Hostname())
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSite, u.Hostname())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &domain.ProductData{
		Title:       firstText(doc, s.title),
		Price:       firstText(doc, s.price),
		Description: firstText(doc, s.description),
		Rating:      firstText(doc, s.rating),
		ReviewCount: firstText(doc, s.reviewCount),
		Reviews:     extractReviews(doc),
		URL:         pageURL,
	}, nil
}

func detectSite(host string) (site, bool) {
	host = strings.ToLower(host)
	for _, s := range sites {
		if strings.Contains(host, s.name) {
			return s, true
		}
	}
	return site{}, false
}

func extractReviews(doc *goquery.Document) string {
	var elements *goquery.Selection
	for _, selector := range reviewSelectors {
		elements = doc.Find(selector)
		if elements.Length() > 0 {
			break
		}
	}

	var reviews []string
	elements.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= maxReviews {
			return false
		}
		if text := cleanText(sel.Text()); utf8.RuneCountInString(text) >= minReviewRunes {
			reviews = append(reviews, text)
		}
		return true
	})

	return strings.Join(reviews, domain.ReviewSeparator)
}

func firstText(doc *goquery.Document, selector string) string {
	return cleanText(doc.Find(selector).First().Text())
}

// cleanText collapses whitespace runs the way rendered text would
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
