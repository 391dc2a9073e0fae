package sources

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/solvari/radar/pkg/config"
)

// Categories maps trade names to Marktplaats diensten-en-vakmensen sections
var Categories = map[string]string{
	"bouw":        "/l/diensten-en-vakmensen/bouw/",
	"loodgieter":  "/l/diensten-en-vakmensen/loodgieters/",
	"elektricien": "/l/diensten-en-vakmensen/elektriciens/",
	"schilder":    "/l/diensten-en-vakmensen/schilders/",
	"timmerman":   "/l/diensten-en-vakmensen/timmerlieden/",
	"tuinman":     "/l/diensten-en-vakmensen/tuinlieden/",
	"dakdekker":   "/l/diensten-en-vakmensen/dakdekkers/",
}

// Listing is a discovered candidate listing, the URL feeds the pipeline
type Listing struct {
	Title       string
	Description string
	Location    string
	URL         string
	Published   time.Time
}

// Marktplaats discovers tradespeople listings on Marktplaats, either through
// its RSS search feeds or by walking category pages. Discovery only yields
// candidate URLs; fetching and classification happen in the pipeline.
type Marktplaats struct {
	baseURL     string
	maxListings int
	client      *http.Client
	parser      *gofeed.Parser
	sanitizer   *bluemonday.Policy
}

// NewMarktplaats creates a Marktplaats lead source
func NewMarktplaats(cfg config.SourcesConfig) *Marktplaats {
	return &Marktplaats{
		baseURL:     strings.TrimSuffix(cfg.MarktplaatsBaseURL, "/"),
		maxListings: cfg.MaxListings,
		client:      &http.Client{Timeout: 30 * time.Second},
		parser:      gofeed.NewParser(),
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// SearchFeed discovers listings through the RSS search feed for a query
func (m *Marktplaats) SearchFeed(ctx context.Context, query string) ([]Listing, error) {
	feedURL := fmt.Sprintf("%s/rss/?query=%s", m.baseURL, url.QueryEscape(query))

	feed, err := m.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse search feed %s: %w", feedURL, err)
	}

	listings := make([]Listing, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(listings) >= m.maxListings {
			break
		}

		listing := Listing{
			Title: strings.TrimSpace(item.Title),
			URL:   item.Link,
			// feed descriptions carry markup, strip it before it reaches the classifier
			Description: m.cleanText(item.Description),
		}
		if item.PublishedParsed != nil {
			listing.Published = *item.PublishedParsed
		}

		listings = append(listings, listing)
	}

	lgr.Printf("[INFO] marktplaats search %q: %d listings", query, len(listings))
	return listings, nil
}

// Category discovers listings by parsing a diensten-en-vakmensen category
// page. Unknown category names fail, the caller picks from Categories.
func (m *Marktplaats) Category(ctx context.Context, category string) ([]Listing, error) {
	path, ok := Categories[category]
	if !ok {
		return nil, fmt.Errorf("unknown marktplaats category %q", category)
	}

	pageURL := m.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "nl-NL,nl;q=0.9")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch category page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse category page %s: %w", pageURL, err)
	}

	var listings []Listing
	seen := map[string]bool{}

	doc.Find("a[href*='/v/diensten-en-vakmensen/']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}

		listingURL := m.absoluteURL(href)
		if seen[listingURL] {
			return true
		}
		seen[listingURL] = true

		listings = append(listings, Listing{
			Title: m.cleanText(sel.Text()),
			URL:   listingURL,
		})
		return len(listings) < m.maxListings
	})

	lgr.Printf("[INFO] marktplaats category %s: %d listings", category, len(listings))
	return listings, nil
}

// URLs extracts the listing URLs for pipeline input
func URLs(listings []Listing) []string {
	urls := make([]string, 0, len(listings))
	for _, l := range listings {
		if l.URL != "" {
			urls = append(urls, l.URL)
		}
	}
	return urls
}

// cleanText strips markup and collapses whitespace
func (m *Marktplaats) cleanText(s string) string {
	cleaned := m.sanitizer.Sanitize(s)
	cleaned = html.UnescapeString(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

// absoluteURL resolves relative listing links against the base URL
func (m *Marktplaats) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return m.baseURL + href
}
