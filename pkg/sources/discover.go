package sources

import (
	"context"
	"sort"
	"sync"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"
)

// maxCategoryFetches bounds concurrent category page fetches
const maxCategoryFetches = 3

// Discover walks the given categories concurrently and returns the combined
// listings, deduplicated by URL. An empty category list means all known
// categories. Failing categories are logged and skipped; Discover fails only
// when every category fails.
func (m *Marktplaats) Discover(ctx context.Context, categories []string) ([]Listing, error) {
	if len(categories) == 0 {
		categories = make([]string, 0, len(Categories))
		for name := range Categories {
			categories = append(categories, name)
		}
		sort.Strings(categories)
	}

	var mu sync.Mutex
	var combined []Listing
	failures := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxCategoryFetches)

	for _, category := range categories {
		g.Go(func() error {
			listings, err := m.Category(gctx, category)
			if err != nil {
				lgr.Printf("[WARN] discovery failed for category %s: %v", category, err)
				mu.Lock()
				failures++
				mu.Unlock()
				return nil // a single category failing should not stop the rest
			}

			mu.Lock()
			combined = append(combined, listings...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if failures == len(categories) {
		return nil, &DiscoveryError{Categories: categories}
	}

	// listings can repeat across categories
	seen := map[string]bool{}
	deduped := make([]Listing, 0, len(combined))
	for _, l := range combined {
		if l.URL == "" || seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		deduped = append(deduped, l)
	}

	lgr.Printf("[INFO] discovered %d unique listings across %d categories", len(deduped), len(categories))
	return deduped, nil
}

// DiscoveryError reports that no category yielded any listings
type DiscoveryError struct {
	Categories []string
}

func (e *DiscoveryError) Error() string {
	return "discovery failed for all categories"
}
