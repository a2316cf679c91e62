package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

// DefaultMaxPages bounds a single pagination walk.
const DefaultMaxPages = 1000

// WalkPages accumulates the items of first and every page reachable through next, in order.
//
// Pages are fetched strictly one after another. The walk fails with [shared.ErrPaginationLimit]
// after maxPages pages or when a cursor repeats.
func WalkPages[T any](ctx context.Context, d Doer, first Page[T], maxPages int) ([]T, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	items := append([]T(nil), first.Items...)
	seen := make(map[string]struct{})
	next := first.Next

	for pages := 1; next != nil && *next != ""; pages++ {
		cursor := *next
		if pages >= maxPages {
			return items, fmt.Errorf("%w: more than %d pages", shared.ErrPaginationLimit, maxPages)
		}
		if _, ok := seen[cursor]; ok {
			return items, fmt.Errorf("%w: repeated cursor %s", shared.ErrPaginationLimit, cursor)
		}
		seen[cursor] = struct{}{}

		var page Page[T]
		if err := d.Do(ctx, http.MethodGet, cursor, nil, &page); err != nil {
			return items, err
		}
		items = append(items, page.Items...)
		next = page.Next
	}

	return items, nil
}

// WalkTracks walks a playlist's track pages and maps them, dropping placeholders.
//
// It also returns the number of items walked, placeholders included.
func WalkTracks(ctx context.Context, d Doer, first Page[PlaylistItem], maxPages int) ([]models.Track, int, error) {
	items, err := WalkPages(ctx, d, first, maxPages)
	if err != nil {
		return nil, 0, err
	}
	return MapTracks(items), len(items), nil
}

// WalkPlaylists walks the pages of the current user's playlists.
func WalkPlaylists(ctx context.Context, d Doer, first Page[PlaylistRecord], maxPages int) ([]PlaylistRecord, error) {
	return WalkPages(ctx, d, first, maxPages)
}
