// Package library keeps a paginated, searchable, mutation-consistent view
// of the user's sound collection. The server is the only source of truth:
// every mutation invalidates the cached pages and the next render
// refetches.
package library

import (
	"context"
	"errors"
	"strings"
	"sync"

	"sndctl/internal/api"
	"sndctl/internal/clock"
	"sndctl/internal/logging"
	"sndctl/internal/query"
	"sndctl/internal/upload"
)

// DefaultLimit is the page size used when the caller does not choose one.
const DefaultLimit = 20

// Key identifies one cached listing page.
type Key struct {
	Page   int
	Limit  int
	Search string
}

// Store is the transport surface the library layer depends on.
type Store interface {
	ListSounds(ctx context.Context, q api.SoundQuery) (*api.SoundListing, error)
	RenameSound(ctx context.Context, id, name string) (*api.Sound, error)
	DeleteSound(ctx context.Context, id string) error
}

// ErrStaleFetch is returned when a fetch kept resolving against view
// state that had already moved on.
var ErrStaleFetch = errors.New("listing fetch is stale")

// View drives the sound listing: current page, debounced search, and the
// mutations that keep the cache consistent. Safe for concurrent use.
type View struct {
	store  Store
	cache  *query.Cache[Key, *api.SoundListing]
	logger logging.Logger

	mu       sync.Mutex
	page     int
	limit    int
	search   string
	debounce *query.Debouncer
	gen      int
	current  *api.SoundListing
}

// NewView creates a library view with page 1 and the default page size.
func NewView(store Store, clk clock.Clock, logger logging.Logger) *View {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	v := &View{
		store:    store,
		logger:   logger,
		page:     1,
		limit:    DefaultLimit,
		debounce: query.NewDebouncer(clk, query.DebounceWindow),
	}
	v.cache = query.NewCache(func(ctx context.Context, key Key) (*api.SoundListing, error) {
		return store.ListSounds(ctx, api.SoundQuery{Page: key.Page, Limit: key.Limit, Search: key.Search})
	})
	return v
}

// Invalidate drops every cached listing page. The upload controller calls
// this after a successful upload so the new sound appears.
func (v *View) Invalidate() {
	v.cache.Invalidate()
}

// Page returns the current page number.
func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// SetPage moves to the given page; values below 1 clamp to 1.
func (v *View) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if page < 1 {
		page = 1
	}
	if page != v.page {
		v.page = page
		v.gen++
	}
}

// SetLimit changes the page size and resets to page 1.
func (v *View) SetLimit(limit int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit != v.limit {
		v.limit = limit
		v.page = 1
		v.gen++
	}
}

// SetSearch records a search edit. The text only becomes part of the
// query key after the debounce quiet period; committing a changed search
// resets pagination to page 1.
func (v *View) SetSearch(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.debounce.Set(text)
}

// Search returns the committed search text.
func (v *View) Search() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.search
}

// commitSearchLocked applies a ripe search edit to the query key.
func (v *View) commitSearchLocked() {
	text, ok := v.debounce.Ripe()
	if !ok {
		return
	}
	if text == v.search {
		return
	}
	v.search = text
	v.page = 1
	v.gen++
	v.logger.Debug("search committed", "q", text)
}

func (v *View) keyLocked() Key {
	return Key{Page: v.page, Limit: v.limit, Search: v.search}
}

// Listing returns the page for the current view state, fetching through
// the cache on a miss. A fetch that resolves after the view state moved
// on (page change, search commit, delete) is ignored and retried against
// the new state; if the state will not hold still, ErrStaleFetch is
// returned.
func (v *View) Listing(ctx context.Context) (*api.SoundListing, error) {
	for range 3 {
		v.mu.Lock()
		v.commitSearchLocked()
		key := v.keyLocked()
		gen := v.gen
		v.mu.Unlock()

		listing, err := v.cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		v.mu.Lock()
		if gen == v.gen {
			v.current = listing
			v.mu.Unlock()
			return listing, nil
		}
		v.mu.Unlock()
		v.logger.Debug("dropping stale listing fetch", "page", key.Page, "q", key.Search)
	}
	return nil, ErrStaleFetch
}

// Rename changes a sound's display name. The new name is clamped to the
// display-name limit and trimmed; renaming to the identical trimmed
// current name is a silent no-op with no network request.
func (v *View) Rename(ctx context.Context, sound *api.Sound, name string) error {
	trimmed := strings.TrimSpace(upload.ClampName(name))
	if trimmed == "" {
		return &upload.ValidationError{Reason: "name must not be empty"}
	}
	if trimmed == strings.TrimSpace(sound.Name) {
		return nil
	}

	if _, err := v.store.RenameSound(ctx, sound.ID, trimmed); err != nil {
		return err
	}
	v.logger.Info("sound renamed", "sound", sound.ID, "name", trimmed)
	v.cache.Invalidate()
	return nil
}

// Delete removes a sound and keeps pagination consistent: deleting the
// sole item on a page greater than 1 moves the view to the previous page
// after the delete settles, so the user is never stranded on a page the
// server no longer serves. The decision uses only the pre-delete page's
// item count and page number.
func (v *View) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	prePage := v.page
	preCount := -1
	if v.current != nil && v.current.Page == prePage {
		preCount = v.current.Count
	}
	v.mu.Unlock()

	if err := v.store.DeleteSound(ctx, id); err != nil {
		return err
	}

	v.logger.Info("sound deleted", "sound", id)
	v.cache.Invalidate()

	v.mu.Lock()
	if preCount == 1 && prePage > 1 && v.page == prePage {
		v.page = prePage - 1
		v.gen++
	} else {
		v.gen++
	}
	v.mu.Unlock()
	return nil
}

// FlushSearch commits any pending search edit immediately. The
// interactive browser uses this when the user presses enter instead of
// waiting out the quiet period.
func (v *View) FlushSearch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if text, ok := v.debounce.Flush(); ok && text != v.search {
		v.search = text
		v.page = 1
		v.gen++
	}
}
