// Package admin drives the administrator surfaces: the user directory
// (filter, sort, search, pagination) and the global settings record. It
// follows the same invalidate-and-refetch pattern as the library layer.
package admin

import (
	"context"
	"errors"
	"sync"

	"sndctl/internal/api"
	"sndctl/internal/clock"
	"sndctl/internal/logging"
	"sndctl/internal/query"
)

// DefaultLimit is the directory page size.
const DefaultLimit = 20

// Sortable directory columns.
const (
	SortByUsername   = "username"
	SortByCreatedAt  = "createdAt"
	SortBySoundCount = "soundCount"
)

// Directory filters.
const (
	FilterAll    = "all"
	FilterAdmins = "admins"
	FilterBanned = "banned"
)

// UserKey identifies one cached directory page.
type UserKey struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
	Filter    string
}

// Store is the transport surface the admin layer depends on.
type Store interface {
	ListUsers(ctx context.Context, q api.UserQuery) (*api.UserListing, error)
	UpdateUser(ctx context.Context, id string, update api.UserUpdate) (*api.AdminUser, error)
	DeleteUser(ctx context.Context, id string) (*api.DeleteUserResult, error)
	AdminDeleteSound(ctx context.Context, id string) error
	GetSettings(ctx context.Context) (*api.Settings, error)
	UpdateSettings(ctx context.Context, s api.Settings) (*api.Settings, error)
}

// ErrStaleFetch is returned when a directory fetch kept resolving against
// view state that had already moved on.
var ErrStaleFetch = errors.New("directory fetch is stale")

// Directory drives the user directory view. The server performs the
// actual ordering; the client only holds the requested sort column and
// direction and includes them in the query key. Safe for concurrent use.
type Directory struct {
	store  Store
	cache  *query.Cache[UserKey, *api.UserListing]
	logger logging.Logger

	mu        sync.Mutex
	page      int
	limit     int
	search    string
	sortBy    string
	sortOrder string
	filter    string
	debounce  *query.Debouncer
	gen       int
}

// NewDirectory creates a directory view with the default sort
// (createdAt descending) and the "all" filter.
func NewDirectory(store Store, clk clock.Clock, logger logging.Logger) *Directory {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	d := &Directory{
		store:     store,
		logger:    logger,
		page:      1,
		limit:     DefaultLimit,
		sortBy:    SortByCreatedAt,
		sortOrder: "desc",
		filter:    FilterAll,
		debounce:  query.NewDebouncer(clk, query.DebounceWindow),
	}
	d.cache = query.NewCache(func(ctx context.Context, key UserKey) (*api.UserListing, error) {
		return store.ListUsers(ctx, api.UserQuery{
			Page:      key.Page,
			Limit:     key.Limit,
			Search:    key.Search,
			SortBy:    key.SortBy,
			SortOrder: key.SortOrder,
			Filter:    key.Filter,
		})
	})
	return d
}

// Invalidate drops every cached directory page.
func (d *Directory) Invalidate() { d.cache.Invalidate() }

// Page returns the current page number.
func (d *Directory) Page() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page
}

// SetPage moves to the given page; values below 1 clamp to 1.
func (d *Directory) SetPage(page int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if page < 1 {
		page = 1
	}
	if page != d.page {
		d.page = page
		d.gen++
	}
}

// SetSearch records a search edit; it becomes part of the query key after
// the debounce quiet period and resets pagination to page 1.
func (d *Directory) SetSearch(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.debounce.Set(text)
}

// SetFilter switches the directory filter and resets to page 1.
func (d *Directory) SetFilter(filter string) error {
	switch filter {
	case FilterAll, FilterAdmins, FilterBanned:
	default:
		return errors.New("filter must be one of all, admins, banned")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if filter != d.filter {
		d.filter = filter
		d.page = 1
		d.gen++
	}
	return nil
}

// Sort returns the active sort column and direction. An empty column
// means the server default ordering.
func (d *Directory) Sort() (column, order string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sortBy, d.sortOrder
}

// SetSort sets the sort column and direction directly, for
// non-interactive callers. It resets to page 1.
func (d *Directory) SetSort(column, order string) error {
	switch column {
	case SortByUsername, SortByCreatedAt, SortBySoundCount:
	default:
		return errors.New("sort column must be one of username, createdAt, soundCount")
	}
	if order != "asc" && order != "desc" {
		return errors.New("sort order must be asc or desc")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if column != d.sortBy || order != d.sortOrder {
		d.sortBy, d.sortOrder = column, order
		d.page = 1
		d.gen++
	}
	return nil
}

// ToggleSort cycles the sort for a column: a new column sorts ascending,
// a second toggle flips to descending, and a third clears the sort back
// to the default (createdAt descending). Only one column is active at a
// time, and every change resets to page 1.
func (d *Directory) ToggleSort(column string) error {
	switch column {
	case SortByUsername, SortByCreatedAt, SortBySoundCount:
	default:
		return errors.New("sort column must be one of username, createdAt, soundCount")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.sortBy != column:
		d.sortBy, d.sortOrder = column, "asc"
	case d.sortOrder == "asc":
		d.sortOrder = "desc"
	default:
		d.sortBy, d.sortOrder = SortByCreatedAt, "desc"
	}
	d.page = 1
	d.gen++
	return nil
}

func (d *Directory) commitSearchLocked() {
	text, ok := d.debounce.Ripe()
	if !ok || text == d.search {
		return
	}
	d.search = text
	d.page = 1
	d.gen++
}

func (d *Directory) keyLocked() UserKey {
	return UserKey{
		Page:      d.page,
		Limit:     d.limit,
		Search:    d.search,
		SortBy:    d.sortBy,
		SortOrder: d.sortOrder,
		Filter:    d.filter,
	}
}

// Listing returns the directory page for the current view state. Fetches
// that resolve after the state moved on are ignored and retried.
func (d *Directory) Listing(ctx context.Context) (*api.UserListing, error) {
	for range 3 {
		d.mu.Lock()
		d.commitSearchLocked()
		key := d.keyLocked()
		gen := d.gen
		d.mu.Unlock()

		listing, err := d.cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		d.mu.Lock()
		if gen == d.gen {
			d.mu.Unlock()
			return listing, nil
		}
		d.mu.Unlock()
		d.logger.Debug("dropping stale directory fetch", "page", key.Page, "q", key.Search)
	}
	return nil, ErrStaleFetch
}

// FlushSearch commits any pending search edit immediately.
func (d *Directory) FlushSearch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if text, ok := d.debounce.Flush(); ok && text != d.search {
		d.search = text
		d.page = 1
		d.gen++
	}
}

// SetBanned bans or unbans a user and invalidates the directory.
func (d *Directory) SetBanned(ctx context.Context, id string, banned bool) (*api.AdminUser, error) {
	user, err := d.store.UpdateUser(ctx, id, api.UserUpdate{IsBanned: &banned})
	if err != nil {
		return nil, err
	}
	d.logger.Info("user ban flag updated", "user", id, "banned", banned)
	d.cache.Invalidate()
	return user, nil
}

// SetAdmin promotes or demotes a user and invalidates the directory.
func (d *Directory) SetAdmin(ctx context.Context, id string, admin bool) (*api.AdminUser, error) {
	user, err := d.store.UpdateUser(ctx, id, api.UserUpdate{IsAdmin: &admin})
	if err != nil {
		return nil, err
	}
	d.logger.Info("user admin flag updated", "user", id, "admin", admin)
	d.cache.Invalidate()
	return user, nil
}

// Delete removes a user; the server cascades the deletion to the user's
// sounds and reports how many were removed.
func (d *Directory) Delete(ctx context.Context, id string) (*api.DeleteUserResult, error) {
	result, err := d.store.DeleteUser(ctx, id)
	if err != nil {
		return nil, err
	}
	d.logger.Info("user deleted", "user", id, "deletedSounds", result.DeletedSoundsCount)
	d.cache.Invalidate()
	return result, nil
}

// DeleteSound removes any user's sound through the admin endpoint and
// invalidates the directory, since per-user sound counts change.
func (d *Directory) DeleteSound(ctx context.Context, id string) error {
	if err := d.store.AdminDeleteSound(ctx, id); err != nil {
		return err
	}
	d.logger.Info("sound deleted by admin", "sound", id)
	d.cache.Invalidate()
	return nil
}
