package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"sndctl/internal/api"
	"sndctl/internal/query"
	"sndctl/internal/testutil"
	"sndctl/internal/upload"
)

func newTestView(t *testing.T) (*View, *testutil.FakeBackend, *testutil.StubClock) {
	t.Helper()
	backend := testutil.NewFakeBackend()
	clk := testutil.FixedClock()
	return NewView(backend, clk, nil), backend, clk
}

func TestView_Listing_CachesPages(t *testing.T) {
	v, backend, _ := newTestView(t)

	if _, err := v.Listing(context.Background()); err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	if _, err := v.Listing(context.Background()); err != nil {
		t.Fatalf("Listing() error = %v", err)
	}

	if n := backend.CallCount("ListSounds"); n != 1 {
		t.Errorf("ListSounds calls = %d, want 1 (second read cached)", n)
	}
}

func TestView_Invalidate_ForcesRefetch(t *testing.T) {
	v, backend, _ := newTestView(t)

	v.Listing(context.Background())
	v.Invalidate()
	v.Listing(context.Background())

	if n := backend.CallCount("ListSounds"); n != 2 {
		t.Errorf("ListSounds calls = %d, want 2", n)
	}
}

func TestView_SetPage(t *testing.T) {
	v, backend, _ := newTestView(t)

	v.SetPage(3)
	if _, err := v.Listing(context.Background()); err != nil {
		t.Fatalf("Listing() error = %v", err)
	}

	calls := backend.Calls()
	if len(calls) != 1 || calls[0] != `ListSounds(page=3,limit=20,q="")` {
		t.Errorf("calls = %v, want page 3 with default limit", calls)
	}

	v.SetPage(0)
	if v.Page() != 1 {
		t.Errorf("Page() = %d, want clamp to 1", v.Page())
	}
}

func TestView_SetLimit_ResetsPage(t *testing.T) {
	v, _, _ := newTestView(t)

	v.SetPage(4)
	v.SetLimit(50)
	if v.Page() != 1 {
		t.Errorf("Page() = %d, want 1 after limit change", v.Page())
	}
}

func TestView_Search_Debounce(t *testing.T) {
	t.Run("rapid edits collapse into one fetch with final text", func(t *testing.T) {
		v, backend, clk := newTestView(t)

		v.SetSearch("a")
		clk.Advance(100 * time.Millisecond)
		v.SetSearch("ai")
		clk.Advance(100 * time.Millisecond)
		v.SetSearch("air")
		clk.Advance(query.DebounceWindow)

		if _, err := v.Listing(context.Background()); err != nil {
			t.Fatalf("Listing() error = %v", err)
		}

		calls := backend.Calls()
		if len(calls) != 1 {
			t.Fatalf("calls = %v, want exactly one fetch", calls)
		}
		if calls[0] != `ListSounds(page=1,limit=20,q="air")` {
			t.Errorf("call = %q, want final text %q", calls[0], "air")
		}
	})

	t.Run("pending edit is not committed before the quiet period", func(t *testing.T) {
		v, backend, _ := newTestView(t)

		v.SetSearch("horn")
		if _, err := v.Listing(context.Background()); err != nil {
			t.Fatalf("Listing() error = %v", err)
		}

		calls := backend.Calls()
		if len(calls) != 1 || calls[0] != `ListSounds(page=1,limit=20,q="")` {
			t.Errorf("calls = %v, want fetch without the pending text", calls)
		}
		if v.Search() != "" {
			t.Errorf("Search() = %q, want empty", v.Search())
		}
	})

	t.Run("committed search resets page to 1", func(t *testing.T) {
		v, _, clk := newTestView(t)

		v.SetPage(5)
		v.SetSearch("horn")
		clk.Advance(query.DebounceWindow)

		if _, err := v.Listing(context.Background()); err != nil {
			t.Fatalf("Listing() error = %v", err)
		}
		if v.Page() != 1 {
			t.Errorf("Page() = %d, want 1 after search commit", v.Page())
		}
	})

	t.Run("flush commits immediately", func(t *testing.T) {
		v, backend, _ := newTestView(t)

		v.SetSearch("horn")
		v.FlushSearch()

		if v.Search() != "horn" {
			t.Errorf("Search() = %q, want %q", v.Search(), "horn")
		}
		if _, err := v.Listing(context.Background()); err != nil {
			t.Fatalf("Listing() error = %v", err)
		}
		calls := backend.Calls()
		if len(calls) != 1 || calls[0] != `ListSounds(page=1,limit=20,q="horn")` {
			t.Errorf("calls = %v, want flushed text", calls)
		}
	})
}

func TestView_Rename(t *testing.T) {
	t.Run("renames and invalidates", func(t *testing.T) {
		v, backend, _ := newTestView(t)
		v.Listing(context.Background())

		sound := &api.Sound{ID: "s1", Name: "old"}
		if err := v.Rename(context.Background(), sound, "new name"); err != nil {
			t.Fatalf("Rename() error = %v", err)
		}

		if n := backend.CallCount("RenameSound"); n != 1 {
			t.Errorf("RenameSound calls = %d, want 1", n)
		}
		v.Listing(context.Background())
		if n := backend.CallCount("ListSounds"); n != 2 {
			t.Errorf("ListSounds calls = %d, want refetch after rename", n)
		}
	})

	t.Run("same trimmed name is a silent no-op", func(t *testing.T) {
		v, backend, _ := newTestView(t)

		sound := &api.Sound{ID: "s1", Name: "airhorn"}
		if err := v.Rename(context.Background(), sound, "  airhorn  "); err != nil {
			t.Fatalf("Rename() error = %v", err)
		}
		if n := backend.CallCount("RenameSound"); n != 0 {
			t.Errorf("RenameSound calls = %d, want 0", n)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		v, _, _ := newTestView(t)

		err := v.Rename(context.Background(), &api.Sound{ID: "s1", Name: "x"}, "   ")
		var verr *upload.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Rename() error = %v, want *ValidationError", err)
		}
	})
}

func TestView_Delete(t *testing.T) {
	listingWith := func(page, count int) func(ctx context.Context, q api.SoundQuery) (*api.SoundListing, error) {
		return func(ctx context.Context, q api.SoundQuery) (*api.SoundListing, error) {
			return &api.SoundListing{Page: q.Page, Limit: q.Limit, Count: count, TotalPages: page}, nil
		}
	}

	t.Run("sole item on page greater than one moves back a page", func(t *testing.T) {
		v, backend, _ := newTestView(t)
		backend.ListSoundsFunc = listingWith(3, 1)

		v.SetPage(3)
		if _, err := v.Listing(context.Background()); err != nil {
			t.Fatalf("Listing() error = %v", err)
		}

		if err := v.Delete(context.Background(), "s1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if v.Page() != 2 {
			t.Errorf("Page() = %d, want 2", v.Page())
		}
	})

	t.Run("sole item on page one keeps the page", func(t *testing.T) {
		v, backend, _ := newTestView(t)
		backend.ListSoundsFunc = listingWith(1, 1)

		if _, err := v.Listing(context.Background()); err != nil {
			t.Fatalf("Listing() error = %v", err)
		}
		if err := v.Delete(context.Background(), "s1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if v.Page() != 1 {
			t.Errorf("Page() = %d, want 1", v.Page())
		}
	})

	t.Run("multiple items keep the page", func(t *testing.T) {
		v, backend, _ := newTestView(t)
		backend.ListSoundsFunc = listingWith(2, 5)

		v.SetPage(2)
		if _, err := v.Listing(context.Background()); err != nil {
			t.Fatalf("Listing() error = %v", err)
		}
		if err := v.Delete(context.Background(), "s1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if v.Page() != 2 {
			t.Errorf("Page() = %d, want 2", v.Page())
		}
	})

	t.Run("delete invalidates the cache", func(t *testing.T) {
		v, backend, _ := newTestView(t)

		v.Listing(context.Background())
		if err := v.Delete(context.Background(), "s1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		v.Listing(context.Background())

		if n := backend.CallCount("ListSounds"); n != 2 {
			t.Errorf("ListSounds calls = %d, want refetch after delete", n)
		}
	})

	t.Run("failed delete leaves the page alone", func(t *testing.T) {
		v, backend, _ := newTestView(t)
		backend.ListSoundsFunc = listingWith(2, 1)
		backend.DeleteSoundFunc = func(ctx context.Context, id string) error {
			return errors.New("server unavailable")
		}

		v.SetPage(2)
		v.Listing(context.Background())

		if err := v.Delete(context.Background(), "s1"); err == nil {
			t.Fatal("Delete() expected error")
		}
		if v.Page() != 2 {
			t.Errorf("Page() = %d, want unchanged 2", v.Page())
		}
	})
}

func TestView_Listing_DropsStaleFetch(t *testing.T) {
	backend := testutil.NewFakeBackend()
	clk := testutil.FixedClock()
	v := NewView(backend, clk, nil)

	// The first fetch changes the page mid-flight; Listing must retry
	// against the new state instead of returning the stale page.
	first := true
	backend.ListSoundsFunc = func(ctx context.Context, q api.SoundQuery) (*api.SoundListing, error) {
		if first {
			first = false
			v.SetPage(2)
		}
		return &api.SoundListing{Page: q.Page, Limit: q.Limit, TotalPages: 2}, nil
	}

	listing, err := v.Listing(context.Background())
	if err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	if listing.Page != 2 {
		t.Errorf("listing.Page = %d, want 2 (stale page-1 fetch dropped)", listing.Page)
	}
	if n := backend.CallCount("ListSounds"); n != 2 {
		t.Errorf("ListSounds calls = %d, want 2", n)
	}
}
