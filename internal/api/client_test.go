package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, srv
}

func TestNewClient(t *testing.T) {
	t.Run("rejects non-http scheme", func(t *testing.T) {
		if _, err := NewClient("ftp://example.com"); err == nil {
			t.Fatal("expected error for ftp scheme")
		}
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		c, err := NewClient("https://example.com/api/")
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		got := c.endpoint("/sounds", nil)
		if got != "https://example.com/api/sounds" {
			t.Errorf("endpoint = %q, want %q", got, "https://example.com/api/sounds")
		}
	})
}

func TestClient_SetSessionCookie(t *testing.T) {
	var gotCookie string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(SessionCookieName); err == nil {
			gotCookie = c.Value
		}
		json.NewEncoder(w).Encode(map[string]any{"user": nil})
	}))

	client.SetSessionCookie("secret-token")
	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if gotCookie != "secret-token" {
		t.Errorf("session cookie = %q, want %q", gotCookie, "secret-token")
	}
}

func TestClient_Me(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/me" {
				t.Errorf("path = %q, want /auth/me", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"user": User{ID: "u1", Username: "gordon", IsAdmin: true},
			})
		}))

		user, err := client.Me(context.Background())
		if err != nil {
			t.Fatalf("Me() error = %v", err)
		}
		if user == nil || user.Username != "gordon" || !user.IsAdmin {
			t.Errorf("Me() = %+v, want gordon/admin", user)
		}
	})

	t.Run("anonymous session returns nil user", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"user": nil})
		}))

		user, err := client.Me(context.Background())
		if err != nil {
			t.Fatalf("Me() error = %v", err)
		}
		if user != nil {
			t.Errorf("Me() = %+v, want nil", user)
		}
	})
}

func TestClient_ListSounds(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "10" || q.Get("q") != "horn" {
			t.Errorf("query = %v, want page=2 limit=10 q=horn", q)
		}
		json.NewEncoder(w).Encode(SoundListing{
			Sounds:     []Sound{{ID: "s1", Name: "airhorn"}},
			Count:      1,
			Page:       2,
			TotalPages: 3,
		})
	}))

	listing, err := client.ListSounds(context.Background(), SoundQuery{Page: 2, Limit: 10, Search: "horn"})
	if err != nil {
		t.Fatalf("ListSounds() error = %v", err)
	}
	if len(listing.Sounds) != 1 || listing.Sounds[0].Name != "airhorn" {
		t.Errorf("listing.Sounds = %+v, want one airhorn", listing.Sounds)
	}
	if listing.Page != 2 {
		t.Errorf("listing.Page = %d, want 2", listing.Page)
	}
}

func TestClient_ListSounds_OmitsZeroValues(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want empty", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(SoundListing{})
	}))

	if _, err := client.ListSounds(context.Background(), SoundQuery{}); err != nil {
		t.Fatalf("ListSounds() error = %v", err)
	}
}

func TestClient_RenameSound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %q, want PATCH", r.Method)
		}
		if r.URL.Path != "/sounds/s1" {
			t.Errorf("path = %q, want /sounds/s1", r.URL.Path)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]any{
			"sound": Sound{ID: "s1", Name: in["name"]},
		})
	}))

	sound, err := client.RenameSound(context.Background(), "s1", "new name")
	if err != nil {
		t.Fatalf("RenameSound() error = %v", err)
	}
	if sound.Name != "new name" {
		t.Errorf("sound.Name = %q, want %q", sound.Name, "new name")
	}
}

func TestClient_DeleteUser(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/admin/users/u9" {
			t.Errorf("%s %s, want DELETE /admin/users/u9", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(DeleteUserResult{Success: true, DeletedSoundsCount: 4})
	}))

	res, err := client.DeleteUser(context.Background(), "u9")
	if err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if !res.Success || res.DeletedSoundsCount != 4 {
		t.Errorf("DeleteUser() = %+v, want success with 4 sounds", res)
	}
}

func TestClient_ListUsers_QueryParams(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("sortBy") != "soundCount" || q.Get("sortOrder") != "desc" || q.Get("filter") != "banned" {
			t.Errorf("query = %v, want sortBy=soundCount sortOrder=desc filter=banned", q)
		}
		json.NewEncoder(w).Encode(UserListing{})
	}))

	_, err := client.ListUsers(context.Background(), UserQuery{
		SortBy:    "soundCount",
		SortOrder: "desc",
		Filter:    "banned",
	})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	t.Run("structured body yields APIError", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":{"code":"FORBIDDEN","message":"admins only"}}`))
		}))

		_, err := client.GetSettings(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error = %v, want *APIError", err)
		}
		if apiErr.Code != "FORBIDDEN" || apiErr.Message != "admins only" {
			t.Errorf("APIError = %+v", apiErr)
		}
	})

	t.Run("unstructured body yields StatusError", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		}))

		err := client.Logout(context.Background())
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("error = %v, want *StatusError", err)
		}
		if statusErr.StatusCode != http.StatusBadGateway {
			t.Errorf("StatusCode = %d, want 502", statusErr.StatusCode)
		}
	})

	t.Run("retry delay ignored outside uploads", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"code":"RATE_LIMIT_EXCEEDED","message":"slow down","retryAfter":30}}`))
		}))

		_, err := client.ListSounds(context.Background(), SoundQuery{})
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error = %v, want *APIError", err)
		}
		if apiErr.RetryAfter != 0 {
			t.Errorf("RetryAfter = %d, want 0 on non-upload path", apiErr.RetryAfter)
		}
	})
}

func TestClient_SoundStreamURL(t *testing.T) {
	c, err := NewClient("https://sounds.example.com/api")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	got := c.SoundStreamURL("abc def")
	want := "https://sounds.example.com/api/sounds/abc%20def/stream"
	if got != want {
		t.Errorf("SoundStreamURL = %q, want %q", got, want)
	}
}
