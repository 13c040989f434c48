package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"sndctl/internal/api"
)

// FakeBackend is a scripted stand-in for the API client. Each method
// records its call and delegates to the corresponding Func field; a nil
// field returns an empty success. Safe for concurrent use.
type FakeBackend struct {
	mu    sync.Mutex
	calls []string

	ListSoundsFunc       func(ctx context.Context, q api.SoundQuery) (*api.SoundListing, error)
	RenameSoundFunc      func(ctx context.Context, id, name string) (*api.Sound, error)
	DeleteSoundFunc      func(ctx context.Context, id string) error
	UploadSoundFunc      func(ctx context.Context, audio io.Reader, filename, name string, onProgress api.ProgressFunc) (*api.Sound, error)
	ListUsersFunc        func(ctx context.Context, q api.UserQuery) (*api.UserListing, error)
	UpdateUserFunc       func(ctx context.Context, id string, update api.UserUpdate) (*api.AdminUser, error)
	DeleteUserFunc       func(ctx context.Context, id string) (*api.DeleteUserResult, error)
	AdminDeleteSoundFunc func(ctx context.Context, id string) error
	GetSettingsFunc      func(ctx context.Context) (*api.Settings, error)
	UpdateSettingsFunc   func(ctx context.Context, s api.Settings) (*api.Settings, error)
}

func NewFakeBackend() *FakeBackend { return &FakeBackend{} }

func (f *FakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

// Calls returns every recorded call in order.
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns the number of calls recorded for a method name.
func (f *FakeBackend) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(method) && c[:len(method)] == method {
			n++
		}
	}
	return n
}

func (f *FakeBackend) ListSounds(ctx context.Context, q api.SoundQuery) (*api.SoundListing, error) {
	f.record(fmt.Sprintf("ListSounds(page=%d,limit=%d,q=%q)", q.Page, q.Limit, q.Search))
	if f.ListSoundsFunc != nil {
		return f.ListSoundsFunc(ctx, q)
	}
	return &api.SoundListing{Page: q.Page, Limit: q.Limit, TotalPages: 1}, nil
}

func (f *FakeBackend) RenameSound(ctx context.Context, id, name string) (*api.Sound, error) {
	f.record(fmt.Sprintf("RenameSound(%s,%q)", id, name))
	if f.RenameSoundFunc != nil {
		return f.RenameSoundFunc(ctx, id, name)
	}
	return &api.Sound{ID: id, Name: name}, nil
}

func (f *FakeBackend) DeleteSound(ctx context.Context, id string) error {
	f.record(fmt.Sprintf("DeleteSound(%s)", id))
	if f.DeleteSoundFunc != nil {
		return f.DeleteSoundFunc(ctx, id)
	}
	return nil
}

func (f *FakeBackend) UploadSound(ctx context.Context, audio io.Reader, filename, name string, onProgress api.ProgressFunc) (*api.Sound, error) {
	f.record(fmt.Sprintf("UploadSound(%s,%q)", filename, name))
	if f.UploadSoundFunc != nil {
		return f.UploadSoundFunc(ctx, audio, filename, name, onProgress)
	}
	return &api.Sound{ID: "sound-1", Name: name, Filename: filename}, nil
}

func (f *FakeBackend) ListUsers(ctx context.Context, q api.UserQuery) (*api.UserListing, error) {
	f.record(fmt.Sprintf("ListUsers(page=%d,q=%q,sort=%s/%s,filter=%s)", q.Page, q.Search, q.SortBy, q.SortOrder, q.Filter))
	if f.ListUsersFunc != nil {
		return f.ListUsersFunc(ctx, q)
	}
	return &api.UserListing{Page: q.Page, Limit: q.Limit, TotalPages: 1}, nil
}

func (f *FakeBackend) UpdateUser(ctx context.Context, id string, update api.UserUpdate) (*api.AdminUser, error) {
	f.record(fmt.Sprintf("UpdateUser(%s)", id))
	if f.UpdateUserFunc != nil {
		return f.UpdateUserFunc(ctx, id, update)
	}
	u := api.AdminUser{ID: id}
	if update.IsAdmin != nil {
		u.IsAdmin = *update.IsAdmin
	}
	if update.IsBanned != nil {
		u.IsBanned = *update.IsBanned
	}
	return &u, nil
}

func (f *FakeBackend) DeleteUser(ctx context.Context, id string) (*api.DeleteUserResult, error) {
	f.record(fmt.Sprintf("DeleteUser(%s)", id))
	if f.DeleteUserFunc != nil {
		return f.DeleteUserFunc(ctx, id)
	}
	return &api.DeleteUserResult{Success: true}, nil
}

func (f *FakeBackend) AdminDeleteSound(ctx context.Context, id string) error {
	f.record(fmt.Sprintf("AdminDeleteSound(%s)", id))
	if f.AdminDeleteSoundFunc != nil {
		return f.AdminDeleteSoundFunc(ctx, id)
	}
	return nil
}

func (f *FakeBackend) GetSettings(ctx context.Context) (*api.Settings, error) {
	f.record("GetSettings()")
	if f.GetSettingsFunc != nil {
		return f.GetSettingsFunc(ctx)
	}
	return &api.Settings{
		MaxSoundsPerUser: 25,
		MaxFileSize:      1 << 20,
		MaxDuration:      10,
		CooldownSeconds:  30,
		AllowedFormats:   []string{"audio/ogg", "audio/mpeg", "audio/wav"},
	}, nil
}

func (f *FakeBackend) UpdateSettings(ctx context.Context, s api.Settings) (*api.Settings, error) {
	f.record("UpdateSettings()")
	if f.UpdateSettingsFunc != nil {
		return f.UpdateSettingsFunc(ctx, s)
	}
	return &s, nil
}
