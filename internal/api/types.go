package api

import "time"

// User is the authenticated account as reported by the backend.
type User struct {
	ID        string  `json:"id"`
	SteamID64 string  `json:"steamId64"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatarUrl"`
	IsAdmin   bool    `json:"isAdmin"`
}

// Sound is a stored audio clip. Identity is server-assigned; the only
// mutable field is Name.
type Sound struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Filename  string    `json:"filename"`
	Duration  float64   `json:"duration"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// SoundListing is one server-computed page over a user's sounds.
// Count is the number of items on this page under the current filter;
// TotalCount ignores the filter.
type SoundListing struct {
	Sounds     []Sound `json:"sounds"`
	Count      int     `json:"count"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
	TotalCount int     `json:"totalCount"`
	MaxSounds  int     `json:"maxSounds"`
}

// SoundQuery selects a page of the sound listing. Zero values are omitted
// from the request, leaving the server defaults in effect.
type SoundQuery struct {
	Page   int
	Limit  int
	Search string
}

// AdminUser is a directory entry as seen by administrators.
type AdminUser struct {
	ID         string    `json:"id"`
	SteamID64  string    `json:"steamId64"`
	Username   string    `json:"username"`
	AvatarURL  *string   `json:"avatarUrl"`
	IsAdmin    bool      `json:"isAdmin"`
	IsBanned   bool      `json:"isBanned"`
	CreatedAt  time.Time `json:"createdAt"`
	SoundCount int       `json:"soundCount"`
}

// UserListing is one page of the admin user directory.
type UserListing struct {
	Users      []AdminUser `json:"users"`
	Count      int         `json:"count"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"totalPages"`
}

// UserQuery selects a page of the admin user directory.
// SortBy is one of "username", "createdAt", "soundCount"; SortOrder is
// "asc" or "desc"; Filter is one of "all", "admins", "banned".
type UserQuery struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
	Filter    string
}

// UserUpdate carries the admin-mutable user flags. Nil fields are left
// untouched by the server.
type UserUpdate struct {
	IsAdmin  *bool `json:"isAdmin,omitempty"`
	IsBanned *bool `json:"isBanned,omitempty"`
}

// DeleteUserResult reports a user deletion, which cascades to the user's
// sounds.
type DeleteUserResult struct {
	Success            bool `json:"success"`
	DeletedSoundsCount int  `json:"deletedSoundsCount"`
}

// Settings is the global limits record. Read by all clients, writable only
// by admins; last writer wins.
type Settings struct {
	MaxSoundsPerUser int      `json:"maxSoundsPerUser" validate:"min=1"`
	MaxFileSize      int64    `json:"maxFileSize" validate:"min=1"`
	MaxDuration      int      `json:"maxDuration" validate:"min=1"`
	CooldownSeconds  int      `json:"cooldownSeconds" validate:"min=0"`
	AllowedFormats   []string `json:"allowedFormats" validate:"min=1,dive,required"`
}
