package models

import (
	"strconv"
	"time"
)

// UserType is the account kind chosen at registration
type UserType string

const (
	// UserTypeStudent is stored as "Estudiante"
	UserTypeStudent UserType = "Estudiante"
	// UserTypeOwner is stored as "Propietario"
	UserTypeOwner UserType = "Propietario"
)

// Valid reports whether t is one of the known user types
func (t UserType) Valid() bool {
	return t == UserTypeStudent || t == UserTypeOwner
}

// AccessLevel returns the access tier granted on login.
// Students get free access, owners paid access.
func (t UserType) AccessLevel() string {
	switch t {
	case UserTypeStudent:
		return "free"
	case UserTypeOwner:
		return "paid"
	default:
		return ""
	}
}

// UserAccount represents a registered user.
// Password is kept verbatim; there is no hashing.
type UserAccount struct {
	Username string   `json:"username"`
	Password string   `json:"-"`
	UserType UserType `json:"user_type"`
}

// Stream identifies one of the chat message logs
type Stream string

const (
	// StreamShared is the one-to-one style chat between owners and students
	StreamShared Stream = "shared"
	// StreamGroup is the students group chat
	StreamGroup Stream = "group"
)

// Streams lists every known stream
var Streams = []Stream{StreamShared, StreamGroup}

// Valid reports whether s is a known stream
func (s Stream) Valid() bool {
	return s == StreamShared || s == StreamGroup
}

// ChatMessage represents a single immutable chat message
type ChatMessage struct {
	ID       int64     `json:"id"`
	Author   string    `json:"user"`
	Body     string    `json:"message"`
	PostedAt time.Time `json:"timestamp"`
}

// PhotoAsset describes a stored photo and its distance sidecar.
// DistanceKm is nil when no sidecar exists ("unspecified").
type PhotoAsset struct {
	Filename   string   `json:"filename"`
	DistanceKm *float64 `json:"distance_km"`
}

// DistanceLabel renders the distance or "unspecified"
func (p PhotoAsset) DistanceLabel() string {
	if p.DistanceKm == nil {
		return "unspecified"
	}
	return formatKm(*p.DistanceKm)
}

// PricedPhoto is a photo with its derived price.
// Price is computed from listing order and is never persisted.
type PricedPhoto struct {
	PhotoAsset
	Price int    `json:"price"`
	URL   string `json:"url,omitempty"`
}

// Stats summarizes users and chat activity
type Stats struct {
	Users          int              `json:"users"`
	UsersByType    map[UserType]int `json:"users_by_type"`
	Messages       int              `json:"messages"`
	MessagesByUser map[string]int   `json:"messages_by_user"`
	MessagesByChat map[Stream]int   `json:"messages_by_stream"`
}

func formatKm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
