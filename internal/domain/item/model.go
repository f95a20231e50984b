// Package item defines the listing model of the lost-and-found board and
// the storage contract the map query and HTTP layers read through.
package item

import (
	"context"
	"errors"
	"time"

	"laf/internal/domain/geo"
)

// Type says whether a listing reports a lost or a found item.
type Type string

const (
	TypeLost  Type = "lost"
	TypeFound Type = "found"
)

// Opposite returns the matching counterpart type.
func (t Type) Opposite() Type {
	if t == TypeLost {
		return TypeFound
	}
	return TypeLost
}

// Valid reports whether t is a known listing type.
func (t Type) Valid() bool {
	return t == TypeLost || t == TypeFound
}

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
	StatusClosed   Status = "closed"
	StatusDeleted  Status = "deleted"
)

// Valid reports whether s is a known listing status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusResolved, StatusClosed, StatusDeleted:
		return true
	}
	return false
}

// CanTransition reports whether a status change is allowed. Transitions
// are one-directional: active listings may be resolved or closed, deleted
// is reachable from anywhere and terminal, and resolved/closed never
// return to active.
func CanTransition(from, to Status) bool {
	if from == StatusDeleted {
		return false
	}
	if to == StatusDeleted {
		return true
	}
	if from == StatusActive {
		return to == StatusResolved || to == StatusClosed
	}
	return false
}

// Item is a single lost or found listing.
type Item struct {
	ID             int64      `json:"id"`
	Type           Type       `json:"type"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	CategoryID     int64      `json:"-"`
	CategoryName   string     `json:"category,omitempty"`
	Location       *geo.Point `json:"coordinates,omitempty"`
	LocationID     string     `json:"locationId,omitempty"`
	LocationDetail string     `json:"location,omitempty"`
	LostDate       *time.Time `json:"lostDate,omitempty"`
	ContactInfo    string     `json:"contactInfo,omitempty"`
	ContactType    string     `json:"contactType,omitempty"`
	Status         Status     `json:"status"`
	AuthorID       int64      `json:"-"`
	Author         *Author    `json:"author,omitempty"`
	Images         []string   `json:"images,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	ViewCount      int        `json:"viewCount"`
	CreatedAt      time.Time  `json:"createdAt"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

// Author is the listing owner as shown to other users.
type Author struct {
	ID       int64   `json:"id"`
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
}

// TimeRange limits a query to listings created within a trailing window.
type TimeRange string

const (
	Range7Days  TimeRange = "7d"
	Range30Days TimeRange = "30d"
	Range90Days TimeRange = "90d"
	RangeAll    TimeRange = "all"
)

// Days returns the window length, or 0 when no time filter applies.
func (r TimeRange) Days() int {
	switch r {
	case Range7Days:
		return 7
	case Range30Days:
		return 30
	case Range90Days:
		return 90
	}
	return 0
}

// Valid reports whether r is a known time range. The empty value is
// allowed and means "all".
func (r TimeRange) Valid() bool {
	switch r {
	case "", Range7Days, Range30Days, Range90Days, RangeAll:
		return true
	}
	return false
}

// Filter selects listings for list and map queries. Zero values mean
// "no constraint" except Status, which callers set explicitly.
type Filter struct {
	Type      Type
	Category  string
	Status    Status
	TimeRange TimeRange
	Keyword   string
	Limit     int
	Offset    int
}

// CreateInput carries everything needed to create a listing. Images and
// tags are inserted in the same transaction as the item row.
type CreateInput struct {
	Type           Type
	Title          string
	Description    string
	CategoryCode   string
	Location       *geo.Point
	LocationID     string
	LocationDetail string
	LostDate       *time.Time
	ContactInfo    string
	ContactType    string
	AuthorID       int64
	Images         []string
	Tags           []string
}

// Domain errors surfaced to the HTTP layer.
var (
	ErrNotFound          = errors.New("item not found")
	ErrNotOwner          = errors.New("not the item owner")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownCategory   = errors.New("unknown category")
)

// Store is the persistence contract for listings.
type Store interface {
	// Create inserts the item with its images and tags atomically and
	// returns the stored listing.
	Create(ctx context.Context, in CreateInput) (*Item, error)

	// GetByID returns a listing with category and author enrichment.
	GetByID(ctx context.Context, id int64) (*Item, error)

	// List returns listings matching the filter, newest first.
	List(ctx context.Context, f Filter) ([]Item, int, error)

	// SearchRegion returns listings inside bounds matching the filter,
	// newest first. Listings without coordinates are never returned.
	SearchRegion(ctx context.Context, b geo.Bounds, f Filter) ([]Item, error)

	// UpdateStatus applies a lifecycle transition, recording resolved_at
	// when the listing is resolved. The update only takes effect while
	// the listing is still in the from status; a concurrent transition
	// that moved it first yields ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id int64, from, to Status, now time.Time) error

	// IncrementViews bumps the view counter.
	IncrementViews(ctx context.Context, id int64) error

	// Statistics aggregates counts over listings with coordinates.
	Statistics(ctx context.Context, r TimeRange) (*Stats, error)
}

// Stats is the aggregate returned by the map statistics endpoint.
type Stats struct {
	TotalItems      int       `json:"totalItems"`
	LostItems       int       `json:"lostItems"`
	FoundItems      int       `json:"foundItems"`
	ResolvedItems   int       `json:"resolvedItems"`
	SuccessRate     string    `json:"successRate"`
	AvgResolveHours *int      `json:"avgResolveHours"`
	ActiveLocations int       `json:"activeLocations"`
	TimeRange       TimeRange `json:"timeRange"`
}
