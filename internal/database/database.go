// Package database provides direct Postgres access to the catalog, used to
// apply generated SQL scripts and to read back the published rows that feed
// the sitemap generator.
package database

import (
	"context"
	"errors"
)

// ErrDatabase wraps failures coming back from the catalog database.
var ErrDatabase = errors.New("database error")

// PublishedServer is the slice of a server row the sitemap generator needs.
type PublishedServer struct {
	Slug        string
	Stars       int
	LastUpdated string
}

// PublishedCategory is a category id with its current server count.
type PublishedCategory struct {
	ID          string
	ServerCount int
}

// Catalog defines read/apply access to the catalog database.
type Catalog interface {
	// ApplyScript executes a generated SQL script in a single round trip.
	ApplyScript(ctx context.Context, script string) error
	// ListPublishedServers returns all server slugs with the fields that
	// drive sitemap priority, ordered by slug.
	ListPublishedServers(ctx context.Context) ([]PublishedServer, error)
	// ListCategories returns all category ids ordered by id.
	ListCategories(ctx context.Context) ([]PublishedCategory, error)
	// ListTags returns all tag names ordered by name.
	ListTags(ctx context.Context) ([]string, error)
	// Close releases the underlying connections.
	Close() error
}
