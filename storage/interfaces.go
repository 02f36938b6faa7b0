package storage

import "bds-scraper/models"

// EventStore is the shared events store consumed by the import pipeline.
// Upsert is keyed by source URL: callers look up first, then create or update.
type EventStore interface {
	// FindBySourceURL returns the event with the exact source URL, or nil
	// when none exists.
	FindBySourceURL(url string) (*models.Event, error)
	// Create inserts a new event and returns it with store-assigned fields.
	Create(ev *models.Event) (*models.Event, error)
	// Update overwrites the mutable fields of the event with the given id.
	// The source URL is never modified.
	Update(id int64, ev *models.Event) error
	Close() error
}

// ImageDownloader fetches an event poster and stores it locally, returning
// the storage-relative path, or "" when the image could not be acquired.
type ImageDownloader interface {
	Download(imageURL, eventName string) string
}

// RawEventWriter persists the raw crawl output for operator inspection.
type RawEventWriter interface {
	WriteRaw(events []*models.RawEvent) error
	Close() error
}
