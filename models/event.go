package models

import "time"

// RawEvent holds an event stub as discovered on the programme site.
// List extraction fills the JSON-LD fields; detail enrichment adds the
// full description and location. SourceURL is the stub's natural key and
// is never overwritten once set.
type RawEvent struct {
	Name             string
	ImageURL         string
	SourceURL        string
	StartDate        string // ISO-8601 as published in the JSON-LD block
	EndDate          string
	PriceText        string
	ShortDescription string

	// Populated by detail-page enrichment. Empty when enrichment failed,
	// in which case ShortDescription stands in.
	DescriptionHTML string
	DescriptionText string
	Location        string

	ScrapedAt time.Time
	Feed      string // "upcoming" or "past"
}

// Event is the domain record persisted in the shared events store.
type Event struct {
	ID                 int64
	Date               time.Time
	Name               string
	Description        string // HTML
	ArrivalTime        string // "HH:MM" local time-of-day
	DepartureTime      string // "HH:MM", may wrap past midnight
	ExpectedAudience   int
	RequiredVolunteers int
	Season             int
	Comments           string
	ImageURL           string // storage-relative path, empty when no image
	Price              string
	SourceURL          string // upsert key
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ImportOutcome classifies what happened to one stub during import.
type ImportOutcome int

const (
	OutcomeCreated ImportOutcome = iota
	OutcomeUpdated
	OutcomeSkipped // duplicate source URL within the same run
	OutcomeError
)

func (o ImportOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "error"
	}
}

// CrawlStats aggregates one full crawl-and-import run.
type CrawlStats struct {
	Found   int
	Created int
	Updated int
	Skipped int
	Errors  int
}

// Record tallies one import outcome.
func (s *CrawlStats) Record(o ImportOutcome) {
	switch o {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeError:
		s.Errors++
	}
}
