package services

import (
	"fmt"
	"time"

	"bds-scraper/config"
	"bds-scraper/models"
)

// Layouts accepted for JSON-LD start timestamps, tried in order. The site
// usually emits full RFC 3339, but date-only values show up on all-day
// events.
var startDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

const (
	defaultArrivalTime = "19:00"
	stayDurationHours  = 3
	importMarker       = "Importé depuis le site officiel"
)

// Normalizer converts enriched stubs into domain event records. It is pure:
// no I/O, and the clock is injected so conversions are reproducible in tests.
type Normalizer struct {
	firstSeasonYear    int
	expectedAudience   int
	requiredVolunteers int
	now                func() time.Time
}

// NewNormalizer builds a Normalizer from configured defaults.
func NewNormalizer(cfg *config.Config) *Normalizer {
	return &Normalizer{
		firstSeasonYear:    config.FirstSeasonYear,
		expectedAudience:   cfg.ExpectedAudience,
		requiredVolunteers: cfg.RequiredVolunteers,
		now:                time.Now,
	}
}

// Convert maps one stub to the fields of a domain event (image and id are
// filled in elsewhere). It fails only on stubs that lost their natural key;
// every other oddity degrades to a default.
func (n *Normalizer) Convert(raw *models.RawEvent) (*models.Event, error) {
	if raw.SourceURL == "" {
		return nil, fmt.Errorf("normalize %q: missing source URL", raw.Name)
	}
	if raw.Name == "" {
		return nil, fmt.Errorf("normalize %s: missing event name", raw.SourceURL)
	}

	date, hasClock := n.parseStartDate(raw.StartDate)

	arrival := defaultArrivalTime
	if hasClock {
		arrival = date.Format("15:04")
	}

	return &models.Event{
		Date:               date,
		Name:               raw.Name,
		Description:        description(raw),
		ArrivalTime:        arrival,
		DepartureTime:      ShiftTime(arrival, stayDurationHours),
		ExpectedAudience:   n.expectedAudience,
		RequiredVolunteers: n.requiredVolunteers,
		Season:             n.Season(date),
		Comments:           comments(raw),
		Price:              price(raw),
		SourceURL:          raw.SourceURL,
	}, nil
}

// parseStartDate parses the published start timestamp. The second return
// reports whether a clock component was present; midnight counts as absent,
// which is how the site publishes date-only events. An unparseable or empty
// value falls back to the current time.
func (n *Normalizer) parseStartDate(value string) (time.Time, bool) {
	if value == "" {
		return n.now(), false
	}
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			hasClock := t.Hour() != 0 || t.Minute() != 0
			return t, hasClock
		}
	}
	return n.now(), false
}

// Season numbers the September–August window the date falls in. September
// 2024 through August 2025 is season 30 with the 1995 epoch.
func (n *Normalizer) Season(date time.Time) int {
	startYear := date.Year()
	if date.Month() < time.September {
		startYear--
	}
	return startYear - n.firstSeasonYear + 1
}

// ShiftTime adds hours to an "HH:MM" time-of-day, wrapping past midnight.
func ShiftTime(clock string, hours int) string {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}
	shifted := (t.Hour() + hours) % 24
	return fmt.Sprintf("%02d:%02d", shifted, t.Minute())
}

func description(raw *models.RawEvent) string {
	switch {
	case raw.DescriptionHTML != "":
		return raw.DescriptionHTML
	case raw.DescriptionText != "":
		return raw.DescriptionText
	case raw.ShortDescription != "":
		return raw.ShortDescription
	default:
		return "Spectacle : " + raw.Name
	}
}

func comments(raw *models.RawEvent) string {
	if raw.Location != "" {
		return importMarker + " - Lieu : " + raw.Location
	}
	return importMarker
}

func price(raw *models.RawEvent) string {
	if raw.PriceText == "" {
		return "Non spécifié"
	}
	return raw.PriceText
}
