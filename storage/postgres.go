package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"bds-scraper/models"
)

// PostgresStore persists domain events in the shared PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, bootstraps the schema,
// and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id                  SERIAL PRIMARY KEY,
			date                TIMESTAMPTZ NOT NULL,
			name                TEXT        NOT NULL,
			description         TEXT        NOT NULL DEFAULT '',
			arrival_time        VARCHAR(5)  NOT NULL,
			departure_time      VARCHAR(5)  NOT NULL,
			expected_audience   INTEGER     NOT NULL DEFAULT 0,
			required_volunteers INTEGER     NOT NULL DEFAULT 1,
			season              INTEGER     NOT NULL,
			comments            TEXT        NOT NULL DEFAULT '',
			image_url           TEXT,
			price               TEXT        NOT NULL DEFAULT '',
			source_url          TEXT        UNIQUE,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_events_date   ON events(date);
		CREATE INDEX IF NOT EXISTS idx_events_season ON events(season);
	`)
	return err
}

// FindBySourceURL returns the event with the exact source URL, or nil when
// no such event exists.
func (ps *PostgresStore) FindBySourceURL(url string) (*models.Event, error) {
	row := ps.db.QueryRow(`
		SELECT id, date, name, description, arrival_time, departure_time,
		       expected_audience, required_volunteers, season, comments,
		       image_url, price, source_url, created_at, updated_at
		FROM events
		WHERE source_url = $1
	`, url)

	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find by source url: %w", err)
	}
	return ev, nil
}

// Create inserts a new event and fills in the store-assigned fields.
func (ps *PostgresStore) Create(ev *models.Event) (*models.Event, error) {
	err := ps.db.QueryRow(`
		INSERT INTO events (date, name, description, arrival_time, departure_time,
		                    expected_audience, required_volunteers, season,
		                    comments, image_url, price, source_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at
	`, ev.Date, ev.Name, ev.Description, ev.ArrivalTime, ev.DepartureTime,
		ev.ExpectedAudience, ev.RequiredVolunteers, ev.Season,
		ev.Comments, nullable(ev.ImageURL), ev.Price, ev.SourceURL,
	).Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("postgres: create event: %w", err)
	}
	return ev, nil
}

// Update overwrites the mutable fields of the event with the given id.
// The source URL is deliberately left out of the SET list.
func (ps *PostgresStore) Update(id int64, ev *models.Event) error {
	res, err := ps.db.Exec(`
		UPDATE events
		SET date = $2, name = $3, description = $4, arrival_time = $5,
		    departure_time = $6, expected_audience = $7,
		    required_volunteers = $8, season = $9, comments = $10,
		    image_url = $11, price = $12, updated_at = NOW()
		WHERE id = $1
	`, id, ev.Date, ev.Name, ev.Description, ev.ArrivalTime, ev.DepartureTime,
		ev.ExpectedAudience, ev.RequiredVolunteers, ev.Season, ev.Comments,
		nullable(ev.ImageURL), ev.Price)
	if err != nil {
		return fmt.Errorf("postgres: update event %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("postgres: update event %d: no such event", id)
	}
	return nil
}

// CountImported returns how many stored events came from the programme site.
func (ps *PostgresStore) CountImported() (int, error) {
	var n int
	err := ps.db.QueryRow(`SELECT COUNT(*) FROM events WHERE source_url IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count imported: %w", err)
	}
	return n, nil
}

// LastImported returns the most recently updated imported event, or nil when
// nothing has been imported yet.
func (ps *PostgresStore) LastImported() (*models.Event, error) {
	row := ps.db.QueryRow(`
		SELECT id, date, name, description, arrival_time, departure_time,
		       expected_audience, required_volunteers, season, comments,
		       image_url, price, source_url, created_at, updated_at
		FROM events
		WHERE source_url IS NOT NULL
		ORDER BY updated_at DESC
		LIMIT 1
	`)

	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: last imported: %w", err)
	}
	return ev, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func scanEvent(row *sql.Row) (*models.Event, error) {
	ev := &models.Event{}
	var imageURL, sourceURL sql.NullString
	err := row.Scan(
		&ev.ID, &ev.Date, &ev.Name, &ev.Description, &ev.ArrivalTime,
		&ev.DepartureTime, &ev.ExpectedAudience, &ev.RequiredVolunteers,
		&ev.Season, &ev.Comments, &imageURL, &ev.Price, &sourceURL,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ev.ImageURL = imageURL.String
	ev.SourceURL = sourceURL.String
	return ev, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
