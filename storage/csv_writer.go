package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bds-scraper/models"
)

// CSVWriter dumps raw crawled events to a CSV file before import, so an
// operator can inspect exactly what the site exposed.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"feed", "name", "start_date", "price", "source_url", "image_url",
		"short_description", "location", "scraped_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends every raw event to the CSV file.
func (c *CSVWriter) WriteRaw(events []*models.RawEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ev := range events {
		row := []string{
			ev.Feed,
			ev.Name,
			ev.StartDate,
			ev.PriceText,
			ev.SourceURL,
			ev.ImageURL,
			ev.ShortDescription,
			ev.Location,
			ev.ScrapedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
