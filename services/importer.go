package services

import (
	"bds-scraper/models"
	"bds-scraper/storage"
	"bds-scraper/utils"
)

// Importer deduplicates crawled stubs and upserts them into the events
// store. Each stub is its own unit of work: one bad stub is counted, logged
// and skipped without stopping the rest of the batch.
type Importer struct {
	store  storage.EventStore
	images storage.ImageDownloader
	norm   *Normalizer
	logger *utils.Logger
}

// NewImporter wires an Importer. The store connection is shared and
// long-lived; the Importer never closes it.
func NewImporter(store storage.EventStore, images storage.ImageDownloader, norm *Normalizer, logger *utils.Logger) *Importer {
	return &Importer{
		store:  store,
		images: images,
		norm:   norm,
		logger: logger,
	}
}

// Import processes the full crawl output. The same event can legitimately
// appear on several listing pages across the two feeds, so duplicates by
// source URL are dropped first (first occurrence wins).
func (im *Importer) Import(raws []*models.RawEvent) *models.CrawlStats {
	stats := &models.CrawlStats{Found: len(raws)}
	seen := utils.NewURLSet()

	for _, raw := range raws {
		if raw.SourceURL != "" && !seen.Add(raw.SourceURL) {
			im.logger.Debug("[import] Duplicate within run, skipping: %s", raw.SourceURL)
			stats.Record(models.OutcomeSkipped)
			continue
		}
		stats.Record(im.importOne(raw))
	}

	im.logger.Info("[import] Done — found %d, created %d, updated %d, skipped %d, errors %d",
		stats.Found, stats.Created, stats.Updated, stats.Skipped, stats.Errors)
	return stats
}

func (im *Importer) importOne(raw *models.RawEvent) models.ImportOutcome {
	ev, err := im.norm.Convert(raw)
	if err != nil {
		im.logger.Error("[import] Conversion failed: %v", err)
		return models.OutcomeError
	}

	if raw.ImageURL != "" {
		ev.ImageURL = im.images.Download(raw.ImageURL, ev.Name)
	}

	existing, err := im.store.FindBySourceURL(ev.SourceURL)
	if err != nil {
		im.logger.Error("[import] Lookup failed for %q: %v", ev.Name, err)
		return models.OutcomeError
	}

	if existing != nil {
		if err := im.store.Update(existing.ID, ev); err != nil {
			im.logger.Error("[import] Update failed for %q: %v", ev.Name, err)
			return models.OutcomeError
		}
		im.logger.Info("[import] Updated: %s", ev.Name)
		return models.OutcomeUpdated
	}

	if _, err := im.store.Create(ev); err != nil {
		im.logger.Error("[import] Create failed for %q: %v", ev.Name, err)
		return models.OutcomeError
	}
	im.logger.Success("[import] Created: %s", ev.Name)
	return models.OutcomeCreated
}
