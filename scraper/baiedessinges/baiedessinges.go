// Package baiedessinges crawls the programme of the Baie des Singes venue.
// The site runs The Events Calendar: listing pages embed their events as
// JSON-LD blocks, and each event has its own detail page with the full
// description. The crawl walks the "upcoming" and "past" list feeds page by
// page, visiting every event's detail page along the way.
package baiedessinges

import (
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"bds-scraper/browser"
	"bds-scraper/config"
	"bds-scraper/models"
	"bds-scraper/utils"
)

// Feed identifies one of the two paginated listing views.
type Feed string

const (
	FeedUpcoming Feed = "upcoming"
	FeedPast     Feed = "past"
)

const shortDescriptionLimit = 500

var (
	// "Tarif : 12€", "Prix: 8,50 €" and similar labelled prices.
	labelledPriceRe = regexp.MustCompile(`(?i)(?:tarif|prix|plein|entr[ée]e)s?\s*:?\s*(\d+(?:[.,]\d+)?)\s*€`)
	// Any bare "12€" left in the text.
	barePriceRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*€`)
	// WordPress truncation markers left inside JSON-LD descriptions.
	ellipsisRe = regexp.MustCompile(`\s*(?:\[(?:&hellip;|…)\]|\[\.\.\.\]|\.{3,})\s*`)
)

// PriceUnknown is stored when no price could be read from the description.
const PriceUnknown = "Non spécifié"

// Scraper drives the two-feed crawl over one browser session.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	session browser.Session
	pacer   *utils.Pacer
}

// New creates a Scraper using the given browser session. The session is
// owned by the caller; the Scraper never closes it.
func New(cfg *config.Config, logger *utils.Logger, session browser.Session) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		session: session,
		pacer:   utils.NewPacer(),
	}
}

// Scrape crawls the upcoming feed then the past feed and returns the
// concatenated, enriched stubs. A navigation failure that is not a 404
// aborts the whole crawl; 404 and empty pages are normal feed termination.
func (s *Scraper) Scrape() ([]*models.RawEvent, error) {
	var all []*models.RawEvent

	for _, feed := range []Feed{FeedUpcoming, FeedPast} {
		events, err := s.scrapeFeed(feed)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed, err)
		}
		s.logger.Success("[scraper] Feed %q done — %d event(s)", feed, len(events))
		all = append(all, events...)
	}

	s.logger.Info("[scraper] Crawl complete — %d raw event(s) total", len(all))
	return all, nil
}

// scrapeFeed paginates one feed until a 404 or an empty page.
func (s *Scraper) scrapeFeed(feed Feed) ([]*models.RawEvent, error) {
	root := s.cfg.UpcomingFeedURL
	if feed == FeedPast {
		root = s.cfg.PastFeedURL
	}

	var events []*models.RawEvent

	for page := 1; ; page++ {
		if page > 1 {
			s.pacer.Wait(s.cfg.PagePause)
		}

		url := feedPageURL(root, page)
		s.logger.Info("[scraper] Feed %q — loading page %d: %s", feed, page, url)

		status, err := s.session.Navigate(url, s.cfg.PageTimeout)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			s.logger.Info("[scraper] Feed %q — page %d returned 404, end of feed", feed, page)
			break
		}

		stubs, err := s.extractEvents(feed)
		if err != nil {
			return nil, err
		}
		if len(stubs) == 0 {
			if page == 1 {
				s.logger.Warn("[scraper] Feed %q — nothing found on first page, saving HTML for debugging", feed)
				s.dumpDebugPage(feed)
			} else {
				s.logger.Info("[scraper] Feed %q — page %d is empty, end of feed", feed, page)
			}
			break
		}

		s.logger.Info("[scraper] Feed %q — page %d: %d event(s)", feed, page, len(stubs))

		for _, stub := range stubs {
			s.pacer.Wait(s.cfg.RequestPause)
			events = append(events, s.enrich(stub))
		}
	}

	return events, nil
}

// feedPageURL builds the listing URL for a page. Page 1 is the bare feed
// root; later pages append The Events Calendar's page segment.
func feedPageURL(root string, page int) string {
	if page <= 1 {
		return root
	}
	return fmt.Sprintf("%spage/%d/", root, page)
}

// jsonLDEvent mirrors what the in-page script pulls out of one JSON-LD
// Event object.
type jsonLDEvent struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	URL         string `json:"url"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

const extractEventsJS = `
(function() {
	var results = [];
	var scripts = document.querySelectorAll('script[type="application/ld+json"]');
	for (var i = 0; i < scripts.length; i++) {
		try {
			var data = JSON.parse(scripts[i].textContent);
			var items = Array.isArray(data) ? data : [data];
			for (var j = 0; j < items.length; j++) {
				var item = items[j];
				if (item['@type'] !== 'Event') continue;
				var image = '';
				if (typeof item.image === 'string') {
					image = item.image;
				} else if (Array.isArray(item.image) && item.image.length > 0) {
					image = String(item.image[0]);
				}
				results.push({
					name: item.name || '',
					image: image,
					url: item.url || '',
					startDate: item.startDate || '',
					endDate: item.endDate || '',
					description: item.description || ''
				});
			}
		} catch (e) {
			// Malformed block: skip it, the page may carry several.
		}
	}
	return results;
})()
`

// extractEvents reads every JSON-LD Event object on the currently loaded
// listing page. Stubs without a name or a detail URL are dropped.
func (s *Scraper) extractEvents(feed Feed) ([]*models.RawEvent, error) {
	var items []jsonLDEvent
	if err := s.session.Evaluate(extractEventsJS, &items); err != nil {
		return nil, err
	}

	stubs := make([]*models.RawEvent, 0, len(items))
	for _, item := range items {
		if item.Name == "" || item.URL == "" {
			s.logger.Debug("[scraper] Dropping stub without name or URL (name=%q url=%q)", item.Name, item.URL)
			continue
		}

		stubs = append(stubs, &models.RawEvent{
			Name:             item.Name,
			ImageURL:         item.Image,
			SourceURL:        item.URL,
			StartDate:        item.StartDate,
			EndDate:          item.EndDate,
			PriceText:        ExtractPrice(item.Description),
			ShortDescription: ShortDescription(item.Description),
			ScrapedAt:        time.Now(),
			Feed:             string(feed),
		})
	}

	return stubs, nil
}

// detailData is what the in-page script returns from an event detail page.
type detailData struct {
	HTML     string `json:"html"`
	Text     string `json:"text"`
	Location string `json:"location"`
}

const extractDetailJS = `
(function() {
	var result = { html: '', text: '', location: '' };

	var descEl = document.querySelector('.tribe-events-single-event-description');
	if (!descEl) {
		descEl = document.querySelector('.entry-content, .event-description, .content, article .description');
	}
	if (descEl) {
		result.html = descEl.innerHTML.trim();
		result.text = descEl.textContent.trim();
	}

	var venueEl = document.querySelector('.tribe-venue, .event-venue, [itemprop="location"]');
	if (venueEl) {
		result.location = venueEl.textContent.trim();
	}

	return result;
})()
`

// enrich visits the stub's detail page and fills in the full description and
// venue. Any failure leaves the stub exactly as extracted from the listing;
// enrichment is never fatal. The source URL is never touched.
func (s *Scraper) enrich(stub *models.RawEvent) *models.RawEvent {
	status, err := s.session.Navigate(stub.SourceURL, s.cfg.DetailTimeout)
	if err != nil {
		s.logger.Warn("[scraper] Could not enrich %q: %v", stub.Name, err)
		return stub
	}
	if status >= 400 {
		s.logger.Warn("[scraper] Could not enrich %q: detail page returned %d", stub.Name, status)
		return stub
	}

	var details detailData
	if err := s.session.Evaluate(extractDetailJS, &details); err != nil {
		s.logger.Warn("[scraper] Could not enrich %q: %v", stub.Name, err)
		return stub
	}

	stub.Name = html.UnescapeString(stub.Name)
	stub.DescriptionHTML = html.UnescapeString(details.HTML)
	stub.DescriptionText = html.UnescapeString(details.Text)
	stub.Location = strings.TrimSpace(details.Location)

	s.logger.Debug("[scraper] Enriched %q (%d chars of description)", stub.Name, len(stub.DescriptionText))
	return stub
}

// dumpDebugPage saves the current page's HTML to help diagnose selector rot.
// Best effort only.
func (s *Scraper) dumpDebugPage(feed Feed) {
	var pageHTML string
	if err := s.session.Evaluate(`document.documentElement.outerHTML`, &pageHTML); err != nil {
		s.logger.Warn("[scraper] Debug capture failed: %v", err)
		return
	}

	path := filepath.Join(s.cfg.DebugDir, fmt.Sprintf("debug-scraping-%s.html", feed))
	if err := os.WriteFile(path, []byte(pageHTML), 0644); err != nil {
		s.logger.Warn("[scraper] Debug capture failed: %v", err)
		return
	}
	s.logger.Info("[scraper] Page HTML saved to %s", path)
}

// ExtractPrice pulls a price out of a listing description. Labelled prices
// ("Tarif : 12€") win over bare amounts ("12€"); with neither, the price is
// recorded as unknown.
func ExtractPrice(description string) string {
	if m := labelledPriceRe.FindStringSubmatch(description); m != nil {
		return m[1] + "€"
	}
	if m := barePriceRe.FindStringSubmatch(description); m != nil {
		return m[1] + "€"
	}
	return PriceUnknown
}

// ShortDescription turns a JSON-LD description (which may carry HTML and
// WordPress truncation markers) into plain text capped at a sane length.
func ShortDescription(description string) string {
	text := strings.TrimSpace(description)
	if text == "" {
		return ""
	}

	if strings.ContainsAny(text, "<>") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err == nil {
			text = doc.Text()
		}
	}

	text = html.UnescapeString(text)
	text = ellipsisRe.ReplaceAllString(text, " … ")
	text = strings.Join(strings.Fields(text), " ")

	if runes := []rune(text); len(runes) > shortDescriptionLimit {
		text = string(runes[:shortDescriptionLimit])
	}
	return strings.TrimSpace(text)
}
