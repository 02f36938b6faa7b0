package baiedessinges

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bds-scraper/config"
	"bds-scraper/utils"
)

// fakeSession scripts the browser: every URL maps to a page with a status,
// a set of JSON-LD events and a detail payload.
type fakePage struct {
	status  int
	navErr  error
	evalErr error
	events  []jsonLDEvent
	detail  detailData
	html    string
}

type fakeSession struct {
	pages   map[string]*fakePage
	visited []string
	current string
}

func (f *fakeSession) Navigate(url string, timeout time.Duration) (int, error) {
	f.visited = append(f.visited, url)
	p, ok := f.pages[url]
	if !ok {
		return 404, nil
	}
	if p.navErr != nil {
		return 0, p.navErr
	}
	f.current = url
	if p.status == 0 {
		return 200, nil
	}
	return p.status, nil
}

func (f *fakeSession) Evaluate(script string, out any) error {
	p, ok := f.pages[f.current]
	if !ok {
		return errors.New("no page loaded")
	}
	if p.evalErr != nil {
		return p.evalErr
	}

	var v any
	switch {
	case strings.Contains(script, "ld+json"):
		v = p.events
	case strings.Contains(script, "outerHTML"):
		v = p.html
	default:
		v = p.detail
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (f *fakeSession) Close() {}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		UpcomingFeedURL: "https://venue.test/programme/liste/",
		PastFeedURL:     "https://venue.test/programme/liste/evenements-passes/",
		PageTimeout:     time.Second,
		DetailTimeout:   time.Second,
		RequestPause:    time.Millisecond,
		PagePause:       time.Millisecond,
		DebugDir:        t.TempDir(),
	}
}

func TestScrapeStopsAfter404Page(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{pages: map[string]*fakePage{
		cfg.UpcomingFeedURL: {
			events: []jsonLDEvent{
				{Name: "Concert A", URL: "https://venue.test/evenement/a/", StartDate: "2025-03-15T20:30:00+01:00"},
				{Name: "Concert B", URL: "https://venue.test/evenement/b/", StartDate: "2025-03-16T20:30:00+01:00"},
			},
		},
		"https://venue.test/evenement/a/": {detail: detailData{Text: "Plein texte A", HTML: "<p>Plein texte A</p>"}},
		"https://venue.test/evenement/b/": {detail: detailData{Text: "Plein texte B", HTML: "<p>Plein texte B</p>", Location: "La Baie des Singes"}},
		// upcoming page 2 and the whole past feed answer 404
	}}

	events, err := New(cfg, utils.NewLogger(), sess).Scrape()
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].DescriptionText != "Plein texte A" {
		t.Errorf("event not enriched: %+v", events[0])
	}
	if events[1].Location != "La Baie des Singes" {
		t.Errorf("venue not captured: %q", events[1].Location)
	}

	// Page 2 of the upcoming feed must have been tried exactly once and its
	// 404 must end the feed.
	page2 := cfg.UpcomingFeedURL + "page/2/"
	tried := 0
	for _, u := range sess.visited {
		if u == page2 {
			tried++
		}
		if u == cfg.UpcomingFeedURL+"page/3/" {
			t.Error("pagination continued past a 404 page")
		}
	}
	if tried != 1 {
		t.Errorf("page 2 tried %d times, want 1 (no retries)", tried)
	}
}

func TestScrapeEmptyFirstPageCapturesHTML(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{pages: map[string]*fakePage{
		cfg.UpcomingFeedURL: {html: "<html><body>rien</body></html>"},
		cfg.PastFeedURL:     {html: "<html></html>"},
	}}

	events, err := New(cfg, utils.NewLogger(), sess).Scrape()
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}

	dump := filepath.Join(cfg.DebugDir, "debug-scraping-upcoming.html")
	data, err := os.ReadFile(dump)
	if err != nil {
		t.Fatalf("debug capture missing: %v", err)
	}
	if !strings.Contains(string(data), "rien") {
		t.Errorf("debug capture has wrong content: %q", data)
	}
}

func TestScrapePropagatesNavigationError(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{pages: map[string]*fakePage{
		cfg.UpcomingFeedURL: {navErr: errors.New("net::ERR_TIMED_OUT")},
	}}

	if _, err := New(cfg, utils.NewLogger(), sess).Scrape(); err == nil {
		t.Fatal("expected run-level failure on non-404 navigation error")
	}
}

func TestEnrichFailureKeepsStubUnchanged(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{pages: map[string]*fakePage{
		cfg.UpcomingFeedURL: {
			events: []jsonLDEvent{{
				Name:        "Soir&#233;e Impro",
				URL:         "https://venue.test/evenement/impro/",
				Description: "Une soirée d'impro. Tarif : 8€",
			}},
		},
		"https://venue.test/evenement/impro/": {navErr: errors.New("net::ERR_CONNECTION_RESET")},
	}}

	events, err := New(cfg, utils.NewLogger(), sess).Scrape()
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.SourceURL != "https://venue.test/evenement/impro/" {
		t.Errorf("source URL changed: %q", ev.SourceURL)
	}
	if ev.DescriptionText != "" || ev.DescriptionHTML != "" {
		t.Errorf("enrichment fields should be empty after failure: %+v", ev)
	}
	if ev.ShortDescription == "" {
		t.Error("pre-enrichment short description lost")
	}
	if ev.PriceText != "8€" {
		t.Errorf("PriceText = %q, want 8€", ev.PriceText)
	}
}

func TestExtractEventsDropsStubsWithoutKey(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{pages: map[string]*fakePage{
		cfg.UpcomingFeedURL: {
			events: []jsonLDEvent{
				{Name: "Sans URL"},
				{URL: "https://venue.test/evenement/sans-nom/"},
				{Name: "Valide", URL: "https://venue.test/evenement/ok/"},
			},
		},
	}}
	sess.current = cfg.UpcomingFeedURL

	s := New(cfg, utils.NewLogger(), sess)
	if _, err := sess.Navigate(cfg.UpcomingFeedURL, time.Second); err != nil {
		t.Fatal(err)
	}
	stubs, err := s.extractEvents(FeedUpcoming)
	if err != nil {
		t.Fatalf("extractEvents: %v", err)
	}
	if len(stubs) != 1 || stubs[0].Name != "Valide" {
		t.Fatalf("got %d stubs, want only the valid one", len(stubs))
	}
	if stubs[0].Feed != string(FeedUpcoming) {
		t.Errorf("feed tag = %q", stubs[0].Feed)
	}
}

func TestFeedPageURL(t *testing.T) {
	root := "https://venue.test/programme/liste/"
	if got := feedPageURL(root, 1); got != root {
		t.Errorf("page 1 = %q, want bare root", got)
	}
	if got := feedPageURL(root, 3); got != root+"page/3/" {
		t.Errorf("page 3 = %q", got)
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"Tarif : 12€", "12€"},
		{"Plein tarif : 15 €, réduit : 10 €", "15€"},
		{"Prix: 8,50€", "8,50€"},
		{"Entrée 8€", "8€"},
		{"Un spectacle à 10€ à ne pas rater", "10€"},
		{"Entrée libre", "Non spécifié"},
		{"", "Non spécifié"},
	}

	for _, tt := range tests {
		if got := ExtractPrice(tt.desc); got != tt.want {
			t.Errorf("ExtractPrice(%q) = %q; want %q", tt.desc, got, tt.want)
		}
	}
}

func TestShortDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Un <strong>super</strong> spectacle</p>", "Un super spectacle"},
		{"Premi&egrave;re partie [&hellip;]", "Première partie …"},
		{"Suite   du\n texte [...] fin", "Suite du texte … fin"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ShortDescription(tt.in); got != tt.want {
			t.Errorf("ShortDescription(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortDescriptionTruncates(t *testing.T) {
	long := strings.Repeat("a", 1200)
	if got := ShortDescription(long); len([]rune(got)) != shortDescriptionLimit {
		t.Errorf("len = %d, want %d", len([]rune(got)), shortDescriptionLimit)
	}
}
