package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bds-scraper/browser"
	"bds-scraper/config"
	"bds-scraper/models"
	"bds-scraper/scraper/baiedessinges"
	"bds-scraper/services"
	"bds-scraper/storage"
	"bds-scraper/utils"
)

var (
	flagDryRun  bool
	flagCSVPath string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bds-scraper",
		Short:         "Crawl the Baie des Singes programme into the events store",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	scrape := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl both programme feeds and import the events",
		RunE:  runScrape,
	}
	scrape.Flags().BoolVar(&flagDryRun, "dry-run", false, "crawl and report without writing to the store")
	scrape.Flags().StringVar(&flagCSVPath, "csv", "", "override the raw CSV dump path")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show how many events the store holds from previous imports",
		RunE:  runStatus,
	}

	root.AddCommand(scrape, status)
	return root
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := utils.NewLogger()
	cfg := config.Load()
	if flagCSVPath != "" {
		cfg.CSVOutputPath = flagCSVPath
	}

	logger.Info("=== Baie des Singes event import starting ===")
	logger.Info("Config — upcoming: %s | past: %s | pauses: %v/%v",
		cfg.UpcomingFeedURL, cfg.PastFeedURL, cfg.RequestPause, cfg.PagePause)

	var store storage.EventStore
	var images storage.ImageDownloader
	if !flagDryRun {
		pg, err := storage.NewPostgresStore(cfg.DSN())
		if err != nil {
			return fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		defer pg.Close()
		store = pg

		img, err := storage.NewImageStore(cfg.ImagesDir, cfg.ImageTimeout, logger)
		if err != nil {
			return err
		}
		images = img
	}

	session, err := browser.NewChrome(cfg.UserAgent, cfg.ChromeBin, logger)
	if err != nil {
		return err
	}
	// The session must be released on every exit path, the early Close
	// below only frees it before the store writes start.
	defer session.Close()

	events, err := baiedessinges.New(cfg, logger, session).Scrape()
	session.Close()
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	if len(events) == 0 {
		logger.Warn("No events found on either feed — nothing to import")
		services.PrintReport(&models.CrawlStats{})
		return nil
	}

	if csvW, err := storage.NewCSVWriter(cfg.CSVOutputPath); err != nil {
		logger.Error("CSV dump unavailable: %v", err)
	} else {
		if err := csvW.WriteRaw(events); err != nil {
			logger.Error("CSV dump failed: %v", err)
		} else {
			logger.Info("Raw events saved to %s", cfg.CSVOutputPath)
		}
		csvW.Close()
	}

	if flagDryRun {
		logger.Info("Dry run — skipping store writes")
		services.PrintReport(&models.CrawlStats{Found: len(events)})
		return nil
	}

	importer := services.NewImporter(store, images, services.NewNormalizer(cfg), logger)
	stats := importer.Import(events)
	services.PrintReport(stats)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, err := storage.NewPostgresStore(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer store.Close()

	count, err := store.CountImported()
	if err != nil {
		return err
	}
	last, err := store.LastImported()
	if err != nil {
		return err
	}

	fmt.Printf("Imported events in store: %d\n", count)
	if last != nil {
		fmt.Printf("Last imported: %s (updated %s)\n",
			last.Name, last.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
