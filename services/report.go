package services

import (
	"fmt"

	"bds-scraper/models"
)

// PrintReport writes the human-readable run summary to stdout. Partial
// success stays visible: an operator can always tell found from created,
// updated, skipped and errored.
func PrintReport(stats *models.CrawlStats) {
	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════╗")
	fmt.Println("║              Crawl summary                 ║")
	fmt.Println("╚════════════════════════════════════════════╝")
	fmt.Printf("  Events found:   %d\n", stats.Found)
	fmt.Printf("  Created:        %d\n", stats.Created)
	fmt.Printf("  Updated:        %d\n", stats.Updated)
	fmt.Printf("  Skipped (dup):  %d\n", stats.Skipped)
	if stats.Errors > 0 {
		fmt.Printf("  Errors:         %d\n", stats.Errors)
	}
	fmt.Println()
}
