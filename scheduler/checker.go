package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"pricewatch/models"
	"pricewatch/scanner"
)

// Checker runs the full product scan on a cron schedule (seconds field
// included, e.g. "0 0 */12 * * *" for every 12 hours).
type Checker struct {
	cron     *cron.Cron
	scanner  *scanner.Scanner
	products func() ([]models.ProductConfig, error)
	schedule string
}

func NewChecker(s *scanner.Scanner, products func() ([]models.ProductConfig, error), schedule string) *Checker {
	return &Checker{
		cron:     cron.New(cron.WithSeconds()),
		scanner:  s,
		products: products,
		schedule: schedule,
	}
}

// Start schedules periodic scans and runs one immediately.
func (c *Checker) Start() {
	if _, err := c.cron.AddFunc(c.schedule, c.RunScan); err != nil {
		log.Printf("Failed to schedule scans (%q): %v", c.schedule, err)
		return
	}

	go c.RunScan()

	c.cron.Start()
	log.Printf("Scheduled scans: %s", c.schedule)
}

// Stop stops the scheduled scans.
func (c *Checker) Stop() {
	if c.cron != nil {
		c.cron.Stop()
	}
}

// RunScan loads the current product config and scans everything once.
func (c *Checker) RunScan() {
	products, err := c.products()
	if err != nil {
		log.Printf("Failed to load products: %v", err)
		return
	}
	if len(products) == 0 {
		log.Println("No products configured")
		return
	}

	log.Printf("Starting scan of %d products", len(products))
	results := c.scanner.Scan(context.Background(), products)

	var ok, skipped, failed, drops int
	for _, r := range results {
		switch r.Status {
		case models.OutcomeOK:
			ok++
			if r.Alert != nil {
				drops++
			}
		case models.OutcomeSkipped:
			skipped++
		default:
			failed++
		}
	}
	log.Printf("Scan complete: %d ok, %d skipped, %d failed, %d drops", ok, skipped, failed, drops)
}
