// Package notify defines where raised alerts go. Actual delivery channels
// (email, webhooks) are out of scope; the alert record itself is the product.
package notify

import (
	"log"

	"pricewatch/models"
)

// Notifier receives each alert as the scanner persists it.
type Notifier interface {
	AlertRaised(alert *models.Alert, snapshot *models.Snapshot) error
}

// LogNotifier writes alerts to the process log.
type LogNotifier struct{}

func (LogNotifier) AlertRaised(alert *models.Alert, snapshot *models.Snapshot) error {
	log.Printf("[DROP] %s %s %.2f %s (%s)",
		alert.ProductID, alert.RetailerID, alert.NewPrice, alert.Reason, snapshot.URL)
	return nil
}
