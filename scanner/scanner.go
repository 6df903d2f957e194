// Package scanner runs the scan pipeline: fetch each product link, run its
// retailer adapter, feed the record through the drop-detection engine, and
// persist the decisions. Every link's outcome is independent; one URL failing
// never aborts a scan.
package scanner

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pricewatch/adapter"
	"pricewatch/engine"
	"pricewatch/fetch"
	"pricewatch/models"
	"pricewatch/notify"
)

// Storage is the persistence surface the scanner needs. The two reads and
// the writes for one lineage always happen under that lineage's lock.
type Storage interface {
	GetLastSnapshot(productID, retailerID string) (*models.Snapshot, error)
	GetLastAlert(productID, retailerID string) (*models.Alert, error)
	AppendSnapshot(*models.Snapshot) error
	AppendAlert(*models.Alert) error
	ListSnapshots(productID string, limit int) ([]models.Snapshot, error)
}

type Scanner struct {
	storage     Storage
	fetcher     fetch.Fetcher
	notifier    notify.Notifier
	concurrency int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(storage Storage, fetcher fetch.Fetcher, notifier notify.Notifier, concurrency int) *Scanner {
	if concurrency < 1 {
		concurrency = 1
	}
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Scanner{
		storage:     storage,
		fetcher:     fetcher,
		notifier:    notifier,
		concurrency: concurrency,
		locks:       make(map[string]*sync.Mutex),
	}
}

// ProcessURL runs the extraction pipeline for one already-fetched page
// without touching storage. Used by the test-url path.
func (s *Scanner) ProcessURL(url string, page []byte, currencyFallback string) (*models.PriceRecord, error) {
	if currencyFallback == "" {
		currencyFallback = models.DefaultCurrency
	}
	return adapter.Select(url).Process(url, page, currencyFallback)
}

// History returns the recent snapshots for a product, newest first.
func (s *Scanner) History(productID string, limit int) ([]models.Snapshot, error) {
	return s.storage.ListSnapshots(productID, limit)
}

// Scan processes every link of every product. Links run in parallel up to
// the configured concurrency; lineages share no state beyond storage, whose
// access is serialized per lineage key.
func (s *Scanner) Scan(ctx context.Context, products []models.ProductConfig) []models.ScanResult {
	type job struct {
		product models.ProductConfig
		link    string
	}
	var jobs []job
	for _, product := range products {
		for _, link := range product.Links {
			jobs = append(jobs, job{product, link})
		}
	}

	results := make([]models.ScanResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			results[i] = s.scanLink(ctx, j.product, j.link)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// scanLink handles a single (product, link) pair end to end.
func (s *Scanner) scanLink(ctx context.Context, product models.ProductConfig, link string) models.ScanResult {
	result := models.ScanResult{ProductID: product.ID, URL: link, Status: models.OutcomeError}

	currency := product.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	ad := adapter.Select(link)

	// Stub adapters decline before any page is fetched.
	var page []byte
	if _, stub := ad.(adapter.AmazonStub); !stub {
		var err error
		page, err = s.fetcher.Fetch(ctx, link)
		if err != nil {
			result.Reason = err.Error()
			log.Printf("[ERROR] %s: %v", link, err)
			return result
		}
	}

	record, err := ad.Process(link, page, currency)
	if err != nil {
		var skip *adapter.SkipError
		if errors.As(err, &skip) {
			result.Status = models.OutcomeSkipped
			result.Reason = skip.Reason
			return result
		}
		result.Reason = err.Error()
		log.Printf("[ERROR] %s: %v", link, err)
		return result
	}
	log.Printf("[OK] fetched url=%s price=%.2f src=%s", link, record.Price, record.ParseSource)

	alert, err := s.evaluate(product, link, record)
	if err != nil {
		result.Reason = err.Error()
		log.Printf("[ERROR] %s: %v", link, err)
		return result
	}

	result.Status = models.OutcomeOK
	result.Record = record
	result.Alert = alert
	return result
}

// evaluate runs the read-decide-write protocol for one lineage under its
// lock, so concurrent scans of the same lineage can never both read the same
// stale history and double-fire an alert.
func (s *Scanner) evaluate(product models.ProductConfig, link string, record *models.PriceRecord) (*models.Alert, error) {
	retailerID := adapter.RetailerID(link)

	lock := s.lineageLock(product.ID + "|" + retailerID)
	lock.Lock()
	defer lock.Unlock()

	last, err := s.storage.GetLastSnapshot(product.ID, retailerID)
	if err != nil {
		return nil, err
	}
	lastAlert, err := s.storage.GetLastAlert(product.ID, retailerID)
	if err != nil {
		return nil, err
	}

	if last != nil && last.RawSignature == record.RawSignature {
		log.Printf("page unchanged for %s/%s since %s", product.ID, retailerID, last.TS.Format(time.RFC3339))
	}

	decision := engine.Evaluate(engine.Input{
		Record:       record,
		ProductID:    product.ID,
		RetailerID:   retailerID,
		URL:          link,
		TS:           time.Now().UTC(),
		Thresholds:   product.Thresholds,
		LastSnapshot: last,
		LastAlert:    lastAlert,
	})

	if err := s.storage.AppendSnapshot(&decision.Snapshot); err != nil {
		return nil, err
	}
	if decision.Alert != nil {
		if err := s.storage.AppendAlert(decision.Alert); err != nil {
			return nil, err
		}
		if err := s.notifier.AlertRaised(decision.Alert, &decision.Snapshot); err != nil {
			log.Printf("notifier failed for %s: %v", product.ID, err)
		}
	}
	return decision.Alert, nil
}

func (s *Scanner) lineageLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}
