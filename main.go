package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"pricewatch/adapter"
	"pricewatch/config"
	"pricewatch/database"
	"pricewatch/fetch"
	"pricewatch/handlers"
	"pricewatch/middleware"
	"pricewatch/models"
	"pricewatch/notify"
	"pricewatch/repository"
	"pricewatch/scanner"
	"pricewatch/scheduler"
)

const usage = `pricewatch - price tracking and drop alerts

Usage:
  pricewatch serve                      Run the HTTP API with scheduled scans
  pricewatch scan                       Scan all configured products once
  pricewatch test-url <url>             Extract a price from one URL
  pricewatch history <product_id>       Show recent snapshots for a product
  pricewatch list                       List configured products

Flags for test-url:  -currency CODE
Flags for history:   -limit N
`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var code int
	switch os.Args[1] {
	case "serve":
		code = runServe(cfg)
	case "scan":
		code = runScan(cfg)
	case "test-url":
		code = runTestURL(cfg, os.Args[2:])
	case "history":
		code = runHistory(cfg, os.Args[2:])
	case "list":
		code = runList(cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		code = 2
	}
	os.Exit(code)
}

// newFetcher picks the page fetcher: plain HTTP by default, headless browser
// when USE_BROWSER is set. Falls back to HTTP when the browser won't start.
func newFetcher(cfg *config.Config) (fetch.Fetcher, func()) {
	if cfg.UseBrowser {
		browser, err := fetch.NewBrowserFetcher()
		if err == nil {
			return browser, browser.Close
		}
		log.Printf("Browser fetcher unavailable (%v), using HTTP fetcher", err)
	}
	return fetch.NewHTTPFetcher(cfg.FetchTimeout), func() {}
}

// newScanner assembles the scan pipeline against the opened database.
func newScanner(cfg *config.Config, fetcher fetch.Fetcher) (*scanner.Scanner, *repository.Store) {
	store := repository.NewStore()
	return scanner.New(store, fetcher, notify.LogNotifier{}, cfg.ScanConcurrency), store
}

func initDatabase(cfg *config.Config) error {
	if err := database.Init(cfg.DatabaseURL); err != nil {
		return err
	}
	return database.CreateTables()
}

func runServe(cfg *config.Config) int {
	if err := initDatabase(cfg); err != nil {
		log.Printf("Failed to initialize database: %v", err)
		return 1
	}
	defer database.Close()

	fetcher, closeFetcher := newFetcher(cfg)
	defer closeFetcher()
	sc, store := newScanner(cfg, fetcher)

	loadProducts := func() ([]models.ProductConfig, error) {
		return config.LoadProducts(cfg.ProductsPath)
	}

	checker := scheduler.NewChecker(sc, loadProducts, cfg.ScanSchedule)
	checker.Start()
	defer checker.Stop()

	tasks := scheduler.NewTaskManager(func(ctx context.Context) ([]models.ScanResult, error) {
		products, err := loadProducts()
		if err != nil {
			return nil, err
		}
		return sc.Scan(ctx, products), nil
	})
	defer tasks.Stop()

	h := handlers.New(sc, store, tasks, fetcher, loadProducts)

	r := mux.NewRouter()
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(cfg.RateLimit))

	r.HandleFunc("/health", h.Health).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/scan", h.ScanNow).Methods("POST")
	apiV1.HandleFunc("/scan-async", h.ScanAsync).Methods("POST")
	apiV1.HandleFunc("/tasks/{taskId}", h.GetTask).Methods("GET")
	apiV1.HandleFunc("/products", h.ListProducts).Methods("GET")
	apiV1.HandleFunc("/products/{id}/history", h.GetHistory).Methods("GET")
	apiV1.HandleFunc("/products/{id}/alerts", h.GetAlerts).Methods("GET")
	apiV1.HandleFunc("/summary", h.GetSummary).Methods("GET")
	apiV1.HandleFunc("/extract", h.ExtractURL).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	addr := cfg.Host + ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: c.Handler(r)}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down...")
		srv.Shutdown(context.Background())
	}()

	log.Printf("Server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Server error: %v", err)
		return 1
	}
	return 0
}

func runScan(cfg *config.Config) int {
	products, err := config.LoadProducts(cfg.ProductsPath)
	if err != nil {
		log.Printf("Error loading config: %v", err)
		return 1
	}
	if len(products) == 0 {
		log.Println("No products configured")
		return 0
	}

	if err := initDatabase(cfg); err != nil {
		log.Printf("Failed to initialize database: %v", err)
		return 1
	}
	defer database.Close()

	fetcher, closeFetcher := newFetcher(cfg)
	defer closeFetcher()
	sc, store := newScanner(cfg, fetcher)

	results := sc.Scan(context.Background(), products)
	for _, r := range results {
		switch r.Status {
		case models.OutcomeSkipped:
			fmt.Printf("[SKIP] %s: %s\n", r.URL, r.Reason)
		case models.OutcomeError:
			fmt.Printf("[ERROR] %s: %s\n", r.URL, r.Reason)
		}
	}

	printSummary(store)
	return 0
}

// printSummary renders the per-product price table shown after a scan.
func printSummary(store *repository.Store) {
	summary, err := store.Snapshots.Summary()
	if err != nil {
		log.Printf("Failed to load summary: %v", err)
		return
	}

	fmt.Println()
	fmt.Printf("%-20s %-15s %-15s\n", "Product", "Lowest Seen", "Current Price")
	fmt.Println("------------------------------------------------------------")
	for _, item := range summary {
		fmt.Printf("%-20s $%-14.2f $%-14.2f\n", item.ProductID, item.LowestPrice, item.CurrentPrice)
	}
	if len(summary) == 0 {
		fmt.Println("No price data available yet.")
	}
}

func runTestURL(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("test-url", flag.ExitOnError)
	currency := fs.String("currency", models.DefaultCurrency, "currency fallback")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pricewatch test-url [-currency CODE] <url>")
		return 2
	}
	url := fs.Arg(0)

	fetcher, closeFetcher := newFetcher(cfg)
	defer closeFetcher()
	sc := scanner.New(nil, fetcher, notify.LogNotifier{}, 1)

	var page []byte
	if _, stub := adapter.Select(url).(adapter.AmazonStub); !stub {
		body, err := fetcher.Fetch(context.Background(), url)
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			return 1
		}
		page = body
	}

	record, err := sc.ProcessURL(url, page, *currency)
	if err != nil {
		var skip *adapter.SkipError
		if errors.As(err, &skip) {
			fmt.Printf("[SKIP] %s: %s\n", url, skip.Reason)
			return 0
		}
		fmt.Printf("[ERROR] failed to extract from %s: %v\n", url, err)
		return 1
	}

	fmt.Printf("[OK] fetched url=%s price=%.2f currency=%s src=%s\n",
		url, record.Price, record.Currency, record.ParseSource)
	if record.ListPrice != nil {
		fmt.Printf("  list_price=%.2f\n", *record.ListPrice)
	}
	if record.InStock != nil {
		fmt.Printf("  in_stock=%t\n", *record.InStock)
	}
	return 0
}

func runHistory(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "maximum entries")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pricewatch history [-limit N] <product_id>")
		return 2
	}
	productID := fs.Arg(0)

	if err := initDatabase(cfg); err != nil {
		log.Printf("Failed to initialize database: %v", err)
		return 1
	}
	defer database.Close()

	store := repository.NewStore()
	snapshots, err := store.ListSnapshots(productID, *limit)
	if err != nil {
		log.Printf("Error retrieving history: %v", err)
		return 1
	}
	if len(snapshots) == 0 {
		fmt.Printf("No history found for product: %s\n", productID)
		return 1
	}

	fmt.Printf("Price history for %s (latest %d entries):\n", productID, len(snapshots))
	for _, s := range snapshots {
		fmt.Printf("  %s | %.2f %s | %s | %s\n",
			s.TS.Format("2006-01-02 15:04:05"), s.Price, s.Currency, s.ParseSource, s.RetailerID)
	}
	return 0
}

func runList(cfg *config.Config) int {
	products, err := config.LoadProducts(cfg.ProductsPath)
	if err != nil {
		log.Printf("Error loading config: %v", err)
		return 1
	}

	fmt.Printf("Found %d products:\n", len(products))
	for _, p := range products {
		fmt.Printf("  %s: %d links\n", p.ID, len(p.Links))
		for _, link := range p.Links {
			fmt.Printf("    - %s\n", link)
		}
	}
	return 0
}
