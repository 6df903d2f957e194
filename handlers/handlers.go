package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"pricewatch/adapter"
	"pricewatch/extract"
	"pricewatch/fetch"
	"pricewatch/models"
	"pricewatch/repository"
	"pricewatch/scanner"
	"pricewatch/scheduler"
)

const defaultHistoryLimit = 20

// Handlers wires the HTTP API onto the scan pipeline and the stored logs.
type Handlers struct {
	scanner   *scanner.Scanner
	snapshots *repository.SnapshotRepository
	alerts    *repository.AlertRepository
	tasks     *scheduler.TaskManager
	fetcher   fetch.Fetcher
	products  func() ([]models.ProductConfig, error)
}

func New(s *scanner.Scanner, store *repository.Store, tasks *scheduler.TaskManager,
	fetcher fetch.Fetcher, products func() ([]models.ProductConfig, error)) *Handlers {
	return &Handlers{
		scanner:   s,
		snapshots: store.Snapshots,
		alerts:    store.Alerts,
		tasks:     tasks,
		fetcher:   fetcher,
		products:  products,
	}
}

// Health reports service liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":   "pricewatch",
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// ListProducts returns the configured products.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load products: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// ScanNow runs a full scan synchronously and returns the per-link results.
func (h *Handlers) ScanNow(w http.ResponseWriter, r *http.Request) {
	products, err := h.products()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load products: "+err.Error())
		return
	}
	results := h.scanner.Scan(r.Context(), products)
	writeJSON(w, http.StatusOK, results)
}

// ScanAsync queues a scan task and returns its ID immediately.
func (h *Handlers) ScanAsync(w http.ResponseWriter, r *http.Request) {
	task := h.tasks.Submit()
	writeJSON(w, http.StatusAccepted, task)
}

// GetTask returns the status of an async scan task.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]
	task, ok := h.tasks.Get(taskID)
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// GetHistory returns recent snapshots for a product, newest first.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]
	limit := queryInt(r, "limit", defaultHistoryLimit)

	snapshots, err := h.snapshots.List(productID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get history: "+err.Error())
		return
	}
	if snapshots == nil {
		snapshots = []models.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// GetAlerts returns recent alerts for a product, newest first.
func (h *Handlers) GetAlerts(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]
	limit := queryInt(r, "limit", defaultHistoryLimit)

	alerts, err := h.alerts.List(productID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get alerts: "+err.Error())
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// extractRequest is the body for the single-URL test path. When HTML is
// omitted the page is fetched first.
type extractRequest struct {
	URL      string `json:"url"`
	HTML     string `json:"html,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type extractResponse struct {
	Status string              `json:"status"`
	Record *models.PriceRecord `json:"record,omitempty"`
	Reason string              `json:"reason,omitempty"`
}

// ExtractURL runs the extraction pipeline for one URL without persisting
// anything.
func (h *Handlers) ExtractURL(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	page := []byte(req.HTML)
	if len(page) == 0 {
		// Stub adapters never need the page, so don't fetch for them.
		if _, stub := adapter.Select(req.URL).(adapter.AmazonStub); !stub {
			ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
			defer cancel()
			body, err := h.fetcher.Fetch(ctx, req.URL)
			if err != nil {
				writeJSON(w, http.StatusBadGateway, extractResponse{Status: models.OutcomeError, Reason: err.Error()})
				return
			}
			page = body
		}
	}

	record, err := h.scanner.ProcessURL(req.URL, page, req.Currency)
	if err != nil {
		var skip *adapter.SkipError
		if errors.As(err, &skip) {
			writeJSON(w, http.StatusOK, extractResponse{Status: models.OutcomeSkipped, Reason: skip.Reason})
			return
		}
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, extract.ErrNoPrice) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, extractResponse{Status: models.OutcomeError, Reason: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Status: models.OutcomeOK, Record: record})
}

// GetSummary reports lowest/current prices per product.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.snapshots.Summary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get summary: "+err.Error())
		return
	}
	if summary == nil {
		summary = []models.ProductSummary{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i > 0 {
			return i
		}
	}
	return defaultValue
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
