package repository

import (
	"testing"
	"time"

	"pricewatch/database"
	"pricewatch/models"
)

func setupDB(t *testing.T) *Store {
	t.Helper()
	if err := database.Init(":memory:"); err != nil {
		t.Fatalf("init database: %v", err)
	}
	if err := database.CreateTables(); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore()
}

func snap(productID, retailerID string, price float64, ts time.Time) *models.Snapshot {
	return &models.Snapshot{
		ProductID:  productID,
		RetailerID: retailerID,
		URL:        "https://" + retailerID + "/p/" + productID,
		TS:         ts,
		PriceRecord: models.PriceRecord{
			Price:        price,
			Currency:     "CAD",
			ParseSource:  models.SourceStructured,
			RawSignature: "sig",
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := setupDB(t)

	listPrice := 299.99
	inStock := true
	s := snap("gpu", "a.example", 249.99, time.Now().UTC())
	s.ListPrice = &listPrice
	s.InStock = &inStock

	if err := store.AppendSnapshot(s); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.GetLastSnapshot("gpu", "a.example")
	if err != nil {
		t.Fatalf("get last: %v", err)
	}
	if got == nil {
		t.Fatal("expected a snapshot")
	}
	if got.Price != 249.99 || got.Currency != "CAD" || got.URL != s.URL {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.ListPrice == nil || *got.ListPrice != 299.99 {
		t.Errorf("list price = %v, want 299.99", got.ListPrice)
	}
	if got.InStock == nil || !*got.InStock {
		t.Errorf("in_stock = %v, want true", got.InStock)
	}
	if !got.TS.Equal(s.TS) {
		t.Errorf("ts = %v, want %v", got.TS, s.TS)
	}
}

func TestSnapshotNullableFields(t *testing.T) {
	store := setupDB(t)

	s := snap("gpu", "a.example", 249.99, time.Now().UTC())
	if err := store.AppendSnapshot(s); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.GetLastSnapshot("gpu", "a.example")
	if err != nil {
		t.Fatalf("get last: %v", err)
	}
	if got.ListPrice != nil {
		t.Errorf("list price = %v, want nil", *got.ListPrice)
	}
	if got.InStock != nil {
		t.Errorf("in_stock = %v, want nil (unknown)", *got.InStock)
	}

	inStock := false
	s2 := snap("gpu", "a.example", 249.99, time.Now().UTC().Add(time.Second))
	s2.InStock = &inStock
	if err := store.AppendSnapshot(s2); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err = store.GetLastSnapshot("gpu", "a.example")
	if err != nil {
		t.Fatalf("get last: %v", err)
	}
	if got.InStock == nil || *got.InStock {
		t.Errorf("in_stock = %v, want false (known out of stock, not unknown)", got.InStock)
	}
}

func TestGetLastEmptyLineage(t *testing.T) {
	store := setupDB(t)

	got, err := store.GetLastSnapshot("never-seen", "a.example")
	if err != nil {
		t.Fatalf("get last: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil snapshot for empty lineage, got %+v", got)
	}

	alert, err := store.GetLastAlert("never-seen", "a.example")
	if err != nil {
		t.Fatalf("get last alert: %v", err)
	}
	if alert != nil {
		t.Errorf("expected nil alert for empty lineage, got %+v", alert)
	}
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	store := setupDB(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, price := range []float64{300, 280, 260, 240} {
		s := snap("gpu", "a.example", price, base.Add(time.Duration(i)*time.Hour))
		if err := store.AppendSnapshot(s); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	// Another product must not leak into the listing.
	if err := store.AppendSnapshot(snap("ssd", "a.example", 99, base)); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.ListSnapshots("gpu", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d snapshots, want 3 (limit)", len(got))
	}
	want := []float64{240, 260, 280}
	for i, s := range got {
		if s.Price != want[i] {
			t.Errorf("snapshot[%d].Price = %.2f, want %.2f (newest first)", i, s.Price, want[i])
		}
		if s.ProductID != "gpu" {
			t.Errorf("snapshot[%d] belongs to %q", i, s.ProductID)
		}
	}
}

func TestGetLastPicksLatestAcrossSameSecond(t *testing.T) {
	store := setupDB(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 115000000, time.UTC)
	if err := store.AppendSnapshot(snap("gpu", "a.example", 300, base)); err != nil {
		t.Fatalf("append: %v", err)
	}
	// 5ms later, same second: fixed-width fractions must still order.
	if err := store.AppendSnapshot(snap("gpu", "a.example", 290, base.Add(5*time.Millisecond))); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.GetLastSnapshot("gpu", "a.example")
	if err != nil {
		t.Fatalf("get last: %v", err)
	}
	if got.Price != 290 {
		t.Errorf("last price = %.2f, want 290", got.Price)
	}
}

func TestAlertRoundTripAndList(t *testing.T) {
	store := setupDB(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	first := &models.Alert{
		ProductID:  "gpu",
		RetailerID: "a.example",
		TS:         base,
		EventType:  models.EventTypePriceDrop,
		OldPrice:   300,
		NewPrice:   250,
		PctChange:  50.0 / 300,
		Reason:     "last 300.00 → 250.00 (-16.7%)",
	}
	second := &models.Alert{
		ProductID:  "gpu",
		RetailerID: "a.example",
		TS:         base.Add(time.Hour),
		EventType:  models.EventTypePriceDrop,
		OldPrice:   250,
		NewPrice:   200,
		PctChange:  50.0 / 250,
		Reason:     "last 250.00 → 200.00 (-20.0%)",
	}
	for _, a := range []*models.Alert{first, second} {
		if err := store.AppendAlert(a); err != nil {
			t.Fatalf("append alert: %v", err)
		}
	}

	last, err := store.GetLastAlert("gpu", "a.example")
	if err != nil {
		t.Fatalf("get last alert: %v", err)
	}
	if last == nil || last.NewPrice != 200 {
		t.Fatalf("last alert = %+v, want the 200.00 drop", last)
	}
	if last.EventType != models.EventTypePriceDrop || last.Reason != second.Reason {
		t.Errorf("alert fields mismatch: %+v", last)
	}

	list, err := store.Alerts.List("gpu", 10)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d alerts, want 2", len(list))
	}
	if list[0].NewPrice != 200 || list[1].NewPrice != 250 {
		t.Errorf("alerts not newest first: %.2f, %.2f", list[0].NewPrice, list[1].NewPrice)
	}
}

func TestSummary(t *testing.T) {
	store := setupDB(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, price := range []float64{300, 240, 260} {
		s := snap("gpu", "a.example", price, base.Add(time.Duration(i)*time.Hour))
		if err := store.AppendSnapshot(s); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := store.AppendSnapshot(snap("ssd", "b.example", 99, base)); err != nil {
		t.Fatalf("append: %v", err)
	}

	summary, err := store.Snapshots.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("got %d products, want 2", len(summary))
	}

	gpu := summary[0] // ordered by product_id
	if gpu.ProductID != "gpu" || gpu.LowestPrice != 240 || gpu.CurrentPrice != 260 {
		t.Errorf("gpu summary = %+v, want lowest 240, current 260", gpu)
	}
	ssd := summary[1]
	if ssd.ProductID != "ssd" || ssd.LowestPrice != 99 || ssd.CurrentPrice != 99 {
		t.Errorf("ssd summary = %+v, want 99/99", ssd)
	}
}
