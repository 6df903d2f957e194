package repository

import "pricewatch/models"

// Store bundles the two append-only logs behind the single storage surface
// the scanner consumes.
type Store struct {
	Snapshots *SnapshotRepository
	Alerts    *AlertRepository
}

func NewStore() *Store {
	return &Store{
		Snapshots: NewSnapshotRepository(),
		Alerts:    NewAlertRepository(),
	}
}

func (s *Store) GetLastSnapshot(productID, retailerID string) (*models.Snapshot, error) {
	return s.Snapshots.GetLast(productID, retailerID)
}

func (s *Store) GetLastAlert(productID, retailerID string) (*models.Alert, error) {
	return s.Alerts.GetLast(productID, retailerID)
}

func (s *Store) AppendSnapshot(snapshot *models.Snapshot) error {
	return s.Snapshots.Append(snapshot)
}

func (s *Store) AppendAlert(alert *models.Alert) error {
	return s.Alerts.Append(alert)
}

func (s *Store) ListSnapshots(productID string, limit int) ([]models.Snapshot, error) {
	return s.Snapshots.List(productID, limit)
}
