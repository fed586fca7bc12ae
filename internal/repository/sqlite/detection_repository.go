package sqlite

import (
	"fmt"

	"objectmonitor/internal/model"
)

// DetectionRepository implements repository.DetectionRepository for SQLite.
type DetectionRepository struct {
	db *DB
}

// NewDetectionRepository creates a new SQLite detection repository.
func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

// GetByAlertID retrieves all detections for an alert.
func (r *DetectionRepository) GetByAlertID(alertID int64) ([]model.Detection, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, alert_id, label, raw_label, x, y, width, height, confidence
		FROM detections WHERE alert_id = ? ORDER BY id
	`, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []model.Detection
	for rows.Next() {
		var det model.Detection
		if err := rows.Scan(&det.ID, &det.AlertID, &det.Label, &det.RawLabel, &det.X, &det.Y, &det.Width, &det.Height, &det.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, det)
	}

	return detections, rows.Err()
}

// GetLabelsByAlertID returns the distinct display labels of an alert.
func (r *DetectionRepository) GetLabelsByAlertID(alertID int64) ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return r.queryLabels(`SELECT DISTINCT label FROM detections WHERE alert_id = ? ORDER BY label`, alertID)
}

// GetAllLabels returns every display label ever stored.
func (r *DetectionRepository) GetAllLabels() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return r.queryLabels(`SELECT DISTINCT label FROM detections ORDER BY label`)
}

func (r *DetectionRepository) queryLabels(query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	labels := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}
