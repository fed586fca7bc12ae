package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"objectmonitor/internal/dto"
	"objectmonitor/internal/model"
)

// AlertRepository implements repository.AlertRepository for SQLite.
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new SQLite alert repository.
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const insertAlert = `
	INSERT INTO alerts (filename, timestamp, total, filepath, filesize)
	VALUES (?, ?, ?, ?, ?)
`

const insertDetection = `
	INSERT INTO detections (alert_id, label, raw_label, x, y, width, height, confidence)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// Insert adds a new alert record to the database.
func (r *AlertRepository) Insert(alert *model.Alert) (int64, error) {
	return r.InsertWithDetections(alert, nil)
}

// InsertWithDetections stores an alert and its detections in one transaction;
// on error nothing is stored.
func (r *AlertRepository) InsertWithDetections(alert *model.Alert, detections []model.Detection) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(insertAlert, alert.Filename, alert.Timestamp.UTC(), alert.Total, alert.FilePath, alert.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert: %w", err)
	}
	alertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read alert id: %w", err)
	}

	if len(detections) > 0 {
		stmt, err := tx.Prepare(insertDetection)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, det := range detections {
			if _, err := stmt.Exec(alertID, det.Label, det.RawLabel, det.X, det.Y, det.Width, det.Height, det.Confidence); err != nil {
				return 0, fmt.Errorf("failed to insert detection: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit alert: %w", err)
	}
	return alertID, nil
}

// GetByFilename retrieves an alert by its snapshot filename. A missing alert returns nil, nil.
func (r *AlertRepository) GetByFilename(filename string) (*model.Alert, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return r.scanOne(r.db.Conn().QueryRow(`
		SELECT id, filename, timestamp, total, filepath, filesize
		FROM alerts WHERE filename = ?
	`, filename))
}

func (r *AlertRepository) scanOne(row *sql.Row) (*model.Alert, error) {
	var a model.Alert
	err := row.Scan(&a.ID, &a.Filename, &a.Timestamp, &a.Total, &a.FilePath, &a.FileSize)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return &a, nil
}

// filterClause appends the WHERE conditions shared by GetAll and GetTotalCount.
func filterClause(query string, filter *dto.AlertFilters) (string, []interface{}) {
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Label != "" {
		query += " AND d.label = ?"
		args = append(args, filter.Label)
	}

	if !filter.DateAfter.IsZero() {
		query += " AND DATE(a.timestamp) >= DATE(?)"
		args = append(args, filter.DateAfter.Format("2006-01-02"))
	}

	if !filter.DateBefore.IsZero() {
		query += " AND DATE(a.timestamp) <= DATE(?)"
		args = append(args, filter.DateBefore.Format("2006-01-02"))
	}

	return query, args
}

// GetAll retrieves alerts matching filter, newest first.
func (r *AlertRepository) GetAll(filter *dto.AlertFilters) ([]model.Alert, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args := filterClause(`
		SELECT DISTINCT a.id, a.filename, a.timestamp, a.total, a.filepath, a.filesize
		FROM alerts a
		LEFT JOIN detections d ON a.id = d.alert_id
		WHERE 1=1
	`, filter)

	query += " ORDER BY a.timestamp DESC, a.id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.Filename, &a.Timestamp, &a.Total, &a.FilePath, &a.FileSize); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// GetTotalCount returns the number of alerts matching the filter.
func (r *AlertRepository) GetTotalCount(filter *dto.AlertFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args := filterClause(`
		SELECT COUNT(DISTINCT a.id)
		FROM alerts a
		LEFT JOIN detections d ON a.id = d.alert_id
		WHERE 1=1
	`, filter)

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	return count, nil
}

// GetDirectorySize returns the combined size of all stored snapshots.
func (r *AlertRepository) GetDirectorySize() (int64, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var size int64
	if err := r.db.Conn().QueryRow(`SELECT COALESCE(SUM(filesize), 0) FROM alerts`).Scan(&size); err != nil {
		return 0, fmt.Errorf("failed to sum snapshot sizes: %w", err)
	}
	return size, nil
}

// Exists checks if an alert with the given filename exists.
func (r *AlertRepository) Exists(filename string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM alerts WHERE filename = ?`, filename).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check alert existence: %w", err)
	}
	return count > 0, nil
}

// DeleteByFilename removes an alert by its snapshot filename. Its detections
// go with it (ON DELETE CASCADE). A missing alert is not an error.
func (r *AlertRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM alerts WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return nil
}

// DeleteAll removes all alerts and their detections.
func (r *AlertRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM alerts`); err != nil {
		return fmt.Errorf("failed to delete alerts: %w", err)
	}
	return nil
}
