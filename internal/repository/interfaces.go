package repository

import (
	"objectmonitor/internal/dto"
	"objectmonitor/internal/model"
)

// AlertRepository defines the interface for alert snapshot records.
type AlertRepository interface {
	// Create operations
	Insert(alert *model.Alert) (int64, error)
	InsertWithDetections(alert *model.Alert, detections []model.Detection) (int64, error)

	// Read operations
	GetByFilename(filename string) (*model.Alert, error)
	GetAll(filter *dto.AlertFilters) ([]model.Alert, error)
	GetTotalCount(filter *dto.AlertFilters) (int, error)
	GetDirectorySize() (int64, error)
	Exists(filename string) (bool, error)

	// Delete operations
	DeleteByFilename(filename string) error
	DeleteAll() error
}

// DetectionRepository reads detections attached to alerts. They are written
// together with their alert and removed with it.
type DetectionRepository interface {
	GetByAlertID(alertID int64) ([]model.Detection, error)
	GetLabelsByAlertID(alertID int64) ([]string, error)
	GetAllLabels() ([]string, error)
}
