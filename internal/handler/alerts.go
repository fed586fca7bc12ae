package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"objectmonitor/internal/config"
	"objectmonitor/internal/dto"
	"objectmonitor/internal/logger"
	"objectmonitor/internal/model"
	"objectmonitor/internal/repository"
)

const (
	// MaxSnapshotDirectorySize is the soft limit of the snapshot directory in GB, shown in the UI.
	MaxSnapshotDirectorySize = 2

	defaultPageSize = 24
	maxPageSize     = 200
)

// GetAlertsHandler returns a filtered, paginated list of alert snapshots.
func GetAlertsHandler(logger *logger.Logger, alertRepo repository.AlertRepository,
	detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), defaultPageSize)
		if limit > maxPageSize {
			limit = maxPageSize
		}

		filter := &dto.AlertFilters{
			Label:      q.Get("label"),
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
		}

		totalCount, err := alertRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting alerts: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		filter.Limit = limit
		filter.Offset = (page - 1) * limit
		alerts, err := alertRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying alerts from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalSize, err := alertRepo.GetDirectorySize()
		if err != nil {
			logger.Error("Error getting snapshot directory size: %v", err)
			totalSize = 0
		}

		infos := make([]dto.AlertInfo, 0, len(alerts))
		for _, a := range alerts {
			labels := []string{}
			if detectionRepo != nil {
				if labels, err = detectionRepo.GetLabelsByAlertID(a.ID); err != nil {
					logger.Error("Error getting labels for alert %d: %v", a.ID, err)
					labels = []string{}
				}
			}
			local := a.Timestamp.Local()
			infos = append(infos, dto.AlertInfo{
				ID:        a.ID,
				Name:      a.Filename,
				Date:      local,
				TimeOfDay: local,
				Total:     a.Total,
				Labels:    labels,
			})
		}

		writeJSON(w, logger, http.StatusOK, dto.AlertsData{
			Alerts:      infos,
			Size:        totalSize,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// AlertLabelsHandler returns every label stored with an alert, for the filter dropdown.
func AlertLabelsHandler(logger *logger.Logger, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labels, err := detectionRepo.GetAllLabels()
		if err != nil {
			logger.Error("Error querying labels: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if labels == nil {
			labels = []string{}
		}
		writeJSON(w, logger, http.StatusOK, labels)
	}
}

// AlertDetectionsHandler returns the boxes stored with one alert snapshot.
func AlertDetectionsHandler(logger *logger.Logger, alertRepo repository.AlertRepository,
	detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if !validSnapshotName(name) {
			http.Error(w, "Valid name parameter is required", http.StatusBadRequest)
			return
		}

		alert, err := alertRepo.GetByFilename(name)
		if err != nil {
			logger.Error("Error querying alert %s: %v", name, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if alert == nil {
			http.Error(w, "Alert not found", http.StatusNotFound)
			return
		}

		detections, err := detectionRepo.GetByAlertID(alert.ID)
		if err != nil {
			logger.Error("Error querying detections for alert %d: %v", alert.ID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if detections == nil {
			detections = []model.Detection{}
		}
		writeJSON(w, logger, http.StatusOK, detections)
	}
}

// DeleteAlertHandler removes an alert snapshot from disk and database.
func DeleteAlertHandler(cfg *config.Config, logger *logger.Logger, alertRepo repository.AlertRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		filename := r.URL.Query().Get("filename")
		if !validSnapshotName(filename) {
			http.Error(w, "Valid filename required", http.StatusBadRequest)
			return
		}

		filePath := filepath.Join(cfg.SnapshotDirectory, filename)
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to delete file %s: %v", filePath, err)
		}

		if err := alertRepo.DeleteByFilename(filename); err != nil {
			logger.Error("Failed to delete alert from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted alert snapshot: %s", filename)
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "deleted", "filename": filename})
	}
}

// ClearAlertsHandler deletes every snapshot file and clears the alert history.
func ClearAlertsHandler(cfg *config.Config, logger *logger.Logger, alertRepo repository.AlertRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		files, err := os.ReadDir(cfg.SnapshotDirectory)
		if err != nil && !os.IsNotExist(err) {
			logger.Error("Error reading snapshot directory: %v", err)
			http.Error(w, "Unable to read snapshot directory", http.StatusInternalServerError)
			return
		}

		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".jpg") {
				continue
			}
			if err := os.Remove(filepath.Join(cfg.SnapshotDirectory, file.Name())); err != nil {
				logger.Error("Error deleting file %s: %v", file.Name(), err)
			}
		}

		if err := alertRepo.DeleteAll(); err != nil {
			logger.Error("Error clearing database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("All alert snapshots cleared from directory: %s", cfg.SnapshotDirectory)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ViewAlertHandler serves a single snapshot specified via the "name" query parameter.
func ViewAlertHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if !validSnapshotName(name) {
			http.Error(w, "Valid name parameter is required", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.SnapshotDirectory, name))
	}
}

// validSnapshotName accepts bare .jpg file names only, no path components.
func validSnapshotName(name string) bool {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return false
	}
	return name != "." && name != ".." && strings.HasSuffix(name, ".jpg")
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
