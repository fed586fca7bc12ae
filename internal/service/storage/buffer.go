package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"objectmonitor/internal/config"
	"objectmonitor/internal/dto"
	"objectmonitor/internal/logger"
	"objectmonitor/internal/metrics"
	"objectmonitor/internal/model"
	"objectmonitor/internal/repository"

	"github.com/google/uuid"
)

const (
	// DefaultBufferLimit limits how many snapshots are buffered between flushes.
	DefaultBufferLimit = 10
	// DefaultFlushInterval defines how often (seconds) buffered snapshots are flushed to disk.
	DefaultFlushInterval = 30

	// TimestampFormat prefixes snapshot filenames.
	TimestampFormat = "2006-01-02_15-04-05.000"
)

// BufferService buffers alert snapshots in memory and periodically flushes them
// to disk and the alert database.
type BufferService struct {
	snapshotDir string
	limit       int
	interval    time.Duration
	snapshots   []dto.BufferedSnapshot
	mu          sync.Mutex
	logger      *logger.Logger
	alertRepo   repository.AlertRepository
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewBufferService creates a BufferService. alertRepo and metrics may be nil.
func NewBufferService(config *config.Config, logger *logger.Logger, alertRepo repository.AlertRepository, m *metrics.Metrics) *BufferService {
	limit := config.SnapshotBufferLimit
	if limit <= 0 {
		limit = DefaultBufferLimit
	}
	interval := config.SnapshotFlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &BufferService{
		snapshotDir: config.SnapshotDirectory,
		limit:       limit,
		interval:    time.Duration(interval) * time.Second,
		snapshots:   make([]dto.BufferedSnapshot, 0, limit),
		logger:      logger,
		alertRepo:   alertRepo,
		metrics:     m,
		now:         time.Now,
	}
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush()
		case <-ctx.Done():
			s.Flush()
			return
		}
	}
}

// AddSnapshot queues an encoded alert frame. It reports false when the buffer
// is full and the snapshot was dropped.
func (s *BufferService) AddSnapshot(data []byte, total int, detections []dto.LabeledDetection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) >= s.limit {
		if s.metrics != nil {
			s.metrics.SnapshotsDropped.Inc()
		}
		return false
	}

	s.snapshots = append(s.snapshots, dto.BufferedSnapshot{
		ID:         uuid.NewString(),
		Timestamp:  s.now(),
		Total:      total,
		Detections: append([]dto.LabeledDetection(nil), detections...),
		Data:       data,
	})
	return true
}

// Pending returns the number of buffered snapshots.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// SnapshotFilename builds the on-disk name of a snapshot.
func SnapshotFilename(snap dto.BufferedSnapshot) string {
	return fmt.Sprintf("%s_%s.jpg", snap.Timestamp.Format(TimestampFormat), snap.ID[:8])
}

// ParseSnapshotFilename recovers the capture time from a name built by SnapshotFilename.
func ParseSnapshotFilename(name string) (time.Time, error) {
	base, ok := strings.CutSuffix(name, ".jpg")
	if !ok || len(base) != len(TimestampFormat)+9 || base[len(TimestampFormat)] != '_' {
		return time.Time{}, fmt.Errorf("not a snapshot filename: %q", name)
	}
	ts, err := time.ParseInLocation(TimestampFormat, base[:len(TimestampFormat)], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp of %q: %w", name, err)
	}
	return ts, nil
}

// Flush writes buffered snapshots to disk, records them in the database and
// resets the buffer. It returns how many snapshots were saved.
func (s *BufferService) Flush() int {
	s.mu.Lock()
	pending := s.snapshots
	s.snapshots = make([]dto.BufferedSnapshot, 0, s.limit)
	s.mu.Unlock()

	if len(pending) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.snapshotDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	savedCount := 0
	for _, snap := range pending {
		filename := SnapshotFilename(snap)
		fullpath := filepath.Join(s.snapshotDir, filename)

		if err := os.WriteFile(fullpath, snap.Data, 0644); err != nil {
			s.logger.Error("Error saving snapshot %s: %v", filename, err)
			continue
		}

		if err := s.record(snap, filename, fullpath); err != nil {
			s.logger.Error("Error saving snapshot %s to database: %v", filename, err)
			// No file without a row.
			if err := os.Remove(fullpath); err != nil {
				s.logger.Error("Error removing orphaned snapshot %s: %v", filename, err)
			}
			continue
		}
		savedCount++
	}

	if s.metrics != nil {
		s.metrics.SnapshotsFlushed.Add(float64(savedCount))
	}
	s.logger.Info("Flushed %d alert snapshots to disk", savedCount)
	return savedCount
}

func (s *BufferService) record(snap dto.BufferedSnapshot, filename, fullpath string) error {
	if s.alertRepo == nil {
		return nil
	}

	dbDetections := make([]model.Detection, 0, len(snap.Detections))
	for _, det := range snap.Detections {
		dbDetections = append(dbDetections, model.Detection{
			Label:      det.DisplayLabel,
			RawLabel:   det.Label,
			X:          det.Box.Min.X,
			Y:          det.Box.Min.Y,
			Width:      det.Box.Dx(),
			Height:     det.Box.Dy(),
			Confidence: det.Confidence,
		})
	}

	_, err := s.alertRepo.InsertWithDetections(&model.Alert{
		Filename:  filename,
		Timestamp: snap.Timestamp,
		Total:     snap.Total,
		FilePath:  fullpath,
		FileSize:  int64(len(snap.Data)),
	}, dbDetections)
	return err
}
