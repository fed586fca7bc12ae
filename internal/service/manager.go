package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"objectmonitor/internal/classmap"
	"objectmonitor/internal/dto"
	"objectmonitor/internal/logger"
	"objectmonitor/internal/metrics"
	"objectmonitor/internal/service/camera"
	"objectmonitor/internal/service/pipeline"
	"objectmonitor/internal/service/stats"

	"github.com/google/uuid"
)

// MotionSensor reports whether motion is currently seen.
type MotionSensor interface {
	MotionDetected() bool
}

// SnapshotSink stores annotated alert frames.
type SnapshotSink interface {
	AddSnapshot(data []byte, total int, detections []dto.LabeledDetection) bool
}

// Broadcaster pushes messages to live viewers without blocking.
type Broadcaster interface {
	Broadcast(message []byte) bool
}

// Dependencies are the shared collaborators of every session. Motion, Snapshots,
// Viewers and Metrics are optional.
type Dependencies struct {
	Source       camera.Source
	Detector     pipeline.Detector
	Mapper       *classmap.Mapper
	Store        *stats.Store
	Actuator     pipeline.Actuator
	Encoder      pipeline.Encoder
	Motion       MotionSensor
	Snapshots    SnapshotSink
	Viewers      Broadcaster
	Metrics      *metrics.Metrics
	SkipInterval int
}

// Manager opens streaming sessions and fans completed passes out to metrics,
// live viewers and the snapshot buffer.
type Manager struct {
	deps   Dependencies
	logger *logger.Logger

	active    atomic.Int64
	lastAlert atomic.Bool
}

func NewManager(deps Dependencies, logger *logger.Logger) (*Manager, error) {
	if deps.Source == nil || deps.Detector == nil || deps.Mapper == nil || deps.Store == nil || deps.Encoder == nil {
		return nil, errors.New("manager: source, detector, mapper, store and encoder are required")
	}
	if deps.SkipInterval < 1 {
		return nil, fmt.Errorf("manager: skip interval must be >= 1, got %d", deps.SkipInterval)
	}
	if deps.Actuator == nil {
		deps.Actuator = pipeline.NopActuator{}
	}

	logger.Info("🎬 Manager started - detecting every %d frame(s)", deps.SkipInterval)
	return &Manager{deps: deps, logger: logger}, nil
}

// OpenSession starts a session with a fresh frame counter and no annotated frame.
func (m *Manager) OpenSession() (*pipeline.Session, error) {
	session, err := pipeline.NewSession(pipeline.Options{
		ID:           uuid.NewString(),
		Source:       m.deps.Source.Reader(),
		Detector:     m.deps.Detector,
		Mapper:       m.deps.Mapper,
		Store:        m.deps.Store,
		Actuator:     m.deps.Actuator,
		Encoder:      m.deps.Encoder,
		SkipInterval: m.deps.SkipInterval,
		OnPass:       m.handlePass,
		OnEmit:       m.handleEmit,
	})
	if err != nil {
		return nil, err
	}

	n := m.active.Add(1)
	if m.deps.Metrics != nil {
		m.deps.Metrics.ActiveSessions.Inc()
	}
	m.logger.Info("📹 Stream session %s opened. Active: %d", session.ID(), n)
	return session, nil
}

// CloseSession records why a session ended.
func (m *Manager) CloseSession(session *pipeline.Session, cause error) {
	n := m.active.Add(-1)
	reason := endReason(cause)
	if m.deps.Metrics != nil {
		m.deps.Metrics.ActiveSessions.Dec()
		m.deps.Metrics.SessionsEnded.WithLabelValues(reason).Inc()
	}

	switch reason {
	case "error":
		m.logger.Error("Stream session %s failed after %d frames: %v", session.ID(), session.Frames(), cause)
	case "source_exhausted":
		m.logger.Info("Stream session %s ended after %d frames: %v", session.ID(), session.Frames(), cause)
	default:
		m.logger.Info("Stream session %s closed by client after %d frames", session.ID(), session.Frames())
	}
	m.logger.Info("Active sessions: %d", n)
}

// ActiveSessions returns the number of open sessions.
func (m *Manager) ActiveSessions() int {
	return int(m.active.Load())
}

func endReason(cause error) string {
	switch {
	case cause == nil, errors.Is(cause, context.Canceled), errors.Is(cause, context.DeadlineExceeded):
		return "client_disconnected"
	case errors.Is(cause, pipeline.ErrSourceExhausted):
		return "source_exhausted"
	default:
		return "error"
	}
}

// Stats returns the last published detection summary and the live motion reading.
func (m *Manager) Stats() dto.DetectionStats {
	out := statsPayload(m.deps.Store.Load())
	if m.deps.Motion != nil {
		motion := m.deps.Motion.MotionDetected()
		out.MotionDetected = &motion
	}
	return out
}

func statsPayload(snap stats.Snapshot) dto.DetectionStats {
	return dto.DetectionStats{
		Total:   snap.Total,
		Classes: snap.Classes,
		Alert:   snap.Alert,
	}
}

func (m *Manager) handleEmit(pipeline.Emission) {
	if m.deps.Metrics != nil {
		m.deps.Metrics.FramesEmitted.Inc()
	}
}

func (m *Manager) handlePass(p pipeline.Pass) {
	snap := p.Snapshot
	if m.deps.Metrics != nil {
		m.deps.Metrics.ObservePass(snap.Classes, snap.Alert, p.Duration.Seconds())
	}

	if p.ActuatorErr != nil {
		m.logger.Warning("Alert actuator failed: %v", p.ActuatorErr)
		if m.deps.Metrics != nil {
			m.deps.Metrics.ActuatorErrors.Inc()
		}
	}

	prev := m.lastAlert.Swap(snap.Alert)
	raised := snap.Alert && !prev
	if prev != snap.Alert {
		if snap.Alert {
			m.logger.Warning("🚨 %s detected: %v", m.deps.Mapper.Alias(), snap.Classes)
		} else {
			m.logger.Info("✅ Alert cleared")
		}
	}

	if m.deps.Viewers != nil {
		if msg, err := json.Marshal(statsPayload(snap)); err != nil {
			m.logger.Error("Failed to marshal stats: %v", err)
		} else {
			m.deps.Viewers.Broadcast(msg)
		}
	}

	// One snapshot per alert episode.
	if raised && m.deps.Snapshots != nil {
		data, err := m.deps.Encoder.Encode(p.Annotated)
		if err != nil {
			m.logger.Error("Failed to encode alert snapshot: %v", err)
			return
		}
		if !m.deps.Snapshots.AddSnapshot(data, snap.Total, p.Detections) {
			m.logger.Warning("Snapshot buffer full, alert snapshot dropped")
		}
	}
}
