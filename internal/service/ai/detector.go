// Package ai runs object detection on frames.
package ai

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"objectmonitor/internal/config"
	"objectmonitor/internal/dto"
	"objectmonitor/internal/logger"

	"gocv.io/x/gocv"
)

const (
	// DefaultConfidence is the minimum class score kept.
	DefaultConfidence = 0.5
	// DefaultInferenceSize is the square network input in pixels.
	DefaultInferenceSize = 160
)

// DetectorService runs a YOLOv8 ONNX model through the OpenCV DNN module.
// The network is shared; Detect calls are serialized.
type DetectorService struct {
	mu         sync.Mutex
	net        gocv.Net
	labels     []string
	modelPath  string
	size       int
	confidence float32
	nms        float32
	logger     *logger.Logger
}

// NewDetectorService loads the model and labels named in config.
func NewDetectorService(config *config.Config, logger *logger.Logger) (*DetectorService, error) {
	labels, err := LoadLabels(config.LabelsPath)
	if err != nil {
		return nil, err
	}

	service := &DetectorService{
		labels:     labels,
		modelPath:  config.ModelPath,
		size:       config.InferenceSize,
		confidence: float32(config.ConfidenceThreshold),
		nms:        float32(config.NMSThreshold),
		logger:     logger,
	}
	if service.size <= 0 {
		service.size = DefaultInferenceSize
	}

	if err := service.initializeNet(); err != nil {
		return nil, err
	}
	return service, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	net := gocv.ReadNet(s.modelPath, "")
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", s.modelPath)
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network initialized (%s, input %dx%d, %d classes)",
		s.modelPath, s.size, s.size, len(s.labels))
	return nil
}

// Detect runs the network on frame and returns detections above the confidence
// threshold after non-maximum suppression, in frame coordinates.
func (s *DetectorService) Detect(ctx context.Context, frame image.Image) ([]dto.DetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("frame is empty")
	}

	// ImageToMatRGB yields BGR order; the model expects RGB scaled to [0,1].
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(s.size, s.size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.mu.Lock()
	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	s.mu.Unlock()
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}

	bounds := frame.Bounds()
	sx := float64(bounds.Dx()) / float64(s.size)
	sy := float64(bounds.Dy()) / float64(s.size)
	candidates := decodeYOLOv8(data, dims[1], dims[2], s.confidence, sx, sy, bounds)
	if len(candidates) == 0 {
		return []dto.DetectionResult{}, nil
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.box
		scores[i] = c.score
	}
	keep := gocv.NMSBoxes(boxes, scores, s.confidence, s.nms)

	results := make([]dto.DetectionResult, 0, len(keep))
	for _, idx := range keep {
		c := candidates[idx]
		results = append(results, dto.DetectionResult{
			Label:      labelFor(s.labels, c.classID),
			Confidence: float64(c.score),
			Box:        c.box,
		})
	}
	return results, nil
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}
