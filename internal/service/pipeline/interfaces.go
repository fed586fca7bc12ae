package pipeline

import (
	"context"
	"errors"
	"image"

	"objectmonitor/internal/dto"
)

var (
	// ErrSourceExhausted wraps any frame source failure; it ends the session.
	ErrSourceExhausted = errors.New("frame source exhausted")
	// ErrSessionTerminated is returned by Next once a session has stopped.
	ErrSessionTerminated = errors.New("session terminated")
)

// FrameSource supplies one frame per call. Any error is terminal for the caller.
type FrameSource interface {
	Read(ctx context.Context) (image.Image, error)
}

// Detector finds objects in a frame. Implementations apply their own
// confidence threshold and inference resolution.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]dto.DetectionResult, error)
}

// Actuator is a binary indicator driven by the alert decision of each pass.
type Actuator interface {
	On() error
	Off() error
}

// Encoder compresses an annotated frame into one stream chunk.
type Encoder interface {
	Encode(img image.Image) ([]byte, error)
	ContentType() string
}
