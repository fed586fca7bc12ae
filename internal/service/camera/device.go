package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync"

	"objectmonitor/internal/service/pipeline"

	"gocv.io/x/gocv"
)

// DeviceSource reads frames from a local camera, video file or stream URL through OpenCV.
// One capture is shared by every session; reads are serialized.
type DeviceSource struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	source  string
	closed  bool
}

// OpenDevice opens a capture. A numeric source is treated as a device index.
func OpenDevice(source string) (*DeviceSource, error) {
	var (
		capture *gocv.VideoCapture
		err     error
	)
	if idx, convErr := strconv.Atoi(source); convErr == nil {
		capture, err = gocv.OpenVideoCapture(idx)
	} else {
		capture, err = gocv.OpenVideoCapture(source)
	}
	if err != nil {
		return nil, fmt.Errorf("open video source %q: %w", source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video source not opened: %s", source)
	}
	// Keep latency low: only the newest frame matters.
	capture.Set(gocv.VideoCaptureBufferSize, 1)

	return &DeviceSource{
		capture: capture,
		frame:   gocv.NewMat(),
		source:  source,
	}, nil
}

// Read grabs the next frame and converts it to an image.Image owned by the caller.
func (d *DeviceSource) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if ok := d.capture.Read(&d.frame); !ok {
		return nil, fmt.Errorf("read from %s failed", d.source)
	}
	if d.frame.Empty() {
		return nil, fmt.Errorf("empty frame from %s", d.source)
	}

	img, err := d.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

// Reader returns the shared capture; sessions interleave on the same device.
func (d *DeviceSource) Reader() pipeline.FrameSource {
	return d
}

func (d *DeviceSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return errors.Join(d.frame.Close(), d.capture.Close())
}
