// Package camera provides the frame sources feeding streaming sessions.
package camera

import (
	"errors"
	"io"
	"strings"
	"time"

	"objectmonitor/internal/logger"
	"objectmonitor/internal/service/pipeline"
)

// ErrClosed is returned by reads after the source was closed.
var ErrClosed = errors.New("camera source closed")

// UDPTimeout is how long a UDP reader waits for a camera before giving up.
const UDPTimeout = 10 * time.Second

// Source hands out a frame reader per streaming session.
type Source interface {
	io.Closer
	Reader() pipeline.FrameSource
}

// Open selects the source for a CAMERA_SOURCE value: udp://host:port listens for
// network cameras, anything else goes to OpenCV.
func Open(source string, log *logger.Logger) (Source, error) {
	if addr, ok := strings.CutPrefix(source, "udp://"); ok {
		return ListenUDP(addr, UDPTimeout, log)
	}
	return OpenDevice(source)
}
