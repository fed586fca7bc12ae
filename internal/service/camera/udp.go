package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"objectmonitor/internal/logger"
	"objectmonitor/internal/service/pipeline"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

const maxDatagram = 65507

// UDPSource receives JPEG frames split across UDP datagrams by network cameras
// and keeps only the most recent complete frame.
type UDPSource struct {
	conn    net.PacketConn
	logger  *logger.Logger
	timeout time.Duration

	mu     sync.Mutex
	cond   *sync.Cond
	latest []byte
	seq    uint64
	err    error
}

// ListenUDP starts receiving on addr (for example ":9000").
// A frame older than timeout is treated as a dead camera.
func ListenUDP(addr string, timeout time.Duration, log *logger.Logger) (*UDPSource, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on UDP %s: %w", addr, err)
	}
	s := newUDPSource(conn, timeout, log)
	go s.receive()
	log.Info("UDP camera source listening on %s", conn.LocalAddr())
	return s, nil
}

func newUDPSource(conn net.PacketConn, timeout time.Duration, log *logger.Logger) *UDPSource {
	s := &UDPSource{conn: conn, logger: log, timeout: timeout}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Addr returns the local listening address.
func (s *UDPSource) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// receive reassembles frames per sender: a datagram starting with SOI resets
// the buffer, one ending with EOI completes it.
func (s *UDPSource) receive() {
	buffer := make([]byte, maxDatagram)
	frames := make(map[string]*bytes.Buffer)

	for {
		n, remoteAddr, err := s.conn.ReadFrom(buffer)
		if err != nil {
			s.fail(err)
			return
		}

		sender := remoteAddr.String()
		data := buffer[:n]
		imgBuffer, ok := frames[sender]
		if !ok {
			imgBuffer = new(bytes.Buffer)
			frames[sender] = imgBuffer
		}

		if bytes.HasPrefix(data, jpegHeader) {
			imgBuffer.Reset()
		}
		imgBuffer.Write(data)

		if bytes.HasSuffix(data, jpegFooter) {
			full := make([]byte, imgBuffer.Len())
			copy(full, imgBuffer.Bytes())
			imgBuffer.Reset()
			s.publish(full)
		}
	}
}

func (s *UDPSource) publish(frame []byte) {
	s.mu.Lock()
	s.latest = frame
	s.seq++
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *UDPSource) fail(err error) {
	if s.logger != nil {
		s.logger.Info("UDP camera source stopped: %v", err)
	}
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Reader returns a per-session view that yields each received frame at most once.
func (s *UDPSource) Reader() pipeline.FrameSource {
	return &udpReader{source: s}
}

func (s *UDPSource) Close() error {
	return s.conn.Close()
}

// wake broadcasts under the lock so a waiter between its check and Wait cannot miss it.
func (s *UDPSource) wake() {
	s.mu.Lock()
	s.mu.Unlock()
	s.cond.Broadcast()
}

type udpReader struct {
	source *UDPSource
	seen   uint64
}

// Read blocks until a frame newer than the last one returned arrives. It fails
// when the socket closes or, with a timeout set, when the camera goes quiet.
func (r *udpReader) Read(ctx context.Context) (image.Image, error) {
	s := r.source
	stop := context.AfterFunc(ctx, s.wake)
	defer stop()

	var expired atomic.Bool
	if s.timeout > 0 {
		timer := time.AfterFunc(s.timeout, func() {
			expired.Store(true)
			s.wake()
		})
		defer timer.Stop()
	}

	s.mu.Lock()
	for s.seq == r.seen && s.err == nil {
		if err := ctx.Err(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if expired.Load() {
			s.mu.Unlock()
			return nil, fmt.Errorf("no frame received for %s", s.timeout)
		}
		s.cond.Wait()
	}
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return nil, err
	}
	data := s.latest
	r.seen = s.seq
	s.mu.Unlock()

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}
