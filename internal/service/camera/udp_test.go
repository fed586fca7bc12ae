package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net"
	"testing"
	"time"

	"objectmonitor/internal/config"
	"objectmonitor/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	t.Cleanup(func() { l.Close() })
	return l
}

func encodeFrame(t *testing.T, level uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{level, level, level, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	return buf.Bytes()
}

// sendChunked splits a JPEG across datagrams the way the cameras do.
func sendChunked(t *testing.T, conn net.Conn, frame []byte, chunk int) {
	t.Helper()
	for start := 0; start < len(frame); start += chunk {
		end := min(start+chunk, len(frame))
		if _, err := conn.Write(frame[start:end]); err != nil {
			t.Fatalf("send datagram: %v", err)
		}
		// Loopback can drop bursts when the receive buffer fills.
		time.Sleep(time.Millisecond)
	}
}

func startSource(t *testing.T, timeout time.Duration) (*UDPSource, net.Conn) {
	t.Helper()
	src, err := ListenUDP("127.0.0.1:0", timeout, testLogger(t))
	if err != nil {
		t.Fatalf("ListenUDP failed: %v", err)
	}
	t.Cleanup(func() { src.Close() })

	conn, err := net.Dial("udp", src.Addr().String())
	if err != nil {
		t.Fatalf("dial source: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return src, conn
}

func grayAt(img image.Image) uint8 {
	r, _, _, _ := img.At(10, 10).RGBA()
	return uint8(r >> 8)
}

func TestUDPSource_ReassemblesChunkedFrame(t *testing.T) {
	src, conn := startSource(t, 5*time.Second)
	reader := src.Reader()

	sendChunked(t, conn, encodeFrame(t, 200), 256)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	img, err := reader.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("Unexpected frame size %v", img.Bounds())
	}
	if g := grayAt(img); g < 190 || g > 210 {
		t.Errorf("Unexpected gray level %d", g)
	}
}

func TestUDPSource_EachReaderSeesFrameOnce(t *testing.T) {
	src, conn := startSource(t, 5*time.Second)
	first, second := src.Reader(), src.Reader()

	sendChunked(t, conn, encodeFrame(t, 50), 512)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, r := range []interface {
		Read(context.Context) (image.Image, error)
	}{first, second} {
		if _, err := r.Read(ctx); err != nil {
			t.Fatalf("Read failed: %v", err)
		}
	}

	// Without a new frame the next read waits until the context ends.
	short, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelShort()
	if _, err := first.Read(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
}

func TestUDPSource_TimeoutWhenCameraSilent(t *testing.T) {
	src, _ := startSource(t, 50*time.Millisecond)

	_, err := src.Reader().Read(context.Background())
	if err == nil {
		t.Fatal("Expected timeout error")
	}
}

func TestUDPSource_CloseFailsReaders(t *testing.T) {
	src, _ := startSource(t, 0)
	reader := src.Reader()

	done := make(chan error, 1)
	go func() {
		_, err := reader.Read(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	src.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Expected error after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Reader still blocked after close")
	}
}
