package pipeline

import (
	"bytes"
	"errors"
	"image/jpeg"
	"testing"
)

func TestJPEGEncoder_ProducesDecodableFrame(t *testing.T) {
	enc := NewJPEGEncoder(DefaultJPEGQuality)

	data, err := enc.Encode(solidFrame(128))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Errorf("Missing JPEG SOI marker: % x", data[:2])
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != frameW || img.Bounds().Dy() != frameH {
		t.Errorf("Decoded size %v, expected %dx%d", img.Bounds(), frameW, frameH)
	}
	if enc.ContentType() != "image/jpeg" {
		t.Errorf("Unexpected content type %q", enc.ContentType())
	}
}

func TestNewJPEGEncoder_QualityFallback(t *testing.T) {
	tests := map[int]int{0: 70, -5: 70, 101: 70, 1: 1, 100: 100, 85: 85}
	for in, want := range tests {
		if got := NewJPEGEncoder(in).Quality; got != want {
			t.Errorf("NewJPEGEncoder(%d).Quality = %d, expected %d", in, got, want)
		}
	}
}

func TestMultiActuator_DrivesAllAndJoinsErrors(t *testing.T) {
	ok := &fakeActuator{}
	broken := &fakeActuator{err: errors.New("relay stuck")}
	m := MultiActuator{ok, broken, NopActuator{}}

	if err := m.On(); !errors.Is(err, broken.err) {
		t.Errorf("Expected joined relay error, got %v", err)
	}
	if err := m.Off(); !errors.Is(err, broken.err) {
		t.Errorf("Expected joined relay error, got %v", err)
	}
	if len(ok.states) != 2 || !ok.states[0] || ok.states[1] {
		t.Errorf("Healthy actuator states %v, expected [true false]", ok.states)
	}

	if err := (MultiActuator{ok}).On(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}
