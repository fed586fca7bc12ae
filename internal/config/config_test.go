package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"SKIP_FRAMES", "JPEG_QUALITY", "FOREIGN_OBJECT_CLASSES", "FOREIGN_OBJECT_LABEL", "DETECTOR", "PASSWORD"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	if cfg.SkipFrames != 2 {
		t.Errorf("Expected SkipFrames 2, got %d", cfg.SkipFrames)
	}
	if cfg.JPEGQuality != 70 {
		t.Errorf("Expected JPEGQuality 70, got %d", cfg.JPEGQuality)
	}
	if cfg.ForeignObjectLabel != "Foreign Object" {
		t.Errorf("Unexpected label %q", cfg.ForeignObjectLabel)
	}
	want := []string{"bottle", "cup", "knife", "backpack", "handbag", "scissors"}
	if strings.Join(cfg.ForeignObjectClasses, ",") != strings.Join(want, ",") {
		t.Errorf("Unexpected classes %v", cfg.ForeignObjectClasses)
	}
	if cfg.AuthEnabled() {
		t.Error("Auth should be disabled without PASSWORD")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SKIP_FRAMES", "5")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.3")
	t.Setenv("FOREIGN_OBJECT_CLASSES", " knife , ,scissors ")
	t.Setenv("PASSWORD", "hunter2")
	t.Setenv("CAMERA_SOURCE", "udp://:9000")

	cfg := FromEnv()

	if cfg.SkipFrames != 5 {
		t.Errorf("Expected SkipFrames 5, got %d", cfg.SkipFrames)
	}
	if cfg.ConfidenceThreshold != 0.3 {
		t.Errorf("Expected confidence 0.3, got %g", cfg.ConfidenceThreshold)
	}
	if len(cfg.ForeignObjectClasses) != 2 || cfg.ForeignObjectClasses[0] != "knife" || cfg.ForeignObjectClasses[1] != "scissors" {
		t.Errorf("Unexpected classes %v", cfg.ForeignObjectClasses)
	}
	if !cfg.AuthEnabled() {
		t.Error("Auth should be enabled with PASSWORD")
	}
	if cfg.CameraSource != "udp://:9000" {
		t.Errorf("Unexpected camera source %q", cfg.CameraSource)
	}
}

func TestFromEnv_InvalidNumberFallsBack(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("NMS_THRESHOLD", "half")

	cfg := FromEnv()

	if cfg.Port != 5000 {
		t.Errorf("Expected default port, got %d", cfg.Port)
	}
	if cfg.NMSThreshold != 0.45 {
		t.Errorf("Expected default NMS threshold, got %g", cfg.NMSThreshold)
	}
}

func TestFromEnv_EmptyPinDisablesDevice(t *testing.T) {
	t.Setenv("BUZZER_PIN", "")
	t.Setenv("MOTION_PIN", " GPIO4 ")

	cfg := FromEnv()

	if cfg.BuzzerPin != "" {
		t.Errorf("Expected buzzer disabled, got %q", cfg.BuzzerPin)
	}
	if cfg.MotionPin != "GPIO4" {
		t.Errorf("Expected trimmed motion pin, got %q", cfg.MotionPin)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		SkipFrames:          0,
		JPEGQuality:         101,
		ConfidenceThreshold: 1.5,
		NMSThreshold:        0.4,
		InferenceSize:       0,
		Detector:            "yolo",
		ForeignObjectLabel:  "",
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	msg := err.Error()
	for _, key := range []string{"SKIP_FRAMES", "JPEG_QUALITY", "CONFIDENCE_THRESHOLD", "INFERENCE_SIZE", "DETECTOR", "FOREIGN_OBJECT_LABEL"} {
		if !strings.Contains(msg, key) {
			t.Errorf("Expected %s in %q", key, msg)
		}
	}
	if strings.Contains(msg, "NMS_THRESHOLD") {
		t.Errorf("NMS threshold is valid, got %q", msg)
	}

	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) || len(joined.Unwrap()) != 6 {
		t.Errorf("Expected 6 joined errors")
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("INFERENCE_SIZE=320\nSKIP_FRAMES=4\n"), 0644); err != nil {
		t.Fatalf("write .env failed: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	// Real environment wins over the file.
	t.Setenv("SKIP_FRAMES", "3")
	t.Setenv("INFERENCE_SIZE", "")
	os.Unsetenv("INFERENCE_SIZE")

	cfg := Load()

	if cfg.InferenceSize != 320 {
		t.Errorf("Expected INFERENCE_SIZE from .env, got %d", cfg.InferenceSize)
	}
	if cfg.SkipFrames != 3 {
		t.Errorf("Expected SKIP_FRAMES from environment, got %d", cfg.SkipFrames)
	}
}
