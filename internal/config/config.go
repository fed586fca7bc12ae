package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultForeignObjectClasses are the raw detector labels collapsed into the alert label.
const DefaultForeignObjectClasses = "bottle,cup,knife,backpack,handbag,scissors"

type Config struct {
	Port          int
	Password      string
	SessionSecret string
	StaticDir     string
	LogDirectory  string

	CameraSource string // device index, file/URL, or udp://host:port

	Detector            string // onnx | remote
	ModelPath           string
	LabelsPath          string
	DetectorURL         string
	ConfidenceThreshold float64
	NMSThreshold        float64
	InferenceSize       int

	SkipFrames  int // Co którą klatkę wykrywać (1=każdą)
	JPEGQuality int

	ForeignObjectClasses []string
	ForeignObjectLabel   string

	BuzzerPin string
	MotionPin string

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	SnapshotDirectory     string
	SnapshotBufferLimit   int
	SnapshotFlushInterval int // seconds
	DatabasePath          string
}

// Load reads an optional .env file and builds the configuration from the environment.
func Load() *Config {
	// .env is optional; real environment variables win over file values.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() *Config {
	return &Config{
		Port:          getEnvAsInt("PORT", 5000),
		Password:      getEnv("PASSWORD", ""),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		StaticDir:     getEnv("STATIC_DIR", "static"),
		LogDirectory:  getEnv("LOG_DIR", filepath.Join(".", "logs")),

		CameraSource: getEnv("CAMERA_SOURCE", "0"),

		Detector:            getEnv("DETECTOR", "onnx"),
		ModelPath:           getEnv("MODEL_PATH", filepath.Join(".", "models", "yolov8n.onnx")),
		LabelsPath:          getEnv("LABELS_PATH", ""),
		DetectorURL:         getEnv("DETECTOR_URL", "http://localhost:8000"),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.5),
		NMSThreshold:        getEnvAsFloat("NMS_THRESHOLD", 0.45),
		InferenceSize:       getEnvAsInt("INFERENCE_SIZE", 160),

		SkipFrames:  getEnvAsInt("SKIP_FRAMES", 2),
		JPEGQuality: getEnvAsInt("JPEG_QUALITY", 70),

		ForeignObjectClasses: getEnvAsList("FOREIGN_OBJECT_CLASSES", DefaultForeignObjectClasses),
		ForeignObjectLabel:   getEnv("FOREIGN_OBJECT_LABEL", "Foreign Object"),

		BuzzerPin: getEnvAllowEmpty("BUZZER_PIN", "GPIO21"),
		MotionPin: getEnvAllowEmpty("MOTION_PIN", "GPIO16"),

		MQTTBroker:   getEnv("MQTT_BROKER", ""),
		MQTTTopic:    getEnv("MQTT_TOPIC", "monitor/alert"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "objectmonitor"),

		SnapshotDirectory:     getEnv("SNAPSHOT_DIR", filepath.Join(".", "snapshots")),
		SnapshotBufferLimit:   getEnvAsInt("SNAPSHOT_BUFFER_LIMIT", 10),
		SnapshotFlushInterval: getEnvAsInt("SNAPSHOT_FLUSH_INTERVAL", 30),
		DatabasePath:          getEnv("DATABASE_PATH", filepath.Join(".", "data", "alerts.db")),
	}
}

// Validate reports every setting that would make the pipeline misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.SkipFrames < 1 {
		errs = append(errs, fmt.Errorf("SKIP_FRAMES must be >= 1, got %d", c.SkipFrames))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("JPEG_QUALITY must be in 1..100, got %d", c.JPEGQuality))
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("CONFIDENCE_THRESHOLD must be in [0,1], got %g", c.ConfidenceThreshold))
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		errs = append(errs, fmt.Errorf("NMS_THRESHOLD must be in [0,1], got %g", c.NMSThreshold))
	}
	if c.InferenceSize <= 0 {
		errs = append(errs, fmt.Errorf("INFERENCE_SIZE must be positive, got %d", c.InferenceSize))
	}
	if c.Detector != "onnx" && c.Detector != "remote" {
		errs = append(errs, fmt.Errorf("DETECTOR must be onnx or remote, got %q", c.Detector))
	}
	if c.ForeignObjectLabel == "" {
		errs = append(errs, errors.New("FOREIGN_OBJECT_LABEL must not be empty"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether the password login is active.
func (c *Config) AuthEnabled() bool {
	return c.Password != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty lets an explicitly empty variable disable a feature.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
