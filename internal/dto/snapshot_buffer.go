package dto

import "time"

// BufferedSnapshot holds an annotated alert frame waiting to be flushed to disk.
type BufferedSnapshot struct {
	ID         string
	Timestamp  time.Time
	Total      int
	Detections []LabeledDetection
	Data       []byte
}

// LabeledDetection is a detection together with the label shown to the user.
type LabeledDetection struct {
	DetectionResult
	DisplayLabel string
}
