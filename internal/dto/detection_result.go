package dto

import "image"

// DetectionResult is one object found in a frame by a detector backend.
type DetectionResult struct {
	Label      string          `json:"label"`
	Confidence float64         `json:"confidence"`
	Box        image.Rectangle `json:"box"`
}
