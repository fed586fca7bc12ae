package dto

// DetectionStats is the payload served by /detection_stats and pushed over /ws/stats.
type DetectionStats struct {
	Total   int            `json:"total"`
	Classes map[string]int `json:"classes"`
	Alert   bool           `json:"alert"`
	// MotionDetected is only set when a motion sensor is configured.
	MotionDetected *bool `json:"motion_detected,omitempty"`
}
