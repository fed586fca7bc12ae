package model

import "time"

// Alert is one persisted alert snapshot.
type Alert struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total"`
	FilePath  string    `json:"filepath"`
	FileSize  int64     `json:"filesize"`
}
