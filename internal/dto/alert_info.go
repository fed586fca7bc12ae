package dto

import (
	"encoding/json"
	"time"
)

// AlertInfo represents a stored alert snapshot with the labels it contained.
type AlertInfo struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	TimeOfDay time.Time `json:"timeOfDay"`
	Total     int       `json:"total"`
	Labels    []string  `json:"labels"`
}

// MarshalJSON customizes JSON output for AlertInfo to format date and time-of-day.
func (a AlertInfo) MarshalJSON() ([]byte, error) {
	type Alias AlertInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      a.Date.Format("02-01-2006"),
		TimeOfDay: a.TimeOfDay.Format("15:04:05"),
		Alias:     (Alias)(a),
	})
}
