package model

// Detection is one object drawn on an alert snapshot.
type Detection struct {
	ID         int64   `json:"id"`
	AlertID    int64   `json:"alert_id"`
	Label      string  `json:"label"`
	RawLabel   string  `json:"raw_label"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}
