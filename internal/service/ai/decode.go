package ai

import (
	"image"
)

// candidate is a pre-NMS detection in frame coordinates.
type candidate struct {
	classID int
	score   float32
	box     image.Rectangle
}

// decodeYOLOv8 reads a [4+classes, anchors] output tensor laid out row-major:
// cx, cy, w, h followed by one score per class, all in input-pixel units.
// Boxes are scaled by (sx, sy) back to the frame and clipped to bounds.
func decodeYOLOv8(data []float32, rows, anchors int, threshold float32, sx, sy float64, bounds image.Rectangle) []candidate {
	classes := rows - 4
	if classes <= 0 || len(data) < rows*anchors {
		return nil
	}

	var out []candidate
	for i := 0; i < anchors; i++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < classes; c++ {
			if s := data[(4+c)*anchors+i]; s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 || bestScore < threshold {
			continue
		}

		cx := float64(data[i])
		cy := float64(data[anchors+i])
		w := float64(data[2*anchors+i])
		h := float64(data[3*anchors+i])

		box := image.Rect(
			int((cx-w/2)*sx),
			int((cy-h/2)*sy),
			int((cx+w/2)*sx),
			int((cy+h/2)*sy),
		)
		box = clipBox(box, bounds)
		if box.Empty() {
			continue
		}
		out = append(out, candidate{classID: best, score: bestScore, box: box})
	}
	return out
}

// clipBox clamps a box to the frame.
func clipBox(box, bounds image.Rectangle) image.Rectangle {
	return box.Canon().Intersect(bounds)
}
