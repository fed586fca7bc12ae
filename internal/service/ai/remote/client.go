// Package remote detects objects by posting frames to an HTTP inference server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"objectmonitor/internal/dto"
)

// Box is one detection as returned by the server, in frame pixels.
type Box struct {
	Label   string  `json:"label"`
	ClassID int     `json:"class_id"`
	Conf    float64 `json:"conf"`
	X1      int     `json:"x1"`
	Y1      int     `json:"y1"`
	X2      int     `json:"x2"`
	Y2      int     `json:"y2"`
}

type Response struct {
	Boxes []Box `json:"boxes"`
}

// Client posts JPEG frames to {baseURL}/detect.
type Client struct {
	baseURL    string
	http       *http.Client
	confidence float64
	iou        float64
	imgsz      int
}

func New(baseURL string, confidence, iou float64, imgsz int) *Client {
	return &Client{
		baseURL:    baseURL,
		confidence: confidence,
		iou:        iou,
		imgsz:      imgsz,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Detect encodes frame, posts it and converts the returned boxes. Boxes are
// clipped to the frame and those under the confidence threshold are dropped.
func (c *Client) Detect(ctx context.Context, frame image.Image) ([]dto.DetectionResult, error) {
	var img bytes.Buffer
	if err := jpeg.Encode(&img, frame, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	boxes, err := c.DetectJPEG(ctx, img.Bytes())
	if err != nil {
		return nil, err
	}

	bounds := frame.Bounds()
	results := make([]dto.DetectionResult, 0, len(boxes))
	for _, b := range boxes {
		if b.Conf < c.confidence {
			continue
		}
		box := image.Rect(b.X1, b.Y1, b.X2, b.Y2).Intersect(bounds)
		if box.Empty() {
			continue
		}
		results = append(results, dto.DetectionResult{
			Label:      b.Label,
			Confidence: b.Conf,
			Box:        box,
		})
	}
	return results, nil
}

// DetectJPEG sends an already encoded frame.
func (c *Client) DetectJPEG(ctx context.Context, data []byte) ([]Box, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, err
	}
	if _, err = fw.Write(data); err != nil {
		return nil, err
	}
	_ = w.Close()

	url := fmt.Sprintf("%s/detect?conf=%g&iou=%g&imgsz=%d", c.baseURL, c.confidence, c.iou, c.imgsz)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("detector returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode detector response: %w", err)
	}
	return out.Boxes, nil
}
