package remote

import (
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetect_PostsJPEGAndConvertsBoxes(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/detect" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotQuery = r.URL.RawQuery

		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("Missing file part: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		defer file.Close()
		img, err := jpeg.Decode(file)
		if err != nil {
			t.Errorf("Posted file is not a JPEG: %v", err)
		} else if img.Bounds().Dx() != 320 {
			t.Errorf("Posted frame width %d, expected 320", img.Bounds().Dx())
		}

		json.NewEncoder(w).Encode(Response{Boxes: []Box{
			{Label: "cup", Conf: 0.8, X1: 10, Y1: 20, X2: 50, Y2: 60},
			{Label: "person", Conf: 0.3, X1: 0, Y1: 0, X2: 10, Y2: 10},
			{Label: "knife", Conf: 0.9, X1: 300, Y1: 200, X2: 400, Y2: 300},
			{Label: "dog", Conf: 0.7, X1: 500, Y1: 500, X2: 600, Y2: 600},
		}})
	}))
	defer server.Close()

	client := New(server.URL, 0.5, 0.45, 160)
	results, err := client.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 320, 240)))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if gotQuery != "conf=0.5&iou=0.45&imgsz=160" {
		t.Errorf("Unexpected query %q", gotQuery)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %+v", results)
	}
	if results[0].Label != "cup" || results[0].Box != image.Rect(10, 20, 50, 60) {
		t.Errorf("Unexpected first result %+v", results[0])
	}
	if results[1].Box != image.Rect(300, 200, 320, 240) {
		t.Errorf("Expected knife box clipped to frame, got %v", results[1].Box)
	}
}

func TestDetect_ServerErrorIsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, 0.5, 0.45, 160)
	if _, err := client.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8))); err == nil {
		t.Fatal("Expected error for 503 response")
	}
}
