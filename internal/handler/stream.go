package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"objectmonitor/internal/dto"
	"objectmonitor/internal/logger"
	"objectmonitor/internal/service/pipeline"
)

const (
	// StreamBoundary separates JPEG parts in the /video response.
	StreamBoundary = "frame"
	// StreamContentType is the content type of the /video response.
	StreamContentType = "multipart/x-mixed-replace; boundary=" + StreamBoundary
)

// SessionOpener creates and retires streaming sessions.
type SessionOpener interface {
	OpenSession() (*pipeline.Session, error)
	CloseSession(session *pipeline.Session, cause error)
}

// StatsReader returns the latest detection summary.
type StatsReader interface {
	Stats() dto.DetectionStats
}

// VideoFeedHandler streams annotated JPEG frames as multipart/x-mixed-replace.
// Each request gets its own session; the stream ends when the camera stops
// delivering frames or the client goes away.
func VideoFeedHandler(sessions SessionOpener, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessions.OpenSession()
		if err != nil {
			logger.Error("Failed to open stream session: %v", err)
			http.Error(w, "Stream unavailable", http.StatusServiceUnavailable)
			return
		}

		var cause error
		defer func() { sessions.CloseSession(session, cause) }()

		flusher, _ := w.(http.Flusher)
		w.Header().Set("Content-Type", StreamContentType)
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.WriteHeader(http.StatusOK)

		ctx := r.Context()
		partType := session.ContentType()
		for {
			chunk, err := session.Next(ctx)
			if err != nil {
				if !errors.Is(err, pipeline.ErrSourceExhausted) && ctx.Err() == nil {
					logger.Error("Stream session %s stopped: %v", session.ID(), err)
				}
				cause = err
				return
			}

			if err := writePart(w, partType, chunk); err != nil {
				// Client went away mid-write.
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// writePart writes one multipart chunk: boundary, headers, image bytes, CRLF.
func writePart(w io.Writer, contentType string, data []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: %s\r\n\r\n", StreamBoundary, contentType); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
