package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"objectmonitor/internal/classmap"
	"objectmonitor/internal/dto"
	"objectmonitor/internal/service/stats"
)

// State of a streaming session.
type State int

const (
	AwaitingFrame State = iota
	FrameReady
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingFrame:
		return "AWAITING_FRAME"
	case FrameReady:
		return "FRAME_READY"
	case Terminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Pass describes one completed detection pass.
type Pass struct {
	SessionID  string
	Frame      int64
	Snapshot   stats.Snapshot
	Detections []dto.LabeledDetection
	// Annotated is the session's new last annotated frame. Observers must not modify it.
	Annotated   *image.RGBA
	Duration    time.Duration
	ActuatorErr error
}

// Emission describes one chunk handed to the stream.
type Emission struct {
	SessionID string
	Frame     int64
	Sampled   bool
	Total     int
	Bytes     int
}

// Options configures a Session. Source, Detector, Mapper, Store and Encoder are required.
type Options struct {
	ID           string
	Source       FrameSource
	Detector     Detector
	Mapper       *classmap.Mapper
	Store        *stats.Store
	Actuator     Actuator
	Encoder      Encoder
	Annotator    *Annotator
	SkipInterval int

	OnPass func(Pass)
	OnEmit func(Emission)
}

// Session is the per-client frame pipeline: a lazy, non-restartable sequence of
// encoded frames. The frame counter and last annotated frame belong to the
// session; the stats store and actuator are shared. A Session is not safe for
// concurrent use.
type Session struct {
	id        string
	source    FrameSource
	detector  Detector
	mapper    *classmap.Mapper
	store     *stats.Store
	actuator  Actuator
	encoder   Encoder
	annotator *Annotator
	skip      int64
	onPass    func(Pass)
	onEmit    func(Emission)

	state         State
	counter       int64
	lastAnnotated *image.RGBA
}

// NewSession validates opts and returns a session waiting for its first frame.
func NewSession(opts Options) (*Session, error) {
	switch {
	case opts.Source == nil:
		return nil, errors.New("pipeline: frame source is required")
	case opts.Detector == nil:
		return nil, errors.New("pipeline: detector is required")
	case opts.Mapper == nil:
		return nil, errors.New("pipeline: class mapper is required")
	case opts.Store == nil:
		return nil, errors.New("pipeline: stats store is required")
	case opts.Encoder == nil:
		return nil, errors.New("pipeline: encoder is required")
	case opts.SkipInterval < 1:
		return nil, fmt.Errorf("pipeline: skip interval must be >= 1, got %d", opts.SkipInterval)
	}

	s := &Session{
		id:        opts.ID,
		source:    opts.Source,
		detector:  opts.Detector,
		mapper:    opts.Mapper,
		store:     opts.Store,
		actuator:  opts.Actuator,
		encoder:   opts.Encoder,
		annotator: opts.Annotator,
		skip:      int64(opts.SkipInterval),
		onPass:    opts.OnPass,
		onEmit:    opts.OnEmit,
		state:     AwaitingFrame,
	}
	if s.actuator == nil {
		s.actuator = NopActuator{}
	}
	if s.annotator == nil {
		s.annotator = NewAnnotator()
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current pipeline state.
func (s *Session) State() State { return s.state }

// ContentType is the media type of the chunks returned by Next.
func (s *Session) ContentType() string { return s.encoder.ContentType() }

// Frames returns how many frames were pulled successfully.
func (s *Session) Frames() int64 { return s.counter }

// Next pulls one frame, runs detection when the frame is sampled and returns
// the encoded chunk to emit. Errors are terminal: source failures are wrapped in
// ErrSourceExhausted, and every later call returns ErrSessionTerminated.
func (s *Session) Next(ctx context.Context) ([]byte, error) {
	if s.state == Terminated {
		return nil, ErrSessionTerminated
	}
	if err := ctx.Err(); err != nil {
		s.state = Terminated
		return nil, err
	}

	s.state = AwaitingFrame
	frame, err := s.source.Read(ctx)
	if err != nil {
		s.state = Terminated
		return nil, fmt.Errorf("%w: %w", ErrSourceExhausted, err)
	}
	s.state = FrameReady
	s.counter++

	sampled := s.counter%s.skip == 0
	var candidate image.Image
	switch {
	case sampled:
		annotated, err := s.runPass(ctx, frame)
		if err != nil {
			s.state = Terminated
			return nil, err
		}
		candidate = annotated
	case s.lastAnnotated != nil:
		candidate = s.lastAnnotated
	default:
		candidate = frame
	}

	total := s.store.Total()
	out := cloneRGBA(candidate)
	s.annotator.DrawOverlay(out, overlayText(total))

	data, err := s.encoder.Encode(out)
	if err != nil {
		s.state = Terminated
		return nil, fmt.Errorf("encode frame %d: %w", s.counter, err)
	}
	s.state = AwaitingFrame

	if s.onEmit != nil {
		s.onEmit(Emission{
			SessionID: s.id,
			Frame:     s.counter,
			Sampled:   sampled,
			Total:     total,
			Bytes:     len(data),
		})
	}
	return data, nil
}

// runPass detects, annotates, publishes the new aggregate state and drives the actuator.
func (s *Session) runPass(ctx context.Context, frame image.Image) (*image.RGBA, error) {
	start := time.Now()
	detections, err := s.detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detect objects on frame %d: %w", s.counter, err)
	}

	annotated := cloneRGBA(frame)
	classes := make(map[string]int, len(detections))
	labeled := make([]dto.LabeledDetection, 0, len(detections))
	alert := false

	for _, d := range detections {
		display := s.mapper.Map(d.Label)
		classes[display]++
		isAlert := s.mapper.IsAlert(display)
		if isAlert {
			alert = true
		}
		s.annotator.DrawDetection(annotated, d.Box, labelText(display, d.Confidence), isAlert)
		labeled = append(labeled, dto.LabeledDetection{DetectionResult: d, DisplayLabel: display})
	}

	snap := s.store.Publish(classes, alert)

	var actErr error
	if alert {
		actErr = s.actuator.On()
	} else {
		actErr = s.actuator.Off()
	}

	s.lastAnnotated = annotated

	if s.onPass != nil {
		s.onPass(Pass{
			SessionID:   s.id,
			Frame:       s.counter,
			Snapshot:    snap,
			Detections:  labeled,
			Annotated:   annotated,
			Duration:    time.Since(start),
			ActuatorErr: actErr,
		})
	}
	return annotated, nil
}

func labelText(display string, confidence float64) string {
	return fmt.Sprintf("%s: %.2f", display, confidence)
}

func overlayText(total int) string {
	return fmt.Sprintf("Objects: %d", total)
}
