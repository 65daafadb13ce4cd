// GoCV-backed frame stream implementations
package video

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FrameSource is a sequential, read-only stream over the frames of one
// video. It is owned by a single transform run and closed when the run ends.
type FrameSource interface {
	Width() int
	Height() int
	FPS() float64

	// FrameCount returns the container's reported frame total. The value
	// is a best-effort estimate: some containers report zero, a negative
	// number, or a count that disagrees with the frames actually decoded.
	FrameCount() int

	// Read decodes the next frame into dst, returning false when the
	// stream is exhausted.
	Read(dst *gocv.Mat) bool

	Close() error
}

// FrameSink is an append-only, sequential frame writer. It is opened with a
// fixed geometry and channel count; every written frame must match it.
type FrameSink interface {
	Width() int
	Height() int
	Channels() int
	Write(frame gocv.Mat) error
	Close() error
}

type captureSource struct {
	capture *gocv.VideoCapture
	width   int
	height  int
	fps     float64
	frames  int
}

// OpenSource opens path as a video stream.
func OpenSource(path string) (FrameSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}

	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s", ErrSourceUnreadable, path)
	}

	return &captureSource{
		capture: capture,
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
		fps:     capture.Get(gocv.VideoCaptureFPS),
		frames:  int(capture.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

func (s *captureSource) Width() int      { return s.width }
func (s *captureSource) Height() int     { return s.height }
func (s *captureSource) FPS() float64    { return s.fps }
func (s *captureSource) FrameCount() int { return s.frames }

func (s *captureSource) Read(dst *gocv.Mat) bool {
	if !s.capture.Read(dst) {
		return false
	}
	return !dst.Empty()
}

func (s *captureSource) Close() error {
	return s.capture.Close()
}

type writerSink struct {
	writer *gocv.VideoWriter
	path   string
	width  int
	height int
}

// NewSink creates the destination video at path with the given fourcc,
// frame rate, and geometry. The sink writes 3-channel color frames.
func NewSink(path, fourcc string, fps float64, width, height int) (FrameSink, error) {
	writer, err := gocv.VideoWriterFile(path, fourcc, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDestinationUnwritable, path, err)
	}

	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("%w: %s: encoder rejected %s %dx%d@%.2f", ErrDestinationUnwritable, path, fourcc, width, height, fps)
	}

	return &writerSink{
		writer: writer,
		path:   path,
		width:  width,
		height: height,
	}, nil
}

func (s *writerSink) Width() int    { return s.width }
func (s *writerSink) Height() int   { return s.height }
func (s *writerSink) Channels() int { return 3 }

func (s *writerSink) Write(frame gocv.Mat) error {
	if err := s.writer.Write(frame); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDestinationUnwritable, s.path, err)
	}
	return nil
}

func (s *writerSink) Close() error {
	return s.writer.Close()
}
