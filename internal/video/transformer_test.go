package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type fakeSource struct {
	width     int
	height    int
	fps       float64
	reported  int
	available int
	next      int
}

func (s *fakeSource) Width() int      { return s.width }
func (s *fakeSource) Height() int     { return s.height }
func (s *fakeSource) FPS() float64    { return s.fps }
func (s *fakeSource) FrameCount() int { return s.reported }
func (s *fakeSource) Close() error    { return nil }

func (s *fakeSource) Read(dst *gocv.Mat) bool {
	if s.next >= s.available {
		return false
	}
	s.next++
	frame := gocv.NewMatWithSize(s.height, s.width, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.CopyTo(dst)
	return true
}

type fakeSink struct {
	width   int
	height  int
	written int
	failAt  int // fail the write at this index, -1 disables
	closed  int
}

func (s *fakeSink) Width() int    { return s.width }
func (s *fakeSink) Height() int   { return s.height }
func (s *fakeSink) Channels() int { return 3 }

func (s *fakeSink) Write(frame gocv.Mat) error {
	if s.failAt >= 0 && s.written == s.failAt {
		return fmt.Errorf("%w: disk full", ErrDestinationUnwritable)
	}
	s.written++
	return nil
}

func (s *fakeSink) Close() error {
	s.closed++
	return nil
}

func newFakeStreams(reported, available int) (*fakeSource, *fakeSink) {
	src := &fakeSource{width: 64, height: 48, fps: 25, reported: reported, available: available}
	sink := &fakeSink{width: 64, height: 48, failAt: -1}
	return src, sink
}

func identityTransform(frame gocv.Mat) (gocv.Mat, error) {
	return frame.Clone(), nil
}

func testTransformer(t *testing.T) *Transformer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.ErrorLevel)
	return NewTransformer(logger, Options{})
}

func TestRunWritesEveryFrame(t *testing.T) {
	src, sink := newFakeStreams(10, 10)
	tr := testTransformer(t)

	var progress []float64
	written, err := tr.Run(context.Background(), src, sink, identityTransform, func(f float64) {
		progress = append(progress, f)
	})

	require.NoError(t, err)
	assert.Equal(t, 10, written)
	assert.Equal(t, 10, sink.written)

	// Exact totals report exactly once per frame, with no duplicate
	// completion callback.
	require.Len(t, progress, 10)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1], "progress must be non-decreasing")
	}
	assert.Equal(t, 1.0, progress[len(progress)-1])
}

func TestRunIndeterminateProgress(t *testing.T) {
	src, sink := newFakeStreams(0, 4)
	tr := testTransformer(t)

	var progress []float64
	written, err := tr.Run(context.Background(), src, sink, identityTransform, func(f float64) {
		progress = append(progress, f)
	})

	require.NoError(t, err)
	assert.Equal(t, 4, written)

	// Unknown totals report 0.0 per frame and 1.0 once on completion.
	require.Len(t, progress, 5)
	for _, f := range progress[:4] {
		assert.Equal(t, 0.0, f)
	}
	assert.Equal(t, 1.0, progress[4])
}

func TestRunMoreFramesThanReported(t *testing.T) {
	src, sink := newFakeStreams(5, 8)
	tr := testTransformer(t)

	var progress []float64
	written, err := tr.Run(context.Background(), src, sink, identityTransform, func(f float64) {
		progress = append(progress, f)
	})

	require.NoError(t, err)
	assert.Equal(t, 8, written)
	require.Len(t, progress, 8, "one callback per frame even past the reported total")
	for _, f := range progress {
		assert.LessOrEqual(t, f, 1.0)
	}
	assert.Equal(t, 1.0, progress[len(progress)-1])
}

func TestRunFewerFramesThanReported(t *testing.T) {
	src, sink := newFakeStreams(20, 6)
	tr := testTransformer(t)

	var progress []float64
	written, err := tr.Run(context.Background(), src, sink, identityTransform, func(f float64) {
		progress = append(progress, f)
	})

	require.NoError(t, err)
	assert.Equal(t, 6, written)
	assert.Equal(t, 1.0, progress[len(progress)-1], "completion must force progress to 1.0")
}

func TestRunTransformErrorCarriesFrameIndex(t *testing.T) {
	src, sink := newFakeStreams(10, 10)
	tr := testTransformer(t)

	calls := 0
	fn := func(frame gocv.Mat) (gocv.Mat, error) {
		if calls == 5 {
			// A failing transform may still hand back a frame; the
			// loop owns and releases it.
			return frame.Clone(), errors.New("model blew up")
		}
		calls++
		return frame.Clone(), nil
	}

	written, err := tr.Run(context.Background(), src, sink, fn, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransformFailed))

	var fe *FrameError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 5, fe.Index)
	assert.Equal(t, 5, written)
}

func TestRunDimensionMismatchDetectedBeforeWrite(t *testing.T) {
	src, sink := newFakeStreams(3, 3)
	tr := testTransformer(t)

	fn := func(frame gocv.Mat) (gocv.Mat, error) {
		return gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3), nil
	}

	written, err := tr.Run(context.Background(), src, sink, fn, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	var fe *FrameError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 0, fe.Index)
	assert.Equal(t, 0, written)
	assert.Equal(t, 0, sink.written, "mismatched frame must never reach the sink")
}

func TestRunWriteFailure(t *testing.T) {
	src, sink := newFakeStreams(10, 10)
	sink.failAt = 3
	tr := testTransformer(t)

	written, err := tr.Run(context.Background(), src, sink, identityTransform, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDestinationUnwritable))
	assert.Equal(t, 3, written)
}

func TestRunCancelledAtFrameBoundary(t *testing.T) {
	src, sink := newFakeStreams(10, 10)
	tr := testTransformer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	written, err := tr.Run(ctx, src, sink, identityTransform, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.Equal(t, 0, written)
}

func TestTransformFileSourceMissing(t *testing.T) {
	tr := testTransformer(t)
	dst := filepath.Join(t.TempDir(), "out.mp4")

	_, _, err := tr.TransformFile(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), dst, identityTransform, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnreadable))
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "no destination artifact may remain")
}

func TestTransformFileRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping codec round trip in short mode")
	}

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.avi")
	dstPath := filepath.Join(dir, "processed_src.avi")

	writeTestVideo(t, srcPath, 12)

	tr := testTransformer(t)
	var last float64
	out, frames, err := tr.TransformFile(context.Background(), srcPath, dstPath, identityTransform, func(f float64) {
		last = f
	})
	require.NoError(t, err)
	assert.Equal(t, dstPath, out)
	assert.Equal(t, 12, frames)
	assert.Equal(t, 1.0, last)

	src, err := OpenSource(dstPath)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 64, src.Width())
	assert.Equal(t, 48, src.Height())

	frame := gocv.NewMat()
	defer frame.Close()
	decoded := 0
	for src.Read(&frame) {
		decoded++
	}
	assert.Equal(t, 12, decoded, "destination must hold exactly as many frames as the source")
}

func TestTransformFileFailureRemovesPartialOutput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping codec test in short mode")
	}

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.avi")
	dstPath := filepath.Join(dir, "processed_src.avi")

	writeTestVideo(t, srcPath, 10)

	calls := 0
	fn := func(frame gocv.Mat) (gocv.Mat, error) {
		if calls == 5 {
			return gocv.NewMat(), errors.New("boom")
		}
		calls++
		return frame.Clone(), nil
	}

	tr := testTransformer(t)
	_, _, err := tr.TransformFile(context.Background(), srcPath, dstPath, fn, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransformFailed))
	_, statErr := os.Stat(dstPath)
	assert.True(t, os.IsNotExist(statErr), "partial output must be deleted on failure")
}

func TestTransformFileDestinationDirMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping codec test in short mode")
	}

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.avi")
	writeTestVideo(t, srcPath, 4)

	dstPath := filepath.Join(dir, "no", "such", "dir", "processed_src.avi")

	tr := testTransformer(t)
	_, _, err := tr.TransformFile(context.Background(), srcPath, dstPath, identityTransform, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDestinationUnwritable))
}

func TestTransformFileCancelPartialOutputPolicy(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping codec test in short mode")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	run := func(t *testing.T, keep bool) (string, error) {
		dir := t.TempDir()
		srcPath := filepath.Join(dir, "src.avi")
		dstPath := filepath.Join(dir, "processed_src.avi")
		writeTestVideo(t, srcPath, 10)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tr := NewTransformer(logger, Options{KeepPartialOnCancel: keep})
		_, _, err := tr.TransformFile(ctx, srcPath, dstPath, identityTransform, nil)
		return dstPath, err
	}

	t.Run("default deletes partial output", func(t *testing.T) {
		dstPath, err := run(t, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCancelled))
		_, statErr := os.Stat(dstPath)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("keep option preserves partial output", func(t *testing.T) {
		dstPath, err := run(t, true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCancelled))
		_, statErr := os.Stat(dstPath)
		assert.NoError(t, statErr)
	})
}

// writeTestVideo encodes a small synthetic MJPG clip.
func writeTestVideo(t *testing.T, path string, frames int) {
	t.Helper()

	writer, err := gocv.VideoWriterFile(path, "MJPG", 25, 64, 48, true)
	require.NoError(t, err)
	require.True(t, writer.IsOpened())
	defer writer.Close()

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	for i := 0; i < frames; i++ {
		require.NoError(t, writer.Write(frame))
	}
}
