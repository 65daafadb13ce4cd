// Streaming per-frame video transform with progress reporting
package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// DefaultFourCC is the fallback output codec identifier.
const DefaultFourCC = "mp4v"

// FrameTransform maps one decoded frame to one output frame. The returned
// Mat must be independently closeable from the input; a passthrough
// transform returns a clone. The output must keep the geometry and channel
// count the destination was opened with.
type FrameTransform func(frame gocv.Mat) (gocv.Mat, error)

// ProgressFunc receives a completion fraction in [0, 1]. It is invoked once
// per processed frame from the transform's own goroutine and must not block.
type ProgressFunc func(fraction float64)

// Options configures a Transformer.
type Options struct {
	// FourCC selects the output codec. Empty means DefaultFourCC.
	FourCC string

	// KeepPartialOnCancel leaves the partially written destination on a
	// cancelled run instead of deleting it. Failed runs always delete.
	KeepPartialOnCancel bool
}

// Transformer drives a one-pass, single-threaded transformation of an
// entire video: frames are read, transformed, and written strictly one at
// a time, in order. The operation blocks; callers needing responsiveness
// run it on their own goroutine and observe the progress callback.
type Transformer struct {
	logger *logrus.Logger
	opts   Options
}

func NewTransformer(logger *logrus.Logger, opts Options) *Transformer {
	if opts.FourCC == "" {
		opts.FourCC = DefaultFourCC
	}
	return &Transformer{logger: logger, opts: opts}
}

// TransformFile opens srcPath, applies fn to every frame in order, and
// writes the results to dstPath with the source's geometry and frame rate.
// On success the destination holds exactly as many frames as the source,
// the final reported progress is 1.0, and the destination path and frame
// count are returned. On any error the destination is finalized and
// removed (subject to KeepPartialOnCancel) before the error is returned.
func (t *Transformer) TransformFile(ctx context.Context, srcPath, dstPath string, fn FrameTransform, onProgress ProgressFunc) (string, int, error) {
	start := time.Now()

	src, err := OpenSource(srcPath)
	if err != nil {
		return "", 0, err
	}
	defer src.Close()

	if src.Width() <= 0 || src.Height() <= 0 {
		return "", 0, fmt.Errorf("%w: %s: invalid geometry %dx%d", ErrSourceUnreadable, srcPath, src.Width(), src.Height())
	}

	t.logger.WithFields(logrus.Fields{
		"source":       srcPath,
		"width":        src.Width(),
		"height":       src.Height(),
		"fps":          src.FPS(),
		"frames_hint":  src.FrameCount(),
		"output_codec": t.opts.FourCC,
	}).Info("starting video transform")

	sink, err := NewSink(dstPath, t.opts.FourCC, src.FPS(), src.Width(), src.Height())
	if err != nil {
		return "", 0, err
	}

	written, runErr := t.Run(ctx, src, sink, fn, onProgress)

	// The sink is finalized exactly once, success or not, so a failed run
	// never leaves a locked or half-flushed file handle behind.
	closeErr := sink.Close()

	if runErr != nil {
		t.discardPartial(dstPath, runErr)
		return "", 0, runErr
	}
	if closeErr != nil {
		t.removeOutput(dstPath)
		return "", 0, fmt.Errorf("%w: finalize %s: %v", ErrDestinationUnwritable, dstPath, closeErr)
	}
	if written == 0 {
		t.removeOutput(dstPath)
		return "", 0, fmt.Errorf("%w: %s: no readable frames", ErrSourceUnreadable, srcPath)
	}

	t.logger.WithFields(logrus.Fields{
		"destination": dstPath,
		"frames":      written,
		"elapsed":     time.Since(start).Round(time.Millisecond).String(),
	}).Info("video transform completed")

	return dstPath, written, nil
}

// Run executes the transform loop over an already opened source and sink.
// It returns the number of frames written. Callers own both streams; Run
// closes neither.
func (t *Transformer) Run(ctx context.Context, src FrameSource, sink FrameSink, fn FrameTransform, onProgress ProgressFunc) (int, error) {
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	// The reported total is a best-effort denominator only. The loop is
	// driven by Read, so a container that under- or over-reports its
	// frame count changes nothing but the progress granularity.
	total := src.FrameCount()

	reported := 0.0
	report := func(fraction float64) {
		if fraction > 1 {
			fraction = 1
		}
		if fraction < reported {
			fraction = reported
		}
		reported = fraction
		onProgress(fraction)
	}

	frame := gocv.NewMat()
	defer frame.Close()

	written := 0
	for index := 0; ; index++ {
		select {
		case <-ctx.Done():
			return written, fmt.Errorf("%w: at frame %d: %v", ErrCancelled, index, ctx.Err())
		default:
		}

		if !src.Read(&frame) {
			break
		}

		out, err := fn(frame)
		if err != nil {
			out.Close()
			return written, &FrameError{Index: index, Err: fmt.Errorf("%w: %v", ErrTransformFailed, err)}
		}

		if out.Cols() != sink.Width() || out.Rows() != sink.Height() || out.Channels() != sink.Channels() {
			mismatch := fmt.Errorf("%w: got %dx%d/%dch, destination opened with %dx%d/%dch",
				ErrDimensionMismatch, out.Cols(), out.Rows(), out.Channels(),
				sink.Width(), sink.Height(), sink.Channels())
			out.Close()
			return written, &FrameError{Index: index, Err: mismatch}
		}

		writeErr := sink.Write(out)
		out.Close()
		if writeErr != nil {
			return written, &FrameError{Index: index, Err: writeErr}
		}
		written++

		if total > 0 {
			report(float64(index+1) / float64(total))
		} else {
			report(0)
		}
	}

	// Force completion to 1.0 unless the per-frame reports already got
	// there, so onProgress fires exactly once per frame for exact totals.
	if written > 0 && reported < 1 {
		report(1)
	}
	return written, nil
}

func (t *Transformer) discardPartial(dstPath string, cause error) {
	if errors.Is(cause, ErrCancelled) && t.opts.KeepPartialOnCancel {
		t.logger.WithField("destination", dstPath).Info("keeping partial output after cancel")
		return
	}
	t.removeOutput(dstPath)
}

func (t *Transformer) removeOutput(dstPath string) {
	if err := os.Remove(dstPath); err != nil && !os.IsNotExist(err) {
		t.logger.WithError(err).WithField("destination", dstPath).Warn("failed to remove partial output")
	}
}
