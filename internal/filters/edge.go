// Edge-overlay filter, the demo stand-in for a real inference model
package filters

import (
	"fmt"

	"gocv.io/x/gocv"
)

// EdgeOverlay runs Canny edge detection on a grayscale copy of the frame
// and blends the colored edge map back over the original.
type EdgeOverlay struct{}

// NewEdgeOverlay creates a new edge-overlay filter
func NewEdgeOverlay() *EdgeOverlay {
	return &EdgeOverlay{}
}

func (e *EdgeOverlay) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input frame is empty")
	}
	if input.Channels() != 3 {
		return gocv.NewMat(), fmt.Errorf("expected 3-channel frame, got %d channels", input.Channels())
	}

	// Get parameters
	threshold1 := 100.0
	if val, ok := params["threshold1"]; ok {
		if v, ok := val.(float64); ok {
			threshold1 = v
		}
	}

	threshold2 := 200.0
	if val, ok := params["threshold2"]; ok {
		if v, ok := val.(float64); ok {
			threshold2 = v
		}
	}

	blend := 0.3
	if val, ok := params["blend"]; ok {
		if v, ok := val.(float64); ok {
			blend = v
		}
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, float32(threshold1), float32(threshold2))

	// Back to 3 channels so the blend and the encoder see matching frames
	edgesColored := gocv.NewMat()
	defer edgesColored.Close()
	gocv.CvtColor(edges, &edgesColored, gocv.ColorGrayToBGR)

	output := gocv.NewMat()
	gocv.AddWeighted(input, 1.0-blend, edgesColored, blend, 0, &output)

	return output, nil
}

func (e *EdgeOverlay) DefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"threshold1": 100.0,
		"threshold2": 200.0,
		"blend":      0.3,
	}
}

func (e *EdgeOverlay) Name() string {
	return "Edge Overlay"
}

func (e *EdgeOverlay) Description() string {
	return "Canny edge detection blended over the original frame"
}

func (e *EdgeOverlay) Validate(params map[string]interface{}) error {
	if val, ok := params["threshold1"]; ok {
		if v, ok := val.(float64); ok {
			if v < 0 || v > 500 {
				return fmt.Errorf("threshold1 must be between 0 and 500")
			}
		}
	}

	if val, ok := params["threshold2"]; ok {
		if v, ok := val.(float64); ok {
			if v < 0 || v > 500 {
				return fmt.Errorf("threshold2 must be between 0 and 500")
			}
		}
	}

	if val, ok := params["blend"]; ok {
		if v, ok := val.(float64); ok {
			if v < 0.0 || v > 1.0 {
				return fmt.Errorf("blend must be between 0.0 and 1.0")
			}
		}
	}

	return nil
}
