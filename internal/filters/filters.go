// Additional per-frame filters
package filters

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Identity returns each frame unchanged. Useful as a round-trip baseline
// and for re-encoding a video without altering its content.
type Identity struct{}

// NewIdentity creates a new identity filter
func NewIdentity() *Identity {
	return &Identity{}
}

func (i *Identity) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input frame is empty")
	}

	return input.Clone(), nil
}

func (i *Identity) DefaultParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (i *Identity) Name() string {
	return "Identity"
}

func (i *Identity) Description() string {
	return "Passes frames through unchanged"
}

func (i *Identity) Validate(params map[string]interface{}) error {
	return nil
}

// Grayscale desaturates each frame. The result is converted back to 3
// channels to keep the channel contract with the destination encoder.
type Grayscale struct{}

// NewGrayscale creates a new grayscale filter
func NewGrayscale() *Grayscale {
	return &Grayscale{}
}

func (g *Grayscale) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input frame is empty")
	}
	if input.Channels() != 3 {
		return gocv.NewMat(), fmt.Errorf("expected 3-channel frame, got %d channels", input.Channels())
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)

	output := gocv.NewMat()
	gocv.CvtColor(gray, &output, gocv.ColorGrayToBGR)

	return output, nil
}

func (g *Grayscale) DefaultParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (g *Grayscale) Name() string {
	return "Grayscale"
}

func (g *Grayscale) Description() string {
	return "Desaturates frames while keeping a 3-channel layout"
}

func (g *Grayscale) Validate(params map[string]interface{}) error {
	return nil
}

// GaussianBlur implements Gaussian blur smoothing
type GaussianBlur struct{}

// NewGaussianBlur creates a new Gaussian blur filter
func NewGaussianBlur() *GaussianBlur {
	return &GaussianBlur{}
}

func (g *GaussianBlur) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input frame is empty")
	}

	// Get parameters
	kernelSize := 5
	if val, ok := params["kernel_size"]; ok {
		if v, ok := val.(float64); ok {
			kernelSize = int(v)
		}
	}

	sigma := 1.0
	if val, ok := params["sigma"]; ok {
		if v, ok := val.(float64); ok {
			sigma = v
		}
	}

	// Ensure kernel size is odd
	if kernelSize%2 == 0 {
		kernelSize++
	}

	output := gocv.NewMat()
	gocv.GaussianBlur(input, &output, image.Pt(kernelSize, kernelSize), sigma, sigma, gocv.BorderDefault)

	return output, nil
}

func (g *GaussianBlur) DefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"kernel_size": 5.0,
		"sigma":       1.0,
	}
}

func (g *GaussianBlur) Name() string {
	return "Gaussian Blur"
}

func (g *GaussianBlur) Description() string {
	return "Gaussian blur for smoothing and noise reduction"
}

func (g *GaussianBlur) Validate(params map[string]interface{}) error {
	if val, ok := params["kernel_size"]; ok {
		if v, ok := val.(float64); ok {
			if v < 3 || v > 21 {
				return fmt.Errorf("kernel_size must be between 3 and 21")
			}
		}
	}

	if val, ok := params["sigma"]; ok {
		if v, ok := val.(float64); ok {
			if v < 0.1 || v > 10.0 {
				return fmt.Errorf("sigma must be between 0.1 and 10.0")
			}
		}
	}

	return nil
}
