// Per-frame filter registry
package filters

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"
)

// Filter defines the contract for a per-frame transform: one frame in, one
// frame out, with no dependency on neighboring frames. The returned Mat is
// owned by the caller and must be closeable independently of the input. Any
// real inference model plugs in by implementing this interface.
type Filter interface {
	Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error)
	DefaultParams() map[string]interface{}
	Name() string
	Description() string
	Validate(params map[string]interface{}) error
}

var filters = make(map[string]Filter)

func Register(name string, filter Filter) {
	filters[name] = filter
}

func Get(name string) (Filter, bool) {
	filter, exists := filters[name]
	return filter, exists
}

func Apply(name string, input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	filter, exists := filters[name]
	if !exists {
		return gocv.NewMat(), fmt.Errorf("filter not found: %s", name)
	}

	return filter.Apply(input, params)
}

func ValidateParams(name string, params map[string]interface{}) error {
	filter, exists := filters[name]
	if !exists {
		return fmt.Errorf("filter not found: %s", name)
	}

	return filter.Validate(params)
}

func IsValidFilter(name string) bool {
	_, exists := filters[name]
	return exists
}

// Names returns the registered filter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Transform binds a registered filter and parameter set into a closure
// suitable for the streaming transformer. Nil params selects the filter's
// defaults. Parameters are validated once, up front.
func Transform(name string, params map[string]interface{}) (func(gocv.Mat) (gocv.Mat, error), error) {
	filter, exists := filters[name]
	if !exists {
		return nil, fmt.Errorf("filter not found: %s", name)
	}

	if params == nil {
		params = filter.DefaultParams()
	}
	if err := filter.Validate(params); err != nil {
		return nil, fmt.Errorf("invalid parameters for %s: %w", name, err)
	}

	return func(input gocv.Mat) (gocv.Mat, error) {
		return filter.Apply(input, params)
	}, nil
}

func init() {
	Register("edge_overlay", NewEdgeOverlay())
	Register("identity", NewIdentity())
	Register("grayscale", NewGrayscale())
	Register("gaussian", NewGaussianBlur())
}
