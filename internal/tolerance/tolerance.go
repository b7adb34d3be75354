// Package tolerance classifies the points of a comparison profile as lying
// within a distance tolerance of a base profile or not.
package tolerance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gpxsync/trackalign/pkg/core"
)

// Method selects the classification algorithm.
type Method string

const (
	// MethodStandard matches each comparison point with the base sample
	// closest in distance along the path.
	MethodStandard Method = "standard"
	// MethodKDTree looks for any base point within the tolerance in space.
	MethodKDTree Method = "kdtree"
)

// ErrUnknownMethod is returned for an unsupported method name.
var ErrUnknownMethod = errors.New("unknown tolerance method")

// Methods lists the supported methods.
func Methods() []Method {
	return []Method{MethodStandard, MethodKDTree}
}

// ParseMethod converts a method name, case-insensitively. An empty name
// selects MethodStandard.
func ParseMethod(name string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(name))) {
	case "", MethodStandard:
		return MethodStandard, nil
	case MethodKDTree, "kd-tree", "kd_tree":
		return MethodKDTree, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

// Classify runs the selected method.
func Classify(method Method, base, comparison core.Profile, toleranceKm float64) (core.ToleranceVector, error) {
	switch method {
	case MethodStandard:
		return Standard(base, comparison, toleranceKm), nil
	case MethodKDTree:
		return KDTree(base, comparison, toleranceKm), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}
