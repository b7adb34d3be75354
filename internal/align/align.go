// Package align truncates two recordings of the same route so that they start
// and end at matching positions.
package align

import (
	"fmt"
	"math"

	"github.com/gpxsync/trackalign/pkg/core"
)

// DefaultToleranceKm is the matching radius used when callers have no better value.
const DefaultToleranceKm = 0.1

// windowDivisor bounds the endpoint search to the first/last fifth of each track.
const windowDivisor = 5

// Match is a pair of point indices and the distance between them.
type Match struct {
	IndexA     int     `json:"indexA"`
	IndexB     int     `json:"indexB"`
	DistanceKm float64 `json:"distanceKm"`
}

// Result describes an endpoint alignment.
type Result struct {
	A     core.Track
	B     core.Track
	Start Match
	End   Match
}

// AlignTrackEndpoints returns copies of a and b truncated to their best
// matching start and end points.
func AlignTrackEndpoints(a, b core.Track, toleranceKm float64) (core.Track, core.Track, error) {
	res, err := Align(a, b, toleranceKm)
	if err != nil {
		return core.Track{}, core.Track{}, err
	}
	return res.A, res.B, nil
}

// Align performs the endpoint search and reports the matches it used.
func Align(a, b core.Track, toleranceKm float64) (Result, error) {
	if a.Len() < 2 || b.Len() < 2 {
		return Result{}, fmt.Errorf("%w: both tracks need 2 points, got %d and %d",
			core.ErrInsufficientPoints, a.Len(), b.Len())
	}

	winA := searchWindow(a.Len())
	winB := searchWindow(b.Len())

	start, ok := bestMatch(a, b, 0, winA, 0, winB, toleranceKm)
	if !ok {
		return Result{}, fmt.Errorf("start points: %w (%.3f km)", core.ErrNoMatch, toleranceKm)
	}
	end, ok := bestMatch(a, b, a.Len()-winA, a.Len(), b.Len()-winB, b.Len(), toleranceKm)
	if !ok {
		return Result{}, fmt.Errorf("end points: %w (%.3f km)", core.ErrNoMatch, toleranceKm)
	}

	if start.IndexA >= end.IndexA || start.IndexB >= end.IndexB {
		return Result{}, fmt.Errorf("%w: start %d/%d, end %d/%d",
			core.ErrDegenerateAlignment, start.IndexA, start.IndexB, end.IndexA, end.IndexB)
	}

	return Result{
		A:     a.Slice(start.IndexA, end.IndexA+1),
		B:     b.Slice(start.IndexB, end.IndexB+1),
		Start: start,
		End:   end,
	}, nil
}

// searchWindow returns ceil(n/5), at least 1.
func searchWindow(n int) int {
	return max(1, (n+windowDivisor-1)/windowDivisor)
}

// bestMatch scans a[fromA:toA] x b[fromB:toB] for the closest pair within
// tolerance. The first pair found keeps a tie.
func bestMatch(a, b core.Track, fromA, toA, fromB, toB int, toleranceKm float64) (Match, bool) {
	best := Match{DistanceKm: math.Inf(1)}
	found := false
	for i := fromA; i < toA; i++ {
		pa := a.At(i)
		for j := fromB; j < toB; j++ {
			d := core.GreatCircleDistance(pa, b.At(j))
			if d <= toleranceKm && d < best.DistanceKm {
				best = Match{IndexA: i, IndexB: j, DistanceKm: d}
				found = true
			}
		}
	}
	return best, found
}
