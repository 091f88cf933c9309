package core

import (
	"fmt"
	"math"

	"github.com/vlarkus/blitz/model"
)

// FollowPoint is one derived (position, speed) sample. Source is the control
// point whose curve produced the sample; the terminal sample's Source is the
// last control point.
type FollowPoint struct {
	Position model.Cartesian
	Speed    float64
	Source   *model.ControlPoint
}

// ComputeFollowPoints turns tr into an ordered list of follow points.
//
// Every curve (p0, p1) contributes p0.NumSegments() samples at t = j/n for
// j in [0, n). On the final curve the speed is additionally capped by the
// ramp MaxSpeed − (MaxSpeed − MinSpeed)·t and by the previous sample, so the
// path only decelerates into its end. A single zero-speed sample at the last
// control point closes the list.
//
// A trajectory with one control point yields that single zero-speed sample;
// an empty trajectory yields an empty, non-nil slice.
//
// The result is freshly allocated on every call. tr must not be mutated
// while the computation runs.
func ComputeFollowPoints(tr *model.Trajectory, spline Spline, profile SpeedProfile) ([]FollowPoint, error) {
	if tr == nil {
		return nil, fmt.Errorf("compute follow points: trajectory: %w", model.ErrNullArgument)
	}
	if spline == nil {
		return nil, fmt.Errorf("compute follow points for %q: spline: %w", tr.Name(), model.ErrNullArgument)
	}
	if profile == nil {
		profile = DefaultProfile()
	}

	points := tr.ControlPoints()
	switch len(points) {
	case 0:
		return []FollowPoint{}, nil
	case 1:
		return []FollowPoint{{Position: points[0].Position(), Speed: 0, Source: points[0]}}, nil
	}

	lim := LimitsOf(tr)
	total := 1
	for _, cp := range points[:len(points)-1] {
		total += cp.NumSegments()
	}
	out := make([]FollowPoint, 0, total)

	last := points[len(points)-1]
	for i := 0; i < len(points)-1; i++ {
		p0, p1 := points[i], points[i+1]
		n := p0.NumSegments()
		finalCurve := i == len(points)-2
		prev := lim.MaxSpeed

		for j := 0; j < n; j++ {
			t := float64(j) / float64(n)
			pos := spline.Evaluate(p0, p1, t)
			speed := clampSpeed(profile.SpeedAt(lim, spline.BendRate(p0, p1, t)), lim)

			if finalCurve {
				ceiling := lim.MaxSpeed - (lim.MaxSpeed-lim.MinSpeed)*t
				speed = min(speed, ceiling, prev)
				prev = speed
			}
			out = append(out, FollowPoint{Position: pos, Speed: speed, Source: p0})
		}
	}

	out = append(out, FollowPoint{Position: last.Position(), Speed: 0, Source: last})
	return out, nil
}

// ComputeForTrajectory resolves the trajectory's own spline kind and uses
// DefaultProfile().
func ComputeForTrajectory(tr *model.Trajectory) ([]FollowPoint, error) {
	if tr == nil {
		return nil, fmt.Errorf("compute follow points: trajectory: %w", model.ErrNullArgument)
	}
	spline, err := SplineFor(tr.Spline())
	if err != nil {
		return nil, fmt.Errorf("compute follow points for %q: %w", tr.Name(), err)
	}
	return ComputeFollowPoints(tr, spline, DefaultProfile())
}

// clampSpeed keeps a profile's answer inside [MinSpeed, MaxSpeed]; NaN maps
// to MinSpeed.
func clampSpeed(v float64, lim Limits) float64 {
	if math.IsNaN(v) {
		return lim.MinSpeed
	}
	return min(max(v, lim.MinSpeed), lim.MaxSpeed)
}
