package core

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/vlarkus/blitz/model"
)

// ErrUnknownSpline is returned when no strategy exists for a spline kind.
var ErrUnknownSpline = errors.New("unknown spline kind")

// Spline evaluates the curve joining two consecutive control points.
// Implementations must be pure functions of their arguments.
type Spline interface {
	Kind() model.SplineKind
	// Evaluate returns the curve position at t in [0, 1].
	Evaluate(p0, p1 *model.ControlPoint, t float64) model.Cartesian
	// BendRate returns the unsigned curvature of the curve at t.
	BendRate(p0, p1 *model.ControlPoint, t float64) float64
}

// SplineFor returns the strategy registered for kind.
func SplineFor(kind model.SplineKind) (Spline, error) {
	switch kind {
	case model.SplineBezier:
		return CubicSpline{}, nil
	case model.SplineLinear:
		return LinearSpline{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpline, kind)
	}
}

// CubicSpline is the handle-based cubic Bézier: P0 = p0, H1 = p0's start
// helper, H2 = p1's end helper, P1 = p1.
type CubicSpline struct{}

func (CubicSpline) Kind() model.SplineKind { return model.SplineBezier }

func (CubicSpline) Evaluate(p0, p1 *model.ControlPoint, t float64) model.Cartesian {
	return model.CubicBezier(p0.Position(), p0.AbsStartHelperPos(), p1.AbsEndHelperPos(), p1.Position(), t)
}

func (CubicSpline) BendRate(p0, p1 *model.ControlPoint, t float64) float64 {
	a := p0.Position().Vec()
	b := p0.AbsStartHelperPos().Vec()
	c := p1.AbsEndHelperPos().Vec()
	d := p1.Position().Vec()

	mt := 1 - t
	// B'(t) = 3(1−t)²(H1−P0) + 6(1−t)t(H2−H1) + 3t²(P1−H2)
	d1 := b.Sub(a).Mul(3 * mt * mt).
		Add(c.Sub(b).Mul(6 * mt * t)).
		Add(d.Sub(c).Mul(3 * t * t))
	// B''(t) = 6(1−t)(H2−2H1+P0) + 6t(P1−2H2+H1)
	d2 := c.Sub(b.Mul(2)).Add(a).Mul(6 * mt).
		Add(d.Sub(c.Mul(2)).Add(b).Mul(6 * t))
	return curvature(d1, d2)
}

// curvature returns |d1 × d2| / |d1|³, or 0 where the first derivative
// vanishes.
func curvature(d1, d2 r2.Point) float64 {
	speed := d1.Norm()
	if speed < 1e-12 {
		return 0
	}
	k := d1.Cross(d2) / (speed * speed * speed)
	if k < 0 {
		k = -k
	}
	return k
}

// LinearSpline joins control points with straight segments and ignores the
// handles.
type LinearSpline struct{}

func (LinearSpline) Kind() model.SplineKind { return model.SplineLinear }

func (LinearSpline) Evaluate(p0, p1 *model.ControlPoint, t float64) model.Cartesian {
	a := p0.Position().Vec()
	b := p1.Position().Vec()
	return model.FromVec(a.Add(b.Sub(a).Mul(t)))
}

func (LinearSpline) BendRate(*model.ControlPoint, *model.ControlPoint, float64) float64 {
	return 0
}
