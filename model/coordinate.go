package model

import (
	"math"

	"github.com/golang/geo/r2"
)

// Cartesian is an immutable point on the field.
type Cartesian struct {
	X float64
	Y float64
}

// Pt is shorthand for Cartesian{X: x, Y: y}.
func Pt(x, y float64) Cartesian {
	return Cartesian{X: x, Y: y}
}

// DistanceTo returns the Euclidean distance between two points.
func (c Cartesian) DistanceTo(other Cartesian) float64 {
	return c.Vec().Sub(other.Vec()).Norm()
}

// Vec returns the point as an r2 vector.
func (c Cartesian) Vec() r2.Point {
	return r2.Point{X: c.X, Y: c.Y}
}

// FromVec converts an r2 vector back into a field point.
func FromVec(p r2.Point) Cartesian {
	return Cartesian{X: p.X, Y: p.Y}
}

// Polar is an (r, θ) pair with θ in degrees, always in [0, 360).
type Polar struct {
	R     float64
	Theta float64
}

// NewPolar builds a Polar with a normalised angle.
func NewPolar(r, theta float64) Polar {
	return Polar{R: r, Theta: NormalizeAngle(theta)}
}

// Cartesian converts p back to Cartesian form.
func (p Polar) Cartesian() Cartesian {
	return PolarToCartesian(p.R, p.Theta)
}

// CartesianToPolar returns r = sqrt(x²+y²) and θ = atan2(y, x) in degrees.
func CartesianToPolar(x, y float64) Polar {
	return NewPolar(math.Hypot(x, y), math.Atan2(y, x)*180/math.Pi)
}

// PolarToCartesian returns (r·cos θ, r·sin θ) for θ in degrees.
func PolarToCartesian(r, theta float64) Cartesian {
	rad := theta * math.Pi / 180
	return Cartesian{X: r * math.Cos(rad), Y: r * math.Sin(rad)}
}

// NormalizeAngle maps any angle in degrees into [0, 360). Non-finite input
// yields 0.
func NormalizeAngle(theta float64) float64 {
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return 0
	}
	a := math.Mod(theta, 360)
	if a < 0 {
		a += 360
	}
	// math.Mod of a tiny negative value plus 360 can round up to 360.
	if a >= 360 {
		a = 0
	}
	return a
}
