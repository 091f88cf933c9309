package core

import (
	"math"

	"github.com/vlarkus/blitz/model"
)

// Limits are the trajectory-wide bounds a SpeedProfile works within.
type Limits struct {
	MinSpeed    float64
	MaxSpeed    float64
	MinBentRate float64
	MaxBentRate float64
}

// LimitsOf reads the bounds from tr.
func LimitsOf(tr *model.Trajectory) Limits {
	return Limits{
		MinSpeed:    tr.MinSpeed(),
		MaxSpeed:    tr.MaxSpeed(),
		MinBentRate: tr.MinBentRate(),
		MaxBentRate: tr.MaxBentRate(),
	}
}

// SpeedProfile maps a local bend rate to a target speed. Implementations must
// be non-increasing in bend and stay within [MinSpeed, MaxSpeed].
type SpeedProfile interface {
	SpeedAt(lim Limits, bend float64) float64
}

// SpeedProfileFunc adapts a function to SpeedProfile.
type SpeedProfileFunc func(lim Limits, bend float64) float64

func (f SpeedProfileFunc) SpeedAt(lim Limits, bend float64) float64 { return f(lim, bend) }

// DefaultProfile returns the profile used when none is given.
func DefaultProfile() SpeedProfile { return LinearBendProfile{} }

// LinearBendProfile clamps the bend rate to [MinBentRate, MaxBentRate] and
// interpolates linearly from MaxSpeed (straight) down to MinSpeed (sharpest).
type LinearBendProfile struct{}

func (LinearBendProfile) SpeedAt(lim Limits, bend float64) float64 {
	if math.IsNaN(bend) {
		return lim.MinSpeed
	}
	if lim.MaxBentRate <= lim.MinBentRate {
		if bend <= lim.MinBentRate {
			return lim.MaxSpeed
		}
		return lim.MinSpeed
	}
	b := min(max(bend, lim.MinBentRate), lim.MaxBentRate)
	frac := (b - lim.MinBentRate) / (lim.MaxBentRate - lim.MinBentRate)
	return lim.MaxSpeed - (lim.MaxSpeed-lim.MinSpeed)*frac
}

// ConstantProfile ignores curvature and always returns MaxSpeed.
type ConstantProfile struct{}

func (ConstantProfile) SpeedAt(lim Limits, _ float64) float64 { return lim.MaxSpeed }
