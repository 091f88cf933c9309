package core

import (
	"math"
	"testing"

	"github.com/vlarkus/blitz/model"
)

func TestLinearBendProfile(t *testing.T) {
	lim := Limits{MinSpeed: 10, MaxSpeed: 110, MinBentRate: 0.1, MaxBentRate: 0.6}
	p := LinearBendProfile{}

	tests := []struct {
		bend float64
		want float64
	}{
		{0, 110},
		{0.1, 110},
		{0.35, 60},
		{0.6, 10},
		{5, 10},
		{math.NaN(), 10},
	}
	for _, tc := range tests {
		if got := p.SpeedAt(lim, tc.bend); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("SpeedAt(%v) = %v, want %v", tc.bend, got, tc.want)
		}
	}
}

func TestLinearBendProfileMonotone(t *testing.T) {
	lim := Limits{MinSpeed: 0, MaxSpeed: 127, MinBentRate: 0, MaxBentRate: 1}
	p := LinearBendProfile{}
	prev := math.Inf(1)
	for b := -0.5; b <= 1.5; b += 0.01 {
		s := p.SpeedAt(lim, b)
		if s > prev+1e-12 {
			t.Fatalf("SpeedAt(%v) = %v > previous %v", b, s, prev)
		}
		if s < lim.MinSpeed || s > lim.MaxSpeed {
			t.Fatalf("SpeedAt(%v) = %v out of bounds", b, s)
		}
		prev = s
	}
}

func TestLinearBendProfileDegenerateRange(t *testing.T) {
	lim := Limits{MinSpeed: 1, MaxSpeed: 9, MinBentRate: 0.5, MaxBentRate: 0.5}
	p := LinearBendProfile{}
	if got := p.SpeedAt(lim, 0.5); got != 9 {
		t.Errorf("SpeedAt(at bound) = %v, want 9", got)
	}
	if got := p.SpeedAt(lim, 0.51); got != 1 {
		t.Errorf("SpeedAt(above bound) = %v, want 1", got)
	}
}

func TestConstantProfile(t *testing.T) {
	lim := Limits{MinSpeed: 1, MaxSpeed: 9}
	if got := (ConstantProfile{}).SpeedAt(lim, 100); got != 9 {
		t.Fatalf("SpeedAt = %v, want 9", got)
	}
}

func TestDefaultProfile(t *testing.T) {
	if _, ok := DefaultProfile().(LinearBendProfile); !ok {
		t.Fatalf("DefaultProfile() = %T, want LinearBendProfile", DefaultProfile())
	}

	tr := buildTrajectory(t, []int{4, 4, 4}, model.Pt(0, 0), model.Pt(10, 3), model.Pt(15, 12))
	withNil, err := ComputeFollowPoints(tr, CubicSpline{}, nil)
	if err != nil {
		t.Fatalf("ComputeFollowPoints(nil profile): %v", err)
	}
	withDefault, err := ComputeFollowPoints(tr, CubicSpline{}, DefaultProfile())
	if err != nil {
		t.Fatalf("ComputeFollowPoints(DefaultProfile()): %v", err)
	}
	if len(withNil) != len(withDefault) {
		t.Fatalf("len = %d and %d", len(withNil), len(withDefault))
	}
	for i := range withNil {
		if withNil[i].Speed != withDefault[i].Speed {
			t.Fatalf("speed[%d] = %v with nil profile, %v with DefaultProfile()", i, withNil[i].Speed, withDefault[i].Speed)
		}
	}
}
