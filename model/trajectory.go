package model

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultTrajectoryName replaces blank trajectory names.
const DefaultTrajectoryName = "Trajectory"

const maxTrajectoryNameLen = 100

// SplineKind identifies the curve strategy used between control points.
type SplineKind string

const (
	// SplineBezier joins points with cubic curves shaped by the handles.
	SplineBezier SplineKind = "BEZIER"
	// SplineLinear joins points with straight lines and ignores the handles.
	SplineLinear SplineKind = "LINEAR"
)

// Valid reports whether k is a known spline kind.
func (k SplineKind) Valid() bool {
	return k == SplineBezier || k == SplineLinear
}

// ParseSplineKind accepts a spline identifier in any case. An empty string
// selects SplineBezier.
func ParseSplineKind(s string) (SplineKind, error) {
	k := SplineKind(strings.ToUpper(strings.TrimSpace(s)))
	if k == "" {
		return SplineBezier, nil
	}
	if !k.Valid() {
		return "", fmt.Errorf("unknown spline kind %q", s)
	}
	return k, nil
}

// Trajectory is an ordered list of control points plus the speed and bend
// rate bounds used when computing follow points. A Trajectory exclusively
// owns its points.
//
// Trajectory is not safe for concurrent mutation; callers must not edit it
// while a curve or follow-point computation is running.
type Trajectory struct {
	id   string
	cfg  Config
	name string

	points []*ControlPoint

	minSpeed, maxSpeed       float64
	minBentRate, maxBentRate float64
	spline                   SplineKind
}

// NewTrajectory creates an empty trajectory with bounds taken from cfg.
func NewTrajectory(cfg Config, name string) *Trajectory {
	cfg = cfg.ApplyDefaults()
	return &Trajectory{
		id:          uuid.NewString(),
		cfg:         cfg,
		name:        SanitizeTrajectoryName(name),
		minSpeed:    cfg.DefaultMinSpeed,
		maxSpeed:    cfg.DefaultMaxSpeed,
		minBentRate: cfg.DefaultMinBentRate,
		maxBentRate: cfg.DefaultMaxBentRate,
		spline:      cfg.DefaultSpline,
	}
}

// SanitizeTrajectoryName trims name, caps it at 100 runes and falls back to
// DefaultTrajectoryName when blank.
func SanitizeTrajectoryName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultTrajectoryName
	}
	if utf8.RuneCountInString(name) > maxTrajectoryNameLen {
		name = string([]rune(name)[:maxTrajectoryNameLen])
	}
	return name
}

// Clone deep-copies the trajectory; every control point gets a fresh ID.
func (t *Trajectory) Clone() *Trajectory {
	c := *t
	c.id = uuid.NewString()
	c.points = make([]*ControlPoint, len(t.points))
	for i, cp := range t.points {
		c.points[i] = cp.Clone()
	}
	return &c
}

// ID returns the trajectory's stable identifier.
func (t *Trajectory) ID() string { return t.id }

// Config returns the bounds the trajectory was created with.
func (t *Trajectory) Config() Config { return t.cfg }

// Name returns the trajectory name.
func (t *Trajectory) Name() string { return t.name }

// SetName renames the trajectory after sanitising name.
func (t *Trajectory) SetName(name string) { t.name = SanitizeTrajectoryName(name) }

// NewControlPoint builds a point using the trajectory's configuration. The
// point is not added. A blank name is replaced by the first default name not
// yet used in the trajectory.
func (t *Trajectory) NewControlPoint(name string, x, y float64, opts ...ControlPointOption) *ControlPoint {
	if !ValidName(name) {
		name = t.freeDefaultName()
	}
	return NewControlPoint(t.cfg, name, x, y, opts...)
}

func (t *Trajectory) freeDefaultName() string {
	name := DefaultControlPointName
	for n := 2; ; n++ {
		if _, taken := t.ByName(name); !taken {
			return name
		}
		name = fmt.Sprintf("%s %d", DefaultControlPointName, n)
	}
}

// MinSpeed returns the lower speed bound.
func (t *Trajectory) MinSpeed() float64 { return t.minSpeed }

// MaxSpeed returns the upper speed bound.
func (t *Trajectory) MaxSpeed() float64 { return t.maxSpeed }

// MinBentRate returns the lower bend-rate bound.
func (t *Trajectory) MinBentRate() float64 { return t.minBentRate }

// MaxBentRate returns the upper bend-rate bound.
func (t *Trajectory) MaxBentRate() float64 { return t.maxBentRate }

// SetSpeedBounds sets [min, max]. Negative, non-finite or inverted bounds are rejected.
func (t *Trajectory) SetSpeedBounds(minSpeed, maxSpeed float64) bool {
	if !validBounds(minSpeed, maxSpeed) {
		return false
	}
	t.minSpeed, t.maxSpeed = minSpeed, maxSpeed
	return true
}

// SetBentRateBounds sets [min, max] for the bend rate clamp. Negative,
// non-finite or inverted bounds are rejected.
func (t *Trajectory) SetBentRateBounds(minRate, maxRate float64) bool {
	if !validBounds(minRate, maxRate) {
		return false
	}
	t.minBentRate, t.maxBentRate = minRate, maxRate
	return true
}

func validBounds(lo, hi float64) bool {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return false
	}
	return lo >= 0 && lo <= hi
}

// Spline returns the selected curve strategy identifier.
func (t *Trajectory) Spline() SplineKind { return t.spline }

// SetSpline selects the curve strategy. Unknown kinds are rejected.
func (t *Trajectory) SetSpline(kind SplineKind) bool {
	if !kind.Valid() {
		return false
	}
	t.spline = kind
	return true
}

// Len returns the number of control points.
func (t *Trajectory) Len() int { return len(t.points) }

// ControlPoints returns a copy of the ordered point list.
func (t *Trajectory) ControlPoints() []*ControlPoint {
	return slices.Clone(t.points)
}

// At returns the point at index i or nil when out of range.
func (t *Trajectory) At(i int) *ControlPoint {
	if i < 0 || i >= len(t.points) {
		return nil
	}
	return t.points[i]
}

// First returns the first point or nil.
func (t *Trajectory) First() *ControlPoint { return t.At(0) }

// Last returns the last point or nil.
func (t *Trajectory) Last() *ControlPoint { return t.At(len(t.points) - 1) }

// Contains reports whether cp (by identity) belongs to the trajectory.
func (t *Trajectory) Contains(cp *ControlPoint) bool {
	return t.IndexOf(cp) >= 0
}

// IndexOf returns the position of cp or -1.
func (t *Trajectory) IndexOf(cp *ControlPoint) int {
	if cp == nil {
		return -1
	}
	return slices.Index(t.points, cp)
}

// ByName returns the point named name.
func (t *Trajectory) ByName(name string) (*ControlPoint, bool) {
	for _, cp := range t.points {
		if cp.Name() == name {
			return cp, true
		}
	}
	return nil, false
}

// ByID returns the point with the given identifier.
func (t *Trajectory) ByID(id string) (*ControlPoint, bool) {
	for _, cp := range t.points {
		if cp.ID() == id {
			return cp, true
		}
	}
	return nil, false
}

// Add appends cp.
func (t *Trajectory) Add(cp *ControlPoint) error {
	return t.Insert(len(t.points), cp)
}

// Insert places cp at index i, shifting later points back. i == Len()
// appends.
func (t *Trajectory) Insert(i int, cp *ControlPoint) error {
	if cp == nil {
		return fmt.Errorf("insert into %q: %w", t.name, ErrNullArgument)
	}
	if t.Contains(cp) {
		return fmt.Errorf("insert %q into %q: %w", cp.Name(), t.name, ErrAlreadyMember)
	}
	if _, taken := t.ByName(cp.Name()); taken {
		return fmt.Errorf("insert %q into %q: %w", cp.Name(), t.name, ErrDuplicateName)
	}
	if i < 0 || i > len(t.points) {
		return fmt.Errorf("insert %q into %q at %d (len %d): %w", cp.Name(), t.name, i, len(t.points), ErrIndexOutOfRange)
	}
	t.points = slices.Insert(t.points, i, cp)
	return nil
}

// RenameControlPoint renames cp, keeping names unique within the trajectory.
func (t *Trajectory) RenameControlPoint(cp *ControlPoint, name string) error {
	if cp == nil {
		return fmt.Errorf("rename in %q: %w", t.name, ErrNullArgument)
	}
	if !t.Contains(cp) {
		return fmt.Errorf("rename %q in %q: %w", cp.Name(), t.name, ErrNotFound)
	}
	if !ValidName(name) {
		return fmt.Errorf("rename %q in %q: %w", cp.Name(), t.name, ErrInvalidName)
	}
	if other, taken := t.ByName(strings.TrimSpace(name)); taken && other != cp {
		return fmt.Errorf("rename %q to %q in %q: %w", cp.Name(), name, t.name, ErrDuplicateName)
	}
	cp.SetName(name)
	return nil
}

// Remove deletes cp from the trajectory.
func (t *Trajectory) Remove(cp *ControlPoint) error {
	if cp == nil {
		return fmt.Errorf("remove from %q: %w", t.name, ErrNullArgument)
	}
	i := t.IndexOf(cp)
	if i < 0 {
		return fmt.Errorf("remove %q from %q: %w", cp.Name(), t.name, ErrNotFound)
	}
	t.points = slices.Delete(t.points, i, i+1)
	return nil
}

// RemoveAt deletes the point at index i and returns it.
func (t *Trajectory) RemoveAt(i int) (*ControlPoint, error) {
	if i < 0 || i >= len(t.points) {
		return nil, fmt.Errorf("remove from %q at %d (len %d): %w", t.name, i, len(t.points), ErrIndexOutOfRange)
	}
	cp := t.points[i]
	t.points = slices.Delete(t.points, i, i+1)
	return cp, nil
}

// Clear removes every control point.
func (t *Trajectory) Clear() {
	t.points = nil
}

// Successor returns the point following cp, validating membership.
func (t *Trajectory) Successor(cp *ControlPoint) (*ControlPoint, error) {
	if cp == nil {
		return nil, fmt.Errorf("successor in %q: %w", t.name, ErrNullArgument)
	}
	i := t.IndexOf(cp)
	if i < 0 {
		return nil, fmt.Errorf("successor of %q in %q: %w", cp.Name(), t.name, ErrNotFound)
	}
	if i == len(t.points)-1 {
		return nil, fmt.Errorf("successor of %q in %q: %w", cp.Name(), t.name, ErrNoSuccessor)
	}
	return t.points[i+1], nil
}

// CalculateBezierCurveFrom samples the cubic curve from cp to its successor.
// It returns cp.NumSegments()+1 points; the first and last are exactly the
// two control point positions.
func (t *Trajectory) CalculateBezierCurveFrom(cp *ControlPoint) ([]Cartesian, error) {
	next, err := t.Successor(cp)
	if err != nil {
		return nil, err
	}

	p0 := cp.Position()
	h1 := cp.AbsStartHelperPos()
	h2 := next.AbsEndHelperPos()
	p1 := next.Position()

	n := cp.NumSegments()
	out := make([]Cartesian, 0, n+1)
	out = append(out, p0)
	for i := 1; i < n; i++ {
		out = append(out, CubicBezier(p0, h1, h2, p1, float64(i)/float64(n)))
	}
	out = append(out, p1)
	return out, nil
}

// CubicBezier evaluates B(t) = (1−t)³P0 + 3(1−t)²t·H1 + 3(1−t)t²·H2 + t³P1.
func CubicBezier(p0, h1, h2, p1 Cartesian, t float64) Cartesian {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	v := p0.Vec().Mul(a).
		Add(h1.Vec().Mul(b)).
		Add(h2.Vec().Mul(c)).
		Add(p1.Vec().Mul(d))
	return FromVec(v)
}
