package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// DefaultControlPointName is used when a control point is created with an
// empty name.
const DefaultControlPointName = "ControlPoint"

// Symmetry constrains how the two handles of a control point relate.
type Symmetry int

const (
	// SymmetryBroken enforces no relation between the handles.
	SymmetryBroken Symmetry = iota
	// SymmetryAligned keeps the handles on opposite sides of one line; radii are free.
	SymmetryAligned
	// SymmetryMirrored is SymmetryAligned plus equal radii.
	SymmetryMirrored
)

var symmetryNames = map[Symmetry]string{
	SymmetryBroken:   "BROKEN",
	SymmetryAligned:  "ALIGNED",
	SymmetryMirrored: "MIRRORED",
}

func (s Symmetry) String() string {
	if name, ok := symmetryNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Symmetry(%d)", int(s))
}

// Valid reports whether s is one of the three known modes.
func (s Symmetry) Valid() bool {
	_, ok := symmetryNames[s]
	return ok
}

// ParseSymmetry accepts BROKEN, ALIGNED or MIRRORED in any case.
func ParseSymmetry(s string) (Symmetry, error) {
	for sym, name := range symmetryNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return sym, nil
		}
	}
	return 0, fmt.Errorf("unknown symmetry %q", s)
}

// ControlPoint is a named waypoint with two polar handle offsets. The "start"
// helper shapes the curve leaving the point, the "end" helper shapes the curve
// arriving at it.
//
// ControlPoint is not safe for concurrent mutation.
type ControlPoint struct {
	id string

	minSegments int
	maxSegments int
	minTime     float64

	name string
	x, y float64

	rStart, thetaStart float64
	rEnd, thetaEnd     float64

	numSegments int
	time        float64
	locked      bool
	symmetry    Symmetry

	heading    float64
	hasHeading bool
}

// ControlPointOption customises a control point at construction.
type ControlPointOption func(*controlPointSettings)

type controlPointSettings struct {
	rStart, thetaStart, rEnd, thetaEnd float64
	numSegments                        int
	time                               float64
	symmetry                           Symmetry
	locked                             bool
	id                                 string
	heading                            *float64
}

// WithHandles sets both polar handle offsets.
func WithHandles(rStart, thetaStart, rEnd, thetaEnd float64) ControlPointOption {
	return func(s *controlPointSettings) {
		s.rStart, s.thetaStart, s.rEnd, s.thetaEnd = rStart, thetaStart, rEnd, thetaEnd
	}
}

// WithNumSegments sets the sample count for the curve starting at the point.
// Out-of-range values fall back to the configured minimum.
func WithNumSegments(n int) ControlPointOption {
	return func(s *controlPointSettings) { s.numSegments = n }
}

// WithTime sets the target arrival time. Values below the configured minimum
// fall back to that minimum.
func WithTime(t float64) ControlPointOption {
	return func(s *controlPointSettings) { s.time = t }
}

// WithSymmetry selects the initial handle symmetry.
func WithSymmetry(sym Symmetry) ControlPointOption {
	return func(s *controlPointSettings) { s.symmetry = sym }
}

// WithLocked sets the edit-guard flag.
func WithLocked(locked bool) ControlPointOption {
	return func(s *controlPointSettings) { s.locked = locked }
}

// WithID overrides the generated identifier, e.g. when loading from disk.
func WithID(id string) ControlPointOption {
	return func(s *controlPointSettings) { s.id = id }
}

// WithHeading sets the robot heading, in degrees, held on arrival at the point.
func WithHeading(deg float64) ControlPointOption {
	return func(s *controlPointSettings) { s.heading = &deg }
}

// NewControlPoint builds a control point at (x, y). Handles, segment count,
// time and symmetry come from cfg unless overridden by opts. The symmetry
// invariant is applied last, so under MIRRORED the end handle is derived from
// the start handle.
func NewControlPoint(cfg Config, name string, x, y float64, opts ...ControlPointOption) *ControlPoint {
	cfg = cfg.ApplyDefaults()
	s := controlPointSettings{
		rStart:      cfg.DefaultRStart,
		thetaStart:  cfg.DefaultThetaStart,
		rEnd:        cfg.DefaultREnd,
		thetaEnd:    cfg.DefaultThetaEnd,
		numSegments: cfg.DefaultNumSegments,
		time:        cfg.DefaultTime,
		symmetry:    cfg.DefaultSymmetry,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}

	cp := &ControlPoint{
		id:          s.id,
		minSegments: cfg.MinNumSegments,
		maxSegments: cfg.MaxNumSegments,
		minTime:     cfg.MinTime,
		name:        DefaultControlPointName,
		numSegments: cfg.MinNumSegments,
		time:        cfg.MinTime,
		symmetry:    SymmetryBroken,
	}
	cp.SetName(name)
	cp.SetPosition(x, y)
	cp.SetRStart(s.rStart)
	cp.SetThetaStart(s.thetaStart)
	cp.SetREnd(s.rEnd)
	cp.SetThetaEnd(s.thetaEnd)
	cp.SetNumSegments(s.numSegments)
	cp.SetTime(s.time)
	cp.SetLocked(s.locked)
	if s.heading != nil {
		cp.SetHeading(*s.heading)
	}
	if !cp.SetSymmetry(s.symmetry) {
		cp.SetSymmetry(cfg.DefaultSymmetry)
	}
	return cp
}

// Clone returns a copy of cp with a fresh ID.
func (cp *ControlPoint) Clone() *ControlPoint {
	c := *cp
	c.id = uuid.NewString()
	return &c
}

// ID returns the stable identifier of the point.
func (cp *ControlPoint) ID() string { return cp.id }

// Name returns the point's name.
func (cp *ControlPoint) Name() string { return cp.name }

// ValidName reports whether name is acceptable (non-blank).
func ValidName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// SetName renames the point. Blank names are rejected and the old name kept.
func (cp *ControlPoint) SetName(name string) bool {
	if !ValidName(name) {
		return false
	}
	cp.name = strings.TrimSpace(name)
	return true
}

// X returns the field x position.
func (cp *ControlPoint) X() float64 { return cp.x }

// Y returns the field y position.
func (cp *ControlPoint) Y() float64 { return cp.y }

// Position returns the field position.
func (cp *ControlPoint) Position() Cartesian { return Cartesian{X: cp.x, Y: cp.y} }

// SetX moves the point horizontally. Handles move with it.
func (cp *ControlPoint) SetX(x float64) { cp.x = x }

// SetY moves the point vertically. Handles move with it.
func (cp *ControlPoint) SetY(y float64) { cp.y = y }

// SetPosition moves the point.
func (cp *ControlPoint) SetPosition(x, y float64) {
	cp.x = x
	cp.y = y
}

// Offset translates the point by (dx, dy).
func (cp *ControlPoint) Offset(dx, dy float64) {
	cp.SetPosition(cp.x+dx, cp.y+dy)
}

// NumSegments returns the sample count of the curve starting at this point.
func (cp *ControlPoint) NumSegments() int { return cp.numSegments }

// ValidNumSegments reports whether n lies within the configured bounds.
func (cp *ControlPoint) ValidNumSegments(n int) bool {
	return cp.minSegments <= n && n <= cp.maxSegments
}

// SetNumSegments updates the sample count. Out-of-range values are rejected.
func (cp *ControlPoint) SetNumSegments(n int) bool {
	if !cp.ValidNumSegments(n) {
		return false
	}
	cp.numSegments = n
	return true
}

// Time returns the target arrival time.
func (cp *ControlPoint) Time() float64 { return cp.time }

// ValidTime reports whether t is at least the configured minimum.
func (cp *ControlPoint) ValidTime(t float64) bool {
	return t >= cp.minTime
}

// SetTime updates the arrival time. Values below the minimum (and NaN) are rejected.
func (cp *ControlPoint) SetTime(t float64) bool {
	if !cp.ValidTime(t) {
		return false
	}
	cp.time = t
	return true
}

// Locked reports the edit-guard flag.
func (cp *ControlPoint) Locked() bool { return cp.locked }

// SetLocked sets the edit-guard flag.
func (cp *ControlPoint) SetLocked(locked bool) { cp.locked = locked }

// Heading returns the arrival heading in degrees. ok is false when the point
// carries no heading.
func (cp *ControlPoint) Heading() (deg float64, ok bool) { return cp.heading, cp.hasHeading }

// SetHeading sets the arrival heading. Non-finite values are rejected.
func (cp *ControlPoint) SetHeading(deg float64) bool {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return false
	}
	cp.heading, cp.hasHeading = deg, true
	return true
}

// ClearHeading drops the arrival heading.
func (cp *ControlPoint) ClearHeading() { cp.heading, cp.hasHeading = 0, false }

// Symmetry returns the current handle symmetry mode.
func (cp *ControlPoint) Symmetry() Symmetry { return cp.symmetry }

// SetSymmetry switches modes and immediately re-derives the dependent handle
// values from the start handle. Unknown modes are rejected.
func (cp *ControlPoint) SetSymmetry(sym Symmetry) bool {
	if !sym.Valid() {
		return false
	}
	cp.symmetry = sym
	cp.SetRStart(cp.rStart)
	cp.SetThetaStart(cp.thetaStart)
	return true
}

// RStart returns the start helper radius.
func (cp *ControlPoint) RStart() float64 { return cp.rStart }

// ThetaStart returns the start helper angle in degrees.
func (cp *ControlPoint) ThetaStart() float64 { return cp.thetaStart }

// REnd returns the end helper radius.
func (cp *ControlPoint) REnd() float64 { return cp.rEnd }

// ThetaEnd returns the end helper angle in degrees.
func (cp *ControlPoint) ThetaEnd() float64 { return cp.thetaEnd }

// SetRStart sets the start helper radius; under MIRRORED the end radius follows.
func (cp *ControlPoint) SetRStart(r float64) {
	cp.rStart = r
	if cp.symmetry == SymmetryMirrored {
		cp.rEnd = r
	}
}

// SetThetaStart sets the start helper angle; under ALIGNED and MIRRORED the
// end angle is kept opposite.
func (cp *ControlPoint) SetThetaStart(theta float64) {
	cp.thetaStart = NormalizeAngle(theta)
	if cp.symmetry == SymmetryAligned || cp.symmetry == SymmetryMirrored {
		cp.thetaEnd = NormalizeAngle(theta + 180)
	}
}

// SetREnd sets the end helper radius; under MIRRORED the start radius follows.
func (cp *ControlPoint) SetREnd(r float64) {
	cp.rEnd = r
	if cp.symmetry == SymmetryMirrored {
		cp.rStart = r
	}
}

// SetThetaEnd sets the end helper angle; under ALIGNED and MIRRORED the start
// angle is kept opposite.
func (cp *ControlPoint) SetThetaEnd(theta float64) {
	cp.thetaEnd = NormalizeAngle(theta)
	if cp.symmetry == SymmetryAligned || cp.symmetry == SymmetryMirrored {
		cp.thetaStart = NormalizeAngle(theta + 180)
	}
}

// SetRelStartHelperPos places the start helper at (x, y) relative to the point.
func (cp *ControlPoint) SetRelStartHelperPos(x, y float64) {
	p := CartesianToPolar(x, y)
	cp.SetRStart(p.R)
	cp.SetThetaStart(p.Theta)
}

// SetAbsStartHelperPos places the start helper at field position (x, y).
func (cp *ControlPoint) SetAbsStartHelperPos(x, y float64) {
	cp.SetRelStartHelperPos(x-cp.x, y-cp.y)
}

// RelStartHelperPos returns the start helper offset from the point.
func (cp *ControlPoint) RelStartHelperPos() Cartesian {
	return PolarToCartesian(cp.rStart, cp.thetaStart)
}

// AbsStartHelperPos returns the start helper's field position.
func (cp *ControlPoint) AbsStartHelperPos() Cartesian {
	rel := cp.RelStartHelperPos()
	return Cartesian{X: cp.x + rel.X, Y: cp.y + rel.Y}
}

// SetRelEndHelperPos places the end helper at (x, y) relative to the point.
func (cp *ControlPoint) SetRelEndHelperPos(x, y float64) {
	p := CartesianToPolar(x, y)
	cp.SetREnd(p.R)
	cp.SetThetaEnd(p.Theta)
}

// SetAbsEndHelperPos places the end helper at field position (x, y).
func (cp *ControlPoint) SetAbsEndHelperPos(x, y float64) {
	cp.SetRelEndHelperPos(x-cp.x, y-cp.y)
}

// RelEndHelperPos returns the end helper offset from the point.
func (cp *ControlPoint) RelEndHelperPos() Cartesian {
	return PolarToCartesian(cp.rEnd, cp.thetaEnd)
}

// AbsEndHelperPos returns the end helper's field position.
func (cp *ControlPoint) AbsEndHelperPos() Cartesian {
	rel := cp.RelEndHelperPos()
	return Cartesian{X: cp.x + rel.X, Y: cp.y + rel.Y}
}
