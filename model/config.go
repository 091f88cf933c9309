package model

// Config holds the bounds and defaults shared by control points and
// trajectories. A zero Config is not usable directly; call ApplyDefaults or
// start from DefaultConfig.
type Config struct {
	MinNumSegments     int
	MaxNumSegments     int
	DefaultNumSegments int

	MinTime     float64
	DefaultTime float64

	DefaultX          float64
	DefaultY          float64
	DefaultRStart     float64
	DefaultThetaStart float64
	DefaultREnd       float64
	DefaultThetaEnd   float64
	DefaultSymmetry   Symmetry

	DefaultMinSpeed    float64
	DefaultMaxSpeed    float64
	DefaultMinBentRate float64
	DefaultMaxBentRate float64
	DefaultSpline      SplineKind
}

// DefaultConfig returns the stock bounds used by the editor.
func DefaultConfig() Config {
	return Config{
		MinNumSegments:     1,
		MaxNumSegments:     200,
		DefaultNumSegments: 20,

		MinTime:     0,
		DefaultTime: 0,

		DefaultRStart:     5,
		DefaultThetaStart: 0,
		DefaultREnd:       5,
		DefaultThetaEnd:   180,
		DefaultSymmetry:   SymmetryMirrored,

		DefaultMinSpeed:    0,
		DefaultMaxSpeed:    127,
		DefaultMinBentRate: 0,
		DefaultMaxBentRate: 1,
		DefaultSpline:      SplineBezier,
	}
}

// ApplyDefaults fills fields that are zero or inconsistent with the values
// from DefaultConfig. Position defaults and MinTime are legitimately zero and
// are left alone.
func (c Config) ApplyDefaults() Config {
	def := DefaultConfig()

	if c.MinNumSegments <= 0 {
		c.MinNumSegments = def.MinNumSegments
	}
	if c.MaxNumSegments < c.MinNumSegments {
		c.MaxNumSegments = max(def.MaxNumSegments, c.MinNumSegments)
	}
	if c.DefaultNumSegments < c.MinNumSegments || c.DefaultNumSegments > c.MaxNumSegments {
		c.DefaultNumSegments = min(max(def.DefaultNumSegments, c.MinNumSegments), c.MaxNumSegments)
	}
	if c.DefaultTime < c.MinTime {
		c.DefaultTime = c.MinTime
	}
	if c.DefaultRStart == 0 && c.DefaultREnd == 0 {
		c.DefaultRStart = def.DefaultRStart
		c.DefaultREnd = def.DefaultREnd
		c.DefaultThetaStart = def.DefaultThetaStart
		c.DefaultThetaEnd = def.DefaultThetaEnd
	}
	if !c.DefaultSymmetry.Valid() {
		c.DefaultSymmetry = def.DefaultSymmetry
	}
	if c.DefaultMaxSpeed <= 0 || c.DefaultMaxSpeed < c.DefaultMinSpeed {
		c.DefaultMinSpeed = def.DefaultMinSpeed
		c.DefaultMaxSpeed = def.DefaultMaxSpeed
	}
	if c.DefaultMaxBentRate <= 0 || c.DefaultMaxBentRate < c.DefaultMinBentRate {
		c.DefaultMinBentRate = def.DefaultMinBentRate
		c.DefaultMaxBentRate = def.DefaultMaxBentRate
	}
	if !c.DefaultSpline.Valid() {
		c.DefaultSpline = def.DefaultSpline
	}
	return c
}
